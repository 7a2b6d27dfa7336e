// Package contracttest holds behavioral suites that every repository
// implementation (memory, postgres) must satisfy.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sair-explore/quest-api/internal/domain"
	questrepoport "github.com/sair-explore/quest-api/internal/ports/out/questrepo"
	userrepoport "github.com/sair-explore/quest-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type QuestRepoFactory func(t *testing.T) (questrepoport.Repository, CleanupFunc)
type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)

func place(name string, lat, lng float64) domain.PlaceRef {
	pin := "pin-" + name
	return domain.PlaceRef{Name: name, Latitude: lat, Longitude: lng, Pin: &pin}
}

func sampleQuest(id domain.QuestID, creator domain.UserID, createdAt time.Time) questrepoport.Quest {
	poly := "abc123"
	return questrepoport.Quest{
		ID:        id,
		CreatorID: creator,

		Title:       "Old Delhi Food Walk",
		Description: "Chandni Chowk to India Gate",
		Category:    domain.CategoryFood,
		Difficulty:  3,
		PointsValue: 150,
		IsPublic:    true,

		Start:         place("Chandni Chowk", 28.6506, 77.2303),
		End:           place("India Gate", 28.6129, 77.2295),
		Intermediates: []domain.PlaceRef{place("Red Fort", 28.6562, 77.2410)},

		DistanceMeters:  5400,
		DurationMinutes: 21,
		Polyline:        &poly,

		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func RunQuestRepo(t *testing.T, newRepo QuestRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	creator := domain.UserID("u-contract")
	base := time.Unix(1_000_000, 0).UTC()

	q1 := sampleQuest(domain.QuestID(uuid.NewString()), creator, base)
	if err := repo.Create(ctx, q1); err != nil {
		t.Fatalf("Create q1: %v", err)
	}
	if err := repo.Create(ctx, q1); !errors.Is(err, questrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, q1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != q1.Title || got.CreatorID != creator || got.Category != domain.CategoryFood {
		t.Fatalf("got=%+v", got)
	}
	if len(got.Intermediates) != 1 || got.Intermediates[0].Name != "Red Fort" {
		t.Fatalf("intermediates=%+v", got.Intermediates)
	}
	if got.Polyline == nil || *got.Polyline != "abc123" {
		t.Fatalf("polyline=%v", got.Polyline)
	}
	if got.DistanceMeters != 5400 || got.DurationMinutes != 21 {
		t.Fatalf("route totals=%v/%v", got.DistanceMeters, got.DurationMinutes)
	}

	// Newer quests list first.
	q2 := sampleQuest(domain.QuestID(uuid.NewString()), creator, base.Add(time.Hour))
	q2.Title = "Lodhi Garden Loop"
	q2.Polyline = nil
	if err := repo.Create(ctx, q2); err != nil {
		t.Fatalf("Create q2: %v", err)
	}
	other := sampleQuest(domain.QuestID(uuid.NewString()), "u-other", base)
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	ls, err := repo.ListByCreator(ctx, creator)
	if err != nil {
		t.Fatalf("ListByCreator: %v", err)
	}
	if len(ls) != 2 {
		t.Fatalf("len=%d", len(ls))
	}
	if ls[0].ID != q2.ID || ls[1].ID != q1.ID {
		t.Fatalf("order=%v,%v", ls[0].ID, ls[1].ID)
	}
	if ls[0].Polyline != nil {
		t.Fatalf("q2 polyline=%v, want nil", ls[0].Polyline)
	}

	if err := repo.Delete(ctx, q1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, q1.ID); !errors.Is(err, questrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, q1.ID); !errors.Is(err, questrepoport.ErrNotFound) {
		t.Fatalf("double Delete err=%v, want ErrNotFound", err)
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	id := domain.UserID("u-" + uuid.NewString())
	u := userrepoport.User{
		ID:        id,
		Username:  "shravan",
		Email:     "shravan@example.com",
		Gender:    domain.GenderOther,
		CreatedAt: time.Unix(2_000_000, 0).UTC(),
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, u); !errors.Is(err, userrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "shravan" || got.QuestsCreated != 0 {
		t.Fatalf("got=%+v", got)
	}

	if err := repo.IncrementQuestsCreated(ctx, id); err != nil {
		t.Fatalf("IncrementQuestsCreated: %v", err)
	}
	if err := repo.IncrementQuestsCreated(ctx, id); err != nil {
		t.Fatalf("IncrementQuestsCreated: %v", err)
	}
	got, err = repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.QuestsCreated != 2 {
		t.Fatalf("questsCreated=%d, want 2", got.QuestsCreated)
	}

	if err := repo.IncrementQuestsCreated(ctx, "u-missing"); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("increment missing err=%v, want ErrNotFound", err)
	}

	got.TotalPoints = 500
	got.QuestsCompleted = 3
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalPoints != 500 || got.QuestsCompleted != 3 || got.QuestsCreated != 2 {
		t.Fatalf("after save got=%+v", got)
	}

	if err := repo.Save(ctx, userrepoport.User{ID: "u-missing"}); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("Save missing err=%v, want ErrNotFound", err)
	}
}
