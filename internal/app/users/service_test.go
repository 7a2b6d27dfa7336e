package users

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/sair-explore/quest-api/internal/adapters/memory/clock"
	memuserrepo "github.com/sair-explore/quest-api/internal/adapters/memory/userrepo"
	"github.com/sair-explore/quest-api/internal/domain"
)

func newTestService() (*Service, *memuserrepo.Repo) {
	repo := memuserrepo.NewRepo()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	return NewService(repo, clk), repo
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	p, err := svc.Register(context.Background(), "user-1", RegisterInput{
		Username: "  alice   k ",
		Email:    "alice@example.com",
		Gender:   domain.GenderFemale,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Username != "alice k" {
		t.Fatalf("username=%q, want normalized", p.Username)
	}
	if p.Gender != domain.GenderFemale || p.Email != "alice@example.com" {
		t.Fatalf("profile=%+v", p)
	}
	if !p.CreatedAt.Equal(time.Unix(100, 0).UTC()) {
		t.Fatalf("createdAt=%v", p.CreatedAt)
	}
}

func TestService_Register_RequiresUsername(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "user-1", RegisterInput{Username: "   "})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 || ae.Message != "Please enter a username" {
		t.Fatalf("err=%v, want 422 %q", err, "Please enter a username")
	}
}

func TestService_Register_DefaultsGenderAndRejectsUnknown(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	p, err := svc.Register(context.Background(), "user-1", RegisterInput{Username: "alice"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Gender != domain.GenderOther {
		t.Fatalf("gender=%q, want default other", p.Gender)
	}

	_, err = svc.Register(context.Background(), "user-2", RegisterInput{Username: "bob", Gender: "unspecified"})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422 for unknown gender", err)
	}
}

func TestService_Register_Conflict(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	if _, err := svc.Register(context.Background(), "user-1", RegisterInput{Username: "alice"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "user-1", RegisterInput{Username: "alice"})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "USER_EXISTS" {
		t.Fatalf("err=%v, want USER_EXISTS 409", err)
	}
}

func TestService_Register_RequiresAuthenticatedUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "", RegisterInput{Username: "alice"})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 401 || ae.Message != "User not logged in" {
		t.Fatalf("err=%v, want 401 %q", err, "User not logged in")
	}
}

func TestService_GetOrCreate_CreatesDefaultProfile(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService()

	p, err := svc.GetOrCreate(context.Background(), "user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if p.ID != "user-1" || p.Email != "alice@example.com" || p.Gender != domain.GenderOther {
		t.Fatalf("profile=%+v", p)
	}

	// A second call returns the stored document, it does not recreate it.
	u, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	again, err := svc.GetOrCreate(context.Background(), "user-1", "other@example.com")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if again.Email != u.Email {
		t.Fatalf("email=%q, want the stored %q", again.Email, u.Email)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), "ghost")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "USER_NOT_FOUND" {
		t.Fatalf("err=%v, want USER_NOT_FOUND 404", err)
	}
}
