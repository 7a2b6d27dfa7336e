package quests

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/clock"
	"github.com/sair-explore/quest-api/internal/ports/out/questrepo"
	"github.com/sair-explore/quest-api/internal/ports/out/userrepo"
)

type Service struct {
	quests questrepo.Repository
	users  userrepo.Repository
	clk    clock.Clock
	log    zerolog.Logger

	newQuestID func() domain.QuestID
}

func NewService(questsRepo questrepo.Repository, usersRepo userrepo.Repository, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{
		quests: questsRepo,
		users:  usersRepo,
		clk:    clk,
		log:    log,
		newQuestID: func() domain.QuestID {
			return domain.QuestID(uuid.NewString())
		},
	}
}

// SetNewQuestIDForTest overrides quest ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewQuestIDForTest(fn func() domain.QuestID) {
	if fn != nil {
		s.newQuestID = fn
	}
}

// Create persists a completed draft as a new quest record.
//
// Preconditions are checked before any store call: the acting user must be
// known and the draft must carry both endpoints. The creator's questsCreated
// counter is incremented best-effort after the write; a failed increment does
// not fail the save.
func (s *Service) Create(ctx context.Context, creator domain.UserID, d domain.QuestDraft) (domain.Quest, error) {
	if creator == "" {
		return domain.Quest{}, &Error{Status: 401, Code: "USER_NOT_AUTHENTICATED", Message: "User not logged in"}
	}
	if d.Start == nil || d.End == nil {
		return domain.Quest{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "Start and end locations required"}
	}

	title := domain.NormalizeText(d.Title)
	if title == "" || d.Description == "" {
		return domain.Quest{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "Title and description required"}
	}
	if !d.Category.Valid() {
		return domain.Quest{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid category", Details: map[string]any{"category": string(d.Category)}}
	}
	if !domain.ValidDifficulty(d.Difficulty) {
		return domain.Quest{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid difficulty", Details: map[string]any{"difficulty": d.Difficulty}}
	}
	if !domain.ValidPoints(d.PointsValue) {
		return domain.Quest{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid points value", Details: map[string]any{"pointsValue": d.PointsValue}}
	}

	now := s.clk.Now()
	q := questrepo.Quest{
		ID:        s.newQuestID(),
		CreatorID: creator,

		Title:       title,
		Description: d.Description,
		Category:    d.Category,
		Difficulty:  d.Difficulty,
		PointsValue: d.PointsValue,
		IsPublic:    d.IsPublic,

		Start:         *d.Start,
		End:           *d.End,
		Intermediates: append([]domain.PlaceRef(nil), d.Intermediates...),

		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Route != nil {
		q.DistanceMeters = d.Route.DistanceMeters
		q.DurationMinutes = d.Route.DurationMinutes
		q.Polyline = cloneStringPtr(d.Route.Polyline)
	}

	if err := s.quests.Create(ctx, q); err != nil {
		switch {
		case errors.Is(err, questrepo.ErrEncoding):
			return domain.Quest{}, &Error{Status: 500, Code: "ENCODE_FAILED", Message: fmt.Sprintf("Failed to encode quest data: %v", err)}
		case errors.Is(err, questrepo.ErrAlreadyExists):
			// Extremely unlikely (UUID collision); treat as conflict.
			return domain.Quest{}, &Error{Status: 409, Code: "QUEST_ID_CONFLICT", Message: "quest id conflict"}
		default:
			return domain.Quest{}, &Error{Status: 502, Code: "STORE_ERROR", Message: fmt.Sprintf("Failed to save quest: %v", err)}
		}
	}

	// Counter increment is accepted eventual consistency: the quest is
	// already saved, so a failure here is logged and the save still succeeds.
	if err := s.users.IncrementQuestsCreated(ctx, creator); err != nil {
		s.log.Warn().
			Err(err).
			Str("user_id", string(creator)).
			Str("quest_id", string(q.ID)).
			Msg("questsCreated increment failed")
	}

	return toDomainQuest(q), nil
}

func (s *Service) ListMine(ctx context.Context, caller domain.UserID) ([]domain.Quest, error) {
	if caller == "" {
		return nil, &Error{Status: 401, Code: "USER_NOT_AUTHENTICATED", Message: "User not logged in"}
	}
	qs, err := s.quests.ListByCreator(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quest, 0, len(qs))
	for _, q := range qs {
		out = append(out, toDomainQuest(q))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller domain.UserID, id domain.QuestID) (domain.Quest, error) {
	q, err := s.quests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, questrepo.ErrNotFound) {
			return domain.Quest{}, &Error{Status: 404, Code: "QUEST_NOT_FOUND", Message: "quest not found"}
		}
		return domain.Quest{}, err
	}
	if !q.IsPublic && q.CreatorID != caller {
		// Private quests: return 404 even if they exist.
		return domain.Quest{}, &Error{Status: 404, Code: "QUEST_NOT_FOUND", Message: "quest not found"}
	}
	return toDomainQuest(q), nil
}

// Delete removes a quest. Only the creator may delete; anyone else gets 404.
func (s *Service) Delete(ctx context.Context, caller domain.UserID, id domain.QuestID) error {
	q, err := s.quests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, questrepo.ErrNotFound) {
			return &Error{Status: 404, Code: "QUEST_NOT_FOUND", Message: "quest not found"}
		}
		return err
	}
	if q.CreatorID != caller {
		return &Error{Status: 404, Code: "QUEST_NOT_FOUND", Message: "quest not found"}
	}
	if err := s.quests.Delete(ctx, id); err != nil {
		if errors.Is(err, questrepo.ErrNotFound) {
			return &Error{Status: 404, Code: "QUEST_NOT_FOUND", Message: "quest not found"}
		}
		return err
	}
	return nil
}

func toDomainQuest(q questrepo.Quest) domain.Quest {
	return domain.Quest{
		ID:        q.ID,
		CreatorID: q.CreatorID,

		Title:       q.Title,
		Description: q.Description,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
		PointsValue: q.PointsValue,
		IsPublic:    q.IsPublic,

		Start:         q.Start,
		End:           q.End,
		Intermediates: append([]domain.PlaceRef(nil), q.Intermediates...),

		DistanceMeters:  q.DistanceMeters,
		DurationMinutes: q.DurationMinutes,
		Polyline:        cloneStringPtr(q.Polyline),

		CompletionCount: q.CompletionCount,
		AverageRating:   q.AverageRating,

		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
