package questrepo

import (
	"context"
	"time"

	"github.com/sair-explore/quest-api/internal/domain"
)

// Quest is the persistence shape used by the quest repository.
// It is not an HTTP DTO.
type Quest struct {
	ID        domain.QuestID
	CreatorID domain.UserID

	Title       string
	Description string
	Category    domain.Category
	Difficulty  int
	PointsValue int
	IsPublic    bool

	Start         domain.PlaceRef
	End           domain.PlaceRef
	Intermediates []domain.PlaceRef

	DistanceMeters  float64
	DurationMinutes int
	Polyline        *string

	CompletionCount int
	AverageRating   float32

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted quests.
//
// Quests are write-once from this workflow's perspective: there is no update
// operation. ListByCreator returns results ordered by CreatedAt descending to
// keep behavior deterministic.
type Repository interface {
	Create(ctx context.Context, q Quest) error

	GetByID(ctx context.Context, id domain.QuestID) (Quest, error)

	ListByCreator(ctx context.Context, creator domain.UserID) ([]Quest, error)

	Delete(ctx context.Context, id domain.QuestID) error
}
