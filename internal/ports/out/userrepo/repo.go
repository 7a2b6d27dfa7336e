package userrepo

import (
	"context"
	"time"

	"github.com/sair-explore/quest-api/internal/domain"
)

// User is the persistence shape used by the user repository.
type User struct {
	ID domain.UserID

	Username string
	Email    string
	Gender   domain.Gender

	TotalPoints     int
	QuestsCompleted int
	QuestsCreated   int

	CreatedAt time.Time
}

// Repository provides access to persisted user profiles.
type Repository interface {
	Create(ctx context.Context, u User) error
	Save(ctx context.Context, u User) error

	GetByID(ctx context.Context, id domain.UserID) (User, error)

	// IncrementQuestsCreated atomically bumps the user's created-quests
	// counter. It must not read-modify-write through the caller.
	IncrementQuestsCreated(ctx context.Context, id domain.UserID) error
}
