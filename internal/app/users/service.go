package users

import (
	"context"
	"errors"

	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/clock"
	"github.com/sair-explore/quest-api/internal/ports/out/userrepo"
)

type Service struct {
	users userrepo.Repository
	clk   clock.Clock
}

func NewService(usersRepo userrepo.Repository, clk clock.Clock) *Service {
	return &Service{users: usersRepo, clk: clk}
}

type RegisterInput struct {
	Username string
	Email    string
	Gender   domain.Gender
}

// Register creates the profile document for a newly signed-up user.
// Identity itself (credentials, tokens) is the identity provider's problem;
// this only mirrors the profile record.
func (s *Service) Register(ctx context.Context, id domain.UserID, in RegisterInput) (domain.UserProfile, error) {
	if id == "" {
		return domain.UserProfile{}, &Error{Status: 401, Code: "USER_NOT_AUTHENTICATED", Message: "User not logged in"}
	}
	username := domain.NormalizeText(in.Username)
	if username == "" {
		return domain.UserProfile{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "Please enter a username"}
	}
	gender := in.Gender
	if gender == "" {
		gender = domain.GenderOther
	}
	if !gender.Valid() {
		return domain.UserProfile{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid gender", Details: map[string]any{"gender": string(in.Gender)}}
	}

	u := userrepo.User{
		ID:        id,
		Username:  username,
		Email:     in.Email,
		Gender:    gender,
		CreatedAt: s.clk.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return domain.UserProfile{}, &Error{Status: 409, Code: "USER_EXISTS", Message: "profile already exists"}
		}
		return domain.UserProfile{}, err
	}
	return toDomainProfile(u), nil
}

// GetOrCreate returns the profile for the authenticated user, creating a
// default one when no document exists yet (first login on this backend).
func (s *Service) GetOrCreate(ctx context.Context, id domain.UserID, email string) (domain.UserProfile, error) {
	if id == "" {
		return domain.UserProfile{}, &Error{Status: 401, Code: "USER_NOT_AUTHENTICATED", Message: "User not logged in"}
	}
	u, err := s.users.GetByID(ctx, id)
	if err == nil {
		return toDomainProfile(u), nil
	}
	if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.UserProfile{}, err
	}

	u = userrepo.User{
		ID:        id,
		Email:     email,
		Gender:    domain.GenderOther,
		CreatedAt: s.clk.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			// Lost a race against a concurrent first request; re-read.
			u, err = s.users.GetByID(ctx, id)
			if err != nil {
				return domain.UserProfile{}, err
			}
			return toDomainProfile(u), nil
		}
		return domain.UserProfile{}, err
	}
	return toDomainProfile(u), nil
}

func (s *Service) Get(ctx context.Context, id domain.UserID) (domain.UserProfile, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.UserProfile{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return domain.UserProfile{}, err
	}
	return toDomainProfile(u), nil
}

func toDomainProfile(u userrepo.User) domain.UserProfile {
	return domain.UserProfile{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Gender:          u.Gender,
		TotalPoints:     u.TotalPoints,
		QuestsCompleted: u.QuestsCompleted,
		QuestsCreated:   u.QuestsCreated,
		CreatedAt:       u.CreatedAt,
	}
}
