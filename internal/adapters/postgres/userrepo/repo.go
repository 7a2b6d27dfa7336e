package userrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/sair-explore/quest-api/internal/adapters/postgres"
	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, username, email, gender,
			total_points, quests_completed, quests_created, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		string(u.ID),
		u.Username,
		u.Email,
		string(u.Gender),
		u.TotalPoints,
		u.QuestsCompleted,
		u.QuestsCreated,
		u.CreatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return userrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Save(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $2,
		    email = $3,
		    gender = $4,
		    total_points = $5,
		    quests_completed = $6,
		    quests_created = $7
		WHERE id = $1
	`,
		string(u.ID),
		u.Username,
		u.Email,
		string(u.Gender),
		u.TotalPoints,
		u.QuestsCompleted,
		u.QuestsCreated,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	var (
		u      userrepo.User
		uid    string
		gender string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, gender,
		       total_points, quests_completed, quests_created, created_at
		FROM users
		WHERE id = $1
	`, string(id)).Scan(
		&uid,
		&u.Username,
		&u.Email,
		&gender,
		&u.TotalPoints,
		&u.QuestsCompleted,
		&u.QuestsCreated,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userrepo.User{}, userrepo.ErrNotFound
		}
		return userrepo.User{}, err
	}
	u.ID = domain.UserID(uid)
	u.Gender = domain.Gender(gender)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// IncrementQuestsCreated bumps the counter in a single statement so
// concurrent saves never lose increments.
func (r *Repo) IncrementQuestsCreated(ctx context.Context, id domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE users SET quests_created = quests_created + 1 WHERE id = $1
	`, string(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}
	return nil
}
