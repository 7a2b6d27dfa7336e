package questrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/sair-explore/quest-api/internal/adapters/postgres"
	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/questrepo"
)

// Repo is a Postgres implementation of questrepo.Repository.
//
// Place references are stored as JSONB documents; the quest row itself is
// write-once from this workflow's perspective.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// placeDoc is the JSONB shape for a stored PlaceRef.
type placeDoc struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Pin       *string `json:"pin,omitempty"`
}

func toPlaceDoc(p domain.PlaceRef) placeDoc {
	return placeDoc{Name: p.Name, Latitude: p.Latitude, Longitude: p.Longitude, Pin: p.Pin}
}

func fromPlaceDoc(d placeDoc) domain.PlaceRef {
	return domain.PlaceRef{Name: d.Name, Latitude: d.Latitude, Longitude: d.Longitude, Pin: d.Pin}
}

func encodePlaces(q questrepo.Quest) (start, end, mids []byte, err error) {
	start, err = json.Marshal(toPlaceDoc(q.Start))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: start location: %v", questrepo.ErrEncoding, err)
	}
	end, err = json.Marshal(toPlaceDoc(q.End))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: end location: %v", questrepo.ErrEncoding, err)
	}
	docs := make([]placeDoc, 0, len(q.Intermediates))
	for _, p := range q.Intermediates {
		docs = append(docs, toPlaceDoc(p))
	}
	mids, err = json.Marshal(docs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: intermediate locations: %v", questrepo.ErrEncoding, err)
	}
	return start, end, mids, nil
}

func (r *Repo) Create(ctx context.Context, q questrepo.Quest) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(q.ID))
	if err != nil {
		return fmt.Errorf("invalid quest id: %w", err)
	}
	start, end, mids, err := encodePlaces(q)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quests (
			id,
			creator_id,
			title,
			description,
			category,
			difficulty,
			points_value,
			is_public,
			start_location,
			end_location,
			intermediate_locations,
			distance_meters,
			duration_minutes,
			route_polyline,
			completion_count,
			average_rating,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		id,
		string(q.CreatorID),
		q.Title,
		q.Description,
		string(q.Category),
		q.Difficulty,
		q.PointsValue,
		q.IsPublic,
		start,
		end,
		mids,
		q.DistanceMeters,
		q.DurationMinutes,
		q.Polyline,
		q.CompletionCount,
		q.AverageRating,
		q.CreatedAt.UTC(),
		q.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return questrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

const questColumns = `
	id, creator_id, title, description, category, difficulty, points_value,
	is_public, start_location, end_location, intermediate_locations,
	distance_meters, duration_minutes, route_polyline,
	completion_count, average_rating, created_at, updated_at`

func (r *Repo) GetByID(ctx context.Context, id domain.QuestID) (questrepo.Quest, error) {
	if r.pool == nil {
		return questrepo.Quest{}, errors.New("nil postgres pool")
	}
	qid, err := uuid.Parse(string(id))
	if err != nil {
		return questrepo.Quest{}, questrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE id = $1`, qid)
	q, err := scanQuest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return questrepo.Quest{}, questrepo.ErrNotFound
		}
		return questrepo.Quest{}, err
	}
	return q, nil
}

func (r *Repo) ListByCreator(ctx context.Context, creator domain.UserID) ([]questrepo.Quest, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+questColumns+`
		FROM quests
		WHERE creator_id = $1
		ORDER BY created_at DESC, id ASC
	`, string(creator))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]questrepo.Quest, 0)
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id domain.QuestID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	qid, err := uuid.Parse(string(id))
	if err != nil {
		return questrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM quests WHERE id = $1`, qid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return questrepo.ErrNotFound
	}
	return nil
}

func scanQuest(row pgx.Row) (questrepo.Quest, error) {
	var (
		q         questrepo.Quest
		id        uuid.UUID
		creator   string
		category  string
		startRaw  []byte
		endRaw    []byte
		midsRaw   []byte
	)
	err := row.Scan(
		&id,
		&creator,
		&q.Title,
		&q.Description,
		&category,
		&q.Difficulty,
		&q.PointsValue,
		&q.IsPublic,
		&startRaw,
		&endRaw,
		&midsRaw,
		&q.DistanceMeters,
		&q.DurationMinutes,
		&q.Polyline,
		&q.CompletionCount,
		&q.AverageRating,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return questrepo.Quest{}, err
	}
	q.ID = domain.QuestID(id.String())
	q.CreatorID = domain.UserID(creator)
	q.Category = domain.Category(category)

	var start, end placeDoc
	if err := json.Unmarshal(startRaw, &start); err != nil {
		return questrepo.Quest{}, fmt.Errorf("decode start location: %w", err)
	}
	if err := json.Unmarshal(endRaw, &end); err != nil {
		return questrepo.Quest{}, fmt.Errorf("decode end location: %w", err)
	}
	var mids []placeDoc
	if err := json.Unmarshal(midsRaw, &mids); err != nil {
		return questrepo.Quest{}, fmt.Errorf("decode intermediate locations: %w", err)
	}
	q.Start = fromPlaceDoc(start)
	q.End = fromPlaceDoc(end)
	q.Intermediates = make([]domain.PlaceRef, 0, len(mids))
	for _, m := range mids {
		q.Intermediates = append(q.Intermediates, fromPlaceDoc(m))
	}
	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	return q, nil
}
