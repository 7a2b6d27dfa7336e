package questrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/questrepo"
)

// Repo is an in-memory implementation of questrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.QuestID]questrepo.Quest
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.QuestID]questrepo.Quest),
	}
}

func (r *Repo) Create(ctx context.Context, q questrepo.Quest) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[q.ID]; ok {
		return questrepo.ErrAlreadyExists
	}
	r.byID[q.ID] = cloneQuest(q)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.QuestID) (questrepo.Quest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.byID[id]
	if !ok {
		return questrepo.Quest{}, questrepo.ErrNotFound
	}
	return cloneQuest(q), nil
}

func (r *Repo) ListByCreator(ctx context.Context, creator domain.UserID) ([]questrepo.Quest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]questrepo.Quest, 0)
	for _, q := range r.byID {
		if q.CreatorID == creator {
			out = append(out, cloneQuest(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.QuestID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return questrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneQuest(q questrepo.Quest) questrepo.Quest {
	out := q
	out.Start = clonePlace(q.Start)
	out.End = clonePlace(q.End)
	out.Intermediates = make([]domain.PlaceRef, 0, len(q.Intermediates))
	for _, p := range q.Intermediates {
		out.Intermediates = append(out.Intermediates, clonePlace(p))
	}
	out.Polyline = cloneStringPtr(q.Polyline)
	return out
}

func clonePlace(p domain.PlaceRef) domain.PlaceRef {
	cp := p
	cp.Pin = cloneStringPtr(p.Pin)
	return cp
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
