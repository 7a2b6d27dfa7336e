package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sair-explore/quest-api/internal/domain"
)

// Registry holds live wizard sessions keyed by an opaque draft id, so the
// wizard can be driven over HTTP. Sessions belong to the user who opened
// them; lookups by anyone else behave as if the session does not exist.
type Registry struct {
	deps Deps
	opts Options
	ttl  time.Duration

	mu   sync.Mutex
	byID map[string]*Session

	newDraftID func() string
}

func NewRegistry(deps Deps, opts Options, ttl time.Duration) *Registry {
	return &Registry{
		deps:       deps,
		opts:       opts,
		ttl:        ttl,
		byID:       make(map[string]*Session),
		newDraftID: uuid.NewString,
	}
}

// SetNewDraftIDForTest overrides draft ID generation for deterministic tests.
// It should not be used in production code.
func (r *Registry) SetNewDraftIDForTest(fn func() string) {
	if fn != nil {
		r.newDraftID = fn
	}
}

// Create opens a new session for the owner and returns its id.
func (r *Registry) Create(owner domain.UserID) (string, *Session) {
	s := NewSession(owner, r.deps, r.opts)
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newDraftID()
	r.byID[id] = s
	return id, s
}

// Get returns the owner's session, or ErrNotFound for unknown ids and for
// sessions owned by someone else.
func (r *Registry) Get(id string, caller domain.UserID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.Owner() != caller {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete abandons a session. Deleting a foreign or unknown session is
// reported as ErrNotFound.
func (r *Registry) Delete(id string, caller domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.Owner() != caller {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// PurgeExpired drops sessions idle for longer than the registry TTL and
// returns how many were removed. A TTL of zero disables purging.
func (r *Registry) PurgeExpired(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.byID {
		if now.Sub(s.LastActive()) > r.ttl {
			delete(r.byID, id)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
