package wizard

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	memclock "github.com/sair-explore/quest-api/internal/adapters/memory/clock"
)

func newTestRegistry(clk *memclock.ManualClock, ttl time.Duration) *Registry {
	return NewRegistry(Deps{
		Search: &fakeSearch{},
		Routes: &fakeRoutes{},
		Saver:  &fakeSaver{},
		Clock:  clk,
		Log:    zerolog.Nop(),
	}, Options{}, ttl)
}

func TestRegistry_CreateAndGet(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	r := newTestRegistry(clk, time.Hour)

	id, sess := r.Create("user-1")
	if id == "" || sess == nil {
		t.Fatalf("Create returned id=%q sess=%v", id, sess)
	}

	got, err := r.Get(id, "user-1")
	if err != nil || got != sess {
		t.Fatalf("Get: sess=%v err=%v", got, err)
	}
}

func TestRegistry_ForeignSessionLooksAbsent(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	r := newTestRegistry(clk, time.Hour)

	id, _ := r.Create("user-1")

	if _, err := r.Get(id, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get by foreign caller: err=%v, want ErrNotFound", err)
	}
	if err := r.Delete(id, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete by foreign caller: err=%v, want ErrNotFound", err)
	}
	// The owner still has it.
	if _, err := r.Get(id, "user-1"); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	r := newTestRegistry(clk, time.Hour)

	id, _ := r.Create("user-1")
	if err := r.Delete(id, "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(id, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: err=%v, want ErrNotFound", err)
	}
	if err := r.Delete(id, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err=%v, want ErrNotFound", err)
	}
}

func TestRegistry_PurgeExpired(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	r := newTestRegistry(clk, time.Hour)

	idOld, _ := r.Create("user-1")
	clk.Advance(45 * time.Minute)
	idFresh, fresh := r.Create("user-1")
	fresh.SetTitle("keep me warm")

	clk.Advance(30 * time.Minute)
	if n := r.PurgeExpired(clk.Now()); n != 1 {
		t.Fatalf("purged=%d, want 1", n)
	}
	if _, err := r.Get(idOld, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session still retrievable: err=%v", err)
	}
	if _, err := r.Get(idFresh, "user-1"); err != nil {
		t.Fatalf("fresh session purged: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("len=%d, want 1", r.Len())
	}
}

func TestRegistry_ZeroTTLDisablesPurge(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	r := newTestRegistry(clk, 0)

	r.Create("user-1")
	clk.Advance(1000 * time.Hour)
	if n := r.PurgeExpired(clk.Now()); n != 0 {
		t.Fatalf("purged=%d, want 0 with TTL disabled", n)
	}
	if r.Len() != 1 {
		t.Fatalf("len=%d, want 1", r.Len())
	}
}

func TestRegistry_DeterministicIDsForTest(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	r := newTestRegistry(clk, time.Hour)
	n := 0
	r.SetNewDraftIDForTest(func() string {
		n++
		return "draft-" + string(rune('0'+n))
	})

	id1, _ := r.Create("user-1")
	id2, _ := r.Create("user-1")
	if id1 != "draft-1" || id2 != "draft-2" {
		t.Fatalf("ids=%q,%q", id1, id2)
	}
}
