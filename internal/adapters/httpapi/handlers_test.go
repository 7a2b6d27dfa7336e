package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	memclock "github.com/sair-explore/quest-api/internal/adapters/memory/clock"
	memquestrepo "github.com/sair-explore/quest-api/internal/adapters/memory/questrepo"
	memuserrepo "github.com/sair-explore/quest-api/internal/adapters/memory/userrepo"
	"github.com/sair-explore/quest-api/internal/app/quests"
	"github.com/sair-explore/quest-api/internal/app/users"
	"github.com/sair-explore/quest-api/internal/app/wizard"
	"github.com/sair-explore/quest-api/internal/ports/out/directions"
	"github.com/sair-explore/quest-api/internal/ports/out/placesearch"
)

type stubSearch struct{}

func (stubSearch) Search(_ context.Context, req placesearch.Request) ([]placesearch.Suggestion, error) {
	return []placesearch.Suggestion{
		{Name: req.Query, Address: req.Query + " Road, New Delhi", Latitude: 28.6, Longitude: 77.2},
	}, nil
}

type stubRoutes struct{}

func (stubRoutes) Calculate(_ context.Context, _ directions.Request) (directions.Route, error) {
	return directions.Route{DistanceMeters: 5400, DurationSeconds: 1260}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	questRepo := memquestrepo.NewRepo()
	userRepo := memuserrepo.NewRepo()

	questSvc := quests.NewService(questRepo, userRepo, clk, zerolog.Nop())
	userSvc := users.NewService(userRepo, clk)
	registry := wizard.NewRegistry(wizard.Deps{
		Search: stubSearch{},
		Routes: stubRoutes{},
		Saver:  questSvc,
		Clock:  clk,
		Log:    zerolog.Nop(),
	}, wizard.Options{}, time.Hour)

	api := NewServer(questSvc, userSvc, registry)
	return NewRouter(api, RouterOptions{
		AuthMiddleware: NewAuthMiddleware(map[string]string{
			"tok-alice": "user-alice",
			"tok-bob":   "user-bob",
		}),
		Log: zerolog.Nop(),
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestRouter_HealthzIsUnauthenticated(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestRouter_MissingTokenRejected(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/v1/drafts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	decode(t, rec, &er)
	if er.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("code=%q", er.Error.Code)
	}
}

func TestRouter_UnknownTokenRejected(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/v1/drafts", "tok-mallory", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUsers_RegisterThenGetMe(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/users", "tok-alice", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"gender":   "female",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rec.Code, rec.Body.String())
	}
	var p Profile
	decode(t, rec, &p)
	if p.ID != "user-alice" || p.Username != "alice" {
		t.Fatalf("profile=%+v", p)
	}

	rec = do(t, h, http.MethodGet, "/v1/users/me", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status=%d body=%s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &p)
	if p.Username != "alice" {
		t.Fatalf("profile=%+v", p)
	}
}

func TestUsers_RegisterWithoutUsername(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/v1/users", "tok-alice", map[string]any{"username": "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	decode(t, rec, &er)
	if er.Error.Message != "Please enter a username" {
		t.Fatalf("message=%q", er.Error.Message)
	}
}

func createDraft(t *testing.T, h http.Handler, token string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/drafts", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create draft status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out CreateDraftResponse
	decode(t, rec, &out)
	if out.DraftID == "" {
		t.Fatalf("empty draft id")
	}
	if out.Snapshot.Step != "details" || out.Snapshot.Draft.PointsValue != 100 {
		t.Fatalf("snapshot=%+v, want fresh defaults", out.Snapshot)
	}
	return out.DraftID
}

func selectPlace(t *testing.T, h http.Handler, token, draftID, focus, query string) DraftSnapshot {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/drafts/"+draftID+"/search", token, SearchRequest{Query: query, Focus: focus})
	if rec.Code != http.StatusOK {
		t.Fatalf("search status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/v1/drafts/"+draftID+"/select", token, SelectRequest{Index: 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("select status=%d body=%s", rec.Code, rec.Body.String())
	}
	var snap DraftSnapshot
	decode(t, rec, &snap)
	return snap
}

func TestDrafts_FullWizardFlow(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	// Details.
	rec := do(t, h, http.MethodPatch, "/v1/drafts/"+id, "tok-alice", map[string]any{
		"title":       "Old Delhi Food Walk",
		"description": "Eat your way through Chandni Chowk",
		"category":    "Food",
		"difficulty":  3,
		"pointsValue": 150,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rec.Code, rec.Body.String())
	}
	var snap DraftSnapshot
	decode(t, rec, &snap)
	if !snap.CanAdvance || snap.Draft.Category != "Food" {
		t.Fatalf("snapshot=%+v", snap)
	}

	rec = do(t, h, http.MethodPost, "/v1/drafts/"+id+"/advance", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance status=%d body=%s", rec.Code, rec.Body.String())
	}

	// Start, then end; the end selection auto-calculates the route.
	selectPlace(t, h, "tok-alice", id, "start", "Red Fort")
	snap = selectPlace(t, h, "tok-alice", id, "end", "India Gate")
	if snap.Draft.Route == nil {
		t.Fatalf("route missing after both endpoints: %+v", snap)
	}
	if snap.Draft.Route.DistanceText != "5.4 km" || snap.Draft.Route.DurationText != "21 min" {
		t.Fatalf("route=%+v, want 5.4 km / 21 min", snap.Draft.Route)
	}
	if !snap.RouteCalculated {
		t.Fatalf("routeCalculated must be true")
	}

	// Save.
	rec = do(t, h, http.MethodPost, "/v1/drafts/"+id+"/save", "tok-alice", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status=%d body=%s", rec.Code, rec.Body.String())
	}
	var q Quest
	decode(t, rec, &q)
	if q.ID == "" || q.CreatorID != "user-alice" || q.Title != "Old Delhi Food Walk" {
		t.Fatalf("quest=%+v", q)
	}

	// The session reset, remembering what it created.
	rec = do(t, h, http.MethodGet, "/v1/drafts/"+id, "tok-alice", nil)
	decode(t, rec, &snap)
	if snap.Draft.Title != "" || snap.Step != "details" {
		t.Fatalf("snapshot after save=%+v, want reset", snap)
	}
	if snap.Created == nil || snap.Created.ID != q.ID {
		t.Fatalf("created=%+v, want %q", snap.Created, q.ID)
	}

	// The quest is retrievable and listed.
	rec = do(t, h, http.MethodGet, "/v1/quests/"+q.ID, "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get quest status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/v1/quests/mine", "tok-alice", nil)
	var list QuestList
	decode(t, rec, &list)
	if len(list.Quests) != 1 || list.Quests[0].ID != q.ID {
		t.Fatalf("list=%+v", list)
	}
}

func TestDrafts_SaveWithoutEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	rec := do(t, h, http.MethodPatch, "/v1/drafts/"+id, "tok-alice", map[string]any{
		"title":       "Incomplete",
		"description": "No places picked yet",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status=%d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/v1/drafts/"+id+"/save", "tok-alice", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("save status=%d body=%s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	decode(t, rec, &er)
	if er.Error.Message != "Start and end locations required" {
		t.Fatalf("message=%q", er.Error.Message)
	}

	// The draft survives the failed save.
	rec = do(t, h, http.MethodGet, "/v1/drafts/"+id, "tok-alice", nil)
	var snap DraftSnapshot
	decode(t, rec, &snap)
	if snap.Draft.Title != "Incomplete" {
		t.Fatalf("draft=%+v, want retained", snap.Draft)
	}
}

func TestDrafts_ForeignDraftLooksAbsent(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	rec := do(t, h, http.MethodGet, "/v1/drafts/"+id, "tok-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodDelete, "/v1/drafts/"+id, "tok-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDrafts_PatchNullDifficultyRejected(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	rec := do(t, h, http.MethodPatch, "/v1/drafts/"+id, "tok-alice", map[string]any{"difficulty": nil})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDrafts_PatchNullTitleClears(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	rec := do(t, h, http.MethodPatch, "/v1/drafts/"+id, "tok-alice", map[string]any{"title": "Keep"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	rec = do(t, h, http.MethodPatch, "/v1/drafts/"+id, "tok-alice", map[string]any{"title": nil})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var snap DraftSnapshot
	decode(t, rec, &snap)
	if snap.Draft.Title != "" {
		t.Fatalf("title=%q, want cleared", snap.Draft.Title)
	}
}

func TestDrafts_AdvanceGateFailure(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	rec := do(t, h, http.MethodPost, "/v1/drafts/"+id+"/advance", "tok-alice", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	decode(t, rec, &er)
	if er.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code=%q", er.Error.Code)
	}
}

func TestQuests_PrivateQuestHiddenFromOthers(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createDraft(t, h, "tok-alice")

	rec := do(t, h, http.MethodPatch, "/v1/drafts/"+id, "tok-alice", map[string]any{
		"title":       "Secret Walk",
		"description": "Members only",
		"isPublic":    false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status=%d", rec.Code)
	}
	selectPlace(t, h, "tok-alice", id, "start", "Red Fort")
	selectPlace(t, h, "tok-alice", id, "end", "India Gate")

	rec = do(t, h, http.MethodPost, "/v1/drafts/"+id+"/save", "tok-alice", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status=%d body=%s", rec.Code, rec.Body.String())
	}
	var q Quest
	decode(t, rec, &q)

	rec = do(t, h, http.MethodGet, "/v1/quests/"+q.ID, "tok-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get status=%d, want 404", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/v1/quests/"+q.ID, "tok-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete status=%d, want 404", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/v1/quests/"+q.ID, "tok-alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDevAuthMiddleware_SubjectHeader(t *testing.T) {
	t.Parallel()

	var gotSub string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := NewDevAuthMiddleware("dev|local")(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("X-Debug-Subject", "user-override")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if gotSub != "user-override" {
		t.Fatalf("subject=%q", gotSub)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if gotSub != "dev|local" {
		t.Fatalf("fallback subject=%q", gotSub)
	}
}
