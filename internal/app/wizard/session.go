package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/clock"
	"github.com/sair-explore/quest-api/internal/ports/out/directions"
	"github.com/sair-explore/quest-api/internal/ports/out/placesearch"
)

// Step indexes the wizard pages in creation order.
type Step int

const (
	StepDetails Step = iota
	StepStart
	StepEnd
	StepRoute
	StepFinish
)

// Focus selects which draft slot a search selection is assigned to.
type Focus string

const (
	FocusStart        Focus = "start"
	FocusEnd          Focus = "end"
	FocusIntermediate Focus = "intermediate"
)

func (f Focus) Valid() bool {
	switch f {
	case FocusStart, FocusEnd, FocusIntermediate:
		return true
	}
	return false
}

// DefaultMinQueryLen is the shortest query that triggers a lookup.
// Shorter input only clears the current result list.
const DefaultMinQueryLen = 3

// Saver persists a completed draft on behalf of the session owner.
// *quests.Service satisfies it.
type Saver interface {
	Create(ctx context.Context, creator domain.UserID, d domain.QuestDraft) (domain.Quest, error)
}

// Deps are the injected collaborators of a session.
type Deps struct {
	Search placesearch.Service
	Routes directions.Service
	Saver  Saver
	Clock  clock.Clock
	Log    zerolog.Logger
}

// Options tune per-session search behavior.
type Options struct {
	// Anchor biases place search when no user location is available.
	Anchor placesearch.Anchor
	Zoom   int
	// MinQueryLen overrides DefaultMinQueryLen when > 0.
	MinQueryLen int
}

// Snapshot is an immutable view of the session state, safe to hand to
// observers and HTTP encoders.
type Snapshot struct {
	Step  Step
	Focus Focus
	Draft domain.QuestDraft

	Results   []placesearch.Suggestion
	Searching bool

	CalculatingRoute bool
	RouteCalculated  bool

	Saving       bool
	ErrorMessage string
	Created      *domain.Quest
}

// Session is the wizard state controller for one quest creation flow.
//
// All state lives behind one mutex, so every user event and every adapter
// completion is applied as a single serialized mutation. In-flight search
// responses are discarded when their sequence number is stale; in-flight
// route responses are discarded when their generation is stale (last
// response wins).
type Session struct {
	owner domain.UserID
	deps  Deps
	opts  Options

	mu         sync.Mutex
	draft      domain.QuestDraft
	step       Step
	focus      Focus
	results    []placesearch.Suggestion
	searching  bool
	searchSeq  uint64
	routing    bool
	routeGen   uint64
	autoRouted bool
	saving     bool
	errMsg     string
	created    *domain.Quest
	lastActive time.Time

	observers []func(Snapshot)
}

func NewSession(owner domain.UserID, deps Deps, opts Options) *Session {
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = DefaultMinQueryLen
	}
	s := &Session{
		owner: owner,
		deps:  deps,
		opts:  opts,
		draft: domain.NewQuestDraft(),
		focus: FocusStart,
	}
	s.lastActive = deps.Clock.Now()
	return s
}

func (s *Session) Owner() domain.UserID { return s.owner }

// LastActive reports when the session last processed an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe registers an observer called synchronously after every state
// change with a fresh snapshot. Observers must not block.
func (s *Session) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// --- Details step ---

func (s *Session) SetTitle(v string) {
	s.mu.Lock()
	s.draft.Title = v
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Session) SetDescription(v string) {
	s.mu.Lock()
	s.draft.Description = v
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Session) SetCategory(c domain.Category) error {
	if !c.Valid() {
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid category", Details: map[string]any{"category": string(c)}}
	}
	s.mu.Lock()
	s.draft.Category = c
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Session) SetDifficulty(d int) error {
	if !domain.ValidDifficulty(d) {
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "difficulty must be between 1 and 5", Details: map[string]any{"difficulty": d}}
	}
	s.mu.Lock()
	s.draft.Difficulty = d
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Session) SetPoints(p int) error {
	if !domain.ValidPoints(p) {
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "points must be 50..500 in steps of 50", Details: map[string]any{"pointsValue": p}}
	}
	s.mu.Lock()
	s.draft.PointsValue = p
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Session) SetVisibility(public bool) {
	s.mu.Lock()
	s.draft.IsPublic = public
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
}

// --- Step navigation ---

// CanAdvance reports whether the given step's preconditions are met.
func (s *Session) CanAdvance(step Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdvanceLocked(step)
}

func (s *Session) canAdvanceLocked(step Step) bool {
	switch step {
	case StepDetails:
		return s.draft.Title != "" && s.draft.Description != ""
	case StepStart:
		return s.draft.Start != nil
	case StepEnd:
		return s.draft.End != nil
	case StepRoute:
		return s.routeCalculatedLocked()
	case StepFinish:
		return true
	default:
		return false
	}
}

// Advance moves forward one step after checking the current step's gate.
// Steps are strictly sequential; there is no skipping.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.step >= StepFinish {
		s.mu.Unlock()
		return &Error{Status: 409, Code: "STEP_OUT_OF_RANGE", Message: "already at the final step"}
	}
	if !s.canAdvanceLocked(s.step) {
		err := &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "step requirements not met",
			Details: map[string]any{"missing": s.missingForStepLocked(s.step)},
		}
		s.mu.Unlock()
		return err
	}
	s.step++
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

// Back moves one step backwards. It has no precondition.
func (s *Session) Back() {
	s.mu.Lock()
	if s.step > StepDetails {
		s.step--
	}
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Session) missingForStepLocked(step Step) []string {
	var missing []string
	switch step {
	case StepDetails:
		if s.draft.Title == "" {
			missing = append(missing, "title")
		}
		if s.draft.Description == "" {
			missing = append(missing, "description")
		}
	case StepStart:
		missing = append(missing, "startLocation")
	case StepEnd:
		missing = append(missing, "endLocation")
	case StepRoute:
		missing = append(missing, "route")
	}
	return missing
}

// --- Place search ---

func (s *Session) SetFocus(f Focus) error {
	if !f.Valid() {
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid focus", Details: map[string]any{"focus": string(f)}}
	}
	s.mu.Lock()
	s.focus = f
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

// Search issues one autosuggest lookup for the query. Queries shorter than
// the configured minimum only clear the current result list. Only the most
// recently issued query is authoritative: a completion carrying a stale
// sequence number is discarded without touching session state.
func (s *Session) Search(ctx context.Context, query string) ([]placesearch.Suggestion, error) {
	q := strings.TrimSpace(query)

	s.mu.Lock()
	if utf8.RuneCountInString(q) < s.opts.MinQueryLen {
		s.results = nil
		s.searching = false
		// Invalidate any in-flight lookup so it cannot repopulate the
		// cleared list.
		s.searchSeq++
		s.touchLocked()
		s.mu.Unlock()
		s.publish()
		return nil, nil
	}
	s.searchSeq++
	seq := s.searchSeq
	s.searching = true
	req := placesearch.Request{Query: q, Anchor: s.opts.Anchor, Zoom: s.opts.Zoom}
	s.touchLocked()
	s.mu.Unlock()
	s.publish()

	res, err := s.deps.Search.Search(ctx, req)

	s.mu.Lock()
	if seq != s.searchSeq {
		// Superseded by a newer query; drop this response entirely.
		s.mu.Unlock()
		return nil, nil
	}
	s.searching = false
	if err != nil {
		// Failure leaves the result list unchanged and mutates no draft state.
		s.deps.Log.Warn().Err(err).Str("query", q).Uint64("seq", seq).Msg("place search failed")
		s.touchLocked()
		s.mu.Unlock()
		s.publish()
		return nil, &Error{Status: 502, Code: "SEARCH_FAILED", Message: "place search failed"}
	}
	s.results = res
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return append([]placesearch.Suggestion(nil), res...), nil
}

// SelectSuggestion assigns result[index] into the slot indicated by the
// current focus and clears the result list. The first time both endpoints
// become set, it triggers route calculation automatically, exactly once per
// session; any later endpoint change requires an explicit CalculateRoute.
func (s *Session) SelectSuggestion(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.results) {
		s.mu.Unlock()
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "no such suggestion", Details: map[string]any{"index": index}}
	}
	sg := s.results[index]
	name := sg.Name
	if name == "" {
		name = sg.Address
	}
	ref := domain.PlaceRef{
		Name:      name,
		Latitude:  sg.Latitude,
		Longitude: sg.Longitude,
		Pin:       cloneStringPtr(sg.Pin),
	}

	switch s.focus {
	case FocusStart:
		s.draft.Start = &ref
		s.invalidateRouteLocked()
	case FocusEnd:
		s.draft.End = &ref
		s.invalidateRouteLocked()
	case FocusIntermediate:
		s.draft.Intermediates = append(s.draft.Intermediates, ref)
		s.invalidateRouteLocked()
	}
	s.results = nil

	trigger := false
	var gen uint64
	var req directions.Request
	if s.draft.Start != nil && s.draft.End != nil && !s.autoRouted {
		s.autoRouted = true
		trigger = true
		s.routing = true
		s.routeGen++
		gen = s.routeGen
		req = s.routeRequestLocked()
	}
	s.touchLocked()
	s.mu.Unlock()
	s.publish()

	if trigger {
		// The selection itself succeeded; a route failure is surfaced on
		// the snapshot error message, same as an explicit recompute.
		_ = s.completeRoute(ctx, gen, req)
	}
	return nil
}

// RemoveIntermediate drops a via-point and invalidates the route.
func (s *Session) RemoveIntermediate(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.draft.Intermediates) {
		s.mu.Unlock()
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "no such intermediate location", Details: map[string]any{"index": index}}
	}
	s.draft.Intermediates = append(s.draft.Intermediates[:index], s.draft.Intermediates[index+1:]...)
	s.invalidateRouteLocked()
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

// --- Route calculation ---

// CalculateRoute explicitly recomputes the route over
// [start, intermediates..., end]. Overlapping invocations resolve to the
// last issued one.
func (s *Session) CalculateRoute(ctx context.Context) error {
	s.mu.Lock()
	if s.draft.Start == nil || s.draft.End == nil {
		s.mu.Unlock()
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "Start and end locations required"}
	}
	s.routing = true
	s.routeGen++
	gen := s.routeGen
	req := s.routeRequestLocked()
	s.touchLocked()
	s.mu.Unlock()
	s.publish()

	return s.completeRoute(ctx, gen, req)
}

func (s *Session) completeRoute(ctx context.Context, gen uint64, req directions.Request) error {
	route, err := s.deps.Routes.Calculate(ctx, req)

	s.mu.Lock()
	if gen != s.routeGen {
		// A newer invocation or a location change superseded this request.
		s.mu.Unlock()
		return nil
	}
	s.routing = false
	if err != nil {
		msg := fmt.Sprintf("Failed to calculate route: %v", err)
		s.errMsg = msg
		s.deps.Log.Warn().Err(err).Int("waypoints", len(req.Waypoints)).Msg("route calculation failed")
		s.touchLocked()
		s.mu.Unlock()
		s.publish()
		return &Error{Status: 502, Code: "ROUTE_FAILED", Message: msg}
	}
	s.draft.Route = &domain.RouteResult{
		DistanceMeters:  route.DistanceMeters,
		DurationMinutes: int(route.DurationSeconds / 60),
		Polyline:        cloneStringPtr(route.Polyline),
	}
	s.errMsg = ""
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Session) routeRequestLocked() directions.Request {
	wps := make([]directions.Waypoint, 0, len(s.draft.Intermediates)+2)
	wps = append(wps, waypointFromPlace(*s.draft.Start))
	for _, p := range s.draft.Intermediates {
		wps = append(wps, waypointFromPlace(p))
	}
	wps = append(wps, waypointFromPlace(*s.draft.End))
	return directions.Request{Waypoints: wps, Profile: directions.ProfileDriving}
}

// invalidateRouteLocked clears the computed route and fences off any
// in-flight calculation so it cannot land on the changed waypoints.
func (s *Session) invalidateRouteLocked() {
	s.draft.Route = nil
	s.routeGen++
	s.routing = false
}

func (s *Session) routeCalculatedLocked() bool {
	return s.draft.Route != nil && s.draft.Start != nil && s.draft.End != nil
}

// --- Save / reset ---

// Save persists the draft through the saver. On success the draft is reset
// to defaults and the created quest is retained on the snapshot; on failure
// the draft is kept for in-place correction and the error message surfaced.
func (s *Session) Save(ctx context.Context) (domain.Quest, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return domain.Quest{}, &Error{Status: 409, Code: "SAVE_IN_PROGRESS", Message: "save already in progress"}
	}
	s.saving = true
	draft := cloneDraft(s.draft)
	s.touchLocked()
	s.mu.Unlock()
	s.publish()

	q, err := s.deps.Saver.Create(ctx, s.owner, draft)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.errMsg = err.Error()
		s.touchLocked()
		s.mu.Unlock()
		s.publish()
		return domain.Quest{}, err
	}
	s.resetLocked()
	s.created = &q
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
	return q, nil
}

// Reset discards all session state and returns the wizard to its defaults.
func (s *Session) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.touchLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Session) resetLocked() {
	s.draft = domain.NewQuestDraft()
	s.step = StepDetails
	s.focus = FocusStart
	s.results = nil
	s.searching = false
	s.searchSeq++
	s.routing = false
	s.routeGen++
	s.autoRouted = false
	s.errMsg = ""
	s.created = nil
}

// --- internals ---

func (s *Session) touchLocked() {
	s.lastActive = s.deps.Clock.Now()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Step:             s.step,
		Focus:            s.focus,
		Draft:            cloneDraft(s.draft),
		Results:          append([]placesearch.Suggestion(nil), s.results...),
		Searching:        s.searching,
		CalculatingRoute: s.routing,
		RouteCalculated:  s.routeCalculatedLocked(),
		Saving:           s.saving,
		ErrorMessage:     s.errMsg,
	}
	if s.created != nil {
		q := *s.created
		snap.Created = &q
	}
	return snap
}

// publish delivers a fresh snapshot to all observers. Called without the
// lock held; observers run outside the lock so they may call back into the
// session.
func (s *Session) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	obs := append(([]func(Snapshot))(nil), s.observers...)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(snap)
	}
}

func cloneDraft(d domain.QuestDraft) domain.QuestDraft {
	out := d
	out.Start = clonePlacePtr(d.Start)
	out.End = clonePlacePtr(d.End)
	out.Intermediates = make([]domain.PlaceRef, 0, len(d.Intermediates))
	for _, p := range d.Intermediates {
		cp := p
		cp.Pin = cloneStringPtr(p.Pin)
		out.Intermediates = append(out.Intermediates, cp)
	}
	if d.Route != nil {
		r := *d.Route
		r.Polyline = cloneStringPtr(d.Route.Polyline)
		out.Route = &r
	}
	return out
}

func clonePlacePtr(p *domain.PlaceRef) *domain.PlaceRef {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Pin = cloneStringPtr(p.Pin)
	return &cp
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func waypointFromPlace(p domain.PlaceRef) directions.Waypoint {
	return directions.Waypoint{Name: p.Name, Latitude: p.Latitude, Longitude: p.Longitude}
}
