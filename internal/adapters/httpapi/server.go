package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sair-explore/quest-api/internal/app/quests"
	"github.com/sair-explore/quest-api/internal/app/users"
	"github.com/sair-explore/quest-api/internal/app/wizard"
	"github.com/sair-explore/quest-api/internal/domain"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP adapter over the application services. Handlers decode
// the request, resolve the caller's subject, delegate, and encode the
// resulting snapshot or resource.
type Server struct {
	Quests *quests.Service
	Users  *users.Service
	Drafts *wizard.Registry
}

func NewServer(questsSvc *quests.Service, usersSvc *users.Service, drafts *wizard.Registry) *Server {
	return &Server{
		Quests: questsSvc,
		Users:  usersSvc,
		Drafts: drafts,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return false
	}
	return true
}

func (s *Server) subject(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "USER_NOT_AUTHENTICATED", "User not logged in", nil)
		return "", false
	}
	return domain.UserID(sub), true
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, domain.UserID, bool) {
	caller, ok := s.subject(w, r)
	if !ok {
		return nil, "", false
	}
	sess, err := s.Drafts.Get(chi.URLParam(r, "draftID"), caller)
	if err != nil {
		writeAppError(w, r, err)
		return nil, "", false
	}
	return sess, caller, true
}

func (s *Server) writeSnapshot(w http.ResponseWriter, status int, sess *wizard.Session) {
	snap := sess.Snapshot()
	writeJSON(w, status, toSnapshot(snap, sess.CanAdvance(snap.Step)))
}

// --- users ---

func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := users.RegisterInput{
		Username: req.Username,
		Gender:   domain.Gender(req.Gender),
	}
	if req.Email != nil {
		in.Email = string(*req.Email)
	}
	p, err := s.Users.Register(r.Context(), caller, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfile(p))
}

func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	p, err := s.Users.GetOrCreate(r.Context(), caller, "")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(p))
}

// --- drafts ---

func (s *Server) CreateDraft(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	id, sess := s.Drafts.Create(caller)
	snap := sess.Snapshot()
	writeJSON(w, http.StatusCreated, CreateDraftResponse{
		DraftID:  id,
		Snapshot: toSnapshot(snap, sess.CanAdvance(snap.Step)),
	})
}

func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	var req UpdateDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Title.IsSpecified() {
		v, _ := req.Title.Get()
		sess.SetTitle(v)
	}
	if req.Description.IsSpecified() {
		v, _ := req.Description.Get()
		sess.SetDescription(v)
	}
	if req.Category.IsSpecified() {
		v, err := req.Category.Get()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "category cannot be null", nil)
			return
		}
		if err := sess.SetCategory(domain.Category(v)); err != nil {
			writeAppError(w, r, err)
			return
		}
	}
	if req.Difficulty.IsSpecified() {
		v, err := req.Difficulty.Get()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "difficulty cannot be null", nil)
			return
		}
		if err := sess.SetDifficulty(v); err != nil {
			writeAppError(w, r, err)
			return
		}
	}
	if req.PointsValue.IsSpecified() {
		v, err := req.PointsValue.Get()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "pointsValue cannot be null", nil)
			return
		}
		if err := sess.SetPoints(v); err != nil {
			writeAppError(w, r, err)
			return
		}
	}
	if req.IsPublic.IsSpecified() {
		v, err := req.IsPublic.Get()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "isPublic cannot be null", nil)
			return
		}
		sess.SetVisibility(v)
	}
	if req.Focus.IsSpecified() {
		v, err := req.Focus.Get()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "focus cannot be null", nil)
			return
		}
		if err := sess.SetFocus(wizard.Focus(v)); err != nil {
			writeAppError(w, r, err)
			return
		}
	}

	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	if err := s.Drafts.Delete(chi.URLParam(r, "draftID"), caller); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdvanceDraft(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Advance(); err != nil {
		writeAppError(w, r, err)
		return
	}
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) BackDraft(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Back()
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Focus != "" {
		if err := sess.SetFocus(wizard.Focus(req.Focus)); err != nil {
			writeAppError(w, r, err)
			return
		}
	}
	results, err := sess.Search(r.Context(), req.Query)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: toSuggestions(results)})
}

func (s *Server) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.SelectSuggestion(r.Context(), req.Index); err != nil {
		writeAppError(w, r, err)
		return
	}
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) RemoveIntermediate(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "index must be an integer", nil)
		return
	}
	if err := sess.RemoveIntermediate(idx); err != nil {
		writeAppError(w, r, err)
		return
	}
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) CalculateRoute(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.CalculateRoute(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) SaveDraft(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	q, err := sess.Save(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuest(q))
}

func (s *Server) ResetDraft(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.writeSnapshot(w, http.StatusOK, sess)
}

// --- quests ---

func (s *Server) ListMyQuests(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	qs, err := s.Quests.ListMine(r.Context(), caller)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]Quest, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuest(q))
	}
	writeJSON(w, http.StatusOK, QuestList{Quests: out})
}

func (s *Server) GetQuest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	q, err := s.Quests.Get(r.Context(), caller, domain.QuestID(chi.URLParam(r, "questID")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuest(q))
}

func (s *Server) DeleteQuest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.subject(w, r)
	if !ok {
		return
	}
	if err := s.Quests.Delete(r.Context(), caller, domain.QuestID(chi.URLParam(r, "questID"))); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
