package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterOptions carries cross-cutting router configuration.
type RouterOptions struct {
	// AuthMiddleware resolves the caller's subject. Required.
	AuthMiddleware func(http.Handler) http.Handler
	Log            zerolog.Logger
}

// NewRouter wires routes and middleware around the server implementation.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(opts.Log))
	// The auth middlewares skip /healthz themselves.
	if opts.AuthMiddleware != nil {
		r.Use(opts.AuthMiddleware)
	}

	// Health endpoint stays outside auth (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users", s.RegisterUser)
		r.Get("/users/me", s.GetMe)

		r.Post("/drafts", s.CreateDraft)
		r.Route("/drafts/{draftID}", func(r chi.Router) {
			r.Get("/", s.GetDraft)
			r.Patch("/", s.UpdateDraft)
			r.Delete("/", s.DeleteDraft)
			r.Post("/advance", s.AdvanceDraft)
			r.Post("/back", s.BackDraft)
			r.Post("/search", s.SearchPlaces)
			r.Post("/select", s.SelectSuggestion)
			r.Delete("/intermediates/{index}", s.RemoveIntermediate)
			r.Post("/route", s.CalculateRoute)
			r.Post("/save", s.SaveDraft)
			r.Post("/reset", s.ResetDraft)
		})

		r.Get("/quests/mine", s.ListMyQuests)
		r.Get("/quests/{questID}", s.GetQuest)
		r.Delete("/quests/{questID}", s.DeleteQuest)
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
