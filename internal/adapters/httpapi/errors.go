package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/sair-explore/quest-api/internal/app/quests"
	"github.com/sair-explore/quest-api/internal/app/users"
	"github.com/sair-explore/quest-api/internal/app/wizard"
)

// ErrorResponse is the uniform error envelope of the API.
type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

// writeAppError maps the application-layer error types onto the envelope.
// Unknown errors become an opaque 500 so internals never leak to clients.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var qe *quests.Error
	if errors.As(err, &qe) {
		writeError(w, r, qe.Status, qe.Code, qe.Message, qe.Details)
		return
	}
	var ue *users.Error
	if errors.As(err, &ue) {
		writeError(w, r, ue.Status, ue.Code, ue.Message, ue.Details)
		return
	}
	var we *wizard.Error
	if errors.As(err, &we) {
		writeError(w, r, we.Status, we.Code, we.Message, we.Details)
		return
	}
	if errors.Is(err, wizard.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "DRAFT_NOT_FOUND", "draft not found", nil)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
