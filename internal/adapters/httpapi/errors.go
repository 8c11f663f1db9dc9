package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

// RetryAfterSeconds is advertised on 503 responses for transient backend failures.
const RetryAfterSeconds = "2"

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps app and repository failures onto statuses.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	if ae := (*apperr.Error)(nil); errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	if s.metrics != nil {
		s.metrics.RepoError(op, err)
	}
	switch repoerr.KindOf(err) {
	case repoerr.KindNotFound:
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case repoerr.KindForbidden:
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case repoerr.KindTransient:
		w.Header().Set("Retry-After", RetryAfterSeconds)
		writeError(w, r, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "backend temporarily unavailable", nil)
	default:
		s.log.Error("request failed",
			zap.String("op", op),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
