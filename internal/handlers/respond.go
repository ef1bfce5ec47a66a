package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/services"
)

const maxBodyBytes = 1 << 16

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func logOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a reason-coded error body. Unknown errors become 500
// and are logged with attrs; their text is never sent to the client.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, attrs ...any) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logOrDefault(logger).Error("request failed", append(attrs, "error", err)...)
		msg = "internal error"
	}
	if errors.Is(err, models.ErrRescheduleUnsupported) {
		msg = "coming soon"
	}
	WriteJSON(w, status, ErrorBody{Error: msg, Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, models.ErrInsufficientCredits):
		return http.StatusBadRequest, "insufficient_credits"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrFormsIncomplete):
		return http.StatusForbidden, "forms_incomplete"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrBookingCancelled):
		return http.StatusConflict, "booking_cancelled"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrRescheduleUnsupported):
		return http.StatusNotImplemented, "not_implemented"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// Decode reads the request body, validates it against schema and unmarshals
// it into dst. On failure the error response is already written.
func Decode(w http.ResponseWriter, r *http.Request, v *services.Validator, schema string, dst any, logger *slog.Logger) bool {
	return decode(w, r, v, schema, dst, logger, false)
}

// DecodeOptional is Decode for endpoints whose body may be absent. An empty
// body, chunked or not, leaves dst untouched.
func DecodeOptional(w http.ResponseWriter, r *http.Request, v *services.Validator, schema string, dst any, logger *slog.Logger) bool {
	return decode(w, r, v, schema, dst, logger, true)
}

func decode(w http.ResponseWriter, r *http.Request, v *services.Validator, schema string, dst any, logger *slog.Logger, optional bool) bool {
	if r.Body == nil {
		r.Body = http.NoBody
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, logger, fmt.Errorf("%w: unreadable body", models.ErrValidation))
		return false
	}
	if optional && len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := v.Decode(schema, body, dst); err != nil {
		WriteError(w, logger, err)
		return false
	}
	return true
}
