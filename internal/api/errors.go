package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/command"
	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/relay"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeNoChange     = "no_change"
	ErrCodeFull         = "schedule_full"
	ErrCodeTimeInvalid  = "time_invalid"
	ErrCodeUnreachable  = "remote_unreachable"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeActuator     = "actuator_failed"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeTooLarge     = "payload_too_large"
	ErrCodeUnsupported  = "unsupported_command"
	ErrCodeCancelled    = "cancelled"
	ErrCodePersistFault = "persist_failed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, schedule.ErrNoChange):
		return http.StatusConflict, ErrCodeNoChange
	case errors.Is(err, schedule.ErrFull):
		return http.StatusConflict, ErrCodeFull
	case errors.Is(err, schedule.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, schedule.ErrInvalidEntry),
		errors.Is(err, clock.ErrInvalidTime):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, command.ErrUnsupported),
		errors.Is(err, command.ErrMalformed):
		return http.StatusBadRequest, ErrCodeUnsupported
	case errors.Is(err, engine.ErrRemoteUnreachable):
		return http.StatusGatewayTimeout, ErrCodeUnreachable
	case errors.Is(err, engine.ErrRadioDisabled):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	case errors.Is(err, engine.ErrClockReadOnly):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, relay.ErrActuator):
		return http.StatusBadGateway, ErrCodeActuator
	case errors.Is(err, schedule.ErrPersistFailed):
		return http.StatusInternalServerError, ErrCodePersistFault
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrCodeCancelled
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ErrCodeTooLarge
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// writeDomainError writes err using the status from classify. Internal
// errors are logged and reported without detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError && code == ErrCodeInternal {
		s.logger.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
		return
	}
	writeError(w, status, code, err.Error())
}
