package server

import (
	"encoding/json"
	"errors"
	"greentrack/pkg/types"
	"net/http"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func (s *Service) respond(w http.ResponseWriter, status int, message string, data any) {
	s.writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) fail(w http.ResponseWriter, status int, message string, fieldErrors map[string]string) {
	body := envelope{Success: false, Message: message}
	if len(fieldErrors) > 0 {
		body.Errors = fieldErrors
	}
	s.writeJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput), errors.Is(err, types.ErrScanVerified):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotEligible), errors.Is(err, types.ErrPrerequisitesMissing):
		return http.StatusForbidden
	case errors.Is(err, types.ErrUserNotFound),
		errors.Is(err, types.ErrScanNotFound),
		errors.Is(err, types.ErrChallengeNotFound),
		errors.Is(err, types.ErrTrainingNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrAlreadyParticipating),
		errors.Is(err, types.ErrNotParticipating),
		errors.Is(err, types.ErrChallengeClosed),
		errors.Is(err, types.ErrNotEnrolled),
		errors.Is(err, types.ErrTrainingCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError maps a service error onto a response. Unexpected errors are
// logged and reported without detail.
func (s *Service) handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error(msg)
		s.fail(w, status, "internal server error", nil)
		return
	}

	s.fail(w, status, err.Error(), nil)
}
