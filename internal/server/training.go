package server

import (
	"encoding/json"
	"greentrack/pkg/types"
	"net/http"
)

type ratingRequest struct {
	Rating int `json:"rating"`
}

func (s *Service) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	user, err := s.ensureUser(ctx, userID)
	if err != nil {
		s.handleError(w, r, err, "failed to load user for training listing")
		return
	}

	modules, err := s.training.ByRole(ctx, user.Role)
	if err != nil {
		s.handleError(w, r, err, "failed to list training modules")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"modules": modules})
}

func (s *Service) handleGetRecommendedTraining(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	user, err := s.ensureUser(ctx, userID)
	if err != nil {
		s.handleError(w, r, err, "failed to load user for training recommendations")
		return
	}

	modules, err := s.training.Recommended(ctx, userID, user.Role)
	if err != nil {
		s.handleError(w, r, err, "failed to recommend training modules")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"modules": modules})
}

func (s *Service) handleGetTrainingProgress(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	progress, err := s.training.ProgressByUser(ctx, userID)
	if err != nil {
		s.handleError(w, r, err, "failed to load training progress")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"progress": progress})
}

func (s *Service) handleGetTrainingModule(w http.ResponseWriter, r *http.Request) {
	module, err := s.training.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err, "failed to load training module")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"module": module})
}

func (s *Service) handlePostEnrollTraining(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if _, err := s.ensureUser(ctx, userID); err != nil {
		s.handleError(w, r, err, "failed to load user for training enrollment")
		return
	}

	progress, err := s.training.Enroll(ctx, r.PathValue("id"), userID)
	if err != nil {
		s.handleError(w, r, err, "failed to enroll in training module")
		return
	}

	s.respond(w, http.StatusOK, "enrolled", map[string]any{"progress": progress})
}

func (s *Service) handlePostCompleteTraining(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var attempt types.TrainingAttempt
	if err := json.NewDecoder(r.Body).Decode(&attempt); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	outcome, err := s.training.Complete(ctx, r.PathValue("id"), userID, attempt)
	if err != nil {
		s.handleError(w, r, err, "failed to complete training module")
		return
	}

	message := "training module completed"
	if !outcome.Passed {
		message = "completion criteria not met"
	}

	s.respond(w, http.StatusOK, message, map[string]any{"outcome": outcome})
}

func (s *Service) handlePostRateTraining(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	module, err := s.training.Rate(ctx, r.PathValue("id"), userID, req.Rating)
	if err != nil {
		s.handleError(w, r, err, "failed to rate training module")
		return
	}

	s.respond(w, http.StatusOK, "rating recorded", map[string]any{"module": module})
}
