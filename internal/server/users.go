package server

import "net/http"

func (s *Service) handleGetMe(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	user, err := s.ensureUser(ctx, userID)
	if err != nil {
		s.handleError(w, r, err, "failed to load user")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"user": user})
}
