package server

import (
	"greentrack/pkg/types"
	"net/http"
)

type challengeListQuery struct {
	Lat *float64 `form:"lat"`
	Lng *float64 `form:"lng"`
}

// location returns the caller's position, or nil when none was given.
func (q challengeListQuery) location() (*types.GeoPoint, bool) {
	if q.Lat == nil && q.Lng == nil {
		return nil, true
	}
	if q.Lat == nil || q.Lng == nil {
		return nil, false
	}
	if *q.Lat < -90 || *q.Lat > 90 || *q.Lng < -180 || *q.Lng > 180 {
		return nil, false
	}
	return &types.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}, true
}

func (s *Service) handleGetChallenges(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var query challengeListQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}

	near, ok := query.location()
	if !ok {
		s.fail(w, http.StatusBadRequest, "lat and lng must be given together and lie within range", nil)
		return
	}

	user, err := s.ensureUser(ctx, userID)
	if err != nil {
		s.handleError(w, r, err, "failed to load user for challenge listing")
		return
	}

	challenges, err := s.challenges.Active(ctx, user.Role, near)
	if err != nil {
		s.handleError(w, r, err, "failed to list challenges")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"challenges": challenges})
}

func (s *Service) handleGetMyChallenges(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	challenges, err := s.challenges.ByUser(ctx, userID)
	if err != nil {
		s.handleError(w, r, err, "failed to list user challenges")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"challenges": challenges})
}

func (s *Service) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	challenge, err := s.challenges.Get(ctx, r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err, "failed to load challenge")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"challenge": challenge})
}

func (s *Service) handlePostJoinChallenge(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if _, err := s.ensureUser(ctx, userID); err != nil {
		s.handleError(w, r, err, "failed to load user for challenge join")
		return
	}

	challenge, err := s.challenges.Join(ctx, r.PathValue("id"), userID)
	if err != nil {
		s.handleError(w, r, err, "failed to join challenge")
		return
	}

	s.respond(w, http.StatusOK, "joined challenge", map[string]any{"challenge": challenge})
}
