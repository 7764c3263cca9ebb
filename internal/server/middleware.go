package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeyUserID contextKey = "user_id"
	contextKeyEmail  contextKey = "email"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// accessToken reads the bearer token, falling back to the encrypted session cookie.
func (s *Service) accessToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		return token, ok && token != ""
	}

	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return "", false
	}

	var token string
	if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &token); err != nil {
		s.logger.WithError(err).Debug("failed to decrypt access token cookie")
		return "", false
	}

	return token, token != ""
}

// RequireAuth verifies the caller's access token and adds the user to the context
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.accessToken(r)
		if !ok {
			s.fail(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		claims, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.logger.WithError(err).Debug("rejected access token")
			s.fail(w, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyUserID, claims.UserID)
		if claims.Email != "" {
			ctx = context.WithValue(ctx, contextKeyEmail, claims.Email)
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": claims.UserID,
			"email":   claims.Email,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			s.fail(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusPermanentRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
