package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"greentrack/internal/scan"
	"greentrack/pkg/types"
	"net/http"
	"time"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type ScanService interface {
	Submit(ctx context.Context, sub *scan.Submission) (*types.ScanOutcome, error)
	Get(ctx context.Context, userID, scanID string) (*types.Scan, error)
	List(ctx context.Context, filter types.ScanFilter) ([]*types.Scan, types.Pagination, error)
	Statistics(ctx context.Context, userID, timeframe string) (*types.ScanStatistics, error)
	Leaderboard(ctx context.Context, timeframe string, limit uint64) ([]*types.LeaderboardUser, error)
	Report(ctx context.Context, userID, scanID, reason string) (*types.Scan, error)
	Delete(ctx context.Context, userID, scanID string) error
}

type ChallengeService interface {
	Active(ctx context.Context, role types.UserRole, near *types.GeoPoint) ([]*types.ChallengeView, error)
	ByUser(ctx context.Context, userID string) ([]*types.ChallengeView, error)
	Get(ctx context.Context, challengeID string) (*types.ChallengeView, error)
	Join(ctx context.Context, challengeID, userID string) (*types.ChallengeView, error)
}

type TrainingService interface {
	ByRole(ctx context.Context, role types.UserRole) ([]*types.TrainingModuleView, error)
	Recommended(ctx context.Context, userID string, role types.UserRole) ([]*types.TrainingModuleView, error)
	Get(ctx context.Context, moduleID string) (*types.TrainingModuleView, error)
	ProgressByUser(ctx context.Context, userID string) ([]*types.TrainingProgress, error)
	Enroll(ctx context.Context, moduleID, userID string) (*types.TrainingProgress, error)
	Complete(ctx context.Context, moduleID, userID string, attempt types.TrainingAttempt) (*types.TrainingOutcome, error)
	Rate(ctx context.Context, moduleID, userID string, rating int) (*types.TrainingModuleView, error)
}

type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
	UpsertIdentity(ctx context.Context, userID, email, givenName, familyName string) error
}

type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	scans      ScanService
	challenges ChallengeService
	training   TrainingService
	users      UserStore

	cognitoClient CognitoAPI
	cookie        *securecookie.SecureCookie
	verifier      TokenVerifier
	limiter       *rateLimiter

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	cognitoClient CognitoAPI,
	scans ScanService,
	challenges ChallengeService,
	training TrainingService,
	users UserStore,
	verifier TokenVerifier,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decode cookie hash key: %v", types.ErrConfiguration, err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decode cookie block key: %v", types.ErrConfiguration, err)
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}

	s := &Service{
		logger: logger,
		config: config,

		scans:      scans,
		challenges: challenges,
		training:   training,
		users:      users,

		cognitoClient: cognitoClient,
		cookie:        securecookie.New(hashKey, blockKey),
		verifier:      verifier,
		limiter:       newRateLimiter(config.RateLimitPerMinute),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)
	// unmatched paths never reach mux middleware, so slash stripping wraps the mux
	s.server.Handler = s.StripTrailingSlash(mux)

	return s, nil
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RateLimit)

		r.HandleFunc("/api/auth/register", s.handlePostRegister, http.MethodPost)
		r.HandleFunc("/api/auth/login", s.handlePostLogin, http.MethodPost)
		r.HandleFunc("/api/leaderboard", s.handleGetLeaderboard, http.MethodGet)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAuth)

			r.HandleFunc("/api/users/me", s.handleGetMe, http.MethodGet)

			r.HandleFunc("/api/scans", s.handlePostScan, http.MethodPost)
			r.HandleFunc("/api/scans", s.handleGetScans, http.MethodGet)
			r.HandleFunc("/api/scans/statistics", s.handleGetScanStatistics, http.MethodGet)
			r.HandleFunc("/api/scans/:id", s.handleGetScan, http.MethodGet)
			r.HandleFunc("/api/scans/:id/report", s.handlePutScanReport, http.MethodPut)
			r.HandleFunc("/api/scans/:id", s.handleDeleteScan, http.MethodDelete)

			r.HandleFunc("/api/challenges", s.handleGetChallenges, http.MethodGet)
			r.HandleFunc("/api/challenges/mine", s.handleGetMyChallenges, http.MethodGet)
			r.HandleFunc("/api/challenges/:id", s.handleGetChallenge, http.MethodGet)
			r.HandleFunc("/api/challenges/:id/join", s.handlePostJoinChallenge, http.MethodPost)

			r.HandleFunc("/api/training", s.handleGetTraining, http.MethodGet)
			r.HandleFunc("/api/training/recommended", s.handleGetRecommendedTraining, http.MethodGet)
			r.HandleFunc("/api/training/progress", s.handleGetTrainingProgress, http.MethodGet)
			r.HandleFunc("/api/training/:id", s.handleGetTrainingModule, http.MethodGet)
			r.HandleFunc("/api/training/:id/enroll", s.handlePostEnrollTraining, http.MethodPost)
			r.HandleFunc("/api/training/:id/complete", s.handlePostCompleteTraining, http.MethodPost)
			r.HandleFunc("/api/training/:id/rate", s.handlePostRateTraining, http.MethodPost)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, "ok", nil)
}

func (s *Service) userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}

// ensureUser returns the caller's user row, creating it from the token claims
// the first time an authenticated caller is seen.
func (s *Service) ensureUser(ctx context.Context, userID string) (*types.User, error) {
	user, err := s.users.User(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, types.ErrUserNotFound) {
		return nil, err
	}

	email, _ := ctx.Value(contextKeyEmail).(string)
	if err := s.users.UpsertIdentity(ctx, userID, email, "", ""); err != nil {
		return nil, err
	}

	return s.users.User(ctx, userID)
}
