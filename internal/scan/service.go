// Package scan runs the scan pipeline: classify the photo, score it, attach
// disposal advice, store it, then credit the user and their challenges.
package scan

import (
	"context"
	"fmt"
	"greentrack/internal/classifier"
	"greentrack/internal/keylock"
	"greentrack/internal/progression"
	"greentrack/internal/scoring"
	"greentrack/internal/utils"
	"greentrack/pkg/types"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	reportMinLength = 10
	reportMaxLength = 500
)

type ScanRepository interface {
	CreateScan(ctx context.Context, scan *types.Scan) error
	Scan(ctx context.Context, scanID string) (*types.Scan, error)
	ScanByUser(ctx context.Context, userID, scanID string) (*types.Scan, error)
	ScansByUser(ctx context.Context, filter types.ScanFilter) ([]*types.Scan, int, error)
	UpdateChallengeContributions(ctx context.Context, scanID string, contributions []types.ChallengeUpdate) error
	ReportIssue(ctx context.Context, scanID string, report *types.ScanReport) error
	DeleteScan(ctx context.Context, scanID string) error
	Statistics(ctx context.Context, userID string, since *time.Time) (*types.ScanStatistics, error)
	Leaderboard(ctx context.Context, since *time.Time, limit uint64) ([]*types.LeaderboardUser, error)
}

type UserRepository interface {
	User(ctx context.Context, userID string) (*types.User, error)
	UpdateProgression(ctx context.Context, user *types.User) error
}

type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type ChallengeContributor interface {
	Contribute(ctx context.Context, userID string, pointsEarned int, now time.Time) ([]types.ChallengeUpdate, []types.ChallengeError)
	Withdraw(ctx context.Context, userID string, contributions []types.ChallengeUpdate)
}

type Notifier interface {
	ScanCompleted(ctx context.Context, userID string, event *types.ScanCompletedEvent) error
}

// Submission is one uploaded photo with the context it was taken in.
type Submission struct {
	UserID      string
	Image       []byte
	Filename    string
	ContentType string
	Location    types.ScanLocation
	Metadata    types.ScanMetadata
}

type Service struct {
	logger     logrus.FieldLogger
	classifier classifier.Strategy
	scans      ScanRepository
	users      UserRepository
	images     ImageStore
	challenges ChallengeContributor
	notifier   Notifier
	locks      *keylock.Locker
	sanitizer  *bluemonday.Policy

	now func() time.Time
}

func NewService(
	logger logrus.FieldLogger,
	strategy classifier.Strategy,
	scans ScanRepository,
	users UserRepository,
	images ImageStore,
	challenges ChallengeContributor,
	notifier Notifier,
	locks *keylock.Locker,
) *Service {
	return &Service{
		logger:     logger,
		classifier: strategy,
		scans:      scans,
		users:      users,
		images:     images,
		challenges: challenges,
		notifier:   notifier,
		locks:      locks,
		sanitizer:  bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

func userLockKey(userID string) string {
	return "user:" + userID
}

// Submit processes a scan end to end. Classification, scoring, upload and the
// scan record must all succeed or nothing is kept. Challenge contributions may
// fail individually without failing the scan.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*types.ScanOutcome, error) {
	if len(sub.Image) == 0 {
		return nil, fmt.Errorf("%w: image file is required", types.ErrInvalidInput)
	}

	result, err := s.classifier.Classify(ctx, sub.Image, sub.Filename)
	if err != nil {
		return nil, err
	}

	geoTagged := sub.Location.HasCoordinates()
	points, err := scoring.ScanPoints(result.WasteTypes, geoTagged)
	if err != nil {
		return nil, err
	}

	recommendations, err := scoring.Recommend(result.WasteTypes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scan := &types.Scan{
		ID:                      utils.NanoID(),
		UserID:                  sub.UserID,
		WasteTypes:              result.WasteTypes,
		PrimaryWasteType:        result.PrimaryType,
		OverallConfidence:       result.OverallConfidence,
		PointsEarned:            points,
		ScanLocation:            sub.Location,
		GeoTagged:               geoTagged,
		Analysis:                result.Analysis,
		DisposalRecommendations: recommendations,
		ChallengeContributions:  []types.ChallengeUpdate{},
		Status:                  types.ScanStatusProcessed,
		Metadata:                sub.Metadata,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	scan.ImageKey = utils.ScanImageKey(sub.UserID, scan.ID, imageExt(sub.Filename))
	scan.ImageURL, err = s.images.Upload(ctx, scan.ImageKey, sub.ContentType, sub.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to upload scan image: %w", err)
	}

	if err := s.scans.CreateScan(ctx, scan); err != nil {
		s.removeImage(ctx, scan.ImageKey)
		return nil, fmt.Errorf("failed to save scan: %w", err)
	}

	user, delta, err := s.credit(ctx, sub.UserID, points, now)
	if err != nil {
		// the scan was never credited, so it must not outlive this call
		if derr := s.scans.DeleteScan(ctx, scan.ID); derr != nil {
			s.logger.WithError(derr).WithField("scan_id", scan.ID).Error("failed to remove uncredited scan")
		}
		s.removeImage(ctx, scan.ImageKey)
		return nil, err
	}

	updates, failures := s.challenges.Contribute(ctx, sub.UserID, points, now)
	if len(updates) > 0 {
		scan.ChallengeContributions = updates
		if err := s.scans.UpdateChallengeContributions(ctx, scan.ID, updates); err != nil {
			s.logger.WithError(err).WithField("scan_id", scan.ID).Error("failed to record challenge contributions on scan")
		}
	}

	event := &types.ScanCompletedEvent{
		ScanID:           scan.ID,
		PointsEarned:     points,
		LevelUp:          delta.LevelUp,
		NewLevel:         delta.NewLevel,
		ChallengeUpdates: updates,
	}
	if err := s.notifier.ScanCompleted(ctx, sub.UserID, event); err != nil {
		s.logger.WithError(err).WithField("user_id", sub.UserID).Warn("failed to publish scan completed event")
	}

	return &types.ScanOutcome{
		Scan:             scan,
		PointsEarned:     points,
		TotalPoints:      user.EcoPoints,
		LevelUp:          delta.LevelUp,
		NewLevel:         delta.NewLevel,
		ChallengeUpdates: updates,
		ChallengeErrors:  failures,
	}, nil
}

func (s *Service) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("image_key", key).Warn("failed to remove orphaned scan image")
	}
}

// credit applies a scan's points, scan count and streak to the user under the
// user's lock.
func (s *Service) credit(ctx context.Context, userID string, points int, now time.Time) (*types.User, types.ProgressionDelta, error) {
	unlock := s.locks.Lock(userLockKey(userID))
	defer unlock()

	user, err := s.users.User(ctx, userID)
	if err != nil {
		return nil, types.ProgressionDelta{}, err
	}

	delta := progression.AddPoints(user, points)
	user.TotalScans++
	progression.UpdateStreak(&user.Streak, now)

	if err := s.users.UpdateProgression(ctx, user); err != nil {
		return nil, types.ProgressionDelta{}, fmt.Errorf("failed to save user progression: %w", err)
	}

	return user, delta, nil
}

func (s *Service) Get(ctx context.Context, userID, scanID string) (*types.Scan, error) {
	return s.scans.ScanByUser(ctx, userID, scanID)
}

// List returns one page of the user's scans, newest first.
func (s *Service) List(ctx context.Context, filter types.ScanFilter) ([]*types.Scan, types.Pagination, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		return nil, types.Pagination{}, fmt.Errorf("%w: limit must be between 1 and %d", types.ErrInvalidInput, MaxPageSize)
	}
	if filter.WasteType != nil && !filter.WasteType.Valid() {
		return nil, types.Pagination{}, fmt.Errorf("%w: invalid waste type %q", types.ErrInvalidInput, *filter.WasteType)
	}

	scans, total, err := s.scans.ScansByUser(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, err
	}

	return scans, types.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *Service) Statistics(ctx context.Context, userID, timeframe string) (*types.ScanStatistics, error) {
	since, err := Since(timeframe, s.now())
	if err != nil {
		return nil, err
	}
	return s.scans.Statistics(ctx, userID, since)
}

func (s *Service) Leaderboard(ctx context.Context, timeframe string, limit uint64) ([]*types.LeaderboardUser, error) {
	since, err := Since(timeframe, s.now())
	if err != nil {
		return nil, err
	}
	if limit == 0 || limit > MaxPageSize {
		limit = 10
	}
	return s.scans.Leaderboard(ctx, since, limit)
}

// Report flags a scan for review. Markup is stripped from the reason before
// its length is checked.
func (s *Service) Report(ctx context.Context, userID, scanID, reason string) (*types.Scan, error) {
	reason = strings.TrimSpace(s.sanitizer.Sanitize(reason))

	n := utf8.RuneCountInString(reason)
	if n < reportMinLength || n > reportMaxLength {
		return nil, fmt.Errorf("%w: reason must be between %d and %d characters", types.ErrInvalidInput, reportMinLength, reportMaxLength)
	}

	scan, err := s.scans.Scan(ctx, scanID)
	if err != nil {
		return nil, err
	}

	scan.ReportedIssue = &types.ScanReport{
		Reported:   true,
		Reason:     reason,
		ReportedBy: userID,
		ReportedAt: s.now(),
	}

	if err := s.scans.ReportIssue(ctx, scan.ID, scan.ReportedIssue); err != nil {
		return nil, fmt.Errorf("failed to save scan report: %w", err)
	}

	return scan, nil
}

// Delete removes an unverified scan, its image, and the points and challenge
// progress it earned.
func (s *Service) Delete(ctx context.Context, userID, scanID string) error {
	scan, err := s.scans.ScanByUser(ctx, userID, scanID)
	if err != nil {
		return err
	}

	if scan.Verified {
		return types.ErrScanVerified
	}

	if scan.ImageKey != "" {
		if err := s.images.Delete(ctx, scan.ImageKey); err != nil {
			return fmt.Errorf("failed to delete scan image: %w", err)
		}
	}

	if err := s.scans.DeleteScan(ctx, scan.ID); err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	if err := s.debit(ctx, userID, scan.PointsEarned); err != nil {
		return err
	}

	s.challenges.Withdraw(ctx, userID, scan.ChallengeContributions)
	return nil
}

func (s *Service) debit(ctx context.Context, userID string, points int) error {
	unlock := s.locks.Lock(userLockKey(userID))
	defer unlock()

	user, err := s.users.User(ctx, userID)
	if err != nil {
		return err
	}

	progression.RemovePoints(user, points)
	user.TotalScans = max(0, user.TotalScans-1)

	if err := s.users.UpdateProgression(ctx, user); err != nil {
		return fmt.Errorf("failed to save user progression: %w", err)
	}
	return nil
}

func imageExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
