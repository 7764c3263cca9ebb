package challenge

import (
	"context"
	"fmt"
	"greentrack/internal/keylock"
	"greentrack/pkg/types"
	"time"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	Challenge(ctx context.Context, challengeID string) (*types.Challenge, error)
	ActiveChallenges(ctx context.Context, now time.Time) ([]*types.Challenge, error)
	ChallengesByUser(ctx context.Context, userID string) ([]*types.Challenge, error)
	OpenChallengesForUser(ctx context.Context, userID string, now time.Time) ([]*types.Challenge, error)
	UpdateChallenge(ctx context.Context, challenge *types.Challenge) error
}

type UserFetcher interface {
	User(ctx context.Context, userID string) (*types.User, error)
}

type Service struct {
	logger     logrus.FieldLogger
	challenges Repository
	users      UserFetcher
	locks      *keylock.Locker

	weightPerScanKg float64
	now             func() time.Time
}

func NewService(logger logrus.FieldLogger, challenges Repository, users UserFetcher, locks *keylock.Locker, weightPerScanKg float64) *Service {
	return &Service{
		logger:          logger,
		challenges:      challenges,
		users:           users,
		locks:           locks,
		weightPerScanKg: weightPerScanKg,
		now:             time.Now,
	}
}

func lockKey(challengeID string) string {
	return "challenge:" + challengeID
}

// Active lists open challenges whose role restriction admits role. When near
// is set, area and city challenges further away than NearbyRadiusKm are left
// out.
func (s *Service) Active(ctx context.Context, role types.UserRole, near *types.GeoPoint) ([]*types.ChallengeView, error) {
	challenges, err := s.challenges.ActiveChallenges(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active challenges: %w", err)
	}

	visible := make([]*types.Challenge, 0, len(challenges))
	for _, c := range challenges {
		if VisibleTo(c, role) && Nearby(c, near) {
			visible = append(visible, c)
		}
	}
	return Views(visible, s.now()), nil
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]*types.ChallengeView, error) {
	challenges, err := s.challenges.ChallengesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user challenges: %w", err)
	}
	return Views(challenges, s.now()), nil
}

func (s *Service) Get(ctx context.Context, challengeID string) (*types.ChallengeView, error) {
	c, err := s.challenges.Challenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return View(c, s.now()), nil
}

// Join enrolls the user. The challenge is reloaded under its lock so a
// concurrent contribution cannot be overwritten.
func (s *Service) Join(ctx context.Context, challengeID, userID string) (*types.ChallengeView, error) {
	user, err := s.users.User(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(challengeID))
	defer unlock()

	c, err := s.challenges.Challenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if RefreshStatus(c, now) {
		if err := s.challenges.UpdateChallenge(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to save challenge status: %w", err)
		}
	}

	if err := Join(c, user, now); err != nil {
		return nil, err
	}

	if err := s.challenges.UpdateChallenge(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save challenge: %w", err)
	}

	return View(c, now), nil
}

// Contribute credits a scan to every open challenge the user takes part in.
// Each challenge succeeds or fails on its own; failures are returned next to
// the updates that did apply.
func (s *Service) Contribute(ctx context.Context, userID string, pointsEarned int, now time.Time) ([]types.ChallengeUpdate, []types.ChallengeError) {
	updates := make([]types.ChallengeUpdate, 0)
	failures := make([]types.ChallengeError, 0)

	open, err := s.challenges.OpenChallengesForUser(ctx, userID, now)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch open challenges")
		failures = append(failures, types.ChallengeError{Error: "failed to fetch open challenges"})
		return updates, failures
	}

	for _, candidate := range open {
		amount, ok := ContributionAmount(candidate.TargetMetric, pointsEarned, s.weightPerScanKg)
		if !ok || amount <= 0 {
			continue
		}

		if err := s.contribute(ctx, candidate.ID, userID, amount, now); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"challenge_id": candidate.ID,
				"user_id":      userID,
			}).Error("failed to update challenge contribution")

			failures = append(failures, types.ChallengeError{ChallengeID: candidate.ID, Error: err.Error()})
			continue
		}

		updates = append(updates, types.ChallengeUpdate{ChallengeID: candidate.ID, ContributionAmount: amount})
	}

	return updates, failures
}

func (s *Service) contribute(ctx context.Context, challengeID, userID string, amount float64, now time.Time) error {
	unlock := s.locks.Lock(lockKey(challengeID))
	defer unlock()

	c, err := s.challenges.Challenge(ctx, challengeID)
	if err != nil {
		return err
	}

	if !IsOpen(c, now) {
		return types.ErrChallengeClosed
	}

	if err := UpdateContribution(c, userID, amount, now); err != nil {
		return err
	}

	return s.challenges.UpdateChallenge(ctx, c)
}

// Withdraw reverses a contribution when a scan is deleted. Milestones already
// achieved are left as they are.
func (s *Service) Withdraw(ctx context.Context, userID string, contributions []types.ChallengeUpdate) {
	for _, contribution := range contributions {
		err := s.withdraw(ctx, contribution.ChallengeID, userID, contribution.ContributionAmount)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"challenge_id": contribution.ChallengeID,
				"user_id":      userID,
			}).Warn("failed to withdraw challenge contribution")
		}
	}
}

func (s *Service) withdraw(ctx context.Context, challengeID, userID string, amount float64) error {
	unlock := s.locks.Lock(lockKey(challengeID))
	defer unlock()

	c, err := s.challenges.Challenge(ctx, challengeID)
	if err != nil {
		return err
	}

	now := s.now()
	if !IsOpen(c, now) {
		return types.ErrChallengeClosed
	}

	if err := UpdateContribution(c, userID, -amount, now); err != nil {
		return err
	}

	return s.challenges.UpdateChallenge(ctx, c)
}
