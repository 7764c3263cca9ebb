package training

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"greentrack/internal/keylock"
	"greentrack/pkg/types"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	TrainingModule(ctx context.Context, moduleID string) (*types.TrainingModule, error)
	TrainingModulesForRole(ctx context.Context, role types.UserRole) ([]*types.TrainingModule, error)
	UpdateTrainingModule(ctx context.Context, module *types.TrainingModule) error
	Progress(ctx context.Context, userID, moduleID string) (*types.TrainingProgress, error)
	ProgressByUser(ctx context.Context, userID string) ([]*types.TrainingProgress, error)
	SaveProgress(ctx context.Context, progress *types.TrainingProgress) error
}

type Service struct {
	logger  logrus.FieldLogger
	modules Repository
	locks   *keylock.Locker

	now func() time.Time
}

func NewService(logger logrus.FieldLogger, modules Repository, locks *keylock.Locker) *Service {
	return &Service{
		logger:  logger,
		modules: modules,
		locks:   locks,
		now:     time.Now,
	}
}

func lockKey(moduleID string) string {
	return "training:" + moduleID
}

// ByRole lists the active modules assigned to role, easiest first.
func (s *Service) ByRole(ctx context.Context, role types.UserRole) ([]*types.TrainingModuleView, error) {
	modules, err := s.modules.TrainingModulesForRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training modules: %w", err)
	}
	SortByDifficulty(modules)
	return Views(modules), nil
}

// Recommended lists up to RecommendedLimit modules for role that the user has
// not completed and whose prerequisites are done, best rated first.
func (s *Service) Recommended(ctx context.Context, userID string, role types.UserRole) ([]*types.TrainingModuleView, error) {
	modules, err := s.modules.TrainingModulesForRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training modules: %w", err)
	}

	completed, err := s.completed(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*types.TrainingModule, 0, len(modules))
	for _, m := range modules {
		if completed[m.ID] || !PrerequisitesMet(m, completed) {
			continue
		}
		candidates = append(candidates, m)
	}

	slices.SortStableFunc(candidates, func(a, b *types.TrainingModule) int {
		return cmp.Compare(b.Statistics.AverageRating, a.Statistics.AverageRating)
	})
	if len(candidates) > RecommendedLimit {
		candidates = candidates[:RecommendedLimit]
	}

	return Views(candidates), nil
}

func (s *Service) completed(ctx context.Context, userID string) (map[string]bool, error) {
	progress, err := s.modules.ProgressByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training progress: %w", err)
	}

	completed := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.Status == types.TrainingStatusCompleted {
			completed[p.ModuleID] = true
		}
	}
	return completed, nil
}

func (s *Service) Get(ctx context.Context, moduleID string) (*types.TrainingModuleView, error) {
	m, err := s.active(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	return View(m), nil
}

func (s *Service) active(ctx context.Context, moduleID string) (*types.TrainingModule, error) {
	m, err := s.modules.TrainingModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, types.ErrTrainingNotFound
	}
	return m, nil
}

func (s *Service) ProgressByUser(ctx context.Context, userID string) ([]*types.TrainingProgress, error) {
	progress, err := s.modules.ProgressByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training progress: %w", err)
	}
	return progress, nil
}

// Enroll starts the module for the user. Enrolling twice returns the existing
// progress without counting a second enrollment.
func (s *Service) Enroll(ctx context.Context, moduleID, userID string) (*types.TrainingProgress, error) {
	unlock := s.locks.Lock(lockKey(moduleID))
	defer unlock()

	m, err := s.active(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	existing, err := s.modules.Progress(ctx, userID, moduleID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, types.ErrNotEnrolled):
		return nil, fmt.Errorf("failed to fetch training progress: %w", err)
	}

	if len(m.Prerequisites) > 0 {
		completed, err := s.completed(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !PrerequisitesMet(m, completed) {
			return nil, types.ErrPrerequisitesMissing
		}
	}

	progress := &types.TrainingProgress{
		UserID:     userID,
		ModuleID:   moduleID,
		Status:     types.TrainingStatusEnrolled,
		EnrolledAt: s.now(),
	}
	if err := s.modules.SaveProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save training progress: %w", err)
	}

	RecordEnrollment(m)
	if err := s.modules.UpdateTrainingModule(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save training statistics: %w", err)
	}

	return progress, nil
}

// Complete grades an attempt. A failing attempt leaves the user enrolled so
// they can try again.
func (s *Service) Complete(ctx context.Context, moduleID, userID string, attempt types.TrainingAttempt) (*types.TrainingOutcome, error) {
	unlock := s.locks.Lock(lockKey(moduleID))
	defer unlock()

	m, err := s.active(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	progress, err := s.modules.Progress(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if progress.Status == types.TrainingStatusCompleted {
		return nil, types.ErrTrainingCompleted
	}

	score, passed, err := Grade(m, attempt)
	if err != nil {
		return nil, err
	}

	outcome := &types.TrainingOutcome{Passed: passed, Score: score, Progress: progress}
	if !passed {
		return outcome, nil
	}

	Complete(progress, score, s.now())
	if err := s.modules.SaveProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save training progress: %w", err)
	}

	RecordCompletion(m, score)
	if err := s.modules.UpdateTrainingModule(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save training statistics: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"module_id": moduleID,
		"user_id":   userID,
		"score":     score,
	}).Info("training module completed")

	return outcome, nil
}

// Rate records a 1 to 5 rating for a completed module, once per user.
func (s *Service) Rate(ctx context.Context, moduleID, userID string, rating int) (*types.TrainingModuleView, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", types.ErrInvalidInput)
	}

	unlock := s.locks.Lock(lockKey(moduleID))
	defer unlock()

	m, err := s.active(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	progress, err := s.modules.Progress(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if progress.Status != types.TrainingStatusCompleted {
		return nil, fmt.Errorf("%w: only completed modules can be rated", types.ErrInvalidInput)
	}
	if progress.Rating != nil {
		return nil, fmt.Errorf("%w: module already rated", types.ErrInvalidInput)
	}

	progress.Rating = &rating
	if err := s.modules.SaveProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save training progress: %w", err)
	}

	RecordRating(m, rating)
	if err := s.modules.UpdateTrainingModule(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save training statistics: %w", err)
	}

	return View(m), nil
}
