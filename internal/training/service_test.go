package training

import (
	"context"
	"fmt"
	"greentrack/internal/keylock"
	"greentrack/pkg/types"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTraining struct {
	mu       sync.Mutex
	modules  map[string]*types.TrainingModule
	order    []string
	progress map[string]*types.TrainingProgress
}

func newMemTraining(modules ...*types.TrainingModule) *memTraining {
	m := &memTraining{modules: map[string]*types.TrainingModule{}, progress: map[string]*types.TrainingProgress{}}
	for _, module := range modules {
		copied := *module
		m.modules[module.ID] = &copied
		m.order = append(m.order, module.ID)
	}
	return m
}

func progressKey(userID, moduleID string) string {
	return userID + "/" + moduleID
}

func (m *memTraining) TrainingModule(_ context.Context, moduleID string) (*types.TrainingModule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	module, ok := m.modules[moduleID]
	if !ok {
		return nil, types.ErrTrainingNotFound
	}
	copied := *module
	return &copied, nil
}

func (m *memTraining) TrainingModulesForRole(_ context.Context, role types.UserRole) ([]*types.TrainingModule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.TrainingModule, 0)
	for _, id := range m.order {
		if RequiredFor(m.modules[id], role) {
			copied := *m.modules[id]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memTraining) UpdateTrainingModule(_ context.Context, module *types.TrainingModule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *module
	m.modules[module.ID] = &copied
	return nil
}

func (m *memTraining) Progress(_ context.Context, userID, moduleID string) (*types.TrainingProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progressKey(userID, moduleID)]
	if !ok {
		return nil, types.ErrNotEnrolled
	}
	copied := *p
	return &copied, nil
}

func (m *memTraining) ProgressByUser(_ context.Context, userID string) ([]*types.TrainingProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.TrainingProgress, 0)
	for _, p := range m.progress {
		if p.UserID == userID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memTraining) SaveProgress(_ context.Context, p *types.TrainingProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *p
	m.progress[progressKey(p.UserID, p.ModuleID)] = &copied
	return nil
}

func newTestService(repo *memTraining) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := NewService(logger, repo, keylock.New())
	s.now = func() time.Time { return epoch }
	return s
}

func docModule(id string, difficulty types.TrainingDifficulty, rating float64, roles ...types.UserRole) *types.TrainingModule {
	return &types.TrainingModule{
		ID:              id,
		Title:           "Module " + id,
		Type:            types.TrainingTypeDocument,
		DurationMinutes: 10,
		Difficulty:      difficulty,
		RequiredFor:     roles,
		IsActive:        true,
		Statistics:      types.TrainingStatistics{AverageRating: rating},
		CreatedAt:       epoch,
	}
}

func TestByRoleListsAssignedModulesEasiestFirst(t *testing.T) {
	hard := docModule("hard", types.DifficultyAdvanced, 0, types.UserRoleCitizen)
	easy := docModule("easy", types.DifficultyBeginner, 0, types.UserRoleCitizen, types.UserRoleWasteWorker)
	workers := docModule("workers", types.DifficultyBeginner, 0, types.UserRoleWasteWorker)
	retired := docModule("retired", types.DifficultyBeginner, 0, types.UserRoleCitizen)
	retired.IsActive = false

	s := newTestService(newMemTraining(hard, easy, workers, retired))

	views, err := s.ByRole(context.Background(), types.UserRoleCitizen)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "easy", views[0].ID)
	assert.Equal(t, "hard", views[1].ID)
}

func TestRecommendedSkipsCompletedAndLockedModules(t *testing.T) {
	intro := docModule("intro", types.DifficultyBeginner, 3, types.UserRoleCitizen)
	compost := docModule("compost", types.DifficultyBeginner, 4.5, types.UserRoleCitizen)
	advanced := docModule("advanced", types.DifficultyAdvanced, 5, types.UserRoleCitizen)
	advanced.Prerequisites = []string{"compost"}

	repo := newMemTraining(intro, compost, advanced)
	s := newTestService(repo)
	ctx := context.Background()

	views, err := s.Recommended(ctx, "u1", types.UserRoleCitizen)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "compost", views[0].ID)
	assert.Equal(t, "intro", views[1].ID)

	_, err = s.Enroll(ctx, "compost", "u1")
	require.NoError(t, err)
	_, err = s.Complete(ctx, "compost", "u1", types.TrainingAttempt{})
	require.NoError(t, err)

	views, err = s.Recommended(ctx, "u1", types.UserRoleCitizen)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "advanced", views[0].ID)
	assert.Equal(t, "intro", views[1].ID)
}

func TestRecommendedIsCapped(t *testing.T) {
	modules := make([]*types.TrainingModule, 0, RecommendedLimit+3)
	for i := range RecommendedLimit + 3 {
		modules = append(modules, docModule(fmt.Sprintf("m%d", i), types.DifficultyBeginner, float64(i%5), types.UserRoleCitizen))
	}

	s := newTestService(newMemTraining(modules...))

	views, err := s.Recommended(context.Background(), "u1", types.UserRoleCitizen)
	require.NoError(t, err)
	assert.Len(t, views, RecommendedLimit)
}

func TestEnrollCountsOnce(t *testing.T) {
	repo := newMemTraining(docModule("intro", types.DifficultyBeginner, 0, types.UserRoleCitizen))
	s := newTestService(repo)
	ctx := context.Background()

	first, err := s.Enroll(ctx, "intro", "u1")
	require.NoError(t, err)
	assert.Equal(t, types.TrainingStatusEnrolled, first.Status)
	assert.Equal(t, epoch, first.EnrolledAt)

	second, err := s.Enroll(ctx, "intro", "u1")
	require.NoError(t, err)
	assert.Equal(t, first.EnrolledAt, second.EnrolledAt)

	stored, _ := repo.TrainingModule(ctx, "intro")
	assert.Equal(t, 1, stored.Statistics.TotalEnrollments)
}

func TestEnrollRequiresPrerequisites(t *testing.T) {
	intro := docModule("intro", types.DifficultyBeginner, 0, types.UserRoleCitizen)
	next := docModule("next", types.DifficultyIntermediate, 0, types.UserRoleCitizen)
	next.Prerequisites = []string{"intro"}

	s := newTestService(newMemTraining(intro, next))
	ctx := context.Background()

	_, err := s.Enroll(ctx, "next", "u1")
	require.ErrorIs(t, err, types.ErrPrerequisitesMissing)

	_, err = s.Enroll(ctx, "intro", "u1")
	require.NoError(t, err)
	_, err = s.Complete(ctx, "intro", "u1", types.TrainingAttempt{})
	require.NoError(t, err)

	_, err = s.Enroll(ctx, "next", "u1")
	assert.NoError(t, err)
}

func TestEnrollRejectsUnknownOrInactiveModule(t *testing.T) {
	retired := docModule("retired", types.DifficultyBeginner, 0, types.UserRoleCitizen)
	retired.IsActive = false

	s := newTestService(newMemTraining(retired))

	_, err := s.Enroll(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, types.ErrTrainingNotFound)

	_, err = s.Enroll(context.Background(), "retired", "u1")
	assert.ErrorIs(t, err, types.ErrTrainingNotFound)
}

func TestCompleteQuiz(t *testing.T) {
	repo := newMemTraining(quizModule())
	s := newTestService(repo)
	ctx := context.Background()

	_, err := s.Complete(ctx, "quiz-1", "u1", types.TrainingAttempt{Answers: []int{0, 0}})
	require.ErrorIs(t, err, types.ErrNotEnrolled)

	_, err = s.Enroll(ctx, "quiz-1", "u1")
	require.NoError(t, err)

	failed, err := s.Complete(ctx, "quiz-1", "u1", types.TrainingAttempt{Answers: []int{0, 1}})
	require.NoError(t, err)
	assert.False(t, failed.Passed)
	assert.Equal(t, 25.0, failed.Score)
	assert.Equal(t, types.TrainingStatusEnrolled, failed.Progress.Status)

	passed, err := s.Complete(ctx, "quiz-1", "u1", types.TrainingAttempt{Answers: []int{1, 0}})
	require.NoError(t, err)
	assert.True(t, passed.Passed)
	assert.Equal(t, types.TrainingStatusCompleted, passed.Progress.Status)
	require.NotNil(t, passed.Progress.CompletedAt)
	assert.Equal(t, epoch, *passed.Progress.CompletedAt)

	_, err = s.Complete(ctx, "quiz-1", "u1", types.TrainingAttempt{Answers: []int{0, 0}})
	assert.ErrorIs(t, err, types.ErrTrainingCompleted)

	stored, _ := repo.TrainingModule(ctx, "quiz-1")
	assert.Equal(t, 1, stored.Statistics.TotalCompletions)
	assert.InDelta(t, 75.0, stored.Statistics.AverageScore, 1e-9)

	view, err := s.Get(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, 100, view.CompletionRate)
	assert.Nil(t, view.Content.QuizQuestions[0].CorrectAnswer)
}

func TestRate(t *testing.T) {
	repo := newMemTraining(docModule("intro", types.DifficultyBeginner, 0, types.UserRoleCitizen))
	s := newTestService(repo)
	ctx := context.Background()

	_, err := s.Rate(ctx, "intro", "u1", 4)
	require.ErrorIs(t, err, types.ErrNotEnrolled)

	_, err = s.Enroll(ctx, "intro", "u1")
	require.NoError(t, err)

	_, err = s.Rate(ctx, "intro", "u1", 4)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = s.Complete(ctx, "intro", "u1", types.TrainingAttempt{})
	require.NoError(t, err)

	_, err = s.Rate(ctx, "intro", "u1", 6)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	view, err := s.Rate(ctx, "intro", "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Statistics.TotalRatings)
	assert.InDelta(t, 4.0, view.Statistics.AverageRating, 1e-9)

	_, err = s.Rate(ctx, "intro", "u1", 5)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestConcurrentEnrollmentsAreAllCounted(t *testing.T) {
	repo := newMemTraining(docModule("intro", types.DifficultyBeginner, 0, types.UserRoleCitizen))
	s := newTestService(repo)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Enroll(context.Background(), "intro", fmt.Sprintf("u%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, _ := repo.TrainingModule(context.Background(), "intro")
	assert.Equal(t, 20, stored.Statistics.TotalEnrollments)
}
