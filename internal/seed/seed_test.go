package seed

import (
	"context"
	"greentrack/internal/challenge"
	"greentrack/internal/training"
	"greentrack/pkg/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChallenges struct {
	upserted []types.Challenge
}

func (r *recordingChallenges) UpsertChallenge(_ context.Context, c *types.Challenge) error {
	r.upserted = append(r.upserted, *c)
	return nil
}

type recordingTraining struct {
	upserted []types.TrainingModule
}

func (r *recordingTraining) UpsertTrainingModule(_ context.Context, m *types.TrainingModule) error {
	r.upserted = append(r.upserted, *m)
	return nil
}

type memUsers struct {
	users     map[string]*types.User
	refreshed []string
}

func (m *memUsers) User(_ context.Context, userID string) (*types.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, user *types.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) UpsertIdentity(_ context.Context, userID, _, _, _ string) error {
	m.refreshed = append(m.refreshed, userID)
	return nil
}

func TestSeedChallenges(t *testing.T) {
	now := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	repo := &recordingChallenges{}

	require.NoError(t, SeedChallenges(context.Background(), repo, now))
	require.Len(t, repo.upserted, len(Challenges(now)))

	ids := map[string]bool{}
	for _, c := range repo.upserted {
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true

		assert.True(t, challenge.IsOpen(&c, now), c.Title)
		assert.Greater(t, c.TargetAmount, 0.0)
		_, ok := challenge.ContributionAmount(c.TargetMetric, 10, 0.5)
		assert.True(t, ok, "%s uses a metric scans never contribute to", c.Title)

		assert.NotNil(t, c.Participants)
		require.Len(t, c.Milestones, 4)
		for _, m := range c.Milestones {
			assert.False(t, m.Achieved)
		}
		assert.Equal(t, 100.0, c.Milestones[3].Percentage)
	}
}

func TestSeedDemoUsers(t *testing.T) {
	repo := &memUsers{users: map[string]*types.User{}}

	require.NoError(t, SeedDemoUsers(context.Background(), repo))
	require.Len(t, repo.users, len(demoUsers))
	assert.Empty(t, repo.refreshed)

	champion := repo.users["33333333-3333-3333-3333-333333333333"]
	assert.Equal(t, 1250, champion.EcoPoints)
	assert.Equal(t, 3, champion.Level)

	// a second run only refreshes identity fields
	champion.EcoPoints = 1400
	require.NoError(t, SeedDemoUsers(context.Background(), repo))
	assert.Len(t, repo.refreshed, len(demoUsers))
	assert.Equal(t, 1400, repo.users["33333333-3333-3333-3333-333333333333"].EcoPoints)
}

func TestSeedTraining(t *testing.T) {
	repo := &recordingTraining{}

	require.NoError(t, SeedTraining(context.Background(), repo))
	require.Len(t, repo.upserted, len(TrainingModules()))

	ids := map[string]bool{}
	for _, m := range repo.upserted {
		ids[m.ID] = true
	}
	require.Len(t, ids, len(repo.upserted))

	for _, m := range repo.upserted {
		assert.True(t, m.IsActive, m.Title)
		assert.NotEmpty(t, m.RequiredFor, m.Title)
		assert.Positive(t, m.DurationMinutes, m.Title)
		assert.NotNil(t, m.Prerequisites, m.Title)
		for _, id := range m.Prerequisites {
			assert.True(t, ids[id], "%s has unknown prerequisite %s", m.Title, id)
		}

		for _, q := range m.Content.QuizQuestions {
			require.NotNil(t, q.CorrectAnswer, q.Question)
			assert.Less(t, *q.CorrectAnswer, len(q.Options), q.Question)
		}

		// every seeded module can be passed
		attempt := types.TrainingAttempt{WatchedPercent: 100}
		for _, q := range m.Content.QuizQuestions {
			attempt.Answers = append(attempt.Answers, *q.CorrectAnswer)
		}
		_, passed, err := training.Grade(&m, attempt)
		require.NoError(t, err)
		assert.True(t, passed, m.Title)
	}
}
