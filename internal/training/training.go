// Package training serves role-based learning modules and tracks each user's
// enrollment, graded completion and rating of them.
package training

import (
	"cmp"
	"fmt"
	"greentrack/pkg/types"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	RecommendedLimit = 5

	// DefaultQuestionPoints applies to quiz questions stored without points.
	DefaultQuestionPoints = 10

	wordsPerMinute = 200
)

var difficultyRank = map[types.TrainingDifficulty]int{
	types.DifficultyBeginner:     0,
	types.DifficultyIntermediate: 1,
	types.DifficultyAdvanced:     2,
}

// RequiredFor reports whether the module is active and assigned to role.
func RequiredFor(m *types.TrainingModule, role types.UserRole) bool {
	return m.IsActive && slices.Contains(m.RequiredFor, role)
}

// SortByDifficulty orders modules beginner first, oldest first within a level.
func SortByDifficulty(modules []*types.TrainingModule) {
	slices.SortStableFunc(modules, func(a, b *types.TrainingModule) int {
		if c := cmp.Compare(difficultyRank[a.Difficulty], difficultyRank[b.Difficulty]); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// CompletionRate is the percentage of enrollments that ended in completion.
func CompletionRate(m *types.TrainingModule) int {
	if m.Statistics.TotalEnrollments == 0 {
		return 0
	}
	return int(math.Round(float64(m.Statistics.TotalCompletions) / float64(m.Statistics.TotalEnrollments) * 100))
}

// EstimatedReadingTime is the reading time in minutes for document modules
// with materials, and the declared duration otherwise.
func EstimatedReadingTime(m *types.TrainingModule) int {
	if m.Type != types.TrainingTypeDocument || len(m.Content.Materials) == 0 {
		return m.DurationMinutes
	}
	words := len(strings.Fields(strings.Join(m.Content.Materials, " ")))
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// View builds the API representation with quiz answers removed.
func View(m *types.TrainingModule) *types.TrainingModuleView {
	out := *m
	if len(m.Content.QuizQuestions) > 0 {
		questions := make([]types.QuizQuestion, len(m.Content.QuizQuestions))
		for i, q := range m.Content.QuizQuestions {
			q.CorrectAnswer = nil
			q.Explanation = ""
			questions[i] = q
		}
		out.Content.QuizQuestions = questions
	}

	return &types.TrainingModuleView{
		TrainingModule:       &out,
		CompletionRate:       CompletionRate(m),
		EstimatedReadingTime: EstimatedReadingTime(m),
	}
}

func Views(modules []*types.TrainingModule) []*types.TrainingModuleView {
	out := make([]*types.TrainingModuleView, 0, len(modules))
	for _, m := range modules {
		out = append(out, View(m))
	}
	return out
}

// PrerequisitesMet reports whether every prerequisite is in completed.
func PrerequisitesMet(m *types.TrainingModule, completed map[string]bool) bool {
	for _, id := range m.Prerequisites {
		if !completed[id] {
			return false
		}
	}
	return true
}

// Grade scores an attempt as a percentage and reports whether it passes the
// module's completion criteria. Quizzes are scored by question points, videos
// by the share watched, and other module types always pass.
func Grade(m *types.TrainingModule, attempt types.TrainingAttempt) (float64, bool, error) {
	switch m.Type {
	case types.TrainingTypeQuiz:
		questions := m.Content.QuizQuestions
		if len(questions) == 0 {
			return 100, true, nil
		}
		if len(attempt.Answers) != len(questions) {
			return 0, false, fmt.Errorf("%w: expected %d answers, got %d", types.ErrInvalidInput, len(questions), len(attempt.Answers))
		}

		var earned, total int
		for i, q := range questions {
			points := q.Points
			if points <= 0 {
				points = DefaultQuestionPoints
			}
			total += points
			if q.CorrectAnswer != nil && attempt.Answers[i] == *q.CorrectAnswer {
				earned += points
			}
		}

		score := float64(earned) / float64(total) * 100
		return score, score >= m.CompletionCriteria.MinimumScore, nil

	case types.TrainingTypeVideo:
		if attempt.WatchedPercent < 0 || attempt.WatchedPercent > 100 {
			return 0, false, fmt.Errorf("%w: watchedPercent must be between 0 and 100", types.ErrInvalidInput)
		}
		return attempt.WatchedPercent, attempt.WatchedPercent >= m.CompletionCriteria.RequiredWatchTime, nil

	default:
		return 100, true, nil
	}
}

func RecordEnrollment(m *types.TrainingModule) {
	m.Statistics.TotalEnrollments++
}

// RecordCompletion counts a completion and folds score into the running
// average.
func RecordCompletion(m *types.TrainingModule, score float64) {
	stats := &m.Statistics
	stats.AverageScore = (stats.AverageScore*float64(stats.TotalCompletions) + score) / float64(stats.TotalCompletions+1)
	stats.TotalCompletions++
}

func RecordRating(m *types.TrainingModule, rating int) {
	stats := &m.Statistics
	stats.AverageRating = (stats.AverageRating*float64(stats.TotalRatings) + float64(rating)) / float64(stats.TotalRatings+1)
	stats.TotalRatings++
}

// Complete marks progress completed with score at now.
func Complete(p *types.TrainingProgress, score float64, now time.Time) {
	p.Status = types.TrainingStatusCompleted
	p.Score = &score
	p.CompletedAt = &now
}
