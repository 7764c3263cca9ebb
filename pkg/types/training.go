package types

import "time"

type TrainingType string

const (
	TrainingTypeVideo       TrainingType = "video"
	TrainingTypeQuiz        TrainingType = "quiz"
	TrainingTypeInteractive TrainingType = "interactive"
	TrainingTypeDocument    TrainingType = "document"
)

type TrainingDifficulty string

const (
	DifficultyBeginner     TrainingDifficulty = "beginner"
	DifficultyIntermediate TrainingDifficulty = "intermediate"
	DifficultyAdvanced     TrainingDifficulty = "advanced"
)

type TrainingModule struct {
	ID                 string             `db:"id" json:"id"`
	Title              string             `db:"title" json:"title"`
	Description        string             `db:"description" json:"description"`
	Type               TrainingType       `db:"type" json:"type"`
	DurationMinutes    int                `db:"duration_minutes" json:"duration"`
	Difficulty         TrainingDifficulty `db:"difficulty" json:"difficulty"`
	Category           string             `db:"category" json:"category"`
	Content            TrainingContent    `db:"content" json:"content"`
	RequiredFor        []UserRole         `db:"required_for" json:"requiredFor"`
	Prerequisites      []string           `db:"prerequisites" json:"prerequisites"`
	LearningObjectives []string           `db:"learning_objectives" json:"learningObjectives"`
	CompletionCriteria CompletionCriteria `db:"completion_criteria" json:"completionCriteria"`
	Tags               []string           `db:"tags" json:"tags"`
	IsActive           bool               `db:"is_active" json:"isActive"`
	Version            string             `db:"version" json:"version"`
	Statistics         TrainingStatistics `db:"statistics" json:"statistics"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt"`
}

type TrainingContent struct {
	VideoURL      string             `json:"videoUrl,omitempty"`
	DocumentURL   string             `json:"documentUrl,omitempty"`
	QuizQuestions []QuizQuestion     `json:"quizQuestions,omitempty"`
	Materials     []string           `json:"materials,omitempty"`
	Resources     []TrainingResource `json:"resources,omitempty"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"`
}

type TrainingResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// CompletionCriteria are percentages: the lowest passing quiz score and the
// share of a video that must be watched.
type CompletionCriteria struct {
	MinimumScore      float64 `json:"minimumScore"`
	RequiredWatchTime float64 `json:"requiredWatchTime"`
}

type TrainingStatistics struct {
	TotalEnrollments int     `json:"totalEnrollments"`
	TotalCompletions int     `json:"totalCompletions"`
	AverageScore     float64 `json:"averageScore"`
	AverageRating    float64 `json:"averageRating"`
	TotalRatings     int     `json:"totalRatings"`
}

// TrainingModuleView adds the derived fields returned by the API. Quiz answers
// are stripped before a module leaves the service.
type TrainingModuleView struct {
	*TrainingModule
	CompletionRate       int `json:"completionRate"`
	EstimatedReadingTime int `json:"estimatedReadingTime"`
}

type TrainingStatus string

const (
	TrainingStatusEnrolled  TrainingStatus = "enrolled"
	TrainingStatusCompleted TrainingStatus = "completed"
)

// TrainingProgress is one user's record against one module.
type TrainingProgress struct {
	UserID      string         `db:"user_id" json:"userId"`
	ModuleID    string         `db:"module_id" json:"moduleId"`
	Status      TrainingStatus `db:"status" json:"status"`
	Score       *float64       `db:"score" json:"score,omitempty"`
	Rating      *int           `db:"rating" json:"rating,omitempty"`
	EnrolledAt  time.Time      `db:"enrolled_at" json:"enrolledAt"`
	CompletedAt *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
}

// TrainingAttempt is what a user submits to complete a module. Answers are
// option indexes in question order.
type TrainingAttempt struct {
	Answers        []int   `json:"answers"`
	WatchedPercent float64 `json:"watchedPercent"`
}

type TrainingOutcome struct {
	Passed   bool              `json:"passed"`
	Score    float64           `json:"score"`
	Progress *TrainingProgress `json:"progress"`
}
