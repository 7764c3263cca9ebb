package types

import "time"

type ChallengeStatus string

const (
	ChallengeStatusDraft     ChallengeStatus = "draft"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusCancelled ChallengeStatus = "cancelled"
)

// Terminal reports whether no further transitions or contributions are allowed.
func (s ChallengeStatus) Terminal() bool {
	return s == ChallengeStatusCompleted || s == ChallengeStatusCancelled
}

type ChallengeMetric string

const (
	MetricScans        ChallengeMetric = "scans"
	MetricPoints       ChallengeMetric = "points"
	MetricWeight       ChallengeMetric = "weight"
	MetricParticipants ChallengeMetric = "participants"
	MetricDays         ChallengeMetric = "days"
)

type ChallengeType string

const (
	ChallengeTypeIndividual ChallengeType = "individual"
	ChallengeTypeCommunity  ChallengeType = "community"
	ChallengeTypeArea       ChallengeType = "area"
	ChallengeTypeCity       ChallengeType = "city"
	ChallengeTypeGlobal     ChallengeType = "global"
)

type Challenge struct {
	ID           string          `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Description  string          `db:"description" json:"description"`
	Type         ChallengeType   `db:"type" json:"type"`
	Category     string          `db:"category" json:"category"`
	TargetMetric ChallengeMetric `db:"target_metric" json:"targetMetric"`
	TargetAmount float64         `db:"target_amount" json:"targetAmount"`

	// CurrentAmount, Leaderboard and Statistics are derived from Participants
	// and rebuilt on every contribution.
	CurrentAmount float64 `db:"current_amount" json:"currentAmount"`

	Reward       ChallengeReward      `db:"reward" json:"reward"`
	StartDate    time.Time            `db:"start_date" json:"startDate"`
	EndDate      time.Time            `db:"end_date" json:"endDate"`
	Participants []Participant        `db:"participants" json:"participants"`
	Rules        []string             `db:"rules" json:"rules"`
	Eligibility  ChallengeEligibility `db:"eligibility" json:"eligibility"`
	Area         *GeoPoint            `db:"area" json:"area,omitempty"`
	Status       ChallengeStatus      `db:"status" json:"status"`
	CreatedBy    string               `db:"created_by" json:"createdBy"`
	Featured     bool                 `db:"featured" json:"featured"`
	Image        *string              `db:"image" json:"image,omitempty"`
	Leaderboard  []LeaderboardEntry   `db:"leaderboard" json:"leaderboard"`
	Milestones   []Milestone          `db:"milestones" json:"milestones"`
	Statistics   ChallengeStatistics  `db:"statistics" json:"statistics"`
	CreatedAt    time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `db:"updated_at" json:"updatedAt"`
}

type ChallengeReward struct {
	Points         int    `json:"points"`
	Badge          string `json:"badge,omitempty"`
	Certificate    string `json:"certificate,omitempty"`
	PhysicalReward string `json:"physicalReward,omitempty"`
}

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ChallengeEligibility struct {
	Roles     []UserRole `json:"roles"`
	MinLevel  int        `json:"minLevel"`
	MinPoints int        `json:"minPoints"`
}

type Participant struct {
	UserID       string     `json:"userId"`
	JoinedAt     time.Time  `json:"joinedAt"`
	Contribution float64    `json:"contribution"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

type LeaderboardEntry struct {
	UserID       string    `json:"userId"`
	Rank         int       `json:"rank"`
	Contribution float64   `json:"contribution"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

type Milestone struct {
	Percentage  float64         `json:"percentage"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      MilestoneReward `json:"reward"`
	Achieved    bool            `json:"achieved"`
	AchievedAt  *time.Time      `json:"achievedAt,omitempty"`
}

type MilestoneReward struct {
	Points int    `json:"points"`
	Badge  string `json:"badge,omitempty"`
}

type ChallengeStatistics struct {
	TotalParticipants   int             `json:"totalParticipants"`
	AverageContribution float64         `json:"averageContribution"`
	TopContributor      *TopContributor `json:"topContributor,omitempty"`
}

type TopContributor struct {
	UserID       string  `json:"userId"`
	Contribution float64 `json:"contribution"`
}

// ChallengeUpdate records what one scan credited to one challenge.
type ChallengeUpdate struct {
	ChallengeID        string  `json:"challengeId"`
	ContributionAmount float64 `json:"contributionAmount"`
}

// ChallengeError records a contribution that could not be applied.
type ChallengeError struct {
	ChallengeID string `json:"challengeId"`
	Error       string `json:"error"`
}

type TimeRemaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Expired bool `json:"expired"`
}

// ChallengeView decorates a challenge with its computed progress fields.
type ChallengeView struct {
	*Challenge
	ProgressPercentage int           `json:"progressPercentage"`
	TimeRemaining      TimeRemaining `json:"timeRemaining"`
	IsActive           bool          `json:"isActive"`
}
