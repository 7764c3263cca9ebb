package types

import "time"

type UserRole string

const (
	UserRoleCitizen       UserRole = "citizen"
	UserRoleWasteWorker   UserRole = "waste_worker"
	UserRoleGreenChampion UserRole = "green_champion"
	UserRoleULBAdmin      UserRole = "ulb_admin"
	UserRoleAdmin         UserRole = "admin"
)

type User struct {
	ID         string   `db:"id" json:"id"`
	Email      *string  `db:"email" json:"email,omitempty"`
	GivenName  *string  `db:"given_name" json:"givenName,omitempty"`
	FamilyName *string  `db:"family_name" json:"familyName,omitempty"`
	Role       UserRole `db:"role" json:"role"`
	EcoPoints  int      `db:"eco_points" json:"ecoPoints"`
	Level      int      `db:"level" json:"level"`
	TotalScans int      `db:"total_scans" json:"totalScans"`
	Streak     `json:"streak"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Streak counts consecutive calendar days with at least one scan.
type Streak struct {
	Current      int        `db:"streak_current" json:"current"`
	Longest      int        `db:"streak_longest" json:"longest"`
	LastScanDate *time.Time `db:"streak_last_scan_date" json:"lastScanDate,omitempty"`
}

// ProgressionDelta reports the level outcome of awarding points.
type ProgressionDelta struct {
	LevelUp  bool `json:"levelUp"`
	NewLevel int  `json:"newLevel"`
}

// LeaderboardUser is one row of the scan-points leaderboard.
type LeaderboardUser struct {
	UserID            string  `db:"user_id" json:"userId"`
	GivenName         *string `db:"given_name" json:"givenName,omitempty"`
	FamilyName        *string `db:"family_name" json:"familyName,omitempty"`
	TotalScans        int     `db:"total_scans" json:"totalScans"`
	TotalPoints       int     `db:"total_points" json:"totalPoints"`
	AverageConfidence float64 `db:"average_confidence" json:"averageConfidence"`
}
