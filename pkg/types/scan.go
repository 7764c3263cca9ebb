package types

import "time"

type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusProcessed ScanStatus = "processed"
	ScanStatusVerified  ScanStatus = "verified"
	ScanStatusDisputed  ScanStatus = "disputed"
)

// Scan is the append-only record of one classified waste photo. PointsEarned is
// fixed at creation; only the contribution, moderation and report fields change later.
type Scan struct {
	ID       string `db:"id" json:"id"`
	UserID   string `db:"user_id" json:"userId"`
	ImageURL string `db:"image_url" json:"imageUrl"`
	ImageKey string `db:"image_key" json:"-"`

	WasteTypes        []DetectedWaste `db:"waste_types" json:"wasteTypes"`
	PrimaryWasteType  WasteCategory   `db:"primary_waste_type" json:"primaryWasteType"`
	OverallConfidence int             `db:"overall_confidence" json:"overallConfidence"`
	PointsEarned      int             `db:"points_earned" json:"pointsEarned"`

	ScanLocation `json:"location"`
	GeoTagged    bool `db:"geo_tagged" json:"geoTagged"`

	Analysis                ScanAnalysis             `db:"analysis" json:"aiAnalysis"`
	DisposalRecommendations []DisposalRecommendation `db:"disposal_recommendations" json:"disposalRecommendations"`
	ChallengeContributions  []ChallengeUpdate        `db:"challenge_contributions" json:"challengeContributions"`

	Status        ScanStatus   `db:"status" json:"status"`
	Verified      bool         `db:"verified" json:"verified"`
	VerifiedBy    *string      `db:"verified_by" json:"verifiedBy,omitempty"`
	VerifiedAt    *time.Time   `db:"verified_at" json:"verifiedAt,omitempty"`
	ReportedIssue *ScanReport  `db:"reported_issue" json:"reportedIssue,omitempty"`
	Metadata      ScanMetadata `db:"metadata" json:"metadata"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type ScanLocation struct {
	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
	Address   *string  `db:"address" json:"address,omitempty"`
	Area      *string  `db:"area" json:"area,omitempty"`
	City      *string  `db:"city" json:"city,omitempty"`
	State     *string  `db:"state" json:"state,omitempty"`
}

// HasCoordinates reports whether both coordinates were supplied.
func (l ScanLocation) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

type ScanMetadata struct {
	DeviceInfo   string `json:"deviceInfo,omitempty"`
	AppVersion   string `json:"appVersion,omitempty"`
	ScanDuration int    `json:"scanDuration,omitempty"`
}

type ScanReport struct {
	Reported   bool       `json:"reported"`
	Reason     string     `json:"reason"`
	ReportedBy string     `json:"reportedBy"`
	ReportedAt time.Time  `json:"reportedAt"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// ScanFilter narrows a user's scan listing.
type ScanFilter struct {
	UserID    string
	WasteType *WasteCategory
	Verified  *bool
	Page      uint64
	Limit     uint64
}

type Pagination struct {
	Current int  `json:"current"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func NewPagination(page, limit uint64, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + int(limit) - 1) / int(limit)
	}
	return Pagination{
		Current: int(page),
		Pages:   pages,
		Total:   total,
		HasNext: int(page) < pages,
		HasPrev: page > 1,
	}
}

type ScanStatistics struct {
	TotalScans         int             `db:"total_scans" json:"totalScans"`
	TotalPoints        int             `db:"total_points" json:"totalPoints"`
	AverageConfidence  float64         `db:"average_confidence" json:"averageConfidence"`
	VerificationRate   float64         `db:"verification_rate" json:"verificationRate"`
	WasteTypeBreakdown []WasteCategory `db:"waste_type_breakdown" json:"wasteTypeBreakdown"`
}

// ScanOutcome is everything a completed scan submission reports back.
type ScanOutcome struct {
	Scan             *Scan             `json:"scan"`
	PointsEarned     int               `json:"pointsEarned"`
	TotalPoints      int               `json:"totalPoints"`
	LevelUp          bool              `json:"levelUp"`
	NewLevel         int               `json:"newLevel"`
	ChallengeUpdates []ChallengeUpdate `json:"challengeUpdates"`
	ChallengeErrors  []ChallengeError  `json:"challengeErrors"`
}

// ScanCompletedEvent is pushed to the user's real-time channel.
type ScanCompletedEvent struct {
	ScanID           string            `json:"scanId"`
	PointsEarned     int               `json:"pointsEarned"`
	LevelUp          bool              `json:"levelUp"`
	NewLevel         int               `json:"newLevel"`
	ChallengeUpdates []ChallengeUpdate `json:"challengeUpdates"`
}
