// Package challenge applies joins and scan contributions to challenges and keeps
// their derived state (current amount, statistics, leaderboard, milestones and
// status) consistent with the participant list.
package challenge

import (
	"fmt"
	"greentrack/pkg/types"
	"math"
	"slices"
	"time"
)

const (
	LeaderboardSize = 10

	// NearbyRadiusKm bounds how far an area or city challenge may be from
	// the caller's location and still be listed.
	NearbyRadiusKm = 50.0

	earthRadiusKm = 6371.0
)

// IsOpen reports whether the challenge accepts contributions at now.
func IsOpen(c *types.Challenge, now time.Time) bool {
	return c.Status == types.ChallengeStatusActive &&
		!c.StartDate.After(now) &&
		now.Before(c.EndDate)
}

// ContributionAmount is what one scan adds to a challenge tracking metric.
// ok is false for metrics a scan does not advance.
func ContributionAmount(metric types.ChallengeMetric, pointsEarned int, weightPerScanKg float64) (amount float64, ok bool) {
	switch metric {
	case types.MetricScans:
		return 1, true
	case types.MetricPoints:
		return float64(pointsEarned), true
	case types.MetricWeight:
		return weightPerScanKg, true
	default:
		return 0, false
	}
}

// VisibleTo reports whether a user with the given role may see the challenge
// in the active listing.
func VisibleTo(c *types.Challenge, role types.UserRole) bool {
	return len(c.Eligibility.Roles) == 0 || slices.Contains(c.Eligibility.Roles, role)
}

// Nearby reports whether the challenge should be listed for a caller at near.
// Individual and global challenges are listed everywhere. Area and city
// challenges need an area within NearbyRadiusKm. A nil location disables the
// check.
func Nearby(c *types.Challenge, near *types.GeoPoint) bool {
	if near == nil {
		return true
	}

	switch c.Type {
	case types.ChallengeTypeArea, types.ChallengeTypeCity:
		return c.Area != nil && DistanceKm(*c.Area, *near) <= NearbyRadiusKm
	default:
		return true
	}
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b types.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// CheckEligibility returns ErrNotEligible when the user misses any of the
// challenge requirements. An empty role list admits every role.
func CheckEligibility(c *types.Challenge, u *types.User) error {
	e := c.Eligibility

	if !VisibleTo(c, u.Role) {
		return fmt.Errorf("%w: role %s not allowed", types.ErrNotEligible, u.Role)
	}

	if u.Level < e.MinLevel {
		return fmt.Errorf("%w: requires level %d", types.ErrNotEligible, e.MinLevel)
	}

	if u.EcoPoints < e.MinPoints {
		return fmt.Errorf("%w: requires %d eco points", types.ErrNotEligible, e.MinPoints)
	}

	return nil
}

func participantIndex(c *types.Challenge, userID string) int {
	return slices.IndexFunc(c.Participants, func(p types.Participant) bool {
		return p.UserID == userID
	})
}

// IsParticipant reports whether userID has joined the challenge.
func IsParticipant(c *types.Challenge, userID string) bool {
	return participantIndex(c, userID) >= 0
}

// Join adds the user with a zero contribution.
func Join(c *types.Challenge, u *types.User, now time.Time) error {
	if c.Status.Terminal() {
		return types.ErrChallengeClosed
	}

	if IsParticipant(c, u.ID) {
		return types.ErrAlreadyParticipating
	}

	if err := CheckEligibility(c, u); err != nil {
		return err
	}

	c.Participants = append(c.Participants, types.Participant{
		UserID:   u.ID,
		JoinedAt: now,
	})

	Rebuild(c, now)
	return nil
}

// UpdateContribution credits amount to a participant and rebuilds every field
// derived from the participant list. Milestones crossed by the new total are
// latched and the status is re-evaluated.
func UpdateContribution(c *types.Challenge, userID string, amount float64, now time.Time) error {
	if c.Status.Terminal() {
		return types.ErrChallengeClosed
	}

	idx := participantIndex(c, userID)
	if idx < 0 {
		return types.ErrNotParticipating
	}

	p := &c.Participants[idx]
	p.Contribution += amount
	p.LastActivity = &now

	Rebuild(c, now)
	CheckMilestones(c, now)
	RefreshStatus(c, now)

	return nil
}

// Rebuild recomputes the current amount, statistics and leaderboard from the
// participants' contributions.
func Rebuild(c *types.Challenge, now time.Time) {
	var (
		total float64
		top   *types.Participant
	)

	for i := range c.Participants {
		p := &c.Participants[i]
		total += p.Contribution
		if top == nil || p.Contribution > top.Contribution {
			top = p
		}
	}

	c.CurrentAmount = total
	c.Statistics.TotalParticipants = len(c.Participants)
	c.Statistics.AverageContribution = 0
	c.Statistics.TopContributor = nil

	if top != nil {
		c.Statistics.AverageContribution = total / float64(len(c.Participants))
		c.Statistics.TopContributor = &types.TopContributor{
			UserID:       top.UserID,
			Contribution: top.Contribution,
		}
	}

	c.Leaderboard = leaderboard(c.Participants, now)
}

func leaderboard(participants []types.Participant, now time.Time) []types.LeaderboardEntry {
	ranked := slices.Clone(participants)
	slices.SortStableFunc(ranked, func(a, b types.Participant) int {
		switch {
		case a.Contribution > b.Contribution:
			return -1
		case a.Contribution < b.Contribution:
			return 1
		default:
			return 0
		}
	})

	if len(ranked) > LeaderboardSize {
		ranked = ranked[:LeaderboardSize]
	}

	entries := make([]types.LeaderboardEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, types.LeaderboardEntry{
			UserID:       p.UserID,
			Rank:         i + 1,
			Contribution: p.Contribution,
			LastUpdated:  now,
		})
	}
	return entries
}

// CheckMilestones marks every milestone the current progress has reached.
// Achieved milestones stay achieved when progress later falls.
func CheckMilestones(c *types.Challenge, now time.Time) {
	if c.TargetAmount <= 0 {
		return
	}

	progress := c.CurrentAmount / c.TargetAmount * 100
	for i := range c.Milestones {
		m := &c.Milestones[i]
		if !m.Achieved && progress >= m.Percentage {
			m.Achieved = true
			m.AchievedAt = &now
		}
	}
}

// RefreshStatus completes an active challenge whose window has closed or whose
// target has been met. It reports whether the status changed.
func RefreshStatus(c *types.Challenge, now time.Time) bool {
	if c.Status != types.ChallengeStatusActive {
		return false
	}

	if now.After(c.EndDate) || (c.TargetAmount > 0 && c.CurrentAmount >= c.TargetAmount) {
		c.Status = types.ChallengeStatusCompleted
		return true
	}

	return false
}

// Activate publishes a draft challenge.
func Activate(c *types.Challenge) error {
	if c.Status != types.ChallengeStatusDraft {
		return fmt.Errorf("%w: cannot activate a %s challenge", types.ErrInvalidInput, c.Status)
	}
	c.Status = types.ChallengeStatusActive
	return nil
}

// Cancel closes a challenge that has not already finished.
func Cancel(c *types.Challenge) error {
	if c.Status.Terminal() {
		return fmt.Errorf("%w: challenge already %s", types.ErrChallengeClosed, c.Status)
	}
	c.Status = types.ChallengeStatusCancelled
	return nil
}
