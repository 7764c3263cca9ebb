package challenge

import (
	"greentrack/pkg/types"
	"math"
	"time"
)

// ProgressPercentage is current over target as a whole percentage, capped at 100.
func ProgressPercentage(c *types.Challenge) int {
	if c.TargetAmount <= 0 {
		return 0
	}
	return int(math.Min(math.Round(c.CurrentAmount/c.TargetAmount*100), 100))
}

func Remaining(c *types.Challenge, now time.Time) types.TimeRemaining {
	diff := c.EndDate.Sub(now)
	if diff <= 0 {
		return types.TimeRemaining{Expired: true}
	}

	day := 24 * time.Hour
	return types.TimeRemaining{
		Days:  int(diff / day),
		Hours: int((diff % day) / time.Hour),
	}
}

func View(c *types.Challenge, now time.Time) *types.ChallengeView {
	return &types.ChallengeView{
		Challenge:          c,
		ProgressPercentage: ProgressPercentage(c),
		TimeRemaining:      Remaining(c, now),
		IsActive:           IsOpen(c, now),
	}
}

func Views(challenges []*types.Challenge, now time.Time) []*types.ChallengeView {
	views := make([]*types.ChallengeView, 0, len(challenges))
	for _, c := range challenges {
		views = append(views, View(c, now))
	}
	return views
}
