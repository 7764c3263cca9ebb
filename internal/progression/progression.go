// Package progression holds the level and streak arithmetic applied to a user
// whenever a scan is recorded or removed.
package progression

import (
	"time"

	"greentrack/pkg/types"
)

const PointsPerLevel = 500

// Level is the level a user with the given points total holds.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// AddPoints credits amount to the user and raises the level when the new total
// crosses a threshold. It never lowers the level.
func AddPoints(u *types.User, amount int) types.ProgressionDelta {
	u.EcoPoints += amount

	newLevel := Level(u.EcoPoints)
	if newLevel > u.Level {
		u.Level = newLevel
		return types.ProgressionDelta{LevelUp: true, NewLevel: newLevel}
	}

	return types.ProgressionDelta{LevelUp: false, NewLevel: u.Level}
}

// RemovePoints takes back points awarded by a deleted scan. The total floors
// at zero and the level is recomputed from it.
func RemovePoints(u *types.User, amount int) {
	u.EcoPoints -= amount
	if u.EcoPoints < 0 {
		u.EcoPoints = 0
	}
	u.Level = Level(u.EcoPoints)
}

// UpdateStreak records a scan made at now. Days are calendar days in now's
// location.
func UpdateStreak(s *types.Streak, now time.Time) {
	today := Midnight(now)

	if s.LastScanDate == nil {
		s.Current = 1
		s.LastScanDate = &today
	} else {
		switch days := DaysBetween(*s.LastScanDate, today); {
		case days == 1:
			s.Current++
			s.LastScanDate = &today
		case days > 1:
			s.Current = 1
			s.LastScanDate = &today
		}
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b, ignoring clock time and
// daylight saving shifts. a is read in b's location.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()

	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	return int(to.Sub(from).Hours() / 24)
}
