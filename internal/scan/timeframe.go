package scan

import (
	"fmt"
	"greentrack/pkg/types"
	"time"
)

const DefaultTimeframe = "30d"

var timeframeDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// Since resolves a statistics timeframe to its start. "all" has no start and
// returns nil; an empty timeframe means DefaultTimeframe.
func Since(timeframe string, now time.Time) (*time.Time, error) {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}

	if timeframe == "all" {
		return nil, nil
	}

	days, ok := timeframeDays[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: invalid timeframe %q", types.ErrInvalidInput, timeframe)
	}

	since := now.AddDate(0, 0, -days)
	return &since, nil
}
