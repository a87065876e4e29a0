package agents

import (
	"math"
	"time"
)

// DaysNever is the sentinel returned by DaysSince/DaysUntil for nil
// timestamps. It is distinct from 0 (which means "today").
const DaysNever = -1

// DaysSince returns the whole-day difference between now and t. A nil t
// returns DaysNever.
func DaysSince(now time.Time, t *time.Time) int {
	if t == nil {
		return DaysNever
	}
	return int(now.Sub(*t).Hours() / 24)
}

// DaysUntil returns the whole-day difference between t and now. A nil t
// returns DaysNever.
func DaysUntil(now time.Time, t *time.Time) int {
	if t == nil {
		return DaysNever
	}
	return int(t.Sub(now).Hours() / 24)
}

// Clamp01 clips x to [0.0, 1.0].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Round2 rounds x to 2 decimal places using standard rounding.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
