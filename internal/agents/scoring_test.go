package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysSince(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DaysNever, DaysSince(now, nil))

	tenDaysAgo := now.AddDate(0, 0, -10)
	assert.Equal(t, 10, DaysSince(now, &tenDaysAgo))

	today := now.Add(-2 * time.Hour)
	assert.Equal(t, 0, DaysSince(now, &today))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DaysNever, DaysUntil(now, nil))

	inFiveDays := now.AddDate(0, 0, 5)
	assert.Equal(t, 5, DaysUntil(now, &inFiveDays))

	// Partial days truncate toward zero.
	in36Hours := now.Add(36 * time.Hour)
	assert.Equal(t, 1, DaysUntil(now, &in36Hours))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 0.55, Clamp01(0.55))
	assert.Equal(t, 1.0, Clamp01(1.05))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, Round2(10.555))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, 99.99, Round2(99.99))
}
