package agents

import (
	"testing"
	"time"

	"fitclub_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestChurnRiskScore(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	daysAgo := func(d int) *time.Time {
		ts := now.AddDate(0, 0, -d)
		return &ts
	}
	daysAhead := func(d int) *time.Time {
		ts := now.AddDate(0, 0, d)
		return &ts
	}

	tests := []struct {
		name   string
		member models.Member
		want   float64
	}{
		{
			name: "engaged member scores zero",
			member: models.Member{
				LastCheckIn:       daysAgo(1),
				TotalCheckIns:     30,
				MembershipEndDate: daysAhead(60),
			},
			want: 0.0,
		},
		{
			name: "never checked in with no end date",
			member: models.Member{
				TotalCheckIns: 0,
			},
			want: 0.7,
		},
		{
			name: "stale and expiring soon",
			member: models.Member{
				LastCheckIn:       daysAgo(10),
				TotalCheckIns:     8,
				MembershipEndDate: daysAhead(5),
			},
			want: 0.65,
		},
		{
			name: "all factors max out and clamp",
			member: models.Member{
				LastCheckIn:       daysAgo(30),
				TotalCheckIns:     2,
				MembershipEndDate: daysAhead(3),
			},
			want: 1.0,
		},
		{
			name: "expiry bonus skipped without end date",
			member: models.Member{
				LastCheckIn:   daysAgo(30),
				TotalCheckIns: 2,
			},
			want: 0.7,
		},
		{
			// DaysUntil yields -1 here, which must not be mistaken for the
			// missing-date sentinel.
			name: "expired yesterday still earns the expiry factor",
			member: models.Member{
				TotalCheckIns:     3,
				MembershipEndDate: daysAgo(1),
			},
			want: 1.0,
		},
		{
			name: "expired days ago earns the expiry factor",
			member: models.Member{
				TotalCheckIns:     3,
				MembershipEndDate: daysAgo(3),
			},
			want: 1.0,
		},
		{
			name: "moderate recency only",
			member: models.Member{
				LastCheckIn:       daysAgo(8),
				TotalCheckIns:     20,
				MembershipEndDate: daysAhead(40),
			},
			want: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ChurnRiskScore(&tt.member, now), 1e-9)
		})
	}
}

func TestRetentionRecommendation(t *testing.T) {
	assert.Equal(t, "URGENT: Immediate personal outreach required", RetentionRecommendation(0.8))
	assert.Equal(t, "URGENT: Immediate personal outreach required", RetentionRecommendation(1.0))
	assert.Equal(t, "HIGH: Send personalized retention offer", RetentionRecommendation(0.7))
	assert.Equal(t, "HIGH: Send personalized retention offer", RetentionRecommendation(0.6))
	assert.Equal(t, "MEDIUM: Automated engagement campaign", RetentionRecommendation(0.59))
	assert.Equal(t, "MEDIUM: Automated engagement campaign", RetentionRecommendation(0.4))
	assert.Equal(t, "LOW: Standard member nurturing", RetentionRecommendation(0.39))
	assert.Equal(t, "LOW: Standard member nurturing", RetentionRecommendation(0.0))
}
