package agents

import (
	"testing"

	"fitclub_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRenewalPriority(t *testing.T) {
	tests := []struct {
		name            string
		totalCheckIns   int
		daysUntilExpiry int
		want            float64
	}{
		{"expiring this week, loyal", 60, 5, 0.8},
		{"expiring this week, casual", 10, 5, 0.5},
		{"two weeks out, regular", 30, 10, 0.6},
		{"three weeks out", 10, 20, 0.3},
		{"beyond urgency window", 10, 25, 0.1},
		{"loyalty baseline only", 0, 30, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member := &models.Member{TotalCheckIns: tt.totalCheckIns}
			assert.InDelta(t, tt.want, RenewalPriority(member, tt.daysUntilExpiry), 1e-9)
		})
	}
}

func TestGenerateRenewalOffer(t *testing.T) {
	t.Run("loyalty reward", func(t *testing.T) {
		offer := GenerateRenewalOffer(99.99, 51)
		assert.Equal(t, 10, offer.DiscountPercentage)
		assert.Equal(t, "loyalty_reward", offer.OfferType)
		assert.Equal(t, 89.99, offer.FinalPrice)
	})

	t.Run("re-engagement", func(t *testing.T) {
		offer := GenerateRenewalOffer(50.0, 4)
		assert.Equal(t, 15, offer.DiscountPercentage)
		assert.Equal(t, "re_engagement", offer.OfferType)
		assert.Equal(t, 42.5, offer.FinalPrice)
	})

	t.Run("standard renewal", func(t *testing.T) {
		offer := GenerateRenewalOffer(75.0, 25)
		assert.Equal(t, 0, offer.DiscountPercentage)
		assert.Equal(t, "standard_renewal", offer.OfferType)
		assert.Equal(t, 75.0, offer.FinalPrice)
	})

	t.Run("boundary at exactly 50 check-ins is standard", func(t *testing.T) {
		offer := GenerateRenewalOffer(75.0, 50)
		assert.Equal(t, "standard_renewal", offer.OfferType)
	})
}

func TestForecastRevenue(t *testing.T) {
	distribution := []models.PlanDistributionEntry{
		{PlanID: 1, Price: 50, Members: 10, Revenue: 500},
		{PlanID: 2, Price: 100, Members: 5, Revenue: 500},
	}

	forecast := ForecastRevenue(distribution)

	assert.Equal(t, 1000.0, forecast.CurrentMRR)
	assert.Equal(t, 1050.0, forecast.Forecast30Days)
	assert.Equal(t, 1100.0, forecast.Forecast60Days)
	assert.Equal(t, 1150.0, forecast.Forecast90Days)
	assert.Equal(t, 5.0, forecast.ProjectedGrowthRate)

	// Growth is linear, not compounding: equal increments per period.
	assert.InDelta(t, forecast.Forecast60Days-forecast.Forecast30Days,
		forecast.Forecast90Days-forecast.Forecast60Days, 1e-9)
}

func TestForecastRevenueEmpty(t *testing.T) {
	forecast := ForecastRevenue(nil)
	assert.Equal(t, 0.0, forecast.CurrentMRR)
	assert.Equal(t, 0.0, forecast.Forecast90Days)
}

func TestPaymentRetryStrategy(t *testing.T) {
	first := PaymentRetryStrategy(7, 1)
	assert.Equal(t, int64(7), first.MemberID)
	assert.Equal(t, 3, first.RetryDelayDays)
	assert.Equal(t, "friendly_reminder", first.MessageTone)
	assert.Equal(t, []string{"email", "sms"}, first.SuggestedChannels)
	assert.False(t, first.OfferPaymentPlan)

	second := PaymentRetryStrategy(7, 2)
	assert.Equal(t, 7, second.RetryDelayDays)
	assert.Equal(t, "urgent_action_needed", second.MessageTone)
	assert.False(t, second.OfferPaymentPlan)

	third := PaymentRetryStrategy(7, 3)
	assert.Equal(t, 14, third.RetryDelayDays)
	assert.Equal(t, "final_notice", third.MessageTone)
	assert.True(t, third.OfferPaymentPlan)
}
