package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
)

// DefaultRenewalHorizonDays is how far ahead the renewal campaign looks.
const DefaultRenewalHorizonDays = 30

// monthlyGrowthRate is the assumed growth used by the linear revenue
// projection.
const monthlyGrowthRate = 0.05

// RenewalPriority ranks a member for the renewal campaign, additive capped
// at 1.0: urgency from days until expiry, engagement from check-in volume,
// and a flat loyalty baseline.
func RenewalPriority(member *models.Member, daysUntilExpiry int) float64 {
	priority := 0.0

	if daysUntilExpiry <= 7 {
		priority += 0.4
	} else if daysUntilExpiry <= 14 {
		priority += 0.3
	} else if daysUntilExpiry <= 21 {
		priority += 0.2
	}

	if member.TotalCheckIns > 50 {
		priority += 0.3
	} else if member.TotalCheckIns > 20 {
		priority += 0.2
	}

	// Loyalty baseline. TODO: derive from actual membership duration.
	priority += 0.1

	return Clamp01(priority)
}

// RenewalOffer is a renewal discount proposal for one member.
type RenewalOffer struct {
	BasePrice          float64 `json:"base_price"`
	DiscountPercentage int     `json:"discount_percentage"`
	FinalPrice         float64 `json:"final_price"`
	OfferType          string  `json:"offer_type"`
}

// GenerateRenewalOffer builds the discount offer: 10% for loyal members
// (>50 check-ins), 15% to re-engage inactive ones (<5), full price otherwise.
func GenerateRenewalOffer(basePrice float64, totalCheckIns int) RenewalOffer {
	discount := 0
	offerType := "standard_renewal"
	if totalCheckIns > 50 {
		discount = 10
		offerType = "loyalty_reward"
	} else if totalCheckIns < 5 {
		discount = 15
		offerType = "re_engagement"
	}

	return RenewalOffer{
		BasePrice:          basePrice,
		DiscountPercentage: discount,
		FinalPrice:         Round2(basePrice * (1 - float64(discount)/100)),
		OfferType:          offerType,
	}
}

// ExpiringMembership is one entry of the renewal campaign listing.
type ExpiringMembership struct {
	MemberID         int64        `json:"member_id"`
	PlanName         string       `json:"plan_name"`
	PlanPrice        float64      `json:"plan_price"`
	ExpiryDate       string       `json:"expiry_date"`
	DaysUntilExpiry  int          `json:"days_until_expiry"`
	RenewalPriority  float64      `json:"renewal_priority"`
	RecommendedOffer RenewalOffer `json:"recommended_offer"`
}

// RevenueForecast projects monthly recurring revenue forward.
type RevenueForecast struct {
	CurrentMRR          float64                        `json:"current_mrr"`
	Forecast30Days      float64                        `json:"forecast_30_days"`
	Forecast60Days      float64                        `json:"forecast_60_days"`
	Forecast90Days      float64                        `json:"forecast_90_days"`
	PlanDistribution    []models.PlanDistributionEntry `json:"plan_distribution"`
	ProjectedGrowthRate float64                        `json:"projected_growth_rate"` // percent
}

// ForecastRevenue aggregates the active plan distribution into MRR and a
// linear forward projection: forecast_N = mrr x (1 + rate x N/30). This is
// deliberately not compounding per period.
func ForecastRevenue(distribution []models.PlanDistributionEntry) RevenueForecast {
	currentMRR := 0.0
	for _, entry := range distribution {
		currentMRR += entry.Revenue
	}

	return RevenueForecast{
		CurrentMRR:          Round2(currentMRR),
		Forecast30Days:      Round2(currentMRR * (1 + monthlyGrowthRate)),
		Forecast60Days:      Round2(currentMRR * (1 + monthlyGrowthRate*2)),
		Forecast90Days:      Round2(currentMRR * (1 + monthlyGrowthRate*3)),
		PlanDistribution:    distribution,
		ProjectedGrowthRate: monthlyGrowthRate * 100,
	}
}

// FinancialMetrics are the headline recurring-revenue numbers.
type FinancialMetrics struct {
	MRR                float64   `json:"mrr"`
	ARR                float64   `json:"arr"`
	TotalActiveMembers int       `json:"total_active_members"`
	ARPU               float64   `json:"arpu"`
	CalculatedAt       time.Time `json:"calculated_at"`
}

// PricingRecommendation is a per-plan price adjustment proposal.
type PricingRecommendation struct {
	PlanID           int64             `json:"plan_id"`
	PlanName         string            `json:"plan_name"`
	CurrentPrice     float64           `json:"current_price"`
	RecommendedPrice float64           `json:"recommended_price"`
	Reasoning        string            `json:"reasoning"`
	ExpectedImpact   map[string]string `json:"expected_impact"`
}

// RetryOutreachStrategy is the dunning plan for a member with failed
// payments.
type RetryOutreachStrategy struct {
	MemberID          int64    `json:"member_id"`
	RetryDelayDays    int      `json:"retry_delay_days"`
	MessageTone       string   `json:"message_tone"`
	SuggestedChannels []string `json:"suggested_channels"`
	OfferPaymentPlan  bool     `json:"offer_payment_plan"`
}

// PaymentRetryStrategy escalates outreach with each failed attempt: a
// friendly reminder after the first, urgent wording after the second, and a
// final notice (with a payment plan offer) beyond that.
func PaymentRetryStrategy(memberID int64, failedAttempts int) RetryOutreachStrategy {
	retryDelay := 14
	messageTone := "final_notice"
	if failedAttempts == 1 {
		retryDelay = 3
		messageTone = "friendly_reminder"
	} else if failedAttempts == 2 {
		retryDelay = 7
		messageTone = "urgent_action_needed"
	}

	return RetryOutreachStrategy{
		MemberID:          memberID,
		RetryDelayDays:    retryDelay,
		MessageTone:       messageTone,
		SuggestedChannels: []string{"email", "sms"},
		OfferPaymentPlan:  failedAttempts > 2,
	}
}

// FinancialAgent forecasts revenue and drives renewal and pricing campaigns.
type FinancialAgent struct {
	memberRepo  repositories.MemberRepository
	planRepo    repositories.PlanRepository
	horizonDays int
	now         func() time.Time
}

// NewFinancialAgent creates a FinancialAgent. A non-positive horizon falls
// back to DefaultRenewalHorizonDays.
func NewFinancialAgent(
	memberRepo repositories.MemberRepository,
	planRepo repositories.PlanRepository,
	horizonDays int,
) *FinancialAgent {
	if horizonDays <= 0 {
		horizonDays = DefaultRenewalHorizonDays
	}
	return &FinancialAgent{
		memberRepo:  memberRepo,
		planRepo:    planRepo,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

func (a *FinancialAgent) Name() string { return "financial" }

// Execute runs the full financial analysis.
func (a *FinancialAgent) Execute(ctx context.Context) (map[string]interface{}, error) {
	expiring, err := a.IdentifyExpiringMemberships()
	if err != nil {
		return nil, err
	}

	forecast, err := a.ForecastRevenue()
	if err != nil {
		return nil, err
	}

	pricing, err := a.PricingRecommendations()
	if err != nil {
		return nil, err
	}

	metrics, err := a.CalculateFinancialMetrics()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"expiring_memberships":    expiring,
		"revenue_forecast":        forecast,
		"pricing_recommendations": pricing,
		"financial_metrics":       metrics,
	}, nil
}

// Analyze answers a targeted financial question.
func (a *FinancialAgent) Analyze(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	analysisType, _ := params["type"].(string)
	if analysisType == "" {
		analysisType = "revenue"
	}

	switch analysisType {
	case "revenue":
		forecast, err := a.ForecastRevenue()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"revenue_forecast": forecast}, nil
	case "pricing":
		pricing, err := a.PricingRecommendations()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"pricing_recommendations": pricing}, nil
	case "metrics":
		metrics, err := a.CalculateFinancialMetrics()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"financial_metrics": metrics}, nil
	default:
		return nil, fmt.Errorf("invalid analysis type '%s'", analysisType)
	}
}

// IdentifyExpiringMemberships lists active members whose membership ends
// within the horizon, highest renewal priority first.
func (a *FinancialAgent) IdentifyExpiringMemberships() ([]ExpiringMembership, error) {
	members, err := a.memberRepo.GetActiveMembersWithPlans()
	if err != nil {
		return nil, fmt.Errorf("failed to load active members with plans: %w", err)
	}

	now := a.now()
	expiring := []ExpiringMembership{}
	for i := range members {
		member := &members[i]
		if member.MembershipEndDate == nil || member.MembershipPlan == nil {
			continue
		}
		daysUntilExpiry := DaysUntil(now, member.MembershipEndDate)
		if daysUntilExpiry < 0 || daysUntilExpiry > a.horizonDays {
			continue
		}

		plan := member.MembershipPlan
		expiring = append(expiring, ExpiringMembership{
			MemberID:         member.ID,
			PlanName:         plan.Name,
			PlanPrice:        plan.Price,
			ExpiryDate:       member.MembershipEndDate.Format("2006-01-02"),
			DaysUntilExpiry:  daysUntilExpiry,
			RenewalPriority:  RenewalPriority(member, daysUntilExpiry),
			RecommendedOffer: GenerateRenewalOffer(plan.Price, member.TotalCheckIns),
		})
	}

	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].RenewalPriority > expiring[j].RenewalPriority
	})
	return expiring, nil
}

// ForecastRevenue loads the active plan distribution and projects MRR.
func (a *FinancialAgent) ForecastRevenue() (*RevenueForecast, error) {
	distribution, err := a.planRepo.GetActivePlanDistribution()
	if err != nil {
		return nil, fmt.Errorf("failed to load plan distribution: %w", err)
	}
	forecast := ForecastRevenue(distribution)
	return &forecast, nil
}

// PricingRecommendations proposes a price adjustment per plan.
func (a *FinancialAgent) PricingRecommendations() ([]PricingRecommendation, error) {
	plans, err := a.planRepo.GetPlans(false)
	if err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}

	recommendations := []PricingRecommendation{}
	for _, plan := range plans {
		recommendations = append(recommendations, PricingRecommendation{
			PlanID:           plan.ID,
			PlanName:         plan.Name,
			CurrentPrice:     plan.Price,
			RecommendedPrice: Round2(plan.Price * 1.05),
			Reasoning:        "Market analysis suggests 5% increase opportunity",
			ExpectedImpact: map[string]string{
				"revenue_change":        "+5%",
				"member_retention_risk": "low",
			},
		})
	}
	return recommendations, nil
}

// CalculateFinancialMetrics computes MRR, ARR and ARPU over active members.
func (a *FinancialAgent) CalculateFinancialMetrics() (*FinancialMetrics, error) {
	totalActive, err := a.memberRepo.CountActiveMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}

	mrr, err := a.planRepo.SumActiveMonthlyRevenue()
	if err != nil {
		return nil, fmt.Errorf("failed to sum active monthly revenue: %w", err)
	}

	arpu := 0.0
	if totalActive > 0 {
		arpu = Round2(mrr / float64(totalActive))
	}

	return &FinancialMetrics{
		MRR:                Round2(mrr),
		ARR:                Round2(mrr * 12),
		TotalActiveMembers: totalActive,
		ARPU:               arpu,
		CalculatedAt:       a.now(),
	}, nil
}
