package agents

import (
	"context"
	"fmt"
	"time"

	"fitclub_backend/internal/integrations"
	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
	"fitclub_backend/pkg/utils"
)

// DefaultChurnThreshold is the risk score at or above which a member counts
// as at risk.
const DefaultChurnThreshold = 0.7

// fallbackRetentionStrategy is used when the text generator is unavailable.
const fallbackRetentionStrategy = "Generic retention offer: 20% off next month + free personal training session"

// retentionStrategyLimit caps how many at-risk members get generated text per
// run, to bound provider costs.
const retentionStrategyLimit = 5

// ChurnRiskScore computes the churn risk for a member as an additive
// weighted-sum heuristic capped at 1.0:
//   - recency: never checked in or >14 days ago +0.4, >7 days +0.2
//   - frequency: fewer than 5 total check-ins +0.3, fewer than 10 +0.15
//   - expiry proximity (only when an end date is set): <7 days +0.3, <14 +0.15
func ChurnRiskScore(member *models.Member, now time.Time) float64 {
	score := 0.0

	daysSinceCheckIn := DaysSince(now, member.LastCheckIn)
	if daysSinceCheckIn == DaysNever {
		score += 0.4
	} else if daysSinceCheckIn > 14 {
		score += 0.4
	} else if daysSinceCheckIn > 7 {
		score += 0.2
	}

	if member.TotalCheckIns < 5 {
		score += 0.3
	} else if member.TotalCheckIns < 10 {
		score += 0.15
	}

	// Gate on the date being present, not on the computed day count: a
	// membership that expired a day ago yields -1, which collides with the
	// DaysNever sentinel.
	if member.MembershipEndDate != nil {
		daysUntilExpiry := DaysUntil(now, member.MembershipEndDate)
		if daysUntilExpiry < 7 {
			score += 0.3
		} else if daysUntilExpiry < 14 {
			score += 0.15
		}
	}

	return Clamp01(score)
}

// RetentionRecommendation maps a churn risk score to an outreach tier. Tier
// boundaries are inclusive on the lower bound.
func RetentionRecommendation(riskScore float64) string {
	switch {
	case riskScore >= 0.8:
		return "URGENT: Immediate personal outreach required"
	case riskScore >= 0.6:
		return "HIGH: Send personalized retention offer"
	case riskScore >= 0.4:
		return "MEDIUM: Automated engagement campaign"
	default:
		return "LOW: Standard member nurturing"
	}
}

// AtRiskMember is one entry of the at-risk listing.
type AtRiskMember struct {
	MemberID      int64   `json:"member_id"`
	UserID        int64   `json:"user_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	RiskScore     float64 `json:"risk_score"`
	LastCheckIn   *string `json:"last_check_in"`
	TotalCheckIns int     `json:"total_check_ins"`
}

// RetentionStrategy is a drafted outreach plan for one at-risk member.
type RetentionStrategy struct {
	MemberID  int64   `json:"member_id"`
	Strategy  string  `json:"strategy"`
	RiskScore float64 `json:"risk_score"`
	Error     *string `json:"error,omitempty"`
}

// EngagementMetrics summarises gym-wide engagement.
type EngagementMetrics struct {
	TotalActiveMembers  int       `json:"total_active_members"`
	WeeklyActiveMembers int       `json:"weekly_active_members"`
	EngagementRate      float64   `json:"engagement_rate"` // percent, 2dp
	CalculatedAt        time.Time `json:"calculated_at"`
}

// EngagementAgent scores member churn risk and drafts retention outreach.
type EngagementAgent struct {
	memberRepo     repositories.MemberRepository
	textGen        integrations.TextGenerator
	notifier       integrations.Notifier
	churnThreshold float64
	now            func() time.Time
}

// NewEngagementAgent creates an EngagementAgent. Threshold <= 0 falls back to
// DefaultChurnThreshold.
func NewEngagementAgent(
	memberRepo repositories.MemberRepository,
	textGen integrations.TextGenerator,
	notifier integrations.Notifier,
	churnThreshold float64,
) *EngagementAgent {
	if churnThreshold <= 0 {
		churnThreshold = DefaultChurnThreshold
	}
	return &EngagementAgent{
		memberRepo:     memberRepo,
		textGen:        textGen,
		notifier:       notifier,
		churnThreshold: churnThreshold,
		now:            time.Now,
	}
}

func (a *EngagementAgent) Name() string { return "member_engagement" }

// Execute runs the full engagement analysis.
func (a *EngagementAgent) Execute(ctx context.Context) (map[string]interface{}, error) {
	atRisk, err := a.IdentifyAtRiskMembers()
	if err != nil {
		return nil, err
	}

	strategies := a.GenerateRetentionStrategies(ctx, atRisk)

	metrics, err := a.CalculateEngagementMetrics()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"at_risk_members":      atRisk,
		"retention_strategies": strategies,
		"engagement_metrics":   metrics,
		"total_analyzed":       len(atRisk),
	}, nil
}

// Analyze answers a per-member engagement question.
func (a *EngagementAgent) Analyze(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	memberID, ok := int64Param(params, "member_id")
	if !ok {
		return nil, fmt.Errorf("member_id is required")
	}
	return a.AnalyzeMember(memberID)
}

// IdentifyAtRiskMembers scores every active member and returns those at or
// above the churn threshold.
func (a *EngagementAgent) IdentifyAtRiskMembers() ([]AtRiskMember, error) {
	members, err := a.memberRepo.GetActiveMembersWithUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to load active members: %w", err)
	}

	now := a.now()
	atRisk := []AtRiskMember{}
	for i := range members {
		member := &members[i]
		riskScore := ChurnRiskScore(member, now)
		if riskScore < a.churnThreshold {
			continue
		}

		entry := AtRiskMember{
			MemberID:      member.ID,
			UserID:        member.UserID,
			RiskScore:     riskScore,
			TotalCheckIns: member.TotalCheckIns,
		}
		if member.User != nil {
			entry.Name = member.User.FullName
			entry.Email = member.User.Email
		}
		if member.LastCheckIn != nil {
			formatted := member.LastCheckIn.Format(time.RFC3339)
			entry.LastCheckIn = &formatted
		}
		atRisk = append(atRisk, entry)
	}
	return atRisk, nil
}

// GenerateRetentionStrategies drafts outreach text for the top at-risk
// members. A text generator failure degrades to the fallback strategy with
// the error recorded, never a failed run.
func (a *EngagementAgent) GenerateRetentionStrategies(ctx context.Context, atRisk []AtRiskMember) []RetentionStrategy {
	strategies := []RetentionStrategy{}

	limit := len(atRisk)
	if limit > retentionStrategyLimit {
		limit = retentionStrategyLimit
	}

	for _, memberData := range atRisk[:limit] {
		lastCheckIn := "Never"
		if memberData.LastCheckIn != nil {
			lastCheckIn = *memberData.LastCheckIn
		}
		profile := integrations.MemberProfile{
			Name:          memberData.Name,
			RiskScore:     memberData.RiskScore,
			TotalCheckIns: memberData.TotalCheckIns,
			LastCheckIn:   lastCheckIn,
		}

		strategy := RetentionStrategy{
			MemberID:  memberData.MemberID,
			RiskScore: memberData.RiskScore,
		}
		text, err := a.textGen.GenerateRetentionStrategy(ctx, profile)
		if err != nil {
			errMsg := err.Error()
			strategy.Strategy = fallbackRetentionStrategy
			strategy.Error = &errMsg
		} else {
			strategy.Strategy = text
		}

		// Outreach delivery is best effort; the strategy listing is the
		// contract.
		if memberData.Email != "" {
			if err := a.notifier.SendEmail(memberData.Email, "We miss you at the gym", strategy.Strategy); err != nil {
				utils.LogError(err, "Failed to send retention outreach email")
			}
		}
		strategies = append(strategies, strategy)
	}
	return strategies
}

// CalculateEngagementMetrics computes gym-wide weekly engagement.
func (a *EngagementAgent) CalculateEngagementMetrics() (*EngagementMetrics, error) {
	totalActive, err := a.memberRepo.CountActiveMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}

	now := a.now()
	weeklyActive, err := a.memberRepo.CountMembersCheckedInSince(now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count weekly active members: %w", err)
	}

	engagementRate := 0.0
	if totalActive > 0 {
		engagementRate = Round2(float64(weeklyActive) / float64(totalActive) * 100)
	}

	return &EngagementMetrics{
		TotalActiveMembers:  totalActive,
		WeeklyActiveMembers: weeklyActive,
		EngagementRate:      engagementRate,
		CalculatedAt:        now,
	}, nil
}

// AnalyzeMember computes churn risk, insights and a recommendation for one
// member.
func (a *EngagementAgent) AnalyzeMember(memberID int64) (map[string]interface{}, error) {
	member, err := a.memberRepo.GetMemberByID(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load member %d: %w", memberID, err)
	}

	now := a.now()
	churnRisk := ChurnRiskScore(member, now)

	return map[string]interface{}{
		"member_id":      memberID,
		"churn_risk":     churnRisk,
		"insights":       memberInsights(member, now),
		"recommendation": RetentionRecommendation(churnRisk),
	}, nil
}

// memberInsights produces human-readable engagement observations.
func memberInsights(member *models.Member, now time.Time) []string {
	insights := []string{}

	if member.TotalCheckIns < 5 {
		insights = append(insights, "Low engagement: Member has minimal gym visits")
	}

	if daysSince := DaysSince(now, member.LastCheckIn); daysSince != DaysNever && daysSince > 14 {
		insights = append(insights, fmt.Sprintf("Inactive: No visits in %d days", daysSince))
	}

	if member.MembershipEndDate != nil {
		if daysLeft := DaysUntil(now, member.MembershipEndDate); daysLeft < 14 {
			insights = append(insights, fmt.Sprintf("Membership expiring in %d days", daysLeft))
		}
	}

	return insights
}

// int64Param extracts an integer parameter that may arrive as JSON float64,
// int or int64.
func int64Param(params map[string]interface{}, key string) (int64, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
