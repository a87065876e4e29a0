package integrations

import "context"

// MemberProfile is the minimal member context handed to the text generator
// when drafting a retention strategy.
type MemberProfile struct {
	Name          string
	RiskScore     float64
	TotalCheckIns int
	LastCheckIn   string // RFC3339 or "Never"
}

// TextGenerator is the boundary interface for LLM-drafted outreach text.
// It is injected into agents; tests and deployments without an LLM use
// CannedTextGenerator.
type TextGenerator interface {
	GenerateRetentionStrategy(ctx context.Context, profile MemberProfile) (string, error)
}

// CannedTextGenerator returns a fixed strategy without calling any provider.
type CannedTextGenerator struct{}

// NewCannedTextGenerator creates a TextGenerator that returns canned text.
func NewCannedTextGenerator() *CannedTextGenerator {
	return &CannedTextGenerator{}
}

func (g *CannedTextGenerator) GenerateRetentionStrategy(_ context.Context, _ MemberProfile) (string, error) {
	return "Generic retention offer: 20% off next month + free personal training session", nil
}
