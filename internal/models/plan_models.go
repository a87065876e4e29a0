package models

import "time"

// MembershipPlan represents a purchasable membership tier.
type MembershipPlan struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name" db:"name"`
	Description        *string   `json:"description,omitempty" db:"description"`
	Price              float64   `json:"price" db:"price"`
	DurationDays       int       `json:"duration_days" db:"duration_days"` // 30 for monthly, 365 for yearly
	IsActive           bool      `json:"is_active" db:"is_active"`
	Features           *string   `json:"features,omitempty" db:"features"` // JSON string of features
	MaxClassesPerMonth *int      `json:"max_classes_per_month,omitempty" db:"max_classes_per_month"` // null = unlimited
	HasPersonalTrainer bool      `json:"has_personal_trainer" db:"has_personal_trainer"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// PlanDistributionEntry is one row of the active-member-per-plan breakdown
// used by the revenue forecast.
type PlanDistributionEntry struct {
	PlanID  int64   `json:"plan_id"`
	Price   float64 `json:"price"`
	Members int     `json:"members"`
	Revenue float64 `json:"revenue"`
}
