package models

import "time"

// MembershipStatus enumerates the lifecycle states of a membership.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
	MembershipSuspended MembershipStatus = "suspended"
)

// Member represents a gym member profile linked to a user account.
// Membership status is not auto-expired by the system: an active member may
// have an end date in the past until staff or a job updates it.
type Member struct {
	ID                  int64            `json:"id"`
	UserID              int64            `json:"user_id" db:"user_id"`
	MembershipPlanID    *int64           `json:"membership_plan_id,omitempty" db:"membership_plan_id"`
	MembershipStatus    MembershipStatus `json:"membership_status" db:"membership_status"`
	MembershipStartDate *time.Time       `json:"membership_start_date,omitempty" db:"membership_start_date"`
	MembershipEndDate   *time.Time       `json:"membership_end_date,omitempty" db:"membership_end_date"`

	// Personal information
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender                *string    `json:"gender,omitempty" db:"gender"`
	Address               *string    `json:"address,omitempty" db:"address"`
	EmergencyContactName  *string    `json:"emergency_contact_name,omitempty" db:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone,omitempty" db:"emergency_contact_phone"`

	// Fitness information
	FitnessGoals         *string `json:"fitness_goals,omitempty" db:"fitness_goals"`
	MedicalConditions    *string `json:"medical_conditions,omitempty" db:"medical_conditions"`
	PreferredWorkoutTime *string `json:"preferred_workout_time,omitempty" db:"preferred_workout_time"`

	// QR code used at the front desk for check-in
	QRCode *string `json:"qr_code,omitempty" db:"qr_code"`

	// Stripe linkage for card payments
	StripeCustomerID *string `json:"-" db:"stripe_customer_id"`

	// Engagement tracking
	TotalCheckIns int        `json:"total_check_ins" db:"total_check_ins"`
	LastCheckIn   *time.Time `json:"last_check_in,omitempty" db:"last_check_in"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	User           *User           `json:"user,omitempty"`            // For joining with User
	MembershipPlan *MembershipPlan `json:"membership_plan,omitempty"` // For joining with MembershipPlan
}

// CheckIn records a single gym visit.
type CheckIn struct {
	ID           int64      `json:"id"`
	MemberID     int64      `json:"member_id" db:"member_id"`
	CheckInTime  time.Time  `json:"check_in_time" db:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty" db:"check_out_time"`
	Method       *string    `json:"method,omitempty" db:"method"` // qr_code, manual, biometric
	Notes        *string    `json:"notes,omitempty" db:"notes"`
}
