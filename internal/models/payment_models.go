package models

import "time"

// PaymentStatus enumerates the payment lifecycle states.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCanceled   PaymentStatus = "canceled"
)

// PaymentMethod enumerates the accepted payment methods.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodOther        PaymentMethod = "other"
)

// MaxPaymentRetries caps the automatic retry path. A payment that has failed
// this many times needs operator intervention.
const MaxPaymentRetries = 5

// Payment represents a member payment. Rows are never deleted; every status
// mutation is recorded in payment_history.
type Payment struct {
	ID       int64         `json:"id"`
	MemberID int64         `json:"member_id" db:"member_id"`
	Amount   float64       `json:"amount" db:"amount"`
	Currency string        `json:"currency" db:"currency"`
	Status   PaymentStatus `json:"status" db:"status"`
	Method   PaymentMethod `json:"payment_method" db:"payment_method"`

	Description   *string `json:"description,omitempty" db:"description"`
	InvoiceNumber *string `json:"invoice_number,omitempty" db:"invoice_number"`

	MembershipPlanID *int64 `json:"membership_plan_id,omitempty" db:"membership_plan_id"`

	// Stripe linkage
	StripePaymentIntentID *string `json:"-" db:"stripe_payment_intent_id"`
	StripeChargeID        *string `json:"-" db:"stripe_charge_id"`

	// Failure tracking
	FailureReason *string    `json:"failure_reason,omitempty" db:"failure_reason"`
	FailureCode   *string    `json:"failure_code,omitempty" db:"failure_code"`
	RetryCount    int        `json:"retry_count" db:"retry_count"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty" db:"next_retry_at"`

	// Optimistic concurrency control. Concurrent transitions on the same
	// payment must not both read the same stale retry_count.
	Version int `json:"-" db:"version"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	PaidAt     *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	RefundedAt *time.Time `json:"refunded_at,omitempty" db:"refunded_at"`
}

// PaymentHistoryEntry is an immutable audit record of a payment mutation.
// Entries are append-only and ordered by creation time.
type PaymentHistoryEntry struct {
	ID             int64     `json:"id"`
	PaymentID      int64     `json:"payment_id" db:"payment_id"`
	EventType      string    `json:"event_type" db:"event_type"` // e.g. "created", "status_changed_to_succeeded", "payment_failed"
	PreviousStatus *string   `json:"previous_status,omitempty" db:"previous_status"`
	NewStatus      *string   `json:"new_status,omitempty" db:"new_status"`
	Metadata       *string   `json:"metadata,omitempty" db:"metadata"` // JSON string for additional data
	Notes          *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
