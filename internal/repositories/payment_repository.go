package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/models"
)

// PaymentRepository defines the interface for payment database operations.
// Mutating methods take an SQLExecutor so the status change and its history
// entry can share one transaction.
type PaymentRepository interface {
	CreatePayment(executor SQLExecutor, payment *models.Payment) (int64, error)
	GetPaymentByID(executor SQLExecutor, id int64) (*models.Payment, error)
	GetPaymentsByMember(memberID int64, limit int) ([]models.Payment, error)
	// UpdatePayment writes the payment row conditionally on expectedVersion
	// and bumps the version column. Returns ErrUpdateConflict if another
	// transaction got there first.
	UpdatePayment(executor SQLExecutor, payment *models.Payment, expectedVersion int) error
	AddHistory(executor SQLExecutor, entry *models.PaymentHistoryEntry) error
	GetHistory(paymentID int64) ([]models.PaymentHistoryEntry, error)
	GetRetryablePayments(now time.Time) ([]models.Payment, error)
	GetSucceededPaymentsByMember(memberID int64) ([]models.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, member_id, amount, currency, status, payment_method,
	description, invoice_number, membership_plan_id,
	stripe_payment_intent_id, stripe_charge_id,
	failure_reason, failure_code, retry_count, next_retry_at, version,
	created_at, updated_at, paid_at, refunded_at`

func scanPayment(s scanner, p *models.Payment) error {
	var planID sql.NullInt64
	var nextRetry, paidAt, refundedAt sql.NullTime
	err := s.Scan(
		&p.ID, &p.MemberID, &p.Amount, &p.Currency, &p.Status, &p.Method,
		&p.Description, &p.InvoiceNumber, &planID,
		&p.StripePaymentIntentID, &p.StripeChargeID,
		&p.FailureReason, &p.FailureCode, &p.RetryCount, &nextRetry, &p.Version,
		&p.CreatedAt, &p.UpdatedAt, &paidAt, &refundedAt,
	)
	if err != nil {
		return err
	}
	if planID.Valid {
		p.MembershipPlanID = &planID.Int64
	}
	if nextRetry.Valid {
		p.NextRetryAt = &nextRetry.Time
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if refundedAt.Valid {
		p.RefundedAt = &refundedAt.Time
	}
	return nil
}

// CreatePayment inserts a new payment row in its initial status.
func (r *paymentRepository) CreatePayment(executor SQLExecutor, payment *models.Payment) (int64, error) {
	query := `INSERT INTO payments (member_id, amount, currency, status, payment_method,
	            description, invoice_number, membership_plan_id,
	            stripe_payment_intent_id, retry_count, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	currentTime := time.Now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = currentTime
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = currentTime
	}
	if payment.Version == 0 {
		payment.Version = 1
	}

	var planID sql.NullInt64
	if payment.MembershipPlanID != nil {
		planID = sql.NullInt64{Int64: *payment.MembershipPlanID, Valid: true}
	}

	err := executor.QueryRow(query,
		payment.MemberID, payment.Amount, payment.Currency, payment.Status, payment.Method,
		payment.Description, payment.InvoiceNumber, planID,
		payment.StripePaymentIntentID, payment.RetryCount, payment.Version, payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating payment: %v", ErrDatabaseError, err)
	}
	return payment.ID, nil
}

// GetPaymentByID retrieves a payment by ID through the given executor, so it
// can participate in a transaction (SELECT ... FOR UPDATE is not needed; the
// version check in UpdatePayment handles concurrent writers).
func (r *paymentRepository) GetPaymentByID(executor SQLExecutor, id int64) (*models.Payment, error) {
	if executor == nil {
		executor = r.db
	}
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	err := scanPayment(executor.QueryRow(query, id), payment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payment by ID %d: %v", ErrDatabaseError, id, err)
	}
	return payment, nil
}

// GetPaymentsByMember retrieves a member's payments, newest first.
func (r *paymentRepository) GetPaymentsByMember(memberID int64, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE member_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.queryPayments(query, memberID, limit)
}

// UpdatePayment writes all mutable payment fields, guarded by the version
// column. rowsAffected == 0 means either the row is gone or a concurrent
// transition won; callers distinguish via a follow-up read.
func (r *paymentRepository) UpdatePayment(executor SQLExecutor, payment *models.Payment, expectedVersion int) error {
	query := `UPDATE payments SET
	            status = $1, failure_reason = $2, failure_code = $3, retry_count = $4, next_retry_at = $5,
	            stripe_payment_intent_id = $6, stripe_charge_id = $7,
	            paid_at = $8, refunded_at = $9, updated_at = $10, version = version + 1
	          WHERE id = $11 AND version = $12`

	payment.UpdatedAt = time.Now()

	var nextRetry, paidAt, refundedAt sql.NullTime
	if payment.NextRetryAt != nil {
		nextRetry = sql.NullTime{Time: *payment.NextRetryAt, Valid: true}
	}
	if payment.PaidAt != nil {
		paidAt = sql.NullTime{Time: *payment.PaidAt, Valid: true}
	}
	if payment.RefundedAt != nil {
		refundedAt = sql.NullTime{Time: *payment.RefundedAt, Valid: true}
	}

	result, err := executor.Exec(query,
		payment.Status, payment.FailureReason, payment.FailureCode, payment.RetryCount, nextRetry,
		payment.StripePaymentIntentID, payment.StripeChargeID,
		paidAt, refundedAt, payment.UpdatedAt, payment.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("%w: updating payment ID %d: %v", ErrDatabaseError, payment.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating payment ID %d: %v", ErrDatabaseError, payment.ID, err)
	}
	if rowsAffected == 0 {
		return ErrUpdateConflict
	}
	payment.Version = expectedVersion + 1
	return nil
}

// AddHistory appends an immutable payment history entry.
func (r *paymentRepository) AddHistory(executor SQLExecutor, entry *models.PaymentHistoryEntry) error {
	query := `INSERT INTO payment_history (payment_id, event_type, previous_status, new_status, metadata, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		entry.PaymentID, entry.EventType, entry.PreviousStatus, entry.NewStatus,
		entry.Metadata, entry.Notes, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("%w: adding payment history for payment ID %d: %v", ErrDatabaseError, entry.PaymentID, err)
	}
	return nil
}

// GetHistory returns the audit trail for a payment in creation order.
func (r *paymentRepository) GetHistory(paymentID int64) ([]models.PaymentHistoryEntry, error) {
	query := `SELECT id, payment_id, event_type, previous_status, new_status, metadata, notes, created_at
	          FROM payment_history WHERE payment_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payment history: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.PaymentHistoryEntry{}
	for rows.Next() {
		var e models.PaymentHistoryEntry
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.EventType, &e.PreviousStatus, &e.NewStatus, &e.Metadata, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning payment history entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment history rows: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

// GetRetryablePayments returns failed payments whose retry window has opened,
// earliest retry first. Payments at the retry cap are excluded.
func (r *paymentRepository) GetRetryablePayments(now time.Time) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
	          FROM payments
	          WHERE status = $1 AND retry_count < $2 AND next_retry_at IS NOT NULL AND next_retry_at <= $3
	          ORDER BY next_retry_at ASC`
	return r.queryPayments(query, models.PaymentFailed, models.MaxPaymentRetries, now)
}

// GetSucceededPaymentsByMember returns every succeeded payment for a member.
func (r *paymentRepository) GetSucceededPaymentsByMember(memberID int64) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE member_id = $1 AND status = $2 ORDER BY created_at ASC`
	return r.queryPayments(query, memberID, models.PaymentSucceeded)
}

func (r *paymentRepository) queryPayments(query string, args ...interface{}) ([]models.Payment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, nil
}
