package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/integrations"
	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
	"fitclub_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Custom Service Errors for Payment ---
var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrInvalidTransition       = errors.New("invalid payment status transition")
	ErrConcurrentPaymentUpdate = errors.New("payment was modified by a concurrent operation, retry")
	ErrPaymentValidation       = errors.New("payment data validation error")
)

// --- Payment DTOs ---

type CreatePaymentRequest struct {
	MemberID         int64                `json:"member_id" binding:"required"`
	Amount           float64              `json:"amount" binding:"required,gte=0"`
	Method           models.PaymentMethod `json:"payment_method" binding:"required"`
	MembershipPlanID *int64               `json:"membership_plan_id"`
	Description      *string              `json:"description"`
	AutoProcess      bool                 `json:"auto_process"` // Charge the card through the provider immediately
}

type TransitionPaymentRequest struct {
	Status   models.PaymentStatus   `json:"status" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type FailPaymentRequest struct {
	FailureReason string  `json:"failure_reason" binding:"required"`
	FailureCode   *string `json:"failure_code"`
}

// MemberRevenue summarises the succeeded payments of one member.
type MemberRevenue struct {
	TotalRevenue   float64 `json:"total_revenue"`
	PaymentCount   int     `json:"payment_count"`
	AveragePayment float64 `json:"average_payment"`
}

// --- PaymentService Interface ---
type PaymentService interface {
	CreatePayment(req CreatePaymentRequest) (*models.Payment, error)
	GetPayment(paymentID int64) (*models.Payment, error)
	GetMemberPayments(memberID int64, limit int) ([]models.Payment, error)
	GetPaymentHistory(paymentID int64) ([]models.PaymentHistoryEntry, error)
	TransitionPayment(paymentID int64, target models.PaymentStatus, metadata map[string]interface{}) (*models.Payment, error)
	MarkPaymentFailed(paymentID int64, req FailPaymentRequest) (*models.Payment, error)
	GetRetryablePayments(now time.Time) ([]models.Payment, error)
	CalculateMemberRevenue(memberID int64) (*MemberRevenue, error)
}

// --- paymentService Implementation ---
type paymentService struct {
	paymentRepo repositories.PaymentRepository
	memberRepo  repositories.MemberRepository
	cards       integrations.CardProcessor
	db          *sql.DB // For managing transactions
	now         func() time.Time
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	pr repositories.PaymentRepository,
	mr repositories.MemberRepository,
	cards integrations.CardProcessor,
	db *sql.DB,
) PaymentService {
	return &paymentService{
		paymentRepo: pr,
		memberRepo:  mr,
		cards:       cards,
		db:          db,
		now:         time.Now,
	}
}

// canTransition reports whether the payment status graph allows from -> to.
// Cancel is administrative and allowed from every non-canceled state.
func canTransition(from, to models.PaymentStatus) bool {
	if to == models.PaymentCanceled {
		return from != models.PaymentCanceled
	}
	switch from {
	case models.PaymentPending:
		return to == models.PaymentProcessing || to == models.PaymentSucceeded || to == models.PaymentFailed
	case models.PaymentProcessing:
		return to == models.PaymentSucceeded || to == models.PaymentFailed
	case models.PaymentFailed:
		// Non-terminal: a retry moves the payment back into processing.
		return to == models.PaymentProcessing
	case models.PaymentSucceeded:
		return to == models.PaymentRefunded
	default: // refunded, canceled
		return false
	}
}

// applyTransition mutates the payment for the target status and returns the
// history event type. The caller persists the change.
func applyTransition(payment *models.Payment, target models.PaymentStatus, now time.Time) string {
	payment.Status = target
	switch target {
	case models.PaymentSucceeded:
		paidAt := now
		payment.PaidAt = &paidAt
	case models.PaymentRefunded:
		refundedAt := now
		payment.RefundedAt = &refundedAt
	}
	return "status_changed_to_" + string(target)
}

// scheduleRetry increments the retry counter and computes the exponential
// backoff window: 2h, 4h, 8h, 16h, 32h for attempts 1-5. Past the cap no
// further automatic retry is scheduled.
func scheduleRetry(payment *models.Payment, now time.Time) {
	payment.RetryCount++
	if payment.RetryCount > models.MaxPaymentRetries {
		payment.NextRetryAt = nil
		return
	}
	delay := time.Duration(1<<uint(payment.RetryCount)) * time.Hour
	next := now.Add(delay)
	payment.NextRetryAt = &next
}

func encodeMetadata(metadata map[string]interface{}) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding metadata: %v", ErrPaymentValidation, err)
	}
	s := string(raw)
	return &s, nil
}

func statusStr(s models.PaymentStatus) *string {
	v := string(s)
	return &v
}

// CreatePayment creates a payment in pending status. For card payments with
// auto-processing, the Stripe customer and payment intent are created first;
// a provider failure leaves the payment pending rather than surfacing the
// provider error.
func (s *paymentService) CreatePayment(req CreatePaymentRequest) (*models.Payment, error) {
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrPaymentValidation)
	}

	member, err := s.memberRepo.GetMemberByID(req.MemberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to fetch member %d: %w", req.MemberID, err)
	}

	invoiceNumber := uuid.NewString()
	payment := &models.Payment{
		MemberID:         req.MemberID,
		Amount:           req.Amount,
		Currency:         "usd",
		Status:           models.PaymentPending,
		Method:           req.Method,
		Description:      req.Description,
		InvoiceNumber:    &invoiceNumber,
		MembershipPlanID: req.MembershipPlanID,
	}

	// Provider calls happen before the insert transaction so a slow or
	// failing provider never holds a database transaction open.
	if req.Method == models.MethodCard && req.AutoProcess {
		intentID := s.createPaymentIntent(member, payment)
		if intentID != nil {
			payment.StripePaymentIntentID = intentID
			payment.Status = models.PaymentProcessing
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.paymentRepo.CreatePayment(tx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	entry := &models.PaymentHistoryEntry{
		PaymentID: payment.ID,
		EventType: "created",
		NewStatus: statusStr(payment.Status),
	}
	if err := s.paymentRepo.AddHistory(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to record payment history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment creation: %w", err)
	}

	utils.LogInfo("Payment created", map[string]interface{}{
		"payment_id": payment.ID, "member_id": payment.MemberID, "amount": payment.Amount,
	})
	return payment, nil
}

// createPaymentIntent makes sure the member has a Stripe customer and opens a
// payment intent. Returns nil on any provider failure; the error is logged
// and the payment stays pending.
func (s *paymentService) createPaymentIntent(member *models.Member, payment *models.Payment) *string {
	customerID := ""
	if member.StripeCustomerID != nil {
		customerID = *member.StripeCustomerID
	} else {
		email, name := "", ""
		if member.User != nil {
			email, name = member.User.Email, member.User.FullName
		}
		id, err := s.cards.CreateCustomer(email, name, map[string]string{
			"member_id": utils.Int64ToStr(member.ID),
		})
		if err != nil {
			utils.LogError(err, "Failed to create Stripe customer, payment stays pending")
			return nil
		}
		customerID = id
		if err := s.memberRepo.SetStripeCustomerID(s.db, member.ID, customerID); err != nil {
			utils.LogError(err, "Failed to store Stripe customer ID")
		}
	}

	desc := ""
	if payment.Description != nil {
		desc = *payment.Description
	}
	intentID, err := s.cards.CreatePaymentIntent(payment.Amount, payment.Currency, customerID, desc, map[string]string{
		"member_id": utils.Int64ToStr(payment.MemberID),
	})
	if err != nil {
		utils.LogError(err, "Failed to create payment intent, payment stays pending")
		return nil
	}
	return &intentID
}

// GetPayment retrieves a payment by ID.
func (s *paymentService) GetPayment(paymentID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(nil, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}
	return payment, nil
}

// GetMemberPayments retrieves a member's payments, newest first.
func (s *paymentService) GetMemberPayments(memberID int64, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.paymentRepo.GetPaymentsByMember(memberID, limit)
}

// GetPaymentHistory returns the audit trail for a payment.
func (s *paymentService) GetPaymentHistory(paymentID int64) ([]models.PaymentHistoryEntry, error) {
	if _, err := s.GetPayment(paymentID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetHistory(paymentID)
}

// TransitionPayment moves a payment to the target status. The status write
// and the history entry share one transaction; an invalid transition mutates
// nothing and writes no history. A refund goes through the card provider
// first when the payment has a payment intent.
func (s *paymentService) TransitionPayment(paymentID int64, target models.PaymentStatus, metadata map[string]interface{}) (*models.Payment, error) {
	metadataJSON, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	// Pre-check outside the transaction so provider refunds never run for a
	// transition that cannot succeed.
	current, err := s.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}
	if !canTransition(current.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	if target == models.PaymentRefunded && current.StripePaymentIntentID != nil {
		if _, err := s.cards.RefundPaymentIntent(*current.StripePaymentIntentID); err != nil {
			return nil, fmt.Errorf("refund rejected by payment provider: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := s.paymentRepo.GetPaymentByID(tx, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}
	// Re-check against the row read inside the transaction; a concurrent
	// transition may have changed the status since the pre-check.
	if !canTransition(payment.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, payment.Status, target)
	}

	previous := payment.Status
	eventType := applyTransition(payment, target, s.now())

	if err := s.paymentRepo.UpdatePayment(tx, payment, payment.Version); err != nil {
		if errors.Is(err, repositories.ErrUpdateConflict) {
			return nil, ErrConcurrentPaymentUpdate
		}
		return nil, fmt.Errorf("failed to update payment %d: %w", paymentID, err)
	}

	entry := &models.PaymentHistoryEntry{
		PaymentID:      payment.ID,
		EventType:      eventType,
		PreviousStatus: statusStr(previous),
		NewStatus:      statusStr(target),
		Metadata:       metadataJSON,
	}
	if err := s.paymentRepo.AddHistory(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to record payment history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment transition: %w", err)
	}

	utils.LogInfo("Payment status updated", map[string]interface{}{
		"payment_id": payment.ID, "from": string(previous), "to": string(target),
	})
	return payment, nil
}

// MarkPaymentFailed records a payment failure, increments the retry counter
// and schedules the next automatic retry with exponential backoff.
func (s *paymentService) MarkPaymentFailed(paymentID int64, req FailPaymentRequest) (*models.Payment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := s.paymentRepo.GetPaymentByID(tx, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}
	if !canTransition(payment.Status, models.PaymentFailed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, payment.Status, models.PaymentFailed)
	}

	now := s.now()
	previous := payment.Status
	payment.Status = models.PaymentFailed
	payment.FailureReason = &req.FailureReason
	payment.FailureCode = req.FailureCode
	scheduleRetry(payment, now)

	if err := s.paymentRepo.UpdatePayment(tx, payment, payment.Version); err != nil {
		if errors.Is(err, repositories.ErrUpdateConflict) {
			return nil, ErrConcurrentPaymentUpdate
		}
		return nil, fmt.Errorf("failed to update payment %d: %w", paymentID, err)
	}

	metadataJSON, err := encodeMetadata(map[string]interface{}{
		"failure_reason": req.FailureReason,
		"failure_code":   req.FailureCode,
	})
	if err != nil {
		return nil, err
	}
	entry := &models.PaymentHistoryEntry{
		PaymentID:      payment.ID,
		EventType:      "payment_failed",
		PreviousStatus: statusStr(previous),
		NewStatus:      statusStr(models.PaymentFailed),
		Metadata:       metadataJSON,
	}
	if err := s.paymentRepo.AddHistory(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to record payment history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment failure: %w", err)
	}

	utils.LogInfo("Payment failed", map[string]interface{}{
		"payment_id": payment.ID, "attempt": payment.RetryCount, "reason": req.FailureReason,
	})
	return payment, nil
}

// GetRetryablePayments returns failed payments whose retry window has opened,
// earliest first. Payments at the retry cap need operator intervention and
// are excluded.
func (s *paymentService) GetRetryablePayments(now time.Time) ([]models.Payment, error) {
	if now.IsZero() {
		now = s.now()
	}
	return s.paymentRepo.GetRetryablePayments(now)
}

// CalculateMemberRevenue totals a member's succeeded payments.
func (s *paymentService) CalculateMemberRevenue(memberID int64) (*MemberRevenue, error) {
	payments, err := s.paymentRepo.GetSucceededPaymentsByMember(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments for member %d: %w", memberID, err)
	}

	revenue := &MemberRevenue{PaymentCount: len(payments)}
	for _, p := range payments {
		revenue.TotalRevenue += p.Amount
	}
	if revenue.PaymentCount > 0 {
		revenue.AveragePayment = revenue.TotalRevenue / float64(revenue.PaymentCount)
	}
	return revenue, nil
}
