package services

import (
	"testing"
	"time"

	"fitclub_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to models.PaymentStatus }{
		{models.PaymentPending, models.PaymentProcessing},
		{models.PaymentPending, models.PaymentSucceeded},
		{models.PaymentPending, models.PaymentFailed},
		{models.PaymentPending, models.PaymentCanceled},
		{models.PaymentProcessing, models.PaymentSucceeded},
		{models.PaymentProcessing, models.PaymentFailed},
		{models.PaymentProcessing, models.PaymentCanceled},
		{models.PaymentFailed, models.PaymentProcessing},
		{models.PaymentFailed, models.PaymentCanceled},
		{models.PaymentSucceeded, models.PaymentRefunded},
		{models.PaymentSucceeded, models.PaymentCanceled},
		{models.PaymentRefunded, models.PaymentCanceled},
	}
	for _, tt := range allowed {
		assert.True(t, canTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to models.PaymentStatus }{
		{models.PaymentPending, models.PaymentRefunded},
		{models.PaymentProcessing, models.PaymentPending},
		{models.PaymentFailed, models.PaymentSucceeded},
		{models.PaymentFailed, models.PaymentRefunded},
		{models.PaymentSucceeded, models.PaymentProcessing},
		{models.PaymentSucceeded, models.PaymentPending},
		{models.PaymentRefunded, models.PaymentProcessing},
		{models.PaymentRefunded, models.PaymentSucceeded},
		{models.PaymentCanceled, models.PaymentCanceled},
		{models.PaymentCanceled, models.PaymentProcessing},
		{models.PaymentCanceled, models.PaymentSucceeded},
	}
	for _, tt := range denied {
		assert.False(t, canTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestApplyTransition(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("succeeded stamps paid_at", func(t *testing.T) {
		payment := &models.Payment{Status: models.PaymentProcessing}
		event := applyTransition(payment, models.PaymentSucceeded, now)

		assert.Equal(t, models.PaymentSucceeded, payment.Status)
		require.NotNil(t, payment.PaidAt)
		assert.Equal(t, now, *payment.PaidAt)
		assert.Nil(t, payment.RefundedAt)
		assert.Equal(t, "status_changed_to_succeeded", event)
	})

	t.Run("refunded stamps refunded_at", func(t *testing.T) {
		paidAt := now.AddDate(0, 0, -30)
		payment := &models.Payment{Status: models.PaymentSucceeded, PaidAt: &paidAt}
		event := applyTransition(payment, models.PaymentRefunded, now)

		assert.Equal(t, models.PaymentRefunded, payment.Status)
		require.NotNil(t, payment.RefundedAt)
		assert.Equal(t, now, *payment.RefundedAt)
		assert.Equal(t, &paidAt, payment.PaidAt)
		assert.Equal(t, "status_changed_to_refunded", event)
	})

	t.Run("other targets only change status", func(t *testing.T) {
		payment := &models.Payment{Status: models.PaymentPending}
		event := applyTransition(payment, models.PaymentProcessing, now)

		assert.Equal(t, models.PaymentProcessing, payment.Status)
		assert.Nil(t, payment.PaidAt)
		assert.Nil(t, payment.RefundedAt)
		assert.Equal(t, "status_changed_to_processing", event)
	})
}

func TestScheduleRetry(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("backoff doubles per attempt", func(t *testing.T) {
		payment := &models.Payment{Status: models.PaymentFailed}
		wantDelays := []time.Duration{
			2 * time.Hour, 4 * time.Hour, 8 * time.Hour, 16 * time.Hour, 32 * time.Hour,
		}
		for i, want := range wantDelays {
			scheduleRetry(payment, now)
			assert.Equal(t, i+1, payment.RetryCount)
			require.NotNil(t, payment.NextRetryAt, "attempt %d should schedule a retry", i+1)
			assert.Equal(t, now.Add(want), *payment.NextRetryAt)
		}
	})

	t.Run("no retry past the cap", func(t *testing.T) {
		payment := &models.Payment{Status: models.PaymentFailed, RetryCount: models.MaxPaymentRetries}
		scheduleRetry(payment, now)

		assert.Equal(t, models.MaxPaymentRetries+1, payment.RetryCount)
		assert.Nil(t, payment.NextRetryAt)
	})

	t.Run("resumes from existing count", func(t *testing.T) {
		payment := &models.Payment{Status: models.PaymentFailed, RetryCount: 2}
		scheduleRetry(payment, now)

		assert.Equal(t, 3, payment.RetryCount)
		require.NotNil(t, payment.NextRetryAt)
		assert.Equal(t, now.Add(8*time.Hour), *payment.NextRetryAt)
	})
}

func TestEncodeMetadata(t *testing.T) {
	t.Run("empty map encodes to nil", func(t *testing.T) {
		got, err := encodeMetadata(nil)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = encodeMetadata(map[string]interface{}{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("round trips as JSON", func(t *testing.T) {
		got, err := encodeMetadata(map[string]interface{}{"source": "webhook"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.JSONEq(t, `{"source":"webhook"}`, *got)
	})
}
