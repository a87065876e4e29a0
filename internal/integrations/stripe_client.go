package integrations

import (
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"

	"fitclub_backend/pkg/utils"
)

// ErrProviderNotConfigured is returned when a provider client is used without
// credentials. Callers treat it like any other provider failure.
var ErrProviderNotConfigured = errors.New("payment provider not configured")

// ErrProviderFailure wraps any error coming back from the payment provider.
// Provider-specific error types never leave this package.
var ErrProviderFailure = errors.New("payment provider call failed")

// CardProcessor is the boundary interface for the card payment provider.
// Implementations translate provider errors into the local error taxonomy.
type CardProcessor interface {
	CreateCustomer(email, name string, metadata map[string]string) (string, error)
	CreatePaymentIntent(amount float64, currency, customerID, description string, metadata map[string]string) (string, error)
	RefundPaymentIntent(paymentIntentID string) (string, error)
}

// StripeClient implements CardProcessor against the Stripe API.
type StripeClient struct {
	apiKey string
}

// NewStripeClient creates a Stripe-backed card processor. An empty key yields
// a client whose calls all fail with ErrProviderNotConfigured; payment rows
// are still created, they just stay pending.
func NewStripeClient(apiKey string) *StripeClient {
	if apiKey == "" {
		utils.LogInfo("Stripe API key not configured - card processing disabled", nil)
	}
	stripe.Key = apiKey
	return &StripeClient{apiKey: apiKey}
}

// CreateCustomer creates a Stripe customer and returns its ID.
func (c *StripeClient) CreateCustomer(email, name string, metadata map[string]string) (string, error) {
	if c.apiKey == "" {
		return "", ErrProviderNotConfigured
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", translateStripeError("creating customer", err)
	}
	return cust.ID, nil
}

// CreatePaymentIntent creates a payment intent for the given amount (major
// currency units) and returns its ID.
func (c *StripeClient) CreatePaymentIntent(amount float64, currency, customerID, description string, metadata map[string]string) (string, error) {
	if c.apiKey == "" {
		return "", ErrProviderNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(currency),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if description != "" {
		params.Description = stripe.String(description)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", translateStripeError("creating payment intent", err)
	}
	return intent.ID, nil
}

// RefundPaymentIntent refunds the charge behind a payment intent and returns
// the refund ID.
func (c *StripeClient) RefundPaymentIntent(paymentIntentID string) (string, error) {
	if c.apiKey == "" {
		return "", ErrProviderNotConfigured
	}

	r, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	})
	if err != nil {
		return "", translateStripeError("refunding payment intent", err)
	}
	return r.ID, nil
}

// translateStripeError converts *stripe.Error into the local taxonomy so
// engine and service code never sees provider-specific types.
func translateStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		utils.LogError(err, "Stripe error: "+op)
		return fmt.Errorf("%w: %s: %s (code %s)", ErrProviderFailure, op, stripeErr.Msg, stripeErr.Code)
	}
	utils.LogError(err, "Stripe call failed: "+op)
	return fmt.Errorf("%w: %s: %v", ErrProviderFailure, op, err)
}
