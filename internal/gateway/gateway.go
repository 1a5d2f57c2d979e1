package gateway

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the Disabled gateway when no credentials
// were present at process start.
var ErrNotConfigured = errors.New("payment gateway is not configured")

const (
	StatusSucceeded = "succeeded"

	EventPaymentSucceeded = "payment_intent.succeeded"
)

// Intent is a gateway-side handle for an in-progress charge attempt,
// correlated to exactly one order.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Event is a webhook event that passed signature verification.
type Event struct {
	Type     string
	IntentID string
	OrderID  string
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	VerifyEvent(payload []byte, signature string) (*Event, error)
	WebhookEnabled() bool
}

// Disabled is the typed unconfigured variant: every call fails with
// ErrNotConfigured instead of panicking on a half-built client.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, int64, string, map[string]string) (*Intent, error) {
	return nil, ErrNotConfigured
}

func (Disabled) GetIntent(context.Context, string) (*Intent, error) {
	return nil, ErrNotConfigured
}

func (Disabled) VerifyEvent([]byte, string) (*Event, error) {
	return nil, ErrNotConfigured
}

func (Disabled) WebhookEnabled() bool { return false }
