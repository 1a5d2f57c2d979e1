package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	// Metadata keys set on every intent so webhook events can be
	// correlated back to the order.
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe builds the gateway from credentials once at process start.
// Without a secret key there is nothing usable to build, so callers get
// the typed Disabled variant instead.
func NewStripe(secretKey, webhookSecret string) PaymentGateway {
	if secretKey == "" {
		return Disabled{}
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve payment intent %s: %w", id, err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (s *Stripe) VerifyEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: webhook signature verification: %w", err)
	}

	out := &Event{Type: string(event.Type)}
	if out.Type == EventPaymentSucceeded {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: decode payment intent event: %w", err)
		}
		out.IntentID = pi.ID
		out.OrderID = pi.Metadata[MetadataOrderID]
	}
	return out, nil
}

func (s *Stripe) WebhookEnabled() bool { return s.webhookSecret != "" }
