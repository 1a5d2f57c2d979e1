package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/gateway"
	"github.com/freshmart/storefront/internal/identity"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/transport"
	"github.com/freshmart/storefront/pkg/logging"
)

type PaymentService struct {
	Repo     *repo.GormRepo
	Gateway  gateway.PaymentGateway
	Currency string
	Producer Publisher    // optional
	Index    OrderIndexer // optional
	Topic    string
}

// CreateIntent opens a gateway payment intent for an unpaid order and
// records its reference, replacing any previous one.
func (svc *PaymentService) CreateIntent(ctx context.Context, orderID uuid.UUID, ident identity.Identity) (*transport.CreateIntentResponse, error) {
	order, err := svc.findOwned(ctx, orderID, ident)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: order is already paid", ErrConflict)
	}

	amountMinor := int64(math.Round(order.TotalAmount * 100))
	intent, err := svc.Gateway.CreateIntent(ctx, amountMinor, svc.Currency, map[string]string{
		gateway.MetadataOrderID: order.ID.String(),
		gateway.MetadataUserID:  order.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", ErrDependency, err)
	}

	if err := svc.Repo.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, err
	}

	return &transport.CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// HandleWebhookEvent absorbs a signed gateway event. A bad signature is a
// validation error; everything past verification is absorbed with a log
// line so the gateway never retries against an acknowledged delivery.
func (svc *PaymentService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := svc.Gateway.VerifyEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if event.Type != gateway.EventPaymentSucceeded || event.OrderID == "" {
		return nil
	}

	l := logging.FromContext(ctx)

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		l.Warn("webhook_order_id_invalid", "order_id", event.OrderID)
		return nil
	}

	applied, err := svc.applyPaymentSuccess(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("webhook_order_not_found", "order_id", event.OrderID)
			return nil
		}
		l.Error("webhook_apply_failed", "order_id", event.OrderID, "error", err)
		return nil
	}

	if applied {
		l.Info("order_marked_paid", "order_id", event.OrderID, "intent_id", event.IntentID)
	}
	return nil
}

// Verify is the client-driven poll. When the gateway reports success
// before the webhook landed, it applies the same transition the webhook
// would; both paths race harmlessly over the conditional update.
func (svc *PaymentService) Verify(ctx context.Context, orderID uuid.UUID, ident identity.Identity) (*transport.VerifyResponse, error) {
	order, err := svc.findOwned(ctx, orderID, ident)
	if err != nil {
		return nil, err
	}

	// Cash-on-delivery orders and orders without an intent yet have
	// nothing to ask the gateway about.
	if order.StripePaymentIntentID == nil || *order.StripePaymentIntentID == "" {
		return &transport.VerifyResponse{PaymentStatus: order.PaymentStatus}, nil
	}

	intent, err := svc.Gateway.GetIntent(ctx, *order.StripePaymentIntentID)
	if err != nil {
		logging.FromContext(ctx).Warn("verify_gateway_lookup_failed", "order_id", orderID, "error", err)
		return &transport.VerifyResponse{PaymentStatus: order.PaymentStatus}, nil
	}

	status := order.PaymentStatus
	if intent.Status == gateway.StatusSucceeded && status != models.PaymentStatusPaid {
		if _, err := svc.applyPaymentSuccess(ctx, orderID); err != nil {
			return nil, err
		}
		status = models.PaymentStatusPaid
	}

	return &transport.VerifyResponse{
		PaymentStatus: status,
		StripeStatus:  intent.Status,
	}, nil
}

func (svc *PaymentService) WebhookEnabled() bool {
	return svc.Gateway.WebhookEnabled()
}

func (svc *PaymentService) findOwned(ctx context.Context, orderID uuid.UUID, ident identity.Identity) (*models.Order, error) {
	order, err := svc.Repo.FindOwned(ctx, orderID, ident.UserID, ident.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

// applyPaymentSuccess performs the single unpaid->paid, pending->processing
// transition. Idempotent: only the caller whose conditional update lands
// runs the paid side effects, so racing webhook and poll paths cannot
// double-fire them.
func (svc *PaymentService) applyPaymentSuccess(ctx context.Context, orderID uuid.UUID) (bool, error) {
	applied, err := svc.Repo.MarkPaid(ctx, orderID)
	if err != nil {
		return false, err
	}
	if !applied {
		// Zero rows means already paid or no such order; only the
		// latter is worth surfacing.
		if _, err := svc.Repo.GetOrder(ctx, orderID); err != nil {
			return false, err
		}
		return false, nil
	}

	svc.notifyPaid(ctx, orderID)
	return true, nil
}

func (svc *PaymentService) notifyPaid(ctx context.Context, orderID uuid.UUID) {
	l := logging.FromContext(ctx)

	order, err := svc.Repo.GetOrder(ctx, orderID)
	if err != nil {
		l.Warn("order_reload_failed", "order_id", orderID, "error", err)
		return
	}

	if svc.Producer != nil {
		event := map[string]interface{}{
			"type":        "order_paid",
			"orderID":     order.ID.String(),
			"userEmail":   order.UserEmail,
			"totalAmount": order.TotalAmount,
		}
		if err := svc.Producer.PublishEvent(ctx, svc.Topic, order.ID.String(), event); err != nil {
			l.Warn("order_event_publish_failed", "order_id", order.ID, "error", err)
		}
	}

	if svc.Index != nil {
		if err := svc.Index.IndexOrder(ctx, order); err != nil {
			l.Warn("order_index_failed", "order_id", order.ID, "error", err)
		}
	}
}
