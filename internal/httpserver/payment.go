package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/identity"
	"github.com/freshmart/storefront/internal/service"
	"github.com/freshmart/storefront/internal/transport"
	"github.com/freshmart/storefront/pkg/logging"
)

type PaymentHTTP struct {
	Svc      *service.PaymentService
	Identity *identity.Resolver
}

func (h *PaymentHTTP) CreateIntent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_intent")

	var req transport.CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_intent_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.OrderID == "" {
		l.Warn("create_intent_error", "status", 400, "reason", "order id missing")
		return echo.NewHTTPError(http.StatusBadRequest, "order id is required")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		l.Warn("create_intent_error", "status", 404, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	ident := h.Identity.FromRequest(c.Request())

	resp, err := h.Svc.CreateIntent(ctx, orderID, ident)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("create_intent_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrConflict):
			l.Warn("create_intent_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDependency):
			l.Error("create_intent_error", "status", 502, "order_id", orderID, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
		default:
			l.Error("create_intent_error", "status", 500, "order_id", orderID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create payment intent")
		}
	}

	l.Info("create_intent_success", "order_id", orderID, "intent_id", resp.PaymentIntentID)
	return c.JSON(http.StatusOK, resp)
}

// Webhook needs the raw request body: the signature covers the exact bytes
// the gateway sent, so no bind/parse may run before verification.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	if !h.Svc.WebhookEnabled() {
		l.Warn("webhook_disabled", "reason", "no webhook secret configured")
		return c.JSON(http.StatusOK, transport.WebhookAck{
			Received: true,
			Message:  "webhook disabled - use verify endpoint instead",
		})
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		l.Warn("webhook_error", "status", 400, "reason", "signature missing")
		return echo.NewHTTPError(http.StatusBadRequest, "webhook signature missing")
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		l.Warn("webhook_error", "status", 400, "reason", "unreadable body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.HandleWebhookEvent(ctx, payload, signature); err != nil {
		l.Warn("webhook_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "webhook signature verification failed")
	}

	return c.JSON(http.StatusOK, transport.WebhookAck{Received: true})
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		l.Warn("verify_error", "status", 404, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	ident := h.Identity.FromRequest(c.Request())

	resp, err := h.Svc.Verify(ctx, orderID, ident)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("verify_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("verify_error", "status", 500, "order_id", orderID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify payment")
	}

	return c.JSON(http.StatusOK, resp)
}
