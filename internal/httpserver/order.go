package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/identity"
	"github.com/freshmart/storefront/internal/service"
	"github.com/freshmart/storefront/internal/service/search"
	"github.com/freshmart/storefront/internal/transport"
	"github.com/freshmart/storefront/internal/util"
	"github.com/freshmart/storefront/pkg/logging"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Identity *identity.Resolver
	Search   *search.OrderIndex // nil when no search backend is configured
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ident := h.Identity.FromRequest(c.Request())

	order, err := h.Svc.CreateOrder(ctx, req, ident)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("create_order_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("create_order_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrConflict):
			l.Warn("create_order_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("create_order_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create order")
		}
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	orders, err := h.Svc.ListOrdersByEmail(ctx, c.Param("email"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("my_orders_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("my_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch orders")
	}

	return c.JSON(http.StatusOK, orders)
}

// GetOrder is reachable by anyone holding the order id, on purpose: guest
// orders have no identity to match against.
func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 404, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch order")
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) SearchOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.search_orders")

	if h.Search == nil {
		l.Warn("search_orders_error", "status", 503, "reason", "search not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "order search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, orders, err := h.Search.Search(ctx, q, from, limit)
	if err != nil {
		l.Error("search_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search orders")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "orders": orders})
}
