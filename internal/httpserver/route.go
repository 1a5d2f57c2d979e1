package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/my-orders/:email", d.OrderHandler.MyOrders)
	orders.GET("/search", d.OrderHandler.SearchOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	payments := e.Group("/payments")
	payments.POST("/create-intent", d.PaymentHandler.CreateIntent)
	payments.POST("/webhook", d.PaymentHandler.Webhook)
	payments.GET("/verify/:orderId", d.PaymentHandler.Verify)
}
