package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/gateway"
	"github.com/freshmart/storefront/internal/identity"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/service"
	"github.com/freshmart/storefront/internal/transport"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
	O  *OrderHTTP
	P  *PaymentHTTP
}

// stubGateway lets handler tests script gateway behavior without the
// service-level fakes.
type stubGateway struct {
	gateway.Disabled

	enabled   bool
	event     *gateway.Event
	verifyErr error
}

func (g *stubGateway) WebhookEnabled() bool { return g.enabled }

func (g *stubGateway) VerifyEvent([]byte, string) (*gateway.Event, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

func newTestEnv(t *testing.T, gw gateway.PaymentGateway) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}))

	gormRepo := &repo.GormRepo{DB: db}
	resolver := &identity.Resolver{JWTSecret: []byte("test-jwt-secret")}

	orderSvc := &service.OrderService{Repo: gormRepo, Topic: "order_events"}
	paymentSvc := &service.PaymentService{Repo: gormRepo, Gateway: gw, Currency: "inr", Topic: "order_events"}

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		O:  &OrderHTTP{Svc: orderSvc, Identity: resolver},
		P:  &PaymentHTTP{Svc: paymentSvc, Identity: resolver},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func httpErrorCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestOrderHTTP_CreateOrder_EmptyItems(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	_, c := env.doJSONRequest(http.MethodPost, "/orders", transport.CreateOrderRequest{
		Items: []transport.CreateOrderItem{},
		ShippingAddress: &transport.ShippingAddressRequest{
			Street: "12 MG Road", City: "Bengaluru", State: "Karnataka",
			ZipCode: "560001", Email: "buyer@example.com", Phone: "+91-9999999999",
		},
	})

	err := env.O.CreateOrder(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErrorCode(t, err))

	var n int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestOrderHTTP_CreateOrder_Success(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	product := &models.Product{Name: "Rice", Price: 50, Unit: "kg", Amount: 5, InStock: true}
	require.NoError(t, env.DB.Create(product).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/orders", transport.CreateOrderRequest{
		Items: []transport.CreateOrderItem{{ProductID: product.ID.String(), Quantity: 2}},
		ShippingAddress: &transport.ShippingAddressRequest{
			Street: "12 MG Road", City: "Bengaluru", State: "Karnataka",
			ZipCode: "560001", Email: "Buyer@Example.com", Phone: "+91-9999999999",
		},
	})

	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100.0, resp.TotalAmount)
	assert.Equal(t, "unpaid", resp.PaymentStatus)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, models.GuestUserID, resp.UserID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Rice", resp.Items[0].Name)
}

func TestOrderHTTP_GetOrder_NotFound(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	_, c := env.doJSONRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := env.O.GetOrder(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httpErrorCode(t, err))
}

func TestOrderHTTP_GetOrder_MalformedID(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	_, c := env.doJSONRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := env.O.GetOrder(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httpErrorCode(t, err))
}

func TestPaymentHTTP_CreateIntent_MissingOrderID(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	_, c := env.doJSONRequest(http.MethodPost, "/payments/create-intent", transport.CreateIntentRequest{})

	err := env.P.CreateIntent(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErrorCode(t, err))
}

func TestPaymentHTTP_CreateIntent_Unconfigured(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	order := &models.Order{
		UserID: models.GuestUserID, UserEmail: "buyer@example.com",
		TotalAmount: 100, PaymentStatus: "unpaid", PaymentMethod: "stripe", Status: "pending",
	}
	require.NoError(t, env.DB.Create(order).Error)

	_, c := env.doJSONRequest(http.MethodPost, "/payments/create-intent", transport.CreateIntentRequest{
		OrderID: order.ID.String(),
	})

	err := env.P.CreateIntent(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, httpErrorCode(t, err))
}

func TestPaymentHTTP_Webhook_DisabledWithoutSecret(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	rec, c := env.doJSONRequest(http.MethodPost, "/payments/webhook", map[string]string{"type": "payment_intent.succeeded"})

	require.NoError(t, env.P.Webhook(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var ack transport.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack.Received)
	assert.Contains(t, ack.Message, "webhook disabled")
}

func TestPaymentHTTP_Webhook_MissingSignature(t *testing.T) {
	env := newTestEnv(t, &stubGateway{enabled: true})

	_, c := env.doJSONRequest(http.MethodPost, "/payments/webhook", map[string]string{"type": "payment_intent.succeeded"})

	err := env.P.Webhook(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErrorCode(t, err))
}

func TestPaymentHTTP_Webhook_SucceededEventMarksPaid(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	order := &models.Order{
		UserID: "user-1", UserEmail: "buyer@example.com",
		TotalAmount: 100, PaymentStatus: "unpaid", PaymentMethod: "stripe", Status: "pending",
	}
	require.NoError(t, env.DB.Create(order).Error)

	gw := &stubGateway{
		enabled: true,
		event: &gateway.Event{
			Type:     gateway.EventPaymentSucceeded,
			IntentID: "pi_123",
			OrderID:  order.ID.String(),
		},
	}
	env.P.Svc = &service.PaymentService{
		Repo: &repo.GormRepo{DB: env.DB}, Gateway: gw, Currency: "inr", Topic: "order_events",
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/payments/webhook", map[string]string{"type": "payment_intent.succeeded"})
	c.Request().Header.Set("Stripe-Signature", "t=1,v1=sig")

	require.NoError(t, env.P.Webhook(c))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := (&repo.GormRepo{DB: env.DB}).GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, stored.Status)
}

func TestPaymentHTTP_Verify_NotFound(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	_, c := env.doJSONRequest(http.MethodGet, "/payments/verify/"+uuid.NewString(), nil)
	c.SetParamNames("orderId")
	c.SetParamValues(uuid.NewString())

	err := env.P.Verify(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httpErrorCode(t, err))
}

func TestPaymentHTTP_Verify_NoIntentReturnsLocalStatus(t *testing.T) {
	env := newTestEnv(t, gateway.Disabled{})

	order := &models.Order{
		UserID: models.GuestUserID, UserEmail: "buyer@example.com",
		TotalAmount: 100, PaymentStatus: "unpaid", PaymentMethod: "cash_on_delivery", Status: "pending",
	}
	require.NoError(t, env.DB.Create(order).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/payments/verify/"+order.ID.String(), nil)
	c.SetParamNames("orderId")
	c.SetParamValues(order.ID.String())

	require.NoError(t, env.P.Verify(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unpaid", resp.PaymentStatus)
	assert.Empty(t, resp.StripeStatus)
}
