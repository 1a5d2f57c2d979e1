package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/gateway"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/transport"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A second pooled connection would get its own empty in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, inStock bool) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:    name,
		Price:   price,
		Unit:    "kg",
		Amount:  1,
		InStock: inStock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func validAddress() *transport.ShippingAddressRequest {
	return &transport.ShippingAddressRequest{
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		ZipCode: "560001",
		Email:   "Buyer@Example.com",
		Phone:   "+91-9999999999",
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (p *fakePublisher) PublishEvent(_ context.Context, _, _ string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(map[string]interface{}))
	return nil
}

func (p *fakePublisher) countType(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e["type"] == eventType {
			n++
		}
	}
	return n
}

type fakeGateway struct {
	mu sync.Mutex

	intent    *gateway.Intent
	createErr error
	getErr    error
	event     *gateway.Event
	verifyErr error
	enabled   bool

	createCalls  int
	getCalls     int
	lastMetadata map[string]string
}

func (g *fakeGateway) CreateIntent(_ context.Context, _ int64, _ string, metadata map[string]string) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.lastMetadata = metadata
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.intent, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, _ string) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.intent, nil
}

func (g *fakeGateway) VerifyEvent(_ []byte, _ string) (*gateway.Event, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

func (g *fakeGateway) WebhookEnabled() bool { return g.enabled }

func (g *fakeGateway) calls() (create, get int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls, g.getCalls
}

func newOrderService(db *gorm.DB, pub Publisher) *OrderService {
	return &OrderService{
		Repo:     &repo.GormRepo{DB: db},
		Producer: pub,
		Topic:    "order_events",
	}
}

func newPaymentService(db *gorm.DB, gw gateway.PaymentGateway, pub Publisher) *PaymentService {
	return &PaymentService{
		Repo:     &repo.GormRepo{DB: db},
		Gateway:  gw,
		Currency: "inr",
		Producer: pub,
		Topic:    "order_events",
	}
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	return n
}
