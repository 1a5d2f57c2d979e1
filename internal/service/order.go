package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshmart/storefront/internal/identity"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/transport"
	"github.com/freshmart/storefront/pkg/logging"
)

const defaultCountry = "India"

type OrderService struct {
	Repo     *repo.GormRepo
	Producer Publisher    // optional
	Index    OrderIndexer // optional
	Topic    string
}

// CreateOrder prices the cart against the current catalog, snapshots the
// products into line items and persists the order. The total is computed
// once here and never recomputed, so later catalog price edits do not
// touch historical orders.
func (svc *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest, ident identity.Identity) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items are required", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
	}

	addr, err := validateShippingAddress(req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	// Owner resolution never fails: explicit value, then session
	// identity, then the guest sentinel.
	userID := strings.TrimSpace(req.User)
	if userID == "" {
		userID = ident.UserID
	}
	if userID == "" {
		userID = models.GuestUserID
	}

	email := identity.NormalizeEmail(req.UserEmail)
	if email == "" {
		email = ident.Email
	}
	if email == "" {
		email = addr.Email
	}
	if email == "" {
		return nil, fmt.Errorf("%w: user email is required", ErrValidation)
	}

	var total float64
	items := make([]models.OrderItem, 0, len(req.Items))

	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s not found", ErrNotFound, it.ProductID)
		}

		product, err := svc.Repo.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product %s not found", ErrNotFound, it.ProductID)
			}
			return nil, err
		}
		if !product.InStock {
			return nil, fmt.Errorf("%w: product %s is out of stock", ErrConflict, product.Name)
		}

		total += product.Price * float64(it.Quantity)
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Unit:      product.Unit,
			Amount:    product.Amount,
			Quantity:  it.Quantity,
			Price:     product.Price,
		})
	}

	method := req.PaymentMethod
	if method != models.PaymentMethodStripe {
		method = models.PaymentMethodCashOnDelivery
	}

	order := &models.Order{
		UserID:          userID,
		UserEmail:       email,
		Items:           items,
		TotalAmount:     total,
		PaymentStatus:   models.PaymentStatusUnpaid,
		PaymentMethod:   method,
		ShippingAddress: *addr,
		Status:          models.OrderStatusPending,
	}

	created, err := svc.Repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	svc.notifyCreated(ctx, created)
	return created, nil
}

func (svc *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := svc.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func (svc *OrderService) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	return svc.Repo.ListOrdersByEmail(ctx, email)
}

func validateShippingAddress(req *transport.ShippingAddressRequest) (*models.ShippingAddress, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: shipping address is required", ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email is required in shipping address", ErrValidation)
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("%w: phone is required in shipping address", ErrValidation)
	}

	for _, f := range []struct{ name, value string }{
		{"street", req.Street},
		{"city", req.City},
		{"state", req.State},
		{"zipCode", req.ZipCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required in shipping address", ErrValidation, f.name)
		}
	}

	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = defaultCountry
	}

	return &models.ShippingAddress{
		Street:  strings.TrimSpace(req.Street),
		City:    strings.TrimSpace(req.City),
		State:   strings.TrimSpace(req.State),
		ZipCode: strings.TrimSpace(req.ZipCode),
		Country: country,
		Email:   identity.NormalizeEmail(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
	}, nil
}

func (svc *OrderService) notifyCreated(ctx context.Context, order *models.Order) {
	l := logging.FromContext(ctx)

	if svc.Producer != nil {
		event := map[string]interface{}{
			"type":        "order_created",
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
