package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/freshmart/storefront/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOwned loads an order scoped to a caller identity. A caller matches
// when the order's owner id OR contact email equals the caller's; with no
// identity at all any order id resolves (guest order tracking).
func (r *GormRepo) FindOwned(ctx context.Context, id uuid.UUID, userID, email string) (*models.Order, error) {
	q := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id)

	switch {
	case userID != "" && email != "":
		q = q.Where("user_id = ? OR user_email = ?", userID, email)
	case userID != "":
		q = q.Where("user_id = ?", userID)
	case email != "":
		q = q.Where("user_email = ?", email)
	}

	var order models.Order
	if err := q.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SetPaymentIntent records the gateway intent reference, overwriting any
// previous one. Only the most recent intent is tracked.
func (r *GormRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("stripe_payment_intent_id", intentID).Error
}

// MarkPaid applies the unpaid->paid transition. The WHERE clause on the
// current payment status makes the update a compare-and-set: of any number
// of concurrent callers exactly one observes applied=true.
func (r *GormRepo) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusUnpaid).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusPaid,
			"status":         models.OrderStatusProcessing,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
