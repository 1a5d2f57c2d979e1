package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/freshmart/storefront/internal/models"
)

// The catalog is read-only from this service: products are only looked up
// to price and snapshot order items.
func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
