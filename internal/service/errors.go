package service

import (
	"context"
	"errors"

	"github.com/freshmart/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 400, order/stock state
	ErrDependency = errors.New("dependency") // 502
)

// Publisher pushes domain events to the broker. Best-effort from the
// services' point of view: a publish failure never fails the request.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

// OrderIndexer mirrors order state into the search index.
type OrderIndexer interface {
	IndexOrder(ctx context.Context, order *models.Order) error
}
