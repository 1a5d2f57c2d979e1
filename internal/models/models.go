package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"

	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"

	PaymentMethodStripe         = "stripe"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// GuestUserID marks orders placed without an authenticated identity.
const GuestUserID = "guest_default"

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Unit        string    `gorm:"not null;default:pack"     json:"unit"`
	Amount      float64   `gorm:"not null;default:1"        json:"amount"`
	InStock     bool      `gorm:"not null;default:true"     json:"inStock"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OrderItem is a snapshot of a product at order time. Later catalog edits
// must not change it.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey"                json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"  json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"        json:"product"`
	Name      string    `gorm:"not null"                  json:"name"`
	Image     string    `json:"image"`
	Unit      string    `gorm:"not null"                  json:"unit"`
	Amount    float64   `gorm:"not null"                  json:"amount"`
	Quantity  int       `gorm:"not null;check:quantity>0" json:"quantity"`
	Price     float64   `gorm:"not null"                  json:"price"`
}

type ShippingAddress struct {
	Street  string `gorm:"not null"              json:"street"`
	City    string `gorm:"not null"              json:"city"`
	State   string `gorm:"not null"              json:"state"`
	ZipCode string `gorm:"not null"              json:"zipCode"`
	Country string `gorm:"not null"              json:"country"`
	Email   string `gorm:"not null"              json:"email"`
	Phone   string `gorm:"not null"              json:"phone"`
}

type Order struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"              json:"id"`
	UserID                string          `gorm:"index;not null"                    json:"user"`
	UserEmail             string          `gorm:"index;not null"                    json:"userEmail"`
	Items                 []OrderItem     `gorm:"foreignKey:OrderID"                json:"items"`
	TotalAmount           float64         `gorm:"not null"                          json:"totalAmount"`
	PaymentStatus         string          `gorm:"index;not null;default:unpaid"     json:"paymentStatus"`
	PaymentMethod         string          `gorm:"not null;default:cash_on_delivery" json:"paymentMethod"`
	StripePaymentIntentID *string         `gorm:"index"                             json:"stripePaymentIntentId"`
	ShippingAddress       ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	Status                string          `gorm:"index;not null;default:pending"    json:"status"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
