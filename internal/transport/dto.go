package transport

type CreateOrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ShippingAddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type CreateOrderRequest struct {
	User            string                  `json:"user"`
	UserEmail       string                  `json:"userEmail"`
	Items           []CreateOrderItem       `json:"items"`
	ShippingAddress *ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

type CreateIntentRequest struct {
	OrderID string `json:"orderId"`
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type VerifyResponse struct {
	PaymentStatus string `json:"paymentStatus"`
	StripeStatus  string `json:"stripeStatus,omitempty"`
}

type WebhookAck struct {
	Received bool   `json:"received"`
	Message  string `json:"message,omitempty"`
}
