package orders

import "time"

// Order statuses. Transitions only move forward: created -> paid -> delivered.
const (
	StatusCreated   = "created"
	StatusPaid      = "paid"
	StatusDelivered = "delivered"
)

// Item is one order line, priced at the moment of purchase.
type Item struct {
	ProductID string  `dynamodbav:"product_id" json:"productId"`
	Name      string  `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Quantity  int     `dynamodbav:"quantity" json:"qty"`
	UnitPrice float64 `dynamodbav:"unit_price" json:"price"`
}

// Address is the shipping destination captured at creation.
type Address struct {
	Street     string `dynamodbav:"street" json:"street"`
	City       string `dynamodbav:"city" json:"city"`
	PostalCode string `dynamodbav:"postal_code" json:"postalCode"`
	Country    string `dynamodbav:"country" json:"country"`
}

// PaymentResult records the gateway outcome. Set exactly once, at successful
// payment authorization.
type PaymentResult struct {
	TransactionID string    `dynamodbav:"transaction_id" json:"id"`
	Status        string    `dynamodbav:"status" json:"status"`
	SettledAt     time.Time `dynamodbav:"settled_at" json:"update_time"`
	PayerEmail    string    `dynamodbav:"payer_email,omitempty" json:"email_address,omitempty"`
}

// Order is the item stored in the orders table. Items, pricing and shipping
// fields are immutable after creation; only the paid/delivered flags move,
// and only forward.
type Order struct {
	OrderID   string `dynamodbav:"order_id" json:"id"` // PK
	UserID    string `dynamodbav:"user_id" json:"user"`
	UserName  string `dynamodbav:"user_name,omitempty" json:"userName,omitempty"`
	UserEmail string `dynamodbav:"user_email,omitempty" json:"userEmail,omitempty"`

	Items           []Item  `dynamodbav:"items" json:"orderItems"`
	ShippingAddress Address `dynamodbav:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string  `dynamodbav:"payment_method" json:"paymentMethod"`

	ItemsPrice    float64 `dynamodbav:"items_price" json:"itemsPrice"`
	TaxPrice      float64 `dynamodbav:"tax_price" json:"taxPrice"`
	ShippingPrice float64 `dynamodbav:"shipping_price" json:"shippingPrice"`
	TotalPrice    float64 `dynamodbav:"total_price" json:"totalPrice"`

	PaymentResult *PaymentResult `dynamodbav:"payment_result,omitempty" json:"paymentResult,omitempty"`
	IsPaid        bool           `dynamodbav:"is_paid" json:"isPaid"`
	PaidAt        *time.Time     `dynamodbav:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered   bool           `dynamodbav:"is_delivered" json:"isDelivered"`
	DeliveredAt   *time.Time     `dynamodbav:"delivered_at,omitempty" json:"deliveredAt,omitempty"`

	Status    string    `dynamodbav:"status" json:"status"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}

// FulfillmentMessage is the payload sent to the fulfillment queue when an
// order is paid, and consumed by the delivery worker.
type FulfillmentMessage struct {
	OrderID    string  `json:"order_id"`
	UserID     string  `json:"user_id"`
	TotalPrice float64 `json:"total_price"`
}
