package validation

// Item is a single order line item.
type Item struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty" validate:"required,min=1"`
	UnitPrice float64 `json:"price" validate:"required,gt=0"`
}

// Address is the shipping destination for an order.
type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	Items           []Item  `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress Address `json:"shippingAddress" validate:"required"`
	PaymentMethod   string  `json:"paymentMethod" validate:"required"`
	ItemsPrice      float64 `json:"itemsPrice" validate:"gte=0"`
	TaxPrice        float64 `json:"taxPrice" validate:"gte=0"`
	ShippingPrice   float64 `json:"shippingPrice" validate:"gte=0"`
	TotalPrice      float64 `json:"totalPrice" validate:"required,gt=0"`
}

// PayOrderRequest carries the gateway confirmation for PUT /orders/:id/pay.
type PayOrderRequest struct {
	TransactionID string `json:"id" validate:"required"`
	Status        string `json:"status" validate:"required"`
	UpdateTime    string `json:"update_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PayerEmail    string `json:"email_address"`
}

// PaymentIntentRequest is the payload for POST /orders/create-payment-intent.
// Amount is in major units (e.g. dollars).
type PaymentIntentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CreateProductRequest is the payload for POST /products.
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images" validate:"required,min=1,dive,required"`
}

// UpdateProductRequest carries partial fields for PUT /products/:id.
// Nil pointers mean "leave unchanged"; derived fields are not settable.
type UpdateProductRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1"`
	Description *string   `json:"description" validate:"omitempty,min=1"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Category    *string   `json:"category" validate:"omitempty,min=1"`
	Stock       *int      `json:"stock" validate:"omitempty,gte=0"`
	Images      *[]string `json:"images" validate:"omitempty,min=1,dive,required"`
}

// AddReviewRequest is the payload for POST /products/:id/reviews.
type AddReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}
