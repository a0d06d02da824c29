package models

import "time"

// Order status values. Transitions between them are governed by the status
// machine in the services package.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusServed    = "served"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment status values. These move independently of the order status.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Payment methods accepted at order time or reported by the gateway.
const (
	MethodCash = "cash"
	MethodCard = "card"
	MethodUPI  = "upi"
)

// Order is the central entity of the platform. Money fields are 2-decimal
// fixed-point values; item rows are an immutable snapshot taken at order time.
type Order struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	OrderNumber  string `json:"order_number"` // R{restaurantId}_{epochMs}_{rand3}, unique per restaurant

	TableID       int64   `json:"table_id"`
	TableNumber   string  `json:"table_number"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	OrderedBy     *string `json:"ordered_by,omitempty"` // role tag of the placing actor
	CaptainID     *int64  `json:"captain_id,omitempty"`

	Items []OrderItem `json:"items"`

	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	PromoCode     *string `json:"promo_code,omitempty"` // snapshot of the applied code
	TaxPercentage float64 `json:"tax_percentage"`
	TaxAmount     float64 `json:"tax_amount"`
	TotalAmount   float64 `json:"total_amount"`

	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	TransactionID *string `json:"transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is one line of the order snapshot. Menu price changes after order
// time must not retroactively change these rows.
type OrderItem struct {
	ID                  int64   `json:"id"`
	OrderID             int64   `json:"order_id"`
	MenuItemID          int64   `json:"menu_item_id"`
	Name                string  `json:"name"`
	Quantity            int     `json:"quantity"`
	UnitPrice           float64 `json:"unit_price"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

// PaymentUpdate carries the fields webhook reconciliation (or refund) is
// allowed to touch. Nil pointers mean "leave unchanged".
type PaymentUpdate struct {
	PaymentStatus string
	TransactionID *string
	PaymentMethod *string
	Status        *string
}

// ActiveStatuses are the statuses shown on staff dashboards.
var ActiveStatuses = []string{StatusPending, StatusPreparing, StatusReady, StatusServed}
