package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type OrderStatus string

const (
	StatusPaid    OrderStatus = "paid"
	StatusShipped OrderStatus = "shipped"
)

func (os OrderStatus) String() string {
	return string(os)
}

// Order is created exactly once per confirmed payment. PaymentIntentID is
// unique; TotalAmount is the confirmed charge in minor currency units.
type Order struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	TotalAmount     int64       `json:"total_amount" db:"total_amount"`
	PaymentIntentID string      `json:"payment_intent_id" db:"payment_intent_id"`
	Status          OrderStatus `json:"status" db:"status"`
	RecipientName   string      `json:"recipient_name" db:"recipient_name"`
	RecipientPhone  string      `json:"recipient_phone" db:"recipient_phone"`
	ShippingAddress string      `json:"shipping_address" db:"shipping_address"`
	TrackingNumber  *string     `json:"tracking_number,omitempty" db:"tracking_number"`
	Lines           []Line      `json:"lines" db:"-"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// Line snapshots one purchased cart line. PriceAtPurchase is immutable and
// decoupled from later product price changes.
type Line struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OrderID         uuid.UUID `json:"order_id" db:"order_id"`
	ProductID       uuid.UUID `json:"product_id" db:"product_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	PriceAtPurchase int64     `json:"price_at_purchase" db:"price_at_purchase"`
	Title           string    `json:"title" db:"-"`
	ImageURL        string    `json:"image_url" db:"-"`
}

// Conversion is the input to the atomic cart-to-order conversion: the
// confirmed payment plus the recipient details captured at intent creation.
type Conversion struct {
	PaymentIntentID string
	UserID          uuid.UUID
	TotalAmount     int64
	RecipientName   string
	RecipientPhone  string
	ShippingAddress string
}

// AdminSummary is one row of the fulfillment listings.
type AdminSummary struct {
	OrderID        uuid.UUID   `json:"order_id"`
	Email          string      `json:"email"`
	TotalAmount    int64       `json:"total_amount"`
	Status         OrderStatus `json:"status"`
	TrackingNumber *string     `json:"tracking_number,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// DashboardSummary aggregates store-wide counters for the admin overview.
type DashboardSummary struct {
	TotalBooks   int64 `json:"total_books"`
	TotalOrders  int64 `json:"total_orders"`
	TotalUsers   int64 `json:"total_users"`
	TotalRevenue int64 `json:"total_revenue"`
}
