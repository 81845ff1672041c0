package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

// Line is one pending purchase entry: unique per (user, product).
type Line struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Item is a cart line joined with live product data for display. Stock is the
// product's current quantity-on-hand, not a reservation.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	ImageURL  string    `json:"image_url"`
	Stock     int       `json:"stock"`
	Quantity  int       `json:"quantity"`
}
