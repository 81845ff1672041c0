package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

// Product is a book in the catalog. Price and OldPrice are in minor currency
// units (satang); Stock never goes below zero, enforced by the conditional
// decrement inside the order conversion.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	Price       int64     `json:"price" db:"price"`
	OldPrice    *int64    `json:"old_price,omitempty" db:"old_price"`
	Stock       int       `json:"stock" db:"stock"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter narrows the public catalog listing. Search matches title and
// author case-insensitively; Category matches exactly. Empty fields are
// ignored.
type ListFilter struct {
	Search   string
	Category string
}
