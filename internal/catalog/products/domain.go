// Package products manages the sellable catalog. Creating a product also
// provisions its stock row, so every product has a ledger from day one.
package products

import (
	"fmt"
	"time"

	"github.com/stockline/stockline/internal/shared"
)

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Product is one catalog entry.
type Product struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter narrows product listings.
type Filter struct {
	CategoryID      int64
	Name            string
	IncludeArchived bool
	Page            int
	PerPage         int
}

// CreateInput describes a new product with its opening stock.
type CreateInput struct {
	CategoryID      int64
	Name            string
	Description     string
	Price           float64
	InitialQuantity int64
}

var (
	ErrProductNotFound = fmt.Errorf("product %w", shared.ErrNotFound)
	ErrInvalidPrice    = fmt.Errorf("price must not be negative: %w", shared.ErrValidation)
)
