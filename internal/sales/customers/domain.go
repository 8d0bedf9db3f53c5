// Package customers manages the customer directory used by carts and sales.
package customers

import (
	"fmt"
	"time"

	"github.com/stockline/stockline/internal/shared"
)

// Lifecycle states. Archived customers stay referenced by past transactions
// but are hidden from listings and cannot open carts.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Customer is one directory entry.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows customer listings.
type Filter struct {
	Name            string
	IncludeArchived bool
	Page            int
	PerPage         int
}

var (
	ErrCustomerNotFound = fmt.Errorf("customer %w", shared.ErrNotFound)
	ErrEmailTaken       = fmt.Errorf("customer email %w", shared.ErrConflict)
)
