package cart

import (
	"fmt"
	"time"

	"github.com/stockline/stockline/internal/shared"
)

// Cart statuses. An active cart is the single open cart for a customer;
// checkout archives it.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Cart is the open order draft for one customer.
type Cart struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Item is one product line inside a cart. Name and UnitPrice are joined in
// from the catalog for presentation.
type Item struct {
	CartID    int64   `json:"-"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"product_name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
}

// View is the cart with its lines, as returned to clients.
type View struct {
	Cart  Cart   `json:"cart"`
	Items []Item `json:"items"`
}

var (
	ErrCartNotFound    = fmt.Errorf("cart %w", shared.ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("cart item %w", shared.ErrNotFound)
	ErrInvalidQuantity = fmt.Errorf("quantity must be positive: %w", shared.ErrValidation)
)
