package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/stockline/stockline/internal/shared"
)

// MovementType enumerates the causes of a stock quantity change.
type MovementType string

const (
	// MovementInitial records the opening quantity when a stock row is provisioned.
	MovementInitial MovementType = "initial"
	// MovementRestock represents inbound replenishment.
	MovementRestock MovementType = "restock"
	// MovementSale represents an outbound sale reservation.
	MovementSale MovementType = "sale"
	// MovementReturn represents a customer return back into stock.
	MovementReturn MovementType = "return"
	// MovementAdjustment represents a manual correction.
	MovementAdjustment MovementType = "adjustment"
)

// ValidMovementType reports whether t names a known movement type.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementInitial, MovementRestock, MovementSale, MovementReturn, MovementAdjustment:
		return true
	}
	return false
}

// Stock holds the authoritative quantity-on-hand for a product. The quantity
// is maintained incrementally; it is never recomputed from the ledger on the
// read path.
type Stock struct {
	ProductID  int64     `json:"product_id"`
	CategoryID int64     `json:"category_id"`
	Quantity   int64     `json:"quantity"`
	UpdatedAt  time.Time `json:"last_updated"`
}

// Movement is one immutable ledger entry. The sum of all deltas for a
// product equals its current Stock.Quantity.
type Movement struct {
	ID         int64        `json:"id"`
	ProductID  int64        `json:"product_id"`
	Delta      int64        `json:"quantity_change"`
	Type       MovementType `json:"type"`
	OccurredAt time.Time    `json:"timestamp"`
}

// MovementInput describes a request to post a movement.
type MovementInput struct {
	ProductID int64
	Delta     int64
	Type      MovementType
	ActorID   int64
	Key       string
}

// StockFilter filters stock listings.
type StockFilter struct {
	ProductID int64
	Page      int
	PerPage   int
}

// ErrInsufficientStock is returned when a negative delta would drive the
// quantity below zero.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// ErrInvalidQuantity indicates a zero or otherwise unusable delta.
var ErrInvalidQuantity = fmt.Errorf("inventory: quantity %w", shared.ErrValidation)

// ErrInvalidMovementType indicates an unknown movement type.
var ErrInvalidMovementType = fmt.Errorf("inventory: movement type %w", shared.ErrValidation)

// ErrStockNotFound indicates a missing stock row for the product.
var ErrStockNotFound = fmt.Errorf("inventory: stock %w", shared.ErrNotFound)

// ErrStockExists indicates the product already has a stock row.
var ErrStockExists = fmt.Errorf("inventory: stock %w", shared.ErrConflict)
