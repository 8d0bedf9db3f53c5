// Package checkout turns a customer's cart into a completed sales
// transaction, atomically with its stock reservations.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockline/stockline/internal/cart"
	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/sales"
	"github.com/stockline/stockline/internal/shared"
)

var (
	ErrEmptyCart       = fmt.Errorf("cart is empty or %w", shared.ErrNotFound)
	ErrProductMissing  = fmt.Errorf("cart references unknown product: %w", shared.ErrValidation)
	ErrProductInactive = fmt.Errorf("cart references archived product: %w", shared.ErrValidation)
)

// InsufficientStockError names the product that blocked a checkout.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d", e.ProductID, e.Name, e.Requested)
}

// Unwrap lets callers match on the ledger sentinel.
func (e *InsufficientStockError) Unwrap() error {
	return inventory.ErrInsufficientStock
}

// ProductState is the catalog and ledger view of one cart line's product.
type ProductState struct {
	Active   bool
	Quantity int64
}

// Tx is the unit-of-work the engine drives. Every method runs against the
// same database transaction; either the whole checkout lands or none of it.
type Tx interface {
	ActiveCart(ctx context.Context, customerID int64) (cart.Cart, error)
	CartItems(ctx context.Context, cartID int64) ([]cart.Item, error)
	ProductState(ctx context.Context, productID int64) (ProductState, error)
	InsertPendingTransaction(ctx context.Context, customerID, cartID int64) (int64, error)
	InsertItem(ctx context.Context, item sales.TransactionItem) error
	ApplyStockMovement(ctx context.Context, productID, delta int64) error
	FinalizeTransaction(ctx context.Context, transactionID int64, total float64) error
	ArchiveCart(ctx context.Context, cartID int64) error
}

// Store opens the unit-of-work.
type Store interface {
	Checkout(ctx context.Context, fn func(context.Context, Tx) error) error
}

// AuditPort records who checked out what.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts checkout outcomes.
type MetricsPort interface {
	RecordCheckout(outcome string)
}

// Result is what a successful checkout returns.
type Result struct {
	TransactionID int64   `json:"transaction_id"`
	TotalAmount   float64 `json:"total_amount"`
	ItemCount     int     `json:"item_count"`
}

// Engine executes checkouts.
type Engine struct {
	store   Store
	audit   AuditPort
	metrics MetricsPort
	logger  *slog.Logger
}

// NewEngine builds Engine.
func NewEngine(store Store, audit AuditPort, metrics MetricsPort, logger *slog.Logger) *Engine {
	return &Engine{store: store, audit: audit, metrics: metrics, logger: logger}
}

// Checkout converts the customer's active cart into a completed transaction.
// It validates every line, reserves stock by posting sale movements, snapshots
// prices into transaction items and archives the cart, all in one database
// transaction. Any failure rolls the whole attempt back.
func (e *Engine) Checkout(ctx context.Context, customerID int64) (Result, error) {
	var result Result
	err := e.store.Checkout(ctx, func(ctx context.Context, tx Tx) error {
		activeCart, err := tx.ActiveCart(ctx, customerID)
		if err != nil {
			if errors.Is(err, cart.ErrCartNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		items, err := tx.CartItems(ctx, activeCart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		// Read-only validation pass before anything is written.
		for _, item := range items {
			if item.Quantity <= 0 {
				return fmt.Errorf("checkout: line quantity %w", shared.ErrValidation)
			}
			state, err := tx.ProductState(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !state.Active {
				return ErrProductInactive
			}
			if state.Quantity < item.Quantity {
				return &InsufficientStockError{ProductID: item.ProductID, Name: item.Name, Requested: item.Quantity}
			}
		}

		transactionID, err := tx.InsertPendingTransaction(ctx, customerID, activeCart.ID)
		if err != nil {
			return err
		}

		var total float64
		for _, item := range items {
			if err := tx.ApplyStockMovement(ctx, item.ProductID, -item.Quantity); err != nil {
				if errors.Is(err, inventory.ErrStockNotFound) {
					return ErrProductMissing
				}
				if errors.Is(err, inventory.ErrInsufficientStock) {
					return &InsufficientStockError{ProductID: item.ProductID, Name: item.Name, Requested: item.Quantity}
				}
				return err
			}
			lineTotal := item.UnitPrice * float64(item.Quantity)
			if err := tx.InsertItem(ctx, sales.TransactionItem{
				TransactionID: transactionID,
				ProductID:     item.ProductID,
				ProductName:   item.Name,
				UnitPrice:     item.UnitPrice,
				Quantity:      item.Quantity,
				LineTotal:     lineTotal,
			}); err != nil {
				return err
			}
			total += lineTotal
		}

		if err := tx.FinalizeTransaction(ctx, transactionID, total); err != nil {
			return err
		}
		if err := tx.ArchiveCart(ctx, activeCart.ID); err != nil {
			return err
		}

		result = Result{TransactionID: transactionID, TotalAmount: total, ItemCount: len(items)}
		return nil
	})
	if err != nil {
		if e.metrics != nil {
			outcome := "error"
			if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrProductMissing) || errors.Is(err, ErrProductInactive) {
				outcome = "rejected"
			}
			e.metrics.RecordCheckout(outcome)
		}
		return Result{}, err
	}
	if e.metrics != nil {
		e.metrics.RecordCheckout("completed")
	}

	if e.audit != nil {
		_ = e.audit.Record(ctx, shared.AuditLog{
			ActorID:  customerID,
			Action:   "checkout:completed",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", result.TransactionID),
			Meta: map[string]any{
				"customer_id":  customerID,
				"total_amount": result.TotalAmount,
				"item_count":   result.ItemCount,
			},
		})
	}
	if e.logger != nil {
		e.logger.Info("checkout completed",
			slog.Int64("customer_id", customerID),
			slog.Int64("transaction_id", result.TransactionID),
			slog.Float64("total", result.TotalAmount))
	}
	return result, nil
}
