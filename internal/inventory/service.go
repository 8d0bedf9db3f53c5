package inventory

import (
	"context"
	"fmt"

	"github.com/stockline/stockline/internal/shared"
)

// DefaultLowStockThreshold is used when the caller does not supply one.
const DefaultLowStockThreshold int64 = 12

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStock(ctx context.Context, productID int64) (Stock, error)
	ListStocks(ctx context.Context, filter StockFilter) ([]Stock, int, error)
	ListLowStock(ctx context.Context, threshold int64) ([]Stock, error)
	ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error)
}

// TxRepository is the transactional slice of the repository used by postings.
type TxRepository interface {
	ApplyDelta(ctx context.Context, productID, delta int64) (Stock, error)
	InsertMovement(ctx context.Context, productID, delta int64, typ MovementType) error
	InsertStock(ctx context.Context, stock Stock) error
	GetStockForUpdate(ctx context.Context, productID int64) (Stock, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CreateStockInput describes a stock provisioning request.
type CreateStockInput struct {
	ProductID  int64
	CategoryID int64
	Quantity   int64
	ActorID    int64
}

// Service maintains the per-product quantity and its movement ledger.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	threshold   int64
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	LowStockThreshold int64
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cfg ServiceConfig) *Service {
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, threshold: threshold}
}

// ApplyMovement atomically shifts the stock quantity and appends the matching
// ledger entry. A negative delta that would drive the quantity below zero
// fails with ErrInsufficientStock and persists nothing.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (Stock, error) {
	if input.ProductID == 0 {
		return Stock{}, fmt.Errorf("inventory: product %w", shared.ErrValidation)
	}
	if input.Delta == 0 {
		return Stock{}, ErrInvalidQuantity
	}
	if !ValidMovementType(input.Type) {
		return Stock{}, ErrInvalidMovementType
	}

	insertedKey := false
	if s.idempotency != nil && input.Key != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.Key, "inventory"); err != nil {
			return Stock{}, err
		}
		insertedKey = true
	}

	var stock Stock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		stock, err = tx.ApplyDelta(ctx, input.ProductID, input.Delta)
		if err != nil {
			return err
		}
		return tx.InsertMovement(ctx, input.ProductID, input.Delta, input.Type)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.Key)
		}
		return Stock{}, err
	}

	s.recordAudit(ctx, input.ActorID, input.Type, input.ProductID, input.Delta, stock.Quantity)
	return stock, nil
}

// CreateStock provisions the stock row for a product and records the opening
// quantity as an initial movement, atomically.
func (s *Service) CreateStock(ctx context.Context, input CreateStockInput) (Stock, error) {
	if input.ProductID == 0 {
		return Stock{}, fmt.Errorf("inventory: product %w", shared.ErrValidation)
	}
	if input.Quantity < 0 {
		return Stock{}, ErrInvalidQuantity
	}

	stock := Stock{ProductID: input.ProductID, CategoryID: input.CategoryID, Quantity: input.Quantity}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertStock(ctx, stock); err != nil {
			return err
		}
		return tx.InsertMovement(ctx, input.ProductID, input.Quantity, MovementInitial)
	})
	if err != nil {
		return Stock{}, err
	}

	s.recordAudit(ctx, input.ActorID, MovementInitial, input.ProductID, input.Quantity, input.Quantity)
	return s.repo.GetStock(ctx, input.ProductID)
}

// AdjustTo sets the absolute quantity for a product, recording the difference
// as a restock (increase) or adjustment (decrease) movement.
func (s *Service) AdjustTo(ctx context.Context, productID, newQuantity, actorID int64) (Stock, error) {
	if productID == 0 {
		return Stock{}, fmt.Errorf("inventory: product %w", shared.ErrValidation)
	}
	if newQuantity < 0 {
		return Stock{}, ErrInvalidQuantity
	}

	var stock Stock
	var delta int64
	typ := MovementAdjustment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetStockForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		delta = newQuantity - current.Quantity
		if delta == 0 {
			stock = current
			return nil
		}
		if delta > 0 {
			typ = MovementRestock
		}
		stock, err = tx.ApplyDelta(ctx, productID, delta)
		if err != nil {
			return err
		}
		return tx.InsertMovement(ctx, productID, delta, typ)
	})
	if err != nil {
		return Stock{}, err
	}

	if delta != 0 {
		s.recordAudit(ctx, actorID, typ, productID, delta, stock.Quantity)
	}
	return stock, nil
}

// Get returns the full stock row for a product.
func (s *Service) Get(ctx context.Context, productID int64) (Stock, error) {
	return s.repo.GetStock(ctx, productID)
}

// GetQuantity returns the current quantity-on-hand for a product.
func (s *Service) GetQuantity(ctx context.Context, productID int64) (int64, error) {
	stock, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	return stock.Quantity, nil
}

// List returns a page of stock rows.
func (s *Service) List(ctx context.Context, filter StockFilter) ([]Stock, int, error) {
	return s.repo.ListStocks(ctx, filter)
}

// ListLowStock returns products strictly below threshold. A non-positive
// threshold falls back to the configured default.
func (s *Service) ListLowStock(ctx context.Context, threshold int64) ([]Stock, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}
	return s.repo.ListLowStock(ctx, threshold)
}

// ListMovements returns the ledger history for a product.
func (s *Service) ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	if _, err := s.repo.GetStock(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, productID, limit)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, typ MovementType, productID, delta, quantity int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   fmt.Sprintf("inventory:%s", typ),
		Entity:   "stock",
		EntityID: fmt.Sprintf("%d", productID),
		Meta: map[string]any{
			"product_id": productID,
			"delta":      delta,
			"quantity":   quantity,
		},
	})
}
