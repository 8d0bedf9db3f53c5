// Package returns records product returns and posts the restocking movement
// back into the ledger.
package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/platform/db"
	"github.com/stockline/stockline/internal/shared"
)

// Return is one recorded product return.
type Return struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	CustomerID int64     `json:"customer_id,omitempty"`
	Quantity   int64     `json:"quantity"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Input describes a return to record.
type Input struct {
	ProductID  int64
	CustomerID int64
	Quantity   int64
	Reason     string
	ActorID    int64
}

var ErrInvalidQuantity = fmt.Errorf("return quantity must be positive: %w", shared.ErrValidation)

// Service records returns. The return row and the ledger movement land in
// the same transaction.
type Service struct {
	pool  *pgxpool.Pool
	audit *shared.AuditLogger
}

// NewService builds Service.
func NewService(pool *pgxpool.Pool, audit *shared.AuditLogger) *Service {
	return &Service{pool: pool, audit: audit}
}

// Record stores the return and posts a positive 'return' movement.
func (s *Service) Record(ctx context.Context, input Input) (Return, error) {
	if input.Quantity <= 0 {
		return Return{}, ErrInvalidQuantity
	}

	var ret Return
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := inventory.ApplyMovementTx(ctx, tx, input.ProductID, input.Quantity, inventory.MovementReturn); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO product_returns (product_id, customer_id, quantity, reason, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id, product_id, COALESCE(customer_id, 0), quantity, reason, created_at`,
			input.ProductID, nullInt(input.CustomerID), input.Quantity, input.Reason).
			Scan(&ret.ID, &ret.ProductID, &ret.CustomerID, &ret.Quantity, &ret.Reason, &ret.CreatedAt)
	})
	if err != nil {
		return Return{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "returns:recorded",
			Entity:   "product_return",
			EntityID: fmt.Sprintf("%d", ret.ID),
			Meta: map[string]any{
				"product_id": input.ProductID,
				"quantity":   input.Quantity,
			},
		})
	}
	return ret, nil
}

// List returns recorded returns, newest first.
func (s *Service) List(ctx context.Context, productID int64, limit int) ([]Return, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, product_id, COALESCE(customer_id, 0), quantity, reason, created_at FROM product_returns`
	args := []any{}
	if productID != 0 {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := []Return{}
	for rows.Next() {
		var ret Return
		if err := rows.Scan(&ret.ID, &ret.ProductID, &ret.CustomerID, &ret.Quantity, &ret.Reason, &ret.CreatedAt); err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
