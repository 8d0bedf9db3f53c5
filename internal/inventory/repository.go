package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/platform/db"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger postings can
// run either standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository persists stock rows and the movement ledger in PostgreSQL.
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx executes the callback inside a read-committed transaction with a
// tx-scoped repository. Read committed lets the guarded quantity UPDATE
// re-check its condition after waiting on a concurrent writer, so the loser
// of a race gets ErrInsufficientStock instead of a serialization abort.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxAt(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{db: tx, pool: r.pool})
	})
}

// ApplyDelta atomically shifts the stock quantity. The non-negative
// invariant is enforced by the UPDATE guard itself, not by a prior read, so
// concurrent writers serialize on the stock row.
func (r *Repository) ApplyDelta(ctx context.Context, productID, delta int64) (Stock, error) {
	return applyDelta(ctx, r.db, productID, delta)
}

// InsertMovement appends one ledger entry.
func (r *Repository) InsertMovement(ctx context.Context, productID, delta int64, typ MovementType) error {
	return insertMovement(ctx, r.db, productID, delta, typ)
}

// InsertStock provisions a stock row for a product.
func (r *Repository) InsertStock(ctx context.Context, stock Stock) error {
	_, err := r.db.Exec(ctx, `INSERT INTO stocks (product_id, category_id, quantity, updated_at)
VALUES ($1,$2,$3,NOW())`, stock.ProductID, stock.CategoryID, stock.Quantity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrStockExists
		}
		return err
	}
	return nil
}

// GetStock returns the stock row for a product.
func (r *Repository) GetStock(ctx context.Context, productID int64) (Stock, error) {
	var s Stock
	err := r.db.QueryRow(ctx, `SELECT product_id, category_id, quantity, updated_at FROM stocks WHERE product_id=$1`, productID).
		Scan(&s.ProductID, &s.CategoryID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrStockNotFound
		}
		return Stock{}, err
	}
	return s, nil
}

// GetStockForUpdate locks and returns the stock row. Only meaningful inside
// a transaction-scoped repository.
func (r *Repository) GetStockForUpdate(ctx context.Context, productID int64) (Stock, error) {
	var s Stock
	err := r.db.QueryRow(ctx, `SELECT product_id, category_id, quantity, updated_at FROM stocks WHERE product_id=$1 FOR UPDATE`, productID).
		Scan(&s.ProductID, &s.CategoryID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrStockNotFound
		}
		return Stock{}, err
	}
	return s, nil
}

// ListStocks returns a page of stock rows, newest products first.
func (r *Repository) ListStocks(ctx context.Context, filter StockFilter) ([]Stock, int, error) {
	where := ""
	args := []interface{}{}
	if filter.ProductID != 0 {
		where = "WHERE product_id = $1"
		args = append(args, filter.ProductID)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM stocks "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	query := fmt.Sprintf("SELECT product_id, category_id, quantity, updated_at FROM stocks %s ORDER BY product_id DESC LIMIT $%d OFFSET $%d", where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stocks := []Stock{}
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ProductID, &s.CategoryID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		stocks = append(stocks, s)
	}
	return stocks, total, rows.Err()
}

// ListLowStock returns products whose quantity is strictly below threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int64) ([]Stock, error) {
	rows, err := r.db.Query(ctx, `SELECT product_id, category_id, quantity, updated_at FROM stocks WHERE quantity < $1 ORDER BY quantity ASC, product_id ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stocks := []Stock{}
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ProductID, &s.CategoryID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// ListMovements returns the ledger entries for a product, oldest first.
func (r *Repository) ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.Query(ctx, `SELECT id, product_id, quantity_change, type, occurred_at FROM stock_movements WHERE product_id=$1 ORDER BY id ASC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Type, &m.OccurredAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ApplyMovementTx posts one movement inside the caller's transaction: the
// guarded quantity update plus the ledger append. The checkout engine uses
// this to keep its reservation atomic with the transaction record.
func ApplyMovementTx(ctx context.Context, q DBTX, productID, delta int64, typ MovementType) (Stock, error) {
	if delta == 0 {
		return Stock{}, ErrInvalidQuantity
	}
	if !ValidMovementType(typ) {
		return Stock{}, ErrInvalidMovementType
	}
	stock, err := applyDelta(ctx, q, productID, delta)
	if err != nil {
		return Stock{}, err
	}
	if err := insertMovement(ctx, q, productID, delta, typ); err != nil {
		return Stock{}, err
	}
	return stock, nil
}

// ProvisionStockTx creates the stock row for a new product and records the
// opening quantity as an initial movement, inside the caller's transaction.
// The catalog uses this so a product and its ledger appear together.
func ProvisionStockTx(ctx context.Context, q DBTX, productID, categoryID, quantity int64) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	_, err := q.Exec(ctx, `INSERT INTO stocks (product_id, category_id, quantity, updated_at)
VALUES ($1,$2,$3,NOW())`, productID, categoryID, quantity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrStockExists
		}
		return err
	}
	return insertMovement(ctx, q, productID, quantity, MovementInitial)
}

func applyDelta(ctx context.Context, q DBTX, productID, delta int64) (Stock, error) {
	var s Stock
	err := q.QueryRow(ctx, `UPDATE stocks
SET quantity = quantity + $2, updated_at = NOW()
WHERE product_id = $1 AND quantity + $2 >= 0
RETURNING product_id, category_id, quantity, updated_at`, productID, delta).
		Scan(&s.ProductID, &s.CategoryID, &s.Quantity, &s.UpdatedAt)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, err
	}
	// Guard rejected the update: distinguish a missing row from an
	// insufficient quantity.
	var exists bool
	if scanErr := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stocks WHERE product_id=$1)`, productID).Scan(&exists); scanErr != nil {
		return Stock{}, scanErr
	}
	if !exists {
		return Stock{}, ErrStockNotFound
	}
	return Stock{}, ErrInsufficientStock
}

func insertMovement(ctx context.Context, q DBTX, productID, delta int64, typ MovementType) error {
	_, err := q.Exec(ctx, `INSERT INTO stock_movements (product_id, quantity_change, type, occurred_at)
VALUES ($1,$2,$3,NOW())`, productID, delta, string(typ))
	return err
}
