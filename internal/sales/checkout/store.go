package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/cart"
	"github.com/stockline/stockline/internal/catalog/products"
	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/platform/db"
	"github.com/stockline/stockline/internal/sales"
)

// PgStore runs checkouts against PostgreSQL. The transaction runs at read
// committed: when two checkouts race over the last units, the loser's guarded
// stock UPDATE re-evaluates against the winner's committed row and fails as
// insufficient stock rather than as a serialization abort.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore constructs PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Checkout opens the transaction and hands the tx-scoped unit-of-work to fn.
func (s *PgStore) Checkout(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTxAt(ctx, s.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) ActiveCart(ctx context.Context, customerID int64) (cart.Cart, error) {
	return cart.GetActiveCart(ctx, t.tx, customerID)
}

func (t *pgTx) CartItems(ctx context.Context, cartID int64) ([]cart.Item, error) {
	return cart.ListItems(ctx, t.tx, cartID)
}

func (t *pgTx) ProductState(ctx context.Context, productID int64) (ProductState, error) {
	var status string
	var state ProductState
	err := t.tx.QueryRow(ctx, `
		SELECT p.status, COALESCE(s.quantity, 0)
		FROM products p
		LEFT JOIN stocks s ON s.product_id = p.id
		WHERE p.id = $1`, productID).Scan(&status, &state.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductState{}, ErrProductMissing
	}
	if err != nil {
		return ProductState{}, err
	}
	state.Active = status == products.StatusActive
	return state, nil
}

// InsertPendingTransaction creates the order row with a zero total so its id
// exists before any line is priced.
func (t *pgTx) InsertPendingTransaction(ctx context.Context, customerID, cartID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO transactions (cart_id, customer_id, total_amount, status, created_at) VALUES ($1, $2, 0, $3, NOW()) RETURNING id`, cartID, customerID, sales.StatusPending).Scan(&id)
	return id, err
}

func (t *pgTx) InsertItem(ctx context.Context, item sales.TransactionItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transaction_items (transaction_id, product_id, product_name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.TransactionID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal)
	return err
}

func (t *pgTx) ApplyStockMovement(ctx context.Context, productID, delta int64) error {
	_, err := inventory.ApplyMovementTx(ctx, t.tx, productID, delta, inventory.MovementSale)
	return err
}

func (t *pgTx) FinalizeTransaction(ctx context.Context, transactionID int64, total float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE transactions SET total_amount = $2, status = $3 WHERE id = $1`, transactionID, total, sales.StatusCompleted)
	return err
}

func (t *pgTx) ArchiveCart(ctx context.Context, cartID int64) error {
	return cart.ArchiveCart(ctx, t.tx, cartID)
}
