// Package transactions is the read model over completed checkouts. The
// ledger of transactions is append-only: rows are created by checkout and
// never updated or deleted through this API.
package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/sales"
)

// Repository reads transactions and their lines from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of transactions matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter sales.TransactionFilter) ([]sales.Transaction, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		where += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf("SELECT id, cart_id, customer_id, total_amount, status, created_at FROM transactions %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", where, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []sales.Transaction
	for rows.Next() {
		var tx sales.Transaction
		if err := rows.Scan(&tx.ID, &tx.CartID, &tx.CustomerID, &tx.TotalAmount, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, tx)
	}
	return result, total, rows.Err()
}

// Get returns one transaction by id.
func (r *Repository) Get(ctx context.Context, id int64) (sales.Transaction, error) {
	var tx sales.Transaction
	err := r.pool.QueryRow(ctx, `SELECT id, cart_id, customer_id, total_amount, status, created_at FROM transactions WHERE id = $1`, id).
		Scan(&tx.ID, &tx.CartID, &tx.CustomerID, &tx.TotalAmount, &tx.Status, &tx.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sales.Transaction{}, sales.ErrTransactionNotFound
	}
	if err != nil {
		return sales.Transaction{}, err
	}
	return tx, nil
}

// ListItems returns the priced lines of a transaction.
func (r *Repository) ListItems(ctx context.Context, transactionID int64) ([]sales.TransactionItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, transaction_id, product_id, product_name, unit_price, quantity, line_total
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []sales.TransactionItem
	for rows.Next() {
		var item sales.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
