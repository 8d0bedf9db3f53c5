package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository persists carts and cart items in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// GetActiveCart returns the single active cart for a customer.
func GetActiveCart(ctx context.Context, q DBTX, customerID int64) (Cart, error) {
	var cart Cart
	err := q.QueryRow(ctx, `SELECT id, customer_id, status, created_at FROM carts WHERE customer_id = $1 AND status = $2`, customerID, StatusActive).
		Scan(&cart.ID, &cart.CustomerID, &cart.Status, &cart.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrCartNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// GetActiveCart returns the customer's open cart.
func (r *Repository) GetActiveCart(ctx context.Context, customerID int64) (Cart, error) {
	return GetActiveCart(ctx, r.db, customerID)
}

// CreateCart opens a new active cart for the customer.
func (r *Repository) CreateCart(ctx context.Context, customerID int64) (Cart, error) {
	var cart Cart
	err := r.db.QueryRow(ctx, `INSERT INTO carts (customer_id, status, created_at) VALUES ($1, $2, NOW()) RETURNING id, customer_id, status, created_at`, customerID, StatusActive).
		Scan(&cart.ID, &cart.CustomerID, &cart.Status, &cart.CreatedAt)
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// UpsertItem adds a product line or increments the existing one.
func (r *Repository) UpsertItem(ctx context.Context, cartID, productID, quantity int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartID, productID, quantity)
	return err
}

// RemoveItem deletes a product line from the cart.
func (r *Repository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ListItems returns the cart lines joined with catalog name and price,
// usable inside a caller-owned transaction.
func ListItems(ctx context.Context, q DBTX, cartID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT ci.cart_id, ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.CartID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListItems returns the lines of a cart.
func (r *Repository) ListItems(ctx context.Context, cartID int64) ([]Item, error) {
	return ListItems(ctx, r.db, cartID)
}

// ArchiveCart closes the cart, usable inside a caller-owned transaction.
func ArchiveCart(ctx context.Context, q DBTX, cartID int64) error {
	tag, err := q.Exec(ctx, `UPDATE carts SET status = $2 WHERE id = $1 AND status = $3`, cartID, StatusArchived, StatusActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

// ArchiveCart closes the customer's cart.
func (r *Repository) ArchiveCart(ctx context.Context, cartID int64) error {
	return ArchiveCart(ctx, r.db, cartID)
}
