package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/platform/db"
)

const productColumns = "id, category_id, name, description, price, status, created_at, updated_at"

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates the product and provisions its stock row in one
// transaction. A failed provisioning rolls the product back too.
func (r *Repository) Insert(ctx context.Context, input CreateInput) (Product, error) {
	var p Product
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO products (category_id, name, description, price, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING `+productColumns,
			input.CategoryID, input.Name, input.Description, input.Price, StatusActive).
			Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		return inventory.ProvisionStockTx(ctx, tx, p.ID, p.CategoryID, input.InitialQuantity)
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get returns one product by id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update rewrites the mutable fields of a product.
func (r *Repository) Update(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE products SET category_id = $2, name = $3, description = $4, price = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price).
		Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// SetStatus archives or restores a product.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Exists reports whether an active product with this id exists.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND status = $2)`, id, StatusActive).Scan(&exists)
	return exists, err
}

// List returns a page of products matching the filter, name-ordered.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if !filter.IncludeArchived {
		args = append(args, StatusActive)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name, id LIMIT $%d OFFSET $%d", productColumns, where, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}
