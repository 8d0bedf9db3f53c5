// Package categories manages the product category tree (flat, one level).
package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/shared"
)

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Category groups products.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrCategoryNotFound = fmt.Errorf("category %w", shared.ErrNotFound)
	ErrNameTaken        = fmt.Errorf("category name %w", shared.ErrConflict)
)

// Repository persists categories in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates a category. Duplicate names map to ErrNameTaken.
func (r *Repository) Insert(ctx context.Context, name string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, status, created_at) VALUES ($1, $2, NOW()) RETURNING id, name, status, created_at`, name, StatusActive).
		Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Category{}, ErrNameTaken
		}
		return Category{}, err
	}
	return c, nil
}

// Get returns one category by id.
func (r *Repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, status, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

// Rename changes a category's name.
func (r *Repository) Rename(ctx context.Context, id int64, name string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name, status, created_at`, id, name).
		Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Category{}, ErrNameTaken
		}
		return Category{}, err
	}
	return c, nil
}

// Archive hides a category from listings.
func (r *Repository) Archive(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET status = $2 WHERE id = $1`, id, StatusArchived)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// List returns active categories, name-ordered.
func (r *Repository) List(ctx context.Context, includeArchived bool) ([]Category, error) {
	query := `SELECT id, name, status, created_at FROM categories`
	args := []any{}
	if !includeArchived {
		query += ` WHERE status = $1`
		args = append(args, StatusActive)
	}
	query += ` ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
