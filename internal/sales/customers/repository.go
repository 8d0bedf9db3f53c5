package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = "id, name, email, phone, address, status, created_at, updated_at"

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates a customer. Duplicate emails map to ErrEmailTaken.
func (r *Repository) Insert(ctx context.Context, c Customer) (Customer, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Address, StatusActive).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, ErrEmailTaken
		}
		return Customer{}, err
	}
	return c, nil
}

// Get returns one customer by id.
func (r *Repository) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Update rewrites the mutable fields of a customer.
func (r *Repository) Update(ctx context.Context, c Customer) (Customer, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE customers SET name = $2, email = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+customerColumns,
		c.ID, c.Name, c.Email, c.Phone, c.Address).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, ErrEmailTaken
		}
		return Customer{}, err
	}
	return c, nil
}

// SetStatus archives or restores a customer.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// List returns a page of customers matching the filter, name-ordered.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Customer, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if !filter.IncludeArchived {
		args = append(args, StatusActive)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf("SELECT %s FROM customers %s ORDER BY name, id LIMIT $%d OFFSET $%d", customerColumns, where, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}
