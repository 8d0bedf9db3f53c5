// Package users is the admin surface over accounts: listing, role changes
// and activation. Account creation happens through auth signup.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/auth"
	"github.com/stockline/stockline/internal/rbac"
	"github.com/stockline/stockline/internal/shared"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", shared.ErrNotFound)
	ErrInvalidRole  = fmt.Errorf("unknown role: %w", shared.ErrValidation)
)

const userColumns = "id, name, email, password_hash, role, is_active, created_at, updated_at"

// Repository reads and mutates user accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of accounts, newest first.
func (r *Repository) List(ctx context.Context, page, perPage int) ([]auth.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id DESC LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []auth.User{}
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Get returns one account by id.
func (r *Repository) Get(ctx context.Context, id int64) (auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	return u, nil
}

// SetRole changes an account's role.
func (r *Repository) SetRole(ctx context.Context, id int64, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetActive enables or disables an account.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RepositoryPort abstracts account persistence.
type RepositoryPort interface {
	List(ctx context.Context, page, perPage int) ([]auth.User, int, error)
	Get(ctx context.Context, id int64) (auth.User, error)
	SetRole(ctx context.Context, id int64, role string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service enforces admin rules over accounts.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, page, perPage int) ([]auth.User, int, error) {
	return s.repo.List(ctx, page, perPage)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (auth.User, error) {
	return s.repo.Get(ctx, id)
}

// ChangeRole assigns a new role. Only known roles are accepted; tokens
// issued before the change keep the old role until they expire.
func (s *Service) ChangeRole(ctx context.Context, id int64, role string) (auth.User, error) {
	if !rbac.Valid(role) {
		return auth.User{}, ErrInvalidRole
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return auth.User{}, err
	}
	return s.repo.Get(ctx, id)
}

// Activate enables an account.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

// Deactivate disables an account. Existing tokens still resolve until they
// expire but new logins are refused.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
