package customers

import (
	"context"
	"strings"
)

// RepositoryPort abstracts customer persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, c Customer) (Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	SetStatus(ctx context.Context, id int64, status string) error
	List(ctx context.Context, filter Filter) ([]Customer, int, error)
}

// Service manages the customer directory.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a customer. Emails are stored lowercased so uniqueness is
// case-insensitive.
func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Name = strings.TrimSpace(c.Name)
	return s.repo.Insert(ctx, c)
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// Update rewrites a customer's details.
func (s *Service) Update(ctx context.Context, c Customer) (Customer, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Name = strings.TrimSpace(c.Name)
	return s.repo.Update(ctx, c)
}

// Archive hides a customer from listings without breaking past transactions.
func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusArchived)
}

// Restore re-activates an archived customer.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusActive)
}

// List returns a page of customers.
func (s *Service) List(ctx context.Context, filter Filter) ([]Customer, int, error) {
	return s.repo.List(ctx, filter)
}
