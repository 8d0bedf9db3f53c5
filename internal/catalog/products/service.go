package products

import (
	"context"
	"strings"
)

// RepositoryPort abstracts product persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, input CreateInput) (Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	SetStatus(ctx context.Context, id int64, status string) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter Filter) ([]Product, int, error)
}

// Service manages the catalog.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create adds a product with its opening stock.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	if input.Price < 0 {
		return Product{}, ErrInvalidPrice
	}
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.Insert(ctx, input)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Update rewrites a product's details.
func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	if p.Price < 0 {
		return Product{}, ErrInvalidPrice
	}
	p.Name = strings.TrimSpace(p.Name)
	return s.repo.Update(ctx, p)
}

// Archive hides a product from the catalog. Its stock and history remain.
func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusArchived)
}

// Restore re-activates an archived product.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusActive)
}

// ProductExists reports whether a product can be sold. Satisfies the cart's
// catalog port.
func (s *Service) ProductExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	return s.repo.List(ctx, filter)
}
