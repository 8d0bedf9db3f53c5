package cart

import (
	"context"
)

// RepositoryPort abstracts cart persistence for the service.
type RepositoryPort interface {
	GetActiveCart(ctx context.Context, customerID int64) (Cart, error)
	CreateCart(ctx context.Context, customerID int64) (Cart, error)
	UpsertItem(ctx context.Context, cartID, productID, quantity int64) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	ListItems(ctx context.Context, cartID int64) ([]Item, error)
	ArchiveCart(ctx context.Context, cartID int64) error
}

// CatalogPort resolves products so only sellable items enter a cart.
type CatalogPort interface {
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

// Service manages the per-customer order draft.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, catalog CatalogPort) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// View returns the customer's active cart with its lines. A customer with no
// open cart gets ErrCartNotFound.
func (s *Service) View(ctx context.Context, customerID int64) (View, error) {
	cart, err := s.repo.GetActiveCart(ctx, customerID)
	if err != nil {
		return View{}, err
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return View{}, err
	}
	if items == nil {
		items = []Item{}
	}
	return View{Cart: cart, Items: items}, nil
}

// AddItem puts quantity units of a product into the customer's active cart,
// opening the cart first if needed. Adding an already-present product
// increments its line.
func (s *Service) AddItem(ctx context.Context, customerID, productID, quantity int64) (View, error) {
	if quantity <= 0 {
		return View{}, ErrInvalidQuantity
	}
	if s.catalog != nil {
		exists, err := s.catalog.ProductExists(ctx, productID)
		if err != nil {
			return View{}, err
		}
		if !exists {
			return View{}, ErrItemNotFound
		}
	}

	cart, err := s.repo.GetActiveCart(ctx, customerID)
	if err == ErrCartNotFound {
		cart, err = s.repo.CreateCart(ctx, customerID)
	}
	if err != nil {
		return View{}, err
	}
	if err := s.repo.UpsertItem(ctx, cart.ID, productID, quantity); err != nil {
		return View{}, err
	}
	return s.View(ctx, customerID)
}

// RemoveItem drops a product line from the customer's active cart.
func (s *Service) RemoveItem(ctx context.Context, customerID, productID int64) (View, error) {
	cart, err := s.repo.GetActiveCart(ctx, customerID)
	if err != nil {
		return View{}, err
	}
	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return View{}, err
	}
	return s.View(ctx, customerID)
}
