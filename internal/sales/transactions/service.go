package transactions

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stockline/stockline/internal/sales"
)

// RepositoryPort abstracts transaction reads.
type RepositoryPort interface {
	List(ctx context.Context, filter sales.TransactionFilter) ([]sales.Transaction, int, error)
	Get(ctx context.Context, id int64) (sales.Transaction, error)
	ListItems(ctx context.Context, transactionID int64) ([]sales.TransactionItem, error)
}

// Detail is a transaction with its lines.
type Detail struct {
	Transaction sales.Transaction       `json:"transaction"`
	Items       []sales.TransactionItem `json:"items"`
}

// Service exposes the sales history.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of transactions.
func (s *Service) List(ctx context.Context, filter sales.TransactionFilter) ([]sales.Transaction, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one transaction with its lines. The header and lines load
// concurrently.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	var (
		tx    sales.Transaction
		items []sales.TransactionItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tx, err = s.repo.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.repo.ListItems(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	if items == nil {
		items = []sales.TransactionItem{}
	}
	return Detail{Transaction: tx, Items: items}, nil
}
