package products

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryProductRepo struct {
	products map[int64]Product
	stocks   map[int64]int64
	nextID   int64
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{products: make(map[int64]Product), stocks: make(map[int64]int64)}
}

func (r *memoryProductRepo) Insert(ctx context.Context, input CreateInput) (Product, error) {
	r.nextID++
	p := Product{
		ID:          r.nextID,
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Status:      StatusActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.products[p.ID] = p
	r.stocks[p.ID] = input.InitialQuantity
	return p, nil
}

func (r *memoryProductRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *memoryProductRepo) Update(ctx context.Context, p Product) (Product, error) {
	existing, ok := r.products[p.ID]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	p.Status = existing.Status
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryProductRepo) SetStatus(ctx context.Context, id int64, status string) error {
	p, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Status = status
	r.products[id] = p
	return nil
}

func (r *memoryProductRepo) Exists(ctx context.Context, id int64) (bool, error) {
	p, ok := r.products[id]
	return ok && p.Status == StatusActive, nil
}

func (r *memoryProductRepo) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	var result []Product
	for _, p := range r.products {
		if !filter.IncludeArchived && p.Status != StatusActive {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func TestCreateProvisionsStock(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{CategoryID: 1, Name: "  Widget  ", Price: 9.5, InitialQuantity: 20})
	require.NoError(t, err)
	require.Equal(t, "Widget", p.Name)
	require.EqualValues(t, 20, repo.stocks[p.ID])

	_, err = svc.Create(ctx, CreateInput{CategoryID: 1, Name: "Bad", Price: -1})
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestArchiveHidesProduct(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{CategoryID: 1, Name: "Widget", Price: 5})
	require.NoError(t, err)

	exists, err := svc.ProductExists(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, svc.Archive(ctx, p.ID))

	exists, err = svc.ProductExists(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, exists)

	listed, total, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, listed)

	require.NoError(t, svc.Restore(ctx, p.ID))
	_, total, err = svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	require.ErrorIs(t, svc.Archive(ctx, 999), ErrProductNotFound)
}
