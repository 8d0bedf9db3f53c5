package cart

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCartRepo struct {
	carts  map[int64]Cart
	items  map[int64]map[int64]int64
	nextID int64
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{carts: make(map[int64]Cart), items: make(map[int64]map[int64]int64)}
}

func (r *memoryCartRepo) GetActiveCart(ctx context.Context, customerID int64) (Cart, error) {
	for _, cart := range r.carts {
		if cart.CustomerID == customerID && cart.Status == StatusActive {
			return cart, nil
		}
	}
	return Cart{}, ErrCartNotFound
}

func (r *memoryCartRepo) CreateCart(ctx context.Context, customerID int64) (Cart, error) {
	r.nextID++
	cart := Cart{ID: r.nextID, CustomerID: customerID, Status: StatusActive, CreatedAt: time.Now()}
	r.carts[cart.ID] = cart
	r.items[cart.ID] = make(map[int64]int64)
	return cart, nil
}

func (r *memoryCartRepo) UpsertItem(ctx context.Context, cartID, productID, quantity int64) error {
	r.items[cartID][productID] += quantity
	return nil
}

func (r *memoryCartRepo) RemoveItem(ctx context.Context, cartID, productID int64) error {
	if _, ok := r.items[cartID][productID]; !ok {
		return ErrItemNotFound
	}
	delete(r.items[cartID], productID)
	return nil
}

func (r *memoryCartRepo) ListItems(ctx context.Context, cartID int64) ([]Item, error) {
	var items []Item
	for productID, qty := range r.items[cartID] {
		items = append(items, Item{CartID: cartID, ProductID: productID, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (r *memoryCartRepo) ArchiveCart(ctx context.Context, cartID int64) error {
	cart, ok := r.carts[cartID]
	if !ok || cart.Status != StatusActive {
		return ErrCartNotFound
	}
	cart.Status = StatusArchived
	r.carts[cartID] = cart
	return nil
}

type stubCatalog struct {
	known map[int64]bool
}

func (c stubCatalog) ProductExists(ctx context.Context, productID int64) (bool, error) {
	return c.known[productID], nil
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := NewService(repo, stubCatalog{known: map[int64]bool{10: true}})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, 1, 10, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.EqualValues(t, 2, view.Items[0].Quantity)

	view, err = svc.AddItem(ctx, 1, 10, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.EqualValues(t, 5, view.Items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := NewService(repo, stubCatalog{known: map[int64]bool{10: true}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 10, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, 1, 10, -3)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, 1, 99, 1)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestViewWithoutCartNotFound(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := NewService(repo, stubCatalog{})

	_, err := svc.View(context.Background(), 42)
	require.ErrorIs(t, err, ErrCartNotFound)
}

func TestRemoveItem(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := NewService(repo, stubCatalog{known: map[int64]bool{10: true, 11: true}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 10, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, 11, 1)
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.EqualValues(t, 11, view.Items[0].ProductID)

	_, err = svc.RemoveItem(ctx, 1, 10)
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.RemoveItem(ctx, 2, 10)
	require.ErrorIs(t, err, ErrCartNotFound)
}
