package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockline/stockline/internal/cart"
	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/sales"
)

// memoryStore serializes checkouts with a mutex and rolls state back on
// error, mimicking the database transaction.
type memoryStore struct {
	mu           sync.Mutex
	carts        map[int64]cart.Cart
	cartItems    map[int64][]cart.Item
	stocks       map[int64]int64
	archived     map[int64]bool
	transactions map[int64]sales.Transaction
	items        []sales.TransactionItem
	movements    []int64
	nextID       int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		carts:        make(map[int64]cart.Cart),
		cartItems:    make(map[int64][]cart.Item),
		stocks:       make(map[int64]int64),
		archived:     make(map[int64]bool),
		transactions: make(map[int64]sales.Transaction),
	}
}

func (s *memoryStore) seedCart(customerID int64, items ...cart.Item) int64 {
	s.nextID++
	id := s.nextID
	s.carts[id] = cart.Cart{ID: id, CustomerID: customerID, Status: cart.StatusActive, CreatedAt: time.Now()}
	s.cartItems[id] = items
	return id
}

func (s *memoryStore) Checkout(ctx context.Context, fn func(context.Context, Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, &memoryStoreTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	carts        map[int64]cart.Cart
	stocks       map[int64]int64
	transactions map[int64]sales.Transaction
	itemsLen     int
	movementsLen int
	nextID       int64
}

func (s *memoryStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		carts:        make(map[int64]cart.Cart, len(s.carts)),
		stocks:       make(map[int64]int64, len(s.stocks)),
		transactions: make(map[int64]sales.Transaction, len(s.transactions)),
		itemsLen:     len(s.items),
		movementsLen: len(s.movements),
		nextID:       s.nextID,
	}
	for k, v := range s.carts {
		snap.carts[k] = v
	}
	for k, v := range s.stocks {
		snap.stocks[k] = v
	}
	for k, v := range s.transactions {
		snap.transactions[k] = v
	}
	return snap
}

func (s *memoryStore) restore(snap storeSnapshot) {
	s.carts = snap.carts
	s.stocks = snap.stocks
	s.transactions = snap.transactions
	s.items = s.items[:snap.itemsLen]
	s.movements = s.movements[:snap.movementsLen]
	s.nextID = snap.nextID
}

type memoryStoreTx struct {
	store *memoryStore
}

func (t *memoryStoreTx) ActiveCart(ctx context.Context, customerID int64) (cart.Cart, error) {
	for _, c := range t.store.carts {
		if c.CustomerID == customerID && c.Status == cart.StatusActive {
			return c, nil
		}
	}
	return cart.Cart{}, cart.ErrCartNotFound
}

func (t *memoryStoreTx) CartItems(ctx context.Context, cartID int64) ([]cart.Item, error) {
	return t.store.cartItems[cartID], nil
}

func (t *memoryStoreTx) ProductState(ctx context.Context, productID int64) (ProductState, error) {
	qty, ok := t.store.stocks[productID]
	if !ok {
		return ProductState{}, ErrProductMissing
	}
	return ProductState{Active: !t.store.archived[productID], Quantity: qty}, nil
}

func (t *memoryStoreTx) InsertPendingTransaction(ctx context.Context, customerID, cartID int64) (int64, error) {
	t.store.nextID++
	id := t.store.nextID
	t.store.transactions[id] = sales.Transaction{ID: id, CartID: cartID, CustomerID: customerID, Status: sales.StatusPending, CreatedAt: time.Now()}
	return id, nil
}

func (t *memoryStoreTx) InsertItem(ctx context.Context, item sales.TransactionItem) error {
	t.store.items = append(t.store.items, item)
	return nil
}

func (t *memoryStoreTx) ApplyStockMovement(ctx context.Context, productID, delta int64) error {
	qty, ok := t.store.stocks[productID]
	if !ok {
		return inventory.ErrStockNotFound
	}
	if qty+delta < 0 {
		return inventory.ErrInsufficientStock
	}
	t.store.stocks[productID] = qty + delta
	t.store.movements = append(t.store.movements, delta)
	return nil
}

func (t *memoryStoreTx) FinalizeTransaction(ctx context.Context, transactionID int64, total float64) error {
	tx := t.store.transactions[transactionID]
	tx.TotalAmount = total
	tx.Status = sales.StatusCompleted
	t.store.transactions[transactionID] = tx
	return nil
}

func (t *memoryStoreTx) ArchiveCart(ctx context.Context, cartID int64) error {
	c, ok := t.store.carts[cartID]
	if !ok || c.Status != cart.StatusActive {
		return cart.ErrCartNotFound
	}
	c.Status = cart.StatusArchived
	t.store.carts[cartID] = c
	return nil
}

func TestCheckoutSuccess(t *testing.T) {
	store := newMemoryStore()
	store.stocks[1] = 5
	store.stocks[2] = 1
	cartID := store.seedCart(7,
		cart.Item{ProductID: 1, Name: "Widget", UnitPrice: 10.0, Quantity: 2},
		cart.Item{ProductID: 2, Name: "Gadget", UnitPrice: 5.0, Quantity: 1},
	)

	engine := NewEngine(store, nil, nil, nil)
	result, err := engine.Checkout(context.Background(), 7)
	require.NoError(t, err)
	require.InDelta(t, 25.0, result.TotalAmount, 0.0001)
	require.Equal(t, 2, result.ItemCount)

	require.EqualValues(t, 3, store.stocks[1])
	require.EqualValues(t, 0, store.stocks[2])
	require.Equal(t, []int64{-2, -1}, store.movements)

	tx := store.transactions[result.TransactionID]
	require.Equal(t, sales.StatusCompleted, tx.Status)
	require.Equal(t, cartID, tx.CartID)
	require.InDelta(t, 25.0, tx.TotalAmount, 0.0001)
	require.Equal(t, cart.StatusArchived, store.carts[cartID].Status)
	require.Len(t, store.items, 2)
	require.InDelta(t, 20.0, store.items[0].LineTotal, 0.0001)
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := newMemoryStore()
	engine := NewEngine(store, nil, nil, nil)

	_, err := engine.Checkout(context.Background(), 7)
	require.ErrorIs(t, err, ErrEmptyCart)

	store.seedCart(8)
	_, err = engine.Checkout(context.Background(), 8)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	store := newMemoryStore()
	store.stocks[1] = 5
	store.stocks[2] = 0
	cartID := store.seedCart(7,
		cart.Item{ProductID: 1, Name: "Widget", UnitPrice: 10.0, Quantity: 2},
		cart.Item{ProductID: 2, Name: "Gadget", UnitPrice: 5.0, Quantity: 1},
	)

	engine := NewEngine(store, nil, nil, nil)
	_, err := engine.Checkout(context.Background(), 7)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	var insufficientErr *InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	require.EqualValues(t, 2, insufficientErr.ProductID)

	require.EqualValues(t, 5, store.stocks[1])
	require.Empty(t, store.movements)
	require.Empty(t, store.items)
	require.Empty(t, store.transactions)
	require.Equal(t, cart.StatusActive, store.carts[cartID].Status)
}

func TestCheckoutMissingProduct(t *testing.T) {
	store := newMemoryStore()
	store.seedCart(7, cart.Item{ProductID: 99, Name: "Ghost", UnitPrice: 1.0, Quantity: 1})

	engine := NewEngine(store, nil, nil, nil)
	_, err := engine.Checkout(context.Background(), 7)
	require.ErrorIs(t, err, ErrProductMissing)
}

func TestCheckoutArchivedProduct(t *testing.T) {
	store := newMemoryStore()
	store.stocks[1] = 5
	store.archived[1] = true
	cartID := store.seedCart(7, cart.Item{ProductID: 1, Name: "Widget", UnitPrice: 10.0, Quantity: 1})

	engine := NewEngine(store, nil, nil, nil)
	_, err := engine.Checkout(context.Background(), 7)
	require.ErrorIs(t, err, ErrProductInactive)

	require.EqualValues(t, 5, store.stocks[1])
	require.Empty(t, store.movements)
	require.Empty(t, store.transactions)
	require.Equal(t, cart.StatusActive, store.carts[cartID].Status)
}

func TestCheckoutConcurrentLastUnit(t *testing.T) {
	store := newMemoryStore()
	store.stocks[1] = 1
	store.seedCart(7, cart.Item{ProductID: 1, Name: "Widget", UnitPrice: 10.0, Quantity: 1})
	store.seedCart(8, cart.Item{ProductID: 1, Name: "Widget", UnitPrice: 10.0, Quantity: 1})

	engine := NewEngine(store, nil, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, customerID := range []int64{7, 8} {
		wg.Add(1)
		go func(i int, customerID int64) {
			defer wg.Done()
			_, errs[i] = engine.Checkout(context.Background(), customerID)
		}(i, customerID)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, inventory.ErrInsufficientStock)
			losses++
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)
	require.EqualValues(t, 0, store.stocks[1])
	require.Len(t, store.movements, 1)
}
