package inventory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockline/stockline/internal/shared"
)

type memoryRepo struct {
	stocks    map[int64]Stock
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[int64]Stock)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]Stock, len(r.stocks))
	for k, v := range r.stocks {
		snapshot[k] = v
	}
	movementsLen := len(r.movements)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.stocks = snapshot
		r.movements = r.movements[:movementsLen]
		return err
	}
	return nil
}

func (r *memoryRepo) GetStock(ctx context.Context, productID int64) (Stock, error) {
	stock, ok := r.stocks[productID]
	if !ok {
		return Stock{}, ErrStockNotFound
	}
	return stock, nil
}

func (r *memoryRepo) ListStocks(ctx context.Context, filter StockFilter) ([]Stock, int, error) {
	result := make([]Stock, 0, len(r.stocks))
	for _, stock := range r.stocks {
		if filter.ProductID != 0 && stock.ProductID != filter.ProductID {
			continue
		}
		result = append(result, stock)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })
	return result, len(result), nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context, threshold int64) ([]Stock, error) {
	var result []Stock
	for _, stock := range r.stocks {
		if stock.Quantity < threshold {
			result = append(result, stock)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity < result[j].Quantity
		}
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	var result []Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			result = append(result, m)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (tx *memoryTx) ApplyDelta(ctx context.Context, productID, delta int64) (Stock, error) {
	stock, ok := tx.repo.stocks[productID]
	if !ok {
		return Stock{}, ErrStockNotFound
	}
	if stock.Quantity+delta < 0 {
		return Stock{}, ErrInsufficientStock
	}
	stock.Quantity += delta
	stock.UpdatedAt = time.Now()
	tx.repo.stocks[productID] = stock
	return stock, nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, productID, delta int64, typ MovementType) error {
	tx.repo.nextID++
	tx.repo.movements = append(tx.repo.movements, Movement{
		ID:         tx.repo.nextID,
		ProductID:  productID,
		Delta:      delta,
		Type:       typ,
		OccurredAt: time.Now(),
	})
	return nil
}

func (tx *memoryTx) InsertStock(ctx context.Context, stock Stock) error {
	if _, ok := tx.repo.stocks[stock.ProductID]; ok {
		return ErrStockExists
	}
	tx.repo.stocks[stock.ProductID] = stock
	return nil
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, productID int64) (Stock, error) {
	stock, ok := tx.repo.stocks[productID]
	if !ok {
		return Stock{}, ErrStockNotFound
	}
	return stock, nil
}

func seedStock(t *testing.T, svc *Service, productID, qty int64) {
	t.Helper()
	_, err := svc.CreateStock(context.Background(), CreateStockInput{ProductID: productID, CategoryID: 1, Quantity: qty})
	require.NoError(t, err)
}

func TestApplyMovementUpdatesQuantityAndLedger(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()
	seedStock(t, svc, 1, 10)

	stock, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Delta: 5, Type: MovementRestock})
	require.NoError(t, err)
	require.EqualValues(t, 15, stock.Quantity)

	stock, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Delta: -4, Type: MovementSale})
	require.NoError(t, err)
	require.EqualValues(t, 11, stock.Quantity)

	movements, err := svc.ListMovements(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	require.Equal(t, MovementInitial, movements[0].Type)
	require.Equal(t, MovementRestock, movements[1].Type)
	require.Equal(t, MovementSale, movements[2].Type)

	var sum int64
	for _, m := range movements {
		sum += m.Delta
	}
	require.EqualValues(t, stock.Quantity, sum)
}

func TestApplyMovementRejectsOverdraw(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()
	seedStock(t, svc, 1, 3)

	_, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Delta: -4, Type: MovementSale})
	require.ErrorIs(t, err, ErrInsufficientStock)

	qty, err := svc.GetQuantity(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 3, qty)

	movements, err := svc.ListMovements(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
}

func TestApplyMovementValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()
	seedStock(t, svc, 1, 3)

	_, err := svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Delta: 0, Type: MovementRestock})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 1, Delta: 2, Type: MovementType("teleport")})
	require.ErrorIs(t, err, ErrInvalidMovementType)

	_, err = svc.ApplyMovement(ctx, MovementInput{ProductID: 99, Delta: 2, Type: MovementRestock})
	require.ErrorIs(t, err, ErrStockNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateStockRecordsInitialMovement(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()

	stock, err := svc.CreateStock(ctx, CreateStockInput{ProductID: 7, CategoryID: 2, Quantity: 30})
	require.NoError(t, err)
	require.EqualValues(t, 30, stock.Quantity)

	movements, err := svc.ListMovements(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, MovementInitial, movements[0].Type)
	require.EqualValues(t, 30, movements[0].Delta)

	_, err = svc.CreateStock(ctx, CreateStockInput{ProductID: 7, Quantity: 1})
	require.ErrorIs(t, err, ErrStockExists)
}

func TestAdjustToRecordsDifference(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()
	seedStock(t, svc, 1, 10)

	stock, err := svc.AdjustTo(ctx, 1, 25, 0)
	require.NoError(t, err)
	require.EqualValues(t, 25, stock.Quantity)

	stock, err = svc.AdjustTo(ctx, 1, 20, 0)
	require.NoError(t, err)
	require.EqualValues(t, 20, stock.Quantity)

	movements, err := svc.ListMovements(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	require.Equal(t, MovementRestock, movements[1].Type)
	require.EqualValues(t, 15, movements[1].Delta)
	require.Equal(t, MovementAdjustment, movements[2].Type)
	require.EqualValues(t, -5, movements[2].Delta)

	_, err = svc.AdjustTo(ctx, 1, -1, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestAdjustToAuditsActualMovement(t *testing.T) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	svc := NewService(repo, audit, nil, ServiceConfig{})
	ctx := context.Background()
	seedStock(t, svc, 1, 10)

	_, err := svc.AdjustTo(ctx, 1, 25, 3)
	require.NoError(t, err)
	_, err = svc.AdjustTo(ctx, 1, 20, 3)
	require.NoError(t, err)
	_, err = svc.AdjustTo(ctx, 1, 20, 3)
	require.NoError(t, err)

	// seedStock records the initial entry; the no-op adjust records nothing.
	require.Len(t, audit.logs, 3)

	restock := audit.logs[1]
	require.Equal(t, "inventory:restock", restock.Action)
	require.EqualValues(t, 15, restock.Meta["delta"])

	adjustment := audit.logs[2]
	require.Equal(t, "inventory:adjustment", adjustment.Action)
	require.EqualValues(t, -5, adjustment.Meta["delta"])
	require.EqualValues(t, 3, adjustment.ActorID)
}

func TestListLowStockStrictThreshold(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()
	seedStock(t, svc, 1, 5)
	seedStock(t, svc, 2, 20)
	seedStock(t, svc, 3, 11)
	seedStock(t, svc, 4, 12)

	low, err := svc.ListLowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, low, 2)
	require.EqualValues(t, 1, low[0].ProductID)
	require.EqualValues(t, 3, low[1].ProductID)
}
