package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avelora/storefront-service/config"
	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order"
	"github.com/avelora/storefront-service/internal/order/dto"
	"github.com/avelora/storefront-service/internal/stock/repository"
	stockusecase "github.com/avelora/storefront-service/internal/stock/usecase"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func (l *memoryLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]string)
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *memoryLocker) ReleaseLock(ctx context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == value {
		delete(l.held, key)
	}
	return nil
}

// fakeOrderRepo keeps orders in a map and honors the stock_restored guard the
// same way the SQL implementation does.
type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*model.Order
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*model.Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, ext sqlx.ExtContext, o *model.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.Order
	for _, o := range r.orders {
		if filters.Status != "" && string(o.Status) != filters.Status {
			continue
		}
		items = append(items, *o)
	}
	return items, len(items), nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (r *fakeOrderRepo) MarkCancelled(ctx context.Context, ext sqlx.ExtContext, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.StockRestored {
		return 0, nil
	}
	o.Status = model.OrderStatusCancelled
	o.StockRestored = true
	return 1, nil
}

type stubCatalog struct {
	products map[string]model.Product
}

func (c *stubCatalog) GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fixture struct {
	uc        order.UseCase
	orderRepo *fakeOrderRepo
	stockRepo *repository.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stockRepo := repository.NewMemoryRepository()
	stockRepo.Seed("p1", "red", "M", 10)
	stockRepo.Seed("p1", "blue", "L", 3)
	stockRepo.Seed("p2", "black", "S", 5)

	cfg := config.StockConfig{LockTTLSeconds: 5, LockAttempts: 3, LockRetryWaitMS: 20}
	stockUC := stockusecase.NewStockUseCase(stockRepo, &memoryLocker{}, cfg, logger.NewNop())

	cat := &stubCatalog{products: map[string]model.Product{
		"p1": {BaseModel: model.BaseModel{ID: "p1"}, Name: "Tee", Price: 20, IsActive: true},
		"p2": {BaseModel: model.BaseModel{ID: "p2"}, Name: "Hoodie", Price: 50, IsActive: true},
		"p3": {BaseModel: model.BaseModel{ID: "p3"}, Name: "Retired", Price: 5, IsActive: false},
	}}

	orderRepo := newFakeOrderRepo()
	uc := NewOrderUseCase(orderRepo, stockUC, cat, nil, logger.NewNop())
	return &fixture{uc: uc, orderRepo: orderRepo, stockRepo: stockRepo}
}

func placeInput(lines ...model.StockLine) *dto.PlaceOrderInput {
	return &dto.PlaceOrderInput{
		Lines:           lines,
		CustomerName:    "Ayu",
		CustomerEmail:   "ayu@example.com",
		ShippingAddress: "Jl. Merdeka 1",
		PaymentMethod:   "transfer",
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.PlaceOrder(context.Background(), placeInput())
	require.ErrorIs(t, err, order.ErrEmptyCart)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.uc.PlaceOrder(ctx, placeInput(
		model.StockLine{ProductID: "p1", Color: "red", Size: "M", Quantity: 2},
		model.StockLine{ProductID: "p2", Color: "black", Size: "S", Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, float64(2*20+1*50), o.Total)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, o.Number)
	require.Len(t, o.Items, 2)
	assert.Equal(t, float64(20), o.Items[0].UnitPrice)

	stored, err := f.orderRepo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	qty, err := f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(8), qty)
}

func TestPlaceOrderOutOfStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.PlaceOrder(ctx, placeInput(
		model.StockLine{ProductID: "p1", Color: "red", Size: "M", Quantity: 2},
		model.StockLine{ProductID: "p1", Color: "blue", Size: "L", Quantity: 4},
	))

	var oos *order.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "blue", oos.Color)
	assert.Equal(t, int64(4), oos.Requested)
	assert.Equal(t, int64(3), oos.Available)

	// Neither the satisfiable line nor the order row survives the failure.
	qty, err := f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)

	_, total, err := f.orderRepo.FindAll(ctx, &dto.OrderFilters{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestPlaceOrderInactiveProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.PlaceOrder(context.Background(), placeInput(
		model.StockLine{ProductID: "p3", Color: "red", Size: "M", Quantity: 1},
	))
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestPlaceOrderPersistenceFailureRollsBackStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orderRepo.createErr = errors.New("connection reset")

	_, err := f.uc.PlaceOrder(ctx, placeInput(
		model.StockLine{ProductID: "p1", Color: "red", Size: "M", Quantity: 2},
	))
	require.ErrorIs(t, err, order.ErrOrderPersistence)

	qty, err := f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.uc.PlaceOrder(ctx, placeInput(
		model.StockLine{ProductID: "p1", Color: "red", Size: "M", Quantity: 4},
	))
	require.NoError(t, err)

	qty, err := f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	require.Equal(t, int64(6), qty)

	cancelled, err := f.uc.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.True(t, cancelled.StockRestored)

	qty, err = f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)

	// Second cancel must not restore again.
	_, err = f.uc.CancelOrder(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrAlreadyCancelled)

	qty, err = f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)
}

func TestCancelOrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CancelOrder(context.Background(), "missing")
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.uc.PlaceOrder(ctx, placeInput(
		model.StockLine{ProductID: "p1", Color: "red", Size: "M", Quantity: 1},
	))
	require.NoError(t, err)

	for _, next := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	} {
		updated, err := f.uc.UpdateStatus(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	// Delivered is terminal and cancellation never goes through here.
	_, err = f.uc.UpdateStatus(ctx, o.ID, model.OrderStatusPending)
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = f.uc.UpdateStatus(ctx, o.ID, model.OrderStatusCancelled)
	require.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestUpdateStatusSkipsSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.uc.PlaceOrder(ctx, placeInput(
		model.StockLine{ProductID: "p1", Color: "red", Size: "M", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, o.ID, model.OrderStatusShipped)
	require.ErrorIs(t, err, order.ErrInvalidTransition)
}
