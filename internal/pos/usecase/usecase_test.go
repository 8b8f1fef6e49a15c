package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avelora/storefront-service/config"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/pos"
	"github.com/avelora/storefront-service/internal/pos/dto"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/internal/stock/repository"
	stockusecase "github.com/avelora/storefront-service/internal/stock/usecase"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/jmoiron/sqlx"
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

// fakePOSRepo mirrors the SQL implementation's contract: the transaction row
// and the daily aggregate move together inside Create.
type fakePOSRepo struct {
	mu           sync.Mutex
	transactions map[string]*model.Transaction
	daily        map[string]*model.DailySales
}

func newFakePOSRepo() *fakePOSRepo {
	return &fakePOSRepo{
		transactions: make(map[string]*model.Transaction),
		daily:        make(map[string]*model.DailySales),
	}
}

func (r *fakePOSRepo) Create(ctx context.Context, ext sqlx.ExtContext, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp

	date := t.CreatedAt.Format("2006-01-02")
	d := r.daily[date]
	if d == nil {
		d = &model.DailySales{BusinessDate: date}
		r.daily[date] = d
	}
	d.Total += t.Total
	d.TransactionCount++
	d.UpdatedAt = t.CreatedAt
	return nil
}

func (r *fakePOSRepo) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakePOSRepo) FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.Transaction
	for _, t := range r.transactions {
		if filters.BusinessDate != "" && t.CreatedAt.Format("2006-01-02") != filters.BusinessDate {
			continue
		}
		items = append(items, *t)
	}
	return items, len(items), nil
}

func (r *fakePOSRepo) GetDailySales(ctx context.Context, businessDate string) (*model.DailySales, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.daily[businessDate]; ok {
		cp := *d
		return &cp, nil
	}
	return &model.DailySales{BusinessDate: businessDate}, nil
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
	uc        pos.UseCase
	posRepo   *fakePOSRepo
	stockRepo *repository.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stockRepo := repository.NewMemoryRepository()
	stockRepo.Seed("p1", "red", "M", 10)
	stockRepo.Seed("p2", "black", "S", 0)

	cfg := config.StockConfig{LockTTLSeconds: 5, LockAttempts: 3, LockRetryWaitMS: 20}
	stockUC := stockusecase.NewStockUseCase(stockRepo, &memoryLocker{}, cfg, logger.NewNop())

	cat := &stubCatalog{products: map[string]model.Product{
		"p1": {BaseModel: model.BaseModel{ID: "p1"}, Name: "Tee", Price: 20, IsActive: true},
		"p2": {BaseModel: model.BaseModel{ID: "p2"}, Name: "Hoodie", Price: 50, IsActive: true},
	}}

	posRepo := newFakePOSRepo()
	uc := NewPOSUseCase(posRepo, stockUC, cat, nil, nil, logger.NewNop())
	return &fixture{uc: uc, posRepo: posRepo, stockRepo: stockRepo}
}

func TestRecordSaleEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RecordSale(context.Background(), &dto.RecordSaleInput{PaymentMethod: "cash"})
	require.ErrorIs(t, err, pos.ErrEmptySale)
}

func TestRecordSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{
		Lines: []model.StockLine{
			{ProductID: "p1", Color: "red", Size: "M", Quantity: 3},
		},
		PaymentMethod: "cash",
		CashierID:     "cashier-1",
		TerminalID:    "till-2",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(60), tx.Total)
	assert.Regexp(t, `^POS-\d{8}-[0-9A-F]{6}$`, tx.Number)
	require.NotNil(t, tx.CashierID)
	assert.Equal(t, "cashier-1", *tx.CashierID)

	qty, err := f.stockRepo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)

	today := tx.CreatedAt.Format("2006-01-02")
	daily, err := f.uc.GetDailySales(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, float64(60), daily.Total)
	assert.Equal(t, int64(1), daily.TransactionCount)
}

func TestRecordSaleZeroStockRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The variant exists but holds nothing; the sale must leave no trace.
	_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{
		Lines: []model.StockLine{
			{ProductID: "p2", Color: "black", Size: "S", Quantity: 1},
		},
		PaymentMethod: "cash",
	})
	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(0), insufficient.Available)

	_, total, err := f.posRepo.FindAll(ctx, &dto.TransactionFilters{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	today := time.Now().Format("2006-01-02")
	daily, err := f.uc.GetDailySales(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, float64(0), daily.Total)
	assert.Equal(t, int64(0), daily.TransactionCount)
}

func TestRecordSalesAccumulateDailyTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{
			Lines: []model.StockLine{
				{ProductID: "p1", Color: "red", Size: "M", Quantity: 1},
			},
			PaymentMethod: "qris",
		})
		require.NoError(t, err)
	}

	today := time.Now().Format("2006-01-02")
	daily, err := f.uc.GetDailySales(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, float64(60), daily.Total)
	assert.Equal(t, int64(3), daily.TransactionCount)
}
