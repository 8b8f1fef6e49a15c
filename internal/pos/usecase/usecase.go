package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/events"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/pos"
	"github.com/avelora/storefront-service/internal/pos/dto"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/pkg/cache"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type posUseCase struct {
	repo      pos.Repository
	stockUC   stock.UseCase
	catalog   pos.Catalog
	publisher *events.Publisher
	cache     *cache.RedisClient
	logger    logger.ZapLogger
}

// NewPOSUseCase wires the staff-terminal sale pipeline. The cache client may
// be nil; the daily total then always reads from the store.
func NewPOSUseCase(repo pos.Repository, stockUC stock.UseCase, cat pos.Catalog, publisher *events.Publisher, cacheClient *cache.RedisClient, log logger.ZapLogger) pos.UseCase {
	return &posUseCase{
		repo:      repo,
		stockUC:   stockUC,
		catalog:   cat,
		publisher: publisher,
		cache:     cacheClient,
		logger:    log,
	}
}

func (uc *posUseCase) RecordSale(ctx context.Context, input *dto.RecordSaleInput) (*model.Transaction, error) {
	if len(input.Lines) == 0 {
		return nil, pos.ErrEmptySale
	}

	products, err := uc.snapshotProducts(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := &model.Transaction{
		ID:            uuid.New().String(),
		Number:        generateSaleNumber(now),
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     now,
	}
	if input.CashierID != "" {
		c := input.CashierID
		t.CashierID = &c
	}
	if input.TerminalID != "" {
		tid := input.TerminalID
		t.TerminalID = &tid
	}
	if input.CustomerName != "" {
		n := input.CustomerName
		t.CustomerName = &n
	}

	for _, line := range input.Lines {
		p := products[line.ProductID]
		t.Items = append(t.Items, model.TransactionItem{
			ID:            uuid.New().String(),
			TransactionID: t.ID,
			ProductID:     line.ProductID,
			Color:         line.Color,
			Size:          line.Size,
			Quantity:      line.Quantity,
			UnitPrice:     p.Price,
		})
		t.Total += p.Price * float64(line.Quantity)
	}

	ref := &stock.MovementRef{Type: "sale", ReferenceType: "pos", ReferenceID: t.ID, CreatedBy: t.CashierID}
	err = uc.stockUC.ReserveAndDecrement(ctx, input.Lines, ref, func(ctx context.Context, ext sqlx.ExtContext) error {
		if err := uc.repo.Create(ctx, ext, t); err != nil {
			return fmt.Errorf("%w: %v", pos.ErrSalePersistence, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pos.ErrSalePersistence) {
			uc.logger.Error("sale persistence failed, stock decrement rolled back",
				zap.String("sale_number", t.Number), zap.Error(err))
		}
		return nil, err
	}

	go uc.publisher.SaleCompleted(context.Background(), t)
	go uc.refreshDailyCache(context.Background(), t.CreatedAt.Format("2006-01-02"))

	return t, nil
}

func (uc *posUseCase) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *posUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *posUseCase) GetDailySales(ctx context.Context, businessDate string) (*model.DailySales, error) {
	if uc.cache != nil {
		val, err := uc.cache.Get(ctx, dailyCacheKey(businessDate))
		if err == nil {
			var d model.DailySales
			if err := json.Unmarshal([]byte(val), &d); err == nil {
				return &d, nil
			}
		}
	}

	d, err := uc.repo.GetDailySales(ctx, businessDate)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(d); err == nil {
			if err := uc.cache.Set(ctx, dailyCacheKey(businessDate), data, time.Minute); err != nil {
				uc.logger.Warn("failed to cache daily sales", zap.Error(err))
			}
		}
	}
	return d, nil
}

// refreshDailyCache re-reads the committed aggregate and overwrites the
// dashboard copy. Best-effort only; the daily_sales row is the truth.
func (uc *posUseCase) refreshDailyCache(ctx context.Context, businessDate string) {
	if uc.cache == nil {
		return
	}
	d, err := uc.repo.GetDailySales(ctx, businessDate)
	if err != nil {
		uc.logger.Warn("failed to refresh daily sales cache", zap.Error(err))
		return
	}
	if data, err := json.Marshal(d); err == nil {
		if err := uc.cache.Set(ctx, dailyCacheKey(businessDate), data, time.Minute); err != nil {
			uc.logger.Warn("failed to refresh daily sales cache", zap.Error(err))
		}
	}
}

func (uc *posUseCase) snapshotProducts(ctx context.Context, lines []model.StockLine) (map[string]model.Product, error) {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	products, err := uc.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive {
			return nil, errors.Wrapf(catalog.ErrProductNotFound, "product %s", id)
		}
	}
	return byID, nil
}

func dailyCacheKey(businessDate string) string {
	return "pos:daily:" + businessDate
}

func generateSaleNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("POS-%s-%s", now.Format("20060102"), suffix)
}
