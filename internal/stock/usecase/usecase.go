package usecase

import (
	"context"
	"time"

	"github.com/avelora/storefront-service/config"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/internal/stock/dto"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type stockUseCase struct {
	repo      stock.Repository
	locker    stock.Locker
	logger    logger.ZapLogger
	lockTTL   time.Duration
	attempts  int
	retryWait time.Duration
}

func NewStockUseCase(repo stock.Repository, locker stock.Locker, cfg config.StockConfig, log logger.ZapLogger) stock.UseCase {
	attempts := cfg.LockAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &stockUseCase{
		repo:      repo,
		locker:    locker,
		logger:    log,
		lockTTL:   time.Duration(cfg.LockTTLSeconds) * time.Second,
		attempts:  attempts,
		retryWait: time.Duration(cfg.LockRetryWaitMS) * time.Millisecond,
	}
}

func (uc *stockUseCase) GetQuantity(ctx context.Context, productID, color, size string) (int64, error) {
	return uc.repo.GetQuantity(ctx, productID, color, size)
}

func (uc *stockUseCase) GetAggregate(ctx context.Context, productID string) (int64, error) {
	return uc.repo.GetAggregate(ctx, productID)
}

func (uc *stockUseCase) ListVariants(ctx context.Context, productID string) ([]model.Variant, error) {
	return uc.repo.ListByProduct(ctx, productID)
}

func (uc *stockUseCase) ReserveAndDecrement(ctx context.Context, lines []model.StockLine, ref *stock.MovementRef, attach stock.AttachFn) error {
	deltas, err := mergeLines(lines, -1)
	if err != nil {
		return err
	}
	return uc.applyLocked(ctx, deltas, ref, attach)
}

func (uc *stockUseCase) Restore(ctx context.Context, lines []model.StockLine, ref *stock.MovementRef, attach stock.AttachFn) error {
	deltas, err := mergeLines(lines, 1)
	if err != nil {
		return err
	}
	return uc.applyLocked(ctx, deltas, ref, attach)
}

func (uc *stockUseCase) Adjust(ctx context.Context, input *dto.AdjustStockInput) (*model.Variant, error) {
	if input.Change == 0 {
		return nil, errors.New("quantity change must not be zero")
	}

	var createdBy *string
	if input.UserID != "" {
		u := input.UserID
		createdBy = &u
	}
	deltas := []stock.Delta{{
		ProductID: input.ProductID,
		Color:     input.Color,
		Size:      input.Size,
		Delta:     input.Change,
	}}
	ref := &stock.MovementRef{
		Type:          "adjustment",
		ReferenceType: "manual",
		Notes:         input.Reason,
		CreatedBy:     createdBy,
	}

	if err := uc.applyLocked(ctx, deltas, ref, nil); err != nil {
		return nil, err
	}

	qty, err := uc.repo.GetQuantity(ctx, input.ProductID, input.Color, input.Size)
	if err != nil {
		return nil, err
	}
	return &model.Variant{
		ProductID: input.ProductID,
		Color:     input.Color,
		Size:      input.Size,
		Quantity:  qty,
		UpdatedAt: time.Now(),
	}, nil
}

func (uc *stockUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

// applyLocked takes the per-variant locks in sorted key order, then hands the
// batch to the store. Lock failures surface ErrStockBusy; stock-level errors
// pass through untouched, never retried here.
func (uc *stockUseCase) applyLocked(ctx context.Context, deltas []stock.Delta, ref *stock.MovementRef, attach stock.AttachFn) error {
	release, err := uc.lockVariants(ctx, deltas)
	if err != nil {
		return err
	}
	defer release()

	return uc.repo.ApplyDeltas(ctx, deltas, ref, attach)
}

func (uc *stockUseCase) lockVariants(ctx context.Context, deltas []stock.Delta) (func(), error) {
	token := uuid.New().String()
	keys := make([]string, 0, len(deltas))
	for _, d := range deltas {
		keys = append(keys, "lock:stock:"+stock.VariantKey(d.ProductID, d.Color, d.Size))
	}

	acquired := make([]string, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			if err := uc.locker.ReleaseLock(ctx, acquired[i], token); err != nil {
				uc.logger.Error("failed to release variant lock",
					zap.String("key", acquired[i]), zap.Error(err))
			}
		}
	}

	for _, key := range keys {
		ok := false
		for attempt := 0; attempt < uc.attempts; attempt++ {
			var err error
			ok, err = uc.locker.AcquireLock(ctx, key, token, uc.lockTTL)
			if err != nil {
				uc.logger.Error("failed to acquire variant lock", zap.String("key", key), zap.Error(err))
			}
			if ok {
				break
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(uc.retryWait):
			}
		}
		if !ok {
			release()
			return nil, stock.ErrStockBusy
		}
		acquired = append(acquired, key)
	}

	return release, nil
}

// mergeLines folds duplicate variant keys into one delta, validates
// quantities, and returns the batch in stable key order.
func mergeLines(lines []model.StockLine, sign int64) ([]stock.Delta, error) {
	if len(lines) == 0 {
		return nil, errors.New("no stock lines")
	}

	merged := make(map[string]*stock.Delta, len(lines))
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, errors.Errorf("invalid quantity %d for product %s (%s/%s)",
				l.Quantity, l.ProductID, l.Color, l.Size)
		}
		key := stock.VariantKey(l.ProductID, l.Color, l.Size)
		if d, ok := merged[key]; ok {
			d.Delta += sign * l.Quantity
			continue
		}
		merged[key] = &stock.Delta{
			ProductID: l.ProductID,
			Color:     l.Color,
			Size:      l.Size,
			Delta:     sign * l.Quantity,
		}
		order = append(order, key)
	}

	deltas := make([]stock.Delta, 0, len(merged))
	for _, key := range order {
		deltas = append(deltas, *merged[key])
	}
	stock.SortDeltas(deltas)
	return deltas, nil
}
