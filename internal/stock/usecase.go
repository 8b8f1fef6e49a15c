package stock

import (
	"context"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/stock/dto"
)

// UseCase is the adjustment service: the only component allowed to mutate
// variant quantities. Both checkout and POS decrement through it.
type UseCase interface {
	GetQuantity(ctx context.Context, productID, color, size string) (int64, error)
	GetAggregate(ctx context.Context, productID string) (int64, error)
	ListVariants(ctx context.Context, productID string) ([]model.Variant, error)

	// ReserveAndDecrement atomically decrements every line or none. Duplicate
	// variant keys are merged before locking. attach may be nil.
	ReserveAndDecrement(ctx context.Context, lines []model.StockLine, ref *MovementRef, attach AttachFn) error

	// Restore returns previously decremented quantities, serialized against
	// concurrent decrements by the same per-variant locks.
	Restore(ctx context.Context, lines []model.StockLine, ref *MovementRef, attach AttachFn) error

	// Adjust is the manual correction path used by the admin inventory
	// screens. Same write path as sales, not a separate one.
	Adjust(ctx context.Context, input *dto.AdjustStockInput) (*model.Variant, error)

	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
