package stock

import (
	"context"
	"time"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/stock/dto"
	"github.com/jmoiron/sqlx"
)

// Delta is a signed change against one variant quantity cell.
type Delta struct {
	ProductID string
	Color     string
	Size      string
	Delta     int64
}

// MovementRef annotates the audit trail written alongside every delta.
type MovementRef struct {
	Type          string // "order", "sale", "restore", "adjustment"
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedBy     *string
}

// AttachFn runs inside the same transaction as the deltas it is attached to.
// Pipelines use it to persist their order/sale rows atomically with the stock
// movement. The ext argument is nil for non-SQL store implementations.
type AttachFn func(ctx context.Context, ext sqlx.ExtContext) error

// Locker serializes writers per variant key across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type Repository interface {
	// Reads reflect the latest committed state; no locks are taken.
	GetQuantity(ctx context.Context, productID, color, size string) (int64, error)
	GetAggregate(ctx context.Context, productID string) (int64, error)
	ListByProduct(ctx context.Context, productID string) ([]model.Variant, error)

	// DeclareVariants creates the colors x sizes grid as zero-quantity rows.
	// Existing rows keep their quantity.
	DeclareVariants(ctx context.Context, productID string, colors, sizes []string) error

	// ApplyDeltas applies every delta or none of them. Each touched variant
	// row is locked in stable key order; a delta that would go negative
	// aborts the whole batch with InsufficientStockError, a missing row with
	// UnknownVariantError. Product aggregates, movement audit rows, and the
	// optional attach callback all commit in the same transaction.
	ApplyDeltas(ctx context.Context, deltas []Delta, ref *MovementRef, attach AttachFn) error

	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
