package pos

import (
	"context"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/pos/dto"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// Create persists the transaction, its items, and the daily sales upsert
	// in one unit. When ext is non-nil it runs on the caller's transaction
	// (the stock decrement's).
	Create(ctx context.Context, ext sqlx.ExtContext, t *model.Transaction) error

	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)

	// GetDailySales returns zero totals for a day with no sales.
	GetDailySales(ctx context.Context, businessDate string) (*model.DailySales, error)
}
