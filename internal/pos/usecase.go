package pos

import (
	"context"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/pos/dto"
)

type UseCase interface {
	// RecordSale decrements stock and persists the final transaction
	// atomically. There is no pending state and no cancellation: a failed
	// decrement rejects the sale before any record exists.
	RecordSale(ctx context.Context, input *dto.RecordSaleInput) (*model.Transaction, error)

	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)

	// GetDailySales is the dashboard read of the running day total.
	GetDailySales(ctx context.Context, businessDate string) (*model.DailySales, error)
}

// Catalog is the slice of the catalog service the pipeline needs for price
// snapshots.
type Catalog interface {
	GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}
