package order

import (
	"context"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order/dto"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// Create persists the order and its items. When ext is non-nil it runs
	// on the caller's transaction (the stock decrement's), otherwise on the
	// repository's own connection.
	Create(ctx context.Context, ext sqlx.ExtContext, o *model.Order) error

	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error

	// MarkCancelled flips status to cancelled and sets stock_restored, but
	// only when stock_restored is still false. Returns the number of rows
	// changed; zero means another cancel won the race.
	MarkCancelled(ctx context.Context, ext sqlx.ExtContext, id string) (int64, error)
}
