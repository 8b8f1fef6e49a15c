package order

import (
	"context"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order/dto"
)

type UseCase interface {
	// PlaceOrder validates the cart, decrements stock, and persists the
	// order atomically. On any stock failure no order row exists.
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error)

	// CancelOrder restores the order's quantities exactly once.
	CancelOrder(ctx context.Context, orderID string) (*model.Order, error)

	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// UpdateStatus drives the admin lifecycle. No transition here touches
	// stock; cancellation has its own path.
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

// Catalog is the slice of the catalog service the pipeline needs: current
// product rows for price snapshots.
type Catalog interface {
	GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}
