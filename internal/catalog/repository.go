package catalog

import (
	"context"

	"github.com/avelora/storefront-service/internal/catalog/dto"
	"github.com/avelora/storefront-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	FindLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error)
	IsSKUUnique(ctx context.Context, sku string) (bool, error)
}
