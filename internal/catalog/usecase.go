package catalog

import (
	"context"

	"github.com/avelora/storefront-service/internal/catalog/dto"
	"github.com/avelora/storefront-service/internal/model"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)

	// DeclareVariants creates the full colors x sizes grid with zero
	// quantity. Declaration is a precondition for accepting orders.
	DeclareVariants(ctx context.Context, productID string, colors, sizes []string) ([]model.Variant, error)

	ListLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error)
}
