package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/catalog/dto"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/pkg/cache"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type catalogUseCase struct {
	repo      catalog.Repository
	stockRepo stock.Repository
	cache     *cache.RedisClient
	logger    logger.ZapLogger
}

// NewCatalogUseCase wires the product read path. The cache client may be nil;
// reads then always go to the store.
func NewCatalogUseCase(repo catalog.Repository, stockRepo stock.Repository, cacheClient *cache.RedisClient, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:      repo,
		stockRepo: stockRepo,
		cache:     cacheClient,
		logger:    log,
	}
}

func (uc *catalogUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, catalog.ErrSKUExists
	}

	now := time.Now()
	var description *string
	if input.Description != "" {
		d := input.Description
		description = &d
	}
	var imageURL *string
	if input.ImageURL != "" {
		u := input.ImageURL
		imageURL = &u
	}

	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:               input.SKU,
		Name:              input.Name,
		Description:       description,
		Price:             input.Price,
		ImageURL:          imageURL,
		LowStockThreshold: input.LowStockThreshold,
		IsActive:          true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())

	return p, nil
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, catalog.ErrProductNotFound
	}

	variants, err := uc.stockRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return p, nil
}

func (uc *catalogUseCase) GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	return uc.repo.FindByIDs(ctx, ids)
}

func (uc *catalogUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		val, err := uc.cache.Get(ctx, cacheKey)
		if err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{
			Products: products,
			Count:    count,
		}
		if data, err := json.Marshal(cacheData); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, 5*time.Minute); err != nil {
				uc.logger.Warn("failed to cache product list", zap.Error(err))
			}
		}
	}

	return products, count, nil
}

func (uc *catalogUseCase) DeclareVariants(ctx context.Context, productID string, colors, sizes []string) ([]model.Variant, error) {
	if len(colors) == 0 || len(sizes) == 0 {
		return nil, catalog.ErrNoDeclaredVariants
	}

	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, catalog.ErrProductNotFound
	}

	if err := uc.stockRepo.DeclareVariants(ctx, productID, colors, sizes); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())

	return uc.stockRepo.ListByProduct(ctx, productID)
}

func (uc *catalogUseCase) ListLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	return uc.repo.FindLowStock(ctx, page, pageSize)
}

func (uc *catalogUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *catalogUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	keys, err := uc.cache.Client.Keys(ctx, "products:list:*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}
