package handler

import (
	"errors"

	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/catalog/dto"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{uc: uc, logger: log}
}

type createProductRequest struct {
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	ImageURL          string  `json:"image_url"`
	LowStockThreshold int64   `json:"low_stock_threshold"`
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SKU == "" || req.Name == "" || req.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sku, name and a positive price are required"})
	}

	p, err := h.uc.CreateProduct(c.Context(), &dto.CreateProductInput{
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		ImageURL:          req.ImageURL,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.uc.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(p)
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	filters := &dto.ProductFilters{
		SearchQuery: c.Query("q"),
		ActiveOnly:  c.QueryBool("active_only", true),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("page_size", 20),
	}

	products, total, err := h.uc.ListProducts(c.Context(), filters)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
	})
}

func (h *CatalogHandler) DeclareVariants(c *fiber.Ctx) error {
	var req dto.DeclareVariantsInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	variants, err := h.uc.DeclareVariants(c.Context(), c.Params("id"), req.Colors, req.Sizes)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"variants": variants})
}

func (h *CatalogHandler) ListLowStock(c *fiber.Ctx) error {
	products, total, err := h.uc.ListLowStock(c.Context(), c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
	})
}

func (h *CatalogHandler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product_not_found"})
	case errors.Is(err, catalog.ErrSKUExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "sku_exists"})
	case errors.Is(err, catalog.ErrNoDeclaredVariants):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "colors_and_sizes_required"})
	default:
		h.logger.Error("catalog handler error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
