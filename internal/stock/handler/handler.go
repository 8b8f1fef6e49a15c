package handler

import (
	"errors"

	"github.com/avelora/storefront-service/internal/auth"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/internal/stock/dto"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StockHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{uc: uc, logger: log}
}

// GetProductStock returns the variant grid plus the aggregate for one
// product. Read path; reflects latest committed state.
func (h *StockHandler) GetProductStock(c *fiber.Ctx) error {
	productID := c.Params("productID")

	variants, err := h.uc.ListVariants(c.Context(), productID)
	if err != nil {
		return h.respondError(c, err)
	}
	aggregate, err := h.uc.GetAggregate(c.Context(), productID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"product_id": productID,
		"aggregate":  aggregate,
		"variants":   variants,
	})
}

func (h *StockHandler) GetVariantQuantity(c *fiber.Ctx) error {
	productID := c.Params("productID")
	color := c.Query("color")
	size := c.Query("size")
	if color == "" || size == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "color and size are required"})
	}

	qty, err := h.uc.GetQuantity(c.Context(), productID, color, size)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id": productID,
		"color":      color,
		"size":       size,
		"quantity":   qty,
	})
}

type adjustRequest struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Change    int64  `json:"change"`
	Reason    string `json:"reason"`
}

// Adjust is the admin manual-correction endpoint. It goes through the same
// adjustment service as checkout and POS, not a separate write path.
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	variant, err := h.uc.Adjust(c.Context(), &dto.AdjustStockInput{
		ProductID: req.ProductID,
		Color:     req.Color,
		Size:      req.Size,
		Change:    req.Change,
		Reason:    req.Reason,
		UserID:    auth.UserID(c),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(variant)
}

func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	filters := &dto.MovementFilters{
		ProductID:    c.Query("product_id"),
		MovementType: c.Query("movement_type"),
		Page:         c.QueryInt("page", 1),
		PageSize:     c.QueryInt("page_size", 20),
	}

	movements, total, err := h.uc.ListMovements(c.Context(), filters)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"movements": movements,
		"total":     total,
	})
}

func (h *StockHandler) respondError(c *fiber.Ctx, err error) error {
	var insufficient *stock.InsufficientStockError
	var unknown *stock.UnknownVariantError

	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "insufficient_stock",
			"product_id": insufficient.ProductID,
			"color":      insufficient.Color,
			"size":       insufficient.Size,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.As(err, &unknown):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "unknown_variant",
			"product_id": unknown.ProductID,
			"color":      unknown.Color,
			"size":       unknown.Size,
		})
	case errors.Is(err, stock.ErrStockBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "stock_busy"})
	default:
		h.logger.Error("stock handler error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
