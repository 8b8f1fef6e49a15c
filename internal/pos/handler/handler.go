package handler

import (
	"errors"
	"time"

	"github.com/avelora/storefront-service/internal/auth"
	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/pos"
	"github.com/avelora/storefront-service/internal/pos/dto"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type POSHandler struct {
	uc     pos.UseCase
	logger logger.ZapLogger
}

func NewPOSHandler(uc pos.UseCase, log logger.ZapLogger) *POSHandler {
	return &POSHandler{uc: uc, logger: log}
}

type saleLineRequest struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

type recordSaleRequest struct {
	Lines         []saleLineRequest `json:"lines"`
	PaymentMethod string            `json:"payment_method"`
	CustomerName  string            `json:"customer_name"`
}

func (h *POSHandler) RecordSale(c *fiber.Ctx) error {
	var req recordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	lines := make([]model.StockLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = model.StockLine{ProductID: l.ProductID, Color: l.Color, Size: l.Size, Quantity: l.Quantity}
	}

	t, err := h.uc.RecordSale(c.Context(), &dto.RecordSaleInput{
		Lines:         lines,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CashierID:     auth.UserID(c),
		TerminalID:    auth.TerminalID(c),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *POSHandler) GetTransaction(c *fiber.Ctx) error {
	t, err := h.uc.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	if t == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction_not_found"})
	}
	return c.JSON(t)
}

func (h *POSHandler) ListTransactions(c *fiber.Ctx) error {
	filters := &dto.TransactionFilters{
		BusinessDate: c.Query("date"),
		Page:         c.QueryInt("page", 1),
		PageSize:     c.QueryInt("page_size", 20),
	}

	transactions, total, err := h.uc.ListTransactions(c.Context(), filters)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"transactions": transactions,
		"total":        total,
	})
}

func (h *POSHandler) GetDailySales(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	d, err := h.uc.GetDailySales(c.Context(), date)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(d)
}

func (h *POSHandler) respondError(c *fiber.Ctx, err error) error {
	var insufficient *stock.InsufficientStockError
	var unknown *stock.UnknownVariantError

	switch {
	case errors.Is(err, pos.ErrEmptySale):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty_sale"})
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
	case errors.Is(err, catalog.ErrProductNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product_not_found"})
	case errors.Is(err, stock.ErrStockBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "stock_busy"})
	default:
		h.logger.Error("pos handler error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
