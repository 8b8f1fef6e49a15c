package handler

import (
	"errors"

	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order"
	"github.com/avelora/storefront-service/internal/order/dto"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

type placeOrderRequest struct {
	Lines           []orderLineRequest `json:"lines"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
	ShippingAddress string             `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	lines := make([]model.StockLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = model.StockLine{ProductID: l.ProductID, Color: l.Color, Size: l.Size, Quantity: l.Quantity}
	}

	o, err := h.uc.PlaceOrder(c.Context(), &dto.PlaceOrderInput{
		Lines:           lines,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	o, err := h.uc.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(o)
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filters := &dto.OrderFilters{
		Status:   c.Query("status"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	orders, total, err := h.uc.ListOrders(c.Context(), filters)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
	})
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	o, err := h.uc.CancelOrder(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(o)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	o, err := h.uc.UpdateStatus(c.Context(), c.Params("id"), model.OrderStatus(req.Status))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(o)
}

func (h *OrderHandler) respondError(c *fiber.Ctx, err error) error {
	var outOfStock *order.OutOfStockError
	var unknown *stock.UnknownVariantError

	switch {
	case errors.Is(err, order.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty_cart"})
	case errors.As(err, &outOfStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "out_of_stock",
			"product_id": outOfStock.ProductID,
			"color":      outOfStock.Color,
			"size":       outOfStock.Size,
			"requested":  outOfStock.Requested,
			"available":  outOfStock.Available,
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
	case errors.Is(err, order.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
	case errors.Is(err, order.ErrAlreadyCancelled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_cancelled"})
	case errors.Is(err, order.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_transition"})
	case errors.Is(err, stock.ErrStockBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "stock_busy"})
	default:
		h.logger.Error("order handler error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
