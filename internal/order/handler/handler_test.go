package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order"
	"github.com/avelora/storefront-service/internal/order/dto"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	placeErr  error
	placed    *dto.PlaceOrderInput
	cancelErr error
}

func (s *stubUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	s.placed = input
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &model.Order{
		BaseModel: model.BaseModel{ID: "o1"},
		Number:    "ORD-20260831-ABC123",
		Status:    model.OrderStatusPending,
		Total:     40,
	}, nil
}

func (s *stubUseCase) CancelOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &model.Order{BaseModel: model.BaseModel{ID: orderID}, Status: model.OrderStatusCancelled}, nil
}

func (s *stubUseCase) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return nil, order.ErrOrderNotFound
}

func (s *stubUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (s *stubUseCase) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	return nil, order.ErrInvalidTransition
}

func newTestApp(uc order.UseCase) *fiber.App {
	h := NewOrderHandler(uc, logger.NewNop())
	app := fiber.New()
	app.Post("/orders", h.PlaceOrder)
	app.Get("/orders/:id", h.GetOrder)
	app.Post("/orders/:id/cancel", h.CancelOrder)
	app.Patch("/orders/:id/status", h.UpdateStatus)
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPlaceOrderHandler(t *testing.T) {
	uc := &stubUseCase{}
	app := newTestApp(uc)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/orders", fiber.Map{
		"lines": []fiber.Map{
			{"product_id": "p1", "color": "red", "size": "M", "quantity": 2},
		},
		"customer_name":  "Ayu",
		"payment_method": "transfer",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NotNil(t, uc.placed)
	require.Len(t, uc.placed.Lines, 1)
	assert.Equal(t, int64(2), uc.placed.Lines[0].Quantity)

	var o model.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Equal(t, "ORD-20260831-ABC123", o.Number)
}

func TestPlaceOrderHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty cart", order.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
		{"out of stock", &order.OutOfStockError{ProductID: "p1", Color: "red", Size: "M", Requested: 5, Available: 2}, http.StatusConflict, "out_of_stock"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&stubUseCase{placeErr: tc.err})

			resp, err := app.Test(jsonRequest(http.MethodPost, "/orders", fiber.Map{"lines": []fiber.Map{}}))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body["error"])
		})
	}
}

func TestGetOrderHandlerNotFound(t *testing.T) {
	app := newTestApp(&stubUseCase{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelOrderHandlerAlreadyCancelled(t *testing.T) {
	app := newTestApp(&stubUseCase{cancelErr: order.ErrAlreadyCancelled})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/orders/o1/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateStatusHandlerInvalidTransition(t *testing.T) {
	app := newTestApp(&stubUseCase{})

	resp, err := app.Test(jsonRequest(http.MethodPatch, "/orders/o1/status", fiber.Map{"status": "shipped"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
