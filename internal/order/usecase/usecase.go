package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelora/storefront-service/internal/catalog"
	"github.com/avelora/storefront-service/internal/events"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order"
	"github.com/avelora/storefront-service/internal/order/dto"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// allowedTransitions is the admin-driven lifecycle. Cancellation is not in
// this map; it runs through CancelOrder so stock is restored exactly once.
var allowedTransitions = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending:    model.OrderStatusConfirmed,
	model.OrderStatusConfirmed:  model.OrderStatusProcessing,
	model.OrderStatusProcessing: model.OrderStatusShipped,
	model.OrderStatusShipped:    model.OrderStatusDelivered,
}

type orderUseCase struct {
	repo      order.Repository
	stockUC   stock.UseCase
	catalog   order.Catalog
	publisher *events.Publisher
	logger    logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, stockUC stock.UseCase, cat order.Catalog, publisher *events.Publisher, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		stockUC:   stockUC,
		catalog:   cat,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *orderUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	if len(input.Lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	products, err := uc.snapshotProducts(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := &model.Order{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Number:          generateOrderNumber(now),
		Status:          model.OrderStatusPending,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
	}
	if input.CustomerPhone != "" {
		phone := input.CustomerPhone
		o.CustomerPhone = &phone
	}

	for _, line := range input.Lines {
		p := products[line.ProductID]
		o.Items = append(o.Items, model.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: line.ProductID,
			Color:     line.Color,
			Size:      line.Size,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		})
		o.Total += p.Price * float64(line.Quantity)
	}

	ref := &stock.MovementRef{Type: "order", ReferenceType: "order", ReferenceID: o.ID}
	err = uc.stockUC.ReserveAndDecrement(ctx, input.Lines, ref, func(ctx context.Context, ext sqlx.ExtContext) error {
		if err := uc.repo.Create(ctx, ext, o); err != nil {
			return fmt.Errorf("%w: %v", order.ErrOrderPersistence, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrOrderPersistence) {
			// The decrement rolled back with the failed insert; stock is
			// consistent, but the storage layer needs attention.
			uc.logger.Error("order persistence failed, stock decrement rolled back",
				zap.String("order_number", o.Number), zap.Error(err))
			return nil, err
		}
		return nil, mapStockError(err)
	}

	go uc.publisher.OrderCreated(context.Background(), o)

	return o, nil
}

func (uc *orderUseCase) CancelOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrOrderNotFound
	}
	if o.Status == model.OrderStatusCancelled || o.StockRestored {
		return nil, order.ErrAlreadyCancelled
	}

	lines := make([]model.StockLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = model.StockLine{
			ProductID: item.ProductID,
			Color:     item.Color,
			Size:      item.Size,
			Quantity:  item.Quantity,
		}
	}

	ref := &stock.MovementRef{Type: "restore", ReferenceType: "order", ReferenceID: o.ID}
	err = uc.stockUC.Restore(ctx, lines, ref, func(ctx context.Context, ext sqlx.ExtContext) error {
		n, err := uc.repo.MarkCancelled(ctx, ext, o.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", order.ErrOrderPersistence, err)
		}
		if n == 0 {
			// A concurrent cancel got here first; abort so the restore
			// does not apply a second time.
			return order.ErrAlreadyCancelled
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrOrderPersistence) {
			uc.logger.Error("order cancellation failed, stock restore rolled back",
				zap.String("order_id", o.ID), zap.Error(err))
		}
		return nil, err
	}

	o.Status = model.OrderStatusCancelled
	o.StockRestored = true

	go uc.publisher.OrderCancelled(context.Background(), o)

	return o, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrOrderNotFound
	}

	if status == model.OrderStatusCancelled || allowedTransitions[o.Status] != status {
		return nil, errors.Wrapf(order.ErrInvalidTransition, "%s -> %s", o.Status, status)
	}

	if err := uc.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

// snapshotProducts loads the current product rows so order items capture the
// unit price at order time.
func (uc *orderUseCase) snapshotProducts(ctx context.Context, lines []model.StockLine) (map[string]model.Product, error) {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	products, err := uc.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive {
			return nil, errors.Wrapf(catalog.ErrProductNotFound, "product %s", id)
		}
	}
	return byID, nil
}

func mapStockError(err error) error {
	var insufficient *stock.InsufficientStockError
	if errors.As(err, &insufficient) {
		return &order.OutOfStockError{
			ProductID: insufficient.ProductID,
			Color:     insufficient.Color,
			Size:      insufficient.Size,
			Requested: insufficient.Requested,
			Available: insufficient.Available,
		}
	}
	return err
}

func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
