package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/pkg/broker"
	"github.com/avelora/storefront-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeOrderCreated   = "OrderCreated"
	TypeOrderCancelled = "OrderCancelled"
	TypeSaleCompleted  = "SaleCompleted"
)

type Envelope struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type LinePayload struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

type OrderPayload struct {
	ID     string        `json:"id"`
	Number string        `json:"number"`
	Status string        `json:"status"`
	Total  float64       `json:"total"`
	Items  []LinePayload `json:"items"`
}

type SalePayload struct {
	ID     string        `json:"id"`
	Number string        `json:"number"`
	Total  float64       `json:"total"`
	Items  []LinePayload `json:"items"`
}

// Publisher emits domain events for downstream consumers (reporting,
// notifications). Publishing is best-effort: a broker failure is logged and
// never fails the committed business operation.
type Publisher struct {
	producer *broker.KafkaProducer
	logger   logger.ZapLogger
}

func NewPublisher(producer *broker.KafkaProducer, log logger.ZapLogger) *Publisher {
	return &Publisher{producer: producer, logger: log}
}

func (p *Publisher) OrderCreated(ctx context.Context, o *model.Order) {
	p.publish(ctx, TypeOrderCreated, o.ID, orderPayload(o))
}

func (p *Publisher) OrderCancelled(ctx context.Context, o *model.Order) {
	p.publish(ctx, TypeOrderCancelled, o.ID, orderPayload(o))
}

func (p *Publisher) SaleCompleted(ctx context.Context, t *model.Transaction) {
	items := make([]LinePayload, len(t.Items))
	for i, it := range t.Items {
		items[i] = LinePayload{ProductID: it.ProductID, Color: it.Color, Size: it.Size, Quantity: it.Quantity}
	}
	p.publish(ctx, TypeSaleCompleted, t.ID, SalePayload{
		ID:     t.ID,
		Number: t.Number,
		Total:  t.Total,
		Items:  items,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, payload interface{}) {
	if p == nil || p.producer == nil {
		return
	}

	data, err := json.Marshal(Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if err := p.producer.Publish(ctx, []byte(key), data); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func orderPayload(o *model.Order) OrderPayload {
	items := make([]LinePayload, len(o.Items))
	for i, it := range o.Items {
		items[i] = LinePayload{ProductID: it.ProductID, Color: it.Color, Size: it.Size, Quantity: it.Quantity}
	}
	return OrderPayload{
		ID:     o.ID,
		Number: o.Number,
		Status: string(o.Status),
		Total:  o.Total,
		Items:  items,
	}
}
