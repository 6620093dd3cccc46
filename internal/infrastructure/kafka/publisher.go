package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-service/internal/application/inventory"
	"github.com/jhoicas/stock-service/internal/domain/entity"
)

var _ inventory.EventPublisher = (*StockEventPublisher)(nil)

// HeaderEventType header con el tipo de evento (stock.deducted, ...).
const HeaderEventType = "event_type"

// StockEventPublisher publica StockEvent en JSON con el SKU como key,
// de modo que los eventos de un mismo SKU caen en la misma partición.
type StockEventPublisher struct {
	producer Producer
}

// NewStockEventPublisher construye el publicador sobre un Producer.
func NewStockEventPublisher(p Producer) *StockEventPublisher {
	return &StockEventPublisher{producer: p}
}

func (p *StockEventPublisher) Publish(ctx context.Context, ev entity.StockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.Type, err)
	}
	msg := kafkago.Message{
		Key:   []byte(ev.SKU),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(ev.Type)},
		},
	}
	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s: %w", ev.Type, err)
	}
	return nil
}
