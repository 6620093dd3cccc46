package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-service/internal/domain/entity"
	"github.com/jhoicas/stock-service/internal/infrastructure/kafka"
)

type fakeProducer struct {
	msgs []kafkago.Message
	err  error
}

func (p *fakeProducer) WriteMessage(_ context.Context, msg kafkago.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestStockEventPublisher_Publish(t *testing.T) {
	prod := &fakeProducer{}
	pub := kafka.NewStockEventPublisher(prod)

	ev := entity.StockEvent{
		ID:         "evt-1",
		Type:       entity.StockEventDeducted,
		SKU:        "AP-IPH-001",
		ProductID:  7,
		Quantity:   3,
		Delta:      -2,
		BatchID:    "batch-1",
		OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, prod.msgs, 1)

	msg := prod.msgs[0]
	assert.Equal(t, "AP-IPH-001", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, kafka.HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, entity.StockEventDeducted, string(msg.Headers[0].Value))

	var decoded entity.StockEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestStockEventPublisher_PublishError(t *testing.T) {
	pub := kafka.NewStockEventPublisher(&fakeProducer{err: errors.New("broker no disponible")})

	err := pub.Publish(context.Background(), entity.StockEvent{Type: entity.StockEventRestored, SKU: "AP-IPH-001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stock.restored")
	assert.Contains(t, err.Error(), "broker no disponible")
}
