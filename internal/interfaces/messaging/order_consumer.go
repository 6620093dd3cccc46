package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/stock-service/internal/application/dto"
	"github.com/jhoicas/stock-service/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-service/pkg/logger"
)

// Tipos de evento de pedido consumidos.
const (
	OrderCreated   = "order.created"
	OrderCancelled = "order.cancelled"
)

// OrderEvent payload de los eventos de pedido. Type puede venir en el header event_type.
type OrderEvent struct {
	Type    string                 `json:"type"`
	OrderID string                 `json:"order_id"`
	Items   []dto.StockItemRequest `json:"items"`
}

// StockAdjuster es la parte del motor de inventario que usa el consumidor.
type StockAdjuster interface {
	Deduct(ctx context.Context, items []dto.StockItemRequest) (*dto.StockBatchResponse, error)
	Restore(ctx context.Context, items []dto.StockItemRequest) (*dto.StockBatchResponse, error)
}

// ErrUnknownEvent tipo de evento que el consumidor no procesa.
var ErrUnknownEvent = errors.New("tipo de evento de pedido desconocido")

const (
	defaultReadBackoff = 500 * time.Millisecond
	maxReadBackoff     = 30 * time.Second
)

// OrderConsumer traduce eventos de pedido a bajas y restauraciones de stock.
type OrderConsumer struct {
	consumer    kafka.Consumer
	stock       StockAdjuster
	log         *logger.Logger
	readBackoff time.Duration
}

// Option configura un OrderConsumer.
type Option func(*OrderConsumer)

// WithReadBackoff fija la espera inicial tras un error de lectura; se duplica hasta 30s.
func WithReadBackoff(d time.Duration) Option {
	return func(oc *OrderConsumer) {
		if d > 0 {
			oc.readBackoff = d
		}
	}
}

// NewOrderConsumer construye el consumidor.
func NewOrderConsumer(consumer kafka.Consumer, stock StockAdjuster, log *logger.Logger, opts ...Option) *OrderConsumer {
	oc := &OrderConsumer{
		consumer:    consumer,
		stock:       stock,
		log:         log.Named("order-consumer"),
		readBackoff: defaultReadBackoff,
	}
	for _, opt := range opts {
		opt(oc)
	}
	return oc
}

// Run lee mensajes hasta que ctx se cancele. Los mensajes que fallan se registran y se omiten.
// Tras un error de lectura espera con backoff exponencial antes de reintentar.
func (oc *OrderConsumer) Run(ctx context.Context) error {
	oc.log.Info().Msg("consumidor de pedidos iniciado")
	retry := oc.newReadBackOff()
	for {
		msg, err := oc.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				oc.log.Info().Msg("contexto finalizado, deteniendo consumidor de pedidos")
				return nil
			}
			wait := retry.NextBackOff()
			oc.log.Error().Err(err).Dur("retry_in", wait).Msg("error leyendo de Kafka")
			select {
			case <-ctx.Done():
				oc.log.Info().Msg("contexto finalizado, deteniendo consumidor de pedidos")
				return nil
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()
		if err := oc.Handle(ctx, *msg); err != nil {
			oc.log.Error().Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("mensaje de pedido omitido")
		}
	}
}

func (oc *OrderConsumer) newReadBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = oc.readBackoff
	b.MaxInterval = maxReadBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Handle procesa un mensaje. Un resultado con Success=false no es error: se registra como rechazo.
func (oc *OrderConsumer) Handle(ctx context.Context, msg kafkago.Message) error {
	carrier := propagation.MapCarrier{}
	eventType := ""
	for _, h := range msg.Headers {
		carrier[h.Key] = string(h.Value)
		if h.Key == kafka.HeaderEventType {
			eventType = string(h.Value)
		}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	var ev OrderEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("evento de pedido inválido: %w", err)
	}
	if ev.Type == "" {
		ev.Type = eventType
	}

	var (
		res *dto.StockBatchResponse
		err error
	)
	switch ev.Type {
	case OrderCreated:
		res, err = oc.stock.Deduct(ctx, ev.Items)
	case OrderCancelled:
		res, err = oc.stock.Restore(ctx, ev.Items)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	if err != nil {
		return fmt.Errorf("procesar %s del pedido %s: %w", ev.Type, ev.OrderID, err)
	}

	if !res.Success {
		oc.log.Warn().Str("order_id", ev.OrderID).Str("event", ev.Type).Str("reason", res.Message).Msg("ajuste de stock rechazado")
		return nil
	}
	oc.log.Info().Str("order_id", ev.OrderID).Str("event", ev.Type).Int("items", len(ev.Items)).Msg("ajuste de stock aplicado")
	return nil
}
