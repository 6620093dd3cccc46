package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-service/internal/application/dto"
	"github.com/jhoicas/stock-service/internal/application/inventory"
	"github.com/jhoicas/stock-service/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-service/internal/infrastructure/memory"
	"github.com/jhoicas/stock-service/internal/interfaces/messaging"
	"github.com/jhoicas/stock-service/pkg/logger"
)

type StockAdjusterMock struct{ mock.Mock }

func (m *StockAdjusterMock) Deduct(ctx context.Context, items []dto.StockItemRequest) (*dto.StockBatchResponse, error) {
	args := m.Called(ctx, items)
	res, _ := args.Get(0).(*dto.StockBatchResponse)
	return res, args.Error(1)
}

func (m *StockAdjusterMock) Restore(ctx context.Context, items []dto.StockItemRequest) (*dto.StockBatchResponse, error) {
	args := m.Called(ctx, items)
	res, _ := args.Get(0).(*dto.StockBatchResponse)
	return res, args.Error(1)
}

// flakyConsumer falla las primeras failures lecturas y luego delega en chanConsumer.
type flakyConsumer struct {
	chanConsumer
	failures int
	mu       sync.Mutex
	reads    []time.Time
}

func (c *flakyConsumer) ReadMessage(ctx context.Context) (*kafkago.Message, error) {
	c.mu.Lock()
	c.reads = append(c.reads, time.Now())
	fail := len(c.reads) <= c.failures
	c.mu.Unlock()
	if fail {
		return nil, errors.New("broker no disponible")
	}
	return c.chanConsumer.ReadMessage(ctx)
}

func (c *flakyConsumer) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reads)
}

// chanConsumer entrega los mensajes encolados y luego bloquea hasta que ctx se cancele.
type chanConsumer struct {
	msgs chan kafkago.Message
}

func (c *chanConsumer) ReadMessage(ctx context.Context) (*kafkago.Message, error) {
	select {
	case m := <-c.msgs:
		return &m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *chanConsumer) Close() error { return nil }

var _ kafka.Consumer = (*chanConsumer)(nil)

func TestOrderConsumer_HandleRoutesByType(t *testing.T) {
	ctx := context.Background()
	items := []dto.StockItemRequest{{ProductID: 1, Quantity: 2}}

	adj := new(StockAdjusterMock)
	adj.On("Deduct", mock.Anything, items).Return(&dto.StockBatchResponse{Success: true}, nil).Once()
	adj.On("Restore", mock.Anything, items).Return(&dto.StockBatchResponse{Success: false, Message: "x"}, nil).Once()
	oc := messaging.NewOrderConsumer(&chanConsumer{}, adj, logger.Nop())

	require.NoError(t, oc.Handle(ctx, kafkago.Message{
		Value: []byte(`{"type":"order.created","order_id":"o-1","items":[{"product_id":1,"quantity":2}]}`),
	}))
	require.NoError(t, oc.Handle(ctx, kafkago.Message{
		Value:   []byte(`{"order_id":"o-1","items":[{"product_id":1,"quantity":2}]}`),
		Headers: []kafkago.Header{{Key: kafka.HeaderEventType, Value: []byte(messaging.OrderCancelled)}},
	}))
	adj.AssertExpectations(t)
}

func TestOrderConsumer_HandleErrors(t *testing.T) {
	ctx := context.Background()
	adj := new(StockAdjusterMock)
	oc := messaging.NewOrderConsumer(&chanConsumer{}, adj, logger.Nop())

	err := oc.Handle(ctx, kafkago.Message{Value: []byte(`{`)})
	assert.Error(t, err)

	err = oc.Handle(ctx, kafkago.Message{Value: []byte(`{"type":"order.shipped"}`)})
	assert.ErrorIs(t, err, messaging.ErrUnknownEvent)

	adj.On("Deduct", mock.Anything, mock.Anything).Return(nil, errors.New("db caída"))
	err = oc.Handle(ctx, kafkago.Message{Value: []byte(`{"type":"order.created","order_id":"o-2","items":[]}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "o-2")
}

func TestOrderConsumer_RunAppliesDeduction(t *testing.T) {
	repo := memory.NewStockRepository()
	repo.Seed(1, "AP-IPH-001", 5)
	uc := inventory.NewStockUseCase(repo, nil, nil, nil)

	cons := &chanConsumer{msgs: make(chan kafkago.Message, 2)}
	cons.msgs <- kafkago.Message{Value: []byte(`not-json`)}
	cons.msgs <- kafkago.Message{Value: []byte(`{"type":"order.created","order_id":"o-3","items":[{"product_id":1,"quantity":3}]}`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- messaging.NewOrderConsumer(cons, uc, logger.Nop()).Run(ctx) }()

	assert.Eventually(t, func() bool {
		rec, _ := repo.FindByProductID(context.Background(), 1)
		return rec != nil && rec.Quantity == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestOrderConsumer_RunBacksOffOnReadErrors(t *testing.T) {
	repo := memory.NewStockRepository()
	repo.Seed(1, "AP-IPH-001", 5)
	uc := inventory.NewStockUseCase(repo, nil, nil, nil)

	cons := &flakyConsumer{chanConsumer: chanConsumer{msgs: make(chan kafkago.Message, 1)}, failures: 3}
	cons.msgs <- kafkago.Message{Value: []byte(`{"type":"order.created","order_id":"o-4","items":[{"product_id":1,"quantity":1}]}`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	start := time.Now()
	go func() {
		done <- messaging.NewOrderConsumer(cons, uc, logger.Nop(), messaging.WithReadBackoff(20*time.Millisecond)).Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		rec, _ := repo.FindByProductID(context.Background(), 1)
		return rec != nil && rec.Quantity == 4
	}, 2*time.Second, 10*time.Millisecond)
	// 20ms + 40ms + 80ms de espera antes de la cuarta lectura.
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
	assert.Eventually(t, func() bool { return cons.readCount() == 5 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestOrderConsumer_RunStopsDuringBackoff(t *testing.T) {
	cons := &flakyConsumer{failures: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- messaging.NewOrderConsumer(cons, new(StockAdjusterMock), logger.Nop(), messaging.WithReadBackoff(time.Hour)).Run(ctx)
	}()

	assert.Eventually(t, func() bool { return cons.readCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run no terminó al cancelar el contexto")
	}
	assert.Equal(t, 1, cons.readCount())
}
