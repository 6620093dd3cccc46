package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-service/internal/application/inventory"
	"github.com/jhoicas/stock-service/internal/domain/repository"
	"github.com/jhoicas/stock-service/internal/infrastructure/catalog"
	"github.com/jhoicas/stock-service/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-service/internal/infrastructure/memory"
	"github.com/jhoicas/stock-service/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-service/internal/interfaces/messaging"
	"github.com/jhoicas/stock-service/internal/platform/observability"
	"github.com/jhoicas/stock-service/pkg/config"
	"github.com/jhoicas/stock-service/pkg/logger"
)

// Container agrupa los recursos compartidos por cmd/api y cmd/worker.
type Container struct {
	Config *config.Config
	Log    *logger.Logger
	Stock  *inventory.StockUseCase

	tp      trace.TracerProvider
	closers []func(context.Context) error
}

// NewContainer carga configuración, logger, trazas, almacén, catálogo y publicador de eventos.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	c := &Container{Config: cfg, Log: log}

	_, shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.Otel)
	if err != nil {
		// Sin exportador las trazas siguen propagándose; no es fatal.
		log.Error().Err(err).Msg("configurar OpenTelemetry")
	}
	if shutdownTracing != nil {
		c.closers = append(c.closers, shutdownTracing)
	}
	c.tp = otel.GetTracerProvider()

	repo, err := c.stockRepository(ctx)
	if err != nil {
		c.Shutdown(ctx)
		return nil, err
	}

	publisher, err := c.eventPublisher()
	if err != nil {
		c.Shutdown(ctx)
		return nil, err
	}

	catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	c.Stock = inventory.NewStockUseCase(repo, catalogClient, publisher, log)
	return c, nil
}

func (c *Container) stockRepository(ctx context.Context) (repository.StockRepository, error) {
	if c.Config.Storage.Driver == config.StorageDriverMemory {
		c.Log.Warn().Msg("almacén en memoria: el stock no se persiste")
		return memory.NewStockRepository(), nil
	}

	pool, err := postgres.NewPool(ctx, c.Config.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error {
		pool.Close()
		return nil
	})
	if c.Config.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, c.Log); err != nil {
			return nil, fmt.Errorf("migraciones: %w", err)
		}
	}
	return postgres.NewStockRepository(pool), nil
}

func (c *Container) eventPublisher() (inventory.EventPublisher, error) {
	if !c.Config.Kafka.Enabled() {
		c.Log.Info().Msg("KAFKA_BROKERS vacío: eventos de stock desactivados")
		return inventory.NopPublisher{}, nil
	}
	producer, err := kafka.NewProducer(c.Config.Kafka, c.Config.App.Name, c.tp)
	if err != nil {
		return nil, fmt.Errorf("crear productor Kafka: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { return producer.Close() })
	return kafka.NewStockEventPublisher(producer), nil
}

// NewOrderConsumer crea el consumidor de eventos de pedido; requiere KAFKA_BROKERS.
func (c *Container) NewOrderConsumer() (*messaging.OrderConsumer, error) {
	if !c.Config.Kafka.Enabled() {
		return nil, errors.New("KAFKA_BROKERS es obligatorio para el worker")
	}
	consumer, err := kafka.NewConsumer(c.Config.Kafka, c.tp)
	if err != nil {
		return nil, fmt.Errorf("crear consumidor Kafka: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { return consumer.Close() })
	return messaging.NewOrderConsumer(consumer, c.Stock, c.Log), nil
}

// Shutdown libera los recursos en orden inverso a su creación.
func (c *Container) Shutdown(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			c.Log.Error().Err(err).Msg("liberar recurso")
		}
	}
	c.closers = nil
}
