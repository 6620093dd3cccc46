package inventory

import (
	"context"

	"github.com/jhoicas/stock-service/internal/domain/entity"
)

// CatalogLookup resuelve un SKU contra el catálogo de productos.
// Devuelve domain.ErrProductNotFound cuando el catálogo no conoce el SKU; cualquier otro error es de transporte.
type CatalogLookup interface {
	Resolve(ctx context.Context, sku string) (*entity.CatalogProduct, error)
}

// EventPublisher publica los cambios de stock aplicados.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.StockEvent) error
}

// NopPublisher descarta los eventos (sin brokers configurados).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, entity.StockEvent) error { return nil }
