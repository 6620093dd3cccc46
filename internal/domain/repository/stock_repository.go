package repository

import (
	"context"

	"github.com/jhoicas/stock-service/internal/domain/entity"
)

// StockRepository define el puerto de persistencia para StockRecord.
// Las búsquedas sin resultado devuelven (nil, nil).
type StockRepository interface {
	// Save inserta el registro si ID == 0 (asignando ID y timestamps) o actualiza su cantidad.
	// Devuelve domain.ErrDuplicateStock si el SKU o el producto ya tienen stock.
	Save(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error)
	FindBySKU(ctx context.Context, sku string) (*entity.StockRecord, error)
	FindByProductID(ctx context.Context, productID int64) (*entity.StockRecord, error)
	FindAll(ctx context.Context) ([]*entity.StockRecord, error)
	// DeleteBySKU devuelve domain.ErrStockNotFound si no existe.
	DeleteBySKU(ctx context.Context, sku string) error
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// SetQuantity fija la cantidad en una sola escritura de fila.
	// Devuelve domain.ErrStockNotFound si el registro no existe.
	SetQuantity(ctx context.Context, id int64, quantity int) (*entity.StockRecord, error)
	// AdjustQuantity suma delta de forma atómica y condicional (quantity + delta >= 0).
	// Devuelve domain.ErrInsufficientStock si la condición no se cumple y
	// domain.ErrStockNotFound si el registro no existe.
	AdjustQuantity(ctx context.Context, id int64, delta int) (*entity.StockRecord, error)
}
