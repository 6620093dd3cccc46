package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-service/internal/domain"
	"github.com/jhoicas/stock-service/internal/domain/entity"
	"github.com/jhoicas/stock-service/internal/domain/repository"
	"github.com/jhoicas/stock-service/internal/domain/stock"
)

// StockRepository implementación en memoria de repository.StockRepository.
// Se usa con STORAGE_DRIVER=memory y en tests; devuelve copias para que el llamador no mute el estado.
type StockRepository struct {
	mu     sync.RWMutex
	byID   map[int64]*entity.StockRecord
	nextID int64
}

var _ repository.StockRepository = (*StockRepository)(nil)

// NewStockRepository crea un repositorio vacío.
func NewStockRepository() *StockRepository {
	return &StockRepository{byID: make(map[int64]*entity.StockRecord)}
}

// Seed inserta un registro sin validaciones (tests y bootstrap).
func (r *StockRepository) Seed(productID int64, sku string, quantity int) *entity.StockRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	rec := &entity.StockRecord{
		ID:        r.nextID,
		ProductID: productID,
		SKU:       sku,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[rec.ID] = rec
	return clone(rec)
}

func (r *StockRepository) Save(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error) {
	_ = ctx
	if record.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.ID == record.ID {
			continue
		}
		if existing.SKU == record.SKU || existing.ProductID == record.ProductID {
			return nil, domain.ErrDuplicateStock
		}
	}

	now := time.Now().UTC()
	if record.ID == 0 {
		r.nextID++
		rec := clone(record)
		rec.ID = r.nextID
		rec.CreatedAt = now
		rec.UpdatedAt = now
		r.byID[rec.ID] = rec
		return clone(rec), nil
	}

	existing, ok := r.byID[record.ID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	existing.Quantity = record.Quantity
	existing.UpdatedAt = now
	return clone(existing), nil
}

func (r *StockRepository) FindBySKU(ctx context.Context, sku string) (*entity.StockRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.byID {
		if rec.SKU == sku {
			return clone(rec), nil
		}
	}
	return nil, nil
}

func (r *StockRepository) FindByProductID(ctx context.Context, productID int64) (*entity.StockRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.byID {
		if rec.ProductID == productID {
			return clone(rec), nil
		}
	}
	return nil, nil
}

// FindAll devuelve los registros ordenados por ID.
func (r *StockRepository) FindAll(ctx context.Context) ([]*entity.StockRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.StockRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, clone(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StockRepository) DeleteBySKU(ctx context.Context, sku string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.byID {
		if rec.SKU == sku {
			delete(r.byID, id)
			return nil
		}
	}
	return domain.ErrStockNotFound
}

func (r *StockRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	rec, err := r.FindBySKU(ctx, sku)
	return rec != nil, err
}

func (r *StockRepository) SetQuantity(ctx context.Context, id int64, quantity int) (*entity.StockRecord, error) {
	_ = ctx
	if !stock.ValidateQuantity(&quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	rec.Quantity = quantity
	rec.UpdatedAt = time.Now().UTC()
	return clone(rec), nil
}

func (r *StockRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (*entity.StockRecord, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	if !stock.CanIncrease(rec.Quantity, delta) {
		return nil, domain.ErrInvalidQuantity
	}
	if rec.Quantity+delta < 0 {
		return nil, domain.ErrInsufficientStock
	}
	rec.Quantity += delta
	rec.UpdatedAt = time.Now().UTC()
	return clone(rec), nil
}

func clone(rec *entity.StockRecord) *entity.StockRecord {
	c := *rec
	return &c
}
