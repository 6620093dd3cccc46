package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-service/internal/domain"
	"github.com/jhoicas/stock-service/internal/domain/entity"
	"github.com/jhoicas/stock-service/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id, product_id, sku, quantity, created_at, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// Las mutaciones de cantidad son una única sentencia UPDATE por fila; la condición
// quantity + delta >= 0 se evalúa en la misma sentencia.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Save inserta un registro nuevo (ID == 0) o actualiza su cantidad.
func (r *StockRepo) Save(ctx context.Context, rec *entity.StockRecord) (*entity.StockRecord, error) {
	if rec.ID != 0 {
		return r.SetQuantity(ctx, rec.ID, rec.Quantity)
	}
	query := `
		INSERT INTO stock (product_id, sku, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING ` + stockColumns
	out, err := scanStock(r.q.QueryRow(ctx, query, rec.ProductID, rec.SKU, rec.Quantity))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateStock
		}
		if isCheckViolation(err) {
			return nil, domain.ErrInvalidQuantity
		}
		return nil, fmt.Errorf("insert stock: %w", err)
	}
	return out, nil
}

// FindBySKU devuelve (nil, nil) si no existe.
func (r *StockRepo) FindBySKU(ctx context.Context, sku string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE sku = $1`
	out, err := scanStock(r.q.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock by sku: %w", err)
	}
	return out, nil
}

// FindByProductID devuelve (nil, nil) si no existe.
func (r *StockRepo) FindByProductID(ctx context.Context, productID int64) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE product_id = $1`
	out, err := scanStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock by product: %w", err)
	}
	return out, nil
}

// FindAll lista todo el stock ordenado por id.
func (r *StockRepo) FindAll(ctx context.Context) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock ORDER BY id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockRecord
	for rows.Next() {
		rec, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return list, nil
}

func (r *StockRepo) DeleteBySKU(ctx context.Context, sku string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock WHERE sku = $1`, sku)
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

func (r *StockRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock WHERE sku = $1)`, sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists stock: %w", err)
	}
	return exists, nil
}

func (r *StockRepo) SetQuantity(ctx context.Context, id int64, quantity int) (*entity.StockRecord, error) {
	query := `
		UPDATE stock SET quantity = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + stockColumns
	out, err := scanStock(r.q.QueryRow(ctx, query, id, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		if isCheckViolation(err) || isOutOfRange(err) {
			return nil, domain.ErrInvalidQuantity
		}
		return nil, fmt.Errorf("set stock quantity: %w", err)
	}
	return out, nil
}

// AdjustQuantity suma delta sólo si el resultado no queda negativo.
// Sin fila afectada distingue registro inexistente de stock insuficiente.
func (r *StockRepo) AdjustQuantity(ctx context.Context, id int64, delta int) (*entity.StockRecord, error) {
	query := `
		UPDATE stock SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING ` + stockColumns
	out, err := scanStock(r.q.QueryRow(ctx, query, id, delta))
	if err == nil {
		return out, nil
	}
	if isOutOfRange(err) {
		return nil, domain.ErrInvalidQuantity
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust stock quantity: %w", err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("adjust stock quantity: %w", err)
	}
	if !exists {
		return nil, domain.ErrStockNotFound
	}
	return nil, domain.ErrInsufficientStock
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var rec entity.StockRecord
	var qty int32
	if err := row.Scan(&rec.ID, &rec.ProductID, &rec.SKU, &qty, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Quantity = int(qty)
	return &rec, nil
}
