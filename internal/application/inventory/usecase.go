package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-service/internal/application/dto"
	"github.com/jhoicas/stock-service/internal/domain"
	"github.com/jhoicas/stock-service/internal/domain/entity"
	"github.com/jhoicas/stock-service/internal/domain/repository"
	"github.com/jhoicas/stock-service/internal/domain/stock"
	"github.com/jhoicas/stock-service/pkg/logger"
)

const tracerName = "github.com/jhoicas/stock-service/internal/application/inventory"

// StockUseCase es el motor de ajuste de inventario: registro, consulta, actualización,
// baja (checkout) y restauración de stock.
// No mantiene locks propios; la consistencia por fila viene de las escrituras condicionales
// del repositorio (SetQuantity / AdjustQuantity).
type StockUseCase struct {
	repo      repository.StockRepository
	catalog   CatalogLookup
	publisher EventPublisher
	log       *logger.Logger
	tracer    trace.Tracer
}

// NewStockUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewStockUseCase(
	repo repository.StockRepository,
	catalog CatalogLookup,
	publisher EventPublisher,
	log *logger.Logger,
) *StockUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		log:       log.Named("inventory"),
		tracer:    otel.Tracer(tracerName),
	}
}

// Register crea el stock de un SKU: rechaza duplicados, valida cantidad y formato del SKU,
// resuelve el producto en el catálogo y persiste el registro.
func (uc *StockUseCase) Register(ctx context.Context, in dto.RegisterStockRequest) (_ *dto.StockMutationResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Register",
		trace.WithAttributes(attribute.String("stock.sku", in.SKU)))
	defer func() { endSpan(span, err) }()

	exists, err := uc.repo.ExistsBySKU(ctx, in.SKU)
	if err != nil {
		return nil, domain.Internal("verificar stock existente", err)
	}
	if exists {
		uc.log.Warn().Str("sku", in.SKU).Msg("stock ya registrado para el SKU")
		return nil, domain.ErrDuplicateStock
	}
	if !stock.ValidateQuantity(in.Quantity) {
		uc.log.Warn().Str("sku", in.SKU).Msg("cantidad inválida")
		return nil, domain.ErrInvalidQuantity
	}
	if !stock.ValidateSKU(in.SKU) {
		uc.log.Warn().Str("sku", in.SKU).Msg("SKU inválido")
		return nil, domain.ErrInvalidSKU
	}

	product, err := uc.catalog.Resolve(ctx, in.SKU)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			uc.log.Warn().Str("sku", in.SKU).Msg("producto no encontrado en el catálogo")
			return nil, domain.ErrProductNotFound
		}
		uc.log.Error().Err(err).Str("sku", in.SKU).Msg("falla al consultar el catálogo")
		return nil, domain.Internal("consultar catálogo", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	saved, err := uc.repo.Save(ctx, &entity.StockRecord{
		ProductID: product.ID,
		SKU:       in.SKU,
		Quantity:  *in.Quantity,
	})
	if err != nil {
		return nil, domain.Internal("registrar stock", err)
	}
	uc.log.Info().Str("sku", saved.SKU).Int64("product_id", saved.ProductID).Int("quantity", saved.Quantity).Msg("stock registrado")
	uc.publish(ctx, newStockEvent(entity.StockEventRegistered, saved, saved.Quantity, ""))
	return toMutationResponse(msgRegistered, saved), nil
}

// UpdateQuantity fija la cantidad del SKU. A diferencia del flujo HTTP, que exige > 0,
// el motor acepta 0 y rechaza negativos con domain.ErrInvalidQuantity.
func (uc *StockUseCase) UpdateQuantity(ctx context.Context, sku string, quantity int) (_ *dto.StockMutationResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.UpdateQuantity",
		trace.WithAttributes(attribute.String("stock.sku", sku), attribute.Int("stock.quantity", quantity)))
	defer func() { endSpan(span, err) }()

	record, err := uc.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, domain.Internal("consultar stock", err)
	}
	if record == nil {
		return nil, domain.ErrStockNotFound
	}
	if !stock.ValidateQuantity(&quantity) {
		uc.log.Warn().Str("sku", sku).Int("quantity", quantity).Msg("cantidad inválida")
		return nil, domain.ErrInvalidQuantity
	}

	updated, err := uc.repo.SetQuantity(ctx, record.ID, quantity)
	if err != nil {
		return nil, domain.Internal("actualizar stock", err)
	}
	uc.log.Info().Str("sku", sku).Int("from", record.Quantity).Int("to", updated.Quantity).Msg("stock actualizado")
	uc.publish(ctx, newStockEvent(entity.StockEventUpdated, updated, updated.Quantity-record.Quantity, ""))
	return toMutationResponse(msgUpdated, updated), nil
}

type appliedDeduction struct {
	record   *entity.StockRecord
	quantity int
}

// Deduct descuenta el lote completo o nada.
// Fase 1 verifica todos los ítems sin mutar; ante el primer producto sin stock o con cantidad
// insuficiente devuelve Success=false nombrándolo. Fase 2 relee cada registro y aplica un
// decremento condicional; si una escritura concurrente dejó la cantidad insuficiente entre fases,
// revierte los ítems ya aplicados y devuelve Success=false.
func (uc *StockUseCase) Deduct(ctx context.Context, items []dto.StockItemRequest) (_ *dto.StockBatchResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Deduct",
		trace.WithAttributes(attribute.Int("stock.items", len(items))))
	defer func() { endSpan(span, err) }()

	if err := validateItems(items); err != nil {
		return nil, err
	}

	for _, item := range items {
		record, err := uc.repo.FindByProductID(ctx, item.ProductID)
		if err != nil {
			return nil, domain.Internal("consultar stock", err)
		}
		if record == nil || record.Quantity < item.Quantity {
			uc.log.Warn().Int64("product_id", item.ProductID).Int("requested", item.Quantity).Msg("stock insuficiente, baja rechazada")
			span.SetAttributes(attribute.Int64("stock.failed_product_id", item.ProductID))
			return batchFailed(msgInsufficientFmt, item.ProductID), nil
		}
	}

	batchID := uuid.New().String()
	applied := make([]appliedDeduction, 0, len(items))
	for _, item := range items {
		updated, err := uc.decrement(ctx, item)
		if err != nil {
			uc.compensate(ctx, batchID, applied)
			if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrStockNotFound) {
				uc.log.Warn().Str("batch_id", batchID).Int64("product_id", item.ProductID).Msg("stock modificado entre validación y aplicación, baja revertida")
				span.SetAttributes(attribute.Int64("stock.failed_product_id", item.ProductID))
				return batchFailed(msgInsufficientFmt, item.ProductID), nil
			}
			return nil, domain.Internal("descontar stock", err)
		}
		applied = append(applied, appliedDeduction{record: updated, quantity: item.Quantity})
	}

	for _, a := range applied {
		uc.publish(ctx, newStockEvent(entity.StockEventDeducted, a.record, -a.quantity, batchID))
	}
	uc.log.Info().Str("batch_id", batchID).Int("items", len(items)).Msg("baja de stock aplicada")
	return batchOK(msgDeducted), nil
}

func (uc *StockUseCase) decrement(ctx context.Context, item dto.StockItemRequest) (*entity.StockRecord, error) {
	record, err := uc.repo.FindByProductID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrStockNotFound
	}
	return uc.repo.AdjustQuantity(ctx, record.ID, -item.Quantity)
}

// compensate devuelve lo ya descontado en orden inverso. Usa un contexto sin cancelación
// para no dejar la reversión a medias si el request se cancela.
func (uc *StockUseCase) compensate(ctx context.Context, batchID string, applied []appliedDeduction) {
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		if _, err := uc.repo.AdjustQuantity(ctx, a.record.ID, a.quantity); err != nil {
			uc.log.Error().Err(err).
				Str("batch_id", batchID).
				Int64("product_id", a.record.ProductID).
				Int("quantity", a.quantity).
				Msg("no se pudo revertir la baja parcial")
		}
	}
}

// Restore devuelve stock ítem por ítem. Ante un producto sin stock se detiene y devuelve
// Success=false; los ítems anteriores quedan restaurados (sin rollback, a diferencia de Deduct).
func (uc *StockUseCase) Restore(ctx context.Context, items []dto.StockItemRequest) (_ *dto.StockBatchResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Restore",
		trace.WithAttributes(attribute.Int("stock.items", len(items))))
	defer func() { endSpan(span, err) }()

	if err := validateItems(items); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	for _, item := range items {
		record, err := uc.repo.FindByProductID(ctx, item.ProductID)
		if err != nil {
			return nil, domain.Internal("consultar stock", err)
		}
		if record == nil {
			uc.log.Warn().Str("batch_id", batchID).Int64("product_id", item.ProductID).Msg("stock no encontrado, restauración interrumpida")
			span.SetAttributes(attribute.Int64("stock.failed_product_id", item.ProductID))
			return batchFailed(msgRestoreMissedFmt, item.ProductID), nil
		}
		if !stock.CanIncrease(record.Quantity, item.Quantity) {
			uc.log.Warn().Str("batch_id", batchID).Int64("product_id", item.ProductID).Int("quantity", item.Quantity).Msg("restauración supera el stock máximo")
			return nil, domain.ErrInvalidQuantity
		}
		updated, err := uc.repo.AdjustQuantity(ctx, record.ID, item.Quantity)
		if errors.Is(err, domain.ErrStockNotFound) {
			return batchFailed(msgRestoreMissedFmt, item.ProductID), nil
		}
		if err != nil {
			return nil, domain.Internal("restaurar stock", err)
		}
		uc.publish(ctx, newStockEvent(entity.StockEventRestored, updated, item.Quantity, batchID))
	}
	uc.log.Info().Str("batch_id", batchID).Int("items", len(items)).Msg("stock restaurado")
	return batchOK(msgRestored), nil
}

// LookupBySKU devuelve el stock de un SKU o domain.ErrStockNotFound.
func (uc *StockUseCase) LookupBySKU(ctx context.Context, sku string) (_ *dto.StockResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.LookupBySKU",
		trace.WithAttributes(attribute.String("stock.sku", sku)))
	defer func() { endSpan(span, err) }()

	record, err := uc.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, domain.Internal("consultar stock", err)
	}
	if record == nil {
		return nil, domain.ErrStockNotFound
	}
	out := toStockResponse(record)
	return &out, nil
}

// ListAll devuelve todos los registros en el orden del repositorio, sin paginación.
func (uc *StockUseCase) ListAll(ctx context.Context) (_ []dto.StockResponse, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.ListAll")
	defer func() { endSpan(span, err) }()

	records, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, domain.Internal("listar stock", err)
	}
	out := make([]dto.StockResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toStockResponse(r))
	}
	return out, nil
}

// Delete elimina el stock de un SKU o devuelve domain.ErrStockNotFound.
func (uc *StockUseCase) Delete(ctx context.Context, sku string) (err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Delete",
		trace.WithAttributes(attribute.String("stock.sku", sku)))
	defer func() { endSpan(span, err) }()

	record, err := uc.repo.FindBySKU(ctx, sku)
	if err != nil {
		return domain.Internal("consultar stock", err)
	}
	if record == nil {
		uc.log.Warn().Str("sku", sku).Msg("stock no encontrado para eliminar")
		return domain.ErrStockNotFound
	}
	if err := uc.repo.DeleteBySKU(ctx, sku); err != nil {
		return domain.Internal("eliminar stock", err)
	}
	uc.log.Info().Str("sku", sku).Msg("stock eliminado")
	uc.publish(ctx, newStockEvent(entity.StockEventDeleted, record, -record.Quantity, ""))
	return nil
}

func (uc *StockUseCase) publish(ctx context.Context, ev entity.StockEvent) {
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Error().Err(err).Str("event", ev.Type).Str("sku", ev.SKU).Msg("no se pudo publicar el evento de stock")
	}
}

func validateItems(items []dto.StockItemRequest) error {
	for _, item := range items {
		if !stock.ValidateQuantity(&item.Quantity) {
			return domain.ErrInvalidQuantity
		}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
