package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-service/internal/application/dto"
	"github.com/jhoicas/stock-service/internal/domain/entity"
)

// Mensajes de resultado expuestos al consumidor (flujo de pedidos).
const (
	msgRegistered       = "stock registrado con éxito"
	msgUpdated          = "stock actualizado con éxito"
	msgDeducted         = "stock descontado con éxito"
	msgRestored         = "stock restaurado con éxito"
	msgInsufficientFmt  = "stock insuficiente para el producto ID: %d"
	msgRestoreMissedFmt = "stock no encontrado para el producto ID: %d"
)

func toStockResponse(r *entity.StockRecord) dto.StockResponse {
	return dto.StockResponse{
		ProductID: r.ProductID,
		SKU:       r.SKU,
		Quantity:  r.Quantity,
	}
}

func toMutationResponse(msg string, r *entity.StockRecord) *dto.StockMutationResponse {
	return &dto.StockMutationResponse{
		Message:  msg,
		SKU:      r.SKU,
		Quantity: r.Quantity,
	}
}

func batchOK(msg string) *dto.StockBatchResponse {
	return &dto.StockBatchResponse{Success: true, Message: msg}
}

func batchFailed(format string, productID int64) *dto.StockBatchResponse {
	return &dto.StockBatchResponse{Success: false, Message: fmt.Sprintf(format, productID)}
}

func newStockEvent(eventType string, r *entity.StockRecord, delta int, batchID string) entity.StockEvent {
	return entity.StockEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		SKU:        r.SKU,
		ProductID:  r.ProductID,
		Quantity:   r.Quantity,
		Delta:      delta,
		BatchID:    batchID,
		OccurredAt: time.Now().UTC(),
	}
}
