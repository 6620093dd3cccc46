package entity

import "time"

// Tipos de evento de stock publicados tras cada mutación exitosa.
const (
	StockEventRegistered = "stock.registered"
	StockEventUpdated    = "stock.updated"
	StockEventDeducted   = "stock.deducted"
	StockEventRestored   = "stock.restored"
	StockEventDeleted    = "stock.deleted"
)

// StockEvent describe un cambio aplicado a un StockRecord.
// Delta es la variación aplicada (negativa en baja); BatchID agrupa los eventos de una misma baja/restauración.
type StockEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	SKU        string    `json:"sku"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Delta      int       `json:"delta"`
	BatchID    string    `json:"batch_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
