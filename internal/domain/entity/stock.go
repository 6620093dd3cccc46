package entity

import "time"

// StockRecord representa el stock de un producto identificado por SKU.
// ID y ProductID no cambian tras la creación; Quantity es el único campo mutable.
type StockRecord struct {
	ID        int64
	ProductID int64
	SKU       string // único
	Quantity  int    // nunca negativo
	CreatedAt time.Time
	UpdatedAt time.Time
}
