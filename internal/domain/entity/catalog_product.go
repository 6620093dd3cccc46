package entity

import "github.com/shopspring/decimal"

// CatalogProduct es la vista del producto devuelta por el catálogo externo al resolver un SKU.
type CatalogProduct struct {
	ID    int64
	Name  string
	SKU   string
	Price decimal.Decimal
}
