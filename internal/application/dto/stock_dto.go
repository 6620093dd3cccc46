package dto

// RegisterStockRequest body para POST /api/stock.
// Quantity es puntero para distinguir ausencia de cero.
type RegisterStockRequest struct {
	SKU      string `json:"sku" example:"AP-IPH-001"`
	Quantity *int   `json:"quantity" example:"10"`
}

// StockItemRequest ítem de una baja o restauración de stock.
type StockItemRequest struct {
	ProductID int64 `json:"product_id" example:"1"`
	Quantity  int   `json:"quantity" example:"2"`
}

// StockBatchRequest body para POST /api/stock/deduct y /api/stock/restore.
type StockBatchRequest struct {
	Items []StockItemRequest `json:"items"`
}

// StockBatchResponse resultado de una baja o restauración.
// Success=false con Message indica stock insuficiente o producto sin stock, no un fallo de infraestructura.
type StockBatchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StockMutationResponse confirmación de registro o actualización de cantidad.
type StockMutationResponse struct {
	Message  string `json:"message"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// StockResponse vista pública de un registro de stock.
type StockResponse struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}
