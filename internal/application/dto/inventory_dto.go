package dto

import "time"

// AdjustStockRequest ajuste manual de stock (conteo físico, rotura, merma).
// Delta es el cambio con signo; el movimiento resultante registra el origen
// "adjustment" y el stock final del producto.
type AdjustStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Delta     int    `json:"delta" validate:"required"`
	Notes     string `json:"notes" validate:"max=500"`
}

// MovementFilter filtros para el historial de movimientos de un producto.
type MovementFilter struct {
	From *time.Time `query:"from"`
	To   *time.Time `query:"to"`
}

// StockMovementResponse movimiento de stock serializado.
type StockMovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	Direction      string    `json:"direction"`
	Origin         string    `json:"origin"`
	Quantity       int       `json:"quantity"`
	ResultingStock int       `json:"resulting_stock"`
	DocumentID     *string   `json:"document_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
}
