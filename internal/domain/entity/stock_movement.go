package entity

import "time"

// Direcciones de un movimiento de stock.
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// Orígenes de un movimiento de stock.
const (
	MovementOriginSale       = "sale"
	MovementOriginPurchase   = "purchase"
	MovementOriginAdjustment = "adjustment"
	MovementOriginReturn     = "return" // restauración por anulación de documento
)

// StockMovement registra cada cambio de stock de un producto. Se crea como
// efecto de una transición de documento que mueve mercadería, nunca
// directamente desde la API, y siempre en la misma transacción que el documento.
type StockMovement struct {
	ID            string
	CompanyID     string
	ProductID     string
	Direction     string // in | out
	Origin        string // sale | purchase | adjustment | return
	Quantity      int    // siempre positivo; la dirección da el signo
	ResultingStock int   // stock del producto después de aplicar el movimiento
	DocumentID    *string
	Notes         string
	CreatedAt     time.Time
	CreatedBy     string // UserID
}
