package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del inventario.
// Stock es el stock físico actual; cada cambio queda registrado en StockMovement.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta final (IVA incluido)
	Cost        decimal.Decimal // último costo de compra
	IVARateID   int             // alícuota AFIP: 3=0%, 4=10,5%, 5=21%, 6=27%
	Stock       int
	UnitMeasure string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
