package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest alta de producto. Price es el precio final al público
// (IVA incluido en líneas gravadas).
type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required,max=50"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Cost        decimal.Decimal `json:"cost"`
	IVARateID   int             `json:"iva_rate_id" validate:"required"`
	Stock       int             `json:"stock" validate:"min=0"`
	UnitMeasure string          `json:"unit_measure" validate:"max=20"`
}

// UpdateProductRequest modificación de producto. No toca el stock: el stock
// solo cambia por movimientos.
type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Cost        decimal.Decimal `json:"cost"`
	IVARateID   int             `json:"iva_rate_id" validate:"required"`
	UnitMeasure string          `json:"unit_measure" validate:"max=20"`
}

// ProductResponse producto serializado.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	IVARateID   int             `json:"iva_rate_id"`
	Stock       int             `json:"stock"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
