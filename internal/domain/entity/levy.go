package entity

import "github.com/shopspring/decimal"

// Bases de cálculo de un tributo. El anexo de AFIP no fija una base universal:
// cada definición de tributo declara la suya.
const (
	LevyBaseNet   = "neto"  // se calcula sobre el neto gravado acumulado (sin IVA)
	LevyBaseGross = "bruto" // se calcula sobre el total acumulado (neto + IVA)
)

// Levy define un tributo adicional al IVA (percepción, ingresos brutos, tasa municipal).
type Levy struct {
	ID        string
	CompanyID string
	TributeID int    // tributo_id AFIP (5=IIBB, 6=percepción IVA, 99=otro)
	Name      string
	Base      string          // LevyBaseNet | LevyBaseGross
	Rate      decimal.Decimal // alícuota en proporción (0.035 = 3,5%)
}

// LevyLine tributo aplicado a un documento con su importe calculado.
type LevyLine struct {
	ID         string
	DocumentID string
	Levy       *Levy
	BaseAmount decimal.Decimal
	Amount     decimal.Decimal
}
