// Package afip contiene el modelo normalizado de pedido/respuesta de CAE y
// sus validaciones de dominio. El mapeo al formato de cable de WSFEv1 vive en
// internal/infrastructure/afip.
package afip

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRequest representación normalizada de un comprobante fiscal a autorizar.
// Campos opcionales modelados como punteros/slices: una colección vacía se
// omite del pedido al WS (el esquema remoto rechaza bloques vacíos).
type InvoiceRequest struct {
	// Cabecera
	PointOfSale int
	VoucherType int
	Concept     int // 1=productos, 2=servicios, 3=ambos

	// Detalle
	BuyerDocType int
	BuyerDocNumber int64
	VoucherFrom  int64
	VoucherTo    int64
	IssueDate    time.Time

	// Totales. Invariante: Total = NonTaxed + Net + Exempt + VAT + OtherTaxes
	// (con tolerancia de redondeo de un centavo).
	AmountTotal      decimal.Decimal
	AmountNonTaxed   decimal.Decimal
	AmountNet        decimal.Decimal
	AmountExempt     decimal.Decimal
	AmountVAT        decimal.Decimal
	AmountOtherTaxes decimal.Decimal

	CurrencyCode string
	CurrencyRate decimal.Decimal

	// Fechas de servicio: obligatorias si Concept es 2 o 3.
	ServiceFrom *time.Time
	ServiceTo   *time.Time
	PaymentDue  *time.Time

	// Colecciones opcionales: solo se serializan si no están vacías.
	AssociatedVouchers []AssociatedVoucher
	OtherTaxes         []OtherTax
	VATBreakdown       []VATItem
	Optionals          []Optional
	Buyers             []Buyer
	AssociatedPeriod   *Period
	Activities         []int64
}

// AssociatedVoucher referencia a un comprobante asociado (ej: el original de una nota de crédito).
type AssociatedVoucher struct {
	VoucherType int
	PointOfSale int
	Number      int64
	CUIT        int64 // emisor del comprobante asociado; 0 = omitir
	IssueDate   *time.Time
}

// OtherTax línea de tributo adicional al IVA.
type OtherTax struct {
	TributeID int
	Detail    string
	Base      decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
}

// VATItem subtotal de IVA por alícuota.
type VATItem struct {
	RateID int // iva_id AFIP (3, 4, 5, 6, 8, 9)
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// Optional dato opcional (tabla de opcionales AFIP).
type Optional struct {
	ID    string
	Value string
}

// Buyer comprador en facturación compartida (bienes registrables).
type Buyer struct {
	DocType    int
	DocNumber  int64
	Percentage decimal.Decimal
}

// Period período asociado (créditos fiscales, RG 5259).
type Period struct {
	From time.Time
	To   time.Time
}

// InvoiceResponse resultado de una solicitud de CAE aprobada o con eventos.
type InvoiceResponse struct {
	VoucherNumber int64
	CAE           string
	CAEExpiration time.Time
	Result        string // "A" aprobado | "R" rechazado
	Observations  []Observation
	Events        []Event
}

// Observation observación devuelta por el WS sobre un comprobante.
type Observation struct {
	Code    int
	Message string
}

// Event evento informativo a nivel servicio (mantenimiento programado, etc.).
type Event struct {
	Code    int
	Message string
}
