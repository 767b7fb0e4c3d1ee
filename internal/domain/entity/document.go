package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

// Estados del ciclo de vida de un documento de venta/compra.
const (
	StateDraft     = "DRAFT"      // presupuesto/orden editable
	StateNonFiscal = "NON_FISCAL" // ticket interno, no requiere CAE
	StateFiscal    = "FISCAL"     // comprobante con CAE obtenido
	StateVoided    = "VOIDED"     // anulado (con nota de crédito si era fiscal)
)

// Clases de documento.
const (
	KindSale     = "sale"
	KindPurchase = "purchase"
)

// allowedTransitions tabla de transiciones permitidas del estado del documento.
// Todo par origen->destino que no figure aquí es un ErrInvalidTransition.
var allowedTransitions = map[string]map[string]bool{
	StateDraft: {
		StateNonFiscal: true,
		StateFiscal:    true,
	},
	StateNonFiscal: {
		StateVoided: true,
	},
	StateFiscal: {
		StateVoided: true,
	},
}

// Document representa un documento de venta o compra con su ciclo fiscal.
// Un documento de nota de crédito referencia al original vía AssociatedDocumentID
// (el hijo apunta al padre; el padre nunca conoce al hijo).
type Document struct {
	ID               string
	CompanyID        string
	CustomerID       string
	Kind             string // sale | purchase
	State            string // ver constantes State*
	VoucherType      int    // tipo de comprobante AFIP (1, 3, 6, 8, 11, ...)
	PointOfSale      int
	SequentialNumber int64 // único por (VoucherType, PointOfSale); asignado al emitir
	Concept          int   // 1=productos, 2=servicios, 3=ambos
	IssueDate        time.Time
	ServiceFrom      *time.Time // obligatorios si Concept es 2 o 3
	ServiceTo        *time.Time
	PaymentDue       *time.Time
	Currency         string          // mon_id AFIP ("PES", "DOL", ...)
	CurrencyRate     decimal.Decimal // cotización; 1 para PES
	Items            []*DocumentItem
	Levies           []*LevyLine

	// Totales derivados de los ítems (ver billing.ComputeTotals).
	GrossAmount  decimal.Decimal // neto gravado
	VATAmount    decimal.Decimal
	ExemptAmount decimal.Decimal
	LeviesAmount decimal.Decimal
	TotalAmount  decimal.Decimal

	// Autorización fiscal. Un documento nunca queda FISCAL sin CAE confirmado.
	CAE           string
	CAEExpiration *time.Time

	// AssociatedDocumentID id del documento original cuando este es una nota de crédito.
	AssociatedDocumentID *string

	VoidReason string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DocumentItem línea de detalle de un documento. Pertenece a su documento.
type DocumentItem struct {
	ID         string
	DocumentID string
	ProductID  string
	Detail     string
	Quantity   int
	UnitPrice  decimal.Decimal // precio final unitario (IVA incluido en líneas gravadas)
	IVARateID  int             // alícuota AFIP de la línea
	Exempt     bool            // línea exenta de IVA
}

// CanTransition informa si el pasaje de estado está permitido por la tabla.
func (d *Document) CanTransition(target string) bool {
	targets, ok := allowedTransitions[d.State]
	return ok && targets[target]
}

// TransitionTo cambia el estado validando contra la tabla de transiciones.
func (d *Document) TransitionTo(target string) error {
	if !d.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, d.State, target)
	}
	d.State = target
	d.UpdatedAt = time.Now()
	return nil
}

// IsEditable informa si el documento admite cambios de ítems (solo en borrador).
func (d *Document) IsEditable() bool {
	return d.State == StateDraft
}
