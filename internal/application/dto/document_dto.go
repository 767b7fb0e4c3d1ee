package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentItemInput línea de un documento a crear.
type DocumentItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Detail    string          `json:"detail"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	// UnitPrice precio final por unidad (IVA incluido). Cero = precio de lista del producto.
	UnitPrice decimal.Decimal `json:"unit_price"`
	Exempt    bool            `json:"exempt"`
}

// CreateDocumentRequest alta de un documento en borrador.
type CreateDocumentRequest struct {
	CustomerID   string              `json:"customer_id" validate:"required"`
	Kind         string              `json:"kind" validate:"required,oneof=sale purchase"`
	VoucherType  int                 `json:"voucher_type" validate:"required"`
	Concept      int                 `json:"concept" validate:"required,oneof=1 2 3"`
	Currency     string              `json:"currency"`
	CurrencyRate decimal.Decimal     `json:"currency_rate"`
	ServiceFrom  *time.Time          `json:"service_from,omitempty"`
	ServiceTo    *time.Time          `json:"service_to,omitempty"`
	PaymentDue   *time.Time          `json:"payment_due,omitempty"`
	Items        []DocumentItemInput `json:"items" validate:"required,min=1,dive"`
	// LevyIDs tributos de la empresa a aplicar; vacío = ninguno.
	LevyIDs []string `json:"levy_ids,omitempty"`
}

// UpdateDocumentItemsRequest reemplazo de líneas de un borrador.
type UpdateDocumentItemsRequest struct {
	Items []DocumentItemInput `json:"items" validate:"required,min=1,dive"`
}

// VoidDocumentRequest anulación de un documento emitido.
type VoidDocumentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// DocumentItemResponse línea de documento en respuestas.
type DocumentItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Detail    string          `json:"detail"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IVARateID int             `json:"iva_rate_id"`
	Exempt    bool            `json:"exempt"`
}

// LevyLineResponse tributo aplicado en respuestas.
type LevyLineResponse struct {
	Name       string          `json:"name"`
	TributeID  int             `json:"tribute_id"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Amount     decimal.Decimal `json:"amount"`
}

// DocumentResponse documento completo en respuestas.
type DocumentResponse struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"company_id"`
	CustomerID       string          `json:"customer_id"`
	Kind             string          `json:"kind"`
	State            string          `json:"state"`
	VoucherType      int             `json:"voucher_type"`
	PointOfSale      int             `json:"point_of_sale"`
	SequentialNumber int64           `json:"sequential_number"`
	Concept          int             `json:"concept"`
	IssueDate        time.Time       `json:"issue_date"`
	Currency         string          `json:"currency"`
	CurrencyRate     decimal.Decimal `json:"currency_rate"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	ExemptAmount     decimal.Decimal `json:"exempt_amount"`
	LeviesAmount     decimal.Decimal `json:"levies_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CAE              string          `json:"cae,omitempty"`
	CAEExpiration    *time.Time      `json:"cae_expiration,omitempty"`
	AssociatedDocumentID *string     `json:"associated_document_id,omitempty"`
	VoidReason       string          `json:"void_reason,omitempty"`

	Items  []DocumentItemResponse `json:"items"`
	Levies []LevyLineResponse     `json:"levies,omitempty"`
}
