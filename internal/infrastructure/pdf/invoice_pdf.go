// Package pdf implementa la representación gráfica de comprobantes AFIP
// (RG 4892/2021: código QR obligatorio en comprobantes electrónicos).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + CUIT  │  Letra + Tipo + N° + Fecha  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Email / Condición IVA            │
//	│  RECEPTOR: Nombre + Doc + contacto                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Detalle | P.Unit | Subtotal                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Neto / IVA / Tributos / TOTAL                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER AFIP: CAE + Vencimiento + QR                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/pkg/afip"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 20, Green: 60, Blue: 110}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoGenerator implementa billing.DocumentPDFGenerator usando Maroto v2.
type MarotoGenerator struct{}

// NewMarotoGenerator construye el generador.
func NewMarotoGenerator() *MarotoGenerator { return &MarotoGenerator{} }

// GenerateDocumentPDF genera el PDF del comprobante y devuelve sus bytes.
func (g *MarotoGenerator) GenerateDocumentPDF(
	_ context.Context,
	doc *entity.Document,
	company *entity.Company,
	customer *entity.Customer,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(voucherTitle(doc), true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(company))
	m.AddRows(receptorRow(customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(doc.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range afipFooterRows(doc, company, customer) {
		m.AddRows(r)
	}

	generated, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return generated.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + CUIT (izq), letra + tipo + número + fecha (der).
func headerRow(doc *entity.Document, company *entity.Company) core.Row {
	number := fmt.Sprintf("%05d-%08d", doc.PointOfSale, doc.SequentialNumber)
	fecha := doc.IssueDate.Format("02/01/2006")

	return row.New(20).Add(
		col.New(6).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("CUIT: %d", company.CUIT), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
			text.New("IVA: "+ivaConditionLabel(company.IVACondition), props.Text{
				Size: 8, Top: 14, Color: colorGray,
			}),
		),
		col.New(1).Add(
			text.New(voucherLetter(doc), props.Text{
				Style: fontstyle.Bold, Size: 22, Align: align.Center, Top: 3,
				Color: colorPrimary,
			}),
			text.New(fmt.Sprintf("Cód. %02d", doc.VoucherType), props.Text{
				Size: 6, Align: align.Center, Top: 14, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(voucherTitle(doc), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 8,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 15, Color: colorGray,
			}),
		),
	)
}

func emisorRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(company.Address, "—"),
				nonEmpty(company.Phone, "—"),
				nonEmpty(company.Email, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func receptorRow(customer *entity.Customer) core.Row {
	docLabel := "Consumidor Final"
	if customer.DocNumber > 0 {
		docLabel = fmt.Sprintf("%s: %d", docTypeLabel(customer.DocType), customer.DocNumber)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s   |   Email: %s   |   Tel: %s",
				docLabel,
				nonEmpty(customer.Email, "—"),
				nonEmpty(customer.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Detalle", 6, align.Left),
		h("P. Unitario", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

// tableItemRows: una fila por línea. Los precios van con IVA incluido, igual
// que en el ticket.
func tableItemRows(items []*entity.DocumentItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, item := range items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", item.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(6).Add(text.New(
				item.Detail,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$ "+item.UnitPrice.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$ "+lineTotal.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalsRow(doc *entity.Document) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}

	lines := []struct{ label, value string }{
		{"Neto gravado:", "$ " + doc.GrossAmount.StringFixed(2)},
		{"IVA:", "$ " + doc.VATAmount.StringFixed(2)},
	}
	if doc.ExemptAmount.IsPositive() {
		lines = append(lines, struct{ label, value string }{"Exento:", "$ " + doc.ExemptAmount.StringFixed(2)})
	}
	if doc.LeviesAmount.IsPositive() {
		lines = append(lines, struct{ label, value string }{"Otros tributos:", "$ " + doc.LeviesAmount.StringFixed(2)})
	}

	labels := make([]core.Component, 0, len(lines)+1)
	values := make([]core.Component, 0, len(lines)+1)
	for _, l := range lines {
		labels = append(labels, label(l.label))
		values = append(values, value(l.value))
	}
	labels = append(labels, text.New("TOTAL:", props.Text{
		Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Right: 2,
	}))
	values = append(values, text.New("$ "+doc.TotalAmount.StringFixed(2), props.Text{
		Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Right: 1,
	}))

	height := float64(6*(len(lines)+1)) + 4
	return row.New(height).Add(
		col.New(4),
		col.New(4).Add(labels...),
		col.New(4).Add(values...),
	)
}

// afipFooterRows: CAE + vencimiento + QR de RG 4892. Los comprobantes internos
// (sin CAE) llevan la leyenda de documento no válido como factura.
func afipFooterRows(doc *entity.Document, company *entity.Company, customer *entity.Customer) []core.Row {
	if doc.CAE == "" {
		return []core.Row{
			row.New(10).Add(col.New(12).Add(
				text.New("DOCUMENTO NO VÁLIDO COMO FACTURA", props.Text{
					Style: fontstyle.Bold, Size: 10, Align: align.Center,
					Color: colorGray, Top: 2,
				}),
			)),
		}
	}

	caeVto := ""
	if doc.CAEExpiration != nil {
		caeVto = doc.CAEExpiration.Format("02/01/2006")
	}

	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("COMPROBANTE AUTORIZADO POR AFIP", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	rows = append(rows, row.New(40).Add(
		col.New(3).Add(code.NewQr(qrURL(doc, company, customer), props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("CAE: "+doc.CAE, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6, Left: 3,
			}),
			text.New("Vencimiento CAE: "+caeVto, props.Text{
				Size: 9, Top: 13, Left: 3, Color: colorGray,
			}),
			text.New("Escaneá el código QR para validar este\ncomprobante en el sitio de AFIP.", props.Text{
				Size: 8, Top: 24, Left: 3, Color: colorGray,
			}),
		),
	))

	return rows
}

// ── QR RG 4892 ────────────────────────────────────────────────────────────────

// qrPayload estructura del JSON que viaja en el QR, según la especificación
// publicada por AFIP (versión 1).
type qrPayload struct {
	Ver        int     `json:"ver"`
	Fecha      string  `json:"fecha"`
	CUIT       int64   `json:"cuit"`
	PtoVta     int     `json:"ptoVta"`
	TipoCmp    int     `json:"tipoCmp"`
	NroCmp     int64   `json:"nroCmp"`
	Importe    float64 `json:"importe"`
	Moneda     string  `json:"moneda"`
	Ctz        float64 `json:"ctz"`
	TipoDocRec int     `json:"tipoDocRec,omitempty"`
	NroDocRec  int64   `json:"nroDocRec,omitempty"`
	TipoCodAut string  `json:"tipoCodAut"`
	CodAut     int64   `json:"codAut"`
}

// qrURL arma la URL del QR fiscal: el JSON del comprobante en base64 como
// parámetro p del validador público de AFIP.
func qrURL(doc *entity.Document, company *entity.Company, customer *entity.Customer) string {
	importe, _ := doc.TotalAmount.Float64()
	ctz, _ := doc.CurrencyRate.Float64()
	var cae int64
	fmt.Sscanf(doc.CAE, "%d", &cae)

	payload := qrPayload{
		Ver:        1,
		Fecha:      doc.IssueDate.Format("2006-01-02"),
		CUIT:       company.CUIT,
		PtoVta:     doc.PointOfSale,
		TipoCmp:    doc.VoucherType,
		NroCmp:     doc.SequentialNumber,
		Importe:    importe,
		Moneda:     doc.Currency,
		Ctz:        ctz,
		TipoCodAut: "E",
		CodAut:     cae,
	}
	if customer != nil && customer.DocNumber > 0 {
		payload.TipoDocRec = customer.DocType
		payload.NroDocRec = customer.DocNumber
	}
	raw, _ := json.Marshal(payload)
	return "https://www.afip.gob.ar/fe/qr/?p=" + base64.StdEncoding.EncodeToString(raw)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func voucherLetter(doc *entity.Document) string {
	switch doc.VoucherType {
	case afip.VoucherFacturaA, afip.VoucherNotaDebitoA, afip.VoucherNotaCreditoA:
		return "A"
	case afip.VoucherFacturaB, afip.VoucherNotaDebitoB, afip.VoucherNotaCreditoB:
		return "B"
	case afip.VoucherFacturaC, afip.VoucherNotaDebitoC, afip.VoucherNotaCreditoC:
		return "C"
	}
	return "X"
}

func voucherTitle(doc *entity.Document) string {
	if doc.CAE == "" {
		return "COMPROBANTE NO FISCAL"
	}
	switch doc.VoucherType {
	case afip.VoucherNotaCreditoA, afip.VoucherNotaCreditoB, afip.VoucherNotaCreditoC:
		return "NOTA DE CRÉDITO"
	case afip.VoucherNotaDebitoA, afip.VoucherNotaDebitoB, afip.VoucherNotaDebitoC:
		return "NOTA DE DÉBITO"
	}
	return "FACTURA"
}

func ivaConditionLabel(condition string) string {
	switch condition {
	case "responsable_inscripto":
		return "Responsable Inscripto"
	case "monotributo":
		return "Monotributo"
	case "exento":
		return "Exento"
	}
	return condition
}

func docTypeLabel(docType int) string {
	switch docType {
	case afip.DocTypeCUIT:
		return "CUIT"
	case afip.DocTypeCUIL:
		return "CUIL"
	case afip.DocTypeDNI:
		return "DNI"
	}
	return "Doc"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
