package billing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gestionpos/facturacion-api/internal/domain"
	domafip "github.com/gestionpos/facturacion-api/internal/domain/afip"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/pkg/afip"
)

// Totals totales derivados de los ítems de un documento, listos para volcar
// en el documento y en el pedido de autorización.
type Totals struct {
	Gross  decimal.Decimal // neto gravado (sin IVA)
	VAT    decimal.Decimal
	Exempt decimal.Decimal
	Levies decimal.Decimal
	Total  decimal.Decimal

	VATByRate []domafip.VATItem  // subtotales por alícuota, orden estable por iva_id
	LevyLines []*entity.LevyLine // un renglón por tributo aplicado
}

// ComputeTotals deriva los totales de un documento desde sus ítems y los
// tributos configurados de la empresa.
//
// El precio unitario de cada línea es el precio final cobrado (IVA incluido
// en líneas gravadas): el neto sale de truncar precio/(1+alícuota) a dos
// decimales y el IVA es el resto, de modo que neto + IVA reproduce exacto el
// importe de la línea.
//
// Cada tributo usa su propia base: "neto" acumula el neto gravado, "bruto" el
// acumulado neto + IVA. La base es por definición de tributo, no global.
func ComputeTotals(items []*entity.DocumentItem, levies []*entity.Levy) (*Totals, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: documento sin ítems", domain.ErrInvalidInput)
	}

	t := &Totals{}
	type rateAgg struct {
		base   decimal.Decimal
		amount decimal.Decimal
	}
	byRate := make(map[int]*rateAgg)
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: cantidad inválida en línea %q", domain.ErrInvalidInput, item.Detail)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo en línea %q", domain.ErrInvalidInput, item.Detail)
		}
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		if item.Exempt {
			t.Exempt = t.Exempt.Add(line.Round(2))
			continue
		}

		pct, ok := afip.IVARatePercent[item.IVARateID]
		if !ok {
			return nil, fmt.Errorf("%w: alícuota de IVA desconocida %d en línea %q", domain.ErrInvalidInput, item.IVARateID, item.Detail)
		}
		rate := decimal.NewFromFloat(pct).Div(hundred)
		net := line.Div(one.Add(rate)).RoundDown(2)
		vat := line.Sub(net)

		t.Gross = t.Gross.Add(net)
		t.VAT = t.VAT.Add(vat)

		agg, ok := byRate[item.IVARateID]
		if !ok {
			agg = &rateAgg{}
			byRate[item.IVARateID] = agg
		}
		agg.base = agg.base.Add(net)
		agg.amount = agg.amount.Add(vat)
	}

	for _, levy := range levies {
		var base decimal.Decimal
		switch levy.Base {
		case entity.LevyBaseNet:
			base = t.Gross
		case entity.LevyBaseGross:
			base = t.Gross.Add(t.VAT)
		default:
			return nil, fmt.Errorf("%w: base de tributo desconocida %q en %s", domain.ErrInvalidInput, levy.Base, levy.Name)
		}
		amount := base.Mul(levy.Rate).Round(2)
		t.Levies = t.Levies.Add(amount)
		t.LevyLines = append(t.LevyLines, &entity.LevyLine{
			Levy:       levy,
			BaseAmount: base,
			Amount:     amount,
		})
	}

	t.Total = t.Gross.Add(t.VAT).Add(t.Exempt).Add(t.Levies)

	rateIDs := make([]int, 0, len(byRate))
	for id := range byRate {
		rateIDs = append(rateIDs, id)
	}
	sort.Ints(rateIDs)
	for _, id := range rateIDs {
		t.VATByRate = append(t.VATByRate, domafip.VATItem{
			RateID: id,
			Base:   byRate[id].base,
			Amount: byRate[id].amount,
		})
	}
	return t, nil
}

// Apply vuelca los totales calculados sobre el documento.
func (t *Totals) Apply(doc *entity.Document) {
	doc.GrossAmount = t.Gross
	doc.VATAmount = t.VAT
	doc.ExemptAmount = t.Exempt
	doc.LeviesAmount = t.Levies
	doc.TotalAmount = t.Total
	doc.Levies = t.LevyLines
}
