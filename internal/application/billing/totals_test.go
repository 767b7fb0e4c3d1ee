package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/pkg/afip"
)

func item(price string, qty, rateID int) *entity.DocumentItem {
	return &entity.DocumentItem{
		ProductID: "prod-1",
		Detail:    "línea de prueba",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		IVARateID: rateID,
	}
}

func TestComputeTotals_DosLineasGravadas(t *testing.T) {
	// 100.00 y 200.00 finales al 21%: el neto se trunca y el IVA es el resto,
	// así neto + IVA reproduce exacto lo cobrado.
	totals, err := ComputeTotals([]*entity.DocumentItem{
		item("100.00", 1, afip.IVARate21),
		item("200.00", 1, afip.IVARate21),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "247.92", totals.Gross.StringFixed(2))
	assert.Equal(t, "52.08", totals.VAT.StringFixed(2))
	assert.Equal(t, "300.00", totals.Total.StringFixed(2))
	assert.True(t, totals.Exempt.IsZero())
	assert.True(t, totals.Levies.IsZero())

	require.Len(t, totals.VATByRate, 1)
	assert.Equal(t, afip.IVARate21, totals.VATByRate[0].RateID)
	assert.Equal(t, "247.92", totals.VATByRate[0].Base.StringFixed(2))
	assert.Equal(t, "52.08", totals.VATByRate[0].Amount.StringFixed(2))
}

func TestComputeTotals_CantidadMultiplica(t *testing.T) {
	totals, err := ComputeTotals([]*entity.DocumentItem{
		item("100.00", 3, afip.IVARate21),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "300.00", totals.Total.StringFixed(2))
	assert.Equal(t, "247.93", totals.Gross.StringFixed(2), "el neto se trunca sobre el total de línea, no por unidad")
	assert.Equal(t, "52.07", totals.VAT.StringFixed(2))
}

func TestComputeTotals_AlicuotasMixtasYExento(t *testing.T) {
	exempt := item("50.00", 1, 0)
	exempt.Exempt = true

	totals, err := ComputeTotals([]*entity.DocumentItem{
		item("121.00", 1, afip.IVARate21),   // neto 100.00, IVA 21.00
		item("110.50", 1, afip.IVARate10_5), // neto 100.00, IVA 10.50
		exempt,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "200.00", totals.Gross.StringFixed(2))
	assert.Equal(t, "31.50", totals.VAT.StringFixed(2))
	assert.Equal(t, "50.00", totals.Exempt.StringFixed(2))
	assert.Equal(t, "281.50", totals.Total.StringFixed(2))

	require.Len(t, totals.VATByRate, 2)
	// Orden estable por iva_id: 4 (10,5%) antes que 5 (21%).
	assert.Equal(t, afip.IVARate10_5, totals.VATByRate[0].RateID)
	assert.Equal(t, afip.IVARate21, totals.VATByRate[1].RateID)
}

func TestComputeTotals_TributosConBasePropia(t *testing.T) {
	levies := []*entity.Levy{
		{ID: "iibb", TributeID: afip.TributeIIBB, Name: "IIBB CABA", Base: entity.LevyBaseNet, Rate: decimal.RequireFromString("0.035")},
		{ID: "mun", TributeID: afip.TributeMunicipal, Name: "Tasa municipal", Base: entity.LevyBaseGross, Rate: decimal.RequireFromString("0.01")},
	}
	totals, err := ComputeTotals([]*entity.DocumentItem{
		item("121.00", 1, afip.IVARate21), // neto 100.00, IVA 21.00
	}, levies)
	require.NoError(t, err)

	require.Len(t, totals.LevyLines, 2)
	// IIBB sobre el neto gravado.
	assert.Equal(t, "100.00", totals.LevyLines[0].BaseAmount.StringFixed(2))
	assert.Equal(t, "3.50", totals.LevyLines[0].Amount.StringFixed(2))
	// Tasa municipal sobre neto + IVA: cada tributo usa su base configurada.
	assert.Equal(t, "121.00", totals.LevyLines[1].BaseAmount.StringFixed(2))
	assert.Equal(t, "1.21", totals.LevyLines[1].Amount.StringFixed(2))

	assert.Equal(t, "4.71", totals.Levies.StringFixed(2))
	assert.Equal(t, "125.71", totals.Total.StringFixed(2))
}

func TestComputeTotals_Errores(t *testing.T) {
	_, err := ComputeTotals(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "documento sin ítems")

	_, err = ComputeTotals([]*entity.DocumentItem{item("100.00", 0, afip.IVARate21)}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = ComputeTotals([]*entity.DocumentItem{item("100.00", 1, 7)}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "alícuota desconocida")

	_, err = ComputeTotals([]*entity.DocumentItem{item("121.00", 1, afip.IVARate21)}, []*entity.Levy{
		{Name: "raro", Base: "otra", Rate: decimal.RequireFromString("0.01")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "base de tributo desconocida")
}

func TestTotals_Apply(t *testing.T) {
	totals, err := ComputeTotals([]*entity.DocumentItem{item("121.00", 1, afip.IVARate21)}, nil)
	require.NoError(t, err)

	doc := &entity.Document{}
	totals.Apply(doc)
	assert.Equal(t, "100.00", doc.GrossAmount.StringFixed(2))
	assert.Equal(t, "21.00", doc.VATAmount.StringFixed(2))
	assert.Equal(t, "121.00", doc.TotalAmount.StringFixed(2))
}
