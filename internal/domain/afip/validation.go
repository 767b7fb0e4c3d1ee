package afip

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gestionpos/facturacion-api/internal/domain"
	pkgafip "github.com/gestionpos/facturacion-api/pkg/afip"
)

// totalTolerance tolerancia de redondeo al verificar la identidad de totales.
var totalTolerance = decimal.NewFromFloat(0.01)

// Validate verifica el pedido antes de cualquier llamada de red. Un pedido
// inválido nunca se envía al WS: falla con domain.ErrValidation.
func (r *InvoiceRequest) Validate() error {
	var errs []error

	if r.PointOfSale <= 0 {
		errs = append(errs, fmt.Errorf("punto de venta inválido: %d", r.PointOfSale))
	}
	if !pkgafip.ValidVoucherTypes[r.VoucherType] {
		errs = append(errs, fmt.Errorf("tipo de comprobante desconocido: %d", r.VoucherType))
	}
	if !pkgafip.ValidDocTypes[r.BuyerDocType] {
		errs = append(errs, fmt.Errorf("tipo de documento receptor desconocido: %d", r.BuyerDocType))
	}
	if r.Concept != pkgafip.ConceptProducts && !pkgafip.ConceptRequiresServiceDates(r.Concept) {
		errs = append(errs, fmt.Errorf("concepto desconocido: %d", r.Concept))
	}

	// Concepto servicios: fechas de servicio y vencimiento de pago obligatorias.
	if pkgafip.ConceptRequiresServiceDates(r.Concept) {
		if r.ServiceFrom == nil {
			errs = append(errs, errors.New("falta fecha de inicio de servicio (obligatoria para concepto 2 o 3)"))
		}
		if r.ServiceTo == nil {
			errs = append(errs, errors.New("falta fecha de fin de servicio (obligatoria para concepto 2 o 3)"))
		}
		if r.PaymentDue == nil {
			errs = append(errs, errors.New("falta fecha de vencimiento de pago (obligatoria para concepto 2 o 3)"))
		}
	}

	if r.CurrencyCode == "" {
		errs = append(errs, errors.New("falta código de moneda"))
	}
	if r.CurrencyRate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, fmt.Errorf("cotización de moneda inválida: %s", r.CurrencyRate))
	}

	// Identidad de totales con tolerancia de redondeo de un centavo.
	expected := r.AmountNonTaxed.Add(r.AmountNet).Add(r.AmountExempt).
		Add(r.AmountVAT).Add(r.AmountOtherTaxes)
	if r.AmountTotal.Sub(expected).Abs().GreaterThan(totalTolerance) {
		errs = append(errs, fmt.Errorf(
			"el total (%s) no coincide con no gravado + neto + exento + IVA + tributos (%s)",
			r.AmountTotal, expected))
	}

	// El desglose de IVA debe sumar el IVA declarado.
	if len(r.VATBreakdown) > 0 {
		var sum decimal.Decimal
		for _, v := range r.VATBreakdown {
			if _, ok := pkgafip.IVARatePercent[v.RateID]; !ok {
				errs = append(errs, fmt.Errorf("alícuota de IVA desconocida: %d", v.RateID))
			}
			sum = sum.Add(v.Amount)
		}
		if sum.Sub(r.AmountVAT).Abs().GreaterThan(totalTolerance) {
			errs = append(errs, fmt.Errorf("el desglose de IVA (%s) no suma el IVA declarado (%s)", sum, r.AmountVAT))
		}
	}

	// Los tributos informados deben sumar el total de otros tributos.
	if len(r.OtherTaxes) > 0 {
		var sum decimal.Decimal
		for _, ot := range r.OtherTaxes {
			sum = sum.Add(ot.Amount)
		}
		if sum.Sub(r.AmountOtherTaxes).Abs().GreaterThan(totalTolerance) {
			errs = append(errs, fmt.Errorf("los tributos (%s) no suman el total declarado (%s)", sum, r.AmountOtherTaxes))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, errors.Join(errs...))
	}
	return nil
}
