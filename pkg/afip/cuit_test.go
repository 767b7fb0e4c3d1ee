package afip_test

import (
	"testing"

	"github.com/gestionpos/facturacion-api/pkg/afip"
	"github.com/stretchr/testify/assert"
)

// TestValidateCUIT_Validos verifica CUITs con dígito verificador correcto,
// con y sin separadores.
func TestValidateCUIT_Validos(t *testing.T) {
	validos := []string{
		"20-12345678-6",
		"20123456786",
		"30.71234567.1",
		"27-12345678-0",
	}
	for _, c := range validos {
		assert.NoError(t, afip.ValidateCUIT(c), "el CUIT %s debe ser válido", c)
	}
}

func TestValidateCUIT_DigitoVerificadorIncorrecto(t *testing.T) {
	err := afip.ValidateCUIT("20-12345678-7")
	assert.Error(t, err, "un dígito verificador incorrecto debe rechazarse")
}

func TestValidateCUIT_LongitudIncorrecta(t *testing.T) {
	assert.Error(t, afip.ValidateCUIT("123456"), "menos de 11 dígitos debe rechazarse")
	assert.Error(t, afip.ValidateCUIT("201234567861"), "más de 11 dígitos debe rechazarse")
}

func TestValidateCUITNumber_Entero(t *testing.T) {
	assert.NoError(t, afip.ValidateCUITNumber(20123456786),
		"la forma entera usada por los WS debe validar igual que la forma con guiones")
}

// TestCreditNoteFor verifica el mapeo factura -> nota de crédito de la misma letra.
func TestCreditNoteFor(t *testing.T) {
	nc, ok := afip.CreditNoteFor(afip.VoucherFacturaA)
	assert.True(t, ok)
	assert.Equal(t, afip.VoucherNotaCreditoA, nc, "Factura A se anula con Nota de Crédito A")

	nc, ok = afip.CreditNoteFor(afip.VoucherFacturaB)
	assert.True(t, ok)
	assert.Equal(t, afip.VoucherNotaCreditoB, nc)

	_, ok = afip.CreditNoteFor(afip.VoucherNotaCreditoA)
	assert.False(t, ok, "una nota de crédito no se anula con otra nota de crédito")
}

func TestConceptRequiresServiceDates(t *testing.T) {
	assert.False(t, afip.ConceptRequiresServiceDates(afip.ConceptProducts))
	assert.True(t, afip.ConceptRequiresServiceDates(afip.ConceptServices))
	assert.True(t, afip.ConceptRequiresServiceDates(afip.ConceptProductsAndServices))
}
