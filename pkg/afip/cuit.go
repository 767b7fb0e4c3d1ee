// Package afip contiene catálogos y validaciones de facturación electrónica
// AFIP (Argentina): tipos de comprobante, documentos receptores, alícuotas de
// IVA y validación de CUIT.
package afip

import (
	"fmt"
	"strconv"
	"unicode"
)

// pesos para el cálculo del dígito verificador del CUIT (módulo 11).
// Se aplican a los 10 primeros dígitos, de izquierda a derecha.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateCUIT valida que el CUIT (con o sin guiones) tenga 11 dígitos y un
// dígito verificador correcto según el algoritmo módulo 11 de AFIP.
// taxID puede ser "20-12345678-6", "20123456786" o "20.12345678.6".
func ValidateCUIT(taxID string) error {
	digits := extractDigits(taxID)
	if len(digits) != 11 {
		return fmt.Errorf("afip: CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	var sum int
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * cuitWeights[i]
	}
	remainder := sum % 11
	expected := 11 - remainder
	switch expected {
	case 11:
		expected = 0
	case 10:
		// CUITs con resto 1 no son asignables; ningún dígito verificador es válido.
		return fmt.Errorf("afip: CUIT %s no es asignable (resto módulo 11 = 1)", taxID)
	}
	if int(digits[10]-'0') != expected {
		return fmt.Errorf("afip: dígito verificador del CUIT inválido: esperado %d, recibido %c", expected, digits[10])
	}
	return nil
}

// ValidateCUITNumber valida un CUIT recibido como entero (forma usada en los WS AFIP).
func ValidateCUITNumber(cuit int64) error {
	return ValidateCUIT(strconv.FormatInt(cuit, 10))
}

// extractDigits devuelve únicamente los dígitos de s, en orden.
func extractDigits(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
