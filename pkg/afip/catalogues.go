package afip

// =============================================================================
// Tipos de comprobante (RG 1415, tabla de cbte_tipo de WSFEv1)
// =============================================================================

const (
	VoucherFacturaA    = 1
	VoucherNotaDebitoA = 2
	VoucherNotaCreditoA = 3
	VoucherFacturaB    = 6
	VoucherNotaDebitoB = 7
	VoucherNotaCreditoB = 8
	VoucherFacturaC    = 11
	VoucherNotaDebitoC = 12
	VoucherNotaCreditoC = 13
)

// ValidVoucherTypes tipos de comprobante admitidos por este emisor.
var ValidVoucherTypes = map[int]bool{
	VoucherFacturaA: true, VoucherNotaDebitoA: true, VoucherNotaCreditoA: true,
	VoucherFacturaB: true, VoucherNotaDebitoB: true, VoucherNotaCreditoB: true,
	VoucherFacturaC: true, VoucherNotaDebitoC: true, VoucherNotaCreditoC: true,
}

// creditNoteFor mapea cada factura/nota de débito a su nota de crédito de la misma letra.
var creditNoteFor = map[int]int{
	VoucherFacturaA:    VoucherNotaCreditoA,
	VoucherNotaDebitoA: VoucherNotaCreditoA,
	VoucherFacturaB:    VoucherNotaCreditoB,
	VoucherNotaDebitoB: VoucherNotaCreditoB,
	VoucherFacturaC:    VoucherNotaCreditoC,
	VoucherNotaDebitoC: VoucherNotaCreditoC,
}

// CreditNoteFor devuelve el tipo de nota de crédito que anula al comprobante dado.
// ok es false si el tipo no admite nota de crédito (ej: ya es una nota de crédito).
func CreditNoteFor(voucherType int) (creditNote int, ok bool) {
	creditNote, ok = creditNoteFor[voucherType]
	return creditNote, ok
}

// IsCreditNote informa si el tipo de comprobante es una nota de crédito.
func IsCreditNote(voucherType int) bool {
	return voucherType == VoucherNotaCreditoA ||
		voucherType == VoucherNotaCreditoB ||
		voucherType == VoucherNotaCreditoC
}

// =============================================================================
// Conceptos (campo Concepto de FECAEDetRequest)
// =============================================================================

const (
	ConceptProducts            = 1 // Productos
	ConceptServices            = 2 // Servicios
	ConceptProductsAndServices = 3 // Productos y servicios
)

// ConceptRequiresServiceDates informa si el concepto exige fechas de servicio
// (FchServDesde/FchServHasta) y fecha de vencimiento de pago.
func ConceptRequiresServiceDates(concept int) bool {
	return concept == ConceptServices || concept == ConceptProductsAndServices
}

// =============================================================================
// Tipos de documento del receptor (tabla doc_tipo)
// =============================================================================

const (
	DocTypeCUIT            = 80
	DocTypeCUIL            = 86
	DocTypeDNI             = 96
	DocTypeConsumidorFinal = 99
)

// ValidDocTypes tipos de documento receptor admitidos.
var ValidDocTypes = map[int]bool{
	DocTypeCUIT: true, DocTypeCUIL: true, DocTypeDNI: true, DocTypeConsumidorFinal: true,
}

// =============================================================================
// Alícuotas de IVA (tabla iva_id de WSFEv1)
// =============================================================================

const (
	IVARate0    = 3 // 0%
	IVARate10_5 = 4 // 10,5%
	IVARate21   = 5 // 21%
	IVARate27   = 6 // 27%
	IVARate5    = 8 // 5%
	IVARate2_5  = 9 // 2,5%
)

// IVARatePercent porcentaje asociado a cada iva_id (base 100).
var IVARatePercent = map[int]float64{
	IVARate0: 0, IVARate10_5: 10.5, IVARate21: 21, IVARate27: 27,
	IVARate5: 5, IVARate2_5: 2.5,
}

// =============================================================================
// Monedas (tabla mon_id)
// =============================================================================

const (
	CurrencyPeso  = "PES" // Peso argentino (cotización 1)
	CurrencyDolar = "DOL" // Dólar estadounidense
	CurrencyEuro  = "060" // Euro
)

// ValidCurrencyCodes monedas admitidas en comprobantes de este emisor.
var ValidCurrencyCodes = map[string]bool{
	CurrencyPeso: true, CurrencyDolar: true, CurrencyEuro: true,
}

// =============================================================================
// Tributos (tabla tributo_id): percepciones e impuestos además del IVA
// =============================================================================

const (
	TributeNacional          = 1 // Impuestos nacionales
	TributeProvincial        = 2 // Impuestos provinciales
	TributeMunicipal         = 3 // Impuestos municipales
	TributeInternos          = 4 // Impuestos internos
	TributeIIBB              = 5 // Ingresos brutos
	TributePercepcionIVA     = 6 // Percepción de IVA
	TributeOtro              = 99
)

// =============================================================================
// Nombres de servicio para WSAA (un ticket de acceso por servicio)
// =============================================================================

const (
	ServiceWSFE   = "wsfe"
	ServicePadron = "ws_sr_constancia_inscripcion"
)
