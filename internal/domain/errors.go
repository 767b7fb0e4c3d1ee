package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrInvalidTransition indica un cambio de estado de documento no permitido
	// por la tabla de transiciones (bug del caller, no se reintenta).
	ErrInvalidTransition = errors.New("transición de estado inválida")
)

// Errores de la integración AFIP. La política de reintento depende del tipo:
// credenciales y validación nunca llegan a la red; disponibilidad se reintenta
// con backoff; rechazos fiscales se muestran al usuario tal cual.
var (
	// ErrCredential certificado o llave privada ilegibles o inconsistentes.
	ErrCredential = errors.New("credencial AFIP inválida")
	// ErrSignature fallo criptográfico al firmar el pedido de acceso.
	ErrSignature = errors.New("fallo de firma CMS")
	// ErrAuthorityUnavailable error de red o timeout contra los WS de AFIP (reintentable).
	ErrAuthorityUnavailable = errors.New("servicio AFIP no disponible")
	// ErrAuthorityRejected AFIP rechazó explícitamente la autenticación (no reintentar sin corregir credenciales).
	ErrAuthorityRejected = errors.New("autenticación rechazada por AFIP")
	// ErrValidation pedido malformado detectado localmente; nunca se envía por la red.
	ErrValidation = errors.New("pedido inválido")
	// ErrTicketNotFound la cache no tiene un ticket vigente para el servicio (no es un error de negocio).
	ErrTicketNotFound = errors.New("ticket de acceso no encontrado o vencido")
	// ErrSequenceConflict el número de comprobante ya fue usado; releer el último autorizado y reintentar.
	ErrSequenceConflict = errors.New("conflicto de numeración de comprobante")
)

// FiscalRejectionError AFIP procesó el pedido pero rechazó el comprobante.
// Lleva las observaciones estructuradas para mostrar el motivo exacto al usuario.
type FiscalRejectionError struct {
	Observations []Observation
	Errors       []Observation
}

// Observation detalle de rechazo u observación devuelto por el WS.
type Observation struct {
	Code    int
	Message string
}

func (e *FiscalRejectionError) Error() string {
	if len(e.Observations) > 0 {
		return "comprobante rechazado por AFIP: " + e.Observations[0].Message
	}
	if len(e.Errors) > 0 {
		return "comprobante rechazado por AFIP: " + e.Errors[0].Message
	}
	return "comprobante rechazado por AFIP"
}

// IsFiscalRejection informa si err envuelve un rechazo fiscal y lo devuelve tipado.
func IsFiscalRejection(err error) (*FiscalRejectionError, bool) {
	var fr *FiscalRejectionError
	if errors.As(err, &fr) {
		return fr, true
	}
	return nil, false
}
