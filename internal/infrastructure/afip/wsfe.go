package afip

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestionpos/facturacion-api/internal/domain"
	domafip "github.com/gestionpos/facturacion-api/internal/domain/afip"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

// obsCodeSequence observación de WSFE cuando CbteDesde no es el próximo número
// esperado para el punto de venta (carrera de numeración entre emisores).
const obsCodeSequence = 10016

// wireDate formato compacto de fechas de comprobante exigido por WSFEv1.
const wireDate = "20060102"

// TicketProvider entrega un ticket de acceso vigente para el servicio wsfe.
// La implementación concreta es WSAAClient; en tests se inyecta un stub.
type TicketProvider interface {
	GetTicket(ctx context.Context) (*Ticket, error)
}

// WSFEClient cliente de facturación electrónica WSFEv1: consulta el último
// comprobante autorizado y solicita CAE para comprobantes nuevos.
type WSFEClient struct {
	cuit       int64
	url        string
	tickets    TicketProvider
	httpClient *http.Client
	breaker    *CircuitBreaker
	log        *logger.Logger
}

// WSFEConfig parámetros del cliente WSFE.
type WSFEConfig struct {
	CUIT        int64
	Environment string       // EnvProduction | EnvHomologation
	URL         string       // override de endpoint (tests)
	HTTPClient  *http.Client // nil = cliente con timeout de 30 s
	Breaker     CircuitBreakerConfig
}

// NewWSFEClient construye el cliente WSFEv1.
func NewWSFEClient(cfg WSFEConfig, tickets TicketProvider, log *logger.Logger) *WSFEClient {
	url := cfg.URL
	if url == "" {
		url = WSFEEndpoint(cfg.Environment)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WSFEClient{
		cuit:       cfg.CUIT,
		url:        url,
		tickets:    tickets,
		httpClient: httpClient,
		breaker:    NewCircuitBreaker(cfg.Breaker),
		log:        log.WithService("wsfe", cfg.Environment),
	}
}

// BreakerState estado actual del circuit breaker (health check).
func (c *WSFEClient) BreakerState() CBState {
	return c.breaker.State()
}

// LastVoucherNumber consulta el último número autorizado para el par
// (punto de venta, tipo de comprobante). 0 significa punto de venta virgen:
// el próximo comprobante es el 1.
func (c *WSFEClient) LastVoucherNumber(ctx context.Context, pointOfSale, voucherType int) (int64, error) {
	auth, err := c.auth(ctx)
	if err != nil {
		return 0, err
	}
	body := &feCompUltimoAutorizadoBody{
		Xmlns:    wsfeNS,
		Auth:     auth,
		PtoVta:   pointOfSale,
		CbteTipo: voucherType,
	}
	inner, err := c.call(ctx, "FECompUltimoAutorizado", body)
	if err != nil {
		return 0, err
	}
	var resp feCompUltimoAutorizadoResponse
	if err := xml.Unmarshal(inner, &resp); err != nil {
		return 0, fmt.Errorf("%w: respuesta FECompUltimoAutorizado ilegible: %v", domain.ErrAuthorityUnavailable, err)
	}
	if len(resp.Result.Errors) > 0 {
		return 0, &domain.FiscalRejectionError{Errors: toObservations(resp.Result.Errors)}
	}
	return resp.Result.CbteNro, nil
}

// RequestCAE solicita el CAE de un comprobante. Con autoAssign, primero lee el
// último autorizado y usa el siguiente número para acotar la ventana de carrera
// (AFIP igual rechaza numeración no secuencial; ver ErrSequenceConflict).
func (c *WSFEClient) RequestCAE(ctx context.Context, req *domafip.InvoiceRequest, autoAssign bool) (*domafip.InvoiceResponse, error) {
	// Validación local primero: un pedido malformado nunca toca la red.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if autoAssign {
		last, err := c.LastVoucherNumber(ctx, req.PointOfSale, req.VoucherType)
		if err != nil {
			return nil, err
		}
		req.VoucherFrom = last + 1
		req.VoucherTo = last + 1
	}

	auth, err := c.auth(ctx)
	if err != nil {
		return nil, err
	}
	body := &feCAESolicitarBody{
		Xmlns: wsfeNS,
		Auth:  auth,
		FeCAEReq: feCAEReq{
			FeCabReq: feCabReq{CantReg: 1, PtoVta: req.PointOfSale, CbteTipo: req.VoucherType},
			FeDetReq: []feCAEDetRequest{toWireDetail(req)},
		},
	}
	inner, err := c.call(ctx, "FECAESolicitar", body)
	if err != nil {
		return nil, err
	}
	var resp feCAESolicitarResponse
	if err := xml.Unmarshal(inner, &resp); err != nil {
		return nil, fmt.Errorf("%w: respuesta FECAESolicitar ilegible: %v", domain.ErrAuthorityUnavailable, err)
	}
	return c.parseCAEResult(&resp.Result, req)
}

// auth arma el bloque Auth con un ticket vigente.
func (c *WSFEClient) auth(ctx context.Context) (feAuth, error) {
	ticket, err := c.tickets.GetTicket(ctx)
	if err != nil {
		return feAuth{}, err
	}
	return feAuth{Token: ticket.Token, Sign: ticket.Sign, Cuit: c.cuit}, nil
}

// call ejecuta una operación SOAP WSFE a través del circuit breaker.
// Solo los fallos de disponibilidad abren el circuito; un rechazo fiscal es
// una respuesta válida del servicio.
func (c *WSFEClient) call(ctx context.Context, operation string, body interface{}) ([]byte, error) {
	var inner []byte
	err := c.breaker.Execute(func() error {
		var fault *soapFault
		var err error
		inner, fault, err = postSOAP(ctx, c.httpClient, c.url, wsfeNS+operation, body)
		if err != nil {
			return err
		}
		if fault != nil {
			return fmt.Errorf("%w: [%s] %s", domain.ErrAuthorityRejected, fault.FaultCode, fault.FaultString)
		}
		return nil
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthorityUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return inner, nil
}

// parseCAEResult interpreta el resultado: aprobado, rechazado u observado.
func (c *WSFEClient) parseCAEResult(result *feCAESolicitarResult, req *domafip.InvoiceRequest) (*domafip.InvoiceResponse, error) {
	if len(result.FeDetResp) == 0 {
		if len(result.Errors) > 0 {
			return nil, c.rejectionError(nil, result.Errors)
		}
		return nil, fmt.Errorf("%w: FECAESolicitar sin detalle de respuesta", domain.ErrAuthorityUnavailable)
	}
	det := result.FeDetResp[0]

	if det.Resultado != "A" || result.FeCabResp.Resultado == "R" {
		return nil, c.rejectionError(det.Observaciones, result.Errors)
	}

	expiration, err := parseWireDate(det.CAEFchVto)
	if err != nil {
		return nil, fmt.Errorf("%w: vencimiento de CAE ilegible %q", domain.ErrAuthorityUnavailable, det.CAEFchVto)
	}

	resp := &domafip.InvoiceResponse{
		VoucherNumber: det.CbteDesde,
		CAE:           det.CAE,
		CAEExpiration: expiration,
		Result:        det.Resultado,
		Observations:  toDomainObservations(det.Observaciones),
		Events:        toDomainEvents(result.Events),
	}

	// Eventos de advertencia acompañando una aprobación: se loguean y se
	// devuelven al caller, no afectan el resultado.
	for _, ev := range result.Events {
		c.log.Warn().Int("code", ev.Code).Str("msg", ev.Msg).Msg("wsfe: evento del servicio")
	}
	return resp, nil
}

// rejectionError distingue el conflicto de numeración (reintentable tras
// releer el último número) del rechazo fiscal genuino.
func (c *WSFEClient) rejectionError(observations, errs []feCode) error {
	for _, o := range observations {
		if o.Code == obsCodeSequence {
			return fmt.Errorf("%w: %s", domain.ErrSequenceConflict, o.Msg)
		}
	}
	for _, e := range errs {
		if e.Code == obsCodeSequence {
			return fmt.Errorf("%w: %s", domain.ErrSequenceConflict, e.Msg)
		}
	}
	return &domain.FiscalRejectionError{
		Observations: toObservations(observations),
		Errors:       toObservations(errs),
	}
}

// ── Mapeo dominio -> cable ────────────────────────────────────────────────────

func toWireDetail(req *domafip.InvoiceRequest) feCAEDetRequest {
	det := feCAEDetRequest{
		Concepto:   req.Concept,
		DocTipo:    req.BuyerDocType,
		DocNro:     req.BuyerDocNumber,
		CbteDesde:  req.VoucherFrom,
		CbteHasta:  req.VoucherTo,
		CbteFch:    req.IssueDate.Format(wireDate),
		ImpTotal:   money(req.AmountTotal),
		ImpTotConc: money(req.AmountNonTaxed),
		ImpNeto:    money(req.AmountNet),
		ImpOpEx:    money(req.AmountExempt),
		ImpTrib:    money(req.AmountOtherTaxes),
		ImpIVA:     money(req.AmountVAT),
		MonId:      req.CurrencyCode,
		MonCotiz:   req.CurrencyRate.StringFixed(6),
	}
	if req.ServiceFrom != nil {
		det.FchServDesde = req.ServiceFrom.Format(wireDate)
	}
	if req.ServiceTo != nil {
		det.FchServHasta = req.ServiceTo.Format(wireDate)
	}
	if req.PaymentDue != nil {
		det.FchVtoPago = req.PaymentDue.Format(wireDate)
	}

	if len(req.AssociatedVouchers) > 0 {
		block := &feCbtesAsoc{}
		for _, av := range req.AssociatedVouchers {
			wire := feCbteAsoc{Tipo: av.VoucherType, PtoVta: av.PointOfSale, Nro: av.Number, Cuit: av.CUIT}
			if av.IssueDate != nil {
				wire.CbteFch = av.IssueDate.Format(wireDate)
			}
			block.CbteAsoc = append(block.CbteAsoc, wire)
		}
		det.CbtesAsoc = block
	}
	if len(req.OtherTaxes) > 0 {
		block := &feTributos{}
		for _, ot := range req.OtherTaxes {
			block.Tributo = append(block.Tributo, feTributo{
				Id:      ot.TributeID,
				Desc:    ot.Detail,
				BaseImp: money(ot.Base),
				Alic:    ot.Rate.StringFixed(2),
				Importe: money(ot.Amount),
			})
		}
		det.Tributos = block
	}
	if len(req.VATBreakdown) > 0 {
		block := &feIva{}
		for _, v := range req.VATBreakdown {
			block.AlicIva = append(block.AlicIva, feAlicIva{
				Id:      v.RateID,
				BaseImp: money(v.Base),
				Importe: money(v.Amount),
			})
		}
		det.Iva = block
	}
	if len(req.Optionals) > 0 {
		block := &feOpcionales{}
		for _, op := range req.Optionals {
			block.Opcional = append(block.Opcional, feOpcional{Id: op.ID, Valor: op.Value})
		}
		det.Opcionales = block
	}
	if len(req.Buyers) > 0 {
		block := &feCompradores{}
		for _, b := range req.Buyers {
			block.Comprador = append(block.Comprador, feComprador{
				DocTipo:    b.DocType,
				DocNro:     b.DocNumber,
				Porcentaje: b.Percentage.StringFixed(2),
			})
		}
		det.Compradores = block
	}
	if req.AssociatedPeriod != nil {
		det.PeriodoAsoc = &fePeriodoAsoc{
			FchDesde: req.AssociatedPeriod.From.Format(wireDate),
			FchHasta: req.AssociatedPeriod.To.Format(wireDate),
		}
	}
	if len(req.Activities) > 0 {
		block := &feActividades{}
		for _, id := range req.Activities {
			block.Actividad = append(block.Actividad, feActividad{Id: id})
		}
		det.Actividades = block
	}
	return det
}

// money serializa un monto con el redondeo a dos decimales del cable WSFE.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// parseWireDate acepta yyyymmdd (forma habitual) e ISO-8601 (algunas respuestas).
func parseWireDate(s string) (time.Time, error) {
	for _, layout := range []string{wireDate, "2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q", s)
}

func toObservations(codes []feCode) []domain.Observation {
	out := make([]domain.Observation, 0, len(codes))
	for _, c := range codes {
		out = append(out, domain.Observation{Code: c.Code, Message: c.Msg})
	}
	return out
}

func toDomainObservations(codes []feCode) []domafip.Observation {
	out := make([]domafip.Observation, 0, len(codes))
	for _, c := range codes {
		out = append(out, domafip.Observation{Code: c.Code, Message: c.Msg})
	}
	return out
}

func toDomainEvents(codes []feCode) []domafip.Event {
	out := make([]domafip.Event, 0, len(codes))
	for _, c := range codes {
		out = append(out, domafip.Event{Code: c.Code, Message: c.Msg})
	}
	return out
}
