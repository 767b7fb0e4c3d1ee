package afip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/domain"
	domafip "github.com/gestionpos/facturacion-api/internal/domain/afip"
)

// stubTickets TicketProvider que siempre entrega el mismo ticket vigente.
type stubTickets struct{}

func (stubTickets) GetTicket(context.Context) (*Ticket, error) {
	return &Ticket{
		Token:     "tok-abc",
		Sign:      "sig-xyz",
		ExpiresAt: time.Now().Add(time.Hour),
		Service:   "wsfe",
	}, nil
}

func facturaB() *domafip.InvoiceRequest {
	return &domafip.InvoiceRequest{
		PointOfSale:    1,
		VoucherType:    6, // Factura B
		Concept:        1,
		BuyerDocType:   96,
		BuyerDocNumber: 12345678,
		IssueDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		AmountTotal:    decimal.RequireFromString("121.00"),
		AmountNet:      decimal.RequireFromString("100.00"),
		AmountVAT:      decimal.RequireFromString("21.00"),
		CurrencyCode:   "PES",
		CurrencyRate:   decimal.NewFromInt(1),
		VATBreakdown: []domafip.VATItem{
			{RateID: 5, Base: decimal.RequireFromString("100.00"), Amount: decimal.RequireFromString("21.00")},
		},
	}
}

const lastVoucherResponse = `<FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">
  <FECompUltimoAutorizadoResult>
    <PtoVta>1</PtoVta>
    <CbteTipo>6</CbteTipo>
    <CbteNro>41</CbteNro>
  </FECompUltimoAutorizadoResult>
</FECompUltimoAutorizadoResponse>`

const caeApprovedResponse = `<FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
  <FECAESolicitarResult>
    <FeCabResp>
      <Cuit>20123456786</Cuit>
      <PtoVta>1</PtoVta>
      <CbteTipo>6</CbteTipo>
      <CantReg>1</CantReg>
      <Resultado>A</Resultado>
    </FeCabResp>
    <FeDetResp>
      <FECAEDetResponse>
        <CbteDesde>42</CbteDesde>
        <CbteHasta>42</CbteHasta>
        <Resultado>A</Resultado>
        <CAE>71234567890123</CAE>
        <CAEFchVto>20260911</CAEFchVto>
      </FECAEDetResponse>
    </FeDetResp>
  </FECAESolicitarResult>
</FECAESolicitarResponse>`

func caeRejectedResponse(code int, msg string) string {
	return fmt.Sprintf(`<FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
  <FECAESolicitarResult>
    <FeCabResp><Resultado>R</Resultado></FeCabResp>
    <FeDetResp>
      <FECAEDetResponse>
        <CbteDesde>42</CbteDesde>
        <Resultado>R</Resultado>
        <Observaciones>
          <Obs><Code>%d</Code><Msg>%s</Msg></Obs>
        </Observaciones>
      </FECAEDetResponse>
    </FeDetResp>
  </FECAESolicitarResult>
</FECAESolicitarResponse>`, code, msg)
}

// newWSFEServer despacha por SOAPAction y captura los cuerpos enviados.
func newWSFEServer(t *testing.T, calls *atomic.Int32, bodies *[]string, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if bodies != nil {
			*bodies = append(*bodies, string(raw))
		}
		op := strings.TrimPrefix(r.Header.Get("SOAPAction"), wsfeNS)
		inner, ok := responses[op]
		require.True(t, ok, "operación inesperada: %s", op)
		fmt.Fprintf(w, `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>%s</soapenv:Body>
</soapenv:Envelope>`, inner)
	}))
}

func newWSFEClientForTest(url string) *WSFEClient {
	return NewWSFEClient(WSFEConfig{
		CUIT:        20123456786,
		Environment: EnvHomologation,
		URL:         url,
	}, stubTickets{}, testLogger())
}

func TestWSFEClient_LastVoucherNumber(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	server := newWSFEServer(t, &calls, &bodies, map[string]string{
		"FECompUltimoAutorizado": lastVoucherResponse,
	})
	defer server.Close()

	client := newWSFEClientForTest(server.URL)
	last, err := client.LastVoucherNumber(context.Background(), 1, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(41), last)

	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "<Token>tok-abc</Token>")
	assert.Contains(t, bodies[0], "<Cuit>20123456786</Cuit>")
	assert.Contains(t, bodies[0], "<PtoVta>1</PtoVta>")
	assert.Contains(t, bodies[0], "<CbteTipo>6</CbteTipo>")
}

func TestWSFEClient_RequestCAE_AsignaSiguienteNumero(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	server := newWSFEServer(t, &calls, &bodies, map[string]string{
		"FECompUltimoAutorizado": lastVoucherResponse,
		"FECAESolicitar":         caeApprovedResponse,
	})
	defer server.Close()

	client := newWSFEClientForTest(server.URL)
	resp, err := client.RequestCAE(context.Background(), facturaB(), true)
	require.NoError(t, err)

	assert.Equal(t, int64(42), resp.VoucherNumber, "último 41 -> se emite el 42")
	assert.Equal(t, "71234567890123", resp.CAE)
	assert.Equal(t, time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), resp.CAEExpiration)
	assert.Equal(t, "A", resp.Result)
	assert.Equal(t, int32(2), calls.Load(), "una lectura de numeración + una solicitud")

	// El comprobante viaja con montos a dos decimales y fechas yyyymmdd.
	submitted := bodies[1]
	assert.Contains(t, submitted, "<CbteDesde>42</CbteDesde>")
	assert.Contains(t, submitted, "<ImpTotal>121.00</ImpTotal>")
	assert.Contains(t, submitted, "<ImpNeto>100.00</ImpNeto>")
	assert.Contains(t, submitted, "<CbteFch>20260901</CbteFch>")
	assert.NotContains(t, submitted, "<Tributos>", "bloques opcionales vacíos no se serializan")
	assert.NotContains(t, submitted, "<CbtesAsoc>")
}

func TestWSFEClient_RequestCAE_ConTributos(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	server := newWSFEServer(t, &calls, &bodies, map[string]string{
		"FECompUltimoAutorizado": lastVoucherResponse,
		"FECAESolicitar":         caeApprovedResponse,
	})
	defer server.Close()

	req := facturaB()
	req.AmountOtherTaxes = decimal.RequireFromString("3.50")
	req.AmountTotal = decimal.RequireFromString("124.50")
	req.OtherTaxes = []domafip.OtherTax{{
		TributeID: 5, // ingresos brutos
		Detail:    "IIBB CABA",
		Base:      decimal.RequireFromString("100.00"),
		Rate:      decimal.RequireFromString("3.50"),
		Amount:    decimal.RequireFromString("3.50"),
	}}

	client := newWSFEClientForTest(server.URL)
	resp, err := client.RequestCAE(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.VoucherNumber, "último 41 -> se emite el 42")

	// El bloque Tributos viaja completo y el total de tributos en ImpTrib.
	submitted := bodies[1]
	assert.Contains(t, submitted, "<ImpTrib>3.50</ImpTrib>")
	assert.Contains(t, submitted,
		"<Tributos><Tributo><Id>5</Id><Desc>IIBB CABA</Desc><BaseImp>100.00</BaseImp><Alic>3.50</Alic><Importe>3.50</Importe></Tributo></Tributos>")
}

func TestWSFEClient_RequestCAE_ValidacionLocalSinRed(t *testing.T) {
	var calls atomic.Int32
	server := newWSFEServer(t, &calls, nil, nil)
	defer server.Close()

	client := newWSFEClientForTest(server.URL)
	req := facturaB()
	req.AmountTotal = decimal.RequireFromString("999.99") // totales inconsistentes

	_, err := client.RequestCAE(context.Background(), req, true)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int32(0), calls.Load(), "un pedido inválido nunca toca la red")
}

func TestWSFEClient_RequestCAE_RechazoFiscal(t *testing.T) {
	var calls atomic.Int32
	server := newWSFEServer(t, &calls, nil, map[string]string{
		"FECompUltimoAutorizado": lastVoucherResponse,
		"FECAESolicitar":         caeRejectedResponse(10048, "El importe total no coincide"),
	})
	defer server.Close()

	client := newWSFEClientForTest(server.URL)
	_, err := client.RequestCAE(context.Background(), facturaB(), true)
	require.Error(t, err)

	var rejection *domain.FiscalRejectionError
	require.ErrorAs(t, err, &rejection)
	require.Len(t, rejection.Observations, 1)
	assert.Equal(t, 10048, rejection.Observations[0].Code)
	assert.Equal(t, "El importe total no coincide", rejection.Observations[0].Message)

	// El mismo rechazo es reproducible: la observación llega igual en cada intento.
	_, err2 := client.RequestCAE(context.Background(), facturaB(), true)
	var rejection2 *domain.FiscalRejectionError
	require.ErrorAs(t, err2, &rejection2)
	assert.Equal(t, rejection.Observations, rejection2.Observations)
}

func TestWSFEClient_RequestCAE_ConflictoDeNumeracion(t *testing.T) {
	server := newWSFEServer(t, new(atomic.Int32), nil, map[string]string{
		"FECompUltimoAutorizado": lastVoucherResponse,
		"FECAESolicitar":         caeRejectedResponse(10016, "El numero o fecha del comprobante no se corresponde con el proximo a autorizar"),
	})
	defer server.Close()

	client := newWSFEClientForTest(server.URL)
	_, err := client.RequestCAE(context.Background(), facturaB(), true)
	assert.ErrorIs(t, err, domain.ErrSequenceConflict,
		"la observación 10016 es una carrera de numeración, no un rechazo fiscal")
}

func TestWSFEClient_CircuitBreakerAbreTrasFallas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // conexión rechazada

	client := NewWSFEClient(WSFEConfig{
		CUIT:        20123456786,
		Environment: EnvHomologation,
		URL:         server.URL,
		Breaker:     CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour},
	}, stubTickets{}, testLogger())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.LastVoucherNumber(ctx, 1, 6)
		assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
	}
	assert.Equal(t, CBOpen, client.breaker.State())

	// Con el circuito abierto la falla es inmediata, sin intento de red.
	_, err := client.LastVoucherNumber(ctx, 1, 6)
	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
}
