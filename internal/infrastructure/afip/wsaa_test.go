package afip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// stubSigner firma determinística para no depender de certificados reales.
type stubSigner struct {
	err    error
	signed atomic.Int32
}

func (s *stubSigner) Sign(payload []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.signed.Add(1)
	return append([]byte("cms:"), payload...), nil
}

// failingStoreCache cache cuyo Store siempre falla; Load delega en memoria.
type failingStoreCache struct {
	*MemoryTicketCache
}

func (c *failingStoreCache) Store(context.Context, string, *Ticket) error {
	return fmt.Errorf("disco lleno")
}

// loginTicketResponseXML arma el XML que WSAA devuelve dentro de loginCmsReturn.
func loginTicketResponseXML(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<loginTicketResponse version="1.0">
  <header>
    <source>CN=wsaahomo</source>
    <destination>C=ar, SERIALNUMBER=CUIT 20123456786</destination>
    <uniqueId>123456</uniqueId>
    <generationTime>%s</generationTime>
    <expirationTime>%s</expirationTime>
  </header>
  <credentials>
    <token>tok-abc</token>
    <sign>sig-xyz</sign>
  </credentials>
</loginTicketResponse>`,
		time.Now().UTC().Format(time.RFC3339), expiresAt.UTC().Format(time.RFC3339))
}

// newWSAAServer servidor SOAP de prueba que responde loginCms y cuenta llamadas.
func newWSAAServer(t *testing.T, calls *atomic.Int32, ticketXML string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "urn:loginCms", r.Header.Get("SOAPAction"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "loginCms", "el request debe invocar loginCms")
		// Prefijo Base64 del CMS del stubSigner ("cms" -> "Y21z").
		assert.Contains(t, string(body), base64.StdEncoding.EncodeToString([]byte("cms")),
			"el CMS debe viajar en Base64")

		var escaped bytes.Buffer
		require.NoError(t, xml.EscapeText(&escaped, []byte(ticketXML)))
		fmt.Fprintf(w, `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse xmlns="http://wsaa.view.sua.dvadac.desein.afip.gov">
      <loginCmsReturn>%s</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`, escaped.String())
	}))
}

func newWSAAClientForTest(url string, signer TRASigner, cache TicketCache) *WSAAClient {
	return NewWSAAClient(WSAAConfig{
		Service:     "wsfe",
		Environment: EnvHomologation,
		URL:         url,
	}, signer, cache, testLogger())
}

func TestWSAAClient_GetTicket_LoginYCache(t *testing.T) {
	var calls atomic.Int32
	server := newWSAAServer(t, &calls, loginTicketResponseXML(t, time.Now().Add(12*time.Hour)))
	defer server.Close()

	cache := NewMemoryTicketCache()
	client := newWSAAClientForTest(server.URL, &stubSigner{}, cache)

	ticket, err := client.GetTicket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", ticket.Token)
	assert.Equal(t, "sig-xyz", ticket.Sign)
	assert.Equal(t, "wsfe", ticket.Service)
	assert.Equal(t, int32(1), calls.Load())

	// Segunda llamada: cache vigente, cero tráfico de red.
	again, err := client.GetTicket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ticket.Token, again.Token)
	assert.Equal(t, int32(1), calls.Load(), "con ticket vigente no debe haber llamada de red")
}

func TestWSAAClient_GetTicket_VencidoReautentica(t *testing.T) {
	var calls atomic.Int32
	server := newWSAAServer(t, &calls, loginTicketResponseXML(t, time.Now().Add(12*time.Hour)))
	defer server.Close()

	cache := NewMemoryTicketCache()
	require.NoError(t, cache.Store(context.Background(), "wsfe", testTicket(-time.Minute)))

	client := newWSAAClientForTest(server.URL, &stubSigner{}, cache)
	ticket, err := client.GetTicket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", ticket.Token, "el ticket vencido se reemplaza por uno nuevo")
	assert.Equal(t, int32(1), calls.Load())
}

func TestWSAAClient_GetTicket_FaultEsRechazo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>ns1:cms.cert.expired</faultcode>
      <faultstring>Certificado expirado</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`)
	}))
	defer server.Close()

	client := newWSAAClientForTest(server.URL, &stubSigner{}, NewMemoryTicketCache())
	_, err := client.GetTicket(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthorityRejected)
	assert.Contains(t, err.Error(), "Certificado expirado")
}

func TestWSAAClient_GetTicket_ServidorCaidoEsNoDisponible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // conexión rechazada

	client := newWSAAClientForTest(server.URL, &stubSigner{}, NewMemoryTicketCache())
	_, err := client.GetTicket(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
}

func TestWSAAClient_GetTicket_FallaDeFirmaPropaga(t *testing.T) {
	client := newWSAAClientForTest("http://127.0.0.1:0", &stubSigner{err: domain.ErrSignature}, NewMemoryTicketCache())
	_, err := client.GetTicket(context.Background())
	assert.ErrorIs(t, err, domain.ErrSignature)
}

func TestWSAAClient_GetTicket_StoreFallidoNoRompe(t *testing.T) {
	var calls atomic.Int32
	server := newWSAAServer(t, &calls, loginTicketResponseXML(t, time.Now().Add(time.Hour)))
	defer server.Close()

	cache := &failingStoreCache{MemoryTicketCache: NewMemoryTicketCache()}
	client := newWSAAClientForTest(server.URL, &stubSigner{}, cache)

	ticket, err := client.GetTicket(context.Background())
	require.NoError(t, err, "la persistencia es best-effort; el ticket sirve en memoria")
	assert.Equal(t, "tok-abc", ticket.Token)
}

func TestParseLoginTicketResponse_SinCredenciales(t *testing.T) {
	_, err := ParseLoginTicketResponse([]byte(`<loginTicketResponse><header/></loginTicketResponse>`), "wsfe")
	assert.True(t, errors.Is(err, domain.ErrAuthorityRejected))
}
