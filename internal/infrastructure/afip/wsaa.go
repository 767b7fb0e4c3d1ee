package afip

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

const wsaaNS = "http://wsaa.view.sua.dvadac.desein.afip.gov"

// TRASigner firma el TRA y devuelve la envolvente CMS en DER.
// La implementación concreta es signer.CryptoSigner; en tests se inyecta un stub.
type TRASigner interface {
	Sign(payload []byte) ([]byte, error)
}

// WSAAClient cliente del servicio de autenticación de AFIP (WSAA).
// Obtiene tickets de acceso y los cachea por servicio: WSAA limita la cantidad
// de logins por servicio y por día, así que cada login evitado cuenta.
type WSAAClient struct {
	service    string
	url        string
	signer     TRASigner
	cache      TicketCache
	httpClient *http.Client
	ttl        time.Duration
	skew       time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// WSAAConfig parámetros del cliente WSAA.
type WSAAConfig struct {
	Service     string        // nombre del servicio destino ("wsfe", "ws_sr_constancia_inscripcion")
	Environment string        // EnvProduction | EnvHomologation
	URL         string        // override de endpoint (tests); vacío = según Environment
	TicketTTL   time.Duration // vida solicitada del ticket; 0 = DefaultTicketTTL
	ClockSkew   time.Duration // 0 = DefaultClockSkew
	HTTPClient  *http.Client  // nil = cliente con timeout de 30 s
}

// NewWSAAClient construye el cliente para un servicio destino.
func NewWSAAClient(cfg WSAAConfig, traSigner TRASigner, cache TicketCache, log *logger.Logger) *WSAAClient {
	url := cfg.URL
	if url == "" {
		url = WSAAEndpoint(cfg.Environment)
	}
	ttl := cfg.TicketTTL
	if ttl == 0 {
		ttl = DefaultTicketTTL
	}
	skew := cfg.ClockSkew
	if skew == 0 {
		skew = DefaultClockSkew
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WSAAClient{
		service:    cfg.Service,
		url:        url,
		signer:     traSigner,
		cache:      cache,
		httpClient: httpClient,
		ttl:        ttl,
		skew:       skew,
		log:        log.WithService("wsaa:"+cfg.Service, cfg.Environment),
		now:        time.Now,
	}
}

// ── Estructuras de la operación loginCms ──────────────────────────────────────

type loginCmsBody struct {
	XMLName xml.Name `xml:"wsaa:loginCms"`
	Xmlns   string   `xml:"xmlns:wsaa,attr"`
	In0     string   `xml:"wsaa:in0"` // CMS en Base64
}

type loginCmsResponse struct {
	XMLName xml.Name `xml:"loginCmsResponse"`
	Return  string   `xml:"loginCmsReturn"` // loginTicketResponse (XML escapado)
}

// GetTicket devuelve un ticket de acceso vigente para el servicio del cliente.
// Con cache vigente no hay llamada de red. Varios callers concurrentes pueden
// loguearse a la vez (WSAA lo tolera); la cache queda con el último guardado.
func (c *WSAAClient) GetTicket(ctx context.Context) (*Ticket, error) {
	if ticket, err := c.cache.Load(ctx, c.service); err == nil {
		return ticket, nil
	}

	ticket, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	// Persistencia best-effort: el ticket ya sirve en memoria para esta llamada.
	if err := c.cache.Store(ctx, c.service, ticket); err != nil {
		c.log.Warn().Err(err).Str("service", c.service).Msg("wsaa: no se pudo persistir el ticket")
	}
	return ticket, nil
}

// login arma el TRA, lo firma y ejecuta loginCms contra WSAA.
func (c *WSAAClient) login(ctx context.Context) (*Ticket, error) {
	tra, err := buildTRA(c.service, c.now(), c.ttl, c.skew)
	if err != nil {
		return nil, err
	}
	cms, err := c.signer.Sign(tra)
	if err != nil {
		return nil, err
	}

	body := &loginCmsBody{
		Xmlns: wsaaNS,
		In0:   base64.StdEncoding.EncodeToString(cms),
	}
	inner, fault, err := postSOAP(ctx, c.httpClient, c.url, "urn:loginCms", body)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		// WSAA responde con Fault cuando rechaza el CMS (certificado vencido,
		// no autorizado para el servicio, TRA fuera de ventana, etc.).
		return nil, fmt.Errorf("%w: [%s] %s", domain.ErrAuthorityRejected, fault.FaultCode, fault.FaultString)
	}

	var resp loginCmsResponse
	if err := xml.Unmarshal(inner, &resp); err != nil {
		return nil, fmt.Errorf("%w: respuesta loginCms ilegible: %v", domain.ErrAuthorityRejected, err)
	}
	ticket, err := ParseLoginTicketResponse([]byte(resp.Return), c.service)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("service", c.service).
		Time("expira", ticket.ExpiresAt).
		Msg("wsaa: ticket de acceso obtenido")
	return ticket, nil
}
