package afip

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

const padronNS = "http://a5.soap.ws.server.puc.sr/"

// PersonaInfo datos de padrón de un contribuyente (constancia de inscripción A5).
type PersonaInfo struct {
	CUIT         int64
	LegalName    string
	Address      string
	City         string
	ProvinceID   int
	PostalCode   string
	PersonType   string // FISICA | JURIDICA
	ActiveStatus string
}

// PadronClient consulta de padrón ws_sr_constancia_inscripcion. Comparte el
// mecanismo de tickets de WSAA pero con su propio servicio, por lo que recibe
// un TicketProvider independiente del de facturación.
type PadronClient struct {
	cuit       int64
	url        string
	tickets    TicketProvider
	httpClient *http.Client
	log        *logger.Logger
}

// PadronConfig parámetros del cliente de padrón.
type PadronConfig struct {
	CUIT        int64
	Environment string
	URL         string
	HTTPClient  *http.Client
}

// NewPadronClient construye el cliente de padrón A5.
func NewPadronClient(cfg PadronConfig, tickets TicketProvider, log *logger.Logger) *PadronClient {
	url := cfg.URL
	if url == "" {
		url = PadronEndpoint(cfg.Environment)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &PadronClient{cuit: cfg.CUIT, url: url, tickets: tickets, httpClient: httpClient, log: log.WithService("padron", cfg.Environment)}
}

type getPersonaBody struct {
	XMLName          xml.Name `xml:"getPersona"`
	Xmlns            string   `xml:"xmlns,attr"`
	Token            string   `xml:"token"`
	Sign             string   `xml:"sign"`
	CuitRepresentada int64    `xml:"cuitRepresentada"`
	IDPersona        int64    `xml:"idPersona"`
}

type getPersonaResponse struct {
	XMLName xml.Name      `xml:"getPersonaResponse"`
	Return  personaReturn `xml:"personaReturn"`
}

type personaReturn struct {
	DatosGenerales  *datosGenerales `xml:"datosGenerales"`
	ErrorConstancia *struct {
		Error []string `xml:"error"`
	} `xml:"errorConstancia"`
}

type datosGenerales struct {
	IDPersona       int64  `xml:"idPersona"`
	RazonSocial     string `xml:"razonSocial"`
	Nombre          string `xml:"nombre"`
	Apellido        string `xml:"apellido"`
	TipoPersona     string `xml:"tipoPersona"`
	EstadoClave     string `xml:"estadoClave"`
	DomicilioFiscal *struct {
		Direccion   string `xml:"direccion"`
		Localidad   string `xml:"localidad"`
		IDProvincia int    `xml:"idProvincia"`
		CodPostal   string `xml:"codPostal"`
	} `xml:"domicilioFiscal"`
}

// GetPersona consulta los datos de padrón de un CUIT. Un CUIT inexistente o
// sin constancia devuelve domain.ErrNotFound.
func (c *PadronClient) GetPersona(ctx context.Context, cuit int64) (*PersonaInfo, error) {
	ticket, err := c.tickets.GetTicket(ctx)
	if err != nil {
		return nil, err
	}
	body := &getPersonaBody{
		Xmlns:            padronNS,
		Token:            ticket.Token,
		Sign:             ticket.Sign,
		CuitRepresentada: c.cuit,
		IDPersona:        cuit,
	}
	inner, fault, err := postSOAP(ctx, c.httpClient, c.url, "", body)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		// El A5 responde "No existe persona" como fault en vez de errorConstancia.
		if strings.Contains(strings.ToLower(fault.FaultString), "no existe") {
			return nil, fmt.Errorf("%w: persona %d", domain.ErrNotFound, cuit)
		}
		return nil, fmt.Errorf("%w: [%s] %s", domain.ErrAuthorityRejected, fault.FaultCode, fault.FaultString)
	}
	var resp getPersonaResponse
	if err := xml.Unmarshal(inner, &resp); err != nil {
		return nil, fmt.Errorf("%w: respuesta getPersona ilegible: %v", domain.ErrAuthorityUnavailable, err)
	}
	if resp.Return.ErrorConstancia != nil {
		return nil, fmt.Errorf("%w: persona %d: %s", domain.ErrNotFound, cuit, strings.Join(resp.Return.ErrorConstancia.Error, "; "))
	}
	dg := resp.Return.DatosGenerales
	if dg == nil {
		return nil, fmt.Errorf("%w: persona %d sin datos generales", domain.ErrNotFound, cuit)
	}

	info := &PersonaInfo{
		CUIT:         dg.IDPersona,
		LegalName:    dg.RazonSocial,
		PersonType:   dg.TipoPersona,
		ActiveStatus: dg.EstadoClave,
	}
	// Personas físicas no traen razón social; se compone apellido + nombre.
	if info.LegalName == "" {
		info.LegalName = strings.TrimSpace(dg.Apellido + " " + dg.Nombre)
	}
	if dg.DomicilioFiscal != nil {
		info.Address = dg.DomicilioFiscal.Direccion
		info.City = dg.DomicilioFiscal.Localidad
		info.ProvinceID = dg.DomicilioFiscal.IDProvincia
		info.PostalCode = dg.DomicilioFiscal.CodPostal
	}
	return info, nil
}
