// Package afip implementa los clientes de los web services de AFIP:
// WSAA (autenticación por ticket de acceso), WSFEv1 (autorización de
// comprobantes / CAE) y el padrón de contribuyentes.
package afip

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

// Ticket es el ticket de acceso (TA) devuelto por WSAA: par token+sign opaco
// con su ventana de validez. Inmutable: al vencer se reemplaza, nunca se muta.
type Ticket struct {
	Token       string
	Sign        string
	GeneratedAt time.Time
	ExpiresAt   time.Time
	Service     string
}

// Valid informa si el ticket sigue vigente en el instante dado.
func (t *Ticket) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// ParseLoginTicketResponse parsea el XML loginTicketResponse de WSAA.
// service se asocia al ticket resultante (WSAA no lo repite en la respuesta).
func ParseLoginTicketResponse(raw []byte, service string) (*Ticket, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: parsear loginTicketResponse: %v", domain.ErrAuthorityRejected, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: loginTicketResponse sin raíz", domain.ErrAuthorityRejected)
	}

	token := textOf(root, "credentials/token")
	sign := textOf(root, "credentials/sign")
	if token == "" || sign == "" {
		return nil, fmt.Errorf("%w: loginTicketResponse sin credenciales", domain.ErrAuthorityRejected)
	}

	generated, err := parseWSAATime(textOf(root, "header/generationTime"))
	if err != nil {
		generated = time.Now().UTC()
	}
	expires, err := parseWSAATime(textOf(root, "header/expirationTime"))
	if err != nil {
		return nil, fmt.Errorf("%w: expirationTime ilegible: %v", domain.ErrAuthorityRejected, err)
	}

	return &Ticket{
		Token:       token,
		Sign:        sign,
		GeneratedAt: generated,
		ExpiresAt:   expires,
		Service:     service,
	}, nil
}

// MarshalXML serializa el ticket al formato persistido por la cache
// (mismo esquema que la respuesta de WSAA, con el servicio agregado).
func (t *Ticket) MarshalXML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("loginTicketResponse")
	header := root.CreateElement("header")
	header.CreateElement("generationTime").SetText(t.GeneratedAt.Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(t.ExpiresAt.Format(time.RFC3339))
	header.CreateElement("service").SetText(t.Service)
	creds := root.CreateElement("credentials")
	creds.CreateElement("token").SetText(t.Token)
	creds.CreateElement("sign").SetText(t.Sign)
	doc.Indent(2)
	return doc.WriteToBytes()
}

// textOf devuelve el texto del primer elemento que matchea el path, o "".
func textOf(root *etree.Element, path string) string {
	if el := root.FindElement(path); el != nil {
		return el.Text()
	}
	return ""
}

// parseWSAATime acepta los formatos de fecha que emite WSAA (ISO-8601 con y sin zona).
func parseWSAATime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("fecha vacía")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999999-07:00", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("formato de fecha desconocido: %q", s)
}
