package afip

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// Valores por defecto del pedido de ticket de acceso.
const (
	// DefaultTicketTTL vida solicitada del ticket. WSAA puede acotarla; la
	// vigencia real siempre se toma del expirationTime de la respuesta.
	DefaultTicketTTL = 2400 * time.Minute
	// DefaultClockSkew margen hacia atrás del generationTime para tolerar
	// desfasajes de reloj con el servidor de AFIP.
	DefaultClockSkew = time.Minute
)

// buildTRA arma el loginTicketRequest (TRA) para el servicio dado.
// uniqueId es el epoch en segundos: único por pedido dentro de la granularidad
// que WSAA exige.
func buildTRA(service string, now time.Time, ttl, skew time.Duration) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(fmt.Sprintf("%d", now.Unix()))
	header.CreateElement("generationTime").SetText(now.Add(-skew).Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(now.Add(ttl).Format(time.RFC3339))
	root.CreateElement("service").SetText(service)

	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("tra: serializar: %w", err)
	}

	// Canonicalizar antes de firmar: bytes estables independientes de la
	// serialización del builder.
	canonical, err := canonicalizeXML(raw)
	if err != nil {
		return nil, fmt.Errorf("tra: canonicalizar: %w", err)
	}
	return canonical, nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
