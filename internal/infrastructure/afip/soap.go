package afip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

const soapNS = "http://schemas.xmlsoap.org/soap/envelope/"

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"soapenv:Envelope"`
	XmlnsS  string     `xml:"xmlns:soapenv,attr"`
	Body    soapBody   `xml:"soapenv:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	Fault *soapFault `xml:"Fault"`
	Inner []byte     `xml:",innerxml"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── POST SOAP ─────────────────────────────────────────────────────────────────

// postSOAP serializa el body en un envelope SOAP 1.1, lo envía y devuelve el
// XML interno del Body de la respuesta. Errores de transporte o timeout se
// mapean a ErrAuthorityUnavailable; un SOAP Fault se devuelve tipado para que
// cada cliente decida (WSAA lo trata como rechazo de autenticación).
func postSOAP(ctx context.Context, client *http.Client, url, action string, body interface{}) ([]byte, *soapFault, error) {
	envelope := soapEnvelope{
		XmlnsS: soapNS,
		Body:   soapBody{Content: body},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	payload = append([]byte(xml.Header), payload...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrAuthorityUnavailable, ctx.Err())
		}
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // máx 1 MB
	if err != nil {
		return nil, nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrAuthorityUnavailable, err)
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, nil, fmt.Errorf("%w: respuesta SOAP ilegible (HTTP %d)", domain.ErrAuthorityUnavailable, resp.StatusCode)
	}
	if envResp.Body.Fault != nil {
		return nil, envResp.Body.Fault, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: HTTP %d", domain.ErrAuthorityUnavailable, resp.StatusCode)
	}
	return envResp.Body.Inner, nil, nil
}
