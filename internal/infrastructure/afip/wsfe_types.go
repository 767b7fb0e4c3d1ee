package afip

import "encoding/xml"

// Formato de cable de WSFEv1 (namespace http://ar.gov.afip.dif.FEV1/).
// Los montos viajan con dos decimales y las fechas de comprobante en yyyymmdd.
// Los bloques opcionales son punteros: nil se omite de la serialización, que
// es lo que el esquema remoto exige para colecciones vacías.

const wsfeNS = "http://ar.gov.afip.dif.FEV1/"

// feAuth credenciales de acceso: ticket WSAA + CUIT representado.
type feAuth struct {
	Token string `xml:"Token"`
	Sign  string `xml:"Sign"`
	Cuit  int64  `xml:"Cuit"`
}

// ── FECompUltimoAutorizado ────────────────────────────────────────────────────

type feCompUltimoAutorizadoBody struct {
	XMLName  xml.Name `xml:"FECompUltimoAutorizado"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     feAuth   `xml:"Auth"`
	PtoVta   int      `xml:"PtoVta"`
	CbteTipo int      `xml:"CbteTipo"`
}

type feCompUltimoAutorizadoResponse struct {
	XMLName xml.Name                     `xml:"FECompUltimoAutorizadoResponse"`
	Result  feCompUltimoAutorizadoResult `xml:"FECompUltimoAutorizadoResult"`
}

type feCompUltimoAutorizadoResult struct {
	PtoVta   int       `xml:"PtoVta"`
	CbteTipo int       `xml:"CbteTipo"`
	CbteNro  int64     `xml:"CbteNro"`
	Errors   []feCode  `xml:"Errors>Err"`
	Events   []feCode  `xml:"Events>Evt"`
}

// ── FECAESolicitar ────────────────────────────────────────────────────────────

type feCAESolicitarBody struct {
	XMLName  xml.Name `xml:"FECAESolicitar"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     feAuth   `xml:"Auth"`
	FeCAEReq feCAEReq `xml:"FeCAEReq"`
}

type feCAEReq struct {
	FeCabReq feCabReq          `xml:"FeCabReq"`
	FeDetReq []feCAEDetRequest `xml:"FeDetReq>FECAEDetRequest"`
}

type feCabReq struct {
	CantReg  int `xml:"CantReg"`
	PtoVta   int `xml:"PtoVta"`
	CbteTipo int `xml:"CbteTipo"`
}

type feCAEDetRequest struct {
	Concepto   int    `xml:"Concepto"`
	DocTipo    int    `xml:"DocTipo"`
	DocNro     int64  `xml:"DocNro"`
	CbteDesde  int64  `xml:"CbteDesde"`
	CbteHasta  int64  `xml:"CbteHasta"`
	CbteFch    string `xml:"CbteFch"` // yyyymmdd
	ImpTotal   string `xml:"ImpTotal"`
	ImpTotConc string `xml:"ImpTotConc"` // neto no gravado
	ImpNeto    string `xml:"ImpNeto"`
	ImpOpEx    string `xml:"ImpOpEx"` // exento
	ImpTrib    string `xml:"ImpTrib"`
	ImpIVA     string `xml:"ImpIVA"`

	// Solo concepto 2 o 3; vacío se omite.
	FchServDesde string `xml:"FchServDesde,omitempty"`
	FchServHasta string `xml:"FchServHasta,omitempty"`
	FchVtoPago   string `xml:"FchVtoPago,omitempty"`

	MonId    string `xml:"MonId"`
	MonCotiz string `xml:"MonCotiz"`

	// Bloques opcionales: nil no se serializa (exigencia del esquema remoto).
	CbtesAsoc    *feCbtesAsoc    `xml:"CbtesAsoc,omitempty"`
	Tributos     *feTributos     `xml:"Tributos,omitempty"`
	Iva          *feIva          `xml:"Iva,omitempty"`
	Opcionales   *feOpcionales   `xml:"Opcionales,omitempty"`
	Compradores  *feCompradores  `xml:"Compradores,omitempty"`
	PeriodoAsoc  *fePeriodoAsoc  `xml:"PeriodoAsoc,omitempty"`
	Actividades  *feActividades  `xml:"Actividades,omitempty"`
}

type feCbtesAsoc struct {
	CbteAsoc []feCbteAsoc `xml:"CbteAsoc"`
}

type feCbteAsoc struct {
	Tipo    int    `xml:"Tipo"`
	PtoVta  int    `xml:"PtoVta"`
	Nro     int64  `xml:"Nro"`
	Cuit    int64  `xml:"Cuit,omitempty"`
	CbteFch string `xml:"CbteFch,omitempty"`
}

type feTributos struct {
	Tributo []feTributo `xml:"Tributo"`
}

type feTributo struct {
	Id      int    `xml:"Id"`
	Desc    string `xml:"Desc,omitempty"`
	BaseImp string `xml:"BaseImp"`
	Alic    string `xml:"Alic"`
	Importe string `xml:"Importe"`
}

type feIva struct {
	AlicIva []feAlicIva `xml:"AlicIva"`
}

type feAlicIva struct {
	Id      int    `xml:"Id"`
	BaseImp string `xml:"BaseImp"`
	Importe string `xml:"Importe"`
}

type feOpcionales struct {
	Opcional []feOpcional `xml:"Opcional"`
}

type feOpcional struct {
	Id    string `xml:"Id"`
	Valor string `xml:"Valor"`
}

type feCompradores struct {
	Comprador []feComprador `xml:"Comprador"`
}

type feComprador struct {
	DocTipo    int    `xml:"DocTipo"`
	DocNro     int64  `xml:"DocNro"`
	Porcentaje string `xml:"Porcentaje"`
}

type fePeriodoAsoc struct {
	FchDesde string `xml:"FchDesde"`
	FchHasta string `xml:"FchHasta"`
}

type feActividades struct {
	Actividad []feActividad `xml:"Actividad"`
}

type feActividad struct {
	Id int64 `xml:"Id"`
}

// ── Respuesta FECAESolicitar ──────────────────────────────────────────────────

type feCAESolicitarResponse struct {
	XMLName xml.Name             `xml:"FECAESolicitarResponse"`
	Result  feCAESolicitarResult `xml:"FECAESolicitarResult"`
}

type feCAESolicitarResult struct {
	FeCabResp feCabResp          `xml:"FeCabResp"`
	// El WS devuelve el detalle como lista aunque se haya pedido un solo
	// comprobante; el slice acepta ambas formas sin distinción.
	FeDetResp []feCAEDetResponse `xml:"FeDetResp>FECAEDetResponse"`
	Events    []feCode           `xml:"Events>Evt"`
	Errors    []feCode           `xml:"Errors>Err"`
}

type feCabResp struct {
	Cuit      int64  `xml:"Cuit"`
	PtoVta    int    `xml:"PtoVta"`
	CbteTipo  int    `xml:"CbteTipo"`
	FchProceso string `xml:"FchProceso"`
	CantReg   int    `xml:"CantReg"`
	Resultado string `xml:"Resultado"` // "A" | "R" | "P"
}

type feCAEDetResponse struct {
	Concepto      int      `xml:"Concepto"`
	DocTipo       int      `xml:"DocTipo"`
	DocNro        int64    `xml:"DocNro"`
	CbteDesde     int64    `xml:"CbteDesde"`
	CbteHasta     int64    `xml:"CbteHasta"`
	CbteFch       string   `xml:"CbteFch"`
	Resultado     string   `xml:"Resultado"`
	CAE           string   `xml:"CAE"`
	CAEFchVto     string   `xml:"CAEFchVto"`
	Observaciones []feCode `xml:"Observaciones>Obs"`
}

// feCode par código+mensaje usado en errores, eventos y observaciones.
type feCode struct {
	Code int    `xml:"Code"`
	Msg  string `xml:"Msg"`
}
