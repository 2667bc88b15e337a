package afip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
)

// ── Constantes WSFEv1 ─────────────────────────────────────────────────────────

const (
	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"

	wsfeSOAPNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	wsfeServiceNS  = "http://ar.gov.afip.dif.FEV1/"
	wsfeActionBase = "http://ar.gov.afip.dif.FEV1/"
)

// WSFEClient cliente SOAP de facturación electrónica (WSFEv1): consulta del
// último número autorizado y solicitud de CAE.
type WSFEClient struct {
	httpClient *http.Client
	url        string
}

// NewWSFEClient construye el cliente. url vacío usa el endpoint de producción.
func NewWSFEClient(url string, timeout time.Duration) *WSFEClient {
	if url == "" {
		url = wsfeURLProd
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WSFEClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// ── Estructuras SOAP de request ───────────────────────────────────────────────

type wsfeEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	XmlnsS  string   `xml:"xmlns:soap,attr"`
	XmlnsAr string   `xml:"xmlns:ar,attr"`
	Body    wsfeBody `xml:"soap:Body"`
}

type wsfeBody struct {
	Content interface{}
}

func (b wsfeBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soap:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type feAuthXML struct {
	Token string `xml:"ar:Token"`
	Sign  string `xml:"ar:Sign"`
	Cuit  int64  `xml:"ar:Cuit"`
}

type feCompUltimoAutorizadoBody struct {
	XMLName  xml.Name  `xml:"ar:FECompUltimoAutorizado"`
	Auth     feAuthXML `xml:"ar:Auth"`
	PtoVta   int       `xml:"ar:PtoVta"`
	CbteTipo int       `xml:"ar:CbteTipo"`
}

type feCAESolicitarBody struct {
	XMLName  xml.Name   `xml:"ar:FECAESolicitar"`
	Auth     feAuthXML  `xml:"ar:Auth"`
	FeCAEReq feCAEReq   `xml:"ar:FeCAEReq"`
}

type feCAEReq struct {
	FeCabReq feCabReq `xml:"ar:FeCabReq"`
	FeDetReq feDetReq `xml:"ar:FeDetReq"`
}

type feCabReq struct {
	CantReg  int `xml:"ar:CantReg"`
	PtoVta   int `xml:"ar:PtoVta"`
	CbteTipo int `xml:"ar:CbteTipo"`
}

type feDetReq struct {
	Det []feCAEDetRequest `xml:"ar:FECAEDetRequest"`
}

type feCAEDetRequest struct {
	Concepto               int    `xml:"ar:Concepto"`
	DocTipo                int    `xml:"ar:DocTipo"`
	DocNro                 int64  `xml:"ar:DocNro"`
	CbteDesde              int64  `xml:"ar:CbteDesde"`
	CbteHasta              int64  `xml:"ar:CbteHasta"`
	CbteFch                string `xml:"ar:CbteFch"` // AAAAMMDD
	ImpTotal               string `xml:"ar:ImpTotal"`
	ImpTotConc             string `xml:"ar:ImpTotConc"`
	ImpNeto                string `xml:"ar:ImpNeto"`
	ImpOpEx                string `xml:"ar:ImpOpEx"`
	ImpTrib                string `xml:"ar:ImpTrib"`
	ImpIVA                 string `xml:"ar:ImpIVA"`
	MonId                  string `xml:"ar:MonId"`
	MonCotiz               string `xml:"ar:MonCotiz"`
	CondicionIVAReceptorId int    `xml:"ar:CondicionIVAReceptorId"`
	CbtesAsoc              *cbtesAsocXML `xml:"ar:CbtesAsoc,omitempty"`
	Iva                    *ivaXML       `xml:"ar:Iva,omitempty"`
}

type cbtesAsocXML struct {
	CbteAsoc []cbteAsocXML `xml:"ar:CbteAsoc"`
}

type cbteAsocXML struct {
	Tipo    int    `xml:"ar:Tipo"`
	PtoVta  int    `xml:"ar:PtoVta"`
	Nro     int64  `xml:"ar:Nro"`
	Cuit    string `xml:"ar:Cuit"`
	CbteFch string `xml:"ar:CbteFch"`
}

type ivaXML struct {
	AlicIva []alicIvaXML `xml:"ar:AlicIva"`
}

type alicIvaXML struct {
	Id      int    `xml:"ar:Id"`
	BaseImp string `xml:"ar:BaseImp"`
	Importe string `xml:"ar:Importe"`
}

// ── Estructuras SOAP de respuesta ─────────────────────────────────────────────

type wsfeResponseEnvelope struct {
	Body wsfeResponseBody `xml:"Body"`
}

type wsfeResponseBody struct {
	UltimoResponse *feCompUltimoAutorizadoResponse `xml:"FECompUltimoAutorizadoResponse"`
	CAEResponse    *feCAESolicitarResponse         `xml:"FECAESolicitarResponse"`
	Fault          *soapFault                      `xml:"Fault"`
}

type feCompUltimoAutorizadoResponse struct {
	Result feCompUltimoAutorizadoResult `xml:"FECompUltimoAutorizadoResult"`
}

type feCompUltimoAutorizadoResult struct {
	PtoVta   int       `xml:"PtoVta"`
	CbteTipo int       `xml:"CbteTipo"`
	CbteNro  int64     `xml:"CbteNro"`
	Errors   *feErrors `xml:"Errors"`
}

type feCAESolicitarResponse struct {
	Result feCAESolicitarResult `xml:"FECAESolicitarResult"`
}

type feCAESolicitarResult struct {
	FeCabResp feCabResp  `xml:"FeCabResp"`
	FeDetResp feDetResp2 `xml:"FeDetResp"`
	Errors    *feErrors  `xml:"Errors"`
}

type feCabResp struct {
	Resultado string `xml:"Resultado"` // A | R | P
}

type feDetResp2 struct {
	Det []feCAEDetResponse `xml:"FECAEDetResponse"`
}

type feCAEDetResponse struct {
	CbteDesde     int64              `xml:"CbteDesde"`
	Resultado     string             `xml:"Resultado"`
	CAE           string             `xml:"CAE"`
	CAEFchVto     string             `xml:"CAEFchVto"`
	Observaciones *feObservaciones   `xml:"Observaciones"`
}

type feObservaciones struct {
	Obs []feObs `xml:"Obs"`
}

type feObs struct {
	Code int    `xml:"Code"`
	Msg  string `xml:"Msg"`
}

type feErrors struct {
	Err []feObs `xml:"Err"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// UltimoAutorizado consulta el último número autorizado para el punto de venta
// y tipo de comprobante. Devuelve 0 si todavía no hay comprobantes. El caller
// suma 1 para el candidato; no hay atomicidad del lado de AFIP.
func (c *WSFEClient) UltimoAutorizado(ctx context.Context, auth FEAuth, ptoVta, cbteTipo int) (int64, error) {
	body := &feCompUltimoAutorizadoBody{
		Auth:     feAuthXML{Token: auth.Token, Sign: auth.Sign, Cuit: auth.CUIT},
		PtoVta:   ptoVta,
		CbteTipo: cbteTipo,
	}
	raw, err := c.call(ctx, "FECompUltimoAutorizado", body)
	if err != nil {
		return 0, err
	}

	var envResp wsfeResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return 0, fmt.Errorf("%w: respuesta no parseable: %s", domain.ErrTransporte, truncate(raw, 500))
	}
	if envResp.Body.Fault != nil {
		return 0, faultError(envResp.Body.Fault)
	}
	if envResp.Body.UltimoResponse == nil {
		return 0, fmt.Errorf("%w: respuesta vacía de FECompUltimoAutorizado", domain.ErrTransporte)
	}
	result := envResp.Body.UltimoResponse.Result
	if err := wsErrors(result.Errors); err != nil {
		return 0, err
	}
	return result.CbteNro, nil
}

// SolicitarCAE envía el comprobante a autorizar (un registro por llamada) y
// parsea el resultado, observaciones incluidas. Un Resultado "R" no es un
// error de transporte: el CAEResult lo informa y el caller decide.
func (c *WSFEClient) SolicitarCAE(ctx context.Context, auth FEAuth, req *CAERequest) (*CAEResult, error) {
	det := feCAEDetRequest{
		Concepto:               pkgafip.ConceptoProductos,
		DocTipo:                req.DocTipo,
		DocNro:                 req.DocNro,
		CbteDesde:              req.CbteNro,
		CbteHasta:              req.CbteNro,
		CbteFch:                pkgafip.FormatFecha(req.Fecha),
		ImpTotal:               req.ImpTotal.StringFixed(2),
		ImpTotConc:             "0.00",
		ImpNeto:                req.ImpNeto.StringFixed(2),
		ImpOpEx:                "0.00",
		ImpTrib:                "0.00",
		ImpIVA:                 req.ImpIVA.StringFixed(2),
		MonId:                  pkgafip.MonedaPesos,
		MonCotiz:               "1.00",
		CondicionIVAReceptorId: req.CondIVAReceptor,
	}
	// Bloque IVA solo cuando hay impuesto discriminado mayor a cero.
	if req.AlicIVAID != 0 && req.ImpIVA.GreaterThan(decimal.Zero) {
		det.Iva = &ivaXML{AlicIva: []alicIvaXML{{
			Id:      req.AlicIVAID,
			BaseImp: req.ImpNeto.StringFixed(2),
			Importe: req.ImpIVA.StringFixed(2),
		}}}
	}
	// Notas de crédito: back-reference obligatoria al comprobante original.
	if req.CbteAsoc != nil {
		det.CbtesAsoc = &cbtesAsocXML{CbteAsoc: []cbteAsocXML{{
			Tipo:    req.CbteAsoc.Tipo,
			PtoVta:  req.CbteAsoc.PtoVta,
			Nro:     req.CbteAsoc.Nro,
			Cuit:    pkgafip.NormalizeCUIT(req.CbteAsoc.CUIT),
			CbteFch: pkgafip.FormatFecha(req.CbteAsoc.Fecha),
		}}}
	}

	body := &feCAESolicitarBody{
		Auth: feAuthXML{Token: auth.Token, Sign: auth.Sign, Cuit: auth.CUIT},
		FeCAEReq: feCAEReq{
			FeCabReq: feCabReq{CantReg: 1, PtoVta: req.PtoVta, CbteTipo: req.CbteTipo},
			FeDetReq: feDetReq{Det: []feCAEDetRequest{det}},
		},
	}
	raw, err := c.call(ctx, "FECAESolicitar", body)
	if err != nil {
		return nil, err
	}

	var envResp wsfeResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("%w: respuesta no parseable: %s", domain.ErrTransporte, truncate(raw, 500))
	}
	if envResp.Body.Fault != nil {
		return nil, faultError(envResp.Body.Fault)
	}
	if envResp.Body.CAEResponse == nil {
		return nil, fmt.Errorf("%w: respuesta vacía de FECAESolicitar", domain.ErrTransporte)
	}
	result := envResp.Body.CAEResponse.Result
	if err := wsErrors(result.Errors); err != nil {
		return nil, err
	}
	if len(result.FeDetResp.Det) == 0 {
		return nil, fmt.Errorf("%w: FECAESolicitar sin detalle de respuesta", domain.ErrTransporte)
	}
	detResp := result.FeDetResp.Det[0]

	out := &CAEResult{
		Resultado:   detResp.Resultado,
		CAE:         detResp.CAE,
		RawResponse: string(raw),
	}
	if detResp.Observaciones != nil {
		for _, o := range detResp.Observaciones.Obs {
			out.Observaciones = append(out.Observaciones, domain.Observacion{Code: o.Code, Msg: o.Msg})
		}
	}
	if detResp.CAEFchVto != "" {
		vto, errFch := pkgafip.ParseFecha(detResp.CAEFchVto)
		if errFch != nil {
			return nil, fmt.Errorf("wsfe: vencimiento de CAE: %w", errFch)
		}
		out.CAEVencimiento = vto
	}
	return out, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// call ejecuta una operación SOAP y devuelve el body crudo.
func (c *WSFEClient) call(ctx context.Context, action string, content interface{}) ([]byte, error) {
	envelope := wsfeEnvelope{
		XmlnsS:  wsfeSOAPNS,
		XmlnsAr: wsfeServiceNS,
		Body:    wsfeBody{Content: content},
	}
	payload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wsfe: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("wsfe: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", wsfeActionBase+action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransporte, err)
	}
	return raw, nil
}

func faultError(f *soapFault) error {
	return fmt.Errorf("%w: SOAP Fault [%s]: %s", domain.ErrTransporte, f.FaultCode, f.FaultString)
}

// wsErrors mapea el array Errors de WSFE. Los códigos 600-602 son fallas del
// bloque Auth (token inválido o vencido); el resto es rechazo de negocio y
// viaja verbatim.
func wsErrors(errs *feErrors) error {
	if errs == nil || len(errs.Err) == 0 {
		return nil
	}
	for _, e := range errs.Err {
		if e.Code >= 600 && e.Code <= 602 {
			return fmt.Errorf("%w: [%d] %s", domain.ErrAutenticacion, e.Code, e.Msg)
		}
	}
	obs := make([]domain.Observacion, 0, len(errs.Err))
	for _, e := range errs.Err {
		obs = append(obs, domain.Observacion{Code: e.Code, Msg: e.Msg})
	}
	return domain.NewRechazoError(obs)
}
