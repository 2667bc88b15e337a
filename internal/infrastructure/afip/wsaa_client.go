package afip

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip/signer"
)

// ── Constantes WSAA ───────────────────────────────────────────────────────────

const (
	wsaaURLProd = "https://wsaa.afip.gov.ar/ws/services/LoginCms"

	wsaaSOAPNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	wsaaServiceNS  = "http://wsaa.view.sua.dvadac.desein.afip.gov"
	wsaaSOAPAction = ""

	// traVentana es la ventana de validez del TRA: generationTime un poco en
	// el pasado y expirationTime un poco en el futuro, para tolerar skew de
	// reloj contra AFIP. Independiente de la vida multi-hora del token.
	traVentana = 10 * time.Minute

	tsOffsetFormat = "2006-01-02T15:04:05-07:00"
)

// TRASigner puerto de firma del TRA; la implementación concreta es el
// servicio CMS, para tests se puede inyectar un fake.
type TRASigner interface {
	SignTRA(tra []byte, cert tls.Certificate) ([]byte, error)
}

// WSAAClient cliente del servicio de autenticación de AFIP.
type WSAAClient struct {
	httpClient *http.Client
	signer     TRASigner
	url        string
}

// NewWSAAClient construye el cliente. url vacío usa el endpoint de producción.
func NewWSAAClient(url string, traSigner TRASigner, timeout time.Duration) *WSAAClient {
	if url == "" {
		url = wsaaURLProd
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if traSigner == nil {
		traSigner = signer.NewCMSService()
	}
	return &WSAAClient{
		httpClient: &http.Client{Timeout: timeout},
		signer:     traSigner,
		url:        url,
	}
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type wsaaEnvelope struct {
	XMLName xml.Name     `xml:"soapenv:Envelope"`
	XmlnsS  string       `xml:"xmlns:soapenv,attr"`
	XmlnsW  string       `xml:"xmlns:wsaa,attr"`
	Body    wsaaBody     `xml:"soapenv:Body"`
}

type wsaaBody struct {
	LoginCms loginCmsBody `xml:"wsaa:loginCms"`
}

type loginCmsBody struct {
	In0 string `xml:"wsaa:in0"` // CMS en Base64
}

type wsaaResponseEnvelope struct {
	Body wsaaResponseBody `xml:"Body"`
}

type wsaaResponseBody struct {
	LoginResponse *loginCmsResponse `xml:"loginCmsResponse"`
	Fault         *soapFault        `xml:"Fault"`
}

type loginCmsResponse struct {
	Return string `xml:"loginCmsReturn"` // loginTicketResponse escapado
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Login ─────────────────────────────────────────────────────────────────────

// Login ejecuta el intercambio completo: TRA -> firma CMS -> loginCms -> token.
// El material de firma llega en claro (recién desencriptado); acá nunca se
// persiste ni se loguea.
func (c *WSAAClient) Login(ctx context.Context, pair CertPair, cuit, service string) (*SessionCredential, error) {
	cert, err := signer.ParsePair(pair.CertPEM, pair.KeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCredencialesInvalidas, err)
	}

	tra, err := buildTRA(service, time.Now())
	if err != nil {
		return nil, fmt.Errorf("wsaa: construir TRA: %w", err)
	}
	cms, err := c.signer.SignTRA(tra, cert)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAutenticacion, err)
	}

	envelope := wsaaEnvelope{
		XmlnsS: wsaaSOAPNS,
		XmlnsW: wsaaServiceNS,
		Body: wsaaBody{LoginCms: loginCmsBody{
			In0: base64.StdEncoding.EncodeToString(cms),
		}},
	}
	payload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wsaa: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("wsaa: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", wsaaSOAPAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransporte, err)
	}

	return parseLoginResponse(rawBody, cuit, service)
}

// buildTRA arma el loginTicketRequest con ventana de validez ±10 minutos.
func buildTRA(service string, now time.Time) ([]byte, error) {
	if service == "" {
		return nil, fmt.Errorf("servicio destino vacío")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(fmt.Sprintf("%d", uuid.New().ID()))
	header.CreateElement("generationTime").SetText(now.Add(-traVentana).Format(tsOffsetFormat))
	header.CreateElement("expirationTime").SetText(now.Add(traVentana).Format(tsOffsetFormat))

	root.CreateElement("service").SetText(service)

	doc.Indent(2)
	return doc.WriteToBytes()
}

// parseLoginResponse desempaqueta el SOAP y el loginTicketResponse interno.
func parseLoginResponse(rawBody []byte, cuit, service string) (*SessionCredential, error) {
	var envResp wsaaResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		return nil, fmt.Errorf("%w: respuesta SOAP no parseable: %s", domain.ErrAutenticacion, truncate(rawBody, 500))
	}

	// SOAP Fault: CMS inválido, certificado vencido, CUIT incorrecto, skew de
	// reloj. El mensaje de AFIP viaja verbatim en el error.
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("%w: [%s] %s", domain.ErrAutenticacion,
			envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}
	if envResp.Body.LoginResponse == nil || envResp.Body.LoginResponse.Return == "" {
		return nil, fmt.Errorf("%w: respuesta vacía o inesperada: %s", domain.ErrAutenticacion, truncate(rawBody, 500))
	}

	// loginCmsReturn es un XML escapado dentro del SOAP; etree lo parsea
	// directo del string ya des-escapado por encoding/xml.
	ticket := etree.NewDocument()
	if err := ticket.ReadFromString(envResp.Body.LoginResponse.Return); err != nil {
		return nil, fmt.Errorf("%w: loginTicketResponse no parseable: %v", domain.ErrAutenticacion, err)
	}

	token := textOf(ticket, "//credentials/token")
	sign := textOf(ticket, "//credentials/sign")
	expiration := textOf(ticket, "//header/expirationTime")
	if token == "" || sign == "" || expiration == "" {
		return nil, fmt.Errorf("%w: loginTicketResponse sin token, sign o expirationTime", domain.ErrAutenticacion)
	}
	expiresAt, err := time.Parse(tsOffsetFormat, expiration)
	if err != nil {
		// AFIP a veces responde con fracción de segundo.
		expiresAt, err = time.Parse("2006-01-02T15:04:05.999-07:00", expiration)
		if err != nil {
			return nil, fmt.Errorf("%w: expirationTime %q no parseable", domain.ErrAutenticacion, expiration)
		}
	}

	return &SessionCredential{
		CUIT:      cuit,
		Service:   service,
		Token:     token,
		Sign:      sign,
		ExpiresAt: expiresAt,
	}, nil
}

func textOf(doc *etree.Document, path string) string {
	if el := doc.FindElement(path); el != nil {
		return el.Text()
	}
	return ""
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
