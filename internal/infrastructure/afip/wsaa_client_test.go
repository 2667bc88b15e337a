package afip_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testCUIT = "20123456786"

// materialPEM genera un par certificado autofirmado + llave RSA.
func materialPEM(t *testing.T) afip.CertPair {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "wsaa-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)
	return afip.CertPair{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	}
}

// fakeSigner captura el TRA y devuelve un CMS fijo.
type fakeSigner struct {
	tra []byte
	err error
}

func (f *fakeSigner) SignTRA(tra []byte, _ tls.Certificate) ([]byte, error) {
	f.tra = tra
	if f.err != nil {
		return nil, f.err
	}
	return []byte("cms-firmado"), nil
}

// loginOKResponse arma la respuesta SOAP con el loginTicketResponse escapado,
// tal como lo devuelve WSAA.
func loginOKResponse(token, sign string, expiresAt time.Time) string {
	ticket := fmt.Sprintf(`<loginTicketResponse version="1.0">
  <header>
    <source>CN=wsaa</source>
    <destination>CN=wsaa-test</destination>
    <uniqueId>1</uniqueId>
    <generationTime>%s</generationTime>
    <expirationTime>%s</expirationTime>
  </header>
  <credentials>
    <token>%s</token>
    <sign>%s</sign>
  </credentials>
</loginTicketResponse>`,
		expiresAt.Add(-12*time.Hour).Format("2006-01-02T15:04:05-07:00"),
		expiresAt.Format("2006-01-02T15:04:05-07:00"),
		token, sign)

	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(ticket)
	return `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse xmlns="http://wsaa.view.sua.dvadac.desein.afip.gov">
      <loginCmsReturn>` + escaped + `</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`
}

const loginFaultResponse = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>cms.cert.expired</faultcode>
      <faultstring>Certificado expirado</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestWSAALogin_OK(t *testing.T) {
	expiresAt := time.Now().Add(12 * time.Hour).Truncate(time.Second)
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		fmt.Fprint(w, loginOKResponse("tok-abc", "sign-xyz", expiresAt))
	}))
	defer srv.Close()

	fs := &fakeSigner{}
	client := afip.NewWSAAClient(srv.URL, fs, 5*time.Second)

	cred, err := client.Login(context.Background(), materialPEM(t), testCUIT, "wsfe")
	require.NoError(t, err)
	assert.Equal(t, testCUIT, cred.CUIT)
	assert.Equal(t, "wsfe", cred.Service)
	assert.Equal(t, "tok-abc", cred.Token)
	assert.Equal(t, "sign-xyz", cred.Sign)
	assert.WithinDuration(t, expiresAt, cred.ExpiresAt, time.Second)

	// El TRA firmado lleva el servicio destino y la ventana de validez.
	tra := string(fs.tra)
	assert.Contains(t, tra, "<service>wsfe</service>")
	assert.Contains(t, tra, "<generationTime>")
	assert.Contains(t, tra, "<expirationTime>")

	// El request SOAP lleva el CMS en base64 ("cms-firmado" -> Y21zLWZpcm1hZG8=).
	assert.Contains(t, gotBody, "loginCms")
	assert.Contains(t, gotBody, "Y21zLWZpcm1hZG8=")
}

func TestWSAALogin_Fault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		fmt.Fprint(w, loginFaultResponse)
	}))
	defer srv.Close()

	client := afip.NewWSAAClient(srv.URL, &fakeSigner{}, 5*time.Second)
	_, err := client.Login(context.Background(), materialPEM(t), testCUIT, "wsfe")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAutenticacion)
	// El mensaje de AFIP viaja verbatim para diagnóstico.
	assert.Contains(t, err.Error(), "Certificado expirado")
}

func TestWSAALogin_ServidorCaido(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // cerrado a propósito

	client := afip.NewWSAAClient(srv.URL, &fakeSigner{}, time.Second)
	_, err := client.Login(context.Background(), materialPEM(t), testCUIT, "wsfe")
	assert.ErrorIs(t, err, domain.ErrTransporte)
}

func TestWSAALogin_RespuestaInesperada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>mantenimiento programado</html>`)
	}))
	defer srv.Close()

	client := afip.NewWSAAClient(srv.URL, &fakeSigner{}, 5*time.Second)
	_, err := client.Login(context.Background(), materialPEM(t), testCUIT, "wsfe")
	assert.ErrorIs(t, err, domain.ErrAutenticacion)
}

func TestWSAALogin_MaterialInvalido(t *testing.T) {
	client := afip.NewWSAAClient("http://127.0.0.1:1", &fakeSigner{}, time.Second)
	_, err := client.Login(context.Background(), afip.CertPair{
		CertPEM: []byte("no es un certificado"),
		KeyPEM:  []byte("no es una llave"),
	}, testCUIT, "wsfe")
	// Falla antes de tocar la red.
	assert.ErrorIs(t, err, domain.ErrCredencialesInvalidas)
}
