// Package afip implementa los clientes de los web services de AFIP: WSAA
// (autenticación con TRA firmado CMS), WSFEv1 (numeración y solicitud de CAE)
// y el padrón de contribuyentes, más el cache de credenciales de sesión.
package afip

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
)

// SessionCredential es la credencial de corta vida que WSAA entrega para un
// (CUIT, servicio). No se persiste: vive solo en el cache de proceso.
type SessionCredential struct {
	CUIT      string
	Service   string
	Token     string // opaco, viaja en el bloque Auth de cada llamada WSFE
	Sign      string // opaco, ídem
	ExpiresAt time.Time
}

// CertPair material de firma en claro, recién desencriptado del vault.
// Nunca se loguea ni se serializa.
type CertPair struct {
	CertPEM []byte
	KeyPEM  []byte
}

// FEAuth bloque Auth que exige cada operación de WSFEv1.
type FEAuth struct {
	Token string
	Sign  string
	CUIT  int64
}

// CbteAsoc referencia al comprobante original que toda nota de crédito debe
// llevar; AFIP rechaza notas de crédito sin este bloque.
type CbteAsoc struct {
	Tipo   int
	PtoVta int
	Nro    int64
	CUIT   string // CUIT del emisor del comprobante original
	Fecha  time.Time
}

// CAERequest campos del comprobante a autorizar vía FECAESolicitar.
type CAERequest struct {
	PtoVta   int
	CbteTipo int
	CbteNro  int64
	Fecha    time.Time

	DocTipo         int
	DocNro          int64
	CondIVAReceptor int

	ImpNeto  decimal.Decimal
	ImpIVA   decimal.Decimal
	ImpTotal decimal.Decimal
	// AlicIVAID código de alícuota para el bloque Iva; 0 = sin bloque (tipo C
	// o IVA cero).
	AlicIVAID int

	CbteAsoc *CbteAsoc // solo notas de crédito
}

// CAEResult resultado parseado de FECAESolicitar para un comprobante.
type CAEResult struct {
	Resultado      string // "A" aprobado | "R" rechazado
	CAE            string
	CAEVencimiento time.Time
	Observaciones  []domain.Observacion // verbatim de AFIP en los rechazos
	RawResponse    string               // XML completo, retenido para auditoría
}

// Aprobado indica si AFIP autorizó el comprobante.
func (r *CAEResult) Aprobado() bool { return r.Resultado == "A" }

// ContribuyenteInfo datos best-effort del padrón para pre-cargar el receptor.
type ContribuyenteInfo struct {
	CUIT         string
	RazonSocial  string
	CondicionIVA int // afip.CondIVA*; CondIVANoCategorizado si no se pudo inferir
}
