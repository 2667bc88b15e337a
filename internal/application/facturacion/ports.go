package facturacion

import (
	"context"
	"time"

	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	infrafip "github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
)

// Puertos de salida del motor de facturación. Las implementaciones concretas
// viven en internal/infrastructure; para tests se inyectan fakes.

// TokenCache cache de credenciales WSAA por (CUIT, servicio). Estado mutable
// compartido entre todos los caminos de emisión: la implementación debe ser
// segura para acceso concurrente.
type TokenCache interface {
	Get(cuit, service string) (*infrafip.SessionCredential, bool)
	Put(cred *infrafip.SessionCredential, ttl time.Duration)
	Invalidate(cuit string, services ...string)
	InvalidateAll()
}

// WSAAPort intercambio de autenticación contra AFIP.
type WSAAPort interface {
	Login(ctx context.Context, pair infrafip.CertPair, cuit, service string) (*infrafip.SessionCredential, error)
}

// WSFEPort numeración y autorización de comprobantes.
type WSFEPort interface {
	UltimoAutorizado(ctx context.Context, auth infrafip.FEAuth, ptoVta, cbteTipo int) (int64, error)
	SolicitarCAE(ctx context.Context, auth infrafip.FEAuth, req *infrafip.CAERequest) (*infrafip.CAEResult, error)
}

// CredentialVault encripta/desencripta material de firma en reposo.
type CredentialVault interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(envelope string) ([]byte, error)
}

// PadronLookup enriquecimiento best-effort de datos del receptor. Un error
// nunca debe bloquear la emisión.
type PadronLookup interface {
	Consultar(ctx context.Context, cuit string) (*infrafip.ContribuyenteInfo, error)
}

// DocumentRenderer colaborador externo que produce la representación
// imprimible de un comprobante ya autorizado. Fuera del alcance del motor;
// solo se define el puerto que la capa exterior implementa.
type DocumentRenderer interface {
	Render(ctx context.Context, c *entity.Comprobante, p *entity.FiscalProfile) ([]byte, error)
}
