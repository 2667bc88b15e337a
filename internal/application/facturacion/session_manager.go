package facturacion

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	infrafip "github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
	"github.com/tu-usuario/facturacion-pro/pkg/logger"
)

// renovacionMargen margen de seguridad respecto de la expiración real del
// token WSAA: se renueva una hora antes para no usar una credencial que venza
// en pleno vuelo.
const renovacionMargen = time.Hour

// SessionManager produce credenciales (token, sign) vigentes para un perfil y
// servicio destino, reutilizando el cache de forma transparente.
type SessionManager struct {
	cache TokenCache
	wsaa  WSAAPort
	vault CredentialVault
	log   *logger.Logger
}

// NewSessionManager construye el manager.
func NewSessionManager(cache TokenCache, wsaa WSAAPort, vault CredentialVault, log *logger.Logger) *SessionManager {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionManager{cache: cache, wsaa: wsaa, vault: vault, log: log.Component("wsaa")}
}

// Credencial devuelve una credencial vigente para (perfil, servicio):
// cache si hay, si no desencripta el material de firma, ejecuta el login y
// guarda el resultado. Ante cualquier fallo el cache queda intacto.
func (m *SessionManager) Credencial(ctx context.Context, profile *entity.FiscalProfile, service string) (*infrafip.SessionCredential, error) {
	if cred, ok := m.cache.Get(profile.CUIT, service); ok {
		return cred, nil
	}

	certPEM, err := m.vault.Decrypt(profile.CertEncrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: certificado: %v", domain.ErrCredencialesInvalidas, err)
	}
	keyPEM, err := m.vault.Decrypt(profile.KeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: llave privada: %v", domain.ErrCredencialesInvalidas, err)
	}

	cred, err := m.wsaa.Login(ctx, infrafip.CertPair{CertPEM: certPEM, KeyPEM: keyPEM}, profile.CUIT, service)
	if err != nil {
		return nil, err
	}

	ttl := time.Until(cred.ExpiresAt) - renovacionMargen
	if ttl <= 0 {
		// Token más corto que el margen (raro): usar la vigencia cruda.
		ttl = time.Until(cred.ExpiresAt)
	}
	m.cache.Put(cred, ttl)

	m.log.Info().
		Str("cuit", profile.CUIT).
		Str("service", service).
		Time("expires_at", cred.ExpiresAt).
		Msg("credencial WSAA renovada")
	return cred, nil
}

// TestResult resultado del test de conexión.
type TestResult struct {
	OK        bool
	Mensaje   string
	ExpiresAt time.Time
}

// TestConnection ejecuta el intercambio completo una vez (purgando primero la
// credencial cacheada para forzar un login real) y reporta éxito o el error de
// AFIP. La fábrica usa el resultado para el flag de verificación del perfil.
func (m *SessionManager) TestConnection(ctx context.Context, profile *entity.FiscalProfile) *TestResult {
	m.cache.Invalidate(profile.CUIT, serviceWSFE)
	cred, err := m.Credencial(ctx, profile, serviceWSFE)
	if err != nil {
		return &TestResult{OK: false, Mensaje: err.Error()}
	}
	return &TestResult{OK: true, Mensaje: "autenticación exitosa", ExpiresAt: cred.ExpiresAt}
}
