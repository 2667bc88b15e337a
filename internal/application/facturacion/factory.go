package facturacion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	"github.com/tu-usuario/facturacion-pro/internal/domain/repository"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
	"github.com/tu-usuario/facturacion-pro/pkg/logger"
	"github.com/tu-usuario/facturacion-pro/pkg/vault"
	"github.com/tu-usuario/facturacion-pro/internal/application/dto"
)

// SessionFactory resuelve (tenant -> perfil fiscal -> punto de venta) y
// entrega sesiones de emisión listas para usar. También administra el ciclo de
// vida de la configuración fiscal: alta/cambio de credenciales, test de
// conexión, desconexión.
type SessionFactory struct {
	profiles    repository.FiscalProfileRepository
	salesPoints repository.SalesPointRepository
	comprobantes repository.ComprobanteRepository

	sessions *SessionManager
	wsfe     WSFEPort
	cache    TokenCache
	vault    CredentialVault
	locks    *numeracionLocks
	log      *logger.Logger
}

// NewSessionFactory construye la fábrica con todos sus colaboradores.
func NewSessionFactory(
	profiles repository.FiscalProfileRepository,
	salesPoints repository.SalesPointRepository,
	comprobantes repository.ComprobanteRepository,
	sessions *SessionManager,
	wsfe WSFEPort,
	cache TokenCache,
	credVault CredentialVault,
	log *logger.Logger,
) *SessionFactory {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionFactory{
		profiles:     profiles,
		salesPoints:  salesPoints,
		comprobantes: comprobantes,
		sessions:     sessions,
		wsfe:         wsfe,
		cache:        cache,
		vault:        credVault,
		locks:        newNumeracionLocks(),
		log:          log.Component("facturacion"),
	}
}

// ForTenant resuelve la sesión de emisión del tenant. ptoVta > 0 exige ese
// punto de venta; 0 resuelve default -> cualquiera activo. Falla con
// ErrPerfilNoConfigurado, ErrPerfilNoVerificado o ErrPuntoVentaNoDisponible
// según qué eslabón falte.
func (f *SessionFactory) ForTenant(ctx context.Context, tenantID string, ptoVta int) (*Session, error) {
	profile, err := f.profiles.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.CertEncrypted == "" || profile.KeyEncrypted == "" {
		return nil, domain.ErrPerfilNoConfigurado
	}
	if !profile.Verificado {
		return nil, domain.ErrPerfilNoVerificado
	}

	sp, err := f.resolverPuntoVenta(ctx, profile.ID, ptoVta)
	if err != nil {
		return nil, err
	}

	return &Session{
		profile:      profile,
		salesPoint:   sp,
		sessions:     f.sessions,
		wsfe:         f.wsfe,
		comprobantes: f.comprobantes,
		locks:        f.locks,
		log:          f.log,
	}, nil
}

func (f *SessionFactory) resolverPuntoVenta(ctx context.Context, profileID string, numero int) (*entity.SalesPoint, error) {
	if numero > 0 {
		sp, err := f.salesPoints.GetByNumero(ctx, profileID, numero)
		if err != nil {
			return nil, err
		}
		if sp == nil || !sp.Activo {
			return nil, fmt.Errorf("%w: punto de venta %d", domain.ErrPuntoVentaNoDisponible, numero)
		}
		return sp, nil
	}
	sp, err := f.salesPoints.GetDefault(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		sp, err = f.salesPoints.GetAnyActive(ctx, profileID)
		if err != nil {
			return nil, err
		}
	}
	if sp == nil {
		return nil, domain.ErrPuntoVentaNoDisponible
	}
	return sp, nil
}

// GuardarConfiguracion crea o actualiza el perfil fiscal del tenant. Valida
// estructura del material de firma, lo encripta antes de tocar la DB y, si las
// credenciales cambiaron, resetea la verificación y purga el cache de tokens.
// El material en claro no se retiene ni se loguea.
func (f *SessionFactory) GuardarConfiguracion(ctx context.Context, tenantID string, in dto.ConfiguracionFiscalRequest) (*entity.FiscalProfile, error) {
	cuit := pkgafip.NormalizeCUIT(in.CUIT)
	if err := pkgafip.ValidateCUIT(cuit); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.Regimen != pkgafip.RegimenResponsableInscripto && in.Regimen != pkgafip.RegimenMonotributo {
		return nil, fmt.Errorf("%w: régimen desconocido %q", domain.ErrInvalidInput, in.Regimen)
	}

	certPEM := []byte(in.Certificado)
	keyPEM := []byte(in.LlavePrivada)
	cambiaCredenciales := len(certPEM) > 0 || len(keyPEM) > 0
	if cambiaCredenciales {
		if !vault.LooksLikeCertificate(certPEM) {
			return nil, fmt.Errorf("%w: el certificado no es un bloque PEM CERTIFICATE válido", domain.ErrCredencialesInvalidas)
		}
		if !vault.LooksLikePrivateKey(keyPEM) {
			return nil, fmt.Errorf("%w: la llave privada no es un bloque PEM válido", domain.ErrCredencialesInvalidas)
		}
	}

	// Unicidad global del CUIT: otro tenant no puede registrar el mismo.
	existing, err := f.profiles.GetByCUIT(ctx, cuit)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.TenantID != tenantID {
		return nil, fmt.Errorf("%w: el CUIT ya está registrado", domain.ErrDuplicate)
	}

	now := time.Now()
	profile, err := f.profiles.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	isNew := profile == nil
	if isNew {
		profile = &entity.FiscalProfile{
			ID:        uuid.New().String(),
			TenantID:  tenantID,
			Activo:    true,
			CreatedAt: now,
		}
	}

	cuitCambia := profile.CUIT != "" && profile.CUIT != cuit
	profile.CUIT = cuit
	profile.RazonSocial = pkgafip.NormalizeTexto(in.RazonSocial)
	profile.DomicilioFiscal = pkgafip.NormalizeTexto(in.DomicilioFiscal)
	profile.Regimen = in.Regimen
	if !in.InicioActividades.IsZero() {
		profile.InicioActividades = in.InicioActividades
	}
	profile.UpdatedAt = now

	if cambiaCredenciales {
		certEnc, err := f.vault.Encrypt(certPEM)
		if err != nil {
			return nil, fmt.Errorf("encriptar certificado: %w", err)
		}
		keyEnc, err := f.vault.Encrypt(keyPEM)
		if err != nil {
			return nil, fmt.Errorf("encriptar llave privada: %w", err)
		}
		profile.CertEncrypted = certEnc
		profile.KeyEncrypted = keyEnc
		if expiry, err := vault.CertExpiry(certPEM); err == nil {
			profile.CertExpiry = &expiry
		}
	}

	// Cualquier cambio de credenciales o de CUIT invalida la verificación: el
	// próximo test de conexión la restablece.
	if cambiaCredenciales || cuitCambia {
		profile.Verificado = false
		profile.LastTestAt = nil
		profile.LastTestOK = false
		profile.LastTestMsg = ""
		f.cache.Invalidate(profile.CUIT)
	}

	if isNew {
		err = f.profiles.Create(ctx, profile)
	} else {
		err = f.profiles.Update(ctx, profile)
	}
	if err != nil {
		return nil, err
	}

	f.log.Info().
		Str("tenant_id", tenantID).
		Str("cuit", profile.CUIT).
		Bool("credenciales_nuevas", cambiaCredenciales).
		Msg("configuración fiscal guardada")
	return profile, nil
}

// TestConnection ejecuta el intercambio WSAA completo para el perfil del
// tenant y persiste el resultado: Verificado, timestamp y mensaje quedan en el
// perfil sea éxito o fallo.
func (f *SessionFactory) TestConnection(ctx context.Context, tenantID string) (*TestResult, error) {
	profile, err := f.profiles.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.CertEncrypted == "" || profile.KeyEncrypted == "" {
		return nil, domain.ErrPerfilNoConfigurado
	}

	result := f.sessions.TestConnection(ctx, profile)

	now := time.Now()
	profile.Verificado = result.OK
	profile.LastTestAt = &now
	profile.LastTestOK = result.OK
	profile.LastTestMsg = result.Mensaje
	profile.UpdatedAt = now
	if err := f.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return result, nil
}

// Desconectar aplica el soft-disconnect del perfil del tenant: vacía
// credenciales, desactiva y purga cualquier token cacheado. El perfil y sus
// comprobantes quedan para historia.
func (f *SessionFactory) Desconectar(ctx context.Context, tenantID string) error {
	profile, err := f.profiles.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if profile == nil {
		return domain.ErrPerfilNoConfigurado
	}
	cuit := profile.CUIT
	profile.Desconectar(time.Now())
	if err := f.profiles.Update(ctx, profile); err != nil {
		return err
	}
	f.cache.Invalidate(cuit)
	f.log.Info().Str("tenant_id", tenantID).Str("cuit", cuit).Msg("perfil fiscal desconectado")
	return nil
}

// InvalidarCache purga los tokens WSAA del tenant (todos los servicios). El
// próximo uso fuerza un login nuevo.
func (f *SessionFactory) InvalidarCache(ctx context.Context, tenantID string) error {
	profile, err := f.profiles.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if profile == nil {
		return domain.ErrPerfilNoConfigurado
	}
	f.cache.Invalidate(profile.CUIT)
	return nil
}

// Perfil devuelve el perfil activo del tenant, o ErrPerfilNoConfigurado.
func (f *SessionFactory) Perfil(ctx context.Context, tenantID string) (*entity.FiscalProfile, error) {
	profile, err := f.profiles.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrPerfilNoConfigurado
	}
	return profile, nil
}

// PuntosVenta lista los puntos de venta del perfil del tenant.
func (f *SessionFactory) PuntosVenta(ctx context.Context, tenantID string) ([]*entity.SalesPoint, error) {
	profile, err := f.Perfil(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return f.salesPoints.ListByProfile(ctx, profile.ID)
}

// GuardarPuntoVenta crea o actualiza un punto de venta del perfil del tenant.
// Valida el rango AFIP y la unicidad (perfil, número); marcar uno como default
// desmarca el anterior.
func (f *SessionFactory) GuardarPuntoVenta(ctx context.Context, tenantID string, in dto.PuntoVentaRequest) (*entity.SalesPoint, error) {
	if in.Numero < pkgafip.PtoVtaMin || in.Numero > pkgafip.PtoVtaMax {
		return nil, fmt.Errorf("%w: punto de venta fuera de rango [%d..%d]", domain.ErrInvalidInput, pkgafip.PtoVtaMin, pkgafip.PtoVtaMax)
	}
	profile, err := f.Perfil(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sp, err := f.salesPoints.GetByNumero(ctx, profile.ID, in.Numero)
	if err != nil {
		return nil, err
	}
	isNew := sp == nil
	if isNew {
		sp = &entity.SalesPoint{
			ID:        uuid.New().String(),
			ProfileID: profile.ID,
			Numero:    in.Numero,
			Activo:    true,
			CreatedAt: now,
		}
	}
	sp.Descripcion = pkgafip.NormalizeTexto(in.Descripcion)
	sp.EsDefault = in.EsDefault
	if in.Activo != nil {
		sp.Activo = *in.Activo
	}
	sp.UpdatedAt = now

	if sp.EsDefault {
		if prev, err := f.salesPoints.GetDefault(ctx, profile.ID); err != nil {
			return nil, err
		} else if prev != nil && prev.ID != sp.ID {
			prev.EsDefault = false
			prev.UpdatedAt = now
			if err := f.salesPoints.Update(ctx, prev); err != nil {
				return nil, err
			}
		}
	}

	if isNew {
		err = f.salesPoints.Create(ctx, sp)
	} else {
		err = f.salesPoints.Update(ctx, sp)
	}
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// Comprobantes lista los comprobantes del perfil del tenant, más recientes
// primero.
func (f *SessionFactory) Comprobantes(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Comprobante, error) {
	profile, err := f.Perfil(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return f.comprobantes.ListByProfile(ctx, profile.ID, limit, offset)
}

// Comprobante devuelve un comprobante por ID, verificando pertenencia al tenant.
func (f *SessionFactory) Comprobante(ctx context.Context, tenantID, id string) (*entity.Comprobante, error) {
	profile, err := f.Perfil(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c, err := f.comprobantes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ProfileID != profile.ID {
		return nil, fmt.Errorf("%w: comprobante", domain.ErrNotFound)
	}
	return c, nil
}
