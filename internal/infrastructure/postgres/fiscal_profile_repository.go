package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	"github.com/tu-usuario/facturacion-pro/internal/domain/repository"
)

var _ repository.FiscalProfileRepository = (*FiscalProfileRepo)(nil)

// FiscalProfileRepo implementación de FiscalProfileRepository sobre PostgreSQL.
type FiscalProfileRepo struct {
	q Querier
}

// NewFiscalProfileRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalProfileRepository(q Querier) *FiscalProfileRepo {
	return &FiscalProfileRepo{q: q}
}

const fiscalProfileColumns = `
	id, tenant_id, cuit, razon_social, domicilio_fiscal, regimen,
	inicio_actividades, cert_encrypted, key_encrypted, cert_expiry,
	verificado, last_test_at, last_test_ok, last_test_msg,
	activo, created_at, updated_at`

// GetActiveByTenant devuelve el perfil activo del tenant, o nil si no hay.
func (r *FiscalProfileRepo) GetActiveByTenant(ctx context.Context, tenantID string) (*entity.FiscalProfile, error) {
	query := `SELECT ` + fiscalProfileColumns + `
		FROM fiscal_profiles WHERE tenant_id = $1 AND activo = true`
	return r.getOne(ctx, query, tenantID)
}

// GetByCUIT busca por CUIT en cualquier tenant (el CUIT es único global).
func (r *FiscalProfileRepo) GetByCUIT(ctx context.Context, cuit string) (*entity.FiscalProfile, error) {
	query := `SELECT ` + fiscalProfileColumns + `
		FROM fiscal_profiles WHERE cuit = $1`
	return r.getOne(ctx, query, cuit)
}

func (r *FiscalProfileRepo) getOne(ctx context.Context, query string, arg any) (*entity.FiscalProfile, error) {
	p, err := scanFiscalProfile(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal profile: %w", err)
	}
	return p, nil
}

// Create persiste un perfil nuevo.
func (r *FiscalProfileRepo) Create(ctx context.Context, p *entity.FiscalProfile) error {
	query := `
		INSERT INTO fiscal_profiles (` + fiscalProfileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.TenantID, p.CUIT, p.RazonSocial, nullIfEmpty(p.DomicilioFiscal), p.Regimen,
		p.InicioActividades, nullIfEmpty(p.CertEncrypted), nullIfEmpty(p.KeyEncrypted), p.CertExpiry,
		p.Verificado, p.LastTestAt, p.LastTestOK, nullIfEmpty(p.LastTestMsg),
		p.Activo, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: perfil fiscal", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert fiscal profile: %w", err)
	}
	return nil
}

// Update actualiza todos los campos mutables del perfil.
func (r *FiscalProfileRepo) Update(ctx context.Context, p *entity.FiscalProfile) error {
	query := `
		UPDATE fiscal_profiles
		SET cuit               = $2,
		    razon_social       = $3,
		    domicilio_fiscal   = $4,
		    regimen            = $5,
		    inicio_actividades = $6,
		    cert_encrypted     = $7,
		    key_encrypted      = $8,
		    cert_expiry        = $9,
		    verificado         = $10,
		    last_test_at       = $11,
		    last_test_ok       = $12,
		    last_test_msg      = $13,
		    activo             = $14,
		    updated_at         = $15
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CUIT, p.RazonSocial, nullIfEmpty(p.DomicilioFiscal), p.Regimen,
		p.InicioActividades, nullIfEmpty(p.CertEncrypted), nullIfEmpty(p.KeyEncrypted), p.CertExpiry,
		p.Verificado, p.LastTestAt, p.LastTestOK, nullIfEmpty(p.LastTestMsg),
		p.Activo, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: perfil fiscal", domain.ErrDuplicate)
		}
		return fmt.Errorf("update fiscal profile: %w", err)
	}
	return nil
}

func scanFiscalProfile(row pgxScanner) (*entity.FiscalProfile, error) {
	var p entity.FiscalProfile
	var domicilio, certEnc, keyEnc, lastTestMsg *string
	err := row.Scan(
		&p.ID, &p.TenantID, &p.CUIT, &p.RazonSocial, &domicilio, &p.Regimen,
		&p.InicioActividades, &certEnc, &keyEnc, &p.CertExpiry,
		&p.Verificado, &p.LastTestAt, &p.LastTestOK, &lastTestMsg,
		&p.Activo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.DomicilioFiscal = derefStr(domicilio)
	p.CertEncrypted = derefStr(certEnc)
	p.KeyEncrypted = derefStr(keyEnc)
	p.LastTestMsg = derefStr(lastTestMsg)
	return &p, nil
}

// pgxScanner abstrae pgx.Row y pgx.Rows para reutilizar los scanners.
type pgxScanner interface {
	Scan(dest ...any) error
}
