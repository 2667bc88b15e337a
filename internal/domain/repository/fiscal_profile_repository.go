package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
)

// FiscalProfileRepository acceso a perfiles fiscales.
type FiscalProfileRepository interface {
	// GetActiveByTenant devuelve el perfil activo del tenant, o nil si no hay.
	GetActiveByTenant(ctx context.Context, tenantID string) (*entity.FiscalProfile, error)
	// GetByCUIT busca por CUIT normalizado en cualquier tenant (unicidad global).
	GetByCUIT(ctx context.Context, cuit string) (*entity.FiscalProfile, error)
	Create(ctx context.Context, p *entity.FiscalProfile) error
	Update(ctx context.Context, p *entity.FiscalProfile) error
}
