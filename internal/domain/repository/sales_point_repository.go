package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
)

// SalesPointRepository acceso a puntos de venta de un perfil fiscal.
type SalesPointRepository interface {
	GetByID(ctx context.Context, id string) (*entity.SalesPoint, error)
	// GetByNumero busca por número dentro del perfil (unicidad perfil+número).
	GetByNumero(ctx context.Context, profileID string, numero int) (*entity.SalesPoint, error)
	// GetDefault devuelve el punto de venta marcado como default, o nil.
	GetDefault(ctx context.Context, profileID string) (*entity.SalesPoint, error)
	// GetAnyActive devuelve cualquier punto de venta activo del perfil, o nil.
	GetAnyActive(ctx context.Context, profileID string) (*entity.SalesPoint, error)
	ListByProfile(ctx context.Context, profileID string) ([]*entity.SalesPoint, error)
	Create(ctx context.Context, sp *entity.SalesPoint) error
	Update(ctx context.Context, sp *entity.SalesPoint) error
}
