package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
)

// ComprobanteRepository persistencia de comprobantes autorizados.
// Los comprobantes son inmutables: no hay Update genérico, solo la transición
// de anulación.
type ComprobanteRepository interface {
	// Create persiste el comprobante con sus ítems. Debe rechazar con
	// domain.ErrDuplicate si viola la unicidad (perfil, tipo, ptoVta, número).
	Create(ctx context.Context, c *entity.Comprobante) error
	GetByID(ctx context.Context, id string) (*entity.Comprobante, error)
	ListByProfile(ctx context.Context, profileID string, limit, offset int) ([]*entity.Comprobante, error)
	// MarcarAnulado transiciona el original a ANULADO y lo vincula a la nota
	// de crédito. Irreversible; falla con domain.ErrComprobanteAnulado si ya
	// estaba anulado.
	MarcarAnulado(ctx context.Context, originalID, notaCreditoID string) error
}
