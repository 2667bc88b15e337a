package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	"github.com/tu-usuario/facturacion-pro/internal/domain/repository"
)

var _ repository.ComprobanteRepository = (*ComprobanteRepo)(nil)

// ComprobanteRepo implementación de ComprobanteRepository sobre PostgreSQL.
// Recibe el pool (no un Querier): Create escribe cabecera e ítems en una
// transacción propia.
type ComprobanteRepo struct {
	pool *pgxpool.Pool
}

// NewComprobanteRepository construye el adaptador de comprobantes.
func NewComprobanteRepository(pool *pgxpool.Pool) *ComprobanteRepo {
	return &ComprobanteRepo{pool: pool}
}

const comprobanteColumns = `
	id, tenant_id, profile_id, sales_point_id, tipo_cbte, pto_vta, numero,
	cae, cae_vencimiento, fecha_emision,
	importe_neto, importe_iva, importe_total,
	doc_tipo, doc_nro, cond_iva_receptor,
	order_ref, cbte_asoc_id, motivo, estado, anulado_por_id, raw_response, created_at`

// Create persiste el comprobante con sus ítems de forma atómica. La unicidad
// (perfil, tipo, ptoVta, número) la garantiza un índice único; su violación se
// reporta como domain.ErrDuplicate para que el caller pueda reintentar con el
// número siguiente.
func (r *ComprobanteRepo) Create(ctx context.Context, c *entity.Comprobante) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO comprobantes (` + comprobanteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err = tx.Exec(ctx, query,
		c.ID, c.TenantID, c.ProfileID, c.SalesPointID, c.TipoCbte, c.PtoVta, c.Numero,
		c.CAE, c.CAEVencimiento, c.FechaEmision,
		c.ImporteNeto, c.ImporteIVA, c.ImporteTotal,
		c.DocTipo, c.DocNro, c.CondIVAReceptor,
		nullIfEmpty(c.OrderRef), c.CbteAsocID, nullIfEmpty(c.Motivo), c.Estado,
		c.AnuladoPorID, nullIfEmpty(c.RawResponse), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: comprobante %d-%d tipo %d", domain.ErrDuplicate, c.PtoVta, c.Numero, c.TipoCbte)
		}
		return fmt.Errorf("insert comprobante: %w", err)
	}

	itemQuery := `
		INSERT INTO comprobante_items (id, comprobante_id, orden, descripcion, cantidad, precio_unitario, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, it := range c.Items {
		if _, err := tx.Exec(ctx, itemQuery,
			it.ID, it.ComprobanteID, it.Orden, it.Descripcion,
			it.Cantidad, it.PrecioUnitario, it.Subtotal,
		); err != nil {
			return fmt.Errorf("insert comprobante item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID obtiene un comprobante completo (con ítems) por ID, o nil.
func (r *ComprobanteRepo) GetByID(ctx context.Context, id string) (*entity.Comprobante, error) {
	query := `SELECT ` + comprobanteColumns + ` FROM comprobantes WHERE id = $1`
	c, err := scanComprobante(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comprobante: %w", err)
	}
	if err := r.loadItems(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByProfile lista comprobantes del perfil, más recientes primero, sin ítems.
func (r *ComprobanteRepo) ListByProfile(ctx context.Context, profileID string, limit, offset int) ([]*entity.Comprobante, error) {
	query := `SELECT ` + comprobanteColumns + `
		FROM comprobantes WHERE profile_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comprobantes: %w", err)
	}
	defer rows.Close()

	var out []*entity.Comprobante
	for rows.Next() {
		c, err := scanComprobante(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comprobante: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarcarAnulado transiciona EMITIDO -> ANULADO y vincula la nota de crédito.
// La condición estado = 'EMITIDO' en el WHERE hace la transición idempotente a
// nivel de fila: una segunda anulación no matchea y falla.
func (r *ComprobanteRepo) MarcarAnulado(ctx context.Context, originalID, notaCreditoID string) error {
	query := `
		UPDATE comprobantes
		SET estado = $3, anulado_por_id = $2
		WHERE id = $1 AND estado = $4`
	tag, err := r.pool.Exec(ctx, query, originalID, notaCreditoID, entity.EstadoAnulado, entity.EstadoEmitido)
	if err != nil {
		return fmt.Errorf("marcar anulado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, originalID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: comprobante %s", domain.ErrNotFound, originalID)
		}
		return fmt.Errorf("%w: comprobante %s", domain.ErrComprobanteAnulado, originalID)
	}
	return nil
}

func (r *ComprobanteRepo) loadItems(ctx context.Context, c *entity.Comprobante) error {
	query := `
		SELECT id, comprobante_id, orden, descripcion, cantidad, precio_unitario, subtotal
		FROM comprobante_items WHERE comprobante_id = $1 ORDER BY orden ASC`
	rows, err := r.pool.Query(ctx, query, c.ID)
	if err != nil {
		return fmt.Errorf("list comprobante items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.ComprobanteItem
		if err := rows.Scan(&it.ID, &it.ComprobanteID, &it.Orden, &it.Descripcion,
			&it.Cantidad, &it.PrecioUnitario, &it.Subtotal); err != nil {
			return fmt.Errorf("scan comprobante item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return rows.Err()
}

func scanComprobante(row pgxScanner) (*entity.Comprobante, error) {
	var c entity.Comprobante
	var orderRef, motivo, rawResponse *string
	err := row.Scan(
		&c.ID, &c.TenantID, &c.ProfileID, &c.SalesPointID, &c.TipoCbte, &c.PtoVta, &c.Numero,
		&c.CAE, &c.CAEVencimiento, &c.FechaEmision,
		&c.ImporteNeto, &c.ImporteIVA, &c.ImporteTotal,
		&c.DocTipo, &c.DocNro, &c.CondIVAReceptor,
		&orderRef, &c.CbteAsocID, &motivo, &c.Estado, &c.AnuladoPorID, &rawResponse, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.OrderRef = derefStr(orderRef)
	c.Motivo = derefStr(motivo)
	c.RawResponse = derefStr(rawResponse)
	return &c, nil
}
