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

var _ repository.SalesPointRepository = (*SalesPointRepo)(nil)

// SalesPointRepo implementación de SalesPointRepository sobre PostgreSQL.
type SalesPointRepo struct {
	q Querier
}

// NewSalesPointRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesPointRepository(q Querier) *SalesPointRepo {
	return &SalesPointRepo{q: q}
}

const salesPointColumns = `
	id, profile_id, numero, descripcion, es_default, activo, created_at, updated_at`

func (r *SalesPointRepo) GetByID(ctx context.Context, id string) (*entity.SalesPoint, error) {
	query := `SELECT ` + salesPointColumns + ` FROM sales_points WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByNumero busca por número dentro del perfil.
func (r *SalesPointRepo) GetByNumero(ctx context.Context, profileID string, numero int) (*entity.SalesPoint, error) {
	query := `SELECT ` + salesPointColumns + `
		FROM sales_points WHERE profile_id = $1 AND numero = $2`
	return r.getOne(ctx, query, profileID, numero)
}

// GetDefault devuelve el punto de venta default activo del perfil, o nil.
func (r *SalesPointRepo) GetDefault(ctx context.Context, profileID string) (*entity.SalesPoint, error) {
	query := `SELECT ` + salesPointColumns + `
		FROM sales_points WHERE profile_id = $1 AND es_default = true AND activo = true`
	return r.getOne(ctx, query, profileID)
}

// GetAnyActive devuelve el punto de venta activo de número más bajo, o nil.
func (r *SalesPointRepo) GetAnyActive(ctx context.Context, profileID string) (*entity.SalesPoint, error) {
	query := `SELECT ` + salesPointColumns + `
		FROM sales_points WHERE profile_id = $1 AND activo = true
		ORDER BY numero ASC LIMIT 1`
	return r.getOne(ctx, query, profileID)
}

func (r *SalesPointRepo) getOne(ctx context.Context, query string, args ...any) (*entity.SalesPoint, error) {
	sp, err := scanSalesPoint(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales point: %w", err)
	}
	return sp, nil
}

// ListByProfile lista los puntos de venta del perfil ordenados por número.
func (r *SalesPointRepo) ListByProfile(ctx context.Context, profileID string) ([]*entity.SalesPoint, error) {
	query := `SELECT ` + salesPointColumns + `
		FROM sales_points WHERE profile_id = $1 ORDER BY numero ASC`
	rows, err := r.q.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("list sales points: %w", err)
	}
	defer rows.Close()

	var out []*entity.SalesPoint
	for rows.Next() {
		sp, err := scanSalesPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales point: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Create persiste un punto de venta nuevo.
func (r *SalesPointRepo) Create(ctx context.Context, sp *entity.SalesPoint) error {
	query := `
		INSERT INTO sales_points (` + salesPointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		sp.ID, sp.ProfileID, sp.Numero, nullIfEmpty(sp.Descripcion),
		sp.EsDefault, sp.Activo, sp.CreatedAt, sp.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: punto de venta %d", domain.ErrDuplicate, sp.Numero)
		}
		return fmt.Errorf("insert sales point: %w", err)
	}
	return nil
}

// Update actualiza descripción y flags del punto de venta.
func (r *SalesPointRepo) Update(ctx context.Context, sp *entity.SalesPoint) error {
	query := `
		UPDATE sales_points
		SET descripcion = $2,
		    es_default  = $3,
		    activo      = $4,
		    updated_at  = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		sp.ID, nullIfEmpty(sp.Descripcion), sp.EsDefault, sp.Activo, sp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sales point: %w", err)
	}
	return nil
}

func scanSalesPoint(row pgxScanner) (*entity.SalesPoint, error) {
	var sp entity.SalesPoint
	var descripcion *string
	err := row.Scan(
		&sp.ID, &sp.ProfileID, &sp.Numero, &descripcion,
		&sp.EsDefault, &sp.Activo, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sp.Descripcion = derefStr(descripcion)
	return &sp, nil
}
