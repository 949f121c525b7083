package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.PackageRepository = (*PackageRepo)(nil)

// PackageRepo adaptador sobre la tabla de paquetes del registro externo
// (referenciada por id, nunca redefinida aquí).
type PackageRepo struct {
	q Querier
}

// NewPackageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageRepository(q Querier) *PackageRepo {
	return &PackageRepo{q: q}
}

const packageColumns = `id, tenant_id, code, pallet_id, operation_requirement_id, weight_kg, created_at`

// GetByCode resuelve un paquete por su código de barras dentro del tenant.
func (r *PackageRepo) GetByCode(ctx context.Context, tenantID, code string) (*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE tenant_id = $1 AND code = $2`
	return r.get(ctx, query, tenantID, code)
}

// GetByID obtiene un paquete por id.
func (r *PackageRepo) GetByID(ctx context.Context, id string) (*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`
	return r.get(ctx, query, id)
}

// ReassignPallet mueve los paquetes al pallet destino (finalización).
func (r *PackageRepo) ReassignPallet(ctx context.Context, packageIDs []string, palletID string) error {
	query := `UPDATE packages SET pallet_id = $2 WHERE id = ANY($1)`
	tag, err := r.q.Exec(ctx, query, packageIDs, palletID)
	if err != nil {
		return fmt.Errorf("reassign packages: %w", err)
	}
	if int(tag.RowsAffected()) != len(packageIDs) {
		return fmt.Errorf("reassign packages: %d de %d filas actualizadas", tag.RowsAffected(), len(packageIDs))
	}
	return nil
}

func (r *PackageRepo) get(ctx context.Context, query string, args ...any) (*entity.Package, error) {
	var p entity.Package
	var reqID *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.TenantID, &p.Code, &p.PalletID, &reqID, &p.WeightKg, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	p.OperationRequirementID = deref(reqID)
	return &p, nil
}
