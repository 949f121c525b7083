package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.PalletRepository = (*PalletRepo)(nil)

// PalletRepo adaptador sobre la tabla de pallets del registro externo.
type PalletRepo struct {
	q Querier
}

// NewPalletRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPalletRepository(q Querier) *PalletRepo {
	return &PalletRepo{q: q}
}

// Create persiste un pallet destino creado por la finalización.
func (r *PalletRepo) Create(ctx context.Context, p *entity.Pallet) error {
	query := `
		INSERT INTO pallets (id, tenant_id, warehouse_id, code, package_count, weight_kg, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.TenantID, p.WarehouseID, p.Code, p.PackageCount, p.WeightKg, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create pallet: %w", err)
	}
	return nil
}

// GetByID obtiene un pallet (nil si no existe).
func (r *PalletRepo) GetByID(ctx context.Context, id string) (*entity.Pallet, error) {
	query := `
		SELECT id, tenant_id, warehouse_id, code, package_count, weight_kg, created_at
		FROM pallets WHERE id = $1`
	var p entity.Pallet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.TenantID, &p.WarehouseID, &p.Code, &p.PackageCount, &p.WeightKg, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pallet: %w", err)
	}
	return &p, nil
}
