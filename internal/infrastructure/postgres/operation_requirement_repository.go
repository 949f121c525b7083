package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.OperationRequirementRepository = (*OperationRequirementRepo)(nil)

// OperationRequirementRepo adaptador de solo lectura sobre el catálogo
// externo de operation requirements.
type OperationRequirementRepo struct {
	q Querier
}

// NewOperationRequirementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOperationRequirementRepository(q Querier) *OperationRequirementRepo {
	return &OperationRequirementRepo{q: q}
}

// GetByID obtiene un requirement (nil si no existe).
func (r *OperationRequirementRepo) GetByID(ctx context.Context, id string) (*entity.OperationRequirement, error) {
	query := `SELECT id, code, label, pallet_capacity FROM operation_requirements WHERE id = $1`
	var req entity.OperationRequirement
	err := r.q.QueryRow(ctx, query, id).Scan(&req.ID, &req.Code, &req.Label, &req.PalletCapacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get operation requirement: %w", err)
	}
	return &req, nil
}

// GetByIDs obtiene varios requirements de una vez.
func (r *OperationRequirementRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.OperationRequirement, error) {
	query := `SELECT id, code, label, pallet_capacity FROM operation_requirements WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get operation requirements: %w", err)
	}
	defer rows.Close()
	var list []*entity.OperationRequirement
	for rows.Next() {
		var req entity.OperationRequirement
		if err := rows.Scan(&req.ID, &req.Code, &req.Label, &req.PalletCapacity); err != nil {
			return nil, fmt.Errorf("scan operation requirement: %w", err)
		}
		list = append(list, &req)
	}
	return list, rows.Err()
}
