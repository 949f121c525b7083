package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.RequirementStatRepository = (*RequirementStatRepo)(nil)

// RequirementStatRepo implementación sobre PostgreSQL (usable con pool o tx).
type RequirementStatRepo struct {
	q Querier
}

// NewRequirementStatRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequirementStatRepository(q Querier) *RequirementStatRepo {
	return &RequirementStatRepo{q: q}
}

const statColumns = `id, split_order_id, operation_requirement_id, pallet_group_index,
	expected_package_count, scanned_package_count, created_at, updated_at`

// CreateBatch inserta las filas de stats de la planificación.
func (r *RequirementStatRepo) CreateBatch(ctx context.Context, stats []*entity.SplitOrderRequirementStat) error {
	query := `
		INSERT INTO split_order_requirement_stats (` + statColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, s := range stats {
		_, err := r.q.Exec(ctx, query,
			s.ID, s.SplitOrderID, s.OperationRequirementID, s.PalletGroupIndex,
			s.ExpectedPackageCount, s.ScannedPackageCount, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create requirement stat: %w", err)
		}
	}
	return nil
}

// ListBySplitOrder lista las stats de una orden, en orden de grupo.
func (r *RequirementStatRepo) ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.SplitOrderRequirementStat, error) {
	query := `SELECT ` + statColumns + `
		FROM split_order_requirement_stats
		WHERE split_order_id = $1 ORDER BY pallet_group_index`
	rows, err := r.q.Query(ctx, query, splitOrderID)
	if err != nil {
		return nil, fmt.Errorf("list requirement stats: %w", err)
	}
	defer rows.Close()
	var list []*entity.SplitOrderRequirementStat
	for rows.Next() {
		var s entity.SplitOrderRequirementStat
		if err := rows.Scan(&s.ID, &s.SplitOrderID, &s.OperationRequirementID, &s.PalletGroupIndex,
			&s.ExpectedPackageCount, &s.ScannedPackageCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan requirement stat: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// GetByRequirement obtiene la stat del requirement dentro de la orden (nil si no existe).
func (r *RequirementStatRepo) GetByRequirement(ctx context.Context, splitOrderID, requirementID string) (*entity.SplitOrderRequirementStat, error) {
	query := `SELECT ` + statColumns + `
		FROM split_order_requirement_stats
		WHERE split_order_id = $1 AND operation_requirement_id = $2`
	var s entity.SplitOrderRequirementStat
	err := r.q.QueryRow(ctx, query, splitOrderID, requirementID).Scan(
		&s.ID, &s.SplitOrderID, &s.OperationRequirementID, &s.PalletGroupIndex,
		&s.ExpectedPackageCount, &s.ScannedPackageCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get requirement stat: %w", err)
	}
	return &s, nil
}

// IncrementScanned suma 1 al contador escaneado (update atómico de fila).
func (r *RequirementStatRepo) IncrementScanned(ctx context.Context, id string) error {
	query := `
		UPDATE split_order_requirement_stats
		SET scanned_package_count = scanned_package_count + 1, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment requirement stat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
