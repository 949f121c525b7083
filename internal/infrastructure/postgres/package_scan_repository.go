package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.PackageScanRepository = (*PackageScanRepo)(nil)

// PackageScanRepo implementación sobre PostgreSQL (usable con pool o tx).
type PackageScanRepo struct {
	q Querier
}

// NewPackageScanRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageScanRepository(q Querier) *PackageScanRepo {
	return &PackageScanRepo{q: q}
}

// Create inserta el evento de escaneo. La constraint única
// (split_order_id, package_id) arbitra la concurrencia: su violación se
// traduce a ErrDuplicateScan y la transacción que la contiene se revierte
// completa (ningún contador queda tocado).
func (r *PackageScanRepo) Create(ctx context.Context, s *entity.SplitOrderPackageScan) error {
	query := `
		INSERT INTO split_order_package_scans
			(id, split_order_id, package_id, temp_pallet_id, sequence_in_order,
			 scanned_by, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.SplitOrderID, s.PackageID, s.TempPalletID, s.SequenceInOrder,
		s.ScannedBy, s.ScannedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: paquete %s", domain.ErrDuplicateScan, s.PackageID)
		}
		return fmt.Errorf("create package scan: %w", err)
	}
	return nil
}

// ListByTempPallet lista los escaneos de un pallet provisional en orden de aceptación.
func (r *PackageScanRepo) ListByTempPallet(ctx context.Context, tempPalletID string) ([]*entity.SplitOrderPackageScan, error) {
	query := `
		SELECT id, split_order_id, package_id, temp_pallet_id, sequence_in_order,
		       scanned_by, scanned_at
		FROM split_order_package_scans
		WHERE temp_pallet_id = $1
		ORDER BY sequence_in_order`
	rows, err := r.q.Query(ctx, query, tempPalletID)
	if err != nil {
		return nil, fmt.Errorf("list scans by temp pallet: %w", err)
	}
	defer rows.Close()
	var list []*entity.SplitOrderPackageScan
	for rows.Next() {
		var s entity.SplitOrderPackageScan
		var scannedBy *string
		if err := rows.Scan(&s.ID, &s.SplitOrderID, &s.PackageID, &s.TempPalletID,
			&s.SequenceInOrder, &scannedBy, &s.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan package scan: %w", err)
		}
		s.ScannedBy = deref(scannedBy)
		list = append(list, &s)
	}
	return list, rows.Err()
}

// CountBySplitOrder cuenta los escaneos aceptados de la orden.
func (r *PackageScanRepo) CountBySplitOrder(ctx context.Context, splitOrderID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM split_order_package_scans WHERE split_order_id = $1`,
		splitOrderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans: %w", err)
	}
	return count, nil
}
