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

var _ repository.SplitOrderRepository = (*SplitOrderRepo)(nil)

// SplitOrderRepo implementación sobre PostgreSQL (usable con pool o tx).
type SplitOrderRepo struct {
	q Querier
}

// NewSplitOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSplitOrderRepository(q Querier) *SplitOrderRepo {
	return &SplitOrderRepo{q: q}
}

const splitOrderColumns = `id, tenant_id, warehouse_id, awb_number, status,
	total_packages_expected, scanned_package_count, finalize_in_progress,
	last_finalize_error, assigned_to, created_by, finalized_by,
	assigned_at, verified_at, completed_at, cancelled_at, created_at, updated_at`

// Create persiste un split order recién planificado.
func (r *SplitOrderRepo) Create(ctx context.Context, o *entity.SplitOrder) error {
	query := `
		INSERT INTO split_orders (` + splitOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.TenantID, o.WarehouseID, o.AWBNumber, o.Status,
		o.TotalPackagesExpected, o.ScannedPackageCount, o.FinalizeInProgress,
		o.LastFinalizeError, o.AssignedTo, o.CreatedBy, o.FinalizedBy,
		o.AssignedAt, o.VerifiedAt, o.CompletedAt, o.CancelledAt,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create split order: %w", err)
	}
	return nil
}

// GetByID obtiene un split order por ID (nil si no existe).
func (r *SplitOrderRepo) GetByID(ctx context.Context, id string) (*entity.SplitOrder, error) {
	query := `SELECT ` + splitOrderColumns + ` FROM split_orders WHERE id = $1`
	o, err := scanSplitOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get split order: %w", err)
	}
	return o, nil
}

// UpdateStatus persiste estado, timestamps, operadores y los campos del
// mutex de finalización, con el predicado status = fromStatus como guardia
// contra transiciones concurrentes. La validación de transición vive en el
// caso de uso; este update solo garantiza que el estado leído sigue vigente.
func (r *SplitOrderRepo) UpdateStatus(ctx context.Context, o *entity.SplitOrder, fromStatus string) error {
	query := `
		UPDATE split_orders SET
			status = $2, assigned_to = $3, finalized_by = $4,
			finalize_in_progress = $5, last_finalize_error = $6,
			assigned_at = $7, verified_at = $8, completed_at = $9,
			cancelled_at = $10, updated_at = $11
		WHERE id = $1 AND status = $12`
	tag, err := r.q.Exec(ctx, query,
		o.ID, o.Status, o.AssignedTo, o.FinalizedBy,
		o.FinalizeInProgress, o.LastFinalizeError,
		o.AssignedAt, o.VerifiedAt, o.CompletedAt, o.CancelledAt, o.UpdatedAt,
		fromStatus,
	)
	if err != nil {
		return fmt.Errorf("update split order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: la orden cambió de estado durante la transición", domain.ErrConflict)
	}
	return nil
}

// IncrementScanned incrementa el contador de forma atómica, protegido por la
// invariante scanned <= expected, y devuelve el nuevo valor.
func (r *SplitOrderRepo) IncrementScanned(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE split_orders
		SET scanned_package_count = scanned_package_count + 1, updated_at = now()
		WHERE id = $1 AND scanned_package_count < total_packages_expected
		RETURNING scanned_package_count`
	var count int
	err := r.q.QueryRow(ctx, query, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: la orden ya alcanzó el total esperado", domain.ErrConflict)
		}
		return 0, fmt.Errorf("increment scanned: %w", err)
	}
	return count, nil
}

// AcquireFinalizeLock hace el compare-and-set del mutex single-flight:
// UPDATE ... WHERE finalize_in_progress = false; cero filas afectadas
// significa que otro finalize lo tiene.
func (r *SplitOrderRepo) AcquireFinalizeLock(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE split_orders
		SET finalize_in_progress = true, updated_at = now()
		WHERE id = $1 AND finalize_in_progress = false`
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("acquire finalize lock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseFinalizeLock suelta el flag y registra el último error (vacío para
// limpiarlo). Se invoca fuera de la transacción revertida.
func (r *SplitOrderRepo) ReleaseFinalizeLock(ctx context.Context, id, lastError string) error {
	query := `
		UPDATE split_orders
		SET finalize_in_progress = false, last_finalize_error = $2, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, lastError)
	if err != nil {
		return fmt.Errorf("release finalize lock: %w", err)
	}
	return nil
}

// AddSourcePallets asocia los pallets de origen del AWB.
func (r *SplitOrderRepo) AddSourcePallets(ctx context.Context, splitOrderID string, palletIDs []string) error {
	query := `INSERT INTO split_order_source_pallets (split_order_id, pallet_id) VALUES ($1, $2)`
	for _, palletID := range palletIDs {
		if _, err := r.q.Exec(ctx, query, splitOrderID, palletID); err != nil {
			return fmt.Errorf("add source pallet: %w", err)
		}
	}
	return nil
}

// ListSourcePalletIDs devuelve los pallets de origen del split order.
func (r *SplitOrderRepo) ListSourcePalletIDs(ctx context.Context, splitOrderID string) ([]string, error) {
	query := `SELECT pallet_id FROM split_order_source_pallets WHERE split_order_id = $1 ORDER BY pallet_id`
	rows, err := r.q.Query(ctx, query, splitOrderID)
	if err != nil {
		return nil, fmt.Errorf("list source pallets: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan source pallet: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSplitOrder(row pgx.Row) (*entity.SplitOrder, error) {
	var o entity.SplitOrder
	var lastErr, assignedTo, createdBy, finalizedBy *string
	err := row.Scan(
		&o.ID, &o.TenantID, &o.WarehouseID, &o.AWBNumber, &o.Status,
		&o.TotalPackagesExpected, &o.ScannedPackageCount, &o.FinalizeInProgress,
		&lastErr, &assignedTo, &createdBy, &finalizedBy,
		&o.AssignedAt, &o.VerifiedAt, &o.CompletedAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.LastFinalizeError = deref(lastErr)
	o.AssignedTo = deref(assignedTo)
	o.CreatedBy = deref(createdBy)
	o.FinalizedBy = deref(finalizedBy)
	return &o, nil
}
