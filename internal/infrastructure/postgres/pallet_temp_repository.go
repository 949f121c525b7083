package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.PalletTempRepository = (*PalletTempRepo)(nil)

// PalletTempRepo implementación sobre PostgreSQL (usable con pool o tx).
type PalletTempRepo struct {
	q Querier
}

// NewPalletTempRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPalletTempRepository(q Querier) *PalletTempRepo {
	return &PalletTempRepo{q: q}
}

const tempColumns = `id, split_order_id, operation_requirement_id, group_index,
	sequence_no, status, scanned_package_count, scanned_weight_kg, pallet_id,
	created_at, updated_at`

// Create inserta un pallet provisional. Un choque con la constraint única
// (split_order, requirement, sequence_no) se devuelve como ErrConflict: otro
// escaneo concurrente creó la misma secuencia primero.
func (r *PalletTempRepo) Create(ctx context.Context, t *entity.SplitOrderPalletTemp) error {
	query := `
		INSERT INTO split_order_pallet_temps (` + tempColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.SplitOrderID, t.OperationRequirementID, t.GroupIndex,
		t.SequenceNo, t.Status, t.ScannedPackageCount, t.ScannedWeightKg, t.PalletID,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sequence_no %d ya existe en el grupo", domain.ErrConflict, t.SequenceNo)
		}
		return fmt.Errorf("create pallet temp: %w", err)
	}
	return nil
}

// CreateBatch inserta los pallets sembrados en la planificación.
func (r *PalletTempRepo) CreateBatch(ctx context.Context, temps []*entity.SplitOrderPalletTemp) error {
	for _, t := range temps {
		if err := r.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene un pallet provisional (nil si no existe).
func (r *PalletTempRepo) GetByID(ctx context.Context, id string) (*entity.SplitOrderPalletTemp, error) {
	query := `SELECT ` + tempColumns + ` FROM split_order_pallet_temps WHERE id = $1`
	t, err := scanPalletTemp(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pallet temp: %w", err)
	}
	return t, nil
}

// ListBySplitOrder lista todos los pallets provisionales de la orden.
func (r *PalletTempRepo) ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.SplitOrderPalletTemp, error) {
	query := `SELECT ` + tempColumns + `
		FROM split_order_pallet_temps
		WHERE split_order_id = $1 ORDER BY group_index, sequence_no`
	return r.list(ctx, query, splitOrderID)
}

// FindAllocatable devuelve el pallet open con cupo y menor sequence_no del
// requirement, bloqueado FOR UPDATE para serializar el llenado concurrente.
func (r *PalletTempRepo) FindAllocatable(ctx context.Context, splitOrderID, requirementID string, capacity int) (*entity.SplitOrderPalletTemp, error) {
	query := `SELECT ` + tempColumns + `
		FROM split_order_pallet_temps
		WHERE split_order_id = $1 AND operation_requirement_id = $2
		  AND status = $3 AND scanned_package_count < $4
		ORDER BY sequence_no
		LIMIT 1
		FOR UPDATE`
	t, err := scanPalletTemp(r.q.QueryRow(ctx, query, splitOrderID, requirementID, entity.PalletTempStatusOpen, capacity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find allocatable pallet temp: %w", err)
	}
	return t, nil
}

// MaxSequenceNo devuelve el mayor sequence_no del grupo (0 si no hay filas).
func (r *PalletTempRepo) MaxSequenceNo(ctx context.Context, splitOrderID, requirementID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence_no), 0)
		FROM split_order_pallet_temps
		WHERE split_order_id = $1 AND operation_requirement_id = $2`
	var max int
	if err := r.q.QueryRow(ctx, query, splitOrderID, requirementID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max sequence no: %w", err)
	}
	return max, nil
}

// IncrementScanned suma 1 al contador y acumula el peso; devuelve el nuevo contador.
func (r *PalletTempRepo) IncrementScanned(ctx context.Context, id string, weightKg decimal.Decimal) (int, error) {
	query := `
		UPDATE split_order_pallet_temps
		SET scanned_package_count = scanned_package_count + 1,
		    scanned_weight_kg = scanned_weight_kg + $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING scanned_package_count`
	var count int
	err := r.q.QueryRow(ctx, query, id, weightKg).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment pallet temp: %w", err)
	}
	return count, nil
}

// SetStatus avanza open→full. El guard en el WHERE impide retroceder estados.
func (r *PalletTempRepo) SetStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE split_order_pallet_temps
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`
	tag, err := r.q.Exec(ctx, query, id, status, entity.PalletTempStatusOpen)
	if err != nil {
		return fmt.Errorf("set pallet temp status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: el pallet provisional no está open", domain.ErrConflict)
	}
	return nil
}

// ListUnconfirmed devuelve los pallets en open o full, en orden estable.
func (r *PalletTempRepo) ListUnconfirmed(ctx context.Context, splitOrderID string) ([]*entity.SplitOrderPalletTemp, error) {
	query := `SELECT ` + tempColumns + `
		FROM split_order_pallet_temps
		WHERE split_order_id = $1 AND status IN ($2, $3)
		ORDER BY group_index, sequence_no`
	return r.list(ctx, query, splitOrderID, entity.PalletTempStatusOpen, entity.PalletTempStatusFull)
}

// Confirm fija status=confirmed y el pallet real; el guard status <>
// confirmed hace la confirmación idempotente-a-prueba-de-reintentos y el
// pallet_id inmutable.
func (r *PalletTempRepo) Confirm(ctx context.Context, id, palletID string) error {
	query := `
		UPDATE split_order_pallet_temps
		SET status = $2, pallet_id = NULLIF($3, ''), updated_at = now()
		WHERE id = $1 AND status <> $2`
	tag, err := r.q.Exec(ctx, query, id, entity.PalletTempStatusConfirmed, palletID)
	if err != nil {
		return fmt.Errorf("confirm pallet temp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: el pallet provisional ya estaba confirmado", domain.ErrConflict)
	}
	return nil
}

func (r *PalletTempRepo) list(ctx context.Context, query string, args ...any) ([]*entity.SplitOrderPalletTemp, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pallet temps: %w", err)
	}
	defer rows.Close()
	var list []*entity.SplitOrderPalletTemp
	for rows.Next() {
		var t entity.SplitOrderPalletTemp
		if err := rows.Scan(&t.ID, &t.SplitOrderID, &t.OperationRequirementID, &t.GroupIndex,
			&t.SequenceNo, &t.Status, &t.ScannedPackageCount, &t.ScannedWeightKg, &t.PalletID,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pallet temp: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

func scanPalletTemp(row pgx.Row) (*entity.SplitOrderPalletTemp, error) {
	var t entity.SplitOrderPalletTemp
	err := row.Scan(&t.ID, &t.SplitOrderID, &t.OperationRequirementID, &t.GroupIndex,
		&t.SequenceNo, &t.Status, &t.ScannedPackageCount, &t.ScannedWeightKg, &t.PalletID,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
