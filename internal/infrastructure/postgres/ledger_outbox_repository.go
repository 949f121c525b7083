package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

var _ repository.LedgerOutboxRepository = (*LedgerOutboxRepo)(nil)

// LedgerOutboxRepo implementación de la tabla-cola sobre PostgreSQL
// (usable con pool o tx; el Create debe correr atado a la tx de negocio).
type LedgerOutboxRepo struct {
	q Querier
}

// NewLedgerOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerOutboxRepository(q Querier) *LedgerOutboxRepo {
	return &LedgerOutboxRepo{q: q}
}

const outboxColumns = `id, tenant_id, warehouse_id, split_order_id, direction,
	status, attempts, next_retry_at, last_error, payload_json, version,
	claimed_by, completed_at, created_at, updated_at`

// Create inserta la fila preparada (staged) del movimiento de ledger.
func (r *LedgerOutboxRepo) Create(ctx context.Context, o *entity.FtzInventoryLedgerOutbox) error {
	query := `
		INSERT INTO ftz_inventory_ledger_outbox (` + outboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.TenantID, o.WarehouseID, o.SplitOrderID, o.Direction,
		o.Status, o.Attempts, o.NextRetryAt, o.LastError, o.PayloadJSON,
		o.Version, o.ClaimedBy, o.CompletedAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create outbox row: %w", err)
	}
	return nil
}

// GetByID obtiene una fila (nil si no existe).
func (r *LedgerOutboxRepo) GetByID(ctx context.Context, id string) (*entity.FtzInventoryLedgerOutbox, error) {
	query := `SELECT ` + outboxColumns + ` FROM ftz_inventory_ledger_outbox WHERE id = $1`
	o, err := scanOutboxRow(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get outbox row: %w", err)
	}
	return o, nil
}

// ListBySplitOrder lista las filas originadas por una orden.
func (r *LedgerOutboxRepo) ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.FtzInventoryLedgerOutbox, error) {
	query := `SELECT ` + outboxColumns + `
		FROM ftz_inventory_ledger_outbox
		WHERE split_order_id = $1 ORDER BY id`
	return r.list(ctx, query, splitOrderID)
}

// ListClaimable devuelve hasta limit filas pending vencidas, por
// (next_retry_at, id). Una fila reversal queda bloqueada mientras exista una
// fila anterior sin completar en su misma partición (tenant, warehouse): una
// reversa no puede aplicarse antes que su asiento original.
func (r *LedgerOutboxRepo) ListClaimable(ctx context.Context, now time.Time, limit int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	query := `SELECT ` + outboxColumns + `
		FROM ftz_inventory_ledger_outbox o
		WHERE o.status = $1 AND o.next_retry_at <= $2
		  AND (o.direction <> $3 OR NOT EXISTS (
			SELECT 1 FROM ftz_inventory_ledger_outbox prev
			WHERE prev.tenant_id = o.tenant_id
			  AND prev.warehouse_id = o.warehouse_id
			  AND prev.created_at < o.created_at
			  AND prev.status NOT IN ($4, $5)
		  ))
		ORDER BY o.next_retry_at, o.id
		LIMIT $6`
	return r.list(ctx, query,
		entity.OutboxStatusPending, now, entity.LedgerDirectionReversal,
		entity.OutboxStatusCompleted, entity.OutboxStatusFailedPermanent, limit)
}

// Claim intenta pending→processing con version+1 (compare-and-set). Cero
// filas afectadas significa que otro worker reclamó la fila primero.
func (r *LedgerOutboxRepo) Claim(ctx context.Context, id string, version int, workerID string) (bool, error) {
	query := `
		UPDATE ftz_inventory_ledger_outbox
		SET status = $3, version = version + 1, claimed_by = $4, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = $5`
	tag, err := r.q.Exec(ctx, query, id, version,
		entity.OutboxStatusProcessing, workerID, entity.OutboxStatusPending)
	if err != nil {
		return false, fmt.Errorf("claim outbox row: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCompleted cierra la fila aplicada.
func (r *LedgerOutboxRepo) MarkCompleted(ctx context.Context, id string) error {
	query := `
		UPDATE ftz_inventory_ledger_outbox
		SET status = $2, completed_at = now(), last_error = '', updated_at = now()
		WHERE id = $1 AND status = $3`
	tag, err := r.q.Exec(ctx, query, id, entity.OutboxStatusCompleted, entity.OutboxStatusProcessing)
	if err != nil {
		return fmt.Errorf("mark outbox completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark outbox completed: fila %s no estaba en processing", id)
	}
	return nil
}

// RequeueStale devuelve a pending las filas processing con claim huérfano
// (updated_at anterior a olderThan). version + 1 invalida el claim viejo:
// si el worker original revive, su MarkCompleted/ScheduleRetry por status ya
// no encuentra la fila en processing. attempts queda intacto.
func (r *LedgerOutboxRepo) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	query := `
		UPDATE ftz_inventory_ledger_outbox
		SET status = $1, version = version + 1, claimed_by = '', updated_at = now()
		WHERE status = $2 AND updated_at < $3`
	tag, err := r.q.Exec(ctx, query, entity.OutboxStatusPending, entity.OutboxStatusProcessing, olderThan)
	if err != nil {
		return 0, fmt.Errorf("requeue stale outbox rows: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ScheduleRetry devuelve la fila a pending con el backoff calculado.
func (r *LedgerOutboxRepo) ScheduleRetry(ctx context.Context, id string, attempts int, lastError string, nextRetryAt time.Time) error {
	query := `
		UPDATE ftz_inventory_ledger_outbox
		SET status = $2, attempts = $3, last_error = $4, next_retry_at = $5, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, entity.OutboxStatusPending, attempts, lastError, nextRetryAt)
	if err != nil {
		return fmt.Errorf("schedule outbox retry: %w", err)
	}
	return nil
}

// MarkFailedPermanent pone la fila en cuarentena terminal.
func (r *LedgerOutboxRepo) MarkFailedPermanent(ctx context.Context, id string, attempts int, lastError string) error {
	query := `
		UPDATE ftz_inventory_ledger_outbox
		SET status = $2, attempts = $3, last_error = $4, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, entity.OutboxStatusFailedPermanent, attempts, lastError)
	if err != nil {
		return fmt.Errorf("mark outbox failed permanent: %w", err)
	}
	return nil
}

// ListFailedPermanent es la vista administrativa de dead letters del tenant.
func (r *LedgerOutboxRepo) ListFailedPermanent(ctx context.Context, tenantID string, limit, offset int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	query := `SELECT ` + outboxColumns + `
		FROM ftz_inventory_ledger_outbox
		WHERE tenant_id = $1 AND status = $2
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4`
	return r.list(ctx, query, tenantID, entity.OutboxStatusFailedPermanent, limit, offset)
}

// ResetFailedPermanent reencola una dead letter. El CAS en el WHERE decide:
// cero filas afectadas significa que la fila no estaba en failed_permanent.
func (r *LedgerOutboxRepo) ResetFailedPermanent(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE ftz_inventory_ledger_outbox
		SET status = $2, attempts = 0, next_retry_at = $3, version = version + 1,
		    claimed_by = '', updated_at = now()
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(ctx, query, id,
		entity.OutboxStatusPending, now, entity.OutboxStatusFailedPermanent)
	if err != nil {
		return false, fmt.Errorf("reset outbox row: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LedgerOutboxRepo) list(ctx context.Context, query string, args ...any) ([]*entity.FtzInventoryLedgerOutbox, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outbox rows: %w", err)
	}
	defer rows.Close()
	var list []*entity.FtzInventoryLedgerOutbox
	for rows.Next() {
		var o entity.FtzInventoryLedgerOutbox
		var lastErr, claimedBy *string
		if err := rows.Scan(&o.ID, &o.TenantID, &o.WarehouseID, &o.SplitOrderID, &o.Direction,
			&o.Status, &o.Attempts, &o.NextRetryAt, &lastErr, &o.PayloadJSON, &o.Version,
			&claimedBy, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		o.LastError = deref(lastErr)
		o.ClaimedBy = deref(claimedBy)
		list = append(list, &o)
	}
	return list, rows.Err()
}

func scanOutboxRow(row pgx.Row) (*entity.FtzInventoryLedgerOutbox, error) {
	var o entity.FtzInventoryLedgerOutbox
	var lastErr, claimedBy *string
	err := row.Scan(&o.ID, &o.TenantID, &o.WarehouseID, &o.SplitOrderID, &o.Direction,
		&o.Status, &o.Attempts, &o.NextRetryAt, &lastErr, &o.PayloadJSON, &o.Version,
		&claimedBy, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.LastError = deref(lastErr)
	o.ClaimedBy = deref(claimedBy)
	return &o, nil
}
