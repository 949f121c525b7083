package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// LedgerOutboxRepository define el puerto de la tabla-cola del outbox.
// El claim usa concurrencia optimista (status + version) para que varios
// relay workers se repartan el trabajo sin un lock global.
type LedgerOutboxRepository interface {
	// Create inserta la fila. Debe invocarse con el repo atado a la misma
	// transacción que la mutación de negocio que la origina.
	Create(ctx context.Context, row *entity.FtzInventoryLedgerOutbox) error

	GetByID(ctx context.Context, id string) (*entity.FtzInventoryLedgerOutbox, error)
	ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.FtzInventoryLedgerOutbox, error)

	// ListClaimable devuelve hasta limit filas pending con next_retry_at <=
	// now, ordenadas por (next_retry_at, id). Una fila reversal queda
	// bloqueada mientras exista una fila anterior sin completar en su misma
	// partición (tenant, warehouse).
	ListClaimable(ctx context.Context, now time.Time, limit int) ([]*entity.FtzInventoryLedgerOutbox, error)

	// Claim intenta pending→processing con version+1 (compare-and-set).
	// Devuelve false si otro worker ganó la carrera.
	Claim(ctx context.Context, id string, version int, workerID string) (bool, error)

	MarkCompleted(ctx context.Context, id string) error

	// RequeueStale devuelve a pending las filas processing cuyo claim quedó
	// huérfano (worker muerto tras el claim): updated_at < olderThan. No toca
	// attempts — un claim perdido no es un intento fallido de aplicación.
	// Devuelve cuántas filas reencoló.
	RequeueStale(ctx context.Context, olderThan time.Time) (int, error)

	// ScheduleRetry devuelve la fila a pending con attempts, last_error y
	// next_retry_at actualizados.
	ScheduleRetry(ctx context.Context, id string, attempts int, lastError string, nextRetryAt time.Time) error

	// MarkFailedPermanent pone la fila en cuarentena terminal.
	MarkFailedPermanent(ctx context.Context, id string, attempts int, lastError string) error

	// Vista administrativa de dead letters.
	ListFailedPermanent(ctx context.Context, tenantID string, limit, offset int) ([]*entity.FtzInventoryLedgerOutbox, error)

	// ResetFailedPermanent reencola una fila en cuarentena
	// (failed_permanent→pending, attempts=0, next_retry_at=now). Devuelve
	// false si la fila no estaba en failed_permanent.
	ResetFailedPermanent(ctx context.Context, id string, now time.Time) (bool, error)
}
