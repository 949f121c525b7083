package outboxrelay

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/outbox"
)

// LedgerApplier es el puerto hacia el ledger físico de inventario (colaborador
// externo). Un error que envuelva domain.ErrLedgerApplyPermanent manda la fila
// directo a cuarentena; cualquier otro error se considera transitorio y se
// reintenta con backoff.
type LedgerApplier interface {
	Apply(ctx context.Context, row *entity.FtzInventoryLedgerOutbox, payload outbox.InternalMovePayload) error
}
