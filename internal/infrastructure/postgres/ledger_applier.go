package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/ftz-wms/internal/application/outboxrelay"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/outbox"
)

var _ outboxrelay.LedgerApplier = (*LedgerApplier)(nil)

// LedgerApplier aplica los payloads del outbox como asientos del ledger
// físico de inventario (tabla append-only ftz_inventory_ledger). Es el
// adaptador local del colaborador externo; el puerto permite cambiarlo por un
// cliente remoto sin tocar el relay.
type LedgerApplier struct {
	q Querier
}

// NewLedgerApplier construye el adaptador.
func NewLedgerApplier(q Querier) *LedgerApplier {
	return &LedgerApplier{q: q}
}

// Apply agrega el asiento. El insert es idempotente por outbox_id: si un
// relay repetido llega aquí dos veces (entrega at-least-once), el segundo
// intento no duplica el asiento.
func (a *LedgerApplier) Apply(ctx context.Context, row *entity.FtzInventoryLedgerOutbox, payload outbox.InternalMovePayload) error {
	query := `
		INSERT INTO ftz_inventory_ledger
			(id, outbox_id, tenant_id, warehouse_id, direction,
			 source_pallet_ids, destination_pallet_id, package_ids,
			 total_weight_kg, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (outbox_id) DO NOTHING`
	_, err := a.q.Exec(ctx, query,
		uuid.New().String(), row.ID, payload.TenantID, payload.WarehouseID, row.Direction,
		payload.SourcePalletIDs, payload.DestinationPalletID, payload.PackageIDs,
		payload.TotalWeightKg, payload.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("apply ledger entry: %w", err)
	}
	return nil
}
