package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// OutboxRowDTO proyección de una fila del outbox para la vista administrativa.
// El payload se expone como JSON crudo: el operador necesita verlo tal cual se
// escribió para diagnosticar una cuarentena.
type OutboxRowDTO struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	WarehouseID  string          `json:"warehouse_id"`
	SplitOrderID string          `json:"split_order_id"`
	Direction    string          `json:"direction"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	NextRetryAt  time.Time       `json:"next_retry_at"`
	LastError    string          `json:"last_error,omitempty"`
	Payload      json.RawMessage `json:"payload"`
	ClaimedBy    string          `json:"claimed_by,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FromOutboxRow mapea la entidad a su DTO.
func FromOutboxRow(row *entity.FtzInventoryLedgerOutbox) OutboxRowDTO {
	return OutboxRowDTO{
		ID:           row.ID,
		TenantID:     row.TenantID,
		WarehouseID:  row.WarehouseID,
		SplitOrderID: row.SplitOrderID,
		Direction:    row.Direction,
		Status:       row.Status,
		Attempts:     row.Attempts,
		NextRetryAt:  row.NextRetryAt,
		LastError:    row.LastError,
		Payload:      json.RawMessage(row.PayloadJSON),
		ClaimedBy:    row.ClaimedBy,
		CompletedAt:  row.CompletedAt,
		CreatedAt:    row.CreatedAt,
	}
}

// FromOutboxRows mapea un listado.
func FromOutboxRows(rows []*entity.FtzInventoryLedgerOutbox) []OutboxRowDTO {
	out := make([]OutboxRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromOutboxRow(row))
	}
	return out
}
