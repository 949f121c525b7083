package entity

import "time"

// Estados de la fila de outbox. pending↔processing durante reintentos;
// completed y failed_permanent son terminales.
const (
	OutboxStatusPending         = "pending"
	OutboxStatusProcessing      = "processing"
	OutboxStatusCompleted       = "completed"
	OutboxStatusFailed          = "failed"
	OutboxStatusFailedPermanent = "failed_permanent"
)

// Direcciones de movimiento del ledger físico.
const (
	LedgerDirectionInbound      = "inbound"
	LedgerDirectionOutbound     = "outbound"
	LedgerDirectionAdjustment   = "adjustment"
	LedgerDirectionReversal     = "reversal"
	LedgerDirectionInternalMove = "internal_move"
)

// FtzInventoryLedgerOutbox es un efecto secundario de ledger preparado
// (staged): se escribe en la misma transacción que la mutación de negocio que
// lo origina y un worker independiente lo aplica después, con reintentos.
// Version soporta el claim optimista entre workers concurrentes.
type FtzInventoryLedgerOutbox struct {
	ID           string
	TenantID     string
	WarehouseID  string
	SplitOrderID string
	Direction    string
	Status       string
	Attempts     int
	NextRetryAt  time.Time
	LastError    string
	PayloadJSON  []byte
	Version      int
	ClaimedBy    string
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
