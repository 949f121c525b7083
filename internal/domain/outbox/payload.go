package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ftz-wms/internal/domain"
)

// InternalMovePayload es el contrato de cable entre el escritor del outbox y
// el relay worker (columna payload_json). Describe un movimiento interno:
// paquetes que pasan de los pallets de origen al pallet destino confirmado.
type InternalMovePayload struct {
	SourcePalletIDs     []string        `json:"source_pallet_ids"`
	DestinationPalletID string          `json:"destination_pallet_id"`
	PackageIDs          []string        `json:"package_ids"`
	WarehouseID         string          `json:"warehouse_id"`
	TenantID            string          `json:"tenant_id"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	OccurredAt          time.Time       `json:"occurred_at"`
}

// Marshal serializa el payload validándolo primero.
func (p InternalMovePayload) Marshal() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serializar payload de outbox: %w", err)
	}
	return raw, nil
}

// Validate exige los campos que el ledger necesita para aplicar el movimiento.
func (p InternalMovePayload) Validate() error {
	if p.DestinationPalletID == "" || p.WarehouseID == "" || p.TenantID == "" {
		return fmt.Errorf("%w: payload de outbox incompleto", domain.ErrInvalidInput)
	}
	if len(p.PackageIDs) == 0 {
		return fmt.Errorf("%w: payload de outbox sin paquetes", domain.ErrInvalidInput)
	}
	return nil
}

// ParseInternalMovePayload decodifica y valida el payload de una fila.
// Un payload malformado es un fallo permanente: reintentar no lo arregla.
func ParseInternalMovePayload(raw []byte) (InternalMovePayload, error) {
	var p InternalMovePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return InternalMovePayload{}, fmt.Errorf("%w: payload ilegible: %v", domain.ErrLedgerApplyPermanent, err)
	}
	if err := p.Validate(); err != nil {
		return InternalMovePayload{}, fmt.Errorf("%w: %v", domain.ErrLedgerApplyPermanent, err)
	}
	return p, nil
}
