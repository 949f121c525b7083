package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package es un paquete del registro externo. PalletID apunta al pallet
// actual (origen antes de finalizar, destino después). El
// OperationRequirementID se asigna aguas arriba; el escaneo lo exige como
// precondición.
type Package struct {
	ID                     string
	TenantID               string
	Code                   string
	PalletID               string
	OperationRequirementID string
	WeightKg               decimal.Decimal
	CreatedAt              time.Time
}
