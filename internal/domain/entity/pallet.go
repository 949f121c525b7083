package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pallet es un pallet físico persistido. El registro maestro de pallets es un
// colaborador externo: aquí solo se crean pallets destino durante la
// finalización y se referencian por id.
type Pallet struct {
	ID           string
	TenantID     string
	WarehouseID  string
	Code         string
	PackageCount int
	WeightKg     decimal.Decimal
	CreatedAt    time.Time
}
