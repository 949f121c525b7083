package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del pallet provisional. Solo avanza open → full → confirmed.
const (
	PalletTempStatusOpen      = "open"
	PalletTempStatusFull      = "full"
	PalletTempStatusConfirmed = "confirmed"
)

// SplitOrderPalletTemp es el balde provisional donde caen los escaneos de un
// requirement. Único por (split_order, requirement, sequence_no). PalletID
// queda null hasta que el finalizador lo confirma; después es inmutable.
type SplitOrderPalletTemp struct {
	ID                     string
	SplitOrderID           string
	OperationRequirementID string
	GroupIndex             int
	SequenceNo             int
	Status                 string
	ScannedPackageCount    int
	ScannedWeightKg        decimal.Decimal
	PalletID               *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
