package entity

import "time"

// Estados del split order. Las transiciones permitidas viven en
// internal/domain/splitorder (tabla estática).
const (
	SplitOrderStatusCreated    = "created"
	SplitOrderStatusAssigned   = "assigned"
	SplitOrderStatusProcessing = "processing"
	SplitOrderStatusVerifying  = "verifying"
	SplitOrderStatusCompleted  = "completed"
	SplitOrderStatusCancelled  = "cancelled"
)

// SplitOrder representa el trabajo de clasificación de un AWB: separar los
// paquetes de los pallets de origen en sub-grupos por operation requirement.
type SplitOrder struct {
	ID                    string
	TenantID              string
	WarehouseID           string
	AWBNumber             string
	Status                string
	TotalPackagesExpected int
	ScannedPackageCount   int
	// FinalizeInProgress es un mutex single-flight a nivel de fila: se toma
	// con UPDATE ... WHERE finalize_in_progress = false (compare-and-set).
	FinalizeInProgress bool
	LastFinalizeError  string
	AssignedTo         string
	CreatedBy          string
	FinalizedBy        string
	AssignedAt         *time.Time
	VerifiedAt         *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
