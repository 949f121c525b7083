package entity

import "time"

// SplitOrderRequirementStat lleva el conteo esperado vs. escaneado por
// operation requirement dentro de un split order. Una fila por
// (split_order, requirement); el group_index se asigna una sola vez al
// planificar (en orden de código de requirement) y no cambia después.
type SplitOrderRequirementStat struct {
	ID                     string
	SplitOrderID           string
	OperationRequirementID string
	PalletGroupIndex       int
	ExpectedPackageCount   int
	ScannedPackageCount    int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
