package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// PlannedRequirementRequest un requirement planificado dentro de la creación.
type PlannedRequirementRequest struct {
	OperationRequirementID string `json:"operation_requirement_id"`
	ExpectedPackageCount   int    `json:"expected_package_count"`
}

// CreateSplitOrderRequest body para POST /api/split-orders.
type CreateSplitOrderRequest struct {
	TenantID        string                      `json:"tenant_id"`
	WarehouseID     string                      `json:"warehouse_id"`
	AWBNumber       string                      `json:"awb_number"`
	CreatedBy       string                      `json:"created_by"`
	SourcePalletIDs []string                    `json:"source_pallet_ids"`
	Requirements    []PlannedRequirementRequest `json:"requirements"`
}

// AssignRequest body para POST /api/split-orders/:id/assign.
type AssignRequest struct {
	Operator string `json:"operator"`
}

// ScanRequest body para POST /api/split-orders/:id/scans.
type ScanRequest struct {
	TenantID    string `json:"tenant_id"`
	PackageCode string `json:"package_code"`
	ScannedBy   string `json:"scanned_by"`
}

// ScanResponse resultado de un escaneo aceptado.
type ScanResponse struct {
	ScanID          string `json:"scan_id"`
	PackageID       string `json:"package_id"`
	TempPalletID    string `json:"temp_pallet_id"`
	GroupIndex      int    `json:"group_index"`
	SequenceNo      int    `json:"sequence_no"`
	SequenceInOrder int    `json:"sequence_in_order"`
	PalletFull      bool   `json:"pallet_full"`
}

// FinalizeRequest body para POST /api/split-orders/:id/finalize.
type FinalizeRequest struct {
	FinalizedBy string `json:"finalized_by"`
}

// FinalizeResponse resumen de la finalización.
type FinalizeResponse struct {
	SplitOrderID string   `json:"split_order_id"`
	PalletIDs    []string `json:"pallet_ids"`
	OutboxRowIDs []string `json:"outbox_row_ids"`
}

// SplitOrderDTO proyección de la orden para la UI de operación.
type SplitOrderDTO struct {
	ID                    string     `json:"id"`
	TenantID              string     `json:"tenant_id"`
	WarehouseID           string     `json:"warehouse_id"`
	AWBNumber             string     `json:"awb_number"`
	Status                string     `json:"status"`
	TotalPackagesExpected int        `json:"total_packages_expected"`
	ScannedPackageCount   int        `json:"scanned_package_count"`
	FinalizeInProgress    bool       `json:"finalize_in_progress"`
	LastFinalizeError     string     `json:"last_finalize_error,omitempty"`
	CreatedBy             string     `json:"created_by"`
	AssignedTo            string     `json:"assigned_to,omitempty"`
	FinalizedBy           string     `json:"finalized_by,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	AssignedAt            *time.Time `json:"assigned_at,omitempty"`
	VerifiedAt            *time.Time `json:"verified_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
}

// RequirementStatDTO avance por requirement.
type RequirementStatDTO struct {
	OperationRequirementID string `json:"operation_requirement_id"`
	PalletGroupIndex       int    `json:"pallet_group_index"`
	ExpectedPackageCount   int    `json:"expected_package_count"`
	ScannedPackageCount    int    `json:"scanned_package_count"`
}

// TempPalletDTO un pallet provisional con su avance.
type TempPalletDTO struct {
	ID                     string          `json:"id"`
	OperationRequirementID string          `json:"operation_requirement_id"`
	GroupIndex             int             `json:"group_index"`
	SequenceNo             int             `json:"sequence_no"`
	Status                 string          `json:"status"`
	ScannedPackageCount    int             `json:"scanned_package_count"`
	ScannedWeightKg        decimal.Decimal `json:"scanned_weight_kg"`
	PalletID               *string         `json:"pallet_id,omitempty"`
}

// SplitOrderDetailResponse respuesta de GET /api/split-orders/:id.
type SplitOrderDetailResponse struct {
	Order       SplitOrderDTO        `json:"order"`
	Stats       []RequirementStatDTO `json:"stats"`
	TempPallets []TempPalletDTO      `json:"temp_pallets"`
}

// FromSplitOrder mapea la entidad a su DTO.
func FromSplitOrder(o *entity.SplitOrder) SplitOrderDTO {
	return SplitOrderDTO{
		ID:                    o.ID,
		TenantID:              o.TenantID,
		WarehouseID:           o.WarehouseID,
		AWBNumber:             o.AWBNumber,
		Status:                o.Status,
		TotalPackagesExpected: o.TotalPackagesExpected,
		ScannedPackageCount:   o.ScannedPackageCount,
		FinalizeInProgress:    o.FinalizeInProgress,
		LastFinalizeError:     o.LastFinalizeError,
		CreatedBy:             o.CreatedBy,
		AssignedTo:            o.AssignedTo,
		FinalizedBy:           o.FinalizedBy,
		CreatedAt:             o.CreatedAt,
		AssignedAt:            o.AssignedAt,
		VerifiedAt:            o.VerifiedAt,
		CompletedAt:           o.CompletedAt,
		CancelledAt:           o.CancelledAt,
	}
}

// FromRequirementStats mapea las filas de avance por requirement.
func FromRequirementStats(stats []*entity.SplitOrderRequirementStat) []RequirementStatDTO {
	out := make([]RequirementStatDTO, 0, len(stats))
	for _, st := range stats {
		out = append(out, RequirementStatDTO{
			OperationRequirementID: st.OperationRequirementID,
			PalletGroupIndex:       st.PalletGroupIndex,
			ExpectedPackageCount:   st.ExpectedPackageCount,
			ScannedPackageCount:    st.ScannedPackageCount,
		})
	}
	return out
}

// FromTempPallets mapea los pallets provisionales.
func FromTempPallets(temps []*entity.SplitOrderPalletTemp) []TempPalletDTO {
	out := make([]TempPalletDTO, 0, len(temps))
	for _, tp := range temps {
		out = append(out, TempPalletDTO{
			ID:                     tp.ID,
			OperationRequirementID: tp.OperationRequirementID,
			GroupIndex:             tp.GroupIndex,
			SequenceNo:             tp.SequenceNo,
			Status:                 tp.Status,
			ScannedPackageCount:    tp.ScannedPackageCount,
			ScannedWeightKg:        tp.ScannedWeightKg,
			PalletID:               tp.PalletID,
		})
	}
	return out
}
