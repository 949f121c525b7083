package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ftz-wms/internal/application/dto"
	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
)

// SplitOrderHandler maneja las peticiones HTTP del ciclo de vida del split
// order: planificación, transiciones del operador, escaneo y finalización.
type SplitOrderHandler struct {
	uc    *splitorder.UseCase
	alloc *splitorder.ScanAllocator
	fin   *splitorder.Finalizer
}

// NewSplitOrderHandler construye el handler.
func NewSplitOrderHandler(uc *splitorder.UseCase, alloc *splitorder.ScanAllocator, fin *splitorder.Finalizer) *SplitOrderHandler {
	return &SplitOrderHandler{uc: uc, alloc: alloc, fin: fin}
}

// Create planifica un split order (POST /api/split-orders).
func (h *SplitOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSplitOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	reqs := make([]splitorder.PlannedRequirementInput, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		reqs = append(reqs, splitorder.PlannedRequirementInput{
			OperationRequirementID: r.OperationRequirementID,
			ExpectedPackageCount:   r.ExpectedPackageCount,
		})
	}
	order, err := h.uc.Create(c.Context(), splitorder.CreateInput{
		TenantID:        in.TenantID,
		WarehouseID:     in.WarehouseID,
		AWBNumber:       in.AWBNumber,
		CreatedBy:       in.CreatedBy,
		SourcePalletIDs: in.SourcePalletIDs,
		Requirements:    reqs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSplitOrder(order))
}

// GetDetail devuelve la orden con stats y pallets provisionales
// (GET /api/split-orders/:id).
func (h *SplitOrderHandler) GetDetail(c *fiber.Ctx) error {
	detail, err := h.uc.GetDetail(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SplitOrderDetailResponse{
		Order:       dto.FromSplitOrder(detail.Order),
		Stats:       dto.FromRequirementStats(detail.Stats),
		TempPallets: dto.FromTempPallets(detail.TempPallets),
	})
}

// Assign asigna la orden a un operador (POST /api/split-orders/:id/assign).
func (h *SplitOrderHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Assign(c.Context(), c.Params("id"), in.Operator); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden asignada"})
}

// StartProcessing arranca el escaneo (POST /api/split-orders/:id/start).
func (h *SplitOrderHandler) StartProcessing(c *fiber.Ctx) error {
	if err := h.uc.StartProcessing(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden en procesamiento"})
}

// MarkVerifying pasa la orden a verificación (POST /api/split-orders/:id/verify).
func (h *SplitOrderHandler) MarkVerifying(c *fiber.Ctx) error {
	if err := h.uc.MarkVerifying(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden en verificación"})
}

// Cancel cancela la orden (POST /api/split-orders/:id/cancel).
func (h *SplitOrderHandler) Cancel(c *fiber.Ctx) error {
	if err := h.uc.Cancel(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden cancelada"})
}

// RecordScan ingiere un escaneo (POST /api/split-orders/:id/scans). Un
// re-escaneo responde 409 ALREADY_SCANNED sin tocar contadores.
func (h *SplitOrderHandler) RecordScan(c *fiber.Ctx) error {
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.alloc.RecordScan(c.Context(), splitorder.ScanInput{
		TenantID:     in.TenantID,
		SplitOrderID: c.Params("id"),
		PackageCode:  in.PackageCode,
		ScannedBy:    in.ScannedBy,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ScanResponse{
		ScanID:          res.ScanID,
		PackageID:       res.PackageID,
		TempPalletID:    res.TempPalletID,
		GroupIndex:      res.GroupIndex,
		SequenceNo:      res.SequenceNo,
		SequenceInOrder: res.SequenceInOrder,
		PalletFull:      res.PalletFull,
	})
}

// Finalize confirma los pallets provisionales (POST /api/split-orders/:id/finalize).
// Una finalización concurrente responde 409 FINALIZE_IN_PROGRESS.
func (h *SplitOrderHandler) Finalize(c *fiber.Ctx) error {
	var in dto.FinalizeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.fin.Finalize(c.Context(), c.Params("id"), in.FinalizedBy)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FinalizeResponse{
		SplitOrderID: res.SplitOrderID,
		PalletIDs:    res.PalletIDs,
		OutboxRowIDs: res.OutboxRowIDs,
	})
}
