package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ftz-wms/internal/application/dto"
	"github.com/jhoicas/ftz-wms/internal/application/outboxrelay"
)

// OutboxAdminHandler expone la vista administrativa del outbox: dead letters
// en failed_permanent, inspección de filas y reencolado manual.
type OutboxAdminHandler struct {
	uc *outboxrelay.AdminUseCase
}

// NewOutboxAdminHandler construye el handler.
func NewOutboxAdminHandler(uc *outboxrelay.AdminUseCase) *OutboxAdminHandler {
	return &OutboxAdminHandler{uc: uc}
}

// ListDeadLetters lista las filas en cuarentena del tenant, paginadas
// (GET /api/outbox/dead-letters?tenant_id=&limit=&offset=).
func (h *OutboxAdminHandler) ListDeadLetters(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tenant_id es obligatorio"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	rows, err := h.uc.ListDeadLetters(c.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":        len(rows),
		"dead_letters": dto.FromOutboxRows(rows),
	})
}

// GetRow devuelve una fila por id con su payload y last_error
// (GET /api/outbox/:id).
func (h *OutboxAdminHandler) GetRow(c *fiber.Ctx) error {
	row, err := h.uc.GetRow(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOutboxRow(row))
}

// Reset reencola una fila en cuarentena (POST /api/outbox/:id/reset). Solo
// válido desde failed_permanent; cualquier otro estado responde 409.
func (h *OutboxAdminHandler) Reset(c *fiber.Ctx) error {
	if err := h.uc.ResetDeadLetter(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "fila reencolada"})
}

// ListBySplitOrder lista las filas de outbox de una orden
// (GET /api/split-orders/:id/outbox).
func (h *OutboxAdminHandler) ListBySplitOrder(c *fiber.Ctx) error {
	rows, err := h.uc.ListBySplitOrder(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"total": len(rows),
		"rows":  dto.FromOutboxRows(rows),
	})
}
