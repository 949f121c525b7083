package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ftz-wms/internal/application/outboxrelay"
	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SplitOrderUC  *splitorder.UseCase
	ScanAllocator *splitorder.ScanAllocator
	Finalizer     *splitorder.Finalizer
	OutboxAdminUC *outboxrelay.AdminUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Split orders: planificación, ciclo de vida, escaneo y finalización.
	orders := api.Group("/split-orders")
	orderHandler := NewSplitOrderHandler(deps.SplitOrderUC, deps.ScanAllocator, deps.Finalizer)
	orders.Post("/", orderHandler.Create)
	orders.Get("/:id", orderHandler.GetDetail)
	orders.Post("/:id/assign", orderHandler.Assign)
	orders.Post("/:id/start", orderHandler.StartProcessing)
	orders.Post("/:id/verify", orderHandler.MarkVerifying)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/scans", orderHandler.RecordScan)
	orders.Post("/:id/finalize", orderHandler.Finalize)

	// Outbox: seguimiento por orden y administración de dead letters.
	outboxHandler := NewOutboxAdminHandler(deps.OutboxAdminUC)
	orders.Get("/:id/outbox", outboxHandler.ListBySplitOrder)

	outboxGroup := api.Group("/outbox")
	outboxGroup.Get("/dead-letters", outboxHandler.ListDeadLetters)
	outboxGroup.Get("/:id", outboxHandler.GetRow)
	outboxGroup.Post("/:id/reset", outboxHandler.Reset)
}
