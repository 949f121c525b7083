package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Ciclo de vida del split order.
	ErrInvalidStateTransition = errors.New("transición de estado no permitida")

	// Escaneo de paquetes.
	ErrPackageNotInScope  = errors.New("el paquete no pertenece a este split order")
	ErrMissingRequirement = errors.New("el paquete no tiene operation requirement asignado")
	ErrDuplicateScan      = errors.New("el paquete ya fue escaneado en este split order")

	// Finalización.
	ErrIncompleteScan     = errors.New("faltan paquetes por escanear")
	ErrConcurrentFinalize = errors.New("ya hay una finalización en curso")

	// Outbox / ledger.
	ErrLedgerApplyPermanent = errors.New("fallo permanente al aplicar el movimiento al ledger")
)
