package repository

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// SplitOrderRepository define el puerto de persistencia para split orders.
// Los contadores y el mutex de finalización se manipulan con updates atómicos
// de fila, nunca con read-modify-write en memoria.
type SplitOrderRepository interface {
	Create(ctx context.Context, order *entity.SplitOrder) error
	GetByID(ctx context.Context, id string) (*entity.SplitOrder, error)

	// UpdateStatus persiste estado, timestamps y campos de operador,
	// condicionado a que la fila siga en fromStatus (el estado que leyó el
	// caso de uso). Si otra transacción cambió el estado entre la lectura y
	// este update, devuelve ErrConflict y no escribe nada. La validación de
	// la transición es responsabilidad del caso de uso.
	UpdateStatus(ctx context.Context, order *entity.SplitOrder, fromStatus string) error

	// IncrementScanned incrementa scanned_package_count de forma atómica,
	// protegido por scanned < total_packages_expected, y devuelve el nuevo
	// valor (se usa como sequence_in_order del escaneo).
	IncrementScanned(ctx context.Context, id string) (int, error)

	// AcquireFinalizeLock hace el compare-and-set del flag
	// finalize_in_progress false→true. Devuelve false si ya estaba tomado.
	AcquireFinalizeLock(ctx context.Context, id string) (bool, error)

	// ReleaseFinalizeLock suelta el flag y registra el último error de
	// finalización (vacío para limpiarlo). Se invoca FUERA de la transacción
	// revertida para que el mutex nunca quede pegado.
	ReleaseFinalizeLock(ctx context.Context, id, lastError string) error

	// AddSourcePallets asocia los pallets de origen del AWB al split order.
	AddSourcePallets(ctx context.Context, splitOrderID string, palletIDs []string) error
	ListSourcePalletIDs(ctx context.Context, splitOrderID string) ([]string, error)
}
