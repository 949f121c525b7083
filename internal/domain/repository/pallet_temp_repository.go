package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// PalletTempRepository define el puerto para los pallets provisionales.
// La constraint única (split_order, requirement, sequence_no) arbitra la
// creación concurrente de secuencias.
type PalletTempRepository interface {
	Create(ctx context.Context, temp *entity.SplitOrderPalletTemp) error
	CreateBatch(ctx context.Context, temps []*entity.SplitOrderPalletTemp) error
	GetByID(ctx context.Context, id string) (*entity.SplitOrderPalletTemp, error)
	ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.SplitOrderPalletTemp, error)

	// FindAllocatable devuelve el pallet open del requirement con cupo
	// (scanned < capacity) y menor sequence_no, o nil si no hay.
	FindAllocatable(ctx context.Context, splitOrderID, requirementID string, capacity int) (*entity.SplitOrderPalletTemp, error)

	// MaxSequenceNo devuelve el mayor sequence_no existente del grupo (0 si
	// no hay ninguno).
	MaxSequenceNo(ctx context.Context, splitOrderID, requirementID string) (int, error)

	// IncrementScanned suma 1 al contador y acumula el peso; devuelve el
	// nuevo contador para que el caso de uso decida si el pallet quedó full.
	IncrementScanned(ctx context.Context, id string, weightKg decimal.Decimal) (int, error)

	// SetStatus avanza open→full. El avance a confirmed pasa por Confirm.
	SetStatus(ctx context.Context, id, status string) error

	// ListUnconfirmed devuelve los pallets en open o full (los que el
	// finalizador debe convertir).
	ListUnconfirmed(ctx context.Context, splitOrderID string) ([]*entity.SplitOrderPalletTemp, error)

	// Confirm fija status=confirmed y el pallet_id real, solo si aún no
	// estaba confirmado. El pallet_id es inmutable después.
	Confirm(ctx context.Context, id, palletID string) error
}
