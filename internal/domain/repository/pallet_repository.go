package repository

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// PalletRepository es el puerto hacia el registro externo de pallets. El
// finalizador crea aquí los pallets destino persistidos.
type PalletRepository interface {
	Create(ctx context.Context, pallet *entity.Pallet) error
	GetByID(ctx context.Context, id string) (*entity.Pallet, error)
}
