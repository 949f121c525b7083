package repository

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// PackageRepository es el puerto hacia el registro externo de paquetes.
// Solo se consume lo que el flujo de split necesita: resolver por código y
// reasignar la referencia de pallet al confirmar.
type PackageRepository interface {
	GetByCode(ctx context.Context, tenantID, code string) (*entity.Package, error)
	GetByID(ctx context.Context, id string) (*entity.Package, error)

	// ReassignPallet mueve los paquetes indicados al pallet destino.
	ReassignPallet(ctx context.Context, packageIDs []string, palletID string) error
}
