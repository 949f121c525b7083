package repository

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// OperationRequirementRepository es el puerto de solo lectura hacia el
// catálogo externo de operation requirements.
type OperationRequirementRepository interface {
	GetByID(ctx context.Context, id string) (*entity.OperationRequirement, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.OperationRequirement, error)
}
