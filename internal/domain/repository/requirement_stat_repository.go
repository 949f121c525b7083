package repository

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// RequirementStatRepository define el puerto para las estadísticas por
// operation requirement de un split order.
type RequirementStatRepository interface {
	CreateBatch(ctx context.Context, stats []*entity.SplitOrderRequirementStat) error
	ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.SplitOrderRequirementStat, error)
	GetByRequirement(ctx context.Context, splitOrderID, requirementID string) (*entity.SplitOrderRequirementStat, error)

	// IncrementScanned suma 1 al contador escaneado de la fila (update atómico).
	IncrementScanned(ctx context.Context, id string) error
}
