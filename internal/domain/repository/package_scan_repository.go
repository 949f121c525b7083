package repository

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// PackageScanRepository define el puerto para los eventos de escaneo.
type PackageScanRepository interface {
	// Create inserta el escaneo. Una violación de la constraint única
	// (split_order_id, package_id) se traduce a domain.ErrDuplicateScan:
	// la BD es el árbitro de deduplicación, no la aplicación.
	Create(ctx context.Context, scan *entity.SplitOrderPackageScan) error

	ListByTempPallet(ctx context.Context, tempPalletID string) ([]*entity.SplitOrderPackageScan, error)
	CountBySplitOrder(ctx context.Context, splitOrderID string) (int, error)
}
