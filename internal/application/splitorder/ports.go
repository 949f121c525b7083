package splitorder

import (
	"context"

	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el escaneo, la finalización y
// la escritura del outbox sean unidades atómicas.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		orders repository.SplitOrderRepository,
		stats repository.RequirementStatRepository,
		temps repository.PalletTempRepository,
		scans repository.PackageScanRepository,
		packages repository.PackageRepository,
		pallets repository.PalletRepository,
		outbox repository.LedgerOutboxRepository,
	) error) error
}
