package splitorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

// ScanAllocator ingiere escaneos de paquetes: valida alcance y requirement,
// deduplica (la constraint única de la BD es el árbitro), asigna el paquete a
// un pallet provisional con cupo y actualiza los tres contadores de forma
// atómica en una sola transacción.
type ScanAllocator struct {
	txRunner        TxRunner
	orderRepo       repository.SplitOrderRepository
	packageRepo     repository.PackageRepository
	reqRepo         repository.OperationRequirementRepository
	defaultCapacity int
}

// NewScanAllocator construye el allocator. defaultCapacity es la capacidad
// por pallet cuando el requirement no define la suya (configuración externa).
func NewScanAllocator(
	txRunner TxRunner,
	orderRepo repository.SplitOrderRepository,
	packageRepo repository.PackageRepository,
	reqRepo repository.OperationRequirementRepository,
	defaultCapacity int,
) *ScanAllocator {
	if defaultCapacity <= 0 {
		defaultCapacity = 40
	}
	return &ScanAllocator{
		txRunner:        txRunner,
		orderRepo:       orderRepo,
		packageRepo:     packageRepo,
		reqRepo:         reqRepo,
		defaultCapacity: defaultCapacity,
	}
}

// ScanInput entrada de un escaneo.
type ScanInput struct {
	TenantID     string
	SplitOrderID string
	PackageCode  string
	ScannedBy    string
}

// ScanResult resultado de un escaneo aceptado.
type ScanResult struct {
	ScanID          string
	PackageID       string
	TempPalletID    string
	GroupIndex      int
	SequenceNo      int
	SequenceInOrder int
	PalletFull      bool
}

// RecordScan procesa un escaneo. Un re-escaneo devuelve
// domain.ErrDuplicateScan sin tocar ningún contador (no-op idempotente).
func (a *ScanAllocator) RecordScan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	if in.SplitOrderID == "" || in.PackageCode == "" {
		return nil, domain.ErrInvalidInput
	}

	// 1. La orden debe estar en assigned o processing.
	order, err := a.orderRepo.GetByID(ctx, in.SplitOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.Status != entity.SplitOrderStatusAssigned && order.Status != entity.SplitOrderStatusProcessing {
		return nil, fmt.Errorf("%w: no se puede escanear en estado %s", domain.ErrConflict, order.Status)
	}

	// 2. Resolver el paquete y verificar que venga de un pallet de origen.
	pkg, err := a.packageRepo.GetByCode(ctx, in.TenantID, in.PackageCode)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, fmt.Errorf("%w: paquete %s", domain.ErrNotFound, in.PackageCode)
	}
	sourceIDs, err := a.orderRepo.ListSourcePalletIDs(ctx, in.SplitOrderID)
	if err != nil {
		return nil, err
	}
	if !contains(sourceIDs, pkg.PalletID) {
		return nil, fmt.Errorf("%w: paquete %s", domain.ErrPackageNotInScope, in.PackageCode)
	}

	// 3. El operation requirement es precondición: se asigna aguas arriba.
	if pkg.OperationRequirementID == "" {
		return nil, fmt.Errorf("%w: paquete %s", domain.ErrMissingRequirement, in.PackageCode)
	}
	req, err := a.reqRepo.GetByID(ctx, pkg.OperationRequirementID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: requirement %s", domain.ErrNotFound, pkg.OperationRequirementID)
	}
	capacity := req.PalletCapacity
	if capacity <= 0 {
		capacity = a.defaultCapacity
	}

	// 4–7. Asignación y contadores en una sola transacción. Si el insert del
	// escaneo choca con la constraint única, el rollback deshace el
	// incremento y la eventual creación de un pallet provisional nuevo.
	var result ScanResult
	err = a.txRunner.Run(ctx, func(
		orders repository.SplitOrderRepository,
		stats repository.RequirementStatRepository,
		temps repository.PalletTempRepository,
		scans repository.PackageScanRepository,
		_ repository.PackageRepository,
		_ repository.PalletRepository,
		_ repository.LedgerOutboxRepository,
	) error {
		stat, err := stats.GetByRequirement(ctx, in.SplitOrderID, pkg.OperationRequirementID)
		if err != nil {
			return err
		}
		if stat == nil {
			return fmt.Errorf("%w: requirement %s no planificado en la orden", domain.ErrPackageNotInScope, pkg.OperationRequirementID)
		}

		// Pallet open con cupo, o la siguiente secuencia del grupo.
		temp, err := temps.FindAllocatable(ctx, in.SplitOrderID, pkg.OperationRequirementID, capacity)
		if err != nil {
			return err
		}
		if temp == nil {
			maxSeq, err := temps.MaxSequenceNo(ctx, in.SplitOrderID, pkg.OperationRequirementID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			temp = &entity.SplitOrderPalletTemp{
				ID:                     uuid.New().String(),
				SplitOrderID:           in.SplitOrderID,
				OperationRequirementID: pkg.OperationRequirementID,
				GroupIndex:             stat.PalletGroupIndex,
				SequenceNo:             maxSeq + 1,
				Status:                 entity.PalletTempStatusOpen,
				CreatedAt:              now,
				UpdatedAt:              now,
			}
			if err := temps.Create(ctx, temp); err != nil {
				return err
			}
		}

		// Contador monotónico de la orden (protegido por scanned < expected);
		// su nuevo valor es el sequence_in_order del escaneo.
		seq, err := orders.IncrementScanned(ctx, in.SplitOrderID)
		if err != nil {
			return err
		}

		scan := &entity.SplitOrderPackageScan{
			ID:              uuid.New().String(),
			SplitOrderID:    in.SplitOrderID,
			PackageID:       pkg.ID,
			TempPalletID:    temp.ID,
			SequenceInOrder: seq,
			ScannedBy:       in.ScannedBy,
			ScannedAt:       time.Now().UTC(),
		}
		// Árbitro de deduplicación: la constraint única, no un check previo.
		if err := scans.Create(ctx, scan); err != nil {
			return err
		}

		newCount, err := temps.IncrementScanned(ctx, temp.ID, pkg.WeightKg)
		if err != nil {
			return err
		}
		full := newCount >= capacity
		if full {
			if err := temps.SetStatus(ctx, temp.ID, entity.PalletTempStatusFull); err != nil {
				return err
			}
		}
		if err := stats.IncrementScanned(ctx, stat.ID); err != nil {
			return err
		}

		result = ScanResult{
			ScanID:          scan.ID,
			PackageID:       pkg.ID,
			TempPalletID:    temp.ID,
			GroupIndex:      temp.GroupIndex,
			SequenceNo:      temp.SequenceNo,
			SequenceInOrder: seq,
			PalletFull:      full,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
