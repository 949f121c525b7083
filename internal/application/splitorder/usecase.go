package splitorder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
	domsplit "github.com/jhoicas/ftz-wms/internal/domain/splitorder"
)

// UseCase maneja el ciclo de vida del split order: planificación (create con
// siembra de stats y pallets provisionales) y las transiciones operativas.
// El escaneo vive en ScanAllocator y la finalización en Finalizer.
type UseCase struct {
	txRunner  TxRunner
	orderRepo repository.SplitOrderRepository
	statRepo  repository.RequirementStatRepository
	tempRepo  repository.PalletTempRepository
	reqRepo   repository.OperationRequirementRepository
}

// NewUseCase construye el caso de uso de ciclo de vida.
func NewUseCase(
	txRunner TxRunner,
	orderRepo repository.SplitOrderRepository,
	statRepo repository.RequirementStatRepository,
	tempRepo repository.PalletTempRepository,
	reqRepo repository.OperationRequirementRepository,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		statRepo:  statRepo,
		tempRepo:  tempRepo,
		reqRepo:   reqRepo,
	}
}

// PlannedRequirementInput es un requirement planificado con su expectativa.
type PlannedRequirementInput struct {
	OperationRequirementID string
	ExpectedPackageCount   int
}

// CreateInput entrada de la planificación de un split order.
type CreateInput struct {
	TenantID        string
	WarehouseID     string
	AWBNumber       string
	CreatedBy       string
	SourcePalletIDs []string
	Requirements    []PlannedRequirementInput
}

// Create planifica el split order: crea la orden, una fila de stats por
// requirement (group_index en orden de código de requirement, estable) y un
// pallet provisional inicial (sequence_no=1) por grupo. Todo en una tx.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.SplitOrder, error) {
	if in.TenantID == "" || in.WarehouseID == "" || in.AWBNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(in.SourcePalletIDs) == 0 || len(in.Requirements) == 0 {
		return nil, domain.ErrInvalidInput
	}

	total := 0
	reqIDs := make([]string, 0, len(in.Requirements))
	seen := make(map[string]bool, len(in.Requirements))
	for _, r := range in.Requirements {
		if r.OperationRequirementID == "" || r.ExpectedPackageCount <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if seen[r.OperationRequirementID] {
			return nil, fmt.Errorf("%w: requirement repetido %s", domain.ErrInvalidInput, r.OperationRequirementID)
		}
		seen[r.OperationRequirementID] = true
		reqIDs = append(reqIDs, r.OperationRequirementID)
		total += r.ExpectedPackageCount
	}

	// Resolver el catálogo para ordenar los grupos por código de requirement.
	catalog, err := uc.reqRepo.GetByIDs(ctx, reqIDs)
	if err != nil {
		return nil, err
	}
	if len(catalog) != len(reqIDs) {
		return nil, fmt.Errorf("%w: operation requirement desconocido", domain.ErrNotFound)
	}
	codeByID := make(map[string]string, len(catalog))
	for _, r := range catalog {
		codeByID[r.ID] = r.Code
	}
	ordered := make([]PlannedRequirementInput, len(in.Requirements))
	copy(ordered, in.Requirements)
	sort.Slice(ordered, func(i, j int) bool {
		return codeByID[ordered[i].OperationRequirementID] < codeByID[ordered[j].OperationRequirementID]
	})

	now := time.Now().UTC()
	order := &entity.SplitOrder{
		ID:                    uuid.New().String(),
		TenantID:              in.TenantID,
		WarehouseID:           in.WarehouseID,
		AWBNumber:             in.AWBNumber,
		Status:                entity.SplitOrderStatusCreated,
		TotalPackagesExpected: total,
		CreatedBy:             in.CreatedBy,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	err = uc.txRunner.Run(ctx, func(
		orders repository.SplitOrderRepository,
		stats repository.RequirementStatRepository,
		temps repository.PalletTempRepository,
		_ repository.PackageScanRepository,
		_ repository.PackageRepository,
		_ repository.PalletRepository,
		_ repository.LedgerOutboxRepository,
	) error {
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		if err := orders.AddSourcePallets(ctx, order.ID, in.SourcePalletIDs); err != nil {
			return err
		}

		statRows := make([]*entity.SplitOrderRequirementStat, 0, len(ordered))
		tempRows := make([]*entity.SplitOrderPalletTemp, 0, len(ordered))
		for i, r := range ordered {
			statRows = append(statRows, &entity.SplitOrderRequirementStat{
				ID:                     uuid.New().String(),
				SplitOrderID:           order.ID,
				OperationRequirementID: r.OperationRequirementID,
				PalletGroupIndex:       i + 1,
				ExpectedPackageCount:   r.ExpectedPackageCount,
				CreatedAt:              now,
				UpdatedAt:              now,
			})
			tempRows = append(tempRows, &entity.SplitOrderPalletTemp{
				ID:                     uuid.New().String(),
				SplitOrderID:           order.ID,
				OperationRequirementID: r.OperationRequirementID,
				GroupIndex:             i + 1,
				SequenceNo:             1,
				Status:                 entity.PalletTempStatusOpen,
				CreatedAt:              now,
				UpdatedAt:              now,
			})
		}
		if err := stats.CreateBatch(ctx, statRows); err != nil {
			return err
		}
		return temps.CreateBatch(ctx, tempRows)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Assign pasa created→assigned y registra el operador.
func (uc *UseCase) Assign(ctx context.Context, id, operator string) error {
	return uc.transition(ctx, id, entity.SplitOrderStatusAssigned, func(order *entity.SplitOrder, now time.Time) {
		order.AssignedTo = operator
		order.AssignedAt = &now
	})
}

// StartProcessing pasa assigned→processing (el operador empieza a escanear).
func (uc *UseCase) StartProcessing(ctx context.Context, id string) error {
	return uc.transition(ctx, id, entity.SplitOrderStatusProcessing, nil)
}

// MarkVerifying pasa processing→verifying. El conteo completo se exige en la
// finalización, no aquí: el operador puede entrar a verificación para revisar
// faltantes.
func (uc *UseCase) MarkVerifying(ctx context.Context, id string) error {
	return uc.transition(ctx, id, entity.SplitOrderStatusVerifying, func(order *entity.SplitOrder, now time.Time) {
		order.VerifiedAt = &now
	})
}

// Cancel cancela la orden. Solo permitido desde created/assigned/processing;
// la tabla de transiciones excluye verifying deliberadamente.
func (uc *UseCase) Cancel(ctx context.Context, id string) error {
	return uc.transition(ctx, id, entity.SplitOrderStatusCancelled, func(order *entity.SplitOrder, now time.Time) {
		order.CancelledAt = &now
	})
}

func (uc *UseCase) transition(ctx context.Context, id, to string, mutate func(*entity.SplitOrder, time.Time)) error {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if err := domsplit.Transition(order.Status, to); err != nil {
		return err
	}
	from := order.Status
	now := time.Now().UTC()
	order.Status = to
	order.UpdatedAt = now
	if mutate != nil {
		mutate(order, now)
	}
	return uc.orderRepo.UpdateStatus(ctx, order, from)
}

// Detail es el read model del split order para la UI de operación.
type Detail struct {
	Order       *entity.SplitOrder
	Stats       []*entity.SplitOrderRequirementStat
	TempPallets []*entity.SplitOrderPalletTemp
}

// GetDetail devuelve la orden con sus stats y pallets provisionales.
func (uc *UseCase) GetDetail(ctx context.Context, id string) (*Detail, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	stats, err := uc.statRepo.ListBySplitOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	temps, err := uc.tempRepo.ListBySplitOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Order: order, Stats: stats, TempPallets: temps}, nil
}
