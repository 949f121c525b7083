package splitorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/outbox"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
	domsplit "github.com/jhoicas/ftz-wms/internal/domain/splitorder"
)

// Finalizer convierte los pallets provisionales en pallets reales exactamente
// una vez. El flag finalize_in_progress (compare-and-set por fila) impide
// ejecuciones concurrentes; la confirmación solo sobrevive a una transacción
// commiteada, así que un reintento tras fallo no puede duplicar nada.
type Finalizer struct {
	txRunner  TxRunner
	orderRepo repository.SplitOrderRepository
}

// NewFinalizer construye el finalizador.
func NewFinalizer(txRunner TxRunner, orderRepo repository.SplitOrderRepository) *Finalizer {
	return &Finalizer{txRunner: txRunner, orderRepo: orderRepo}
}

// FinalizeResult resume lo producido por una finalización exitosa.
type FinalizeResult struct {
	SplitOrderID string
	PalletIDs    []string
	OutboxRowIDs []string
}

// Finalize ejecuta la finalización:
//  1. CAS del flag finalize_in_progress (fuera de la tx); ya tomado →
//     ErrConcurrentFinalize.
//  2. En una tx: exige status=verifying y conteo completo, crea un Pallet por
//     cada provisional open/full, reasigna sus paquetes, confirma el
//     provisional, escribe una fila de outbox por pallet y completa la orden.
//  3. Cualquier fallo revierte la tx y, fuera de ella, suelta el flag y
//     registra last_finalize_error: el mutex nunca queda pegado.
func (f *Finalizer) Finalize(ctx context.Context, splitOrderID, finalizedBy string) (*FinalizeResult, error) {
	if splitOrderID == "" {
		return nil, domain.ErrInvalidInput
	}

	acquired, err := f.orderRepo.AcquireFinalizeLock(ctx, splitOrderID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrConcurrentFinalize
	}

	result := &FinalizeResult{SplitOrderID: splitOrderID}
	err = f.txRunner.Run(ctx, func(
		orders repository.SplitOrderRepository,
		_ repository.RequirementStatRepository,
		temps repository.PalletTempRepository,
		scans repository.PackageScanRepository,
		packages repository.PackageRepository,
		pallets repository.PalletRepository,
		outboxRepo repository.LedgerOutboxRepository,
	) error {
		order, err := orders.GetByID(ctx, splitOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if err := domsplit.Transition(order.Status, entity.SplitOrderStatusCompleted); err != nil {
			return err
		}
		if order.ScannedPackageCount != order.TotalPackagesExpected {
			return fmt.Errorf("%w: %d de %d paquetes escaneados",
				domain.ErrIncompleteScan, order.ScannedPackageCount, order.TotalPackagesExpected)
		}

		sourceIDs, err := orders.ListSourcePalletIDs(ctx, splitOrderID)
		if err != nil {
			return err
		}

		unconfirmed, err := temps.ListUnconfirmed(ctx, splitOrderID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, temp := range unconfirmed {
			scanRows, err := scans.ListByTempPallet(ctx, temp.ID)
			if err != nil {
				return err
			}
			if len(scanRows) == 0 {
				// Provisional sembrado sin escaneos: no genera pallet físico.
				if err := temps.Confirm(ctx, temp.ID, ""); err != nil {
					return err
				}
				continue
			}
			packageIDs := make([]string, 0, len(scanRows))
			for _, s := range scanRows {
				packageIDs = append(packageIDs, s.PackageID)
			}

			pallet := &entity.Pallet{
				ID:           uuid.New().String(),
				TenantID:     order.TenantID,
				WarehouseID:  order.WarehouseID,
				Code:         fmt.Sprintf("%s-G%02d-S%02d", order.AWBNumber, temp.GroupIndex, temp.SequenceNo),
				PackageCount: len(packageIDs),
				WeightKg:     temp.ScannedWeightKg,
				CreatedAt:    now,
			}
			if err := pallets.Create(ctx, pallet); err != nil {
				return err
			}
			if err := packages.ReassignPallet(ctx, packageIDs, pallet.ID); err != nil {
				return err
			}
			if err := temps.Confirm(ctx, temp.ID, pallet.ID); err != nil {
				return err
			}

			payload := outbox.InternalMovePayload{
				SourcePalletIDs:     sourceIDs,
				DestinationPalletID: pallet.ID,
				PackageIDs:          packageIDs,
				WarehouseID:         order.WarehouseID,
				TenantID:            order.TenantID,
				TotalWeightKg:       temp.ScannedWeightKg,
				OccurredAt:          now,
			}
			raw, err := payload.Marshal()
			if err != nil {
				return err
			}
			row := &entity.FtzInventoryLedgerOutbox{
				ID:           uuid.New().String(),
				TenantID:     order.TenantID,
				WarehouseID:  order.WarehouseID,
				SplitOrderID: order.ID,
				Direction:    entity.LedgerDirectionInternalMove,
				Status:       entity.OutboxStatusPending,
				NextRetryAt:  now,
				PayloadJSON:  raw,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := outboxRepo.Create(ctx, row); err != nil {
				return err
			}

			result.PalletIDs = append(result.PalletIDs, pallet.ID)
			result.OutboxRowIDs = append(result.OutboxRowIDs, row.ID)
		}

		// Completar la orden y limpiar el mutex dentro de la misma tx: el
		// commit es el único punto donde la finalización se vuelve visible.
		from := order.Status
		order.Status = entity.SplitOrderStatusCompleted
		order.CompletedAt = &now
		order.UpdatedAt = now
		order.FinalizedBy = finalizedBy
		order.FinalizeInProgress = false
		order.LastFinalizeError = ""
		return orders.UpdateStatus(ctx, order, from)
	})
	if err != nil {
		// Fuera de la tx revertida: soltar el mutex y dejar rastro del fallo.
		if relErr := f.orderRepo.ReleaseFinalizeLock(ctx, splitOrderID, err.Error()); relErr != nil {
			return nil, fmt.Errorf("%w (y fallo al liberar el mutex: %v)", err, relErr)
		}
		return nil, err
	}
	return result, nil
}
