package outboxrelay

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

// AdminUseCase expone la vista administrativa de dead letters: inspección de
// filas failed_permanent y reencolado manual. Es la única salida de la
// cuarentena; el relay nunca las retoma solo.
type AdminUseCase struct {
	repo repository.LedgerOutboxRepository
}

// NewAdminUseCase construye el caso de uso administrativo.
func NewAdminUseCase(repo repository.LedgerOutboxRepository) *AdminUseCase {
	return &AdminUseCase{repo: repo}
}

// ListDeadLetters devuelve las filas en failed_permanent del tenant, paginadas.
func (uc *AdminUseCase) ListDeadLetters(ctx context.Context, tenantID string, limit, offset int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.repo.ListFailedPermanent(ctx, tenantID, limit, offset)
}

// ListBySplitOrder devuelve las filas de outbox generadas por una orden, para
// seguir la sincronización con el ledger desde la vista de la orden.
func (uc *AdminUseCase) ListBySplitOrder(ctx context.Context, splitOrderID string) ([]*entity.FtzInventoryLedgerOutbox, error) {
	if splitOrderID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.repo.ListBySplitOrder(ctx, splitOrderID)
}

// GetRow devuelve una fila por id (para inspección del payload y last_error).
func (uc *AdminUseCase) GetRow(ctx context.Context, id string) (*entity.FtzInventoryLedgerOutbox, error) {
	row, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return row, nil
}

// ResetDeadLetter reencola una fila en cuarentena: failed_permanent→pending,
// attempts=0, next_retry_at=now. Falla con ErrConflict si la fila no está en
// failed_permanent (el CAS del repositorio decide, no un check previo).
func (uc *AdminUseCase) ResetDeadLetter(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	reset, err := uc.repo.ResetFailedPermanent(ctx, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if !reset {
		row, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: la fila está en %s, no en failed_permanent", domain.ErrConflict, row.Status)
	}
	return nil
}
