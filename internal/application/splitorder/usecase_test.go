package splitorder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del ciclo de vida a nivel de caso de uso: las transiciones no solo
// validan contra el estado leído sino que el update exige que ese estado siga
// vigente (UPDATE ... AND status = <leído>).
// ──────────────────────────────────────────────────────────────────────────────

// raceOrderRepo intercala una mutación entre el GetByID del caso de uso y su
// UpdateStatus, simulando una transacción concurrente que gana la carrera.
type raceOrderRepo struct {
	repository.SplitOrderRepository
	afterGet func()
}

func (r *raceOrderRepo) GetByID(ctx context.Context, id string) (*entity.SplitOrder, error) {
	o, err := r.SplitOrderRepository.GetByID(ctx, id)
	if r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook()
	}
	return o, err
}

func TestTransition_CancelacionConcurrenteNoSeSobrescribe(t *testing.T) {
	store := newMemStore()
	store.orders["so-1"] = &entity.SplitOrder{
		ID:     "so-1",
		Status: entity.SplitOrderStatusCreated,
	}
	repo := &raceOrderRepo{SplitOrderRepository: &fakeOrderRepo{s: store}}
	// Otro operador cancela la orden justo después de que Assign la leyó.
	repo.afterGet = func() {
		store.orders["so-1"].Status = entity.SplitOrderStatusCancelled
	}
	uc := splitorder.NewUseCase(&fakeTxRunner{s: store}, repo, &fakeStatRepo{s: store},
		&fakeTempRepo{s: store}, &fakeRequirementRepo{s: store})

	err := uc.Assign(context.Background(), "so-1", "operator-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict),
		"la transición perdedora devuelve conflicto, no éxito silencioso")

	got := store.orders["so-1"]
	assert.Equal(t, entity.SplitOrderStatusCancelled, got.Status,
		"la cancelación concurrente no debe quedar sobrescrita por assigned")
	assert.Empty(t, got.AssignedTo)
}

func TestTransition_SinCarreraSigueFuncionando(t *testing.T) {
	store := newMemStore()
	store.orders["so-1"] = &entity.SplitOrder{
		ID:     "so-1",
		Status: entity.SplitOrderStatusCreated,
	}
	uc := splitorder.NewUseCase(&fakeTxRunner{s: store}, &fakeOrderRepo{s: store},
		&fakeStatRepo{s: store}, &fakeTempRepo{s: store}, &fakeRequirementRepo{s: store})

	require.NoError(t, uc.Assign(context.Background(), "so-1", "operator-1"))
	assert.Equal(t, entity.SplitOrderStatusAssigned, store.orders["so-1"].Status)
	assert.Equal(t, "operator-1", store.orders["so-1"].AssignedTo)
}
