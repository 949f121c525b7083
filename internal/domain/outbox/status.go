package outbox

import (
	"fmt"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// Las transiciones de estado del outbox son monótonas salvo el ciclo
// pending↔processing durante los reintentos.
var allowedStatusTransitions = map[string][]string{
	entity.OutboxStatusPending: {entity.OutboxStatusProcessing},
	entity.OutboxStatusProcessing: {
		entity.OutboxStatusCompleted,
		entity.OutboxStatusPending,
		entity.OutboxStatusFailedPermanent,
	},
	// failed_permanent solo sale por reset administrativo explícito.
	entity.OutboxStatusFailedPermanent: {entity.OutboxStatusPending},
	entity.OutboxStatusCompleted:       {},
}

// CanTransitionStatus devuelve true si la transición está permitida.
func CanTransitionStatus(from, to string) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateStatusTransition valida y anota el par inválido.
func ValidateStatusTransition(from, to string) error {
	if !CanTransitionStatus(from, to) {
		return fmt.Errorf("%w: outbox %s → %s", domain.ErrConflict, from, to)
	}
	return nil
}
