// Package splitorder contiene la máquina de estados pura del split order.
// La tabla de transiciones se mantiene como datos para poder testearla
// exhaustivamente, en lugar de condicionales dispersos.
package splitorder

import (
	"fmt"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
)

// allowedTransitions es la tabla estática (from → destinos permitidos).
// Nota: verifying NO puede cancelarse — con una finalización posiblemente en
// vuelo, abortar arriesga dejar movimientos físicos parciales huérfanos.
var allowedTransitions = map[string][]string{
	entity.SplitOrderStatusCreated:    {entity.SplitOrderStatusAssigned, entity.SplitOrderStatusCancelled},
	entity.SplitOrderStatusAssigned:   {entity.SplitOrderStatusProcessing, entity.SplitOrderStatusCancelled},
	entity.SplitOrderStatusProcessing: {entity.SplitOrderStatusVerifying, entity.SplitOrderStatusCancelled},
	entity.SplitOrderStatusVerifying:  {entity.SplitOrderStatusCompleted},
	entity.SplitOrderStatusCompleted:  {},
	entity.SplitOrderStatusCancelled:  {},
}

// CanTransition devuelve true si la transición from→to está en la tabla.
// Lookup puro, sin efectos.
func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition valida la transición y devuelve ErrInvalidStateTransition
// anotada con el par si no está permitida.
func Transition(from, to string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidStateTransition, from, to)
	}
	return nil
}

// IsTerminal devuelve true si el estado no tiene transiciones de salida.
func IsTerminal(status string) bool {
	allowed, ok := allowedTransitions[status]
	return ok && len(allowed) == 0
}

// Statuses devuelve los estados conocidos (para validación de entrada).
func Statuses() []string {
	out := make([]string, 0, len(allowedTransitions))
	for s := range allowedTransitions {
		out = append(out, s)
	}
	return out
}
