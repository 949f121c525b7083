// Package outbox contiene la lógica pura del outbox de ledger: la función de
// backoff, las reglas de transición de estado y el contrato del payload.
// Todo es testeable sin base de datos ni worker.
package outbox

import "time"

const maxBackoffShift = 32

// Backoff devuelve la espera antes del reintento número attempt (1-based):
// base * 2^(attempt-1), acotada por max. Attempts fuera de rango se saturan.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	delay := base << shift
	// El shift puede desbordar con bases grandes; el cap también cubre eso.
	if delay <= 0 || (max > 0 && delay > max) {
		return max
	}
	return delay
}
