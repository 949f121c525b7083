package outboxrelay

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/outbox"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
	"github.com/jhoicas/ftz-wms/pkg/logger"
)

// Config parámetros del relay (vienen de pkg/config).
type Config struct {
	WorkerID     string
	PollInterval time.Duration
	BatchSize    int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	MaxAttempts  int
	// ClaimTimeout: una fila processing con updated_at más viejo que esto se
	// considera un claim huérfano (worker muerto) y se reencola.
	ClaimTimeout time.Duration
}

// Relay es el worker que drena el outbox: reclama filas pending con claim
// optimista (status+version), las aplica al ledger y decide entre completed,
// reintento con backoff o cuarentena failed_permanent. Varios workers pueden
// competir: el claim reparte el trabajo sin lock global.
type Relay struct {
	repo    repository.LedgerOutboxRepository
	applier LedgerApplier
	log     *logger.Logger
	cfg     Config
}

// NewRelay construye el worker.
func NewRelay(repo repository.LedgerOutboxRepository, applier LedgerApplier, log *logger.Logger, cfg Config) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ClaimTimeout <= 0 {
		cfg.ClaimTimeout = 5 * time.Minute
	}
	return &Relay{repo: repo, applier: applier, log: log, cfg: cfg}
}

// CycleResult resume un ciclo de poll.
type CycleResult struct {
	Requeued    int
	Claimed     int
	Completed   int
	Retried     int
	Quarantined int
	LostRace    int
}

// Run ejecuta el loop de poll hasta que el contexto se cancele. La única
// espera del loop es el intervalo de poll; los fallos de un ciclo se loguean
// y el siguiente ciclo continúa.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.log.Info().
		Str("worker_id", r.cfg.WorkerID).
		Dur("poll_interval", r.cfg.PollInterval).
		Int("max_attempts", r.cfg.MaxAttempts).
		Msg("outbox relay iniciado")

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Str("worker_id", r.cfg.WorkerID).Msg("outbox relay detenido")
			return ctx.Err()
		case <-ticker.C:
			res, err := r.RunOnce(ctx, time.Now().UTC())
			if err != nil {
				r.log.Error().Err(err).Str("worker_id", r.cfg.WorkerID).Msg("ciclo de relay falló")
				continue
			}
			if res.Claimed > 0 {
				r.log.Info().
					Str("worker_id", r.cfg.WorkerID).
					Int("claimed", res.Claimed).
					Int("completed", res.Completed).
					Int("retried", res.Retried).
					Int("quarantined", res.Quarantined).
					Msg("ciclo de relay")
			}
		}
	}
}

// RunOnce ejecuta un solo ciclo (testeable sin el loop).
func (r *Relay) RunOnce(ctx context.Context, now time.Time) (CycleResult, error) {
	var res CycleResult

	// Primero rescatar claims huérfanos: filas que otro worker reclamó y
	// nunca cerró (murió tras el claim o su MarkCompleted falló). Vuelven a
	// pending con attempts intacto y este mismo ciclo puede reclamarlas.
	requeued, err := r.repo.RequeueStale(ctx, now.Add(-r.cfg.ClaimTimeout))
	if err != nil {
		return res, err
	}
	res.Requeued = requeued
	if requeued > 0 {
		r.log.Warn().
			Str("worker_id", r.cfg.WorkerID).
			Int("requeued", requeued).
			Msg("filas processing huérfanas reencoladas")
	}

	rows, err := r.repo.ListClaimable(ctx, now, r.cfg.BatchSize)
	if err != nil {
		return res, err
	}

	for _, row := range rows {
		claimed, err := r.repo.Claim(ctx, row.ID, row.Version, r.cfg.WorkerID)
		if err != nil {
			return res, err
		}
		if !claimed {
			// Otro worker ganó la carrera por esta fila.
			res.LostRace++
			continue
		}
		res.Claimed++

		switch r.applyRow(ctx, row, now) {
		case outcomeCompleted:
			res.Completed++
		case outcomeRetried:
			res.Retried++
		case outcomeQuarantined:
			res.Quarantined++
		}
	}
	return res, nil
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeRetried
	outcomeQuarantined
)

// applyRow aplica una fila reclamada y persiste el desenlace. El intento
// actual es attempts+1; al agotar MaxAttempts o ante un error permanente la
// fila va a cuarentena y no vuelve a reintentarse automáticamente.
func (r *Relay) applyRow(ctx context.Context, row *entity.FtzInventoryLedgerOutbox, now time.Time) outcome {
	attempt := row.Attempts + 1

	payload, err := outbox.ParseInternalMovePayload(row.PayloadJSON)
	if err == nil {
		err = r.applier.Apply(ctx, row, payload)
	}
	if err == nil {
		if mErr := r.repo.MarkCompleted(ctx, row.ID); mErr != nil {
			// La fila queda en processing; RequeueStale la devolverá a
			// pending al vencer el claim y el reintento será idempotente
			// (el insert al ledger hace ON CONFLICT DO NOTHING).
			r.log.Error().Err(mErr).Str("outbox_id", row.ID).Msg("no se pudo marcar completed")
			return outcomeRetried
		}
		return outcomeCompleted
	}

	permanent := errors.Is(err, domain.ErrLedgerApplyPermanent) || attempt >= r.cfg.MaxAttempts
	if permanent {
		if qErr := r.repo.MarkFailedPermanent(ctx, row.ID, attempt, err.Error()); qErr != nil {
			r.log.Error().Err(qErr).Str("outbox_id", row.ID).Msg("no se pudo poner en cuarentena")
		}
		r.log.Warn().
			Str("outbox_id", row.ID).
			Int("attempts", attempt).
			Str("last_error", err.Error()).
			Msg("fila de outbox en cuarentena (failed_permanent)")
		return outcomeQuarantined
	}

	delay := outbox.Backoff(r.cfg.BackoffBase, r.cfg.BackoffMax, attempt)
	if sErr := r.repo.ScheduleRetry(ctx, row.ID, attempt, err.Error(), now.Add(delay)); sErr != nil {
		r.log.Error().Err(sErr).Str("outbox_id", row.ID).Msg("no se pudo programar el reintento")
	}
	return outcomeRetried
}
