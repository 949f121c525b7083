package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

// Ensure TxRunner implements splitorder.TxRunner.
var _ splitorder.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos del flujo de split
// atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	orders repository.SplitOrderRepository,
	stats repository.RequirementStatRepository,
	temps repository.PalletTempRepository,
	scans repository.PackageScanRepository,
	packages repository.PackageRepository,
	pallets repository.PalletRepository,
	outbox repository.LedgerOutboxRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orders := NewSplitOrderRepository(tx)
	stats := NewRequirementStatRepository(tx)
	temps := NewPalletTempRepository(tx)
	scans := NewPackageScanRepository(tx)
	packages := NewPackageRepository(tx)
	pallets := NewPalletRepository(tx)
	outbox := NewLedgerOutboxRepository(tx)

	if err := fn(orders, stats, temps, scans, packages, pallets, outbox); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
