package splitorder_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
	"github.com/jhoicas/ftz-wms/internal/domain"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. Reproducen los contratos que en producción da PostgreSQL:
// la constraint única de escaneos, el CAS del mutex de finalización, los
// incrementos atómicos y el rollback transaccional (snapshot/restore).
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	orders        map[string]*entity.SplitOrder
	sourcePallets map[string][]string
	stats         map[string]*entity.SplitOrderRequirementStat
	temps         map[string]*entity.SplitOrderPalletTemp
	scans         map[string]*entity.SplitOrderPackageScan
	scanKeys      map[string]bool // split_order_id + "|" + package_id
	packages      map[string]*entity.Package
	pallets       map[string]*entity.Pallet
	outbox        map[string]*entity.FtzInventoryLedgerOutbox
	requirements  map[string]*entity.OperationRequirement
}

func newMemStore() *memStore {
	return &memStore{
		orders:        map[string]*entity.SplitOrder{},
		sourcePallets: map[string][]string{},
		stats:         map[string]*entity.SplitOrderRequirementStat{},
		temps:         map[string]*entity.SplitOrderPalletTemp{},
		scans:         map[string]*entity.SplitOrderPackageScan{},
		scanKeys:      map[string]bool{},
		packages:      map[string]*entity.Package{},
		pallets:       map[string]*entity.Pallet{},
		outbox:        map[string]*entity.FtzInventoryLedgerOutbox{},
		requirements:  map[string]*entity.OperationRequirement{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.orders {
		cp := *v
		c.orders[k] = &cp
	}
	for k, v := range s.sourcePallets {
		c.sourcePallets[k] = append([]string(nil), v...)
	}
	for k, v := range s.stats {
		cp := *v
		c.stats[k] = &cp
	}
	for k, v := range s.temps {
		cp := *v
		c.temps[k] = &cp
	}
	for k, v := range s.scans {
		cp := *v
		c.scans[k] = &cp
	}
	for k, v := range s.scanKeys {
		c.scanKeys[k] = v
	}
	for k, v := range s.packages {
		cp := *v
		c.packages[k] = &cp
	}
	for k, v := range s.pallets {
		cp := *v
		c.pallets[k] = &cp
	}
	for k, v := range s.outbox {
		cp := *v
		c.outbox[k] = &cp
	}
	for k, v := range s.requirements {
		cp := *v
		c.requirements[k] = &cp
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.orders = from.orders
	s.sourcePallets = from.sourcePallets
	s.stats = from.stats
	s.temps = from.temps
	s.scans = from.scans
	s.scanKeys = from.scanKeys
	s.packages = from.packages
	s.pallets = from.pallets
	s.outbox = from.outbox
	s.requirements = from.requirements
}

// fakeTxRunner simula Commit/Rollback: ante error de fn restaura el snapshot.
type fakeTxRunner struct {
	s *memStore
	// failBeforeCommit fuerza un fallo después de ejecutar fn (simula un
	// commit fallido) las primeras n veces.
	failBeforeCommit int
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	orders repository.SplitOrderRepository,
	stats repository.RequirementStatRepository,
	temps repository.PalletTempRepository,
	scans repository.PackageScanRepository,
	packages repository.PackageRepository,
	pallets repository.PalletRepository,
	outbox repository.LedgerOutboxRepository,
) error) error {
	snapshot := r.s.clone()
	err := fn(
		&fakeOrderRepo{s: r.s}, &fakeStatRepo{s: r.s}, &fakeTempRepo{s: r.s},
		&fakeScanRepo{s: r.s}, &fakePackageRepo{s: r.s}, &fakePalletRepo{s: r.s},
		&fakeOutboxRepo{s: r.s},
	)
	if err == nil && r.failBeforeCommit > 0 {
		r.failBeforeCommit--
		err = fmt.Errorf("commit transaction: conexión perdida")
	}
	if err != nil {
		r.s.restore(snapshot)
		return err
	}
	return nil
}

// ─── SplitOrderRepository ────────────────────────────────────────────────────

type fakeOrderRepo struct{ s *memStore }

func (r *fakeOrderRepo) Create(_ context.Context, o *entity.SplitOrder) error {
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*entity.SplitOrder, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, o *entity.SplitOrder, fromStatus string) error {
	current, ok := r.s.orders[o.ID]
	if !ok || current.Status != fromStatus {
		return fmt.Errorf("%w: la orden cambió de estado durante la transición", domain.ErrConflict)
	}
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) IncrementScanned(_ context.Context, id string) (int, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if o.ScannedPackageCount >= o.TotalPackagesExpected {
		return 0, fmt.Errorf("%w: la orden ya alcanzó el total esperado", domain.ErrConflict)
	}
	o.ScannedPackageCount++
	return o.ScannedPackageCount, nil
}

func (r *fakeOrderRepo) AcquireFinalizeLock(_ context.Context, id string) (bool, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.FinalizeInProgress {
		return false, nil
	}
	o.FinalizeInProgress = true
	return true, nil
}

func (r *fakeOrderRepo) ReleaseFinalizeLock(_ context.Context, id, lastError string) error {
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.FinalizeInProgress = false
	o.LastFinalizeError = lastError
	return nil
}

func (r *fakeOrderRepo) AddSourcePallets(_ context.Context, splitOrderID string, palletIDs []string) error {
	r.s.sourcePallets[splitOrderID] = append(r.s.sourcePallets[splitOrderID], palletIDs...)
	return nil
}

func (r *fakeOrderRepo) ListSourcePalletIDs(_ context.Context, splitOrderID string) ([]string, error) {
	return append([]string(nil), r.s.sourcePallets[splitOrderID]...), nil
}

// ─── RequirementStatRepository ───────────────────────────────────────────────

type fakeStatRepo struct{ s *memStore }

func (r *fakeStatRepo) CreateBatch(_ context.Context, stats []*entity.SplitOrderRequirementStat) error {
	for _, st := range stats {
		cp := *st
		r.s.stats[st.ID] = &cp
	}
	return nil
}

func (r *fakeStatRepo) ListBySplitOrder(_ context.Context, splitOrderID string) ([]*entity.SplitOrderRequirementStat, error) {
	var list []*entity.SplitOrderRequirementStat
	for _, st := range r.s.stats {
		if st.SplitOrderID == splitOrderID {
			cp := *st
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PalletGroupIndex < list[j].PalletGroupIndex })
	return list, nil
}

func (r *fakeStatRepo) GetByRequirement(_ context.Context, splitOrderID, requirementID string) (*entity.SplitOrderRequirementStat, error) {
	for _, st := range r.s.stats {
		if st.SplitOrderID == splitOrderID && st.OperationRequirementID == requirementID {
			cp := *st
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeStatRepo) IncrementScanned(_ context.Context, id string) error {
	st, ok := r.s.stats[id]
	if !ok {
		return domain.ErrNotFound
	}
	st.ScannedPackageCount++
	return nil
}

// ─── PalletTempRepository ────────────────────────────────────────────────────

type fakeTempRepo struct{ s *memStore }

func (r *fakeTempRepo) Create(_ context.Context, t *entity.SplitOrderPalletTemp) error {
	for _, other := range r.s.temps {
		if other.SplitOrderID == t.SplitOrderID &&
			other.OperationRequirementID == t.OperationRequirementID &&
			other.SequenceNo == t.SequenceNo {
			return fmt.Errorf("%w: sequence_no %d ya existe en el grupo", domain.ErrConflict, t.SequenceNo)
		}
	}
	cp := *t
	r.s.temps[t.ID] = &cp
	return nil
}

func (r *fakeTempRepo) CreateBatch(ctx context.Context, temps []*entity.SplitOrderPalletTemp) error {
	for _, t := range temps {
		if err := r.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTempRepo) GetByID(_ context.Context, id string) (*entity.SplitOrderPalletTemp, error) {
	t, ok := r.s.temps[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTempRepo) ListBySplitOrder(_ context.Context, splitOrderID string) ([]*entity.SplitOrderPalletTemp, error) {
	var list []*entity.SplitOrderPalletTemp
	for _, t := range r.s.temps {
		if t.SplitOrderID == splitOrderID {
			cp := *t
			list = append(list, &cp)
		}
	}
	sortTemps(list)
	return list, nil
}

func (r *fakeTempRepo) FindAllocatable(_ context.Context, splitOrderID, requirementID string, capacity int) (*entity.SplitOrderPalletTemp, error) {
	var candidates []*entity.SplitOrderPalletTemp
	for _, t := range r.s.temps {
		if t.SplitOrderID == splitOrderID && t.OperationRequirementID == requirementID &&
			t.Status == entity.PalletTempStatusOpen && t.ScannedPackageCount < capacity {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortTemps(candidates)
	cp := *candidates[0]
	return &cp, nil
}

func (r *fakeTempRepo) MaxSequenceNo(_ context.Context, splitOrderID, requirementID string) (int, error) {
	max := 0
	for _, t := range r.s.temps {
		if t.SplitOrderID == splitOrderID && t.OperationRequirementID == requirementID && t.SequenceNo > max {
			max = t.SequenceNo
		}
	}
	return max, nil
}

func (r *fakeTempRepo) IncrementScanned(_ context.Context, id string, weightKg decimal.Decimal) (int, error) {
	t, ok := r.s.temps[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	t.ScannedPackageCount++
	t.ScannedWeightKg = t.ScannedWeightKg.Add(weightKg)
	return t.ScannedPackageCount, nil
}

func (r *fakeTempRepo) SetStatus(_ context.Context, id, status string) error {
	t, ok := r.s.temps[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != entity.PalletTempStatusOpen {
		return fmt.Errorf("%w: el pallet provisional no está open", domain.ErrConflict)
	}
	t.Status = status
	return nil
}

func (r *fakeTempRepo) ListUnconfirmed(_ context.Context, splitOrderID string) ([]*entity.SplitOrderPalletTemp, error) {
	var list []*entity.SplitOrderPalletTemp
	for _, t := range r.s.temps {
		if t.SplitOrderID == splitOrderID &&
			(t.Status == entity.PalletTempStatusOpen || t.Status == entity.PalletTempStatusFull) {
			cp := *t
			list = append(list, &cp)
		}
	}
	sortTemps(list)
	return list, nil
}

func (r *fakeTempRepo) Confirm(_ context.Context, id, palletID string) error {
	t, ok := r.s.temps[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status == entity.PalletTempStatusConfirmed {
		return fmt.Errorf("%w: el pallet provisional ya estaba confirmado", domain.ErrConflict)
	}
	t.Status = entity.PalletTempStatusConfirmed
	if palletID != "" {
		t.PalletID = &palletID
	}
	return nil
}

func sortTemps(list []*entity.SplitOrderPalletTemp) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].GroupIndex != list[j].GroupIndex {
			return list[i].GroupIndex < list[j].GroupIndex
		}
		return list[i].SequenceNo < list[j].SequenceNo
	})
}

// ─── PackageScanRepository ───────────────────────────────────────────────────

type fakeScanRepo struct{ s *memStore }

func (r *fakeScanRepo) Create(_ context.Context, sc *entity.SplitOrderPackageScan) error {
	key := sc.SplitOrderID + "|" + sc.PackageID
	if r.s.scanKeys[key] {
		return fmt.Errorf("%w: paquete %s", domain.ErrDuplicateScan, sc.PackageID)
	}
	r.s.scanKeys[key] = true
	cp := *sc
	r.s.scans[sc.ID] = &cp
	return nil
}

func (r *fakeScanRepo) ListByTempPallet(_ context.Context, tempPalletID string) ([]*entity.SplitOrderPackageScan, error) {
	var list []*entity.SplitOrderPackageScan
	for _, sc := range r.s.scans {
		if sc.TempPalletID == tempPalletID {
			cp := *sc
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SequenceInOrder < list[j].SequenceInOrder })
	return list, nil
}

func (r *fakeScanRepo) CountBySplitOrder(_ context.Context, splitOrderID string) (int, error) {
	count := 0
	for _, sc := range r.s.scans {
		if sc.SplitOrderID == splitOrderID {
			count++
		}
	}
	return count, nil
}

// ─── PackageRepository ───────────────────────────────────────────────────────

type fakePackageRepo struct{ s *memStore }

func (r *fakePackageRepo) GetByCode(_ context.Context, tenantID, code string) (*entity.Package, error) {
	for _, p := range r.s.packages {
		if p.TenantID == tenantID && p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePackageRepo) GetByID(_ context.Context, id string) (*entity.Package, error) {
	p, ok := r.s.packages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePackageRepo) ReassignPallet(_ context.Context, packageIDs []string, palletID string) error {
	for _, id := range packageIDs {
		p, ok := r.s.packages[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.PalletID = palletID
	}
	return nil
}

// ─── PalletRepository ────────────────────────────────────────────────────────

type fakePalletRepo struct{ s *memStore }

func (r *fakePalletRepo) Create(_ context.Context, p *entity.Pallet) error {
	cp := *p
	r.s.pallets[p.ID] = &cp
	return nil
}

func (r *fakePalletRepo) GetByID(_ context.Context, id string) (*entity.Pallet, error) {
	p, ok := r.s.pallets[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// ─── LedgerOutboxRepository (solo lo que usa el flujo de split) ─────────────

type fakeOutboxRepo struct{ s *memStore }

func (r *fakeOutboxRepo) Create(_ context.Context, o *entity.FtzInventoryLedgerOutbox) error {
	cp := *o
	r.s.outbox[o.ID] = &cp
	return nil
}

func (r *fakeOutboxRepo) GetByID(_ context.Context, id string) (*entity.FtzInventoryLedgerOutbox, error) {
	o, ok := r.s.outbox[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOutboxRepo) ListBySplitOrder(_ context.Context, splitOrderID string) ([]*entity.FtzInventoryLedgerOutbox, error) {
	var list []*entity.FtzInventoryLedgerOutbox
	for _, o := range r.s.outbox {
		if o.SplitOrderID == splitOrderID {
			cp := *o
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *fakeOutboxRepo) ListClaimable(_ context.Context, _ time.Time, _ int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	return nil, nil
}
func (r *fakeOutboxRepo) Claim(_ context.Context, _ string, _ int, _ string) (bool, error) {
	return false, nil
}
func (r *fakeOutboxRepo) MarkCompleted(_ context.Context, _ string) error { return nil }
func (r *fakeOutboxRepo) RequeueStale(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
func (r *fakeOutboxRepo) ScheduleRetry(_ context.Context, _ string, _ int, _ string, _ time.Time) error {
	return nil
}
func (r *fakeOutboxRepo) MarkFailedPermanent(_ context.Context, _ string, _ int, _ string) error {
	return nil
}
func (r *fakeOutboxRepo) ListFailedPermanent(_ context.Context, _ string, _, _ int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	return nil, nil
}
func (r *fakeOutboxRepo) ResetFailedPermanent(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

// ─── OperationRequirementRepository ──────────────────────────────────────────

type fakeRequirementRepo struct{ s *memStore }

func (r *fakeRequirementRepo) GetByID(_ context.Context, id string) (*entity.OperationRequirement, error) {
	req, ok := r.s.requirements[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequirementRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.OperationRequirement, error) {
	var list []*entity.OperationRequirement
	for _, id := range ids {
		if req, ok := r.s.requirements[id]; ok {
			cp := *req
			list = append(list, &cp)
		}
	}
	return list, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Builders de escenario compartidos por los tests de allocator y finalizer.
// ──────────────────────────────────────────────────────────────────────────────

type scenario struct {
	store    *memStore
	txRunner *fakeTxRunner
	uc       *splitorder.UseCase
	alloc    *splitorder.ScanAllocator
	fin      *splitorder.Finalizer
}

const (
	testTenant    = "tenant-1"
	testWarehouse = "wh-1"
	reqDry        = "req-dry"
	reqCold       = "req-cold"
)

// newScenario arma un escenario con dos requirements (DRY, COLD) y
// defaultCapacity paquetes por pallet provisional.
func newScenario(defaultCapacity int) *scenario {
	store := newMemStore()
	store.requirements[reqDry] = &entity.OperationRequirement{ID: reqDry, Code: "DRY", Label: "Carga seca"}
	store.requirements[reqCold] = &entity.OperationRequirement{ID: reqCold, Code: "COLD", Label: "Cadena de frío"}

	tx := &fakeTxRunner{s: store}
	orderRepo := &fakeOrderRepo{s: store}
	reqRepo := &fakeRequirementRepo{s: store}
	return &scenario{
		store:    store,
		txRunner: tx,
		uc: splitorder.NewUseCase(tx, orderRepo, &fakeStatRepo{s: store},
			&fakeTempRepo{s: store}, reqRepo),
		alloc: splitorder.NewScanAllocator(tx, orderRepo, &fakePackageRepo{s: store},
			reqRepo, defaultCapacity),
		fin: splitorder.NewFinalizer(tx, orderRepo),
	}
}

// addPackage registra un paquete del registro externo sobre un pallet origen.
func (sc *scenario) addPackage(id, code, sourcePalletID, requirementID string) {
	sc.store.packages[id] = &entity.Package{
		ID:                     id,
		TenantID:               testTenant,
		Code:                   code,
		PalletID:               sourcePalletID,
		OperationRequirementID: requirementID,
		WeightKg:               decimal.NewFromInt(1),
	}
}

// createOrder planifica una orden con los requirements dados y la deja en
// status processing, lista para escanear.
func (sc *scenario) createOrder(t interface {
	Fatalf(format string, args ...any)
}, sourcePallets []string, reqs []splitorder.PlannedRequirementInput) *entity.SplitOrder {
	order, err := sc.uc.Create(context.Background(), splitorder.CreateInput{
		TenantID:        testTenant,
		WarehouseID:     testWarehouse,
		AWBNumber:       "AWB-001",
		CreatedBy:       "planner",
		SourcePalletIDs: sourcePallets,
		Requirements:    reqs,
	})
	if err != nil {
		t.Fatalf("create split order: %v", err)
	}
	if err := sc.uc.Assign(context.Background(), order.ID, "operator-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := sc.uc.StartProcessing(context.Background(), order.ID); err != nil {
		t.Fatalf("start processing: %v", err)
	}
	return order
}
