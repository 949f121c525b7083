package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ftz-wms/internal/application/outboxrelay"
	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
	"github.com/jhoicas/ftz-wms/internal/domain/entity"
	"github.com/jhoicas/ftz-wms/internal/domain/repository"
	apphttp "github.com/jhoicas/ftz-wms/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del mapeo error→status del API. Los casos de uso se arman con stubs
// mínimos en memoria: aquí se valida la capa HTTP, no la lógica de negocio
// (esa tiene sus propios tests en internal/application).
// ──────────────────────────────────────────────────────────────────────────────

type stubStore struct {
	orders map[string]*entity.SplitOrder
	outbox map[string]*entity.FtzInventoryLedgerOutbox
}

type stubOrderRepo struct{ s *stubStore }

func (r *stubOrderRepo) Create(_ context.Context, o *entity.SplitOrder) error {
	r.s.orders[o.ID] = o
	return nil
}
func (r *stubOrderRepo) GetByID(_ context.Context, id string) (*entity.SplitOrder, error) {
	return r.s.orders[id], nil
}
func (r *stubOrderRepo) UpdateStatus(_ context.Context, o *entity.SplitOrder, _ string) error {
	r.s.orders[o.ID] = o
	return nil
}
func (r *stubOrderRepo) IncrementScanned(_ context.Context, _ string) (int, error) { return 0, nil }
func (r *stubOrderRepo) AcquireFinalizeLock(_ context.Context, id string) (bool, error) {
	o := r.s.orders[id]
	if o == nil || o.FinalizeInProgress {
		return false, nil
	}
	o.FinalizeInProgress = true
	return true, nil
}
func (r *stubOrderRepo) ReleaseFinalizeLock(_ context.Context, id, lastError string) error {
	if o := r.s.orders[id]; o != nil {
		o.FinalizeInProgress = false
		o.LastFinalizeError = lastError
	}
	return nil
}
func (r *stubOrderRepo) AddSourcePallets(_ context.Context, _ string, _ []string) error { return nil }
func (r *stubOrderRepo) ListSourcePalletIDs(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

type stubStatRepo struct{}

func (stubStatRepo) CreateBatch(_ context.Context, _ []*entity.SplitOrderRequirementStat) error {
	return nil
}
func (stubStatRepo) ListBySplitOrder(_ context.Context, _ string) ([]*entity.SplitOrderRequirementStat, error) {
	return nil, nil
}
func (stubStatRepo) GetByRequirement(_ context.Context, _, _ string) (*entity.SplitOrderRequirementStat, error) {
	return nil, nil
}
func (stubStatRepo) IncrementScanned(_ context.Context, _ string) error { return nil }

type stubTempRepo struct{}

func (stubTempRepo) Create(_ context.Context, _ *entity.SplitOrderPalletTemp) error { return nil }
func (stubTempRepo) CreateBatch(_ context.Context, _ []*entity.SplitOrderPalletTemp) error { return nil }
func (stubTempRepo) GetByID(_ context.Context, _ string) (*entity.SplitOrderPalletTemp, error) {
	return nil, nil
}
func (stubTempRepo) ListBySplitOrder(_ context.Context, _ string) ([]*entity.SplitOrderPalletTemp, error) {
	return nil, nil
}
func (stubTempRepo) FindAllocatable(_ context.Context, _, _ string, _ int) (*entity.SplitOrderPalletTemp, error) {
	return nil, nil
}
func (stubTempRepo) MaxSequenceNo(_ context.Context, _, _ string) (int, error) { return 0, nil }
func (stubTempRepo) IncrementScanned(_ context.Context, _ string, _ decimal.Decimal) (int, error) {
	return 0, nil
}
func (stubTempRepo) SetStatus(_ context.Context, _, _ string) error { return nil }
func (stubTempRepo) ListUnconfirmed(_ context.Context, _ string) ([]*entity.SplitOrderPalletTemp, error) {
	return nil, nil
}
func (stubTempRepo) Confirm(_ context.Context, _, _ string) error { return nil }

type stubScanRepo struct{}

func (stubScanRepo) Create(_ context.Context, _ *entity.SplitOrderPackageScan) error { return nil }
func (stubScanRepo) ListByTempPallet(_ context.Context, _ string) ([]*entity.SplitOrderPackageScan, error) {
	return nil, nil
}
func (stubScanRepo) CountBySplitOrder(_ context.Context, _ string) (int, error) { return 0, nil }

type stubPackageRepo struct{}

func (stubPackageRepo) GetByCode(_ context.Context, _, _ string) (*entity.Package, error) {
	return nil, nil
}
func (stubPackageRepo) GetByID(_ context.Context, _ string) (*entity.Package, error) { return nil, nil }
func (stubPackageRepo) ReassignPallet(_ context.Context, _ []string, _ string) error { return nil }

type stubPalletRepo struct{}

func (stubPalletRepo) Create(_ context.Context, _ *entity.Pallet) error { return nil }
func (stubPalletRepo) GetByID(_ context.Context, _ string) (*entity.Pallet, error) { return nil, nil }

type stubOutboxRepo struct{ s *stubStore }

func (r *stubOutboxRepo) Create(_ context.Context, row *entity.FtzInventoryLedgerOutbox) error {
	r.s.outbox[row.ID] = row
	return nil
}
func (r *stubOutboxRepo) GetByID(_ context.Context, id string) (*entity.FtzInventoryLedgerOutbox, error) {
	return r.s.outbox[id], nil
}
func (r *stubOutboxRepo) ListBySplitOrder(_ context.Context, splitOrderID string) ([]*entity.FtzInventoryLedgerOutbox, error) {
	var list []*entity.FtzInventoryLedgerOutbox
	for _, row := range r.s.outbox {
		if row.SplitOrderID == splitOrderID {
			list = append(list, row)
		}
	}
	return list, nil
}
func (r *stubOutboxRepo) ListClaimable(_ context.Context, _ time.Time, _ int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	return nil, nil
}
func (r *stubOutboxRepo) Claim(_ context.Context, _ string, _ int, _ string) (bool, error) {
	return false, nil
}
func (r *stubOutboxRepo) MarkCompleted(_ context.Context, _ string) error { return nil }
func (r *stubOutboxRepo) RequeueStale(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
func (r *stubOutboxRepo) ScheduleRetry(_ context.Context, _ string, _ int, _ string, _ time.Time) error {
	return nil
}
func (r *stubOutboxRepo) MarkFailedPermanent(_ context.Context, _ string, _ int, _ string) error {
	return nil
}
func (r *stubOutboxRepo) ListFailedPermanent(_ context.Context, tenantID string, _, _ int) ([]*entity.FtzInventoryLedgerOutbox, error) {
	var list []*entity.FtzInventoryLedgerOutbox
	for _, row := range r.s.outbox {
		if row.Status == entity.OutboxStatusFailedPermanent && row.TenantID == tenantID {
			list = append(list, row)
		}
	}
	return list, nil
}
func (r *stubOutboxRepo) ResetFailedPermanent(_ context.Context, id string, _ time.Time) (bool, error) {
	row := r.s.outbox[id]
	if row == nil || row.Status != entity.OutboxStatusFailedPermanent {
		return false, nil
	}
	row.Status = entity.OutboxStatusPending
	return true, nil
}

type stubReqRepo struct{}

func (stubReqRepo) GetByID(_ context.Context, _ string) (*entity.OperationRequirement, error) {
	return nil, nil
}
func (stubReqRepo) GetByIDs(_ context.Context, _ []string) ([]*entity.OperationRequirement, error) {
	return nil, nil
}

type stubTxRunner struct{ s *stubStore }

func (r *stubTxRunner) Run(ctx context.Context, fn func(
	orders repository.SplitOrderRepository,
	stats repository.RequirementStatRepository,
	temps repository.PalletTempRepository,
	scans repository.PackageScanRepository,
	packages repository.PackageRepository,
	pallets repository.PalletRepository,
	outbox repository.LedgerOutboxRepository,
) error) error {
	return fn(&stubOrderRepo{s: r.s}, stubStatRepo{}, stubTempRepo{}, stubScanRepo{},
		stubPackageRepo{}, stubPalletRepo{}, &stubOutboxRepo{s: r.s})
}

func buildTestApp(store *stubStore) *fiber.App {
	tx := &stubTxRunner{s: store}
	orderRepo := &stubOrderRepo{s: store}
	uc := splitorder.NewUseCase(tx, orderRepo, stubStatRepo{}, stubTempRepo{}, stubReqRepo{})
	alloc := splitorder.NewScanAllocator(tx, orderRepo, stubPackageRepo{}, stubReqRepo{}, 40)
	fin := splitorder.NewFinalizer(tx, orderRepo)
	admin := outboxrelay.NewAdminUseCase(&stubOutboxRepo{s: store})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		SplitOrderUC:  uc,
		ScanAllocator: alloc,
		Finalizer:     fin,
		OutboxAdminUC: admin,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "respuesta debe ser JSON: %s", raw)
	}
	return resp, decoded
}

func seedOrder(store *stubStore, id, status string) *entity.SplitOrder {
	o := &entity.SplitOrder{
		ID:          id,
		TenantID:    "tenant-1",
		WarehouseID: "wh-1",
		AWBNumber:   "AWB-001",
		Status:      status,
	}
	store.orders[id] = o
	return o
}

func newStubStore() *stubStore {
	return &stubStore{
		orders: map[string]*entity.SplitOrder{},
		outbox: map[string]*entity.FtzInventoryLedgerOutbox{},
	}
}

func TestGetDetail_NotFoundDevuelve404(t *testing.T) {
	app := buildTestApp(newStubStore())

	resp, body := doJSON(t, app, http.MethodGet, "/api/split-orders/no-existe", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestAssign_TransicionInvalidaDevuelve409(t *testing.T) {
	store := newStubStore()
	seedOrder(store, "so-1", entity.SplitOrderStatusCompleted)
	app := buildTestApp(store)

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/so-1/assign",
		`{"operator":"operator-1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

func TestAssign_DesdeCreatedDevuelve200(t *testing.T) {
	store := newStubStore()
	seedOrder(store, "so-1", entity.SplitOrderStatusCreated)
	app := buildTestApp(store)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/split-orders/so-1/assign",
		`{"operator":"operator-1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.SplitOrderStatusAssigned, store.orders["so-1"].Status)
	assert.Equal(t, "operator-1", store.orders["so-1"].AssignedTo)
}

func TestCreate_BodyInvalidoDevuelve400(t *testing.T) {
	app := buildTestApp(newStubStore())

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/", `{esto no es json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", body["code"])
}

func TestCreate_SinRequirementsDevuelve400(t *testing.T) {
	app := buildTestApp(newStubStore())

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/",
		`{"tenant_id":"tenant-1","warehouse_id":"wh-1","awb_number":"AWB-001","source_pallet_ids":["src-1"],"requirements":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestRecordScan_PaqueteDesconocidoDevuelve404(t *testing.T) {
	store := newStubStore()
	seedOrder(store, "so-1", entity.SplitOrderStatusProcessing)
	app := buildTestApp(store)

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/so-1/scans",
		`{"tenant_id":"tenant-1","package_code":"PKG-404","scanned_by":"operator-1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRecordScan_EstadoInvalidoDevuelve409(t *testing.T) {
	store := newStubStore()
	seedOrder(store, "so-1", entity.SplitOrderStatusCreated)
	app := buildTestApp(store)

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/so-1/scans",
		`{"tenant_id":"tenant-1","package_code":"PKG-001","scanned_by":"operator-1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestFinalize_MutexTomadoDevuelve409(t *testing.T) {
	store := newStubStore()
	o := seedOrder(store, "so-1", entity.SplitOrderStatusVerifying)
	o.FinalizeInProgress = true
	app := buildTestApp(store)

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/so-1/finalize",
		`{"finalized_by":"supervisor-1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "FINALIZE_IN_PROGRESS", body["code"])
}

func TestFinalize_ConteoIncompletoDevuelve422(t *testing.T) {
	store := newStubStore()
	o := seedOrder(store, "so-1", entity.SplitOrderStatusVerifying)
	o.TotalPackagesExpected = 4
	o.ScannedPackageCount = 3
	app := buildTestApp(store)

	resp, body := doJSON(t, app, http.MethodPost, "/api/split-orders/so-1/finalize",
		`{"finalized_by":"supervisor-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INCOMPLETE_SCAN", body["code"])
	assert.False(t, store.orders["so-1"].FinalizeInProgress, "el mutex se libera tras el fallo")
}

func TestOutboxAdmin_FlujoDeDeadLetters(t *testing.T) {
	store := newStubStore()
	store.outbox["dead-1"] = &entity.FtzInventoryLedgerOutbox{
		ID:        "dead-1",
		TenantID:  "tenant-1",
		Status:    entity.OutboxStatusFailedPermanent,
		Attempts:  5,
		LastError: "ledger rechaza el movimiento",
	}
	store.outbox["viva-1"] = &entity.FtzInventoryLedgerOutbox{
		ID:       "viva-1",
		TenantID: "tenant-1",
		Status:   entity.OutboxStatusPending,
	}
	app := buildTestApp(store)

	t.Run("listado exige tenant_id", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/outbox/dead-letters", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("listado solo trae failed_permanent", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/outbox/dead-letters?tenant_id=tenant-1", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("inspección de una fila", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/outbox/dead-1", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ledger rechaza el movimiento", body["last_error"])
	})

	t.Run("reset de una fila pending es 409", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/outbox/viva-1/reset", "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", body["code"])
	})

	t.Run("reset de una dead letter la reencola", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/outbox/dead-1/reset", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, entity.OutboxStatusPending, store.outbox["dead-1"].Status)
	})

	t.Run("fila inexistente es 404", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/outbox/no-existe", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
