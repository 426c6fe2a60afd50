package journals

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/inventory"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

type stockKey struct{ warehouse, product int64 }

// memoryStock is an in-memory inventory.Store.
type memoryStock struct {
	balances map[stockKey]inventory.Balance
	cards    []inventory.StockCardEntry
}

func (m *memoryStock) BalanceForUpdate(_ context.Context, companyID, warehouseID, productID int64) (inventory.Balance, error) {
	if b, ok := m.balances[stockKey{warehouseID, productID}]; ok {
		return b, nil
	}
	return inventory.Balance{CompanyID: companyID, WarehouseID: warehouseID, ProductID: productID}, nil
}

func (m *memoryStock) UpsertBalance(_ context.Context, b inventory.Balance) error {
	m.balances[stockKey{b.WarehouseID, b.ProductID}] = b
	return nil
}

func (m *memoryStock) InsertCardEntry(_ context.Context, _ int64, e inventory.StockCardEntry) error {
	m.cards = append(m.cards, e)
	return nil
}

func (m *memoryStock) EntriesFor(_ context.Context, _ int64, refType string, refID int64) ([]inventory.StockCardEntry, error) {
	var out []inventory.StockCardEntry
	for _, e := range m.cards {
		if e.RefType == refType && e.RefID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockRepo struct {
	warehouses map[int64]bool
	rows       map[int64]Journal
	nextID     int64
	stock      *memoryStock
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		warehouses: map[int64]bool{1: true, 2: true},
		rows:       map[int64]Journal{},
		stock:      &memoryStock{balances: map[stockKey]inventory.Balance{}},
	}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepo) Stock() inventory.Store { return m.stock }

func (m *mockRepo) CountWarehouses(_ context.Context, _ int64, ids []int64) (int, error) {
	n := 0
	for _, id := range ids {
		if m.warehouses[id] {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) List(_ context.Context, _ int64, _ shared.PageRequest, _ ListFilters) ([]Journal, int, error) {
	out := make([]Journal, 0, len(m.rows))
	for _, j := range m.rows {
		out = append(out, j)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(_ context.Context, companyID, id int64) (*Journal, error) {
	j, ok := m.rows[id]
	if !ok || j.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (m *mockRepo) Create(_ context.Context, j Journal) (int64, error) {
	m.nextID++
	j.ID = m.nextID
	m.rows[j.ID] = j
	return j.ID, nil
}

func (m *mockRepo) Delete(_ context.Context, _, id int64) error {
	delete(m.rows, id)
	return nil
}

func (m *mockRepo) Transition(_ context.Context, _, id int64, from []Status, to Status, reason *string) error {
	j := m.rows[id]
	for _, s := range from {
		if j.Status == s {
			j.Status = to
			j.CancelReason = reason
			m.rows[id] = j
			return nil
		}
	}
	return ErrStatusChanged
}

type counter struct{ n int64 }

func (c *counter) NextSequence(context.Context, int64, string, int) (int64, error) {
	c.n++
	return c.n, nil
}

func newTestService(allowNegative bool) (*Service, *mockRepo) {
	repo := newMockRepo()
	numbers := documents.NewNumberer(&counter{}, cache.NewLocalLocker())
	return NewService(repo, totals.NewCalculator(), numbers, inventory.NewLedger(allowNegative), nil), repo
}

func id(v int64) *int64 { return &v }

func manufacturing() Request {
	return Request{
		JournalType:            TypeManufacturing,
		JournalDate:            "2025-08-01",
		SourceWarehouseID:      id(1),
		DestinationWarehouseID: id(1),
		AdditionalCost:         50,
		Consumption: []documents.LineInput{
			{ProductID: 10, Quantity: 4, UnitPrice: 25},
			{ProductID: 11, Quantity: 2, UnitPrice: 100},
		},
		Production: []documents.LineInput{
			{ProductID: 20, Quantity: 3, UnitPrice: 100},
			{ProductID: 21, Quantity: 1, UnitPrice: 100},
		},
	}
}

func TestCreateValuesBothSets(t *testing.T) {
	svc, _ := newTestService(false)

	j, err := svc.Create(context.Background(), 1, manufacturing())
	require.NoError(t, err)
	assert.Equal(t, "SJ/2025/0001", j.DocNumber)
	assert.Equal(t, StatusDraft, j.Status)
	assert.Equal(t, 300.0, j.ConsumptionValue)
	assert.Equal(t, 450.0, j.ProductionValue)
	require.Len(t, j.Production, 2)
	assert.Equal(t, 300.0, j.Production[0].TaxableAmount)
}

func TestCreateRules(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	req := manufacturing()
	req.Production = nil
	req.AdditionalCost = 0
	_, err := svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrBothSetsRequired)

	req = Request{JournalType: TypeAdjustment, JournalDate: "2025-08-01"}
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrNoLines)

	req = manufacturing()
	req.JournalType = TypeTransfer
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrSameWarehouse)

	req.DestinationWarehouseID = id(2)
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrTransferMismatch)

	req = manufacturing()
	req.SourceWarehouseID = nil
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrSourceRequired)

	req = manufacturing()
	req.DestinationWarehouseID = id(9)
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrUnknownWarehouse)

	req = Request{
		JournalType: TypeAdjustment, JournalDate: "2025-08-01", SourceWarehouseID: id(1), AdditionalCost: 5,
		Consumption: []documents.LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 1}},
	}
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrCostWithoutProduction)

	req.AdditionalCost = 0
	req.Consumption[0].Quantity = 0
	_, err = svc.Create(ctx, 1, req)
	assert.ErrorIs(t, err, ErrQuantityRequired)
}

func TestTransferPostAndCancelReverses(t *testing.T) {
	svc, repo := newTestService(false)
	ctx := context.Background()
	repo.stock.balances[stockKey{1, 10}] = inventory.Balance{CompanyID: 1, WarehouseID: 1, ProductID: 10, Qty: 10, AvgCost: 20}

	lines := []documents.LineInput{{ProductID: 10, Quantity: 6, UnitPrice: 20}}
	j, err := svc.Create(ctx, 1, Request{
		JournalType: TypeTransfer, JournalDate: "2025-08-02",
		SourceWarehouseID: id(1), DestinationWarehouseID: id(2),
		Consumption: lines, Production: lines,
	})
	require.NoError(t, err)

	posted, err := svc.Post(ctx, 1, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	assert.InDelta(t, 4.0, repo.stock.balances[stockKey{1, 10}].Qty, 0.0001)
	assert.InDelta(t, 6.0, repo.stock.balances[stockKey{2, 10}].Qty, 0.0001)
	assert.InDelta(t, 20.0, repo.stock.balances[stockKey{2, 10}].AvgCost, 0.0001)

	_, err = svc.Post(ctx, 1, j.ID)
	assert.ErrorIs(t, err, ErrCannotPost)
	assert.ErrorIs(t, svc.Delete(ctx, 1, j.ID), ErrCannotDelete)

	cancelled, err := svc.Cancel(ctx, 1, j.ID, CancelRequest{Reason: "moved to wrong godown"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.InDelta(t, 10.0, repo.stock.balances[stockKey{1, 10}].Qty, 0.0001)
	assert.InDelta(t, 0.0, repo.stock.balances[stockKey{2, 10}].Qty, 0.0001)

	_, err = svc.Cancel(ctx, 1, j.ID, CancelRequest{Reason: "moved to wrong godown"})
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestPostRejectsNegativeStock(t *testing.T) {
	svc, repo := newTestService(false)
	ctx := context.Background()

	j, err := svc.Create(ctx, 1, manufacturing())
	require.NoError(t, err)
	_, err = svc.Post(ctx, 1, j.ID)
	assert.ErrorIs(t, err, inventory.ErrNegativeStock)
	assert.Empty(t, repo.stock.cards)
}

func TestMovementsApportionAdditionalCost(t *testing.T) {
	svc, repo := newTestService(true)
	ctx := context.Background()

	j, err := svc.Create(ctx, 1, manufacturing())
	require.NoError(t, err)
	_, err = svc.Post(ctx, 1, j.ID)
	require.NoError(t, err)

	// 300 + 37.5 over 3 units and 100 + 12.5 over 1 unit.
	assert.InDelta(t, 112.5, repo.stock.balances[stockKey{1, 20}].AvgCost, 0.0001)
	assert.InDelta(t, 112.5, repo.stock.balances[stockKey{1, 21}].AvgCost, 0.0001)
	assert.InDelta(t, -4.0, repo.stock.balances[stockKey{1, 10}].Qty, 0.0001)
}

func TestHandlerLifecycle(t *testing.T) {
	svc, _ := newTestService(true)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithCompany(req.Context(), 1)))
		})
	})
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)

	body := `{"journal_type":"ADJUSTMENT","journal_date":"2025-08-03","destination_warehouse_id":2,
		"production":[{"product_id":5,"quantity":2,"unit_price":40}]}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/stock-journals", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/stock-journals/1/post", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"POSTED"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/stock-journals/1/cancel", strings.NewReader(`{"reason":"short"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock-journals?journal_type=BOGUS", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/stock-journals", strings.NewReader(`{"journal_type":"SCRAP","journal_date":"2025-08-03"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
