package inventory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type memoryStore struct {
	balances map[balanceKey]Balance
	cards    []StockCardEntry
	locked   []balanceKey
}

func newMemoryStore() *memoryStore {
	return &memoryStore{balances: make(map[balanceKey]Balance)}
}

func (m *memoryStore) BalanceForUpdate(_ context.Context, companyID, warehouseID, productID int64) (Balance, error) {
	k := balanceKey{warehouseID, productID}
	m.locked = append(m.locked, k)
	if b, ok := m.balances[k]; ok {
		return b, nil
	}
	return Balance{CompanyID: companyID, WarehouseID: warehouseID, ProductID: productID}, nil
}

func (m *memoryStore) UpsertBalance(_ context.Context, b Balance) error {
	m.balances[balanceKey{b.WarehouseID, b.ProductID}] = b
	return nil
}

func (m *memoryStore) InsertCardEntry(_ context.Context, _ int64, e StockCardEntry) error {
	e.ID = int64(len(m.cards) + 1)
	m.cards = append(m.cards, e)
	return nil
}

func (m *memoryStore) EntriesFor(_ context.Context, _ int64, refType string, refID int64) ([]StockCardEntry, error) {
	var out []StockCardEntry
	for _, e := range m.cards {
		if e.RefType == refType && e.RefID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) Balances(context.Context, int64, shared.PageRequest, BalanceFilter) ([]Balance, int, error) {
	out := make([]Balance, 0, len(m.balances))
	for _, b := range m.balances {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *memoryStore) Card(_ context.Context, _ int64, f StockCardFilter) ([]StockCardEntry, error) {
	var out []StockCardEntry
	for _, e := range m.cards {
		if e.WarehouseID == f.WarehouseID && e.ProductID == f.ProductID {
			out = append(out, e)
		}
	}
	return out, nil
}

func ref(id int64) Ref {
	return Ref{CompanyID: 1, Type: "stock_journal", ID: id, DocNumber: fmt.Sprintf("SJ/2025/%04d", id)}
}

func TestAverageMovingCost(t *testing.T) {
	store := newMemoryStore()
	ledger := NewLedger(false)
	ctx := context.Background()

	entries, err := ledger.Post(ctx, store, ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: 10, UnitCost: 100}})
	require.NoError(t, err)
	require.InDelta(t, 10.0, entries[0].BalanceQty, 0.0001)
	require.InDelta(t, 100.0, entries[0].BalanceCost, 0.01)

	entries, err = ledger.Post(ctx, store, ref(2), []Movement{{WarehouseID: 1, ProductID: 1, Qty: 5, UnitCost: 120}})
	require.NoError(t, err)
	require.InDelta(t, 15.0, entries[0].BalanceQty, 0.0001)
	require.InDelta(t, 106.6667, entries[0].BalanceCost, 0.001)

	entries, err = ledger.Post(ctx, store, ref(3), []Movement{{WarehouseID: 1, ProductID: 1, Qty: -8}})
	require.NoError(t, err)
	require.InDelta(t, 7.0, entries[0].BalanceQty, 0.0001)
	require.InDelta(t, 106.6667, entries[0].UnitCost, 0.001)
	require.InDelta(t, 8.0, entries[0].QtyOut, 0.0001)
}

func TestNegativeStockGuard(t *testing.T) {
	store := newMemoryStore()
	_, err := NewLedger(false).Post(context.Background(), store, ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: -1}})
	require.ErrorIs(t, err, ErrNegativeStock)
	assert.Empty(t, store.cards)

	entries, err := NewLedger(true).Post(context.Background(), store, ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: -1}})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, entries[0].BalanceQty, 0.0001)
}

func TestPostValidatesMovements(t *testing.T) {
	ledger := NewLedger(false)
	_, err := ledger.Post(context.Background(), newMemoryStore(), ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = ledger.Post(context.Background(), newMemoryStore(), ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: 1, UnitCost: -5}})
	assert.ErrorIs(t, err, ErrInvalidUnitCost)
}

func TestPostLocksInKeyOrder(t *testing.T) {
	store := newMemoryStore()
	_, err := NewLedger(true).Post(context.Background(), store, ref(1), []Movement{
		{WarehouseID: 2, ProductID: 1, Qty: 1},
		{WarehouseID: 1, ProductID: 9, Qty: 1},
		{WarehouseID: 1, ProductID: 3, Qty: 1},
		{WarehouseID: 2, ProductID: 1, Qty: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []balanceKey{{1, 3}, {1, 9}, {2, 1}}, store.locked)
	assert.InDelta(t, 2.0, store.balances[balanceKey{2, 1}].Qty, 0.0001)
	assert.Len(t, store.cards, 4)
}

func TestReverseRestoresBalances(t *testing.T) {
	store := newMemoryStore()
	ledger := NewLedger(false)
	ctx := context.Background()

	_, err := ledger.Post(ctx, store, ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: 10, UnitCost: 50}})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, store, ref(2), []Movement{
		{WarehouseID: 1, ProductID: 1, Qty: -4},
		{WarehouseID: 2, ProductID: 1, Qty: 4, UnitCost: 50},
	})
	require.NoError(t, err)

	_, err = ledger.Reverse(ctx, store, ref(2), Ref{CompanyID: 1, Type: "stock_journal_reversal", ID: 2})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, store.balances[balanceKey{1, 1}].Qty, 0.0001)
	assert.InDelta(t, 50.0, store.balances[balanceKey{1, 1}].AvgCost, 0.0001)
	assert.InDelta(t, 0.0, store.balances[balanceKey{2, 1}].Qty, 0.0001)

	_, err = ledger.Reverse(ctx, store, ref(9), ref(10))
	assert.ErrorIs(t, err, ErrNothingToReverse)
}

func TestCardHandlerRequiresScope(t *testing.T) {
	store := newMemoryStore()
	_, err := NewLedger(false).Post(context.Background(), store, ref(1), []Movement{{WarehouseID: 1, ProductID: 1, Qty: 3, UnitCost: 10}})
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(store)).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock/card?warehouse_id=1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock/card?warehouse_id=1&product_id=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"qty_in":3`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock/balances", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
