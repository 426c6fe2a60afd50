package warehouses

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

	"github.com/bizdesk/bizdesk/internal/shared"
)

type mockRepo struct {
	rows   map[int64]Warehouse
	nextID int64
}

func (m *mockRepo) List(_ context.Context, companyID int64, _ shared.PageRequest) ([]Warehouse, int, error) {
	var out []Warehouse
	for _, w := range m.rows {
		if w.CompanyID == companyID {
			out = append(out, w)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(_ context.Context, companyID, id int64) (*Warehouse, error) {
	w, ok := m.rows[id]
	if !ok || w.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (m *mockRepo) Create(_ context.Context, w Warehouse) (*Warehouse, error) {
	for _, existing := range m.rows {
		if existing.CompanyID == w.CompanyID && existing.Code == w.Code {
			return nil, ErrDuplicateCode
		}
	}
	m.nextID++
	w.ID = m.nextID
	m.rows[w.ID] = w
	return &w, nil
}

func (m *mockRepo) Update(_ context.Context, w Warehouse) error {
	m.rows[w.ID] = w
	return nil
}

func (m *mockRepo) Delete(_ context.Context, _, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestWarehouseCodesAreNormalised(t *testing.T) {
	svc := NewService(&mockRepo{rows: map[int64]Warehouse{}})
	ctx := context.Background()

	w, err := svc.Create(ctx, 1, CreateRequest{Code: " main ", Name: "Main Godown"})
	require.NoError(t, err)
	assert.Equal(t, "MAIN", w.Code)
	assert.True(t, w.IsActive)

	_, err = svc.Create(ctx, 1, CreateRequest{Code: "MAIN", Name: "Again"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	inactive := false
	updated, err := svc.Update(ctx, 1, w.ID, UpdateRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Main Godown", updated.Name)
}

func TestWarehouseHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithCompany(req.Context(), 1)))
		})
	})
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(&mockRepo{rows: map[int64]Warehouse{}})).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/warehouses", strings.NewReader(`{"code":"w1","name":"Store"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/warehouses/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/warehouses/1", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
