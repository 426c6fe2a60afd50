package employees

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
	rows        map[int64]Employee
	nextID      int64
	lastUpdates map[string]any
}

func newMockRepo() *mockRepo { return &mockRepo{rows: map[int64]Employee{}} }

func (m *mockRepo) List(context.Context, int64, shared.PageRequest, ListFilters) ([]Employee, int, error) {
	out := make([]Employee, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(_ context.Context, companyID, id int64) (*Employee, error) {
	e, ok := m.rows[id]
	if !ok || e.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *mockRepo) Create(_ context.Context, e Employee) (int64, error) {
	if e.DesignationID != nil && *e.DesignationID == 99 {
		return 0, ErrUnknownDesignation
	}
	m.nextID++
	e.ID = m.nextID
	m.rows[e.ID] = e
	return e.ID, nil
}

func (m *mockRepo) Update(_ context.Context, _, id int64, updates map[string]any) error {
	e, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	m.lastUpdates = updates
	if v, ok := updates["monthly_salary"].(float64); ok {
		e.MonthlySalary = v
	}
	if v, ok := updates["is_active"].(bool); ok {
		e.IsActive = v
	}
	m.rows[id] = e
	return nil
}

func (m *mockRepo) Delete(_ context.Context, _, id int64) error {
	delete(m.rows, id)
	return nil
}

func TestCreateAndUpdateEmployee(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, CreateRequest{Code: "e01", Name: "Ravi", JoiningDate: "2024-04-01", MonthlySalary: 25000.456})
	require.NoError(t, err)
	assert.Equal(t, "E01", e.Code)
	assert.Equal(t, 25000.46, e.MonthlySalary)
	assert.True(t, e.IsActive)

	salary, inactive := 27000.0, false
	updated, err := svc.Update(ctx, 1, e.ID, UpdateRequest{MonthlySalary: &salary, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 27000.0, updated.MonthlySalary)
	assert.False(t, updated.IsActive)
	assert.Len(t, repo.lastUpdates, 2)

	designation := int64(99)
	_, err = svc.Create(ctx, 1, CreateRequest{Code: "e02", Name: "Anu", JoiningDate: "2024-04-01", DesignationID: &designation})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEmployeeHandlerValidation(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(newMockRepo())).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"code":"E1","name":"X","joining_date":"01-04-2024"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"code":"E1","name":"X","joining_date":"2024-04-01","email":"nope"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"code":"E1","name":"X","joining_date":"2024-04-01"}`)))
	assert.Equal(t, http.StatusCreated, rr.Code)
}
