package attendance

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type mockRepo struct {
	active   map[int64]bool
	records  map[int64]map[string]Entry
	counts   []Counts
	from, to time.Time
	txCalls  int
}

func newMockRepo(active ...int64) *mockRepo {
	m := &mockRepo{active: map[int64]bool{}, records: map[int64]map[string]Entry{}}
	for _, id := range active {
		m.active[id] = true
	}
	return m
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.txCalls++
	return fn(ctx, m)
}

func (m *mockRepo) ActiveEmployees(_ context.Context, _ int64, ids []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range ids {
		if m.active[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *mockRepo) Upsert(_ context.Context, _ int64, date time.Time, entries []Entry) error {
	for _, e := range entries {
		if m.records[e.EmployeeID] == nil {
			m.records[e.EmployeeID] = map[string]Entry{}
		}
		m.records[e.EmployeeID][date.Format(time.DateOnly)] = e
	}
	return nil
}

func (m *mockRepo) List(context.Context, int64, shared.PageRequest, ListFilters) ([]Record, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) Delete(_ context.Context, _, id int64) error {
	if id != 1 {
		return ErrNotFound
	}
	return nil
}

func (m *mockRepo) Counts(_ context.Context, _ int64, from, to time.Time) ([]Counts, error) {
	m.from, m.to = from, to
	return m.counts, nil
}

func fixedClock() time.Time { return time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

func TestMarkBulkUpsertsSameDay(t *testing.T) {
	repo := newMockRepo(1, 2)
	svc := NewService(repo, nil).WithClock(fixedClock)
	ctx := context.Background()

	n, err := svc.MarkBulk(ctx, 1, BulkRequest{Date: "2025-04-15", Entries: []Entry{
		{EmployeeID: 1, Status: StatusPresent, CheckIn: ptr("09:00"), CheckOut: ptr("18:00")},
		{EmployeeID: 2, Status: StatusLeave},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.MarkBulk(ctx, 1, BulkRequest{Date: "2025-04-15", Entries: []Entry{{EmployeeID: 2, Status: StatusHalfDay}}})
	require.NoError(t, err)
	assert.Len(t, repo.records[2], 1)
	assert.Equal(t, StatusHalfDay, repo.records[2]["2025-04-15"].Status)
	assert.Equal(t, 2, repo.txCalls)
}

func TestMarkBulkRejects(t *testing.T) {
	svc := NewService(newMockRepo(1, 2), nil).WithClock(fixedClock)
	ctx := context.Background()

	cases := []struct {
		name string
		req  BulkRequest
		want error
	}{
		{"future date", BulkRequest{Date: "2025-04-16", Entries: []Entry{{EmployeeID: 1, Status: StatusPresent}}}, ErrFutureDate},
		{"bad date", BulkRequest{Date: "15/04/2025", Entries: []Entry{{EmployeeID: 1, Status: StatusPresent}}}, ErrInvalidDate},
		{"duplicate", BulkRequest{Date: "2025-04-15", Entries: []Entry{
			{EmployeeID: 1, Status: StatusPresent}, {EmployeeID: 1, Status: StatusAbsent},
		}}, ErrDuplicateEmployee},
		{"unknown employee", BulkRequest{Date: "2025-04-15", Entries: []Entry{{EmployeeID: 3, Status: StatusPresent}}}, ErrUnknownEmployee},
		{"times on absence", BulkRequest{Date: "2025-04-15", Entries: []Entry{
			{EmployeeID: 1, Status: StatusAbsent, CheckIn: ptr("09:00")},
		}}, ErrTimesNotAllowed},
		{"check out before in", BulkRequest{Date: "2025-04-15", Entries: []Entry{
			{EmployeeID: 1, Status: StatusPresent, CheckIn: ptr("18:00"), CheckOut: ptr("09:00")},
		}}, ErrCheckOutBeforeIn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.MarkBulk(ctx, 1, tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestMonthlySummary(t *testing.T) {
	repo := newMockRepo()
	repo.counts = []Counts{
		{EmployeeID: 1, EmployeeCode: "E1", EmployeeName: "Ravi", MonthlySalary: 30000, Present: 20, Absent: 2, HalfDay: 2, Leave: 1, Holiday: 4},
		{EmployeeID: 2, EmployeeCode: "E2", EmployeeName: "Anu"},
	}
	svc := NewService(repo, nil)

	report, err := svc.MonthlySummary(context.Background(), 1, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), repo.from)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), repo.to)

	require.Len(t, report.Employees, 2)
	ravi := report.Employees[0]
	assert.Equal(t, 26.0, ravi.PayableDays)
	assert.Equal(t, 29, ravi.Marked)
	assert.Equal(t, 30, ravi.DaysInMonth)
	require.NotNil(t, ravi.SalaryPayable)
	assert.Equal(t, 26000.0, *ravi.SalaryPayable)
	assert.Nil(t, report.Employees[1].SalaryPayable)

	_, err = svc.MonthlySummary(context.Background(), 1, "April")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestPayableDaysFebruary(t *testing.T) {
	repo := newMockRepo()
	repo.counts = []Counts{{EmployeeID: 1, MonthlySalary: 28000, Present: 27, HalfDay: 1}}
	report, err := NewService(repo, nil).MonthlySummary(context.Background(), 1, "2025-02")
	require.NoError(t, err)
	assert.Equal(t, 28, report.Employees[0].DaysInMonth)
	assert.Equal(t, 27.5, report.Employees[0].PayableDays)
	assert.Equal(t, 27500.0, *report.Employees[0].SalaryPayable)
}

func TestAttendanceHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewService(newMockRepo(1), nil).WithClock(fixedClock)).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/attendance/bulk",
		strings.NewReader(`{"date":"2025-04-15","entries":[{"employee_id":1,"status":"PRESENT","check_in":"09:30"}]}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, float64(1), body["saved"])

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/attendance/bulk",
		strings.NewReader(`{"date":"2025-04-15","entries":[{"employee_id":1,"status":"WFH"}]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/attendance?status=LATE", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/attendance/summary?month=2025-04", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/attendance/9", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
