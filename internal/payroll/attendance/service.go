package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

type Service struct {
	repo    Repository
	auditor shared.Auditor
	now     func() time.Time
}

func NewService(repo Repository, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, auditor: auditor, now: time.Now}
}

// WithClock replaces the clock used for the future-date check.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func checkEntry(e Entry) error {
	if !e.Status.Worked() {
		if e.CheckIn != nil || e.CheckOut != nil {
			return fmt.Errorf("employee %d: %w", e.EmployeeID, ErrTimesNotAllowed)
		}
		return nil
	}
	if e.CheckIn == nil || e.CheckOut == nil {
		return nil
	}
	in, err := time.Parse("15:04", *e.CheckIn)
	if err != nil {
		return fmt.Errorf("employee %d check_in: %w", e.EmployeeID, shared.ErrValidation)
	}
	out, err := time.Parse("15:04", *e.CheckOut)
	if err != nil {
		return fmt.Errorf("employee %d check_out: %w", e.EmployeeID, shared.ErrValidation)
	}
	if !out.After(in) {
		return fmt.Errorf("employee %d: %w", e.EmployeeID, ErrCheckOutBeforeIn)
	}
	return nil
}

// MarkBulk upserts the attendance of every entry for req.Date. Either all
// entries are written or none.
func (s *Service) MarkBulk(ctx context.Context, companyID int64, req BulkRequest) (int, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return 0, ErrInvalidDate
	}
	if date.After(s.today()) {
		return 0, ErrFutureDate
	}

	seen := make(map[int64]struct{}, len(req.Entries))
	ids := make([]int64, 0, len(req.Entries))
	for _, e := range req.Entries {
		if !e.Status.IsValid() {
			return 0, fmt.Errorf("employee %d status %q: %w", e.EmployeeID, e.Status, shared.ErrValidation)
		}
		if _, dup := seen[e.EmployeeID]; dup {
			return 0, fmt.Errorf("employee %d: %w", e.EmployeeID, ErrDuplicateEmployee)
		}
		seen[e.EmployeeID] = struct{}{}
		ids = append(ids, e.EmployeeID)
		if err := checkEntry(e); err != nil {
			return 0, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		active, err := repo.ActiveEmployees(ctx, companyID, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !active[id] {
				return fmt.Errorf("employee %d: %w", id, ErrUnknownEmployee)
			}
		}
		return repo.Upsert(ctx, companyID, date, req.Entries)
	})
	if err != nil {
		return 0, fmt.Errorf("mark attendance: %w", err)
	}

	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		Action:    "attendance.mark",
		Entity:    "attendance",
		EntityID:  req.Date,
		Meta:      map[string]any{"entries": len(req.Entries)},
	})
	return len(req.Entries), nil
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[Record], error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return shared.Page[Record]{}, fmt.Errorf("status %q: %w", filters.Status, shared.ErrValidation)
	}
	items, total, err := s.repo.List(ctx, companyID, page, filters)
	if err != nil {
		return shared.Page[Record]{}, fmt.Errorf("list attendance: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	return s.repo.Delete(ctx, companyID, id)
}

// PayableDays counts a half day as half and leave and holidays as paid.
func PayableDays(c Counts) float64 {
	return float64(c.Present) + float64(c.HalfDay)/2 + float64(c.Leave) + float64(c.Holiday)
}

// MonthlySummary reports attendance for month (YYYY-MM). Salary payable is
// prorated over the calendar days of the month for employees with a salary.
func (s *Service) MonthlySummary(ctx context.Context, companyID int64, month string) (*MonthlyReport, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, ErrInvalidMonth
	}
	end := start.AddDate(0, 1, -1)
	days := end.Day()

	counts, err := s.repo.Counts(ctx, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}

	report := &MonthlyReport{Year: start.Year(), Month: int(start.Month()), Employees: make([]Summary, 0, len(counts))}
	for _, c := range counts {
		sum := Summary{
			EmployeeID:   c.EmployeeID,
			EmployeeCode: c.EmployeeCode,
			EmployeeName: c.EmployeeName,
			Present:      c.Present,
			Absent:       c.Absent,
			HalfDay:      c.HalfDay,
			Leave:        c.Leave,
			Holiday:      c.Holiday,
			Marked:       c.Present + c.Absent + c.HalfDay + c.Leave + c.Holiday,
			PayableDays:  PayableDays(c),
			DaysInMonth:  days,
		}
		if c.MonthlySalary > 0 {
			pay := totals.Round2(c.MonthlySalary * sum.PayableDays / float64(days))
			sum.SalaryPayable = &pay
		}
		report.Employees = append(report.Employees, sum)
	}
	return report, nil
}
