// Package attendance records daily employee attendance and derives monthly
// payable days from it.
package attendance

import (
	"fmt"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusHalfDay Status = "HALF_DAY"
	StatusLeave   Status = "LEAVE"
	StatusHoliday Status = "HOLIDAY"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave, StatusHoliday:
		return true
	}
	return false
}

// Worked reports whether the status carries check-in and check-out times.
func (s Status) Worked() bool {
	return s == StatusPresent || s == StatusHalfDay
}

// Record is one employee's attendance on one day. Times are HH:MM.
type Record struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	EmployeeID   int64     `json:"employee_id"`
	EmployeeCode string    `json:"employee_code"`
	EmployeeName string    `json:"employee_name"`
	Date         time.Time `json:"date"`
	Status       Status    `json:"status"`
	CheckIn      *string   `json:"check_in,omitempty"`
	CheckOut     *string   `json:"check_out,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Entry struct {
	EmployeeID int64   `json:"employee_id" validate:"required,gt=0"`
	Status     Status  `json:"status" validate:"required,oneof=PRESENT ABSENT HALF_DAY LEAVE HOLIDAY"`
	CheckIn    *string `json:"check_in,omitempty" validate:"omitempty,datetime=15:04"`
	CheckOut   *string `json:"check_out,omitempty" validate:"omitempty,datetime=15:04"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// BulkRequest marks attendance for many employees on a single date.
type BulkRequest struct {
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []Entry `json:"entries" validate:"required,min=1,max=500,dive"`
}

type ListFilters struct {
	EmployeeID *int64
	From       *time.Time
	To         *time.Time
	Status     Status
}

// Counts is the per-employee tally for a period as read from storage.
type Counts struct {
	EmployeeID    int64
	EmployeeCode  string
	EmployeeName  string
	MonthlySalary float64
	Present       int
	Absent        int
	HalfDay       int
	Leave         int
	Holiday       int
}

// Summary is one employee's monthly attendance.
type Summary struct {
	EmployeeID    int64    `json:"employee_id"`
	EmployeeCode  string   `json:"employee_code"`
	EmployeeName  string   `json:"employee_name"`
	Present       int      `json:"present"`
	Absent        int      `json:"absent"`
	HalfDay       int      `json:"half_day"`
	Leave         int      `json:"leave"`
	Holiday       int      `json:"holiday"`
	Marked        int      `json:"marked"`
	PayableDays   float64  `json:"payable_days"`
	DaysInMonth   int      `json:"days_in_month"`
	SalaryPayable *float64 `json:"salary_payable,omitempty"`
}

type MonthlyReport struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Employees []Summary `json:"employees"`
}

var (
	ErrNotFound          = fmt.Errorf("attendance record %w", shared.ErrNotFound)
	ErrInvalidDate       = fmt.Errorf("date must be YYYY-MM-DD: %w", shared.ErrValidation)
	ErrFutureDate        = fmt.Errorf("attendance cannot be marked for a future date: %w", shared.ErrValidation)
	ErrInvalidMonth      = fmt.Errorf("month must be YYYY-MM: %w", shared.ErrValidation)
	ErrDuplicateEmployee = fmt.Errorf("employee appears more than once: %w", shared.ErrValidation)
	ErrUnknownEmployee   = fmt.Errorf("employee is not active in this company: %w", shared.ErrValidation)
	ErrTimesNotAllowed   = fmt.Errorf("check-in and check-out apply only to worked days: %w", shared.ErrValidation)
	ErrCheckOutBeforeIn  = fmt.Errorf("check_out must be after check_in: %w", shared.ErrValidation)
)
