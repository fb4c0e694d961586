/*
store.go - Persistence interfaces for configs, periods and work sessions

KEY INTERFACES:
  Store:     configs, periods and sessions, plus WithTx for atomic writes
  Directory: read/write access to employee names and hourly rates

ATOMICITY:
  Every operation that changes more than one row runs inside WithTx:
  - period regeneration (delete old set + insert new set)
  - session add/edit/delete + reclassification of its window
  - config save + company-wide reclassification
  Concurrent readers never observe a half-applied change.

NOT FOUND:
  Single-row getters return (nil, nil) when the row does not exist. The
  service turns that into ErrNotFound.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - store/memory: in-memory, for tests and local runs
*/
package payroll

import (
	"context"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/timeclass"
)

// Store persists the company-owned payroll data.
type Store interface {
	// Config
	GetConfig(ctx context.Context, companyID string) (*payperiod.Config, error)
	SaveConfig(ctx context.Context, cfg payperiod.Config) error
	ListCompanies(ctx context.Context) ([]string, error)

	// Periods, ordered by start date.
	ListPeriods(ctx context.Context, companyID string) ([]payperiod.Period, error)
	GetPeriod(ctx context.Context, companyID, periodID string) (*payperiod.Period, error)
	InsertPeriods(ctx context.Context, periods []payperiod.Period) error
	DeletePeriods(ctx context.Context, companyID string, periodIDs []string) error
	UpdatePeriodStatuses(ctx context.Context, periods []payperiod.Period) error

	// Sessions
	GetSession(ctx context.Context, companyID, sessionID string) (*timeclass.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]timeclass.Session, error)
	CountSessions(ctx context.Context, filter SessionFilter) (int, error)
	InsertSession(ctx context.Context, s timeclass.Session) error
	UpdateSession(ctx context.Context, s timeclass.Session) error
	DeleteSession(ctx context.Context, companyID, sessionID string) error
	UpdateBuckets(ctx context.Context, sessions []timeclass.Session) error

	// WithTx runs fn against a transactional view of the store. If fn returns
	// an error every write made through the view is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// SessionFilter selects sessions of one company. Empty fields match all;
// From/To are inclusive work dates.
type SessionFilter struct {
	CompanyID  string
	EmployeeID string
	From       calendar.Date
	To         calendar.Date
}

// InRange restricts the filter to the days of r.
func (f SessionFilter) InRange(r calendar.Range) SessionFilter {
	f.From, f.To = r.Start, r.End
	return f
}

// Matches applies the filter in memory.
func (f SessionFilter) Matches(s timeclass.Session) bool {
	if f.CompanyID != "" && s.CompanyID != f.CompanyID {
		return false
	}
	if f.EmployeeID != "" && s.EmployeeID != f.EmployeeID {
		return false
	}
	if !f.From.IsZero() && s.WorkDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.WorkDate.After(f.To) {
		return false
	}
	return true
}

// Directory is the employee lookup consumed by the aggregator.
type Directory interface {
	GetEmployee(ctx context.Context, companyID, employeeID string) (*hours.Employee, error)
	ListEmployees(ctx context.Context, companyID string) ([]hours.Employee, error)
	SaveEmployee(ctx context.Context, e hours.Employee) error
}
