/*
Package timeclass splits worked time into regular, overtime and double-time
hours.

KEY CONCEPTS:
  - Session: one worked interval for an employee, attributed to a work date
  - Buckets: the regular / overtime / double-time split of a session
  - Classify: assigns buckets to a set of sessions under a Config
  - Scope: the days whose sessions must be reclassified together

INVARIANT:
  For every classified session, Regular + Overtime + DoubleTime equals
  Session.Hours() exactly. Buckets are derived by subtraction from the
  session's own hours, never summed from independent roundings.
*/
package timeclass

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
)

var secondsPerHour = decimal.NewFromInt(3600)

// ErrInvalidSession is wrapped by every SessionError.
var ErrInvalidSession = errors.New("invalid work session")

// SessionError rejects a session before it is stored or classified.
type SessionError struct {
	Field   string
	Message string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("invalid session %s: %s", e.Field, e.Message)
}

func (e *SessionError) Unwrap() error { return ErrInvalidSession }

// =============================================================================
// SESSION
// =============================================================================

// Session is one worked interval. ProjectID is empty for non-billable work.
type Session struct {
	ID         string
	CompanyID  string
	EmployeeID string
	ProjectID  string
	WorkDate   calendar.Date
	StartTime  time.Time
	EndTime    time.Time

	IsPieceWork  bool
	PieceWorkPay decimal.NullDecimal

	Notes string

	// Derived by Classify.
	Buckets Buckets

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Hours is the session length in hours. Validate only admits whole-second
// timestamps, so for a valid session this is exact.
func (s Session) Hours() decimal.Decimal {
	seconds := int64(s.EndTime.Sub(s.StartTime) / time.Second)
	if seconds <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(seconds).Div(secondsPerHour)
}

// Billable reports whether the session is charged to a project.
func (s Session) Billable() bool { return s.ProjectID != "" }

// Validate checks the fields a session needs before classification.
func (s Session) Validate() error {
	switch {
	case s.EmployeeID == "":
		return &SessionError{Field: "employee_id", Message: "is required"}
	case s.StartTime.IsZero():
		return &SessionError{Field: "start_time", Message: "is required"}
	case s.EndTime.IsZero():
		return &SessionError{Field: "end_time", Message: "is required"}
	case s.StartTime.Nanosecond() != 0:
		return &SessionError{Field: "start_time", Message: "must be a whole second"}
	case s.EndTime.Nanosecond() != 0:
		return &SessionError{Field: "end_time", Message: "must be a whole second"}
	case !s.EndTime.After(s.StartTime):
		return &SessionError{Field: "end_time", Message: "must be after start_time"}
	case s.WorkDate.IsZero():
		return &SessionError{Field: "work_date", Message: "is required"}
	case s.PieceWorkPay.Valid && s.PieceWorkPay.Decimal.IsNegative():
		return &SessionError{Field: "piece_work_pay", Message: "must not be negative"}
	case s.IsPieceWork && !s.PieceWorkPay.Valid:
		return &SessionError{Field: "piece_work_pay", Message: "is required for piece work"}
	}
	return nil
}

// =============================================================================
// BUCKETS
// =============================================================================

// Buckets is the regular / overtime / double-time split of a session's hours.
type Buckets struct {
	Regular    decimal.Decimal
	Overtime   decimal.Decimal
	DoubleTime decimal.Decimal
}

func (b Buckets) Total() decimal.Decimal {
	return b.Regular.Add(b.Overtime).Add(b.DoubleTime)
}

func (b Buckets) Add(other Buckets) Buckets {
	return Buckets{
		Regular:    b.Regular.Add(other.Regular),
		Overtime:   b.Overtime.Add(other.Overtime),
		DoubleTime: b.DoubleTime.Add(other.DoubleTime),
	}
}

func (b Buckets) Equal(other Buckets) bool {
	return b.Regular.Equal(other.Regular) &&
		b.Overtime.Equal(other.Overtime) &&
		b.DoubleTime.Equal(other.DoubleTime)
}

func (b Buckets) String() string {
	return fmt.Sprintf("regular=%s overtime=%s double_time=%s", b.Regular, b.Overtime, b.DoubleTime)
}
