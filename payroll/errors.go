package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/calendar"
)

var (
	// ErrNotFound is returned when a config, period, session or employee does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller may not see pay figures.
	ErrForbidden = errors.New("financial data access denied")

	// ErrProtectedPeriod is returned when regeneration would replace a period
	// that already has recorded sessions or has already ended.
	ErrProtectedPeriod = errors.New("period is protected from regeneration")

	// ErrPeriodOverlap is returned when new periods would overlap stored ones.
	ErrPeriodOverlap = errors.New("period overlaps an existing period")

	// ErrInvalidEmployee is returned for directory records missing a name or
	// carrying a negative rate.
	ErrInvalidEmployee = errors.New("invalid employee")
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// PeriodConflictError describes why a generated period could not be stored.
type PeriodConflictError struct {
	Existing  calendar.Range
	Generated calendar.Range
	Protected bool
}

func (e *PeriodConflictError) Error() string {
	if e.Protected {
		return fmt.Sprintf("generated period %s would replace protected period %s", e.Generated, e.Existing)
	}
	return fmt.Sprintf("generated period %s overlaps existing period %s", e.Generated, e.Existing)
}

func (e *PeriodConflictError) Unwrap() error {
	if e.Protected {
		return ErrProtectedPeriod
	}
	return ErrPeriodOverlap
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrProtectedPeriod) ||
		errors.Is(err, ErrPeriodOverlap) ||
		errors.Is(err, ErrInvalidEmployee)
}
