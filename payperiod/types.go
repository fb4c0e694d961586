/*
Package payperiod turns a company's pay-cadence configuration into calendar
pay periods.

KEY CONCEPTS:
  - RawConfig: the unvalidated payload as it arrives from a client
  - Config: a validated, normalized configuration (see Resolve)
  - Period: one inclusive pay period with its derived Status
  - Generate: produces the next N contiguous periods from "today"

PERIOD TYPES:
  semi-monthly  two boundaries per month (firstPayDay, secondPayDay)
  monthly       one boundary per month, optionally rolling into the next month
  weekly        7 days anchored on a weekday
  bi-weekly     14 days anchored on a reference date
  custom        a single fixed range, never repeated
*/
package payperiod

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
)

// PeriodType identifies the cadence used to build periods.
type PeriodType string

const (
	SemiMonthly PeriodType = "semi-monthly"
	Monthly     PeriodType = "monthly"
	Weekly      PeriodType = "weekly"
	BiWeekly    PeriodType = "bi-weekly"
	Custom      PeriodType = "custom"
)

func (t PeriodType) Valid() bool {
	switch t {
	case SemiMonthly, Monthly, Weekly, BiWeekly, Custom:
		return true
	}
	return false
}

// TriggerType is the accumulation window a threshold is evaluated over.
type TriggerType string

const (
	TriggerNone   TriggerType = "none"
	TriggerDaily  TriggerType = "daily"
	TriggerWeekly TriggerType = "weekly"
)

func (t TriggerType) Valid() bool {
	return t == TriggerNone || t == TriggerDaily || t == TriggerWeekly
}

// EndOfMonthPayDay is the secondPayDay sentinel meaning "last calendar day".
const EndOfMonthPayDay = 31

// Defaults applied by Resolve when a field is absent.
var (
	DefaultOvertimeThreshold    = decimal.NewFromInt(8)
	DefaultDoubleTimeThreshold  = decimal.NewFromInt(12)
	DefaultOvertimeMultiplier   = decimal.NewFromFloat(1.5)
	DefaultDoubleTimeMultiplier = decimal.NewFromInt(2)
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is a validated pay-period and overtime configuration. Only the fields
// belonging to PeriodType are meaningful; the rest are zero.
type Config struct {
	CompanyID  string
	PeriodType PeriodType

	// semi-monthly
	FirstPayDay  int
	SecondPayDay int

	// monthly
	MonthlyStartDay int
	MonthlyEndDay   int

	// weekly
	StartDayOfWeek time.Weekday

	// bi-weekly
	BiWeeklyAnchorDate calendar.Date

	// custom
	CustomStartDate calendar.Date
	CustomEndDate   calendar.Date

	// Overtime policy
	OvertimeTriggerType      TriggerType
	DoubleTimeTriggerType    TriggerType
	OvertimeHoursThreshold   decimal.Decimal
	DoubleTimeHoursThreshold decimal.Decimal
	OvertimeMultiplier       decimal.Decimal
	DoubleTimeMultiplier     decimal.Decimal

	// WorkWeekStartDay starts the policy week used by weekly triggers.
	WorkWeekStartDay time.Weekday

	UpdatedAt time.Time
}

// DefaultConfig is the onboarding configuration: semi-monthly on the 1st and
// 15th with daily overtime after 8h and double time after 12h.
func DefaultConfig(companyID string) Config {
	return Config{
		CompanyID:                companyID,
		PeriodType:               SemiMonthly,
		FirstPayDay:              1,
		SecondPayDay:             15,
		OvertimeTriggerType:      TriggerDaily,
		DoubleTimeTriggerType:    TriggerDaily,
		OvertimeHoursThreshold:   DefaultOvertimeThreshold,
		DoubleTimeHoursThreshold: DefaultDoubleTimeThreshold,
		OvertimeMultiplier:       DefaultOvertimeMultiplier,
		DoubleTimeMultiplier:     DefaultDoubleTimeMultiplier,
		WorkWeekStartDay:         time.Sunday,
	}
}

// SameOvertimePolicy reports whether both configs classify hours identically.
// When it is false, stored hour buckets must be recomputed.
func (c Config) SameOvertimePolicy(other Config) bool {
	return c.OvertimeTriggerType == other.OvertimeTriggerType &&
		c.DoubleTimeTriggerType == other.DoubleTimeTriggerType &&
		c.OvertimeHoursThreshold.Equal(other.OvertimeHoursThreshold) &&
		c.DoubleTimeHoursThreshold.Equal(other.DoubleTimeHoursThreshold) &&
		c.WorkWeekStartDay == other.WorkWeekStartDay
}

// =============================================================================
// PERIOD
// =============================================================================

// Status of a period relative to a given day.
type Status string

const (
	StatusPast     Status = "past"
	StatusCurrent  Status = "current"
	StatusUpcoming Status = "upcoming"
)

// Period is one pay period. Start and End are inclusive.
type Period struct {
	ID        string
	CompanyID string
	Start     calendar.Date
	End       calendar.Date
	Status    Status
	CreatedAt time.Time
}

func (p Period) Range() calendar.Range {
	return calendar.Range{Start: p.Start, End: p.End}
}

// StatusAt derives the status of [start, end] as seen on today.
func StatusAt(r calendar.Range, today calendar.Date) Status {
	switch {
	case today.Before(r.Start):
		return StatusUpcoming
	case today.After(r.End):
		return StatusPast
	default:
		return StatusCurrent
	}
}

// WithStatus returns a copy of the periods with Status recomputed for today.
func WithStatus(periods []Period, today calendar.Date) []Period {
	out := make([]Period, len(periods))
	for i, p := range periods {
		p.Status = StatusAt(p.Range(), today)
		out[i] = p
	}
	return out
}
