package payperiod

import (
	"time"

	"github.com/warp/payroll-engine/calendar"
)

// MaxPeriods caps a single generation request (ten years of weekly periods).
const MaxPeriods = 520

// =============================================================================
// GENERATE
// =============================================================================

// Generate returns the next n periods for cfg, starting with the period that
// contains today. Periods are contiguous: each starts the day after the
// previous one ends. A custom config always yields exactly one period.
//
// IDs are left empty; callers assign them when persisting.
func Generate(cfg Config, today calendar.Date, n int) ([]Period, error) {
	if n < 1 || n > MaxPeriods {
		return nil, &GenerationError{PeriodType: cfg.PeriodType, Reason: "count must be between 1 and 520"}
	}

	c, err := cadenceFor(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.PeriodType == Custom {
		n = 1
	}

	periods := make([]Period, 0, n)
	r := c.containing(today)
	for i := 0; i < n; i++ {
		periods = append(periods, Period{
			CompanyID: cfg.CompanyID,
			Start:     r.Start,
			End:       r.End,
			Status:    StatusAt(r, today),
		})
		r = c.next(r)
	}
	return periods, nil
}

// PeriodFor returns the period boundaries that contain day under cfg.
// For custom configs the fixed range is returned even when day lies outside it.
func PeriodFor(cfg Config, day calendar.Date) (calendar.Range, error) {
	c, err := cadenceFor(cfg)
	if err != nil {
		return calendar.Range{}, err
	}
	return c.containing(day), nil
}

// =============================================================================
// CADENCES
// =============================================================================

type cadence interface {
	containing(day calendar.Date) calendar.Range
	next(r calendar.Range) calendar.Range
}

func cadenceFor(cfg Config) (cadence, error) {
	switch cfg.PeriodType {
	case SemiMonthly:
		return semiMonthlyCadence(cfg)
	case Monthly:
		return monthlyCadence(cfg)
	case Weekly:
		if cfg.StartDayOfWeek < time.Sunday || cfg.StartDayOfWeek > time.Saturday {
			return nil, &GenerationError{PeriodType: Weekly, Reason: "start_day_of_week must be between 0 and 6"}
		}
		return fixedCadence{length: 7, anchor: func(day calendar.Date) calendar.Date {
			return day.StartOfWeek(cfg.StartDayOfWeek)
		}}, nil
	case BiWeekly:
		if cfg.BiWeeklyAnchorDate.IsZero() {
			return nil, &GenerationError{PeriodType: BiWeekly, Reason: "anchor date is required"}
		}
		anchor := cfg.BiWeeklyAnchorDate
		return fixedCadence{length: 14, anchor: func(day calendar.Date) calendar.Date {
			k := calendar.FloorDiv(calendar.DaysBetween(anchor, day), 14)
			return anchor.AddDays(14 * k)
		}}, nil
	case Custom:
		r := calendar.Range{Start: cfg.CustomStartDate, End: cfg.CustomEndDate}
		if !r.Valid() {
			return nil, &GenerationError{PeriodType: Custom, Reason: "custom range is empty or reversed"}
		}
		return customCadence{r: r}, nil
	default:
		return nil, &GenerationError{PeriodType: cfg.PeriodType, Reason: "unsupported period type"}
	}
}

// fixedCadence produces back-to-back periods of a fixed number of days.
type fixedCadence struct {
	length int
	anchor func(day calendar.Date) calendar.Date
}

func (c fixedCadence) containing(day calendar.Date) calendar.Range {
	start := c.anchor(day)
	return calendar.Range{Start: start, End: start.AddDays(c.length - 1)}
}

func (c fixedCadence) next(r calendar.Range) calendar.Range {
	start := r.End.AddDays(1)
	return calendar.Range{Start: start, End: start.AddDays(c.length - 1)}
}

type customCadence struct {
	r calendar.Range
}

func (c customCadence) containing(calendar.Date) calendar.Range { return c.r }
func (c customCadence) next(calendar.Range) calendar.Range      { return c.r }

// =============================================================================
// MONTH-BOUNDARY CADENCES (semi-monthly, monthly)
// =============================================================================

// boundaryCadence starts a period on every boundary day of every month; each
// period ends the day before the following boundary.
type boundaryCadence struct {
	// boundaries returns the period start days of a month, ascending.
	boundaries func(year int, month time.Month) []calendar.Date
}

func semiMonthlyCadence(cfg Config) (cadence, error) {
	first, second := cfg.FirstPayDay, cfg.SecondPayDay
	if first < 1 || first > 28 {
		return nil, &GenerationError{PeriodType: SemiMonthly, Reason: "first pay day must be between 1 and 28"}
	}
	if second == EndOfMonthPayDay {
		if first == 1 {
			return nil, &GenerationError{PeriodType: SemiMonthly, Reason: "end-of-month second pay day needs a first pay day after the 1st; a single calendar-month cycle is a monthly period"}
		}
		// The month closes on its last calendar day, so the next period opens on the 1st.
		second, first = first, 1
	} else if second <= first || second > 28 {
		return nil, &GenerationError{PeriodType: SemiMonthly, Reason: "second pay day must be after the first and at most 28"}
	}
	return boundaryCadence{boundaries: func(year int, month time.Month) []calendar.Date {
		return []calendar.Date{
			calendar.NewDate(year, month, first),
			calendar.NewDate(year, month, second),
		}
	}}, nil
}

func monthlyCadence(cfg Config) (cadence, error) {
	start, end := cfg.MonthlyStartDay, cfg.MonthlyEndDay
	if start < 1 || start > 31 || end < 1 || end > 31 {
		return nil, &GenerationError{PeriodType: Monthly, Reason: "monthly start and end days must be between 1 and 31"}
	}
	calendarMonth := start == 1 && end == 31
	rollover := end < start && end == start-1
	if !calendarMonth && !rollover {
		return nil, &GenerationError{
			PeriodType: Monthly,
			Reason:     "end day must be the day before start day (rollover) or the config must span 1 to 31",
		}
	}
	return boundaryCadence{boundaries: func(year int, month time.Month) []calendar.Date {
		return []calendar.Date{calendar.ClampedDate(year, month, start)}
	}}, nil
}

func (c boundaryCadence) containing(day calendar.Date) calendar.Range {
	start := c.onOrBefore(day)
	return calendar.Range{Start: start, End: c.after(start).AddDays(-1)}
}

func (c boundaryCadence) next(r calendar.Range) calendar.Range {
	start := r.End.AddDays(1)
	return calendar.Range{Start: start, End: c.after(start).AddDays(-1)}
}

// onOrBefore returns the latest boundary not after day.
func (c boundaryCadence) onOrBefore(day calendar.Date) calendar.Date {
	for offset := 0; offset >= -1; offset-- {
		bs := c.boundaries(monthOffset(day, offset))
		for i := len(bs) - 1; i >= 0; i-- {
			if bs[i].BeforeOrEqual(day) {
				return bs[i]
			}
		}
	}
	// Unreachable: every month has a boundary on or before its 28th.
	return day
}

// after returns the earliest boundary strictly after day.
func (c boundaryCadence) after(day calendar.Date) calendar.Date {
	for offset := 0; offset <= 1; offset++ {
		for _, b := range c.boundaries(monthOffset(day, offset)) {
			if b.After(day) {
				return b
			}
		}
	}
	return day.AddDays(1)
}

func monthOffset(day calendar.Date, offset int) (int, time.Month) {
	first := calendar.NewDate(day.Year(), day.Month(), 1)
	m := first.Time.AddDate(0, offset, 0)
	return m.Year(), m.Month()
}
