package timeclass

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payperiod"
)

// =============================================================================
// CLASSIFY
// =============================================================================

// Classify assigns buckets to every session and returns them in chronological
// order (start time, then ID). The input slice is not modified.
//
// Each employee accumulates hours separately. For every session:
//
//	dtFrom  = h                                   (double time off)
//	        = clamp(dtThreshold - dtAccum, 0, h)  (otherwise)
//	otFrom  = clamp(otThreshold - otAccum, 0, dtFrom)
//	regular = otFrom, overtime = dtFrom - otFrom, double time = h - dtFrom
//
// where otAccum / dtAccum are the hours already worked in the session's
// overtime / double-time window (its work date, or its policy week). A session
// straddling a threshold is split at the crossing point.
//
// Callers must pass every session of each affected window; see Scope.
func Classify(sessions []Session, cfg payperiod.Config) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})

	acc := newAccumulator(cfg)
	for i := range out {
		out[i].Buckets = acc.classify(out[i])
	}
	return out
}

// ClassifyOne classifies a single session as if it were alone in its windows.
func ClassifyOne(s Session, cfg payperiod.Config) Buckets {
	return newAccumulator(cfg).classify(s)
}

// =============================================================================
// SCOPE
// =============================================================================

// Scope returns the days whose sessions share an accumulation window with a
// session on day. Editing a session on day can change the classification of
// any other session in this range, so the whole range is reclassified.
func Scope(cfg payperiod.Config, day calendar.Date) calendar.Range {
	if cfg.OvertimeTriggerType == payperiod.TriggerWeekly ||
		(cfg.OvertimeTriggerType != payperiod.TriggerNone && cfg.DoubleTimeTriggerType == payperiod.TriggerWeekly) {
		start := day.StartOfWeek(cfg.WorkWeekStartDay)
		return calendar.Range{Start: start, End: start.AddDays(6)}
	}
	return calendar.Range{Start: day, End: day}
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

type windowKey struct {
	employeeID string
	start      calendar.Date
}

type accumulator struct {
	cfg      payperiod.Config
	overtime map[windowKey]decimal.Decimal
	double   map[windowKey]decimal.Decimal
}

func newAccumulator(cfg payperiod.Config) *accumulator {
	return &accumulator{
		cfg:      cfg,
		overtime: make(map[windowKey]decimal.Decimal),
		double:   make(map[windowKey]decimal.Decimal),
	}
}

func (a *accumulator) classify(s Session) Buckets {
	h := s.Hours()

	if a.cfg.OvertimeTriggerType == payperiod.TriggerNone {
		return Buckets{Regular: h, Overtime: decimal.Zero, DoubleTime: decimal.Zero}
	}

	otKey := a.window(s, a.cfg.OvertimeTriggerType)
	otAccum := a.overtime[otKey]
	a.overtime[otKey] = otAccum.Add(h)

	dtFrom := h
	if a.cfg.DoubleTimeTriggerType != payperiod.TriggerNone {
		dtKey := a.window(s, a.cfg.DoubleTimeTriggerType)
		dtAccum := a.double[dtKey]
		a.double[dtKey] = dtAccum.Add(h)
		dtFrom = clamp(a.cfg.DoubleTimeHoursThreshold.Sub(dtAccum), decimal.Zero, h)
	}
	otFrom := clamp(a.cfg.OvertimeHoursThreshold.Sub(otAccum), decimal.Zero, dtFrom)

	return Buckets{
		Regular:    otFrom,
		Overtime:   dtFrom.Sub(otFrom),
		DoubleTime: h.Sub(dtFrom),
	}
}

func (a *accumulator) window(s Session, trigger payperiod.TriggerType) windowKey {
	start := s.WorkDate
	if trigger == payperiod.TriggerWeekly {
		start = s.WorkDate.StartOfWeek(a.cfg.WorkWeekStartDay)
	}
	return windowKey{employeeID: s.EmployeeID, start: start}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
