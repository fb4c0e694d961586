package payperiod_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payperiod"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(y int, m time.Month, d int) calendar.Date {
	return calendar.NewDate(y, m, d)
}

func semiMonthly(first, second int) payperiod.Config {
	cfg := payperiod.DefaultConfig("co-1")
	cfg.FirstPayDay = first
	cfg.SecondPayDay = second
	return cfg
}

func monthly(start, end int) payperiod.Config {
	cfg := payperiod.DefaultConfig("co-1")
	cfg.PeriodType = payperiod.Monthly
	cfg.MonthlyStartDay = start
	cfg.MonthlyEndDay = end
	return cfg
}

func weekly(start time.Weekday) payperiod.Config {
	cfg := payperiod.DefaultConfig("co-1")
	cfg.PeriodType = payperiod.Weekly
	cfg.StartDayOfWeek = start
	return cfg
}

func biWeekly(anchor calendar.Date) payperiod.Config {
	cfg := payperiod.DefaultConfig("co-1")
	cfg.PeriodType = payperiod.BiWeekly
	cfg.BiWeeklyAnchorDate = anchor
	return cfg
}

func ranges(periods []payperiod.Period) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.Range().String()
	}
	return out
}

func assertContiguous(t *testing.T, periods []payperiod.Period) {
	t.Helper()
	for i := range periods {
		assert.True(t, periods[i].Range().Valid(), "period %d is empty: %s", i, periods[i].Range())
		if i == 0 {
			continue
		}
		prev, cur := periods[i-1].Range(), periods[i].Range()
		assert.False(t, prev.Overlaps(cur), "periods %d and %d overlap", i-1, i)
		assert.True(t, prev.Precedes(cur), "gap between %s and %s", prev, cur)
	}
}

// =============================================================================
// SEMI-MONTHLY
// =============================================================================

func TestGenerate_SemiMonthly_January(t *testing.T) {
	// GIVEN: pay days on the 1st and 15th, today early January
	// WHEN: generating two periods
	// THEN: [Jan 1-14] and [Jan 15-31]
	periods, err := payperiod.Generate(semiMonthly(1, 15), day(2025, time.January, 3), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"[2025-01-01, 2025-01-14]", "[2025-01-15, 2025-01-31]"}, ranges(periods))
	assert.Equal(t, payperiod.StatusCurrent, periods[0].Status)
	assert.Equal(t, payperiod.StatusUpcoming, periods[1].Status)
}

func TestGenerate_SemiMonthly_SpansMonthBoundary(t *testing.T) {
	periods, err := payperiod.Generate(semiMonthly(5, 20), day(2025, time.January, 25), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[2025-01-20, 2025-02-04]",
		"[2025-02-05, 2025-02-19]",
		"[2025-02-20, 2025-03-04]",
	}, ranges(periods))
}

func TestGenerate_SemiMonthly_EndOfMonthSentinel(t *testing.T) {
	// GIVEN: second pay day is the end-of-month sentinel
	// THEN: the late-month period always ends on the real last day
	periods, err := payperiod.Generate(semiMonthly(16, payperiod.EndOfMonthPayDay), day(2024, time.January, 20), 6)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[2024-01-16, 2024-01-31]",
		"[2024-02-01, 2024-02-15]",
		"[2024-02-16, 2024-02-29]",
		"[2024-03-01, 2024-03-15]",
		"[2024-03-16, 2024-03-31]",
		"[2024-04-01, 2024-04-15]",
	}, ranges(periods))
}

// =============================================================================
// MONTHLY
// =============================================================================

func TestGenerate_SemiMonthly_EndOfMonthFromFirstIsGenerationError(t *testing.T) {
	_, err := payperiod.Generate(semiMonthly(1, payperiod.EndOfMonthPayDay), day(2025, time.January, 10), 2)

	var genErr *payperiod.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Reason, "monthly period")
}

func TestGenerate_Monthly_CalendarMonth(t *testing.T) {
	periods, err := payperiod.Generate(monthly(1, 31), day(2025, time.February, 10), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[2025-02-01, 2025-02-28]",
		"[2025-03-01, 2025-03-31]",
		"[2025-04-01, 2025-04-30]",
	}, ranges(periods))
}

func TestGenerate_Monthly_Rollover(t *testing.T) {
	// GIVEN: start day 26, end day 25 (end before start)
	// THEN: each period spans into the following month
	periods, err := payperiod.Generate(monthly(26, 25), day(2025, time.January, 10), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"[2024-12-26, 2025-01-25]", "[2025-01-26, 2025-02-25]"}, ranges(periods))
}

func TestGenerate_Monthly_StartDayClampsToShortMonths(t *testing.T) {
	periods, err := payperiod.Generate(monthly(31, 30), day(2025, time.February, 10), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[2025-01-31, 2025-02-27]",
		"[2025-02-28, 2025-03-30]",
		"[2025-03-31, 2025-04-29]",
	}, ranges(periods))
}

func TestGenerate_Monthly_GapIsGenerationError(t *testing.T) {
	_, err := payperiod.Generate(monthly(10, 5), day(2025, time.January, 10), 2)

	var genErr *payperiod.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, payperiod.ErrGeneration)
}

func TestGenerate_Monthly_DayOutOfRangeIsGenerationError(t *testing.T) {
	_, err := payperiod.Generate(monthly(0, 31), day(2025, time.January, 10), 2)
	assert.ErrorIs(t, err, payperiod.ErrGeneration)
}

// =============================================================================
// WEEKLY / BI-WEEKLY
// =============================================================================

func TestGenerate_Weekly_StartsOnMostRecentWeekday(t *testing.T) {
	// 2025-01-15 is a Wednesday; most recent Monday is Jan 13
	periods, err := payperiod.Generate(weekly(time.Monday), day(2025, time.January, 15), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"[2025-01-13, 2025-01-19]", "[2025-01-20, 2025-01-26]"}, ranges(periods))
}

func TestGenerate_Weekly_TodayIsStartDay(t *testing.T) {
	periods, err := payperiod.Generate(weekly(time.Wednesday), day(2025, time.January, 15), 1)
	require.NoError(t, err)
	assert.Equal(t, "[2025-01-15, 2025-01-21]", periods[0].Range().String())
}

func TestGenerate_BiWeekly_AnchorInPast(t *testing.T) {
	periods, err := payperiod.Generate(biWeekly(day(2025, time.January, 6)), day(2025, time.February, 5), 2)
	require.NoError(t, err)

	// Jan 6 + 28 = Feb 3
	assert.Equal(t, []string{"[2025-02-03, 2025-02-16]", "[2025-02-17, 2025-03-02]"}, ranges(periods))
}

func TestGenerate_BiWeekly_AnchorInFuture(t *testing.T) {
	// GIVEN: anchor three weeks after today (k is negative)
	periods, err := payperiod.Generate(biWeekly(day(2025, time.March, 3)), day(2025, time.February, 10), 1)
	require.NoError(t, err)

	// Mar 3 - 28 = Feb 3
	assert.Equal(t, "[2025-02-03, 2025-02-16]", periods[0].Range().String())
}

func TestGenerate_BiWeekly_MissingAnchor(t *testing.T) {
	_, err := payperiod.Generate(biWeekly(calendar.Date{}), day(2025, time.February, 10), 1)
	assert.ErrorIs(t, err, payperiod.ErrGeneration)
}

// =============================================================================
// CUSTOM
// =============================================================================

func TestGenerate_Custom_ExactlyOnePeriod(t *testing.T) {
	cfg := payperiod.DefaultConfig("co-1")
	cfg.PeriodType = payperiod.Custom
	cfg.CustomStartDate = day(2025, time.January, 10)
	cfg.CustomEndDate = day(2025, time.January, 24)

	periods, err := payperiod.Generate(cfg, day(2025, time.March, 1), 6)
	require.NoError(t, err)

	require.Len(t, periods, 1)
	assert.Equal(t, "[2025-01-10, 2025-01-24]", periods[0].Range().String())
	assert.Equal(t, payperiod.StatusPast, periods[0].Status)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestGenerate_AllCadencesAreContiguous(t *testing.T) {
	configs := map[string]payperiod.Config{
		"semi-monthly 1/15":   semiMonthly(1, 15),
		"semi-monthly 7/22":   semiMonthly(7, 22),
		"semi-monthly 15/EOM": semiMonthly(15, payperiod.EndOfMonthPayDay),
		"monthly calendar":    monthly(1, 31),
		"monthly rollover":    monthly(16, 15),
		"monthly 31/30":       monthly(31, 30),
		"weekly":              weekly(time.Friday),
		"bi-weekly":           biWeekly(day(2023, time.June, 9)),
	}
	todays := []calendar.Date{
		day(2024, time.February, 29),
		day(2025, time.January, 1),
		day(2025, time.December, 31),
		day(2026, time.March, 15),
	}

	for name, cfg := range configs {
		for _, today := range todays {
			t.Run(name+"/"+today.String(), func(t *testing.T) {
				periods, err := payperiod.Generate(cfg, today, 30)
				require.NoError(t, err)
				require.Len(t, periods, 30)
				assertContiguous(t, periods)

				assert.True(t, periods[0].Range().Contains(today))
				current := 0
				for _, p := range periods {
					if p.Status == payperiod.StatusCurrent {
						current++
					}
				}
				assert.Equal(t, 1, current)
			})
		}
	}
}

func TestGenerate_CountOutOfRange(t *testing.T) {
	_, err := payperiod.Generate(semiMonthly(1, 15), day(2025, time.January, 1), 0)
	assert.ErrorIs(t, err, payperiod.ErrGeneration)

	_, err = payperiod.Generate(semiMonthly(1, 15), day(2025, time.January, 1), payperiod.MaxPeriods+1)
	assert.ErrorIs(t, err, payperiod.ErrGeneration)
}

func TestPeriodFor(t *testing.T) {
	r, err := payperiod.PeriodFor(semiMonthly(1, 15), day(2025, time.April, 30))
	require.NoError(t, err)
	assert.Equal(t, "[2025-04-15, 2025-04-30]", r.String())
}

func TestStatusAt(t *testing.T) {
	r := calendar.Range{Start: day(2025, time.January, 1), End: day(2025, time.January, 14)}

	assert.Equal(t, payperiod.StatusUpcoming, payperiod.StatusAt(r, day(2024, time.December, 31)))
	assert.Equal(t, payperiod.StatusCurrent, payperiod.StatusAt(r, day(2025, time.January, 1)))
	assert.Equal(t, payperiod.StatusCurrent, payperiod.StatusAt(r, day(2025, time.January, 14)))
	assert.Equal(t, payperiod.StatusPast, payperiod.StatusAt(r, day(2025, time.January, 15)))
}
