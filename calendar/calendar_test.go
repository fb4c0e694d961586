package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
)

func TestParseDate(t *testing.T) {
	d, err := calendar.ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2025, time.February, 28), d)

	_, err = calendar.ParseDate("2025-02-30")
	assert.Error(t, err)
}

func TestEndOfMonth_HandlesMonthLengths(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, calendar.EndOfMonth(tt.year, tt.month).Day())
		})
	}
}

func TestClampedDate(t *testing.T) {
	assert.Equal(t, "2025-02-28", calendar.ClampedDate(2025, time.February, 31).String())
	assert.Equal(t, "2026-01-15", calendar.ClampedDate(2025, time.Month(13), 15).String())
	assert.Equal(t, "2025-03-10", calendar.ClampedDate(2025, time.March, 10).String())
}

func TestStartOfWeek(t *testing.T) {
	// 2025-01-15 is a Wednesday
	wed := calendar.NewDate(2025, time.January, 15)
	assert.Equal(t, "2025-01-13", wed.StartOfWeek(time.Monday).String())
	assert.Equal(t, "2025-01-15", wed.StartOfWeek(time.Wednesday).String())
	assert.Equal(t, "2025-01-09", wed.StartOfWeek(time.Thursday).String())
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 1, calendar.FloorDiv(14, 14))
	assert.Equal(t, 0, calendar.FloorDiv(13, 14))
	assert.Equal(t, -1, calendar.FloorDiv(-1, 14))
	assert.Equal(t, -1, calendar.FloorDiv(-14, 14))
	assert.Equal(t, -2, calendar.FloorDiv(-15, 14))
}

func TestRange(t *testing.T) {
	jan := calendar.Range{Start: calendar.NewDate(2025, 1, 1), End: calendar.NewDate(2025, 1, 31)}
	feb := calendar.Range{Start: calendar.NewDate(2025, 2, 1), End: calendar.NewDate(2025, 2, 28)}

	assert.True(t, jan.Contains(calendar.NewDate(2025, 1, 31)))
	assert.False(t, jan.Contains(calendar.NewDate(2025, 2, 1)))
	assert.False(t, jan.Overlaps(feb))
	assert.True(t, jan.Precedes(feb))
	assert.Equal(t, 31, jan.Days())
	assert.Equal(t, "[2025-01-01, 2025-02-28]", jan.Union(feb).String())
}
