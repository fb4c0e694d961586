package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/timeclass"
)

func session(id, employeeID string, janDay, startHour, length int) timeclass.Session {
	start := time.Date(2025, time.January, janDay, startHour, 0, 0, 0, time.UTC)
	return timeclass.Session{
		ID:         id,
		CompanyID:  "co-1",
		EmployeeID: employeeID,
		WorkDate:   calendar.DateOf(start),
		StartTime:  start,
		EndTime:    start.Add(time.Duration(length) * time.Hour),
	}
}

func TestWithTx_RollsBackEveryWrite(t *testing.T) {
	// GIVEN: A store with one session
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.InsertSession(ctx, session("s1", "emp-1", 6, 8, 4)))
	boom := errors.New("boom")

	// WHEN: A transaction writes, then fails
	err := st.WithTx(ctx, func(tx payroll.Store) error {
		require.NoError(t, tx.SaveConfig(ctx, payperiod.DefaultConfig("co-1")))
		require.NoError(t, tx.DeleteSession(ctx, "co-1", "s1"))
		require.NoError(t, tx.InsertSession(ctx, session("s2", "emp-1", 7, 8, 4)))

		// Nested transactions join the outer one.
		return tx.WithTx(ctx, func(inner payroll.Store) error {
			s, err := inner.GetSession(ctx, "co-1", "s2")
			require.NoError(t, err)
			assert.NotNil(t, s)
			return boom
		})
	})

	// THEN: Nothing the transaction did is visible
	require.ErrorIs(t, err, boom)
	cfg, err := st.GetConfig(ctx, "co-1")
	require.NoError(t, err)
	assert.Nil(t, cfg)
	sessions, err := st.ListSessions(ctx, payroll.SessionFilter{CompanyID: "co-1"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
}

func TestSessions_FilterOrderAndCompanyScope(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	for _, s := range []timeclass.Session{
		session("b", "emp-1", 7, 8, 4),
		session("a", "emp-1", 7, 8, 2),
		session("c", "emp-1", 6, 13, 3),
		session("d", "emp-2", 7, 8, 1),
	} {
		require.NoError(t, st.InsertSession(ctx, s))
	}
	other := session("x", "emp-1", 7, 8, 1)
	other.CompanyID = "co-2"
	require.NoError(t, st.InsertSession(ctx, other))

	got, err := st.ListSessions(ctx, payroll.SessionFilter{
		CompanyID:  "co-1",
		EmployeeID: "emp-1",
		From:       calendar.NewDate(2025, time.January, 7),
		To:         calendar.NewDate(2025, time.January, 7),
	})
	require.NoError(t, err)

	// Same start time falls back to ID order.
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	n, err := st.CountSessions(ctx, payroll.SessionFilter{CompanyID: "co-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	s, err := st.GetSession(ctx, "co-2", "a")
	require.NoError(t, err)
	assert.Nil(t, s, "sessions are company scoped")
}

func TestPeriods_SortedByStart(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	jan := func(d int) calendar.Date { return calendar.NewDate(2025, time.January, d) }

	require.NoError(t, st.InsertPeriods(ctx, []payperiod.Period{
		{ID: "p2", CompanyID: "co-1", Start: jan(15), End: jan(31)},
		{ID: "p1", CompanyID: "co-1", Start: jan(1), End: jan(14)},
	}))

	periods, err := st.ListPeriods(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "p1", periods[0].ID)

	require.NoError(t, st.DeletePeriods(ctx, "co-1", []string{"p1"}))
	p, err := st.GetPeriod(ctx, "co-1", "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestEmployees_UpsertAndList(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	require.NoError(t, st.SaveEmployee(ctx, hours.Employee{ID: "e1", CompanyID: "co-1", Name: "Ada", HourlyRate: decimal.NewFromInt(20)}))
	require.NoError(t, st.SaveEmployee(ctx, hours.Employee{ID: "e1", CompanyID: "co-1", Name: "Ada L.", HourlyRate: decimal.NewFromInt(25)}))
	require.NoError(t, st.SaveEmployee(ctx, hours.Employee{ID: "e1", CompanyID: "co-2", Name: "Other", HourlyRate: decimal.NewFromInt(1)}))

	e, err := st.GetEmployee(ctx, "co-1", "e1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Ada L.", e.Name)
	assert.True(t, decimal.NewFromInt(25).Equal(e.HourlyRate))

	list, err := st.ListEmployees(ctx, "co-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
