/*
handlers_test.go - HTTP tests for the payroll API

Tests for:
- Config validation and onboarding
- Period generation errors (missing config, overlap)
- Session recording and classification over HTTP
- Financial role gate on the hours report
- Health and metrics endpoints
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/observability"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

const base = "/api/companies/co-1"

type testServer struct {
	router  http.Handler
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithSecret(t, nil)
}

func newTestServerWithSecret(t *testing.T, jwtSecret []byte) *testServer {
	t.Helper()
	st := memory.New()
	metrics := observability.NewMetrics()
	n := 0
	svc := payroll.NewService(st, st,
		payroll.WithClock(calendar.FixedClock(calendar.NewDate(2025, time.January, 10))),
		payroll.WithRecorder(metrics),
		payroll.WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	h := api.NewHandler(svc, nil, 4)
	return &testServer{
		router:  api.NewRouter(h, api.RouterOptions{Metrics: metrics, JWTSecret: jwtSecret}),
		metrics: metrics,
	}
}

// do sends body as JSON. role, when set, is sent as the caller's role.
func (s *testServer) do(t *testing.T, method, path string, body any, role string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(api.HeaderActorID, "u-1")
		req.Header.Set(api.HeaderActorRole, role)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

// =============================================================================
// CONFIG
// =============================================================================

func TestSaveConfig_InvalidReturnsFieldError(t *testing.T) {
	// GIVEN: A semi-monthly config with the second pay day missing
	s := newTestServer(t)
	body := map[string]any{"period_type": "semi-monthly", "first_pay_day": 1}

	// WHEN: The config is saved
	rec := s.do(t, http.MethodPut, base+"/config", body, "")

	// THEN: 400 names the offending field
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[struct {
		Code    string                `json:"code"`
		Details api.FieldErrorDetails `json:"details"`
	}](t, rec)
	assert.Equal(t, "invalid_config", resp.Code)
	assert.Equal(t, "second_pay_day", resp.Details.Field)

	// AND: Nothing was stored
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base+"/config", nil, "").Code)
}

func TestSaveConfig_AcceptsStringNumbers(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{
		"period_type":              "weekly",
		"start_day_of_week":        "1",
		"overtime_trigger_type":    "weekly",
		"overtime_hours_threshold": "40",
	}

	rec := s.do(t, http.MethodPut, base+"/config", body, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cfg := decode[api.ConfigDTO](t, rec)
	assert.Equal(t, "weekly", cfg.PeriodType)
	require.NotNil(t, cfg.StartDayOfWeek)
	assert.Equal(t, 1, *cfg.StartDayOfWeek)
	assert.Nil(t, cfg.FirstPayDay)
	assertDecimal(t, "40", cfg.OvertimeHoursThreshold, "threshold")
}

func TestEnsureDefaultConfig_CreatesOnce(t *testing.T) {
	// GIVEN: A company without configuration
	s := newTestServer(t)

	// WHEN: It is onboarded twice
	first := s.do(t, http.MethodPost, base+"/config/default", nil, "")
	second := s.do(t, http.MethodPost, base+"/config/default", nil, "")

	// THEN: Only the first call creates
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.True(t, decode[api.EnsureDefaultResponse](t, first).Created)
	assert.False(t, decode[api.EnsureDefaultResponse](t, second).Created)

	// AND: The default count of periods exists, starting with the current one
	periods := decode[[]api.PeriodDTO](t, s.do(t, http.MethodGet, base+"/periods", nil, ""))
	require.Len(t, periods, 4)
	assert.Equal(t, "2025-01-01", periods[0].StartDate)
	assert.Equal(t, "2025-01-14", periods[0].EndDate)
	assert.Equal(t, "current", periods[0].Status)
	assert.Equal(t, "upcoming", periods[1].Status)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestGeneratePeriods_WithoutConfigIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, base+"/periods/generate", api.GeneratePeriodsRequest{Count: 3}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeneratePeriods_OverlapIsConflict(t *testing.T) {
	// GIVEN: Semi-monthly periods already generated
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	// AND: The cadence switched to weekly
	weekly := map[string]any{"period_type": "weekly", "start_day_of_week": 0}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/config", weekly, "").Code)

	// WHEN: Periods are generated without clearing
	rec := s.do(t, http.MethodPost, base+"/periods/generate", api.GeneratePeriodsRequest{Count: 2}, "")

	// THEN: The overlap is reported
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "period_overlap", decode[api.ErrorResponse](t, rec).Code)

	// WHEN: Generation clears the old set
	rec = s.do(t, http.MethodPost, base+"/periods/generate", api.GeneratePeriodsRequest{Count: 2, ClearExisting: true}, "")

	// THEN: Weekly periods replace them
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	periods := decode[[]api.PeriodDTO](t, rec)
	require.Len(t, periods, 2)
	assert.Equal(t, "2025-01-05", periods[0].StartDate)
	assert.Equal(t, "2025-01-11", periods[0].EndDate)
}

func TestGeneratePeriods_RejectsBadCount(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	rec := s.do(t, http.MethodPost, base+"/periods/generate", api.GeneratePeriodsRequest{Count: 1000}, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "generation_failed", decode[api.ErrorResponse](t, rec).Code)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestCreateSession_ClassifiesDailyOvertime(t *testing.T) {
	// GIVEN: The default policy (overtime after 8h per day)
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	// WHEN: A 10 hour session is recorded
	start := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	rec := s.do(t, http.MethodPost, base+"/sessions", map[string]any{
		"employee_id": "emp-1",
		"start_time":  start,
		"end_time":    start.Add(10 * time.Hour),
	}, "")

	// THEN: 8 regular and 2 overtime hours
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[api.SessionDTO](t, rec)
	assert.Equal(t, "2025-01-06", session.WorkDate)
	assertDecimal(t, "10", session.Hours, "hours")
	assertDecimal(t, "8", session.RegularHours, "regular")
	assertDecimal(t, "2", session.OvertimeHours, "overtime")
	assertDecimal(t, "0", session.DoubleTimeHours, "double time")
}

func TestCreateSession_InvalidTimes(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	start := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	rec := s.do(t, http.MethodPost, base+"/sessions", map[string]any{
		"employee_id": "emp-1",
		"start_time":  start,
		"end_time":    start.Add(-time.Hour),
	}, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_session", decode[api.ErrorResponse](t, rec).Code)
}

func TestDeleteSession_UnknownIsNotFound(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	rec := s.do(t, http.MethodDelete, base+"/sessions/missing", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessions_RejectsBadDate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, base+"/sessions?from=01/06/2025", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// HOURS REPORT
// =============================================================================

func TestHoursReport_RequiresFinancialRole(t *testing.T) {
	// GIVEN: One employee with a 10 hour day in the current period
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)
	emp := decode[api.EmployeeDTO](t, s.do(t, http.MethodPost, base+"/employees", map[string]any{
		"name": "Ada", "hourly_rate": "20",
	}, "admin"))
	start := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/sessions", map[string]any{
		"employee_id": emp.ID,
		"project_id":  "proj-1",
		"start_time":  start,
		"end_time":    start.Add(10 * time.Hour),
	}, "").Code)
	periods := decode[[]api.PeriodDTO](t, s.do(t, http.MethodGet, base+"/periods", nil, ""))
	path := base + "/periods/" + periods[0].ID + "/hours"

	// WHEN: The report is requested without and with a payroll role
	denied := s.do(t, http.MethodGet, path, nil, "")
	wrongRole := s.do(t, http.MethodGet, path, nil, "employee")
	allowed := s.do(t, http.MethodGet, path, nil, "Payroll")

	// THEN: Only the payroll role sees pay figures
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Equal(t, http.StatusForbidden, wrongRole.Code)
	require.Equal(t, http.StatusOK, allowed.Code, allowed.Body.String())

	// AND: 8h x 20 + 2h x 20 x 1.5 = 220
	report := decode[api.HoursReportDTO](t, allowed)
	require.Len(t, report.Employees, 1)
	row := report.Employees[0]
	assert.Equal(t, "Ada", row.EmployeeName)
	assertDecimal(t, "10", row.BillableHours, "billable")
	assertDecimal(t, "220", row.TotalPay, "pay")
	assert.Len(t, row.Sessions, 1)
	assert.Equal(t, 1, report.Totals.SessionCount)
	assertDecimal(t, "220", report.Totals.TotalPay, "total pay")
}

func TestHoursReport_UnknownPeriod(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	rec := s.do(t, http.MethodGet, base+"/periods/nope/hours", nil, "admin")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertEmployee_RejectsEmptyName(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, base+"/employees", map[string]any{"name": "  ", "hourly_rate": "10"}, "admin")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_employee", decode[api.ErrorResponse](t, rec).Code)
}

func TestEmployees_RequireFinancialRole(t *testing.T) {
	// GIVEN: One employee with an hourly rate
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, base+"/employees", map[string]any{
		"id": "emp-1", "name": "Ann", "hourly_rate": "42.5",
	}, "payroll").Code)

	// WHEN: The directory is read or written without a financial role
	for _, role := range []string{"", "employee"} {
		list := s.do(t, http.MethodGet, base+"/employees", nil, role)
		upsert := s.do(t, http.MethodPost, base+"/employees", map[string]any{
			"id": "emp-1", "name": "Ann", "hourly_rate": "99",
		}, role)

		// THEN: 403, and no rate leaks into the body
		assert.Equal(t, http.StatusForbidden, list.Code, "role %q", role)
		assert.Equal(t, "forbidden", decode[api.ErrorResponse](t, list).Code)
		assert.NotContains(t, list.Body.String(), "42.5")
		assert.Equal(t, http.StatusForbidden, upsert.Code, "role %q", role)
	}

	// AND: The payroll role still sees the original rate
	allowed := s.do(t, http.MethodGet, base+"/employees", nil, "payroll")
	require.Equal(t, http.StatusOK, allowed.Code)
	employees := decode[[]api.EmployeeDTO](t, allowed)
	require.Len(t, employees, 1)
	assertDecimal(t, "42.5", employees[0].HourlyRate, "rate")
}

func TestSessions_PieceWorkPayHiddenWithoutFinancialRole(t *testing.T) {
	// GIVEN: A piece-work session paid 120
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)
	start := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	body := map[string]any{
		"employee_id":    "emp-1",
		"start_time":     start,
		"end_time":       start.Add(3 * time.Hour),
		"is_piece_work":  true,
		"piece_work_pay": "120",
	}

	// WHEN: It is recorded without a financial role
	// THEN: 403
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, base+"/sessions", body, "employee").Code)

	created := s.do(t, http.MethodPost, base+"/sessions", body, "admin")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assertDecimal(t, "120", decode[api.SessionDTO](t, created).PieceWorkPay.Decimal, "pay")

	// WHEN: The sessions are listed without a financial role
	list := s.do(t, http.MethodGet, base+"/sessions", nil, "employee")

	// THEN: The session is there but its pay is not
	require.Equal(t, http.StatusOK, list.Code)
	sessions := decode[[]api.SessionDTO](t, list)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].IsPieceWork)
	assert.False(t, sessions[0].PieceWorkPay.Valid)
}

// =============================================================================
// AMBIENT ENDPOINTS
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)

	health := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, health.Code)

	metrics := s.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "payroll_periods_generated_total 4")
	assert.Contains(t, metrics.Body.String(), `route="/api/companies/{companyID}/config/default"`)
}
