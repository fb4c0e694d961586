package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclass"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tables holds the SQL for every table. Callers handle locking.
type tables struct {
	q querier
}

// =============================================================================
// CONFIGS
// =============================================================================

const configColumns = `company_id, period_type, first_pay_day, second_pay_day,
	monthly_start_day, monthly_end_day, start_day_of_week,
	bi_weekly_anchor_date, custom_start_date, custom_end_date,
	overtime_trigger_type, double_time_trigger_type,
	overtime_hours_threshold, double_time_hours_threshold,
	overtime_multiplier, double_time_multiplier,
	work_week_start_day, updated_at`

func (t tables) saveConfig(ctx context.Context, cfg payperiod.Config) error {
	query := `
		INSERT INTO company_configs (` + configColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			period_type = excluded.period_type,
			first_pay_day = excluded.first_pay_day,
			second_pay_day = excluded.second_pay_day,
			monthly_start_day = excluded.monthly_start_day,
			monthly_end_day = excluded.monthly_end_day,
			start_day_of_week = excluded.start_day_of_week,
			bi_weekly_anchor_date = excluded.bi_weekly_anchor_date,
			custom_start_date = excluded.custom_start_date,
			custom_end_date = excluded.custom_end_date,
			overtime_trigger_type = excluded.overtime_trigger_type,
			double_time_trigger_type = excluded.double_time_trigger_type,
			overtime_hours_threshold = excluded.overtime_hours_threshold,
			double_time_hours_threshold = excluded.double_time_hours_threshold,
			overtime_multiplier = excluded.overtime_multiplier,
			double_time_multiplier = excluded.double_time_multiplier,
			work_week_start_day = excluded.work_week_start_day,
			updated_at = excluded.updated_at
	`
	_, err := t.q.ExecContext(ctx, query,
		cfg.CompanyID,
		string(cfg.PeriodType),
		cfg.FirstPayDay,
		cfg.SecondPayDay,
		cfg.MonthlyStartDay,
		cfg.MonthlyEndDay,
		int(cfg.StartDayOfWeek),
		nullDate(cfg.BiWeeklyAnchorDate),
		nullDate(cfg.CustomStartDate),
		nullDate(cfg.CustomEndDate),
		string(cfg.OvertimeTriggerType),
		string(cfg.DoubleTimeTriggerType),
		cfg.OvertimeHoursThreshold,
		cfg.DoubleTimeHoursThreshold,
		cfg.OvertimeMultiplier,
		cfg.DoubleTimeMultiplier,
		int(cfg.WorkWeekStartDay),
		formatTime(cfg.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (t tables) getConfig(ctx context.Context, companyID string) (*payperiod.Config, error) {
	var (
		cfg                              payperiod.Config
		periodType, otTrigger, dtTrigger string
		startDOW, workWeekStart          int
		anchor, customStart, customEnd   sql.NullString
		updatedAt                        string
	)
	err := t.q.QueryRowContext(ctx,
		"SELECT "+configColumns+" FROM company_configs WHERE company_id = ?",
		companyID,
	).Scan(
		&cfg.CompanyID, &periodType, &cfg.FirstPayDay, &cfg.SecondPayDay,
		&cfg.MonthlyStartDay, &cfg.MonthlyEndDay, &startDOW,
		&anchor, &customStart, &customEnd,
		&otTrigger, &dtTrigger,
		&cfg.OvertimeHoursThreshold, &cfg.DoubleTimeHoursThreshold,
		&cfg.OvertimeMultiplier, &cfg.DoubleTimeMultiplier,
		&workWeekStart, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.PeriodType = payperiod.PeriodType(periodType)
	cfg.OvertimeTriggerType = payperiod.TriggerType(otTrigger)
	cfg.DoubleTimeTriggerType = payperiod.TriggerType(dtTrigger)
	cfg.StartDayOfWeek = time.Weekday(startDOW)
	cfg.WorkWeekStartDay = time.Weekday(workWeekStart)
	if cfg.BiWeeklyAnchorDate, err = parseNullDate(anchor); err != nil {
		return nil, err
	}
	if cfg.CustomStartDate, err = parseNullDate(customStart); err != nil {
		return nil, err
	}
	if cfg.CustomEndDate, err = parseNullDate(customEnd); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = parseTime(updatedAt)
	return &cfg, nil
}

func (t tables) listCompanies(ctx context.Context) ([]string, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT company_id FROM company_configs ORDER BY company_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// =============================================================================
// PERIODS
// =============================================================================

const periodColumns = "id, company_id, start_date, end_date, status, created_at"

func (t tables) insertPeriod(ctx context.Context, p payperiod.Period) error {
	_, err := t.q.ExecContext(ctx,
		"INSERT INTO pay_periods ("+periodColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.CompanyID, p.Start.String(), p.End.String(), string(p.Status), formatTime(p.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("period starting %s: %w", p.Start, payroll.ErrPeriodOverlap)
		}
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

func (t tables) listPeriods(ctx context.Context, companyID string) ([]payperiod.Period, error) {
	return t.queryPeriods(ctx,
		"SELECT "+periodColumns+" FROM pay_periods WHERE company_id = ? ORDER BY start_date",
		companyID)
}

func (t tables) getPeriod(ctx context.Context, companyID, periodID string) (*payperiod.Period, error) {
	periods, err := t.queryPeriods(ctx,
		"SELECT "+periodColumns+" FROM pay_periods WHERE company_id = ? AND id = ?",
		companyID, periodID)
	if err != nil || len(periods) == 0 {
		return nil, err
	}
	return &periods[0], nil
}

func (t tables) queryPeriods(ctx context.Context, query string, args ...any) ([]payperiod.Period, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var out []payperiod.Period
	for rows.Next() {
		var (
			p                     payperiod.Period
			start, end, createdAt string
			status                string
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &start, &end, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		if p.Start, err = calendar.ParseDate(start); err != nil {
			return nil, err
		}
		if p.End, err = calendar.ParseDate(end); err != nil {
			return nil, err
		}
		p.Status = payperiod.Status(status)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t tables) deletePeriods(ctx context.Context, companyID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{companyID}
	for _, id := range ids {
		args = append(args, id)
	}
	query := "DELETE FROM pay_periods WHERE company_id = ? AND id IN (" + placeholders(len(ids)) + ")"
	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete periods: %w", err)
	}
	return nil
}

func (t tables) updatePeriodStatus(ctx context.Context, p payperiod.Period) error {
	_, err := t.q.ExecContext(ctx,
		"UPDATE pay_periods SET status = ? WHERE id = ?",
		string(p.Status), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update period status: %w", err)
	}
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

const sessionColumns = `id, company_id, employee_id, project_id, work_date,
	start_time, end_time, is_piece_work, piece_work_pay, notes,
	regular_hours, overtime_hours, double_time_hours, created_at, updated_at`

func (t tables) insertSession(ctx context.Context, s timeclass.Session) error {
	_, err := t.q.ExecContext(ctx,
		"INSERT INTO work_sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.CompanyID, s.EmployeeID, nullString(s.ProjectID), s.WorkDate.String(),
		formatTime(s.StartTime), formatTime(s.EndTime), s.IsPieceWork, s.PieceWorkPay, nullString(s.Notes),
		s.Buckets.Regular, s.Buckets.Overtime, s.Buckets.DoubleTime,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (t tables) updateSession(ctx context.Context, s timeclass.Session) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE work_sessions SET
			employee_id = ?, project_id = ?, work_date = ?, start_time = ?, end_time = ?,
			is_piece_work = ?, piece_work_pay = ?, notes = ?,
			regular_hours = ?, overtime_hours = ?, double_time_hours = ?, updated_at = ?
		WHERE company_id = ? AND id = ?`,
		s.EmployeeID, nullString(s.ProjectID), s.WorkDate.String(), formatTime(s.StartTime), formatTime(s.EndTime),
		s.IsPieceWork, s.PieceWorkPay, nullString(s.Notes),
		s.Buckets.Regular, s.Buckets.Overtime, s.Buckets.DoubleTime, formatTime(s.UpdatedAt),
		s.CompanyID, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (t tables) updateBuckets(ctx context.Context, s timeclass.Session) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE work_sessions SET regular_hours = ?, overtime_hours = ?, double_time_hours = ?, updated_at = ?
		WHERE id = ?`,
		s.Buckets.Regular, s.Buckets.Overtime, s.Buckets.DoubleTime, formatTime(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update buckets: %w", err)
	}
	return nil
}

func (t tables) deleteSession(ctx context.Context, companyID, sessionID string) error {
	_, err := t.q.ExecContext(ctx, "DELETE FROM work_sessions WHERE company_id = ? AND id = ?", companyID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (t tables) getSession(ctx context.Context, companyID, sessionID string) (*timeclass.Session, error) {
	sessions, err := t.querySessions(ctx,
		"SELECT "+sessionColumns+" FROM work_sessions WHERE company_id = ? AND id = ?",
		companyID, sessionID)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return &sessions[0], nil
}

func (t tables) listSessions(ctx context.Context, filter payroll.SessionFilter) ([]timeclass.Session, error) {
	where, args := sessionWhere(filter)
	return t.querySessions(ctx,
		"SELECT "+sessionColumns+" FROM work_sessions"+where+" ORDER BY start_time, id",
		args...)
}

func (t tables) countSessions(ctx context.Context, filter payroll.SessionFilter) (int, error) {
	where, args := sessionWhere(filter)
	var n int
	if err := t.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_sessions"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func sessionWhere(f payroll.SessionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.EmployeeID != "" {
		clauses = append(clauses, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "work_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "work_date <= ?")
		args = append(args, f.To.String())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (t tables) querySessions(ctx context.Context, query string, args ...any) ([]timeclass.Session, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []timeclass.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(rows *sql.Rows) (timeclass.Session, error) {
	var (
		s                    timeclass.Session
		projectID, notes     sql.NullString
		workDate             string
		start, end           string
		createdAt, updatedAt string
	)
	err := rows.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &projectID, &workDate,
		&start, &end, &s.IsPieceWork, &s.PieceWorkPay, &notes,
		&s.Buckets.Regular, &s.Buckets.Overtime, &s.Buckets.DoubleTime,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return s, fmt.Errorf("failed to scan session: %w", err)
	}
	if s.WorkDate, err = calendar.ParseDate(workDate); err != nil {
		return s, err
	}
	s.ProjectID = projectID.String
	s.Notes = notes.String
	s.StartTime = parseTime(start)
	s.EndTime = parseTime(end)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (t tables) saveEmployee(ctx context.Context, e hours.Employee) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO employees (company_id, id, name, hourly_rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(company_id, id) DO UPDATE SET
			name = excluded.name,
			hourly_rate = excluded.hourly_rate`,
		e.CompanyID, e.ID, e.Name, e.HourlyRate,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (t tables) getEmployee(ctx context.Context, companyID, employeeID string) (*hours.Employee, error) {
	var e hours.Employee
	err := t.q.QueryRowContext(ctx,
		"SELECT company_id, id, name, hourly_rate FROM employees WHERE company_id = ? AND id = ?",
		companyID, employeeID,
	).Scan(&e.CompanyID, &e.ID, &e.Name, &e.HourlyRate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return &e, nil
}

func (t tables) listEmployees(ctx context.Context, companyID string) ([]hours.Employee, error) {
	rows, err := t.q.QueryContext(ctx,
		"SELECT company_id, id, name, hourly_rate FROM employees WHERE company_id = ? ORDER BY name, id",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []hours.Employee
	for rows.Next() {
		var e hours.Employee
		if err := rows.Scan(&e.CompanyID, &e.ID, &e.Name, &e.HourlyRate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timestampLayout, s)
	return t
}

func nullDate(d calendar.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (calendar.Date, error) {
	if !s.Valid || s.String == "" {
		return calendar.Date{}, nil
	}
	return calendar.ParseDate(s.String)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
