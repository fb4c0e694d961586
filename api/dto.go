/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENCODING:
  - Dates are "YYYY-MM-DD", timestamps RFC 3339
  - Hours, rates and pay are decimal strings ("7.5"), never floats
  - Config requests use payperiod.RawConfig directly: every field accepts
    a number or a string, and null/"" mean "not provided"

VALIDATION:
  Validation is done by the service, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/timeclass"
)

// =============================================================================
// CONFIG
// =============================================================================

// ConfigDTO is a resolved configuration. Fields of other period types are omitted.
type ConfigDTO struct {
	CompanyID          string  `json:"company_id"`
	PeriodType         string  `json:"period_type"`
	FirstPayDay        *int    `json:"first_pay_day,omitempty"`
	SecondPayDay       *int    `json:"second_pay_day,omitempty"`
	MonthlyStartDay    *int    `json:"monthly_start_day,omitempty"`
	MonthlyEndDay      *int    `json:"monthly_end_day,omitempty"`
	StartDayOfWeek     *int    `json:"start_day_of_week,omitempty"`
	BiWeeklyAnchorDate *string `json:"bi_weekly_anchor_date,omitempty"`
	CustomStartDate    *string `json:"custom_start_date,omitempty"`
	CustomEndDate      *string `json:"custom_end_date,omitempty"`

	OvertimeTriggerType      string          `json:"overtime_trigger_type"`
	DoubleTimeTriggerType    string          `json:"double_time_trigger_type"`
	OvertimeHoursThreshold   decimal.Decimal `json:"overtime_hours_threshold"`
	DoubleTimeHoursThreshold decimal.Decimal `json:"double_time_hours_threshold"`
	OvertimeMultiplier       decimal.Decimal `json:"overtime_multiplier"`
	DoubleTimeMultiplier     decimal.Decimal `json:"double_time_multiplier"`
	WorkWeekStartDay         int             `json:"work_week_start_day"`

	UpdatedAt string `json:"updated_at,omitempty"`
}

func toConfigDTO(c payperiod.Config) ConfigDTO {
	dto := ConfigDTO{
		CompanyID:                c.CompanyID,
		PeriodType:               string(c.PeriodType),
		OvertimeTriggerType:      string(c.OvertimeTriggerType),
		DoubleTimeTriggerType:    string(c.DoubleTimeTriggerType),
		OvertimeHoursThreshold:   c.OvertimeHoursThreshold,
		DoubleTimeHoursThreshold: c.DoubleTimeHoursThreshold,
		OvertimeMultiplier:       c.OvertimeMultiplier,
		DoubleTimeMultiplier:     c.DoubleTimeMultiplier,
		WorkWeekStartDay:         int(c.WorkWeekStartDay),
	}
	switch c.PeriodType {
	case payperiod.SemiMonthly:
		dto.FirstPayDay, dto.SecondPayDay = intPtr(c.FirstPayDay), intPtr(c.SecondPayDay)
	case payperiod.Monthly:
		dto.MonthlyStartDay, dto.MonthlyEndDay = intPtr(c.MonthlyStartDay), intPtr(c.MonthlyEndDay)
	case payperiod.Weekly:
		dto.StartDayOfWeek = intPtr(int(c.StartDayOfWeek))
	case payperiod.BiWeekly:
		dto.BiWeeklyAnchorDate = strPtr(c.BiWeeklyAnchorDate.String())
	case payperiod.Custom:
		dto.CustomStartDate = strPtr(c.CustomStartDate.String())
		dto.CustomEndDate = strPtr(c.CustomEndDate.String())
	}
	if !c.UpdatedAt.IsZero() {
		dto.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// EnsureDefaultResponse reports the config after onboarding.
type EnsureDefaultResponse struct {
	Config  ConfigDTO `json:"config"`
	Created bool      `json:"created"`
}

// =============================================================================
// PERIODS
// =============================================================================

type PeriodDTO struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

func toPeriodDTO(p payperiod.Period) PeriodDTO {
	return PeriodDTO{
		ID:        p.ID,
		StartDate: p.Start.String(),
		EndDate:   p.End.String(),
		Status:    string(p.Status),
	}
}

func toPeriodDTOs(periods []payperiod.Period) []PeriodDTO {
	out := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		out[i] = toPeriodDTO(p)
	}
	return out
}

// GeneratePeriodsRequest asks for Count periods from today. Count 0 uses the
// server default.
type GeneratePeriodsRequest struct {
	Count         int  `json:"count"`
	ClearExisting bool `json:"clear_existing"`
}

// =============================================================================
// SESSIONS
// =============================================================================

// SessionRequest creates or replaces a work session.
type SessionRequest struct {
	EmployeeID   string              `json:"employee_id"`
	ProjectID    string              `json:"project_id,omitempty"`
	WorkDate     string              `json:"work_date,omitempty"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	IsPieceWork  bool                `json:"is_piece_work"`
	PieceWorkPay decimal.NullDecimal `json:"piece_work_pay"`
	Notes        string              `json:"notes,omitempty"`
}

type SessionDTO struct {
	ID              string              `json:"id"`
	EmployeeID      string              `json:"employee_id"`
	ProjectID       string              `json:"project_id,omitempty"`
	WorkDate        string              `json:"work_date"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time"`
	Hours           decimal.Decimal     `json:"hours"`
	RegularHours    decimal.Decimal     `json:"regular_hours"`
	OvertimeHours   decimal.Decimal     `json:"overtime_hours"`
	DoubleTimeHours decimal.Decimal     `json:"double_time_hours"`
	IsPieceWork     bool                `json:"is_piece_work"`
	PieceWorkPay    decimal.NullDecimal `json:"piece_work_pay"`
	Notes           string              `json:"notes,omitempty"`
}

func toSessionDTO(s timeclass.Session) SessionDTO {
	return SessionDTO{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		ProjectID:       s.ProjectID,
		WorkDate:        s.WorkDate.String(),
		StartTime:       s.StartTime.Format(time.RFC3339),
		EndTime:         s.EndTime.Format(time.RFC3339),
		Hours:           s.Hours(),
		RegularHours:    s.Buckets.Regular,
		OvertimeHours:   s.Buckets.Overtime,
		DoubleTimeHours: s.Buckets.DoubleTime,
		IsPieceWork:     s.IsPieceWork,
		PieceWorkPay:    s.PieceWorkPay,
		Notes:           s.Notes,
	}
}

func toSessionDTOs(sessions []timeclass.Session) []SessionDTO {
	out := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		out[i] = toSessionDTO(s)
	}
	return out
}

// ReclassifyRequest recomputes the policy window around Date for one employee.
type ReclassifyRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

func toEmployeeDTO(e hours.Employee) EmployeeDTO {
	return EmployeeDTO{ID: e.ID, Name: e.Name, HourlyRate: e.HourlyRate}
}

// =============================================================================
// HOURS REPORT
// =============================================================================

type HoursReportDTO struct {
	Period    PeriodDTO          `json:"period"`
	Employees []EmployeeHoursDTO `json:"employees"`
	Totals    TotalsDTO          `json:"totals"`
}

type EmployeeHoursDTO struct {
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	DoubleTimeHours decimal.Decimal `json:"double_time_hours"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	BillableHours   decimal.Decimal `json:"billable_hours"`
	PieceWorkPay    decimal.Decimal `json:"piece_work_pay"`
	TotalPay        decimal.Decimal `json:"total_pay"`
	SessionCount    int             `json:"session_count"`
	Sessions        []SessionDTO    `json:"sessions"`
}

type TotalsDTO struct {
	EmployeeCount   int             `json:"employee_count"`
	SessionCount    int             `json:"session_count"`
	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	DoubleTimeHours decimal.Decimal `json:"double_time_hours"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	BillableHours   decimal.Decimal `json:"billable_hours"`
	TotalPay        decimal.Decimal `json:"total_pay"`
}

func toHoursReportDTO(r hours.Report) HoursReportDTO {
	out := HoursReportDTO{
		Period:    toPeriodDTO(r.Period),
		Employees: make([]EmployeeHoursDTO, len(r.Employees)),
		Totals: TotalsDTO{
			EmployeeCount:   r.Totals.EmployeeCount,
			SessionCount:    r.Totals.SessionCount,
			RegularHours:    r.Totals.RegularHours,
			OvertimeHours:   r.Totals.OvertimeHours,
			DoubleTimeHours: r.Totals.DoubleTimeHours,
			TotalHours:      r.Totals.TotalHours,
			BillableHours:   r.Totals.BillableHours,
			TotalPay:        r.Totals.TotalPay,
		},
	}
	for i, e := range r.Employees {
		out.Employees[i] = EmployeeHoursDTO{
			EmployeeID:      e.EmployeeID,
			EmployeeName:    e.EmployeeName,
			HourlyRate:      e.HourlyRate,
			RegularHours:    e.RegularHours,
			OvertimeHours:   e.OvertimeHours,
			DoubleTimeHours: e.DoubleTimeHours,
			TotalHours:      e.TotalHours,
			BillableHours:   e.BillableHours,
			PieceWorkPay:    e.PieceWorkPay,
			TotalPay:        e.TotalPay,
			SessionCount:    len(e.Sessions),
			Sessions:        toSessionDTOs(e.Sessions),
		}
	}
	return out
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// FieldErrorDetails names the offending input field.
type FieldErrorDetails struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }
