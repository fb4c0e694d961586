/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to payroll.Service.

ENDPOINTS (all under /api/companies/{companyID}):
  Config:
    GET    /config                 Current pay-period and overtime config
    PUT    /config                 Validate and save a config (reclassifies on policy change)
    POST   /config/default         Onboard with the default config and first periods

  Periods:
    GET    /periods                Stored periods with current status
    POST   /periods/generate       Generate the next N periods from today
    GET    /periods/{periodID}/hours  Hours and pay report (financial role required)

  Sessions:
    GET    /sessions               List sessions (?employee_id=&from=&to=)
    POST   /sessions               Record a session
    PUT    /sessions/{sessionID}   Replace a session
    DELETE /sessions/{sessionID}   Delete a session
    POST   /sessions/reclassify    Recompute one employee's policy window

  Employees (financial role required, the records carry hourly rates):
    GET    /employees              List employees
    POST   /employees              Create or update an employee

CALLER IDENTITY (auth.go):
  With a JWT secret configured, the caller comes from an HS256 Bearer token
  (sub, role). Without one, X-Actor-ID / X-Actor-Role set by an upstream proxy
  are trusted. The role gates every pay figure: the hours report, the employee
  directory, and piece_work_pay on sessions. Sessions returned to other
  callers carry a null piece_work_pay.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid config, session or employee
  - 401: Malformed or expired Bearer token
  - 403: Caller may not view pay figures
  - 404: Company config, period or session not found
  - 409: Period overlap or protected period
  - 422: Config is valid but cannot produce periods
  - 500: Internal errors

SEE ALSO:
  - auth.go: Caller identity middleware
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background period status refresh
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclass"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service
	Logger  *zap.Logger

	// DefaultPeriodCount is used when a generate request omits count.
	DefaultPeriodCount int
}

// NewHandler creates a handler over svc.
func NewHandler(svc *payroll.Service, logger *zap.Logger, defaultPeriodCount int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPeriodCount <= 0 {
		defaultPeriodCount = 6
	}
	return &Handler{Service: svc, Logger: logger, DefaultPeriodCount: defaultPeriodCount}
}

// =============================================================================
// CONFIG HANDLERS
// =============================================================================

// GetConfig returns the company's resolved config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Service.GetConfig(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(cfg))
}

// SaveConfig validates and stores a raw config.
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var raw payperiod.RawConfig
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := h.Service.SaveConfig(r.Context(), chi.URLParam(r, "companyID"), raw)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(cfg))
}

// EnsureDefaultConfig onboards a company. An existing config is left alone.
func (h *Handler) EnsureDefaultConfig(w http.ResponseWriter, r *http.Request) {
	cfg, created, err := h.Service.EnsureDefaultConfig(r.Context(), chi.URLParam(r, "companyID"), h.DefaultPeriodCount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, EnsureDefaultResponse{Config: toConfigDTO(cfg), Created: created})
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns stored periods ordered by start date.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTOs(periods))
}

// GeneratePeriods materializes the next periods from today.
func (h *Handler) GeneratePeriods(w http.ResponseWriter, r *http.Request) {
	var req GeneratePeriodsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	if req.Count == 0 {
		req.Count = h.DefaultPeriodCount
	}

	periods, err := h.Service.GeneratePeriods(r.Context(), chi.URLParam(r, "companyID"), req.Count, req.ClearExisting)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTOs(periods))
}

// GetHoursReport returns per-employee hours and pay for a period.
func (h *Handler) GetHoursReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.GetHoursForPeriod(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "periodID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHoursReportDTO(report))
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// ListSessions filters by employee_id, from and to (inclusive work dates).
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := payroll.SessionFilter{
		CompanyID:  chi.URLParam(r, "companyID"),
		EmployeeID: q.Get("employee_id"),
	}
	var err error
	if filter.From, err = optionalDate(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from (use YYYY-MM-DD)", err)
		return
	}
	if filter.To, err = optionalDate(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to (use YYYY-MM-DD)", err)
		return
	}

	sessions, err := h.Service.ListWorkSessions(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}

// CreateSession records a session and reclassifies its window.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSession(w, r)
	if !ok {
		return
	}

	s, err := h.Service.AddWorkSession(r.Context(), chi.URLParam(r, "companyID"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(s))
}

// UpdateSession replaces a session's editable fields.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSession(w, r)
	if !ok {
		return
	}

	s, err := h.Service.UpdateWorkSession(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "sessionID"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteWorkSession(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "sessionID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReclassifySessions recomputes buckets for the window containing date.
func (h *Handler) ReclassifySessions(w http.ResponseWriter, r *http.Request) {
	var req ReclassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	day, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	sessions, err := h.Service.ReclassifyWindow(r.Context(), chi.URLParam(r, "companyID"), req.EmployeeID, day)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}

func decodeSession(w http.ResponseWriter, r *http.Request) (payroll.SessionInput, bool) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return payroll.SessionInput{}, false
	}
	workDate, err := optionalDate(req.WorkDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid work_date (use YYYY-MM-DD)", err)
		return payroll.SessionInput{}, false
	}
	return payroll.SessionInput{
		EmployeeID:   req.EmployeeID,
		ProjectID:    req.ProjectID,
		WorkDate:     workDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsPieceWork:  req.IsPieceWork,
		PieceWorkPay: req.PieceWorkPay,
		Notes:        req.Notes,
	}, true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpsertEmployee creates an employee, or updates one when id is set.
func (h *Handler) UpsertEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	e, err := h.Service.UpsertEmployee(r.Context(), chi.URLParam(r, "companyID"), hours.Employee{
		ID:         req.ID,
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps a service error onto its HTTP status. Anything the
// caller did not cause is logged and reported as 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *payperiod.ValidationError
		gErr *payperiod.GenerationError
		sErr *timeclass.SessionError
		pErr *payroll.PeriodConflictError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Code:    "invalid_config",
			Details: FieldErrorDetails{Field: vErr.Field, Message: vErr.Message},
		})
	case errors.As(err, &sErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Code:    "invalid_session",
			Details: FieldErrorDetails{Field: sErr.Field, Message: sErr.Message},
		})
	case errors.As(err, &gErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "generation_failed"})
	case errors.As(err, &pErr):
		code := "period_overlap"
		if pErr.Protected {
			code = "protected_period"
		}
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  code,
			Details: map[string]string{
				"existing":  pErr.Existing.String(),
				"generated": pErr.Generated.String(),
			},
		})
	case errors.Is(err, payroll.ErrProtectedPeriod):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "protected_period"})
	case errors.Is(err, payroll.ErrPeriodOverlap):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "period_overlap"})
	case errors.Is(err, payroll.ErrInvalidEmployee):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_employee"})
	case errors.Is(err, payroll.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Not allowed to view pay figures", Code: "forbidden"})
	case errors.Is(err, payroll.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func optionalDate(s string) (calendar.Date, error) {
	if s == "" {
		return calendar.Date{}, nil
	}
	return calendar.ParseDate(s)
}
