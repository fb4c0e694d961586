package payroll

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/timeclass"
)

// SessionInput carries the caller-editable fields of a work session.
// A zero WorkDate defaults to the date of StartTime. Start and end times are
// stored at whole-second resolution.
type SessionInput struct {
	EmployeeID   string
	ProjectID    string
	WorkDate     calendar.Date
	StartTime    time.Time
	EndTime      time.Time
	IsPieceWork  bool
	PieceWorkPay decimal.NullDecimal
	Notes        string
}

func (in SessionInput) apply(s *timeclass.Session) {
	s.EmployeeID = in.EmployeeID
	s.ProjectID = in.ProjectID
	s.WorkDate = in.WorkDate
	if s.WorkDate.IsZero() && !in.StartTime.IsZero() {
		s.WorkDate = calendar.DateOf(in.StartTime)
	}
	s.StartTime = in.StartTime.Truncate(time.Second)
	s.EndTime = in.EndTime.Truncate(time.Second)
	s.IsPieceWork = in.IsPieceWork
	s.PieceWorkPay = in.PieceWorkPay
	s.Notes = in.Notes
}

// =============================================================================
// SESSION MUTATIONS
// =============================================================================
//
// Every mutation reclassifies the policy window around the touched work date
// for the touched employee, inside the same transaction as the write. An edit
// that moves a session reclassifies both the old and the new window.
//
// Piece-work pay is a pay figure: only callers passing the financial gate may
// set it or see it. Sessions returned to anyone else carry no PieceWorkPay,
// and their edits leave the stored amount untouched.

// AddWorkSession records a session and returns it with its classified buckets.
func (s *Service) AddWorkSession(ctx context.Context, companyID string, in SessionInput) (timeclass.Session, error) {
	gateErr := s.gate.AuthorizeFinancial(ctx, companyID)
	if in.PieceWorkPay.Valid && gateErr != nil {
		return timeclass.Session{}, gateErr
	}
	financial := gateErr == nil

	now := s.now()
	sess := timeclass.Session{ID: s.newID(), CompanyID: companyID, CreatedAt: now, UpdatedAt: now}
	in.apply(&sess)
	if err := sess.Validate(); err != nil {
		s.recorder.ValidationFailed("session")
		return timeclass.Session{}, err
	}

	var out timeclass.Session
	err := s.store.WithTx(ctx, func(tx Store) error {
		cfg, err := s.loadConfig(ctx, tx, companyID)
		if err != nil {
			return err
		}
		if err := tx.InsertSession(ctx, sess); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		if err := s.reclassifyWindows(ctx, tx, cfg, sess); err != nil {
			return err
		}
		out, err = s.reload(ctx, tx, companyID, sess.ID)
		return err
	})
	if err != nil {
		return timeclass.Session{}, err
	}
	s.logger.Debug("session added",
		zap.String("company_id", companyID),
		zap.String("session_id", out.ID),
		zap.Stringer("buckets", out.Buckets))
	if !financial {
		out.PieceWorkPay = decimal.NullDecimal{}
	}
	return out, nil
}

// UpdateWorkSession replaces the editable fields of a stored session.
func (s *Service) UpdateWorkSession(ctx context.Context, companyID, sessionID string, in SessionInput) (timeclass.Session, error) {
	gateErr := s.gate.AuthorizeFinancial(ctx, companyID)
	if in.PieceWorkPay.Valid && gateErr != nil {
		return timeclass.Session{}, gateErr
	}
	financial := gateErr == nil

	var out timeclass.Session
	err := s.store.WithTx(ctx, func(tx Store) error {
		cfg, err := s.loadConfig(ctx, tx, companyID)
		if err != nil {
			return err
		}
		old, err := tx.GetSession(ctx, companyID, sessionID)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if old == nil {
			return notFound("session", sessionID)
		}

		updated := *old
		in.apply(&updated)
		if !financial {
			updated.PieceWorkPay = old.PieceWorkPay
		}
		updated.UpdatedAt = s.now()
		if err := updated.Validate(); err != nil {
			s.recorder.ValidationFailed("session")
			return err
		}
		if err := tx.UpdateSession(ctx, updated); err != nil {
			return fmt.Errorf("updating session: %w", err)
		}
		if err := s.reclassifyWindows(ctx, tx, cfg, *old, updated); err != nil {
			return err
		}
		out, err = s.reload(ctx, tx, companyID, sessionID)
		return err
	})
	if err != nil {
		return timeclass.Session{}, err
	}
	if !financial {
		out.PieceWorkPay = decimal.NullDecimal{}
	}
	return out, nil
}

// DeleteWorkSession removes a session and reclassifies what remains of its window.
func (s *Service) DeleteWorkSession(ctx context.Context, companyID, sessionID string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		cfg, err := s.loadConfig(ctx, tx, companyID)
		if err != nil {
			return err
		}
		old, err := tx.GetSession(ctx, companyID, sessionID)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if old == nil {
			return notFound("session", sessionID)
		}
		if err := tx.DeleteSession(ctx, companyID, sessionID); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		return s.reclassifyWindows(ctx, tx, cfg, *old)
	})
}

// ReclassifyWindow recomputes buckets for one employee's policy window around
// day and returns the window's sessions in chronological order.
func (s *Service) ReclassifyWindow(ctx context.Context, companyID, employeeID string, day calendar.Date) ([]timeclass.Session, error) {
	var out []timeclass.Session
	err := s.store.WithTx(ctx, func(tx Store) error {
		cfg, err := s.loadConfig(ctx, tx, companyID)
		if err != nil {
			return err
		}
		filter := SessionFilter{CompanyID: companyID, EmployeeID: employeeID}.InRange(timeclass.Scope(cfg, day))
		if _, err := s.reclassify(ctx, tx, cfg, filter); err != nil {
			return err
		}
		out, err = tx.ListSessions(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortChronologically(out)
	s.redactPay(ctx, companyID, out)
	return out, nil
}

// ListWorkSessions returns the sessions matching filter in chronological order.
func (s *Service) ListWorkSessions(ctx context.Context, filter SessionFilter) ([]timeclass.Session, error) {
	out, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sortChronologically(out)
	s.redactPay(ctx, filter.CompanyID, out)
	return out, nil
}

func (s *Service) canViewPay(ctx context.Context, companyID string) bool {
	return s.gate.AuthorizeFinancial(ctx, companyID) == nil
}

func (s *Service) redactPay(ctx context.Context, companyID string, sessions []timeclass.Session) {
	if len(sessions) == 0 || s.canViewPay(ctx, companyID) {
		return
	}
	for i := range sessions {
		sessions[i].PieceWorkPay = decimal.NullDecimal{}
	}
}

func (s *Service) reclassifyWindows(ctx context.Context, tx Store, cfg payperiod.Config, touched ...timeclass.Session) error {
	seen := make(map[string]bool)
	for _, sess := range touched {
		scope := timeclass.Scope(cfg, sess.WorkDate)
		key := sess.EmployeeID + "|" + scope.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		filter := SessionFilter{CompanyID: cfg.CompanyID, EmployeeID: sess.EmployeeID}.InRange(scope)
		if _, err := s.reclassify(ctx, tx, cfg, filter); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reload(ctx context.Context, tx Store, companyID, sessionID string) (timeclass.Session, error) {
	sess, err := tx.GetSession(ctx, companyID, sessionID)
	if err != nil {
		return timeclass.Session{}, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return timeclass.Session{}, notFound("session", sessionID)
	}
	return *sess, nil
}

func sortChronologically(sessions []timeclass.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		}
		return sessions[i].ID < sessions[j].ID
	})
}

// =============================================================================
// DIRECTORY
// =============================================================================

// UpsertEmployee creates or replaces a directory record. Directory records
// carry hourly rates, so the caller must pass the financial gate.
func (s *Service) UpsertEmployee(ctx context.Context, companyID string, e hours.Employee) (hours.Employee, error) {
	if err := s.gate.AuthorizeFinancial(ctx, companyID); err != nil {
		return hours.Employee{}, err
	}
	e.CompanyID = companyID
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Name == "" {
		return hours.Employee{}, fmt.Errorf("employee %s: name is required: %w", e.ID, ErrInvalidEmployee)
	}
	if e.HourlyRate.IsNegative() {
		return hours.Employee{}, fmt.Errorf("employee %s: hourly rate must not be negative: %w", e.ID, ErrInvalidEmployee)
	}
	if err := s.directory.SaveEmployee(ctx, e); err != nil {
		return hours.Employee{}, fmt.Errorf("saving employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns the company's directory ordered by name. The caller
// must pass the financial gate.
func (s *Service) ListEmployees(ctx context.Context, companyID string) ([]hours.Employee, error) {
	if err := s.gate.AuthorizeFinancial(ctx, companyID); err != nil {
		return nil, err
	}
	out, err := s.directory.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
