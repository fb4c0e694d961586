package payroll

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/timeclass"
)

// =============================================================================
// PERIOD GENERATION
// =============================================================================

// GeneratePeriods generates n periods starting with the one containing today
// and stores them. With clearExisting, stored current and upcoming periods
// without sessions are replaced; past periods and periods holding sessions are
// kept, and a generated period that overlaps one of them with different bounds
// fails the whole call with ErrProtectedPeriod. Without clearExisting, any partial overlap fails with
// ErrPeriodOverlap. Periods with identical bounds are reused, keeping their ID.
func (s *Service) GeneratePeriods(ctx context.Context, companyID string, n int, clearExisting bool) ([]payperiod.Period, error) {
	var out []payperiod.Period
	err := s.store.WithTx(ctx, func(tx Store) error {
		cfg, err := s.loadConfig(ctx, tx, companyID)
		if err != nil {
			return err
		}
		out, err = s.generate(ctx, tx, cfg, n, clearExisting)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) generate(ctx context.Context, tx Store, cfg payperiod.Config, n int, clearExisting bool) ([]payperiod.Period, error) {
	today := s.clock.Today()
	generated, err := payperiod.Generate(cfg, today, n)
	if err != nil {
		s.recorder.ValidationFailed("generation")
		return nil, err
	}

	existing, err := tx.ListPeriods(ctx, cfg.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("listing periods: %w", err)
	}

	keep := existing
	protected := make(map[string]bool)
	if clearExisting {
		keep, err = s.clearPeriods(ctx, tx, cfg.CompanyID, today, existing, generated, protected)
		if err != nil {
			return nil, err
		}
	}

	var inserts, result []payperiod.Period
	for _, g := range generated {
		reused := false
		for _, k := range keep {
			if k.Range().Equal(g.Range()) {
				result = append(result, k)
				reused = true
				break
			}
			if k.Range().Overlaps(g.Range()) {
				conflict := &PeriodConflictError{Existing: k.Range(), Generated: g.Range(), Protected: protected[k.ID]}
				s.logger.Warn("period generation conflict",
					zap.String("company_id", cfg.CompanyID),
					zap.Stringer("existing", k.Range()),
					zap.Stringer("generated", g.Range()),
					zap.Bool("protected", conflict.Protected))
				return nil, conflict
			}
		}
		if reused {
			continue
		}
		g.ID = s.newID()
		g.CompanyID = cfg.CompanyID
		g.CreatedAt = s.now()
		inserts = append(inserts, g)
		result = append(result, g)
	}

	if len(inserts) > 0 {
		if err := tx.InsertPeriods(ctx, inserts); err != nil {
			return nil, fmt.Errorf("inserting periods: %w", err)
		}
	}
	s.recorder.PeriodsGenerated(len(inserts))
	s.logger.Info("periods generated",
		zap.String("company_id", cfg.CompanyID),
		zap.String("period_type", string(cfg.PeriodType)),
		zap.Int("requested", n),
		zap.Int("inserted", len(inserts)),
		zap.Int("reused", len(result)-len(inserts)))

	return payperiod.WithStatus(result, today), nil
}

// clearPeriods deletes every stored period that has not ended, has no
// sessions and is not regenerated with identical bounds. It returns the periods
// left in place and marks the ones it was not allowed to drop in protected.
func (s *Service) clearPeriods(ctx context.Context, tx Store, companyID string, today calendar.Date, existing, generated []payperiod.Period, protected map[string]bool) ([]payperiod.Period, error) {
	wanted := make(map[string]bool, len(generated))
	for _, g := range generated {
		wanted[g.Range().String()] = true
	}

	var keep []payperiod.Period
	var drop []string
	for _, p := range existing {
		if p.End.Before(today) {
			protected[p.ID] = true
			keep = append(keep, p)
			continue
		}
		count, err := tx.CountSessions(ctx, SessionFilter{CompanyID: companyID}.InRange(p.Range()))
		if err != nil {
			return nil, fmt.Errorf("counting sessions: %w", err)
		}
		switch {
		case count > 0:
			protected[p.ID] = true
			keep = append(keep, p)
			s.logger.Info("keeping period with recorded sessions",
				zap.String("company_id", companyID),
				zap.String("period_id", p.ID),
				zap.Int("sessions", count))
		case wanted[p.Range().String()]:
			keep = append(keep, p)
		default:
			drop = append(drop, p.ID)
		}
	}
	if len(drop) > 0 {
		if err := tx.DeletePeriods(ctx, companyID, drop); err != nil {
			return nil, fmt.Errorf("deleting periods: %w", err)
		}
	}
	return keep, nil
}

// ListPeriods returns the company's periods in date order with current status.
func (s *Service) ListPeriods(ctx context.Context, companyID string) ([]payperiod.Period, error) {
	periods, err := s.store.ListPeriods(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing periods: %w", err)
	}
	return payperiod.WithStatus(periods, s.clock.Today()), nil
}

func (s *Service) GetPeriod(ctx context.Context, companyID, periodID string) (payperiod.Period, error) {
	p, err := s.store.GetPeriod(ctx, companyID, periodID)
	if err != nil {
		return payperiod.Period{}, fmt.Errorf("loading period: %w", err)
	}
	if p == nil {
		return payperiod.Period{}, notFound("period", periodID)
	}
	p.Status = payperiod.StatusAt(p.Range(), s.clock.Today())
	return *p, nil
}

// =============================================================================
// STATUS
// =============================================================================

// RefreshStatuses rewrites stored period statuses that no longer match today.
// Reads already recompute status; this keeps the stored column in step for
// external consumers of the database.
func (s *Service) RefreshStatuses(ctx context.Context) (int, error) {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing companies: %w", err)
	}
	today := s.clock.Today()

	updated := 0
	for _, companyID := range companies {
		err := s.store.WithTx(ctx, func(tx Store) error {
			periods, err := tx.ListPeriods(ctx, companyID)
			if err != nil {
				return err
			}
			var stale []payperiod.Period
			for _, p := range periods {
				if status := payperiod.StatusAt(p.Range(), today); status != p.Status {
					p.Status = status
					stale = append(stale, p)
				}
			}
			if len(stale) == 0 {
				return nil
			}
			updated += len(stale)
			return tx.UpdatePeriodStatuses(ctx, stale)
		})
		if err != nil {
			return updated, fmt.Errorf("refreshing company %s: %w", companyID, err)
		}
	}
	s.recorder.StatusesRefreshed(updated)
	return updated, nil
}

// =============================================================================
// HOURS
// =============================================================================

// GetHoursForPeriod builds the per-employee hours and pay report for a period.
// The caller must pass the financial gate.
func (s *Service) GetHoursForPeriod(ctx context.Context, companyID, periodID string) (hours.Report, error) {
	if err := s.gate.AuthorizeFinancial(ctx, companyID); err != nil {
		return hours.Report{}, err
	}

	// Period, config and sessions come from one snapshot so a concurrent
	// config save cannot pair new buckets with the old multipliers.
	var (
		period   payperiod.Period
		cfg      payperiod.Config
		sessions []timeclass.Session
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetPeriod(ctx, companyID, periodID)
		if err != nil {
			return fmt.Errorf("loading period: %w", err)
		}
		if p == nil {
			return notFound("period", periodID)
		}
		period = *p
		period.Status = payperiod.StatusAt(period.Range(), s.clock.Today())

		if cfg, err = s.loadConfig(ctx, tx, companyID); err != nil {
			return err
		}
		sessions, err = tx.ListSessions(ctx, SessionFilter{CompanyID: companyID}.InRange(period.Range()))
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return hours.Report{}, err
	}
	employees, err := s.directory.ListEmployees(ctx, companyID)
	if err != nil {
		return hours.Report{}, fmt.Errorf("listing employees: %w", err)
	}

	byID := make(map[string]hours.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	for _, sess := range sessions {
		if _, ok := byID[sess.EmployeeID]; !ok {
			s.logger.Warn("session for unknown employee",
				zap.String("company_id", companyID),
				zap.String("employee_id", sess.EmployeeID),
				zap.String("session_id", sess.ID))
		}
	}

	return hours.BuildReport(period, hours.Aggregate(period, sessions, byID, cfg)), nil
}
