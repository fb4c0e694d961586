/*
service.go - Company-scoped payroll operations

The Service is the only writer of configs, periods and sessions. It owns the
rules that span more than one package:

  CONFIG:   raw input -> payperiod.Resolve -> store. If the overtime policy
            changed, every stored session of the company is reclassified in
            the same transaction.
  PERIODS:  payperiod.Generate, then merge with stored periods. Periods that
            already hold sessions are protected from regeneration.
  SESSIONS: every add/edit/delete reclassifies the affected policy window
            (day or work week) for that employee, atomically with the write.
  HOURS:    gated by FinancialGate, then hours.Aggregate over the period.

Hour buckets are stored for fast reads but are always a pure function of the
sessions in their window and the current config.
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/timeclass"
)

// Clock supplies "today" for period generation and status.
type Clock = calendar.Clock

// Recorder receives domain counters. observability.Metrics implements it.
type Recorder interface {
	PeriodsGenerated(n int)
	SessionsClassified(n int)
	ValidationFailed(kind string)
	StatusesRefreshed(updated int)
}

type noopRecorder struct{}

func (noopRecorder) PeriodsGenerated(int)    {}
func (noopRecorder) SessionsClassified(int)  {}
func (noopRecorder) ValidationFailed(string) {}
func (noopRecorder) StatusesRefreshed(int)   {}

// Service implements the payroll operations on top of a Store and Directory.
type Service struct {
	store     Store
	directory Directory
	gate      FinancialGate
	clock     Clock
	logger    *zap.Logger
	recorder  Recorder
	newID     func() string
	now       func() time.Time
}

type Option func(*Service)

func WithGate(g FinancialGate) Option { return func(s *Service) { s.gate = g } }
func WithClock(c Clock) Option        { return func(s *Service) { s.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }
func WithRecorder(r Recorder) Option  { return func(s *Service) { s.recorder = r } }

// WithIDs replaces the uuid generator. Tests use it for stable IDs.
func WithIDs(fn func() string) Option { return func(s *Service) { s.newID = fn } }

func NewService(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		gate:      NewRoleGate(),
		clock:     calendar.SystemClock{Location: time.UTC},
		logger:    zap.NewNop(),
		recorder:  noopRecorder{},
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the service clock's current date.
func (s *Service) Today() calendar.Date { return s.clock.Today() }

// =============================================================================
// CONFIG
// =============================================================================

// SaveConfig validates raw and stores it as the company's configuration.
func (s *Service) SaveConfig(ctx context.Context, companyID string, raw payperiod.RawConfig) (payperiod.Config, error) {
	cfg, err := payperiod.Resolve(companyID, raw)
	if err != nil {
		s.recorder.ValidationFailed("config")
		return payperiod.Config{}, err
	}
	cfg.UpdatedAt = s.now()

	err = s.store.WithTx(ctx, func(tx Store) error {
		prev, err := tx.GetConfig(ctx, companyID)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		if prev == nil || prev.SameOvertimePolicy(cfg) {
			return nil
		}
		n, err := s.reclassify(ctx, tx, cfg, SessionFilter{CompanyID: companyID})
		if err != nil {
			return err
		}
		s.logger.Info("overtime policy changed, sessions reclassified",
			zap.String("company_id", companyID),
			zap.Int("changed", n))
		return nil
	})
	if err != nil {
		return payperiod.Config{}, err
	}
	return cfg, nil
}

func (s *Service) GetConfig(ctx context.Context, companyID string) (payperiod.Config, error) {
	return s.loadConfig(ctx, s.store, companyID)
}

func (s *Service) loadConfig(ctx context.Context, st Store, companyID string) (payperiod.Config, error) {
	cfg, err := st.GetConfig(ctx, companyID)
	if err != nil {
		return payperiod.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if cfg == nil {
		return payperiod.Config{}, notFound("config for company", companyID)
	}
	return *cfg, nil
}

// EnsureDefaultConfig gives a company without configuration the onboarding
// default and n generated periods. It reports whether anything was created;
// an existing config is returned untouched.
func (s *Service) EnsureDefaultConfig(ctx context.Context, companyID string, n int) (payperiod.Config, bool, error) {
	var (
		result  payperiod.Config
		created bool
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetConfig(ctx, companyID)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if existing != nil {
			result = *existing
			return nil
		}

		cfg := payperiod.DefaultConfig(companyID)
		cfg.UpdatedAt = s.now()
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return fmt.Errorf("saving default config: %w", err)
		}
		if _, err := s.generate(ctx, tx, cfg, n, false); err != nil {
			return err
		}
		result, created = cfg, true
		return nil
	})
	if err != nil {
		return payperiod.Config{}, false, err
	}
	if created {
		s.logger.Info("default config created",
			zap.String("company_id", companyID),
			zap.Int("periods", n))
	}
	return result, created, nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// reclassify recomputes buckets for every session matching filter and writes
// back the ones that changed. The filter must cover whole policy windows.
func (s *Service) reclassify(ctx context.Context, tx Store, cfg payperiod.Config, filter SessionFilter) (int, error) {
	sessions, err := tx.ListSessions(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}
	byID := make(map[string]timeclass.Buckets, len(sessions))
	for _, sess := range sessions {
		byID[sess.ID] = sess.Buckets
	}

	var changed []timeclass.Session
	for _, sess := range timeclass.Classify(sessions, cfg) {
		if !sess.Buckets.Equal(byID[sess.ID]) {
			sess.UpdatedAt = s.now()
			changed = append(changed, sess)
		}
	}
	if len(changed) > 0 {
		if err := tx.UpdateBuckets(ctx, changed); err != nil {
			return 0, fmt.Errorf("updating buckets: %w", err)
		}
	}
	s.recorder.SessionsClassified(len(sessions))
	return len(changed), nil
}
