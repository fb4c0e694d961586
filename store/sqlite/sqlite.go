/*
Package sqlite provides a SQLite-backed implementation of the payroll storage
interfaces.

PURPOSE:
  Implements payroll.Store and payroll.Directory using SQLite. In production
  the same patterns apply to PostgreSQL with minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  payroll.Store:     configs, pay periods, work sessions, WithTx
  payroll.Directory: employee names and hourly rates

KEY TABLES:
  company_configs: one validated pay-period/overtime config per company
  pay_periods:     generated periods, unique per (company, start date)
  work_sessions:   worked intervals plus their derived hour buckets
  employees:       directory records keyed by (company, employee)

ENCODING:
  - Dates are TEXT in YYYY-MM-DD
  - Timestamps are TEXT in a fixed-width UTC layout so they sort lexically
  - Decimals are TEXT (shopspring/decimal implements Scanner and Valuer)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction, so readers never observe a half-applied change. In
  production with PostgreSQL, database-level isolation handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := payroll.NewService(store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool with versioned migrations.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclass"
)

// timestampLayout is fixed-width so that TEXT ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements payroll.Store and payroll.Directory using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	t  tables
}

var (
	_ payroll.Store     = (*Store)(nil)
	_ payroll.Directory = (*Store)(nil)
	_ payroll.Store     = (*txStore)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, t: tables{q: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS company_configs (
		company_id TEXT PRIMARY KEY,
		period_type TEXT NOT NULL,
		first_pay_day INTEGER NOT NULL DEFAULT 0,
		second_pay_day INTEGER NOT NULL DEFAULT 0,
		monthly_start_day INTEGER NOT NULL DEFAULT 0,
		monthly_end_day INTEGER NOT NULL DEFAULT 0,
		start_day_of_week INTEGER NOT NULL DEFAULT 0,
		bi_weekly_anchor_date TEXT,
		custom_start_date TEXT,
		custom_end_date TEXT,
		overtime_trigger_type TEXT NOT NULL,
		double_time_trigger_type TEXT NOT NULL,
		overtime_hours_threshold TEXT NOT NULL,
		double_time_hours_threshold TEXT NOT NULL,
		overtime_multiplier TEXT NOT NULL,
		double_time_multiplier TEXT NOT NULL,
		work_week_start_day INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (company_id, start_date)
	);

	CREATE TABLE IF NOT EXISTS work_sessions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		project_id TEXT,
		work_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		is_piece_work INTEGER NOT NULL DEFAULT 0,
		piece_work_pay TEXT,
		notes TEXT,
		regular_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		double_time_hours TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Reclassification reads one employee's window (hot path)
	CREATE INDEX IF NOT EXISTS idx_sessions_employee_date
		ON work_sessions(company_id, employee_id, work_date);
	-- Period reports and protection checks read a company's date range
	CREATE INDEX IF NOT EXISTS idx_sessions_company_date
		ON work_sessions(company_id, work_date);

	CREATE TABLE IF NOT EXISTS employees (
		company_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		PRIMARY KEY (company_id, id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOCKED ACCESS (payroll.Store / payroll.Directory)
// =============================================================================

func (s *Store) GetConfig(ctx context.Context, companyID string) (*payperiod.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.getConfig(ctx, companyID)
}

func (s *Store) SaveConfig(ctx context.Context, cfg payperiod.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.saveConfig(ctx, cfg)
}

func (s *Store) ListCompanies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.listCompanies(ctx)
}

func (s *Store) ListPeriods(ctx context.Context, companyID string) ([]payperiod.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.listPeriods(ctx, companyID)
}

func (s *Store) GetPeriod(ctx context.Context, companyID, periodID string) (*payperiod.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.getPeriod(ctx, companyID, periodID)
}

func (s *Store) InsertPeriods(ctx context.Context, periods []payperiod.Period) error {
	return s.WithTx(ctx, func(tx payroll.Store) error { return tx.InsertPeriods(ctx, periods) })
}

func (s *Store) DeletePeriods(ctx context.Context, companyID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.deletePeriods(ctx, companyID, ids)
}

func (s *Store) UpdatePeriodStatuses(ctx context.Context, periods []payperiod.Period) error {
	return s.WithTx(ctx, func(tx payroll.Store) error { return tx.UpdatePeriodStatuses(ctx, periods) })
}

func (s *Store) GetSession(ctx context.Context, companyID, sessionID string) (*timeclass.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.getSession(ctx, companyID, sessionID)
}

func (s *Store) ListSessions(ctx context.Context, filter payroll.SessionFilter) ([]timeclass.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.listSessions(ctx, filter)
}

func (s *Store) CountSessions(ctx context.Context, filter payroll.SessionFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.countSessions(ctx, filter)
}

func (s *Store) InsertSession(ctx context.Context, sess timeclass.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.insertSession(ctx, sess)
}

func (s *Store) UpdateSession(ctx context.Context, sess timeclass.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.updateSession(ctx, sess)
}

func (s *Store) DeleteSession(ctx context.Context, companyID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.deleteSession(ctx, companyID, sessionID)
}

func (s *Store) UpdateBuckets(ctx context.Context, sessions []timeclass.Session) error {
	return s.WithTx(ctx, func(tx payroll.Store) error { return tx.UpdateBuckets(ctx, sessions) })
}

func (s *Store) GetEmployee(ctx context.Context, companyID, employeeID string) (*hours.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.getEmployee(ctx, companyID, employeeID)
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]hours.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.listEmployees(ctx, companyID)
}

func (s *Store) SaveEmployee(ctx context.Context, e hours.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.saveEmployee(ctx, e)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{t: tables{q: sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every call on the open *sql.Tx. The parent lock is already held.
type txStore struct {
	t tables
}

func (ts *txStore) GetConfig(ctx context.Context, companyID string) (*payperiod.Config, error) {
	return ts.t.getConfig(ctx, companyID)
}

func (ts *txStore) SaveConfig(ctx context.Context, cfg payperiod.Config) error {
	return ts.t.saveConfig(ctx, cfg)
}

func (ts *txStore) ListCompanies(ctx context.Context) ([]string, error) {
	return ts.t.listCompanies(ctx)
}

func (ts *txStore) ListPeriods(ctx context.Context, companyID string) ([]payperiod.Period, error) {
	return ts.t.listPeriods(ctx, companyID)
}

func (ts *txStore) GetPeriod(ctx context.Context, companyID, periodID string) (*payperiod.Period, error) {
	return ts.t.getPeriod(ctx, companyID, periodID)
}

func (ts *txStore) InsertPeriods(ctx context.Context, periods []payperiod.Period) error {
	for _, p := range periods {
		if err := ts.t.insertPeriod(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) DeletePeriods(ctx context.Context, companyID string, ids []string) error {
	return ts.t.deletePeriods(ctx, companyID, ids)
}

func (ts *txStore) UpdatePeriodStatuses(ctx context.Context, periods []payperiod.Period) error {
	for _, p := range periods {
		if err := ts.t.updatePeriodStatus(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) GetSession(ctx context.Context, companyID, sessionID string) (*timeclass.Session, error) {
	return ts.t.getSession(ctx, companyID, sessionID)
}

func (ts *txStore) ListSessions(ctx context.Context, filter payroll.SessionFilter) ([]timeclass.Session, error) {
	return ts.t.listSessions(ctx, filter)
}

func (ts *txStore) CountSessions(ctx context.Context, filter payroll.SessionFilter) (int, error) {
	return ts.t.countSessions(ctx, filter)
}

func (ts *txStore) InsertSession(ctx context.Context, sess timeclass.Session) error {
	return ts.t.insertSession(ctx, sess)
}

func (ts *txStore) UpdateSession(ctx context.Context, sess timeclass.Session) error {
	return ts.t.updateSession(ctx, sess)
}

func (ts *txStore) DeleteSession(ctx context.Context, companyID, sessionID string) error {
	return ts.t.deleteSession(ctx, companyID, sessionID)
}

func (ts *txStore) UpdateBuckets(ctx context.Context, sessions []timeclass.Session) error {
	for _, sess := range sessions {
		if err := ts.t.updateBuckets(ctx, sess); err != nil {
			return err
		}
	}
	return nil
}

// WithTx inside a transaction joins it.
func (ts *txStore) WithTx(_ context.Context, fn func(store payroll.Store) error) error {
	return fn(ts)
}
