// Package memory provides an in-memory payroll.Store and payroll.Directory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/hours"
	"github.com/warp/payroll-engine/payperiod"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclass"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu sync.RWMutex
	d  data
}

// data holds all tables. Its methods assume the caller holds the lock.
type data struct {
	configs   map[string]payperiod.Config
	periods   map[string]payperiod.Period
	sessions  map[string]timeclass.Session
	employees map[employeeKey]hours.Employee
}

type employeeKey struct {
	CompanyID  string
	EmployeeID string
}

var (
	_ payroll.Store     = (*Store)(nil)
	_ payroll.Directory = (*Store)(nil)
)

func New() *Store {
	return &Store{d: data{
		configs:   make(map[string]payperiod.Config),
		periods:   make(map[string]payperiod.Period),
		sessions:  make(map[string]timeclass.Session),
		employees: make(map[employeeKey]hours.Employee),
	}}
}

func (m *Store) read(fn func(d *data)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(&m.d)
}

func (m *Store) write(fn func(d *data)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.d)
}

func (m *Store) GetConfig(_ context.Context, companyID string) (cfg *payperiod.Config, err error) {
	m.read(func(d *data) { cfg = d.getConfig(companyID) })
	return cfg, nil
}

func (m *Store) SaveConfig(_ context.Context, cfg payperiod.Config) error {
	m.write(func(d *data) { d.configs[cfg.CompanyID] = cfg })
	return nil
}

func (m *Store) ListCompanies(_ context.Context) (out []string, err error) {
	m.read(func(d *data) { out = d.listCompanies() })
	return out, nil
}

func (m *Store) ListPeriods(_ context.Context, companyID string) (out []payperiod.Period, err error) {
	m.read(func(d *data) { out = d.listPeriods(companyID) })
	return out, nil
}

func (m *Store) GetPeriod(_ context.Context, companyID, periodID string) (p *payperiod.Period, err error) {
	m.read(func(d *data) { p = d.getPeriod(companyID, periodID) })
	return p, nil
}

func (m *Store) InsertPeriods(_ context.Context, periods []payperiod.Period) error {
	m.write(func(d *data) { d.putPeriods(periods) })
	return nil
}

func (m *Store) DeletePeriods(_ context.Context, companyID string, ids []string) error {
	m.write(func(d *data) { d.deletePeriods(companyID, ids) })
	return nil
}

func (m *Store) UpdatePeriodStatuses(_ context.Context, periods []payperiod.Period) error {
	m.write(func(d *data) { d.updateStatuses(periods) })
	return nil
}

func (m *Store) GetSession(_ context.Context, companyID, sessionID string) (s *timeclass.Session, err error) {
	m.read(func(d *data) { s = d.getSession(companyID, sessionID) })
	return s, nil
}

func (m *Store) ListSessions(_ context.Context, filter payroll.SessionFilter) (out []timeclass.Session, err error) {
	m.read(func(d *data) { out = d.listSessions(filter) })
	return out, nil
}

func (m *Store) CountSessions(_ context.Context, filter payroll.SessionFilter) (n int, err error) {
	m.read(func(d *data) { n = len(d.listSessions(filter)) })
	return n, nil
}

func (m *Store) InsertSession(_ context.Context, s timeclass.Session) error {
	m.write(func(d *data) { d.sessions[s.ID] = s })
	return nil
}

func (m *Store) UpdateSession(_ context.Context, s timeclass.Session) error {
	m.write(func(d *data) { d.sessions[s.ID] = s })
	return nil
}

func (m *Store) DeleteSession(_ context.Context, companyID, sessionID string) error {
	m.write(func(d *data) { d.deleteSession(companyID, sessionID) })
	return nil
}

func (m *Store) UpdateBuckets(_ context.Context, sessions []timeclass.Session) error {
	m.write(func(d *data) { d.updateBuckets(sessions) })
	return nil
}

func (m *Store) GetEmployee(_ context.Context, companyID, employeeID string) (e *hours.Employee, err error) {
	m.read(func(d *data) {
		if found, ok := d.employees[employeeKey{companyID, employeeID}]; ok {
			e = &found
		}
	})
	return e, nil
}

func (m *Store) ListEmployees(_ context.Context, companyID string) (out []hours.Employee, err error) {
	m.read(func(d *data) {
		for k, e := range d.employees {
			if k.CompanyID == companyID {
				out = append(out, e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) SaveEmployee(_ context.Context, e hours.Employee) error {
	m.write(func(d *data) { d.employees[employeeKey{e.CompanyID, e.ID}] = e })
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
// The write lock is held for the whole of fn, so readers see either the state
// before or the state after.
func (m *Store) WithTx(_ context.Context, fn func(payroll.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.d.clone()
	if err := fn(&txView{d: &m.d}); err != nil {
		m.d = snapshot
		return err
	}
	return nil
}

type txView struct {
	d *data
}

var _ payroll.Store = (*txView)(nil)

func (tv *txView) GetConfig(_ context.Context, companyID string) (*payperiod.Config, error) {
	return tv.d.getConfig(companyID), nil
}

func (tv *txView) SaveConfig(_ context.Context, cfg payperiod.Config) error {
	tv.d.configs[cfg.CompanyID] = cfg
	return nil
}

func (tv *txView) ListCompanies(_ context.Context) ([]string, error) {
	return tv.d.listCompanies(), nil
}

func (tv *txView) ListPeriods(_ context.Context, companyID string) ([]payperiod.Period, error) {
	return tv.d.listPeriods(companyID), nil
}

func (tv *txView) GetPeriod(_ context.Context, companyID, periodID string) (*payperiod.Period, error) {
	return tv.d.getPeriod(companyID, periodID), nil
}

func (tv *txView) InsertPeriods(_ context.Context, periods []payperiod.Period) error {
	tv.d.putPeriods(periods)
	return nil
}

func (tv *txView) DeletePeriods(_ context.Context, companyID string, ids []string) error {
	tv.d.deletePeriods(companyID, ids)
	return nil
}

func (tv *txView) UpdatePeriodStatuses(_ context.Context, periods []payperiod.Period) error {
	tv.d.updateStatuses(periods)
	return nil
}

func (tv *txView) GetSession(_ context.Context, companyID, sessionID string) (*timeclass.Session, error) {
	return tv.d.getSession(companyID, sessionID), nil
}

func (tv *txView) ListSessions(_ context.Context, filter payroll.SessionFilter) ([]timeclass.Session, error) {
	return tv.d.listSessions(filter), nil
}

func (tv *txView) CountSessions(_ context.Context, filter payroll.SessionFilter) (int, error) {
	return len(tv.d.listSessions(filter)), nil
}

func (tv *txView) InsertSession(_ context.Context, s timeclass.Session) error {
	tv.d.sessions[s.ID] = s
	return nil
}

func (tv *txView) UpdateSession(_ context.Context, s timeclass.Session) error {
	tv.d.sessions[s.ID] = s
	return nil
}

func (tv *txView) DeleteSession(_ context.Context, companyID, sessionID string) error {
	tv.d.deleteSession(companyID, sessionID)
	return nil
}

func (tv *txView) UpdateBuckets(_ context.Context, sessions []timeclass.Session) error {
	tv.d.updateBuckets(sessions)
	return nil
}

// WithTx inside a transaction joins it.
func (tv *txView) WithTx(_ context.Context, fn func(payroll.Store) error) error {
	return fn(tv)
}

// =============================================================================
// TABLE OPERATIONS (caller holds the lock)
// =============================================================================

func (d *data) clone() data {
	out := data{
		configs:   make(map[string]payperiod.Config, len(d.configs)),
		periods:   make(map[string]payperiod.Period, len(d.periods)),
		sessions:  make(map[string]timeclass.Session, len(d.sessions)),
		employees: make(map[employeeKey]hours.Employee, len(d.employees)),
	}
	for k, v := range d.configs {
		out.configs[k] = v
	}
	for k, v := range d.periods {
		out.periods[k] = v
	}
	for k, v := range d.sessions {
		out.sessions[k] = v
	}
	for k, v := range d.employees {
		out.employees[k] = v
	}
	return out
}

func (d *data) getConfig(companyID string) *payperiod.Config {
	cfg, ok := d.configs[companyID]
	if !ok {
		return nil
	}
	return &cfg
}

func (d *data) listCompanies() []string {
	out := make([]string, 0, len(d.configs))
	for id := range d.configs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (d *data) listPeriods(companyID string) []payperiod.Period {
	var out []payperiod.Period
	for _, p := range d.periods {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (d *data) getPeriod(companyID, periodID string) *payperiod.Period {
	p, ok := d.periods[periodID]
	if !ok || p.CompanyID != companyID {
		return nil
	}
	return &p
}

func (d *data) putPeriods(periods []payperiod.Period) {
	for _, p := range periods {
		d.periods[p.ID] = p
	}
}

func (d *data) deletePeriods(companyID string, ids []string) {
	for _, id := range ids {
		if p, ok := d.periods[id]; ok && p.CompanyID == companyID {
			delete(d.periods, id)
		}
	}
}

func (d *data) updateStatuses(periods []payperiod.Period) {
	for _, p := range periods {
		if stored, ok := d.periods[p.ID]; ok {
			stored.Status = p.Status
			d.periods[p.ID] = stored
		}
	}
}

func (d *data) getSession(companyID, sessionID string) *timeclass.Session {
	s, ok := d.sessions[sessionID]
	if !ok || s.CompanyID != companyID {
		return nil
	}
	return &s
}

func (d *data) listSessions(filter payroll.SessionFilter) []timeclass.Session {
	var out []timeclass.Session
	for _, s := range d.sessions {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (d *data) deleteSession(companyID, sessionID string) {
	if s, ok := d.sessions[sessionID]; ok && s.CompanyID == companyID {
		delete(d.sessions, sessionID)
	}
}

func (d *data) updateBuckets(sessions []timeclass.Session) {
	for _, s := range sessions {
		if stored, ok := d.sessions[s.ID]; ok {
			stored.Buckets = s.Buckets
			stored.UpdatedAt = s.UpdatedAt
			d.sessions[s.ID] = stored
		}
	}
}
