// Package store provides in-process payroll.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/worklog/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	employees   map[string]payroll.Employee
	records     []payroll.WorkRecord // sorted by Date, insertion order within a day
	idempotency map[string]bool
	punches     map[punchKey]payroll.PunchClockEntry
	earnings    map[earningsKey]payroll.EarningsLine

	archivedRecords  []payroll.WorkRecord
	archivedPunches  []payroll.PunchClockEntry
	archivedEarnings []payroll.EarningsLine
}

var _ payroll.Store = (*Memory)(nil)

type punchKey struct {
	Employee  string
	WeekStart payroll.Date
}

type earningsKey struct {
	Start    payroll.Date
	End      payroll.Date
	Employee string
}

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.employees = make(map[string]payroll.Employee)
	m.records = nil
	m.idempotency = make(map[string]bool)
	m.punches = make(map[punchKey]payroll.PunchClockEntry)
	m.earnings = make(map[earningsKey]payroll.EarningsLine)
	m.archivedRecords = nil
	m.archivedPunches = nil
	m.archivedEarnings = nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.employees[emp.Name]; ok && emp.CreatedAt.IsZero() {
		emp.CreatedAt = existing.CreatedAt
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}
	m.employees[emp.Name] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, name string) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[name]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) DeleteEmployee(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[name]; !ok {
		return payroll.ErrEmployeeNotFound
	}
	delete(m.employees, name)
	return nil
}

// =============================================================================
// RECORDS - Append-only
// =============================================================================

// Append adds a single record. Append-only.
func (m *Memory) Append(_ context.Context, rec payroll.WorkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.IdempotencyKey != "" && m.idempotency[rec.IdempotencyKey] {
		return payroll.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(rec)
	return nil
}

// AppendBatch adds multiple records atomically.
func (m *Memory) AppendBatch(_ context.Context, recs []payroll.WorkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check)
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if rec.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[rec.IdempotencyKey] || seen[rec.IdempotencyKey] {
			return payroll.ErrDuplicateIdempotencyKey
		}
		seen[rec.IdempotencyKey] = true
	}

	for _, rec := range recs {
		m.appendLocked(rec)
	}
	return nil
}

func (m *Memory) appendLocked(rec payroll.WorkRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	// Binary search keeps records ordered by date
	i := sort.Search(len(m.records), func(i int) bool {
		return m.records[i].Date.After(rec.Date)
	})
	m.records = append(m.records, payroll.WorkRecord{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = rec

	if rec.IdempotencyKey != "" {
		m.idempotency[rec.IdempotencyKey] = true
	}
}

func (m *Memory) ListRecords(_ context.Context, filter payroll.RecordFilter) ([]payroll.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.WorkRecord
	for _, r := range m.records {
		if !filter.Matches(r) {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// =============================================================================
// PUNCH CLOCK
// =============================================================================

func (m *Memory) SavePunchClock(_ context.Context, entry payroll.PunchClockEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ImportedAt.IsZero() {
		entry.ImportedAt = time.Now()
	}
	m.punches[punchKey{Employee: entry.Employee, WeekStart: entry.WeekStart}] = entry
	return nil
}

func (m *Memory) GetPunchClock(_ context.Context, employee string, weekStart payroll.Date) (*payroll.PunchClockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.punches[punchKey{Employee: employee, WeekStart: weekStart}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListPunchClock(_ context.Context, from, to payroll.Date) ([]payroll.PunchClockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.PunchClockEntry
	for _, e := range m.punches {
		if e.WeekStart.Before(from) || e.WeekStart.After(to) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].WeekStart.Equal(result[j].WeekStart) {
			return result[i].WeekStart.Before(result[j].WeekStart)
		}
		return result[i].Employee < result[j].Employee
	})
	return result, nil
}

func (m *Memory) ListPunchClockWeeks(_ context.Context) ([]payroll.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[payroll.Date]bool)
	var weeks []payroll.Date
	for k := range m.punches {
		if !seen[k.WeekStart] {
			seen[k.WeekStart] = true
			weeks = append(weeks, k.WeekStart)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].After(weeks[j]) })
	return weeks, nil
}

// =============================================================================
// EARNINGS - Derived, overwritten on recompute
// =============================================================================

func (m *Memory) SaveEarnings(_ context.Context, lines []payroll.EarningsLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lines {
		m.earnings[earningsKey{Start: l.Period.Start, End: l.Period.End, Employee: l.Employee}] = l
	}
	return nil
}

func (m *Memory) ReplaceEarnings(_ context.Context, period payroll.PayPeriod, lines []payroll.EarningsLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.earnings {
		if k.Start.Equal(period.Start) && k.End.Equal(period.End) {
			delete(m.earnings, k)
		}
	}
	for _, l := range lines {
		m.earnings[earningsKey{Start: l.Period.Start, End: l.Period.End, Employee: l.Employee}] = l
	}
	return nil
}

func (m *Memory) ListEarnings(_ context.Context, filter payroll.EarningsFilter) ([]payroll.EarningsLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []payroll.EarningsLine
	for k, l := range m.earnings {
		if filter.Employee != "" && k.Employee != filter.Employee {
			continue
		}
		if filter.Period != nil && (!k.Start.Equal(filter.Period.Start) || !k.End.Equal(filter.Period.End)) {
			continue
		}
		result = append(result, l)
	}
	sortEarnings(result)
	return result, nil
}

func sortEarnings(lines []payroll.EarningsLine) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].Period, lines[j].Period
		if !a.Start.Equal(b.Start) {
			return a.Start.After(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.After(b.End)
		}
		return lines[i].Employee < lines[j].Employee
	})
}

// =============================================================================
// ARCHIVE
// =============================================================================

func (m *Memory) ArchiveAndReset(_ context.Context) (payroll.ArchiveSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := payroll.ArchiveSummary{
		Records:    len(m.records),
		PunchClock: len(m.punches),
		Earnings:   len(m.earnings),
		ArchivedAt: time.Now(),
	}

	m.archivedRecords = append(m.archivedRecords, m.records...)
	for _, e := range m.punches {
		m.archivedPunches = append(m.archivedPunches, e)
	}
	for _, l := range m.earnings {
		m.archivedEarnings = append(m.archivedEarnings, l)
	}

	// Idempotency keys survive the reset so archived submissions can't be replayed.
	m.records = nil
	m.punches = make(map[punchKey]payroll.PunchClockEntry)
	m.earnings = make(map[earningsKey]payroll.EarningsLine)
	return summary, nil
}

func (m *Memory) ListArchivedRecords(_ context.Context) ([]payroll.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.WorkRecord, len(m.archivedRecords))
	copy(result, m.archivedRecords)
	return result, nil
}

func (m *Memory) ListArchivedEarnings(_ context.Context) ([]payroll.EarningsLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.EarningsLine, len(m.archivedEarnings))
	copy(result, m.archivedEarnings)
	sortEarnings(result)
	return result, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}
