/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  Default relational store for the work log. Single-file database,
  suitable for one warehouse running one server process. Production
  deployments with several app instances use store/postgres instead;
  the SQL is nearly identical.

INTERFACES IMPLEMENTED:
  payroll.Store: employees, records, punch clock, earnings, archive

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on work_records
  - The only DELETE on work_records is inside ArchiveAndReset, after the
    rows were copied to archived_records in the same transaction

KEY TABLES:
  employees:            Directory (name is the key)
  work_records:         Immutable work log
  punch_clock:          Weekly hours, one row per (employee, week_start)
  earnings:             Derived totals, one row per (period, employee)
  archived_*:           Copies of the above, stamped with archived_at

ENCODING:
  Dates are TEXT "YYYY-MM-DD" so range filters compare lexically.
  Decimals are TEXT to keep exact values (SQLite REAL would round).
  Timestamps are RFC3339Nano UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WAL mode lets readers proceed
  while a writer holds the lock.

USAGE:
  store, err := sqlite.New("./data/worklog.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - payroll/store.go: Interface definitions
  - store/postgres: Same contract on PostgreSQL
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/worklog/payroll"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
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

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		name TEXT PRIMARY KEY,
		classification TEXT NOT NULL,
		rate TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Work records (append-only)
	CREATE TABLE IF NOT EXISTS work_records (
		id TEXT PRIMARY KEY,
		employee TEXT NOT NULL,
		work_date TEXT NOT NULL,
		task TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		show TEXT,
		break_numbers TEXT,
		bonus TEXT NOT NULL DEFAULT '0',
		source TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_work_records_employee_date
		ON work_records(employee, work_date);
	CREATE INDEX IF NOT EXISTS idx_work_records_date
		ON work_records(work_date);

	CREATE TABLE IF NOT EXISTS punch_clock (
		employee TEXT NOT NULL,
		week_start TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		source_file TEXT,
		imported_at TEXT NOT NULL,
		PRIMARY KEY (employee, week_start)
	);

	CREATE TABLE IF NOT EXISTS earnings (
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		employee TEXT NOT NULL,
		classification TEXT NOT NULL,
		rate TEXT NOT NULL,
		hours TEXT NOT NULL,
		breaks TEXT NOT NULL,
		total TEXT NOT NULL,
		bonus TEXT NOT NULL,
		unrated INTEGER NOT NULL DEFAULT 0,
		computed_at TEXT NOT NULL,
		PRIMARY KEY (period_start, period_end, employee)
	);

	CREATE TABLE IF NOT EXISTS archived_records (
		id TEXT PRIMARY KEY,
		employee TEXT NOT NULL,
		work_date TEXT NOT NULL,
		task TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		show TEXT,
		break_numbers TEXT,
		bonus TEXT NOT NULL DEFAULT '0',
		source TEXT NOT NULL,
		idempotency_key TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL,
		archived_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archived_records_idempotency
		ON archived_records(idempotency_key) WHERE idempotency_key IS NOT NULL;

	CREATE TABLE IF NOT EXISTS archived_punch_clock (
		employee TEXT NOT NULL,
		week_start TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		source_file TEXT,
		imported_at TEXT NOT NULL,
		archived_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS archived_earnings (
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		employee TEXT NOT NULL,
		classification TEXT NOT NULL,
		rate TEXT NOT NULL,
		hours TEXT NOT NULL,
		breaks TEXT NOT NULL,
		total TEXT NOT NULL,
		bonus TEXT NOT NULL,
		unrated INTEGER NOT NULL DEFAULT 0,
		computed_at TEXT NOT NULL,
		archived_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EMPLOYEES (payroll.EmployeeStore)
// =============================================================================

// SaveEmployee inserts or updates an employee. created_at is kept on update.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := emp.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	query := `
		INSERT INTO employees (name, classification, rate, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			classification = excluded.classification,
			rate = excluded.rate
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.Name, string(emp.Classification), emp.Rate.String(), formatTime(created),
	)
	return err
}

// GetEmployee retrieves an employee by name.
func (s *Store) GetEmployee(ctx context.Context, name string) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp payroll.Employee
	var class, rate, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT name, classification, rate, created_at FROM employees WHERE name = ?",
		name,
	).Scan(&emp.Name, &class, &rate, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	emp.Classification = payroll.Classification(class)
	emp.Rate = payroll.MustParseDecimal(rate)
	emp.CreatedAt = parseTime(createdAt)
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, classification, rate, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		var emp payroll.Employee
		var class, rate, createdAt string
		if err := rows.Scan(&emp.Name, &class, &rate, &createdAt); err != nil {
			return nil, err
		}
		emp.Classification = payroll.Classification(class)
		emp.Rate = payroll.MustParseDecimal(rate)
		emp.CreatedAt = parseTime(createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee. Their records stay in the log.
func (s *Store) DeleteEmployee(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE name = ?", name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// WORK RECORDS (payroll.RecordStore)
// =============================================================================

const recordColumns = `id, employee, work_date, task, quantity, unit, show, break_numbers,
		bonus, source, idempotency_key, created_by, created_at`

// Append adds a record to the log.
func (s *Store) Append(ctx context.Context, rec payroll.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendRecord(ctx, s.db, rec)
}

func (s *Store) appendRecord(ctx context.Context, db execer, rec payroll.WorkRecord) error {
	if rec.IdempotencyKey != "" {
		var archived int
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM archived_records WHERE idempotency_key = ?", rec.IdempotencyKey,
		).Scan(&archived)
		if err != nil {
			return fmt.Errorf("failed to check archived keys: %w", err)
		}
		if archived > 0 {
			return payroll.ErrDuplicateIdempotencyKey
		}
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	query := `INSERT INTO work_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		rec.ID,
		rec.Employee,
		rec.Date.String(),
		string(rec.Task),
		rec.Quantity.String(),
		string(rec.Unit),
		nullString(rec.Show),
		nullString(rec.BreakNumbers),
		rec.Bonus.String(),
		string(rec.Source),
		nullString(rec.IdempotencyKey),
		nullString(rec.CreatedBy),
		formatTime(created),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// AppendBatch adds multiple records atomically.
func (s *Store) AppendBatch(ctx context.Context, recs []payroll.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate idempotency keys within the batch first
	keys := make(map[string]bool)
	for _, rec := range recs {
		if rec.IdempotencyKey != "" {
			if keys[rec.IdempotencyKey] {
				return payroll.ErrDuplicateIdempotencyKey
			}
			keys[rec.IdempotencyKey] = true
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := s.appendRecord(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecords returns records matching the filter, oldest first.
func (s *Store) ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if filter.Employee != "" {
		where = append(where, "employee = ?")
		args = append(args, filter.Employee)
	}
	if !filter.From.IsZero() {
		where = append(where, "work_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "work_date <= ?")
		args = append(args, filter.To.String())
	}

	query := "SELECT " + recordColumns + " FROM work_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY work_date ASC, created_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryRecords(ctx, query, args...)
}

// Exists checks if an idempotency key is used by a live or archived record.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM work_records WHERE idempotency_key = ?)
		     + (SELECT COUNT(*) FROM archived_records WHERE idempotency_key = ?)`,
		idempotencyKey, idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]payroll.WorkRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []payroll.WorkRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (payroll.WorkRecord, error) {
	var (
		rec            payroll.WorkRecord
		date           string
		task, unit     string
		quantity       string
		show           sql.NullString
		breakNumbers   sql.NullString
		bonus          string
		source         string
		idempotencyKey sql.NullString
		createdBy      sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&rec.ID, &rec.Employee, &date, &task, &quantity, &unit, &show, &breakNumbers,
		&bonus, &source, &idempotencyKey, &createdBy, &createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.Date, _ = payroll.ParseDate(date)
	rec.Task = payroll.Task(task)
	rec.Quantity = payroll.MustParseDecimal(quantity)
	rec.Unit = payroll.Unit(unit)
	rec.Show = show.String
	rec.BreakNumbers = breakNumbers.String
	rec.Bonus = payroll.MustParseDecimal(bonus)
	rec.Source = payroll.Source(source)
	rec.IdempotencyKey = idempotencyKey.String
	rec.CreatedBy = createdBy.String
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// =============================================================================
// PUNCH CLOCK (payroll.PunchClockStore)
// =============================================================================

// SavePunchClock upserts a weekly total. Re-importing a week overwrites it.
func (s *Store) SavePunchClock(ctx context.Context, e payroll.PunchClockEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported := e.ImportedAt
	if imported.IsZero() {
		imported = time.Now()
	}

	query := `
		INSERT INTO punch_clock (employee, week_start, total_hours, source_file, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee, week_start) DO UPDATE SET
			total_hours = excluded.total_hours,
			source_file = excluded.source_file,
			imported_at = excluded.imported_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.Employee, e.WeekStart.String(), e.TotalHours.String(), nullString(e.SourceFile), formatTime(imported),
	)
	return err
}

func (s *Store) GetPunchClock(ctx context.Context, employee string, weekStart payroll.Date) (*payroll.PunchClockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee, week_start, total_hours, source_file, imported_at
		FROM punch_clock WHERE employee = ? AND week_start = ?`,
		employee, weekStart.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	e, err := scanPunch(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListPunchClock(ctx context.Context, from, to payroll.Date) ([]payroll.PunchClockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee, week_start, total_hours, source_file, imported_at
		FROM punch_clock
		WHERE week_start >= ? AND week_start <= ?
		ORDER BY week_start, employee`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query punch clock: %w", err)
	}
	defer rows.Close()

	var entries []payroll.PunchClockEntry
	for rows.Next() {
		e, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ListPunchClockWeeks(ctx context.Context) ([]payroll.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT week_start FROM punch_clock ORDER BY week_start DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []payroll.Date
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		d, err := payroll.ParseDate(w)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, d)
	}
	return weeks, rows.Err()
}

func scanPunch(rows *sql.Rows) (payroll.PunchClockEntry, error) {
	var e payroll.PunchClockEntry
	var week, hours, imported string
	var source sql.NullString
	if err := rows.Scan(&e.Employee, &week, &hours, &source, &imported); err != nil {
		return e, fmt.Errorf("failed to scan punch clock: %w", err)
	}
	e.WeekStart, _ = payroll.ParseDate(week)
	e.TotalHours = payroll.MustParseDecimal(hours)
	e.SourceFile = source.String
	e.ImportedAt = parseTime(imported)
	return e, nil
}

// =============================================================================
// EARNINGS (payroll.EarningsStore)
// =============================================================================

const earningsColumns = `period_start, period_end, employee, classification, rate, hours, breaks,
		total, bonus, unrated, computed_at`

// SaveEarnings upserts lines in one transaction.
func (s *Store) SaveEarnings(ctx context.Context, lines []payroll.EarningsLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEarnings(ctx, tx, lines); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceEarnings clears the period and saves lines in one transaction.
func (s *Store) ReplaceEarnings(ctx context.Context, period payroll.PayPeriod, lines []payroll.EarningsLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM earnings WHERE period_start = ? AND period_end = ?`,
		period.Start.String(), period.End.String())
	if err != nil {
		return fmt.Errorf("failed to clear earnings for %s: %w", period, err)
	}
	if err := insertEarnings(ctx, tx, lines); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEarnings(ctx context.Context, tx *sql.Tx, lines []payroll.EarningsLine) error {
	query := `INSERT INTO earnings (` + earningsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(period_start, period_end, employee) DO UPDATE SET
			classification = excluded.classification,
			rate = excluded.rate,
			hours = excluded.hours,
			breaks = excluded.breaks,
			total = excluded.total,
			bonus = excluded.bonus,
			unrated = excluded.unrated,
			computed_at = excluded.computed_at`

	for _, l := range lines {
		computed := l.ComputedAt
		if computed.IsZero() {
			computed = time.Now()
		}
		_, err := tx.ExecContext(ctx, query,
			l.Period.Start.String(), l.Period.End.String(), l.Employee,
			string(l.Classification), l.Rate.String(), l.Hours.String(), l.Breaks.String(),
			l.Total.String(), l.Bonus.String(), boolInt(l.Unrated), formatTime(computed),
		)
		if err != nil {
			return fmt.Errorf("failed to save earnings for %s: %w", l.Employee, err)
		}
	}
	return nil
}

func (s *Store) ListEarnings(ctx context.Context, filter payroll.EarningsFilter) ([]payroll.EarningsLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if filter.Employee != "" {
		where = append(where, "employee = ?")
		args = append(args, filter.Employee)
	}
	if filter.Period != nil {
		where = append(where, "period_start = ? AND period_end = ?")
		args = append(args, filter.Period.Start.String(), filter.Period.End.String())
	}

	query := "SELECT " + earningsColumns + " FROM earnings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY period_start DESC, period_end DESC, employee ASC"

	return s.queryEarnings(ctx, query, args...)
}

func (s *Store) queryEarnings(ctx context.Context, query string, args ...any) ([]payroll.EarningsLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnings: %w", err)
	}
	defer rows.Close()

	var lines []payroll.EarningsLine
	for rows.Next() {
		var (
			l                                          payroll.EarningsLine
			start, end, class                          string
			rate, hours, breaks, total, bonus, created string
			unrated                                    int
		)
		if err := rows.Scan(&start, &end, &l.Employee, &class, &rate, &hours, &breaks,
			&total, &bonus, &unrated, &created); err != nil {
			return nil, fmt.Errorf("failed to scan earnings: %w", err)
		}
		l.Period.Start, _ = payroll.ParseDate(start)
		l.Period.End, _ = payroll.ParseDate(end)
		l.Classification = payroll.Classification(class)
		l.Rate = payroll.MustParseDecimal(rate)
		l.Hours = payroll.MustParseDecimal(hours)
		l.Breaks = payroll.MustParseDecimal(breaks)
		l.Total = payroll.MustParseDecimal(total)
		l.Bonus = payroll.MustParseDecimal(bonus)
		l.Unrated = unrated != 0
		l.ComputedAt = parseTime(created)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// ARCHIVE (payroll.ArchiveStore)
// =============================================================================

// ArchiveAndReset moves all live rows into the archive tables atomically.
func (s *Store) ArchiveAndReset(ctx context.Context) (payroll.ArchiveSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	summary := payroll.ArchiveSummary{ArchivedAt: now}
	stamp := formatTime(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	moves := []struct {
		insert string
		count  *int
		live   string
	}{
		{
			insert: `INSERT INTO archived_records (` + recordColumns + `, archived_at)
				SELECT ` + recordColumns + `, ? FROM work_records`,
			count: &summary.Records,
			live:  "work_records",
		},
		{
			insert: `INSERT INTO archived_punch_clock (employee, week_start, total_hours, source_file, imported_at, archived_at)
				SELECT employee, week_start, total_hours, source_file, imported_at, ? FROM punch_clock`,
			count: &summary.PunchClock,
			live:  "punch_clock",
		},
		{
			insert: `INSERT INTO archived_earnings (` + earningsColumns + `, archived_at)
				SELECT ` + earningsColumns + `, ? FROM earnings`,
			count: &summary.Earnings,
			live:  "earnings",
		},
	}

	for _, m := range moves {
		res, err := tx.ExecContext(ctx, m.insert, stamp)
		if err != nil {
			return summary, fmt.Errorf("failed to archive %s: %w", m.live, err)
		}
		n, _ := res.RowsAffected()
		*m.count = int(n)
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+m.live); err != nil {
			return summary, fmt.Errorf("failed to clear %s: %w", m.live, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Store) ListArchivedRecords(ctx context.Context) ([]payroll.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, "SELECT "+recordColumns+
		" FROM archived_records ORDER BY work_date ASC, created_at ASC, rowid ASC")
}

func (s *Store) ListArchivedEarnings(ctx context.Context) ([]payroll.EarningsLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEarnings(ctx, "SELECT "+earningsColumns+
		" FROM archived_earnings ORDER BY period_start DESC, period_end DESC, employee ASC")
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"work_records", "punch_clock", "earnings", "employees",
		"archived_records", "archived_punch_clock", "archived_earnings",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
