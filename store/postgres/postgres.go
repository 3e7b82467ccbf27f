/*
Package postgres provides a PostgreSQL-backed implementation of payroll.Store.

PURPOSE:
  Production relational store. Same contract and table layout as
  store/sqlite, with the schema managed by versioned golang-migrate
  migrations (embedded, see migrations/) instead of an inline schema.

ENCODING:
  Money and quantities are NUMERIC. Values cross the wire as text
  ($n::text::numeric on write, col::text on read) so decimal.Decimal
  never passes through a float.

CONCURRENCY:
  pgxpool handles connection concurrency. Multi-statement operations
  run inside pgx.BeginFunc transactions.

USAGE:
  if err := postgres.MigrateUp(url); err != nil { ... }
  store, err := postgres.New(ctx, url)
  defer store.Close()
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/worklog/payroll"
)

// Store implements payroll.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ payroll.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New connects to databaseURL. Run MigrateUp first.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	created := emp.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (name, classification, rate, created_at)
		VALUES ($1, $2, $3::text::numeric, $4)
		ON CONFLICT (name) DO UPDATE SET
			classification = EXCLUDED.classification,
			rate = EXCLUDED.rate`,
		emp.Name, string(emp.Classification), emp.Rate.String(), created.UTC(),
	)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, name string) (*payroll.Employee, error) {
	var emp payroll.Employee
	var class, rate string
	err := s.pool.QueryRow(ctx,
		"SELECT name, classification, rate::text, created_at FROM employees WHERE name = $1", name,
	).Scan(&emp.Name, &class, &rate, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	emp.Classification = payroll.Classification(class)
	emp.Rate = payroll.MustParseDecimal(rate)
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	rows, err := s.pool.Query(ctx, "SELECT name, classification, rate::text, created_at FROM employees ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		var emp payroll.Employee
		var class, rate string
		if err := rows.Scan(&emp.Name, &class, &rate, &emp.CreatedAt); err != nil {
			return nil, err
		}
		emp.Classification = payroll.Classification(class)
		emp.Rate = payroll.MustParseDecimal(rate)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) DeleteEmployee(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM employees WHERE name = $1", name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// WORK RECORDS
// =============================================================================

const recordSelect = `id, employee, work_date, task, quantity::text, unit, COALESCE(show, ''),
	COALESCE(break_numbers, ''), bonus::text, source, COALESCE(idempotency_key, ''),
	COALESCE(created_by, ''), created_at`

func (s *Store) Append(ctx context.Context, rec payroll.WorkRecord) error {
	return appendRecord(ctx, s.pool, rec)
}

func appendRecord(ctx context.Context, q querier, rec payroll.WorkRecord) error {
	if rec.IdempotencyKey != "" {
		var archived bool
		err := q.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM archived_records WHERE idempotency_key = $1)", rec.IdempotencyKey,
		).Scan(&archived)
		if err != nil {
			return fmt.Errorf("failed to check archived keys: %w", err)
		}
		if archived {
			return payroll.ErrDuplicateIdempotencyKey
		}
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := q.Exec(ctx, `
		INSERT INTO work_records
		(id, employee, work_date, task, quantity, unit, show, break_numbers, bonus, source,
		 idempotency_key, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8, $9::text::numeric, $10, $11, $12, $13)`,
		rec.ID, rec.Employee, rec.Date.Time, string(rec.Task), rec.Quantity.String(), string(rec.Unit),
		nullable(rec.Show), nullable(rec.BreakNumbers), rec.Bonus.String(), string(rec.Source),
		nullable(rec.IdempotencyKey), nullable(rec.CreatedBy), created.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

func (s *Store) AppendBatch(ctx context.Context, recs []payroll.WorkRecord) error {
	keys := make(map[string]bool)
	for _, rec := range recs {
		if rec.IdempotencyKey != "" {
			if keys[rec.IdempotencyKey] {
				return payroll.ErrDuplicateIdempotencyKey
			}
			keys[rec.IdempotencyKey] = true
		}
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := appendRecord(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.WorkRecord, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Employee != "" {
		where = append(where, "employee = "+arg(filter.Employee))
	}
	if !filter.From.IsZero() {
		where = append(where, "work_date >= "+arg(filter.From.Time))
	}
	if !filter.To.IsZero() {
		where = append(where, "work_date <= "+arg(filter.To.Time))
	}

	query := "SELECT " + recordSelect + " FROM work_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY work_date, created_at, seq"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	return queryRecords(ctx, s.pool, query, args...)
}

func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM work_records WHERE idempotency_key = $1)
		    OR EXISTS (SELECT 1 FROM archived_records WHERE idempotency_key = $1)`,
		idempotencyKey,
	).Scan(&exists)
	return exists, err
}

func queryRecords(ctx context.Context, q querier, query string, args ...any) ([]payroll.WorkRecord, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []payroll.WorkRecord
	for rows.Next() {
		var (
			rec                payroll.WorkRecord
			date               time.Time
			task, unit, source string
			quantity, bonus    string
		)
		err := rows.Scan(&rec.ID, &rec.Employee, &date, &task, &quantity, &unit, &rec.Show,
			&rec.BreakNumbers, &bonus, &source, &rec.IdempotencyKey, &rec.CreatedBy, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Date = payroll.DateOf(date)
		rec.Task = payroll.Task(task)
		rec.Unit = payroll.Unit(unit)
		rec.Source = payroll.Source(source)
		rec.Quantity = payroll.MustParseDecimal(quantity)
		rec.Bonus = payroll.MustParseDecimal(bonus)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// PUNCH CLOCK
// =============================================================================

func (s *Store) SavePunchClock(ctx context.Context, e payroll.PunchClockEntry) error {
	imported := e.ImportedAt
	if imported.IsZero() {
		imported = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO punch_clock (employee, week_start, total_hours, source_file, imported_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5)
		ON CONFLICT (employee, week_start) DO UPDATE SET
			total_hours = EXCLUDED.total_hours,
			source_file = EXCLUDED.source_file,
			imported_at = EXCLUDED.imported_at`,
		e.Employee, e.WeekStart.Time, e.TotalHours.String(), nullable(e.SourceFile), imported.UTC(),
	)
	return err
}

const punchSelect = "employee, week_start, total_hours::text, COALESCE(source_file, ''), imported_at"

func (s *Store) GetPunchClock(ctx context.Context, employee string, weekStart payroll.Date) (*payroll.PunchClockEntry, error) {
	entries, err := s.queryPunches(ctx,
		"SELECT "+punchSelect+" FROM punch_clock WHERE employee = $1 AND week_start = $2",
		employee, weekStart.Time)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (s *Store) ListPunchClock(ctx context.Context, from, to payroll.Date) ([]payroll.PunchClockEntry, error) {
	return s.queryPunches(ctx,
		"SELECT "+punchSelect+" FROM punch_clock WHERE week_start BETWEEN $1 AND $2 ORDER BY week_start, employee",
		from.Time, to.Time)
}

func (s *Store) ListPunchClockWeeks(ctx context.Context) ([]payroll.Date, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT week_start FROM punch_clock ORDER BY week_start DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []payroll.Date
	for rows.Next() {
		var w time.Time
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, payroll.DateOf(w))
	}
	return weeks, rows.Err()
}

func (s *Store) queryPunches(ctx context.Context, query string, args ...any) ([]payroll.PunchClockEntry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punch clock: %w", err)
	}
	defer rows.Close()

	var entries []payroll.PunchClockEntry
	for rows.Next() {
		var e payroll.PunchClockEntry
		var week time.Time
		var hours string
		if err := rows.Scan(&e.Employee, &week, &hours, &e.SourceFile, &e.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch clock: %w", err)
		}
		e.WeekStart = payroll.DateOf(week)
		e.TotalHours = payroll.MustParseDecimal(hours)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// EARNINGS
// =============================================================================

const earningsSelect = `period_start, period_end, employee, classification, rate::text, hours::text,
	breaks::text, total::text, bonus::text, unrated, computed_at`

func (s *Store) SaveEarnings(ctx context.Context, lines []payroll.EarningsLine) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertEarnings(ctx, tx, lines)
	})
}

// ReplaceEarnings clears the period and saves lines in one transaction.
func (s *Store) ReplaceEarnings(ctx context.Context, period payroll.PayPeriod, lines []payroll.EarningsLine) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM earnings WHERE period_start = $1 AND period_end = $2`,
			period.Start.Time, period.End.Time)
		if err != nil {
			return fmt.Errorf("failed to clear earnings for %s: %w", period, err)
		}
		return insertEarnings(ctx, tx, lines)
	})
}

func insertEarnings(ctx context.Context, tx pgx.Tx, lines []payroll.EarningsLine) error {
	for _, l := range lines {
		computed := l.ComputedAt
		if computed.IsZero() {
			computed = time.Now()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO earnings
			(period_start, period_end, employee, classification, rate, hours, breaks, total, bonus, unrated, computed_at)
			VALUES ($1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7::text::numeric,
			        $8::text::numeric, $9::text::numeric, $10, $11)
			ON CONFLICT (period_start, period_end, employee) DO UPDATE SET
				classification = EXCLUDED.classification,
				rate = EXCLUDED.rate,
				hours = EXCLUDED.hours,
				breaks = EXCLUDED.breaks,
				total = EXCLUDED.total,
				bonus = EXCLUDED.bonus,
				unrated = EXCLUDED.unrated,
				computed_at = EXCLUDED.computed_at`,
			l.Period.Start.Time, l.Period.End.Time, l.Employee, string(l.Classification),
			l.Rate.String(), l.Hours.String(), l.Breaks.String(), l.Total.String(), l.Bonus.String(),
			l.Unrated, computed.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save earnings for %s: %w", l.Employee, err)
		}
	}
	return nil
}

func (s *Store) ListEarnings(ctx context.Context, filter payroll.EarningsFilter) ([]payroll.EarningsLine, error) {
	var where []string
	var args []any
	if filter.Employee != "" {
		args = append(args, filter.Employee)
		where = append(where, fmt.Sprintf("employee = $%d", len(args)))
	}
	if filter.Period != nil {
		args = append(args, filter.Period.Start.Time, filter.Period.End.Time)
		where = append(where, fmt.Sprintf("period_start = $%d AND period_end = $%d", len(args)-1, len(args)))
	}

	query := "SELECT " + earningsSelect + " FROM earnings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY period_start DESC, period_end DESC, employee"
	return queryEarnings(ctx, s.pool, query, args...)
}

func queryEarnings(ctx context.Context, q querier, query string, args ...any) ([]payroll.EarningsLine, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnings: %w", err)
	}
	defer rows.Close()

	var lines []payroll.EarningsLine
	for rows.Next() {
		var (
			l                                 payroll.EarningsLine
			start, end                        time.Time
			class                             string
			rate, hours, breaks, total, bonus string
		)
		if err := rows.Scan(&start, &end, &l.Employee, &class, &rate, &hours, &breaks,
			&total, &bonus, &l.Unrated, &l.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earnings: %w", err)
		}
		l.Period = payroll.PayPeriod{Start: payroll.DateOf(start), End: payroll.DateOf(end)}
		l.Classification = payroll.Classification(class)
		l.Rate = payroll.MustParseDecimal(rate)
		l.Hours = payroll.MustParseDecimal(hours)
		l.Breaks = payroll.MustParseDecimal(breaks)
		l.Total = payroll.MustParseDecimal(total)
		l.Bonus = payroll.MustParseDecimal(bonus)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// ARCHIVE
// =============================================================================

func (s *Store) ArchiveAndReset(ctx context.Context) (payroll.ArchiveSummary, error) {
	now := time.Now().UTC()
	summary := payroll.ArchiveSummary{ArchivedAt: now}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		moves := []struct {
			insert string
			live   string
			count  *int
		}{
			{
				insert: `INSERT INTO archived_records
					(seq, id, employee, work_date, task, quantity, unit, show, break_numbers, bonus, source,
					 idempotency_key, created_by, created_at, archived_at)
					SELECT seq, id, employee, work_date, task, quantity, unit, show, break_numbers, bonus, source,
					       idempotency_key, created_by, created_at, $1 FROM work_records`,
				live:  "work_records",
				count: &summary.Records,
			},
			{
				insert: `INSERT INTO archived_punch_clock
					(employee, week_start, total_hours, source_file, imported_at, archived_at)
					SELECT employee, week_start, total_hours, source_file, imported_at, $1 FROM punch_clock`,
				live:  "punch_clock",
				count: &summary.PunchClock,
			},
			{
				insert: `INSERT INTO archived_earnings
					(period_start, period_end, employee, classification, rate, hours, breaks, total, bonus,
					 unrated, computed_at, archived_at)
					SELECT period_start, period_end, employee, classification, rate, hours, breaks, total, bonus,
					       unrated, computed_at, $1 FROM earnings`,
				live:  "earnings",
				count: &summary.Earnings,
			},
		}

		for _, m := range moves {
			tag, err := tx.Exec(ctx, m.insert, now)
			if err != nil {
				return fmt.Errorf("failed to archive %s: %w", m.live, err)
			}
			*m.count = int(tag.RowsAffected())
			if _, err := tx.Exec(ctx, "DELETE FROM "+m.live); err != nil {
				return fmt.Errorf("failed to clear %s: %w", m.live, err)
			}
		}
		return nil
	})
	return summary, err
}

func (s *Store) ListArchivedRecords(ctx context.Context) ([]payroll.WorkRecord, error) {
	return queryRecords(ctx, s.pool,
		"SELECT "+recordSelect+" FROM archived_records ORDER BY work_date, created_at, seq")
}

func (s *Store) ListArchivedEarnings(ctx context.Context) ([]payroll.EarningsLine, error) {
	return queryEarnings(ctx, s.pool,
		"SELECT "+earningsSelect+" FROM archived_earnings ORDER BY period_start DESC, period_end DESC, employee")
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE work_records, punch_clock, earnings, employees,
		archived_records, archived_punch_clock, archived_earnings`)
	return err
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
