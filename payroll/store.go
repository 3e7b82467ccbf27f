/*
store.go - Persistence interfaces for the work log

PURPOSE:
  Defines the interface between payroll logic and the database. The
  relational store holds the employee directory, the append-only work
  records, weekly punch-clock totals and the derived earnings lines.
  A separate LogSink mirrors records to a spreadsheet.

KEY INTERFACES:
  EmployeeStore:   Directory of employees and rates
  RecordStore:     Append-only work records
  PunchClockStore: Weekly time-clock totals (upsert per employee+week)
  EarningsStore:   Derived totals (overwritten on recompute)
  ArchiveStore:    Move live rows to archive tables
  Store:           All of the above
  LogSink:         Spreadsheet-backed append-only mirror

APPEND-ONLY CONTRACT:
  RecordStore has no Update or Delete. The only way live records leave
  the table is ArchiveAndReset, which copies them to the archive first.

LOOKUPS:
  Get* methods return (nil, nil) when the row does not exist.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (default)
  - store/postgres/postgres.go: PostgreSQL via pgx
  - payroll/store/memory.go: In-memory for testing
  - store/workbook/workbook.go: LogSink on an .xlsx file

SEE ALSO:
  - ledger.go: Idempotent append on top of RecordStore
  - report.go: Reads records/punches, writes earnings
*/
package payroll

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

type EmployeeStore interface {
	// SaveEmployee inserts or replaces the employee with the same name.
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, name string) (*Employee, error)
	// ListEmployees returns employees ordered by name.
	ListEmployees(ctx context.Context) ([]Employee, error)
	DeleteEmployee(ctx context.Context, name string) error
}

// RecordStore is APPEND-ONLY.
type RecordStore interface {
	// Append persists a record. Returns ErrDuplicateIdempotencyKey if the key exists.
	Append(ctx context.Context, rec WorkRecord) error

	// AppendBatch persists records atomically. Either all succeed or none do.
	AppendBatch(ctx context.Context, recs []WorkRecord) error

	// ListRecords returns matching records ordered by date, then creation time.
	ListRecords(ctx context.Context, filter RecordFilter) ([]WorkRecord, error)

	// Exists checks if an idempotency key is already used.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

type PunchClockStore interface {
	// SavePunchClock upserts on (employee, week start).
	SavePunchClock(ctx context.Context, entry PunchClockEntry) error
	GetPunchClock(ctx context.Context, employee string, weekStart Date) (*PunchClockEntry, error)
	// ListPunchClock returns entries whose week start lies in [from, to].
	ListPunchClock(ctx context.Context, from, to Date) ([]PunchClockEntry, error)
	// ListPunchClockWeeks returns distinct week starts, most recent first.
	ListPunchClockWeeks(ctx context.Context) ([]Date, error)
}

type EarningsStore interface {
	// SaveEarnings upserts on (period start, period end, employee).
	SaveEarnings(ctx context.Context, lines []EarningsLine) error
	// ReplaceEarnings deletes every line of period and saves lines in its
	// place, atomically. An empty lines clears the period.
	ReplaceEarnings(ctx context.Context, period PayPeriod, lines []EarningsLine) error
	// ListEarnings returns lines ordered by period start (desc), then employee.
	ListEarnings(ctx context.Context, filter EarningsFilter) ([]EarningsLine, error)
}

type ArchiveStore interface {
	// ArchiveAndReset copies live records, punches and earnings into the
	// archive and deletes the live rows in one transaction.
	ArchiveAndReset(ctx context.Context) (ArchiveSummary, error)
	ListArchivedRecords(ctx context.Context) ([]WorkRecord, error)
	ListArchivedEarnings(ctx context.Context) ([]EarningsLine, error)
}

// Store is everything the work log persists.
type Store interface {
	EmployeeStore
	RecordStore
	PunchClockStore
	EarningsStore
	ArchiveStore

	// Reset clears all live and archived data (for demos and tests).
	Reset(ctx context.Context) error
}

// =============================================================================
// LOG SINK - Spreadsheet mirror of submitted records
// =============================================================================

// LogSink receives a copy of every accepted record. It is best-effort:
// there is no consistency guarantee between a sink and the Store.
type LogSink interface {
	Append(ctx context.Context, rec WorkRecord) error
}

// NopSink discards records.
type NopSink struct{}

func (NopSink) Append(context.Context, WorkRecord) error { return nil }
