/*
Package payroll provides the core work-log and pay computation engine.

PURPOSE:
  This package contains the data model and the algorithms that turn logged
  work into money. Workers log breaks (sorted/packed/sleeved/shipped show
  breaks) and hours (punch clock or self-reported shifts); the pay rule
  multiplies the quantity that matches an employee's classification by the
  employee's rate.

KEY CONCEPTS IN THIS FILE (types.go):
  - Classification: hourly vs per-break pay
  - Employee: name-keyed directory entry with classification and rate
  - WorkRecord: an immutable logged unit of work
  - PunchClockEntry: weekly hours from the external time clock
  - EarningsLine: the derived, recomputable payroll total

DESIGN PRINCIPLES:
  1. Immutability: WorkRecords are appended, never edited
  2. Precision: decimal.Decimal for rates, hours and money
  3. Derived totals: EarningsLines are overwritten wholesale on recompute
  4. Request-scoped inputs: nothing here holds session or user state

USAGE:
  emp := payroll.Employee{Name: "Greg", Classification: payroll.Hourly, Rate: payroll.MustParseDecimal("18.50")}
  total := payroll.Pay(emp.Classification, emp.Rate, payroll.MustParseDecimal("7.25")) // 134.12

SEE ALSO:
  - pay.go: The pay rule
  - tally.go: Per-period aggregation of records and punches
  - report.go: Weekly/period payroll report builder
  - store.go: Persistence interfaces
*/
package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLASSIFICATION - How an employee is paid
// =============================================================================

type Classification string

const (
	ClassificationUnknown Classification = ""
	Hourly                Classification = "hourly"
	PerBreak              Classification = "per_break"
)

// ParseClassification accepts the spellings used across the work-log forms.
// Unrecognized input yields ClassificationUnknown and false.
func ParseClassification(s string) (Classification, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hourly", "hour", "hours":
		return Hourly, true
	case "per_break", "per-break", "break", "breaks", "per_task", "per-task", "task":
		return PerBreak, true
	default:
		return ClassificationUnknown, false
	}
}

func (c Classification) IsValid() bool { return c == Hourly || c == PerBreak }

// Unit returns the quantity unit this classification is paid on.
func (c Classification) Unit() Unit {
	switch c {
	case Hourly:
		return UnitHours
	case PerBreak:
		return UnitBreaks
	default:
		return ""
	}
}

// =============================================================================
// UNITS & TASKS
// =============================================================================

type Unit string

const (
	UnitBreaks Unit = "breaks"
	UnitHours  Unit = "hours"
)

func (u Unit) IsValid() bool { return u == UnitBreaks || u == UnitHours }

// Task is the kind of work a record logs.
type Task string

const (
	TaskSort   Task = "sort"
	TaskPack   Task = "pack"
	TaskSleeve Task = "sleeve"
	TaskShip   Task = "ship"
	TaskShift  Task = "shift" // clock-in/clock-out hours, no show attached
)

// ParseTask normalizes a task name. Unknown names return false.
func ParseTask(s string) (Task, bool) {
	t := Task(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TaskSort, TaskPack, TaskSleeve, TaskShip, TaskShift:
		return t, true
	}
	return "", false
}

// Unit returns the unit a task is logged in.
func (t Task) Unit() Unit {
	if t == TaskShift {
		return UnitHours
	}
	return UnitBreaks
}

// Source records where a WorkRecord came from.
type Source string

const (
	SourceForm   Source = "form"
	SourceSheet  Source = "sheet"
	SourceImport Source = "import"
	SourceDemo   Source = "demo"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a directory entry. Name is the unique key.
type Employee struct {
	Name           string
	Classification Classification
	Rate           decimal.Decimal
	CreatedAt      time.Time
}

// =============================================================================
// WORK RECORD - Immutable logged unit of work
// =============================================================================

type WorkRecord struct {
	ID           string
	Employee     string
	Date         Date
	Task         Task
	Quantity     decimal.Decimal
	Unit         Unit
	Show         string // whose show the breaks belonged to
	BreakNumbers string // free text, e.g. "12, 14-16"
	Bonus        decimal.Decimal
	Source       Source

	IdempotencyKey string
	CreatedBy      string
	CreatedAt      time.Time
}

// RecordFilter narrows ListRecords. Zero values are wildcards.
type RecordFilter struct {
	Employee string
	From     Date
	To       Date
	Limit    int
}

// Matches reports whether r passes the filter (Limit is not applied).
func (f RecordFilter) Matches(r WorkRecord) bool {
	if f.Employee != "" && f.Employee != r.Employee {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return true
}

// =============================================================================
// PUNCH CLOCK - Weekly hours from the external time clock
// =============================================================================

type PunchClockEntry struct {
	Employee   string
	WeekStart  Date
	TotalHours decimal.Decimal
	SourceFile string
	ImportedAt time.Time
}

// =============================================================================
// EARNINGS LINE - Derived payroll total
// =============================================================================

type EarningsLine struct {
	Employee       string
	Period         PayPeriod
	Classification Classification
	Rate           decimal.Decimal
	Hours          decimal.Decimal
	Breaks         decimal.Decimal
	Total          decimal.Decimal
	Bonus          decimal.Decimal

	// Unrated is set when the employee has activity but no directory entry.
	Unrated    bool
	ComputedAt time.Time
}

// Gross is the pay total plus bonuses.
func (l EarningsLine) Gross() decimal.Decimal { return l.Total.Add(l.Bonus) }

// EarningsFilter narrows ListEarnings. Zero values are wildcards.
type EarningsFilter struct {
	Employee string
	Period   *PayPeriod
}

// =============================================================================
// ARCHIVE
// =============================================================================

// ArchiveSummary reports how many live rows an archive run moved.
type ArchiveSummary struct {
	Records    int
	PunchClock int
	Earnings   int
	ArchivedAt time.Time
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
