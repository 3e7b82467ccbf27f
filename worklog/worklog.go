/*
worklog.go - Work submission rules on top of the payroll ledger

PURPOSE:
  Wraps payroll.Ledger with the rules a worker submission must pass
  before it becomes an immutable record. The payroll package only knows
  quantities; this package knows that a "sort" record counts breaks,
  that a shift has a clock-in before its clock-out, and that break
  numbers like "3, 5-7" mean four breaks.

WHAT IT CHECKS:
  1. Employee is in the directory
  2. Date is set, task is known, unit matches the task
  3. Quantity and bonus are non-negative
  4. Idempotency key has not been used (delegated to the ledger)

SPREADSHEET MIRROR:
  Every accepted record is also appended to the LogSink. A sink failure
  is logged and swallowed: the database is the system of record.

IDENTITY:
  The caller passes the authenticated identity explicitly in
  WorkRecord.CreatedBy. Nothing here reads session state.

SEE ALSO:
  - payroll/ledger.go: Idempotent append
  - store/workbook: The spreadsheet LogSink
*/
package worklog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/warp/worklog/payroll"
)

// =============================================================================
// WORK LOG
// =============================================================================

type WorkLog struct {
	ledger    payroll.Ledger
	employees payroll.EmployeeStore
	sink      payroll.LogSink
	log       log.FieldLogger

	Now   func() time.Time
	NewID func() string
}

// New creates a work log. sink may be nil.
func New(store payroll.Store, sink payroll.LogSink) *WorkLog {
	if sink == nil {
		sink = payroll.NopSink{}
	}
	return &WorkLog{
		ledger:    payroll.NewLedger(store),
		employees: store,
		sink:      sink,
		log:       log.StandardLogger(),
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// WithLogger sets the logger used for sink failures and submissions.
func (w *WorkLog) WithLogger(l log.FieldLogger) *WorkLog {
	w.log = l
	return w
}

// Submit validates rec, assigns its ID and timestamp, and appends it.
// The stored record is returned.
func (w *WorkLog) Submit(ctx context.Context, rec payroll.WorkRecord) (payroll.WorkRecord, error) {
	rec, err := w.prepare(ctx, rec)
	if err != nil {
		return payroll.WorkRecord{}, err
	}
	if err := w.ledger.Append(ctx, rec); err != nil {
		return payroll.WorkRecord{}, err
	}
	w.mirror(ctx, rec)
	return rec, nil
}

// SubmitBatch validates every record and appends them atomically. Used
// when a worker logs several shows in one form.
func (w *WorkLog) SubmitBatch(ctx context.Context, recs []payroll.WorkRecord) ([]payroll.WorkRecord, error) {
	prepared := make([]payroll.WorkRecord, 0, len(recs))
	for i, rec := range recs {
		p, err := w.prepare(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		prepared = append(prepared, p)
	}
	if err := w.ledger.AppendBatch(ctx, prepared); err != nil {
		return nil, err
	}
	for _, rec := range prepared {
		w.mirror(ctx, rec)
	}
	return prepared, nil
}

// Shift is a self-reported clock-in/clock-out pair.
type Shift struct {
	Employee       string
	Date           payroll.Date
	In             time.Time
	Out            time.Time
	IdempotencyKey string
	CreatedBy      string
}

// SubmitShift records a self-reported shift as an hours record.
func (w *WorkLog) SubmitShift(ctx context.Context, s Shift) (payroll.WorkRecord, error) {
	hours, err := ShiftHours(s.In, s.Out)
	if err != nil {
		return payroll.WorkRecord{}, err
	}
	return w.Submit(ctx, payroll.WorkRecord{
		Employee:       s.Employee,
		Date:           s.Date,
		Task:           payroll.TaskShift,
		Unit:           payroll.UnitHours,
		Quantity:       hours,
		Source:         payroll.SourceForm,
		IdempotencyKey: s.IdempotencyKey,
		CreatedBy:      s.CreatedBy,
	})
}

// Records returns logged records (delegated).
func (w *WorkLog) Records(ctx context.Context, filter payroll.RecordFilter) ([]payroll.WorkRecord, error) {
	return w.ledger.Records(ctx, filter)
}

// =============================================================================
// VALIDATION
// =============================================================================

func (w *WorkLog) prepare(ctx context.Context, rec payroll.WorkRecord) (payroll.WorkRecord, error) {
	if rec.Employee == "" {
		return rec, &payroll.RecordError{Field: "employee", Reason: "is required"}
	}
	emp, err := w.employees.GetEmployee(ctx, rec.Employee)
	if err != nil {
		return rec, fmt.Errorf("lookup employee: %w", err)
	}
	if emp == nil {
		return rec, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, rec.Employee)
	}

	if rec.Date.IsZero() {
		return rec, &payroll.RecordError{Field: "date", Reason: "is required"}
	}

	task, ok := payroll.ParseTask(string(rec.Task))
	if !ok {
		return rec, &payroll.RecordError{Field: "task", Reason: fmt.Sprintf("unknown task %q", rec.Task)}
	}
	rec.Task = task

	if rec.Unit == "" {
		rec.Unit = task.Unit()
	}
	if rec.Unit != task.Unit() {
		return rec, &payroll.RecordError{Field: "unit", Reason: fmt.Sprintf("%s is logged in %s", task, task.Unit())}
	}

	if rec.Quantity.IsZero() && rec.BreakNumbers != "" && rec.Unit == payroll.UnitBreaks {
		n, err := ParseBreakNumbers(rec.BreakNumbers)
		if err != nil {
			return rec, &payroll.RecordError{Field: "break_numbers", Reason: err.Error()}
		}
		rec.Quantity = decimal.NewFromInt(int64(n))
	}
	if rec.Quantity.IsNegative() {
		return rec, &payroll.RecordError{Field: "quantity", Reason: "must not be negative"}
	}
	if rec.Bonus.IsNegative() {
		return rec, &payroll.RecordError{Field: "bonus", Reason: "must not be negative"}
	}

	if rec.Source == "" {
		rec.Source = payroll.SourceForm
	}
	if rec.ID == "" {
		rec.ID = w.NewID()
	}
	rec.CreatedAt = w.Now()
	return rec, nil
}

func (w *WorkLog) mirror(ctx context.Context, rec payroll.WorkRecord) {
	if err := w.sink.Append(ctx, rec); err != nil {
		w.log.WithError(err).WithFields(log.Fields{
			"record_id": rec.ID,
			"employee":  rec.Employee,
		}).Warn("spreadsheet log append failed")
	}
}
