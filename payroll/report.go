/*
report.go - Payroll report builder

PURPOSE:
  Turns a period's work records and punch-clock weeks into one
  EarningsLine per employee and persists them. Re-running a period
  overwrites the previous lines.

WHO GETS A LINE:
  Every directory employee, plus every name that appears in the period's
  records or punch-clock entries. A name with activity but no directory
  entry is Unrated: it gets a zero total and a warning, so unknown
  workers are surfaced instead of dropped.

SEE ALSO:
  - tally.go: Quantity aggregation
  - pay.go: The pay rule
*/
package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Report is the result of one build.
type Report struct {
	Period   PayPeriod
	Lines    []EarningsLine
	Warnings []string
}

// Totals sums the report's pay, bonuses and quantities.
func (r Report) Totals() EarningsLine {
	t := EarningsLine{Period: r.Period}
	for _, l := range r.Lines {
		t.Hours = t.Hours.Add(l.Hours)
		t.Breaks = t.Breaks.Add(l.Breaks)
		t.Total = t.Total.Add(l.Total)
		t.Bonus = t.Bonus.Add(l.Bonus)
	}
	return t
}

type Builder struct {
	Store Store
	Log   log.FieldLogger
	Now   func() time.Time
}

func NewBuilder(store Store) *Builder {
	return &Builder{Store: store, Log: log.StandardLogger(), Now: time.Now}
}

// Compute builds a report without persisting it.
func (b *Builder) Compute(ctx context.Context, period PayPeriod) (*Report, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	employees, err := b.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	records, err := b.Store.ListRecords(ctx, RecordFilter{From: period.Start, To: period.End})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	// Weeks starting up to six days early still cover the period's first days.
	punches, err := b.Store.ListPunchClock(ctx, period.Start.AddDays(-6), period.End)
	if err != nil {
		return nil, fmt.Errorf("list punch clock: %w", err)
	}

	directory := make(map[string]*Employee, len(employees))
	names := make([]string, 0, len(employees))
	for i := range employees {
		directory[employees[i].Name] = &employees[i]
		names = append(names, employees[i].Name)
	}
	for _, n := range Names(records, punches, period) {
		if _, ok := directory[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	now := b.now()
	report := &Report{Period: period, Lines: make([]EarningsLine, 0, len(names))}
	for _, name := range names {
		q := Tally(name, records, punches, period)
		line := EarningsLine{
			Employee:   name,
			Period:     period,
			Hours:      q.Hours,
			Breaks:     q.Breaks,
			Bonus:      q.Bonus,
			ComputedAt: now,
		}
		if emp := directory[name]; emp != nil {
			line.Classification = emp.Classification
			line.Rate = emp.Rate
			line.Total = PayFor(emp, q)
		} else {
			line.Unrated = true
			msg := fmt.Sprintf("%s has activity in %s but no pay rate", name, period)
			report.Warnings = append(report.Warnings, msg)
			b.logger().WithFields(log.Fields{"employee": name, "period": period.String()}).Warn("unrated employee in payroll")
		}
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}

// Build computes and persists the report for a period.
func (b *Builder) Build(ctx context.Context, period PayPeriod) (*Report, error) {
	report, err := b.Compute(ctx, period)
	if err != nil {
		return nil, err
	}
	if err := b.Store.ReplaceEarnings(ctx, period, report.Lines); err != nil {
		return nil, fmt.Errorf("save earnings: %w", err)
	}
	b.logger().WithFields(log.Fields{
		"period":   period.String(),
		"lines":    len(report.Lines),
		"warnings": len(report.Warnings),
	}).Info("payroll report built")
	return report, nil
}

// BuildWeek builds the Monday..Sunday period containing d.
func (b *Builder) BuildWeek(ctx context.Context, d Date) (*Report, error) {
	return b.Build(ctx, WeekOf(d))
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Builder) logger() log.FieldLogger {
	if b.Log == nil {
		return log.StandardLogger()
	}
	return b.Log
}
