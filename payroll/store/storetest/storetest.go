// Package storetest is the behavioral contract every payroll.Store must pass.
// Each implementation's tests call Run with a constructor for a fresh store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/payroll"
)

// Factory returns an empty store. Cleanup is the factory's job (t.Cleanup).
type Factory func(t *testing.T) payroll.Store

var monday = payroll.NewDate(2025, time.March, 3)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func record(id, emp string, day payroll.Date, qty, key string) payroll.WorkRecord {
	return payroll.WorkRecord{
		ID:             id,
		Employee:       emp,
		Date:           day,
		Task:           payroll.TaskSort,
		Unit:           payroll.UnitBreaks,
		Quantity:       dec(qty),
		Bonus:          decimal.Zero,
		Show:           "Kaley",
		BreakNumbers:   "1-" + qty,
		Source:         payroll.SourceForm,
		IdempotencyKey: key,
		CreatedBy:      emp,
		CreatedAt:      time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
	}
}

// Run executes the full contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("Employees", func(t *testing.T) { testEmployees(t, newStore(t)) })
	t.Run("RecordsAppendAndFilter", func(t *testing.T) { testRecords(t, newStore(t)) })
	t.Run("RecordsIdempotency", func(t *testing.T) { testIdempotency(t, newStore(t)) })
	t.Run("RecordsBatchAtomic", func(t *testing.T) { testBatch(t, newStore(t)) })
	t.Run("PunchClockUpsert", func(t *testing.T) { testPunchClock(t, newStore(t)) })
	t.Run("EarningsUpsert", func(t *testing.T) { testEarnings(t, newStore(t)) })
	t.Run("EarningsReplace", func(t *testing.T) { testReplaceEarnings(t, newStore(t)) })
	t.Run("ArchiveAndReset", func(t *testing.T) { testArchive(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
}

func testEmployees(t *testing.T, s payroll.Store) {
	ctx := context.Background()

	got, err := s.GetEmployee(ctx, "Greg")
	require.NoError(t, err)
	assert.Nil(t, got, "missing employee is (nil, nil)")

	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{Name: "Greg", Classification: payroll.Hourly, Rate: dec("18.50")}))
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{Name: "Emily", Classification: payroll.PerBreak, Rate: dec("15")}))

	got, err = s.GetEmployee(ctx, "Greg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payroll.Hourly, got.Classification)
	assert.True(t, dec("18.50").Equal(got.Rate))
	assert.False(t, got.CreatedAt.IsZero())

	// Upsert changes the rate
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{Name: "Greg", Classification: payroll.Hourly, Rate: dec("19.25")}))
	got, err = s.GetEmployee(ctx, "Greg")
	require.NoError(t, err)
	assert.True(t, dec("19.25").Equal(got.Rate))

	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Emily", all[0].Name)
	assert.Equal(t, "Greg", all[1].Name)

	require.NoError(t, s.DeleteEmployee(ctx, "Emily"))
	assert.ErrorIs(t, s.DeleteEmployee(ctx, "Emily"), payroll.ErrEmployeeNotFound)
}

func testRecords(t *testing.T, s payroll.Store) {
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, record("r3", "Emily", monday.AddDays(2), "3", "")))
	require.NoError(t, s.Append(ctx, record("r1", "Emily", monday, "1.5", "")))
	require.NoError(t, s.Append(ctx, record("r2", "Anthony", monday.AddDays(1), "2", "")))

	all, err := s.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(all), "ordered by date")

	first := all[0]
	assert.Equal(t, "Emily", first.Employee)
	assert.Equal(t, monday, first.Date)
	assert.Equal(t, payroll.TaskSort, first.Task)
	assert.Equal(t, payroll.UnitBreaks, first.Unit)
	assert.True(t, dec("1.5").Equal(first.Quantity))
	assert.Equal(t, "Kaley", first.Show)
	assert.Equal(t, "1-1.5", first.BreakNumbers)
	assert.Equal(t, payroll.SourceForm, first.Source)
	assert.Equal(t, "Emily", first.CreatedBy)

	emily, err := s.ListRecords(ctx, payroll.RecordFilter{Employee: "Emily"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3"}, ids(emily))

	ranged, err := s.ListRecords(ctx, payroll.RecordFilter{From: monday.AddDays(1), To: monday.AddDays(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r3"}, ids(ranged))

	limited, err := s.ListRecords(ctx, payroll.RecordFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(limited))
}

func testIdempotency(t *testing.T, s payroll.Store) {
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, record("r1", "Emily", monday, "1", "key-1")))
	assert.ErrorIs(t, s.Append(ctx, record("r2", "Emily", monday, "1", "key-1")), payroll.ErrDuplicateIdempotencyKey)

	exists, err := s.Exists(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(ctx, "key-2")
	require.NoError(t, err)
	assert.False(t, exists)

	// Keys stay used after archive
	_, err = s.ArchiveAndReset(ctx)
	require.NoError(t, err)
	exists, err = s.Exists(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.ErrorIs(t, s.Append(ctx, record("r3", "Emily", monday, "1", "key-1")), payroll.ErrDuplicateIdempotencyKey)
}

func testBatch(t *testing.T, s payroll.Store) {
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, record("r0", "Emily", monday, "1", "existing")))

	err := s.AppendBatch(ctx, []payroll.WorkRecord{
		record("r1", "Emily", monday, "1", "a"),
		record("r2", "Emily", monday, "1", "existing"),
	})
	assert.ErrorIs(t, err, payroll.ErrDuplicateIdempotencyKey)

	all, err := s.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"r0"}, ids(all), "failed batch leaves nothing behind")

	require.NoError(t, s.AppendBatch(ctx, []payroll.WorkRecord{
		record("r1", "Emily", monday, "1", "a"),
		record("r2", "Emily", monday, "1", "b"),
	}))
	all, err = s.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testPunchClock(t *testing.T, s payroll.Store) {
	ctx := context.Background()
	prev := monday.AddDays(-7)

	require.NoError(t, s.SavePunchClock(ctx, payroll.PunchClockEntry{Employee: "Greg", WeekStart: monday, TotalHours: dec("30"), SourceFile: "a.csv"}))
	require.NoError(t, s.SavePunchClock(ctx, payroll.PunchClockEntry{Employee: "Greg", WeekStart: monday, TotalHours: dec("7.25"), SourceFile: "b.csv"}))
	require.NoError(t, s.SavePunchClock(ctx, payroll.PunchClockEntry{Employee: "Jeff", WeekStart: prev, TotalHours: dec("40")}))

	got, err := s.GetPunchClock(ctx, "Greg", monday)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, dec("7.25").Equal(got.TotalHours), "re-import overwrites")
	assert.Equal(t, "b.csv", got.SourceFile)

	missing, err := s.GetPunchClock(ctx, "Greg", prev)
	require.NoError(t, err)
	assert.Nil(t, missing)

	week, err := s.ListPunchClock(ctx, monday, monday.AddDays(6))
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "Greg", week[0].Employee)

	weeks, err := s.ListPunchClockWeeks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []payroll.Date{monday, prev}, weeks, "most recent first")
}

func testEarnings(t *testing.T, s payroll.Store) {
	ctx := context.Background()
	week := payroll.WeekOf(monday)
	prev := week.Previous()

	line := func(emp string, p payroll.PayPeriod, total string) payroll.EarningsLine {
		return payroll.EarningsLine{
			Employee: emp, Period: p, Classification: payroll.PerBreak, Rate: dec("15"),
			Hours: decimal.Zero, Breaks: dec("4"), Total: dec(total), Bonus: dec("2.50"),
		}
	}

	require.NoError(t, s.SaveEarnings(ctx, []payroll.EarningsLine{line("Emily", week, "60"), line("Anthony", week, "30")}))
	require.NoError(t, s.SaveEarnings(ctx, []payroll.EarningsLine{line("Emily", prev, "15")}))

	unrated := line("Stranger", week, "0")
	unrated.Unrated = true
	unrated.Classification = payroll.ClassificationUnknown
	require.NoError(t, s.SaveEarnings(ctx, []payroll.EarningsLine{unrated}))

	// Recompute overwrites
	require.NoError(t, s.SaveEarnings(ctx, []payroll.EarningsLine{line("Emily", week, "75")}))

	all, err := s.ListEarnings(ctx, payroll.EarningsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, week, all[0].Period, "newest period first")
	assert.Equal(t, "Anthony", all[0].Employee)
	assert.Equal(t, prev, all[3].Period)

	emily, err := s.ListEarnings(ctx, payroll.EarningsFilter{Employee: "Emily", Period: &week})
	require.NoError(t, err)
	require.Len(t, emily, 1)
	assert.True(t, dec("75").Equal(emily[0].Total))
	assert.True(t, dec("2.50").Equal(emily[0].Bonus))
	assert.True(t, dec("4").Equal(emily[0].Breaks))

	stranger, err := s.ListEarnings(ctx, payroll.EarningsFilter{Employee: "Stranger"})
	require.NoError(t, err)
	require.Len(t, stranger, 1)
	assert.True(t, stranger[0].Unrated)
}

func testReplaceEarnings(t *testing.T, s payroll.Store) {
	ctx := context.Background()
	week := payroll.WeekOf(monday)
	prev := week.Previous()

	line := func(emp string, p payroll.PayPeriod, total string) payroll.EarningsLine {
		return payroll.EarningsLine{
			Employee: emp, Period: p, Classification: payroll.Hourly, Rate: dec("18.50"),
			Hours: dec("10"), Breaks: decimal.Zero, Total: dec(total), Bonus: decimal.Zero,
		}
	}

	require.NoError(t, s.ReplaceEarnings(ctx, week, []payroll.EarningsLine{line("Emily", week, "60"), line("Greg", week, "185")}))
	require.NoError(t, s.ReplaceEarnings(ctx, prev, []payroll.EarningsLine{line("Greg", prev, "37")}))

	// Greg drops out of the week
	require.NoError(t, s.ReplaceEarnings(ctx, week, []payroll.EarningsLine{line("Emily", week, "75")}))

	got, err := s.ListEarnings(ctx, payroll.EarningsFilter{Period: &week})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Emily", got[0].Employee)
	assert.True(t, dec("75").Equal(got[0].Total))

	// An empty replace clears only its own period
	require.NoError(t, s.ReplaceEarnings(ctx, week, nil))
	got, err = s.ListEarnings(ctx, payroll.EarningsFilter{Period: &week})
	require.NoError(t, err)
	assert.Empty(t, got)

	older, err := s.ListEarnings(ctx, payroll.EarningsFilter{Period: &prev})
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.True(t, dec("37").Equal(older[0].Total))
}

func testArchive(t *testing.T, s payroll.Store) {
	ctx := context.Background()
	week := payroll.WeekOf(monday)

	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{Name: "Emily", Classification: payroll.PerBreak, Rate: dec("15")}))
	require.NoError(t, s.Append(ctx, record("r1", "Emily", monday, "2", "")))
	require.NoError(t, s.Append(ctx, record("r2", "Emily", monday, "3", "")))
	require.NoError(t, s.SavePunchClock(ctx, payroll.PunchClockEntry{Employee: "Emily", WeekStart: monday, TotalHours: dec("5")}))
	require.NoError(t, s.SaveEarnings(ctx, []payroll.EarningsLine{{
		Employee: "Emily", Period: week, Classification: payroll.PerBreak, Rate: dec("15"),
		Hours: dec("5"), Breaks: dec("5"), Total: dec("75"), Bonus: decimal.Zero,
	}}))

	summary, err := s.ArchiveAndReset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 1, summary.PunchClock)
	assert.Equal(t, 1, summary.Earnings)
	assert.False(t, summary.ArchivedAt.IsZero())

	live, err := s.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, live)
	punches, err := s.ListPunchClock(ctx, monday, monday.AddDays(6))
	require.NoError(t, err)
	assert.Empty(t, punches)
	lines, err := s.ListEarnings(ctx, payroll.EarningsFilter{})
	require.NoError(t, err)
	assert.Empty(t, lines)

	archived, err := s.ListArchivedRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids(archived))

	archivedLines, err := s.ListArchivedEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, archivedLines, 1)
	assert.True(t, dec("75").Equal(archivedLines[0].Total))

	emp, err := s.GetEmployee(ctx, "Emily")
	require.NoError(t, err)
	assert.NotNil(t, emp, "directory survives archive")
}

func testReset(t *testing.T, s payroll.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{Name: "Emily", Classification: payroll.PerBreak, Rate: dec("15")}))
	require.NoError(t, s.Append(ctx, record("r1", "Emily", monday, "2", "k")))

	require.NoError(t, s.Reset(ctx))

	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func ids(recs []payroll.WorkRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
