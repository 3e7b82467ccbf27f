package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/payroll/store/storetest"
	"github.com/warp/worklog/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) payroll.Store { return newStore(t) })
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "worklog.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{
		Name: "Greg", Classification: payroll.Hourly, Rate: decimal.RequireFromString("18.50"),
	}))
	require.NoError(t, s.Append(ctx, payroll.WorkRecord{
		ID: "r1", Employee: "Greg", Date: payroll.NewDate(2025, time.March, 3),
		Task: payroll.TaskShift, Unit: payroll.UnitHours, Quantity: decimal.RequireFromString("7.25"),
		Source: payroll.SourceForm,
	}))
	require.NoError(t, s.Close())

	// GIVEN: the same file reopened (schema migration must be idempotent)
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	emp, err := s.GetEmployee(ctx, "Greg")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "18.5", emp.Rate.String())

	recs, err := s.ListRecords(ctx, payroll.RecordFilter{Employee: "Greg"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "7.25", recs[0].Quantity.String())
	assert.NoError(t, s.Ping(ctx))
}

func TestSQLite_DecimalsAreExact(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	week := payroll.WeekOf(payroll.NewDate(2025, time.March, 3))
	require.NoError(t, s.SaveEarnings(ctx, []payroll.EarningsLine{{
		Employee: "Greg", Period: week, Classification: payroll.Hourly,
		Rate: decimal.RequireFromString("18.50"), Hours: decimal.RequireFromString("0.1"),
		Total: decimal.RequireFromString("1.85"),
	}}))

	lines, err := s.ListEarnings(ctx, payroll.EarningsFilter{Period: &week})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "0.1", lines[0].Hours.String())
	assert.Equal(t, "1.85", lines[0].Total.String())
}
