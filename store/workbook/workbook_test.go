package workbook_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/store/workbook"
)

func rec(id string, qty int64) payroll.WorkRecord {
	return payroll.WorkRecord{
		ID:           id,
		Employee:     "Emily",
		Date:         payroll.NewDate(2025, time.March, 3),
		Task:         payroll.TaskPack,
		Unit:         payroll.UnitBreaks,
		Quantity:     decimal.NewFromInt(qty),
		Show:         "Kaley",
		BreakNumbers: "3, 5-7",
		Bonus:        decimal.Zero,
		Source:       payroll.SourceForm,
		CreatedBy:    "Emily",
		CreatedAt:    time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC),
	}
}

func TestWorkbook_CreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")
	_, err := workbook.Open(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workbook.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, workbook.Columns, rows[0])
}

func TestWorkbook_AppendAndReadBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.xlsx")
	wb, err := workbook.Open(path)
	require.NoError(t, err)

	require.NoError(t, wb.Append(ctx, rec("r1", 4)))
	require.NoError(t, wb.Append(ctx, rec("r2", 2)))

	// Reopening keeps existing rows
	wb, err = workbook.Open(path)
	require.NoError(t, err)
	require.NoError(t, wb.Append(ctx, rec("r3", 1)))

	got, err := wb.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "Emily", got[0].Employee)
	assert.Equal(t, payroll.TaskPack, got[0].Task)
	assert.Equal(t, "3, 5-7", got[0].BreakNumbers)
	assert.Equal(t, "4", got[0].Quantity.String())
	assert.Equal(t, payroll.NewDate(2025, time.March, 3), got[0].Date)
	assert.Equal(t, "r3", got[2].ID)
}

func TestWorkbook_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	wb, err := workbook.Open(filepath.Join(t.TempDir(), "log.xlsx"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, wb.Append(ctx, rec(string(rune('a'+i)), 1)))
		}(i)
	}
	wg.Wait()

	got, err := wb.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestWorkbook_CanceledContext(t *testing.T) {
	wb, err := workbook.Open(filepath.Join(t.TempDir(), "log.xlsx"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, wb.Append(ctx, rec("r1", 1)), context.Canceled)
}
