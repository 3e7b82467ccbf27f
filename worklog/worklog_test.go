package worklog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/payroll/store"
	"github.com/warp/worklog/worklog"
)

var monday = payroll.NewDate(2025, time.March, 3)

type recordingSink struct {
	mu   sync.Mutex
	recs []payroll.WorkRecord
	err  error
}

func (s *recordingSink) Append(_ context.Context, rec payroll.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, rec)
	return nil
}

func newWorkLog(t *testing.T, sink payroll.LogSink) (*worklog.WorkLog, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.SaveEmployee(context.Background(), payroll.Employee{
		Name: "Emily", Classification: payroll.PerBreak, Rate: decimal.RequireFromString("15.00"),
	}))
	wl := worklog.New(mem, sink)
	wl.NewID = func() string { return "rec-1" }
	wl.Now = func() time.Time { return time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC) }
	return wl, mem
}

func TestSubmit_AssignsIDAndMirrors(t *testing.T) {
	sink := &recordingSink{}
	wl, _ := newWorkLog(t, sink)

	rec, err := wl.Submit(context.Background(), payroll.WorkRecord{
		Employee: "Emily",
		Date:     monday,
		Task:     "Sort",
		Quantity: decimal.NewFromInt(3),
		Show:     "Kaley",
	})
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, payroll.TaskSort, rec.Task)
	assert.Equal(t, payroll.UnitBreaks, rec.Unit)
	assert.Equal(t, payroll.SourceForm, rec.Source)
	assert.False(t, rec.CreatedAt.IsZero())
	require.Len(t, sink.recs, 1)
	assert.Equal(t, rec.ID, sink.recs[0].ID)
}

func TestSubmit_DerivesQuantityFromBreakNumbers(t *testing.T) {
	wl, _ := newWorkLog(t, nil)

	rec, err := wl.Submit(context.Background(), payroll.WorkRecord{
		Employee: "Emily", Date: monday, Task: payroll.TaskPack, BreakNumbers: "3, 5-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "4", rec.Quantity.String())
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rec   payroll.WorkRecord
		field string
	}{
		{"missing employee", payroll.WorkRecord{Date: monday, Task: payroll.TaskSort}, "employee"},
		{"missing date", payroll.WorkRecord{Employee: "Emily", Task: payroll.TaskSort}, "date"},
		{"unknown task", payroll.WorkRecord{Employee: "Emily", Date: monday, Task: "juggle"}, "task"},
		{"unit mismatch", payroll.WorkRecord{Employee: "Emily", Date: monday, Task: payroll.TaskSort, Unit: payroll.UnitHours}, "unit"},
		{"negative quantity", payroll.WorkRecord{Employee: "Emily", Date: monday, Task: payroll.TaskSort, Quantity: decimal.NewFromInt(-1)}, "quantity"},
		{"negative bonus", payroll.WorkRecord{Employee: "Emily", Date: monday, Task: payroll.TaskSort, Bonus: decimal.NewFromInt(-5)}, "bonus"},
		{"bad break numbers", payroll.WorkRecord{Employee: "Emily", Date: monday, Task: payroll.TaskSort, BreakNumbers: "7-3"}, "break_numbers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wl, _ := newWorkLog(t, nil)
			_, err := wl.Submit(context.Background(), tt.rec)

			var recErr *payroll.RecordError
			require.True(t, errors.As(err, &recErr), "got %v", err)
			assert.Equal(t, tt.field, recErr.Field)
			assert.True(t, payroll.IsClientError(err))
		})
	}
}

func TestSubmit_UnknownEmployee(t *testing.T) {
	wl, _ := newWorkLog(t, nil)
	_, err := wl.Submit(context.Background(), payroll.WorkRecord{Employee: "Nobody", Date: monday, Task: payroll.TaskSort})
	assert.True(t, payroll.IsNotFound(err))
}

func TestSubmit_DuplicateKey(t *testing.T) {
	wl, mem := newWorkLog(t, nil)
	ctx := context.Background()

	rec := payroll.WorkRecord{Employee: "Emily", Date: monday, Task: payroll.TaskShip, Quantity: decimal.NewFromInt(1), IdempotencyKey: "form-abc"}
	_, err := wl.Submit(ctx, rec)
	require.NoError(t, err)

	_, err = wl.Submit(ctx, rec)
	assert.ErrorIs(t, err, payroll.ErrDuplicateIdempotencyKey)

	got, err := mem.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSubmit_SinkFailureIsNotSurfaced(t *testing.T) {
	sink := &recordingSink{err: errors.New("sheet offline")}
	wl, mem := newWorkLog(t, sink)

	_, err := wl.Submit(context.Background(), payroll.WorkRecord{Employee: "Emily", Date: monday, Task: payroll.TaskSleeve, Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)

	got, err := mem.ListRecords(context.Background(), payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSubmitBatch_AllOrNothing(t *testing.T) {
	wl, mem := newWorkLog(t, nil)
	ctx := context.Background()

	_, err := wl.SubmitBatch(ctx, []payroll.WorkRecord{
		{Employee: "Emily", Date: monday, Task: payroll.TaskSort, Quantity: decimal.NewFromInt(2)},
		{Employee: "Emily", Date: monday, Task: "nap"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")

	got, err := mem.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubmitShift(t *testing.T) {
	wl, _ := newWorkLog(t, nil)
	in := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	rec, err := wl.SubmitShift(context.Background(), worklog.Shift{
		Employee: "Emily", Date: monday, In: in, Out: in.Add(7*time.Hour + 15*time.Minute), CreatedBy: "Emily",
	})
	require.NoError(t, err)
	assert.Equal(t, payroll.TaskShift, rec.Task)
	assert.Equal(t, payroll.UnitHours, rec.Unit)
	assert.Equal(t, "7.25", rec.Quantity.String())
	assert.Equal(t, "Emily", rec.CreatedBy)

	_, err = wl.SubmitShift(context.Background(), worklog.Shift{Employee: "Emily", Date: monday, In: in, Out: in})
	assert.ErrorIs(t, err, payroll.ErrInvalidShift)
}
