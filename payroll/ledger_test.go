package payroll_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/payroll/store"
)

func withKey(r payroll.WorkRecord, key string) payroll.WorkRecord {
	r.IdempotencyKey = key
	return r
}

func TestLedger_AppendOnly(t *testing.T) {
	// The Ledger interface has no Update or Delete. This compiles only
	// while that stays true for the memory store too.
	var _ payroll.Ledger = payroll.NewLedger(store.NewMemory())
}

func TestLedger_DuplicateKeyRejected(t *testing.T) {
	ctx := context.Background()
	ledger := payroll.NewLedger(store.NewMemory())

	rec := withKey(breaks("Emily", monday, "2"), "emily-2025-03-03-1")
	require.NoError(t, ledger.Append(ctx, rec))

	err := ledger.Append(ctx, rec)
	assert.ErrorIs(t, err, payroll.ErrDuplicateIdempotencyKey)
	assert.True(t, payroll.IsConflict(err))

	got, err := ledger.Records(ctx, payroll.RecordFilter{Employee: "Emily"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLedger_BatchAllOrNothing(t *testing.T) {
	ctx := context.Background()
	ledger := payroll.NewLedger(store.NewMemory())
	require.NoError(t, ledger.Append(ctx, withKey(breaks("Emily", monday, "1"), "existing")))

	// GIVEN: a batch whose last record reuses an existing key
	batch := []payroll.WorkRecord{
		withKey(breaks("Emily", monday, "1"), "a"),
		withKey(breaks("Emily", monday, "1"), "b"),
		withKey(breaks("Emily", monday, "1"), "existing"),
	}

	// THEN: nothing from the batch lands
	assert.ErrorIs(t, ledger.AppendBatch(ctx, batch), payroll.ErrDuplicateIdempotencyKey)
	got, err := ledger.Records(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLedger_BatchRejectsRepeatedKeyWithinBatch(t *testing.T) {
	ctx := context.Background()
	ledger := payroll.NewLedger(store.NewMemory())

	batch := []payroll.WorkRecord{
		withKey(breaks("Emily", monday, "1"), "same"),
		withKey(breaks("Emily", monday, "1"), "same"),
	}
	assert.ErrorIs(t, ledger.AppendBatch(ctx, batch), payroll.ErrDuplicateIdempotencyKey)
}

func TestLedger_EmptyKeysNeverConflict(t *testing.T) {
	ctx := context.Background()
	ledger := payroll.NewLedger(store.NewMemory())

	require.NoError(t, ledger.Append(ctx, breaks("Emily", monday, "1")))
	require.NoError(t, ledger.Append(ctx, breaks("Emily", monday, "1")))

	got, err := ledger.Records(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLedger_RecordsOrderedByDate(t *testing.T) {
	ctx := context.Background()
	ledger := payroll.NewLedger(store.NewMemory())

	require.NoError(t, ledger.Append(ctx, breaks("Emily", monday.AddDays(3), "1")))
	require.NoError(t, ledger.Append(ctx, breaks("Emily", monday, "1")))
	require.NoError(t, ledger.Append(ctx, breaks("Emily", monday.AddDays(1), "1")))

	got, err := ledger.Records(ctx, payroll.RecordFilter{From: monday, To: monday.AddDays(2)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, monday, got[0].Date)
	assert.Equal(t, monday.AddDays(1), got[1].Date)
}
