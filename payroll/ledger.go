/*
ledger.go - Append-only work log

PURPOSE:
  The Ledger is the source of truth for logged work. Every break count and
  every self-reported shift is one record. Pay is always derived by
  aggregating records; nothing stores a running total that could drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IDEMPOTENT: Same idempotency key = same submission (no duplicates).

CORRECTIONS:
  A worker who logged too many breaks submits a new record with the
  remaining count after an admin archive, or an admin adds a correcting
  record. History is kept either way.

SEE ALSO:
  - store.go: Low-level persistence interface
  - worklog/ledger.go: Submission rules (task/unit checks, break parsing)
*/
package payroll

import "context"

// =============================================================================
// LEDGER
// =============================================================================

type Ledger interface {
	Append(ctx context.Context, rec WorkRecord) error
	AppendBatch(ctx context.Context, recs []WorkRecord) error
	Records(ctx context.Context, filter RecordFilter) ([]WorkRecord, error)
}

// DefaultLedger enforces idempotency on top of a RecordStore.
type DefaultLedger struct {
	Store RecordStore
}

func NewLedger(store RecordStore) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, rec WorkRecord) error {
	if err := l.checkKey(ctx, rec.IdempotencyKey); err != nil {
		return err
	}
	return l.Store.Append(ctx, rec)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, recs []WorkRecord) error {
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if rec.IdempotencyKey == "" {
			continue
		}
		if seen[rec.IdempotencyKey] {
			return ErrDuplicateIdempotencyKey
		}
		seen[rec.IdempotencyKey] = true
		if err := l.checkKey(ctx, rec.IdempotencyKey); err != nil {
			return err
		}
	}
	return l.Store.AppendBatch(ctx, recs)
}

func (l *DefaultLedger) Records(ctx context.Context, filter RecordFilter) ([]WorkRecord, error) {
	return l.Store.ListRecords(ctx, filter)
}

func (l *DefaultLedger) checkKey(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	exists, err := l.Store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateIdempotencyKey
	}
	return nil
}
