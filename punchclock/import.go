package punchclock

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/warp/worklog/payroll"
)

// DefaultLimit bounds how many files are parsed at once.
const DefaultLimit = 4

// File is one uploaded time clock export.
type File struct {
	Name string
	Data []byte
}

// Result reports the outcome for one file. Err is set for files that could
// not be parsed or have no week date; such entries are not saved.
type Result struct {
	File  string
	Entry payroll.PunchClockEntry
	Saved bool
	Err   error
}

// Importer parses time clock exports and upserts them into a store.
type Importer struct {
	Store payroll.PunchClockStore
	Log   log.FieldLogger
	Limit int
	Now   func() time.Time

	// SnapToMonday keys each entry on the Monday on or before its file date.
	SnapToMonday bool
}

func NewImporter(store payroll.PunchClockStore) *Importer {
	return &Importer{Store: store, Log: log.StandardLogger(), Limit: DefaultLimit, Now: time.Now}
}

// Import parses and saves one file. Parse failures are reported in the
// Result; only store failures are returned as an error.
func (im *Importer) Import(ctx context.Context, f File) (Result, error) {
	res := Result{File: f.Name}

	entry, err := Parse(f.Name, f.Data)
	res.Entry = entry
	if err != nil {
		res.Err = err
		im.logger().WithFields(log.Fields{
			"file":     f.Name,
			"employee": entry.Employee,
		}).WithError(err).Warn("punch clock file skipped")
		return res, nil
	}

	if im.SnapToMonday {
		res.Entry.WeekStart = res.Entry.WeekStart.StartOfWeek()
	}
	res.Entry.ImportedAt = im.now()
	if err := im.Store.SavePunchClock(ctx, res.Entry); err != nil {
		return res, fmt.Errorf("save %s: %w", f.Name, err)
	}
	res.Saved = true

	im.logger().WithFields(log.Fields{
		"file":       f.Name,
		"employee":   entry.Employee,
		"week_start": res.Entry.WeekStart.String(),
		"hours":      entry.TotalHours.String(),
	}).Info("punch clock imported")
	return res, nil
}

// ImportAll imports files concurrently. Results keep the input order. The
// first store failure cancels the remaining imports.
func (im *Importer) ImportAll(ctx context.Context, files []File) ([]Result, error) {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	limit := im.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	g.SetLimit(limit)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{File: f.Name, Err: err}
				return err
			}
			res, err := im.Import(ctx, f)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Summary counts saved and skipped files.
func Summary(results []Result) (saved, skipped int) {
	for _, r := range results {
		if r.Saved {
			saved++
		} else {
			skipped++
		}
	}
	return saved, skipped
}

// MissingWeek reports whether a result was skipped only for lack of a date.
func (r Result) MissingWeek() bool { return errors.Is(r.Err, ErrMissingWeek) }

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now()
}

func (im *Importer) logger() log.FieldLogger {
	if im.Log != nil {
		return im.Log
	}
	return log.StandardLogger()
}
