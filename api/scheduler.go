/*
scheduler.go - Automated payroll recomputation

PURPOSE:
  Periodically rebuilds the payroll summary for the current week and the
  week before it, so saved earnings lines track late submissions and
  punch clock imports without anyone pressing "generate".

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Recomputation is idempotent: each run overwrites the saved lines
  - Keeps the most recent runs in memory for the admin UI

USAGE:
  scheduler := NewPayrollScheduler(builder)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: BuildPayroll endpoint (manual run)
  - payroll/report.go: Builder
*/
package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/warp/worklog/payroll"
)

const maxRuns = 20

// PayrollRun records one scheduled or manual rebuild.
type PayrollRun struct {
	Period     payroll.PayPeriod
	Lines      int
	Warnings   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// PayrollScheduler rebuilds recent payroll weeks on a ticker.
type PayrollScheduler struct {
	Builder       *payroll.Builder
	CheckInterval time.Duration
	Enabled       bool
	Today         func() payroll.Date
	Log           log.FieldLogger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	runsMu sync.Mutex
	runs   []PayrollRun
}

// NewPayrollScheduler creates a new scheduler.
func NewPayrollScheduler(builder *payroll.Builder) *PayrollScheduler {
	return &PayrollScheduler{
		Builder:       builder,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Today:         payroll.Today,
		Log:           log.WithField("component", "scheduler"),
	}
}

// Start begins the scheduler.
func (ps *PayrollScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled || ps.CheckInterval <= 0 {
		ps.Log.Info("scheduler disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	ps.Log.WithField("interval", ps.CheckInterval.String()).Info("scheduler started")
}

// Stop stops the scheduler and waits for an in-flight run.
func (ps *PayrollScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		ps.Log.Info("scheduler stopped")
	}
}

func (ps *PayrollScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	// Run immediately on start
	ps.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			ps.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow rebuilds the previous and current weeks and returns the runs.
func (ps *PayrollScheduler) RunNow(ctx context.Context) []PayrollRun {
	current := payroll.WeekOf(ps.Today())
	periods := []payroll.PayPeriod{current.Previous(), current}

	out := make([]PayrollRun, 0, len(periods))
	for _, p := range periods {
		run := PayrollRun{Period: p, StartedAt: time.Now()}
		report, err := ps.Builder.Build(ctx, p)
		run.FinishedAt = time.Now()
		if err != nil {
			run.Error = err.Error()
			ps.Log.WithError(err).WithField("period", p.String()).Error("scheduled payroll build failed")
		} else {
			run.Lines = len(report.Lines)
			run.Warnings = len(report.Warnings)
		}
		ps.record(run)
		out = append(out, run)
	}
	return out
}

// Runs returns recorded runs, most recent first.
func (ps *PayrollScheduler) Runs() []PayrollRun {
	ps.runsMu.Lock()
	defer ps.runsMu.Unlock()
	out := make([]PayrollRun, len(ps.runs))
	for i, r := range ps.runs {
		out[len(ps.runs)-1-i] = r
	}
	return out
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ps *PayrollScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ps.CheckInterval)
}

func (ps *PayrollScheduler) record(run PayrollRun) {
	ps.runsMu.Lock()
	defer ps.runsMu.Unlock()
	ps.runs = append(ps.runs, run)
	if len(ps.runs) > maxRuns {
		ps.runs = ps.runs[len(ps.runs)-maxRuns:]
	}
}
