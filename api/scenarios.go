/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	work log data for one week. Each scenario seeds the roster, then adds
	break records, shifts and punch clock entries that exercise a part of
	the payroll report.

AVAILABLE SCENARIOS:

	standard-week:   Break counts for per-break staff, punch hours for hourly staff
	shifts-only:     Hourly staff self-report shifts, no punch clock files
	punch-override:  Both shifts and punch hours; punch hours win
	unrated:         Activity from names missing from the roster
	empty-week:      Roster only, no activity

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Seed the roster
 3. Generate records and punch entries with gofakeit
 4. Remember the loaded scenario

USAGE VIA API:

	POST /api/admin/scenarios/load
	{"scenario_id": "standard-week", "week_start": "2025-03-03", "seed": 7}

	The same seed and week always produce the same data.

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Other admin endpoints
  - directory/directory.go: Default roster
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/warp/worklog/directory"
	"github.com/warp/worklog/payroll"
)

// ErrUnknownScenario is returned for an unrecognized scenario id.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-week",
		Name:        "Standard Week",
		Description: "Per-break staff log breaks; hourly staff have punch clock hours",
	},
	{
		ID:          "shifts-only",
		Name:        "Shifts Only",
		Description: "Hourly staff self-report shifts; no punch clock files imported",
	},
	{
		ID:          "punch-override",
		Name:        "Punch Clock Override",
		Description: "Hourly staff have shifts and punch hours; punch hours are paid",
	},
	{
		ID:          "unrated",
		Name:        "Unrated Activity",
		Description: "Names outside the roster log work and are flagged in the report",
	},
	{
		ID:          "empty-week",
		Name:        "Empty Week",
		Description: "Roster only; every employee reports zero",
	},
}

// scenarioData is what a generator produces for one week.
type scenarioData struct {
	records []payroll.WorkRecord
	punches []payroll.PunchClockEntry
}

type scenarioGen func(week payroll.PayPeriod, roster []payroll.Employee) scenarioData

var scenarioGens = map[string]scenarioGen{
	"standard-week": func(week payroll.PayPeriod, roster []payroll.Employee) scenarioData {
		var d scenarioData
		d.records = fakeBreaks(week, byClass(roster, payroll.PerBreak), roster)
		d.punches = fakePunches(week, byClass(roster, payroll.Hourly))
		return d
	},
	"shifts-only": func(week payroll.PayPeriod, roster []payroll.Employee) scenarioData {
		var d scenarioData
		d.records = fakeBreaks(week, byClass(roster, payroll.PerBreak), roster)
		d.records = append(d.records, fakeShifts(week, byClass(roster, payroll.Hourly))...)
		return d
	},
	"punch-override": func(week payroll.PayPeriod, roster []payroll.Employee) scenarioData {
		var d scenarioData
		hourly := byClass(roster, payroll.Hourly)
		d.records = fakeShifts(week, hourly)
		d.punches = fakePunches(week, hourly)
		return d
	},
	"unrated": func(week payroll.PayPeriod, roster []payroll.Employee) scenarioData {
		var d scenarioData
		d.records = fakeBreaks(week, byClass(roster, payroll.PerBreak), roster)
		d.punches = fakePunches(week, byClass(roster, payroll.Hourly))

		extras := make([]string, 0, 2)
		for len(extras) < 2 {
			name := gofakeit.FirstName()
			if !inRoster(roster, name) && !contains(extras, name) {
				extras = append(extras, name)
			}
		}
		d.records = append(d.records, fakeBreaks(week, extras[:1], roster)...)
		d.punches = append(d.punches, fakePunches(week, extras[1:])...)
		return d
	},
	"empty-week": func(payroll.PayPeriod, []payroll.Employee) scenarioData {
		return scenarioData{}
	},
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available demo scenarios.
// GET /api/admin/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario id.
// GET /api/admin/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": current})
}

// LoadScenario resets the store and loads a scenario.
// POST /api/admin/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	week := payroll.Today().StartOfWeek().AddDays(-7)
	if req.WeekStart != "" {
		d, err := payroll.ParseDate(req.WeekStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid week_start", err)
			return
		}
		week = d
	}

	resp, err := h.LoadScenarioData(r.Context(), req.ScenarioID, week, req.Seed)
	if errors.Is(err, ErrUnknownScenario) {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LoadScenarioData resets the store and loads scenario id for the week
// containing weekOf. A zero seed picks one from the clock.
func (h *Handler) LoadScenarioData(ctx context.Context, id string, weekOf payroll.Date, seed int64) (LoadScenarioResponse, error) {
	gen, ok := scenarioGens[id]
	if !ok {
		return LoadScenarioResponse{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	if err := h.Store.Reset(ctx); err != nil {
		return LoadScenarioResponse{}, fmt.Errorf("reset store: %w", err)
	}
	roster := h.Roster
	if roster == nil {
		roster = directory.Default()
	}
	n, err := directory.Seed(ctx, h.Store, roster)
	if err != nil {
		return LoadScenarioResponse{}, err
	}

	week := payroll.WeekOf(weekOf)
	data := gen(week, roster.EmployeeList(time.Time{}))

	if len(data.records) > 0 {
		if err := h.Store.AppendBatch(ctx, data.records); err != nil {
			return LoadScenarioResponse{}, fmt.Errorf("append records: %w", err)
		}
	}
	for _, p := range data.punches {
		if err := h.Store.SavePunchClock(ctx, p); err != nil {
			return LoadScenarioResponse{}, fmt.Errorf("save punch clock: %w", err)
		}
	}

	h.currentScenario = id
	h.Log.WithFields(log.Fields{
		"scenario":   id,
		"week_start": week.Start.String(),
		"seed":       seed,
		"records":    len(data.records),
		"punches":    len(data.punches),
	}).Info("scenario loaded")

	return LoadScenarioResponse{
		Scenario:  id,
		WeekStart: week.Start.String(),
		Employees: n,
		Records:   len(data.records),
		Punches:   len(data.punches),
	}, nil
}

// =============================================================================
// GENERATORS
// =============================================================================

var breakTasks = []payroll.Task{payroll.TaskSort, payroll.TaskPack, payroll.TaskSleeve, payroll.TaskShip}

// fakeBreaks logs one to three break records on three to five weekdays
// for each name. Shows belong to random roster members.
func fakeBreaks(week payroll.PayPeriod, names []string, roster []payroll.Employee) []payroll.WorkRecord {
	var out []payroll.WorkRecord
	for _, name := range names {
		days := gofakeit.Number(3, 5)
		for d := 0; d < days; d++ {
			day := week.Start.AddDays(d)
			for i := gofakeit.Number(1, 3); i > 0; i-- {
				first := gofakeit.Number(1, 40)
				count := gofakeit.Number(1, 6)
				show := ""
				if len(roster) > 0 {
					show = roster[gofakeit.Number(0, len(roster)-1)].Name
				}
				rec := fakeRecord(name, day)
				rec.Task = breakTasks[gofakeit.Number(0, len(breakTasks)-1)]
				rec.Unit = payroll.UnitBreaks
				rec.Quantity = decimal.NewFromInt(int64(count))
				rec.Show = show
				rec.BreakNumbers = fmt.Sprintf("%d-%d", first, first+count-1)
				if gofakeit.Number(1, 10) == 1 {
					rec.Bonus = decimal.NewFromInt(int64(gofakeit.Number(1, 4) * 5))
				}
				out = append(out, rec)
			}
		}
	}
	return out
}

// fakeShifts logs a four to nine hour shift, in quarter hours, on each
// weekday for each name.
func fakeShifts(week payroll.PayPeriod, names []string) []payroll.WorkRecord {
	var out []payroll.WorkRecord
	for _, name := range names {
		for d := 0; d < 5; d++ {
			rec := fakeRecord(name, week.Start.AddDays(d))
			rec.Task = payroll.TaskShift
			rec.Unit = payroll.UnitHours
			rec.Quantity = quarterHours(16, 36)
			out = append(out, rec)
		}
	}
	return out
}

// fakePunches gives each name a 20 to 40 hour punch clock week.
func fakePunches(week payroll.PayPeriod, names []string) []payroll.PunchClockEntry {
	out := make([]payroll.PunchClockEntry, 0, len(names))
	for _, name := range names {
		out = append(out, payroll.PunchClockEntry{
			Employee:   name,
			WeekStart:  week.Start,
			TotalHours: quarterHours(80, 160),
			SourceFile: fmt.Sprintf("%s_%s.csv", name, week.Start.Time.Format("20060102")),
			ImportedAt: week.End.Time.Add(20 * time.Hour),
		})
	}
	return out
}

func fakeRecord(name string, day payroll.Date) payroll.WorkRecord {
	return payroll.WorkRecord{
		ID:        gofakeit.UUID(),
		Employee:  name,
		Date:      day,
		Source:    payroll.SourceDemo,
		CreatedBy: name,
		CreatedAt: day.Time.Add(time.Duration(gofakeit.Number(9, 18)) * time.Hour),
	}
}

func quarterHours(lo, hi int) decimal.Decimal {
	return decimal.NewFromInt(int64(gofakeit.Number(lo, hi))).Div(decimal.NewFromInt(4))
}

func byClass(roster []payroll.Employee, c payroll.Classification) []string {
	var names []string
	for _, e := range roster {
		if e.Classification == c {
			names = append(names, e.Name)
		}
	}
	return names
}

func inRoster(roster []payroll.Employee, name string) bool {
	for _, e := range roster {
		if e.Name == name {
			return true
		}
	}
	return false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
