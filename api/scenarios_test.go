package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/auth"
	"github.com/warp/worklog/directory"
	"github.com/warp/worklog/payroll"
)

func loadScenario(t *testing.T, s *testServer, id string, seed int64) LoadScenarioResponse {
	t.Helper()
	resp, err := s.h.LoadScenarioData(context.Background(), id, monday, seed)
	require.NoError(t, err)
	return resp
}

func TestScenarios_AllLoad(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			s := newTestServer(t)
			s.h.Roster = directory.Default()

			resp := loadScenario(t, s, sc.ID, 42)
			assert.Equal(t, sc.ID, resp.Scenario)
			assert.Equal(t, "2025-03-03", resp.WeekStart)
			assert.Equal(t, 13, resp.Employees)

			report, err := s.h.Builder.Compute(context.Background(), payroll.WeekOf(monday))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(report.Lines), 13, "every roster employee is reported")
			for _, l := range report.Lines {
				assert.False(t, l.Total.IsNegative(), l.Employee)
				assert.True(t, l.Total.Equal(payroll.Round(l.Total)), l.Employee)
			}
		})
	}
}

func TestScenario_StandardWeek(t *testing.T) {
	s := newTestServer(t)
	resp := loadScenario(t, s, "standard-week", 7)

	assert.Equal(t, 2, resp.Employees)
	assert.Equal(t, 1, resp.Punches, "one hourly employee")
	assert.Positive(t, resp.Records)

	recs, err := s.mem.ListRecords(context.Background(), payroll.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, recs, resp.Records)
	for _, r := range recs {
		assert.Equal(t, "Emily", r.Employee)
		assert.Equal(t, payroll.SourceDemo, r.Source)
		assert.Equal(t, payroll.UnitBreaks, r.Unit)
		assert.True(t, payroll.WeekOf(monday).Contains(r.Date))
	}

	entry, err := s.mem.GetPunchClock(context.Background(), "Greg", monday)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.TotalHours.GreaterThanOrEqual(payroll.MustParseDecimal("20")))
	assert.True(t, entry.TotalHours.LessThanOrEqual(payroll.MustParseDecimal("40")))
}

func TestScenario_SameSeedSameData(t *testing.T) {
	a := newTestServer(t)
	b := newTestServer(t)
	loadScenario(t, a, "shifts-only", 99)
	loadScenario(t, b, "shifts-only", 99)

	ra, err := a.mem.ListRecords(context.Background(), payroll.RecordFilter{})
	require.NoError(t, err)
	rb, err := b.mem.ListRecords(context.Background(), payroll.RecordFilter{})
	require.NoError(t, err)
	require.Equal(t, len(ra), len(rb))
	for i := range ra {
		assert.Equal(t, ra[i].ID, rb[i].ID)
		assert.True(t, ra[i].Quantity.Equal(rb[i].Quantity))
	}
}

func TestScenario_PunchOverride(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "punch-override", 3)

	report, err := s.h.Builder.Compute(context.Background(), payroll.WeekOf(monday))
	require.NoError(t, err)
	entry, err := s.mem.GetPunchClock(context.Background(), "Greg", monday)
	require.NoError(t, err)
	require.NotNil(t, entry)

	for _, l := range report.Lines {
		if l.Employee == "Greg" {
			assert.True(t, l.Hours.Equal(entry.TotalHours), "punch hours replace shifts")
		}
	}
}

func TestScenario_Unrated(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "unrated", 11)

	report, err := s.h.Builder.Compute(context.Background(), payroll.WeekOf(monday))
	require.NoError(t, err)

	unrated := 0
	for _, l := range report.Lines {
		if l.Unrated {
			unrated++
			assert.True(t, l.Total.IsZero())
		}
	}
	assert.Equal(t, 2, unrated)
	assert.Len(t, report.Warnings, 2)
}

func TestScenario_ResetsStore(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "standard-week", 1)
	resp := loadScenario(t, s, "empty-week", 1)
	assert.Zero(t, resp.Records)

	recs, err := s.mem.ListRecords(context.Background(), payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
	weeks, err := s.mem.ListPunchClockWeeks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, weeks)
}

func TestScenarioEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin", auth.RoleAdmin)

	list := s.do(t, http.MethodGet, "/api/admin/scenarios", admin, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, list), len(scenarios))

	rec := s.do(t, http.MethodPost, "/api/admin/scenarios/load", admin, LoadScenarioRequest{ScenarioID: "standard-week", WeekStart: "2025-03-05", Seed: 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-03-03", decode[LoadScenarioResponse](t, rec).WeekStart)

	current := s.do(t, http.MethodGet, "/api/admin/scenarios/current", admin, nil)
	assert.Equal(t, map[string]string{"scenario_id": "standard-week"}, decode[map[string]string](t, current))

	bad := s.do(t, http.MethodPost, "/api/admin/scenarios/load", admin, LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	worker := s.token(t, "Emily", auth.RoleWorker)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/admin/scenarios/load", worker, LoadScenarioRequest{ScenarioID: "empty-week"}).Code)
}
