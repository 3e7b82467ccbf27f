package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/config"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory", config.Config{Store: config.DriverMemory}, false},
		{"sqlite in memory", config.Config{Store: config.DriverSQLite, SQLitePath: ":memory:"}, false},
		{"postgres without url", config.Config{Store: config.DriverPostgres}, true},
		{"unknown driver", config.Config{Store: "mongo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cfg
			st, closeStore, err := openStore(ctx, &c)
			defer closeStore()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, err = st.ListEmployees(ctx)
			assert.NoError(t, err)
		})
	}
}

func TestLoadRoster(t *testing.T) {
	r, err := loadRoster(&config.Config{})
	require.NoError(t, err)
	assert.Len(t, r.Employees, 13)

	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("employees:\n  - name: Emily\n    classification: per_break\n    rate: \"15.00\"\n"), 0o600))
	r, err = loadRoster(&config.Config{RosterPath: path})
	require.NoError(t, err)
	assert.Len(t, r.Employees, 1)

	_, err = loadRoster(&config.Config{RosterPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestSeedAndReportCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "worklog.db")
	out := filepath.Join(dir, "report.csv")

	run := func(args ...string) string {
		t.Helper()
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.ExecuteContext(context.Background()))
		return buf.String()
	}

	got := run("--sqlite-path", db, "seed", "--scenario", "standard-week", "--week", "2025-03-03", "--seed", "7")
	assert.Contains(t, got, "scenario standard-week for week of 2025-03-03")

	got = run("--sqlite-path", db, "report", "--week", "2025-03-03", "--out", out)
	assert.Contains(t, got, "[2025-03-03, 2025-03-09]")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name,total_hours,total_breaks,total_pay")
}
