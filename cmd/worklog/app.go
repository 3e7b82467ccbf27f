package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/warp/worklog/config"
	"github.com/warp/worklog/directory"
	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/payroll/store"
	"github.com/warp/worklog/store/postgres"
	"github.com/warp/worklog/store/sqlite"
)

// openStore opens the configured store. Postgres is migrated first.
func openStore(ctx context.Context, c *config.Config) (payroll.Store, func() error, error) {
	nop := func() error { return nil }

	switch c.Store {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return store.NewMemory(), nop, nil

	case config.DriverSQLite:
		s, err := sqlite.New(c.SQLitePath)
		if err != nil {
			return nil, nop, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.WithField("path", c.SQLitePath).Info("sqlite store opened")
		return s, s.Close, nil

	case config.DriverPostgres:
		if c.DatabaseURL == "" {
			return nil, nop, fmt.Errorf("postgres store needs a database URL")
		}
		if err := postgres.MigrateUp(c.DatabaseURL); err != nil {
			return nil, nop, err
		}
		s, err := postgres.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nop, err
		}
		log.Info("postgres store opened")
		return s, s.Close, nil
	}
	return nil, nop, fmt.Errorf("unknown store driver %q", c.Store)
}

// loadRoster reads the configured roster file, or the built-in roster.
func loadRoster(c *config.Config) (*directory.Roster, error) {
	if c.RosterPath == "" {
		return directory.Default(), nil
	}
	r, err := directory.Load(c.RosterPath)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"path": c.RosterPath, "employees": len(r.Employees)}).Info("roster loaded")
	return r, nil
}
