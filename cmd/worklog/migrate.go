package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/worklog/config"
	"github.com/warp/worklog/store/postgres"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, ok, err := migrationTarget()
		if !ok {
			return err
		}
		return postgres.MigrateUp(url)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, ok, err := migrationTarget()
		if !ok {
			return err
		}
		return postgres.MigrateDown(url, migrateSteps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, ok, err := migrationTarget()
		if !ok {
			return err
		}
		st, err := postgres.MigrateStatus(url)
		if err != nil {
			return err
		}
		if !st.Applied {
			fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", st.Version, st.Dirty)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

// migrationTarget returns the postgres URL to migrate. ok is false when
// there is nothing to do or the URL is missing.
func migrationTarget() (string, bool, error) {
	if cfg.Store != config.DriverPostgres {
		log.WithField("store", cfg.Store).Info("schema is created when the store opens, nothing to migrate")
		return "", false, nil
	}
	if cfg.DatabaseURL == "" {
		return "", false, fmt.Errorf("migrate needs a database URL")
	}
	return cfg.DatabaseURL, true, nil
}
