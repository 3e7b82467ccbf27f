/*
main.go - Command-line entry point

PURPOSE:
  Builds the worklog command tree. Every subcommand shares the same
  configuration: defaults, then the YAML file, then environment, then
  the persistent flags below.

COMMANDS:
  serve                    Run the HTTP API
  migrate up|down|status   Manage the postgres schema
  import FILES...          Import punch clock exports
  report                   Build and write a payroll report
  seed                     Load the roster (optionally a demo scenario)

EXAMPLES:
  worklog serve --addr :3000
  worklog --store memory seed --scenario standard-week
  worklog report --week 2025-03-03 --format xlsx --out march.xlsx
  worklog --store postgres migrate up

SEE ALSO:
  - config/config.go: Configuration keys and environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/worklog/config"
)

type rootOptions struct {
	ConfigPath  string
	Store       string
	SQLitePath  string
	DatabaseURL string
	LogLevel    string
}

var (
	ropts rootOptions
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "worklog",
	Short:         "NJC work log and payroll",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(ropts.ConfigPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("store") {
			loaded.Store = ropts.Store
		}
		if flags.Changed("sqlite-path") {
			loaded.SQLitePath = ropts.SQLitePath
		}
		if flags.Changed("database-url") {
			loaded.DatabaseURL = ropts.DatabaseURL
		}
		if flags.Changed("log-level") {
			loaded.LogLevel = ropts.LogLevel
		}
		if err := loaded.ConfigureLogging(); err != nil {
			return err
		}
		if loaded.NeedsSSM() {
			client, err := config.NewSSMClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := loaded.ResolveSecrets(cmd.Context(), client); err != nil {
				return err
			}
		}
		cfg = loaded
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&ropts.ConfigPath, "config", "c", "", "YAML config file (default $WORKLOG_CONFIG)")
	pf.StringVar(&ropts.Store, "store", "", "store driver: memory, sqlite or postgres")
	pf.StringVar(&ropts.SQLitePath, "sqlite-path", "", "SQLite database path (\":memory:\" for in-memory)")
	pf.StringVar(&ropts.DatabaseURL, "database-url", "", "postgres connection URL")
	pf.StringVar(&ropts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, reportCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
