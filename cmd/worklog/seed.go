package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/worklog/api"
	"github.com/warp/worklog/directory"
	"github.com/warp/worklog/payroll"
)

type seedOptions struct {
	Scenario string
	Week     string
	Seed     int64
}

var seedOpts seedOptions

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the roster into the store, optionally with a demo scenario",
	Long: "Saves every roster employee. With --scenario the store is reset first and\n" +
		"filled with generated records for one week.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		roster, err := loadRoster(cfg)
		if err != nil {
			return err
		}

		if seedOpts.Scenario == "" {
			n, err := directory.Seed(ctx, st, roster)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d employees saved\n", n)
			return nil
		}

		week := payroll.Today().StartOfWeek().AddDays(-7)
		if seedOpts.Week != "" {
			if week, err = payroll.ParseDate(seedOpts.Week); err != nil {
				return fmt.Errorf("--week: %w", err)
			}
		}

		h := api.NewHandler(st, nil, nil, nil)
		h.Roster = roster
		resp, err := h.LoadScenarioData(ctx, seedOpts.Scenario, week, seedOpts.Seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scenario %s for week of %s: %d employees, %d records, %d punch clock entries\n",
			resp.Scenario, resp.WeekStart, resp.Employees, resp.Records, resp.Punches)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedOpts.Scenario, "scenario", "", "demo scenario id (resets the store)")
	f.StringVarP(&seedOpts.Week, "week", "w", "", "any date in the scenario week (default last week)")
	f.Int64Var(&seedOpts.Seed, "seed", 0, "random seed (default from the clock)")
}
