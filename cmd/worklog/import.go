package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/worklog/punchclock"
)

var importCmd = &cobra.Command{
	Use:   "import FILES...",
	Short: "Import punch clock exports (.csv, .xls, .xlsx)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		files := make([]punchclock.File, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files = append(files, punchclock.File{Name: filepath.Base(path), Data: data})
		}

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		im := punchclock.NewImporter(st)
		im.Limit = cfg.ImportLimit
	im.SnapToMonday = cfg.SnapWeeks
		results, err := im.ImportAll(ctx, files)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tNAME\tWEEK\tHOURS\tSTATUS")
		for _, r := range results {
			week := ""
			if !r.Entry.WeekStart.IsZero() {
				week = r.Entry.WeekStart.String()
			}
			status := "saved"
			if r.Err != nil {
				status = r.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.File, r.Entry.Employee, week, r.Entry.TotalHours.String(), status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		saved, skipped := punchclock.Summary(results)
		fmt.Fprintf(cmd.OutOrStdout(), "%d saved, %d skipped\n", saved, skipped)
		return nil
	},
}
