package main

import (
	"bytes"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/worklog/export"
	"github.com/warp/worklog/payroll"
)

type reportOptions struct {
	Week   string
	Format string
	Out    string
	DryRun bool
	Upload bool
}

var reportOpts reportOptions

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the payroll report for a week and write it to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		day := payroll.Today().StartOfWeek().AddDays(-7)
		if reportOpts.Week != "" {
			d, err := payroll.ParseDate(reportOpts.Week)
			if err != nil {
				return fmt.Errorf("--week: %w", err)
			}
			day = d
		}
		period := payroll.ReportWeek(day, cfg.SnapWeeks)

		format, err := export.ParseFormat(reportOpts.Format)
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		builder := payroll.NewBuilder(st)
		var report *payroll.Report
		if reportOpts.DryRun {
			report, err = builder.Compute(ctx, period)
		} else {
			report, err = builder.Build(ctx, period)
		}
		if err != nil {
			return err
		}
		for _, w := range report.Warnings {
			log.Warn(w)
		}

		var buf bytes.Buffer
		if err := export.Earnings(&buf, format, report.Lines); err != nil {
			return err
		}

		name := reportOpts.Out
		if name == "" {
			name = export.EarningsFilename(period, format)
		}

		if reportOpts.Upload {
			if cfg.S3Bucket == "" {
				return fmt.Errorf("--upload needs an S3 bucket in the config")
			}
			up, err := export.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Prefix)
			if err != nil {
				return err
			}
			key, err := up.Upload(ctx, name, format, buf.Bytes())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded s3://%s/%s\n", cfg.S3Bucket, key)
			return nil
		}

		if name == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		total := report.Totals()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lines, total pay %s, bonus %s -> %s\n",
			period, len(report.Lines), total.Total.StringFixed(payroll.MoneyPlaces), total.Bonus.StringFixed(payroll.MoneyPlaces), name)
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportOpts.Week, "week", "w", "", "first day of the week to report (default last Monday's week)")
	f.StringVarP(&reportOpts.Format, "format", "f", "csv", "output format: csv or xlsx")
	f.StringVarP(&reportOpts.Out, "out", "o", "", "output file, - for stdout (default payroll_START_END.ext)")
	f.BoolVar(&reportOpts.DryRun, "dry-run", false, "compute without saving earnings lines")
	f.BoolVar(&reportOpts.Upload, "upload", false, "upload to the configured S3 bucket instead of writing a file")
}
