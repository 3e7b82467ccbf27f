/*
Package export renders payroll data as downloadable files.

PURPOSE:
  Office staff take the weekly payroll summary and the archived work log
  out of the system as CSV or Excel files. Files can also be uploaded to
  an S3 bucket for safekeeping (see upload.go).

COLUMNS:
  Earnings:  name, total_hours, total_breaks, total_pay, bonus,
             period_start, period_end
  Records:   id, date, name, task, whose_show, break_numbers, quantity,
             unit, bonus, source, created_by, created_at

  Money and quantities are written as fixed two-place decimals.
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/worklog/payroll"
)

// Format is an output file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" (case-insensitive). Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX, "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType is the MIME type for the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Ext is the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

var (
	EarningsColumns = []string{
		"name", "total_hours", "total_breaks", "total_pay", "bonus",
		"period_start", "period_end",
	}
	RecordColumns = []string{
		"id", "date", "name", "task", "whose_show", "break_numbers", "quantity",
		"unit", "bonus", "source", "created_by", "created_at",
	}
)

// EarningsFilename names a payroll export for a period.
func EarningsFilename(p payroll.PayPeriod, f Format) string {
	return fmt.Sprintf("payroll_%s_%s%s", p.Start.Time.Format("20060102"), p.End.Time.Format("20060102"), f.Ext())
}

// Earnings writes earnings lines in the given format.
func Earnings(w io.Writer, f Format, lines []payroll.EarningsLine) error {
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{
			l.Employee,
			l.Hours.StringFixed(2),
			l.Breaks.StringFixed(2),
			l.Total.StringFixed(2),
			l.Bonus.StringFixed(2),
			l.Period.Start.String(),
			l.Period.End.String(),
		})
	}
	return write(w, f, "Payroll", EarningsColumns, rows)
}

// Records writes work records in the given format.
func Records(w io.Writer, f Format, recs []payroll.WorkRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.ID,
			r.Date.String(),
			r.Employee,
			string(r.Task),
			r.Show,
			r.BreakNumbers,
			r.Quantity.StringFixed(2),
			string(r.Unit),
			r.Bonus.StringFixed(2),
			string(r.Source),
			r.CreatedBy,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return write(w, f, "Work Log", RecordColumns, rows)
}

func write(w io.Writer, f Format, sheet string, header []string, rows [][]string) error {
	switch f {
	case CSV:
		return writeCSV(w, header, rows)
	case XLSX:
		return writeXLSX(w, sheet, header, rows)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, sheet string, header []string, rows [][]string) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return err
	}
	for i, row := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
