/*
Package workbook mirrors submitted work records into an .xlsx file.

PURPOSE:
  Office staff read the work log in a spreadsheet. Every accepted
  record is appended as one row of the "Work Log" sheet. The file is an
  append-only copy; the relational store stays the system of record and
  nothing reconciles the two.

LAYOUT:
  Row 1 is the header (see Columns). Each later row is one record.

CONCURRENCY:
  Appends are serialized with a mutex. The file is opened, appended and
  saved per call so an operator can copy it at any time.

SEE ALSO:
  - payroll/store.go: LogSink interface
  - worklog/worklog.go: Calls Append after a successful submit
*/
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/worklog/payroll"
)

// SheetName is the worksheet records are written to.
const SheetName = "Work Log"

// Columns is the header row.
var Columns = []string{
	"Record ID", "Date", "Name", "Task", "Whose Show", "Break Numbers",
	"Quantity", "Unit", "Bonus", "Source", "Submitted By", "Submitted At",
}

// Workbook is a payroll.LogSink backed by an .xlsx file.
type Workbook struct {
	path string
	mu   sync.Mutex
}

var _ payroll.LogSink = (*Workbook)(nil)

// Open returns a workbook at path, creating the file with a header row if
// it does not exist.
func Open(path string) (*Workbook, error) {
	w := &Workbook{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := w.create(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat workbook: %w", err)
	}
	return w, nil
}

// Path returns the backing file path.
func (w *Workbook) Path() string { return w.path }

func (w *Workbook) create() error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Append writes rec as the next row.
func (w *Workbook) Append(ctx context.Context, rec payroll.WorkRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(SheetName); idx < 0 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	row := []any{
		rec.ID,
		rec.Date.String(),
		rec.Employee,
		string(rec.Task),
		rec.Show,
		rec.BreakNumbers,
		rec.Quantity.InexactFloat64(),
		string(rec.Unit),
		rec.Bonus.InexactFloat64(),
		string(rec.Source),
		rec.CreatedBy,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Records reads every row back (header skipped).
func (w *Workbook) Records(ctx context.Context) ([]payroll.WorkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var recs []payroll.WorkRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := func(j int) string {
			if j < len(row) {
				return row[j]
			}
			return ""
		}
		date, _ := payroll.ParseDate(cell(1))
		created, _ := time.Parse(time.RFC3339, cell(11))
		recs = append(recs, payroll.WorkRecord{
			ID:           cell(0),
			Date:         date,
			Employee:     cell(2),
			Task:         payroll.Task(cell(3)),
			Show:         cell(4),
			BreakNumbers: cell(5),
			Quantity:     payroll.MustParseDecimal(cell(6)),
			Unit:         payroll.Unit(cell(7)),
			Bonus:        payroll.MustParseDecimal(cell(8)),
			Source:       payroll.Source(cell(9)),
			CreatedBy:    cell(10),
			CreatedAt:    created,
		})
	}
	return recs, nil
}
