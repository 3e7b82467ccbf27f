/*
Package punchclock imports weekly hour totals exported by the time clock.

PURPOSE:
  The time clock exports one file per employee per week. Each file holds
  the employee's badge name and the total hours for the week. Import
  parses those files and upserts payroll.PunchClockEntry rows so the
  payroll report can prefer them over self-reported shifts.

FILE LAYOUT:
  Accepted formats are .csv (UTF-8 or Latin-1), .xlsx and .xls. Only the
  first worksheet is read. Cells are addressed 0-based:

    [2][3]   badge name, e.g. "Emily Stone (104)"
    [11][5]  total hours for the week, e.g. "38.75"

  The week starts on the first 8-digit YYYYMMDD run in the file name.
  Importer.SnapToMonday moves it to the Monday on or before that date.

NAMES:
  The badge number suffix is dropped and only the first name is kept,
  so "Emily Stone (104)" is stored as "Emily".

SEE ALSO:
  - payroll/tally.go: How punch hours override shift records
  - import.go: Concurrent batch import
*/
package punchclock

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/warp/worklog/payroll"
)

// Cell positions in the time clock export.
const (
	NameRow  = 2
	NameCol  = 3
	HoursRow = 11
	HoursCol = 5

	maxRows = 100000
)

var (
	ErrUnsupportedFormat = errors.New("unsupported punch clock file format")
	ErrEmptyFile         = errors.New("punch clock file is empty")
	ErrMissingName       = errors.New("punch clock file has no employee name")
	ErrMissingHours      = errors.New("punch clock file has no total hours")

	// ErrMissingWeek means the file name carries no YYYYMMDD date. The
	// entry is still returned so callers can report it.
	ErrMissingWeek = errors.New("punch clock file name has no week date")
)

var (
	badgeSuffix = regexp.MustCompile(`\s*\(\d+\)`)
	weekDigits  = regexp.MustCompile(`\d{8}`)
)

// Parse extracts one entry from a time clock export. On ErrMissingWeek the
// returned entry has every field but WeekStart set.
func Parse(filename string, data []byte) (payroll.PunchClockEntry, error) {
	entry := payroll.PunchClockEntry{SourceFile: filepath.Base(filename)}

	rows, err := ReadRows(filename, data)
	if err != nil {
		return entry, err
	}

	name := NormalizeName(cellValue(rows, NameRow, NameCol))
	if name == "" {
		return entry, ErrMissingName
	}
	entry.Employee = name

	raw := strings.ReplaceAll(cellValue(rows, HoursRow, HoursCol), ",", "")
	if raw == "" {
		return entry, ErrMissingHours
	}
	hours, err := decimal.NewFromString(raw)
	if err != nil {
		return entry, fmt.Errorf("total hours %q: %w", raw, err)
	}
	if hours.IsNegative() {
		return entry, fmt.Errorf("total hours %q: %w", raw, payroll.ErrNegativeQuantity)
	}
	entry.TotalHours = hours

	week, ok := WeekFromFilename(filename)
	if !ok {
		return entry, ErrMissingWeek
	}
	entry.WeekStart = week
	return entry, nil
}

// NormalizeName drops badge number suffixes and keeps the first name.
func NormalizeName(raw string) string {
	fields := strings.Fields(badgeSuffix.ReplaceAllString(raw, ""))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// WeekFromFilename returns the first valid YYYYMMDD date in the base file
// name.
func WeekFromFilename(filename string) (payroll.Date, bool) {
	for _, m := range weekDigits.FindAllString(filepath.Base(filename), -1) {
		t, err := time.Parse("20060102", m)
		if err != nil {
			continue
		}
		return payroll.DateOf(t), true
	}
	return payroll.Date{}, false
}

// ReadRows returns the cells of the first worksheet, or of the CSV file.
func ReadRows(filename string, data []byte) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		rows, err = readCSV(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode latin1: %w", err)
		}
		data = decoded
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}
	return wb.ReadAllCells(maxRows), nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}
	return f.GetRows(sheet)
}

func cellValue(rows [][]string, row, col int) string {
	if row < 0 || row >= len(rows) {
		return ""
	}
	if col < 0 || col >= len(rows[row]) {
		return ""
	}
	return strings.TrimSpace(rows[row][col])
}
