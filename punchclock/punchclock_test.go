package punchclock_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/payroll/store"
	"github.com/warp/worklog/punchclock"
)

var monday = payroll.NewDate(2025, time.March, 3)

// csvExport lays out a time clock export with the name and hours cells set.
func csvExport(name, hours string) []byte {
	var b strings.Builder
	for row := 0; row < 14; row++ {
		cells := make([]string, 8)
		cells[0] = fmt.Sprintf("r%d", row)
		if row == punchclock.NameRow {
			cells[punchclock.NameCol] = name
		}
		if row == punchclock.HoursRow {
			cells[punchclock.HoursCol] = hours
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func xlsxExport(t *testing.T, name, hours string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Time Card"))
	require.NoError(t, f.SetCellValue("Sheet1", "D3", name))
	require.NoError(t, f.SetCellValue("Sheet1", "F12", hours))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Emily Stone (104)", "Emily"},
		{"  Greg (7) Hall", "Greg"},
		{"Anthony", "Anthony"},
		{"(12)", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, punchclock.NormalizeName(tt.in), tt.in)
	}
}

func TestWeekFromFilename(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		want   payroll.Date
		wantOK bool
	}{
		{"monday date", "timecard_20250303.csv", monday, true},
		{"midweek date kept", "Emily-20250305-export.xlsx", monday.AddDays(2), true},
		{"sunday date kept", "punch_20250302.csv", monday.AddDays(-1), true},
		{"first valid run wins", "99999999_20250310.csv", monday.AddDays(7), true},
		{"directory digits ignored", "/tmp/20240101/card.csv", payroll.Date{}, false},
		{"no date", "card.csv", payroll.Date{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := punchclock.WeekFromFilename(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CSV(t *testing.T) {
	entry, err := punchclock.Parse("card_20250303.csv", csvExport("Emily Stone (104)", "38.75"))
	require.NoError(t, err)
	assert.Equal(t, "Emily", entry.Employee)
	assert.Equal(t, monday, entry.WeekStart)
	assert.Equal(t, "38.75", entry.TotalHours.String())
	assert.Equal(t, "card_20250303.csv", entry.SourceFile)
}

func TestParse_CSVLatin1(t *testing.T) {
	// "José" in ISO-8859-1
	data := csvExport("Jos\xe9 Ruiz (3)", "12")
	entry, err := punchclock.Parse("card_20250303.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "José", entry.Employee)
}

func TestParse_XLSX(t *testing.T) {
	entry, err := punchclock.Parse("card_20250303.xlsx", xlsxExport(t, "Greg Hall (7)", "40.5"))
	require.NoError(t, err)
	assert.Equal(t, "Greg", entry.Employee)
	assert.Equal(t, "40.5", entry.TotalHours.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
	}{
		{"unsupported", "card.pdf", []byte("x"), punchclock.ErrUnsupportedFormat},
		{"empty", "card_20250303.csv", nil, punchclock.ErrEmptyFile},
		{"no name", "card_20250303.csv", csvExport("", "8"), punchclock.ErrMissingName},
		{"no hours", "card_20250303.csv", csvExport("Emily", ""), punchclock.ErrMissingHours},
		{"negative hours", "card_20250303.csv", csvExport("Emily", "-2"), payroll.ErrNegativeQuantity},
		{"no week", "card.csv", csvExport("Emily", "8"), punchclock.ErrMissingWeek},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := punchclock.Parse(tt.file, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("garbage xls", func(t *testing.T) {
		_, err := punchclock.Parse("card_20250303.xls", []byte("not a workbook"))
		assert.Error(t, err)
	})
}

func TestParse_MissingWeekKeepsEntry(t *testing.T) {
	entry, err := punchclock.Parse("card.csv", csvExport("Emily", "8"))
	require.ErrorIs(t, err, punchclock.ErrMissingWeek)
	assert.Equal(t, "Emily", entry.Employee)
	assert.Equal(t, "8", entry.TotalHours.String())
	assert.True(t, entry.WeekStart.IsZero())
}

func TestImporter_ImportAll(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	im := punchclock.NewImporter(mem)
	im.Limit = 2
	im.Now = func() time.Time { return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC) }

	files := []punchclock.File{
		{Name: "emily_20250303.csv", Data: csvExport("Emily Stone (104)", "38.75")},
		{Name: "greg_20250303.xlsx", Data: xlsxExport(t, "Greg Hall (7)", "40")},
		{Name: "undated.csv", Data: csvExport("Anthony", "12")},
		{Name: "notes.pdf", Data: []byte("x")},
	}

	results, err := im.ImportAll(ctx, files)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, f := range files {
		assert.Equal(t, f.Name, results[i].File, "results keep input order")
	}
	assert.True(t, results[0].Saved)
	assert.True(t, results[1].Saved)
	assert.True(t, results[2].MissingWeek())
	assert.False(t, results[2].Saved)
	assert.ErrorIs(t, results[3].Err, punchclock.ErrUnsupportedFormat)

	saved, skipped := punchclock.Summary(results)
	assert.Equal(t, 2, saved)
	assert.Equal(t, 2, skipped)

	got, err := mem.GetPunchClock(ctx, "Emily", monday)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "38.75", got.TotalHours.String())
	assert.Equal(t, im.Now(), got.ImportedAt)

	entries, err := mem.ListPunchClock(ctx, monday, monday.AddDays(6))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestImporter_ReimportOverwrites(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	im := punchclock.NewImporter(mem)

	_, err := im.Import(ctx, punchclock.File{Name: "e_20250303.csv", Data: csvExport("Emily", "30")})
	require.NoError(t, err)
	_, err = im.Import(ctx, punchclock.File{Name: "e_20250303.csv", Data: csvExport("Emily", "32.5")})
	require.NoError(t, err)

	entries, err := mem.ListPunchClock(ctx, monday, monday)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "32.5", entries[0].TotalHours.String())
}

func TestImporter_SnapToMonday(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	im := punchclock.NewImporter(mem)

	res, err := im.Import(ctx, punchclock.File{Name: "punch_20250302.csv", Data: csvExport("Emily", "30")})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", res.Entry.WeekStart.String(), "file date starts the week")

	im.SnapToMonday = true
	res, err = im.Import(ctx, punchclock.File{Name: "punch_20250302.csv", Data: csvExport("Greg", "40")})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-24", res.Entry.WeekStart.String())

	got, err := mem.GetPunchClock(ctx, "Greg", monday.AddDays(-7))
	require.NoError(t, err)
	require.NotNil(t, got)
}

type failingStore struct {
	payroll.PunchClockStore
}

func (failingStore) SavePunchClock(context.Context, payroll.PunchClockEntry) error {
	return errors.New("disk full")
}

func TestImporter_StoreFailureIsReturned(t *testing.T) {
	im := punchclock.NewImporter(failingStore{})
	_, err := im.ImportAll(context.Background(), []punchclock.File{
		{Name: "e_20250303.csv", Data: csvExport("Emily", "8")},
	})
	assert.ErrorContains(t, err, "disk full")
}
