package worklog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/worklog/payroll"
)

// maxBreakRange bounds a single "a-b" range in a break list.
const maxBreakRange = 500

var rangeDash = regexp.MustCompile(`\s*-\s*`)

// ParseBreakNumbers counts the distinct break numbers in a free-text list
// such as "3, 5-7" (4 breaks). Separators are commas, semicolons and
// whitespace; spaces around a range dash are allowed ("5 - 7"). A leading
// '#' on a number is ignored.
func ParseBreakNumbers(s string) (int, error) {
	s = rangeDash.ReplaceAllString(s, "-")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	seen := make(map[int]bool)
	for _, f := range fields {
		f = strings.TrimPrefix(f, "#")
		if f == "" {
			continue
		}
		lo, hi, err := parseBreakRange(f)
		if err != nil {
			return 0, err
		}
		for n := lo; n <= hi; n++ {
			seen[n] = true
		}
	}
	return len(seen), nil
}

func parseBreakRange(f string) (int, int, error) {
	a, b, isRange := strings.Cut(f, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || lo < 0 {
		return 0, 0, fmt.Errorf("bad break number %q", f)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil || hi < lo {
		return 0, 0, fmt.Errorf("bad break range %q", f)
	}
	if hi-lo >= maxBreakRange {
		return 0, 0, fmt.Errorf("break range %q is too large", f)
	}
	return lo, hi, nil
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftHours returns the hours between clock-in and clock-out, rounded to
// two places. Returns ErrInvalidShift unless out is after in.
func ShiftHours(in, out time.Time) (decimal.Decimal, error) {
	if !out.After(in) {
		return decimal.Zero, payroll.ErrInvalidShift
	}
	secs := decimal.NewFromInt(int64(out.Sub(in) / time.Second))
	return payroll.Round(secs.Div(decimal.NewFromInt(3600))), nil
}

// ParseClock parses a wall-clock time ("09:00", "9:00 AM", "17:30:00") on
// the given day.
func ParseClock(day payroll.Date, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			y, m, d := day.Time.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use HH:MM)", s)
}
