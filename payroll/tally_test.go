package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/worklog/payroll"
)

// Week of Monday 2025-03-03.
var (
	monday = payroll.NewDate(2025, time.March, 3)
	week   = payroll.WeekOf(monday)
)

func breaks(emp string, day payroll.Date, n string) payroll.WorkRecord {
	return payroll.WorkRecord{Employee: emp, Date: day, Task: payroll.TaskSort, Unit: payroll.UnitBreaks, Quantity: dec(n)}
}

func shift(emp string, day payroll.Date, hours string) payroll.WorkRecord {
	return payroll.WorkRecord{Employee: emp, Date: day, Task: payroll.TaskShift, Unit: payroll.UnitHours, Quantity: dec(hours)}
}

func punch(emp string, weekStart payroll.Date, hours string) payroll.PunchClockEntry {
	return payroll.PunchClockEntry{Employee: emp, WeekStart: weekStart, TotalHours: dec(hours)}
}

func TestTally_SumsBreaksAndBonusInPeriod(t *testing.T) {
	b := breaks("Emily", monday, "3")
	b.Bonus = dec("10")
	records := []payroll.WorkRecord{
		b,
		breaks("Emily", monday.AddDays(2), "1.5"),
		breaks("Emily", monday.AddDays(7), "9"), // next week
		breaks("Anthony", monday, "4"),
	}

	q := payroll.Tally("Emily", records, nil, week)

	assert.Equal(t, "4.5", q.Breaks.String())
	assert.Equal(t, "10", q.Bonus.String())
	assert.True(t, q.Hours.IsZero())
}

func TestTally_PunchClockWinsOverShifts(t *testing.T) {
	// GIVEN: a punch-clock total and self-reported shifts in the same week
	// THEN: only the punch-clock hours count
	records := []payroll.WorkRecord{shift("Greg", monday, "8"), shift("Greg", monday.AddDays(1), "6")}
	punches := []payroll.PunchClockEntry{punch("Greg", monday, "7.25")}

	q := payroll.Tally("Greg", records, punches, week)

	assert.Equal(t, "7.25", q.Hours.String())
}

func TestTally_ShiftsFillWeeksWithoutPunches(t *testing.T) {
	twoWeeks := payroll.PayPeriod{Start: monday, End: monday.AddDays(13)}
	records := []payroll.WorkRecord{
		shift("Greg", monday, "8"),              // punched week, ignored
		shift("Greg", monday.AddDays(8), "5.5"), // unpunched week
		shift("Greg", monday.AddDays(9), "2"),
	}
	punches := []payroll.PunchClockEntry{punch("Greg", monday, "30")}

	q := payroll.Tally("Greg", records, punches, twoWeeks)

	assert.Equal(t, "37.5", q.Hours.String())
}

func TestTally_SundayWeekPunchCoversItsShifts(t *testing.T) {
	sunday := monday.AddDays(-1)
	sundayWeek := payroll.WeekStarting(sunday)
	records := []payroll.WorkRecord{
		shift("Greg", sunday, "4"),
		shift("Greg", sunday.AddDays(6), "6"), // Saturday, same punch week
		breaks("Greg", monday, "2"),
	}
	punches := []payroll.PunchClockEntry{punch("Greg", sunday, "31.5")}

	q := payroll.Tally("Greg", records, punches, sundayWeek)

	assert.Equal(t, "31.5", q.Hours.String())
	assert.Equal(t, "2", q.Breaks.String())
}

func TestTally_EarlierPunchWeekStillCoversShifts(t *testing.T) {
	// GIVEN: a period starting Wednesday and a punch week starting Monday
	// THEN: the punch hours are outside the period, and so are the shifts it covers
	midweek := payroll.PayPeriod{Start: monday.AddDays(2), End: monday.AddDays(8)}
	records := []payroll.WorkRecord{
		shift("Greg", monday.AddDays(3), "8"), // covered by the Monday punch week
		shift("Greg", monday.AddDays(7), "5"), // next week, no punches
	}
	punches := []payroll.PunchClockEntry{punch("Greg", monday, "40")}

	q := payroll.Tally("Greg", records, punches, midweek)

	assert.Equal(t, "5", q.Hours.String())
}

func TestTally_NoActivityIsZero(t *testing.T) {
	q := payroll.Tally("Nobody", nil, nil, week)
	assert.True(t, q.Hours.IsZero())
	assert.True(t, q.Breaks.IsZero())
	assert.True(t, q.Bonus.IsZero())
}

func TestNames_FirstSeenOrderAndDistinct(t *testing.T) {
	records := []payroll.WorkRecord{
		breaks("Emily", monday, "1"),
		breaks("Zed", monday.AddDays(30), "1"), // outside
		breaks("Anthony", monday, "1"),
		breaks("Emily", monday, "2"),
	}
	punches := []payroll.PunchClockEntry{punch("Greg", monday, "7")}

	assert.Equal(t, []string{"Greg", "Emily", "Anthony"}, payroll.Names(records, punches, week))
}
