package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// TALLY - Per-employee, per-period aggregation
// =============================================================================

// Tally sums an employee's logged work for a period.
//
// Breaks and bonuses come from work records dated inside the period. Hours
// come from punch-clock weeks that start inside the period. A shift record
// counts only when no punch-clock week of the employee covers its date;
// punches may include weeks that start before the period for that check.
func Tally(employee string, records []WorkRecord, punches []PunchClockEntry, period PayPeriod) Quantities {
	q := Quantities{Hours: decimal.Zero, Breaks: decimal.Zero, Bonus: decimal.Zero}

	var covered []PayPeriod
	for _, p := range punches {
		if p.Employee != employee {
			continue
		}
		covered = append(covered, WeekStarting(p.WeekStart))
		if period.Contains(p.WeekStart) {
			q.Hours = q.Hours.Add(p.TotalHours)
		}
	}
	punched := func(d Date) bool {
		for _, w := range covered {
			if w.Contains(d) {
				return true
			}
		}
		return false
	}

	for _, r := range records {
		if r.Employee != employee || !period.Contains(r.Date) {
			continue
		}
		q.Bonus = q.Bonus.Add(r.Bonus)
		switch r.Unit {
		case UnitBreaks:
			q.Breaks = q.Breaks.Add(r.Quantity)
		case UnitHours:
			if !punched(r.Date) {
				q.Hours = q.Hours.Add(r.Quantity)
			}
		}
	}
	return q
}

// Names returns the distinct employee names with activity in a period, in
// first-seen order.
func Names(records []WorkRecord, punches []PunchClockEntry, period PayPeriod) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}
	for _, p := range punches {
		if period.Contains(p.WeekStart) {
			add(p.Employee)
		}
	}
	for _, r := range records {
		if period.Contains(r.Date) {
			add(r.Employee)
		}
	}
	return names
}
