package payroll

// =============================================================================
// PAY PERIOD - Date range work is aggregated over
// =============================================================================

// PayPeriod is an inclusive date range [Start, End].
//
// The work log pays weekly. A report week runs seven days from the day it
// is keyed on, the same day punch-clock exports carry in their file
// names. WeekOf gives the Monday-to-Sunday week for sites that snap
// weeks to Monday.
type PayPeriod struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewPayPeriod validates that end is not before start.
func NewPayPeriod(start, end Date) (PayPeriod, error) {
	p := PayPeriod{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return PayPeriod{}, err
	}
	return p, nil
}

// WeekOf returns the Monday..Sunday period containing d.
func WeekOf(d Date) PayPeriod {
	start := d.StartOfWeek()
	return PayPeriod{Start: start, End: start.AddDays(6)}
}

// WeekStarting returns the seven-day period [d, d+6].
func WeekStarting(d Date) PayPeriod {
	return PayPeriod{Start: d, End: d.AddDays(6)}
}

// ReportWeek returns the week a report keyed on d covers: WeekOf(d) when
// snapToMonday is set, WeekStarting(d) otherwise.
func ReportWeek(d Date, snapToMonday bool) PayPeriod {
	if snapToMonday {
		return WeekOf(d)
	}
	return WeekStarting(d)
}

func (p PayPeriod) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p PayPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of days in the period.
func (p PayPeriod) Days() int { return DaysBetween(p.Start, p.End) + 1 }

// Weeks returns the Monday of every week that overlaps the period.
func (p PayPeriod) Weeks() []Date {
	var weeks []Date
	for w := p.Start.StartOfWeek(); w.BeforeOrEqual(p.End); w = w.AddDays(7) {
		weeks = append(weeks, w)
	}
	return weeks
}

// Next returns the period of equal length that follows this one.
func (p PayPeriod) Next() PayPeriod {
	n := p.Days()
	return PayPeriod{Start: p.End.AddDays(1), End: p.End.AddDays(n)}
}

// Previous returns the period of equal length before this one.
func (p PayPeriod) Previous() PayPeriod {
	n := p.Days()
	return PayPeriod{Start: p.Start.AddDays(-n), End: p.Start.AddDays(-1)}
}

func (p PayPeriod) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
