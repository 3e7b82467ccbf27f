/*
pay.go - The payroll computation rule

PURPOSE:
  Maps (classification, rate, aggregated quantity) to a currency amount:

    hourly     -> rate x hours
    per_break  -> rate x breaks

ROUNDING:
  The product is rounded ONCE, on the aggregate, to 2 decimal places using
  banker's rounding (half to even). 18.50 x 7.25 = 134.125 -> 134.12.
  Callers must sum quantities first and call Pay once per period. Rounding
  per record drifts: three 0.125h punches at 18.50 are 2.31 each (6.93),
  while the aggregate 0.375h pays 6.94.

MISSING DATA:
  Pay is lenient: an unknown classification, a missing rate, or negative
  input yields zero. Rule.Evaluate is the strict form and returns the reason
  as an error so a caller can surface bad directory configuration.

PURITY:
  No state, no I/O. Identical inputs give identical outputs.

SEE ALSO:
  - tally.go: Builds the aggregated quantity
  - report.go: Applies the rule per employee per period
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places pay is rounded to.
const MoneyPlaces int32 = 2

// Round applies the payroll rounding mode.
func Round(d decimal.Decimal) decimal.Decimal { return d.RoundBank(MoneyPlaces) }

// Pay computes earnings for an aggregated quantity. It never fails; see
// Rule.Evaluate for the strict variant.
func Pay(c Classification, rate, quantity decimal.Decimal) decimal.Decimal {
	total, err := DefaultRule.Evaluate(c, &rate, quantity)
	if err != nil {
		return decimal.Zero
	}
	return total
}

// Rule is the pay rule with its rounding configuration.
type Rule struct {
	Places int32
}

// DefaultRule rounds to cents.
var DefaultRule = Rule{Places: MoneyPlaces}

// Evaluate returns rate x quantity for a known classification.
// A nil rate means the employee has no rate configured.
func (r Rule) Evaluate(c Classification, rate *decimal.Decimal, quantity decimal.Decimal) (decimal.Decimal, error) {
	if rate == nil {
		return decimal.Zero, ErrMissingRate
	}
	if rate.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}
	if quantity.IsNegative() {
		return decimal.Zero, ErrNegativeQuantity
	}

	switch c {
	case Hourly, PerBreak:
		return rate.Mul(quantity).RoundBank(r.Places), nil
	default:
		return decimal.Zero, ErrUnknownClassification
	}
}

// Quantities is the per-period aggregate for one employee.
type Quantities struct {
	Hours  decimal.Decimal
	Breaks decimal.Decimal
	Bonus  decimal.Decimal
}

// For returns the quantity a classification is paid on.
func (q Quantities) For(c Classification) decimal.Decimal {
	switch c {
	case Hourly:
		return q.Hours
	case PerBreak:
		return q.Breaks
	default:
		return decimal.Zero
	}
}

// PayFor applies the lenient rule to an employee. A nil employee pays zero.
func PayFor(emp *Employee, q Quantities) decimal.Decimal {
	if emp == nil {
		return decimal.Zero
	}
	return Pay(emp.Classification, emp.Rate, q.For(emp.Classification))
}
