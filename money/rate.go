package money

import "github.com/shopspring/decimal"

// Rate is an exact decimal annualized fraction, e.g. 0.05 for 5% APR.
// Rates are never rounded to InternalScale: Scale, Mul and Add stay
// exact, while PerDay and PerMonth divide with decimal's Div, which
// rounds at its 16-digit DivisionPrecision. The Money a rate scales is
// rounded at InternalScale at the point of multiplication.
type Rate struct {
	v decimal.Decimal
}

// ZeroRate is 0%.
var ZeroRate = Rate{v: decimal.Zero}

// NewRate builds a Rate from a decimal fraction, e.g. NewRate(0.08) for 8% APR.
func NewRate(fraction float64) Rate {
	return Rate{v: decimal.NewFromFloat(fraction)}
}

// RateFromString parses an exact decimal fraction string.
func RateFromString(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, err
	}
	return Rate{v: d}, nil
}

// PerDay scales the annualized rate by 1/denominator, e.g. PerDay(365) for
// an Actual365 day-count convention.
func (r Rate) PerDay(denominator int64) Rate {
	return Rate{v: r.v.Div(decimal.NewFromInt(denominator))}
}

// PerMonth scales the annualized rate by 1/12, e.g. for EMI computation.
func (r Rate) PerMonth() Rate {
	return Rate{v: r.v.Div(decimal.NewFromInt(12))}
}

// Scale returns r scaled by an arbitrary decimal factor (e.g. a day
// fraction Δ from a day-count convention, or a penalty multiplier).
func (r Rate) Scale(factor decimal.Decimal) Rate {
	return Rate{v: r.v.Mul(factor)}
}

// Mul returns r × other, both treated as plain decimal fractions (used to
// combine a base rate with a penalty multiplier).
func (r Rate) Mul(other Rate) Rate {
	return Rate{v: r.v.Mul(other.v)}
}

// Add returns r + other.
func (r Rate) Add(other Rate) Rate { return Rate{v: r.v.Add(other.v)} }

func (r Rate) IsZero() bool             { return r.v.IsZero() }
func (r Rate) IsNegative() bool         { return r.v.IsNegative() }
func (r Rate) GreaterThan(o Rate) bool  { return r.v.GreaterThan(o.v) }
func (r Rate) GreaterOrEqual(o Rate) bool { return !r.v.LessThan(o.v) }
func (r Rate) LessThan(o Rate) bool     { return r.v.LessThan(o.v) }

// Decimal exposes the underlying fraction, e.g. for use as a Money
// divisor/multiplier exponentiation base in EMI computation.
func (r Rate) Decimal() decimal.Decimal { return r.v }

// String renders the rate as a plain decimal fraction.
func (r Rate) String() string { return r.v.String() }

// MarshalJSON renders Rate as a JSON number string.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.v.String() + `"`), nil
}
