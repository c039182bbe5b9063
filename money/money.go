/*
Package money provides exact decimal arithmetic for monetary amounts.

PURPOSE:
  All facility bookkeeping — principal, interest, fees, penalties — is
  exact decimal arithmetic. No float64 ever touches a balance. This
  package wraps shopspring/decimal with a fixed internal scale and
  explicit, half-to-even rounding at every multiplicative boundary, so
  two callers computing the same quantity always land on the same
  minor unit.

SCALE:
  InternalScale (8 fractional digits) is used for all storage and
  intermediate math. DisplayScale (2) is only used when formatting for
  a human or a JSON readout — it is never used internally, so repeated
  display-rounding can't accumulate drift in the ledger itself.

ROUNDING:
  Every operation that can introduce a non-terminating fraction
  (multiplication by a Rate, division) rounds half-to-even
  (banker's rounding) at InternalScale immediately. Addition and
  subtraction never round: decimal.Decimal keeps them exact.

SEE ALSO:
  - rate.go: Rate, the annualized-fraction counterpart to Money.
*/
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InternalScale is the number of fractional digits Money is normalized to
// after any rounding operation.
const InternalScale = 8

// DisplayScale is the number of fractional digits used for human/JSON
// readouts. It is never used for internal bookkeeping.
const DisplayScale = 2

// Money is a signed exact decimal amount, normalized to InternalScale
// fractional digits after every multiplicative operation.
type Money struct {
	v decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{v: decimal.Zero}

// FromMajor builds a Money from a major-unit amount, e.g. FromMajor(12, 34)
// for $12.34. Fractional input beyond InternalScale is itself rounded
// half-to-even.
func FromMajor(major int64, fractionalMinor int64) Money {
	whole := decimal.NewFromInt(major)
	frac := decimal.NewFromInt(fractionalMinor).Shift(-2) // fractionalMinor is cents
	return Money{v: whole.Add(frac)}.normalize()
}

// FromFloat builds Money from a float64 literal. Intended for test fixtures
// and config literals only — never for computed values, which must stay in
// Money/Rate end to end.
func FromFloat(f float64) Money {
	return Money{v: decimal.NewFromFloat(f)}.normalize()
}

// FromString parses an exact decimal string, e.g. "1234.56789012".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return Money{v: d}.normalize(), nil
}

// FromMinor builds a Money directly from minor units (InternalScale
// fractional digits), e.g. FromMinor(123456789) == 1.23456789.
func FromMinor(units int64) Money {
	return Money{v: decimal.NewFromInt(units).Shift(-InternalScale)}
}

func (m Money) normalize() Money {
	return Money{v: m.v.RoundBank(InternalScale)}
}

// Add returns m + other.
func (m Money) Add(other Money) Money { return Money{v: m.v.Add(other.v)} }

// Sub returns m − other. Callers keeping balances non-negative must
// check IsNegative() on the result themselves; Sub alone is permitted
// to go negative for signed contexts (e.g. overdraft).
func (m Money) Sub(other Money) Money { return Money{v: m.v.Sub(other.v)} }

// Neg returns −m.
func (m Money) Neg() Money { return Money{v: m.v.Neg()} }

// MulRate returns m × rate, rounded half-to-even at InternalScale.
func (m Money) MulRate(r Rate) Money {
	return Money{v: m.v.Mul(r.v)}.normalize()
}

// MulDecimal returns m × d, rounded half-to-even at InternalScale.
func (m Money) MulDecimal(d decimal.Decimal) Money {
	return Money{v: m.v.Mul(d)}.normalize()
}

// DivDecimal returns m ÷ d, rounded half-to-even at InternalScale.
// Panics on division by zero, matching decimal's own behavior — callers
// must validate divisors (e.g. term_months ≥ 1) before calling this.
func (m Money) DivDecimal(d decimal.Decimal) Money {
	return Money{v: m.v.Div(d).RoundBank(InternalScale)}
}

// DivInt returns m ÷ n, rounded half-to-even at InternalScale.
func (m Money) DivInt(n int64) Money {
	return m.DivDecimal(decimal.NewFromInt(n))
}

// Cmp compares m to other: -1, 0, or 1.
func (m Money) Cmp(other Money) int { return m.v.Cmp(other.v) }

func (m Money) IsZero() bool              { return m.v.IsZero() }
func (m Money) IsNegative() bool          { return m.v.IsNegative() }
func (m Money) IsPositive() bool          { return m.v.IsPositive() }
func (m Money) GreaterThan(o Money) bool  { return m.v.GreaterThan(o.v) }
func (m Money) LessThan(o Money) bool     { return m.v.LessThan(o.v) }
func (m Money) GreaterOrEqual(o Money) bool { return !m.v.LessThan(o.v) }
func (m Money) LessOrEqual(o Money) bool    { return !m.v.GreaterThan(o.v) }
func (m Money) Equal(o Money) bool          { return m.v.Equal(o.v) }

// Min returns the smaller of m and other.
func (m Money) Min(other Money) Money {
	if m.LessThan(other) {
		return m
	}
	return other
}

// Max returns the larger of m and other.
func (m Money) Max(other Money) Money {
	if m.GreaterThan(other) {
		return m
	}
	return other
}

// AbsDiff returns |m − other|, useful for settlement-threshold checks
// (e.g. "within ε of zero").
func AbsDiff(a, b Money) Money {
	d := a.Sub(b)
	if d.IsNegative() {
		return d.Neg()
	}
	return d
}

// WithinEpsilon reports whether |m − other| is less than or equal to eps.
func (m Money) WithinEpsilon(other, eps Money) bool {
	return AbsDiff(m, other).LessOrEqual(eps)
}

// Epsilon is the settlement tolerance at InternalScale: 10^(-InternalScale).
var Epsilon = FromMinor(1)

// String renders at InternalScale, matching the exact stored value.
func (m Money) String() string { return m.v.StringFixed(InternalScale) }

// Display renders rounded half-to-even to DisplayScale, for JSON readouts
// and human-facing output only.
func (m Money) Display() string { return m.v.RoundBank(DisplayScale).StringFixed(DisplayScale) }

// Decimal exposes the underlying exact value, for callers (e.g. JSON
// marshaling, the collateral LTV ratio) that need raw decimal math this
// package doesn't otherwise expose.
func (m Money) Decimal() decimal.Decimal { return m.v }

// MarshalJSON renders Money as a JSON number string at InternalScale so
// readouts are lossless.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}
