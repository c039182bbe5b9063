/*
payment.go - Payment waterfall, EMI, and amortization (component F).

PURPOSE:
  Implements cash application in a fixed bucket order (fees → penalties
  → interest → principal), the equal-installment EMI formula, and the
  declining-balance schedule amortization uses when EqualInstallment is
  not selected.

WATERFALL:
  apply_payment always forces accrue_to(now) first, so the buckets it
  drains reflect the instant of payment, then drains buckets strictly
  in order. The principal step is bounded by the amount actually due
  for the current period on scheduled facilities (duePrincipal), so
  cash past the due installment — not just past the whole balance — is
  the excess PaymentConfig.Overpayment decides over.
*/
package facility

import (
	"github.com/shopspring/decimal"

	"github.com/warp/credit-facility/money"
)

// computeEMI returns the constant equal-installment payment for a
// TermLoan: P*r/(1-(1+r)^-n), or P/n when r is zero.
func computeEMI(principal money.Money, baseRate money.Rate, remainingMonths int) money.Money {
	if remainingMonths <= 0 {
		return money.Zero
	}
	r := baseRate.PerMonth()
	if r.IsZero() {
		return principal.DivInt(int64(remainingMonths))
	}

	rd := r.Decimal()
	onePlusR := decimal.NewFromInt(1).Add(rd)
	pow := intPow(onePlusR, remainingMonths)
	denom := decimal.NewFromInt(1).Sub(decimal.NewFromInt(1).Div(pow))

	numerator := principal.MulDecimal(rd)
	return numerator.DivDecimal(denom)
}

// intPow returns base^n for a non-negative integer n via repeated
// squaring, sufficient precision for EMI denominators since
// remainingMonths never exceeds a few hundred.
func intPow(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	b := base
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(b)
		}
		b = b.Mul(b)
		n >>= 1
	}
	return result
}

// decliningInstallment returns the interest and principal components of
// one period under declining-balance amortization: interest on the
// current outstanding balance, plus a constant principal share.
func decliningInstallment(outstanding money.Money, baseRate money.Rate, originalPrincipal money.Money, termMonths int) (interest, principal money.Money) {
	r := baseRate.PerMonth()
	interest = outstanding.MulRate(r)
	principal = originalPrincipal.DivInt(int64(termMonths))
	if principal.GreaterThan(outstanding) {
		principal = outstanding
	}
	return interest, principal
}

// scheduledInstallmentAmount returns the cash amount due for the current
// period of a TermLoan's schedule. EqualInstallment pins the EMI in
// LastScheduledAmount when the schedule is created (or a disbursement /
// ReducePayment overpayment changes the balance it amortizes) and holds
// it constant between periods; the final installment instead pays
// whatever is outstanding, absorbing the drift between daily accrual
// and the monthly EMI formula.
func (f *Facility) scheduledInstallmentAmount() money.Money {
	remaining := f.config.Kind.TermMonths - int(f.state.ScheduleCursor)
	if remaining <= 0 {
		return money.Zero
	}
	switch f.config.Kind.Amortization {
	case AmortizationEqualInstallment:
		if remaining == 1 {
			return f.state.TotalOutstanding()
		}
		if !f.state.LastScheduledAmount.IsZero() {
			return f.state.LastScheduledAmount
		}
		return computeEMI(f.state.OutstandingPrincipal, f.config.Interest.BaseRate, remaining)
	default: // AmortizationDeclining
		interest, principal := decliningInstallment(f.state.OutstandingPrincipal, f.config.Interest.BaseRate, f.originalPrincipal, f.config.Kind.TermMonths)
		return interest.Add(principal)
	}
}

// duePrincipal bounds how much principal an ad-hoc payment may retire
// before the remainder counts as overpayment: on scheduled facilities,
// everything already overdue plus the current period's installment
// (interest and penalties owed ride in their own buckets ahead of
// principal, so a cash bound on the installment is a safe principal
// bound). Kinds without a schedule have no periodic due amount; any
// payment may pay the balance down to zero.
func (f *Facility) duePrincipal() money.Money {
	if !hasAmortizationSchedule(f.config.Kind) {
		return f.state.OutstandingPrincipal
	}
	due := f.state.OverdueAmount.Add(f.state.LastScheduledAmount)
	return due.Min(f.state.OutstandingPrincipal)
}

// waterfall drains amount across fee, penalty, interest, and principal
// buckets in order, returning the per-bucket application. principalCap
// bounds the principal step — the amount due for the current period on
// scheduled facilities, or the whole balance for ad-hoc kinds and
// scheduled debits. Whatever remains past the cap lands in Excess for
// the overpayment policy to decide over.
func waterfall(state *State, amount, principalCap money.Money) PaymentApplication {
	app := PaymentApplication{ToFees: money.Zero, ToPenalties: money.Zero, ToInterest: money.Zero, ToPrincipal: money.Zero, Excess: money.Zero}
	remaining := amount

	take := func(bucket *money.Money) money.Money {
		if remaining.IsZero() || bucket.IsZero() {
			return money.Zero
		}
		amt := remaining.Min(*bucket)
		*bucket = bucket.Sub(amt)
		remaining = remaining.Sub(amt)
		return amt
	}

	app.ToFees = take(&state.AccruedFees)
	app.ToPenalties = take(&state.AccruedPenalties)
	app.ToInterest = take(&state.AccruedInterest)

	if !remaining.IsZero() {
		principalPayment := remaining.Min(state.OutstandingPrincipal).Min(principalCap)
		state.OutstandingPrincipal = state.OutstandingPrincipal.Sub(principalPayment)
		app.ToPrincipal = principalPayment
		remaining = remaining.Sub(principalPayment)
	}

	app.Excess = remaining
	return app
}
