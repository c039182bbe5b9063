/*
accrual.go - Interest and penalty accrual engine (component E).

PURPOSE:
  Transforms elapsed time into accrued-but-unpaid interest and, for
  facilities with a missed scheduled payment past grace, penalty
  interest on the overdue amount. Both streams are linear in the
  elapsed year fraction, so splitting one long accrual into several
  shorter calls always sums to the same total within rounding
  tolerance — principal cannot move between accruals, since every
  other mutating operation forces accrue_to first.

DAY-COUNT CONVENTIONS:
  Actual365 and Actual360 divide the elapsed wall-clock interval
  (including a fractional-day remainder) by a fixed denominator.
  Thirty360 instead counts calendar days assuming every month has 30
  days, divided by 360 — the standard bond-market 30/360 method.

COMPOUNDING:
  CompoundingDaily recognizes base interest into AccruedInterest as soon
  as it is computed, for whatever interval accrueTo was called over.
  CompoundingMonthly instead recognizes it only at calendar-month
  boundaries: interest computed since the last boundary sits in
  PendingMonthlyInterest until the boundary is actually crossed, then
  moves into AccruedInterest in one lump (accrueMonthly). The
  split-invariance above holds for the recognized+pending total
  regardless of how a call is split; the *recognized* bucket alone is
  not split-invariant mid-month, since deferring recognition to the
  boundary is the whole point of the mode. Penalty interest is unaffected by
  Compounding and always recognizes as it accrues.
*/
package facility

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/money"
)

// yearFraction returns the elapsed interval from→to expressed as a
// fraction of a year, under convention.
func yearFraction(from, to clock.Instant, convention DayCountConvention) decimal.Decimal {
	if convention == DayCountThirty360 {
		return thirty360Fraction(from, to)
	}
	elapsedDays := decimal.NewFromInt(int64(to.Sub(from))).Div(decimal.NewFromInt(int64(24 * time.Hour)))
	return elapsedDays.Div(decimal.NewFromInt(convention.Denominator()))
}

// thirty360Fraction implements the 30/360 bond-market day count: each
// month is treated as having exactly 30 days, each year 360.
func thirty360Fraction(from, to clock.Instant) decimal.Decimal {
	y1, y2 := from.Year(), to.Year()
	m1, m2 := int(from.Month()), int(to.Month())
	d1, d2 := from.Day(), to.Day()

	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}

	days := (y2-y1)*360 + (m2-m1)*30 + (d2 - d1)
	return decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(360))
}

// accrueTo advances the facility's interest and penalty buckets to now.
// Idempotent: calling with now == last_accrual is a no-op. Fails with
// ErrAccrualBackwards if now precedes last_accrual.
func (f *Facility) accrueTo(now clock.Instant) (AccrualReport, error) {
	if now.Before(f.state.LastAccrual) {
		return AccrualReport{}, &AccrualBackwardsError{
			LastAccrual: f.state.LastAccrual.String(),
			Now:         now.String(),
		}
	}

	report := AccrualReport{From: f.state.LastAccrual, To: now, InterestAccrued: money.Zero, PenaltyAccrued: money.Zero}
	if now.Equal(f.state.LastAccrual) {
		return report, nil
	}

	frac := yearFraction(f.state.LastAccrual, now, f.config.Interest.DayCount)

	if f.config.Interest.Compounding == CompoundingMonthly {
		f.accrueMonthly(now, &report)
	} else if f.state.OutstandingPrincipal.IsPositive() && !frac.IsZero() {
		rate := f.config.Interest.BaseRate.Scale(frac)
		interest := f.state.OutstandingPrincipal.MulRate(rate)
		if interest.IsPositive() {
			f.state.AccruedInterest = f.state.AccruedInterest.Add(interest)
			report.InterestAccrued = interest
			f.recorder.append(Event{Kind: EventInterestAccrued, At: now, Amount: interest.String(), Period: periodLabel(f.state.LastAccrual, now)})
		}
	}

	if penalty := f.config.Interest.Penalty; penalty != nil && f.state.OverdueAmount.IsPositive() && !frac.IsZero() {
		if f.isPastGrace(now, *penalty) {
			penaltyRate := f.config.Interest.BaseRate.Mul(penalty.RateMultiplier).Scale(frac)
			accruedPenalty := f.state.OverdueAmount.MulRate(penaltyRate)
			if accruedPenalty.IsPositive() {
				f.state.AccruedPenalties = f.state.AccruedPenalties.Add(accruedPenalty)
				report.PenaltyAccrued = accruedPenalty
				f.recorder.append(Event{Kind: EventPenaltyAccrued, At: now, Amount: accruedPenalty.String(), Period: periodLabel(f.state.LastAccrual, now)})
			}
		}
	}

	f.state.LastAccrual = now
	return report, nil
}

// linearInterest returns outstanding_principal × base_rate × the elapsed
// year fraction between from and to, under the facility's day-count
// convention. Zero if principal is non-positive or the interval is empty.
func (f *Facility) linearInterest(from, to clock.Instant) money.Money {
	if !f.state.OutstandingPrincipal.IsPositive() {
		return money.Zero
	}
	frac := yearFraction(from, to, f.config.Interest.DayCount)
	if frac.IsZero() {
		return money.Zero
	}
	return f.state.OutstandingPrincipal.MulRate(f.config.Interest.BaseRate.Scale(frac))
}

// accrueMonthly implements CompoundingMonthly: interest is only moved
// into AccruedInterest when a full calendar month has elapsed since
// MonthlyBoundary. Walks every whole-month boundary crossed between
// LastAccrual and now, recognizing each chunk's interest in turn (so a
// call spanning several months recognizes each one), then stashes
// whatever remains past the last crossed boundary in
// PendingMonthlyInterest until a later call finally crosses it.
func (f *Facility) accrueMonthly(now clock.Instant, report *AccrualReport) {
	cursor := f.state.LastAccrual
	for {
		boundary := f.state.MonthlyBoundary.AddMonths(1)
		if boundary.After(now) {
			break
		}
		chunk := f.linearInterest(cursor, boundary)
		f.state.PendingMonthlyInterest = f.state.PendingMonthlyInterest.Add(chunk)

		recognized := f.state.PendingMonthlyInterest
		if recognized.IsPositive() {
			f.state.AccruedInterest = f.state.AccruedInterest.Add(recognized)
			report.InterestAccrued = report.InterestAccrued.Add(recognized)
			f.recorder.append(Event{Kind: EventInterestAccrued, At: boundary, Amount: recognized.String(), Period: periodLabel(f.state.MonthlyBoundary, boundary)})
		}
		f.state.PendingMonthlyInterest = money.Zero
		f.state.MonthlyBoundary = boundary
		cursor = boundary
	}

	if now.After(cursor) {
		remainder := f.linearInterest(cursor, now)
		f.state.PendingMonthlyInterest = f.state.PendingMonthlyInterest.Add(remainder)
	}
}

// isPastGrace reports whether now is more than grace_period_days past
// the facility's recorded due date.
func (f *Facility) isPastGrace(now clock.Instant, penalty PenaltyConfig) bool {
	if !f.state.HasNextPayment {
		return false
	}
	graceEnd := f.state.NextPaymentDue.AddDays(int(penalty.GracePeriodDays))
	return now.After(graceEnd)
}

func periodLabel(from, to clock.Instant) string {
	return from.String() + " -> " + to.String()
}
