/*
lifecycle.go - The facility state machine (component G).

TRANSITION TABLE:

  Originated  --approve-->             Active
  Originated  --deny-->                Cancelled
  Active      --disburse(x)-->         Active        (guarded by kind's ceiling)
  {Active,GracePeriod,Delinquent} --make_payment, clears overdue, total=0--> Settled
                                   (TermLoan/OpenTerm; Revolving and Overdraft stay Active)
  {GracePeriod,Delinquent} --make_payment, clears overdue, total>0--> Active
  Active      --daily_sweep, 0<days_overdue<=grace-->  GracePeriod
  {Active,GracePeriod} --daily_sweep, days_overdue>grace--> Delinquent
  {Active,GracePeriod,Delinquent} --liquidation settles--> Settled

Settled and Cancelled are terminal: any further mutation fails with
ErrFacilityClosed.

update_daily_status is the single-entry sweep: accrue_to, then overdue
and LTV evaluation, then at most one status transition, idempotent for
repeated calls at the same now.
*/
package facility

import (
	"github.com/shopspring/decimal"

	"github.com/warp/credit-facility/clock"
)

// approve transitions Originated -> Active.
func (f *Facility) approve() error {
	if f.state.Status.IsTerminal() {
		return ErrFacilityClosed
	}
	if f.state.Status != StatusOriginated {
		return ErrFacilityNotActive
	}
	f.transition(StatusActive, "approved")
	f.recorder.append(Event{Kind: EventApproved, At: f.clk.Now()})
	return nil
}

// deny transitions Originated -> Cancelled.
func (f *Facility) deny() error {
	if f.state.Status.IsTerminal() {
		return ErrFacilityClosed
	}
	if f.state.Status != StatusOriginated {
		return ErrFacilityNotActive
	}
	f.transition(StatusCancelled, "denied")
	f.recorder.append(Event{Kind: EventDenied, At: f.clk.Now()})
	return nil
}

// transition mutates status and, if it actually changed, appends a
// StatusChanged event. Returns whether a change occurred (used by
// update_daily_status to preserve idempotency).
func (f *Facility) transition(to Status, reason string) bool {
	from := f.state.Status
	if from == to {
		return false
	}
	f.state.Status = to
	if to == StatusGracePeriod || to == StatusDelinquent {
		f.state.StatusHistory = StatusHistory{Since: f.clk.Now()}
	}
	f.recorder.append(Event{Kind: EventStatusChanged, At: f.clk.Now(), From: from, To: to, Reason: reason})
	if to == StatusSettled {
		f.recorder.append(Event{Kind: EventSettled, At: f.clk.Now()})
	}
	return true
}

// settleIfCleared transitions to Settled when total_outstanding has
// reached zero, from any non-terminal status. Revolving and Overdraft
// facilities have no fixed term to "complete": a zero balance on either
// just means nothing is currently drawn, not account closure — both are
// left Active for future draws instead of transitioning.
func (f *Facility) settleIfCleared() {
	if f.state.Status.IsTerminal() {
		return
	}
	if !f.state.TotalOutstanding().IsZero() {
		return
	}
	if f.config.Kind.Tag == KindRevolving || f.config.Kind.Tag == KindOverdraft {
		f.state.LiquidationPending = false
		return
	}
	f.state.LiquidationPending = false
	f.transition(StatusSettled, "total outstanding cleared")
}

// clearOverdueIfSettled drops the tracked overdue amount once a payment
// has fully cleared it, returning to Active from GracePeriod/Delinquent.
func (f *Facility) clearOverdueIfSettled() {
	if !f.state.OverdueAmount.IsZero() {
		return
	}
	if f.state.Status == StatusGracePeriod || f.state.Status == StatusDelinquent {
		f.transition(StatusActive, "overdue cleared")
	}
}

// sweepOverdue evaluates days-overdue against the grace period and
// advances status along Active -> GracePeriod -> Delinquent. It never
// moves status backwards; clearing is make_payment's job.
func (f *Facility) sweepOverdue(now clock.Instant) {
	if !f.state.HasNextPayment || f.state.Status.IsTerminal() || f.state.Status == StatusOriginated {
		return
	}
	if now.BeforeOrEqual(f.state.NextPaymentDue) {
		return
	}
	if f.state.OverdueAmount.IsZero() {
		f.state.OverdueAmount = f.state.LastScheduledAmount
	}

	daysOverdue := f.state.NextPaymentDue.DaysUntil(now)
	graceDays := 0
	if p := f.config.Interest.Penalty; p != nil {
		graceDays = int(p.GracePeriodDays)
	}

	switch {
	case daysOverdue > graceDays:
		if f.state.Status != StatusDelinquent {
			f.transition(StatusDelinquent, "overdue beyond grace period")
		}
	case daysOverdue > 0:
		if f.state.Status == StatusActive {
			f.transition(StatusGracePeriod, "payment missed, within grace period")
		}
	}
}

// sweepOverdraftFee charges Overdraft's flat daily_fee into accrued_fees
// for each whole day this sweep crossed, once the outstanding balance
// sits outside the no-fee buffer zone. Guarded by whole elapsed days
// (not merely a non-zero year fraction) so two sweeps at the same now
// never double-charge.
func (f *Facility) sweepOverdraftFee(accrual AccrualReport) {
	if f.config.Kind.Tag != KindOverdraft {
		return
	}
	if withinOverdraftBuffer(f.config.Kind, f.state.OutstandingPrincipal) {
		return
	}
	wholeDays := accrual.From.DaysUntil(accrual.To)
	if wholeDays <= 0 {
		return
	}
	fee := f.config.Kind.DailyFee.MulDecimal(decimal.NewFromInt(int64(wholeDays)))
	if fee.IsZero() {
		return
	}
	f.state.AccruedFees = f.state.AccruedFees.Add(fee)
}

// updateDailyStatus is the single-entry daily sweep: accrue, evaluate
// overdue/LTV, transition at most once, and report the outcome.
func (f *Facility) updateDailyStatus(now clock.Instant) (StatusReport, error) {
	if f.state.Status.IsTerminal() {
		return StatusReport{}, ErrFacilityClosed
	}

	from := f.state.Status
	accrual, err := f.accrueTo(now)
	if err != nil {
		return StatusReport{}, err
	}

	f.sweepOverdue(now)
	f.sweepOverdraftFee(accrual)

	if f.state.Collateral != nil {
		f.reclassifyCollateral(now)
	}

	f.settleIfCleared()

	return StatusReport{
		Accrual:    accrual,
		FromStatus: from,
		ToStatus:   f.state.Status,
		Changed:    from != f.state.Status,
	}, nil
}
