/*
kinds.go - The dispatch surface FacilityKind drives.

PURPOSE:
  The four product families share one state machine and one payment
  waterfall (see lifecycle.go, payment.go); their behavior diverges
  mainly in the disbursement ceiling, whether a fixed amortization
  schedule applies, and whether an overdraft balance sits inside its
  no-fee buffer. Those checks live in the small functions below rather
  than a parallel class hierarchy per kind; lifecycle.go's
  settleIfCleared and sweepOverdraftFee also branch on the kind tag
  directly.
*/
package facility

import "github.com/warp/credit-facility/money"

// disbursementCeiling returns the maximum outstanding principal kind
// permits: commitment for TermLoan/OpenTerm/Overdraft, credit_limit for
// Revolving.
func disbursementCeiling(kind FacilityKind, commitment money.Money) money.Money {
	if kind.Tag == KindRevolving {
		return kind.CreditLimit
	}
	return commitment
}

// checkDisbursementLimit validates that outstandingAfter (the principal
// balance that would result from a disbursement) does not exceed kind's
// ceiling. Returns a kind-appropriate structured error otherwise.
func checkDisbursementLimit(kind FacilityKind, commitment, requested, outstandingAfter money.Money) error {
	ceiling := disbursementCeiling(kind, commitment)
	if outstandingAfter.LessOrEqual(ceiling) {
		return nil
	}
	if kind.Tag == KindRevolving {
		return &OverLimitError{
			Limit:     ceiling.String(),
			Requested: requested.String(),
			Would:     outstandingAfter.String(),
		}
	}
	return &OverCommitmentError{
		Commitment: ceiling.String(),
		Requested:  requested.String(),
		Would:      outstandingAfter.String(),
	}
}

// hasAmortizationSchedule reports whether kind follows a fixed
// installment schedule (TermLoan only); the others accrue and accept
// payments ad hoc with no process_scheduled_payment cadence of their
// own, though PaymentConfig.ScheduledDayOfMonth may still drive an
// external caller's cadence for Overdraft's daily-fee sweep.
func hasAmortizationSchedule(kind FacilityKind) bool {
	return kind.Tag == KindTermLoan
}

// withinOverdraftBuffer reports whether an overdrawn balance (expressed
// as a positive Money, the magnitude owed) is still inside the
// no-fee buffer zone.
func withinOverdraftBuffer(kind FacilityKind, outstanding money.Money) bool {
	if kind.Tag != KindOverdraft {
		return false
	}
	return outstanding.LessOrEqual(kind.BufferZone)
}
