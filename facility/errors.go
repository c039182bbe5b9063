/*
errors.go - Error taxonomy for the facility engine.

PURPOSE:
  All sentinel errors and structured error types in one place. Every
  operation on Facility returns one of these, wrapped with enough
  context (errors.Is-compatible via Unwrap) for a caller to branch on
  kind without string matching.

POLICY:
  Every mutating operation is atomic: on error, Facility state and its
  event log are unchanged — either every effect of the operation
  (balance mutation, status transition, event append) happens, or none
  of it does. Validation always runs before any mutation.

SEE ALSO:
  - facility.go: where these errors are returned.
  - config.go: InvalidConfigError, raised at build time only.
*/
package facility

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfig is returned when a FacilityConfig fails build-time
	// validation.
	ErrInvalidConfig = errors.New("invalid facility configuration")

	// ErrInvalidAmount is returned when an amount is negative or zero where
	// a positive value is required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrFacilityClosed is returned when a mutation is attempted on a
	// Settled or Cancelled facility.
	ErrFacilityClosed = errors.New("facility is closed")

	// ErrFacilityNotActive is returned when an operation requires the
	// facility to be in Active, GracePeriod, or Delinquent.
	ErrFacilityNotActive = errors.New("facility is not active")

	// ErrNotApproved is returned when disburse or payment is attempted
	// before approval.
	ErrNotApproved = errors.New("facility has not been approved")

	// ErrOverCommitment is returned when a disbursement would push
	// outstanding principal past the facility's commitment.
	ErrOverCommitment = errors.New("disbursement exceeds commitment")

	// ErrOverLimit is returned when a disbursement would push a revolving
	// facility's outstanding principal past its credit limit.
	ErrOverLimit = errors.New("disbursement exceeds credit limit")

	// ErrAccrualBackwards is returned when accrue_to is called with a
	// now earlier than last_accrual.
	ErrAccrualBackwards = errors.New("accrual instant precedes last accrual")

	// ErrNoCollateral is returned when a collateral operation is attempted
	// on an unsecured facility.
	ErrNoCollateral = errors.New("facility has no collateral")

	// ErrLiquidationInProgress is returned when a mutating operation is
	// blocked while a liquidation intent is pending settlement.
	ErrLiquidationInProgress = errors.New("liquidation in progress")

	// ErrZeroPayment is returned when make_payment is called with an
	// amount ≤ 0, or when process_scheduled_payment finds no positive
	// installment due.
	ErrZeroPayment = errors.New("payment amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS - carry additional context
// =============================================================================

// InvalidConfigError names the offending field and why it failed validation.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: field %q: %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// OverCommitmentError reports the commitment breach in full.
type OverCommitmentError struct {
	Commitment string
	Requested  string
	Would      string
}

func (e *OverCommitmentError) Error() string {
	return fmt.Sprintf("disbursement of %s would bring outstanding to %s, exceeding commitment %s",
		e.Requested, e.Would, e.Commitment)
}

func (e *OverCommitmentError) Unwrap() error { return ErrOverCommitment }

// OverLimitError reports the credit-limit breach in full.
type OverLimitError struct {
	Limit     string
	Requested string
	Would     string
}

func (e *OverLimitError) Error() string {
	return fmt.Sprintf("disbursement of %s would bring outstanding to %s, exceeding credit limit %s",
		e.Requested, e.Would, e.Limit)
}

func (e *OverLimitError) Unwrap() error { return ErrOverLimit }

// AccrualBackwardsError reports the offending instants.
type AccrualBackwardsError struct {
	LastAccrual string
	Now         string
}

func (e *AccrualBackwardsError) Error() string {
	return fmt.Sprintf("accrual instant %s precedes last accrual %s", e.Now, e.LastAccrual)
}

func (e *AccrualBackwardsError) Unwrap() error { return ErrAccrualBackwards }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsTerminal reports whether err indicates the facility is in a terminal
// state and can never again accept mutation.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrFacilityClosed)
}

// IsClientError reports whether err is due to invalid caller input rather
// than a state/sequencing problem.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrOverCommitment) ||
		errors.Is(err, ErrOverLimit)
}
