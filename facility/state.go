package facility

import (
	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/money"
)

// State is the mutable heart of a Facility: balances, schedule cursor,
// and status. Exclusively owned by Facility; every mutation goes
// through the engine operations in accrual.go/payment.go/lifecycle.go.
type State struct {
	OutstandingPrincipal money.Money
	AccruedInterest      money.Money
	AccruedFees          money.Money
	AccruedPenalties     money.Money
	DisbursedTotal       money.Money
	PaidTotal            money.Money

	LastAccrual clock.Instant
	Origination clock.Instant

	// PendingMonthlyInterest and MonthlyBoundary track interest recognition
	// for CompoundingMonthly facilities: interest computed since
	// MonthlyBoundary accumulates here but is not moved into
	// AccruedInterest until a full calendar month has elapsed (accrual.go's
	// accrueMonthly). Unused under CompoundingDaily, where interest flows
	// straight into AccruedInterest as it is computed.
	PendingMonthlyInterest money.Money
	MonthlyBoundary        clock.Instant

	Status        Status
	StatusHistory StatusHistory

	NextPaymentDue clock.Instant
	HasNextPayment bool
	ScheduleCursor uint32

	// LastScheduledAmount is the pinned EMI/installment amount for the
	// period ending at NextPaymentDue. For EqualInstallment it is set
	// when the schedule is created and recomputed only when the balance
	// it amortizes changes (a further disbursement, or a ReducePayment
	// overpayment); it also seeds the overdue amount for penalty accrual
	// once a payment is missed.
	LastScheduledAmount money.Money
	OverdueAmount       money.Money

	Collateral *CollateralPosition // nil ⇒ unsecured or never valuated

	// LiquidationPending is set on Liquidation band entry and cleared
	// once apply_liquidation_proceeds settles the facility.
	LiquidationPending bool
}

// TotalOutstanding is outstanding_principal + every accrued bucket.
func (s State) TotalOutstanding() money.Money {
	return s.OutstandingPrincipal.
		Add(s.AccruedInterest).
		Add(s.AccruedFees).
		Add(s.AccruedPenalties)
}

// CollateralPosition is the current valuation of pledged collateral for
// a secured facility.
type CollateralPosition struct {
	AssetAmount    string // decimal string; quantity has no currency scale
	CurrentValue   money.Money
	InitialValue   money.Money
	LastValuation  clock.Instant
	ValuationSource string

	// Band is the LTV classification as of LastValuation, tracked so
	// update_collateral can detect band *entry* rather than level.
	Band LtvBand
}

// PaymentApplication reports how a single payment amount was allocated
// across the waterfall buckets. The four bucket amounts plus Excess
// always sum to exactly the payment amount.
type PaymentApplication struct {
	ToFees      money.Money
	ToPenalties money.Money
	ToInterest  money.Money
	ToPrincipal money.Money
	Excess      money.Money
}

// Total returns the sum this application accounts for, which must equal
// the original payment amount.
func (a PaymentApplication) Total() money.Money {
	return a.ToFees.Add(a.ToPenalties).Add(a.ToInterest).Add(a.ToPrincipal).Add(a.Excess)
}

// AccrualReport summarizes one accrue_to call.
type AccrualReport struct {
	InterestAccrued money.Money
	PenaltyAccrued  money.Money
	From            clock.Instant
	To              clock.Instant
}

// StatusReport summarizes one update_daily_status sweep.
type StatusReport struct {
	Accrual    AccrualReport
	FromStatus Status
	ToStatus   Status
	Changed    bool
}

// LtvStatus reports the collateral classification after a valuation
// update.
type LtvStatus struct {
	Ltv   money.Rate
	Band  LtvBand
	Entered bool // true if Band differs from the pre-update band
}
