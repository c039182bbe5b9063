/*
Package facility implements a credit-facility engine: loan and credit
products modeled as state machines driven by principal movements,
time-based interest/penalty accrual, and collateral revaluation.

PURPOSE:
  A Facility is built once from a FacilityConfig and a bound
  clock.Provider, then driven entirely through its exported operations
  (Approve, Disburse, MakePayment, UpdateDailyStatus, ...). Every
  operation is atomic: on error, state and the event log are
  unchanged. There is no ambient clock and no background goroutine —
  accrual happens exactly when an operation that touches time runs.

OWNERSHIP:
  Config is immutable after NewFacilityConfig validates it. State is
  exclusively owned by the Facility; all mutation goes through
  accrual.go/payment.go/lifecycle.go/collateral.go. The event log is
  owned and drained by TakeEvents. The clock.Provider is shared,
  read-only from the Facility's perspective, and may be bound to many
  facilities at once.

CONCURRENCY:
  A Facility is a single-owner mutable resource: concurrent mutation
  from multiple goroutines is not supported and must be serialized by
  the caller. Reads (e.g. State/JSON) are safe only when no mutation
  is in flight.
*/
package facility

import (
	"encoding/json"

	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/money"
)

// Facility is one live credit account: an immutable FacilityConfig, a
// shared clock.Provider, and the mutable State the operations below
// drive.
type Facility struct {
	ID     string
	config FacilityConfig
	clk    clock.Provider

	state    State
	recorder recorder

	// originalPrincipal anchors the declining-balance schedule's
	// constant per-period principal share (original_principal/term); it
	// is set on the facility's first disbursement and grows with each
	// later disbursement, but repayments never reduce it.
	originalPrincipal money.Money
}

// New builds a Facility in FacilityStatus Originated. id is supplied by
// the caller (the core never generates random identifiers itself).
// cfg must already be validated by NewFacilityConfig.
func New(id string, cfg FacilityConfig, clk clock.Provider) *Facility {
	now := clk.Now()
	f := &Facility{
		ID:     id,
		config: cfg,
		clk:    clk,
		state: State{
			OutstandingPrincipal: money.Zero,
			AccruedInterest:      money.Zero,
			AccruedFees:          money.Zero,
			AccruedPenalties:     money.Zero,
			DisbursedTotal:       money.Zero,
			PaidTotal:            money.Zero,
			LastScheduledAmount:  money.Zero,
			OverdueAmount:        money.Zero,
			LastAccrual:          now,
			Origination:          now,
			PendingMonthlyInterest: money.Zero,
			MonthlyBoundary:        now,
			Status:               StatusOriginated,
		},
		originalPrincipal: money.Zero,
	}
	f.recorder.append(Event{Kind: EventOriginated, At: now})
	return f
}

// Approve transitions Originated -> Active.
func (f *Facility) Approve() error { return f.approve() }

// Deny transitions Originated -> Cancelled.
func (f *Facility) Deny() error { return f.deny() }

// Disburse draws down amount against the facility, increasing
// outstanding principal and disbursed_total. Returns the amount
// actually disbursed (always equal to amount on success; disburse
// either fully succeeds or fails, it never partially fills).
func (f *Facility) Disburse(amount money.Money) (money.Money, error) {
	if f.state.Status.IsTerminal() {
		return money.Zero, ErrFacilityClosed
	}
	if f.state.Status == StatusOriginated {
		return money.Zero, ErrNotApproved
	}
	if f.state.LiquidationPending {
		return money.Zero, ErrLiquidationInProgress
	}
	if !f.state.Status.IsMutable() {
		return money.Zero, ErrFacilityNotActive
	}
	if amount.LessOrEqual(money.Zero) {
		return money.Zero, ErrInvalidAmount
	}

	outstandingAfter := f.state.OutstandingPrincipal.Add(amount)
	if err := checkDisbursementLimit(f.config.Kind, f.config.Commitment, amount, outstandingAfter); err != nil {
		return money.Zero, err
	}

	now := f.clk.Now()
	if _, err := f.accrueTo(now); err != nil {
		return money.Zero, err
	}

	if f.originalPrincipal.IsZero() {
		f.originalPrincipal = outstandingAfter
	} else {
		f.originalPrincipal = f.originalPrincipal.Add(amount)
	}

	f.state.OutstandingPrincipal = outstandingAfter
	f.state.DisbursedTotal = f.state.DisbursedTotal.Add(amount)
	f.recorder.append(Event{Kind: EventDisbursed, At: now, Amount: amount.String()})

	if hasAmortizationSchedule(f.config.Kind) {
		if !f.state.HasNextPayment {
			f.scheduleFirstInstallment(now)
		} else if f.config.Kind.Amortization == AmortizationEqualInstallment {
			// a further draw changes the balance the pinned EMI amortizes
			remaining := f.config.Kind.TermMonths - int(f.state.ScheduleCursor)
			f.state.LastScheduledAmount = computeEMI(f.state.OutstandingPrincipal, f.config.Interest.BaseRate, remaining)
		}
	}

	return amount, nil
}

// scheduleFirstInstallment sets next_payment_due one month after the
// instant a TermLoan is first funded.
func (f *Facility) scheduleFirstInstallment(now clock.Instant) {
	f.state.NextPaymentDue = now.AddMonths(1)
	f.state.HasNextPayment = true
	f.state.LastScheduledAmount = f.scheduledInstallmentAmount()
}

// MakePayment applies amount against the waterfall: fees, penalties,
// interest, then principal, in that order, with any residual handled
// per the facility's overpayment policy.
func (f *Facility) MakePayment(amount money.Money) (PaymentApplication, error) {
	if err := f.guardMutation(); err != nil {
		return PaymentApplication{}, err
	}
	if amount.LessOrEqual(money.Zero) {
		return PaymentApplication{}, ErrZeroPayment
	}

	now := f.clk.Now()
	if _, err := f.accrueTo(now); err != nil {
		return PaymentApplication{}, err
	}

	app := waterfall(&f.state, amount, f.duePrincipal())
	f.applyOverpayment(&app)
	f.state.PaidTotal = f.state.PaidTotal.Add(amount.Sub(app.Excess))

	if !f.state.OverdueAmount.IsZero() {
		f.state.OverdueAmount = f.state.OverdueAmount.Sub(app.ToInterest).Sub(app.ToPrincipal)
		if f.state.OverdueAmount.IsNegative() {
			f.state.OverdueAmount = money.Zero
		}
	}

	f.recorder.append(Event{Kind: EventPaymentReceived, At: now, Amount: amount.String(), Application: &app, Excess: app.Excess.String()})

	f.clearOverdueIfSettled()
	f.settleIfCleared()

	return app, nil
}

// applyOverpayment handles cash left past the current period's due
// amounts, per PaymentConfig.Overpayment. Whatever is applied to
// principal moves from app.Excess into app.ToPrincipal, keeping the
// bucket sum equal to the payment amount. ReduceTerm leaves the pinned
// installment alone, so the shrunken balance runs out of periods early;
// ReducePayment instead re-amortizes the shrunken balance over the
// unchanged remaining periods into a lower installment. Excess past a
// fully cleared balance has nothing left to reduce and stays in
// app.Excess regardless of policy.
func (f *Facility) applyOverpayment(app *PaymentApplication) {
	if app.Excess.IsZero() {
		return
	}
	switch f.config.Payment.Overpayment {
	case OverpaymentReduceTerm, OverpaymentReducePayment:
		applied := app.Excess.Min(f.state.OutstandingPrincipal)
		if applied.IsPositive() {
			f.state.OutstandingPrincipal = f.state.OutstandingPrincipal.Sub(applied)
			app.ToPrincipal = app.ToPrincipal.Add(applied)
			app.Excess = app.Excess.Sub(applied)
		}
		if f.config.Payment.Overpayment == OverpaymentReducePayment &&
			hasAmortizationSchedule(f.config.Kind) && f.config.Kind.Amortization == AmortizationEqualInstallment {
			remaining := f.config.Kind.TermMonths - int(f.state.ScheduleCursor)
			f.state.LastScheduledAmount = computeEMI(f.state.OutstandingPrincipal, f.config.Interest.BaseRate, remaining)
		}
	case OverpaymentRefund:
		// left in app.Excess, returned to the caller untouched.
	}
}

// ProcessScheduledPayment debits the computed installment for the
// current period and advances the schedule cursor.
func (f *Facility) ProcessScheduledPayment() (PaymentApplication, error) {
	if err := f.guardMutation(); err != nil {
		return PaymentApplication{}, err
	}
	// checked before accrual too, so a call with nothing due leaves
	// state and the event log untouched
	if f.scheduledInstallmentAmount().LessOrEqual(money.Zero) {
		return PaymentApplication{}, ErrZeroPayment
	}

	now := f.clk.Now()
	if _, err := f.accrueTo(now); err != nil {
		return PaymentApplication{}, err
	}

	amount := f.scheduledInstallmentAmount()
	if amount.LessOrEqual(money.Zero) {
		return PaymentApplication{}, ErrZeroPayment
	}

	app := waterfall(&f.state, amount, f.state.OutstandingPrincipal)
	f.applyOverpayment(&app)
	f.state.PaidTotal = f.state.PaidTotal.Add(amount.Sub(app.Excess))
	f.state.OverdueAmount = money.Zero
	f.state.ScheduleCursor++

	if hasAmortizationSchedule(f.config.Kind) {
		f.state.NextPaymentDue = f.state.NextPaymentDue.AddMonths(1)
		f.state.LastScheduledAmount = f.scheduledInstallmentAmount()
	}

	f.recorder.append(Event{Kind: EventScheduledPaymentDue, At: now, Amount: amount.String()})
	f.recorder.append(Event{Kind: EventPaymentReceived, At: now, Amount: amount.String(), Application: &app, Excess: app.Excess.String()})

	f.clearOverdueIfSettled()
	f.settleIfCleared()

	return app, nil
}

// guardMutation enforces the common preconditions for payment
// operations: not terminal, approved, mutable status, no pending
// liquidation.
func (f *Facility) guardMutation() error {
	if f.state.Status.IsTerminal() {
		return ErrFacilityClosed
	}
	if f.state.Status == StatusOriginated {
		return ErrNotApproved
	}
	if f.state.LiquidationPending {
		return ErrLiquidationInProgress
	}
	if !f.state.Status.IsMutable() {
		return ErrFacilityNotActive
	}
	return nil
}

// AccrueInterest forces an accrual sweep to now outside of a payment or
// daily-status call.
func (f *Facility) AccrueInterest() (AccrualReport, error) {
	if f.state.Status.IsTerminal() {
		return AccrualReport{}, ErrFacilityClosed
	}
	return f.accrueTo(f.clk.Now())
}

// UpdateDailyStatus is the single-entry daily sweep.
func (f *Facility) UpdateDailyStatus() (StatusReport, error) {
	return f.updateDailyStatus(f.clk.Now())
}

// UpdateCollateral replaces the collateral valuation and reclassifies
// its LTV band.
func (f *Facility) UpdateCollateral(assetAmount string, currentValue money.Money, valuationSource string) (LtvStatus, error) {
	return f.updateCollateral(f.clk.Now(), assetAmount, currentValue, valuationSource)
}

// ApplyLiquidationProceeds routes externally-realized collateral
// proceeds through the payment waterfall.
func (f *Facility) ApplyLiquidationProceeds(amount money.Money) (PaymentApplication, error) {
	if f.state.Status.IsTerminal() {
		return PaymentApplication{}, ErrFacilityClosed
	}
	if !f.state.LiquidationPending {
		return PaymentApplication{}, ErrFacilityNotActive
	}
	if amount.LessOrEqual(money.Zero) {
		return PaymentApplication{}, ErrInvalidAmount
	}

	now := f.clk.Now()
	if _, err := f.accrueTo(now); err != nil {
		return PaymentApplication{}, err
	}

	app := waterfall(&f.state, amount, f.state.OutstandingPrincipal)
	f.state.PaidTotal = f.state.PaidTotal.Add(amount.Sub(app.Excess))
	f.state.OverdueAmount = money.Zero

	f.recorder.append(Event{Kind: EventPaymentReceived, At: now, Amount: amount.String(), Application: &app, Excess: app.Excess.String()})

	f.settleIfCleared()

	return app, nil
}

// TakeEvents drains and returns the pending event log.
func (f *Facility) TakeEvents() []Event { return f.recorder.takeEvents() }

// State exposes a read-only copy of the current mutable state, e.g. for
// the JSON readout or an external store sink. Safe only when no
// mutation is in flight (see package doc).
func (f *Facility) State() State { return f.state }

// Config exposes the immutable configuration the facility was built
// with.
func (f *Facility) Config() FacilityConfig { return f.config }

// snapshot is the stable JSON readout shape: field names are part of
// the external contract and must not be renamed casually.
type snapshot struct {
	ID                   string            `json:"id"`
	AccountID            string            `json:"account_id"`
	CustomerID           string            `json:"customer_id"`
	Status               Status            `json:"status"`
	Kind                 FacilityKindTag   `json:"kind"`
	Commitment           money.Money       `json:"commitment"`
	OutstandingPrincipal money.Money       `json:"outstanding_principal"`
	AccruedInterest      money.Money       `json:"accrued_interest"`
	AccruedFees          money.Money       `json:"accrued_fees"`
	AccruedPenalties     money.Money       `json:"accrued_penalties"`
	TotalOutstanding     money.Money       `json:"total_outstanding"`
	LastAccrual          clock.Instant     `json:"last_accrual"`
	NextPaymentDue       *clock.Instant    `json:"next_payment_due,omitempty"`
	Collateral           *collateralReadout `json:"collateral,omitempty"`
}

type collateralReadout struct {
	AssetType    string      `json:"asset_type"`
	AssetAmount  string      `json:"asset_amount"`
	CurrentValue money.Money `json:"current_value"`
	Ltv          string      `json:"ltv"`
	Band         LtvBand     `json:"band"`
}

// JSON renders the stable readout of state, status, and balances.
func (f *Facility) JSON() (string, error) {
	snap := snapshot{
		ID:                   f.ID,
		AccountID:            f.config.AccountID,
		CustomerID:           f.config.CustomerID,
		Status:               f.state.Status,
		Kind:                 f.config.Kind.Tag,
		Commitment:           f.config.Commitment,
		OutstandingPrincipal: f.state.OutstandingPrincipal,
		AccruedInterest:      f.state.AccruedInterest,
		AccruedFees:          f.state.AccruedFees,
		AccruedPenalties:     f.state.AccruedPenalties,
		TotalOutstanding:     f.state.TotalOutstanding(),
		LastAccrual:          f.state.LastAccrual,
	}
	if f.state.HasNextPayment {
		snap.NextPaymentDue = &f.state.NextPaymentDue
	}
	if c := f.state.Collateral; c != nil && f.config.Collateral != nil {
		ltv := computeLtv(f.state.TotalOutstanding(), c)
		snap.Collateral = &collateralReadout{
			AssetType:    f.config.Collateral.AssetType,
			AssetAmount:  c.AssetAmount,
			CurrentValue: c.CurrentValue,
			Ltv:          ltv.String(),
			Band:         c.Band,
		}
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
