package facility_test

import (
	"testing"
	"time"

	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/facility"
	"github.com/warp/credit-facility/money"
)

func newClock() *clock.Test {
	return clock.NewTest(clock.Date(2026, time.January, 1))
}

func termLoanConfig(t *testing.T, commitment money.Money, rate money.Rate, termMonths int, amort facility.AmortizationMethod) facility.FacilityConfig {
	t.Helper()
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "acct-1",
		CustomerID: "cust-1",
		Commitment: commitment,
		Kind:       facility.TermLoan(termMonths, amort),
		Interest: facility.InterestConfig{
			DayCount:    facility.DayCountActual365,
			Compounding: facility.CompoundingDaily,
			BaseRate:    rate,
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentReduceTerm},
	})
	if err != nil {
		t.Fatalf("NewFacilityConfig failed: %v", err)
	}
	return cfg
}

// Scenario 1: zero-interest term loan round-trip.
func TestScenario_ZeroInterestTermLoan_RoundTrip(t *testing.T) {
	clk := newClock()
	cfg := termLoanConfig(t, money.FromMajor(1200, 0), money.ZeroRate, 12, facility.AmortizationEqualInstallment)
	f := facility.New("fac-1", cfg, clk)

	if err := f.Approve(); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	disbursed, err := f.Disburse(money.FromMajor(1200, 0))
	if err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if !disbursed.Equal(money.FromMajor(1200, 0)) {
		t.Fatalf("expected disbursed 1200, got %s", disbursed)
	}

	for i := 0; i < 12; i++ {
		clk.Advance(30 * 24 * time.Hour)
		app, err := f.ProcessScheduledPayment()
		if err != nil {
			t.Fatalf("ProcessScheduledPayment #%d: %v", i+1, err)
		}
		if !app.ToPrincipal.Equal(money.FromMajor(100, 0)) {
			t.Fatalf("payment #%d: expected 100.00 to principal, got %s", i+1, app.ToPrincipal)
		}
	}

	snap := f.State()
	if !snap.TotalOutstanding().IsZero() {
		t.Fatalf("expected total_outstanding = 0, got %s", snap.TotalOutstanding())
	}
	if snap.Status != facility.StatusSettled {
		t.Fatalf("expected Settled, got %s", snap.Status)
	}
	if !snap.AccruedInterest.IsZero() {
		t.Fatalf("expected accrued_interest = 0, got %s", snap.AccruedInterest)
	}
}

// Scenario 2: EMI rounding absorption.
func TestScenario_EMIRoundingAbsorption(t *testing.T) {
	clk := newClock()
	rate, err := money.RateFromString("0.08")
	if err != nil {
		t.Fatalf("RateFromString: %v", err)
	}
	cfg := termLoanConfig(t, money.FromMajor(10000, 0), rate, 12, facility.AmortizationEqualInstallment)
	f := facility.New("fac-2", cfg, clk)

	mustApproveDisburse(t, f, money.FromMajor(10000, 0))

	for i := 0; i < 12; i++ {
		clk.Advance(30 * 24 * time.Hour)
		if _, err := f.ProcessScheduledPayment(); err != nil {
			t.Fatalf("ProcessScheduledPayment #%d: %v", i+1, err)
		}
	}

	// Daily-accrual vs monthly-EMI day-count mismatch leaves a residue
	// (see the package's scheduled-payment design notes); a final
	// make_payment for whatever remains always settles the facility.
	residual := f.State().TotalOutstanding()
	if residual.IsPositive() {
		if _, err := f.MakePayment(residual); err != nil {
			t.Fatalf("final settling MakePayment: %v", err)
		}
	}
	if f.State().Status != facility.StatusSettled {
		t.Fatalf("expected Settled after final settlement, got %s", f.State().Status)
	}
}

// Scenario 3: grace -> delinquent -> cleared.
func TestScenario_GraceToDelinquentToCleared(t *testing.T) {
	clk := newClock()
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "acct-3",
		CustomerID: "cust-3",
		Commitment: money.FromMajor(1200, 0),
		Kind:       facility.TermLoan(12, facility.AmortizationEqualInstallment),
		Interest: facility.InterestConfig{
			DayCount:    facility.DayCountActual365,
			Compounding: facility.CompoundingDaily,
			BaseRate:    money.ZeroRate,
			Penalty: &facility.PenaltyConfig{
				RateMultiplier:  money.NewRate(1.0),
				GracePeriodDays: 10,
			},
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentReduceTerm},
	})
	if err != nil {
		t.Fatalf("NewFacilityConfig: %v", err)
	}
	f := facility.New("fac-3", cfg, clk)
	mustApproveDisburse(t, f, money.FromMajor(1200, 0))

	// The first installment falls due one month after funding (Feb 1).
	// Advance one day past it with no payment: 1 day overdue, within the
	// 10-day grace period.
	clk.Advance(32 * 24 * time.Hour)
	if _, err := f.UpdateDailyStatus(); err != nil {
		t.Fatalf("UpdateDailyStatus (1 day overdue): %v", err)
	}
	if f.State().Status != facility.StatusGracePeriod {
		t.Fatalf("expected GracePeriod 1 day overdue, got %s", f.State().Status)
	}

	// 11 days overdue, grace is 10 -> Delinquent.
	clk.Advance(10 * 24 * time.Hour)
	if _, err := f.UpdateDailyStatus(); err != nil {
		t.Fatalf("UpdateDailyStatus (11 days overdue): %v", err)
	}
	if f.State().Status != facility.StatusDelinquent {
		t.Fatalf("expected Delinquent 11 days overdue, got %s", f.State().Status)
	}

	overdue := f.State().OverdueAmount
	if _, err := f.MakePayment(overdue); err != nil {
		t.Fatalf("MakePayment clearing overdue: %v", err)
	}
	if f.State().Status != facility.StatusActive {
		t.Fatalf("expected Active after clearing overdue, got %s", f.State().Status)
	}
}

// Scenario 4: revolving draw/redraw against a credit limit.
func TestScenario_RevolvingDrawRedraw(t *testing.T) {
	clk := newClock()
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "acct-4",
		CustomerID: "cust-4",
		Commitment: money.FromMajor(5000, 0),
		Kind:       facility.Revolving(money.FromMajor(5000, 0)),
		Interest: facility.InterestConfig{
			DayCount:    facility.DayCountActual365,
			Compounding: facility.CompoundingDaily,
			BaseRate:    money.ZeroRate,
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentRefund},
	})
	if err != nil {
		t.Fatalf("NewFacilityConfig: %v", err)
	}
	f := facility.New("fac-4", cfg, clk)
	if err := f.Approve(); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := f.Disburse(money.FromMajor(3000, 0)); err != nil {
		t.Fatalf("Disburse 3000: %v", err)
	}
	if _, err := f.MakePayment(money.FromMajor(1000, 0)); err != nil {
		t.Fatalf("MakePayment 1000: %v", err)
	}
	if got := f.State().OutstandingPrincipal; !got.Equal(money.FromMajor(2000, 0)) {
		t.Fatalf("expected outstanding 2000 after payment, got %s", got)
	}

	if _, err := f.Disburse(money.FromMajor(2500, 0)); err != nil {
		t.Fatalf("Disburse 2500: %v", err)
	}
	if got := f.State().OutstandingPrincipal; !got.Equal(money.FromMajor(4500, 0)) {
		t.Fatalf("expected outstanding 4500, got %s", got)
	}

	if _, err := f.Disburse(money.FromMajor(1000, 0)); err == nil {
		t.Fatalf("expected OverLimit error disbursing past credit limit")
	}
}

// Scenario 5: bitcoin-backed liquidation.
func TestScenario_CollateralLiquidation(t *testing.T) {
	clk := newClock()
	thresholds := facility.LtvThresholds{
		Initial:    money.NewRate(0.40),
		Warning:    money.NewRate(0.60),
		MarginCall: money.NewRate(0.70),
		Liquidation: money.NewRate(0.75),
	}
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "acct-5",
		CustomerID: "cust-5",
		Commitment: money.FromMajor(50000, 0),
		Kind:       facility.OpenTerm(),
		Interest: facility.InterestConfig{
			DayCount:    facility.DayCountActual365,
			Compounding: facility.CompoundingDaily,
			BaseRate:    money.ZeroRate,
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentRefund},
		Collateral: &facility.CollateralConfig{
			AssetType:     "BTC",
			LtvThresholds: thresholds,
		},
	})
	if err != nil {
		t.Fatalf("NewFacilityConfig: %v", err)
	}
	f := facility.New("fac-5", cfg, clk)
	if err := f.Approve(); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.Disburse(money.FromMajor(50000, 0)); err != nil {
		t.Fatalf("Disburse: %v", err)
	}

	status, err := f.UpdateCollateral("1", money.FromMajor(120000, 0), "exchange-feed")
	if err != nil {
		t.Fatalf("UpdateCollateral (120000): %v", err)
	}
	if status.Band != facility.LtvHealthy {
		t.Fatalf("expected Healthy at 120000, got %s", status.Band)
	}

	status, err = f.UpdateCollateral("1", money.FromMajor(80000, 0), "exchange-feed")
	if err != nil {
		t.Fatalf("UpdateCollateral (80000): %v", err)
	}
	if status.Band != facility.LtvWarning || !status.Entered {
		t.Fatalf("expected Warning entry at 80000, got band=%s entered=%v", status.Band, status.Entered)
	}

	status, err = f.UpdateCollateral("1", money.FromMajor(70000, 0), "exchange-feed")
	if err != nil {
		t.Fatalf("UpdateCollateral (70000): %v", err)
	}
	if status.Band != facility.LtvMarginCall {
		t.Fatalf("expected MarginCall at 70000, got %s", status.Band)
	}

	status, err = f.UpdateCollateral("1", money.FromMajor(65000, 0), "exchange-feed")
	if err != nil {
		t.Fatalf("UpdateCollateral (65000): %v", err)
	}
	if status.Band != facility.LtvLiquidation || !status.Entered {
		t.Fatalf("expected Liquidation entry at 65000, got band=%s entered=%v", status.Band, status.Entered)
	}

	app, err := f.ApplyLiquidationProceeds(money.FromMajor(50000, 0))
	if err != nil {
		t.Fatalf("ApplyLiquidationProceeds: %v", err)
	}
	if !app.ToPrincipal.Equal(money.FromMajor(50000, 0)) {
		t.Fatalf("expected 50000 applied to principal, got %s", app.ToPrincipal)
	}
	if f.State().Status != facility.StatusSettled {
		t.Fatalf("expected Settled after liquidation proceeds clear the balance, got %s", f.State().Status)
	}
}

// Scenario 6: overdraft with a no-fee buffer zone.
func TestScenario_OverdraftBuffer(t *testing.T) {
	clk := newClock()
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "acct-6",
		CustomerID: "cust-6",
		Commitment: money.FromMajor(1000, 0),
		Kind:       facility.Overdraft(money.FromMajor(100, 0), money.FromMajor(5, 0)),
		Interest: facility.InterestConfig{
			DayCount:    facility.DayCountActual365,
			Compounding: facility.CompoundingDaily,
			BaseRate:    money.ZeroRate,
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentRefund},
	})
	if err != nil {
		t.Fatalf("NewFacilityConfig: %v", err)
	}
	f := facility.New("fac-6", cfg, clk)
	if err := f.Approve(); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := f.Disburse(money.FromMajor(50, 0)); err != nil {
		t.Fatalf("Disburse 50: %v", err)
	}
	if got := f.State().OutstandingPrincipal; !got.Equal(money.FromMajor(50, 0)) {
		t.Fatalf("expected outstanding 50, got %s", got)
	}

	if _, err := f.Disburse(money.FromMajor(150, 0)); err != nil {
		t.Fatalf("Disburse 150: %v", err)
	}
	if got := f.State().OutstandingPrincipal; !got.Equal(money.FromMajor(200, 0)) {
		t.Fatalf("expected outstanding 200, got %s", got)
	}

	for i := 0; i < 3; i++ {
		clk.Advance(24 * time.Hour)
		if _, err := f.UpdateDailyStatus(); err != nil {
			t.Fatalf("UpdateDailyStatus sweep #%d: %v", i+1, err)
		}
	}
	if got := f.State().AccruedFees; !got.Equal(money.FromMajor(15, 0)) {
		t.Fatalf("expected accrued_fees 15 after 3 sweeps outside buffer, got %s", got)
	}

	if _, err := f.MakePayment(money.FromMajor(200, 0).Add(f.State().AccruedFees)); err != nil {
		t.Fatalf("MakePayment clearing overdraft: %v", err)
	}
	// Overdraft has no fixed term to complete: a cleared balance leaves
	// the facility Active for future draws, not Settled.
	if f.State().Status != facility.StatusActive {
		t.Fatalf("expected Active after clearing overdraft, got %s", f.State().Status)
	}
	if !f.State().TotalOutstanding().IsZero() {
		t.Fatalf("expected total_outstanding = 0, got %s", f.State().TotalOutstanding())
	}
}

// Two UpdateDailyStatus calls at the same now must not accrue a second
// time or emit a second batch of events.
func TestProperty_UpdateDailyStatus_IdempotentAtSameNow(t *testing.T) {
	clk := newClock()
	cfg := termLoanConfig(t, money.FromMajor(1200, 0), money.NewRate(0.12), 12, facility.AmortizationEqualInstallment)
	f := facility.New("fac-idemp", cfg, clk)
	mustApproveDisburse(t, f, money.FromMajor(1200, 0))

	clk.Advance(10 * 24 * time.Hour)
	if _, err := f.UpdateDailyStatus(); err != nil {
		t.Fatalf("UpdateDailyStatus #1: %v", err)
	}
	f.TakeEvents() // drain the first sweep's events

	before := f.State()
	report, err := f.UpdateDailyStatus()
	if err != nil {
		t.Fatalf("UpdateDailyStatus #2 (same now): %v", err)
	}
	after := f.State()

	if !report.Accrual.InterestAccrued.IsZero() {
		t.Fatalf("expected no interest accrued on repeat call at same now, got %s", report.Accrual.InterestAccrued)
	}
	if !before.AccruedInterest.Equal(after.AccruedInterest) {
		t.Fatalf("accrued_interest changed on repeat call: %s -> %s", before.AccruedInterest, after.AccruedInterest)
	}
	if !before.OutstandingPrincipal.Equal(after.OutstandingPrincipal) {
		t.Fatalf("outstanding_principal changed on repeat call: %s -> %s", before.OutstandingPrincipal, after.OutstandingPrincipal)
	}
	if before.Status != after.Status {
		t.Fatalf("status changed on repeat call: %s -> %s", before.Status, after.Status)
	}
	if events := f.TakeEvents(); len(events) != 0 {
		t.Fatalf("expected no events from a no-op repeat call, got %d", len(events))
	}
}

// Accruing straight from t0 to t2 must equal accruing t0->t1 then
// t1->t2, within money.Epsilon.
func TestProperty_AccrualSumMatchesAcrossSplitCalls(t *testing.T) {
	rate := money.NewRate(0.12)

	straight := func() money.Money {
		clk := newClock()
		cfg := termLoanConfig(t, money.FromMajor(1200, 0), rate, 12, facility.AmortizationEqualInstallment)
		f := facility.New("fac-straight", cfg, clk)
		mustApproveDisburse(t, f, money.FromMajor(1200, 0))
		clk.Advance(17 * 24 * time.Hour)
		if _, err := f.AccrueInterest(); err != nil {
			t.Fatalf("AccrueInterest straight: %v", err)
		}
		return f.State().AccruedInterest
	}()

	split := func() money.Money {
		clk := newClock()
		cfg := termLoanConfig(t, money.FromMajor(1200, 0), rate, 12, facility.AmortizationEqualInstallment)
		f := facility.New("fac-split", cfg, clk)
		mustApproveDisburse(t, f, money.FromMajor(1200, 0))
		clk.Advance(6 * 24 * time.Hour)
		if _, err := f.AccrueInterest(); err != nil {
			t.Fatalf("AccrueInterest split #1: %v", err)
		}
		clk.Advance(11 * 24 * time.Hour)
		if _, err := f.AccrueInterest(); err != nil {
			t.Fatalf("AccrueInterest split #2: %v", err)
		}
		return f.State().AccruedInterest
	}()

	if !straight.WithinEpsilon(split, money.Epsilon) {
		t.Fatalf("split accrual diverged: one call %s vs two calls %s", straight, split)
	}
}

// Monthly compounding defers recognition to calendar-month boundaries:
// a sweep that hasn't yet crossed one leaves accrued_interest at zero,
// and crossing it recognizes the whole elapsed chunk in one lump.
func TestAccrual_MonthlyCompounding_RecognizesOnlyAtBoundary(t *testing.T) {
	clk := newClock()
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "acct-1",
		CustomerID: "cust-1",
		Commitment: money.FromMajor(1200, 0),
		Kind:       facility.TermLoan(12, facility.AmortizationEqualInstallment),
		Interest: facility.InterestConfig{
			DayCount:    facility.DayCountActual365,
			Compounding: facility.CompoundingMonthly,
			BaseRate:    money.NewRate(0.12),
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentReduceTerm},
	})
	if err != nil {
		t.Fatalf("NewFacilityConfig: %v", err)
	}
	f := facility.New("fac-monthly", cfg, clk)
	mustApproveDisburse(t, f, money.FromMajor(1200, 0))

	clk.Advance(20 * 24 * time.Hour)
	if _, err := f.AccrueInterest(); err != nil {
		t.Fatalf("AccrueInterest (pre-boundary): %v", err)
	}
	if got := f.State().AccruedInterest; !got.IsZero() {
		t.Fatalf("expected no recognized interest before a month boundary, got %s", got)
	}

	clk.Advance(15 * 24 * time.Hour) // now 35 days in, crossing the 1-month boundary
	if _, err := f.AccrueInterest(); err != nil {
		t.Fatalf("AccrueInterest (crossing boundary): %v", err)
	}
	if got := f.State().AccruedInterest; !got.IsPositive() {
		t.Fatalf("expected recognized interest once the month boundary is crossed, got %s", got)
	}
}

// The three overpayment policies diverge once a payment exceeds the
// current period's due amount without covering the whole balance: on a
// $1,200 zero-interest 12-month loan with a $100 installment, a $300
// payment is $200 past due.
func TestOverpayment_PoliciesDiverge(t *testing.T) {
	cases := []struct {
		name            string
		policy          facility.OverpaymentPolicy
		wantPrincipal   money.Money
		wantExcess      money.Money
		wantOutstanding money.Money
		wantInstallment money.Money
	}{
		{
			name:            "reduce_term pays the balance down, installment unchanged",
			policy:          facility.OverpaymentReduceTerm,
			wantPrincipal:   money.FromMajor(300, 0),
			wantExcess:      money.Zero,
			wantOutstanding: money.FromMajor(900, 0),
			wantInstallment: money.FromMajor(100, 0),
		},
		{
			name:            "reduce_payment re-amortizes into a lower installment",
			policy:          facility.OverpaymentReducePayment,
			wantPrincipal:   money.FromMajor(300, 0),
			wantExcess:      money.Zero,
			wantOutstanding: money.FromMajor(900, 0),
			wantInstallment: money.FromMajor(75, 0),
		},
		{
			name:            "refund returns everything past the due installment",
			policy:          facility.OverpaymentRefund,
			wantPrincipal:   money.FromMajor(100, 0),
			wantExcess:      money.FromMajor(200, 0),
			wantOutstanding: money.FromMajor(1100, 0),
			wantInstallment: money.FromMajor(100, 0),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clk := newClock()
			cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
				AccountID:  "acct-op",
				CustomerID: "cust-op",
				Commitment: money.FromMajor(1200, 0),
				Kind:       facility.TermLoan(12, facility.AmortizationEqualInstallment),
				Interest: facility.InterestConfig{
					DayCount:    facility.DayCountActual365,
					Compounding: facility.CompoundingDaily,
					BaseRate:    money.ZeroRate,
				},
				Payment: facility.PaymentConfig{Overpayment: tc.policy},
			})
			if err != nil {
				t.Fatalf("NewFacilityConfig: %v", err)
			}
			f := facility.New("fac-overpay", cfg, clk)
			mustApproveDisburse(t, f, money.FromMajor(1200, 0))

			app, err := f.MakePayment(money.FromMajor(300, 0))
			if err != nil {
				t.Fatalf("MakePayment: %v", err)
			}
			if !app.ToPrincipal.Equal(tc.wantPrincipal) {
				t.Fatalf("to_principal: expected %s, got %s", tc.wantPrincipal, app.ToPrincipal)
			}
			if !app.Excess.Equal(tc.wantExcess) {
				t.Fatalf("excess: expected %s, got %s", tc.wantExcess, app.Excess)
			}
			if !app.Total().Equal(money.FromMajor(300, 0)) {
				t.Fatalf("application must account for the full payment, got %s", app.Total())
			}
			if got := f.State().OutstandingPrincipal; !got.Equal(tc.wantOutstanding) {
				t.Fatalf("outstanding: expected %s, got %s", tc.wantOutstanding, got)
			}
			if got := f.State().LastScheduledAmount; !got.Equal(tc.wantInstallment) {
				t.Fatalf("installment: expected %s, got %s", tc.wantInstallment, got)
			}
		})
	}
}

// A facility funded at month end keeps a month-end cadence: the first
// installment of a Jan 31 disbursement falls due Feb 28, not in March.
func TestSchedule_MonthEndOriginationDoesNotDrift(t *testing.T) {
	clk := clock.NewTest(clock.Date(2026, time.January, 31))
	cfg := termLoanConfig(t, money.FromMajor(1200, 0), money.ZeroRate, 12, facility.AmortizationEqualInstallment)
	f := facility.New("fac-month-end", cfg, clk)
	mustApproveDisburse(t, f, money.FromMajor(1200, 0))

	due := f.State().NextPaymentDue
	if due.Month() != time.February || due.Day() != 28 {
		t.Fatalf("expected first installment due Feb 28, got %s", due)
	}
}

func mustApproveDisburse(t *testing.T, f *facility.Facility, amount money.Money) {
	t.Helper()
	if err := f.Approve(); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.Disburse(amount); err != nil {
		t.Fatalf("Disburse: %v", err)
	}
}
