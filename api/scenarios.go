/*
scenarios.go - Demo scenario runner.

PURPOSE:
  Drives six worked end-to-end scenarios — one per notable lifecycle
  path (zero-interest round-trip, EMI rounding, grace/delinquency,
  revolving redraw, collateral liquidation, overdraft fees) — each
  against its own Facility bound to its own clock.Test so a scenario
  run never disturbs the server's live facilities or clock.

USAGE:
  GET  /api/scenarios        -> list of {id, name, description}
  POST /api/scenarios/load   -> {"id": "zero_interest_term_loan"} runs it
                                 and returns a narrative of steps plus
                                 the final JSON readout.
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/facility"
	"github.com/warp/credit-facility/money"
)

// ScenarioStep narrates one operation within a scenario run.
type ScenarioStep struct {
	Op     string `json:"op"`
	Result string `json:"result"`
}

// ScenarioResult is the response body of POST /api/scenarios/load.
type ScenarioResult struct {
	ID       string          `json:"id"`
	Steps    []ScenarioStep  `json:"steps"`
	Snapshot json.RawMessage `json:"final_state"`
}

type scenarioDef struct {
	ID          string
	Name        string
	Description string
	run         func() (*facility.Facility, []ScenarioStep, error)
}

var scenarios = []scenarioDef{
	{
		ID:          "zero_interest_term_loan",
		Name:        "Zero-interest term loan round-trip",
		Description: "$1,200 commitment, 0% APR, 12-month EqualInstallment: twelve $100 payments settle it exactly.",
		run:         runZeroInterestTermLoan,
	},
	{
		ID:          "emi_rounding_absorption",
		Name:        "EMI rounding absorption",
		Description: "$10,000 at 8% APR over 12 months: the final installment absorbs residual rounding drift.",
		run:         runEMIRoundingAbsorption,
	},
	{
		ID:          "grace_to_delinquent",
		Name:        "Grace -> Delinquent",
		Description: "A missed payment ages through GracePeriod into Delinquent, then clears back to Active.",
		run:         runGraceToDelinquent,
	},
	{
		ID:          "revolving_draw_redraw",
		Name:        "Revolving draw/redraw",
		Description: "A $5,000 revolving line draws, pays down, redraws, then is refused for exceeding the limit.",
		run:         runRevolvingDrawRedraw,
	},
	{
		ID:          "bitcoin_liquidation",
		Name:        "Bitcoin-backed liquidation",
		Description: "Collateral devalues through Healthy -> Warning -> MarginCall -> Liquidation, then settles.",
		run:         runBitcoinLiquidation,
	},
	{
		ID:          "overdraft_buffer",
		Name:        "Overdraft with buffer",
		Description: "An overdraft facility accrues no fee inside its buffer zone, then a daily fee once past it.",
		run:         runOverdraftBuffer,
	},
}

// ListScenarios returns the catalog of runnable demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]string, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, map[string]string{"id": s.ID, "name": s.Name, "description": s.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// LoadScenario runs the named scenario against its own isolated
// Facility/clock, registers the resulting facility under the server's
// shared registry (so GET /api/facilities/{id} can inspect it
// afterward), and returns a narrative of the steps taken.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var def *scenarioDef
	for i := range scenarios {
		if scenarios[i].ID == req.ID {
			def = &scenarios[i]
			break
		}
	}
	if def == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown scenario %q", req.ID))
		return
	}

	f, steps, err := def.run()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.register(f)
	h.persist(r, f)

	snap, err := f.JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioResult{ID: def.ID, Steps: steps, Snapshot: json.RawMessage(snap)})
}

func runZeroInterestTermLoan() (*facility.Facility, []ScenarioStep, error) {
	clk := clock.NewTest(clock.Date(2026, 1, 1))
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID:  "demo", CustomerID: "demo",
		Commitment: money.FromMajor(1200, 0),
		Kind:       facility.TermLoan(12, facility.AmortizationEqualInstallment),
		Interest:   facility.InterestConfig{DayCount: facility.DayCountActual365, Compounding: facility.CompoundingDaily, BaseRate: money.ZeroRate},
		Payment:    facility.PaymentConfig{Overpayment: facility.OverpaymentReduceTerm},
	})
	if err != nil {
		return nil, nil, err
	}
	f := facility.New("scn-zero-interest", cfg, clk)
	var steps []ScenarioStep

	if err := f.Approve(); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "approve", Result: "active"})

	if _, err := f.Disburse(money.FromMajor(1200, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "disburse 1200.00", Result: "outstanding_principal=1200.00"})

	for i := 1; i <= 12; i++ {
		clk.Advance(30 * 24 * time.Hour)
		app, err := f.ProcessScheduledPayment()
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, ScenarioStep{Op: fmt.Sprintf("process_scheduled_payment #%d", i), Result: "to_principal=" + app.ToPrincipal.String()})
	}

	return f, steps, nil
}

func runEMIRoundingAbsorption() (*facility.Facility, []ScenarioStep, error) {
	clk := clock.NewTest(clock.Date(2026, 1, 1))
	rate, _ := money.RateFromString("0.08")
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID: "demo", CustomerID: "demo",
		Commitment: money.FromMajor(10000, 0),
		Kind:       facility.TermLoan(12, facility.AmortizationEqualInstallment),
		Interest:   facility.InterestConfig{DayCount: facility.DayCountActual365, Compounding: facility.CompoundingDaily, BaseRate: rate},
		Payment:    facility.PaymentConfig{Overpayment: facility.OverpaymentReduceTerm},
	})
	if err != nil {
		return nil, nil, err
	}
	f := facility.New("scn-emi-rounding", cfg, clk)
	var steps []ScenarioStep

	if err := f.Approve(); err != nil {
		return nil, nil, err
	}
	if _, err := f.Disburse(money.FromMajor(10000, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "approve + disburse 10000.00", Result: "outstanding_principal=10000.00"})

	for i := 1; i <= 12; i++ {
		clk.Advance(30 * 24 * time.Hour)
		app, err := f.ProcessScheduledPayment()
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, ScenarioStep{Op: fmt.Sprintf("process_scheduled_payment #%d", i), Result: "installment total=" + app.Total().Sub(app.Excess).String()})
	}

	if !f.State().TotalOutstanding().IsZero() {
		residual := f.State().TotalOutstanding()
		app, err := f.MakePayment(residual)
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, ScenarioStep{Op: "make_payment (residual settle)", Result: "amount=" + residual.String() + " excess=" + app.Excess.String()})
	}

	return f, steps, nil
}

func runGraceToDelinquent() (*facility.Facility, []ScenarioStep, error) {
	clk := clock.NewTest(clock.Date(2026, 1, 1))
	rate, _ := money.RateFromString("0.06")
	penaltyMult, _ := money.RateFromString("0.5")
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID: "demo", CustomerID: "demo",
		Commitment: money.FromMajor(6000, 0),
		Kind:       facility.TermLoan(24, facility.AmortizationEqualInstallment),
		Interest: facility.InterestConfig{
			DayCount: facility.DayCountActual365, Compounding: facility.CompoundingDaily, BaseRate: rate,
			Penalty: &facility.PenaltyConfig{RateMultiplier: penaltyMult, GracePeriodDays: 10},
		},
		Payment: facility.PaymentConfig{Overpayment: facility.OverpaymentReduceTerm},
	})
	if err != nil {
		return nil, nil, err
	}
	f := facility.New("scn-grace-delinquent", cfg, clk)
	var steps []ScenarioStep

	if err := f.Approve(); err != nil {
		return nil, nil, err
	}
	if _, err := f.Disburse(money.FromMajor(6000, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "approve + disburse 6000.00", Result: "active"})

	clk.Advance(31 * 24 * time.Hour) // due date arrives, unpaid
	report, err := f.UpdateDailyStatus()
	if err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "daily_sweep at due date", Result: string(report.ToStatus)})

	clk.Advance(1 * 24 * time.Hour) // 1 day overdue
	report, err = f.UpdateDailyStatus()
	if err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "daily_sweep day 1 overdue", Result: string(report.ToStatus)})

	clk.Advance(10 * 24 * time.Hour) // 11 days overdue, past 10-day grace
	report, err = f.UpdateDailyStatus()
	if err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "daily_sweep day 11 overdue", Result: string(report.ToStatus)})

	overdue := f.State().OverdueAmount.Add(f.State().AccruedPenalties)
	app, err := f.MakePayment(overdue)
	if err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "make_payment (clears overdue)", Result: "amount=" + overdue.String() + " excess=" + app.Excess.String()})

	return f, steps, nil
}

func runRevolvingDrawRedraw() (*facility.Facility, []ScenarioStep, error) {
	clk := clock.NewTest(clock.Date(2026, 1, 1))
	rate, _ := money.RateFromString("0.12")
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID: "demo", CustomerID: "demo",
		Commitment: money.FromMajor(5000, 0),
		Kind:       facility.Revolving(money.FromMajor(5000, 0)),
		Interest:   facility.InterestConfig{DayCount: facility.DayCountActual365, Compounding: facility.CompoundingDaily, BaseRate: rate},
		Payment:    facility.PaymentConfig{Overpayment: facility.OverpaymentRefund},
	})
	if err != nil {
		return nil, nil, err
	}
	f := facility.New("scn-revolving", cfg, clk)
	var steps []ScenarioStep

	if err := f.Approve(); err != nil {
		return nil, nil, err
	}
	if _, err := f.Disburse(money.FromMajor(3000, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "disburse 3000.00", Result: "outstanding_principal=" + f.State().OutstandingPrincipal.String()})

	if _, err := f.MakePayment(money.FromMajor(1000, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "make_payment 1000.00", Result: "outstanding_principal=" + f.State().OutstandingPrincipal.String()})

	if _, err := f.Disburse(money.FromMajor(2500, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "disburse 2500.00", Result: "outstanding_principal=" + f.State().OutstandingPrincipal.String()})

	if _, err := f.Disburse(money.FromMajor(1000, 0)); err != nil {
		steps = append(steps, ScenarioStep{Op: "disburse 1000.00 (over limit)", Result: "rejected: " + err.Error()})
	} else {
		steps = append(steps, ScenarioStep{Op: "disburse 1000.00 (over limit)", Result: "unexpectedly succeeded"})
	}

	return f, steps, nil
}

func runBitcoinLiquidation() (*facility.Facility, []ScenarioStep, error) {
	clk := clock.NewTest(clock.Date(2026, 1, 1))
	rate, _ := money.RateFromString("0.07")
	initial, _ := money.RateFromString("0.45")
	warning, _ := money.RateFromString("0.55")
	marginCall, _ := money.RateFromString("0.65")
	liquidation, _ := money.RateFromString("0.75")
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID: "demo", CustomerID: "demo",
		Commitment: money.FromMajor(50000, 0),
		Kind:       facility.OpenTerm(),
		Interest:   facility.InterestConfig{DayCount: facility.DayCountActual365, Compounding: facility.CompoundingDaily, BaseRate: rate},
		Payment:    facility.PaymentConfig{Overpayment: facility.OverpaymentRefund},
		Collateral: &facility.CollateralConfig{
			AssetType: "BTC",
			LtvThresholds: facility.LtvThresholds{Initial: initial, Warning: warning, MarginCall: marginCall, Liquidation: liquidation},
		},
	})
	if err != nil {
		return nil, nil, err
	}
	f := facility.New("scn-btc-liquidation", cfg, clk)
	var steps []ScenarioStep

	if err := f.Approve(); err != nil {
		return nil, nil, err
	}
	if _, err := f.Disburse(money.FromMajor(50000, 0)); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "approve + disburse 50000.00", Result: "active"})

	for _, step := range []struct {
		value string
		label string
	}{
		{"120000.00", "initial valuation"},
		{"80000.00", "devaluation -> Warning"},
		{"70000.00", "devaluation -> MarginCall"},
		{"65000.00", "devaluation -> Liquidation"},
	} {
		value, err := money.FromString(step.value)
		if err != nil {
			return nil, nil, err
		}
		status, err := f.UpdateCollateral("1", value, "exchange-feed")
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, ScenarioStep{Op: "update_collateral " + step.label, Result: fmt.Sprintf("ltv=%s band=%s entered=%v", status.Ltv.String(), status.Band, status.Entered)})
	}

	app, err := f.ApplyLiquidationProceeds(money.FromMajor(65000, 0))
	if err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "apply_liquidation_proceeds 65000.00", Result: "to_principal=" + app.ToPrincipal.String() + " status=" + string(f.State().Status)})

	return f, steps, nil
}

func runOverdraftBuffer() (*facility.Facility, []ScenarioStep, error) {
	clk := clock.NewTest(clock.Date(2026, 1, 1))
	cfg, err := facility.NewFacilityConfig(facility.FacilityConfig{
		AccountID: "demo", CustomerID: "demo",
		Commitment: money.FromMajor(1000, 0),
		Kind:       facility.Overdraft(money.FromMajor(100, 0), money.FromMajor(5, 0)),
		Interest:   facility.InterestConfig{DayCount: facility.DayCountActual365, Compounding: facility.CompoundingDaily, BaseRate: money.ZeroRate},
		Payment:    facility.PaymentConfig{Overpayment: facility.OverpaymentRefund},
	})
	if err != nil {
		return nil, nil, err
	}
	f := facility.New("scn-overdraft", cfg, clk)
	var steps []ScenarioStep

	if err := f.Approve(); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "approve", Result: "active"})

	if _, err := f.Disburse(money.FromMajor(50, 0)); err != nil {
		return nil, nil, err
	}
	report, err := f.UpdateDailyStatus()
	if err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "disburse 50.00 (within buffer) + sweep", Result: "accrued_fees=" + f.State().AccruedFees.String() + " status=" + string(report.ToStatus)})

	if _, err := f.Disburse(money.FromMajor(150, 0)); err != nil {
		return nil, nil, err
	}
	for i := 1; i <= 3; i++ {
		clk.Advance(24 * time.Hour)
		report, err = f.UpdateDailyStatus()
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, ScenarioStep{Op: fmt.Sprintf("daily_sweep day %d past buffer", i), Result: "accrued_fees=" + f.State().AccruedFees.String()})
	}

	total := f.State().TotalOutstanding()
	if _, err := f.MakePayment(total); err != nil {
		return nil, nil, err
	}
	steps = append(steps, ScenarioStep{Op: "make_payment (clear balance)", Result: "status=" + string(f.State().Status)})

	return f, steps, nil
}
