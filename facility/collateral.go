/*
collateral.go - Collateral valuation and LTV band monitoring.

PURPOSE:
  Classifies a secured facility's loan-to-value ratio into one of four
  bands and emits edge-triggered events only when the band actually
  changes — re-entering the same band without leaving it first never
  produces a duplicate event.

BANDS (strict less-than on the upper bound):
  [0, warning)      Healthy
  [warning, margin)  Warning
  [margin, liq)      MarginCall
  [liq, ∞)           Liquidation
*/
package facility

import (
	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/money"
)

// LtvBand classifies a loan-to-value ratio against the configured
// thresholds.
type LtvBand string

const (
	LtvHealthy    LtvBand = "healthy"
	LtvWarning    LtvBand = "warning"
	LtvMarginCall LtvBand = "margin_call"
	LtvLiquidation LtvBand = "liquidation"
)

// classifyLtv returns the band ltv falls into given strictly-ordered
// thresholds.
func classifyLtv(ltv money.Rate, t LtvThresholds) LtvBand {
	switch {
	case ltv.LessThan(t.Warning):
		return LtvHealthy
	case ltv.LessThan(t.MarginCall):
		return LtvWarning
	case ltv.LessThan(t.Liquidation):
		return LtvMarginCall
	default:
		return LtvLiquidation
	}
}

// computeLtv returns total_outstanding / current_value, or zero if there
// is no collateral (an undefined LTV classifies as 0, i.e. Healthy).
func computeLtv(totalOutstanding money.Money, collateral *CollateralPosition) money.Rate {
	if collateral == nil || collateral.CurrentValue.IsZero() {
		return money.ZeroRate
	}
	ratio := totalOutstanding.Decimal().Div(collateral.CurrentValue.Decimal())
	r, _ := money.RateFromString(ratio.String())
	return r
}

// updateCollateral replaces f's collateral position, reclassifies LTV,
// and emits a band-entry event if the band changed. Returns
// ErrNoCollateral if the facility was configured unsecured.
func (f *Facility) updateCollateral(now clock.Instant, assetAmount string, currentValue money.Money, valuationSource string) (LtvStatus, error) {
	if f.config.Collateral == nil {
		return LtvStatus{}, ErrNoCollateral
	}
	if f.state.Status.IsTerminal() {
		return LtvStatus{}, ErrFacilityClosed
	}

	previousBand := LtvHealthy
	if f.state.Collateral != nil {
		previousBand = f.state.Collateral.Band
	}

	initialValue := currentValue
	if f.state.Collateral != nil {
		initialValue = f.state.Collateral.InitialValue
	}

	ltv := computeLtv(f.state.TotalOutstanding(), &CollateralPosition{CurrentValue: currentValue})
	band := classifyLtv(ltv, f.config.Collateral.LtvThresholds)

	f.state.Collateral = &CollateralPosition{
		AssetAmount:     assetAmount,
		CurrentValue:    currentValue,
		InitialValue:    initialValue,
		LastValuation:   now,
		ValuationSource: valuationSource,
		Band:            band,
	}

	f.recorder.append(Event{Kind: EventCollateralUpdated, At: now, Amount: currentValue.String(), Ltv: ltv.String()})

	entered := band != previousBand
	if entered {
		f.emitBandEntry(band, now, ltv)
	}

	return LtvStatus{Ltv: ltv, Band: band, Entered: entered}, nil
}

// emitBandEntry appends the event for entering band, and marks a
// pending liquidation intent on Liquidation entry.
func (f *Facility) emitBandEntry(band LtvBand, now clock.Instant, ltv money.Rate) {
	switch band {
	case LtvWarning:
		f.recorder.append(Event{Kind: EventLtvWarningBreached, At: now, Ltv: ltv.String()})
	case LtvMarginCall:
		f.recorder.append(Event{Kind: EventMarginCallIssued, At: now, Ltv: ltv.String()})
	case LtvLiquidation:
		f.recorder.append(Event{Kind: EventLiquidationTriggered, At: now, Ltv: ltv.String()})
		f.state.LiquidationPending = true
	}
}

// reclassifyCollateral re-evaluates the LTV band using the collateral's
// existing valuation (no new price pushed in) — used by the daily sweep,
// since total_outstanding can move the band even when price doesn't.
func (f *Facility) reclassifyCollateral(now clock.Instant) {
	c := f.state.Collateral
	if c == nil {
		return
	}
	ltv := computeLtv(f.state.TotalOutstanding(), c)
	band := classifyLtv(ltv, f.config.Collateral.LtvThresholds)
	if band == c.Band {
		return
	}
	c.Band = band
	f.emitBandEntry(band, now, ltv)
}
