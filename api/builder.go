/*
builder.go - CreateFacilityRequest -> facility.FacilityConfig conversion.

PURPOSE:
  Converts a JSON wire shape into the domain's in-memory config
  structs. Not a reusable package of its own: the FacilityKind dispatch
  surface in facility/kinds.go already carries the only per-kind
  variation, so this lives as one function inside api/ rather than a
  standalone factory package. The engine itself never parses requests;
  this is the thin builder the HTTP demo surface supplies as an
  external collaborator.
*/
package api

import (
	"fmt"

	"github.com/warp/credit-facility/facility"
	"github.com/warp/credit-facility/money"
)

func buildConfig(req CreateFacilityRequest) (facility.FacilityConfig, error) {
	commitment, err := money.FromString(req.Commitment)
	if err != nil {
		return facility.FacilityConfig{}, fmt.Errorf("commitment: %w", err)
	}

	kind, err := buildKind(req)
	if err != nil {
		return facility.FacilityConfig{}, err
	}

	interest, err := buildInterest(req.Interest)
	if err != nil {
		return facility.FacilityConfig{}, err
	}

	payment := facility.PaymentConfig{
		Overpayment:         facility.OverpaymentPolicy(req.Payment.Overpayment),
		ScheduledDayOfMonth: req.Payment.ScheduledDayOfMonth,
	}

	var collateral *facility.CollateralConfig
	if req.Collateral != nil {
		collateral, err = buildCollateral(*req.Collateral)
		if err != nil {
			return facility.FacilityConfig{}, err
		}
	}

	return facility.FacilityConfig{
		AccountID:  req.AccountID,
		CustomerID: req.CustomerID,
		Commitment: commitment,
		Kind:       kind,
		Interest:   interest,
		Payment:    payment,
		Collateral: collateral,
	}, nil
}

func buildKind(req CreateFacilityRequest) (facility.FacilityKind, error) {
	switch req.Kind {
	case string(facility.KindTermLoan):
		return facility.TermLoan(req.TermMonths, facility.AmortizationMethod(req.Amortization)), nil
	case string(facility.KindRevolving):
		limit, err := money.FromString(req.CreditLimit)
		if err != nil {
			return facility.FacilityKind{}, fmt.Errorf("credit_limit: %w", err)
		}
		return facility.Revolving(limit), nil
	case string(facility.KindOpenTerm):
		return facility.OpenTerm(), nil
	case string(facility.KindOverdraft):
		buffer, err := money.FromString(req.BufferZone)
		if err != nil {
			return facility.FacilityKind{}, fmt.Errorf("buffer_zone: %w", err)
		}
		fee, err := money.FromString(req.DailyFee)
		if err != nil {
			return facility.FacilityKind{}, fmt.Errorf("daily_fee: %w", err)
		}
		return facility.Overdraft(buffer, fee), nil
	default:
		return facility.FacilityKind{}, fmt.Errorf("unknown kind %q", req.Kind)
	}
}

func buildInterest(req InterestRequest) (facility.InterestConfig, error) {
	baseRate, err := money.RateFromString(req.BaseRate)
	if err != nil {
		return facility.InterestConfig{}, fmt.Errorf("interest.base_rate: %w", err)
	}

	cfg := facility.InterestConfig{
		DayCount:    facility.DayCountConvention(req.DayCount),
		Compounding: facility.CompoundingMethod(req.Compounding),
		BaseRate:    baseRate,
	}

	if req.HasPenalty {
		multiplier, err := money.RateFromString(req.PenaltyRate)
		if err != nil {
			return facility.InterestConfig{}, fmt.Errorf("interest.penalty_rate_multiplier: %w", err)
		}
		cfg.Penalty = &facility.PenaltyConfig{
			RateMultiplier:  multiplier,
			GracePeriodDays: req.GracePeriod,
		}
	}

	return cfg, nil
}

func buildCollateral(req CollateralRequest) (*facility.CollateralConfig, error) {
	initial, err := money.RateFromString(req.InitialThreshold)
	if err != nil {
		return nil, fmt.Errorf("collateral.initial_threshold: %w", err)
	}
	warning, err := money.RateFromString(req.Warning)
	if err != nil {
		return nil, fmt.Errorf("collateral.warning_threshold: %w", err)
	}
	marginCall, err := money.RateFromString(req.MarginCall)
	if err != nil {
		return nil, fmt.Errorf("collateral.margin_call_threshold: %w", err)
	}
	liquidation, err := money.RateFromString(req.Liquidation)
	if err != nil {
		return nil, fmt.Errorf("collateral.liquidation_threshold: %w", err)
	}

	return &facility.CollateralConfig{
		AssetType: req.AssetType,
		LtvThresholds: facility.LtvThresholds{
			Initial:     initial,
			Warning:     warning,
			MarginCall:  marginCall,
			Liquidation: liquidation,
		},
	}, nil
}
