/*
config.go - Immutable per-facility configuration.

PURPOSE:
  FacilityConfig describes what a facility is — product kind, pricing,
  payment policy, optional collateral terms — and is validated once at
  build time. Once handed to New(), it is never mutated again; every
  operation on Facility reads it but none writes it.

KEY TYPES:
  - FacilityKind: tagged variant across the four product families.
    Behavioral differences (schedule generation, limit checks,
    disbursement policy) are confined to the small dispatch surface
    in kinds.go (disbursementCeiling, checkDisbursementLimit,
    hasAmortizationSchedule, withinOverdraftBuffer) rather than spread
    through the engine.
  - InterestConfig / PaymentConfig / CollateralConfig: parameter
    groups. NewFacilityConfig checks the interest rates and the
    collateral thresholds; PaymentConfig is not checked.

SEE ALSO:
  - kinds.go: the dispatch surface FacilityKind drives.
  - facility.go: where a FacilityConfig becomes a live Facility.
*/
package facility

import "github.com/warp/credit-facility/money"

// AmortizationMethod selects how a TermLoan's schedule amortizes.
type AmortizationMethod string

const (
	AmortizationDeclining       AmortizationMethod = "declining"
	AmortizationEqualInstallment AmortizationMethod = "equal_installment"
)

// DayCountConvention selects how elapsed time converts to a year fraction.
type DayCountConvention string

const (
	DayCountActual365 DayCountConvention = "actual_365"
	DayCountActual360 DayCountConvention = "actual_360"
	DayCountThirty360 DayCountConvention = "thirty_360"
)

// Denominator returns the day-count divisor for the convention. Thirty360
// is handled specially in accrual.go (30-day months), so it has no single
// denominator and returns 360 as its nominal year length.
func (d DayCountConvention) Denominator() int64 {
	switch d {
	case DayCountActual360, DayCountThirty360:
		return 360
	default:
		return 365
	}
}

// OverpaymentPolicy selects how excess cash is handled: on scheduled
// facilities, cash past the current period's due amount; on the other
// kinds, cash past full settlement of the owed buckets.
type OverpaymentPolicy string

const (
	OverpaymentReduceTerm    OverpaymentPolicy = "reduce_term"
	OverpaymentReducePayment OverpaymentPolicy = "reduce_payment"
	OverpaymentRefund        OverpaymentPolicy = "refund"
)

// FacilityKindTag discriminates the FacilityKind tagged variant.
type FacilityKindTag string

const (
	KindTermLoan  FacilityKindTag = "term_loan"
	KindRevolving FacilityKindTag = "revolving"
	KindOpenTerm  FacilityKindTag = "open_term"
	KindOverdraft FacilityKindTag = "overdraft"
)

// FacilityKind is a tagged variant over the four product families. Only
// the fields relevant to Tag are populated; construct with the Term*,
// Revolving, OpenTerm, or Overdraft helpers rather than literal structs.
type FacilityKind struct {
	Tag FacilityKindTag

	// TermLoan
	TermMonths   int
	Amortization AmortizationMethod

	// Revolving
	CreditLimit money.Money

	// Overdraft
	BufferZone money.Money
	DailyFee   money.Money
}

// TermLoan builds a TermLoan FacilityKind.
func TermLoan(termMonths int, amortization AmortizationMethod) FacilityKind {
	return FacilityKind{Tag: KindTermLoan, TermMonths: termMonths, Amortization: amortization}
}

// Revolving builds a Revolving FacilityKind.
func Revolving(creditLimit money.Money) FacilityKind {
	return FacilityKind{Tag: KindRevolving, CreditLimit: creditLimit}
}

// OpenTerm builds an OpenTerm FacilityKind.
func OpenTerm() FacilityKind {
	return FacilityKind{Tag: KindOpenTerm}
}

// Overdraft builds an Overdraft FacilityKind.
func Overdraft(bufferZone, dailyFee money.Money) FacilityKind {
	return FacilityKind{Tag: KindOverdraft, BufferZone: bufferZone, DailyFee: dailyFee}
}

// PenaltyConfig describes the penalty-interest stream applied to overdue
// amounts once a grace period elapses.
type PenaltyConfig struct {
	RateMultiplier  money.Rate
	GracePeriodDays uint16
}

// InterestConfig governs base and penalty interest accrual.
type InterestConfig struct {
	DayCount    DayCountConvention
	Compounding CompoundingMethod
	BaseRate    money.Rate
	Penalty     *PenaltyConfig // nil ⇒ no penalty interest stream
}

// CompoundingMethod selects when accrued interest is recognized.
type CompoundingMethod string

const (
	CompoundingDaily   CompoundingMethod = "daily"
	CompoundingMonthly CompoundingMethod = "monthly"
)

// PaymentConfig governs payment application and scheduling.
type PaymentConfig struct {
	Overpayment        OverpaymentPolicy
	ScheduledDayOfMonth uint8 // 0 ⇒ unset (revolving/open-term/overdraft)
}

// LtvThresholds are the strictly-ordered band boundaries for collateral
// monitoring (see collateral.go).
type LtvThresholds struct {
	Initial    money.Rate
	Warning    money.Rate
	MarginCall money.Rate
	Liquidation money.Rate
}

// CollateralConfig governs secured facilities. A nil *CollateralConfig on
// FacilityConfig means the facility is unsecured.
type CollateralConfig struct {
	AssetType     string
	LtvThresholds LtvThresholds
}

// FacilityConfig is the complete, immutable description of a facility's
// product terms. Build with NewFacilityConfig, which validates before
// returning.
type FacilityConfig struct {
	AccountID  string
	CustomerID string
	Commitment money.Money
	Kind       FacilityKind
	Interest   InterestConfig
	Payment    PaymentConfig
	Collateral *CollateralConfig // nil ⇒ unsecured
}

// NewFacilityConfig validates cfg and returns it unchanged on success.
// Validation failures return *InvalidConfigError identifying the
// offending field.
func NewFacilityConfig(cfg FacilityConfig) (FacilityConfig, error) {
	if cfg.Commitment.LessOrEqual(money.Zero) {
		return FacilityConfig{}, &InvalidConfigError{Field: "commitment", Reason: "must be positive"}
	}
	if cfg.Interest.BaseRate.IsNegative() {
		return FacilityConfig{}, &InvalidConfigError{Field: "interest.base_rate", Reason: "must be non-negative"}
	}
	if p := cfg.Interest.Penalty; p != nil {
		if p.RateMultiplier.IsNegative() {
			return FacilityConfig{}, &InvalidConfigError{Field: "interest.penalty.rate_multiplier", Reason: "must be non-negative"}
		}
	}

	switch cfg.Kind.Tag {
	case KindTermLoan:
		if cfg.Kind.TermMonths < 1 {
			return FacilityConfig{}, &InvalidConfigError{Field: "kind.term_months", Reason: "must be at least 1"}
		}
		if cfg.Kind.Amortization != AmortizationDeclining && cfg.Kind.Amortization != AmortizationEqualInstallment {
			return FacilityConfig{}, &InvalidConfigError{Field: "kind.amortization", Reason: "must be declining or equal_installment"}
		}
	case KindRevolving:
		if cfg.Kind.CreditLimit.LessOrEqual(money.Zero) {
			return FacilityConfig{}, &InvalidConfigError{Field: "kind.credit_limit", Reason: "must be positive"}
		}
	case KindOverdraft:
		if cfg.Kind.BufferZone.IsNegative() {
			return FacilityConfig{}, &InvalidConfigError{Field: "kind.buffer_zone", Reason: "must be non-negative"}
		}
		if cfg.Kind.DailyFee.IsNegative() {
			return FacilityConfig{}, &InvalidConfigError{Field: "kind.daily_fee", Reason: "must be non-negative"}
		}
	case KindOpenTerm:
		// no additional constraints
	default:
		return FacilityConfig{}, &InvalidConfigError{Field: "kind", Reason: "unknown facility kind"}
	}

	if cfg.Collateral != nil {
		t := cfg.Collateral.LtvThresholds
		if !(t.Initial.LessThan(t.Warning) && t.Warning.LessThan(t.MarginCall) && t.MarginCall.LessThan(t.Liquidation)) {
			return FacilityConfig{}, &InvalidConfigError{
				Field:  "collateral.ltv_thresholds",
				Reason: "must be strictly ordered initial < warning < margin_call < liquidation",
			}
		}
	}

	return cfg, nil
}
