/*
dto.go - Data Transfer Objects for the facility HTTP API.

PURPOSE:
  Decouples the wire contract from facility's internal types, split
  between *DTO (responses) and *Request (request bodies). Validation
  stays in handlers.go; these are pure data carriers.
*/
package api

import "github.com/warp/credit-facility/facility"

// CreateFacilityRequest describes a new facility. Kind selects which of
// the kind-specific fields apply; unused ones are ignored.
type CreateFacilityRequest struct {
	ID         string `json:"id,omitempty"` // generated with uuid if empty
	AccountID  string `json:"account_id"`
	CustomerID string `json:"customer_id"`
	Commitment string `json:"commitment"` // major-unit decimal string, e.g. "1200.00"

	Kind string `json:"kind"` // term_loan | revolving | open_term | overdraft

	// TermLoan
	TermMonths   int    `json:"term_months,omitempty"`
	Amortization string `json:"amortization,omitempty"` // declining | equal_installment

	// Revolving
	CreditLimit string `json:"credit_limit,omitempty"`

	// Overdraft
	BufferZone string `json:"buffer_zone,omitempty"`
	DailyFee   string `json:"daily_fee,omitempty"`

	Interest   InterestRequest    `json:"interest"`
	Payment    PaymentRequest     `json:"payment"`
	Collateral *CollateralRequest `json:"collateral,omitempty"`
}

// InterestRequest carries InterestConfig over the wire.
type InterestRequest struct {
	DayCount      string  `json:"day_count"`
	Compounding   string  `json:"compounding"`
	BaseRate      string  `json:"base_rate"` // decimal fraction, e.g. "0.08"
	PenaltyRate   string  `json:"penalty_rate_multiplier,omitempty"`
	GracePeriod   uint16  `json:"grace_period_days,omitempty"`
	HasPenalty    bool    `json:"has_penalty,omitempty"`
}

// PaymentRequest carries PaymentConfig over the wire.
type PaymentRequest struct {
	Overpayment        string `json:"overpayment"`
	ScheduledDayOfMonth uint8  `json:"scheduled_day_of_month,omitempty"`
}

// CollateralRequest carries CollateralConfig over the wire.
type CollateralRequest struct {
	AssetType        string `json:"asset_type"`
	InitialThreshold string `json:"initial_threshold"`
	Warning          string `json:"warning_threshold"`
	MarginCall       string `json:"margin_call_threshold"`
	Liquidation      string `json:"liquidation_threshold"`
}

// AmountRequest is the body shape shared by disburse/payment/liquidation
// endpoints.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// CollateralUpdateRequest is the body for POST .../collateral.
type CollateralUpdateRequest struct {
	AssetAmount     string `json:"asset_amount"`
	CurrentValue    string `json:"current_value"`
	ValuationSource string `json:"valuation_source"`
}

// FacilitySummaryDTO is the row shape for GET /api/facilities.
type FacilitySummaryDTO struct {
	ID     string          `json:"id"`
	Status facility.Status `json:"status"`
	Kind   string          `json:"kind"`
}

// PaymentApplicationDTO mirrors facility.PaymentApplication for API
// responses.
type PaymentApplicationDTO struct {
	ToFees      string `json:"to_fees"`
	ToPenalties string `json:"to_penalties"`
	ToInterest  string `json:"to_interest"`
	ToPrincipal string `json:"to_principal"`
	Excess      string `json:"excess"`
}

func toPaymentApplicationDTO(a facility.PaymentApplication) PaymentApplicationDTO {
	return PaymentApplicationDTO{
		ToFees:      a.ToFees.String(),
		ToPenalties: a.ToPenalties.String(),
		ToInterest:  a.ToInterest.String(),
		ToPrincipal: a.ToPrincipal.String(),
		Excess:      a.Excess.String(),
	}
}

// AccrualReportDTO mirrors facility.AccrualReport.
type AccrualReportDTO struct {
	InterestAccrued string `json:"interest_accrued"`
	PenaltyAccrued  string `json:"penalty_accrued"`
	From            string `json:"from"`
	To              string `json:"to"`
}

func toAccrualReportDTO(r facility.AccrualReport) AccrualReportDTO {
	return AccrualReportDTO{
		InterestAccrued: r.InterestAccrued.String(),
		PenaltyAccrued:  r.PenaltyAccrued.String(),
		From:            r.From.String(),
		To:              r.To.String(),
	}
}

// StatusReportDTO mirrors facility.StatusReport.
type StatusReportDTO struct {
	Accrual    AccrualReportDTO `json:"accrual"`
	FromStatus facility.Status  `json:"from_status"`
	ToStatus   facility.Status  `json:"to_status"`
	Changed    bool             `json:"changed"`
}

func toStatusReportDTO(r facility.StatusReport) StatusReportDTO {
	return StatusReportDTO{
		Accrual:    toAccrualReportDTO(r.Accrual),
		FromStatus: r.FromStatus,
		ToStatus:   r.ToStatus,
		Changed:    r.Changed,
	}
}

// LtvStatusDTO mirrors facility.LtvStatus.
type LtvStatusDTO struct {
	Ltv     string           `json:"ltv"`
	Band    facility.LtvBand `json:"band"`
	Entered bool             `json:"entered"`
}

func toLtvStatusDTO(s facility.LtvStatus) LtvStatusDTO {
	return LtvStatusDTO{Ltv: s.Ltv.String(), Band: s.Band, Entered: s.Entered}
}

// EventDTO is the wire shape of a drained facility.Event.
type EventDTO struct {
	Kind        facility.EventKind     `json:"kind"`
	At          string                 `json:"at"`
	Amount      string                 `json:"amount,omitempty"`
	Period      string                 `json:"period,omitempty"`
	Application *PaymentApplicationDTO `json:"application,omitempty"`
	Excess      string                 `json:"excess,omitempty"`
	From        facility.Status        `json:"from,omitempty"`
	To          facility.Status        `json:"to,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Ltv         string                 `json:"ltv,omitempty"`
}

func toEventDTO(e facility.Event) EventDTO {
	dto := EventDTO{
		Kind:   e.Kind,
		At:     e.At.String(),
		Amount: e.Amount,
		Period: e.Period,
		Excess: e.Excess,
		From:   e.From,
		To:     e.To,
		Reason: e.Reason,
		Ltv:    e.Ltv,
	}
	if e.Application != nil {
		app := toPaymentApplicationDTO(*e.Application)
		dto.Application = &app
	}
	return dto
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
