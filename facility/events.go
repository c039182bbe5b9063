/*
events.go - Append-only audit log.

PURPOSE:
  Every effect a Facility operation produces is recorded as an Event.
  take_events() drains the pending buffer and returns it to the caller;
  nothing is held once drained, since the log is a consumer-drained
  buffer, not a persistent journal. A durable sink (store/sqlite.go)
  can be attached by the caller to archive drained batches — the core
  itself holds no file handle, no network socket, and no database
  connection.

ORDERING:
  Within a single Facility, events are appended in operation order, and
  an operation's own sub-events (e.g., InterestAccrued ahead of
  PaymentReceived during a payment) are appended in effect order. The
  recorder itself does no reordering; callers rely on append order.
*/
package facility

import "github.com/warp/credit-facility/clock"

// EventKind discriminates the Event payload variants.
type EventKind string

const (
	EventOriginated        EventKind = "originated"
	EventApproved          EventKind = "approved"
	EventDenied            EventKind = "denied"
	EventDisbursed         EventKind = "disbursed"
	EventInterestAccrued   EventKind = "interest_accrued"
	EventPenaltyAccrued    EventKind = "penalty_accrued"
	EventPaymentReceived   EventKind = "payment_received"
	EventScheduledPaymentDue EventKind = "scheduled_payment_due"
	EventStatusChanged     EventKind = "status_changed"
	EventLtvWarningBreached EventKind = "ltv_warning_breached"
	EventMarginCallIssued  EventKind = "margin_call_issued"
	EventLiquidationTriggered EventKind = "liquidation_triggered"
	EventCollateralUpdated EventKind = "collateral_updated"
	EventSettled           EventKind = "settled"
)

// Event is one append-only audit record. Payload fields are populated
// according to Kind; unused fields are left zero.
type Event struct {
	Kind EventKind
	At   clock.Instant

	Amount string // Money.String(), for Disbursed/InterestAccrued/PenaltyAccrued/PaymentReceived
	Period string // human period label, for InterestAccrued

	Application *PaymentApplication // for PaymentReceived
	Excess      string              // Money.String(), for PaymentReceived

	From   Status // for StatusChanged
	To     Status // for StatusChanged
	Reason string // for StatusChanged

	Ltv string // Rate.String(), for Ltv*/MarginCall/Liquidation events
}

// recorder is the append-only in-memory buffer. Embedded by value into
// Facility so each facility owns an independent log.
type recorder struct {
	pending []Event
}

func (r *recorder) append(e Event) {
	r.pending = append(r.pending, e)
}

// takeEvents drains and returns the pending events; the buffer is empty
// after this call.
func (r *recorder) takeEvents() []Event {
	if len(r.pending) == 0 {
		return nil
	}
	drained := r.pending
	r.pending = nil
	return drained
}
