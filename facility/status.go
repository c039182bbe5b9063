package facility

import "github.com/warp/credit-facility/clock"

// Status identifies a facility's position in the lifecycle DAG (see
// lifecycle.go for the transition table).
type Status string

const (
	StatusOriginated  Status = "originated"
	StatusActive      Status = "active"
	StatusGracePeriod Status = "grace_period"
	StatusDelinquent  Status = "delinquent"
	StatusSettled     Status = "settled"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal reports whether s accepts no further mutation.
func (s Status) IsTerminal() bool {
	return s == StatusSettled || s == StatusCancelled
}

// IsMutable reports whether s accepts payment/disbursement/accrual
// operations (Active, GracePeriod, Delinquent).
func (s Status) IsMutable() bool {
	return s == StatusActive || s == StatusGracePeriod || s == StatusDelinquent
}

// StatusHistory records the instant a facility last entered GracePeriod
// or Delinquent. The daily sweep counts days overdue from
// NextPaymentDue, not from this instant.
type StatusHistory struct {
	Since clock.Instant
}
