package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusInProgress PaymentStatus = "IN_PROGRESS"
	StatusDone       PaymentStatus = "DONE"
	StatusFailed     PaymentStatus = "FAILED"
)

// TransactionPayment is the single payment record attached to a charging
// session transaction. TransactionID is the primary key and doubles as the
// correlation id carried through the gateway round trip.
type TransactionPayment struct {
	TransactionID string
	ProviderID    string
	UserID        string
	ChargePointID string

	Status PaymentStatus

	// Amount is in major currency units (EGP), set once and never changed.
	Amount *decimal.Decimal

	CreatedAt time.Time
}

var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusDone, StatusFailed},
}

// AllowedPriorStatuses returns the statuses a record may hold immediately
// before moving to target.
func AllowedPriorStatuses(target PaymentStatus) []PaymentStatus {
	priors := make([]PaymentStatus, 0, 2)
	for from, targets := range allowedTransitions {
		for _, to := range targets {
			if to == target {
				priors = append(priors, from)
			}
		}
	}
	return priors
}

func CanTransition(from, to PaymentStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func IsTerminal(status PaymentStatus) bool {
	return status == StatusDone || status == StatusFailed
}

func IsValidStatus(status PaymentStatus) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}
