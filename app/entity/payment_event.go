package entity

import "time"

type PaymentEvent struct {
	ID uint64

	TransactionID string

	EventType string

	OldStatus *PaymentStatus
	NewStatus PaymentStatus

	GatewayTransactionID *string
	PayloadJSON          *string

	CreatedAt time.Time
}
