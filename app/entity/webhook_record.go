package entity

import "time"

const (
	WebhookProcessed int32 = 10
	WebhookDuplicate int32 = 11
	WebhookIgnored   int32 = 12
	WebhookRejected  int32 = 20
)

// WebhookRecord journals every gateway notification we receive, including
// the ones that cannot be matched to a payment. The webhook endpoint always
// acknowledges, so this journal is the only trace of a bad delivery.
type WebhookRecord struct {
	ID uint64

	TransactionID        *string
	GatewayTransactionID *string

	PayloadJSON string
	Status      int32
	Error       *string

	CreatedAt time.Time
}
