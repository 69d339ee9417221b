package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Payer carries the billing identity the gateway requires when creating a
// payment intention.
type Payer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Client creates a remote payment intention and returns the checkout URL the
// payer is redirected to. amountCents is in the gateway's minor currency
// unit; correlationID is echoed back in the webhook and must identify
// exactly one transaction payment.
type Client interface {
	CreateIntention(ctx context.Context, amountCents int64, payer Payer, correlationID string) (string, error)
}

// APIError is returned when the gateway was reachable but rejected the
// request with a structured error body. Transport failures are returned as
// plain wrapped errors so callers can tell the two apart.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway rejected request: status=%d body=%s", e.StatusCode, e.Body)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
