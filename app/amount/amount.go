package amount

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAmountUnavailable is returned for any failure to resolve a session
// amount. Callers treat it as fatal to the operation in flight.
var ErrAmountUnavailable = errors.New("transaction amount unavailable")

// Source resolves the amount owed for a charging session transaction, in
// major currency units.
type Source interface {
	ResolveAmount(ctx context.Context, transactionID string) (decimal.Decimal, error)
}
