// internal/payment/service.go
package payment

import (
	"context"
	"errors"

	"bookhaven/internal/money"
)

// ErrVerificationFailed means the gateway reported a charge that does
// not match the expected amount, currency or completion status.
var ErrVerificationFailed = errors.New("Payment verification failed")

// Verifier confirms an already-made charge before an order is
// committed. The checkout core never retries a failed verification.
type Verifier interface {
	// Verify returns nil when the referenced charge is completed and
	// matches the expected amount and currency, ErrVerificationFailed
	// (wrapped with the reason) when it does not, and any other error
	// for infrastructure trouble reaching the gateway.
	Verify(ctx context.Context, reference string, amount money.Cents, currency string) error
}
