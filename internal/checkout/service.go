// internal/checkout/service.go
package checkout

import "context"

// Service turns a verified payment and a cart snapshot into a
// persisted order while safely adjusting inventory.
type Service interface {
	// CreateOrder validates the snapshot, re-checks stock, reserves
	// each line with bounded compare-and-swap retries, and persists
	// the sale. Domain failures come back as a failed OrderResult
	// with a shopper-safe message; only infrastructure failures are
	// returned as errors.
	CreateOrder(ctx context.Context, input *OrderInput) (*OrderResult, error)
}
