// internal/checkout/domain.go
package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"bookhaven/internal/cart"
	"bookhaven/internal/money"
)

// Domain failures the orchestrator recovers into a failed OrderResult.
// The messages are shown to shoppers as-is.
var (
	ErrCartExpired            = errors.New("Your cart has expired, please add your items again")
	ErrEmptyCart              = errors.New("Your cart is empty, nothing to check out")
	ErrBooksNotFound          = errors.New("None of the books in your cart could be found")
	ErrInsufficientStock      = errors.New("Insufficient stock")
	ErrConcurrentModification = errors.New("Too many concurrent modifications, please retry checkout")
)

// SaleStatus is the order lifecycle. Transitions past PENDING are
// driven by order-management flows outside the checkout core.
type SaleStatus string

const (
	SalePending    SaleStatus = "PENDING"
	SaleProcessing SaleStatus = "PROCESSING"
	SaleCompleted  SaleStatus = "COMPLETED"
	SaleCancelled  SaleStatus = "CANCELLED"
	SaleRefunded   SaleStatus = "REFUNDED"
)

var saleTransitions = map[SaleStatus][]SaleStatus{
	SalePending:    {SaleProcessing, SaleCancelled},
	SaleProcessing: {SaleCompleted, SaleCancelled},
	SaleCompleted:  {SaleRefunded},
}

// CanTransitionTo reports whether the status change is legal.
func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PriceType records which price the shopper was billed at.
type PriceType string

const (
	PriceRegular PriceType = "REGULAR"
	PriceMember  PriceType = "MEMBER"
)

// Sale is the order record created exactly once per successful
// checkout. Line items are immutable once created.
type Sale struct {
	ID                  uuid.UUID   `json:"id" db:"id"`
	TotalAmount         money.Cents `json:"total_amount" db:"total_amount"`
	Currency            string      `json:"currency" db:"currency"`
	PaymentMethod       string      `json:"payment_method" db:"payment_method"`
	SquareTransactionID string      `json:"square_transaction_id" db:"square_transaction_id"`
	ReceiptURL          string      `json:"receipt_url" db:"receipt_url"`
	CustomerEmail       string      `json:"customer_email" db:"customer_email"`
	CustomerName        string      `json:"customer_name" db:"customer_name"`
	Status              SaleStatus  `json:"status" db:"status"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
}

// SaleItem is one order line. UnitPrice is the price captured at
// add-to-cart time, not the catalog price at commit.
type SaleItem struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	SaleID    uuid.UUID   `json:"sale_id" db:"sale_id"`
	BookID    uuid.UUID   `json:"book_id" db:"book_id"`
	Quantity  int         `json:"quantity" db:"quantity"`
	UnitPrice money.Cents `json:"unit_price" db:"unit_price"`
	LineTotal money.Cents `json:"line_total" db:"line_total"`
	PriceType PriceType   `json:"price_type" db:"price_type"`
}

// OrderInput is everything the orchestrator needs to commit an order.
// Payment has already been verified by the caller before this point.
type OrderInput struct {
	Snapshot            *cart.Snapshot
	PaymentMethod       string
	SquareTransactionID string
	ReceiptURL          string
	CustomerEmail       string
	CustomerName        string
}

// OrderResult is the single result shape exposed to callers. Warnings
// accompany successful orders (price drift, dropped lines); Error is
// set only when Success is false.
type OrderResult struct {
	Success  bool      `json:"success"`
	SaleID   uuid.UUID `json:"sale_id,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
	Error    string    `json:"error,omitempty"`
}
