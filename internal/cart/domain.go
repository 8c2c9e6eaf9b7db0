// internal/cart/domain.go
package cart

import (
	"time"

	"github.com/google/uuid"

	"bookhaven/internal/money"
)

// TTL is how long a cart snapshot remains valid after creation.
const TTL = 7 * 24 * time.Hour

// defaultCurrency is the storefront's billing currency.
const defaultCurrency = "AUD"

// Line is a single cart entry carrying the price captured when the
// shopper added the book. Billing at checkout always uses PriceAtAdd,
// not the live catalog price.
type Line struct {
	BookID        uuid.UUID   `json:"book_id"`
	Quantity      int         `json:"quantity"`
	PriceAtAdd    money.Cents `json:"price_at_add"`
	IsMemberPrice bool        `json:"is_member_price"`
}

// LineTotal is PriceAtAdd multiplied by quantity.
func (l Line) LineTotal() money.Cents {
	return l.PriceAtAdd * money.Cents(l.Quantity)
}

// Snapshot is a shopper's in-progress selection. It lives in a signed
// client cookie, not a database row, and expires TTL after creation.
type Snapshot struct {
	Items     []Line    `json:"items"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates an empty snapshot expiring TTL from now.
func New(currency string, now time.Time) *Snapshot {
	return &Snapshot{
		Currency:  currency,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
}

// Expired reports whether the snapshot's TTL has elapsed. A snapshot
// whose ExpiresAt equals now is still valid.
func (s *Snapshot) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Empty reports whether the snapshot has no items.
func (s *Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// Subtotal is the sum of all line totals in minor units.
func (s *Snapshot) Subtotal() money.Cents {
	var total money.Cents
	for _, l := range s.Items {
		total += l.LineTotal()
	}
	return total
}

// Add appends a line, or merges quantity into an existing line for the
// same book and price kind. Insertion order is display order.
func (s *Snapshot) Add(bookID uuid.UUID, quantity int, price money.Cents, memberPrice bool) {
	for i := range s.Items {
		if s.Items[i].BookID == bookID && s.Items[i].IsMemberPrice == memberPrice {
			s.Items[i].Quantity += quantity
			return
		}
	}
	s.Items = append(s.Items, Line{
		BookID:        bookID,
		Quantity:      quantity,
		PriceAtAdd:    price,
		IsMemberPrice: memberPrice,
	})
}

// UpdateQuantity sets the quantity for a book's line. A quantity of
// zero removes the line.
func (s *Snapshot) UpdateQuantity(bookID uuid.UUID, quantity int) {
	if quantity <= 0 {
		s.Remove(bookID)
		return
	}
	for i := range s.Items {
		if s.Items[i].BookID == bookID {
			s.Items[i].Quantity = quantity
			return
		}
	}
}

// Remove drops all lines for a book.
func (s *Snapshot) Remove(bookID uuid.UUID) {
	kept := s.Items[:0]
	for _, l := range s.Items {
		if l.BookID != bookID {
			kept = append(kept, l)
		}
	}
	s.Items = kept
}
