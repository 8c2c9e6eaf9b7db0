// internal/catalog/domain.go
package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"bookhaven/internal/money"
)

var ErrBookNotFound = errors.New("book not found")

// Book is the catalog read/write model the checkout core touches. The
// UpdatedAt timestamp doubles as the optimistic-concurrency version
// token: every write to the row bumps it.
type Book struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	ISBN          string      `json:"isbn" db:"isbn"`
	Title         string      `json:"title" db:"title"`
	Author        string      `json:"author" db:"author"`
	SellPrice     money.Cents `json:"sell_price" db:"sell_price"`
	MemberPrice   money.Cents `json:"member_price" db:"member_price"`
	StockQuantity int         `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// InStock reports whether the book can cover the requested quantity.
func (b *Book) InStock(quantity int) bool {
	return b.StockQuantity >= quantity
}
