// internal/money/money.go
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in minor units. All summation and
// comparison in the checkout path is integer arithmetic; decimal
// conversion happens only at rate multiplication and display time.
type Cents int64

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a major-unit decimal amount to minor units,
// rounding half away from zero.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(hundred)
}

// String formats the amount in major units with two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Format renders the amount with its currency code, e.g. "25.00 AUD".
func (c Cents) Format(currency string) string {
	return fmt.Sprintf("%s %s", c.Decimal().StringFixed(2), currency)
}
