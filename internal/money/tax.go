// internal/money/tax.go
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxCalculation is the result of applying a currency's tax rate to a
// subtotal. It has no identity and is never persisted.
type TaxCalculation struct {
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      Cents           `json:"tax_amount"`
	TotalWithTax   Cents           `json:"total_with_tax"`
	TaxDescription string          `json:"tax_description"`
}

type taxRule struct {
	rate        decimal.Decimal
	description string
}

// Flat-rate table keyed by ISO currency code. Currencies without an
// entry are untaxed.
var taxRules = map[string]taxRule{
	"AUD": {rate: decimal.NewFromFloat(0.10), description: "GST (10%)"},
}

// CalculateTax applies the flat tax rate for the given currency to a
// subtotal in minor units. Deterministic, no side effects, no I/O.
func CalculateTax(subtotal Cents, currency string) TaxCalculation {
	rule, ok := taxRules[currency]
	if !ok {
		return TaxCalculation{
			TaxRate:        decimal.Zero,
			TaxAmount:      0,
			TotalWithTax:   subtotal,
			TaxDescription: fmt.Sprintf("No tax (%s)", currency),
		}
	}

	tax := Cents(decimal.NewFromInt(int64(subtotal)).Mul(rule.rate).Round(0).IntPart())
	return TaxCalculation{
		TaxRate:        rule.rate,
		TaxAmount:      tax,
		TotalWithTax:   subtotal + tax,
		TaxDescription: rule.description,
	}
}
