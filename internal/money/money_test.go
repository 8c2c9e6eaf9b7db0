package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTaxAUD(t *testing.T) {
	calc := CalculateTax(2500, "AUD")

	assert.True(t, calc.TaxRate.Equal(decimal.NewFromFloat(0.10)))
	assert.Equal(t, Cents(250), calc.TaxAmount)
	assert.Equal(t, Cents(2750), calc.TotalWithTax)
	assert.Equal(t, "GST (10%)", calc.TaxDescription)
}

func TestCalculateTaxUnknownCurrency(t *testing.T) {
	calc := CalculateTax(2500, "USD")

	assert.True(t, calc.TaxRate.IsZero())
	assert.Equal(t, Cents(0), calc.TaxAmount)
	assert.Equal(t, Cents(2500), calc.TotalWithTax)
	assert.Contains(t, calc.TaxDescription, "USD")
}

func TestCalculateTaxRoundsHalfCents(t *testing.T) {
	// 10.05 AUD -> tax 1.005 -> rounds to 1.01
	calc := CalculateTax(1005, "AUD")
	assert.Equal(t, Cents(101), calc.TaxAmount)
	assert.Equal(t, Cents(1106), calc.TotalWithTax)
}

func TestCalculateTaxZeroSubtotal(t *testing.T) {
	calc := CalculateTax(0, "AUD")
	assert.Equal(t, Cents(0), calc.TaxAmount)
	assert.Equal(t, Cents(0), calc.TotalWithTax)
}

func TestCentsFormatting(t *testing.T) {
	assert.Equal(t, "25.00", Cents(2500).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "25.00 AUD", Cents(2500).Format("AUD"))
}

func TestFromDecimal(t *testing.T) {
	assert.Equal(t, Cents(2500), FromDecimal(decimal.NewFromFloat(25.00)))
	assert.Equal(t, Cents(1999), FromDecimal(decimal.NewFromFloat(19.99)))
}
