// Package money provides the rounding and rendering rules for ledger amounts.
// Canonical values are shopspring decimals kept at two decimal places; display
// strings go through go-money so currency graphemes and grouping stay correct.
package money

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	EUR = "EUR" // Euro
	USD = "USD" // US Dollar
	GBP = "GBP" // British Pound
	BRL = "BRL" // Brazilian Real
	CHF = "CHF" // Swiss Franc
)

// Places is the number of decimal places every stored amount carries.
const Places = 2

// Round rounds to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Sum adds all values and rounds the result.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round(total)
}

// Format renders an amount with exactly two decimals ("1300.00", "-45.50").
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(Places)
}

// Parse reads a value produced by Format. Empty input is an error.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	return Round(d), nil
}

// Money is an amount paired with its currency, used for human-facing output.
type Money struct {
	m *money.Money
}

// FromDecimal converts a decimal amount into minor units of currencyCode.
// Unknown currency codes fall back to EUR.
func FromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currencyCode = EUR
		currency = money.GetCurrency(EUR)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()
	return &Money{m: money.New(minor, currencyCode)}
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// Display returns a formatted string for display (e.g., "€1,234.56")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.m.Display()
}

// Display is shorthand for FromDecimal(amount, currencyCode).Display().
func Display(amount decimal.Decimal, currencyCode string) string {
	return FromDecimal(amount, currencyCode).Display()
}
