package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the symbol printed before every amount
const DefaultCurrency = "R$"

// LineTotal multiplies quantity by unit price and rounds half-up to cents.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// FormatAmount renders an amount with two decimals and a comma separator.
// Thousands are not grouped.
func FormatAmount(amount decimal.Decimal) string {
	return strings.Replace(amount.Round(2).StringFixed(2), ".", ",", 1)
}

// FormatMoney prefixes a formatted amount with a currency symbol.
func FormatMoney(currency string, amount decimal.Decimal) string {
	if currency == "" {
		return FormatAmount(amount)
	}
	return currency + " " + FormatAmount(amount)
}
