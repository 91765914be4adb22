package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// RoundAmount rounds a monetary value to whole units of the local currency.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// FormatAmount renders an amount as a grouped integer, e.g. 1,200,000.
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%d", RoundAmount(d).IntPart())
}

// ClampAmount bounds d to [lo, hi].
func ClampAmount(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// SumAmounts adds up a list of amounts.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
