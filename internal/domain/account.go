package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountClass classifies a chart-of-accounts entry.
type AccountClass string

const (
	AccountClassAsset         AccountClass = "ASSET"
	AccountClassLiability     AccountClass = "LIABILITY"
	AccountClassEquity        AccountClass = "EQUITY"
	AccountClassRevenue       AccountClass = "REVENUE"
	AccountClassExpense       AccountClass = "EXPENSE"
	AccountClassOtherIncome   AccountClass = "OTHER_INCOME"
	AccountClassOtherExpense  AccountClass = "OTHER_EXPENSE"
	AccountClassIncomeSummary AccountClass = "INCOME_SUMMARY"
	AccountClassUnknown       AccountClass = "UNKNOWN"
)

// ClassForCode derives the default class from the leading digit of a chart code.
// Only used when seeding a chart; engines read the class stored on the account.
func ClassForCode(code string) AccountClass {
	code = strings.TrimSpace(code)
	if code == "" {
		return AccountClassUnknown
	}

	switch code[0] {
	case '1', '2':
		return AccountClassAsset
	case '3':
		return AccountClassLiability
	case '4':
		return AccountClassEquity
	case '5':
		return AccountClassRevenue
	case '6':
		return AccountClassExpense
	case '7':
		return AccountClassOtherIncome
	case '8':
		return AccountClassOtherExpense
	case '9':
		return AccountClassIncomeSummary
	default:
		return AccountClassUnknown
	}
}

// IsRevenue reports whether balances of this class are closed as revenue.
func (c AccountClass) IsRevenue() bool {
	return c == AccountClassRevenue || c == AccountClassOtherIncome
}

// IsExpense reports whether balances of this class are closed as expense.
func (c AccountClass) IsExpense() bool {
	return c == AccountClassExpense || c == AccountClassOtherExpense
}

// Valid reports whether c is a known class.
func (c AccountClass) Valid() bool {
	switch c {
	case AccountClassAsset, AccountClassLiability, AccountClassEquity,
		AccountClassRevenue, AccountClassExpense, AccountClassOtherIncome,
		AccountClassOtherExpense, AccountClassIncomeSummary:
		return true
	}
	return false
}

// ChartAccount is an entry of the chart of accounts.
type ChartAccount struct {
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Class    AccountClass `json:"class"`
	Currency string       `json:"currency,omitempty"`
}

// AccountBalance is a read-only balance snapshot of one account.
// NetBalance is debits minus credits.
type AccountBalance struct {
	Code       string
	Name       string
	Class      AccountClass
	Currency   string
	NetBalance decimal.Decimal
}
