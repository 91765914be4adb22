package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClosingAccounts names the equity side of a closing entry.
type ClosingAccounts struct {
	IncomeSummary    string
	RetainedEarnings string
}

// ClosingLine is a revenue or expense balance to be zeroed.
type ClosingLine struct {
	Code    string
	Name    string
	Class   AccountClass
	Balance decimal.Decimal
}

// ClosingResult is the computed closing entry set for one period.
type ClosingResult struct {
	Period       Period
	Revenue      []ClosingLine
	Expense      []ClosingLine
	TotalRevenue decimal.Decimal
	TotalExpense decimal.Decimal
	Profit       decimal.Decimal
	Lines        []VoucherLine
}

// BuildClosing partitions balances into revenue and expense and derives the closing lines.
func BuildClosing(period Period, balances []AccountBalance, accts ClosingAccounts) ClosingResult {
	res := ClosingResult{
		Period:       period,
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	for _, b := range balances {
		switch {
		case b.Class.IsRevenue():
			amount := RoundAmount(b.NetBalance.Abs())
			if amount.IsZero() {
				continue
			}
			res.Revenue = append(res.Revenue, ClosingLine{Code: b.Code, Name: b.Name, Class: b.Class, Balance: amount})
			res.TotalRevenue = res.TotalRevenue.Add(amount)
			res.Lines = append(res.Lines, VoucherLine{
				Description:   fmt.Sprintf("Close revenue %s", b.Code),
				DebitAccount:  b.Code,
				CreditAccount: accts.IncomeSummary,
				Amount:        amount,
			})

		case b.Class.IsExpense():
			amount := RoundAmount(b.NetBalance)
			if amount.IsZero() {
				continue
			}
			res.Expense = append(res.Expense, ClosingLine{Code: b.Code, Name: b.Name, Class: b.Class, Balance: amount})
			res.TotalExpense = res.TotalExpense.Add(amount)

			line := VoucherLine{
				Description:   fmt.Sprintf("Close expense %s", b.Code),
				DebitAccount:  accts.IncomeSummary,
				CreditAccount: b.Code,
				Amount:        amount,
			}
			if amount.IsNegative() {
				// Credit-balance expense is closed in the opposite direction.
				line.DebitAccount, line.CreditAccount = b.Code, accts.IncomeSummary
				line.Amount = amount.Abs()
			}
			res.Lines = append(res.Lines, line)
		}
	}

	res.Profit = res.TotalRevenue.Sub(res.TotalExpense)

	switch {
	case res.Profit.IsPositive():
		res.Lines = append(res.Lines, VoucherLine{
			Description:   "Transfer profit to retained earnings",
			DebitAccount:  accts.IncomeSummary,
			CreditAccount: accts.RetainedEarnings,
			Amount:        res.Profit,
		})
	case res.Profit.IsNegative():
		res.Lines = append(res.Lines, VoucherLine{
			Description:   "Transfer loss to retained earnings",
			DebitAccount:  accts.RetainedEarnings,
			CreditAccount: accts.IncomeSummary,
			Amount:        res.Profit.Abs(),
		})
	}

	return res
}
