package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FxAccounts names the accounts a revaluation posts against.
type FxAccounts struct {
	// Clearing holds unrealized exchange differences until netted.
	Clearing string
	// Gain receives net realized gains (financial income).
	Gain string
	// Loss receives net realized losses (financial expense).
	Loss string
}

// FxAccountBalance is one monetary account restated at a new rate.
type FxAccountBalance struct {
	Code           string
	Name           string
	Class          AccountClass
	ForeignAmount  *decimal.Decimal
	BookValueLocal decimal.Decimal
	BookRate       decimal.Decimal
	RevaluedValue  decimal.Decimal
	Diff           decimal.Decimal
}

// NewFxAccountBalance computes the restatement of bal at newRate.
// foreignAmount is nil when the operator has not entered one yet. Liability
// book values are carried as positive credit balances.
func NewFxAccountBalance(bal AccountBalance, foreignAmount *decimal.Decimal, newRate decimal.Decimal) FxAccountBalance {
	book := bal.NetBalance
	if bal.Class == AccountClassLiability {
		book = book.Neg()
	}

	fx := FxAccountBalance{
		Code:           bal.Code,
		Name:           bal.Name,
		Class:          bal.Class,
		ForeignAmount:  foreignAmount,
		BookValueLocal: RoundAmount(book),
	}

	if foreignAmount == nil {
		return fx
	}

	if !foreignAmount.IsZero() {
		fx.BookRate = fx.BookValueLocal.Div(*foreignAmount)
	}
	fx.RevaluedValue = RoundAmount(foreignAmount.Mul(newRate))
	fx.Diff = fx.RevaluedValue.Sub(fx.BookValueLocal)

	return fx
}

// MissingForeignAmount reports whether the account blocks posting for lack of a face amount.
func (f FxAccountBalance) MissingForeignAmount() bool {
	return f.ForeignAmount == nil && !f.BookValueLocal.IsZero()
}

// IsGain reports whether the restatement is a gain for the entity.
// A liability whose local value rises is a loss.
func (f FxAccountBalance) IsGain() bool {
	if f.Class == AccountClassLiability {
		return f.Diff.IsNegative()
	}
	return f.Diff.IsPositive()
}

// AdjustmentLine returns the per-account line routed by account class, or false when Diff is zero.
func (f FxAccountBalance) AdjustmentLine(accts FxAccounts) (VoucherLine, bool) {
	if f.Diff.IsZero() {
		return VoucherLine{}, false
	}

	line := VoucherLine{
		Description: fmt.Sprintf("FX revaluation %s", f.Code),
		Amount:      f.Diff.Abs(),
	}

	// Asset up or liability down: the account is debited.
	increaseDebits := f.Diff.IsPositive()
	if f.Class == AccountClassLiability {
		increaseDebits = !increaseDebits
	}

	if increaseDebits {
		line.DebitAccount = f.Code
		line.CreditAccount = accts.Clearing
	} else {
		line.DebitAccount = accts.Clearing
		line.CreditAccount = f.Code
	}

	return line, true
}

// RevaluationResult is the computed revaluation voucher content.
type RevaluationResult struct {
	Accounts    []FxAccountBalance
	Lines       []VoucherLine
	TotalGain   decimal.Decimal
	TotalLoss   decimal.Decimal
	AbsDiffSum  decimal.Decimal
	MissingCode []string
}

// BuildRevaluation assembles adjustment and netting lines for the given restatements.
func BuildRevaluation(accounts []FxAccountBalance, accts FxAccounts) RevaluationResult {
	res := RevaluationResult{
		Accounts:   accounts,
		TotalGain:  decimal.Zero,
		TotalLoss:  decimal.Zero,
		AbsDiffSum: decimal.Zero,
	}

	for _, a := range accounts {
		if a.MissingForeignAmount() {
			res.MissingCode = append(res.MissingCode, a.Code)
		}

		line, ok := a.AdjustmentLine(accts)
		if !ok {
			continue
		}

		res.Lines = append(res.Lines, line)
		res.AbsDiffSum = res.AbsDiffSum.Add(line.Amount)
		if a.IsGain() {
			res.TotalGain = res.TotalGain.Add(line.Amount)
		} else {
			res.TotalLoss = res.TotalLoss.Add(line.Amount)
		}
	}

	if res.TotalGain.IsPositive() {
		res.Lines = append(res.Lines, VoucherLine{
			Description:   "Net unrealized FX gain to financial income",
			DebitAccount:  accts.Clearing,
			CreditAccount: accts.Gain,
			Amount:        res.TotalGain,
		})
	}
	if res.TotalLoss.IsPositive() {
		res.Lines = append(res.Lines, VoucherLine{
			Description:   "Net unrealized FX loss to financial expense",
			DebitAccount:  accts.Loss,
			CreditAccount: accts.Clearing,
			Amount:        res.TotalLoss,
		})
	}

	return res
}
