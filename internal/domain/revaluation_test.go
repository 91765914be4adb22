package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFxAccounts = FxAccounts{Clearing: "4131", Gain: "515", Loss: "635"}

func amountPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestNewFxAccountBalance(t *testing.T) {
	bal := AccountBalance{Code: "1122", Class: AccountClassAsset, NetBalance: decimal.NewFromInt(24_000_000)}
	fx := NewFxAccountBalance(bal, amountPtr(1_000), decimal.NewFromInt(25_000))

	assert.True(t, fx.BookRate.Equal(decimal.NewFromInt(24_000)), "book rate %s", fx.BookRate)
	assert.True(t, fx.RevaluedValue.Equal(decimal.NewFromInt(25_000_000)))
	assert.True(t, fx.Diff.Equal(decimal.NewFromInt(1_000_000)))
	assert.False(t, fx.MissingForeignAmount())
}

func TestFxAccountBalance_MissingForeignAmount(t *testing.T) {
	withBalance := NewFxAccountBalance(AccountBalance{Code: "1122", NetBalance: decimal.NewFromInt(10)}, nil, decimal.NewFromInt(1))
	assert.True(t, withBalance.MissingForeignAmount())

	empty := NewFxAccountBalance(AccountBalance{Code: "1122"}, nil, decimal.NewFromInt(1))
	assert.False(t, empty.MissingForeignAmount())
}

func TestFxAccountBalance_SignRouting(t *testing.T) {
	tests := []struct {
		name       string
		class      AccountClass
		diff       int64
		wantDebit  string
		wantCredit string
		wantGain   bool
	}{
		{"asset gain", AccountClassAsset, 500, "1122", "4131", true},
		{"asset loss", AccountClassAsset, -500, "4131", "1122", false},
		{"liability increase is loss", AccountClassLiability, 500, "4131", "1122", false},
		{"liability decrease is gain", AccountClassLiability, -500, "1122", "4131", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := FxAccountBalance{Code: "1122", Class: tt.class, Diff: decimal.NewFromInt(tt.diff)}

			line, ok := fx.AdjustmentLine(testFxAccounts)
			require.True(t, ok)
			assert.Equal(t, tt.wantDebit, line.DebitAccount)
			assert.Equal(t, tt.wantCredit, line.CreditAccount)
			assert.True(t, line.Amount.Equal(decimal.NewFromInt(500)))
			assert.Equal(t, tt.wantGain, fx.IsGain())
		})
	}
}

func TestFxAccountBalance_ZeroDiffHasNoLine(t *testing.T) {
	_, ok := FxAccountBalance{Code: "1122", Class: AccountClassAsset}.AdjustmentLine(testFxAccounts)
	assert.False(t, ok)
}

func TestBuildRevaluation_NetsClearingAccount(t *testing.T) {
	rate := decimal.NewFromInt(25_000)
	accounts := []FxAccountBalance{
		NewFxAccountBalance(AccountBalance{Code: "1122", Class: AccountClassAsset, NetBalance: decimal.NewFromInt(24_000_000)}, amountPtr(1_000), rate),
		NewFxAccountBalance(AccountBalance{Code: "131", Class: AccountClassAsset, NetBalance: decimal.NewFromInt(52_000_000)}, amountPtr(2_000), rate),
		NewFxAccountBalance(AccountBalance{Code: "331", Class: AccountClassLiability, NetBalance: decimal.NewFromInt(-48_000_000)}, amountPtr(2_000), rate),
		NewFxAccountBalance(AccountBalance{Code: "1112", Class: AccountClassAsset, NetBalance: decimal.NewFromInt(5_000_000)}, amountPtr(200), rate),
	}

	res := BuildRevaluation(accounts, testFxAccounts)

	// 1122 gains 1,000,000; 131 loses 2,000,000; the 331 payable grows by 2,000,000, a loss; 1112 is unchanged.
	assert.True(t, res.TotalGain.Equal(decimal.NewFromInt(1_000_000)), "gain %s", res.TotalGain)
	assert.True(t, res.TotalLoss.Equal(decimal.NewFromInt(4_000_000)), "loss %s", res.TotalLoss)
	assert.True(t, res.AbsDiffSum.Equal(decimal.NewFromInt(5_000_000)))
	assert.Len(t, res.Lines, 5)
	assert.Empty(t, res.MissingCode)

	v := &Voucher{Lines: res.Lines, TotalAmount: SumLines(res.Lines)}
	require.NoError(t, v.Validate())

	assert.True(t, v.NetMovement("4131").IsZero(), "clearing must net to zero, got %s", v.NetMovement("4131"))
	assert.True(t, v.NetMovement("515").Equal(decimal.NewFromInt(-1_000_000)))
	assert.True(t, v.NetMovement("635").Equal(decimal.NewFromInt(4_000_000)))

	debits, credits := v.AccountTotals()
	assert.True(t, sumMap(debits).Equal(sumMap(credits)))
}

func TestBuildRevaluation_ReportsMissingAmounts(t *testing.T) {
	accounts := []FxAccountBalance{
		NewFxAccountBalance(AccountBalance{Code: "1122", Class: AccountClassAsset, NetBalance: decimal.NewFromInt(10)}, nil, decimal.NewFromInt(2)),
	}

	res := BuildRevaluation(accounts, testFxAccounts)
	assert.Equal(t, []string{"1122"}, res.MissingCode)
	assert.Empty(t, res.Lines)
}

func sumMap(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}
