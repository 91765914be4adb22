package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

func seedIncomeStatement(f *fixture) {
	f.ledger.AddAccount(account("1111", domain.AccountClassAsset), dec(-200_000))
	f.ledger.AddAccount(account("511", domain.AccountClassRevenue), dec(-500_000))
	f.ledger.AddAccount(account("642", domain.AccountClassExpense), dec(300_000))
	f.ledger.AddAccount(account("911", domain.AccountClassIncomeSummary), dec(0))
	f.ledger.AddAccount(account("4212", domain.AccountClassEquity), dec(0))
}

func TestClosingUseCase_Preview(t *testing.T) {
	f := newFixture(t, date(2025, 3, 31))
	seedIncomeStatement(f)

	preview, err := f.closing.Preview(context.Background(), march)
	require.NoError(t, err)

	assert.True(t, preview.TotalRevenue.Equal(dec(500_000)))
	assert.True(t, preview.TotalExpense.Equal(dec(300_000)))
	assert.True(t, preview.Profit.Equal(dec(200_000)))
	assert.True(t, preview.Locked, "preview still works for a locked period")
	assert.Equal(t, date(2025, 3, 31), preview.PostDate)

	require.Len(t, preview.Lines, 3)
	final := preview.Lines[2]
	assert.Equal(t, "911", final.DebitAccount)
	assert.Equal(t, "4212", final.CreditAccount)
	assert.True(t, final.Amount.Equal(dec(200_000)))
}

func TestClosingUseCase_Execute(t *testing.T) {
	f := newFixture(t, date(2025, 2, 28))
	seedIncomeStatement(f)
	ctx := context.Background()

	res, err := f.closing.Execute(ctx, usecase.ClosingExecuteInput{Period: march})
	require.NoError(t, err)

	assert.Equal(t, "KC-2025-03", res.Voucher.DocNo)
	assert.Equal(t, domain.VoucherTypeClosing, res.Voucher.Type)
	assert.Equal(t, date(2025, 3, 31), res.Voucher.PostDate)

	balances, err := f.snapshot.Snapshot(ctx, date(2025, 3, 31))
	require.NoError(t, err)
	for _, b := range balances {
		switch b.Code {
		case "511", "642", "911":
			assert.True(t, b.NetBalance.IsZero(), "%s should be closed, got %s", b.Code, b.NetBalance)
		case "4212":
			assert.True(t, b.NetBalance.Equal(dec(-200_000)))
		}
	}

	_, err = f.closing.Execute(ctx, usecase.ClosingExecuteInput{Period: march})
	assert.ErrorIs(t, err, domain.ErrNothingToPost, "a closed period has nothing left to close")
}

func TestClosingUseCase_Execute_Rejections(t *testing.T) {
	t.Run("locked", func(t *testing.T) {
		f := newFixture(t, date(2025, 3, 31))
		seedIncomeStatement(f)

		_, err := f.closing.Execute(context.Background(), usecase.ClosingExecuteInput{Period: march})
		assert.ErrorIs(t, err, domain.ErrPeriodLocked)
		assert.Zero(t, f.ledger.Calls())
	})

	t.Run("missing period", func(t *testing.T) {
		f := newFixture(t, date(2025, 1, 31))

		_, err := f.closing.Execute(context.Background(), usecase.ClosingExecuteInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	})

	t.Run("no income statement balances", func(t *testing.T) {
		f := newFixture(t, date(2025, 1, 31))
		f.ledger.AddAccount(account("1111", domain.AccountClassAsset), dec(1_000))

		_, err := f.closing.Execute(context.Background(), usecase.ClosingExecuteInput{Period: march})
		assert.ErrorIs(t, err, domain.ErrNothingToPost)
		assert.Empty(t, f.ledger.Vouchers())
	})
}
