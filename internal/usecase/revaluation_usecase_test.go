package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

func seedForeignAccounts(f *fixture) {
	f.ledger.AddAccount(domain.ChartAccount{Code: "1122", Name: "USD deposits", Class: domain.AccountClassAsset, Currency: "USD"}, dec(240_000_000))
	f.ledger.AddAccount(domain.ChartAccount{Code: "3311", Name: "USD payables", Class: domain.AccountClassLiability, Currency: "USD"}, dec(-120_000_000))
	f.ledger.AddAccount(domain.ChartAccount{Code: "1121", Name: "VND deposits", Class: domain.AccountClassAsset, Currency: "VND"}, dec(5_000_000))
	f.ledger.AddAccount(domain.ChartAccount{Code: "5111", Name: "Sales", Class: domain.AccountClassRevenue, Currency: "USD"}, dec(-1_000))
}

func revaluationInput(rate int64) usecase.RevaluationInput {
	return usecase.RevaluationInput{
		Period:   march,
		Currency: "usd",
		NewRate:  dec(rate),
		ForeignAmounts: map[string]decimal.Decimal{
			"1122": dec(10_000),
			"3311": dec(5_000),
		},
	}
}

func TestRevaluationUseCase_Preview(t *testing.T) {
	f := newFixture(t, date(2025, 1, 31))
	seedForeignAccounts(f)

	preview, err := f.revaluation.Preview(context.Background(), revaluationInput(25_000))
	require.NoError(t, err)

	assert.Equal(t, "USD", preview.Currency)
	assert.Equal(t, date(2025, 3, 31), preview.PostDate)
	require.Len(t, preview.Accounts, 2, "only USD monetary accounts are in scope")
	assert.Empty(t, preview.MissingCode)
	assert.True(t, preview.TotalGain.Equal(dec(10_000_000)), "gain %s", preview.TotalGain)
	assert.True(t, preview.TotalLoss.Equal(dec(5_000_000)), "loss %s", preview.TotalLoss)
	assert.Len(t, preview.Lines, 4)
}

func TestRevaluationUseCase_Execute(t *testing.T) {
	f := newFixture(t, date(2025, 1, 31))
	seedForeignAccounts(f)
	ctx := context.Background()

	res, err := f.revaluation.Execute(ctx, revaluationInput(25_000))
	require.NoError(t, err)

	v := res.Voucher
	assert.Equal(t, domain.VoucherTypeRevaluation, v.Type)
	assert.Equal(t, "DGL-2025-03", v.DocNo)
	assert.Equal(t, date(2025, 3, 31), v.PostDate)
	assert.True(t, v.TotalAmount.Equal(dec(30_000_000)))
	assert.True(t, v.NetMovement("4131").IsZero())
	assert.True(t, v.NetMovement("515").Equal(dec(-10_000_000)))
	assert.True(t, v.NetMovement("635").Equal(dec(5_000_000)))

	balances, err := f.snapshot.Snapshot(ctx, date(2025, 3, 31))
	require.NoError(t, err)
	for _, b := range balances {
		switch b.Code {
		case "1122":
			assert.True(t, b.NetBalance.Equal(dec(250_000_000)))
		case "3311":
			assert.True(t, b.NetBalance.Equal(dec(-125_000_000)))
		}
	}
}

func TestRevaluationUseCase_Execute_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*usecase.RevaluationInput)
		wantErr error
	}{
		{
			name:    "missing foreign amount",
			mutate:  func(in *usecase.RevaluationInput) { delete(in.ForeignAmounts, "3311") },
			wantErr: domain.ErrMissingForeignAmount,
		},
		{
			name:    "nothing changes at book rate",
			mutate:  func(in *usecase.RevaluationInput) { in.NewRate = dec(24_000) },
			wantErr: domain.ErrNothingToPost,
		},
		{
			name:    "zero rate",
			mutate:  func(in *usecase.RevaluationInput) { in.NewRate = dec(0) },
			wantErr: domain.ErrInvalidRate,
		},
		{
			name:    "no currency or codes",
			mutate:  func(in *usecase.RevaluationInput) { in.Currency = " " },
			wantErr: domain.ErrCurrencyRequired,
		},
		{
			name:    "non-monetary account code",
			mutate:  func(in *usecase.RevaluationInput) { in.AccountCodes = []string{"5111"} },
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "unknown account code",
			mutate:  func(in *usecase.RevaluationInput) { in.AccountCodes = []string{"9999"} },
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "no period or post date",
			mutate:  func(in *usecase.RevaluationInput) { in.Period = domain.Period{} },
			wantErr: domain.ErrInvalidPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, date(2025, 1, 31))
			seedForeignAccounts(f)

			input := revaluationInput(25_000)
			tt.mutate(&input)

			_, err := f.revaluation.Execute(context.Background(), input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, domain.IsValidation(err))
			assert.Empty(t, f.ledger.Vouchers())
		})
	}
}

func TestRevaluationUseCase_Execute_ExplicitScope(t *testing.T) {
	f := newFixture(t, date(2025, 1, 31))
	seedForeignAccounts(f)

	input := revaluationInput(25_000)
	input.Currency = ""
	input.AccountCodes = []string{"1122"}

	res, err := f.revaluation.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, res.Preview.TotalLoss.IsZero())
	assert.True(t, res.Voucher.TotalAmount.Equal(dec(20_000_000)))
}

func TestRevaluationUseCase_Execute_Locked(t *testing.T) {
	f := newFixture(t, date(2025, 3, 31))
	seedForeignAccounts(f)

	_, err := f.revaluation.Execute(context.Background(), revaluationInput(25_000))
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)
	assert.Zero(t, f.ledger.Calls())
}

func TestRevaluationUseCase_Execute_PostDateOutsidePeriod(t *testing.T) {
	f := newFixture(t, date(2025, 3, 31))
	seedForeignAccounts(f)

	input := revaluationInput(25_000)
	input.PostDate = date(2025, 5, 1)

	_, err := f.revaluation.Execute(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, f.ledger.Calls())
	assert.Empty(t, f.ledger.Vouchers())
}
