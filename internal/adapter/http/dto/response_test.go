package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

func TestVoucherFromDomain(t *testing.T) {
	original := "v-0"
	v := &domain.Voucher{
		ID:                "v-1",
		DocNo:             "PB-2025-03",
		Type:              domain.VoucherTypeAllocation,
		Period:            march,
		DocDate:           march.LastDay(),
		PostDate:          march.LastDay(),
		TotalAmount:       decimal.RequireFromString("1200000"),
		ReversesVoucherID: &original,
		Lines: []domain.VoucherLine{
			{DebitAccount: "642", CreditAccount: "242", Amount: decimal.RequireFromString("1200000"), ItemID: "item-1"},
		},
	}

	resp := VoucherFromDomain(v)
	assert.Equal(t, "2025-03", resp.Period)
	assert.Equal(t, "2025-03-31", resp.PostDate)
	assert.Equal(t, "1200000", resp.TotalAmount)
	assert.Equal(t, "v-0", *resp.ReversesVoucherID)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "item-1", resp.Lines[0].ItemID)

	assert.Nil(t, VoucherFromDomain(nil))
}

func TestAllocationPreviewFromUseCase(t *testing.T) {
	p := &usecase.AllocationPreview{
		Period:        march,
		SourceAccount: "242",
		SelectedTotal: decimal.NewFromInt(1_000),
		Items: []domain.AllocationItem{
			{ID: "item-1", MonthlyAmount: decimal.NewFromInt(1_000), Selected: true},
			{ID: "item-2", AlreadyAllocated: true},
		},
		Warnings: []domain.DuplicateWarning{{ItemID: "item-2", Period: march}},
	}

	resp := AllocationPreviewFromUseCase(p, []string{"627", "642"})
	assert.Equal(t, "1000", resp.SelectedTotal)
	assert.Equal(t, []string{"627", "642"}, resp.TargetAccounts)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[1].AlreadyAllocated)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "item item-2 already allocated for 2025-03", resp.Warnings[0].Message)
}

func TestRevaluationPreviewFromUseCase(t *testing.T) {
	foreign := decimal.NewFromInt(10_000)
	p := &usecase.RevaluationPreview{
		Period:   march,
		PostDate: march.LastDay(),
		Currency: "USD",
		NewRate:  decimal.NewFromInt(25_000),
	}
	p.Accounts = []domain.FxAccountBalance{
		{Code: "1122", Class: domain.AccountClassAsset, ForeignAmount: &foreign},
		{Code: "1123", Class: domain.AccountClassAsset, BookValueLocal: decimal.NewFromInt(5)},
	}
	p.MissingCode = []string{"1123"}

	resp := RevaluationPreviewFromUseCase(p)
	require.Len(t, resp.Accounts, 2)
	assert.Equal(t, "10000", *resp.Accounts[0].ForeignAmount)
	assert.Nil(t, resp.Accounts[1].ForeignAmount)
	assert.True(t, resp.PostingDisabled)
	assert.Equal(t, []string{"1123"}, resp.MissingAmounts)
}

func TestClosingPreviewFromUseCase(t *testing.T) {
	p := &usecase.ClosingPreview{PostDate: march.LastDay(), Locked: true}
	p.Period = march
	p.Revenue = []domain.ClosingLine{{Code: "511", Class: domain.AccountClassRevenue, Balance: decimal.NewFromInt(500)}}
	p.Profit = decimal.NewFromInt(500)

	resp := ClosingPreviewFromUseCase(p)
	assert.Equal(t, "2025-03", resp.Period)
	assert.Empty(t, resp.LockedUntil)
	assert.True(t, resp.Locked)
	require.Len(t, resp.Revenue, 1)
	assert.Equal(t, "500", resp.Revenue[0].Balance)
	assert.Empty(t, resp.Expense)
}

func TestDebtPreviewFromUseCase(t *testing.T) {
	p := &usecase.DebtPreview{
		PartnerID: "acme",
		Available: decimal.NewFromInt(150),
		Total:     decimal.NewFromInt(150),
		Lines: []domain.DebtAllocationLine{
			{InvoiceID: "A", InvoiceNumber: "INV-001", InvoiceDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Limit: decimal.NewFromInt(100), AllocatedAmount: decimal.NewFromInt(100)},
		},
	}

	resp := DebtPreviewFromUseCase(p)
	assert.Equal(t, "150", resp.Total)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "2025-01-01", resp.Lines[0].InvoiceDate)
	assert.Equal(t, "100", resp.Lines[0].AllocatedAmount)
}
