package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPrepaidSourceAccount holds prepaid expenses awaiting allocation.
const DefaultPrepaidSourceAccount = "242"

// PrepaidItem is a prepaid-expense source item as tracked by the ledger.
type PrepaidItem struct {
	ID                   string
	Name                 string
	ItemType             string
	SourceAccount        string
	Cost                 decimal.Decimal
	LifeMonths           int
	AccumulatedAllocated decimal.Decimal
	RemainingValue       decimal.Decimal
}

// AllocationItem is the per-item amortization computed for one period.
type AllocationItem struct {
	ID               string
	Name             string
	ItemType         string
	SourceAccount    string
	TotalCost        decimal.Decimal
	LifeMonths       int
	MonthlyAmount    decimal.Decimal
	PeriodsAllocated int
	PeriodsRemaining int
	RemainingValue   decimal.Decimal
	ProposedAmount   decimal.Decimal
	AlreadyAllocated bool
	Selected         bool
}

// NewAllocationItem derives the amortization schedule of a prepaid item.
func NewAllocationItem(src PrepaidItem) AllocationItem {
	item := AllocationItem{
		ID:             src.ID,
		Name:           src.Name,
		ItemType:       src.ItemType,
		SourceAccount:  src.SourceAccount,
		TotalCost:      src.Cost,
		LifeMonths:     src.LifeMonths,
		RemainingValue: src.RemainingValue,
		MonthlyAmount:  MonthlyAmount(src.Cost, src.LifeMonths),
	}
	if item.SourceAccount == "" {
		item.SourceAccount = DefaultPrepaidSourceAccount
	}
	if item.RemainingValue.IsNegative() {
		item.RemainingValue = decimal.Zero
	}

	if !item.MonthlyAmount.IsZero() {
		item.PeriodsAllocated = int(src.AccumulatedAllocated.Div(item.MonthlyAmount).Round(0).IntPart())
	}

	item.PeriodsRemaining = max(0, item.LifeMonths-item.PeriodsAllocated)
	item.ProposedAmount = ClampAmount(
		decimal.Min(item.MonthlyAmount, item.RemainingValue),
		decimal.Zero,
		item.RemainingValue,
	)

	return item
}

// MonthlyAmount is round(cost / lifeMonths), zero for a non-positive life.
func MonthlyAmount(cost decimal.Decimal, lifeMonths int) decimal.Decimal {
	if lifeMonths <= 0 {
		return decimal.Zero
	}
	return RoundAmount(cost.Div(decimal.NewFromInt(int64(lifeMonths))))
}

// MarkAllocated flags the item as already allocated for the period and removes it from the selection.
func (i *AllocationItem) MarkAllocated() {
	i.AlreadyAllocated = true
	i.Selected = false
}

// DefaultSelected reports whether the item belongs to the default selection.
func (i *AllocationItem) DefaultSelected() bool {
	return !i.AlreadyAllocated && i.RemainingValue.IsPositive()
}

// SetProposedAmount stores amount clamped to [0, RemainingValue].
func (i *AllocationItem) SetProposedAmount(amount decimal.Decimal) {
	i.ProposedAmount = ClampAmount(RoundAmount(amount), decimal.Zero, i.RemainingValue)
}

// CheckAmount reports whether amount lies within [0, RemainingValue].
func (i *AllocationItem) CheckAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(i.RemainingValue) {
		return NewValidationError("amount", ErrAmountOutOfBounds, fmt.Sprintf(
			"item %s: %s not within [0, %s]", i.ID, FormatAmount(amount), FormatAmount(i.RemainingValue),
		))
	}
	return nil
}

// AllocationRecord is one persisted allocation history row.
type AllocationRecord struct {
	CreatedAt     time.Time
	ID            string
	Period        Period
	ItemID        string
	ItemType      string
	TargetAccount string
	VoucherID     string
	Amount        decimal.Decimal
}

// DuplicateWarning tells the operator an item was already allocated for the period.
type DuplicateWarning struct {
	ItemID string
	Period Period
}

func (w DuplicateWarning) String() string {
	return fmt.Sprintf("item %s already allocated for %s", w.ItemID, w.Period)
}
