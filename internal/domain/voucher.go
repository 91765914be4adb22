package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VoucherType identifies the workflow that produced a voucher.
type VoucherType string

const (
	VoucherTypeAllocation   VoucherType = "ALLOCATION"
	VoucherTypeRevaluation  VoucherType = "REVALUATION"
	VoucherTypeClosing      VoucherType = "CLOSING"
	VoucherTypeReallocation VoucherType = "REALLOCATION"
)

var docNoPrefixes = map[VoucherType]string{
	VoucherTypeAllocation:   "PB",
	VoucherTypeRevaluation:  "DGL",
	VoucherTypeClosing:      "KC",
	VoucherTypeReallocation: "PBL",
}

// DocNoPrefix returns the document number prefix for t.
func (t VoucherType) DocNoPrefix() string {
	if p, ok := docNoPrefixes[t]; ok {
		return p
	}
	return "CT"
}

// Valid reports whether t is a known voucher type.
func (t VoucherType) Valid() bool {
	_, ok := docNoPrefixes[t]
	return ok
}

// DocNo builds the document number <PREFIX>-<period>.
func DocNo(t VoucherType, p Period) string {
	return fmt.Sprintf("%s-%s", t.DocNoPrefix(), p)
}

// VoucherLine is a single debit/credit pair.
type VoucherLine struct {
	ID            string
	Description   string
	DebitAccount  string
	CreditAccount string
	Amount        decimal.Decimal
	// ItemID links an allocation line back to its source item.
	ItemID string
}

// Validate checks a single line.
func (l VoucherLine) Validate() error {
	if !l.Amount.IsPositive() {
		return ErrInvalidLineAmount
	}
	if l.DebitAccount == l.CreditAccount {
		return ErrSameAccount
	}
	return nil
}

// Voucher is one balanced accounting transaction.
type Voucher struct {
	CreatedAt         time.Time
	DocDate           time.Time
	PostDate          time.Time
	Period            Period
	ReversesVoucherID *string
	ReversedAt        *time.Time
	ID                string
	DocNo             string
	Description       string
	Type              VoucherType
	TotalAmount       decimal.Decimal
	Lines             []VoucherLine
}

// LinesTotal sums the line amounts.
func (v *Voucher) LinesTotal() decimal.Decimal {
	return SumLines(v.Lines)
}

// Validate checks the voucher line set and its total.
func (v *Voucher) Validate() error {
	if len(v.Lines) == 0 {
		return ErrEmptyVoucher
	}

	for i, l := range v.Lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	if !v.LinesTotal().Equal(v.TotalAmount) {
		return ErrUnbalancedVoucher
	}

	return nil
}

// AccountTotals returns per-account debit and credit totals.
func (v *Voucher) AccountTotals() (debits, credits map[string]decimal.Decimal) {
	debits = make(map[string]decimal.Decimal)
	credits = make(map[string]decimal.Decimal)
	for _, l := range v.Lines {
		debits[l.DebitAccount] = debits[l.DebitAccount].Add(l.Amount)
		credits[l.CreditAccount] = credits[l.CreditAccount].Add(l.Amount)
	}
	return debits, credits
}

// NetMovement returns debits minus credits posted to account by this voucher.
func (v *Voucher) NetMovement(account string) decimal.Decimal {
	debits, credits := v.AccountTotals()
	return debits[account].Sub(credits[account])
}

// Reversal returns the swapped line set of v.
func (v *Voucher) Reversal() []VoucherLine {
	lines := make([]VoucherLine, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = VoucherLine{
			Description:   l.Description,
			DebitAccount:  l.CreditAccount,
			CreditAccount: l.DebitAccount,
			Amount:        l.Amount,
			ItemID:        l.ItemID,
		}
	}
	return lines
}

// IsReversed reports whether a reversing voucher has been posted for v.
func (v *Voucher) IsReversed() bool {
	return v.ReversedAt != nil
}

// SumLines adds up the amounts of lines.
func SumLines(lines []VoucherLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
