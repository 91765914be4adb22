package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is an outstanding partner invoice.
type Invoice struct {
	InvoiceDate time.Time
	ID          string
	PartnerID   string
	Number      string
	Total       decimal.Decimal
	Paid        decimal.Decimal
}

// Remaining is the unpaid part of the invoice.
func (i *Invoice) Remaining() decimal.Decimal {
	r := i.Total.Sub(i.Paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Payment is a partner payment that can be matched against invoices.
type Payment struct {
	PaymentDate time.Time
	ID          string
	PartnerID   string
	Amount      decimal.Decimal
	Allocated   decimal.Decimal
}

// Unallocated is the part of the payment not yet matched to invoices.
func (p *Payment) Unallocated() decimal.Decimal {
	u := p.Amount.Sub(p.Allocated)
	if u.IsNegative() {
		return decimal.Zero
	}
	return u
}

// DebtAllocation is a persisted payment-to-invoice match.
type DebtAllocation struct {
	InvoiceDate   time.Time
	PaymentID     string
	InvoiceID     string
	InvoiceNumber string
	Amount        decimal.Decimal
}

// DebtAllocationLine is one (invoice, amount) pair of an allocation or reversal.
// Limit is the invoice remaining amount for allocation, or the previously
// allocated amount for reversal.
type DebtAllocationLine struct {
	InvoiceDate     time.Time
	InvoiceID       string
	InvoiceNumber   string
	Limit           decimal.Decimal
	AllocatedAmount decimal.Decimal
}

// CheckBounds validates AllocatedAmount against [0, Limit].
func (l DebtAllocationLine) CheckBounds() error {
	if l.AllocatedAmount.IsNegative() || l.AllocatedAmount.GreaterThan(l.Limit) {
		return NewValidationError("amount", ErrAmountOutOfBounds, fmt.Sprintf(
			"invoice %s: %s not within [0, %s]", l.InvoiceID, FormatAmount(l.AllocatedAmount), FormatAmount(l.Limit),
		))
	}
	return nil
}

// SortInvoicesFIFO orders invoices oldest first; ties break on number then ID.
func SortInvoicesFIFO(invoices []*Invoice) {
	sort.SliceStable(invoices, func(a, b int) bool {
		ia, ib := invoices[a], invoices[b]
		if !ia.InvoiceDate.Equal(ib.InvoiceDate) {
			return ia.InvoiceDate.Before(ib.InvoiceDate)
		}
		if ia.Number != ib.Number {
			return ia.Number < ib.Number
		}
		return ia.ID < ib.ID
	})
}

// SuggestFIFO consumes invoices oldest-first until amount is exhausted.
// Invoices must already be sorted; every invoice gets a line, untouched ones with zero.
func SuggestFIFO(amount decimal.Decimal, invoices []*Invoice) []DebtAllocationLine {
	remaining := amount
	lines := make([]DebtAllocationLine, 0, len(invoices))

	for _, inv := range invoices {
		take := decimal.Zero
		if remaining.IsPositive() {
			take = decimal.Min(remaining, inv.Remaining())
			remaining = remaining.Sub(take)
		}

		lines = append(lines, DebtAllocationLine{
			InvoiceDate:     inv.InvoiceDate,
			InvoiceID:       inv.ID,
			InvoiceNumber:   inv.Number,
			Limit:           inv.Remaining(),
			AllocatedAmount: take,
		})
	}

	return lines
}

// TotalAllocated sums the allocated amounts of lines.
func TotalAllocated(lines []DebtAllocationLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.AllocatedAmount)
	}
	return total
}
