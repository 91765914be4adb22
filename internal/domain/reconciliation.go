package domain

import "github.com/shopspring/decimal"

// AllocationCheck compares one allocation voucher with the history rows it wrote.
type AllocationCheck struct {
	VoucherID    string
	DocNo        string
	VoucherTotal decimal.Decimal
	Recorded     decimal.Decimal
	Reversed     bool
}

// Expected is the history total the voucher should own: its full amount
// while live, nothing once reversed.
func (c AllocationCheck) Expected() decimal.Decimal {
	if c.Reversed {
		return decimal.Zero
	}
	return c.VoucherTotal
}

// Difference is recorded minus expected.
func (c AllocationCheck) Difference() decimal.Decimal {
	return c.Recorded.Sub(c.Expected())
}

func (c AllocationCheck) Consistent() bool {
	return c.Difference().IsZero()
}
