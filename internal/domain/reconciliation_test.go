package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAllocationCheck(t *testing.T) {
	tests := []struct {
		name       string
		check      AllocationCheck
		consistent bool
		diff       int64
	}{
		{
			name:       "live voucher fully recorded",
			check:      AllocationCheck{VoucherTotal: decimal.NewFromInt(150_000), Recorded: decimal.NewFromInt(150_000)},
			consistent: true,
		},
		{
			name:  "live voucher missing history",
			check: AllocationCheck{VoucherTotal: decimal.NewFromInt(150_000), Recorded: decimal.NewFromInt(100_000)},
			diff:  -50_000,
		},
		{
			name:       "reversed voucher released",
			check:      AllocationCheck{VoucherTotal: decimal.NewFromInt(150_000), Reversed: true, Recorded: decimal.Zero},
			consistent: true,
		},
		{
			name:  "reversed voucher still holding history",
			check: AllocationCheck{VoucherTotal: decimal.NewFromInt(150_000), Reversed: true, Recorded: decimal.NewFromInt(150_000)},
			diff:  150_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.consistent, tt.check.Consistent())
			assert.True(t, tt.check.Difference().Equal(decimal.NewFromInt(tt.diff)), "diff = %s", tt.check.Difference())
		})
	}
}
