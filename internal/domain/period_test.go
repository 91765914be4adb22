package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	p, err := ParsePeriod("2024-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Year != 2024 || p.Month != time.February {
		t.Fatalf("unexpected period %+v", p)
	}
	if p.String() != "2024-02" {
		t.Fatalf("expected 2024-02, got %s", p)
	}

	if _, err := ParsePeriod("2024-13"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPeriodBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		period Period
		first  string
		last   string
	}{
		{Period{2024, time.February}, "2024-02-01", "2024-02-29"},
		{Period{2023, time.February}, "2023-02-01", "2023-02-28"},
		{Period{2024, time.December}, "2024-12-01", "2024-12-31"},
		{Period{2024, time.April}, "2024-04-01", "2024-04-30"},
	}

	for _, tt := range tests {
		if got := tt.period.FirstDay().Format(DateLayout); got != tt.first {
			t.Errorf("%s first day = %s, want %s", tt.period, got, tt.first)
		}
		if got := tt.period.LastDay().Format(DateLayout); got != tt.last {
			t.Errorf("%s last day = %s, want %s", tt.period, got, tt.last)
		}
	}
}

func TestIsLocked(t *testing.T) {
	t.Parallel()

	lock := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		postDate time.Time
		lock     time.Time
		want     bool
	}{
		{"before cutoff", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), lock, true},
		{"on cutoff", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), lock, true},
		{"on cutoff with time of day", time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), lock, true},
		{"after cutoff", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), lock, false},
		{"no lock", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLocked(tt.postDate, tt.lock); got != tt.want {
				t.Fatalf("IsLocked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckPeriodLockReturnsValidationError(t *testing.T) {
	t.Parallel()

	lock := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	err := CheckPeriodLock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), lock)
	if !errors.Is(err, ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %T", err)
	}

	if err := CheckPeriodLock(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), lock); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckPosting(t *testing.T) {
	t.Parallel()

	march := Period{Year: 2025, Month: time.March}
	lock := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		postDate time.Time
		locked   time.Time
		want     error
	}{
		{"inside open period", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), time.Time{}, nil},
		{"inside locked period", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), lock, ErrPeriodLocked},
		{"later date cannot carry a locked period", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), lock, ErrInvalidDate},
		{"earlier date", time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), time.Time{}, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPosting(march, tt.postDate, tt.locked)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) || !IsValidation(err) {
				t.Fatalf("expected validation error wrapping %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromInt(1200000), "1,200,000"},
		{decimal.RequireFromString("99.6"), "100"},
		{decimal.NewFromInt(-250000), "-250,000"},
		{decimal.Zero, "0"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
