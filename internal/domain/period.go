package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// Period is an accounting month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing date.
func PeriodOf(date time.Time) Period {
	return Period{Year: date.Year(), Month: date.Month()}
}

// ParsePeriod parses a YYYY-MM key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return PeriodOf(t), nil
}

// String returns the YYYY-MM key.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// FirstDay returns the first calendar day of the period.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last calendar day of the period.
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

// Contains reports whether date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	return PeriodOf(NormalizeDate(date)) == p
}

// NormalizeDate drops the time-of-day component and pins the date to UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

// IsLocked reports whether postDate is on or before the lock cutoff.
func IsLocked(postDate, lockedUntil time.Time) bool {
	if lockedUntil.IsZero() {
		return false
	}
	return !NormalizeDate(postDate).After(NormalizeDate(lockedUntil))
}

// CheckPeriodLock returns a ValidationError when postDate falls in the locked range.
func CheckPeriodLock(postDate, lockedUntil time.Time) error {
	if !IsLocked(postDate, lockedUntil) {
		return nil
	}
	return NewValidationError("post_date", ErrPeriodLocked, fmt.Sprintf(
		"%s is on or before the lock date %s",
		NormalizeDate(postDate).Format(DateLayout),
		NormalizeDate(lockedUntil).Format(DateLayout),
	))
}

// CheckPosting validates a posting date against its period and the lock cutoff.
// The date must fall inside period so a voucher cannot carry a locked
// period's history under an open date.
func CheckPosting(period Period, postDate, lockedUntil time.Time) error {
	if !period.Contains(postDate) {
		return NewValidationError("post_date", ErrInvalidDate, fmt.Sprintf(
			"%s is outside period %s", NormalizeDate(postDate).Format(DateLayout), period,
		))
	}
	return CheckPeriodLock(postDate, lockedUntil)
}
