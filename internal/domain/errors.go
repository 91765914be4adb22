package domain

import (
	"errors"
	"fmt"
)

var (
	// Period errors
	ErrPeriodLocked  = errors.New("posting date is inside a locked period")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidDate   = errors.New("invalid date")

	// Selection and amount errors
	ErrEmptySelection          = errors.New("no items selected")
	ErrAmountOutOfBounds       = errors.New("amount out of bounds")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrMissingForeignAmount    = errors.New("foreign currency amount is required")
	ErrNothingToPost           = errors.New("nothing to post")
	ErrInvalidRate             = errors.New("exchange rate must be positive")
	ErrTargetAccountNotAllowed = errors.New("target account is not allowed")
	ErrItemNotFound            = errors.New("allocation item not found")
	ErrAlreadyAllocated        = errors.New("item already allocated for period")
	ErrDuplicateLine           = errors.New("duplicate line in selection")
	ErrAccountNotFound         = errors.New("account not found")
	ErrCurrencyRequired        = errors.New("currency or account codes are required")

	// Voucher errors
	ErrEmptyVoucher           = errors.New("voucher has no lines")
	ErrInvalidLineAmount      = errors.New("voucher line amount must be positive")
	ErrSameAccount            = errors.New("debit and credit account must differ")
	ErrUnbalancedVoucher      = errors.New("voucher total does not match its lines")
	ErrVoucherNotFound        = errors.New("voucher not found")
	ErrVoucherAlreadyReversed = errors.New("voucher already reversed")
	ErrVoucherNotReversible   = errors.New("voucher type cannot be reversed")
	ErrInvalidVoucherType     = errors.New("unknown voucher type")

	// Debt errors
	ErrPaymentNotPersisted = errors.New("payment must be saved before allocations can change")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrOverAllocated       = errors.New("allocated total exceeds payment amount")
)

// ValidationError is a locally recoverable error raised before any posting I/O.
type ValidationError struct {
	Field  string
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Field, e.Err, e.Detail)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Err, e.Detail)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err with the offending field and a human-readable detail.
func NewValidationError(field string, err error, detail string) *ValidationError {
	return &ValidationError{Field: field, Err: err, Detail: detail}
}

// PostingError reports that the ledger rejected a submission.
type PostingError struct {
	Op  string
	Err error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("%s rejected by ledger: %v", e.Op, e.Err)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPosting reports whether err is (or wraps) a PostingError.
func IsPosting(err error) bool {
	var pe *PostingError
	return errors.As(err, &pe)
}
