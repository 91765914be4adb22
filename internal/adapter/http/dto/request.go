package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// SetPeriodLockRequest represents a request to move the lock cutoff.
type SetPeriodLockRequest struct {
	// LockedUntil is a YYYY-MM-DD date; empty unlocks every period.
	LockedUntil string `json:"locked_until"`
}

// ToDate parses the cutoff.
func (r *SetPeriodLockRequest) ToDate() (time.Time, error) {
	return parseOptionalDate("locked_until", r.LockedUntil)
}

// AllocationPreviewRequest represents a request for an allocation preview.
type AllocationPreviewRequest struct {
	Period        string `json:"period"`
	TargetAccount string `json:"target_account,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AllocationPreviewRequest) ToUseCaseInput() (usecase.AllocationPreviewInput, error) {
	period, err := parsePeriod(r.Period)
	if err != nil {
		return usecase.AllocationPreviewInput{}, err
	}
	return usecase.AllocationPreviewInput{Period: period, TargetAccount: r.TargetAccount}, nil
}

// AllocationSelectionRequest is one item picked for posting.
type AllocationSelectionRequest struct {
	ItemID string `json:"item_id"`
	Amount string `json:"amount"`
}

// AllocationExecuteRequest represents a request to post an allocation.
type AllocationExecuteRequest struct {
	Period        string                       `json:"period"`
	PostDate      string                       `json:"post_date,omitempty"`
	TargetAccount string                       `json:"target_account"`
	Description   string                       `json:"description,omitempty"`
	Selections    []AllocationSelectionRequest `json:"selections"`
	Strict        bool                         `json:"strict,omitempty"`
}

// ToUseCaseInput converts to use case input. PostDate defaults to the last
// day of the period.
func (r *AllocationExecuteRequest) ToUseCaseInput() (usecase.AllocationExecuteInput, error) {
	period, err := parsePeriod(r.Period)
	if err != nil {
		return usecase.AllocationExecuteInput{}, err
	}

	postDate, err := parseOptionalDate("post_date", r.PostDate)
	if err != nil {
		return usecase.AllocationExecuteInput{}, err
	}
	if postDate.IsZero() {
		postDate = period.LastDay()
	}

	selections := make([]usecase.AllocationSelection, len(r.Selections))
	for i, s := range r.Selections {
		amount, err := parseAmount(fmt.Sprintf("selections[%d].amount", i), s.Amount)
		if err != nil {
			return usecase.AllocationExecuteInput{}, err
		}
		selections[i] = usecase.AllocationSelection{ItemID: s.ItemID, Amount: amount}
	}

	return usecase.AllocationExecuteInput{
		PostDate:      postDate,
		Period:        period,
		TargetAccount: r.TargetAccount,
		Description:   r.Description,
		Selections:    selections,
		Strict:        r.Strict,
	}, nil
}

// ReverseVoucherRequest represents a request to reverse a posted voucher.
type ReverseVoucherRequest struct {
	PostDate    string `json:"post_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input. PostDate defaults to today.
func (r *ReverseVoucherRequest) ToUseCaseInput(voucherID string, today time.Time) (usecase.ReverseInput, error) {
	postDate, err := parseOptionalDate("post_date", r.PostDate)
	if err != nil {
		return usecase.ReverseInput{}, err
	}
	if postDate.IsZero() {
		postDate = domain.NormalizeDate(today)
	}
	return usecase.ReverseInput{PostDate: postDate, VoucherID: voucherID, Description: r.Description}, nil
}

// RevaluationRequest represents a request for a revaluation preview or execution.
type RevaluationRequest struct {
	Period         string            `json:"period"`
	PostDate       string            `json:"post_date,omitempty"`
	Currency       string            `json:"currency,omitempty"`
	NewRate        string            `json:"new_rate"`
	Description    string            `json:"description,omitempty"`
	AccountCodes   []string          `json:"account_codes,omitempty"`
	ForeignAmounts map[string]string `json:"foreign_amounts,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RevaluationRequest) ToUseCaseInput() (usecase.RevaluationInput, error) {
	var (
		input usecase.RevaluationInput
		err   error
	)

	if r.Period != "" {
		if input.Period, err = parsePeriod(r.Period); err != nil {
			return input, err
		}
	}
	if input.PostDate, err = parseOptionalDate("post_date", r.PostDate); err != nil {
		return input, err
	}
	if input.NewRate, err = parseAmount("new_rate", r.NewRate); err != nil {
		return input, err
	}

	input.ForeignAmounts = make(map[string]decimal.Decimal, len(r.ForeignAmounts))
	for code, raw := range r.ForeignAmounts {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		amount, err := parseAmount("foreign_amounts."+code, raw)
		if err != nil {
			return input, err
		}
		input.ForeignAmounts[code] = amount
	}

	input.Currency = r.Currency
	input.Description = r.Description
	input.AccountCodes = r.AccountCodes
	return input, nil
}

// ClosingExecuteRequest represents a request to post a closing voucher.
type ClosingExecuteRequest struct {
	Description string `json:"description,omitempty"`
}

// DebtPreviewRequest represents a request for a FIFO suggestion.
type DebtPreviewRequest struct {
	PaymentID string `json:"payment_id,omitempty"`
	PartnerID string `json:"partner_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DebtPreviewRequest) ToUseCaseInput() (usecase.DebtPreviewInput, error) {
	input := usecase.DebtPreviewInput{PaymentID: r.PaymentID, PartnerID: r.PartnerID}
	if r.Amount != "" {
		amount, err := parseAmount("amount", r.Amount)
		if err != nil {
			return input, err
		}
		input.Amount = amount
	}
	return input, nil
}

// DebtLineRequest is one confirmed (invoice, amount) pair.
type DebtLineRequest struct {
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
}

// DebtSubmitRequest represents an allocation or reversal submission.
type DebtSubmitRequest struct {
	Lines []DebtLineRequest `json:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *DebtSubmitRequest) ToUseCaseInput(paymentID string) (usecase.DebtSubmitInput, error) {
	lines := make([]usecase.DebtLineInput, len(r.Lines))
	for i, l := range r.Lines {
		amount, err := parseAmount(fmt.Sprintf("lines[%d].amount", i), l.Amount)
		if err != nil {
			return usecase.DebtSubmitInput{}, err
		}
		lines[i] = usecase.DebtLineInput{InvoiceID: l.InvoiceID, Amount: amount}
	}
	return usecase.DebtSubmitInput{PaymentID: paymentID, Lines: lines}, nil
}

func parsePeriod(s string) (domain.Period, error) {
	p, err := domain.ParsePeriod(strings.TrimSpace(s))
	if err != nil {
		return domain.Period{}, domain.NewValidationError("period", domain.ErrInvalidPeriod, fmt.Sprintf("%q is not YYYY-MM", s))
	}
	return p, nil
}

func parseOptionalDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, domain.ErrInvalidDate, fmt.Sprintf("%q is not YYYY-MM-DD", s))
	}
	return t, nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, domain.NewValidationError(field, domain.ErrInvalidAmount, fmt.Sprintf("%q is not a number", s))
	}
	return d, nil
}
