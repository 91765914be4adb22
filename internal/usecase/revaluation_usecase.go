package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// RevaluationUseCase restates foreign-currency monetary accounts at a new rate.
type RevaluationUseCase struct {
	snapshot *SnapshotUseCase
	vouchers *VoucherUseCase
	locker   PeriodLocker
	accts    domain.FxAccounts
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewRevaluationUseCase creates a new RevaluationUseCase.
func NewRevaluationUseCase(
	snapshot *SnapshotUseCase,
	vouchers *VoucherUseCase,
	locker PeriodLocker,
	accts domain.FxAccounts,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *RevaluationUseCase {
	return &RevaluationUseCase{
		snapshot: snapshot,
		vouchers: vouchers,
		locker:   locker,
		accts:    accts,
		metrics:  metrics,
		logger:   logger.With().Str("component", workflowRevaluation).Logger(),
	}
}

// RevaluationInput represents input for a revaluation preview or execution.
type RevaluationInput struct {
	// PostDate defaults to the last day of Period.
	PostDate       time.Time
	ForeignAmounts map[string]decimal.Decimal
	Period         domain.Period
	Currency       string
	Description    string
	NewRate        decimal.Decimal
	// AccountCodes narrows the scope; empty means every asset or liability
	// account denominated in Currency.
	AccountCodes []string
}

// RevaluationPreview is the computed restatement for one period.
type RevaluationPreview struct {
	domain.RevaluationResult
	PostDate time.Time
	Period   domain.Period
	Currency string
	NewRate  decimal.Decimal
}

// Preview computes the restatement without posting.
func (uc *RevaluationUseCase) Preview(ctx context.Context, input RevaluationInput) (*RevaluationPreview, error) {
	input, err := normalizeRevaluationInput(input)
	if err != nil {
		return nil, err
	}

	preview, err := uc.compute(ctx, input)
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordPreview(workflowRevaluation)
	return preview, nil
}

// RevaluationExecuteResult is the outcome of a posted revaluation.
type RevaluationExecuteResult struct {
	Voucher *domain.Voucher
	Preview *RevaluationPreview
}

// Execute posts one REVALUATION voucher. Posting is blocked when any in-scope
// account with a book value lacks a foreign amount, or when nothing changes.
func (uc *RevaluationUseCase) Execute(ctx context.Context, input RevaluationInput) (*RevaluationExecuteResult, error) {
	result, err := uc.execute(ctx, input)
	if err != nil && domain.IsValidation(err) {
		uc.metrics.RecordValidationFailure(workflowRevaluation)
	}
	return result, err
}

func (uc *RevaluationUseCase) execute(ctx context.Context, input RevaluationInput) (*RevaluationExecuteResult, error) {
	if input.Period.IsZero() && input.PostDate.IsZero() {
		return nil, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period or post date is required")
	}

	postDate := input.PostDate
	if postDate.IsZero() {
		postDate = input.Period.LastDay()
	}
	if input.Period.IsZero() {
		input.Period = domain.PeriodOf(postDate)
	}
	if err := domain.CheckPosting(input.Period, postDate, uc.locker.LockedUntil()); err != nil {
		return nil, err
	}
	input.PostDate = postDate

	input, err := normalizeRevaluationInput(input)
	if err != nil {
		return nil, err
	}

	preview, err := uc.compute(ctx, input)
	if err != nil {
		return nil, err
	}

	if len(preview.MissingCode) > 0 {
		return nil, domain.NewValidationError("foreign_amounts", domain.ErrMissingForeignAmount, strings.Join(preview.MissingCode, ", "))
	}
	if preview.AbsDiffSum.IsZero() {
		return nil, domain.NewValidationError("", domain.ErrNothingToPost, "no account changes value at the new rate")
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("FX revaluation %s at %s", preview.Currency, preview.NewRate)
	}

	voucher, err := BuildVoucher(BuildVoucherInput{
		Type:        domain.VoucherTypeRevaluation,
		Period:      preview.Period,
		PostDate:    preview.PostDate,
		Description: strings.TrimSpace(description),
		Lines:       preview.Lines,
	})
	if err != nil {
		return nil, err
	}

	if _, err := uc.vouchers.Post(ctx, voucher, nil); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("period", preview.Period.String()).
		Str("gain", domain.FormatAmount(preview.TotalGain)).
		Str("loss", domain.FormatAmount(preview.TotalLoss)).
		Msg("revaluation posted")

	return &RevaluationExecuteResult{Voucher: voucher, Preview: preview}, nil
}

func (uc *RevaluationUseCase) compute(ctx context.Context, input RevaluationInput) (*RevaluationPreview, error) {
	balances, err := uc.snapshot.Snapshot(ctx, input.Period.LastDay())
	if err != nil {
		return nil, err
	}

	scope, err := revaluationScope(balances, input)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.FxAccountBalance, 0, len(scope))
	for _, b := range scope {
		var foreign *decimal.Decimal
		if amt, ok := input.ForeignAmounts[b.Code]; ok {
			foreign = &amt
		}
		accounts = append(accounts, domain.NewFxAccountBalance(b, foreign, input.NewRate))
	}

	postDate := input.PostDate
	if postDate.IsZero() {
		postDate = input.Period.LastDay()
	}

	return &RevaluationPreview{
		RevaluationResult: domain.BuildRevaluation(accounts, uc.accts),
		PostDate:          postDate,
		Period:            input.Period,
		Currency:          input.Currency,
		NewRate:           input.NewRate,
	}, nil
}

func revaluationScope(balances []domain.AccountBalance, input RevaluationInput) ([]domain.AccountBalance, error) {
	if len(input.AccountCodes) > 0 {
		byCode := make(map[string]domain.AccountBalance, len(balances))
		for _, b := range balances {
			byCode[b.Code] = b
		}

		scope := make([]domain.AccountBalance, 0, len(input.AccountCodes))
		for _, code := range input.AccountCodes {
			b, ok := byCode[code]
			if !ok {
				return nil, domain.NewValidationError("account_codes", domain.ErrAccountNotFound, code)
			}
			if b.Class != domain.AccountClassAsset && b.Class != domain.AccountClassLiability {
				return nil, domain.NewValidationError("account_codes", domain.ErrAccountNotFound, fmt.Sprintf(
					"%s is %s, not a monetary asset or liability", code, b.Class,
				))
			}
			scope = append(scope, b)
		}
		return scope, nil
	}

	var scope []domain.AccountBalance
	for _, b := range balances {
		if !strings.EqualFold(b.Currency, input.Currency) {
			continue
		}
		if b.Class == domain.AccountClassAsset || b.Class == domain.AccountClassLiability {
			scope = append(scope, b)
		}
	}
	return scope, nil
}

func normalizeRevaluationInput(input RevaluationInput) (RevaluationInput, error) {
	if input.Period.IsZero() {
		return input, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period is required")
	}
	if !input.NewRate.IsPositive() {
		return input, domain.NewValidationError("new_rate", domain.ErrInvalidRate, input.NewRate.String())
	}

	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Currency == "" && len(input.AccountCodes) == 0 {
		return input, domain.NewValidationError("currency", domain.ErrCurrencyRequired, "")
	}

	return input, nil
}
