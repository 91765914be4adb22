package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// ClosingUseCase closes revenue and expense accounts into retained earnings.
type ClosingUseCase struct {
	snapshot *SnapshotUseCase
	vouchers *VoucherUseCase
	locker   PeriodLocker
	accts    domain.ClosingAccounts
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewClosingUseCase creates a new ClosingUseCase.
func NewClosingUseCase(
	snapshot *SnapshotUseCase,
	vouchers *VoucherUseCase,
	locker PeriodLocker,
	accts domain.ClosingAccounts,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ClosingUseCase {
	return &ClosingUseCase{
		snapshot: snapshot,
		vouchers: vouchers,
		locker:   locker,
		accts:    accts,
		metrics:  metrics,
		logger:   logger.With().Str("component", workflowClosing).Logger(),
	}
}

// ClosingPreview is the closing entry set for one period.
type ClosingPreview struct {
	domain.ClosingResult
	PostDate    time.Time
	LockedUntil time.Time
	// Locked reports that Execute would be rejected for this period.
	Locked bool
}

// Preview computes the closing entries from balances as of the period end.
func (uc *ClosingUseCase) Preview(ctx context.Context, period domain.Period) (*ClosingPreview, error) {
	if period.IsZero() {
		return nil, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period is required")
	}

	preview, err := uc.compute(ctx, period)
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordPreview(workflowClosing)
	return preview, nil
}

// ClosingExecuteInput represents input for posting a closing voucher.
type ClosingExecuteInput struct {
	Period      domain.Period
	Description string
}

// ClosingExecuteResult is the outcome of a posted closing.
type ClosingExecuteResult struct {
	Voucher *domain.Voucher
	Preview *ClosingPreview
}

// Execute recomputes the closing from a fresh snapshot and posts one CLOSING
// voucher dated the last day of the period.
func (uc *ClosingUseCase) Execute(ctx context.Context, input ClosingExecuteInput) (*ClosingExecuteResult, error) {
	result, err := uc.execute(ctx, input)
	if err != nil && domain.IsValidation(err) {
		uc.metrics.RecordValidationFailure(workflowClosing)
	}
	return result, err
}

func (uc *ClosingUseCase) execute(ctx context.Context, input ClosingExecuteInput) (*ClosingExecuteResult, error) {
	if input.Period.IsZero() {
		return nil, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period is required")
	}
	if err := domain.CheckPeriodLock(input.Period.LastDay(), uc.locker.LockedUntil()); err != nil {
		return nil, err
	}

	preview, err := uc.compute(ctx, input.Period)
	if err != nil {
		return nil, err
	}
	if len(preview.Lines) == 0 {
		return nil, domain.NewValidationError("", domain.ErrNothingToPost, fmt.Sprintf(
			"no revenue or expense balances for %s", input.Period,
		))
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Period closing %s", input.Period)
	}

	voucher, err := BuildVoucher(BuildVoucherInput{
		Type:        domain.VoucherTypeClosing,
		Period:      input.Period,
		PostDate:    preview.PostDate,
		Description: description,
		Lines:       preview.Lines,
	})
	if err != nil {
		return nil, err
	}

	if _, err := uc.vouchers.Post(ctx, voucher, nil); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("period", input.Period.String()).
		Str("profit", domain.FormatAmount(preview.Profit)).
		Msg("period closed")

	return &ClosingExecuteResult{Voucher: voucher, Preview: preview}, nil
}

func (uc *ClosingUseCase) compute(ctx context.Context, period domain.Period) (*ClosingPreview, error) {
	postDate := period.LastDay()

	balances, err := uc.snapshot.Snapshot(ctx, postDate)
	if err != nil {
		return nil, err
	}

	lockedUntil := uc.locker.LockedUntil()
	return &ClosingPreview{
		ClosingResult: domain.BuildClosing(period, balances, uc.accts),
		PostDate:      postDate,
		LockedUntil:   lockedUntil,
		Locked:        domain.IsLocked(postDate, lockedUntil),
	}, nil
}
