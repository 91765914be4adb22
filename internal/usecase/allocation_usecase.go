package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// AllocationConfig names the accounts of the prepaid allocation workflow.
type AllocationConfig struct {
	SourceAccount  string
	TargetAccounts []string
}

// AllocationUseCase amortizes prepaid items into expense accounts.
type AllocationUseCase struct {
	allocationRepo AllocationRepository
	vouchers       *VoucherUseCase
	locker         PeriodLocker
	idGen          IDGenerator
	cfg            AllocationConfig
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewAllocationUseCase creates a new AllocationUseCase.
func NewAllocationUseCase(
	allocationRepo AllocationRepository,
	vouchers *VoucherUseCase,
	locker PeriodLocker,
	idGen IDGenerator,
	cfg AllocationConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AllocationUseCase {
	if cfg.SourceAccount == "" {
		cfg.SourceAccount = domain.DefaultPrepaidSourceAccount
	}
	if len(cfg.TargetAccounts) == 0 {
		cfg.TargetAccounts = DefaultAllocationTargets
	}
	return &AllocationUseCase{
		allocationRepo: allocationRepo,
		vouchers:       vouchers,
		locker:         locker,
		idGen:          idGen,
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger.With().Str("component", workflowAllocation).Logger(),
	}
}

// AllocationPreviewInput represents input for an allocation preview.
type AllocationPreviewInput struct {
	Period        domain.Period
	TargetAccount string
}

// AllocationPreview is the editable proposal for one period.
type AllocationPreview struct {
	Period        domain.Period
	TargetAccount string
	SourceAccount string
	Items         []domain.AllocationItem
	Warnings      []domain.DuplicateWarning
	SelectedTotal decimal.Decimal
}

// Preview computes the amortization of every allocatable item for the period.
// Items already allocated for the period stay in the list but are not selected.
func (uc *AllocationUseCase) Preview(ctx context.Context, input AllocationPreviewInput) (*AllocationPreview, error) {
	if input.Period.IsZero() {
		return nil, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period is required")
	}
	if err := uc.checkTarget(input.TargetAccount); err != nil {
		return nil, err
	}

	sources, err := uc.allocationRepo.ListAllocatableItems(ctx, input.Period, uc.cfg.SourceAccount)
	if err != nil {
		return nil, err
	}

	items := make([]domain.AllocationItem, len(sources))
	for i, src := range sources {
		items[i] = domain.NewAllocationItem(src)
	}

	allocated := uc.checkDuplicates(ctx, input.Period, items)

	preview := &AllocationPreview{
		Period:        input.Period,
		TargetAccount: input.TargetAccount,
		SourceAccount: uc.cfg.SourceAccount,
		Items:         items,
		SelectedTotal: decimal.Zero,
	}

	for i := range preview.Items {
		item := &preview.Items[i]
		if allocated[i] {
			item.MarkAllocated()
			preview.Warnings = append(preview.Warnings, domain.DuplicateWarning{ItemID: item.ID, Period: input.Period})
			continue
		}
		item.Selected = item.DefaultSelected()
		if item.Selected {
			preview.SelectedTotal = preview.SelectedTotal.Add(item.ProposedAmount)
		}
	}

	uc.metrics.RecordPreview(workflowAllocation)
	return preview, nil
}

// checkDuplicates queries allocation history for every item concurrently.
// A failed check is logged and treated as not allocated.
func (uc *AllocationUseCase) checkDuplicates(ctx context.Context, period domain.Period, items []domain.AllocationItem) []bool {
	allocated := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		itemID := items[i].ID
		g.Go(func() error {
			exists, err := uc.allocationRepo.Exists(gctx, period, itemID)
			if err != nil {
				uc.metrics.RecordDuplicateCheck(false, true)
				uc.logger.Warn().Err(err).
					Str("item_id", itemID).
					Str("period", period.String()).
					Msg("duplicate check failed, treating item as not allocated")
				return nil
			}
			uc.metrics.RecordDuplicateCheck(exists, false)
			allocated[i] = exists
			return nil
		})
	}
	_ = g.Wait()

	return allocated
}

// AllocationSelection is one item picked for posting.
type AllocationSelection struct {
	ItemID string
	Amount decimal.Decimal
}

// AllocationExecuteInput represents input for posting an allocation.
type AllocationExecuteInput struct {
	PostDate      time.Time
	Period        domain.Period
	TargetAccount string
	Description   string
	Selections    []AllocationSelection
	// Strict rejects out-of-range amounts; by default they are clamped to
	// [0, remaining value] like any operator edit.
	Strict bool
}

// AllocationExecuteResult is the outcome of a posted allocation.
type AllocationExecuteResult struct {
	Voucher *domain.Voucher
	Records []domain.AllocationRecord
}

// Execute posts one ALLOCATION voucher for the selected items and records
// their history in the same transaction.
func (uc *AllocationUseCase) Execute(ctx context.Context, input AllocationExecuteInput) (*AllocationExecuteResult, error) {
	result, err := uc.execute(ctx, input)
	if err != nil && domain.IsValidation(err) {
		uc.metrics.RecordValidationFailure(workflowAllocation)
	}
	return result, err
}

func (uc *AllocationUseCase) execute(ctx context.Context, input AllocationExecuteInput) (*AllocationExecuteResult, error) {
	period := input.Period
	switch {
	case period.IsZero() && input.PostDate.IsZero():
		return nil, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period or post date is required")
	case period.IsZero():
		period = domain.PeriodOf(input.PostDate)
	case input.PostDate.IsZero():
		input.PostDate = period.LastDay()
	}
	if err := domain.CheckPosting(period, input.PostDate, uc.locker.LockedUntil()); err != nil {
		return nil, err
	}

	if err := uc.checkTarget(input.TargetAccount); err != nil {
		return nil, err
	}
	if err := validateSelections(input.Selections, input.Strict); err != nil {
		return nil, err
	}

	sources, err := uc.allocationRepo.ListAllocatableItems(ctx, period, uc.cfg.SourceAccount)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.AllocationItem, len(sources))
	for _, src := range sources {
		byID[src.ID] = domain.NewAllocationItem(src)
	}

	lines := make([]domain.VoucherLine, 0, len(input.Selections))
	itemTypes := make(map[string]string, len(input.Selections))
	for _, sel := range input.Selections {
		item, ok := byID[sel.ItemID]
		if !ok {
			return nil, domain.NewValidationError("item_id", domain.ErrItemNotFound, sel.ItemID)
		}

		amount := domain.RoundAmount(sel.Amount)
		if !input.Strict {
			item.SetProposedAmount(amount)
			amount = item.ProposedAmount
		} else if err := item.CheckAmount(amount); err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}

		itemTypes[item.ID] = item.ItemType
		lines = append(lines, domain.VoucherLine{
			Description:   fmt.Sprintf("Allocate %s for %s", item.Name, period),
			DebitAccount:  input.TargetAccount,
			CreditAccount: item.SourceAccount,
			Amount:        amount,
			ItemID:        item.ID,
		})
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("selections", domain.ErrEmptySelection, "every selected amount is zero")
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Prepaid expense allocation %s", period)
	}

	voucher, err := BuildVoucher(BuildVoucherInput{
		Type:        domain.VoucherTypeAllocation,
		Period:      period,
		PostDate:    input.PostDate,
		Description: description,
		Lines:       lines,
	})
	if err != nil {
		return nil, err
	}

	var records []domain.AllocationRecord
	_, err = uc.vouchers.Post(ctx, voucher, func(ctx context.Context, tx Transaction, v *domain.Voucher) error {
		itemIDs := make([]string, len(v.Lines))
		for i, l := range v.Lines {
			itemIDs[i] = l.ItemID
		}

		hits, err := uc.allocationRepo.ExistsForUpdate(ctx, tx, period, itemIDs)
		if err != nil {
			return fmt.Errorf("check allocation history: %w", err)
		}
		if len(hits) > 0 {
			return domain.NewValidationError("selections", domain.ErrAlreadyAllocated, fmt.Sprintf(
				"%s for %s", strings.Join(hits, ", "), period,
			))
		}

		records = records[:0]
		for _, l := range v.Lines {
			rec := domain.AllocationRecord{
				ID:            uc.idGen.Generate(),
				Period:        period,
				ItemID:        l.ItemID,
				ItemType:      itemTypes[l.ItemID],
				TargetAccount: l.DebitAccount,
				VoucherID:     v.ID,
				Amount:        l.Amount,
				CreatedAt:     v.CreatedAt,
			}
			if err := uc.allocationRepo.Create(ctx, tx, &rec); err != nil {
				return fmt.Errorf("record allocation of %s: %w", l.ItemID, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AllocationExecuteResult{Voucher: voucher, Records: records}, nil
}

// Reverse posts a REALLOCATION voucher undoing a posted allocation and drops
// its history so the items can be allocated again for that period.
func (uc *AllocationUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.Voucher, error) {
	if err := domain.CheckPeriodLock(input.PostDate, uc.locker.LockedUntil()); err != nil {
		uc.metrics.RecordValidationFailure(workflowAllocation)
		return nil, err
	}

	v, err := uc.vouchers.Reverse(ctx, input, domain.VoucherTypeReallocation, domain.VoucherTypeAllocation,
		func(ctx context.Context, tx Transaction, v *domain.Voucher) error {
			n, err := uc.allocationRepo.DeleteByVoucher(ctx, tx, *v.ReversesVoucherID)
			if err != nil {
				return fmt.Errorf("delete allocation history: %w", err)
			}
			uc.logger.Debug().Int64("records", n).Str("voucher_id", *v.ReversesVoucherID).Msg("allocation history released")
			return nil
		})
	if err != nil {
		if domain.IsValidation(err) {
			uc.metrics.RecordValidationFailure(workflowAllocation)
		}
		return nil, err
	}

	return v, nil
}

// TargetAccounts lists the accounts an allocation may debit.
func (uc *AllocationUseCase) TargetAccounts() []string {
	return slices.Clone(uc.cfg.TargetAccounts)
}

func (uc *AllocationUseCase) checkTarget(account string) error {
	if !slices.Contains(uc.cfg.TargetAccounts, account) {
		return domain.NewValidationError("target_account", domain.ErrTargetAccountNotAllowed, fmt.Sprintf(
			"%q is not one of %s", account, strings.Join(uc.cfg.TargetAccounts, ", "),
		))
	}
	return nil
}

func validateSelections(selections []AllocationSelection, strict bool) error {
	if len(selections) == 0 {
		return domain.NewValidationError("selections", domain.ErrEmptySelection, "")
	}

	seen := make(map[string]struct{}, len(selections))
	for _, sel := range selections {
		if _, dup := seen[sel.ItemID]; dup {
			return domain.NewValidationError("item_id", domain.ErrDuplicateLine, sel.ItemID)
		}
		seen[sel.ItemID] = struct{}{}

		if sel.Amount.IsNegative() && strict {
			return domain.NewValidationError("amount", domain.ErrAmountOutOfBounds, fmt.Sprintf(
				"item %s: %s is negative", sel.ItemID, domain.FormatAmount(sel.Amount),
			))
		}
	}
	return nil
}
