package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// ReconciliationUseCase checks that posted vouchers and the bookkeeping they
// drive agree with each other.
type ReconciliationUseCase struct {
	snapshot *SnapshotUseCase
	repo     ReconciliationRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	snapshot *SnapshotUseCase,
	repo ReconciliationRepository,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		snapshot: snapshot,
		repo:     repo,
		metrics:  metrics,
		logger:   logger.With().Str("component", "reconciliation").Logger(),
		now:      time.Now,
	}
}

// ReconciliationReport is the outcome of one reconciliation run.
type ReconciliationReport struct {
	CheckedAt time.Time
	Period    domain.Period
	// Vouchers is the number of allocation vouchers examined.
	Vouchers      int
	Discrepancies []domain.AllocationCheck
	// TrialBalance is the sum of every net balance at period end; a balanced
	// ledger sums to zero.
	TrialBalance   decimal.Decimal
	LedgerBalanced bool
	Consistent     bool
}

// Reconcile compares the allocation vouchers of period with the history rows
// they own and verifies the trial balance at period end.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, period domain.Period) (*ReconciliationReport, error) {
	if period.IsZero() {
		return nil, domain.NewValidationError("period", domain.ErrInvalidPeriod, "period is required")
	}

	checks, err := uc.repo.ListAllocationChecks(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list allocation checks: %w", err)
	}

	balances, err := uc.snapshot.Snapshot(ctx, period.LastDay())
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		CheckedAt:     uc.now().UTC(),
		Period:        period,
		Vouchers:      len(checks),
		Discrepancies: make([]domain.AllocationCheck, 0),
		TrialBalance:  decimal.Zero,
	}

	for _, c := range checks {
		if !c.Consistent() {
			report.Discrepancies = append(report.Discrepancies, c)
		}
	}
	for _, b := range balances {
		report.TrialBalance = report.TrialBalance.Add(b.NetBalance)
	}

	report.LedgerBalanced = report.TrialBalance.IsZero()
	report.Consistent = report.LedgerBalanced && len(report.Discrepancies) == 0
	uc.metrics.RecordReconciliation(report.Consistent)

	if !report.Consistent {
		uc.logger.Warn().
			Str("period", period.String()).
			Int("discrepancies", len(report.Discrepancies)).
			Str("trial_balance", report.TrialBalance.String()).
			Msg("reconciliation found inconsistencies")
	}

	return report, nil
}
