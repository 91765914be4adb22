package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/postgres/generated"
	"github.com/iho/periodclose/internal/usecase"
)

// AllocationRepository implements usecase.AllocationRepository.
type AllocationRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewAllocationRepository creates a new AllocationRepository.
func NewAllocationRepository(pool *pgxpool.Pool) *AllocationRepository {
	return &AllocationRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// ListAllocatableItems returns prepaid items booked on sourceAccount that still
// carry a remaining value, plus those already allocated for period.
func (r *AllocationRepository) ListAllocatableItems(ctx context.Context, period domain.Period, sourceAccount string) ([]domain.PrepaidItem, error) {
	rows, err := r.queries.ListAllocatableItems(ctx, generated.ListAllocatableItemsParams{
		SourceAccount: sourceAccount,
		Period:        period.String(),
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.PrepaidItem, 0, len(rows))
	for _, row := range rows {
		cost := numericToDecimal(row.Cost)
		accumulated := numericToDecimal(row.AccumulatedAllocated)

		items = append(items, domain.PrepaidItem{
			ID:                   row.ID,
			Name:                 row.Name,
			ItemType:             row.ItemType,
			SourceAccount:        row.SourceAccount,
			Cost:                 cost,
			LifeMonths:           int(row.LifeMonths),
			AccumulatedAllocated: accumulated,
			RemainingValue:       cost.Sub(accumulated),
		})
	}

	return items, nil
}

// Exists reports whether itemID already has an allocation record for period.
func (r *AllocationRepository) Exists(ctx context.Context, period domain.Period, itemID string) (bool, error) {
	return r.queries.AllocationExists(ctx, generated.AllocationExistsParams{
		Period: period.String(),
		ItemID: itemID,
	})
}

// ExistsForUpdate locks the allocation records of itemIDs for period and returns
// the item IDs that already have one.
func (r *AllocationRepository) ExistsForUpdate(ctx context.Context, tx usecase.Transaction, period domain.Period, itemIDs []string) ([]string, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.LockAllocatedItems(ctx, generated.LockAllocatedItemsParams{
		Period:  period.String(),
		ItemIds: itemIDs,
	})
}

// Create writes one allocation history row within a transaction.
func (r *AllocationRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.AllocationRecord) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	err := queries.CreateAllocationRecord(ctx, generated.CreateAllocationRecordParams{
		ID:            record.ID,
		Period:        record.Period.String(),
		ItemID:        record.ItemID,
		ItemType:      record.ItemType,
		TargetAccount: record.TargetAccount,
		VoucherID:     record.VoucherID,
		Amount:        decimalToNumeric(record.Amount),
		CreatedAt:     timeToPgTimestamptz(record.CreatedAt),
	})
	if isUniqueViolation(err) {
		// A concurrent allocation won the (period, item_id) race.
		return domain.NewValidationError("item_id", domain.ErrAlreadyAllocated, record.ItemID)
	}

	return err
}

// DeleteByVoucher removes the history rows written by voucherID.
func (r *AllocationRepository) DeleteByVoucher(ctx context.Context, tx usecase.Transaction, voucherID string) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.DeleteAllocationRecordsByVoucher(ctx, voucherID)
}

// ListAllocationChecks pairs every original allocation voucher of period with
// the history total it owns.
func (r *AllocationRepository) ListAllocationChecks(ctx context.Context, period domain.Period) ([]domain.AllocationCheck, error) {
	rows, err := r.queries.ListAllocationChecks(ctx, period.String())
	if err != nil {
		return nil, err
	}

	checks := make([]domain.AllocationCheck, 0, len(rows))
	for _, row := range rows {
		checks = append(checks, domain.AllocationCheck{
			VoucherID:    row.ID,
			DocNo:        row.DocNo,
			VoucherTotal: numericToDecimal(row.TotalAmount),
			Recorded:     numericToDecimal(row.RecordedAmount),
			Reversed:     row.Reversed,
		})
	}
	return checks, nil
}
