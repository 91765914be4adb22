package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/postgres/generated"
	"github.com/iho/periodclose/internal/usecase"
)

// DebtRepository implements usecase.DebtRepository.
type DebtRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewDebtRepository creates a new DebtRepository.
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// GetPayment retrieves a payment by ID.
func (r *DebtRepository) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	row, err := r.queries.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return rowToPayment(row), nil
}

// GetPaymentForUpdate retrieves a payment by ID with a FOR UPDATE lock.
func (r *DebtRepository) GetPaymentForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetPaymentForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return rowToPayment(row), nil
}

// ListUnpaidInvoices returns the partner's invoices that still have an open remainder.
func (r *DebtRepository) ListUnpaidInvoices(ctx context.Context, partnerID string) ([]*domain.Invoice, error) {
	rows, err := r.queries.ListUnpaidInvoices(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	return rowsToInvoices(rows), nil
}

// GetInvoicesForUpdate locks the given invoices. Unknown IDs are skipped.
func (r *DebtRepository) GetInvoicesForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.GetInvoicesForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	return rowsToInvoices(rows), nil
}

// ListAllocationsByPayment returns the open matches of a payment in FIFO order.
func (r *DebtRepository) ListAllocationsByPayment(ctx context.Context, paymentID string) ([]*domain.DebtAllocation, error) {
	rows, err := r.queries.ListDebtAllocationsByPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	allocations := make([]*domain.DebtAllocation, 0, len(rows))
	for _, row := range rows {
		allocations = append(allocations, &domain.DebtAllocation{
			PaymentID:     row.PaymentID,
			InvoiceID:     row.InvoiceID,
			InvoiceNumber: row.InvoiceNumber,
			InvoiceDate:   pgDateToTime(row.InvoiceDate),
			Amount:        numericToDecimal(row.Amount),
		})
	}

	return allocations, nil
}

// GetAllocationsForUpdate is ListAllocationsByPayment with the match rows locked.
func (r *DebtRepository) GetAllocationsForUpdate(ctx context.Context, tx usecase.Transaction, paymentID string) ([]*domain.DebtAllocation, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.ListDebtAllocationsByPaymentForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	allocations := make([]*domain.DebtAllocation, 0, len(rows))
	for _, row := range rows {
		allocations = append(allocations, &domain.DebtAllocation{
			PaymentID:     row.PaymentID,
			InvoiceID:     row.InvoiceID,
			InvoiceNumber: row.InvoiceNumber,
			InvoiceDate:   pgDateToTime(row.InvoiceDate),
			Amount:        numericToDecimal(row.Amount),
		})
	}

	return allocations, nil
}

// SaveAllocations adds each line to the payment/invoice match and moves the
// paid and allocated running totals by the same amounts.
func (r *DebtRepository) SaveAllocations(ctx context.Context, tx usecase.Transaction, paymentID string, lines []domain.DebtAllocationLine, at time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)
	stamp := timeToPgTimestamptz(at)

	total := decimal.Zero
	for _, line := range lines {
		if !line.AllocatedAmount.IsPositive() {
			continue
		}

		err := queries.AddDebtAllocation(ctx, generated.AddDebtAllocationParams{
			PaymentID: paymentID,
			InvoiceID: line.InvoiceID,
			Amount:    decimalToNumeric(line.AllocatedAmount),
			At:        stamp,
		})
		if err != nil {
			return err
		}

		if err := addInvoicePaid(ctx, queries, line.InvoiceID, line.AllocatedAmount, stamp); err != nil {
			return err
		}

		total = total.Add(line.AllocatedAmount)
	}

	return addPaymentAllocated(ctx, queries, paymentID, total, stamp)
}

// ReverseAllocations releases each line from the payment/invoice match.
// Releasing more than is currently matched is rejected.
func (r *DebtRepository) ReverseAllocations(ctx context.Context, tx usecase.Transaction, paymentID string, lines []domain.DebtAllocationLine, at time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)
	stamp := timeToPgTimestamptz(at)

	total := decimal.Zero
	for _, line := range lines {
		if !line.AllocatedAmount.IsPositive() {
			continue
		}

		n, err := queries.SubtractDebtAllocation(ctx, generated.SubtractDebtAllocationParams{
			Amount:    decimalToNumeric(line.AllocatedAmount),
			At:        stamp,
			PaymentID: paymentID,
			InvoiceID: line.InvoiceID,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NewValidationError("amount", domain.ErrAmountOutOfBounds, line.InvoiceID)
		}

		if err := addInvoicePaid(ctx, queries, line.InvoiceID, line.AllocatedAmount.Neg(), stamp); err != nil {
			return err
		}

		total = total.Add(line.AllocatedAmount)
	}

	if err := addPaymentAllocated(ctx, queries, paymentID, total.Neg(), stamp); err != nil {
		return err
	}

	return queries.DeleteEmptyDebtAllocations(ctx, paymentID)
}

func addInvoicePaid(ctx context.Context, queries *generated.Queries, id string, delta decimal.Decimal, at pgtype.Timestamptz) error {
	n, err := queries.AddInvoicePaid(ctx, generated.AddInvoicePaidParams{
		Delta: decimalToNumeric(delta),
		At:    at,
		ID:    id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvoiceNotFound
	}

	return nil
}

func addPaymentAllocated(ctx context.Context, queries *generated.Queries, id string, delta decimal.Decimal, at pgtype.Timestamptz) error {
	if delta.IsZero() {
		return nil
	}

	n, err := queries.AddPaymentAllocated(ctx, generated.AddPaymentAllocatedParams{
		Delta: decimalToNumeric(delta),
		At:    at,
		ID:    id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}

func rowToPayment(row generated.Payment) *domain.Payment {
	return &domain.Payment{
		ID:          row.ID,
		PartnerID:   row.PartnerID,
		PaymentDate: pgDateToTime(row.PaymentDate),
		Amount:      numericToDecimal(row.Amount),
		Allocated:   numericToDecimal(row.Allocated),
	}
}

func rowsToInvoices(rows []generated.Invoice) []*domain.Invoice {
	invoices := make([]*domain.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, &domain.Invoice{
			ID:          row.ID,
			PartnerID:   row.PartnerID,
			Number:      row.Number,
			InvoiceDate: pgDateToTime(row.InvoiceDate),
			Total:       numericToDecimal(row.Total),
			Paid:        numericToDecimal(row.Paid),
		})
	}

	return invoices
}
