package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/postgres/generated"
	"github.com/iho/periodclose/internal/usecase"
)

// VoucherRepository implements usecase.VoucherRepository.
type VoucherRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewVoucherRepository creates a new VoucherRepository.
func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create inserts the voucher header and its lines within a transaction.
func (r *VoucherRepository) Create(ctx context.Context, tx usecase.Transaction, voucher *domain.Voucher) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	err := queries.CreateVoucher(ctx, generated.CreateVoucherParams{
		ID:                voucher.ID,
		DocNo:             voucher.DocNo,
		DocDate:           timeToPgDate(voucher.DocDate),
		PostDate:          timeToPgDate(voucher.PostDate),
		Period:            voucher.Period.String(),
		Description:       voucher.Description,
		Type:              string(voucher.Type),
		TotalAmount:       decimalToNumeric(voucher.TotalAmount),
		ReversesVoucherID: ptrToPgText(voucher.ReversesVoucherID),
		CreatedAt:         timeToPgTimestamptz(voucher.CreatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) && voucher.ReversesVoucherID != nil {
			return domain.NewValidationError("voucher_id", domain.ErrVoucherAlreadyReversed, *voucher.ReversesVoucherID)
		}
		return err
	}

	for i, line := range voucher.Lines {
		err := queries.CreateVoucherLine(ctx, generated.CreateVoucherLineParams{
			ID:            line.ID,
			VoucherID:     voucher.ID,
			LineNo:        int32(i + 1),
			Description:   line.Description,
			DebitAccount:  line.DebitAccount,
			CreditAccount: line.CreditAccount,
			Amount:        decimalToNumeric(line.Amount),
			ItemID:        stringToPgText(line.ItemID),
		})
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}

	return nil
}

// GetByID retrieves a voucher with its lines.
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	row, err := r.queries.GetVoucherByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVoucherNotFound
		}

		return nil, err
	}

	return loadVoucher(ctx, r.queries, row)
}

// GetByIDForUpdate retrieves a voucher with a FOR UPDATE lock on its header.
func (r *VoucherRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Voucher, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetVoucherByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVoucherNotFound
		}

		return nil, err
	}

	return loadVoucher(ctx, queries, row)
}

// MarkReversed stamps the reversal time on a voucher that has not been reversed yet.
func (r *VoucherRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string, reversedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.MarkVoucherReversed(ctx, generated.MarkVoucherReversedParams{
		ID:         id,
		ReversedAt: timeToPgTimestamptz(reversedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewValidationError("voucher_id", domain.ErrVoucherAlreadyReversed, id)
	}

	return nil
}

func loadVoucher(ctx context.Context, queries *generated.Queries, row generated.Voucher) (*domain.Voucher, error) {
	lines, err := queries.ListVoucherLines(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list voucher lines: %w", err)
	}

	period, err := domain.ParsePeriod(row.Period)
	if err != nil {
		return nil, fmt.Errorf("voucher %s: %w", row.ID, err)
	}

	v := &domain.Voucher{
		ID:                row.ID,
		DocNo:             row.DocNo,
		DocDate:           pgDateToTime(row.DocDate),
		PostDate:          pgDateToTime(row.PostDate),
		Period:            period,
		Description:       row.Description,
		Type:              domain.VoucherType(row.Type),
		TotalAmount:       numericToDecimal(row.TotalAmount),
		ReversesVoucherID: pgTextToPtr(row.ReversesVoucherID),
		ReversedAt:        pgTimestamptzToPtr(row.ReversedAt),
		CreatedAt:         row.CreatedAt.Time,
		Lines:             make([]domain.VoucherLine, 0, len(lines)),
	}

	for _, line := range lines {
		v.Lines = append(v.Lines, domain.VoucherLine{
			ID:            line.ID,
			Description:   line.Description,
			DebitAccount:  line.DebitAccount,
			CreditAccount: line.CreditAccount,
			Amount:        numericToDecimal(line.Amount),
			ItemID:        line.ItemID.String,
		})
	}

	return v, nil
}
