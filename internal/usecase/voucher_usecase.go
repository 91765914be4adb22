package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// VoucherUseCase builds vouchers and posts them to the ledger.
type VoucherUseCase struct {
	txManager   TransactionManager
	voucherRepo VoucherRepository
	outboxRepo  OutboxRepository
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewVoucherUseCase creates a new VoucherUseCase. retrier may be nil.
func NewVoucherUseCase(
	txManager TransactionManager,
	voucherRepo VoucherRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *VoucherUseCase {
	return &VoucherUseCase{
		txManager:   txManager,
		voucherRepo: voucherRepo,
		outboxRepo:  outboxRepo,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "voucher").Logger(),
	}
}

// BuildVoucherInput represents input for assembling a voucher.
type BuildVoucherInput struct {
	PostDate          time.Time
	ReversesVoucherID *string
	Period            domain.Period
	Description       string
	Type              domain.VoucherType
	Lines             []domain.VoucherLine
}

// BuildVoucher assembles and validates a voucher. It performs no I/O.
func BuildVoucher(input BuildVoucherInput) (*domain.Voucher, error) {
	if !input.Type.Valid() {
		return nil, domain.NewValidationError("type", domain.ErrInvalidVoucherType, string(input.Type))
	}

	postDate := domain.NormalizeDate(input.PostDate)
	period := input.Period
	if period.IsZero() {
		period = domain.PeriodOf(postDate)
	}

	lines := make([]domain.VoucherLine, len(input.Lines))
	copy(lines, input.Lines)

	v := &domain.Voucher{
		DocNo:             domain.DocNo(input.Type, period),
		DocDate:           postDate,
		PostDate:          postDate,
		Period:            period,
		Description:       input.Description,
		Type:              input.Type,
		Lines:             lines,
		TotalAmount:       domain.SumLines(lines),
		ReversesVoucherID: input.ReversesVoucherID,
	}

	if err := v.Validate(); err != nil {
		return nil, domain.NewValidationError("lines", err, "")
	}

	return v, nil
}

// PostHook runs inside the posting transaction after the voucher is written.
type PostHook func(ctx context.Context, tx Transaction, v *domain.Voucher) error

// Post writes v, runs hook and records an outbox event in one transaction.
// It returns the new voucher ID. Validation errors from the hook are returned
// as is; any other ledger failure is wrapped in a PostingError.
func (uc *VoucherUseCase) Post(ctx context.Context, v *domain.Voucher, hook PostHook) (string, error) {
	if err := v.Validate(); err != nil {
		return "", domain.NewValidationError("lines", err, "")
	}

	v.ID = uc.idGen.Generate()
	for i := range v.Lines {
		v.Lines[i].ID = uc.idGen.Generate()
	}

	start := time.Now()
	op := func() error { return uc.postTx(ctx, v, hook) }

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	uc.metrics.ObservePosting(time.Since(start).Seconds())

	if err != nil {
		if domain.IsValidation(err) {
			return "", err
		}

		uc.metrics.RecordPostingError("post voucher")
		uc.logger.Error().Err(err).
			Str("doc_no", v.DocNo).
			Str("type", string(v.Type)).
			Msg("voucher posting failed")

		return "", &domain.PostingError{Op: "post voucher " + v.DocNo, Err: err}
	}

	amount, _ := v.TotalAmount.Float64()
	uc.metrics.RecordVoucherPosted(string(v.Type), amount)
	uc.logger.Info().
		Str("voucher_id", v.ID).
		Str("doc_no", v.DocNo).
		Str("type", string(v.Type)).
		Str("total", domain.FormatAmount(v.TotalAmount)).
		Int("lines", len(v.Lines)).
		Msg("voucher posted")

	return v.ID, nil
}

func (uc *VoucherUseCase) postTx(ctx context.Context, v *domain.Voucher, hook PostHook) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	v.CreatedAt = now

	if err := uc.voucherRepo.Create(txCtx, tx, v); err != nil {
		return fmt.Errorf("create voucher: %w", err)
	}

	if hook != nil {
		if err := hook(txCtx, tx, v); err != nil {
			return err
		}
	}

	event := domain.NewVoucherPostedEvent(uc.idGen.Generate(), v, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return fmt.Errorf("create outbox event: %w", err)
	}

	return tx.Commit(txCtx)
}

// GetVoucher retrieves a posted voucher by ID.
func (uc *VoucherUseCase) GetVoucher(ctx context.Context, id string) (*domain.Voucher, error) {
	return uc.voucherRepo.GetByID(ctx, id)
}

// ReverseInput represents input for reversing a posted voucher.
type ReverseInput struct {
	PostDate    time.Time
	VoucherID   string
	Description string
}

// Reverse posts a voucher with every line of the original swapped and marks
// the original reversed. allowed restricts which voucher types may be
// reversed; hook runs inside the same transaction.
func (uc *VoucherUseCase) Reverse(
	ctx context.Context,
	input ReverseInput,
	reversalType domain.VoucherType,
	allowed domain.VoucherType,
	hook PostHook,
) (*domain.Voucher, error) {
	original, err := uc.voucherRepo.GetByID(ctx, input.VoucherID)
	if err != nil {
		if errors.Is(err, domain.ErrVoucherNotFound) {
			return nil, domain.NewValidationError("voucher_id", err, input.VoucherID)
		}
		return nil, err
	}
	if original.Type != allowed {
		return nil, domain.NewValidationError("voucher_id", domain.ErrVoucherNotReversible, string(original.Type))
	}
	if original.IsReversed() {
		return nil, domain.NewValidationError("voucher_id", domain.ErrVoucherAlreadyReversed, original.DocNo)
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Reversal of %s", original.DocNo)
	}

	originalID := original.ID
	reversal, err := BuildVoucher(BuildVoucherInput{
		Type:              reversalType,
		Period:            domain.PeriodOf(input.PostDate),
		PostDate:          input.PostDate,
		Description:       description,
		Lines:             original.Reversal(),
		ReversesVoucherID: &originalID,
	})
	if err != nil {
		return nil, err
	}

	_, err = uc.Post(ctx, reversal, func(ctx context.Context, tx Transaction, v *domain.Voucher) error {
		locked, err := uc.voucherRepo.GetByIDForUpdate(ctx, tx, originalID)
		if err != nil {
			return err
		}
		if locked.IsReversed() {
			return domain.NewValidationError("voucher_id", domain.ErrVoucherAlreadyReversed, locked.DocNo)
		}
		if err := uc.voucherRepo.MarkReversed(ctx, tx, originalID, v.CreatedAt); err != nil {
			return fmt.Errorf("mark voucher reversed: %w", err)
		}
		if hook != nil {
			return hook(ctx, tx, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordVoucherReversed(string(original.Type))
	return reversal, nil
}
