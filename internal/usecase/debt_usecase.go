package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// DebtUseCase matches partner payments against outstanding invoices.
type DebtUseCase struct {
	txManager  TransactionManager
	debtRepo   DebtRepository
	outboxRepo OutboxRepository
	retrier    Retrier
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewDebtUseCase creates a new DebtUseCase. retrier may be nil.
func NewDebtUseCase(
	txManager TransactionManager,
	debtRepo DebtRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *DebtUseCase {
	return &DebtUseCase{
		txManager:  txManager,
		debtRepo:   debtRepo,
		outboxRepo: outboxRepo,
		retrier:    retrier,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger.With().Str("component", workflowDebt).Logger(),
	}
}

// DebtPreviewInput identifies the payment to distribute. A persisted payment
// is referenced by PaymentID; a draft one by PartnerID and Amount.
type DebtPreviewInput struct {
	PaymentID string
	PartnerID string
	Amount    decimal.Decimal
}

// DebtPreview is a suggested distribution of a payment over invoices.
type DebtPreview struct {
	PaymentID string
	PartnerID string
	// Available is the amount still free to distribute.
	Available decimal.Decimal
	Total     decimal.Decimal
	Lines     []domain.DebtAllocationLine
}

// PreviewAllocate suggests a FIFO distribution of the payment over the
// partner's unpaid invoices, oldest first.
func (uc *DebtUseCase) PreviewAllocate(ctx context.Context, input DebtPreviewInput) (*DebtPreview, error) {
	preview := &DebtPreview{PaymentID: input.PaymentID, PartnerID: input.PartnerID, Available: input.Amount}

	if input.PaymentID != "" {
		payment, err := uc.getPayment(ctx, input.PaymentID)
		if err != nil {
			return nil, err
		}
		preview.PartnerID = payment.PartnerID
		preview.Available = payment.Unallocated()
	} else {
		if input.PartnerID == "" {
			return nil, domain.NewValidationError("partner_id", domain.ErrEmptySelection, "partner is required")
		}
		if !input.Amount.IsPositive() {
			return nil, domain.NewValidationError("amount", domain.ErrAmountOutOfBounds, "payment amount must be positive")
		}
	}
	preview.Available = domain.RoundAmount(preview.Available)

	invoices, err := uc.debtRepo.ListUnpaidInvoices(ctx, preview.PartnerID)
	if err != nil {
		return nil, err
	}
	domain.SortInvoicesFIFO(invoices)

	preview.Lines = domain.SuggestFIFO(preview.Available, invoices)
	preview.Total = domain.TotalAllocated(preview.Lines)

	uc.metrics.RecordPreview(workflowDebt)
	return preview, nil
}

// PreviewReverse lists the payment's current allocations with a full reversal
// suggested.
func (uc *DebtUseCase) PreviewReverse(ctx context.Context, paymentID string) (*DebtPreview, error) {
	if paymentID == "" {
		return nil, domain.NewValidationError("payment_id", domain.ErrPaymentNotPersisted, "")
	}

	payment, err := uc.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	allocations, err := uc.debtRepo.ListAllocationsByPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	lines := allocationLines(allocations)
	return &DebtPreview{
		PaymentID: payment.ID,
		PartnerID: payment.PartnerID,
		Available: payment.Allocated,
		Total:     domain.TotalAllocated(lines),
		Lines:     lines,
	}, nil
}

// DebtLineInput is one operator-confirmed (invoice, amount) pair.
type DebtLineInput struct {
	InvoiceID string
	Amount    decimal.Decimal
}

// DebtSubmitInput represents input for an allocation or reversal.
type DebtSubmitInput struct {
	PaymentID string
	Lines     []DebtLineInput
}

// DebtSubmitResult is the outcome of a submitted allocation or reversal.
type DebtSubmitResult struct {
	PaymentID string
	Total     decimal.Decimal
	Lines     []domain.DebtAllocationLine
}

// Allocate applies the confirmed amounts to invoices in one ledger transaction.
// Each amount must lie within the invoice's remaining amount and the total
// within the payment's unallocated amount.
func (uc *DebtUseCase) Allocate(ctx context.Context, input DebtSubmitInput) (*DebtSubmitResult, error) {
	return uc.submit(ctx, input, debtAllocate)
}

// Reverse releases previously allocated amounts in one ledger transaction.
func (uc *DebtUseCase) Reverse(ctx context.Context, input DebtSubmitInput) (*DebtSubmitResult, error) {
	return uc.submit(ctx, input, debtReverse)
}

type debtOp struct {
	name      string
	eventType string
}

var (
	debtAllocate = debtOp{name: "allocate", eventType: domain.EventTypeDebtAllocated}
	debtReverse  = debtOp{name: "reverse", eventType: domain.EventTypeDebtReversed}
)

func (uc *DebtUseCase) submit(ctx context.Context, input DebtSubmitInput, op debtOp) (*DebtSubmitResult, error) {
	lines, err := normalizeDebtLines(input)
	if err != nil {
		uc.metrics.RecordValidationFailure(workflowDebt)
		return nil, err
	}

	var result *DebtSubmitResult
	run := func() error {
		var err error
		result, err = uc.submitTx(ctx, input.PaymentID, lines, op)
		return err
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, run)
	} else {
		err = run()
	}

	if err != nil {
		if domain.IsValidation(err) {
			uc.metrics.RecordValidationFailure(workflowDebt)
			return nil, err
		}
		uc.metrics.RecordPostingError(op.name + " debt")
		uc.logger.Error().Err(err).Str("payment_id", input.PaymentID).Str("operation", op.name).Msg("debt submission failed")
		return nil, &domain.PostingError{Op: op.name + " payment " + input.PaymentID, Err: err}
	}

	amount, _ := result.Total.Float64()
	uc.metrics.RecordDebtAllocation(op.name, amount)
	uc.logger.Info().
		Str("payment_id", input.PaymentID).
		Str("operation", op.name).
		Str("total", domain.FormatAmount(result.Total)).
		Int("invoices", len(result.Lines)).
		Msg("debt submission applied")

	return result, nil
}

func (uc *DebtUseCase) submitTx(ctx context.Context, paymentID string, inputs []DebtLineInput, op debtOp) (*DebtSubmitResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	payment, err := uc.debtRepo.GetPaymentForUpdate(txCtx, tx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, domain.NewValidationError("payment_id", domain.ErrPaymentNotPersisted, paymentID)
		}
		return nil, err
	}

	var lines []domain.DebtAllocationLine
	if op == debtAllocate {
		lines, err = uc.allocationBounds(txCtx, tx, payment, inputs)
	} else {
		lines, err = uc.reversalBounds(txCtx, tx, payment, inputs)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if op == debtAllocate {
		err = uc.debtRepo.SaveAllocations(txCtx, tx, payment.ID, lines, now)
	} else {
		err = uc.debtRepo.ReverseAllocations(txCtx, tx, payment.ID, lines, now)
	}
	if err != nil {
		return nil, err
	}

	event := domain.NewDebtAllocationEvent(uc.idGen.Generate(), op.eventType, payment.ID, lines, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, fmt.Errorf("create outbox event: %w", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return &DebtSubmitResult{PaymentID: payment.ID, Total: domain.TotalAllocated(lines), Lines: lines}, nil
}

func (uc *DebtUseCase) allocationBounds(ctx context.Context, tx Transaction, payment *domain.Payment, inputs []DebtLineInput) ([]domain.DebtAllocationLine, error) {
	ids := make([]string, len(inputs))
	for i, in := range inputs {
		ids[i] = in.InvoiceID
	}

	invoices, err := uc.debtRepo.GetInvoicesForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	lines := make([]domain.DebtAllocationLine, 0, len(inputs))
	for _, in := range inputs {
		inv, ok := byID[in.InvoiceID]
		if !ok || inv.PartnerID != payment.PartnerID {
			return nil, domain.NewValidationError("invoice_id", domain.ErrInvoiceNotFound, in.InvoiceID)
		}

		line := domain.DebtAllocationLine{
			InvoiceDate:     inv.InvoiceDate,
			InvoiceID:       inv.ID,
			InvoiceNumber:   inv.Number,
			Limit:           inv.Remaining(),
			AllocatedAmount: in.Amount,
		}
		if err := line.CheckBounds(); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if total := domain.TotalAllocated(lines); total.GreaterThan(payment.Unallocated()) {
		return nil, domain.NewValidationError("lines", domain.ErrOverAllocated, fmt.Sprintf(
			"%s exceeds unallocated %s", domain.FormatAmount(total), domain.FormatAmount(payment.Unallocated()),
		))
	}

	return lines, nil
}

func (uc *DebtUseCase) reversalBounds(ctx context.Context, tx Transaction, payment *domain.Payment, inputs []DebtLineInput) ([]domain.DebtAllocationLine, error) {
	allocations, err := uc.debtRepo.GetAllocationsForUpdate(ctx, tx, payment.ID)
	if err != nil {
		return nil, err
	}
	byInvoice := make(map[string]*domain.DebtAllocation, len(allocations))
	for _, a := range allocations {
		byInvoice[a.InvoiceID] = a
	}

	lines := make([]domain.DebtAllocationLine, 0, len(inputs))
	for _, in := range inputs {
		a, ok := byInvoice[in.InvoiceID]
		if !ok {
			return nil, domain.NewValidationError("invoice_id", domain.ErrInvoiceNotFound, fmt.Sprintf(
				"%s has no allocation from payment %s", in.InvoiceID, payment.ID,
			))
		}

		line := domain.DebtAllocationLine{
			InvoiceDate:     a.InvoiceDate,
			InvoiceID:       a.InvoiceID,
			InvoiceNumber:   a.InvoiceNumber,
			Limit:           a.Amount,
			AllocatedAmount: in.Amount,
		}
		if err := line.CheckBounds(); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

func (uc *DebtUseCase) getPayment(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := uc.debtRepo.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, domain.NewValidationError("payment_id", domain.ErrPaymentNotPersisted, id)
		}
		return nil, err
	}
	return payment, nil
}

// normalizeDebtLines rounds amounts, drops zero lines and rejects malformed
// input before any ledger access.
func normalizeDebtLines(input DebtSubmitInput) ([]DebtLineInput, error) {
	if input.PaymentID == "" {
		return nil, domain.NewValidationError("payment_id", domain.ErrPaymentNotPersisted, "")
	}

	seen := make(map[string]struct{}, len(input.Lines))
	lines := make([]DebtLineInput, 0, len(input.Lines))
	for _, l := range input.Lines {
		if _, dup := seen[l.InvoiceID]; dup {
			return nil, domain.NewValidationError("invoice_id", domain.ErrDuplicateLine, l.InvoiceID)
		}
		seen[l.InvoiceID] = struct{}{}

		amount := domain.RoundAmount(l.Amount)
		if amount.IsNegative() {
			return nil, domain.NewValidationError("amount", domain.ErrAmountOutOfBounds, fmt.Sprintf(
				"invoice %s: %s is negative", l.InvoiceID, domain.FormatAmount(amount),
			))
		}
		if amount.IsZero() {
			continue
		}
		lines = append(lines, DebtLineInput{InvoiceID: l.InvoiceID, Amount: amount})
	}

	if len(lines) == 0 {
		return nil, domain.NewValidationError("lines", domain.ErrEmptySelection, "")
	}
	return lines, nil
}

func allocationLines(allocations []*domain.DebtAllocation) []domain.DebtAllocationLine {
	lines := make([]domain.DebtAllocationLine, 0, len(allocations))
	for _, a := range allocations {
		lines = append(lines, domain.DebtAllocationLine{
			InvoiceDate:     a.InvoiceDate,
			InvoiceID:       a.InvoiceID,
			InvoiceNumber:   a.InvoiceNumber,
			Limit:           a.Amount,
			AllocatedAmount: a.Amount,
		})
	}
	return lines
}
