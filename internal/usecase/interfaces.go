package usecase

import (
	"context"
	"time"

	"github.com/iho/periodclose/internal/domain"
)

// BalanceRepository reads account balances from the ledger.
type BalanceRepository interface {
	// ListBalances returns debits minus credits per account for vouchers
	// posted on or before asOf. A zero asOf includes every posted voucher.
	ListBalances(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error)
}

// ChartRepository defines data access for the chart of accounts.
type ChartRepository interface {
	ListAccounts(ctx context.Context) ([]domain.ChartAccount, error)
}

// AllocationRepository defines data access for prepaid items and allocation history.
type AllocationRepository interface {
	ListAllocatableItems(ctx context.Context, period domain.Period, sourceAccount string) ([]domain.PrepaidItem, error)
	Exists(ctx context.Context, period domain.Period, itemID string) (bool, error)
	// ExistsForUpdate locks the history rows of itemIDs for period and returns the IDs already allocated.
	ExistsForUpdate(ctx context.Context, tx Transaction, period domain.Period, itemIDs []string) ([]string, error)
	Create(ctx context.Context, tx Transaction, record *domain.AllocationRecord) error
	DeleteByVoucher(ctx context.Context, tx Transaction, voucherID string) (int64, error)
}

// VoucherRepository defines data access for vouchers.
type VoucherRepository interface {
	Create(ctx context.Context, tx Transaction, voucher *domain.Voucher) error
	GetByID(ctx context.Context, id string) (*domain.Voucher, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Voucher, error)
	MarkReversed(ctx context.Context, tx Transaction, id string, reversedAt time.Time) error
}

// DebtRepository defines data access for partner payments, invoices and their matches.
type DebtRepository interface {
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	GetPaymentForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Payment, error)
	ListUnpaidInvoices(ctx context.Context, partnerID string) ([]*domain.Invoice, error)
	GetInvoicesForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Invoice, error)
	ListAllocationsByPayment(ctx context.Context, paymentID string) ([]*domain.DebtAllocation, error)
	GetAllocationsForUpdate(ctx context.Context, tx Transaction, paymentID string) ([]*domain.DebtAllocation, error)
	SaveAllocations(ctx context.Context, tx Transaction, paymentID string, lines []domain.DebtAllocationLine, at time.Time) error
	ReverseAllocations(ctx context.Context, tx Transaction, paymentID string, lines []domain.DebtAllocationLine, at time.Time) error
}

// SettingsRepository persists ledger-wide settings.
type SettingsRepository interface {
	GetLockedUntil(ctx context.Context) (time.Time, error)
	SetLockedUntil(ctx context.Context, lockedUntil time.Time) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	CountUnpublished(ctx context.Context) (int64, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ReconciliationRepository exposes the cross-checks between vouchers and history.
type ReconciliationRepository interface {
	ListAllocationChecks(ctx context.Context, period domain.Period) ([]domain.AllocationCheck, error)
}

// PeriodLocker exposes the posting cutoff without I/O.
type PeriodLocker interface {
	LockedUntil() time.Time
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyPending is the stored value while the first request holding a key is still running.
const IdempotencyPending = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet claims key, or reports it taken together with the stored
	// value (IdempotencyPending while the owner is still running).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update stores the final response under a claimed key.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a still pending claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
