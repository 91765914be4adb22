package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// Ledger is an in-memory ledger backing the fake repositories below. Writes
// made through a FakeTransaction are applied only on Commit.
type Ledger struct {
	mu          sync.RWMutex
	chart       map[string]domain.ChartAccount
	openings    map[string]decimal.Decimal
	vouchers    map[string]*domain.Voucher
	items       map[string]domain.PrepaidItem
	records     []domain.AllocationRecord
	payments    map[string]*domain.Payment
	invoices    map[string]*domain.Invoice
	debt        map[string]map[string]*domain.DebtAllocation
	events      []*domain.OutboxEvent
	lockedUntil time.Time
	failures    map[string]error
	calls       atomic.Int64
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		chart:    make(map[string]domain.ChartAccount),
		openings: make(map[string]decimal.Decimal),
		vouchers: make(map[string]*domain.Voucher),
		items:    make(map[string]domain.PrepaidItem),
		payments: make(map[string]*domain.Payment),
		invoices: make(map[string]*domain.Invoice),
		debt:     make(map[string]map[string]*domain.DebtAllocation),
		failures: make(map[string]error),
	}
}

// AddAccount adds a chart entry with an opening net balance.
func (l *Ledger) AddAccount(a domain.ChartAccount, opening decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chart[a.Code] = a
	l.openings[a.Code] = opening
}

// AddItem adds a prepaid item. RemainingValue is derived from history.
func (l *Ledger) AddItem(item domain.PrepaidItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[item.ID] = item
}

// AddPayment adds a persisted payment.
func (l *Ledger) AddPayment(p domain.Payment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payments[p.ID] = &p
}

// AddInvoice adds a partner invoice.
func (l *Ledger) AddInvoice(inv domain.Invoice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invoices[inv.ID] = &inv
}

// Fail makes the named operation return err. Names are "<repo>.<method>",
// optionally suffixed with ":<id>" for per-item failures.
func (l *Ledger) Fail(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[op] = err
}

// Calls returns how many repository or transaction calls were made.
func (l *Ledger) Calls() int64 {
	return l.calls.Load()
}

// Vouchers returns the posted vouchers ordered by creation.
func (l *Ledger) Vouchers() []*domain.Voucher {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.Voucher, 0, len(l.vouchers))
	for _, v := range l.vouchers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Records returns the allocation history.
func (l *Ledger) Records() []domain.AllocationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.AllocationRecord(nil), l.records...)
}

// Events returns the outbox events.
func (l *Ledger) Events() []*domain.OutboxEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), l.events...)
}

// Invoice returns a copy of the invoice.
func (l *Ledger) Invoice(id string) domain.Invoice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.invoices[id]
}

// Payment returns a copy of the payment.
func (l *Ledger) Payment(id string) domain.Payment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.payments[id]
}

func (l *Ledger) enter(op string, ids ...string) error {
	l.calls.Add(1)
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, id := range ids {
		if err, ok := l.failures[op+":"+id]; ok {
			return err
		}
	}
	return l.failures[op]
}

// allocatedFor sums the history of itemID up to and including period.
func (l *Ledger) allocatedFor(period domain.Period, itemID string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.records {
		if r.ItemID == itemID && r.Period.String() <= period.String() {
			total = total.Add(r.Amount)
		}
	}
	return total
}

func (l *Ledger) hasRecord(period domain.Period, itemID string) bool {
	for _, r := range l.records {
		if r.Period == period && r.ItemID == itemID {
			return true
		}
	}
	return false
}

func later(tx usecase.Transaction, apply func()) error {
	ftx, ok := tx.(*FakeTransaction)
	if !ok {
		return errors.New("fake repositories need a FakeTransaction")
	}
	ftx.ops = append(ftx.ops, apply)
	return nil
}

// FakeTransactionManager implements usecase.TransactionManager over a Ledger.
type FakeTransactionManager struct {
	l *Ledger
}

// TxManager returns a transaction manager bound to l.
func (l *Ledger) TxManager() *FakeTransactionManager {
	return &FakeTransactionManager{l: l}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.l.enter("tx.begin"); err != nil {
		return nil, err
	}
	return &FakeTransaction{l: m.l}, nil
}

// FakeTransaction buffers writes until Commit.
type FakeTransaction struct {
	l         *Ledger
	ops       []func()
	committed bool
}

func (t *FakeTransaction) Commit(ctx context.Context) error {
	if err := t.l.enter("tx.commit"); err != nil {
		return err
	}
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	for _, op := range t.ops {
		op()
	}
	t.committed = true
	return nil
}

func (t *FakeTransaction) Rollback(ctx context.Context) error {
	t.ops = nil
	return nil
}

// FakeBalanceRepository implements usecase.BalanceRepository.
type FakeBalanceRepository struct{ l *Ledger }

// BalanceRepo returns the balance repository of l.
func (l *Ledger) BalanceRepo() *FakeBalanceRepository { return &FakeBalanceRepository{l: l} }

func (r *FakeBalanceRepository) ListBalances(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error) {
	if err := r.l.enter("balance.list"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	net := make(map[string]decimal.Decimal, len(r.l.openings))
	for code, amt := range r.l.openings {
		net[code] = amt
	}
	for _, v := range r.l.vouchers {
		if !asOf.IsZero() && v.PostDate.After(asOf) {
			continue
		}
		for _, line := range v.Lines {
			net[line.DebitAccount] = net[line.DebitAccount].Add(line.Amount)
			net[line.CreditAccount] = net[line.CreditAccount].Sub(line.Amount)
		}
	}

	out := make([]domain.AccountBalance, 0, len(net))
	for code, amt := range net {
		out = append(out, domain.AccountBalance{Code: code, NetBalance: amt})
	}
	return out, nil
}

// FakeChartRepository implements usecase.ChartRepository.
type FakeChartRepository struct{ l *Ledger }

// ChartRepo returns the chart repository of l.
func (l *Ledger) ChartRepo() *FakeChartRepository { return &FakeChartRepository{l: l} }

func (r *FakeChartRepository) ListAccounts(ctx context.Context) ([]domain.ChartAccount, error) {
	if err := r.l.enter("chart.list"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	out := make([]domain.ChartAccount, 0, len(r.l.chart))
	for _, a := range r.l.chart {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// FakeAllocationRepository implements usecase.AllocationRepository.
type FakeAllocationRepository struct{ l *Ledger }

// AllocationRepo returns the allocation repository of l.
func (l *Ledger) AllocationRepo() *FakeAllocationRepository { return &FakeAllocationRepository{l: l} }

func (r *FakeAllocationRepository) ListAllocatableItems(ctx context.Context, period domain.Period, sourceAccount string) ([]domain.PrepaidItem, error) {
	if err := r.l.enter("allocation.list"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	var out []domain.PrepaidItem
	for _, item := range r.l.items {
		if item.SourceAccount != "" && item.SourceAccount != sourceAccount {
			continue
		}
		item.AccumulatedAllocated = item.AccumulatedAllocated.Add(r.l.allocatedFor(period, item.ID))
		item.RemainingValue = item.Cost.Sub(item.AccumulatedAllocated)
		if item.RemainingValue.IsPositive() || r.l.hasRecord(period, item.ID) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FakeAllocationRepository) Exists(ctx context.Context, period domain.Period, itemID string) (bool, error) {
	if err := r.l.enter("allocation.exists", itemID); err != nil {
		return false, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return r.l.hasRecord(period, itemID), nil
}

func (r *FakeAllocationRepository) ExistsForUpdate(ctx context.Context, tx usecase.Transaction, period domain.Period, itemIDs []string) ([]string, error) {
	if err := r.l.enter("allocation.exists_for_update"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var hits []string
	for _, id := range itemIDs {
		if r.l.hasRecord(period, id) {
			hits = append(hits, id)
		}
	}
	return hits, nil
}

func (r *FakeAllocationRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.AllocationRecord) error {
	if err := r.l.enter("allocation.create", record.ItemID); err != nil {
		return err
	}
	rec := *record
	return later(tx, func() { r.l.records = append(r.l.records, rec) })
}

func (r *FakeAllocationRepository) DeleteByVoucher(ctx context.Context, tx usecase.Transaction, voucherID string) (int64, error) {
	if err := r.l.enter("allocation.delete"); err != nil {
		return 0, err
	}
	r.l.mu.RLock()
	var n int64
	for _, rec := range r.l.records {
		if rec.VoucherID == voucherID {
			n++
		}
	}
	r.l.mu.RUnlock()

	return n, later(tx, func() {
		kept := r.l.records[:0]
		for _, rec := range r.l.records {
			if rec.VoucherID != voucherID {
				kept = append(kept, rec)
			}
		}
		r.l.records = kept
	})
}

// ListAllocationChecks implements usecase.ReconciliationRepository.
func (r *FakeAllocationRepository) ListAllocationChecks(ctx context.Context, period domain.Period) ([]domain.AllocationCheck, error) {
	if err := r.l.enter("allocation.checks"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	var checks []domain.AllocationCheck
	for _, v := range r.l.vouchers {
		if v.Type != domain.VoucherTypeAllocation || v.Period != period || v.ReversesVoucherID != nil {
			continue
		}
		recorded := decimal.Zero
		for _, rec := range r.l.records {
			if rec.VoucherID == v.ID {
				recorded = recorded.Add(rec.Amount)
			}
		}
		checks = append(checks, domain.AllocationCheck{
			VoucherID:    v.ID,
			DocNo:        v.DocNo,
			VoucherTotal: v.TotalAmount,
			Recorded:     recorded,
			Reversed:     v.ReversedAt != nil,
		})
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].VoucherID < checks[j].VoucherID })
	return checks, nil
}

// DropRecords removes the history rows of itemID without touching vouchers.
func (l *Ledger) DropRecords(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.records[:0]
	for _, rec := range l.records {
		if rec.ItemID != itemID {
			kept = append(kept, rec)
		}
	}
	l.records = kept
}

// FakeVoucherRepository implements usecase.VoucherRepository.
type FakeVoucherRepository struct{ l *Ledger }

// VoucherRepo returns the voucher repository of l.
func (l *Ledger) VoucherRepo() *FakeVoucherRepository { return &FakeVoucherRepository{l: l} }

func (r *FakeVoucherRepository) Create(ctx context.Context, tx usecase.Transaction, voucher *domain.Voucher) error {
	if err := r.l.enter("voucher.create"); err != nil {
		return err
	}
	v := *voucher
	v.Lines = append([]domain.VoucherLine(nil), voucher.Lines...)
	return later(tx, func() { r.l.vouchers[v.ID] = &v })
}

func (r *FakeVoucherRepository) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	if err := r.l.enter("voucher.get"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	v, ok := r.l.vouchers[id]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *FakeVoucherRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Voucher, error) {
	return r.GetByID(ctx, id)
}

func (r *FakeVoucherRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string, reversedAt time.Time) error {
	if err := r.l.enter("voucher.mark_reversed"); err != nil {
		return err
	}
	return later(tx, func() {
		if v, ok := r.l.vouchers[id]; ok {
			at := reversedAt
			v.ReversedAt = &at
		}
	})
}

// FakeDebtRepository implements usecase.DebtRepository.
type FakeDebtRepository struct{ l *Ledger }

// DebtRepo returns the debt repository of l.
func (l *Ledger) DebtRepo() *FakeDebtRepository { return &FakeDebtRepository{l: l} }

func (r *FakeDebtRepository) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	if err := r.l.enter("debt.get_payment"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	p, ok := r.l.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *FakeDebtRepository) GetPaymentForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	return r.GetPayment(ctx, id)
}

func (r *FakeDebtRepository) ListUnpaidInvoices(ctx context.Context, partnerID string) ([]*domain.Invoice, error) {
	if err := r.l.enter("debt.list_invoices"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var out []*domain.Invoice
	for _, inv := range r.l.invoices {
		if inv.PartnerID == partnerID && inv.Remaining().IsPositive() {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FakeDebtRepository) GetInvoicesForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Invoice, error) {
	if err := r.l.enter("debt.get_invoices"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var out []*domain.Invoice
	for _, id := range ids {
		if inv, ok := r.l.invoices[id]; ok {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *FakeDebtRepository) ListAllocationsByPayment(ctx context.Context, paymentID string) ([]*domain.DebtAllocation, error) {
	if err := r.l.enter("debt.list_allocations"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var out []*domain.DebtAllocation
	for _, a := range r.l.debt[paymentID] {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	return out, nil
}

func (r *FakeDebtRepository) GetAllocationsForUpdate(ctx context.Context, tx usecase.Transaction, paymentID string) ([]*domain.DebtAllocation, error) {
	return r.ListAllocationsByPayment(ctx, paymentID)
}

func (r *FakeDebtRepository) SaveAllocations(ctx context.Context, tx usecase.Transaction, paymentID string, lines []domain.DebtAllocationLine, at time.Time) error {
	if err := r.l.enter("debt.save"); err != nil {
		return err
	}
	lines = append([]domain.DebtAllocationLine(nil), lines...)
	return later(tx, func() {
		byInvoice := r.l.debt[paymentID]
		if byInvoice == nil {
			byInvoice = make(map[string]*domain.DebtAllocation)
			r.l.debt[paymentID] = byInvoice
		}
		for _, line := range lines {
			a, ok := byInvoice[line.InvoiceID]
			if !ok {
				a = &domain.DebtAllocation{
					PaymentID:     paymentID,
					InvoiceID:     line.InvoiceID,
					InvoiceNumber: line.InvoiceNumber,
					InvoiceDate:   line.InvoiceDate,
					Amount:        decimal.Zero,
				}
				byInvoice[line.InvoiceID] = a
			}
			a.Amount = a.Amount.Add(line.AllocatedAmount)
			r.l.invoices[line.InvoiceID].Paid = r.l.invoices[line.InvoiceID].Paid.Add(line.AllocatedAmount)
			r.l.payments[paymentID].Allocated = r.l.payments[paymentID].Allocated.Add(line.AllocatedAmount)
		}
	})
}

func (r *FakeDebtRepository) ReverseAllocations(ctx context.Context, tx usecase.Transaction, paymentID string, lines []domain.DebtAllocationLine, at time.Time) error {
	if err := r.l.enter("debt.reverse"); err != nil {
		return err
	}
	lines = append([]domain.DebtAllocationLine(nil), lines...)
	return later(tx, func() {
		byInvoice := r.l.debt[paymentID]
		for _, line := range lines {
			a, ok := byInvoice[line.InvoiceID]
			if !ok {
				panic(fmt.Sprintf("no allocation of %s to %s", paymentID, line.InvoiceID))
			}
			a.Amount = a.Amount.Sub(line.AllocatedAmount)
			if a.Amount.IsZero() {
				delete(byInvoice, line.InvoiceID)
			}
			r.l.invoices[line.InvoiceID].Paid = r.l.invoices[line.InvoiceID].Paid.Sub(line.AllocatedAmount)
			r.l.payments[paymentID].Allocated = r.l.payments[paymentID].Allocated.Sub(line.AllocatedAmount)
		}
	})
}

// FakeSettingsRepository implements usecase.SettingsRepository.
type FakeSettingsRepository struct{ l *Ledger }

// SettingsRepo returns the settings repository of l.
func (l *Ledger) SettingsRepo() *FakeSettingsRepository { return &FakeSettingsRepository{l: l} }

func (r *FakeSettingsRepository) GetLockedUntil(ctx context.Context) (time.Time, error) {
	if err := r.l.enter("settings.get"); err != nil {
		return time.Time{}, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return r.l.lockedUntil, nil
}

func (r *FakeSettingsRepository) SetLockedUntil(ctx context.Context, lockedUntil time.Time) error {
	if err := r.l.enter("settings.set"); err != nil {
		return err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	r.l.lockedUntil = lockedUntil
	return nil
}

// FakeOutboxRepository implements usecase.OutboxRepository.
type FakeOutboxRepository struct{ l *Ledger }

// OutboxRepo returns the outbox repository of l.
func (l *Ledger) OutboxRepo() *FakeOutboxRepository { return &FakeOutboxRepository{l: l} }

func (r *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if err := r.l.enter("outbox.create"); err != nil {
		return err
	}
	ev := *event
	return later(tx, func() { r.l.events = append(r.l.events, &ev) })
}

func (r *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if err := r.l.enter("outbox.unpublished"); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, ev := range r.l.events {
		if !ev.Published && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *FakeOutboxRepository) CountUnpublished(ctx context.Context) (int64, error) {
	if err := r.l.enter("outbox.count"); err != nil {
		return 0, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var n int64
	for _, ev := range r.l.events {
		if !ev.Published {
			n++
		}
	}
	return n, nil
}

func (r *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if err := r.l.enter("outbox.mark_published"); err != nil {
		return err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, ev := range r.l.events {
		if ev.ID == id {
			at := publishedAt
			ev.Published = true
			ev.PublishedAt = &at
		}
	}
	return nil
}

func (r *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := r.l.enter("outbox.delete_published"); err != nil {
		return err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	kept := r.l.events[:0]
	for _, ev := range r.l.events {
		if !ev.Published || ev.PublishedAt == nil || !ev.PublishedAt.Before(before) {
			kept = append(kept, ev)
		}
	}
	r.l.events = kept
	return nil
}

// SequenceIDGenerator returns prefix-1, prefix-2, ...
type SequenceIDGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSequenceIDGenerator creates a SequenceIDGenerator.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

func (g *SequenceIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%06d", g.prefix, g.n.Add(1))
}

// FixedLocker implements usecase.PeriodLocker with a constant cutoff.
type FixedLocker struct {
	Until time.Time
}

func (f FixedLocker) LockedUntil() time.Time {
	return f.Until
}
