package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// BalanceResponse represents one account of a balance snapshot.
type BalanceResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name,omitempty"`
	Class      string `json:"class"`
	Currency   string `json:"currency,omitempty"`
	NetBalance string `json:"net_balance"`
}

// BalancesFromDomain converts a snapshot to responses.
func BalancesFromDomain(balances []domain.AccountBalance) []BalanceResponse {
	result := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceResponse{
			Code:       b.Code,
			Name:       b.Name,
			Class:      string(b.Class),
			Currency:   b.Currency,
			NetBalance: b.NetBalance.String(),
		}
	}
	return result
}

// PeriodLockResponse represents the lock cutoff.
type PeriodLockResponse struct {
	LockedUntil string `json:"locked_until,omitempty"`
}

// PeriodLockFromDate converts a cutoff date to a response.
func PeriodLockFromDate(lockedUntil time.Time) PeriodLockResponse {
	return PeriodLockResponse{LockedUntil: formatDate(lockedUntil)}
}

// VoucherLineResponse represents a voucher line.
type VoucherLineResponse struct {
	ID            string `json:"id,omitempty"`
	Description   string `json:"description,omitempty"`
	DebitAccount  string `json:"debit_account"`
	CreditAccount string `json:"credit_account"`
	Amount        string `json:"amount"`
	ItemID        string `json:"item_id,omitempty"`
}

// VoucherLinesFromDomain converts voucher lines to responses.
func VoucherLinesFromDomain(lines []domain.VoucherLine) []VoucherLineResponse {
	result := make([]VoucherLineResponse, len(lines))
	for i, l := range lines {
		result[i] = VoucherLineResponse{
			ID:            l.ID,
			Description:   l.Description,
			DebitAccount:  l.DebitAccount,
			CreditAccount: l.CreditAccount,
			Amount:        l.Amount.String(),
			ItemID:        l.ItemID,
		}
	}
	return result
}

// VoucherResponse represents a posted voucher.
type VoucherResponse struct {
	ID                string                `json:"id"`
	DocNo             string                `json:"doc_no"`
	Type              string                `json:"type"`
	Period            string                `json:"period"`
	DocDate           string                `json:"doc_date"`
	PostDate          string                `json:"post_date"`
	Description       string                `json:"description,omitempty"`
	TotalAmount       string                `json:"total_amount"`
	ReversesVoucherID *string               `json:"reverses_voucher_id,omitempty"`
	ReversedAt        *time.Time            `json:"reversed_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	Lines             []VoucherLineResponse `json:"lines"`
}

// VoucherFromDomain converts a domain voucher to a response.
func VoucherFromDomain(v *domain.Voucher) *VoucherResponse {
	if v == nil {
		return nil
	}
	return &VoucherResponse{
		ID:                v.ID,
		DocNo:             v.DocNo,
		Type:              string(v.Type),
		Period:            v.Period.String(),
		DocDate:           formatDate(v.DocDate),
		PostDate:          formatDate(v.PostDate),
		Description:       v.Description,
		TotalAmount:       v.TotalAmount.String(),
		ReversesVoucherID: v.ReversesVoucherID,
		ReversedAt:        v.ReversedAt,
		CreatedAt:         v.CreatedAt,
		Lines:             VoucherLinesFromDomain(v.Lines),
	}
}

// AllocationItemResponse represents one amortizable item of a preview.
type AllocationItemResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ItemType         string `json:"item_type,omitempty"`
	SourceAccount    string `json:"source_account"`
	TotalCost        string `json:"total_cost"`
	LifeMonths       int    `json:"life_months"`
	MonthlyAmount    string `json:"monthly_amount"`
	PeriodsAllocated int    `json:"periods_allocated"`
	PeriodsRemaining int    `json:"periods_remaining"`
	RemainingValue   string `json:"remaining_value"`
	ProposedAmount   string `json:"proposed_amount"`
	AlreadyAllocated bool   `json:"already_allocated"`
	Selected         bool   `json:"selected"`
}

// WarningResponse is an informational message attached to a preview.
type WarningResponse struct {
	ItemID  string `json:"item_id"`
	Period  string `json:"period"`
	Message string `json:"message"`
}

// AllocationPreviewResponse represents an allocation preview.
type AllocationPreviewResponse struct {
	Period         string                   `json:"period"`
	SourceAccount  string                   `json:"source_account"`
	TargetAccount  string                   `json:"target_account,omitempty"`
	TargetAccounts []string                 `json:"target_accounts"`
	SelectedTotal  string                   `json:"selected_total"`
	Items          []AllocationItemResponse `json:"items"`
	Warnings       []WarningResponse        `json:"warnings,omitempty"`
}

// AllocationPreviewFromUseCase converts a preview to a response.
func AllocationPreviewFromUseCase(p *usecase.AllocationPreview, targets []string) *AllocationPreviewResponse {
	resp := &AllocationPreviewResponse{
		Period:         p.Period.String(),
		SourceAccount:  p.SourceAccount,
		TargetAccount:  p.TargetAccount,
		TargetAccounts: targets,
		SelectedTotal:  p.SelectedTotal.String(),
		Items:          make([]AllocationItemResponse, len(p.Items)),
	}

	for i, item := range p.Items {
		resp.Items[i] = AllocationItemResponse{
			ID:               item.ID,
			Name:             item.Name,
			ItemType:         item.ItemType,
			SourceAccount:    item.SourceAccount,
			TotalCost:        item.TotalCost.String(),
			LifeMonths:       item.LifeMonths,
			MonthlyAmount:    item.MonthlyAmount.String(),
			PeriodsAllocated: item.PeriodsAllocated,
			PeriodsRemaining: item.PeriodsRemaining,
			RemainingValue:   item.RemainingValue.String(),
			ProposedAmount:   item.ProposedAmount.String(),
			AlreadyAllocated: item.AlreadyAllocated,
			Selected:         item.Selected,
		}
	}

	for _, w := range p.Warnings {
		resp.Warnings = append(resp.Warnings, WarningResponse{
			ItemID:  w.ItemID,
			Period:  w.Period.String(),
			Message: w.String(),
		})
	}

	return resp
}

// AllocationRecordResponse represents a persisted allocation history row.
type AllocationRecordResponse struct {
	ID            string `json:"id"`
	ItemID        string `json:"item_id"`
	TargetAccount string `json:"target_account"`
	Amount        string `json:"amount"`
}

// AllocationExecuteResponse represents a posted allocation.
type AllocationExecuteResponse struct {
	Voucher *VoucherResponse           `json:"voucher"`
	Records []AllocationRecordResponse `json:"records"`
}

// AllocationExecuteFromUseCase converts an execution result to a response.
func AllocationExecuteFromUseCase(res *usecase.AllocationExecuteResult) *AllocationExecuteResponse {
	resp := &AllocationExecuteResponse{
		Voucher: VoucherFromDomain(res.Voucher),
		Records: make([]AllocationRecordResponse, len(res.Records)),
	}
	for i, r := range res.Records {
		resp.Records[i] = AllocationRecordResponse{
			ID:            r.ID,
			ItemID:        r.ItemID,
			TargetAccount: r.TargetAccount,
			Amount:        r.Amount.String(),
		}
	}
	return resp
}

// FxAccountResponse represents one restated monetary account.
type FxAccountResponse struct {
	Code           string  `json:"code"`
	Name           string  `json:"name,omitempty"`
	Class          string  `json:"class"`
	ForeignAmount  *string `json:"foreign_amount,omitempty"`
	BookValueLocal string  `json:"book_value_local"`
	BookRate       string  `json:"book_rate"`
	RevaluedValue  string  `json:"revalued_value"`
	Diff           string  `json:"diff"`
}

// RevaluationPreviewResponse represents a revaluation preview.
type RevaluationPreviewResponse struct {
	Period          string                `json:"period"`
	PostDate        string                `json:"post_date"`
	Currency        string                `json:"currency,omitempty"`
	NewRate         string                `json:"new_rate"`
	TotalGain       string                `json:"total_gain"`
	TotalLoss       string                `json:"total_loss"`
	Accounts        []FxAccountResponse   `json:"accounts"`
	Lines           []VoucherLineResponse `json:"lines"`
	MissingAmounts  []string              `json:"missing_foreign_amounts,omitempty"`
	PostingDisabled bool                  `json:"posting_disabled"`
}

// RevaluationPreviewFromUseCase converts a preview to a response.
func RevaluationPreviewFromUseCase(p *usecase.RevaluationPreview) *RevaluationPreviewResponse {
	resp := &RevaluationPreviewResponse{
		Period:          p.Period.String(),
		PostDate:        formatDate(p.PostDate),
		Currency:        p.Currency,
		NewRate:         p.NewRate.String(),
		TotalGain:       p.TotalGain.String(),
		TotalLoss:       p.TotalLoss.String(),
		Accounts:        make([]FxAccountResponse, len(p.Accounts)),
		Lines:           VoucherLinesFromDomain(p.Lines),
		MissingAmounts:  p.MissingCode,
		PostingDisabled: len(p.MissingCode) > 0 || len(p.Lines) == 0,
	}

	for i, a := range p.Accounts {
		resp.Accounts[i] = FxAccountResponse{
			Code:           a.Code,
			Name:           a.Name,
			Class:          string(a.Class),
			ForeignAmount:  decimalPtrString(a.ForeignAmount),
			BookValueLocal: a.BookValueLocal.String(),
			BookRate:       a.BookRate.String(),
			RevaluedValue:  a.RevaluedValue.String(),
			Diff:           a.Diff.String(),
		}
	}

	return resp
}

// RevaluationExecuteResponse represents a posted revaluation.
type RevaluationExecuteResponse struct {
	Voucher *VoucherResponse            `json:"voucher"`
	Preview *RevaluationPreviewResponse `json:"preview"`
}

// ClosingBalanceResponse is a revenue or expense balance being zeroed.
type ClosingBalanceResponse struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Class   string `json:"class"`
	Balance string `json:"balance"`
}

// ClosingPreviewResponse represents a closing preview.
type ClosingPreviewResponse struct {
	Period       string                   `json:"period"`
	PostDate     string                   `json:"post_date"`
	LockedUntil  string                   `json:"locked_until,omitempty"`
	Locked       bool                     `json:"locked"`
	TotalRevenue string                   `json:"total_revenue"`
	TotalExpense string                   `json:"total_expense"`
	Profit       string                   `json:"profit"`
	Revenue      []ClosingBalanceResponse `json:"revenue"`
	Expense      []ClosingBalanceResponse `json:"expense"`
	Lines        []VoucherLineResponse    `json:"lines"`
}

// ClosingPreviewFromUseCase converts a preview to a response.
func ClosingPreviewFromUseCase(p *usecase.ClosingPreview) *ClosingPreviewResponse {
	return &ClosingPreviewResponse{
		Period:       p.Period.String(),
		PostDate:     formatDate(p.PostDate),
		LockedUntil:  formatDate(p.LockedUntil),
		Locked:       p.Locked,
		TotalRevenue: p.TotalRevenue.String(),
		TotalExpense: p.TotalExpense.String(),
		Profit:       p.Profit.String(),
		Revenue:      closingBalances(p.Revenue),
		Expense:      closingBalances(p.Expense),
		Lines:        VoucherLinesFromDomain(p.Lines),
	}
}

func closingBalances(lines []domain.ClosingLine) []ClosingBalanceResponse {
	result := make([]ClosingBalanceResponse, len(lines))
	for i, l := range lines {
		result[i] = ClosingBalanceResponse{Code: l.Code, Name: l.Name, Class: string(l.Class), Balance: l.Balance.String()}
	}
	return result
}

// ClosingExecuteResponse represents a posted closing.
type ClosingExecuteResponse struct {
	Voucher *VoucherResponse        `json:"voucher"`
	Preview *ClosingPreviewResponse `json:"preview"`
}

// DebtLineResponse is one (invoice, amount) pair.
type DebtLineResponse struct {
	InvoiceID       string `json:"invoice_id"`
	InvoiceNumber   string `json:"invoice_number,omitempty"`
	InvoiceDate     string `json:"invoice_date,omitempty"`
	Limit           string `json:"limit"`
	AllocatedAmount string `json:"allocated_amount"`
}

// DebtPreviewResponse represents a suggested distribution or reversal candidates.
type DebtPreviewResponse struct {
	PaymentID string             `json:"payment_id,omitempty"`
	PartnerID string             `json:"partner_id"`
	Available string             `json:"available"`
	Total     string             `json:"total"`
	Lines     []DebtLineResponse `json:"lines"`
}

// DebtPreviewFromUseCase converts a preview to a response.
func DebtPreviewFromUseCase(p *usecase.DebtPreview) *DebtPreviewResponse {
	return &DebtPreviewResponse{
		PaymentID: p.PaymentID,
		PartnerID: p.PartnerID,
		Available: p.Available.String(),
		Total:     p.Total.String(),
		Lines:     debtLines(p.Lines),
	}
}

// DebtSubmitResponse represents an applied allocation or reversal.
type DebtSubmitResponse struct {
	PaymentID string             `json:"payment_id"`
	Total     string             `json:"total"`
	Lines     []DebtLineResponse `json:"lines"`
}

// DebtSubmitFromUseCase converts a submission result to a response.
func DebtSubmitFromUseCase(res *usecase.DebtSubmitResult) *DebtSubmitResponse {
	return &DebtSubmitResponse{
		PaymentID: res.PaymentID,
		Total:     res.Total.String(),
		Lines:     debtLines(res.Lines),
	}
}

func debtLines(lines []domain.DebtAllocationLine) []DebtLineResponse {
	result := make([]DebtLineResponse, len(lines))
	for i, l := range lines {
		result[i] = DebtLineResponse{
			InvoiceID:       l.InvoiceID,
			InvoiceNumber:   l.InvoiceNumber,
			InvoiceDate:     formatDate(l.InvoiceDate),
			Limit:           l.Limit.String(),
			AllocatedAmount: l.AllocatedAmount.String(),
		}
	}
	return result
}

// AllocationCheckResponse is one allocation voucher whose history disagrees with it.
type AllocationCheckResponse struct {
	VoucherID    string `json:"voucher_id"`
	DocNo        string `json:"doc_no"`
	VoucherTotal string `json:"voucher_total"`
	Recorded     string `json:"recorded"`
	Expected     string `json:"expected"`
	Difference   string `json:"difference"`
	Reversed     bool   `json:"reversed"`
}

// ReconciliationResponse represents a reconciliation report.
type ReconciliationResponse struct {
	Period         string                    `json:"period"`
	CheckedAt      time.Time                 `json:"checked_at"`
	Vouchers       int                       `json:"vouchers"`
	Discrepancies  []AllocationCheckResponse `json:"discrepancies"`
	TrialBalance   string                    `json:"trial_balance"`
	LedgerBalanced bool                      `json:"ledger_balanced"`
	Consistent     bool                      `json:"consistent"`
}

// ReconciliationFromUseCase converts a report to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) ReconciliationResponse {
	resp := ReconciliationResponse{
		Period:         r.Period.String(),
		CheckedAt:      r.CheckedAt,
		Vouchers:       r.Vouchers,
		Discrepancies:  make([]AllocationCheckResponse, 0, len(r.Discrepancies)),
		TrialBalance:   r.TrialBalance.String(),
		LedgerBalanced: r.LedgerBalanced,
		Consistent:     r.Consistent,
	}
	for _, c := range r.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, AllocationCheckResponse{
			VoucherID:    c.VoucherID,
			DocNo:        c.DocNo,
			VoucherTotal: c.VoucherTotal.String(),
			Recorded:     c.Recorded.String(),
			Expected:     c.Expected().String(),
			Difference:   c.Difference().String(),
			Reversed:     c.Reversed,
		})
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func decimalPtrString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
