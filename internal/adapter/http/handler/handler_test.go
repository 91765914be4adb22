package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

var march = domain.Period{Year: 2025, Month: time.March}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type balanceServiceStub struct {
	snapshotFn    func(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error)
	invalidateErr error
	invalidated   int
}

func (s *balanceServiceStub) Snapshot(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error) {
	return s.snapshotFn(ctx, asOf)
}

func (s *balanceServiceStub) InvalidateChart(context.Context) error {
	s.invalidated++
	return s.invalidateErr
}

type periodLockStub struct {
	lockedUntil time.Time
	setErr      error
}

func (s *periodLockStub) LockedUntil() time.Time { return s.lockedUntil }

func (s *periodLockStub) SetLockedUntil(_ context.Context, t time.Time) (time.Time, error) {
	if s.setErr != nil {
		return time.Time{}, s.setErr
	}
	s.lockedUntil = t
	return t, nil
}

type allocationServiceStub struct {
	previewFn func(ctx context.Context, input usecase.AllocationPreviewInput) (*usecase.AllocationPreview, error)
	executeFn func(ctx context.Context, input usecase.AllocationExecuteInput) (*usecase.AllocationExecuteResult, error)
	reverseFn func(ctx context.Context, input usecase.ReverseInput) (*domain.Voucher, error)
}

func (s *allocationServiceStub) Preview(ctx context.Context, input usecase.AllocationPreviewInput) (*usecase.AllocationPreview, error) {
	return s.previewFn(ctx, input)
}

func (s *allocationServiceStub) Execute(ctx context.Context, input usecase.AllocationExecuteInput) (*usecase.AllocationExecuteResult, error) {
	return s.executeFn(ctx, input)
}

func (s *allocationServiceStub) Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.Voucher, error) {
	return s.reverseFn(ctx, input)
}

func (s *allocationServiceStub) TargetAccounts() []string { return []string{"627", "641", "642"} }

type revaluationServiceStub struct {
	previewFn func(ctx context.Context, input usecase.RevaluationInput) (*usecase.RevaluationPreview, error)
	executeFn func(ctx context.Context, input usecase.RevaluationInput) (*usecase.RevaluationExecuteResult, error)
}

func (s *revaluationServiceStub) Preview(ctx context.Context, input usecase.RevaluationInput) (*usecase.RevaluationPreview, error) {
	return s.previewFn(ctx, input)
}

func (s *revaluationServiceStub) Execute(ctx context.Context, input usecase.RevaluationInput) (*usecase.RevaluationExecuteResult, error) {
	return s.executeFn(ctx, input)
}

type closingServiceStub struct {
	previewFn func(ctx context.Context, period domain.Period) (*usecase.ClosingPreview, error)
	executeFn func(ctx context.Context, input usecase.ClosingExecuteInput) (*usecase.ClosingExecuteResult, error)
}

func (s *closingServiceStub) Preview(ctx context.Context, period domain.Period) (*usecase.ClosingPreview, error) {
	return s.previewFn(ctx, period)
}

func (s *closingServiceStub) Execute(ctx context.Context, input usecase.ClosingExecuteInput) (*usecase.ClosingExecuteResult, error) {
	return s.executeFn(ctx, input)
}

type debtServiceStub struct {
	previewAllocateFn func(ctx context.Context, input usecase.DebtPreviewInput) (*usecase.DebtPreview, error)
	previewReverseFn  func(ctx context.Context, paymentID string) (*usecase.DebtPreview, error)
	allocateFn        func(ctx context.Context, input usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error)
	reverseFn         func(ctx context.Context, input usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error)
}

func (s *debtServiceStub) PreviewAllocate(ctx context.Context, input usecase.DebtPreviewInput) (*usecase.DebtPreview, error) {
	return s.previewAllocateFn(ctx, input)
}

func (s *debtServiceStub) PreviewReverse(ctx context.Context, paymentID string) (*usecase.DebtPreview, error) {
	return s.previewReverseFn(ctx, paymentID)
}

func (s *debtServiceStub) Allocate(ctx context.Context, input usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error) {
	return s.allocateFn(ctx, input)
}

func (s *debtServiceStub) Reverse(ctx context.Context, input usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error) {
	return s.reverseFn(ctx, input)
}
