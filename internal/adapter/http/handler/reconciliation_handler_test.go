package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

type reconciliationServiceStub struct {
	fn func(ctx context.Context, period domain.Period) (*usecase.ReconciliationReport, error)
}

func (s *reconciliationServiceStub) Reconcile(ctx context.Context, period domain.Period) (*usecase.ReconciliationReport, error) {
	return s.fn(ctx, period)
}

func newReconciliationRouter(svc ReconciliationService) http.Handler {
	r := chi.NewRouter()
	r.Get("/reconciliations/{period}", NewReconciliationHandler(svc).Reconcile)
	return r
}

func TestReconciliationHandler_Reconcile(t *testing.T) {
	checkedAt := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	router := newReconciliationRouter(&reconciliationServiceStub{
		fn: func(ctx context.Context, period domain.Period) (*usecase.ReconciliationReport, error) {
			return &usecase.ReconciliationReport{
				CheckedAt: checkedAt,
				Period:    period,
				Vouchers:  2,
				Discrepancies: []domain.AllocationCheck{
					{VoucherID: "v-2", DocNo: "PB-2025-03", VoucherTotal: dec(40_000), Recorded: dec(40_000), Reversed: true},
				},
				TrialBalance:   dec(0),
				LedgerBalanced: true,
			}, nil
		},
	})

	rec := doRequest(t, router, http.MethodGet, "/reconciliations/2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ReconciliationResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "2025-03", resp.Period)
	assert.Equal(t, 2, resp.Vouchers)
	assert.False(t, resp.Consistent)
	assert.True(t, resp.LedgerBalanced)
	require.Len(t, resp.Discrepancies, 1)
	assert.Equal(t, "0", resp.Discrepancies[0].Expected)
	assert.Equal(t, "40000", resp.Discrepancies[0].Difference)
	assert.True(t, resp.CheckedAt.Equal(checkedAt))
}

func TestReconciliationHandler_Errors(t *testing.T) {
	router := newReconciliationRouter(&reconciliationServiceStub{
		fn: func(ctx context.Context, period domain.Period) (*usecase.ReconciliationReport, error) {
			return nil, errors.New("db down")
		},
	})

	rec := doRequest(t, router, http.MethodGet, "/reconciliations/03-2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/reconciliations/2025-03", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
