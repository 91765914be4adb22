package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// ReconciliationService cross-checks posted vouchers.
type ReconciliationService interface {
	Reconcile(ctx context.Context, period domain.Period) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler handles reconciliation HTTP requests.
type ReconciliationHandler struct {
	reconciliations ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliations ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliations: reconciliations}
}

// Reconcile reports on {period}. An inconsistent ledger is still a 200; the
// body carries the verdict.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	period, err := domain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	report, err := h.reconciliations.Reconcile(r.Context(), period)
	if err != nil {
		writeDomainError(w, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}
