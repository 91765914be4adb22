package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/usecase"
)

// DebtService matches payments against invoices.
type DebtService interface {
	PreviewAllocate(ctx context.Context, input usecase.DebtPreviewInput) (*usecase.DebtPreview, error)
	PreviewReverse(ctx context.Context, paymentID string) (*usecase.DebtPreview, error)
	Allocate(ctx context.Context, input usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error)
	Reverse(ctx context.Context, input usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error)
}

// DebtHandler handles debt allocation HTTP requests.
type DebtHandler struct {
	debts DebtService
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debts DebtService) *DebtHandler {
	return &DebtHandler{debts: debts}
}

// Suggest proposes a FIFO distribution of a payment.
func (h *DebtHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req dto.DebtPreviewRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	preview, err := h.debts.PreviewAllocate(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to suggest allocation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DebtPreviewFromUseCase(preview))
}

// ListAllocations returns the payment's current allocations as reversal candidates.
func (h *DebtHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	preview, err := h.debts.PreviewReverse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list allocations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DebtPreviewFromUseCase(preview))
}

// Allocate applies confirmed amounts to invoices.
func (h *DebtHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.debts.Allocate, "failed to allocate payment")
}

// Reverse releases previously allocated amounts.
func (h *DebtHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.debts.Reverse, "failed to reverse allocation")
}

func (h *DebtHandler) submit(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, usecase.DebtSubmitInput) (*usecase.DebtSubmitResult, error),
	failure string,
) {
	var req dto.DebtSubmitRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	result, err := op(r.Context(), input)
	if err != nil {
		writeDomainError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DebtSubmitFromUseCase(result))
}
