package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// AllocationService runs the prepaid-expense allocation workflow.
type AllocationService interface {
	Preview(ctx context.Context, input usecase.AllocationPreviewInput) (*usecase.AllocationPreview, error)
	Execute(ctx context.Context, input usecase.AllocationExecuteInput) (*usecase.AllocationExecuteResult, error)
	Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.Voucher, error)
	TargetAccounts() []string
}

// AllocationHandler handles allocation HTTP requests.
type AllocationHandler struct {
	allocations AllocationService
	now         func() time.Time
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(allocations AllocationService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, now: time.Now}
}

// Preview lists the period's allocatable items with proposed amounts.
func (h *AllocationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.AllocationPreviewRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	preview, err := h.allocations.Preview(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to preview allocation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AllocationPreviewFromUseCase(preview, h.allocations.TargetAccounts()))
}

// Execute posts the allocation voucher for the selected items.
func (h *AllocationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req dto.AllocationExecuteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	result, err := h.allocations.Execute(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to post allocation", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AllocationExecuteFromUseCase(result))
}

// Reverse posts a reallocation voucher undoing a posted allocation.
func (h *AllocationHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing voucher ID", "")
		return
	}

	var req dto.ReverseVoucherRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(id, h.now())
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	v, err := h.allocations.Reverse(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to reverse allocation", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.VoucherFromDomain(v))
}
