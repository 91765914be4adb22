package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
)

// ClosingService runs the period-end closing workflow.
type ClosingService interface {
	Preview(ctx context.Context, period domain.Period) (*usecase.ClosingPreview, error)
	Execute(ctx context.Context, input usecase.ClosingExecuteInput) (*usecase.ClosingExecuteResult, error)
}

// ClosingHandler handles closing HTTP requests.
type ClosingHandler struct {
	closings ClosingService
}

// NewClosingHandler creates a new ClosingHandler.
func NewClosingHandler(closings ClosingService) *ClosingHandler {
	return &ClosingHandler{closings: closings}
}

// Preview computes the closing entries for {period}.
func (h *ClosingHandler) Preview(w http.ResponseWriter, r *http.Request) {
	period, err := domain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	preview, err := h.closings.Preview(r.Context(), period)
	if err != nil {
		writeDomainError(w, "failed to preview closing", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClosingPreviewFromUseCase(preview))
}

// Execute posts the closing voucher for {period}.
func (h *ClosingHandler) Execute(w http.ResponseWriter, r *http.Request) {
	period, err := domain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	var req dto.ClosingExecuteRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.closings.Execute(r.Context(), usecase.ClosingExecuteInput{Period: period, Description: req.Description})
	if err != nil {
		writeDomainError(w, "failed to post closing", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ClosingExecuteResponse{
		Voucher: dto.VoucherFromDomain(result.Voucher),
		Preview: dto.ClosingPreviewFromUseCase(result.Preview),
	})
}
