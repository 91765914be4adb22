package handler

import (
	"context"
	"net/http"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/usecase"
)

// RevaluationService runs the FX revaluation workflow.
type RevaluationService interface {
	Preview(ctx context.Context, input usecase.RevaluationInput) (*usecase.RevaluationPreview, error)
	Execute(ctx context.Context, input usecase.RevaluationInput) (*usecase.RevaluationExecuteResult, error)
}

// RevaluationHandler handles revaluation HTTP requests.
type RevaluationHandler struct {
	revaluations RevaluationService
}

// NewRevaluationHandler creates a new RevaluationHandler.
func NewRevaluationHandler(revaluations RevaluationService) *RevaluationHandler {
	return &RevaluationHandler{revaluations: revaluations}
}

// Preview restates the in-scope accounts without posting.
func (h *RevaluationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}

	preview, err := h.revaluations.Preview(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to preview revaluation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RevaluationPreviewFromUseCase(preview))
}

// Execute posts the revaluation voucher.
func (h *RevaluationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.revaluations.Execute(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to post revaluation", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RevaluationExecuteResponse{
		Voucher: dto.VoucherFromDomain(result.Voucher),
		Preview: dto.RevaluationPreviewFromUseCase(result.Preview),
	})
}

func (h *RevaluationHandler) decode(w http.ResponseWriter, r *http.Request) (usecase.RevaluationInput, bool) {
	var req dto.RevaluationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return usecase.RevaluationInput{}, false
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return usecase.RevaluationInput{}, false
	}
	return input, true
}
