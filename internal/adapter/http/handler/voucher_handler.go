package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
)

// VoucherService reads posted vouchers.
type VoucherService interface {
	GetVoucher(ctx context.Context, id string) (*domain.Voucher, error)
}

// VoucherHandler handles voucher HTTP requests.
type VoucherHandler struct {
	vouchers VoucherService
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(vouchers VoucherService) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

// Get retrieves a voucher with its lines.
func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing voucher ID", "")
		return
	}

	v, err := h.vouchers.GetVoucher(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get voucher", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VoucherFromDomain(v))
}
