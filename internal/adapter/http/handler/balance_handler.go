package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
)

// BalanceService reads balance snapshots.
type BalanceService interface {
	Snapshot(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error)
	InvalidateChart(ctx context.Context) error
}

// PeriodLockService reads and moves the lock cutoff.
type PeriodLockService interface {
	LockedUntil() time.Time
	SetLockedUntil(ctx context.Context, lockedUntil time.Time) (time.Time, error)
}

// BalanceHandler serves balance snapshots and the period lock.
type BalanceHandler struct {
	balances BalanceService
	lock     PeriodLockService
	logger   zerolog.Logger
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balances BalanceService, lock PeriodLockService, logger zerolog.Logger) *BalanceHandler {
	return &BalanceHandler{balances: balances, lock: lock, logger: logger}
}

// Snapshot returns every account balance, optionally as of ?as_of=YYYY-MM-DD.
func (h *BalanceHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of", err.Error())
			return
		}
		asOf = t
	}

	balances, err := h.balances.Snapshot(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, "failed to read balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(balances))
}

// DropChartCache forces the next snapshot to reload the chart of accounts.
func (h *BalanceHandler) DropChartCache(w http.ResponseWriter, r *http.Request) {
	if err := h.balances.InvalidateChart(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to drop chart cache", err.Error())
		return
	}

	h.logger.Info().Msg("chart cache dropped")
	w.WriteHeader(http.StatusNoContent)
}

// GetLock returns the current lock cutoff.
func (h *BalanceHandler) GetLock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PeriodLockFromDate(h.lock.LockedUntil()))
}

// SetLock moves the lock cutoff.
func (h *BalanceHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	var req dto.SetPeriodLockRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lockedUntil, err := req.ToDate()
	if err != nil {
		writeDomainError(w, "invalid locked_until", err)
		return
	}

	saved, err := h.lock.SetLockedUntil(r.Context(), lockedUntil)
	if err != nil {
		writeDomainError(w, "failed to update period lock", err)
		return
	}

	h.logger.Info().Str("locked_until", saved.Format(domain.DateLayout)).Msg("period lock updated")
	writeJSON(w, http.StatusOK, dto.PeriodLockFromDate(saved))
}
