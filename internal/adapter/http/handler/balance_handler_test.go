package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/domain"
)

func newBalanceRouter(balances BalanceService, lock PeriodLockService) http.Handler {
	h := NewBalanceHandler(balances, lock, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/balances", h.Snapshot)
	r.Delete("/chart-cache", h.DropChartCache)
	r.Get("/period-lock", h.GetLock)
	r.Put("/period-lock", h.SetLock)
	return r
}

func TestBalanceHandler_Snapshot(t *testing.T) {
	var captured time.Time
	router := newBalanceRouter(&balanceServiceStub{
		snapshotFn: func(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error) {
			captured = asOf
			return []domain.AccountBalance{{Code: "511", Class: domain.AccountClassRevenue, NetBalance: dec(-500)}}, nil
		},
	}, &periodLockStub{})

	rec := doRequest(t, router, http.MethodGet, "/balances?as_of=2025-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !captured.Equal(march.LastDay()) {
		t.Fatalf("expected as_of 2025-03-31, got %s", captured)
	}

	var resp []dto.BalanceResponse
	decodeBody(t, rec, &resp)
	if len(resp) != 1 || resp[0].NetBalance != "-500" || resp[0].Class != "REVENUE" {
		t.Fatalf("unexpected response %+v", resp)
	}

	rec = doRequest(t, router, http.MethodGet, "/balances", nil)
	if rec.Code != http.StatusOK || !captured.IsZero() {
		t.Fatalf("expected open-ended snapshot, got %d with as_of %s", rec.Code, captured)
	}
}

func TestBalanceHandler_Snapshot_Errors(t *testing.T) {
	router := newBalanceRouter(&balanceServiceStub{
		snapshotFn: func(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error) {
			return nil, errors.New("connection refused")
		},
	}, &periodLockStub{})

	if rec := doRequest(t, router, http.MethodGet, "/balances?as_of=yesterday", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad date, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/balances", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the ledger is down, got %d", rec.Code)
	}
}

func TestBalanceHandler_PeriodLock(t *testing.T) {
	lock := &periodLockStub{lockedUntil: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}
	router := newBalanceRouter(&balanceServiceStub{}, lock)

	rec := doRequest(t, router, http.MethodGet, "/period-lock", nil)
	var resp dto.PeriodLockResponse
	decodeBody(t, rec, &resp)
	if resp.LockedUntil != "2025-01-31" {
		t.Fatalf("expected 2025-01-31, got %+v", resp)
	}

	rec = doRequest(t, router, http.MethodPut, "/period-lock", dto.SetPeriodLockRequest{LockedUntil: "2025-02-28"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &resp)
	if resp.LockedUntil != "2025-02-28" {
		t.Fatalf("expected updated cutoff, got %+v", resp)
	}

	rec = doRequest(t, router, http.MethodPut, "/period-lock", dto.SetPeriodLockRequest{LockedUntil: "28.02.2025"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad date, got %d", rec.Code)
	}

	lock.setErr = errors.New("read only")
	rec = doRequest(t, router, http.MethodPut, "/period-lock", dto.SetPeriodLockRequest{LockedUntil: "2025-03-31"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the save fails, got %d", rec.Code)
	}
}

func TestBalanceHandler_DropChartCache(t *testing.T) {
	balances := &balanceServiceStub{}
	router := newBalanceRouter(balances, &periodLockStub{})

	rec := doRequest(t, router, http.MethodDelete, "/chart-cache", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if balances.invalidated != 1 {
		t.Fatalf("expected one invalidation, got %d", balances.invalidated)
	}

	balances.invalidateErr = errors.New("redis down")
	rec = doRequest(t, router, http.MethodDelete, "/chart-cache", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
