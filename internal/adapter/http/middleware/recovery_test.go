package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	handler := chimiddleware.RequestID(Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil voucher")
	})))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/closings/2025-03/execute", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "internal server error") || !strings.Contains(body, "req-42") {
		t.Fatalf("unexpected body %s", body)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q", buf.String())
	}
	if entry["error"] != "nil voucher" || entry["level"] != "error" || entry["request_id"] != "req-42" {
		t.Fatalf("unexpected log entry %v", entry)
	}
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusConflict, "warn"},
		{http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		mw := NewLoggingMiddleware(zerolog.New(&buf))

		rr := httptest.NewRecorder()
		mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/balances", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if entry["level"] != tt.level || entry["status"] != float64(tt.status) {
			t.Fatalf("status %d: unexpected log entry %v", tt.status, entry)
		}
	}
}
