package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware_RouteAndIdempotency(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(zerolog.New(&buf)).Wrap)
	r.Post("/api/v1/closings/{period}/execute", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(IdempotencyReplayHeader, "true")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"V1"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/closings/2025-03/execute", nil)
	req.Header.Set(IdempotencyKeyHeader, "close-2025-03")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "http", entry["component"])
	assert.Equal(t, "/api/v1/closings/{period}/execute", entry["route"])
	assert.Equal(t, "/api/v1/closings/2025-03/execute", entry["path"])
	assert.Equal(t, "close-2025-03", entry["idempotency_key"])
	assert.Equal(t, true, entry["replayed"])
	assert.Equal(t, float64(201), entry["status"])
	assert.Equal(t, float64(11), entry["bytes"])
}

func TestLoggingMiddleware_NoKeyNoIdempotencyFields(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	mw.Wrap(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, unmatchedRoute, entry["route"])
	assert.NotContains(t, entry, "idempotency_key")
}
