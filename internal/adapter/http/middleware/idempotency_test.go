package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	redisrepo "github.com/iho/periodclose/internal/adapter/repository/redis"
	"github.com/iho/periodclose/internal/usecase"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	released      []string
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.released = append(f.released, key)
	return nil
}

func postWithKey(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorsFailClosed(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("/api/v1/closings/2025-03/execute", "key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyOnFailure(t *testing.T) {
	var updated bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})).ServeHTTP(rr, postWithKey("/api/v1/allocations/execute", "key-fail"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if len(store.released) != 1 || store.released[0] != "POST /api/v1/allocations/execute key-fail" {
		t.Fatalf("expected the scoped key to be released, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatalf("store should not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balances", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-get")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_InProgress(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(usecase.IdempotencyPending), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run while the first request is in flight")
	})).ServeHTTP(rr, postWithKey("/api/v1/closings/2025-03/execute", "key-busy"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReplaysStatusAndBody(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	mw := NewIdempotencyMiddleware(redisrepo.NewIdempotencyStore(client, ""), zerolog.Nop())

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"doc_no":"KC-2025-03"}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("/api/v1/closings/2025-03/execute", "key-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, postWithKey("/api/v1/closings/2025-03/execute", "key-1"))

	if calls != 1 {
		t.Fatalf("expected the handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected %s header to be set", IdempotencyReplayHeader)
	}
	if got := second.Body.String(); got != `{"doc_no":"KC-2025-03"}` {
		t.Fatalf("unexpected replayed body: %s", got)
	}

	other := httptest.NewRecorder()
	h.ServeHTTP(other, postWithKey("/api/v1/closings/2025-04/execute", "key-1"))
	if calls != 2 {
		t.Fatalf("the same key on another endpoint must not replay")
	}
}

func TestIdempotencyMiddleware_ReplaysRawValue(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(`{"cached":true}`), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called when cached response exists")
	})).ServeHTTP(rr, postWithKey("/api/v1/revaluations/execute", "key-raw"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != `{"cached":true}` {
		t.Fatalf("unexpected cached body: %s", got)
	}
}

func TestIdempotencyMiddleware_PanicReleasesKey(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	mw := NewIdempotencyMiddleware(redisrepo.NewIdempotencyStore(client, ""), zerolog.Nop())

	calls := 0
	h := Recovery(zerolog.Nop())(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("ledger exploded")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("/api/v1/closings/2025-03/execute", "key-panic"))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from the recovered panic, got %d", first.Code)
	}

	retry := httptest.NewRecorder()
	h.ServeHTTP(retry, postWithKey("/api/v1/closings/2025-03/execute", "key-panic"))
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected the retry to run, got %d: %s", retry.Code, retry.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected two handler runs, got %d", calls)
	}
}

func TestIdempotencyMiddleware_ReleaseSurvivesCanceledRequest(t *testing.T) {
	store := &fakeIdempotencyStore{}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	req := postWithKey("/api/v1/allocations/execute", "key-gone").WithContext(ctx)

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusBadGateway)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if len(store.released) != 1 {
		t.Fatalf("expected the key to be released after the client went away, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_PanicPropagates(t *testing.T) {
	store := &fakeIdempotencyStore{}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	defer func() {
		if recover() == nil {
			t.Fatal("expected the panic to reach the outer handler")
		}
		if len(store.released) != 1 {
			t.Fatalf("expected the key to be released, got %v", store.released)
		}
	}()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})).ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/allocations/execute", "key-boom"))
}
