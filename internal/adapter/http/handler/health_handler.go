package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 5 * time.Second

// DBPinger is satisfied by *pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	db          DBPinger
	redisClient *redis.Client
}

// NewHealthHandler checks Redis only when redisClient is non-nil.
func NewHealthHandler(db DBPinger, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redisClient: redisClient}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings every backing store in parallel and reports each one, so a
// 503 names all the stores that are down rather than only the first.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]func(context.Context) error{"postgres": h.db.Ping}
	if h.redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return h.redisClient.Ping(ctx).Err() }
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		report = map[string]string{}
		ready  = true
	)
	for name, check := range checks {
		g.Go(func() error {
			result := "ok"
			if err := check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			report[name] = result
			if result != "ok" {
				ready = false
			}
			return nil
		})
	}
	_ = g.Wait()

	if !ready {
		report["status"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, report)
		return
	}
	report["status"] = "ready"
	writeJSON(w, http.StatusOK, report)
}
