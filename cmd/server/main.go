package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/periodclose/internal/adapter/http"
	"github.com/iho/periodclose/internal/adapter/http/handler"
	"github.com/iho/periodclose/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/periodclose/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/periodclose/internal/adapter/repository/redis"
	"github.com/iho/periodclose/internal/infrastructure/config"
	"github.com/iho/periodclose/internal/infrastructure/eventpublisher"
	"github.com/iho/periodclose/internal/infrastructure/logger"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
	"github.com/iho/periodclose/internal/infrastructure/postgres"
	"github.com/iho/periodclose/internal/infrastructure/redis"
	"github.com/iho/periodclose/internal/usecase"
)

const (
	serviceName = "periodclose"

	limiterSweepInterval = time.Minute
	limiterIdleAfter     = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	isoLevel, err := cfg.TxIsoLevel()
	if err != nil {
		return err
	}
	lockedUntil, err := cfg.LockedUntil()
	if err != nil {
		return err
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, isoLevel).WithLockTimeout(cfg.DatabaseLockTimeout)
	retrier := postgresRepo.NewRetrier(cfg.PostingMaxRetries, log).WithMetrics(m)
	idGen := postgresRepo.NewULIDGenerator()
	accountRepo := postgresRepo.NewAccountRepository(pool)
	outboxRepo := newOutboxRepository(cfg, pool)

	// Use cases
	periodLock, err := loadPeriodLock(ctx, postgresRepo.NewSettingsRepository(pool), lockedUntil, log)
	if err != nil {
		return err
	}

	snapshotUC := usecase.NewSnapshotUseCase(accountRepo, accountRepo, redisRepo.NewCache(redisClient, ""), cfg.ChartCacheTTL, m, log)
	voucherUC := usecase.NewVoucherUseCase(txManager, postgresRepo.NewVoucherRepository(pool), outboxRepo, retrier, idGen, m, log)
	allocationRepo := postgresRepo.NewAllocationRepository(pool)
	allocationUC := usecase.NewAllocationUseCase(allocationRepo, voucherUC, periodLock, idGen, cfg.Allocation(), m, log)
	revaluationUC := usecase.NewRevaluationUseCase(snapshotUC, voucherUC, periodLock, cfg.FxAccounts(), m, log)
	closingUC := usecase.NewClosingUseCase(snapshotUC, voucherUC, periodLock, cfg.ClosingAccounts(), m, log)
	debtUC := usecase.NewDebtUseCase(txManager, postgresRepo.NewDebtRepository(pool), outboxRepo, retrier, idGen, m, log)
	reconciliationUC := usecase.NewReconciliationUseCase(snapshotUC, allocationRepo, m, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BalanceHandler:        handler.NewBalanceHandler(snapshotUC, periodLock, log),
		AllocationHandler:     handler.NewAllocationHandler(allocationUC),
		RevaluationHandler:    handler.NewRevaluationHandler(revaluationUC),
		ClosingHandler:        handler.NewClosingHandler(closingUC),
		DebtHandler:           handler.NewDebtHandler(debtUC),
		VoucherHandler:        handler.NewVoucherHandler(voucherUC),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		IdempotencyStore:      redisRepo.NewIdempotencyStore(redisClient, ""),
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           limiter,
		TrustProxyHeaders:     cfg.TrustProxyHeaders,
		Metrics:               m,
		MetricsHandler:        promhttp.Handler(),
		Logger:                log,
	})

	server := newHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sweepLimiters(gctx, limiter, limiterSweepInterval, limiterIdleAfter, log)
		return nil
	})

	if cfg.OutboxInterval > 0 {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  newPublisher(cfg, redisClient, log),
			Metrics:    m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		g.Go(func() error {
			if err := publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("outbox publisher: %w", err)
			}
			return nil
		})
	} else {
		log.Info().Msg("outbox publisher disabled")
	}

	return g.Wait()
}

// loadPeriodLock refuses to start on an unreadable cutoff; serving with the
// configured fallback could open periods the ledger has locked.
func loadPeriodLock(ctx context.Context, settings usecase.SettingsRepository, fallback time.Time, log zerolog.Logger) (*usecase.PeriodLockUseCase, error) {
	periodLock := usecase.NewPeriodLockUseCase(settings, fallback, log)
	if err := periodLock.Load(ctx); err != nil {
		return nil, err
	}
	return periodLock, nil
}

// newOutboxRepository drops events when no publisher will ever relay them.
func newOutboxRepository(cfg *config.Config, pool *pgxpool.Pool) usecase.OutboxRepository {
	if cfg.OutboxInterval <= 0 {
		return postgresRepo.NewNullOutboxRepository()
	}
	return postgresRepo.NewOutboxRepository(pool)
}

func newPublisher(cfg *config.Config, client *goredis.Client, log zerolog.Logger) eventpublisher.Publisher {
	if cfg.OutboxSink == "log" || client == nil {
		return eventpublisher.NewLogPublisher(log)
	}
	return eventpublisher.NewStreamPublisher(client, cfg.OutboxStream, cfg.OutboxStreamMaxLen)
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter, every, idle time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.CleanupLimiters(idle); n > 0 {
				log.Debug().Int("removed", n).Msg("idle rate limiters removed")
			}
		}
	}
}
