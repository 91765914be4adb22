package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
)

// SnapshotUseCase reads balances and the chart of accounts from the ledger and
// joins them into AccountBalance values.
type SnapshotUseCase struct {
	chartRepo   ChartRepository
	balanceRepo BalanceRepository
	cache       Cache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewSnapshotUseCase creates a new SnapshotUseCase. cache may be nil.
func NewSnapshotUseCase(
	chartRepo ChartRepository,
	balanceRepo BalanceRepository,
	cache Cache,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SnapshotUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultChartCacheTTL
	}
	return &SnapshotUseCase{
		chartRepo:   chartRepo,
		balanceRepo: balanceRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		logger:      logger.With().Str("component", "snapshot").Logger(),
	}
}

// Chart returns the chart of accounts, served from cache when possible.
// Cache failures fall through to the ledger.
func (uc *SnapshotUseCase) Chart(ctx context.Context) ([]domain.ChartAccount, error) {
	if uc.cache != nil {
		raw, err := uc.cache.Get(ctx, ChartCacheKey)
		switch {
		case err != nil:
			uc.logger.Warn().Err(err).Msg("chart cache read failed")
		case raw != nil:
			var chart []domain.ChartAccount
			if err := json.Unmarshal(raw, &chart); err == nil {
				uc.metrics.RecordCache(ChartCacheKey, true)
				return chart, nil
			}
			uc.logger.Warn().Msg("discarding undecodable chart cache entry")
		}
		uc.metrics.RecordCache(ChartCacheKey, false)
	}

	chart, err := uc.chartRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(chart); err == nil {
			if err := uc.cache.Set(ctx, ChartCacheKey, raw, uc.cacheTTL); err != nil {
				uc.logger.Warn().Err(err).Msg("chart cache write failed")
			}
		}
	}

	return chart, nil
}

// InvalidateChart drops the cached chart.
func (uc *SnapshotUseCase) InvalidateChart(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Delete(ctx, ChartCacheKey)
}

// Snapshot returns every account with a balance or a chart entry as of asOf,
// sorted by code. Names and classes come from the chart; codes missing from
// the chart fall back to ClassForCode.
func (uc *SnapshotUseCase) Snapshot(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error) {
	chart, err := uc.Chart(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := uc.balanceRepo.ListBalances(ctx, asOf)
	if err != nil {
		return nil, err
	}

	return JoinBalances(chart, balances), nil
}

// JoinBalances merges chart metadata into raw balances.
func JoinBalances(chart []domain.ChartAccount, balances []domain.AccountBalance) []domain.AccountBalance {
	byCode := make(map[string]domain.AccountBalance, len(chart)+len(balances))

	for _, a := range chart {
		byCode[a.Code] = domain.AccountBalance{
			Code:     a.Code,
			Name:     a.Name,
			Class:    a.Class,
			Currency: a.Currency,
		}
	}

	for _, b := range balances {
		acc, ok := byCode[b.Code]
		if !ok {
			acc = domain.AccountBalance{Code: b.Code, Name: b.Name, Class: domain.ClassForCode(b.Code), Currency: b.Currency}
		}
		acc.NetBalance = acc.NetBalance.Add(b.NetBalance)
		byCode[b.Code] = acc
	}

	result := make([]domain.AccountBalance, 0, len(byCode))
	for _, b := range byCode {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })

	return result
}
