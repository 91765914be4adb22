package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single posting transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// ChartCacheKey is the cache key of the serialized chart of accounts.
	ChartCacheKey = "chart:v1"

	// DefaultChartCacheTTL applies when no TTL is configured.
	DefaultChartCacheTTL = 5 * time.Minute
)

// Workflow names used in logs and metrics.
const (
	workflowAllocation  = "allocation"
	workflowRevaluation = "revaluation"
	workflowClosing     = "closing"
	workflowDebt        = "debt"
)

// DefaultAllocationTargets are the expense accounts prepaid items may be allocated to.
var DefaultAllocationTargets = []string{"627", "641", "642"}
