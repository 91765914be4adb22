package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Voucher metrics
	VouchersPosted   *prometheus.CounterVec
	VouchersReversed *prometheus.CounterVec
	VoucherAmount    *prometheus.HistogramVec
	PostingDuration  prometheus.Histogram
	PostingErrors    *prometheus.CounterVec
	PostingRetries   *prometheus.CounterVec

	// Workflow metrics
	Previews            *prometheus.CounterVec
	ValidationFailures  *prometheus.CounterVec
	DuplicateHits       prometheus.Counter
	DuplicateCheckFails prometheus.Counter
	DebtAllocations     *prometheus.CounterVec
	DebtAmount          *prometheus.HistogramVec
	Reconciliations     *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
	OutboxBacklog   prometheus.Gauge
}

var amountBuckets = []float64{1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		VouchersPosted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_vouchers_posted_total",
				Help: "Total vouchers posted by type",
			},
			[]string{"type"},
		),
		VouchersReversed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_vouchers_reversed_total",
				Help: "Total vouchers reversed by original type",
			},
			[]string{"type"},
		),
		VoucherAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "periodclose_voucher_amount",
				Help:    "Voucher total amounts",
				Buckets: amountBuckets,
			},
			[]string{"type"},
		),
		PostingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "periodclose_posting_duration_seconds",
			Help:    "Duration of ledger posting transactions",
			Buckets: prometheus.DefBuckets,
		}),
		PostingErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_posting_errors_total",
				Help: "Total ledger posting failures by operation",
			},
			[]string{"operation"},
		),
		PostingRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_posting_retries_total",
				Help: "Posting attempts repeated after a transient conflict, by SQLSTATE",
			},
			[]string{"code"},
		),

		Previews: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_previews_total",
				Help: "Total previews computed by workflow",
			},
			[]string{"workflow"},
		),
		ValidationFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_validation_failures_total",
				Help: "Total execute requests rejected before posting",
			},
			[]string{"workflow"},
		),
		DuplicateHits: f.NewCounter(prometheus.CounterOpts{
			Name: "periodclose_allocation_duplicate_hits_total",
			Help: "Items found already allocated during preview",
		}),
		DuplicateCheckFails: f.NewCounter(prometheus.CounterOpts{
			Name: "periodclose_allocation_duplicate_check_failures_total",
			Help: "Duplicate checks that failed and were treated as not allocated",
		}),
		DebtAllocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_debt_allocations_total",
				Help: "Total debt allocation submissions by operation",
			},
			[]string{"operation"},
		),
		DebtAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "periodclose_debt_amount",
				Help:    "Debt allocation submission totals",
				Buckets: amountBuckets,
			},
			[]string{"operation"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "periodclose_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "periodclose_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),

		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_cache_hits_total",
				Help: "Total cache hits",
			},
			[]string{"key"},
		),
		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_cache_misses_total",
				Help: "Total cache misses",
			},
			[]string{"key"},
		),

		Reconciliations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodclose_reconciliations_total",
				Help: "Allocation reconciliation runs by result",
			},
			[]string{"result"},
		),

		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "periodclose_rate_limit_hits_total",
			Help: "Total rate limit hits",
		}),

		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "periodclose_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "periodclose_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),
		OutboxBacklog: f.NewGauge(prometheus.GaugeOpts{
			Name: "periodclose_outbox_backlog",
			Help: "Outbox events waiting to be published",
		}),
	}
}

// RecordVoucherPosted counts a posted voucher and observes its total.
func (m *Metrics) RecordVoucherPosted(voucherType string, amount float64) {
	if m == nil {
		return
	}
	m.VouchersPosted.WithLabelValues(voucherType).Inc()
	m.VoucherAmount.WithLabelValues(voucherType).Observe(amount)
}

// RecordVoucherReversed counts a reversed voucher by its original type.
func (m *Metrics) RecordVoucherReversed(voucherType string) {
	if m == nil {
		return
	}
	m.VouchersReversed.WithLabelValues(voucherType).Inc()
}

// ObservePosting records the duration of a posting transaction in seconds.
func (m *Metrics) ObservePosting(seconds float64) {
	if m == nil {
		return
	}
	m.PostingDuration.Observe(seconds)
}

// RecordPostingRetry counts one retried posting attempt.
func (m *Metrics) RecordPostingRetry(code string) {
	if m == nil {
		return
	}
	m.PostingRetries.WithLabelValues(code).Inc()
}

// RecordPostingError counts a ledger rejection.
func (m *Metrics) RecordPostingError(operation string) {
	if m == nil {
		return
	}
	m.PostingErrors.WithLabelValues(operation).Inc()
}

// RecordPreview counts a computed preview.
func (m *Metrics) RecordPreview(workflow string) {
	if m == nil {
		return
	}
	m.Previews.WithLabelValues(workflow).Inc()
}

// RecordValidationFailure counts an execute request rejected before posting.
func (m *Metrics) RecordValidationFailure(workflow string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(workflow).Inc()
}

// RecordDuplicateCheck counts the outcome of one preview duplicate check.
func (m *Metrics) RecordDuplicateCheck(hit bool, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.DuplicateCheckFails.Inc()
		return
	}
	if hit {
		m.DuplicateHits.Inc()
	}
}

// RecordDebtAllocation counts a debt allocation or reversal submission.
func (m *Metrics) RecordDebtAllocation(operation string, amount float64) {
	if m == nil {
		return
	}
	m.DebtAllocations.WithLabelValues(operation).Inc()
	m.DebtAmount.WithLabelValues(operation).Observe(amount)
}

// RecordCache counts a cache lookup.
func (m *Metrics) RecordCache(key string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(key).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(key).Inc()
}

// RecordHTTPRequest counts a served request and its latency.
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(seconds)
}

// TrackInFlight marks a request as in flight until the returned func runs.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.HTTPInFlight.Inc()
	return m.HTTPInFlight.Dec
}

// RecordRateLimitHit counts a rejected request.
func (m *Metrics) RecordRateLimitHit() {
	if m == nil {
		return
	}
	m.RateLimitHits.Inc()
}

// RecordOutbox counts one outbox publish attempt.
func (m *Metrics) RecordOutbox(published bool) {
	if m == nil {
		return
	}
	if published {
		m.OutboxPublished.Inc()
		return
	}
	m.OutboxErrors.Inc()
}

// SetOutboxBacklog reports the number of unpublished outbox events.
func (m *Metrics) SetOutboxBacklog(n int64) {
	if m == nil {
		return
	}
	m.OutboxBacklog.Set(float64(n))
}

// RecordReconciliation counts one reconciliation run.
func (m *Metrics) RecordReconciliation(consistent bool) {
	if m == nil {
		return
	}
	result := "consistent"
	if !consistent {
		result = "inconsistent"
	}
	m.Reconciliations.WithLabelValues(result).Inc()
}
