package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cartsync"

// HTTPMetrics records request counts and latency per chi route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on reg. A nil registerer yields a no-op recorder.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(route, method string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ShopMetrics counts cart, wishlist and order operations.
type ShopMetrics struct {
	mutations    *prometheus.CounterVec
	ordersPlaced prometheus.Counter
	orderTotal   prometheus.Histogram
}

// NewShopMetrics registers the shop metrics on reg.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_mutations_total",
		Help:      "Cart and wishlist mutations by store, operation and outcome.",
	}, []string{"store", "op", "outcome"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders persisted.",
	})
	orderTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_total_amount",
		Help:      "Distribution of order totals.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	reg.MustRegister(mutations, ordersPlaced, orderTotal)
	return &ShopMetrics{mutations: mutations, ordersPlaced: ordersPlaced, orderTotal: orderTotal}
}

// IncMutation counts a store mutation; err decides the outcome label.
func (m *ShopMetrics) IncMutation(store, op string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(store), normalizeLabel(op), outcome(err)).Inc()
}

// ObserveOrder records a placed order and its total.
func (m *ShopMetrics) ObserveOrder(total float64) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderTotal.Observe(total)
}

// CatalogMetrics records upstream catalog calls and cache effectiveness.
type CatalogMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on reg.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_requests_total",
		Help:      "Upstream catalog requests by operation and outcome.",
	}, []string{"op", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_request_duration_seconds",
		Help:      "Upstream catalog latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_total",
		Help:      "Catalog cache lookups by result (hit, miss, error).",
	}, []string{"result"})
	reg.MustRegister(requests, duration, cache)
	return &CatalogMetrics{requests: requests, duration: duration, cache: cache}
}

// ObserveRequest records one upstream call.
func (m *CatalogMetrics) ObserveRequest(op string, elapsed time.Duration, err error) {
	if m == nil || m.requests == nil {
		return
	}
	op = normalizeLabel(op)
	m.requests.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncCache counts a cache lookup result.
func (m *CatalogMetrics) IncCache(result string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(result)).Inc()
}

// OutboxMetrics records publisher progress.
type OutboxMetrics struct {
	events *prometheus.CounterVec
	batch  prometheus.Histogram
}

// NewOutboxMetrics registers the outbox publisher metrics on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox events by event type and result (published, retry, dead_lettered).",
	}, []string{"event_type", "result"})
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbox_batch_size",
		Help:      "Rows claimed per publisher poll.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
	reg.MustRegister(events, batch)
	return &OutboxMetrics{events: events, batch: batch}
}

// IncEvent counts one processed outbox row.
func (m *OutboxMetrics) IncEvent(eventType, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// ObserveBatch records the size of a claimed batch.
func (m *OutboxMetrics) ObserveBatch(size int) {
	if m == nil || m.batch == nil {
		return
	}
	m.batch.Observe(float64(size))
}

// CronMetrics records maintenance job runs.
type CronMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCronMetrics registers the maintenance worker metrics on reg.
func NewCronMetrics(reg prometheus.Registerer) *CronMetrics {
	if reg == nil {
		return &CronMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cron_job_runs_total",
		Help:      "Maintenance job runs by job and result.",
	}, []string{"job", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cron_job_duration_seconds",
		Help:      "Maintenance job duration.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"job"})
	reg.MustRegister(runs, duration)
	return &CronMetrics{runs: runs, duration: duration}
}

// ObserveRun records one finished job run.
func (m *CronMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(job), outcome(err)).Inc()
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
