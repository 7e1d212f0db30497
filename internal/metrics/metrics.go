package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry and instruments.
type Collector struct {
	registry *prometheus.Registry

	transfersProcessed prometheus.Counter
	transfersFailed    prometheus.Counter
	transferDuration   prometheus.Histogram
	accountsCreated    prometheus.Counter
	mirrorRetries      prometheus.Counter
	eventsPublished    prometheus.Counter
}

// NewCollector creates a collector with its own registry, keeping the default
// global registry untouched.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		transfersProcessed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transfers_processed_total",
			Help: "Total number of committed transfers",
		}),
		transfersFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transfers_failed_total",
			Help: "Total number of rejected or failed transfers",
		}),
		transferDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "transfer_duration_seconds",
			Help:    "Time taken to process a transfer",
			Buckets: prometheus.DefBuckets,
		}),
		accountsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "accounts_created_total",
			Help: "Total number of accounts created",
		}),
		mirrorRetries: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "mirror_replication_retries_total",
			Help: "Total number of retried mirror replication tasks",
		}),
		eventsPublished: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Total number of outbox events published to the broker",
		}),
	}
}

// RecordTransfer observes one transfer attempt.
func (c *Collector) RecordTransfer(duration time.Duration, success bool) {
	if success {
		c.transfersProcessed.Inc()
	} else {
		c.transfersFailed.Inc()
	}
	c.transferDuration.Observe(duration.Seconds())
}

// RecordAccountCreated counts one created account.
func (c *Collector) RecordAccountCreated() {
	c.accountsCreated.Inc()
}

// RecordMirrorRetry counts one re-enqueued mirror task.
func (c *Collector) RecordMirrorRetry() {
	c.mirrorRetries.Inc()
}

// RecordEventPublished counts one published outbox event.
func (c *Collector) RecordEventPublished() {
	c.eventsPublished.Inc()
}

// Handler exposes the registry for the /metrics route.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
