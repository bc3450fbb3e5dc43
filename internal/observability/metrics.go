// Package observability exposes Prometheus metrics for retrieval, caching and
// rendering.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rates_dashboard"

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "fetches_total",
		Help:      "Upstream series retrievals by identifier and outcome",
	}, []string{"series", "status"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "fetch_duration_seconds",
		Help:      "Upstream series retrieval latency including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"series"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "cache_hits_total",
		Help:      "Series served from the process cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "cache_misses_total",
		Help:      "Series requests that required an upstream retrieval",
	})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "renders_total",
		Help:      "Dashboard renders by outcome",
	}, []string{"status"})

	panelsUnavailable = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "panels_unavailable_total",
		Help:      "Panels that could not be computed, by panel and reason",
	}, []string{"panel", "reason"})

	chartRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "charts",
		Name:      "renders_total",
		Help:      "Chart image requests by cache outcome",
	}, []string{"cache"})
)

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one upstream retrieval.
func RecordFetch(id string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	fetchesTotal.WithLabelValues(id, status).Inc()
	fetchDuration.WithLabelValues(id).Observe(seconds)
}

func RecordCacheHit()  { cacheHits.Inc() }
func RecordCacheMiss() { cacheMisses.Inc() }

// RecordRender records a completed or aborted dashboard render.
func RecordRender(err error) {
	if err != nil {
		rendersTotal.WithLabelValues("error").Inc()
		return
	}
	rendersTotal.WithLabelValues("ok").Inc()
}

// RecordPanelUnavailable records a panel degraded to "unavailable" or "no data".
func RecordPanelUnavailable(panel, reason string) {
	panelsUnavailable.WithLabelValues(panel, reason).Inc()
}

// RecordChart records a chart image request served from cache or freshly drawn.
func RecordChart(cached bool) {
	if cached {
		chartRenders.WithLabelValues("hit").Inc()
		return
	}
	chartRenders.WithLabelValues("miss").Inc()
}
