package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status code",
	}, []string{"route", "code"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of HTTP request durations in seconds by route",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"route"})
	httpThrottled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_throttled_total",
		Help:      "Total number of HTTP requests rejected by the rate limiter",
	})

	eventsProduced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_produced_total",
		Help:      "Total number of events produced by topic and result",
	}, []string{"topic", "result"})
	viewsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_views_processed_total",
		Help:      "Total number of product views folded into the activity table",
	})
	catalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_products",
		Help:      "Number of products in the last full catalog read",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration, httpThrottled,
			eventsProduced, viewsProcessed, catalogSize,
		)
	})
}

// Handler serves the global registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveRequest(route string, code int, d time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func IncThrottled() { httpThrottled.Inc() }

func IncEventProduced(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsProduced.WithLabelValues(topic, result).Inc()
}

func IncViewsProcessed() { viewsProcessed.Inc() }
func SetCatalogSize(n int) { catalogSize.Set(float64(n)) }
