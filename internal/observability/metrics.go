package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_http_requests_total",
			Help: "Total number of HTTP requests processed by the ops surface.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatshim_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	hookInstallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_hook_installs_total",
			Help: "Decorator installations on the host function table by outcome.",
		},
		[]string{"capability", "outcome"},
	)
	createAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_chat_create_attempts_total",
			Help: "Chat record creation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	createExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatshim_chat_create_retry_exhausted_total",
			Help: "Creation calls that failed every retry attempt.",
		},
	)
	selfHealTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_chat_selfheal_total",
			Help: "Self-healing lookup resolutions by outcome.",
		},
		[]string{"outcome"},
	)
	coerceFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatshim_lid_coerce_fallbacks_total",
			Help: "Strict LID coercions degraded to the original identifier.",
		},
	)
	deriveInstallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_derived_attribute_installs_total",
			Help: "Derived attribute installations by outcome.",
		},
		[]string{"outcome"},
	)
	contactCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_contact_cache_total",
			Help: "Contact cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
	hostlinkActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatshim_hostlink_active_connections",
			Help: "Number of active host lifecycle connections.",
		},
	)
	hostlinkEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshim_hostlink_events_total",
			Help: "Host lifecycle events received by type.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatshim_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		hookInstallsTotal,
		createAttemptsTotal,
		createExhaustedTotal,
		selfHealTotal,
		coerceFallbacksTotal,
		deriveInstallsTotal,
		contactCacheTotal,
		hostlinkActiveConnections,
		hostlinkEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func RecordHookInstall(capability, outcome string) {
	hookInstallsTotal.WithLabelValues(capability, outcome).Inc()
}

func RecordCreateAttempt(outcome string) {
	createAttemptsTotal.WithLabelValues(outcome).Inc()
}

func RecordCreateExhausted() {
	createExhaustedTotal.Inc()
}

func RecordSelfHeal(outcome string) {
	selfHealTotal.WithLabelValues(outcome).Inc()
}

func RecordCoerceFallback() {
	coerceFallbacksTotal.Inc()
}

func RecordDeriveInstall(outcome string) {
	deriveInstallsTotal.WithLabelValues(outcome).Inc()
}

func RecordContactCache(outcome string) {
	contactCacheTotal.WithLabelValues(outcome).Inc()
}

func IncHostlinkActive() {
	hostlinkActiveConnections.Inc()
}

func DecHostlinkActive() {
	hostlinkActiveConnections.Dec()
}

func RecordHostlinkEvent(event string) {
	hostlinkEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
