package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aria_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aria_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SpeechSegmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aria_speech_segments_total",
			Help: "Total number of speech segments played, by voice source.",
		},
		[]string{"source"},
	)

	SpeechFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aria_speech_fallbacks_total",
			Help: "Total number of remote-voice playbacks that fell back to the local engine.",
		},
	)

	CommandsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aria_commands_executed_total",
			Help: "Total number of integration commands dispatched, by outcome.",
		},
		[]string{"status"},
	)

	SyncTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aria_sync_tasks_total",
			Help: "Total number of background sync tasks, by terminal status.",
		},
		[]string{"component", "status"},
	)

	IntegrationCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aria_integration_cache_requests_total",
			Help: "Integration cache lookups, by result (hit or miss).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SpeechSegmentsTotal,
		SpeechFallbacksTotal,
		CommandsExecutedTotal,
		SyncTasksTotal,
		IntegrationCacheHits,
	)
}
