// Package metrics — счётчики Prometheus для api и prep. Регистрируются в реестре по умолчанию,
// отдаются через promhttp.Handler() на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Исходы запроса отчёта.
const (
	OutcomeFound   = "found"
	OutcomeNoData  = "no_data"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var (
	// HTTPRequests — запросы по маршруту и коду ответа.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wrapped",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	// ReportRequests — запросы отчёта по исходу (found / no_data / invalid / error).
	ReportRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wrapped",
		Name:      "report_requests_total",
		Help:      "Wrapped report lookups by outcome.",
	}, []string{"source", "outcome"})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wrapped",
		Name:      "report_cache_hits_total",
		Help:      "Report lookups served from cache.",
	})

	PipelineChannels = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wrapped",
		Subsystem: "pipeline",
		Name:      "channels_total",
		Help:      "Channels processed by the pipeline, by status.",
	}, []string{"status"})

	PipelineMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wrapped",
		Subsystem: "pipeline",
		Name:      "messages_total",
		Help:      "Messages read from the export.",
	})

	PipelineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wrapped",
		Subsystem: "pipeline",
		Name:      "users",
		Help:      "Users in the last computed report set.",
	})

	PipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wrapped",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		ReportRequests,
		CacheHits,
		PipelineChannels,
		PipelineMessages,
		PipelineUsers,
		PipelineDuration,
	)
}
