package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transport label values.
const (
	TransportHTTP  = "http"
	TransportKafka = "kafka"
)

var (
	EventsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thumbnail",
		Name:      "events_received_total",
		Help:      "Storage notifications received, by transport.",
	}, []string{"transport"})
	EventsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thumbnail",
		Name:      "events_rejected_total",
		Help:      "Storage notifications that could not be parsed, by transport.",
	}, []string{"transport"})
	Invocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thumbnail",
		Name:      "invocations_total",
		Help:      "Pipeline invocations, by outcome (processed, skipped, failed).",
	}, []string{"outcome"})
	StageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thumbnail",
		Name:      "stage_failures_total",
		Help:      "Pipeline failures, by stage.",
	}, []string{"stage"})
	PipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "thumbnail",
		Name:      "pipeline_duration_seconds",
		Help:      "Wall time of one pipeline invocation, by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	OutputBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "thumbnail",
		Name:      "output_bytes",
		Help:      "Size of written thumbnails.",
		Buckets:   prometheus.ExponentialBuckets(1024, 2, 10),
	})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(EventsReceived, EventsRejected, Invocations, StageFailures, PipelineDuration, OutputBytes)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveInvocation records the outcome and duration of one invocation.
// stage is only recorded for failures.
func ObserveInvocation(outcome, stage string, d time.Duration) {
	Invocations.WithLabelValues(outcome).Inc()
	PipelineDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if stage != "" {
		StageFailures.WithLabelValues(stage).Inc()
	}
}
