package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds all Prometheus metrics for the coverage pipeline.
type PipelineMetrics struct {
	EventsTotal    *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	AlertsTotal    *prometheus.CounterVec
	SSEClients     prometheus.Gauge
	BroadcastDrops *prometheus.CounterVec
}

// NewPipelineMetrics initializes and registers the Prometheus metrics.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenepulse",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Total number of events seen at each pipeline stage.",
		}, []string{"stage"}), // stage: ingested, normalized, published
		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenepulse",
			Subsystem: "pipeline",
			Name:      "source_failures_total",
			Help:      "Total number of failed ingestion source fetches by source.",
		}, []string{"source"}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenepulse",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status.",
		}, []string{"status"}), // status: ok, error
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scenepulse",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of full pipeline runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		AlertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenepulse",
			Subsystem: "alerts",
			Name:      "generated_total",
			Help:      "Total number of alerts generated by detector type.",
		}, []string{"alert_type"}),
		SSEClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "scenepulse",
			Subsystem: "realtime",
			Name:      "sse_clients",
			Help:      "Number of currently connected SSE clients.",
		}),
		BroadcastDrops: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenepulse",
			Subsystem: "realtime",
			Name:      "broadcast_drops_total",
			Help:      "Total number of dropped realtime broadcasts by transport.",
		}, []string{"transport"}),
	}
}
