package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes recorded per request.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeNotReady = "not_ready"
	OutcomeError    = "error"
)

// Collaborative scoring paths.
const (
	PathCached   = "cached"
	PathModel    = "model"
	PathFallback = "fallback"
)

// MetricsCollector holds the recommender's Prometheus instruments.
type MetricsCollector struct {
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	cacheLookups      *prometheus.CounterVec
	collaborativePath *prometheus.CounterVec
	inferenceLatency  prometheus.Histogram
	modelReady        prometheus.Gauge
}

// NewMetricsCollector registers the collectors on reg. A nil registerer
// creates unregistered collectors, which is what tests use.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opening_predictions_total",
			Help: "Total number of recommendation requests by outcome",
		}, []string{"outcome"}),
		predictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "opening_prediction_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opening_prediction_cache_lookups_total",
			Help: "Prediction cache lookups by result",
		}, []string{"result"}),
		collaborativePath: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opening_collaborative_path_total",
			Help: "Collaborative scoring requests by path taken",
		}, []string{"path"}),
		inferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "opening_model_inference_duration_seconds",
			Help:    "Latency of one embedding model batch",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}),
		modelReady: factory.NewGauge(prometheus.GaugeOpts{
			Name: "opening_model_ready",
			Help: "Whether the artifacts are installed (1 = ready)",
		}),
	}
}

func (m *MetricsCollector) RecordPrediction(outcome string, elapsed time.Duration) {
	m.predictions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeEmpty {
		m.predictionLatency.Observe(elapsed.Seconds())
	}
}

func (m *MetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *MetricsCollector) RecordCollaborativePath(path string) {
	m.collaborativePath.WithLabelValues(path).Inc()
}

func (m *MetricsCollector) ObserveInference(elapsed time.Duration) {
	m.inferenceLatency.Observe(elapsed.Seconds())
}

func (m *MetricsCollector) SetModelReady(ready bool) {
	if ready {
		m.modelReady.Set(1)
		return
	}
	m.modelReady.Set(0)
}
