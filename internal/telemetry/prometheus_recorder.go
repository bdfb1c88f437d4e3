package telemetry

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	runDuration    prom.Histogram
	metricDuration *prom.HistogramVec
	metricResults  *prom.CounterVec
	runOutcome     *prom.CounterVec
	recordCount    prom.Gauge
}

// NewPrometheusRecorder constructs and registers the engine metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "metric_engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full engine run",
			Buckets:   prom.DefBuckets,
		})
		pr.metricDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "metric_engine",
			Name:      "metric_duration_seconds",
			Help:      "Duration of a single metric computation by extractor kind",
			Buckets:   prom.DefBuckets,
		}, []string{"extractor"})
		pr.metricResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "metric_engine",
			Name:      "metric_results_total",
			Help:      "Metric outcomes by extractor kind",
		}, []string{"extractor", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "metric_engine",
			Name:      "run_outcomes_total",
			Help:      "Engine runs by final status",
		}, []string{"outcome"})
		pr.recordCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "metric_engine",
			Name:      "records",
			Help:      "Number of records in the last engine run",
		})
		reg.MustRegister(pr.runDuration, pr.metricDuration, pr.metricResults, pr.runOutcome, pr.recordCount)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveMetricDuration(extractor string, d time.Duration) {
	if p == nil {
		return
	}
	p.metricDuration.WithLabelValues(extractor).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncMetricResult(extractor string, result ResultLabel) {
	if p == nil {
		return
	}
	p.metricResults.WithLabelValues(extractor, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetRecordCount(n int) {
	if p == nil {
		return
	}
	p.recordCount.Set(float64(n))
}
