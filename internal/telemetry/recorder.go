package telemetry

import "time"

// ResultLabel enumerates metric outcome categories for counters.
type ResultLabel string

const (
	ResultOK      ResultLabel = "ok"
	ResultFailed  ResultLabel = "failed"
	ResultHidden  ResultLabel = "hidden"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for engine runs. Implementations
// may forward to Prometheus or anything else; NoopRecorder is the default.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	ObserveMetricDuration(extractor string, d time.Duration)
	IncMetricResult(extractor string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|partial|config_error|canceled
	SetRecordCount(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(time.Duration)            {}
func (NoopRecorder) ObserveMetricDuration(string, time.Duration) {}
func (NoopRecorder) IncMetricResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string)                        {}
func (NoopRecorder) SetRecordCount(int)                          {}
