package pipeline

import (
	"log/slog"
	"time"

	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/telemetry"
)

// runTracker collects per-metric outcomes of one engine run and forwards them to the
// telemetry recorder.
type runTracker struct {
	report   model.RunReport
	statuses []model.MetricStatus
	started  time.Time
	recorder telemetry.Recorder
	logger   *slog.Logger
}

func newRunTracker(runID string, now time.Time, decls []model.MetricDeclaration, records int, rec telemetry.Recorder, logger *slog.Logger) *runTracker {
	t := &runTracker{
		report: model.RunReport{
			RunID:     runID,
			StartedAt: time.Now(),
			Now:       now,
			Records:   records,
		},
		statuses: make([]model.MetricStatus, len(decls)),
		started:  time.Now(),
		recorder: rec,
		logger:   logger,
	}
	for i, d := range decls {
		t.statuses[i] = model.MetricStatus{
			ID:           d.ID,
			Status:       model.StatusSkipped,
			Extractor:    extractorLabel(d.Extractor),
			Transforms:   len(d.Transforms),
			Dependencies: d.Dependencies,
		}
	}
	rec.SetRecordCount(records)
	return t
}

func extractorLabel(spec model.ExtractorSpec) string {
	if spec.Func != nil && spec.Type == "" {
		return "custom"
	}
	return spec.Type
}

// complete records the outcome of one declaration.
func (t *runTracker) complete(i int, status string, d time.Duration, err error) {
	s := &t.statuses[i]
	s.Status = status
	s.Duration = d
	if err != nil {
		s.Error = err.Error()
	}

	t.recorder.ObserveMetricDuration(s.Extractor, d)
	t.recorder.IncMetricResult(s.Extractor, resultLabel(status))

	attrs := []any{
		logfields.MetricID(s.ID),
		logfields.Extractor(s.Extractor),
		logfields.Status(status),
		logfields.DurationMS(float64(d.Microseconds()) / 1000),
	}
	if err != nil {
		t.logger.Warn("metric failed", append(attrs, logfields.Error(err))...)
		return
	}
	t.logger.Debug("metric computed", attrs...)
}

func resultLabel(status string) telemetry.ResultLabel {
	switch status {
	case model.StatusOK:
		return telemetry.ResultOK
	case model.StatusHidden:
		return telemetry.ResultHidden
	case model.StatusFailed:
		return telemetry.ResultFailed
	}
	return telemetry.ResultSkipped
}

// finish seals the report and records the run outcome.
func (t *runTracker) finish(order []string, graphErr error, canceled bool) model.RunReport {
	t.report.Duration = time.Since(t.started)
	t.report.Order = order
	t.report.Metrics = t.statuses

	outcome := "success"
	switch {
	case graphErr != nil:
		outcome = "config_error"
	case canceled:
		outcome = "canceled"
	case t.report.Count(model.StatusFailed) > 0:
		outcome = "partial"
	}
	t.recorder.ObserveRunDuration(t.report.Duration)
	t.recorder.IncRunOutcome(outcome)

	t.logger.Info("metric run finished",
		logfields.Metrics(len(t.statuses)),
		logfields.Records(t.report.Records),
		logfields.Status(outcome),
		logfields.DurationMS(float64(t.report.Duration.Microseconds())/1000),
		slog.Int("failed", t.report.Count(model.StatusFailed)),
		slog.Int("hidden", t.report.Count(model.StatusHidden)),
	)
	return t.report
}
