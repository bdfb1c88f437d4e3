package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyMetricID   = "metric_id"
	KeyExtractor  = "extractor"
	KeyTransform  = "transform"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRecords    = "records"
	KeyMetrics    = "metrics"
	KeyDashboard  = "dashboard"
	KeyStatus     = "status"
	KeyError      = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func MetricID(id string) slog.Attr    { return slog.String(KeyMetricID, id) }
func Extractor(k string) slog.Attr    { return slog.String(KeyExtractor, k) }
func Transform(k string) slog.Attr    { return slog.String(KeyTransform, k) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Records(n int) slog.Attr         { return slog.Int(KeyRecords, n) }
func Metrics(n int) slog.Attr         { return slog.Int(KeyMetrics, n) }
func Dashboard(name string) slog.Attr { return slog.String(KeyDashboard, name) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
