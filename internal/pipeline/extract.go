package pipeline

import (
	"fmt"
	"sort"
	"time"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// ExtractorKind is the closed set of built-in extractors.
type ExtractorKind int

const (
	ExtractVolume ExtractorKind = iota + 1
	ExtractDistribution
	ExtractTopN
	ExtractTimeSeries
	ExtractComparison
	ExtractAggregation
)

var extractorNames = map[string]ExtractorKind{
	"volume":       ExtractVolume,
	"distribution": ExtractDistribution,
	"topN":         ExtractTopN,
	"timeSeries":   ExtractTimeSeries,
	"comparison":   ExtractComparison,
	"aggregation":  ExtractAggregation,
}

func (k ExtractorKind) String() string {
	for name, kind := range extractorNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("ExtractorKind(%d)", int(k))
}

// ParseExtractorKind decodes a configured extractor name.
func ParseExtractorKind(name string) (ExtractorKind, error) {
	k, ok := extractorNames[name]
	if !ok {
		return 0, engerrors.UnknownExtractor(name)
	}
	return k, nil
}

const (
	defaultTimestampField = "dateOfIncident"
	defaultFallbackField  = "_creationTime"
	unknownBucket         = "Unknown"
)

// runEnv is the per-run state shared by every extractor of one metric.
type runEnv struct {
	now  time.Time
	loc  *time.Location
	snap model.Snapshot
}

// extract runs the declared extractor. Inline funcs take precedence over the kind.
func extract(spec model.ExtractorSpec, records []model.Record, env runEnv) (interface{}, error) {
	if spec.Func != nil {
		return spec.Func(records, spec.Params, env.snap)
	}
	kind, err := ParseExtractorKind(spec.Type)
	if err != nil {
		return nil, err
	}
	p := spec.Params

	switch kind {
	case ExtractVolume:
		return extractVolume(records, p, env), nil
	case ExtractDistribution:
		field, err := requiredField(p, "field")
		if err != nil {
			return nil, err
		}
		return extractDistribution(records, field), nil
	case ExtractTopN:
		field, err := requiredField(p, "field")
		if err != nil {
			return nil, err
		}
		n := p.Int("n", 10)
		if n < 0 {
			return nil, engerrors.InvalidParam("n", "must not be negative")
		}
		return extractTopN(records, field, n), nil
	case ExtractTimeSeries:
		return extractTimeSeries(records, p, env)
	case ExtractComparison:
		return extractComparison(records, p, env)
	case ExtractAggregation:
		return extractAggregation(records, p)
	default:
		return nil, engerrors.UnknownExtractor(spec.Type)
	}
}

func requiredField(p model.Params, name string) (string, error) {
	field := p.String(name, "")
	if field == "" {
		return "", engerrors.InvalidParam(name, "is required")
	}
	return field, nil
}

// recordTime reads the primary timestamp field, falling back to the secondary one.
func recordTime(rec model.Record, field, fallback string, loc *time.Location) (time.Time, bool) {
	if t, ok := utils.ParseTime(rec[field], loc); ok {
		return t, true
	}
	if fallback == "" {
		return time.Time{}, false
	}
	return utils.ParseTime(rec[fallback], loc)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// extractVolume counts records in the total/today/week/month buckets. Records without a
// usable timestamp only count toward the total.
func extractVolume(records []model.Record, p model.Params, env runEnv) model.Row {
	field := p.String("field", defaultTimestampField)
	fallback := p.String("fallbackField", defaultFallbackField)

	now := env.now.In(env.loc)
	todayStart := startOfDay(now)
	weekStart := now.Add(-7 * 24 * time.Hour)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, env.loc)

	var today, week, month int
	for _, rec := range records {
		ts, ok := recordTime(rec, field, fallback, env.loc)
		if !ok {
			continue
		}
		if !ts.Before(todayStart) {
			today++
		}
		if !ts.Before(weekStart) {
			week++
		}
		if !ts.Before(monthStart) {
			month++
		}
	}

	return model.Row{
		"total":     len(records),
		"today":     today,
		"thisWeek":  week,
		"thisMonth": month,
	}
}

type bucketCount struct {
	name  string
	count int
}

// countByField groups records by a field in first-encountered order. Missing or blank
// values land in the "Unknown" bucket.
func countByField(records []model.Record, field string) []bucketCount {
	index := make(map[string]int)
	var buckets []bucketCount
	for _, rec := range records {
		name := unknownBucket
		if v := rec[field]; !utils.IsEmpty(v) {
			name = utils.Stringify(v)
		}
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, bucketCount{name: name})
		}
		buckets[i].count++
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].count > buckets[j].count
	})
	return buckets
}

func percentOf(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

func extractDistribution(records []model.Record, field string) []model.Row {
	total := float64(len(records))
	buckets := countByField(records, field)
	out := make([]model.Row, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, model.Row{
			"name":       b.name,
			"value":      b.count,
			"percentage": percentOf(float64(b.count), total),
		})
	}
	return out
}

func extractTopN(records []model.Record, field string, n int) []model.Row {
	total := float64(len(records))
	buckets := countByField(records, field)
	if n < len(buckets) {
		buckets = buckets[:n]
	}
	out := make([]model.Row, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, model.Row{
			"name":       b.name,
			"count":      b.count,
			"percentage": percentOf(float64(b.count), total),
		})
	}
	return out
}
