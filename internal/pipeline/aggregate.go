package pipeline

import (
	"sort"
	"strings"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// groupAggregate accumulates the metrics of one group
type groupAggregate struct {
	group   string
	count   int
	metrics model.Row
	counts  map[string]int // values seen per field, for averages
}

// aggregator performs a group-by over records with count/sum/avg/min/max/first/last
type aggregator struct {
	groupBy string
	metrics []string
	fields  []string // empty means every numeric field
	order   []string
	groups  map[string]*groupAggregate
}

// extractAggregation groups records by a field and computes the requested metrics per group.
// Output rows are sorted by group name.
func extractAggregation(records []model.Record, p model.Params) ([]model.Row, error) {
	groupBy, err := requiredField(p, "groupBy")
	if err != nil {
		return nil, err
	}
	metrics := p.Strings("metrics")
	if len(metrics) == 0 {
		metrics = []string{"count"}
	}
	for _, m := range metrics {
		switch strings.ToLower(m) {
		case "count", "sum", "avg", "average", "min", "max", "first", "last":
		default:
			return nil, engerrors.InvalidParam("metrics", "unsupported aggregation "+m)
		}
	}

	agg := &aggregator{
		groupBy: groupBy,
		metrics: metrics,
		fields:  p.Strings("fields"),
		groups:  make(map[string]*groupAggregate),
	}
	for _, rec := range records {
		agg.processRecord(rec)
	}
	return agg.rows(), nil
}

// processRecord updates the group the record belongs to
func (a *aggregator) processRecord(rec model.Record) {
	groupKey := unknownBucket
	if v := rec[a.groupBy]; !utils.IsEmpty(v) {
		groupKey = utils.Stringify(v)
	}

	result, exists := a.groups[groupKey]
	if !exists {
		result = &groupAggregate{
			group:   groupKey,
			metrics: make(model.Row),
			counts:  make(map[string]int),
		}
		a.groups[groupKey] = result
		a.order = append(a.order, groupKey)
	}

	for _, metric := range a.metrics {
		a.updateMetric(result, rec, metric)
	}
	result.count++
}

// numericFields returns the fields to aggregate for one record
func (a *aggregator) numericFields(rec model.Record) map[string]float64 {
	out := make(map[string]float64)
	if len(a.fields) > 0 {
		for _, f := range a.fields {
			if num, ok := numericOnly(rec[f]); ok {
				out[f] = num
			}
		}
		return out
	}
	for key, value := range rec {
		if key == a.groupBy {
			continue
		}
		if num, ok := numericOnly(value); ok {
			out[key] = num
		}
	}
	return out
}

// updateMetric updates a specific metric for a record
func (a *aggregator) updateMetric(result *groupAggregate, rec model.Record, metric string) {
	switch strings.ToLower(metric) {
	case "count":
		// count is handled by the group count
		return
	case "sum":
		for key, num := range a.numericFields(rec) {
			result.metrics["sum_"+key] = utils.Numeric(result.metrics["sum_"+key]) + num
		}
	case "average", "avg":
		for key, num := range a.numericFields(rec) {
			totalKey := "_total_" + key
			result.metrics[totalKey] = utils.Numeric(result.metrics[totalKey]) + num
			result.counts[key]++
		}
	case "min":
		for key, num := range a.numericFields(rec) {
			minKey := "min_" + key
			if existing, ok := result.metrics[minKey]; !ok || num < existing.(float64) {
				result.metrics[minKey] = num
			}
		}
	case "max":
		for key, num := range a.numericFields(rec) {
			maxKey := "max_" + key
			if existing, ok := result.metrics[maxKey]; !ok || num > existing.(float64) {
				result.metrics[maxKey] = num
			}
		}
	case "first":
		for _, key := range a.valueFields(rec) {
			if _, exists := result.metrics["first_"+key]; !exists {
				result.metrics["first_"+key] = rec[key]
			}
		}
	case "last":
		for _, key := range a.valueFields(rec) {
			result.metrics["last_"+key] = rec[key]
		}
	}
}

// valueFields is the field list for first/last, which are not restricted to numbers
func (a *aggregator) valueFields(rec model.Record) []string {
	if len(a.fields) > 0 {
		return a.fields
	}
	keys := make([]string, 0, len(rec))
	for key := range rec {
		if key != a.groupBy {
			keys = append(keys, key)
		}
	}
	return keys
}

// rows finalizes averages and sorts groups by name
func (a *aggregator) rows() []model.Row {
	out := make([]model.Row, 0, len(a.order))
	for _, key := range a.order {
		g := a.groups[key]
		row := model.Row{"group": g.group, "count": g.count}
		for k, v := range g.metrics {
			if strings.HasPrefix(k, "_total_") {
				field := strings.TrimPrefix(k, "_total_")
				if n := g.counts[field]; n > 0 {
					row["avg_"+field] = utils.Numeric(v) / float64(n)
				}
				continue
			}
			row[k] = v
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i]["group"].(string) < out[j]["group"].(string)
	})
	return out
}
