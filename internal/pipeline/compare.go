package pipeline

import (
	"math"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

func direction(change float64) string {
	switch {
	case change > 0:
		return "up"
	case change < 0:
		return "down"
	}
	return "neutral"
}

// extractComparison builds a stat card comparing one volume bucket against the average
// value of a time series published by another metric.
func extractComparison(records []model.Record, p model.Params, env runEnv) (model.Row, error) {
	bucket := p.String("bucket", "today")
	switch bucket {
	case "total", "today", "thisWeek", "thisMonth":
	default:
		return nil, engerrors.InvalidParam("bucket", "must be one of total, today, thisWeek, thisMonth")
	}

	volume := extractVolume(records, p, env)
	current := float64(volume[bucket].(int))

	var avg float64
	if against := p.String("against", ""); against != "" {
		series := env.snap.Rows(against)
		valueField := p.String("valueField", "value")
		var sum float64
		for _, row := range series {
			sum += utils.Numeric(row[valueField])
		}
		if len(series) > 0 {
			avg = sum / float64(len(series))
		}
	}

	change := 0.0
	if avg > 0 {
		change = (current - avg) / avg * 100
	}

	return model.Row{
		"value": volume[bucket],
		"label": p.String("label", ""),
		"trend": model.Row{
			"value":     math.Abs(change),
			"direction": direction(change),
			"label":     p.String("trendLabel", "vs daily avg"),
		},
	}, nil
}
