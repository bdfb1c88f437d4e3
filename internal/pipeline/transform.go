package pipeline

import (
	"fmt"
	"time"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

// TransformKind is the closed set of built-in transforms.
type TransformKind int

const (
	// aggregation
	TransformCount TransformKind = iota + 1
	TransformSum
	TransformAverage
	TransformMedian
	TransformMin
	TransformMax

	// filtering
	TransformFilter
	TransformFilterByDate
	TransformFilterByField
	TransformTop
	TransformBottom

	// sorting and grouping
	TransformSortBy
	TransformSortByCount
	TransformGroupBy
	TransformGroupByDate

	// statistical
	TransformPercentage
	TransformPercentageChange
	TransformTrend
	TransformRanking
	TransformNormalize

	// shaping
	TransformStatCard
	TransformRename
	TransformTruncate

	// formatting, terminal
	TransformRound
	TransformFormatNumber
	TransformFormatCurrency
	TransformFormatPercentage
)

var transformNames = map[string]TransformKind{
	"count":            TransformCount,
	"sum":              TransformSum,
	"average":          TransformAverage,
	"median":           TransformMedian,
	"min":              TransformMin,
	"max":              TransformMax,
	"filter":           TransformFilter,
	"filterByDate":     TransformFilterByDate,
	"filterByField":    TransformFilterByField,
	"top":              TransformTop,
	"bottom":           TransformBottom,
	"sortBy":           TransformSortBy,
	"sortByCount":      TransformSortByCount,
	"groupBy":          TransformGroupBy,
	"groupByDate":      TransformGroupByDate,
	"percentage":       TransformPercentage,
	"percentageChange": TransformPercentageChange,
	"trend":            TransformTrend,
	"ranking":          TransformRanking,
	"normalize":        TransformNormalize,
	"statCard":         TransformStatCard,
	"rename":           TransformRename,
	"truncate":         TransformTruncate,
	"round":            TransformRound,
	"formatNumber":     TransformFormatNumber,
	"formatCurrency":   TransformFormatCurrency,
	"formatPercentage": TransformFormatPercentage,
}

func (k TransformKind) String() string {
	for name, kind := range transformNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("TransformKind(%d)", int(k))
}

// Formatting reports whether the kind produces display output and must end the chain.
func (k TransformKind) Formatting() bool {
	return k >= TransformRound
}

// ParseTransformKind decodes a configured transform name.
func ParseTransformKind(name string) (TransformKind, bool) {
	k, ok := transformNames[name]
	return k, ok
}

// step is one decoded element of a transform chain.
type step struct {
	name   string
	kind   TransformKind
	params model.Params
	fn     model.TransformFunc
}

// decodeChain resolves transform names and checks that formatting steps come last.
// Inline funcs are opaque and allowed anywhere.
func decodeChain(specs []model.TransformSpec) ([]step, error) {
	steps := make([]step, 0, len(specs))
	formatterAt := -1
	for i, spec := range specs {
		if spec.Func != nil {
			name := spec.Type
			if name == "" {
				name = "custom"
			}
			steps = append(steps, step{name: name, params: spec.Params, fn: spec.Func})
			continue
		}
		kind, ok := ParseTransformKind(spec.Type)
		if !ok {
			return nil, engerrors.UnknownTransform(i, spec.Type)
		}
		if kind.Formatting() {
			if formatterAt < 0 {
				formatterAt = i
			}
		} else if formatterAt >= 0 {
			return nil, engerrors.MisplacedFormatter(formatterAt, specs[formatterAt].Type)
		}
		steps = append(steps, step{name: spec.Type, kind: kind, params: spec.Params})
	}
	return steps, nil
}

// transformEnv carries run settings some transforms need.
type transformEnv struct {
	loc *time.Location
}

// runChain feeds the value through every step in order.
func runChain(value interface{}, steps []step, env transformEnv) (interface{}, error) {
	var err error
	for i, s := range steps {
		if s.fn != nil {
			value, err = s.fn(value, s.params)
		} else {
			value, err = applyTransform(s.kind, value, s.params, env)
		}
		if err != nil {
			return nil, engerrors.TransformFailed(i, s.name, err)
		}
	}
	return value, nil
}

func applyTransform(kind TransformKind, value interface{}, p model.Params, env transformEnv) (interface{}, error) {
	switch kind {
	case TransformCount:
		return countOf(value)
	case TransformSum:
		return sumOf(value, p)
	case TransformAverage:
		return averageOf(value, p)
	case TransformMedian:
		return medianOf(value, p)
	case TransformMin:
		return minOf(value, p)
	case TransformMax:
		return maxOf(value, p)
	case TransformFilter:
		return filterRows(value, p)
	case TransformFilterByDate:
		return filterByDate(value, p, env)
	case TransformFilterByField:
		return filterByField(value, p)
	case TransformTop:
		return topRows(value, p, true)
	case TransformBottom:
		return topRows(value, p, false)
	case TransformSortBy:
		return sortBy(value, p.String("field", ""), p.String("order", "asc"))
	case TransformSortByCount:
		return sortBy(value, p.String("field", "count"), p.String("order", "desc"))
	case TransformGroupBy:
		return groupRows(value, p)
	case TransformGroupByDate:
		return groupRowsByDate(value, p, env)
	case TransformPercentage:
		return percentage(value, p)
	case TransformPercentageChange:
		return percentageChange(value, p)
	case TransformTrend:
		return trend(value, p)
	case TransformRanking:
		return ranking(value, p)
	case TransformNormalize:
		return normalize(value, p)
	case TransformStatCard:
		return statCard(value, p)
	case TransformRename:
		return rename(value, p)
	case TransformTruncate:
		return truncate(value, p)
	case TransformRound:
		return round(value, p)
	case TransformFormatNumber:
		return formatNumber(value, p)
	case TransformFormatCurrency:
		return formatCurrency(value, p)
	case TransformFormatPercentage:
		return formatPercentage(value, p)
	default:
		return nil, engerrors.UnknownTransform(-1, kind.String())
	}
}
