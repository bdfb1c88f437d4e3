package pipeline

import (
	"sort"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// sortBy stably sorts rows on field. Missing values sort last in both directions.
func sortBy(value interface{}, field, order string) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return nil, engerrors.InvalidParam("field", "is required")
	}
	var descending bool
	switch order {
	case "asc":
	case "desc":
		descending = true
	default:
		return nil, engerrors.InvalidParam("order", "must be asc or desc")
	}

	out := append([]model.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i][field], out[j][field]
		c := compareValues(a, b)
		if descending && a != nil && b != nil {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

// groupRows buckets rows by a field value; missing values go to "Unknown".
func groupRows(value interface{}, p model.Params) (map[string][]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field, err := requiredField(p, "field")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]model.Row)
	for _, row := range rows {
		key := unknownBucket
		if v := row[field]; !utils.IsEmpty(v) {
			key = utils.Stringify(v)
		}
		out[key] = append(out[key], row)
	}
	return out, nil
}

// groupRowsByDate buckets rows by the period key of a date field. Rows with an unparseable
// date are dropped.
func groupRowsByDate(value interface{}, p model.Params, env transformEnv) (map[string][]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field, err := requiredField(p, "field")
	if err != nil {
		return nil, err
	}
	g, err := ParseGranularity(p.String("groupBy", "day"), true)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]model.Row)
	for _, row := range rows {
		ts, ok := utils.ParseTime(row[field], env.loc)
		if !ok {
			continue
		}
		key := g.key(g.bucketStart(ts.In(env.loc)))
		out[key] = append(out[key], row)
	}
	return out, nil
}
