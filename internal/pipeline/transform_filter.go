package pipeline

import (
	"sort"
	"strings"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// predicate is the declarative form of the filter transform: field, op, value.
type predicate struct {
	field string
	op    string
	value interface{}
	set   []interface{}
}

func parsePredicate(p model.Params) (predicate, error) {
	pr := predicate{
		field: p.String("field", ""),
		op:    p.String("op", "eq"),
		value: p["value"],
	}
	if pr.field == "" {
		return pr, engerrors.InvalidParam("field", "is required")
	}
	switch pr.op {
	case "eq", "ne", "gt", "gte", "lt", "lte", "contains", "exists":
	case "in":
		pr.set = p.Values("value")
	default:
		return pr, engerrors.InvalidParam("op", "unsupported operator "+pr.op)
	}
	return pr, nil
}

func (pr predicate) match(row model.Row) bool {
	v, present := row[pr.field]
	switch pr.op {
	case "exists":
		want := true
		if b, ok := pr.value.(bool); ok {
			want = b
		}
		return (present && !utils.IsEmpty(v)) == want
	case "eq":
		return looseEqual(v, pr.value)
	case "ne":
		return !looseEqual(v, pr.value)
	case "in":
		for _, candidate := range pr.set {
			if looseEqual(v, candidate) {
				return true
			}
		}
		return false
	case "contains":
		if list, ok := v.([]interface{}); ok {
			for _, item := range list {
				if looseEqual(item, pr.value) {
					return true
				}
			}
			return false
		}
		return v != nil && strings.Contains(utils.Stringify(v), utils.Stringify(pr.value))
	}

	if v == nil {
		return false
	}
	c := compareValues(v, pr.value)
	switch pr.op {
	case "gt":
		return c > 0
	case "gte":
		return c >= 0
	case "lt":
		return c < 0
	case "lte":
		return c <= 0
	}
	return false
}

// looseEqual compares numbers numerically and everything else by its text form.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := numericOnly(a)
	bf, bok := numericOnly(b)
	if aok && bok {
		return af == bf
	}
	return utils.Stringify(a) == utils.Stringify(b)
}

func filterRows(value interface{}, p model.Params) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	pr, err := parsePredicate(p)
	if err != nil {
		return nil, err
	}
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if pr.match(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

// filterByDate keeps rows whose date field falls inside the inclusive start/end bounds.
// Rows with an unparseable date are dropped.
func filterByDate(value interface{}, p model.Params, env transformEnv) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field, err := requiredField(p, "field")
	if err != nil {
		return nil, err
	}
	start, hasStart := p.Time("start", env.loc)
	end, hasEnd := p.Time("end", env.loc)
	if p.Has("start") && !hasStart {
		return nil, engerrors.InvalidParam("start", "not a timestamp")
	}
	if p.Has("end") && !hasEnd {
		return nil, engerrors.InvalidParam("end", "not a timestamp")
	}

	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		ts, ok := utils.ParseTime(row[field], env.loc)
		if !ok {
			continue
		}
		if hasStart && ts.Before(start) {
			continue
		}
		if hasEnd && ts.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func filterByField(value interface{}, p model.Params) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field, err := requiredField(p, "field")
	if err != nil {
		return nil, err
	}
	allowed := p.Values("values")
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		for _, candidate := range allowed {
			if looseEqual(row[field], candidate) {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

// topRows keeps n rows. With "by" the rows are stably sorted first (descending for top,
// ascending for bottom) and the first n kept; without it top keeps the head and bottom the tail.
func topRows(value interface{}, p model.Params, descending bool) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	n := p.Int("n", 10)
	if n < 0 {
		return nil, engerrors.InvalidParam("n", "must not be negative")
	}
	out := append([]model.Row(nil), rows...)
	by := p.String("by", "")
	if by == "" && !descending {
		if n < len(out) {
			out = out[len(out)-n:]
		}
		return out, nil
	}
	if by != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i][by], out[j][by])
			if descending {
				// nils still sort last
				if out[i][by] == nil || out[j][by] == nil {
					return c < 0
				}
				return c > 0
			}
			return c < 0
		})
	}
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}
