package pipeline

import (
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// statCard turns a number, or one field of an object, into {value, label}.
func statCard(value interface{}, p model.Params) (model.Row, error) {
	card := model.Row{"label": p.String("label", "")}
	if row, ok := asRow(value); ok {
		field, err := requiredField(p, "field")
		if err != nil {
			return nil, err
		}
		v, present := row[field]
		if !present {
			return nil, engerrors.InvalidParam("field", "input has no field "+field)
		}
		card["value"] = v
	} else {
		if _, ok := numericOnly(value); !ok {
			return nil, shapeError("number or object", value)
		}
		card["value"] = value
	}
	if p.Has("trend") {
		card["trend"] = p.Map("trend")
	}
	return card, nil
}

// rename moves keys old->new on a row or on every row of a list.
func rename(value interface{}, p model.Params) (interface{}, error) {
	mapping := p.Map("fields")
	if len(mapping) == 0 {
		return nil, engerrors.InvalidParam("fields", "is required")
	}
	apply := func(row model.Row) model.Row {
		out := make(model.Row, len(row))
		for k, v := range row {
			if to, ok := mapping[k]; ok {
				out[utils.Stringify(to)] = v
				continue
			}
			out[k] = v
		}
		return out
	}

	if row, ok := asRow(value); ok {
		return apply(row), nil
	}
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	out := make([]model.Row, len(rows))
	for i, row := range rows {
		out[i] = apply(row)
	}
	return out, nil
}

// truncate shortens a text field to max runes, ending in "...". keepAs stores the original.
func truncate(value interface{}, p model.Params) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field := p.String("field", "name")
	limit := p.Int("max", 0)
	if limit <= 0 {
		return nil, engerrors.InvalidParam("max", "must be positive")
	}
	keepAs := p.String("keepAs", "")

	out := copyRows(rows)
	for _, row := range out {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		text := []rune(utils.Stringify(v))
		if keepAs != "" {
			row[keepAs] = string(text)
		}
		if len(text) <= limit {
			continue
		}
		if limit <= 3 {
			row[field] = string(text[:limit])
			continue
		}
		row[field] = string(text[:limit-3]) + "..."
	}
	return out, nil
}
