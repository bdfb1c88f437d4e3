package pipeline

import (
	"reflect"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// asRows coerces an intermediate value into a row list. Accepts the shapes extractors,
// inline funcs and decoded JSON produce.
func asRows(value interface{}) ([]model.Row, bool) {
	switch v := value.(type) {
	case []model.Row:
		return v, true
	case []map[string]interface{}:
		out := make([]model.Row, len(v))
		for i, m := range v {
			out[i] = model.Row(m)
		}
		return out, true
	case []model.Record:
		out := make([]model.Row, len(v))
		for i, r := range v {
			out[i] = model.Row(r)
		}
		return out, true
	case []interface{}:
		out := make([]model.Row, 0, len(v))
		for _, item := range v {
			row, ok := asRow(item)
			if !ok {
				return nil, false
			}
			out = append(out, row)
		}
		return out, true
	}
	return nil, false
}

func asRow(value interface{}) (model.Row, bool) {
	switch v := value.(type) {
	case model.Row:
		return v, true
	case map[string]interface{}:
		return model.Row(v), true
	case model.Record:
		return model.Row(v), true
	}
	return nil, false
}

// requireRows is asRows with a shape error.
func requireRows(value interface{}) ([]model.Row, error) {
	rows, ok := asRows(value)
	if !ok {
		return nil, shapeError("array of objects", value)
	}
	return rows, nil
}

func requireNumber(value interface{}) (float64, error) {
	f, ok := numericOnly(value)
	if !ok {
		return 0, shapeError("number", value)
	}
	return f, nil
}

// lengthOf returns the element count of slices and maps.
func lengthOf(value interface{}) (int, bool) {
	if value == nil {
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func shapeError(expected string, got interface{}) error {
	return engerrors.ShapeMismatch(expected, got)
}

// copyRows returns shallow row copies so a transform never writes into its input.
func copyRows(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		c := make(model.Row, len(r)+1)
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// compareValues orders two field values: numbers numerically, everything else as text.
// nil sorts after any value.
func compareValues(a, b interface{}) int {
	aNil, bNil := a == nil, b == nil
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	af, aok := numericOnly(a)
	bf, bok := numericOnly(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, bs := utils.Stringify(a), utils.Stringify(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// numericOnly is ToFloat without numeric-string coercion.
func numericOnly(v interface{}) (float64, bool) {
	if _, ok := v.(string); ok {
		return 0, false
	}
	return utils.ToFloat(v)
}
