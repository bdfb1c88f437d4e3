package model

import (
	"go-metric-engine/pkg/utils"
)

// Record is a schema-agnostic map for one tracked item (a ticket, a call, ...)
type Record map[string]interface{}

// Get returns a field value and whether it was present.
func (r Record) Get(field string) (interface{}, bool) {
	v, ok := r[field]
	return v, ok
}

// Text returns the field rendered as a string, "" when missing.
func (r Record) Text(field string) string {
	return utils.Stringify(r[field])
}

// Row is the item shape produced by extractors and reshaped by transforms.
type Row map[string]interface{}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return CloneValue(r).(Row)
}

// ValidationRules defines validation requirements for ingested records
type ValidationRules struct {
	RequiredFields []string           `json:"requiredFields,omitempty" yaml:"requiredFields,omitempty"` // fields that must be present
	NumericFields  []string           `json:"numericFields,omitempty" yaml:"numericFields,omitempty"`   // fields that must be numeric
	DateFields     []string           `json:"dateFields,omitempty" yaml:"dateFields,omitempty"`         // fields that must parse as timestamps
	MinValues      map[string]float64 `json:"minValues,omitempty" yaml:"minValues,omitempty"`
	MaxValues      map[string]float64 `json:"maxValues,omitempty" yaml:"maxValues,omitempty"`
}

// CloneValue deep-copies the container shapes metrics publish. Scalars are returned as is.
func CloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case Row:
		out := make(Row, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case Record:
		out := make(Record, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case []Row:
		if val == nil {
			return []Row(nil)
		}
		out := make([]Row, len(val))
		for i, item := range val {
			out[i] = CloneValue(item).(Row)
		}
		return out
	case []Record:
		if val == nil {
			return []Record(nil)
		}
		out := make([]Record, len(val))
		for i, item := range val {
			out[i] = CloneValue(item).(Record)
		}
		return out
	case []interface{}:
		if val == nil {
			return []interface{}(nil)
		}
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case map[string][]Row:
		out := make(map[string][]Row, len(val))
		for k, rows := range val {
			out[k] = CloneValue(rows).([]Row)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []float64:
		return append([]float64(nil), val...)
	default:
		return v
	}
}
