package model

import (
	"sort"
	"time"

	"go-metric-engine/pkg/utils"
)

// Params carries the free-form parameters of an extractor, transform or render condition.
// Accessors tolerate the numeric variants produced by the YAML, JSON and CBOR decoders.
type Params map[string]interface{}

// Has reports whether the key is set to a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return utils.Stringify(v)
}

func (p Params) Int(key string, def int) int {
	f, ok := utils.ToFloat(p[key])
	if !ok {
		return def
	}
	return int(f)
}

func (p Params) Float(key string, def float64) float64 {
	f, ok := utils.ToFloat(p[key])
	if !ok {
		return def
	}
	return f
}

func (p Params) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		switch v {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return def
}

// Strings reads a list of strings; a single string becomes a one-element list.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, utils.Stringify(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Values reads a list of arbitrary values; a scalar becomes a one-element list.
func (p Params) Values(key string) []interface{} {
	switch v := p[key].(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []interface{}{v}
	}
}

// Time reads a timestamp parameter in loc.
func (p Params) Time(key string, loc *time.Location) (time.Time, bool) {
	return utils.ParseTime(p[key], loc)
}

// Map reads a nested object. YAML and CBOR may decode keys as interface{}.
func (p Params) Map(key string) map[string]interface{} {
	switch v := p[key].(type) {
	case map[string]interface{}:
		return v
	case Params:
		return v
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[utils.Stringify(k)] = item
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = item
		}
		return out
	}
	return nil
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
