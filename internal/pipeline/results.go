package pipeline

import (
	"bytes"
	"encoding/json"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

// Results is the ordered outcome of one engine run: every declared id exactly once,
// nil where the metric failed, was hidden, or could not run.
type Results struct {
	ids    []string
	values map[string]interface{}
	errs   map[string]*engerrors.EngineError

	// Errors lists run-level and per-metric errors in the order they occurred.
	Errors []*engerrors.EngineError
	Report model.RunReport
}

func newResults(decls []model.MetricDeclaration) *Results {
	r := &Results{
		values: make(map[string]interface{}, len(decls)),
		errs:   make(map[string]*engerrors.EngineError),
	}
	for _, d := range decls {
		if d.ID == "" {
			continue
		}
		if _, dup := r.values[d.ID]; dup {
			continue
		}
		r.ids = append(r.ids, d.ID)
		r.values[d.ID] = nil
	}
	return r
}

func (r *Results) publish(id string, value interface{}) {
	r.values[id] = value
}

func (r *Results) fail(id string, err *engerrors.EngineError) {
	if id != "" {
		r.values[id] = nil
		if _, seen := r.errs[id]; !seen {
			r.errs[id] = err
		}
	}
	r.Errors = append(r.Errors, err)
}

// Get returns the published value for id.
func (r *Results) Get(id string) (interface{}, bool) {
	v, ok := r.values[id]
	return v, ok
}

// Err returns the error that nulled id, if any.
func (r *Results) Err(id string) *engerrors.EngineError {
	return r.errs[id]
}

// IDs returns the metric ids in declaration order.
func (r *Results) IDs() []string {
	return append([]string(nil), r.ids...)
}

func (r *Results) Len() int { return len(r.ids) }

// Map returns a copy of the values keyed by id.
func (r *Results) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for id, v := range r.values {
		out[id] = model.CloneValue(v)
	}
	return out
}

// MarshalJSON writes the values as one object keyed by id, in declaration order.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
