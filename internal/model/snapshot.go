package model

import "sort"

// Snapshot is the read-only view of published results handed to one metric.
// Values are deep-copied on the way in and on the way out.
type Snapshot struct {
	values map[string]interface{}
}

// NewSnapshot copies values into a new snapshot.
func NewSnapshot(values map[string]interface{}) Snapshot {
	s := Snapshot{values: make(map[string]interface{}, len(values))}
	for id, v := range values {
		s.values[id] = CloneValue(v)
	}
	return s
}

// Get returns a copy of the published value for id. A metric that published nil is present.
func (s Snapshot) Get(id string) (interface{}, bool) {
	v, ok := s.values[id]
	if !ok {
		return nil, false
	}
	return CloneValue(v), true
}

// Rows returns the value for id as a row list, nil when absent or of another shape.
func (s Snapshot) Rows(id string) []Row {
	v, _ := s.Get(id)
	switch rows := v.(type) {
	case []Row:
		return rows
	case []interface{}:
		out := make([]Row, 0, len(rows))
		for _, item := range rows {
			switch r := item.(type) {
			case Row:
				out = append(out, r)
			case map[string]interface{}:
				out = append(out, Row(r))
			}
		}
		return out
	}
	return nil
}

func (s Snapshot) Has(id string) bool {
	_, ok := s.values[id]
	return ok
}

func (s Snapshot) Len() int { return len(s.values) }

// IDs returns the snapshot keys sorted.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.values))
	for id := range s.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
