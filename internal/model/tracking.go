package model

import (
	"time"
)

// Metric run statuses
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusHidden  = "hidden"  // render gate rejected the value
	StatusSkipped = "skipped" // never ran: graph error or cancellation
)

// MetricStatus records what happened to one metric during a run
type MetricStatus struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Extractor    string        `json:"extractor,omitempty"`
	Transforms   int           `json:"transforms"`
	Dependencies []string      `json:"dependencies,omitempty"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}

// RunReport summarizes one engine run
type RunReport struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Now       time.Time      `json:"now"`
	Duration  time.Duration  `json:"duration"`
	Records   int            `json:"records"`
	Order     []string       `json:"order"` // topological execution order
	Metrics   []MetricStatus `json:"metrics"`
}

// Count returns how many metrics ended in the given status.
func (r *RunReport) Count(status string) int {
	n := 0
	for _, m := range r.Metrics {
		if m.Status == status {
			n++
		}
	}
	return n
}

// Status returns the status entry for id.
func (r *RunReport) Status(id string) (MetricStatus, bool) {
	for _, m := range r.Metrics {
		if m.ID == id {
			return m, true
		}
	}
	return MetricStatus{}, false
}
