package pipeline

import (
	"math"
	"sort"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// percentage annotates each row with field/total*100. total defaults to the field sum.
func percentage(value interface{}, p model.Params) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field := p.String("field", "value")
	total := p.Float("total", 0)
	if total == 0 {
		for _, row := range rows {
			total += utils.Numeric(row[field])
		}
	}
	out := copyRows(rows)
	for _, row := range out {
		row["percentage"] = percentOf(utils.Numeric(row[field]), total)
	}
	return out, nil
}

// percentageChange computes (current-previous)/previous*100, 0 when previous is 0.
// The input is {current, previous} or a row whose fields are named by the params.
func percentageChange(value interface{}, p model.Params) (float64, error) {
	row, ok := asRow(value)
	if !ok {
		return 0, shapeError("object with current and previous", value)
	}
	cur, ok := numericOnly(row[p.String("current", "current")])
	if !ok {
		return 0, engerrors.InvalidParam("current", "input has no numeric current value")
	}
	prev, ok := numericOnly(row[p.String("previous", "previous")])
	if !ok {
		return 0, engerrors.InvalidParam("previous", "input has no numeric previous value")
	}
	if prev == 0 {
		return 0, nil
	}
	return (cur - prev) / prev * 100, nil
}

// trend compares the first and last of the most recent periods entries.
func trend(value interface{}, p model.Params) (model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field := p.String("field", "value")
	periods := p.Int("periods", len(rows))
	if periods <= 0 || periods > len(rows) {
		periods = len(rows)
	}
	recent := rows[len(rows)-periods:]
	if len(recent) < 2 {
		return model.Row{"value": 0.0, "direction": "neutral"}, nil
	}

	first := utils.Numeric(recent[0][field])
	last := utils.Numeric(recent[len(recent)-1][field])
	if first == 0 {
		return model.Row{"value": 0.0, "direction": direction(last - first)}, nil
	}
	change := (last - first) / first * 100
	return model.Row{"value": math.Abs(change), "direction": direction(change)}, nil
}

// ranking sorts rows descending on "by" and numbers them from 1.
func ranking(value interface{}, p model.Params) ([]model.Row, error) {
	field := p.String("by", "value")
	sorted, err := sortBy(value, field, "desc")
	if err != nil {
		return nil, err
	}
	out := copyRows(sorted)
	for i, row := range out {
		row["rank"] = i + 1
	}
	return out, nil
}

// normalize adds <field>Normalized scaled to 0..100. A zero range leaves rows unchanged.
func normalize(value interface{}, p model.Params) ([]model.Row, error) {
	rows, err := requireRows(value)
	if err != nil {
		return nil, err
	}
	field, err := requiredField(p, "field")
	if err != nil {
		return nil, err
	}

	var nums []float64
	for _, row := range rows {
		if n, ok := numericOnly(row[field]); ok {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return rows, nil
	}
	sort.Float64s(nums)
	lo, hi := nums[0], nums[len(nums)-1]
	if hi-lo == 0 {
		return rows, nil
	}

	out := copyRows(rows)
	for _, row := range out {
		if n, ok := numericOnly(row[field]); ok {
			row[field+"Normalized"] = (n - lo) / (hi - lo) * 100
		}
	}
	return out, nil
}
