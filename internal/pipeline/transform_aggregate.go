package pipeline

import (
	"sort"

	"go-metric-engine/internal/model"
)

func countOf(value interface{}) (int, error) {
	n, ok := lengthOf(value)
	if !ok {
		return 0, shapeError("array or object", value)
	}
	return n, nil
}

// numbersOf collects the numeric values of field across rows, or the elements of a plain
// numeric list. items is the input length, used as the averaging denominator.
func numbersOf(value interface{}, field string) (nums []float64, items int, err error) {
	switch v := value.(type) {
	case []float64:
		return v, len(v), nil
	case []int:
		nums = make([]float64, len(v))
		for i, n := range v {
			nums[i] = float64(n)
		}
		return nums, len(v), nil
	}

	if rows, ok := asRows(value); ok {
		for _, row := range rows {
			if num, ok := numericOnly(row[field]); ok {
				nums = append(nums, num)
			}
		}
		return nums, len(rows), nil
	}

	list, ok := value.([]interface{})
	if !ok {
		return nil, 0, shapeError("array", value)
	}
	for _, item := range list {
		if num, ok := numericOnly(item); ok {
			nums = append(nums, num)
		}
	}
	return nums, len(list), nil
}

func sumOf(value interface{}, p model.Params) (float64, error) {
	nums, _, err := numbersOf(value, p.String("field", "value"))
	if err != nil {
		return 0, err
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total, nil
}

// averageOf divides by the item count, so missing values weigh as zero.
func averageOf(value interface{}, p model.Params) (float64, error) {
	nums, items, err := numbersOf(value, p.String("field", "value"))
	if err != nil || items == 0 {
		return 0, err
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total / float64(items), nil
}

func medianOf(value interface{}, p model.Params) (float64, error) {
	nums, _, err := numbersOf(value, p.String("field", "value"))
	if err != nil || len(nums) == 0 {
		return 0, err
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, nil
	}
	return sorted[mid], nil
}

func minOf(value interface{}, p model.Params) (float64, error) {
	nums, _, err := numbersOf(value, p.String("field", "value"))
	if err != nil || len(nums) == 0 {
		return 0, err
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m, nil
}

func maxOf(value interface{}, p model.Params) (float64, error) {
	nums, _, err := numbersOf(value, p.String("field", "value"))
	if err != nil || len(nums) == 0 {
		return 0, err
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m, nil
}
