package ingest

import (
	"fmt"
	"time"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// Validate splits records into those passing rules and one error per rejected record.
// A nil rules value accepts everything.
func Validate(records []model.Record, rules *model.ValidationRules, loc *time.Location) ([]model.Record, []*engerrors.EngineError) {
	if rules == nil {
		return records, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	valid := make([]model.Record, 0, len(records))
	var errs []*engerrors.EngineError
	for i, rec := range records {
		if err := validateRecord(rec, rules, loc); err != nil {
			err.WithContext("index", i)
			if id, ok := rec[IDField]; ok {
				err.WithContext("record", utils.Stringify(id))
			}
			errs = append(errs, err)
			continue
		}
		valid = append(valid, rec)
	}
	return valid, errs
}

func validateRecord(rec model.Record, rules *model.ValidationRules, loc *time.Location) *engerrors.EngineError {
	for _, field := range rules.RequiredFields {
		if utils.IsEmpty(rec[field]) {
			return engerrors.ValidationFailed(field, "missing required field")
		}
	}

	for _, field := range rules.NumericFields {
		val, ok := rec[field]
		if !ok || val == nil {
			continue
		}
		if _, isText := val.(string); isText {
			return engerrors.ValidationFailed(field, fmt.Sprintf("must be numeric, got %q", val))
		}
		if _, ok := utils.ToFloat(val); !ok {
			return engerrors.ValidationFailed(field, fmt.Sprintf("must be numeric, got %T", val))
		}
	}

	for _, field := range rules.DateFields {
		val, ok := rec[field]
		if !ok || utils.IsEmpty(val) {
			continue
		}
		if _, ok := utils.ParseTime(val, loc); !ok {
			return engerrors.ValidationFailed(field, fmt.Sprintf("not a timestamp: %v", val))
		}
	}

	for field, min := range rules.MinValues {
		if val, ok := rec[field]; ok {
			if n, ok := utils.ToFloat(val); ok && n < min {
				return engerrors.ValidationFailed(field, fmt.Sprintf("below minimum: got %v, want >= %v", val, min))
			}
		}
	}
	for field, max := range rules.MaxValues {
		if val, ok := rec[field]; ok {
			if n, ok := utils.ToFloat(val); ok && n > max {
				return engerrors.ValidationFailed(field, fmt.Sprintf("above maximum: got %v, want <= %v", val, max))
			}
		}
	}
	return nil
}
