package errors

import (
	"fmt"
	"strings"
)

// Convenience functions for common error patterns

// Declaration errors

func UnknownExtractor(kind string) *EngineError {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("unknown extractor type: %s", kind)).
		WithContext("extractor", kind)
}

func UnknownTransform(index int, kind string) *EngineError {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("unknown transform type: %s", kind)).
		WithContext("transform", kind).
		WithContext("step", index)
}

func InvalidParam(name, reason string) *EngineError {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("invalid parameter %q: %s", name, reason)).
		WithContext("param", name)
}

func MisplacedFormatter(index int, kind string) *EngineError {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("formatting transform %s must be the last step", kind)).
		WithContext("transform", kind).
		WithContext("step", index)
}

func InvalidRender(kind string) *EngineError {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("unknown render condition: %s", kind)).
		WithContext("render", kind)
}

// Graph errors

func EmptyMetricID(position int) *EngineError {
	return New(CategoryConfig, SeverityFatal, "metric declaration without id").
		WithContext("position", position)
}

func DuplicateMetric(id string) *EngineError {
	return New(CategoryConfig, SeverityFatal, "duplicate metric id").
		ForMetric(id)
}

func MissingDependency(id string, missing []string) *EngineError {
	return New(CategoryDependency, SeverityFatal,
		fmt.Sprintf("depends on undeclared metrics: %s", strings.Join(missing, ", "))).
		ForMetric(id).
		WithContext("missing", missing)
}

func DependencyCycle(ids []string) *EngineError {
	return New(CategoryDependency, SeverityFatal,
		fmt.Sprintf("dependency cycle between metrics: %s", strings.Join(ids, ", "))).
		WithContext("cycle", ids)
}

// Per-metric runtime errors

func ExtractionFailed(kind string, cause error) *EngineError {
	return Wrap(cause, CategoryExtraction, SeverityError, "extraction failed").
		WithContext("extractor", kind)
}

func TransformFailed(index int, kind string, cause error) *EngineError {
	return Wrap(cause, CategoryTransform, SeverityError, fmt.Sprintf("transform %d (%s) failed", index, kind)).
		WithContext("transform", kind).
		WithContext("step", index)
}

func ShapeMismatch(expected string, got any) *EngineError {
	return New(CategoryShape, SeverityError, fmt.Sprintf("expected %s, got %T", expected, got)).
		WithContext("expected", expected)
}

func Panicked(stage string, recovered any) *EngineError {
	return New(CategoryInternal, SeverityError, fmt.Sprintf("panic during %s: %v", stage, recovered)).
		WithContext("stage", stage)
}

func SkippedByDependency(dep string) *EngineError {
	return New(CategoryDependency, SeverityError, fmt.Sprintf("dependency %q could not be satisfied", dep)).
		WithContext("dependency", dep)
}

func Canceled(cause error) *EngineError {
	return Wrap(cause, CategoryInternal, SeverityError, "run canceled before metric was computed")
}

// Plumbing errors

func ValidationFailed(field, reason string) *EngineError {
	return New(CategoryValidation, SeverityWarning, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func StorageFailed(operation string, cause error) *EngineError {
	return Wrap(cause, CategoryStorage, SeverityFatal, "storage operation failed").
		WithContext("operation", operation)
}

func LoadFailed(path string, cause error) *EngineError {
	return Wrap(cause, CategoryIO, SeverityFatal, "failed to load input").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *EngineError {
	return New(CategoryConfig, SeverityFatal, fmt.Sprintf("invalid configuration: %s: %s", field, reason)).
		WithContext("field", field)
}
