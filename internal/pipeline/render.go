package pipeline

import (
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// checkRender validates a declarative render condition without evaluating it.
func checkRender(c *model.ConditionSpec) error {
	if c == nil {
		return nil
	}
	switch c.Type {
	case "nonEmpty", "nonZero", "minLength":
		return nil
	}
	return engerrors.InvalidRender(c.Type)
}

// shouldRender applies the declarative condition, then the Go predicate.
func shouldRender(decl *model.MetricDeclaration, value interface{}) bool {
	if c := decl.Render; c != nil {
		if !evalCondition(c, value) {
			return false
		}
	}
	if decl.RenderCondition != nil {
		return decl.RenderCondition(value)
	}
	return true
}

func evalCondition(c *model.ConditionSpec, value interface{}) bool {
	switch c.Type {
	case "nonEmpty":
		if value == nil {
			return false
		}
		if s, ok := value.(string); ok {
			return s != ""
		}
		if n, ok := lengthOf(value); ok {
			return n > 0
		}
		return true
	case "nonZero":
		if row, ok := asRow(value); ok {
			value = row[c.Params.String("field", "value")]
		}
		n, ok := utils.ToFloat(value)
		return ok && n != 0
	case "minLength":
		n, ok := lengthOf(value)
		return ok && n >= c.Params.Int("min", 1)
	}
	return false
}
