package model

// Category classifies a metric for the dashboard.
type Category string

const (
	CategoryVolume       Category = "volume"
	CategoryDistribution Category = "distribution"
	CategoryTrend        Category = "trend"
	CategoryComparison   Category = "comparison"
	CategoryPerformance  Category = "performance"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryVolume, CategoryDistribution, CategoryTrend, CategoryComparison, CategoryPerformance:
		return true
	}
	return false
}

// ExtractFunc is an inline extractor. It takes precedence over the declared kind.
type ExtractFunc func(records []Record, params Params, snap Snapshot) (interface{}, error)

// TransformFunc is an inline transform step.
type TransformFunc func(value interface{}, params Params) (interface{}, error)

// RenderFunc decides whether a computed value is worth displaying.
type RenderFunc func(value interface{}) bool

// ExtractorSpec names the extractor kind and its parameters
type ExtractorSpec struct {
	Type   string      `json:"type" yaml:"type"`
	Params Params      `json:"params,omitempty" yaml:"params,omitempty"`
	Func   ExtractFunc `json:"-" yaml:"-" cbor:"-"`
}

// TransformSpec names one step of the transform chain
type TransformSpec struct {
	Type   string        `json:"type" yaml:"type"`
	Params Params        `json:"params,omitempty" yaml:"params,omitempty"`
	Func   TransformFunc `json:"-" yaml:"-" cbor:"-"`
}

// ConditionSpec is the declarative render gate: nonEmpty, nonZero, minLength
type ConditionSpec struct {
	Type   string `json:"type" yaml:"type"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Layout positions a metric on the dashboard grid. Renderer hint only.
type Layout struct {
	Order      int  `json:"order,omitempty" yaml:"order,omitempty"`
	Row        int  `json:"row,omitempty" yaml:"row,omitempty"`
	Column     int  `json:"column,omitempty" yaml:"column,omitempty"`
	RowSpan    int  `json:"rowSpan,omitempty" yaml:"rowSpan,omitempty"`
	ColumnSpan int  `json:"columnSpan,omitempty" yaml:"columnSpan,omitempty"`
	Hidden     bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// MetricDeclaration describes how one metric is derived from the record set.
type MetricDeclaration struct {
	ID           string          `json:"id" yaml:"id"`
	Category     Category        `json:"category" yaml:"category"`
	Title        string          `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	Extractor    ExtractorSpec   `json:"extractor" yaml:"extractor"`
	Transforms   []TransformSpec `json:"transforms,omitempty" yaml:"transforms,omitempty"`
	Render       *ConditionSpec  `json:"render,omitempty" yaml:"render,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// renderer hints, passed through untouched
	Component string                 `json:"component,omitempty" yaml:"component,omitempty"`
	Layout    Layout                 `json:"layout,omitempty" yaml:"layout,omitempty"`
	Props     map[string]interface{} `json:"props,omitempty" yaml:"props,omitempty"`

	RenderCondition RenderFunc `json:"-" yaml:"-" cbor:"-"`
}

// DeclarationSet is the versionable unit of dashboard configuration.
type DeclarationSet struct {
	Name        string              `json:"name" yaml:"name"`
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Metrics     []MetricDeclaration `json:"metrics" yaml:"metrics"`
}

// IDs returns the metric ids in declaration order.
func (s *DeclarationSet) IDs() []string {
	ids := make([]string, len(s.Metrics))
	for i, m := range s.Metrics {
		ids[i] = m.ID
	}
	return ids
}

// Find returns the declaration with the given id.
func (s *DeclarationSet) Find(id string) (*MetricDeclaration, bool) {
	for i := range s.Metrics {
		if s.Metrics[i].ID == id {
			return &s.Metrics[i], true
		}
	}
	return nil, false
}
