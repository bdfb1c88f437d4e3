package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

func decl(id string, deps ...string) model.MetricDeclaration {
	return model.MetricDeclaration{ID: id, Extractor: model.ExtractorSpec{Type: "volume"}, Dependencies: deps}
}

func orderIDs(decls []model.MetricDeclaration, order []int) []string {
	ids := make([]string, len(order))
	for k, i := range order {
		ids[k] = decls[i].ID
	}
	return ids
}

func TestPlan_TiesFollowDeclarationOrder(t *testing.T) {
	decls := []model.MetricDeclaration{
		decl("d", "b"),
		decl("c"),
		decl("b"),
		decl("a", "c", "b"),
		decl("e"),
	}
	p := plan(decls)
	require.Empty(t, p.errs)
	assert.Equal(t, []string{"c", "b", "d", "a", "e"}, orderIDs(decls, p.order))
}

func TestPlan_DependenciesPrecedeDependents(t *testing.T) {
	decls := []model.MetricDeclaration{
		decl("z", "y"),
		decl("y", "x"),
		decl("x"),
	}
	p := plan(decls)
	require.Empty(t, p.errs)
	assert.Equal(t, []string{"x", "y", "z"}, orderIDs(decls, p.order))
}

func TestPlan_DuplicateDependencyListedOnce(t *testing.T) {
	decls := []model.MetricDeclaration{decl("a"), decl("b", "a", "a")}
	p := plan(decls)
	require.Empty(t, p.errs)
	assert.Equal(t, []string{"a", "b"}, orderIDs(decls, p.order))
}

func TestPlan_Cycle(t *testing.T) {
	decls := []model.MetricDeclaration{
		decl("a", "b"),
		decl("b", "a"),
		decl("c", "a"),
		decl("d"),
	}
	p := plan(decls)
	require.Len(t, p.errs, 1)
	assert.Equal(t, engerrors.CategoryDependency, p.errs[0].Category)
	assert.Equal(t, []string{"a", "b"}, p.errs[0].Context["cycle"])

	assert.Equal(t, []string{"d"}, orderIDs(decls, p.order))
	assert.Equal(t, "a", p.blocked[0].MetricID)
	assert.Equal(t, "b", p.blocked[1].MetricID)
	assert.Equal(t, "a", p.blocked[2].Context["dependency"])
}

func TestPlan_SelfDependency(t *testing.T) {
	decls := []model.MetricDeclaration{decl("a", "a"), decl("b")}
	p := plan(decls)
	require.Len(t, p.errs, 1)
	assert.Equal(t, []string{"a"}, p.errs[0].Context["cycle"])
	assert.Equal(t, []string{"b"}, orderIDs(decls, p.order))
}

func TestPlan_MissingAndEmpty(t *testing.T) {
	decls := []model.MetricDeclaration{
		decl("a", "ghost"),
		decl(""),
		decl("b", "a"),
		decl("c"),
	}
	p := plan(decls)
	require.Len(t, p.errs, 2)
	assert.Equal(t, 1, p.errs[0].Context["position"])
	assert.Contains(t, p.errs[1].Error(), "ghost")

	assert.Equal(t, []string{"c"}, orderIDs(decls, p.order))
	assert.Contains(t, p.blocked, 2)
}

func TestPlan_DuplicateBlocksBoth(t *testing.T) {
	decls := []model.MetricDeclaration{decl("a"), decl("a"), decl("b")}
	p := plan(decls)
	require.Len(t, p.errs, 1)
	assert.Contains(t, p.blocked, 0)
	assert.Contains(t, p.blocked, 1)
	assert.Equal(t, []string{"b"}, orderIDs(decls, p.order))
}
