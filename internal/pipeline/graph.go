package pipeline

import (
	"sort"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

// graph is the dependency graph of one declaration list.
type graph struct {
	index      map[string]int // id -> declaration position
	dependents [][]int        // edges dependency -> dependent
	indegree   []int
}

// planResult is the outcome of planning a run.
type planResult struct {
	order   []int                          // executable declarations in topological order
	blocked map[int]*engerrors.EngineError // declarations that cannot run, with the reason
	errs    []*engerrors.EngineError       // run-level configuration errors
}

// plan validates ids, resolves dependencies and computes a stable topological order.
// Ties are broken by declaration position. Metrics that are part of a cycle, reference an
// undeclared id, or depend on such metrics are blocked instead of ordered.
func plan(decls []model.MetricDeclaration) planResult {
	res := planResult{blocked: make(map[int]*engerrors.EngineError)}
	g := graph{
		index:      make(map[string]int, len(decls)),
		dependents: make([][]int, len(decls)),
		indegree:   make([]int, len(decls)),
	}

	for i, d := range decls {
		if d.ID == "" {
			err := engerrors.EmptyMetricID(i)
			res.errs = append(res.errs, err)
			res.blocked[i] = err
			continue
		}
		if first, dup := g.index[d.ID]; dup {
			err := engerrors.DuplicateMetric(d.ID)
			res.errs = append(res.errs, err)
			res.blocked[i] = err
			res.blocked[first] = err
			continue
		}
		g.index[d.ID] = i
	}

	for i, d := range decls {
		if _, bad := res.blocked[i]; bad {
			continue
		}
		var missing []string
		seen := make(map[int]bool)
		for _, dep := range d.Dependencies {
			j, ok := g.index[dep]
			if !ok {
				missing = append(missing, dep)
				continue
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.dependents[j] = append(g.dependents[j], i)
			g.indegree[i]++
		}
		if len(missing) > 0 {
			err := engerrors.MissingDependency(d.ID, missing)
			res.errs = append(res.errs, err)
			res.blocked[i] = err
		}
	}

	// Kahn's algorithm; the ready set is kept sorted by position.
	indegree := append([]int(nil), g.indegree...)
	var ready []int
	for i := range decls {
		if _, bad := res.blocked[i]; !bad && indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	done := make([]bool, len(decls))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		done[i] = true
		res.order = append(res.order, i)
		for _, j := range g.dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				if _, bad := res.blocked[j]; !bad {
					ready = insertSorted(ready, j)
				}
			}
		}
	}

	// Whatever is left either sits on a cycle or waits on a blocked metric.
	var stuck []int
	for i := range decls {
		if _, bad := res.blocked[i]; !bad && !done[i] {
			stuck = append(stuck, i)
		}
	}
	if len(stuck) == 0 {
		return res
	}
	for _, cycle := range findCycles(decls, g, stuck) {
		ids := make([]string, len(cycle))
		for k, i := range cycle {
			ids[k] = decls[i].ID
		}
		res.errs = append(res.errs, engerrors.DependencyCycle(ids))
		for _, i := range cycle {
			res.blocked[i] = engerrors.DependencyCycle(ids).ForMetric(decls[i].ID)
		}
	}
	for _, i := range stuck {
		if _, bad := res.blocked[i]; bad {
			continue
		}
		res.blocked[i] = engerrors.SkippedByDependency(firstBlockedDep(decls, g, i, res.blocked)).ForMetric(decls[i].ID)
	}
	return res
}

func insertSorted(list []int, v int) []int {
	pos := sort.SearchInts(list, v)
	list = append(list, 0)
	copy(list[pos+1:], list[pos:])
	list[pos] = v
	return list
}

// findCycles returns the strongly connected components among the stuck nodes that form
// cycles (size > 1, or a self edge), each sorted by declaration position.
func findCycles(decls []model.MetricDeclaration, g graph, stuck []int) [][]int {
	inStuck := make(map[int]bool, len(stuck))
	for _, i := range stuck {
		inStuck[i] = true
	}

	// Tarjan over the dependency edges restricted to stuck nodes.
	index := 0
	indices := make(map[int]int)
	low := make(map[int]int)
	onStack := make(map[int]bool)
	var stack []int
	var out [][]int

	var connect func(v int)
	connect = func(v int) {
		indices[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.dependents[v] {
			if !inStuck[w] {
				continue
			}
			if _, seen := indices[w]; !seen {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], indices[w])
			}
		}

		if low[v] == indices[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 || selfLoop(decls, v) {
				sort.Ints(comp)
				out = append(out, comp)
			}
		}
	}

	for _, v := range stuck {
		if _, seen := indices[v]; !seen {
			connect(v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func selfLoop(decls []model.MetricDeclaration, i int) bool {
	for _, dep := range decls[i].Dependencies {
		if dep == decls[i].ID {
			return true
		}
	}
	return false
}

// firstBlockedDep names the first dependency of i that can never be satisfied.
func firstBlockedDep(decls []model.MetricDeclaration, g graph, i int, blocked map[int]*engerrors.EngineError) string {
	for _, dep := range decls[i].Dependencies {
		if j, ok := g.index[dep]; ok {
			if _, bad := blocked[j]; bad {
				return dep
			}
		}
	}
	if len(decls[i].Dependencies) > 0 {
		return decls[i].Dependencies[0]
	}
	return ""
}
