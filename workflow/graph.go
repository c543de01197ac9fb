package workflow

import "fmt"

// Graph is the compiled dependency structure of a Definition: adjacency
// (step -> steps that depend on it) and reverse adjacency (step -> its
// dependencies), built from each step's depends_on list.
//
// Grounded on original_source's workflows/graph.py WorkflowGraph: the same
// adjacency/reverse_adjacency split, rebuilt with Go maps of string sets
// instead of Python dict-of-list.
type Graph struct {
	steps    map[string]Step
	order    []string
	adj      map[string][]string // step -> dependents
	revAdj   map[string][]string // step -> dependencies
}

// BuildGraph constructs a Graph from def without validating it; call
// Validate to check for cycles and dangling references before scheduling.
func BuildGraph(def Definition) *Graph {
	g := &Graph{
		steps:  make(map[string]Step, len(def.Steps)),
		adj:    make(map[string][]string, len(def.Steps)),
		revAdj: make(map[string][]string, len(def.Steps)),
	}
	for _, s := range def.Steps {
		g.steps[s.ID] = s
		g.order = append(g.order, s.ID)
		if _, ok := g.adj[s.ID]; !ok {
			g.adj[s.ID] = nil
		}
		if _, ok := g.revAdj[s.ID]; !ok {
			g.revAdj[s.ID] = nil
		}
	}
	for _, s := range def.Steps {
		for _, dep := range s.DependsOn {
			g.revAdj[s.ID] = append(g.revAdj[s.ID], dep)
			g.adj[dep] = append(g.adj[dep], s.ID)
		}
	}
	return g
}

// Dependencies returns the steps that stepID depends on.
func (g *Graph) Dependencies(stepID string) []string {
	return append([]string(nil), g.revAdj[stepID]...)
}

// Dependents returns the steps that depend on stepID.
func (g *Graph) Dependents(stepID string) []string {
	return append([]string(nil), g.adj[stepID]...)
}

// StepIDs returns every step id in the graph, in definition order.
func (g *Graph) StepIDs() []string {
	return append([]string(nil), g.order...)
}

// Step looks up a step by id.
func (g *Graph) Step(id string) (Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// visitState mirrors graph.py's three-color DFS marks.
type visitState int

const (
	unvisited visitState = 0
	visiting  visitState = 1
	visited   visitState = 2
)

// Validate checks the graph for dangling depends_on/parallel_with
// references and for cycles, per original_source's GraphValidator.
func (g *Graph) Validate() error {
	if err := g.checkDependenciesExist(); err != nil {
		return err
	}
	return g.checkForCycles()
}

func (g *Graph) checkDependenciesExist() error {
	for _, id := range g.order {
		s := g.steps[id]
		for _, dep := range s.DependsOn {
			if _, ok := g.steps[dep]; !ok {
				return newError(KindValidation, "graph", "validate",
					fmt.Sprintf("step %q depends on unknown step %q", id, dep), nil)
			}
		}
		// parallel_with references a non-dependency sibling; a missing
		// target is a configuration slip, not a correctness problem, so
		// it is reported as an error here too rather than only logged —
		// there is no logger threaded through Graph to warn instead.
		for _, peer := range s.ParallelWith {
			if _, ok := g.steps[peer]; !ok {
				return newError(KindValidation, "graph", "validate",
					fmt.Sprintf("step %q names unknown parallel_with step %q", id, peer), nil)
			}
		}
	}
	return nil
}

// checkForCycles runs a three-color DFS from every unvisited node,
// reporting the exact cycle path on a back-edge the way
// _build_cycle_path does in graph.py.
func (g *Graph) checkForCycles() error {
	state := make(map[string]visitState, len(g.order))
	parent := make(map[string]string, len(g.order))

	var visit func(id string) error
	visit = func(id string) error {
		state[id] = visiting
		for _, dep := range g.revAdj[id] {
			switch state[dep] {
			case unvisited:
				parent[dep] = id
				if err := visit(dep); err != nil {
					return err
				}
			case visiting:
				path := buildCyclePath(parent, id, dep)
				return newError(KindCycle, "graph", "validate",
					fmt.Sprintf("cycle detected: %v", path), nil)
			case visited:
				// already fully explored, no cycle through here
			}
		}
		state[id] = visited
		return nil
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCyclePath walks parent pointers from `from` back up to `to`,
// reconstructing the back-edge's cycle as an ordered list of step ids.
func buildCyclePath(parent map[string]string, from, to string) []string {
	path := []string{from}
	cur := from
	for cur != to {
		next, ok := parent[cur]
		if !ok {
			break
		}
		path = append(path, next)
		cur = next
	}
	path = append(path, to)
	// reverse so the path reads in dependency order, target first
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
