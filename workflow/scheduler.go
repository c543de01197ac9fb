package workflow

import "fmt"

// Batches returns the step ids grouped into execution rounds: batch 0 has
// no dependencies, batch 1 depends only on steps in batch 0, and so on.
// Steps within a batch have no ordering constraint between them and may
// run concurrently.
//
// Grounded on original_source's workflows/graph.py TopologicalSorter
// (Kahn's algorithm, in-degree from reverse_adjacency) and its
// get_execution_batches, which groups the same in-degree-zero extraction
// into rounds instead of a flat order.
func (g *Graph) Batches() ([][]string, error) {
	inDegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		inDegree[id] = len(g.revAdj[id])
	}

	remaining := len(g.order)
	var batches [][]string

	for remaining > 0 {
		var batch []string
		for _, id := range g.order {
			if inDegree[id] == 0 {
				batch = append(batch, id)
			}
		}
		if len(batch) == 0 {
			return nil, newError(KindCycle, "scheduler", "batches",
				fmt.Sprintf("cycle detected: %d steps remain unschedulable", remaining), nil)
		}
		batches = append(batches, batch)
		for _, id := range batch {
			inDegree[id] = -1 // mark scheduled, drop out of future batch scans
			remaining--
			for _, dependent := range g.adj[id] {
				if inDegree[dependent] > 0 {
					inDegree[dependent]--
				}
			}
		}
	}
	return batches, nil
}

// TopoSort returns a single flat ordering consistent with all dependency
// edges (Kahn's algorithm without batching), useful for checkpoint resume
// where steps are replayed one at a time in dependency order.
func (g *Graph) TopoSort() ([]string, error) {
	batches, err := g.Batches()
	if err != nil {
		return nil, err
	}
	var order []string
	for _, b := range batches {
		order = append(order, b...)
	}
	return order, nil
}
