package workflow

import "sort"

// TopologicalSorter orders a validated graph's steps. Zero-in-degree sets
// are visited in lexicographic order so results are reproducible run to
// run.
type TopologicalSorter struct {
	graph *Graph
}

// NewTopologicalSorter creates a sorter over the given graph.
func NewTopologicalSorter(graph *Graph) *TopologicalSorter {
	return &TopologicalSorter{graph: graph}
}

// Sort returns a total order respecting every dependency edge, using
// Kahn's algorithm. A residual edge after the queue drains means a cycle.
func (s *TopologicalSorter) Sort() ([]string, error) {
	inDegree := s.inDegrees()

	var queue []string
	for _, id := range s.graph.StepIDs() {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, s.graph.Len())
	for len(queue) > 0 {
		sort.Strings(queue)
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range s.graph.Dependents(id) {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != s.graph.Len() {
		for _, id := range s.graph.StepIDs() {
			if inDegree[id] > 0 {
				return nil, &CycleError{StepID: id}
			}
		}
	}
	return order, nil
}

// ExecutionBatches partitions the steps into maximal batches of mutually
// independent steps: every currently-zero-in-degree step joins one batch,
// the batch is removed, and the process repeats. Steps in one batch never
// depend on each other, and concatenating the batches yields a valid
// topological order.
func (s *TopologicalSorter) ExecutionBatches() ([][]string, error) {
	inDegree := s.inDegrees()

	remaining := s.graph.Len()
	ready := make([]string, 0, remaining)
	for _, id := range s.graph.StepIDs() {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var batches [][]string
	for len(ready) > 0 {
		sort.Strings(ready)
		batch := ready
		ready = nil
		batches = append(batches, batch)
		remaining -= len(batch)

		for _, id := range batch {
			for _, next := range s.graph.Dependents(id) {
				inDegree[next]--
				if inDegree[next] == 0 {
					ready = append(ready, next)
				}
			}
		}
	}

	if remaining > 0 {
		for _, id := range s.graph.StepIDs() {
			if inDegree[id] > 0 {
				return nil, &CycleError{StepID: id}
			}
		}
	}
	return batches, nil
}

func (s *TopologicalSorter) inDegrees() map[string]int {
	inDegree := make(map[string]int, s.graph.Len())
	for _, id := range s.graph.StepIDs() {
		inDegree[id] = len(s.graph.Dependencies(id))
	}
	return inDegree
}
