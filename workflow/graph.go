package workflow

import "sort"

// Graph is the adjacency representation of a workflow's steps. A forward
// edge runs from a dependency to its dependents; the reverse adjacency is
// kept so in-degrees fall out of map lookups.
type Graph struct {
	steps   map[string]*Step
	edges   map[string][]string // dependency -> dependents
	reverse map[string][]string // dependent -> dependencies
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		steps:   make(map[string]*Step),
		edges:   make(map[string][]string),
		reverse: make(map[string][]string),
	}
}

// BuildGraph constructs a graph from a definition and validates it. The
// returned graph is acyclic with every dependency id resolved.
func BuildGraph(def *Definition) (*Graph, error) {
	g := NewGraph()
	for i := range def.Steps {
		if err := g.AddStep(&def.Steps[i]); err != nil {
			return nil, err
		}
	}
	for i := range def.Steps {
		step := &def.Steps[i]
		for _, dep := range step.DependsOn {
			if err := g.AddDependency(step.ID, dep); err != nil {
				return nil, err
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// AddStep registers a step, failing on a repeated id.
func (g *Graph) AddStep(step *Step) error {
	if _, exists := g.steps[step.ID]; exists {
		return &DuplicateStepError{StepID: step.ID}
	}
	g.steps[step.ID] = step
	return nil
}

// AddDependency records that stepID depends on dependsOn. Both ids must
// already be registered.
func (g *Graph) AddDependency(stepID, dependsOn string) error {
	if _, exists := g.steps[stepID]; !exists {
		return &UnknownStepError{StepID: stepID}
	}
	if _, exists := g.steps[dependsOn]; !exists {
		return &UnknownStepError{StepID: dependsOn}
	}
	g.edges[dependsOn] = append(g.edges[dependsOn], stepID)
	g.reverse[stepID] = append(g.reverse[stepID], dependsOn)
	return nil
}

// Step returns the step with the given id.
func (g *Graph) Step(id string) (*Step, bool) {
	step, ok := g.steps[id]
	return step, ok
}

// Len returns the number of registered steps.
func (g *Graph) Len() int { return len(g.steps) }

// StepIDs returns all step ids in lexicographic order.
func (g *Graph) StepIDs() []string {
	ids := make([]string, 0, len(g.steps))
	for id := range g.steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependents returns the ids of steps depending on the given id.
func (g *Graph) Dependents(id string) []string { return g.edges[id] }

// Dependencies returns the ids the given step depends on.
func (g *Graph) Dependencies(id string) []string { return g.reverse[id] }

// Validate checks referential integrity of every dependency edge and then
// detects cycles with a three-color DFS. Both checks must pass before the
// graph is handed to a sorter.
func (g *Graph) Validate() error {
	for _, step := range g.steps {
		for _, dep := range step.DependsOn {
			if _, exists := g.steps[dep]; !exists {
				return &UnknownStepError{StepID: dep}
			}
		}
	}

	const (
		white = iota // unvisited
		gray         // on the current DFS path
		black        // fully explored
	)
	colors := make(map[string]int, len(g.steps))

	var visit func(id string) error
	visit = func(id string) error {
		colors[id] = gray
		for _, next := range g.edges[id] {
			switch colors[next] {
			case gray:
				return &CycleError{StepID: next}
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		colors[id] = black
		return nil
	}

	for _, id := range g.StepIDs() {
		if colors[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
