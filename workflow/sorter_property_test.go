package workflow

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomDAG builds an acyclic definition with n steps. Edges only run from
// a lower index to a higher one, so the result is acyclic by construction.
func randomDAG(n int, seed int64) *Definition {
	rnd := rand.New(rand.NewSource(seed))
	def := &Definition{Name: "random-dag", Version: "1.0"}
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("s%02d", i)
	}
	for i := range n {
		var deps []string
		for j := range i {
			if rnd.Intn(3) == 0 {
				deps = append(deps, ids[j])
			}
		}
		def.Steps = append(def.Steps, Step{ID: ids[i], Agent: "worker", DependsOn: deps})
	}
	return def
}

func TestProperty_SortRespectsEveryEdge(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("sort is a permutation placing dependencies first", prop.ForAll(
		func(n int, seed int64) bool {
			def := randomDAG(n, seed)
			g, err := BuildGraph(def)
			if err != nil {
				t.Logf("build failed: %v", err)
				return false
			}

			order, err := NewTopologicalSorter(g).Sort()
			if err != nil {
				t.Logf("sort failed: %v", err)
				return false
			}
			if len(order) != n {
				t.Logf("order has %d entries, want %d", len(order), n)
				return false
			}

			pos := make(map[string]int, n)
			for i, id := range order {
				if _, dup := pos[id]; dup {
					t.Logf("duplicate id %s in order", id)
					return false
				}
				pos[id] = i
			}
			for _, step := range def.Steps {
				for _, dep := range step.DependsOn {
					if pos[dep] >= pos[step.ID] {
						t.Logf("edge %s -> %s violated", dep, step.ID)
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestProperty_BatchesPartitionAndOrderTheGraph(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("batches partition the steps with dependencies in earlier batches", prop.ForAll(
		func(n int, seed int64) bool {
			def := randomDAG(n, seed)
			g, err := BuildGraph(def)
			if err != nil {
				t.Logf("build failed: %v", err)
				return false
			}

			batches, err := NewTopologicalSorter(g).ExecutionBatches()
			if err != nil {
				t.Logf("batches failed: %v", err)
				return false
			}

			batchOf := make(map[string]int, n)
			total := 0
			for i, batch := range batches {
				if len(batch) == 0 {
					t.Logf("batch %d is empty", i)
					return false
				}
				for _, id := range batch {
					if _, dup := batchOf[id]; dup {
						t.Logf("id %s appears in two batches", id)
						return false
					}
					batchOf[id] = i
					total++
				}
			}
			if total != n {
				t.Logf("batches cover %d steps, want %d", total, n)
				return false
			}

			// Every dependency sits in a strictly earlier batch, which
			// also guarantees steps within one batch are independent.
			for _, step := range def.Steps {
				for _, dep := range step.DependsOn {
					if batchOf[dep] >= batchOf[step.ID] {
						t.Logf("edge %s -> %s not across batches", dep, step.ID)
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestProperty_ClosingACycleIsAlwaysDetected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("adding a back edge along a chain fails validation", prop.ForAll(
		func(n int, seed int64) bool {
			rnd := rand.New(rand.NewSource(seed))

			g := NewGraph()
			ids := make([]string, n)
			for i := range n {
				ids[i] = fmt.Sprintf("s%02d", i)
				if err := g.AddStep(&Step{ID: ids[i], Agent: "worker"}); err != nil {
					t.Logf("add step: %v", err)
					return false
				}
			}
			for i := 1; i < n; i++ {
				if err := g.AddDependency(ids[i], ids[i-1]); err != nil {
					t.Logf("add dependency: %v", err)
					return false
				}
			}
			// Close the chain back to a random earlier step.
			from := rnd.Intn(n - 1)
			if err := g.AddDependency(ids[from], ids[n-1]); err != nil {
				t.Logf("add back edge: %v", err)
				return false
			}

			if err := g.Validate(); err == nil {
				t.Logf("validate accepted a cyclic graph")
				return false
			}
			if _, err := NewTopologicalSorter(g).Sort(); err == nil {
				t.Logf("sort accepted a cyclic graph")
				return false
			}
			return true
		},
		gen.IntRange(2, 10),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
