package workflow

import (
	"fmt"
	"time"
)

// Step is the immutable specification of one unit of work. Dependencies
// order execution; ParallelWith is a hint only and never forces an
// ordering between independent steps.
type Step struct {
	ID           string         `json:"id" yaml:"id"`
	Agent        string         `json:"agent" yaml:"agent"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs       map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	DependsOn    []string       `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	ParallelWith []string       `json:"parallel_with,omitempty" yaml:"parallel_with,omitempty"`
	Condition    string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	Timeout      time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries   int            `json:"max_retries" yaml:"max_retries"`
}

// Validate checks the step's own invariants.
func (s *Step) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("step id must not be empty")
	}
	if s.Agent == "" {
		return fmt.Errorf("step %s: agent must not be empty", s.ID)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("step %s: max_retries must not be negative", s.ID)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("step %s: timeout must be positive when set", s.ID)
	}
	return nil
}

// Task resolves the text handed to the agent backend: the "task" input
// when present, the description otherwise.
func (s *Step) Task() string {
	if task, ok := s.Inputs["task"].(string); ok && task != "" {
		return task
	}
	return s.Description
}

// Definition is a complete, ordered workflow specification.
type Definition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version" yaml:"version"`
	Author      string         `json:"author,omitempty" yaml:"author,omitempty"`
	Steps       []Step         `json:"steps" yaml:"steps"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Validate checks the definition's invariants: non-empty name and version,
// at least one step, unique step ids, and each step's own invariants.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("workflow name must not be empty")
	}
	if d.Version == "" {
		return fmt.Errorf("workflow %s: version must not be empty", d.Name)
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("workflow %s: must contain at least one step", d.Name)
	}

	seen := make(map[string]struct{}, len(d.Steps))
	for i := range d.Steps {
		step := &d.Steps[i]
		if err := step.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", d.Name, err)
		}
		if _, dup := seen[step.ID]; dup {
			return &DuplicateStepError{StepID: step.ID}
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}

// Step returns the step with the given id, or nil.
func (d *Definition) Step(id string) *Step {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}
