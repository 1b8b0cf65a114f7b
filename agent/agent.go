package agent

import (
	"context"
	"time"
)

// Result is the outcome of one agent invocation. Data passes through
// verbatim into workflow condition evaluation contexts.
type Result struct {
	Success bool           `json:"success"`
	Output  string         `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// SpawnSpec describes one unit of work handed to a backend.
// Timeout is enforced by the backend, not by the engine.
type SpawnSpec struct {
	Agent   string
	Task    string
	Inputs  map[string]any
	Timeout time.Duration
}

// Handle tracks one in-flight agent invocation.
type Handle interface {
	// Wait blocks until the invocation reaches a terminal outcome.
	Wait(ctx context.Context) (*Result, error)
}

// Backend spawns agent-backed work. The engine depends on this interface
// only; wiring a concrete LLM runtime behind it is the caller's concern.
type Backend interface {
	Spawn(ctx context.Context, spec SpawnSpec) (Handle, error)
}

// HandleFunc adapts a plain function to the Handle interface.
type HandleFunc func(ctx context.Context) (*Result, error)

func (f HandleFunc) Wait(ctx context.Context) (*Result, error) { return f(ctx) }
