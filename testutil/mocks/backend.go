// Package mocks provides test doubles shared across package tests.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/stepflow/agent"
)

// Backend is a scripted agent backend. Results queue per agent type and
// pop one per spawn, so retry sequences (fail, fail, succeed) script
// naturally. Unscripted spawns return a generic success.
type Backend struct {
	mu        sync.Mutex
	responses map[string][]*agent.Result
	spawnErr  error
	delay     time.Duration
	calls     []agent.SpawnSpec
}

// NewBackend creates an empty scripted backend.
func NewBackend() *Backend {
	return &Backend{responses: make(map[string][]*agent.Result)}
}

// Script queues results for an agent type, consumed one per spawn.
func (b *Backend) Script(agentType string, results ...*agent.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[agentType] = append(b.responses[agentType], results...)
}

// FailSpawn makes every Spawn call return err.
func (b *Backend) FailSpawn(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spawnErr = err
}

// Delay makes every invocation take d before completing.
func (b *Backend) Delay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Calls returns every spawn spec seen so far.
func (b *Backend) Calls() []agent.SpawnSpec {
	b.mu.Lock()
	defer b.mu.Unlock()
	calls := make([]agent.SpawnSpec, len(b.calls))
	copy(calls, b.calls)
	return calls
}

// CallCount returns the number of spawns for one agent type.
func (b *Backend) CallCount(agentType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, call := range b.calls {
		if call.Agent == agentType {
			n++
		}
	}
	return n
}

// Spawn implements agent.Backend.
func (b *Backend) Spawn(ctx context.Context, spec agent.SpawnSpec) (agent.Handle, error) {
	b.mu.Lock()
	b.calls = append(b.calls, spec)
	if b.spawnErr != nil {
		err := b.spawnErr
		b.mu.Unlock()
		return nil, err
	}
	res := &agent.Result{Success: true, Output: "ok"}
	if queue := b.responses[spec.Agent]; len(queue) > 0 {
		res = queue[0]
		b.responses[spec.Agent] = queue[1:]
	}
	delay := b.delay
	b.mu.Unlock()

	return agent.HandleFunc(func(ctx context.Context) (*agent.Result, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return res, nil
	}), nil
}

// Success builds a successful result carrying the given data map.
func Success(data map[string]any) *agent.Result {
	return &agent.Result{Success: true, Output: "done", Data: data}
}

// Failure builds a failed result with the given error message.
func Failure(msg string) *agent.Result {
	return &agent.Result{Success: false, Error: msg}
}
