// Package workflow is the orchestration engine: it executes multi-step,
// agent-driven plans expressed as directed acyclic graphs, enforcing
// dependency ordering, conditional step gating, bounded per-step retries,
// batch-parallel execution of independent steps, and crash-resilient
// checkpointing at batch boundaries.
//
// Executor.Execute is the sole entry point. The backend that performs a
// step's work is injected through the agent.Backend interface; durable
// checkpoint storage through the Checkpointer interface.
package workflow
