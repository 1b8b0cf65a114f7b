// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the engine's Prometheus metrics. A nil *Collector
// is valid and records nothing, so wiring metrics stays optional.
type Collector struct {
	workflowsTotal    *prometheus.CounterVec
	workflowDuration  *prometheus.HistogramVec
	stepsTotal        *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	stepRetriesTotal  *prometheus.CounterVec
	checkpointSaves   *prometheus.CounterVec
	checkpointDeletes prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector registering its metrics under the
// given namespace with the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.workflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Total number of workflow runs by terminal status",
		},
		[]string{"status"},
	)

	c.workflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		},
		[]string{"status"},
	)

	c.stepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of executed steps by agent and outcome",
		},
		[]string{"agent", "outcome"},
	)

	c.stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Step execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"agent"},
	)

	c.stepRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Total number of step retry attempts by agent",
		},
		[]string{"agent"},
	)

	c.checkpointSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_saves_total",
			Help:      "Total number of checkpoint save attempts by result",
		},
		[]string{"result"},
	)

	c.checkpointDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_deletes_total",
			Help:      "Total number of checkpoint deletions after success",
		},
	)

	return c
}

// RecordWorkflow records one finished workflow run.
func (c *Collector) RecordWorkflow(status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.workflowsTotal.WithLabelValues(status).Inc()
	c.workflowDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordStep records one terminal step outcome.
func (c *Collector) RecordStep(agent, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.stepsTotal.WithLabelValues(agent, outcome).Inc()
	c.stepDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordStepRetry records one retry attempt.
func (c *Collector) RecordStepRetry(agent string) {
	if c == nil {
		return
	}
	c.stepRetriesTotal.WithLabelValues(agent).Inc()
}

// RecordCheckpointSave records one checkpoint save attempt.
func (c *Collector) RecordCheckpointSave(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.checkpointSaves.WithLabelValues(result).Inc()
}

// RecordCheckpointDelete records one checkpoint deletion.
func (c *Collector) RecordCheckpointDelete() {
	if c == nil {
		return
	}
	c.checkpointDeletes.Inc()
}
