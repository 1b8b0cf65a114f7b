package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector

	// Every method must be a no-op on a nil collector.
	c.RecordWorkflow("completed", time.Second)
	c.RecordStep("fetcher", "completed", time.Second)
	c.RecordStepRetry("fetcher")
	c.RecordCheckpointSave(nil)
	c.RecordCheckpointSave(errors.New("disk full"))
	c.RecordCheckpointDelete()
}

func TestCollector_Records(t *testing.T) {
	// The default registry is process-global, so the namespace must be
	// unique to this test binary.
	c := NewCollector("stepflow_collector_test", nil)

	c.RecordWorkflow("completed", 2*time.Second)
	c.RecordWorkflow("completed", time.Second)
	c.RecordWorkflow("failed", time.Second)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.workflowsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.workflowsTotal.WithLabelValues("failed")))

	c.RecordStep("fetcher", "completed", 100*time.Millisecond)
	c.RecordStepRetry("fetcher")
	c.RecordStepRetry("fetcher")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("fetcher", "completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.stepRetriesTotal.WithLabelValues("fetcher")))

	c.RecordCheckpointSave(nil)
	c.RecordCheckpointSave(errors.New("disk full"))
	c.RecordCheckpointDelete()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkpointSaves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkpointSaves.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkpointDeletes))
}
