package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/wegovern/governance-api/internal/models"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveVote(models.VoteFor)
	m.ObserveVote(models.VoteFor)
	m.ObserveVote(models.VoteAgainst)
	m.ObserveDuplicateVote()
	m.ObserveTransition(models.MotionStatusPassed)
	m.ObserveReconcile(2)
	m.ObserveNotifyFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VotesCast.WithLabelValues("for")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesCast.WithLabelValues("against")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateVotes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MotionTransitions.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconcileFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotifyFailures))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveVote(models.VoteFor)
		m.ObserveDuplicateVote()
		m.ObserveTransition(models.MotionStatusDefeated)
		m.ObserveReconcile(1)
		m.ObserveNotifyFailure()
	})
}
