// Package metrics exposes Prometheus collectors for the voting engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wegovern/governance-api/internal/models"
)

const namespace = "govern"

// Metrics groups the collectors updated by the services. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	VotesCast         *prometheus.CounterVec
	DuplicateVotes    prometheus.Counter
	MotionTransitions *prometheus.CounterVec
	ReconcileRuns     prometheus.Counter
	ReconcileFailures prometheus.Counter
	NotifyFailures    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VotesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Votes recorded in the ledger, by vote type.",
		}, []string{"vote_type"}),
		DuplicateVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_votes_total",
			Help:      "Vote attempts rejected because the member already voted.",
		}),
		MotionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "motion_transitions_total",
			Help:      "Motions decided by the majority evaluator, by outcome.",
		}, []string{"status"}),
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Completed reconciliation sweeps.",
		}),
		ReconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_motion_failures_total",
			Help:      "Motions that failed to evaluate during reconciliation.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notification or broadcast attempts that returned an error.",
		}),
	}

	reg.MustRegister(
		m.VotesCast,
		m.DuplicateVotes,
		m.MotionTransitions,
		m.ReconcileRuns,
		m.ReconcileFailures,
		m.NotifyFailures,
	)

	return m
}

func (m *Metrics) ObserveVote(t models.VoteType) {
	if m == nil {
		return
	}
	m.VotesCast.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ObserveDuplicateVote() {
	if m == nil {
		return
	}
	m.DuplicateVotes.Inc()
}

func (m *Metrics) ObserveTransition(status models.MotionStatus) {
	if m == nil {
		return
	}
	m.MotionTransitions.WithLabelValues(string(status)).Inc()
}

// ObserveReconcile records one finished sweep and its per-motion failures.
func (m *Metrics) ObserveReconcile(failed int) {
	if m == nil {
		return
	}
	m.ReconcileRuns.Inc()
	m.ReconcileFailures.Add(float64(failed))
}

func (m *Metrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}
