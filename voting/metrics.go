package voting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	proposalsCreated  prometheus.Counter
	proposals         prometheus.Gauge
	votesCast         *prometheus.CounterVec
	votesRemoved      prometheus.Counter
	delegations       prometheus.Counter
	executions        prometheus.Counter
	executionFailures prometheus.Counter
}

// NewMetrics registers the engine metrics with reg. A nil registerer yields
// unregistered collectors so callers never need to nil check.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}
	m.proposalsCreated = factory.NewCounter(prometheus.CounterOpts{
		Name: "govchain_voting_proposals_created_total",
		Help: "proposals created",
	})
	m.proposals = factory.NewGauge(prometheus.GaugeOpts{
		Name: "govchain_voting_proposals_int",
		Help: "number of proposals in the store",
	})
	m.votesCast = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "govchain_voting_votes_cast_total",
		Help: "votes cast by voting mode",
	}, []string{"mode"})
	m.votesRemoved = factory.NewCounter(prometheus.CounterOpts{
		Name: "govchain_voting_votes_removed_total",
		Help: "quadratic votes removed",
	})
	m.delegations = factory.NewCounter(prometheus.CounterOpts{
		Name: "govchain_voting_delegations_total",
		Help: "delegation edges set",
	})
	m.executions = factory.NewCounter(prometheus.CounterOpts{
		Name: "govchain_voting_executions_total",
		Help: "proposals executed",
	})
	m.executionFailures = factory.NewCounter(prometheus.CounterOpts{
		Name: "govchain_voting_execution_failures_total",
		Help: "script executions aborted by a failing action",
	})
	return m
}
