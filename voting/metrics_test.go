package voting_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/calehh/govchain/voting"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCounter(t *testing.T, reg *prometheus.Registry, name, help string, want int) {
	t.Helper()
	expected := fmt.Sprintf("# HELP %[1]s %[2]s\n# TYPE %[1]s counter\n%[1]s %[3]d\n", name, help, want)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), name))
}

const (
	createdMetric    = "govchain_voting_proposals_created_total"
	createdHelp      = "proposals created"
	delegationMetric = "govchain_voting_delegations_total"
	delegationHelp   = "delegation edges set"
)

func TestRevertedWorkIsNotCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newDelegateFixture(t, voting.WithMetrics(voting.NewMetrics(reg)))

	bad := voting.EncodeScript(counterAction(), voting.Action{To: counterAddr, Calldata: []byte{0xde, 0xad}})
	_, err := f.engine.NewVote(ctx, holder51, bad, "")
	require.ErrorIs(t, err, voting.ErrActionExecutionFailed)
	assert.ErrorIs(t, f.engine.Delegate(ctx, nonHolder, holder20), voting.ErrNoVotingPower)
	f.engine.DrainEvents()
	requireCounter(t, reg, createdMetric, createdHelp, 0)
	requireCounter(t, reg, delegationMetric, delegationHelp, 0)

	snap := f.j.Snapshot()
	require.NoError(t, f.engine.Delegate(ctx, holder20, holder29))
	f.j.RevertToSnapshot(snap)
	f.engine.DrainEvents()
	requireCounter(t, reg, delegationMetric, delegationHelp, 0)

	f.openVote(t)
	require.NoError(t, f.engine.Delegate(ctx, holder20, holder29))
	requireCounter(t, reg, createdMetric, createdHelp, 0)
	f.engine.DrainEvents()
	requireCounter(t, reg, createdMetric, createdHelp, 1)
	requireCounter(t, reg, delegationMetric, delegationHelp, 1)
}
