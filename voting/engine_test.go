package voting_test

import (
	"testing"

	"github.com/calehh/govchain/voting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	f := newFixture(t, standardHoldings())
	assert.False(t, f.engine.HasInitialized())

	_, err := f.engine.NewVote(ctx, holder51, nil, "")
	assert.ErrorIs(t, err, voting.ErrUninitialized)
	assert.ErrorIs(t, f.engine.Vote(ctx, holder51, 0, true, true), voting.ErrUninitialized)
	assert.ErrorIs(t, f.engine.ExecuteVote(ctx, holder51, 0, nil), voting.ErrUninitialized)
	_, err = f.engine.GetVote(0)
	assert.ErrorIs(t, err, voting.ErrUninitialized)

	require.NoError(t, f.engine.Initialize(delegateParams()))
	assert.True(t, f.engine.HasInitialized())
	assert.Equal(t, voting.ModeDelegate, f.engine.Mode())
	assert.ErrorIs(t, f.engine.Initialize(delegateParams()), voting.ErrAlreadyInitialized)
}

func TestTemplateIsPetrified(t *testing.T) {
	f := newFixture(t, standardHoldings())
	tpl := voting.New(f.ledger, f.clock, f.router, voting.AsTemplate())
	assert.True(t, tpl.IsPetrified())
	assert.ErrorIs(t, tpl.Initialize(delegateParams()), voting.ErrPetrified)

	clone := tpl.Clone()
	assert.False(t, clone.IsPetrified())
	require.NoError(t, clone.Initialize(quadraticParams()))
	assert.Equal(t, voting.ModeQuadratic, clone.Mode())
	assert.False(t, tpl.HasInitialized())
}

func TestInvalidParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *voting.Params)
	}{
		{"quorum above support", func(p *voting.Params) { p.MinQuorum = voting.Pct(60) }},
		{"support of 100%", func(p *voting.Params) { p.SupportRequired = voting.PctBase }},
		{"no vote time", func(p *voting.Params) { p.VoteTime = 0 }},
		{"missing quorum", func(p *voting.Params) { p.MinQuorum = nil }},
		{"unknown mode", func(p *voting.Params) { p.Mode = 7 }},
		{"quadratic without points", func(p *voting.Params) {
			*p = quadraticParams()
			p.PointsPerTerm = 0
		}},
		{"quadratic without term", func(p *voting.Params) {
			*p = quadraticParams()
			p.TermLength = 0
		}},
		{"quadratic zero support", func(p *voting.Params) {
			*p = quadraticParams()
			p.SupportRequired = new(uint256.Int)
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t, standardHoldings())
			p := delegateParams()
			c.mutate(&p)
			assert.ErrorIs(t, f.engine.Initialize(p), voting.ErrInvalidParams)
			assert.False(t, f.engine.HasInitialized())
		})
	}
}

func TestZeroSupplyCannotCreate(t *testing.T) {
	f := newFixture(t, map[common.Address]uint64{})
	require.NoError(t, f.engine.Initialize(delegateParams()))
	_, err := f.engine.NewVote(ctx, holder51, nil, "metadata")
	assert.ErrorIs(t, err, voting.ErrZeroEligibleSupply)
	assert.Equal(t, uint64(0), f.engine.VotesLength())
}

func TestProposalIndicesAreDense(t *testing.T) {
	f := newFixture(t, standardHoldings())
	require.NoError(t, f.engine.Initialize(delegateParams()))
	for want := uint64(0); want < 3; want++ {
		id, err := f.engine.NewVoteExt(ctx, holder20, nil, "", false, false)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	_, err := f.engine.NewVote(ctx, holder51, voting.EncodeScript(voting.Action{To: common.Address{9}}), "")
	require.Error(t, err)
	id, err := f.engine.NewVoteExt(ctx, holder20, nil, "", false, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id, "a reverted creation does not consume an index")
	assert.Equal(t, uint64(4), f.engine.VotesLength())
}
