package voting_test

import (
	"context"
	"testing"

	"github.com/calehh/govchain/target"
	"github.com/calehh/govchain/voting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reentrantAddr = common.HexToAddress("0x00000000000000000000000000000000000c0de3")

// reentrant calls back into the engine to execute the proposal that is
// already running it.
type reentrant struct {
	engine *voting.Engine
	id     uint64
}

func (r *reentrant) Call(ctx context.Context, _ []byte) error {
	return r.engine.ExecuteVote(ctx, holder20, r.id, nil)
}

func TestFailingActionAbortsWholeScript(t *testing.T) {
	f := newDelegateFixture(t)
	script := voting.EncodeScript(
		counterAction(),
		voting.Action{To: counterAddr, Calldata: []byte{0x00}},
		counterAction(),
	)
	id, err := f.engine.NewVoteExt(ctx, holder51, script, "", false, false)
	require.NoError(t, err)
	require.NoError(t, f.engine.Vote(ctx, holder51, id, true, false))

	err = f.engine.ExecuteVote(ctx, holder20, id, nil)
	require.ErrorIs(t, err, voting.ErrActionExecutionFailed)
	assert.Equal(t, uint64(0), f.counter.Value())

	v, err := f.engine.GetVote(id)
	require.NoError(t, err)
	assert.False(t, v.Executed)

	// still approved, so a later attempt is allowed and fails the same way
	ok, err := f.engine.CanExecute(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, f.engine.ExecuteVote(ctx, holder20, id, nil), voting.ErrActionExecutionFailed)
	assert.Equal(t, uint64(0), f.counter.Value())
}

func TestUnknownTargetFailsExecution(t *testing.T) {
	f := newDelegateFixture(t)
	script := voting.EncodeScript(counterAction(), voting.Action{To: common.Address{0x42}})
	id, err := f.engine.NewVoteExt(ctx, holder51, script, "", true, false)
	require.NoError(t, err)

	err = f.engine.ExecuteVote(ctx, holder20, id, nil)
	require.ErrorIs(t, err, target.ErrUnknownTarget)
	assert.Equal(t, uint64(0), f.counter.Value())
}

func TestReentrantExecutionFailsClosed(t *testing.T) {
	f := newDelegateFixture(t)
	require.NoError(t, f.router.Register(reentrantAddr, &reentrant{engine: f.engine, id: 0}))

	script := voting.EncodeScript(counterAction(), voting.Action{To: reentrantAddr}, counterAction())
	id, err := f.engine.NewVoteExt(ctx, holder51, script, "", true, false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	err = f.engine.ExecuteVote(ctx, holder51, id, nil)
	require.ErrorIs(t, err, voting.ErrActionExecutionFailed)
	require.ErrorIs(t, err, voting.ErrProposalExecuting)
	assert.Equal(t, uint64(0), f.counter.Value())

	v, err := f.engine.GetVote(id)
	require.NoError(t, err)
	assert.False(t, v.Executed)
	ok, err := f.engine.CanExecute(id)
	require.NoError(t, err)
	assert.True(t, ok, "the guard is released after the aborted run")
}

func TestExecutionEventsOnlyOnSuccess(t *testing.T) {
	f := newDelegateFixture(t)
	id := f.openVote(t)
	require.NoError(t, f.engine.Vote(ctx, holder51, id, true, true))

	var types []string
	for _, ev := range f.engine.DrainEvents() {
		types = append(types, ev.Type())
	}
	assert.Equal(t, []string{voting.EventTypeStartVote, voting.EventTypeCastVote, voting.EventTypeExecuteVote}, types)
}
