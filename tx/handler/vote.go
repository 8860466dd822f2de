package handler

import (
	"context"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

func applyNewVote(ctx context.Context, st *state.State, sender common.Address, p *tx.NewVoteTx) ([]abcitypes.Event, error) {
	var err error
	if p.Ext {
		_, err = st.Engine().NewVoteExt(ctx, sender, p.Script, p.Metadata, p.CastVote, p.ExecutesIfDecided)
	} else {
		_, err = st.Engine().NewVote(ctx, sender, p.Script, p.Metadata)
	}
	return nil, err
}

func applyVote(ctx context.Context, st *state.State, sender common.Address, p *tx.VoteTx) ([]abcitypes.Event, error) {
	return nil, st.Engine().Vote(ctx, sender, p.Vote, p.Supports, p.ExecutesIfDecided)
}

func applyExecuteVote(ctx context.Context, st *state.State, sender common.Address, p *tx.ExecuteVoteTx) ([]abcitypes.Event, error) {
	return nil, st.Engine().ExecuteVote(ctx, sender, p.Vote, p.Script)
}

func applyForward(ctx context.Context, st *state.State, sender common.Address, p *tx.ForwardTx) ([]abcitypes.Event, error) {
	_, err := st.Engine().Forward(ctx, sender, p.Script)
	return nil, err
}

func applyDelegate(ctx context.Context, st *state.State, sender common.Address, p *tx.DelegateTx) ([]abcitypes.Event, error) {
	return nil, st.Engine().Delegate(ctx, sender, p.Delegate)
}
