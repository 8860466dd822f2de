package handler

import (
	"context"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

func applyVoteUnits(ctx context.Context, st *state.State, sender common.Address, p *tx.VoteUnitsTx) ([]abcitypes.Event, error) {
	return nil, st.Engine().VoteUnits(ctx, sender, p.Vote, p.Supports, p.Units)
}

func applyVoteDim(ctx context.Context, st *state.State, sender common.Address, p *tx.VoteDimTx) ([]abcitypes.Event, error) {
	return nil, st.Engine().VoteDim(ctx, sender, p.Vote, p.Supports)
}

func applyRemoveVote(ctx context.Context, st *state.State, sender common.Address, p *tx.RemoveVoteTx) ([]abcitypes.Event, error) {
	return nil, st.Engine().RemoveVote(ctx, sender, p.Vote)
}
