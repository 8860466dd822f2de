package handler

import (
	"context"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

func applyChangeSupport(ctx context.Context, st *state.State, sender common.Address, p *tx.ChangeSupportTx) ([]abcitypes.Event, error) {
	if p.SupportRequired == nil {
		return nil, tx.ErrInvalidTx
	}
	return nil, st.Engine().ChangeSupportRequired(ctx, sender, p.SupportRequired)
}

func applyChangeQuorum(ctx context.Context, st *state.State, sender common.Address, p *tx.ChangeQuorumTx) ([]abcitypes.Event, error) {
	if p.MinQuorum == nil {
		return nil, tx.ErrInvalidTx
	}
	return nil, st.Engine().ChangeMinQuorum(ctx, sender, p.MinQuorum)
}
