package handler

import (
	"context"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

// applyTransfer moves tokens at the current block. Snapshots of open
// proposals are taken at earlier blocks and do not see it.
func applyTransfer(ctx context.Context, st *state.State, sender common.Address, p *tx.TransferTx) ([]abcitypes.Event, error) {
	if p.Amount == nil {
		return nil, tx.ErrInvalidTx
	}
	if err := st.Ledger().Transfer(sender, p.To, p.Amount); err != nil {
		return nil, err
	}
	ev := types.EncodeEventTransfer(&types.EventTransfer{From: sender, To: p.To, Amount: p.Amount.Clone()})
	return []abcitypes.Event{ev}, nil
}
