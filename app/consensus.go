package app

import (
	"context"
	"fmt"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/tx/handler"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

func (app *GovApp) parseTx(txDat []byte) (gtx *tx.GovTx, h handler.TxHandler, err error) {
	gtx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	h, ok := app.txHdlrs[gtx.Type]
	if !ok {
		err = fmt.Errorf("%w: %v", tx.ErrUnsupportedTxType, gtx.Type)
	}
	return
}

func (app *GovApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	gtx, h, err := app.parseTx(check.Tx)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		return &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}, nil
	}
	app.logger.Debug("check tx", "type", gtx.Type, "account", gtx.Account)
	err = app.db.Apply(func(st *state.State) error {
		sender, err := st.Verify(gtx, true)
		if err != nil {
			return err
		}
		res, err = h.Check(ctx, st, gtx, sender)
		return err
	})
	if err != nil {
		app.logger.Info("check tx fail", "type", gtx.Type, "err", err)
		return &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}, nil
	}
	return res, nil
}

// validTx reports whether dat decodes and carries a valid signature. Nonce
// gaps are allowed since earlier transactions of the block are not applied yet.
func (app *GovApp) validTx(dat []byte) error {
	gtx, _, err := app.parseTx(dat)
	if err != nil {
		return err
	}
	return app.db.View(func(st *state.State) error {
		_, err := st.Verify(gtx, true)
		return err
	})
}

func (app *GovApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Debug("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if err := app.validTx(stx); err != nil {
			app.logger.Info("drop tx from proposal", "err", err)
			continue
		}
		size += int64(len(stx))
		if proposal.MaxTxBytes > 0 && size > proposal.MaxTxBytes {
			break
		}
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *GovApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	for _, stx := range proposal.Txs {
		if err := app.validTx(stx); err != nil {
			app.logger.Error("reject proposal", "height", proposal.Height, "err", err)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	app.logger.Debug("proposal accepted", "height", proposal.Height)
	return res, nil
}

// deliverTx applies one transaction in its own snapshot. A failing
// transaction is reported with code 1 and leaves the state untouched.
func (app *GovApp) deliverTx(ctx context.Context, st *state.State, dat []byte) *abcitypes.ExecTxResult {
	gtx, h, err := app.parseTx(dat)
	if err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
	}
	snap := st.Snapshot()
	sender, err := st.Verify(gtx, false)
	if err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
	}
	result, err := h.Process(ctx, st, gtx, sender)
	if err != nil {
		st.RevertToSnapshot(snap)
		app.logger.Info("tx failed", "type", gtx.Type, "account", gtx.Account, "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
	}
	st.IncNonce(sender)
	return result
}

func (app *GovApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	var h common.Hash
	err := app.db.Apply(func(st *state.State) error {
		st.BeginBlock(req.Height, req.Time)
		for i, stx := range req.Txs {
			results[i] = app.deliverTx(ctx, st, stx)
		}
		var err error
		h, err = st.Update()
		return err
	})
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *GovApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	h, err := app.db.Commit()
	if err != nil {
		return nil, err
	}
	app.logger.Info("Commit", "height", app.lastBlk.Height, "hash", h)
	return &abcitypes.ResponseCommit{}, nil
}
