package handler

import (
	"context"
	"fmt"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

// TxHandler applies one transaction type. sender is the verified signer.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, gtx *tx.GovTx, sender *state.Account) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, gtx *tx.GovTx, sender *state.Account) (res *abcitypes.ExecTxResult, err error)
}

type applyFunc[T any] func(ctx context.Context, st *state.State, sender common.Address, payload *T) ([]abcitypes.Event, error)

// govTxHandler adapts an apply function over a typed payload to TxHandler.
// Engine events raised by apply are drained into the result ahead of the
// events apply returns itself.
type govTxHandler[T any] struct {
	logger cmtlog.Logger
	apply  applyFunc[T]
}

func newGovTxHandler[T any](logger cmtlog.Logger, tp tx.GovTxType, apply applyFunc[T]) *govTxHandler[T] {
	return &govTxHandler[T]{
		logger: logger.With("module", tp.String()+"Tx"),
		apply:  apply,
	}
}

func (h *govTxHandler[T]) payload(gtx *tx.GovTx) (*T, error) {
	p, ok := gtx.Tx.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %T", tx.ErrUnmatchedTxType, gtx.Tx)
	}
	return p, nil
}

func (h *govTxHandler[T]) Check(ctx context.Context, st *state.State, gtx *tx.GovTx, sender *state.Account) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	p, err1 := h.payload(gtx)
	if err1 == nil {
		err1 = st.DryRun(func() error {
			_, err := h.apply(ctx, st, sender.GovAddress(), p)
			return err
		})
	}
	if err1 != nil {
		h.logger.Info("CheckTx fail", "account", sender.Index, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *govTxHandler[T]) Process(ctx context.Context, st *state.State, gtx *tx.GovTx, sender *state.Account) (res *abcitypes.ExecTxResult, err error) {
	p, err := h.payload(gtx)
	if err != nil {
		return nil, err
	}
	extra, err := h.apply(ctx, st, sender.GovAddress(), p)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	res.Events = append(types.EncodeEvents(st.Engine().DrainEvents()), extra...)
	return
}

// NewTxHandlers returns a handler for every transaction type.
func NewTxHandlers(logger cmtlog.Logger) map[tx.GovTxType]TxHandler {
	return map[tx.GovTxType]TxHandler{
		tx.GovTxTypeNewVote:       newGovTxHandler[tx.NewVoteTx](logger, tx.GovTxTypeNewVote, applyNewVote),
		tx.GovTxTypeVote:          newGovTxHandler[tx.VoteTx](logger, tx.GovTxTypeVote, applyVote),
		tx.GovTxTypeVoteUnits:     newGovTxHandler[tx.VoteUnitsTx](logger, tx.GovTxTypeVoteUnits, applyVoteUnits),
		tx.GovTxTypeVoteDim:       newGovTxHandler[tx.VoteDimTx](logger, tx.GovTxTypeVoteDim, applyVoteDim),
		tx.GovTxTypeRemoveVote:    newGovTxHandler[tx.RemoveVoteTx](logger, tx.GovTxTypeRemoveVote, applyRemoveVote),
		tx.GovTxTypeDelegate:      newGovTxHandler[tx.DelegateTx](logger, tx.GovTxTypeDelegate, applyDelegate),
		tx.GovTxTypeExecuteVote:   newGovTxHandler[tx.ExecuteVoteTx](logger, tx.GovTxTypeExecuteVote, applyExecuteVote),
		tx.GovTxTypeTransfer:      newGovTxHandler[tx.TransferTx](logger, tx.GovTxTypeTransfer, applyTransfer),
		tx.GovTxTypeChangeSupport: newGovTxHandler[tx.ChangeSupportTx](logger, tx.GovTxTypeChangeSupport, applyChangeSupport),
		tx.GovTxTypeChangeQuorum:  newGovTxHandler[tx.ChangeQuorumTx](logger, tx.GovTxTypeChangeQuorum, applyChangeQuorum),
		tx.GovTxTypeForward:       newGovTxHandler[tx.ForwardTx](logger, tx.GovTxTypeForward, applyForward),
	}
}
