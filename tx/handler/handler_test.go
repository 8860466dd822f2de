package handler

import (
	"context"
	"testing"
	"time"

	"github.com/calehh/govchain/crypto"
	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/target"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/types"
	"github.com/calehh/govchain/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ctx      = context.Background()
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fixture struct {
	db       *state.StateDB
	handlers map[tx.GovTxType]TxHandler
	sender   *state.Account
	pv       *crypto.PV
}

func newFixture(t *testing.T) *fixture {
	key := ed25519.GenPrivKey()
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger(), voting.NewMetrics(nil))
	require.NoError(t, err)
	as := types.DefaultAppState(key.PubKey().Bytes(), state.EngineAddress)
	err = db.Apply(func(st *state.State) error {
		if err := st.InitGenesis(ctx, "handler-chain", time.Unix(1_700_000_000, 0), as); err != nil {
			return err
		}
		if _, err := st.Update(); err != nil {
			return err
		}
		st.BeginBlock(1, time.Unix(1_700_000_001, 0))
		return nil
	})
	require.NoError(t, err)
	sender, _, err := db.GetAccountByIndex(state.StartAccountIdx)
	require.NoError(t, err)
	return &fixture{
		db:       db,
		handlers: NewTxHandlers(cmtlog.NewNopLogger()),
		sender:   sender,
		pv:       crypto.NewPV(key),
	}
}

func (f *fixture) gtx(tp tx.GovTxType, payload any) *tx.GovTx {
	return &tx.GovTx{Type: tp, Account: f.sender.Index, Tx: payload}
}

func (f *fixture) process(t *testing.T, gtx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	require.NoError(t, f.db.Apply(func(st *state.State) error {
		res, err = f.handlers[gtx.Type].Process(ctx, st, gtx, f.sender)
		return nil
	}))
	return
}

func (f *fixture) check(t *testing.T, gtx *tx.GovTx) (res *abcitypes.ResponseCheckTx) {
	require.NoError(t, f.db.Apply(func(st *state.State) error {
		var err error
		res, err = f.handlers[gtx.Type].Check(ctx, st, gtx, f.sender)
		return err
	}))
	return
}

func counterScript() []byte {
	return voting.EncodeScript(voting.Action{To: state.CounterAddress, Calldata: common.CopyBytes(target.ExecuteSelector)})
}

func TestNewTxHandlersCoversEveryType(t *testing.T) {
	hs := NewTxHandlers(cmtlog.NewNopLogger())
	for tp := tx.GovTxTypeNewVote; tp <= tx.GovTxTypeForward; tp++ {
		assert.Contains(t, hs, tp, tp.String())
	}
}

func TestProcessNewVoteEmitsEngineEvents(t *testing.T) {
	f := newFixture(t)
	res, err := f.process(t, f.gtx(tx.GovTxTypeNewVote, &tx.NewVoteTx{Script: counterScript(), Metadata: "bump"}))
	require.NoError(t, err)

	var kinds []string
	for _, ev := range res.Events {
		kinds = append(kinds, ev.Type)
	}
	assert.Equal(t, []string{types.EventStartVoteType, types.EventCastVoteType, types.EventExecuteVoteType}, kinds)
	require.NoError(t, f.db.View(func(st *state.State) error {
		assert.Equal(t, uint64(1), st.Counter().Value())
		assert.Empty(t, st.Engine().DrainEvents())
		return nil
	}))
}

func TestCheckIsDryRun(t *testing.T) {
	f := newFixture(t)
	res := f.check(t, f.gtx(tx.GovTxTypeNewVote, &tx.NewVoteTx{Script: counterScript()}))
	assert.Equal(t, uint32(0), res.Code, res.Log)
	require.NoError(t, f.db.View(func(st *state.State) error {
		assert.Zero(t, st.Engine().VotesLength())
		assert.Zero(t, st.Counter().Value())
		return nil
	}))

	res = f.check(t, f.gtx(tx.GovTxTypeChangeSupport, &tx.ChangeSupportTx{SupportRequired: voting.Pct(60)}))
	assert.Equal(t, uint32(1), res.Code)
	assert.Contains(t, res.Log, voting.ErrUnauthorized.Error())

	res = f.check(t, f.gtx(tx.GovTxTypeVoteUnits, &tx.VoteUnitsTx{Units: 2}))
	assert.Equal(t, uint32(1), res.Code)
	assert.Contains(t, res.Log, voting.ErrUnsupportedInMode.Error())
}

func TestProcessTransfer(t *testing.T) {
	f := newFixture(t)
	res, err := f.process(t, f.gtx(tx.GovTxTypeTransfer, &tx.TransferTx{To: receiver, Amount: uint256.NewInt(40)}))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	ev := types.DecodeEventTransfer(res.Events[0])
	require.NotNil(t, ev)
	assert.Equal(t, f.pv.GovAddress(), ev.From)
	assert.Equal(t, uint64(40), ev.Amount.Uint64())

	require.NoError(t, f.db.View(func(st *state.State) error {
		assert.Equal(t, uint64(40), st.Ledger().BalanceOf(receiver).Uint64())
		return nil
	}))

	_, err = f.process(t, f.gtx(tx.GovTxTypeTransfer, &tx.TransferTx{To: receiver}))
	assert.ErrorIs(t, err, tx.ErrInvalidTx)
}

func TestProcessRejectsMismatchedPayload(t *testing.T) {
	f := newFixture(t)
	_, err := f.process(t, f.gtx(tx.GovTxTypeVote, &tx.DelegateTx{Delegate: receiver}))
	assert.ErrorIs(t, err, tx.ErrUnmatchedTxType)
}

func TestProcessDelegate(t *testing.T) {
	f := newFixture(t)
	res, err := f.process(t, f.gtx(tx.GovTxTypeDelegate, &tx.DelegateTx{Delegate: receiver}))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	d := types.DecodeEventDelegate(res.Events[0])
	require.NotNil(t, d)
	assert.Equal(t, receiver, d.Delegate)
	assert.Equal(t, uint64(1_000_000), d.Weight.Uint64())

	_, err = f.process(t, f.gtx(tx.GovTxTypeDelegate, &tx.DelegateTx{Delegate: f.pv.GovAddress()}))
	assert.ErrorIs(t, err, voting.ErrInvalidDelegate)
}
