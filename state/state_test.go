package state

import (
	"context"
	"testing"
	"time"

	"github.com/calehh/govchain/crypto"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/types"
	"github.com/calehh/govchain/voting"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainId = "test-chain"

var (
	genesisTime = time.Unix(1_700_000_000, 0)
	outsider    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func testAppState(pks ...ed25519.PubKey) *types.AppState {
	as := types.DefaultAppState(pks[0], EngineAddress)
	for _, pk := range pks[1:] {
		as.Holders = append(as.Holders, types.GenesisHolder{PubKey: pk, Balance: uint256.NewInt(500)})
	}
	as.Holders = append(as.Holders, types.GenesisHolder{Address: outsider, Balance: uint256.NewInt(250)})
	return as
}

func openTestDB(t *testing.T, mem dbm.DB) *StateDB {
	db, err := newStateDB(mem, cmtlog.NewNopLogger(), voting.NewMetrics(nil))
	require.NoError(t, err)
	return db
}

func initTestDB(t *testing.T, mem dbm.DB, as *types.AppState) *StateDB {
	db := openTestDB(t, mem)
	err := db.Apply(func(st *State) error {
		if err := st.InitGenesis(context.Background(), testChainId, genesisTime, as); err != nil {
			return err
		}
		_, err := st.Update()
		return err
	})
	require.NoError(t, err)
	_, err = db.Commit()
	require.NoError(t, err)
	return db
}

func TestGenesisAndReload(t *testing.T) {
	mem := dbm.NewMemDB()
	k1, k2 := ed25519.GenPrivKey(), ed25519.GenPrivKey()
	pk1, pk2 := k1.PubKey().(ed25519.PubKey), k2.PubKey().(ed25519.PubKey)
	db := initTestDB(t, mem, testAppState(pk1, pk2))

	a1, _, err := db.GetAccountByIndex(StartAccountIdx)
	require.NoError(t, err)
	assert.Equal(t, "genesis", a1.Name)
	a2, _, err := db.GetAccountByAddress(pk2.Address())
	require.NoError(t, err)
	require.NotNil(t, a2)
	assert.Equal(t, uint64(StartAccountIdx+1), a2.Index)

	header := db.Header()
	assert.Equal(t, testChainId, header.ChainId)
	assert.Equal(t, uint64(StartAccountIdx+2), header.AccountIdx)
	require.NotEmpty(t, header.Hash)

	err = db.View(func(st *State) error {
		assert.True(t, st.Engine().HasInitialized())
		assert.Equal(t, uint64(1_000_000), st.Ledger().BalanceOf(a1.GovAddress()).Uint64())
		assert.Equal(t, uint64(250), st.Ledger().BalanceOf(outsider).Uint64())
		assert.Equal(t, uint64(1_000_750), st.Ledger().TotalSupply().Uint64())
		assert.True(t, st.ACL().CanPerform(outsider, voting.CreateVotesRole))
		assert.False(t, st.ACL().CanPerform(outsider, voting.ModifySupportRole))
		return nil
	})
	require.NoError(t, err)

	reopened := openTestDB(t, mem)
	assert.Equal(t, header, reopened.Header())
	err = reopened.View(func(st *State) error {
		assert.True(t, st.Engine().HasInitialized())
		assert.Equal(t, voting.ModeDelegate, st.Engine().Mode())
		assert.Equal(t, uint64(500), st.Ledger().BalanceOf(a2.GovAddress()).Uint64())
		assert.True(t, st.ACL().CanPerform(EngineAddress, voting.ModifyQuorumRole))
		return nil
	})
	require.NoError(t, err)
	a, _, err := reopened.GetAccountByAddress(pk1.Address())
	require.NoError(t, err)
	assert.Equal(t, a1, a)
}

func TestVerify(t *testing.T) {
	key := ed25519.GenPrivKey()
	db := initTestDB(t, dbm.NewMemDB(), testAppState(key.PubKey().(ed25519.PubKey)))
	pv := crypto.NewPV(key)

	signed := func(nonce, account uint64, chainId string) *tx.GovTx {
		gtx := &tx.GovTx{Type: tx.GovTxTypeVote, Nonce: nonce, Account: account, Tx: &tx.VoteTx{Vote: 0}}
		require.NoError(t, pv.SignTx(gtx, chainId))
		return gtx
	}

	err := db.Apply(func(st *State) error {
		acnt, err := st.Verify(signed(0, StartAccountIdx, testChainId), false)
		require.NoError(t, err)
		assert.Equal(t, pv.GovAddress(), acnt.GovAddress())

		_, err = st.Verify(signed(1, StartAccountIdx, testChainId), false)
		assert.ErrorIs(t, err, ErrTxNonceInvalid)
		_, err = st.Verify(signed(1, StartAccountIdx, testChainId), true)
		assert.NoError(t, err, "gaps are allowed before the block is applied")

		_, err = st.Verify(signed(0, StartAccountIdx, "other-chain"), false)
		assert.ErrorIs(t, err, ErrTxSigInvalid)

		_, err = st.Verify(signed(0, StartAccountIdx+7, testChainId), false)
		assert.ErrorIs(t, err, ErrTxAccountNoexists)

		st.IncNonce(acnt)
		_, err = st.Verify(signed(1, StartAccountIdx, testChainId), false)
		assert.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestRevertToSnapshot(t *testing.T) {
	key := ed25519.GenPrivKey()
	db := initTestDB(t, dbm.NewMemDB(), testAppState(key.PubKey().(ed25519.PubKey)))
	holder := crypto.NewPV(key).GovAddress()
	before := db.Header()

	err := db.Apply(func(st *State) error {
		st.BeginBlock(1, genesisTime.Add(time.Second))
		snap := st.Snapshot()

		require.NoError(t, st.Ledger().Transfer(holder, outsider, uint256.NewInt(10)))
		newcomer := &Account{}
		newcomer.SetPubKey(ed25519.GenPrivKey().PubKey().Bytes())
		require.NoError(t, st.AddAccount(newcomer))
		_, err := st.Engine().NewVote(context.Background(), holder, voting.EncodeScript(), "")
		require.NoError(t, err)

		st.RevertToSnapshot(snap)
		assert.Equal(t, uint64(1_000_000), st.Ledger().BalanceOf(holder).Uint64())
		assert.Equal(t, before.AccountIdx, st.Header().AccountIdx)
		assert.Zero(t, st.Engine().VotesLength())
		assert.Empty(t, st.Engine().DrainEvents())
		found, err := st.FindAccount(newcomer.AddrBytes())
		require.NoError(t, err)
		assert.Nil(t, found)
		return nil
	})
	require.NoError(t, err)
}

func TestDryRunLeavesNoTrace(t *testing.T) {
	key := ed25519.GenPrivKey()
	db := initTestDB(t, dbm.NewMemDB(), testAppState(key.PubKey().(ed25519.PubKey)))
	holder := crypto.NewPV(key).GovAddress()

	err := db.Apply(func(st *State) error {
		st.BeginBlock(1, genesisTime.Add(time.Second))
		err := st.DryRun(func() error {
			_, err := st.Engine().NewVote(context.Background(), holder, voting.EncodeScript(voting.Action{
				To: CounterAddress, Calldata: []byte{0x61, 0x46, 0x19, 0x54},
			}), "bump")
			return err
		})
		require.NoError(t, err)
		assert.Zero(t, st.Engine().VotesLength())
		assert.Zero(t, st.Counter().Value())
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateCommitsBlock(t *testing.T) {
	mem := dbm.NewMemDB()
	key := ed25519.GenPrivKey()
	db := initTestDB(t, mem, testAppState(key.PubKey().(ed25519.PubKey)))
	holder := crypto.NewPV(key).GovAddress()

	var h common.Hash
	err := db.Apply(func(st *State) error {
		st.BeginBlock(1, genesisTime.Add(time.Second))
		_, err := st.Engine().NewVote(context.Background(), holder, voting.EncodeScript(voting.Action{
			To: CounterAddress, Calldata: []byte{0x61, 0x46, 0x19, 0x54},
		}), "bump")
		require.NoError(t, err)
		h, err = st.Update()
		return err
	})
	require.NoError(t, err)
	committed, err := db.Commit()
	require.NoError(t, err)
	assert.Equal(t, h, committed)
	assert.Equal(t, int64(2), db.Version())

	reopened := openTestDB(t, mem)
	assert.Equal(t, uint64(1), reopened.Header().Height)
	err = reopened.View(func(st *State) error {
		assert.Equal(t, uint64(1), st.Engine().VotesLength())
		assert.Equal(t, uint64(1), st.Counter().Value(), "creator's yea decides and executes")
		v, err := st.Engine().GetVote(0)
		require.NoError(t, err)
		assert.True(t, v.Executed)
		return nil
	})
	require.NoError(t, err)
}
