package token

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	"github.com/calehh/govchain/journal"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ height uint64 }

func (c *testClock) Height() uint64 { return c.height }

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newTestLedger() (*Ledger, *testClock, *journal.Journal) {
	clock := &testClock{height: 1}
	j := journal.New()
	return NewLedger(j, clock, cmtlog.NewNopLogger()), clock, j
}

func TestMintAndTransfer(t *testing.T) {
	l, clock, _ := newTestLedger()
	require.NoError(t, l.Mint(alice, uint256.NewInt(29)))
	require.NoError(t, l.Mint(bob, uint256.NewInt(71)))

	clock.height = 2
	require.NoError(t, l.Transfer(alice, bob, uint256.NewInt(29)))

	assert.True(t, l.BalanceOf(alice).IsZero())
	assert.Equal(t, uint64(100), l.BalanceOf(bob).Uint64())
	assert.Equal(t, uint64(29), l.BalanceAt(alice, 1).Uint64(), "past balance must not change")
	assert.Equal(t, uint64(71), l.BalanceAt(bob, 1).Uint64())
	assert.True(t, l.BalanceAt(alice, 0).IsZero())
	assert.Equal(t, uint64(100), l.TotalSupplyAt(1).Uint64())
	assert.True(t, l.TotalSupplyAt(0).IsZero())

	power, err := l.PowerAt(context.Background(), alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(29), power.Uint64())
}

func TestTransferErrors(t *testing.T) {
	l, _, _ := newTestLedger()
	require.NoError(t, l.Mint(alice, uint256.NewInt(5)))

	assert.ErrorIs(t, l.Transfer(alice, bob, uint256.NewInt(6)), ErrInsufficientFunds)
	assert.ErrorIs(t, l.Transfer(alice, bob, new(uint256.Int)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Mint(alice, nil), ErrInvalidAmount)
	assert.Equal(t, uint64(5), l.BalanceOf(alice).Uint64())
}

func TestSameBlockWritesShareCheckpoint(t *testing.T) {
	l, _, _ := newTestLedger()
	require.NoError(t, l.Mint(alice, uint256.NewInt(1)))
	require.NoError(t, l.Mint(alice, uint256.NewInt(2)))
	assert.Len(t, l.balances[alice], 1)
	assert.Equal(t, uint64(3), l.BalanceAt(alice, 1).Uint64())
}

func TestRevertRestoresBalances(t *testing.T) {
	l, clock, j := newTestLedger()
	require.NoError(t, l.Mint(alice, uint256.NewInt(10)))
	clock.height = 2

	snap := j.Snapshot()
	require.NoError(t, l.Transfer(alice, bob, uint256.NewInt(4)))
	require.NoError(t, l.Mint(bob, uint256.NewInt(1)))
	j.RevertToSnapshot(snap)

	assert.Equal(t, uint64(10), l.BalanceOf(alice).Uint64())
	assert.True(t, l.BalanceOf(bob).IsZero())
	assert.Equal(t, uint64(10), l.TotalSupply().Uint64())
	assert.Equal(t, []common.Address{alice}, l.Holders())
}

func TestFlushAndLoad(t *testing.T) {
	tree := iavl.NewMutableTree(dbm.NewMemDB(), 0, true, log.NewNopLogger())
	l, clock, _ := newTestLedger()
	require.NoError(t, l.Mint(alice, uint256.NewInt(20)))
	clock.height = 3
	require.NoError(t, l.Transfer(alice, bob, uint256.NewInt(5)))
	require.NoError(t, l.Flush(tree))

	loaded := NewLedger(nil, clock, cmtlog.NewNopLogger())
	require.NoError(t, loaded.Load(tree))
	assert.Equal(t, uint64(20), loaded.BalanceAt(alice, 2).Uint64())
	assert.Equal(t, uint64(15), loaded.BalanceOf(alice).Uint64())
	assert.Equal(t, uint64(5), loaded.BalanceOf(bob).Uint64())
	assert.Equal(t, uint64(20), loaded.TotalSupply().Uint64())
}
