package types

import (
	"encoding/json"
	"testing"

	"github.com/calehh/govchain/voting"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var voter = common.HexToAddress("0x000000000000000000000000000000000000a11c")

func TestEncodeEventsKeepsOrder(t *testing.T) {
	evs := EncodeEvents([]voting.Event{
		voting.EventStartVote{ID: 4, Creator: voter, Metadata: "ipfs://x"},
		voting.EventCastVote{ID: 4, Voter: voter, Supports: true, Stake: uint256.NewInt(29)},
		voting.EventExecuteVote{ID: 4},
	})
	require.Len(t, evs, 3)
	assert.Equal(t, EventStartVoteType, evs[0].Type)
	assert.Equal(t, EventCastVoteType, evs[1].Type)
	assert.Equal(t, EventExecuteVoteType, evs[2].Type)

	start := DecodeEventStartVote(evs[0])
	require.NotNil(t, start)
	assert.Equal(t, voting.EventStartVote{ID: 4, Creator: voter, Metadata: "ipfs://x"}, *start)

	cast := DecodeEventCastVote(evs[1])
	require.NotNil(t, cast)
	assert.True(t, cast.Supports)
	assert.Equal(t, uint64(29), cast.Stake.Uint64())

	exec := DecodeEventExecuteVote(evs[2])
	require.NotNil(t, exec)
	assert.Equal(t, uint64(4), exec.ID)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	bad := abci.Event{Type: EventDelegateType, Attributes: []abci.EventAttribute{{Key: "delegator", Value: "nope"}}}
	assert.Nil(t, DecodeEventDelegate(bad))

	bad = abci.Event{Type: EventRemoveVoteType, Attributes: []abci.EventAttribute{{Key: "units", Value: "-1"}}}
	assert.Nil(t, DecodeEventRemoveVote(bad))

	bad = abci.Event{Type: EventTransferType, Attributes: []abci.EventAttribute{{Key: "amount", Value: "0x10"}}}
	assert.Nil(t, DecodeEventTransfer(bad))
}

func TestDelegateAndParamEvents(t *testing.T) {
	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	huge := uint256.MustFromDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935")

	d := DecodeEventDelegate(EncodeEventDelegate(&voting.EventDelegate{Delegator: voter, Delegate: to, Weight: huge}))
	require.NotNil(t, d)
	assert.Equal(t, to, d.Delegate)
	assert.True(t, d.Weight.Eq(huge))

	s := DecodeEventChangeSupportRequired(EncodeEventChangeSupportRequired(&voting.EventChangeSupportRequired{SupportRequired: voting.Pct(60)}))
	require.NotNil(t, s)
	assert.True(t, s.SupportRequired.Eq(voting.Pct(60)))

	q := DecodeEventChangeMinQuorum(EncodeEventChangeMinQuorum(&voting.EventChangeMinQuorum{MinQuorum: voting.Pct(10)}))
	require.NotNil(t, q)
	assert.True(t, q.MinQuorum.Eq(voting.Pct(10)))

	tr := DecodeEventTransfer(EncodeEventTransfer(&EventTransfer{From: voter, To: to, Amount: uint256.NewInt(3)}))
	require.NotNil(t, tr)
	assert.Equal(t, EventTransfer{From: voter, To: to, Amount: uint256.NewInt(3)}, *tr)
}

func TestParseAppState(t *testing.T) {
	pk := ed25519.GenPrivKey().PubKey().Bytes()
	dat, err := json.Marshal(DefaultAppState(pk, voter))
	require.NoError(t, err)
	as, err := ParseAppState(dat)
	require.NoError(t, err)
	assert.Equal(t, voting.ModeDelegate, as.Params.Mode)
	require.Len(t, as.Holders, 1)
	assert.Equal(t, common.BytesToAddress(ed25519.PubKey(pk).Address()), as.Holders[0].GovAddress())
	assert.Equal(t, []common.Address{voter}, as.Grants[voting.ModifySupportRole])

	_, err = ParseAppState([]byte(`{"params":{"mode":1,"supportRequired":"1","voteTime":0}}`))
	assert.Error(t, err)

	_, err = ParseAppState([]byte(`{"params":{"mode":1,"supportRequired":"500000000000000000","minQuorum":"0","voteTime":10},"holders":[{"balance":"1"}]}`))
	assert.ErrorIs(t, err, ErrInvalidAppState)
}
