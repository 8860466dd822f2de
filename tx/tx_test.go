package tx

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalGovTx(t *testing.T) {
	to := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	cases := []struct {
		tp      GovTxType
		payload any
	}{
		{GovTxTypeNewVote, &NewVoteTx{Script: []byte{0, 0, 0, 1}, Metadata: "m", Ext: true, CastVote: true}},
		{GovTxTypeVote, &VoteTx{Vote: 3, Supports: true, ExecutesIfDecided: true}},
		{GovTxTypeVoteUnits, &VoteUnitsTx{Vote: 1, Supports: false, Units: 4}},
		{GovTxTypeVoteDim, &VoteDimTx{Vote: 1, Supports: true}},
		{GovTxTypeRemoveVote, &RemoveVoteTx{Vote: 2}},
		{GovTxTypeDelegate, &DelegateTx{Delegate: to}},
		{GovTxTypeExecuteVote, &ExecuteVoteTx{Vote: 2, Script: []byte{1, 2}}},
		{GovTxTypeTransfer, &TransferTx{To: to, Amount: uint256.MustFromDecimal("1000000000000000000000")}},
		{GovTxTypeChangeSupport, &ChangeSupportTx{SupportRequired: uint256.NewInt(7)}},
		{GovTxTypeChangeQuorum, &ChangeQuorumTx{MinQuorum: uint256.NewInt(5)}},
		{GovTxTypeForward, &ForwardTx{Script: []byte{0, 0, 0, 1}}},
	}
	for _, c := range cases {
		t.Run(c.tp.String(), func(t *testing.T) {
			gtx := &GovTx{Version: GovTxVersion0, Type: c.tp, Nonce: 9, Account: 65536, Tx: c.payload, Sig: [][]byte{{1}}}
			dat, err := MarshalGovTx(gtx)
			require.NoError(t, err)
			got, err := UnmarshalGovTx(dat)
			require.NoError(t, err)
			assert.Equal(t, gtx, got)
		})
	}
}

func TestUnmarshalGovTxRejects(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"version":0,"type":99,"tx":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalGovTx([]byte(`{"version":1,"type":2,"tx":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)

	_, err = UnmarshalGovTx([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestSigDataIgnoresSignatures(t *testing.T) {
	gtx := &GovTx{Type: GovTxTypeVote, Nonce: 1, Account: 65536, Tx: &VoteTx{Vote: 1, Supports: true}}
	unsigned, err := gtx.SigData([]byte("chain-a"))
	require.NoError(t, err)

	gtx.Sig = [][]byte{{0xde, 0xad}}
	signed, err := gtx.SigData([]byte("chain-a"))
	require.NoError(t, err)
	assert.Equal(t, unsigned, signed)
	assert.Equal(t, [][]byte{{0xde, 0xad}}, gtx.Sig, "SigData must not touch the envelope")

	other, err := gtx.SigData([]byte("chain-b"))
	require.NoError(t, err)
	assert.NotEqual(t, unsigned, other)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(unsigned, &env))
	assert.Contains(t, env, "sig")
}
