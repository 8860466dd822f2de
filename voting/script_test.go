package voting

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptRoundTrip(t *testing.T) {
	actions := []Action{
		{To: common.HexToAddress("0x1111111111111111111111111111111111111111"), Calldata: common.FromHex("0x61461954")},
		{To: common.HexToAddress("0x2222222222222222222222222222222222222222"), Calldata: []byte{}},
	}
	script := EncodeScript(actions...)
	assert.Equal(t, CallsScriptID, script[:4])
	assert.Len(t, script, 4+2*24+4)

	got, err := DecodeScript(script)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, actions[0], got[0])
	assert.Equal(t, actions[1].To, got[1].To)
	assert.Empty(t, got[1].Calldata)
}

func TestDecodeEmptyScripts(t *testing.T) {
	for _, s := range [][]byte{nil, {}, EncodeScript()} {
		got, err := DecodeScript(s)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestDecodeMalformedScripts(t *testing.T) {
	full := EncodeScript(Action{To: common.Address{1}, Calldata: []byte{1, 2, 3, 4}})
	cases := map[string][]byte{
		"bad script id":      {0, 0, 0, 2},
		"short script id":    {0, 0},
		"truncated header":   full[:10],
		"truncated calldata": full[:len(full)-1],
	}
	for name, s := range cases {
		_, err := DecodeScript(s)
		assert.ErrorIs(t, err, ErrMalformedScript, name)
	}
}

func TestScriptCommitment(t *testing.T) {
	s := EncodeScript(Action{To: common.Address{1}})
	c := ScriptCommitment(s)
	assert.Len(t, c, 32)
	assert.Equal(t, c, ScriptCommitment(common.CopyBytes(s)))
	assert.NotEqual(t, c, ScriptCommitment(nil))
}
