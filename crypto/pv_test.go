package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calehh/govchain/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/privval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFilePVAndSign(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "priv_validator_key.json")
	filePV := privval.GenFilePV(keyFile, filepath.Join(dir, "priv_validator_state.json"))
	filePV.Save()

	pv, err := LoadFilePV(keyFile)
	require.NoError(t, err)
	assert.Equal(t, filePV.Key.PubKey.Bytes(), pv.PublicKey())
	assert.Equal(t, filePV.Key.PubKey.Address().Bytes(), pv.GovAddress().Bytes())

	gtx := &tx.GovTx{Type: tx.GovTxTypeRemoveVote, Nonce: 4, Account: 65536, Tx: &tx.RemoveVoteTx{Vote: 1}}
	require.NoError(t, pv.SignTx(gtx, "chain"))
	require.Len(t, gtx.Sig, 1)
	msg, err := gtx.SigData([]byte("chain"))
	require.NoError(t, err)
	assert.True(t, ed25519.PubKey(pv.PublicKey()).VerifySignature(msg, gtx.Sig[0]))
}

func TestLoadFilePVErrors(t *testing.T) {
	_, err := LoadFilePV(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadFilePV(bad)
	assert.Error(t, err)
}
