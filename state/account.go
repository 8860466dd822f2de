package state

import (
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
)

type Account struct {
	Index  uint64         `json:"index"`
	PubKey ed25519.PubKey `json:"pubKey"`
	Nonce  uint64         `json:"nonce"`
	Name   string         `json:"name"`
}

func (a *Account) Clone() *Account {
	n := *a
	n.PubKey = common.CopyBytes(a.PubKey)
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	a.PubKey = common.CopyBytes(pkey)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

// GovAddress is the address the account votes and holds tokens as.
func (a *Account) GovAddress() common.Address {
	return common.BytesToAddress(a.AddrBytes())
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}
