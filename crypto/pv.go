package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/govchain/tx"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
	"github.com/ethereum/go-ethereum/common"
)

// PV is a signing key loaded from a priv_validator_key.json file.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func NewPV(priv crypto.PrivKey) *PV {
	return &PV{privateKey: priv, publicKey: priv.PubKey()}
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("reading PrivValidator key from %v: %w", keyFilePath, err)
	}

	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

// GovAddress is the address the key votes as.
func (k *PV) GovAddress() common.Address {
	return common.BytesToAddress(k.publicKey.Address())
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx replaces the signatures of gtx with one over its SigData for chainId.
func (k *PV) SignTx(gtx *tx.GovTx, chainId string) error {
	dat, err := gtx.SigData([]byte(chainId))
	if err != nil {
		return err
	}
	sig, err := k.Sign(dat)
	if err != nil {
		return err
	}
	gtx.Sig = [][]byte{sig}
	return nil
}
