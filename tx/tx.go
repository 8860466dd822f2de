package tx

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GovTx is the signed envelope of every governance transaction. Account is
// the sender's account index; Sig holds one ed25519 signature over SigData.
type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Account uint64    `json:"account"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// NewVoteTx creates a proposal. In quadratic mode Script carries the 32-byte
// commitment of the script instead of the script. When Ext is false the mode
// default for casting and auto-execution applies.
type NewVoteTx struct {
	Script            []byte `json:"script"`
	Metadata          string `json:"metadata"`
	Ext               bool   `json:"ext,omitempty"`
	CastVote          bool   `json:"castVote,omitempty"`
	ExecutesIfDecided bool   `json:"executesIfDecided,omitempty"`
}

type VoteTx struct {
	Vote              uint64 `json:"vote"`
	Supports          bool   `json:"supports"`
	ExecutesIfDecided bool   `json:"executesIfDecided"`
}

type VoteUnitsTx struct {
	Vote     uint64 `json:"vote"`
	Supports bool   `json:"supports"`
	Units    uint64 `json:"units"`
}

type VoteDimTx struct {
	Vote     uint64 `json:"vote"`
	Supports bool   `json:"supports"`
}

type RemoveVoteTx struct {
	Vote uint64 `json:"vote"`
}

type DelegateTx struct {
	Delegate common.Address `json:"delegate"`
}

// ExecuteVoteTx runs an approved proposal. Script is only read in quadratic
// mode, where it must match the stored commitment.
type ExecuteVoteTx struct {
	Vote   uint64 `json:"vote"`
	Script []byte `json:"script,omitempty"`
}

type TransferTx struct {
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

type ChangeSupportTx struct {
	SupportRequired *uint256.Int `json:"supportRequired"`
}

type ChangeQuorumTx struct {
	MinQuorum *uint256.Int `json:"minQuorum"`
}

type ForwardTx struct {
	Script []byte `json:"script"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Account uint64    `json:"account"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// SigData is the message signed by the sender: the envelope with the chain id
// in place of the signatures.
func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (gtx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != GovTxVersion0 {
		err = ErrUnsupportedTxVersion
		return
	}
	gtx = new(GovTx)
	gtx.Version = txt.Version
	gtx.Type = txt.Type
	gtx.Nonce = txt.Nonce
	gtx.Account = txt.Account
	gtx.Tx = &txt.Tx
	gtx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (gtx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypeNewVote:
		return unmarshalGovTx[NewVoteTx](dat)
	case GovTxTypeVote:
		return unmarshalGovTx[VoteTx](dat)
	case GovTxTypeVoteUnits:
		return unmarshalGovTx[VoteUnitsTx](dat)
	case GovTxTypeVoteDim:
		return unmarshalGovTx[VoteDimTx](dat)
	case GovTxTypeRemoveVote:
		return unmarshalGovTx[RemoveVoteTx](dat)
	case GovTxTypeDelegate:
		return unmarshalGovTx[DelegateTx](dat)
	case GovTxTypeExecuteVote:
		return unmarshalGovTx[ExecuteVoteTx](dat)
	case GovTxTypeTransfer:
		return unmarshalGovTx[TransferTx](dat)
	case GovTxTypeChangeSupport:
		return unmarshalGovTx[ChangeSupportTx](dat)
	case GovTxTypeChangeQuorum:
		return unmarshalGovTx[ChangeQuorumTx](dat)
	case GovTxTypeForward:
		return unmarshalGovTx[ForwardTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(gtx *GovTx) (dat []byte, err error) {
	return json.Marshal(gtx)
}
