package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown       GovTxType = 0
	GovTxTypeNewVote       GovTxType = 1
	GovTxTypeVote          GovTxType = 2
	GovTxTypeVoteUnits     GovTxType = 3
	GovTxTypeVoteDim       GovTxType = 4
	GovTxTypeRemoveVote    GovTxType = 5
	GovTxTypeDelegate      GovTxType = 6
	GovTxTypeExecuteVote   GovTxType = 7
	GovTxTypeTransfer      GovTxType = 8
	GovTxTypeChangeSupport GovTxType = 9
	GovTxTypeChangeQuorum  GovTxType = 10
	GovTxTypeForward       GovTxType = 11
)

func (t GovTxType) String() string {
	switch t {
	case GovTxTypeNewVote:
		return "new_vote"
	case GovTxTypeVote:
		return "vote"
	case GovTxTypeVoteUnits:
		return "vote_units"
	case GovTxTypeVoteDim:
		return "vote_dim"
	case GovTxTypeRemoveVote:
		return "remove_vote"
	case GovTxTypeDelegate:
		return "delegate"
	case GovTxTypeExecuteVote:
		return "execute_vote"
	case GovTxTypeTransfer:
		return "transfer"
	case GovTxTypeChangeSupport:
		return "change_support"
	case GovTxTypeChangeQuorum:
		return "change_quorum"
	case GovTxTypeForward:
		return "forward"
	default:
		return "unknown"
	}
}

const (
	GovTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
