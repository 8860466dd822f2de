package voting

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventTypeStartVote             = "StartVote"
	EventTypeCastVote              = "CastVote"
	EventTypeRemoveVote            = "RemoveVote"
	EventTypeExecuteVote           = "ExecuteVote"
	EventTypeDelegate              = "Delegate"
	EventTypeChangeSupportRequired = "ChangeSupportRequired"
	EventTypeChangeMinQuorum       = "ChangeMinQuorum"
)

type Event interface {
	Type() string
}

type EventStartVote struct {
	ID       uint64
	Creator  common.Address
	Metadata string
}

// EventCastVote carries the counted weight in delegate mode and the unit
// count in quadratic mode.
type EventCastVote struct {
	ID       uint64
	Voter    common.Address
	Supports bool
	Stake    *uint256.Int
}

type EventRemoveVote struct {
	ID     uint64
	Voter  common.Address
	Units  uint64
	Refund uint64
}

type EventExecuteVote struct {
	ID uint64
}

type EventDelegate struct {
	Delegator common.Address
	Delegate  common.Address
	Weight    *uint256.Int
}

type EventChangeSupportRequired struct {
	SupportRequired *uint256.Int
}

type EventChangeMinQuorum struct {
	MinQuorum *uint256.Int
}

func (EventStartVote) Type() string             { return EventTypeStartVote }
func (EventCastVote) Type() string              { return EventTypeCastVote }
func (EventRemoveVote) Type() string            { return EventTypeRemoveVote }
func (EventExecuteVote) Type() string           { return EventTypeExecuteVote }
func (EventDelegate) Type() string              { return EventTypeDelegate }
func (EventChangeSupportRequired) Type() string { return EventTypeChangeSupportRequired }
func (EventChangeMinQuorum) Type() string       { return EventTypeChangeMinQuorum }
