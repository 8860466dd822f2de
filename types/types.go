package types

import (
	"fmt"
	"strconv"

	"github.com/calehh/govchain/voting"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventStartVoteType             = voting.EventTypeStartVote
	EventCastVoteType              = voting.EventTypeCastVote
	EventRemoveVoteType            = voting.EventTypeRemoveVote
	EventExecuteVoteType           = voting.EventTypeExecuteVote
	EventDelegateType              = voting.EventTypeDelegate
	EventChangeSupportRequiredType = voting.EventTypeChangeSupportRequired
	EventChangeMinQuorumType       = voting.EventTypeChangeMinQuorum
	EventTransferType              = "Transfer"
)

type EventTransfer struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

// EncodeEvents converts engine events to abci events in emission order.
// Unknown events are skipped.
func EncodeEvents(evs []voting.Event) []abci.Event {
	res := make([]abci.Event, 0, len(evs))
	for _, ev := range evs {
		switch e := ev.(type) {
		case voting.EventStartVote:
			res = append(res, EncodeEventStartVote(&e))
		case voting.EventCastVote:
			res = append(res, EncodeEventCastVote(&e))
		case voting.EventRemoveVote:
			res = append(res, EncodeEventRemoveVote(&e))
		case voting.EventExecuteVote:
			res = append(res, EncodeEventExecuteVote(&e))
		case voting.EventDelegate:
			res = append(res, EncodeEventDelegate(&e))
		case voting.EventChangeSupportRequired:
			res = append(res, EncodeEventChangeSupportRequired(&e))
		case voting.EventChangeMinQuorum:
			res = append(res, EncodeEventChangeMinQuorum(&e))
		}
	}
	return res
}

func EncodeEventStartVote(event *voting.EventStartVote) abci.Event {
	return abci.Event{
		Type: EventStartVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: fmt.Sprintf("%v", event.ID), Index: true},
			{Key: "creator", Value: event.Creator.Hex(), Index: true},
			{Key: "metadata", Value: event.Metadata, Index: false},
		},
	}
}

func DecodeEventStartVote(originEvent abci.Event) *voting.EventStartVote {
	event := &voting.EventStartVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ID = id
		case "creator":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Creator = common.HexToAddress(v.Value)
		case "metadata":
			event.Metadata = v.Value
		}
	}
	return event
}

func EncodeEventCastVote(event *voting.EventCastVote) abci.Event {
	return abci.Event{
		Type: EventCastVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: fmt.Sprintf("%v", event.ID), Index: true},
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "supports", Value: fmt.Sprintf("%v", event.Supports), Index: false},
			{Key: "stake", Value: event.Stake.Dec(), Index: false},
		},
	}
}

func DecodeEventCastVote(originEvent abci.Event) *voting.EventCastVote {
	event := &voting.EventCastVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ID = id
		case "voter":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Voter = common.HexToAddress(v.Value)
		case "supports":
			supports, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Supports = supports
		case "stake":
			stake, err := uint256.FromDecimal(v.Value)
			if err != nil {
				return nil
			}
			event.Stake = stake
		}
	}
	return event
}

func EncodeEventRemoveVote(event *voting.EventRemoveVote) abci.Event {
	return abci.Event{
		Type: EventRemoveVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: fmt.Sprintf("%v", event.ID), Index: true},
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "units", Value: fmt.Sprintf("%v", event.Units), Index: false},
			{Key: "refund", Value: fmt.Sprintf("%v", event.Refund), Index: false},
		},
	}
}

func DecodeEventRemoveVote(originEvent abci.Event) *voting.EventRemoveVote {
	event := &voting.EventRemoveVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "vote":
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ID = id
		case "voter":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Voter = common.HexToAddress(v.Value)
		case "units":
			units, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Units = units
		case "refund":
			refund, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Refund = refund
		}
	}
	return event
}

func EncodeEventExecuteVote(event *voting.EventExecuteVote) abci.Event {
	return abci.Event{
		Type: EventExecuteVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "vote", Value: fmt.Sprintf("%v", event.ID), Index: true},
		},
	}
}

func DecodeEventExecuteVote(originEvent abci.Event) *voting.EventExecuteVote {
	event := &voting.EventExecuteVote{}
	for _, v := range originEvent.Attributes {
		if v.Key == "vote" {
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ID = id
		}
	}
	return event
}

func EncodeEventDelegate(event *voting.EventDelegate) abci.Event {
	return abci.Event{
		Type: EventDelegateType,
		Attributes: []abci.EventAttribute{
			{Key: "delegator", Value: event.Delegator.Hex(), Index: true},
			{Key: "delegate", Value: event.Delegate.Hex(), Index: true},
			{Key: "weight", Value: event.Weight.Dec(), Index: false},
		},
	}
}

func DecodeEventDelegate(originEvent abci.Event) *voting.EventDelegate {
	event := &voting.EventDelegate{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "delegator":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Delegator = common.HexToAddress(v.Value)
		case "delegate":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.Delegate = common.HexToAddress(v.Value)
		case "weight":
			w, err := uint256.FromDecimal(v.Value)
			if err != nil {
				return nil
			}
			event.Weight = w
		}
	}
	return event
}

func EncodeEventChangeSupportRequired(event *voting.EventChangeSupportRequired) abci.Event {
	return abci.Event{
		Type: EventChangeSupportRequiredType,
		Attributes: []abci.EventAttribute{
			{Key: "supportRequired", Value: event.SupportRequired.Dec(), Index: false},
		},
	}
}

func DecodeEventChangeSupportRequired(originEvent abci.Event) *voting.EventChangeSupportRequired {
	event := &voting.EventChangeSupportRequired{}
	for _, v := range originEvent.Attributes {
		if v.Key == "supportRequired" {
			s, err := uint256.FromDecimal(v.Value)
			if err != nil {
				return nil
			}
			event.SupportRequired = s
		}
	}
	return event
}

func EncodeEventChangeMinQuorum(event *voting.EventChangeMinQuorum) abci.Event {
	return abci.Event{
		Type: EventChangeMinQuorumType,
		Attributes: []abci.EventAttribute{
			{Key: "minQuorum", Value: event.MinQuorum.Dec(), Index: false},
		},
	}
}

func DecodeEventChangeMinQuorum(originEvent abci.Event) *voting.EventChangeMinQuorum {
	event := &voting.EventChangeMinQuorum{}
	for _, v := range originEvent.Attributes {
		if v.Key == "minQuorum" {
			q, err := uint256.FromDecimal(v.Value)
			if err != nil {
				return nil
			}
			event.MinQuorum = q
		}
	}
	return event
}

func EncodeEventTransfer(event *EventTransfer) abci.Event {
	return abci.Event{
		Type: EventTransferType,
		Attributes: []abci.EventAttribute{
			{Key: "from", Value: event.From.Hex(), Index: true},
			{Key: "to", Value: event.To.Hex(), Index: true},
			{Key: "amount", Value: event.Amount.Dec(), Index: false},
		},
	}
}

func DecodeEventTransfer(originEvent abci.Event) *EventTransfer {
	event := &EventTransfer{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "from":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.From = common.HexToAddress(v.Value)
		case "to":
			if !common.IsHexAddress(v.Value) {
				return nil
			}
			event.To = common.HexToAddress(v.Value)
		case "amount":
			a, err := uint256.FromDecimal(v.Value)
			if err != nil {
				return nil
			}
			event.Amount = a
		}
	}
	return event
}
