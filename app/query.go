package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"strings"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInvalidQueryData = errors.New("invalid query data")
)

func (app *GovApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// decodeIndex reads a big-endian integer of up to 8 bytes.
func decodeIndex(dat []byte) (idx uint64, ok bool) {
	if len(dat) > 8 {
		return 0, false
	}
	for _, v := range dat {
		idx <<= 8
		idx |= uint64(v)
	}
	return idx, true
}

// EncodeIndex is the query data for an account index or a vote id.
func EncodeIndex(idx uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, idx)
}

// EncodeVoterQuery is the query data for a voter on a vote.
func EncodeVoterQuery(id uint64, voter common.Address) []byte {
	return append(EncodeIndex(id), voter.Bytes()...)
}

// viewQuery runs fn under a read lock and turns its result into a response.
func viewQuery(db *state.StateDB, fn func(st *state.State) (any, error)) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var v any
	err = db.View(func(st *state.State) error {
		res.Height = int64(st.Header().Height)
		var err error
		v, err = fn(st)
		return err
	})
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	res.Value, err = json.Marshal(v)
	if err != nil {
		res.Code = 1
		res.Log = err.Error()
		return res, nil
	}
	return res, nil
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query takes a 20-byte address or a big-endian account index.
func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == common.AddressLength {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if idx, ok := decodeIndex(req.Data); ok {
		a, height, _ = q.db.GetAccountByIndex(idx)
	}
	if a != nil {
		res.Value, _ = json.Marshal(a)
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return
}

type ProposalsResult struct {
	Count uint64           `json:"count"`
	Vote  *voting.VoteInfo `json:"vote,omitempty"`
}

type proposalQuerier struct {
	db *state.StateDB
}

// Query with empty data returns the number of votes, otherwise the vote
// with the big-endian id in data.
func (q *proposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return viewQuery(q.db, func(st *state.State) (any, error) {
		e := st.Engine()
		r := &ProposalsResult{Count: e.VotesLength()}
		if len(req.Data) == 0 {
			return r, nil
		}
		id, ok := decodeIndex(req.Data)
		if !ok {
			return nil, ErrInvalidQueryData
		}
		v, err := e.GetVote(id)
		if err != nil {
			return nil, err
		}
		r.Vote = v
		return r, nil
	})
}

type VoterResult struct {
	State string `json:"state"`
	Units uint64 `json:"units,omitempty"`
}

type voterQuerier struct {
	db *state.StateDB
}

func (q *voterQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return viewQuery(q.db, func(st *state.State) (any, error) {
		if len(req.Data) != 8+common.AddressLength {
			return nil, ErrInvalidQueryData
		}
		id := binary.BigEndian.Uint64(req.Data[:8])
		s, units, err := st.Engine().GetVoterState(id, common.BytesToAddress(req.Data[8:]))
		if err != nil {
			return nil, err
		}
		return &VoterResult{State: s.String(), Units: units}, nil
	})
}

type BalanceResult struct {
	Balance *uint256.Int `json:"balance"`
	Points  *uint64      `json:"points,omitempty"`
}

type balanceQuerier struct {
	db *state.StateDB
}

// Query returns the token balance of a 20-byte address and, in quadratic
// mode, its spendable points.
func (q *balanceQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return viewQuery(q.db, func(st *state.State) (any, error) {
		if len(req.Data) != common.AddressLength {
			return nil, ErrInvalidQueryData
		}
		who := common.BytesToAddress(req.Data)
		r := &BalanceResult{Balance: st.Ledger().BalanceOf(who)}
		if st.Engine().Mode() == voting.ModeQuadratic {
			points, err := st.Engine().VotingBalance(who)
			if err != nil {
				return nil, err
			}
			r.Points = &points
		}
		return r, nil
	})
}

type DelegationResult struct {
	Delegate  *common.Address `json:"delegate,omitempty"`
	Delegated *uint256.Int    `json:"delegated"`
}

type delegationQuerier struct {
	db *state.StateDB
}

func (q *delegationQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return viewQuery(q.db, func(st *state.State) (any, error) {
		if len(req.Data) != common.AddressLength {
			return nil, ErrInvalidQueryData
		}
		who := common.BytesToAddress(req.Data)
		r := &DelegationResult{Delegated: st.Engine().DelegatedWeight(who)}
		if d, ok := st.Engine().DelegateOf(who); ok {
			r.Delegate = &d
		}
		return r, nil
	})
}

type ParamsResult struct {
	Params      voting.Params `json:"params"`
	Forwarder   bool          `json:"forwarder"`
	Counter     uint64        `json:"counter"`
	TotalSupply *uint256.Int  `json:"totalSupply"`
}

type paramsQuerier struct {
	db *state.StateDB
}

func (q *paramsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	return viewQuery(q.db, func(st *state.State) (any, error) {
		e := st.Engine()
		if !e.HasInitialized() {
			return nil, voting.ErrUninitialized
		}
		return &ParamsResult{
			Params:      e.Params(),
			Forwarder:   e.IsForwarder(),
			Counter:     st.Counter().Value(),
			TotalSupply: st.Ledger().TotalSupply(),
		}, nil
	})
}
