package voting

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Mode uint8

const (
	ModeDelegate  Mode = 1
	ModeQuadratic Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeDelegate:
		return "delegate"
	case ModeQuadratic:
		return "quadratic"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "delegate":
		return ModeDelegate, nil
	case "quadratic":
		return ModeQuadratic, nil
	}
	return 0, ErrInvalidParams
}

type VoterState uint8

const (
	Absent VoterState = iota
	Yea
	Nay
)

func (s VoterState) String() string {
	switch s {
	case Yea:
		return "yea"
	case Nay:
		return "nay"
	default:
		return "absent"
	}
}

func stateFor(supports bool) VoterState {
	if supports {
		return Yea
	}
	return Nay
}

// PctBase is 100% in the 18 decimal fixed point used for support and quorum.
var PctBase = uint256.NewInt(1_000_000_000_000_000_000)

// Pct returns n percent in PctBase units.
func Pct(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(10_000_000_000_000_000))
}

type Role string

const (
	CreateVotesRole   Role = "CREATE_VOTES_ROLE"
	ModifySupportRole Role = "MODIFY_SUPPORT_ROLE"
	ModifyQuorumRole  Role = "MODIFY_QUORUM_ROLE"
)

// Proposal is the stored form of a vote. SupportRequired and MinQuorum are
// copied from Params at creation and never change afterwards.
type Proposal struct {
	ID              uint64         `json:"id"`
	Creator         common.Address `json:"creator"`
	Executed        bool           `json:"executed"`
	StartTime       uint64         `json:"startTime"`
	SnapshotBlock   uint64         `json:"snapshotBlock"`
	SupportRequired *uint256.Int   `json:"supportRequired"`
	MinQuorum       *uint256.Int   `json:"minQuorum"`
	Yea             *uint256.Int   `json:"yea"`
	Nay             *uint256.Int   `json:"nay"`
	VotingPower     *uint256.Int   `json:"votingPower"`
	Script          []byte         `json:"script"`
	Metadata        string         `json:"metadata"`
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	n.SupportRequired = p.SupportRequired.Clone()
	n.MinQuorum = p.MinQuorum.Clone()
	n.Yea = p.Yea.Clone()
	n.Nay = p.Nay.Clone()
	n.VotingPower = p.VotingPower.Clone()
	n.Script = common.CopyBytes(p.Script)
	return &n
}

// VoteInfo is the read-only view returned by GetVote.
type VoteInfo struct {
	Open            bool           `json:"open"`
	Executed        bool           `json:"executed"`
	StartTime       uint64         `json:"startTime"`
	SnapshotBlock   uint64         `json:"snapshotBlock"`
	SupportRequired *uint256.Int   `json:"supportRequired"`
	MinQuorum       *uint256.Int   `json:"minQuorum"`
	Yea             *uint256.Int   `json:"yea"`
	Nay             *uint256.Int   `json:"nay"`
	VotingPower     *uint256.Int   `json:"votingPower"`
	Script          []byte         `json:"script"`
	Creator         common.Address `json:"creator"`
	Metadata        string         `json:"metadata"`
}

// VoterRecord is a direct vote on one proposal. In delegate mode Weight
// includes Delegated, the snapshot power of delegators counted with it.
type VoterRecord struct {
	State     VoterState   `json:"state"`
	Weight    *uint256.Int `json:"weight"`
	Delegated *uint256.Int `json:"delegated,omitempty"`
	TermStart uint64       `json:"termStart,omitempty"`
}

func (r *VoterRecord) Clone() *VoterRecord {
	n := *r
	n.Weight = r.Weight.Clone()
	if r.Delegated != nil {
		n.Delegated = r.Delegated.Clone()
	}
	return &n
}

// Attribution records which delegate's vote carries a delegator's snapshot
// power on a proposal. A delegator is counted at most once per proposal.
type Attribution struct {
	Delegate common.Address `json:"delegate"`
	Weight   *uint256.Int   `json:"weight"`
}

type Delegation struct {
	Delegate common.Address `json:"delegate"`
	Weight   *uint256.Int   `json:"weight"`
}

type PointBalance struct {
	Remaining uint64 `json:"remaining"`
	TermStart uint64 `json:"termStart"`
}

type Params struct {
	Mode            Mode         `json:"mode"`
	SupportRequired *uint256.Int `json:"supportRequired"`
	MinQuorum       *uint256.Int `json:"minQuorum,omitempty"`
	VoteTime        uint64       `json:"voteTime"`
	PointsPerTerm   uint64       `json:"pointsPerTerm,omitempty"`
	TermLength      uint64       `json:"termLength,omitempty"`
}

func (p Params) Validate() error {
	if p.SupportRequired == nil || p.VoteTime == 0 {
		return ErrInvalidParams
	}
	switch p.Mode {
	case ModeDelegate:
		if p.MinQuorum == nil || p.MinQuorum.Gt(p.SupportRequired) || !p.SupportRequired.Lt(PctBase) {
			return ErrInvalidParams
		}
	case ModeQuadratic:
		if p.SupportRequired.IsZero() || p.PointsPerTerm == 0 || p.TermLength == 0 {
			return ErrInvalidParams
		}
	default:
		return ErrInvalidParams
	}
	return nil
}

func (p Params) Clone() Params {
	n := p
	if p.SupportRequired != nil {
		n.SupportRequired = p.SupportRequired.Clone()
	}
	if p.MinQuorum != nil {
		n.MinQuorum = p.MinQuorum.Clone()
	}
	return n
}

// Oracle supplies token weight at a snapshot block.
type Oracle interface {
	PowerAt(ctx context.Context, who common.Address, block uint64) (*uint256.Int, error)
	TotalAt(ctx context.Context, block uint64) (*uint256.Int, error)
}

// Authorizer is the permission gate consulted before privileged mutations.
type Authorizer interface {
	CanPerform(who common.Address, role Role) bool
}

type Clock interface {
	Now() uint64
	Height() uint64
}

// Action is a single call of an execution script.
type Action struct {
	To       common.Address
	Calldata []byte
}

// Surface is where script actions run. Snapshot and RevertToSnapshot must
// cover every effect of Call so a failed batch leaves nothing behind.
type Surface interface {
	Snapshot() int
	RevertToSnapshot(id int)
	Call(ctx context.Context, action Action) error
}
