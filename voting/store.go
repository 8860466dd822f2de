package voting

import (
	"github.com/calehh/govchain/journal"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type voterKey struct {
	ID  uint64
	Who common.Address
}

// Store holds the engine state: the proposal arena, voter records, the
// delegation registry with its per-proposal attributions and quadratic point
// balances. Every mutation is recorded in the journal and marked dirty for
// persistence.
type Store struct {
	j *journal.Journal

	initialized bool
	params      Params

	proposals   []*Proposal
	voters      map[voterKey]*VoterRecord
	delegations map[common.Address]Delegation
	delegated   map[common.Address]*uint256.Int
	delegators  map[common.Address]map[common.Address]struct{}
	pooled      map[voterKey]Attribution
	balances    map[common.Address]PointBalance

	dirtyParams      bool
	dirtyProposals   map[uint64]struct{}
	dirtyVoters      map[voterKey]struct{}
	dirtyDelegations map[common.Address]struct{}
	dirtyDelegated   map[common.Address]struct{}
	dirtyPooled      map[voterKey]struct{}
	dirtyBalances    map[common.Address]struct{}
}

func NewStore(j *journal.Journal) *Store {
	if j == nil {
		j = journal.New()
	}
	s := &Store{
		j:           j,
		voters:      make(map[voterKey]*VoterRecord),
		delegations: make(map[common.Address]Delegation),
		delegated:   make(map[common.Address]*uint256.Int),
		delegators:  make(map[common.Address]map[common.Address]struct{}),
		pooled:      make(map[voterKey]Attribution),
		balances:    make(map[common.Address]PointBalance),
	}
	s.clearDirty()
	return s
}

func (s *Store) Journal() *journal.Journal {
	return s.j
}

func (s *Store) clearDirty() {
	s.dirtyParams = false
	s.dirtyProposals = make(map[uint64]struct{})
	s.dirtyVoters = make(map[voterKey]struct{})
	s.dirtyDelegations = make(map[common.Address]struct{})
	s.dirtyDelegated = make(map[common.Address]struct{})
	s.dirtyPooled = make(map[voterKey]struct{})
	s.dirtyBalances = make(map[common.Address]struct{})
}

func (s *Store) Initialized() bool {
	return s.initialized
}

func (s *Store) Params() Params {
	return s.params.Clone()
}

func (s *Store) setParams(p Params) {
	oldInit, oldParams := s.initialized, s.params
	s.j.Append(func() {
		s.initialized = oldInit
		s.params = oldParams
	})
	s.initialized = true
	s.params = p.Clone()
	s.dirtyParams = true
}

func (s *Store) ProposalCount() uint64 {
	return uint64(len(s.proposals))
}

// Proposal returns a copy of the stored proposal.
func (s *Store) Proposal(id uint64) (*Proposal, bool) {
	if id >= uint64(len(s.proposals)) {
		return nil, false
	}
	return s.proposals[id].Clone(), true
}

func (s *Store) appendProposal(p *Proposal) uint64 {
	id := uint64(len(s.proposals))
	p = p.Clone()
	p.ID = id
	s.proposals = append(s.proposals, p)
	s.j.Append(func() {
		s.proposals[id] = nil
		s.proposals = s.proposals[:id]
	})
	s.dirtyProposals[id] = struct{}{}
	return id
}

func (s *Store) putProposal(p *Proposal) {
	old := s.proposals[p.ID]
	s.proposals[p.ID] = p.Clone()
	s.j.Append(func() { s.proposals[p.ID] = old })
	s.dirtyProposals[p.ID] = struct{}{}
}

func (s *Store) Voter(id uint64, who common.Address) (*VoterRecord, bool) {
	r, ok := s.voters[voterKey{id, who}]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (s *Store) putVoter(id uint64, who common.Address, r *VoterRecord) {
	k := voterKey{id, who}
	old, existed := s.voters[k]
	s.voters[k] = r.Clone()
	s.j.Append(func() {
		if existed {
			s.voters[k] = old
		} else {
			delete(s.voters, k)
		}
	})
	s.dirtyVoters[k] = struct{}{}
}

func (s *Store) Delegation(who common.Address) (Delegation, bool) {
	d, ok := s.delegations[who]
	if !ok {
		return Delegation{}, false
	}
	return Delegation{Delegate: d.Delegate, Weight: d.Weight.Clone()}, true
}

func (s *Store) putDelegation(who common.Address, d Delegation) {
	old, existed := s.delegations[who]
	if existed {
		s.unindexDelegator(old.Delegate, who)
	}
	s.indexDelegator(d.Delegate, who)
	s.delegations[who] = Delegation{Delegate: d.Delegate, Weight: d.Weight.Clone()}
	s.j.Append(func() {
		s.unindexDelegator(d.Delegate, who)
		if existed {
			s.indexDelegator(old.Delegate, who)
			s.delegations[who] = old
		} else {
			delete(s.delegations, who)
		}
	})
	s.dirtyDelegations[who] = struct{}{}
}

// the reverse index is derived from delegations and never persisted
func (s *Store) indexDelegator(delegate, who common.Address) {
	set, ok := s.delegators[delegate]
	if !ok {
		set = make(map[common.Address]struct{})
		s.delegators[delegate] = set
	}
	set[who] = struct{}{}
}

func (s *Store) unindexDelegator(delegate, who common.Address) {
	set := s.delegators[delegate]
	delete(set, who)
	if len(set) == 0 {
		delete(s.delegators, delegate)
	}
}

// Delegators returns who currently delegates to delegate, sorted.
func (s *Store) Delegators(delegate common.Address) []common.Address {
	return sortedAddresses(s.delegators[delegate])
}

// Delegated returns the aggregate weight assigned to who by direct delegators.
func (s *Store) Delegated(who common.Address) *uint256.Int {
	if w, ok := s.delegated[who]; ok {
		return w.Clone()
	}
	return new(uint256.Int)
}

func (s *Store) putDelegated(who common.Address, w *uint256.Int) {
	old, existed := s.delegated[who]
	s.delegated[who] = w.Clone()
	s.j.Append(func() {
		if existed {
			s.delegated[who] = old
		} else {
			delete(s.delegated, who)
		}
	})
	s.dirtyDelegated[who] = struct{}{}
}

// Attribution returns the delegate whose vote on id counts who's power.
func (s *Store) Attribution(id uint64, who common.Address) (Attribution, bool) {
	a, ok := s.pooled[voterKey{id, who}]
	if !ok {
		return Attribution{}, false
	}
	return Attribution{Delegate: a.Delegate, Weight: a.Weight.Clone()}, true
}

func (s *Store) putAttribution(id uint64, who common.Address, a Attribution) {
	s.setAttribution(voterKey{id, who}, &Attribution{Delegate: a.Delegate, Weight: a.Weight.Clone()})
}

func (s *Store) deleteAttribution(id uint64, who common.Address) {
	s.setAttribution(voterKey{id, who}, nil)
}

func (s *Store) setAttribution(k voterKey, a *Attribution) {
	old, existed := s.pooled[k]
	if a == nil {
		delete(s.pooled, k)
	} else {
		s.pooled[k] = *a
	}
	s.j.Append(func() {
		if existed {
			s.pooled[k] = old
		} else {
			delete(s.pooled, k)
		}
	})
	s.dirtyPooled[k] = struct{}{}
}

func (s *Store) Balance(who common.Address) (PointBalance, bool) {
	b, ok := s.balances[who]
	return b, ok
}

func (s *Store) putBalance(who common.Address, b PointBalance) {
	old, existed := s.balances[who]
	s.balances[who] = b
	s.j.Append(func() {
		if existed {
			s.balances[who] = old
		} else {
			delete(s.balances, who)
		}
	})
	s.dirtyBalances[who] = struct{}{}
}
