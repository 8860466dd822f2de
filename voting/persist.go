package voting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/calehh/govchain/kvstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	KeyParams          = "gp"
	KeyProposalIndex   = "pi"
	KeyProposalBody    = "p/%v"
	KeyVoterPrefix     = "v/"
	KeyVoterBody       = "v/%020d/%x"
	KeyDelegatePrefix  = "g/"
	KeyDelegateBody    = "g/%x"
	KeyDelegatedPrefix = "w/"
	KeyDelegatedBody   = "w/%x"
	KeyPooledPrefix    = "o/"
	KeyPooledBody      = "o/%020d/%x"
	KeyBalancePrefix   = "b/"
	KeyBalanceBody     = "b/%x"
)

type voterEntry struct {
	ID     uint64         `json:"id"`
	Voter  common.Address `json:"voter"`
	Record *VoterRecord   `json:"record"`
}

type delegationEntry struct {
	Delegator common.Address `json:"delegator"`
	Delegation
}

type weightEntry struct {
	Address common.Address `json:"address"`
	Weight  *uint256.Int   `json:"weight"`
}

type attributionEntry struct {
	ID        uint64         `json:"id"`
	Delegator common.Address `json:"delegator"`
	Attribution
}

type balanceEntry struct {
	Voter common.Address `json:"voter"`
	PointBalance
}

func sortedVoterKeys(m map[voterKey]struct{}) []voterKey {
	keys := make([]voterKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return bytes.Compare(keys[i].Who[:], keys[j].Who[:]) < 0
	})
	return keys
}

func sortedAddresses(m map[common.Address]struct{}) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

func setJSON(kv kvstore.KV, key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = kv.Set([]byte(key), val)
	return err
}

// Flush writes every entry modified since the last flush. Keys are written in
// sorted order so the resulting tree is the same on every node.
func (s *Store) Flush(kv kvstore.KV) (err error) {
	if s.dirtyParams && s.initialized {
		if err = setJSON(kv, KeyParams, s.params); err != nil {
			return
		}
	}

	if len(s.dirtyProposals) > 0 {
		var val []byte
		val, err = rlp.EncodeToBytes(uint64(len(s.proposals)))
		if err != nil {
			return
		}
		if _, err = kv.Set([]byte(KeyProposalIndex), val); err != nil {
			return
		}
		ids := make([]uint64, 0, len(s.dirtyProposals))
		for id := range s.dirtyProposals {
			if id < uint64(len(s.proposals)) {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			if err = setJSON(kv, fmt.Sprintf(KeyProposalBody, id), s.proposals[id]); err != nil {
				return
			}
		}
	}

	for _, k := range sortedVoterKeys(s.dirtyVoters) {
		r, ok := s.voters[k]
		if !ok {
			continue
		}
		if err = setJSON(kv, fmt.Sprintf(KeyVoterBody, k.ID, k.Who), voterEntry{ID: k.ID, Voter: k.Who, Record: r}); err != nil {
			return
		}
	}

	for _, who := range sortedAddresses(s.dirtyDelegations) {
		d, ok := s.delegations[who]
		if !ok {
			continue
		}
		if err = setJSON(kv, fmt.Sprintf(KeyDelegateBody, who), delegationEntry{Delegator: who, Delegation: d}); err != nil {
			return
		}
	}

	for _, who := range sortedAddresses(s.dirtyDelegated) {
		w, ok := s.delegated[who]
		if !ok {
			continue
		}
		if err = setJSON(kv, fmt.Sprintf(KeyDelegatedBody, who), weightEntry{Address: who, Weight: w}); err != nil {
			return
		}
	}

	for _, k := range sortedVoterKeys(s.dirtyPooled) {
		key := []byte(fmt.Sprintf(KeyPooledBody, k.ID, k.Who))
		a, ok := s.pooled[k]
		if !ok {
			if _, _, err = kv.Remove(key); err != nil {
				return
			}
			continue
		}
		if err = setJSON(kv, string(key), attributionEntry{ID: k.ID, Delegator: k.Who, Attribution: a}); err != nil {
			return
		}
	}

	for _, who := range sortedAddresses(s.dirtyBalances) {
		b, ok := s.balances[who]
		if !ok {
			continue
		}
		if err = setJSON(kv, fmt.Sprintf(KeyBalanceBody, who), balanceEntry{Voter: who, PointBalance: b}); err != nil {
			return
		}
	}

	s.clearDirty()
	return nil
}

// Load replaces the in-memory state with what kv holds.
func (s *Store) Load(kv kvstore.KV) (err error) {
	val, err := kv.Get([]byte(KeyParams))
	if err != nil {
		return err
	}
	if val == nil {
		return nil
	}
	var params Params
	if err = json.Unmarshal(val, &params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	s.params = params
	s.initialized = true

	val, err = kv.Get([]byte(KeyProposalIndex))
	if err != nil {
		return err
	}
	var count uint64
	if val != nil {
		if err = rlp.DecodeBytes(val, &count); err != nil {
			return err
		}
	}
	s.proposals = make([]*Proposal, 0, count)
	for id := uint64(0); id < count; id++ {
		val, err = kv.Get([]byte(fmt.Sprintf(KeyProposalBody, id)))
		if err != nil {
			return err
		}
		if val == nil {
			return fmt.Errorf("proposal %d: %w", id, ErrProposalNotFound)
		}
		p := new(Proposal)
		if err = json.Unmarshal(val, p); err != nil {
			return fmt.Errorf("decode proposal %d: %w", id, err)
		}
		s.proposals = append(s.proposals, p)
	}

	err = kvstore.Iterate(kv, []byte(KeyVoterPrefix), func(_, value []byte) error {
		var e voterEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		s.voters[voterKey{e.ID, e.Voter}] = e.Record
		return nil
	})
	if err != nil {
		return fmt.Errorf("load voters: %w", err)
	}

	err = kvstore.Iterate(kv, []byte(KeyDelegatePrefix), func(_, value []byte) error {
		var e delegationEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		s.delegations[e.Delegator] = e.Delegation
		s.indexDelegator(e.Delegate, e.Delegator)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load delegations: %w", err)
	}

	err = kvstore.Iterate(kv, []byte(KeyDelegatedPrefix), func(_, value []byte) error {
		var e weightEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		s.delegated[e.Address] = e.Weight
		return nil
	})
	if err != nil {
		return fmt.Errorf("load delegated weights: %w", err)
	}

	err = kvstore.Iterate(kv, []byte(KeyPooledPrefix), func(_, value []byte) error {
		var e attributionEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		s.pooled[voterKey{e.ID, e.Delegator}] = e.Attribution
		return nil
	})
	if err != nil {
		return fmt.Errorf("load attributions: %w", err)
	}

	err = kvstore.Iterate(kv, []byte(KeyBalancePrefix), func(_, value []byte) error {
		var e balanceEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		s.balances[e.Voter] = e.PointBalance
		return nil
	})
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	s.clearDirty()
	return nil
}
