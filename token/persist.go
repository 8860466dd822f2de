package token

import (
	"encoding/json"
	"fmt"

	"github.com/calehh/govchain/kvstore"
	"github.com/ethereum/go-ethereum/common"
)

var (
	KeyHolderPrefix = "t/"
	KeyHolderBody   = "t/%x"
	KeySupply       = "ts"
)

type holderEntry struct {
	Holder      common.Address `json:"holder"`
	Checkpoints []Checkpoint   `json:"checkpoints"`
}

func (l *Ledger) Flush(kv kvstore.KV) (err error) {
	if l.dirtySupply {
		var val []byte
		if val, err = json.Marshal(l.supply); err != nil {
			return
		}
		if _, err = kv.Set([]byte(KeySupply), val); err != nil {
			return
		}
	}
	for _, who := range l.Holders() {
		if _, ok := l.dirty[who]; !ok {
			continue
		}
		var val []byte
		if val, err = json.Marshal(holderEntry{Holder: who, Checkpoints: l.balances[who]}); err != nil {
			return
		}
		if _, err = kv.Set([]byte(fmt.Sprintf(KeyHolderBody, who)), val); err != nil {
			return
		}
	}
	l.dirty = make(map[common.Address]struct{})
	l.dirtySupply = false
	return nil
}

func (l *Ledger) Load(kv kvstore.KV) error {
	val, err := kv.Get([]byte(KeySupply))
	if err != nil {
		return err
	}
	if val != nil {
		if err = json.Unmarshal(val, &l.supply); err != nil {
			return fmt.Errorf("decode supply: %w", err)
		}
	}
	return kvstore.Iterate(kv, []byte(KeyHolderPrefix), func(_, value []byte) error {
		var e holderEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode holder: %w", err)
		}
		l.balances[e.Holder] = e.Checkpoints
		return nil
	})
}
