package kvstore

import (
	dbm "github.com/cosmos/iavl/db"
)

// KV is the subset of iavl.MutableTree used to persist component state.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) (bool, error)
	Remove(key []byte) ([]byte, bool, error)
	Iterator(start, end []byte, ascending bool) (dbm.Iterator, error)
}

// Iterate calls fn for every key with the given prefix in ascending order.
func Iterate(kv KV, prefix []byte, fn func(key, value []byte) error) (err error) {
	it, err := kv.Iterator(prefix, PrefixEndBytes(prefix), true)
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if err = fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
