package voting

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AnyEntity grants a role to every sender when used as an ACL grantee.
var AnyEntity = common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")

type allowAll struct{}

func (allowAll) CanPerform(common.Address, Role) bool { return true }

// AllowAll is an Authorizer that permits every operation.
var AllowAll Authorizer = allowAll{}

// ACL is a static role table.
type ACL struct {
	mtx    sync.RWMutex
	grants map[Role]map[common.Address]bool
}

func NewACL() *ACL {
	return &ACL{grants: make(map[Role]map[common.Address]bool)}
}

func (a *ACL) Grant(who common.Address, role Role) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	m, ok := a.grants[role]
	if !ok {
		m = make(map[common.Address]bool)
		a.grants[role] = m
	}
	m[who] = true
}

func (a *ACL) Revoke(who common.Address, role Role) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	delete(a.grants[role], who)
}

func (a *ACL) CanPerform(who common.Address, role Role) bool {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	m := a.grants[role]
	return m[who] || m[AnyEntity]
}

// Grants lists the holders of every role, sorted.
func (a *ACL) Grants() map[Role][]common.Address {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	res := make(map[Role][]common.Address, len(a.grants))
	for role, m := range a.grants {
		for who := range m {
			res[role] = append(res[role], who)
		}
		sort.Slice(res[role], func(i, j int) bool {
			return bytes.Compare(res[role][i][:], res[role][j][:]) < 0
		})
	}
	return res
}

// BlockClock is a Clock driven by the block being executed.
type BlockClock struct {
	height uint64
	time   uint64
}

func (c *BlockClock) Set(height, unixTime uint64) {
	c.height = height
	c.time = unixTime
}

func (c *BlockClock) Now() uint64    { return c.time }
func (c *BlockClock) Height() uint64 { return c.height }
