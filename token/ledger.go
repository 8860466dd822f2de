package token

import (
	"context"
	"errors"
	"sort"

	"github.com/calehh/govchain/journal"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSupplyOverflow    = errors.New("total supply overflow")
)

type Clock interface {
	Height() uint64
}

// Checkpoint is a value that holds from Block until the next checkpoint.
type Checkpoint struct {
	Block uint64       `json:"block"`
	Value *uint256.Int `json:"value"`
}

// Ledger is a checkpointed balance table. Writes at a block never change what
// earlier blocks report, so balances at a proposal's snapshot are fixed.
type Ledger struct {
	logger cmtlog.Logger
	j      *journal.Journal
	clock  Clock

	balances map[common.Address][]Checkpoint
	supply   []Checkpoint

	dirty       map[common.Address]struct{}
	dirtySupply bool
}

func NewLedger(j *journal.Journal, clock Clock, logger cmtlog.Logger) *Ledger {
	if j == nil {
		j = journal.New()
	}
	return &Ledger{
		logger:   logger.With("module", "token"),
		j:        j,
		clock:    clock,
		balances: make(map[common.Address][]Checkpoint),
		dirty:    make(map[common.Address]struct{}),
	}
}

func valueAt(cps []Checkpoint, block uint64) *uint256.Int {
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Block > block })
	if i == 0 {
		return new(uint256.Int)
	}
	return cps[i-1].Value.Clone()
}

// update writes v as of block, journaling the previous checkpoint list.
func (l *Ledger) update(cps []Checkpoint, block uint64, v *uint256.Int, restore func([]Checkpoint)) []Checkpoint {
	old := cps
	l.j.Append(func() { restore(old) })
	n := make([]Checkpoint, len(cps), len(cps)+1)
	copy(n, cps)
	if len(n) > 0 && n[len(n)-1].Block == block {
		n[len(n)-1] = Checkpoint{Block: block, Value: v.Clone()}
	} else {
		n = append(n, Checkpoint{Block: block, Value: v.Clone()})
	}
	return n
}

func (l *Ledger) setBalance(who common.Address, v *uint256.Int) {
	l.balances[who] = l.update(l.balances[who], l.clock.Height(), v, func(old []Checkpoint) {
		if old == nil {
			delete(l.balances, who)
		} else {
			l.balances[who] = old
		}
	})
	l.dirty[who] = struct{}{}
}

func (l *Ledger) setSupply(v *uint256.Int) {
	l.supply = l.update(l.supply, l.clock.Height(), v, func(old []Checkpoint) { l.supply = old })
	l.dirtySupply = true
}

func (l *Ledger) BalanceOf(who common.Address) *uint256.Int {
	return valueAt(l.balances[who], l.clock.Height())
}

func (l *Ledger) BalanceAt(who common.Address, block uint64) *uint256.Int {
	return valueAt(l.balances[who], block)
}

func (l *Ledger) TotalSupply() *uint256.Int {
	return valueAt(l.supply, l.clock.Height())
}

func (l *Ledger) TotalSupplyAt(block uint64) *uint256.Int {
	return valueAt(l.supply, block)
}

func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	supply, overflow := new(uint256.Int).AddOverflow(l.TotalSupply(), amount)
	if overflow {
		return ErrSupplyOverflow
	}
	bal := l.BalanceOf(to)
	bal.Add(bal, amount)
	l.setSupply(supply)
	l.setBalance(to, bal)
	l.logger.Debug("mint", "to", to, "amount", amount, "height", l.clock.Height())
	return nil
}

func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	fromBal := l.BalanceOf(from)
	if fromBal.Lt(amount) {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	toBal := l.BalanceOf(to)
	l.setBalance(from, fromBal.Sub(fromBal, amount))
	l.setBalance(to, toBal.Add(toBal, amount))
	l.logger.Debug("transfer", "from", from, "to", to, "amount", amount, "height", l.clock.Height())
	return nil
}

// PowerAt and TotalAt make the ledger the voting power source.
func (l *Ledger) PowerAt(_ context.Context, who common.Address, block uint64) (*uint256.Int, error) {
	return l.BalanceAt(who, block), nil
}

func (l *Ledger) TotalAt(_ context.Context, block uint64) (*uint256.Int, error) {
	return l.TotalSupplyAt(block), nil
}

// Holders returns every address that ever held a balance, sorted.
func (l *Ledger) Holders() []common.Address {
	res := make([]common.Address, 0, len(l.balances))
	for who := range l.balances {
		res = append(res, who)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Cmp(res[j]) < 0 })
	return res
}
