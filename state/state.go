package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/calehh/govchain/journal"
	"github.com/calehh/govchain/target"
	"github.com/calehh/govchain/token"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/voting"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
)

var (
	EngineAddress  = common.HexToAddress("0x00000000000000000000000000000000000e0001")
	CounterAddress = common.HexToAddress("0x00000000000000000000000000000000000c0de1")
	ParamsAddress  = common.HexToAddress("0x00000000000000000000000000000000000c0de2")
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState        = "s"
	KeyAccountIndex = "i%s"
	KeyAccountBody  = "a%x"
	KeyGrants       = "r"
)

var (
	ErrTxAccountNoexists    = errors.New("account noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
)

type StateHeader struct {
	ChainId    string `json:"chainId"`
	Height     uint64 `json:"height"`
	Time       uint64 `json:"time"`
	AccountIdx uint64 `json:"accountIdx"`
	RootHash   []byte `json:"rootHash"`
	Hash       []byte `json:"hash"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = common.CopyBytes(h.RootHash)
	n.Hash = common.CopyBytes(h.Hash)
	return &n
}

// State is the application state of one node. The engine, the token ledger,
// the execution targets and the account table share one journal, so a
// snapshot taken before a transaction reverts everything it touched.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	j      *journal.Journal

	header        *StateHeader
	idxs          map[string]uint64
	acnts         map[uint64]*Account
	modifiedAcnts map[uint64]uint32
	grantsDirty   bool

	clock   *voting.BlockClock
	ledger  *token.Ledger
	router  *target.Router
	counter *target.Counter
	acl     *voting.ACL
	engine  *voting.Engine
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger, metrics *voting.Metrics) *State {
	j := journal.New()
	clock := &voting.BlockClock{}
	ledger := token.NewLedger(j, clock, logger)
	router := target.NewRouter(j, logger)
	counter := target.NewCounter(j, CounterAddress)
	acl := voting.NewACL()
	engine := voting.New(ledger, clock, router,
		voting.WithStore(voting.NewStore(j)),
		voting.WithAuthorizer(acl),
		voting.WithAddress(EngineAddress),
		voting.WithLogger(logger),
		voting.WithMetrics(metrics),
	)
	// both addresses are fresh, registration cannot fail
	_ = router.Register(CounterAddress, counter)
	_ = router.Register(ParamsAddress, target.NewParamsTarget(engine))

	s := &State{
		logger:        logger,
		db:            db,
		j:             j,
		header:        new(StateHeader),
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		clock:         clock,
		ledger:        ledger,
		router:        router,
		counter:       counter,
		acl:           acl,
		engine:        engine,
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil
		}
		return err
	}
	if val == nil {
		return nil
	}
	if err = json.Unmarshal(val, s.header); err != nil {
		return fmt.Errorf("decode header: %w", err)
	}
	s.clock.Set(s.header.Height, s.header.Time)

	val, err = s.db.Get([]byte(KeyGrants))
	if err != nil {
		return err
	}
	if val != nil {
		var grants map[voting.Role][]common.Address
		if err = json.Unmarshal(val, &grants); err != nil {
			return fmt.Errorf("decode grants: %w", err)
		}
		for role, whos := range grants {
			for _, who := range whos {
				s.acl.Grant(who, role)
			}
		}
	}

	if err = s.engine.Store().Load(s.db); err != nil {
		return fmt.Errorf("load voting: %w", err)
	}
	if err = s.ledger.Load(s.db); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err = s.router.Load(s.db); err != nil {
		return fmt.Errorf("load targets: %w", err)
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	s.j.Reset()
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

// BeginBlock points the clock at the block being executed.
func (s *State) BeginBlock(height int64, t time.Time) {
	s.header.Height = uint64(height)
	s.header.Time = uint64(t.Unix())
	s.clock.Set(s.header.Height, s.header.Time)
}

// Update writes every change of the block to the tree and returns the
// working hash. Changes are final afterwards and can no longer be reverted.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = json.Marshal(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if s.grantsDirty {
		val, err = json.Marshal(s.acl.Grants())
		if err != nil {
			return
		}
		if _, err = s.db.Set([]byte(KeyGrants), val); err != nil {
			return
		}
	}

	if err = s.engine.Store().Flush(s.db); err != nil {
		return
	}
	if err = s.ledger.Flush(s.db); err != nil {
		return
	}
	if err = s.router.Flush(s.db); err != nil {
		return
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := make([]uint64, 0, n)
		for idx := range s.modifiedAcnts {
			idxs = append(idxs, idx)
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			val, err = json.Marshal(acnt)
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if flag&ModifiedFlagNew == ModifiedFlagNew {
				key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
				val, err = rlp.EncodeToBytes(acnt.Index)
				if err != nil {
					return
				}
				_, err = s.db.Set([]byte(key), val)
				if err != nil {
					return
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	s.grantsDirty = false
	s.j.Reset()
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

// Snapshot and RevertToSnapshot bracket a transaction.
func (s *State) Snapshot() int {
	return s.j.Snapshot()
}

func (s *State) RevertToSnapshot(id int) {
	s.j.RevertToSnapshot(id)
}

// DryRun runs fn and reverts whatever it changed.
func (s *State) DryRun(fn func() error) error {
	snap := s.j.Snapshot()
	defer s.j.RevertToSnapshot(snap)
	return fn()
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx || idx < StartAccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt = new(Account)
	err = json.Unmarshal(val, acnt)
	if err != nil {
		return nil, err
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.db.Get([]byte(key))
		if err != nil {
			if errors.Is(err, leveldb.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)

	return
}

// putAccount stores a copy of acnt and records the undo in the journal.
func (s *State) putAccount(acnt *Account, flag uint32) {
	idx := acnt.Index
	old, existed := s.acnts[idx]
	oldFlag, flagged := s.modifiedAcnts[idx]
	s.j.Append(func() {
		if existed {
			s.acnts[idx] = old
		} else {
			delete(s.acnts, idx)
		}
		if flagged {
			s.modifiedAcnts[idx] = oldFlag
		} else {
			delete(s.modifiedAcnts, idx)
		}
	})
	s.acnts[idx] = acnt.Clone()
	s.modifiedAcnts[idx] = oldFlag | flag
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	prevIdx := s.header.AccountIdx
	saddr := acnt.Address()
	s.j.Append(func() {
		s.header.AccountIdx = prevIdx
		delete(s.idxs, saddr)
	})
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.idxs[saddr] = acnt.Index
	s.putAccount(acnt, ModifiedFlagNew)
	return
}

// IncNonce advances the sender's nonce once its transaction is applied.
func (s *State) IncNonce(acnt *Account) {
	n := acnt.Clone()
	n.Nonce += 1
	s.putAccount(n, ModifiedFlagMod)
	acnt.Nonce = n.Nonce
}

func (s *State) Verify(gtx *tx.GovTx, allowNonceGap bool) (acnt *Account, err error) {
	a, err := s.GetAccount(gtx.Account)
	if err != nil {
		if errors.Is(err, ErrAccountNoexists) || errors.Is(err, ErrNotFound) {
			err = ErrTxAccountNoexists
		}
		return nil, err
	}
	if !(a.Nonce == gtx.Nonce || (allowNonceGap && a.Nonce < gtx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := gtx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return nil, err
	}
	if !a.Verify(dat, gtx.Sig) {
		err = ErrTxSigInvalid
		return
	}
	return a.Clone(), nil
}

// SetGrants adds every listed holder to its role.
func (s *State) SetGrants(grants map[voting.Role][]common.Address) {
	for role, whos := range grants {
		for _, who := range whos {
			s.acl.Grant(who, role)
		}
	}
	s.grantsDirty = true
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) Engine() *voting.Engine   { return s.engine }
func (s *State) Ledger() *token.Ledger    { return s.ledger }
func (s *State) Counter() *target.Counter { return s.counter }
func (s *State) ACL() *voting.ACL         { return s.acl }
