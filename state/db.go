package state

import (
	"sync"

	cosmoslog "cosmossdk.io/log"
	"github.com/calehh/govchain/voting"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

// StateDB owns the node's state. Block execution goes through Apply, reads
// through View.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger, metrics *voting.Metrics) (db *StateDB, err error) {
	logger = logger.With("module", "govdb")
	ldb, err := dbm.NewDB("govchain", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	db, err = newStateDB(ldb, logger, metrics)
	if err != nil {
		return nil, err
	}
	db.dir = dir
	return
}

// NewMemStateDB keeps the tree in memory. Used by tests and tooling.
func NewMemStateDB(logger cmtlog.Logger, metrics *voting.Metrics) (*StateDB, error) {
	return newStateDB(dbm.NewMemDB(), logger, metrics)
}

func newStateDB(ldb dbm.DB, logger cmtlog.Logger, metrics *voting.Metrics) (*StateDB, error) {
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger, metrics)
	st.dbVer = version
	if err = st.load(); err != nil {
		logger.Error("from govdb load fail", "err", err)
		return nil, err
	}
	return &StateDB{
		logger: logger,
		db:     tdb,
		state:  st,
	}, nil
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) Version() int64 {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.dbVer
}

// Apply runs fn with exclusive access to the state.
func (db *StateDB) Apply(fn func(st *State) error) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return fn(db.state)
}

// View runs fn with shared access to the state. fn must not mutate it.
func (db *StateDB) View(fn func(st *State) error) error {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return fn(db.state)
}

// Commit saves the version written by the last Update.
func (db *StateDB) Commit() (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.state.save()
}

func (db *StateDB) GetAccountByIndex(idx uint64) (acnt *Account, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	acnt, err = db.state.GetAccount(idx)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return

}

func (db *StateDB) GetAccountByAddress(addr []byte) (acnt *Account, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	acnt, err = db.state.FindAccount(addr)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return
}

// treeLogger hands the node logger to iavl, which expects the cosmos interface.
type treeLogger struct {
	cmtlog.Logger
}

func Cometbft2CosmosLogger(lg cmtlog.Logger) cosmoslog.Logger {
	return treeLogger{Logger: lg}
}

func (l treeLogger) With(keyVals ...any) cosmoslog.Logger {
	return treeLogger{Logger: l.Logger.With(keyVals...)}
}

func (l treeLogger) Impl() any {
	return l.Logger
}
