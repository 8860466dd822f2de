package app

import (
	"context"
	"fmt"

	"github.com/calehh/govchain/config"
	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/tx"
	"github.com/calehh/govchain/tx/handler"
	"github.com/calehh/govchain/types"
	"github.com/calehh/govchain/voting"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &GovApp{}

// AppVersion is reported to cometbft and bumps whenever state transitions change.
const AppVersion uint64 = 1

type GovApp struct {
	cfg    *config.GovAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	queriers map[string]Querier
}

// NewGovApp opens the state under cfg.Home. Engine metrics are registered
// with reg; a nil reg leaves them unregistered.
func NewGovApp(cfg *config.GovAppConfig, logger cmtlog.Logger, reg prometheus.Registerer) (app *GovApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger, voting.NewMetrics(reg))
	if err != nil {
		return nil, err
	}
	return newGovApp(cfg, logger, db), nil
}

func newGovApp(cfg *config.GovAppConfig, logger cmtlog.Logger, db *state.StateDB) *GovApp {
	app := &GovApp{
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	app.registerTxHandler()
	app.registerQuerier()
	return app
}

func (app *GovApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *GovApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("governance app stopped")
}

func (app *GovApp) registerTxHandler() {
	app.txHdlrs = handler.NewTxHandlers(app.logger)
}

func (app *GovApp) registerQuerier() {
	app.queriers = map[string]Querier{
		"/accounts/":    NewAccountQuerier(app.db, app.logger),
		"/proposals/":   &proposalQuerier{db: app.db},
		"/voters/":      &voterQuerier{db: app.db},
		"/balances/":    &balanceQuerier{db: app.db},
		"/delegations/": &delegationQuerier{db: app.db},
		"/params/":      &paramsQuerier{db: app.db},
	}
}

func (app *GovApp) InitChain(ctx context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	as, err := types.ParseAppState(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	var h common.Hash
	err = app.db.Apply(func(st *state.State) error {
		if err := st.InitGenesis(ctx, chain.ChainId, chain.Time, as); err != nil {
			return err
		}
		var err error
		h, err = st.Update()
		return err
	})
	if err != nil {
		app.logger.Error("InitChain apply genesis fail", "err", err)
		return nil, fmt.Errorf("init chain: %w", err)
	}
	app.logger.Info("InitChain", "chainId", chain.ChainId, "hash", h)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *GovApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *GovApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *GovApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *GovApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *GovApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *GovApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *GovApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
