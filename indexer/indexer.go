package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calehh/govchain/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// ChainIndexer follows the chain through the node's RPC and records
// governance events in sqlite.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           *comethttp.HTTP
	interval      time.Duration
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	c, err := openIndexer(logger, dbPath)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	c.cli = cli
	c.interval = interval
	return c, nil
}

func openIndexer(logger cmtlog.Logger, dbPath string) (*ChainIndexer, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Proposal{}, &Vote{}, &Delegation{}, &Execution{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		interval: time.Second,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventStartVoteType:   c.handleEventStartVote,
		types.EventCastVoteType:    c.handleEventCastVote,
		types.EventRemoveVoteType:  c.handleEventRemoveVote,
		types.EventExecuteVoteType: c.handleEventExecuteVote,
		types.EventDelegateType:    c.handleEventDelegate,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventStartVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventStartVote(event)
	if ev == nil {
		return fmt.Errorf("decode %s event fail", event.Type)
	}
	return db.Create(&Proposal{
		VoteId:    ev.ID,
		Creator:   ev.Creator.Hex(),
		Metadata:  ev.Metadata,
		NewHeight: uint64(height),
	}).Error
}

func voteKey(id uint64, voter string) string {
	return fmt.Sprintf("%d/%s", id, voter)
}

func (c *ChainIndexer) handleEventCastVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventCastVote(event)
	if ev == nil || ev.Stake == nil {
		return fmt.Errorf("decode %s event fail", event.Type)
	}
	voter := ev.Voter.Hex()
	return db.Save(&Vote{
		Id:       voteKey(ev.ID, voter),
		Proposal: ev.ID,
		Voter:    voter,
		Supports: ev.Supports,
		Stake:    ev.Stake.Dec(),
		Height:   uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventRemoveVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventRemoveVote(event)
	if ev == nil {
		return fmt.Errorf("decode %s event fail", event.Type)
	}
	voter := ev.Voter.Hex()
	return db.Save(&Vote{
		Id:       voteKey(ev.ID, voter),
		Proposal: ev.ID,
		Voter:    voter,
		Stake:    "0",
		Removed:  true,
		Height:   uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventExecuteVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventExecuteVote(event)
	if ev == nil {
		return fmt.Errorf("decode %s event fail", event.Type)
	}
	err := db.Model(&Proposal{}).Where("vote_id = ?", ev.ID).
		Updates(map[string]any{"executed": true, "execute_height": uint64(height)}).Error
	if err != nil {
		return err
	}
	return db.Create(&Execution{Proposal: ev.ID, Height: uint64(height)}).Error
}

func (c *ChainIndexer) handleEventDelegate(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventDelegate(event)
	if ev == nil || ev.Weight == nil {
		return fmt.Errorf("decode %s event fail", event.Type)
	}
	return db.Save(&Delegation{
		Delegator: ev.Delegator.Hex(),
		Delegate:  ev.Delegate.Hex(),
		Weight:    ev.Weight.Dec(),
		Height:    uint64(height),
	}).Error
}

// indexBlock records the events of successful transactions of one block and
// advances the stored height, all in one sqlite transaction.
func (c *ChainIndexer) indexBlock(height int64, results []*abci.ExecTxResult) (err error) {
	tx := c.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	for _, res := range results {
		if res == nil || res.Code != 0 {
			continue
		}
		for _, event := range res.Events {
			if err = c.handleEvent(tx, event, height); err != nil {
				return fmt.Errorf("height %d: %w", height, err)
			}
		}
	}
	if err = tx.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		return
	}
	return tx.Commit().Error
}

func (c *ChainIndexer) reconnect() {
	if c.cli.IsRunning() {
		return
	}
	_ = c.cli.Stop()
	cli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		return
	}
	c.cli = cli
}

func (c *ChainIndexer) sync(ctx context.Context) {
	b, err := c.cli.Status(ctx)
	if err != nil {
		c.logger.Error("get status fail", "err", err)
		c.reconnect()
		return
	}
	for b.SyncInfo.LatestBlockHeight >= c.Height {
		if ctx.Err() != nil {
			return
		}
		height := c.Height
		res, err := c.cli.BlockResults(ctx, &height)
		if err != nil {
			c.logger.Error("get block results fail", "height", height, "err", err)
			c.reconnect()
			return
		}
		if err = c.indexBlock(height, res.TxsResults); err != nil {
			c.logger.Error("index block fail", "height", height, "err", err)
			return
		}
		c.logger.Debug("indexed block", "height", height)
		c.Height++
	}
}

// Start polls the node until ctx is done.
func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sync(ctx)
		}
	}
}
