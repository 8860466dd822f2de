package state

import (
	"context"
	"fmt"
	"time"

	"github.com/calehh/govchain/types"
)

// InitGenesis creates the genesis accounts, mints the initial supply at
// block 0 and initializes the engine. A proposal created in the first block
// snapshots block 0 and so sees the genesis supply.
func (s *State) InitGenesis(_ context.Context, chainId string, genesisTime time.Time, as *types.AppState) error {
	s.SetChainId(chainId)
	s.BeginBlock(0, genesisTime)
	for i, h := range as.Holders {
		if len(h.PubKey) > 0 {
			acnt := &Account{Name: h.Name}
			acnt.SetPubKey(h.PubKey)
			if err := s.AddAccount(acnt); err != nil {
				return fmt.Errorf("holder %d: %w", i, err)
			}
		}
		if h.Balance.IsZero() {
			continue
		}
		if err := s.ledger.Mint(h.GovAddress(), h.Balance); err != nil {
			return fmt.Errorf("holder %d: %w", i, err)
		}
	}
	s.SetGrants(as.Grants)
	if err := s.engine.Initialize(as.Params); err != nil {
		return fmt.Errorf("initialize voting: %w", err)
	}
	s.logger.Info("genesis applied", "chainId", chainId, "holders", len(as.Holders), "mode", as.Params.Mode)
	return nil
}
