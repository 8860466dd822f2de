package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/calehh/govchain/config"
	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/types"
	"github.com/calehh/govchain/voting"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)
	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long:  `Initialize validators's and node's configuration files.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP(FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(FlagMode, voting.ModeDelegate.String(), "voting mode, delegate or quadratic")
	initCmd.Flags().String(FlagHome, "", "home directory")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(FlagHome)
	chainID, _ := cmd.Flags().GetString(FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(FlagOverwrite)
	modeStr, _ := cmd.Flags().GetString(FlagMode)
	mode, err := voting.ParseMode(modeStr)
	if err != nil {
		return err
	}
	if chainID == "" {
		chainID = fmt.Sprintf("test-chain-%v", rand.Uint64())
	}

	appConfig := config.NewGovConfig(home)
	genFile := appConfig.GenesisFile()
	if !overwrite && cmtos.FileExists(genFile) {
		return fmt.Errorf("genesis.json file already exists: %v", genFile)
	}
	nodeID, pk, err := config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}

	appState := types.DefaultAppState(pk.Bytes(), state.EngineAddress)
	if mode == voting.ModeQuadratic {
		appState.Params = voting.Params{
			Mode:            voting.ModeQuadratic,
			SupportRequired: voting.Pct(50),
			VoteTime:        24 * 3600,
			TermLength:      7 * 24 * 3600,
			PointsPerTerm:   100,
		}
	}
	appStateBytes, err := json.Marshal(appState)
	if err != nil {
		return err
	}

	vals := []types.GenesisValidator{{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower}}
	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appStateBytes,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	if err = config.WriteConfigFiles(appConfig); err != nil {
		return err
	}
	return displayInfo(printInfo{ChainID: chainID, NodeID: nodeID, AppMessage: appStateBytes})
}
