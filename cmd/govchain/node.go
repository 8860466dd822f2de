package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/govchain/app"
	"github.com/calehh/govchain/config"
	"github.com/calehh/govchain/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "govchain",
	Short: "govchain runs an on-chain governance voting engine",
	Long: `A CometBFT chain hosting delegated and quadratic voting.
Without a subcommand the node is started from the home directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	homeFlag(rootCmd, &homeDir)
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = config.DefaultHome()
	}
	appConfig, err := config.Load(homeDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	appConfig.App.TimeoutCommit = uint64(appConfig.Consensus.TimeoutCommit.Seconds())
	var reg prometheus.Registerer
	if appConfig.Instrumentation.Prometheus {
		reg = prometheus.DefaultRegisterer
	}
	govApp, err := app.NewGovApp(appConfig.App, logger, reg)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(govApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	govApp.Start(node.BlockStore())
	if err = node.Start(); err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var service *indexer.Service
	if appConfig.App.Indexer.Enable {
		service = startIndexer(ctx, appConfig, logger)
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if service != nil {
				sctx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
				_ = service.Stop(sctx)
				scancel()
			}
			if err := node.Stop(); err != nil {
				log.Printf("stop comet node err %s", err.Error())
			}
			node.Wait()
			govApp.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

func startIndexer(ctx context.Context, appConfig *config.Config, logger cmtlog.Logger) *indexer.Service {
	rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
	if err != nil {
		log.Fatalf("parse rpc url err %s", err.Error())
	}
	rpcUrl.Scheme = "http"
	idx, err := indexer.NewChainIndexer(logger, appConfig.App.IndexerDBPath(), rpcUrl.String(), appConfig.App.Indexer.PollInterval)
	if err != nil {
		log.Fatalf("new chain indexer err %s", err.Error())
	}
	go idx.Start(ctx)

	service := indexer.NewService(appConfig.App.Indexer.ListenAddress, idx)
	go func() {
		if err := service.Start(); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	return service
}
