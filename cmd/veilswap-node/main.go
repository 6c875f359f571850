package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/aggregator"
	"github.com/veilswap/veilswap-node/circuits/withdrawal"
	"github.com/veilswap/veilswap-node/client"
	"github.com/veilswap/veilswap-node/db/metadb"
	"github.com/veilswap/veilswap-node/ledger"
	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/service"
	"github.com/veilswap/veilswap-node/storage"
	"github.com/veilswap/veilswap-node/types"
	"github.com/veilswap/veilswap-node/web3"
)

// Services holds all the running services
type Services struct {
	Storage *storage.Storage
	Ledger  *ledger.Ledger
	API     *service.APIService
}

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	log.Init(cfg.Log.Level, cfg.Log.Output, nil)
	log.Infow("starting veilswap-node", "version", Version)

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup services
	services, err := setupServices(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}
	defer shutdownServices(services)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("received signal, shutting down", "signal", sig.String())
}

// setupServices initializes and starts all required services
func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	services := &Services{}

	// Download circuit artifacts
	if err := service.DownloadArtifacts(artifactsTimeout, path.Join(cfg.Datadir, "artifacts")); err != nil {
		return nil, fmt.Errorf("failed to download artifacts: %w", err)
	}
	vk, err := withdrawal.Artifacts.VerifyingKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load verification key: %w", err)
	}

	// Initialize storage database
	log.Infow("initializing storage", "datadir", cfg.Datadir, "type", metadb.TypePebble)
	database, err := metadb.New(metadb.TypePebble, cfg.Datadir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	services.Storage = storage.New(database)

	// Initialize the transfer capability over the custody account
	var transfers ledger.AssetTransferer
	if cfg.Chain.RPC != "" {
		chainClient, err := web3.New(ctx, cfg.Chain.RPC, cfg.Chain.PrivKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize web3 client: %w", err)
		}
		log.Infow("custody account initialized",
			"chainId", chainClient.ChainID().String(),
			"account", chainClient.Address().Hex())
		transfers = chainClient
	} else {
		log.Warn("no chain RPC configured, withdrawals will only be logged")
		transfers = &loggingTransferer{}
	}

	// Initialize the aggregator binding
	aggClient := aggregator.NewClient(cfg.Aggregator.URL)

	// Initialize the ledger
	services.Ledger, err = ledger.New(ledger.Config{
		Storage:      services.Storage,
		Executor:     aggregator.NewQuoteExecutor(aggClient),
		Transfers:    transfers,
		VerifyingKey: vk,
		Operator:     common.HexToAddress(cfg.Chain.Operator),
		ChainID:      cfg.Chain.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}

	// Initialize the in-process prover if enabled
	var prover *client.Prover
	if cfg.Prover.Enabled {
		log.Info("initializing in-process withdrawal prover")
		prover, err = client.NewFromArtifacts(ctx, services.Ledger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize prover: %w", err)
		}
	}

	// Start API service
	log.Infow("starting API service", "host", cfg.API.Host, "port", cfg.API.Port)
	services.API = service.NewAPI(services.Ledger, prover,
		cfg.API.Host, cfg.API.Port, common.HexToAddress(cfg.Chain.Owner), false)
	if err := services.API.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start API service: %w", err)
	}

	log.Info("veilswap-node is running, ready to process deposits!")
	return services, nil
}

// shutdownServices gracefully shuts down all services
func shutdownServices(services *Services) {
	if services == nil {
		return
	}

	// Stop services in reverse order of startup
	if services.API != nil {
		services.API.Stop()
	}
	if services.Storage != nil {
		services.Storage.Close()
	}
	log.Info("all services stopped")
}

// loggingTransferer stands in for the custody account when no chain RPC is
// configured. It only logs the transfers it would have made.
type loggingTransferer struct{}

func (l *loggingTransferer) Transfer(_ context.Context, asset types.Asset, to common.Address, amount *big.Int) error {
	log.Warnw("dry-run transfer (no chain RPC configured)",
		"asset", asset.String(), "to", to.Hex(), "amount", amount.String())
	return nil
}
