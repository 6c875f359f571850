package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultAPIHost   = "0.0.0.0"
	defaultAPIPort   = 9190
	defaultChainID   = 1
	defaultLogLevel  = "info"
	defaultLogOutput = "stdout"
	defaultDatadir   = ".veilswap" // Will be prefixed with user's home directory
	artifactsTimeout = 20 * time.Minute
)

// Version is the build version, set at build time with -ldflags
var Version = "dev"

// Config holds the application configuration
type Config struct {
	API        APIConfig
	Chain      ChainConfig
	Aggregator AggregatorConfig
	Prover     ProverConfig
	Log        LogConfig
	Datadir    string
}

// APIConfig holds the API-specific configuration
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ChainConfig holds the chain identity and custody configuration
type ChainConfig struct {
	ID       uint64 `mapstructure:"id"`
	Operator string `mapstructure:"operator"`
	Owner    string `mapstructure:"owner"`
	RPC      string `mapstructure:"rpc"`
	PrivKey  string `mapstructure:"privkey"`
}

// AggregatorConfig holds the external swap-aggregator configuration
type AggregatorConfig struct {
	URL string `mapstructure:"url"`
}

// ProverConfig holds the in-process proof generation configuration
type ProverConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// loadConfig loads configuration from flags, environment variables, and defaults
func loadConfig() (*Config, error) {
	v := viper.New()

	// Get user's home directory for default datadir
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("api.host", defaultAPIHost)
	v.SetDefault("api.port", defaultAPIPort)
	v.SetDefault("chain.id", defaultChainID)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("datadir", defaultDatadirPath)

	// Configure flags
	flag.StringP("api.host", "a", defaultAPIHost, "API host")
	flag.IntP("api.port", "p", defaultAPIPort, "API port")
	flag.Uint64P("chain.id", "c", defaultChainID, "chain ID bound into authorization messages")
	flag.String("chain.operator", "", "address authorized to record swaps (required)")
	flag.String("chain.owner", "", "address authorized to register swap configs (required)")
	flag.StringP("chain.rpc", "w", "", "web3 rpc endpoint for the custody account")
	flag.StringP("chain.privkey", "k", "", "private key of the custody account")
	flag.StringP("aggregator.url", "g", "", "swap aggregator API base URL (required)")
	flag.Bool("prover.enabled", false, "enable in-process withdrawal proof generation")
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for database and artifacts")

	// Configure usage information
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "veilswap-node v%s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: veilswap-node [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  except for dashes (-) and dots (.) which are replaced by underscores (_).\n")
		fmt.Fprintf(os.Stderr, "  For example, VEILSWAP_CHAIN_PRIVKEY or VEILSWAP_API_HOST\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Start against a local aggregator with custody on sepolia\n")
		fmt.Fprintf(os.Stderr, "  veilswap-node --chain.operator=0xabc... --chain.owner=0xdef... \\\n")
		fmt.Fprintf(os.Stderr, "    --chain.rpc=https://rpc.sepolia.org --chain.privkey=0x123... \\\n")
		fmt.Fprintf(os.Stderr, "    --aggregator.url=https://aggregator.example.com\n")
	}

	// Parse flags
	flag.CommandLine.SortFlags = false
	flag.Parse()

	// Configure Viper to use environment variables
	v.SetEnvPrefix("VEILSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind flags to Viper
	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// validateConfig checks that the required fields are present and well formed.
func validateConfig(cfg *Config) error {
	if !common.IsHexAddress(cfg.Chain.Operator) {
		return fmt.Errorf("chain.operator is not a valid address: %q", cfg.Chain.Operator)
	}
	if !common.IsHexAddress(cfg.Chain.Owner) {
		return fmt.Errorf("chain.owner is not a valid address: %q", cfg.Chain.Owner)
	}
	if cfg.Aggregator.URL == "" {
		return fmt.Errorf("aggregator.url is required")
	}
	if cfg.Chain.RPC != "" && cfg.Chain.PrivKey == "" {
		return fmt.Errorf("chain.privkey is required when chain.rpc is set")
	}
	return nil
}
