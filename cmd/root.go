package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/config"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/chainforge/evmdeploy/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir string
	cfg    *config.Config
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "evmdeploy",
	Short: "Deploy smart contracts to EVM networks",
	Long: `evmdeploy — deploy compiled smart contracts to EVM networks from the terminal.

  Load a Hardhat or Foundry artifact, encode constructor arguments,
  estimate gas with per-network safety buffers, sign an EIP-1559
  creation transaction, broadcast it and watch the confirmations roll
  in — across 14 networks, L1s and L2 rollups alike.

Private keys are read from the --key flag, the EVMDEPLOY_PRIVATE_KEY
environment variable (a local .env file is honored), or the OS keychain
via the key subcommands.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		// A local .env carries dev credentials; missing is fine.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newPool builds the provider pool with RPC overrides applied: persisted
// custom RPCs first, then EVMDEPLOY_RPC_<NETWORK> environment variables on
// top.
func newPool() *chain.ProviderPool {
	registry := chain.NewRegistry()
	pool := chain.NewProviderPool(registry)

	for key, url := range cfg.CustomRPCs {
		pool.SetOverride(key, url)
	}
	for _, n := range registry.All() {
		envKey := "EVMDEPLOY_RPC_" + strings.ToUpper(strings.ReplaceAll(n.Key, "-", "_"))
		if url := os.Getenv(envKey); url != "" {
			pool.SetOverride(n.Key, url)
		}
	}
	return pool
}

func init() {
	// EVMDEPLOY_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("EVMDEPLOY_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.evmdeploy)")

	rootCmd.AddCommand(
		deployCmd,
		statusCmd,
		watchCmd,
		networksCmd,
		configCmd,
		keyCmd,
	)
}
