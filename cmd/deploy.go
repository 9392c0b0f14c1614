package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/contract"
	"github.com/chainforge/evmdeploy/internal/deploy"
	"github.com/chainforge/evmdeploy/internal/ui"
	"github.com/chainforge/evmdeploy/internal/wallet"
)

var (
	deployNetwork  string
	deployValue    string
	deployGas      uint64
	deployGasPrice string
	deployKey      string
	deployKeyName  string
	deployConfirms uint64
	deployTimeout  int
	deployWatchTUI bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy <artifact-path> [constructor-args...]",
	Short: "Deploy a contract from a compiled artifact",
	Long: `Deploy a compiled contract to an EVM network.

The artifact is a Hardhat or Foundry JSON file containing the ABI and the
creation bytecode. Constructor arguments are passed positionally after the
artifact path and encoded against the ABI's constructor signature.

Gas is estimated on-chain with a per-network safety buffer (larger on L2
rollups) unless --gas and --gas-price pin it explicitly. The command blocks
until the configured number of confirmations is reached.

Examples:
  evmdeploy deploy out/Token.json "MyToken" MTK 18 1000000 --network sepolia
  evmdeploy deploy out/Vault.json --network base --value 0.01
  evmdeploy deploy out/Counter.json --gas 500000 --gas-price 2.5 --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifactPath := args[0]
		ctorArgs := args[1:]

		networkKey := deployNetwork
		if networkKey == "" {
			networkKey = cfg.DefaultNetwork
		}

		artifact, err := contract.LoadArtifact(artifactPath)
		if err != nil {
			return err
		}

		signer, err := resolveSigner()
		if err != nil {
			return err
		}

		req := &deploy.Request{
			Bytecode:        artifact.Bytecode,
			ABI:             artifact.ABI,
			ConstructorArgs: ctorArgs,
			Network:         networkKey,
			GasLimit:        deployGas,
			Signer:          signer,
		}

		if deployValue != "" {
			req.ValueWei, err = ethToWei(deployValue)
			if err != nil {
				return err
			}
		}
		if deployGasPrice != "" {
			req.GasPriceWei, err = gweiToWei(deployGasPrice)
			if err != nil {
				return err
			}
		}

		pool := newPool()
		reg := chain.NewRegistry()
		network, err := reg.Resolve(networkKey)
		if err != nil {
			return fmt.Errorf("unknown network %q — run `evmdeploy networks` to see all targets", networkKey)
		}

		confirms := deployConfirms
		if confirms == 0 {
			confirms = cfg.Confirmations
		}
		timeout := deployTimeout
		if timeout == 0 {
			timeout = cfg.TimeoutSec
		}

		if deployWatchTUI {
			return runDeployWatch(pool, network, req, confirms, timeout)
		}

		observer := deploy.ProgressFunc(func(e deploy.Event) {
			switch e.Stage {
			case deploy.StageCompleted, deploy.StageFailed:
				// The final result block covers these.
			case deploy.StageSubmitted, deploy.StageAwaitingReceipt:
				fmt.Println(ui.Info(e.Message))
				if e.TxHash != "" {
					fmt.Println(ui.Meta("  tx " + e.TxHash))
				}
			default:
				fmt.Println(ui.Info(e.Message))
			}
		})

		dep := deploy.NewDeployer(pool, observer)
		dep.Confirmations = confirms
		dep.PollInterval = time.Duration(cfg.PollIntervalSec) * time.Second
		dep.Timeout = time.Duration(timeout) * time.Second

		res := dep.Deploy(context.Background(), req)
		printResult(res, network)
		if !res.Success {
			os.Exit(1)
		}
		return nil
	},
}

// runDeployWatch runs the deployment with a live Bubble Tea view of the
// confirmation phase instead of line-by-line progress.
func runDeployWatch(pool *chain.ProviderPool, network *chain.Network, req *deploy.Request, confirms uint64, timeoutSec int) error {
	submitted := make(chan string, 1)

	observer := deploy.ProgressFunc(func(e deploy.Event) {
		if e.Stage == deploy.StageSubmitted && e.TxHash != "" {
			select {
			case submitted <- e.TxHash:
			default:
			}
		}
	})

	dep := deploy.NewDeployer(pool, observer)
	dep.Confirmations = confirms
	dep.PollInterval = time.Duration(cfg.PollIntervalSec) * time.Second
	dep.Timeout = time.Duration(timeoutSec) * time.Second

	model := ui.WatchModel{
		Network: network.DisplayName,
		Target:  confirms,
	}
	prog := tea.NewProgram(model, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	done := make(chan *deploy.Result, 1)
	go func() {
		done <- dep.Deploy(context.Background(), req)
	}()

	// Stream monitor snapshots into the TUI once the tx is on the wire.
	go func() {
		var txHash string
		select {
		case txHash = <-submitted:
		case res := <-done:
			// Failed before broadcast.
			done <- res
			prog.Send(ui.WatchErrMsg{Err: fmt.Errorf("%s", res.Message)})
			return
		}
		prog.Send(ui.WatchStatusMsg{Status: deploy.TxStatus{TxHash: txHash, State: deploy.StatePending}})

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case res := <-done:
				done <- res
				prog.Send(ui.WatchStatusMsg{Status: resultStatus(res, txHash)})
				return
			case <-ticker.C:
				if st, ok := dep.Monitor().Status(txHash); ok {
					prog.Send(ui.WatchStatusMsg{Status: st})
				}
			}
		}
	}()

	if _, err := prog.Run(); err != nil {
		return err
	}

	res := <-done
	printResult(res, network)
	if !res.Success {
		os.Exit(1)
	}
	return nil
}

// resultStatus folds a finished deployment into a terminal monitor snapshot
// for the watch view.
func resultStatus(res *deploy.Result, txHash string) deploy.TxStatus {
	st := deploy.TxStatus{
		TxHash:          txHash,
		BlockNumber:     res.BlockNumber,
		GasUsed:         res.GasUsed,
		ContractAddress: res.ContractAddress,
		Message:         res.Message,
	}
	switch {
	case res.Success:
		st.State = deploy.StateConfirmed
	case res.ErrorType == deploy.ErrTypeContractRevert:
		st.State = deploy.StateFailed
	default:
		st.State = deploy.StateError
	}
	return st
}

func printResult(res *deploy.Result, network *chain.Network) {
	if res.Success {
		fmt.Println(ui.KeyValueBlock("Deployment Complete", [][2]string{
			{"Contract", res.ContractAddress},
			{"Transaction", res.TxHash},
			{"Block", fmt.Sprintf("%d", res.BlockNumber)},
			{"Gas Used", fmt.Sprintf("%d", res.GasUsed)},
			{"Cost", res.CostNative + " " + network.NativeCurrency},
			{"Code Hash", res.BytecodeHash},
			{"Explorer", res.ExplorerURL},
		}))
		return
	}

	fmt.Println(ui.Err(res.Message))
	if res.TxHash != "" {
		fmt.Println(ui.Meta("  tx " + res.TxHash))
	}
	for _, s := range res.Suggestions {
		fmt.Println(ui.Meta("  → " + s))
	}
}

// resolveSigner picks the deployment key: --key, then the keychain entry
// named by --key-name, then EVMDEPLOY_PRIVATE_KEY.
func resolveSigner() (*wallet.Signer, error) {
	if deployKey != "" {
		return wallet.NewSigner(deployKey)
	}
	if deployKeyName != "" {
		ks := wallet.DefaultKeystore()
		hexKey, err := ks.Retrieve(keyRef(deployKeyName))
		if err != nil {
			return nil, err
		}
		return wallet.NewSigner(hexKey)
	}
	if envKey := os.Getenv("EVMDEPLOY_PRIVATE_KEY"); envKey != "" {
		return wallet.NewSigner(envKey)
	}
	return nil, fmt.Errorf("no private key: pass --key, --key-name, or set EVMDEPLOY_PRIVATE_KEY")
}

// ethToWei converts a decimal ETH amount to wei exactly, without floating
// point. Digits past 18 decimals are truncated.
func ethToWei(s string) (*big.Int, error) {
	return parseDecimal(s, 18)
}

// gweiToWei converts a decimal gwei amount to wei exactly.
func gweiToWei(s string) (*big.Int, error) {
	return parseDecimal(s, 9)
}

func parseDecimal(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	wei, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if wei.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", s)
	}
	return wei, nil
}

func init() {
	deployCmd.Flags().StringVar(&deployNetwork, "network", "", "target network (default: config)")
	deployCmd.Flags().StringVar(&deployValue, "value", "", "native value to send with the deployment, in ETH")
	deployCmd.Flags().Uint64Var(&deployGas, "gas", 0, "gas limit (0 = estimate)")
	deployCmd.Flags().StringVar(&deployGasPrice, "gas-price", "", "gas price in gwei (default: estimate)")
	deployCmd.Flags().StringVar(&deployKey, "key", "", "hex private key")
	deployCmd.Flags().StringVar(&deployKeyName, "key-name", "", "name of a key stored in the OS keychain")
	deployCmd.Flags().Uint64Var(&deployConfirms, "confirmations", 0, "confirmations to wait for (default: config)")
	deployCmd.Flags().IntVar(&deployTimeout, "timeout", 0, "confirmation timeout in seconds (default: config)")
	deployCmd.Flags().BoolVar(&deployWatchTUI, "watch", false, "show a live confirmation view")
}
