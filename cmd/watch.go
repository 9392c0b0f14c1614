package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/deploy"
	"github.com/chainforge/evmdeploy/internal/ui"
)

var (
	watchNetwork  string
	watchConfirms uint64
	watchTimeout  int
)

var watchCmd = &cobra.Command{
	Use:   "watch <tx-hash>",
	Short: "Watch a transaction until it confirms",
	Long: `Watch a broadcast transaction in a live view until it reaches the
confirmation threshold, reverts, or the deadline expires.

Polls the network for the receipt and the chain head. No WebSocket
required — works with all public HTTP RPCs.

Keyboard controls:
  q / esc   quit (the transaction keeps going without you)

Examples:
  evmdeploy watch 0xabc... --network sepolia
  evmdeploy watch 0xabc... --confirmations 3 --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txHash := args[0]
		networkKey := watchNetwork
		if networkKey == "" {
			networkKey = cfg.DefaultNetwork
		}

		pool := newPool()
		_, network, err := pool.Get(networkKey)
		if err != nil {
			return fmt.Errorf("unknown network %q — run `evmdeploy networks` to see all targets", networkKey)
		}

		confirms := watchConfirms
		if confirms == 0 {
			confirms = cfg.Confirmations
		}
		timeout := watchTimeout
		if timeout == 0 {
			timeout = cfg.TimeoutSec
		}

		model := ui.WatchModel{
			TxHash:      txHash,
			Network:     network.DisplayName,
			Target:      confirms,
			ExplorerURL: chain.ExplorerTxURL(network, txHash),
		}
		prog := tea.NewProgram(model, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

		mon := deploy.NewMonitor(pool)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err = mon.Start(ctx, networkKey, txHash, deploy.MonitorOptions{
			Confirmations: confirms,
			PollInterval:  time.Duration(cfg.PollIntervalSec) * time.Second,
			Timeout:       time.Duration(timeout) * time.Second,
		}, func(st deploy.TxStatus) {
			prog.Send(ui.WatchStatusMsg{Status: st})
		})
		if err != nil {
			return err
		}

		_, err = prog.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchNetwork, "network", "", "network the tx was sent on (default: config)")
	watchCmd.Flags().Uint64Var(&watchConfirms, "confirmations", 0, "confirmation threshold (default: config)")
	watchCmd.Flags().IntVar(&watchTimeout, "timeout", 0, "watch deadline in seconds (default: config)")
}
