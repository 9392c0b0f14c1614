package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/ui"
)

var statusNetwork string

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Show the current status of a deployment transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txHash := args[0]
		networkKey := statusNetwork
		if networkKey == "" {
			networkKey = cfg.DefaultNetwork
		}

		pool := newPool()
		client, network, err := pool.Get(networkKey)
		if err != nil {
			return fmt.Errorf("unknown network %q — run `evmdeploy networks` to see all targets", networkKey)
		}

		spin := ui.NewSpinner("Fetching receipt...")
		spin.Start()

		ctx := context.Background()
		receipt, err := client.GetTransactionReceipt(ctx, txHash)
		if err != nil {
			spin.Stop()
			return err
		}
		if receipt == nil {
			spin.Stop()
			fmt.Println(ui.Warn("transaction is still pending"))
			fmt.Println(ui.Meta("  " + chain.ExplorerTxURL(network, txHash)))
			return nil
		}

		head, err := client.BlockNumber(ctx)
		spin.Stop()
		if err != nil {
			return err
		}

		var confs uint64
		if head >= receipt.BlockNumber {
			confs = head - receipt.BlockNumber
		}

		state := ui.Success("confirmed")
		if receipt.Status == 0 {
			state = ui.Err("reverted")
		}

		pairs := [][2]string{
			{"Status", state},
			{"Block", fmt.Sprintf("%d", receipt.BlockNumber)},
			{"Confirmations", fmt.Sprintf("%d", confs)},
			{"Gas Used", fmt.Sprintf("%d", receipt.GasUsed)},
		}
		if receipt.ContractAddress != "" {
			pairs = append(pairs, [2]string{"Contract", receipt.ContractAddress})
		}
		if receipt.EffectiveGasPrice != nil {
			pairs = append(pairs, [2]string{"Gas Price", fmt.Sprintf("%.2f gwei", chain.WeiToGwei(receipt.EffectiveGasPrice))})
		}
		pairs = append(pairs, [2]string{"Explorer", chain.ExplorerTxURL(network, txHash)})

		fmt.Println(ui.KeyValueBlock("Transaction Status", pairs))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusNetwork, "network", "", "network the tx was sent on (default: config)")
}
