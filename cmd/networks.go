package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/ui"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List supported deployment networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()

		table := ui.NewTable([]ui.Column{
			{Title: "KEY", Width: 14},
			{Title: "NETWORK", Width: 20},
			{Title: "CHAIN ID", Width: 10},
			{Title: "CURRENCY", Width: 9},
			{Title: "LAYER", Width: 6},
			{Title: "RPC", Width: 44},
		})

		for _, n := range reg.All() {
			layer := "L1"
			if n.L2 {
				layer = "L2"
			}
			rpc := n.RPCURL
			if custom, ok := cfg.CustomRPCs[n.Key]; ok {
				rpc = custom + " (custom)"
			}
			table.AddRow(ui.Row{
				n.Key,
				n.DisplayName,
				fmt.Sprintf("%d", n.ChainID),
				n.NativeCurrency,
				layer,
				rpc,
			})
		}

		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Supported Networks"))
		fmt.Println(table.Render())
		fmt.Println(ui.Meta("Override an RPC with `evmdeploy config set-rpc <key> <url>` or EVMDEPLOY_RPC_<KEY>."))
		return nil
	},
}
