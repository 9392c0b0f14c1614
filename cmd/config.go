package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetNetworkCmd = &cobra.Command{
	Use:   "set-network <key>",
	Short: "Set the default deployment network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if _, err := chain.NewRegistry().Resolve(key); err != nil {
			return fmt.Errorf("unknown network %q — run `evmdeploy networks` to see all targets", key)
		}
		cfg.DefaultNetwork = key
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %q", key)))
		return nil
	},
}

var configSetConfirmationsCmd = &cobra.Command{
	Use:   "set-confirmations <n>",
	Short: "Set the default confirmation threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("confirmations must be a positive integer, got %q", args[0])
		}
		cfg.Confirmations = n
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default confirmations set to %d", n)))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <network> <url>",
	Short: "Override the RPC endpoint for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, url := args[0], args[1]
		if _, err := chain.NewRegistry().Resolve(key); err != nil {
			return fmt.Errorf("unknown network %q — run `evmdeploy networks` to see all targets", key)
		}
		cfg.SetRPC(key, url)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC for %s set to %s", key, url)))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <network>",
	Short: "Remove a custom RPC override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Custom RPC for %s removed", args[0])))
		return nil
	},
}

func init() {
	configCmd.AddCommand(
		configListCmd,
		configSetNetworkCmd,
		configSetConfirmationsCmd,
		configSetRPCCmd,
		configRemoveRPCCmd,
	)
}
