package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainforge/evmdeploy/internal/ui"
	"github.com/chainforge/evmdeploy/internal/wallet"
)

var keyImportKey string

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage deployment keys in the OS keychain",
}

var keyImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Store a private key under a name",
	Long: `Store a private key in the OS keychain under a name, for use with
deploy --key-name. The key comes from --key or EVMDEPLOY_PRIVATE_KEY;
it never touches the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		hexKey := keyImportKey
		if hexKey == "" {
			hexKey = os.Getenv("EVMDEPLOY_PRIVATE_KEY")
		}
		if hexKey == "" {
			return fmt.Errorf("no private key: pass --key or set EVMDEPLOY_PRIVATE_KEY")
		}

		// Reject garbage before it lands in the keychain.
		signer, err := wallet.NewSigner(hexKey)
		if err != nil {
			return err
		}

		ks := wallet.DefaultKeystore()
		if _, err := ks.Store(name, hexKey); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Key %q stored", name)))
		fmt.Println(ui.Meta("  address " + signer.Address()))
		return nil
	},
}

var keyAddressCmd = &cobra.Command{
	Use:   "address <name>",
	Short: "Show the address of a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ks := wallet.DefaultKeystore()
		hexKey, err := ks.Retrieve(keyRef(args[0]))
		if err != nil {
			return err
		}
		signer, err := wallet.NewSigner(hexKey)
		if err != nil {
			return err
		}
		fmt.Println(ui.Addr(signer.Address()))
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ks := wallet.DefaultKeystore()
		if err := ks.Delete(keyRef(args[0])); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Key %q removed", args[0])))
		return nil
	},
}

// keyRef maps a user-facing key name to its keychain reference.
func keyRef(name string) string {
	return "evmdeploy." + name
}

func init() {
	keyImportCmd.Flags().StringVar(&keyImportKey, "key", "", "hex private key to store")
	keyCmd.AddCommand(keyImportCmd, keyAddressCmd, keyDeleteCmd)
}
