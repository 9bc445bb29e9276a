package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createWalletCmd = &cobra.Command{
	Use:   "createwallet",
	Short: "Generate a new key pair and print its address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openStores()
		if err != nil {
			return err
		}
		defer stores.MustClose()

		w, err := stores.Wallets.CreateWallet()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Your new address: %s\n", w.Address())
		return nil
	},
}

var listAddressesCmd = &cobra.Command{
	Use:   "listaddresses",
	Short: "List the addresses of all stored wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openStores()
		if err != nil {
			return err
		}
		defer stores.MustClose()

		addresses, err := stores.Wallets.Addresses()
		if err != nil {
			return err
		}
		for _, addr := range addresses {
			fmt.Fprintln(cmd.OutOrStdout(), addr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createWalletCmd)
	rootCmd.AddCommand(listAddressesCmd)
}
