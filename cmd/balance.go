package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mezonai/utxochain/wallet"
)

var getBalanceCmd = &cobra.Command{
	Use:   "getbalance <address>",
	Short: "Print the spendable balance of address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKeyHash, err := wallet.PubKeyHashFromAddress(args[0])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		balance, err := s.utxos.Balance(pubKeyHash)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Balance of '%s': %d\n", args[0], balance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getBalanceCmd)
}
