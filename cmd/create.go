package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mezonai/utxochain/ledger"
	"github.com/mezonai/utxochain/utxo"
)

var createCmd = &cobra.Command{
	Use:   "create <address>",
	Short: "Create a new chain whose genesis reward goes to address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openStores()
		if err != nil {
			return err
		}
		defer stores.MustClose()

		chain, err := ledger.Create(stores.Provider, args[0])
		if err != nil {
			return err
		}
		utxos, err := utxo.NewSet(chain)
		if err != nil {
			return err
		}
		if err := utxos.Reindex(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created chain, genesis block %s\n", chain.TipHash())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
