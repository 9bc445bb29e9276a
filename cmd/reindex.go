package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindexutxo",
	Short: "Rebuild the UTXO index from the chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.utxos.Reindex(); err != nil {
			return err
		}
		count, err := s.utxos.CountTransactions()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Done! There are %d transactions in the UTXO set.\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
