package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mezonai/utxochain/block"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/transaction"
	"github.com/mezonai/utxochain/utils"
)

type SendConfig struct {
	Mine bool
}

var sendConfig SendConfig

var sendCmd = &cobra.Command{
	Use:   "send <from> <to> <amount>",
	Short: "Send amount from a stored wallet to another address",
	Long: `Builds a transaction spending the sender's unspent outputs, mines it into a new block
and updates the UTXO index. With --mine the block also carries a coinbase reward for the sender.

Examples:
  send 3Jv...from 3Px...to 40
  send --mine 3Jv...from 3Px...to 1_000`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to := args[0], args[1]
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		sender, err := s.stores.Wallets.GetWallet(from)
		if err != nil {
			return err
		}

		tx, err := transaction.NewSpend(sender, to, amount, s.utxos)
		if err != nil {
			return err
		}
		logx.Info("SEND", fmt.Sprintf("Built transaction %s: %s -> %s, amount %d", utils.ShortenLog(tx.ID), from, to, amount))

		var mined *block.Block
		if sendConfig.Mine {
			mined, err = s.chain.MineBlock([]transaction.Transaction{*tx}, from)
		} else {
			mined, err = s.chain.AddBlock([]transaction.Transaction{*tx})
		}
		if err != nil {
			return err
		}
		if err := s.utxos.Update(mined); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Success! Transaction %s in block %s\n", tx.ID, mined.Hash())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolVarP(&sendConfig.Mine, "mine", "m", false, "add a coinbase reward for the sender to the mined block")
}
