package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type PrintChainConfig struct {
	JSON bool
}

var printChainConfig PrintChainConfig

var printChainCmd = &cobra.Command{
	Use:   "printchain",
	Short: "Print every block from the head back to genesis",
	Long: `Walks the chain from the head back to genesis. With --json each block is printed
as its stored record, one indented object per block.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		it := s.chain.Iterator()
		for {
			b, err := it.Next()
			if err != nil {
				return err
			}
			if b == nil {
				return nil
			}
			if !printChainConfig.JSON {
				fmt.Fprintln(cmd.OutOrStdout(), b.String())
				continue
			}
			data, err := b.MarshalIndent("  ")
			if err != nil {
				return fmt.Errorf("failed to render block %s: %w", b.Hash(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}
	},
}

func init() {
	rootCmd.AddCommand(printChainCmd)

	printChainCmd.Flags().BoolVar(&printChainConfig.JSON, "json", false, "print blocks as indented json records")
}
