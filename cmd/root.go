package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mezonai/utxochain/block"
	"github.com/mezonai/utxochain/config"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/exception"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/monitoring"
)

type RootConfig struct {
	ConfigPath     string
	NodeConfigPath string
	MetricsAddr    string
	Verbose        bool
}

var rootConfig RootConfig

var metricsErr <-chan error

var rootCmd = &cobra.Command{
	Use:   "utxochain",
	Short: "UTXO proof-of-work ledger CLI",
	Long:  "Command line interface for creating and using a single-node UTXO ledger with proof-of-work mining.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(rootConfig)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metricsErr == nil {
			return
		}
		select {
		case err := <-metricsErr:
			if err != nil {
				logx.Error("CMD", "Metrics server stopped:", err)
			}
		default:
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfig.ConfigPath, "config", "c", config.DefaultConfigPath, "store config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&rootConfig.NodeConfigPath, "node-config", config.DefaultNodeConfigPath, "log and mining config file (ini)")
	rootCmd.PersistentFlags().StringVar(&rootConfig.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while the command runs")
	rootCmd.PersistentFlags().BoolVarP(&rootConfig.Verbose, "verbose", "v", false, "mirror log output to stderr")
}

func setup(rc RootConfig) error {
	nodeCfg, err := config.LoadNodeConfig(rc.NodeConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load node config: %w", err)
	}
	logx.Configure(nodeCfg.Log)
	if rc.Verbose {
		logx.Mirror(os.Stderr)
	}
	block.ProgressInterval = nodeCfg.Mining.ProgressInterval

	if rc.MetricsAddr != "" {
		addr := rc.MetricsAddr
		metricsErr = exception.SafeGo("MetricsServer", func() error {
			return monitoring.Serve(addr)
		})
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed: code=", ledgererrors.CodeOf(err), " ", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
