package config

import (
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/store"
)

// ConfigFile is the layout of config.yml
type ConfigFile struct {
	Store store.StoreConfig `yaml:"store"`
}

type MiningConfig struct {
	// ProgressInterval is the number of nonces between progress log lines, 0 disables them
	ProgressInterval int32 `ini:"progress_interval"`
}

// NodeConfig holds the settings read from config.ini
type NodeConfig struct {
	Log    logx.LogConfig
	Mining MiningConfig
}
