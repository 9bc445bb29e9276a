package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/store"
)

// DefaultStoreConfig is used when config.yml is absent
func DefaultStoreConfig() store.StoreConfig {
	return store.StoreConfig{Type: store.LevelDBStoreType, Directory: DefaultDataDir}
}

// LoadStoreConfig reads the store section of config.yml. A missing file yields the default.
func LoadStoreConfig(path string) (*store.StoreConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logx.Debug("CONFIG", "No store config at ", path, ", using defaults")
			cfg := DefaultStoreConfig()
			return &cfg, nil
		}
		return nil, err
	}
	defer file.Close()

	cfgFile := ConfigFile{Store: DefaultStoreConfig()}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := cfgFile.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config in %s: %w", path, err)
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded store config: type=%s directory=%s", cfgFile.Store.Type, cfgFile.Store.Directory))
	return &cfgFile.Store, nil
}

// LoadNodeConfig reads the [log] and [mining] sections of config.ini.
// A missing file yields the defaults.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	nodeCfg := &NodeConfig{
		Mining: MiningConfig{ProgressInterval: DefaultProgressInterval},
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nodeCfg, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Section("log").MapTo(&nodeCfg.Log); err != nil {
		return nil, err
	}
	if err := cfg.Section("mining").MapTo(&nodeCfg.Mining); err != nil {
		return nil, err
	}
	if nodeCfg.Mining.ProgressInterval < 0 {
		return nil, fmt.Errorf("progress_interval must not be negative")
	}
	return nodeCfg, nil
}
