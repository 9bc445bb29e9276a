package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/store"
)

func init() {
	logx.SetOutput(io.Discard)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStoreConfig(t *testing.T) {
	path := writeFile(t, "config.yml", "store:\n  type: bolt\n  directory: /tmp/chain\n")

	cfg, err := LoadStoreConfig(path)
	require.NoError(t, err)
	assert.Equal(t, store.BoltStoreType, cfg.Type)
	assert.Equal(t, "/tmp/chain", cfg.Directory)
}

func TestLoadStoreConfigDefaults(t *testing.T) {
	cfg, err := LoadStoreConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultStoreConfig(), *cfg)

	// keys left out keep their defaults
	cfg, err = LoadStoreConfig(writeFile(t, "config.yml", "store:\n  type: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, store.MemoryStoreType, cfg.Type)
	assert.Equal(t, DefaultDataDir, cfg.Directory)
}

func TestLoadStoreConfigRejectsUnknownType(t *testing.T) {
	_, err := LoadStoreConfig(writeFile(t, "config.yml", "store:\n  type: rocksdb\n  directory: x\n"))
	assert.Error(t, err)

	_, err = LoadStoreConfig(writeFile(t, "config.yml", "store: [unterminated"))
	assert.Error(t, err)
}

func TestLoadNodeConfig(t *testing.T) {
	path := writeFile(t, "config.ini", `[log]
file = ./logs/node.log
max_size_mb = 10
max_age_days = 3

[mining]
progress_interval = 500
`)

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./logs/node.log", cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxAgeDays)
	assert.Equal(t, int32(500), cfg.Mining.ProgressInterval)
}

func TestLoadNodeConfigDefaults(t *testing.T) {
	cfg, err := LoadNodeConfig(filepath.Join(t.TempDir(), "missing.ini"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProgressInterval, cfg.Mining.ProgressInterval)
	assert.Equal(t, logx.LogConfig{}, cfg.Log)

	cfg, err = LoadNodeConfig(writeFile(t, "config.ini", "[log]\nmax_age_days = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProgressInterval, cfg.Mining.ProgressInterval)
	assert.Equal(t, 2, cfg.Log.MaxAgeDays)
}

func TestLoadNodeConfigRejectsNegativeInterval(t *testing.T) {
	_, err := LoadNodeConfig(writeFile(t, "config.ini", "[mining]\nprogress_interval = -1\n"))
	assert.Error(t, err)
}
