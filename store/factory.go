package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mezonai/utxochain/db"
	"github.com/mezonai/utxochain/logx"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"

	// BoltStoreType uses a single bbolt file inside Directory
	BoltStoreType StoreType = "bolt"

	// MemoryStoreType keeps everything in memory, for tests and throwaway runs
	MemoryStoreType StoreType = "memory"
)

const boltFileName = "utxochain.db"

// StoreConfig holds configuration for creating store instances
type StoreConfig struct {
	// Type specifies which store implementation to use
	Type StoreType `json:"type" yaml:"type"`

	// Directory is the database directory path (for file-based databases)
	Directory string `json:"directory" yaml:"directory"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	if sc.Type == "" {
		return fmt.Errorf("store type cannot be empty")
	}

	switch sc.Type {
	case MemoryStoreType:
		return nil
	case LevelDBStoreType, BoltStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty")
		}
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// Stores bundles the stores sharing one provider
type Stores struct {
	Provider db.DatabaseProvider
	Blocks   *GenericBlockStore
	Wallets  *GenericWalletStore
	UTXO     *GenericUTXOStore
}

// NewStores builds every store on top of provider
func NewStores(provider db.DatabaseProvider) (*Stores, error) {
	blocks, err := NewGenericBlockStore(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create block store: %w", err)
	}
	wallets, err := NewGenericWalletStore(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet store: %w", err)
	}
	utxos, err := NewGenericUTXOStore(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create utxo store: %w", err)
	}

	return &Stores{
		Provider: provider,
		Blocks:   blocks,
		Wallets:  wallets,
		UTXO:     utxos,
	}, nil
}

func (s *Stores) MustClose() {
	if err := s.Provider.Close(); err != nil {
		logx.Error("STORE", "Failed to close db provider:", err.Error())
	}
}

// StoreFactory take responsibility to create store instances
type StoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// CreateStoreWithProvider opens the configured provider and builds the stores on it
func (sf *StoreFactory) CreateStoreWithProvider(config *StoreConfig) (*Stores, error) {
	provider, err := sf.CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	stores, err := NewStores(provider)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}
	return stores, nil
}

// CreateProvider creates a database provider based on the configuration
func (sf *StoreFactory) CreateProvider(config *StoreConfig) (db.DatabaseProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)

	case BoltStoreType:
		if err := os.MkdirAll(config.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return db.NewBoltProvider(filepath.Join(config.Directory, boltFileName))

	case MemoryStoreType:
		return db.NewMemoryProvider()

	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// Global factory instance
var globalFactory = NewStoreFactory()

// CreateStore creates new store instances using the global factory
func CreateStore(config *StoreConfig) (*Stores, error) {
	return globalFactory.CreateStoreWithProvider(config)
}
