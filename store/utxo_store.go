package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mezonai/utxochain/db"
	"github.com/mezonai/utxochain/jsonx"
	"github.com/mezonai/utxochain/transaction"
)

// UTXOStore keeps the unspent outputs of each transaction under utxo:<txid>
// and the hash of the block the index was last brought up to date with.
type UTXOStore interface {
	Get(txid string) (*transaction.TXOutputs, error)
	// ForEach visits entries in ascending txid order until fn returns false
	ForEach(fn func(txid string, outs transaction.TXOutputs) bool) error
	// Replace drops every entry and writes entries and tip in one batch
	Replace(entries map[string]transaction.TXOutputs, tip string) error
	// Apply writes the given entries, deleting those whose outputs are empty, and moves tip
	Apply(entries map[string]transaction.TXOutputs, tip string) error
	Tip() (string, error)
}

type GenericUTXOStore struct {
	mu       sync.RWMutex
	provider db.DatabaseProvider
	txm      *db.DBTxManager
}

func NewGenericUTXOStore(provider db.DatabaseProvider) (*GenericUTXOStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericUTXOStore{
		provider: provider,
		txm:      db.NewDBTxManager(provider),
	}, nil
}

func utxoKey(txid string) []byte {
	return []byte(PrefixUTXO + txid)
}

func tipKey() []byte {
	return []byte(PrefixUTXOMeta + UTXOMetaKeyTip)
}

// Get returns both nil when txid has no unspent outputs
func (s *GenericUTXOStore) Get(txid string) (*transaction.TXOutputs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.provider.Get(utxoKey(txid))
	if err != nil {
		return nil, fmt.Errorf("could not get outputs of %s: %w", txid, err)
	}
	if data == nil {
		return nil, nil
	}

	var outs transaction.TXOutputs
	if err := jsonx.Unmarshal(data, &outs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outputs of %s: %w", txid, err)
	}
	return &outs, nil
}

func (s *GenericUTXOStore) ForEach(fn func(txid string, outs transaction.TXOutputs) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var decodeErr error
	err := s.provider.IteratePrefix([]byte(PrefixUTXO), func(key, value []byte) bool {
		var outs transaction.TXOutputs
		if err := jsonx.Unmarshal(value, &outs); err != nil {
			decodeErr = fmt.Errorf("failed to unmarshal utxo entry %s: %w", key, err)
			return false
		}
		return fn(strings.TrimPrefix(string(key), PrefixUTXO), outs)
	})
	if err != nil {
		return err
	}
	return decodeErr
}

func (s *GenericUTXOStore) Replace(entries map[string]transaction.TXOutputs, tip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale [][]byte
	err := s.provider.IteratePrefix([]byte(PrefixUTXO), func(key, _ []byte) bool {
		stale = append(stale, key)
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to scan utxo index: %w", err)
	}

	return s.txm.WithBatch(func(batch db.DatabaseBatch) error {
		for _, key := range stale {
			batch.Delete(key)
		}
		return putEntries(batch, entries, tip)
	})
}

func (s *GenericUTXOStore) Apply(entries map[string]transaction.TXOutputs, tip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.txm.WithBatch(func(batch db.DatabaseBatch) error {
		return putEntries(batch, entries, tip)
	})
}

func putEntries(batch db.DatabaseBatch, entries map[string]transaction.TXOutputs, tip string) error {
	for txid, outs := range entries {
		if len(outs.Outputs) == 0 {
			batch.Delete(utxoKey(txid))
			continue
		}
		data, err := jsonx.Marshal(outs)
		if err != nil {
			return fmt.Errorf("failed to marshal outputs of %s: %w", txid, err)
		}
		batch.Put(utxoKey(txid), data)
	}
	batch.Put(tipKey(), []byte(tip))
	return nil
}

// Tip returns the block hash the index reflects, "" if it was never built
func (s *GenericUTXOStore) Tip() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.provider.Get(tipKey())
	if err != nil {
		return "", fmt.Errorf("failed to get utxo tip: %w", err)
	}
	return string(value), nil
}
