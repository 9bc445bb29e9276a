package store

import (
	"fmt"
	"sync"

	"github.com/mezonai/utxochain/block"
	"github.com/mezonai/utxochain/db"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/utils"
)

// BlockStore persists mined blocks by hash together with the chain head.
type BlockStore interface {
	Block(hash string) (*block.Block, error)
	Head() (string, error)
	HasHead() (bool, error)
	AddBlock(b *block.Block) error
}

// GenericBlockStore is a database-agnostic implementation that uses DatabaseProvider
type GenericBlockStore struct {
	provider db.DatabaseProvider
	txm      *db.DBTxManager
	mu       sync.RWMutex
}

// NewGenericBlockStore creates a new generic block store with the given provider
func NewGenericBlockStore(provider db.DatabaseProvider) (*GenericBlockStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericBlockStore{
		provider: provider,
		txm:      db.NewDBTxManager(provider),
	}, nil
}

func blockKey(hash string) []byte {
	return []byte(PrefixBlock + hash)
}

func headKey() []byte {
	return []byte(PrefixBlockMeta + BlockMetaKeyHead)
}

// Block returns the block with the given hash, or both nil if it does not exist.
// A stored block whose hash does not recompute fails with ErrCorruptBlock.
func (s *GenericBlockStore) Block(hash string) (*block.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.provider.Get(blockKey(hash))
	if err != nil {
		return nil, fmt.Errorf("could not get block %s from db: %w", hash, err)
	}
	if value == nil {
		return nil, nil
	}

	blk, err := block.Unmarshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: block %s: %v", ledgererrors.ErrCorruptBlock, hash, err)
	}
	if blk.Hash() != hash || !blk.Validate() {
		return nil, fmt.Errorf("%w: block %s failed validation", ledgererrors.ErrCorruptBlock, hash)
	}
	return blk, nil
}

// Head returns the hash of the most recently stored block, or "" for an empty store
func (s *GenericBlockStore) Head() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.provider.Get(headKey())
	if err != nil {
		return "", fmt.Errorf("failed to get chain head: %w", err)
	}
	return string(value), nil
}

func (s *GenericBlockStore) HasHead() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.provider.Has(headKey())
}

// AddBlock writes the block and moves the head to it in one atomic batch
func (s *GenericBlockStore) AddBlock(b *block.Block) error {
	if b == nil || b.Hash() == "" {
		return fmt.Errorf("cannot store unmined block")
	}

	data, err := b.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.txm.WithBatch(func(batch db.DatabaseBatch) error {
		batch.Put(blockKey(b.Hash()), data)
		batch.Put(headKey(), []byte(b.Hash()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store block %s: %w", b.Hash(), err)
	}

	logx.Info("BLOCKSTORE", fmt.Sprintf("Stored block %s at height %d", utils.ShortenLog(b.Hash()), b.Height()))
	return nil
}
