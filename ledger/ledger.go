package ledger

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	"github.com/mezonai/utxochain/block"
	"github.com/mezonai/utxochain/db"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/events"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/monitoring"
	"github.com/mezonai/utxochain/store"
	"github.com/mezonai/utxochain/transaction"
	"github.com/mezonai/utxochain/utils"
)

// Blockchain is the handle on a persisted chain. Only one goroutine appends at a time.
type Blockchain struct {
	mu       sync.RWMutex
	provider db.DatabaseProvider
	blocks   store.BlockStore
	events   *events.EventBus
	tip      string
	height   int32
}

// Create starts a new chain whose genesis coinbase pays address.
// It fails with ErrLedgerAlreadyExists if the store already holds a chain.
func Create(provider db.DatabaseProvider, address string) (*Blockchain, error) {
	blocks, err := store.NewGenericBlockStore(provider)
	if err != nil {
		return nil, err
	}

	exists, err := blocks.HasHead()
	if err != nil {
		return nil, fmt.Errorf("could not check for existing ledger: %w", err)
	}
	if exists {
		return nil, ledgererrors.ErrLedgerAlreadyExists
	}

	coinbase, err := transaction.NewCoinbase(address, "")
	if err != nil {
		return nil, err
	}
	genesis, err := block.NewGenesisBlock(coinbase)
	if err != nil {
		return nil, err
	}
	if err := blocks.AddBlock(genesis); err != nil {
		return nil, fmt.Errorf("failed to persist genesis block: %w", err)
	}

	logx.Info("LEDGER", fmt.Sprintf("Created ledger with genesis %s rewarding %s", utils.ShortenLog(genesis.Hash()), address))
	monitoring.SetBlockHeight(genesis.Height())

	return &Blockchain{
		provider: provider,
		blocks:   blocks,
		events:   events.NewEventBus(),
		tip:      genesis.Hash(),
		height:   genesis.Height(),
	}, nil
}

// Open loads an existing chain. It fails with ErrNoLedgerFound if the store is empty.
func Open(provider db.DatabaseProvider) (*Blockchain, error) {
	blocks, err := store.NewGenericBlockStore(provider)
	if err != nil {
		return nil, err
	}

	head, err := blocks.Head()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, ledgererrors.ErrNoLedgerFound
	}

	tip, err := blocks.Block(head)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return nil, fmt.Errorf("head %s references a missing block", head)
	}

	monitoring.SetBlockHeight(tip.Height())
	return &Blockchain{
		provider: provider,
		blocks:   blocks,
		events:   events.NewEventBus(),
		tip:      head,
		height:   tip.Height(),
	}, nil
}

// AddBlock verifies every non-coinbase transaction, mines a block on top of the
// current head and persists it. The head only moves once the block is stored.
func (bc *Blockchain) AddBlock(txs []transaction.Transaction) (*block.Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.addBlockLocked(txs)
}

// MineBlock prepends a coinbase paying rewardAddress and appends the block
func (bc *Blockchain) MineBlock(txs []transaction.Transaction, rewardAddress string) (*block.Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	// the height keeps reward ids unique for repeated payouts to one address
	memo := fmt.Sprintf("Reward to '%s' at height %d", rewardAddress, bc.height+1)
	coinbase, err := transaction.NewCoinbase(rewardAddress, memo)
	if err != nil {
		return nil, err
	}

	all := make([]transaction.Transaction, 0, len(txs)+1)
	all = append(all, *coinbase)
	all = append(all, txs...)
	return bc.addBlockLocked(all)
}

func (bc *Blockchain) addBlockLocked(txs []transaction.Transaction) (*block.Block, error) {
	for i := range txs {
		tx := &txs[i]
		if tx.IsCoinbase() {
			continue
		}
		ok, err := bc.verifyTransaction(tx)
		if err != nil {
			monitoring.RecordRejectedTx(rejectReason(err))
			bc.events.Publish(events.NewTransactionRejected(tx.ID, err.Error()))
			return nil, fmt.Errorf("%w: %s: %w", ledgererrors.ErrInvalidTransaction, tx.ID, err)
		}
		if !ok {
			monitoring.RecordRejectedTx(monitoring.TxInvalidSignature)
			bc.events.Publish(events.NewTransactionRejected(tx.ID, ledgererrors.ErrInvalidSignature.Error()))
			return nil, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidTransaction, tx.ID)
		}
	}

	next, err := block.Mine(txs, bc.tip, bc.height+1)
	if err != nil {
		return nil, err
	}
	if err := bc.blocks.AddBlock(next); err != nil {
		return nil, err
	}

	bc.tip = next.Hash()
	bc.height = next.Height()
	monitoring.SetBlockHeight(bc.height)

	bc.events.Publish(events.NewBlockMined(next.Hash(), next.Height(), len(txs)))
	for i := range txs {
		bc.events.Publish(events.NewTransactionIncludedInBlock(txs[i].ID, next.Height(), next.Hash()))
	}
	return next, nil
}

func rejectReason(err error) monitoring.TxRejectedReason {
	switch {
	case errors.Is(err, ledgererrors.ErrMissingPrevTransaction):
		return monitoring.TxMissingPrevTx
	case errors.Is(err, ledgererrors.ErrInvalidSignature):
		return monitoring.TxInvalidSignature
	default:
		return monitoring.TxRejectedUnknown
	}
}

// TipHash is the hash of the current head block
func (bc *Blockchain) TipHash() string {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

func (bc *Blockchain) Height() int32 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.height
}

// GetBlock returns the stored block with hash, or both nil if unknown
func (bc *Blockchain) GetBlock(hash string) (*block.Block, error) {
	return bc.blocks.Block(hash)
}

// View runs fn while holding the read lock so no block is appended meanwhile
func (bc *Blockchain) View(fn func(tip string) error) error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return fn(bc.tip)
}

// Events is the bus block and transaction outcomes are published on
func (bc *Blockchain) Events() *events.EventBus {
	return bc.events
}

// Provider exposes the store shared with the utxo index
func (bc *Blockchain) Provider() db.DatabaseProvider {
	return bc.provider
}

func (bc *Blockchain) Close() error {
	return bc.provider.Close()
}

// Iterator walks the chain from the current head back to genesis
func (bc *Blockchain) Iterator() *Iterator {
	return &Iterator{current: bc.TipHash(), blocks: bc.blocks}
}

func (bc *Blockchain) iteratorFrom(tip string) *Iterator {
	return &Iterator{current: tip, blocks: bc.blocks}
}

type Iterator struct {
	current string
	height  int32
	started bool
	blocks  store.BlockStore
}

// Next returns the next older block, or nil, nil once genesis has been returned.
// Each block must sit exactly one height below its successor.
func (it *Iterator) Next() (*block.Block, error) {
	if it.current == "" {
		return nil, nil
	}

	b, err := it.blocks.Block(it.current)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("chain references missing block %s", it.current)
	}
	if it.started && b.Height() != it.height-1 {
		return nil, fmt.Errorf("%w: block %s has height %d, expected %d",
			ledgererrors.ErrCorruptBlock, it.current, b.Height(), it.height-1)
	}
	if b.IsGenesis() != (b.Height() == 0) {
		return nil, fmt.Errorf("%w: block %s at height %d has prev hash %q",
			ledgererrors.ErrCorruptBlock, it.current, b.Height(), b.PrevHash())
	}
	it.started = true
	it.height = b.Height()
	it.current = b.PrevHash()
	return b, nil
}

// FindTransaction searches the chain for the transaction with id
func (bc *Blockchain) FindTransaction(id string) (*transaction.Transaction, error) {
	return bc.findTransaction(bc.TipHash(), id)
}

func (bc *Blockchain) findTransaction(tip, id string) (*transaction.Transaction, error) {
	it := bc.iteratorFrom(tip)
	for {
		b, err := it.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("%w: %s", ledgererrors.ErrMissingPrevTransaction, id)
		}
		for _, tx := range b.Transactions() {
			if tx.ID == id {
				return &tx, nil
			}
		}
	}
}

// PrevTransactions collects the transactions referenced by tx's inputs, keyed by id
func (bc *Blockchain) PrevTransactions(tx *transaction.Transaction) (map[string]transaction.Transaction, error) {
	return bc.prevTransactions(bc.TipHash(), tx)
}

func (bc *Blockchain) prevTransactions(tip string, tx *transaction.Transaction) (map[string]transaction.Transaction, error) {
	prev := make(map[string]transaction.Transaction)
	if tx.IsCoinbase() {
		return prev, nil
	}
	for _, in := range tx.Vin {
		if _, seen := prev[in.Txid]; seen {
			continue
		}
		found, err := bc.findTransaction(tip, in.Txid)
		if err != nil {
			return nil, err
		}
		prev[in.Txid] = *found
	}
	return prev, nil
}

// SignTransaction signs every input of tx with key
func (bc *Blockchain) SignTransaction(tx *transaction.Transaction, key ed25519.PrivateKey) error {
	prev, err := bc.PrevTransactions(tx)
	if err != nil {
		return err
	}
	return tx.Sign(key, prev)
}

// VerifyTransaction checks every input signature of tx against the chain
func (bc *Blockchain) VerifyTransaction(tx *transaction.Transaction) (bool, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.verifyTransaction(tx)
}

// verifyTransaction expects the caller to hold bc.mu
func (bc *Blockchain) verifyTransaction(tx *transaction.Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}
	prev, err := bc.prevTransactions(bc.tip, tx)
	if err != nil {
		return false, err
	}
	return tx.Verify(prev)
}

// FindUTXO rebuilds the unspent outputs of the whole chain, keyed by txid
func (bc *Blockchain) FindUTXO() (map[string]transaction.TXOutputs, error) {
	return bc.findUTXO(bc.TipHash())
}

// findUTXO scans from tip to genesis. An output is recorded only if no input
// seen so far, which are all newer, consumes it.
func (bc *Blockchain) findUTXO(tip string) (map[string]transaction.TXOutputs, error) {
	utxos := make(map[string]transaction.TXOutputs)
	spent := make(map[string]map[int32]bool)

	it := bc.iteratorFrom(tip)
	for {
		b, err := it.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			break
		}

		txs := b.Transactions()
		// inputs of a block can consume outputs created earlier in the same block
		for _, tx := range txs {
			if tx.IsCoinbase() {
				continue
			}
			for _, in := range tx.Vin {
				if spent[in.Txid] == nil {
					spent[in.Txid] = make(map[int32]bool)
				}
				spent[in.Txid][in.Vout] = true
			}
		}

		for _, tx := range txs {
			var outs transaction.TXOutputs
			for idx, out := range tx.Vout {
				if spent[tx.ID][int32(idx)] {
					continue
				}
				outs.Outputs = append(outs.Outputs, transaction.IndexedOutput{Index: int32(idx), Output: out})
			}
			if len(outs.Outputs) > 0 {
				utxos[tx.ID] = outs
			}
		}
	}
	return utxos, nil
}

// FindUTXOAt is FindUTXO against an explicit tip, for callers already inside View
func (bc *Blockchain) FindUTXOAt(tip string) (map[string]transaction.TXOutputs, error) {
	return bc.findUTXO(tip)
}
