package utxo

import (
	"fmt"

	"github.com/mezonai/utxochain/block"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/ledger"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/monitoring"
	"github.com/mezonai/utxochain/store"
	"github.com/mezonai/utxochain/transaction"
	"github.com/mezonai/utxochain/utils"
)

// Set is the persisted index of unspent outputs derived from a Blockchain.
// It is only valid while its recorded tip equals the chain head.
type Set struct {
	bc    *ledger.Blockchain
	store store.UTXOStore
}

// NewSet builds the index on the chain's own provider
func NewSet(bc *ledger.Blockchain) (*Set, error) {
	s, err := store.NewGenericUTXOStore(bc.Provider())
	if err != nil {
		return nil, err
	}
	return &Set{bc: bc, store: s}, nil
}

// Reindex rebuilds the whole index from the chain
func (u *Set) Reindex() error {
	err := u.bc.View(func(tip string) error {
		utxos, err := u.bc.FindUTXOAt(tip)
		if err != nil {
			return err
		}
		if err := u.store.Replace(utxos, tip); err != nil {
			return fmt.Errorf("failed to write utxo index: %w", err)
		}
		logx.Info("UTXO", fmt.Sprintf("Reindexed %d transactions at tip %s", len(utxos), utils.ShortenLog(tip)))
		return nil
	})
	if err != nil {
		return err
	}
	monitoring.IncreaseReindexCount()
	return nil
}

// Update applies the outputs created and consumed by b, which must extend the
// block the index currently reflects
func (u *Set) Update(b *block.Block) error {
	tip, err := u.store.Tip()
	if err != nil {
		return err
	}
	if tip != b.PrevHash() {
		return fmt.Errorf("%w: index at %s cannot apply block on %s", ledgererrors.ErrStaleIndex, utils.ShortenLog(tip), utils.ShortenLog(b.PrevHash()))
	}

	changed := make(map[string]transaction.TXOutputs)
	load := func(txid string) (transaction.TXOutputs, error) {
		if outs, ok := changed[txid]; ok {
			return outs, nil
		}
		outs, err := u.store.Get(txid)
		if err != nil {
			return transaction.TXOutputs{}, err
		}
		if outs == nil {
			return transaction.TXOutputs{}, nil
		}
		return *outs, nil
	}

	txs := b.Transactions()
	for _, tx := range txs {
		var outs transaction.TXOutputs
		for idx, out := range tx.Vout {
			outs.Outputs = append(outs.Outputs, transaction.IndexedOutput{Index: int32(idx), Output: out})
		}
		changed[tx.ID] = outs
	}

	for _, tx := range txs {
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Vin {
			outs, err := load(in.Txid)
			if err != nil {
				return err
			}
			var remaining transaction.TXOutputs
			for _, o := range outs.Outputs {
				if o.Index != in.Vout {
					remaining.Outputs = append(remaining.Outputs, o)
				}
			}
			changed[in.Txid] = remaining
		}
	}

	if err := u.store.Apply(changed, b.Hash()); err != nil {
		return fmt.Errorf("failed to update utxo index: %w", err)
	}
	logx.Debug("UTXO", fmt.Sprintf("Applied block %s to utxo index", utils.ShortenLog(b.Hash())))
	return nil
}

// IsCurrent reports whether the index reflects the chain head
func (u *Set) IsCurrent() (bool, error) {
	tip, err := u.store.Tip()
	if err != nil {
		return false, err
	}
	return tip == u.bc.TipHash(), nil
}

func (u *Set) ensureCurrent() error {
	current, err := u.IsCurrent()
	if err != nil {
		return err
	}
	if !current {
		return ledgererrors.ErrStaleIndex
	}
	return nil
}

// FindSpendableOutputs walks outputs in ascending txid then output index order and
// stops once the running total reaches amount. A total below amount means the
// owner cannot afford it.
func (u *Set) FindSpendableOutputs(pubKeyHash []byte, amount int64) (int64, []transaction.Outpoint, error) {
	if err := u.ensureCurrent(); err != nil {
		return 0, nil, err
	}

	var accumulated int64
	var picked []transaction.Outpoint
	err := u.store.ForEach(func(txid string, outs transaction.TXOutputs) bool {
		for _, o := range outs.Outputs {
			if !o.Output.IsLockedWithKey(pubKeyHash) {
				continue
			}
			accumulated += int64(o.Output.Value)
			picked = append(picked, transaction.Outpoint{Txid: txid, Vout: o.Index})
			if accumulated >= amount {
				return false
			}
		}
		return true
	})
	if err != nil {
		return 0, nil, err
	}
	return accumulated, picked, nil
}

// FindUTXO returns every unspent output locked to pubKeyHash
func (u *Set) FindUTXO(pubKeyHash []byte) ([]transaction.TXOutput, error) {
	if err := u.ensureCurrent(); err != nil {
		return nil, err
	}

	var result []transaction.TXOutput
	err := u.store.ForEach(func(_ string, outs transaction.TXOutputs) bool {
		for _, o := range outs.Outputs {
			if o.Output.IsLockedWithKey(pubKeyHash) {
				result = append(result, o.Output)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (u *Set) Balance(pubKeyHash []byte) (int64, error) {
	outs, err := u.FindUTXO(pubKeyHash)
	if err != nil {
		return 0, err
	}
	var balance int64
	for _, out := range outs {
		balance += int64(out.Value)
	}
	return balance, nil
}

// CountTransactions is the number of transactions with at least one unspent output
func (u *Set) CountTransactions() (int, error) {
	count := 0
	err := u.store.ForEach(func(string, transaction.TXOutputs) bool {
		count++
		return true
	})
	return count, err
}

// Snapshot returns the whole index keyed by txid
func (u *Set) Snapshot() (map[string]transaction.TXOutputs, error) {
	all := make(map[string]transaction.TXOutputs)
	err := u.store.ForEach(func(txid string, outs transaction.TXOutputs) bool {
		all[txid] = outs
		return true
	})
	return all, err
}

// PrevTransactions resolves inputs through the underlying chain
func (u *Set) PrevTransactions(tx *transaction.Transaction) (map[string]transaction.Transaction, error) {
	return u.bc.PrevTransactions(tx)
}
