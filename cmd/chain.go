package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/holiman/uint256"

	"github.com/mezonai/utxochain/config"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/events"
	"github.com/mezonai/utxochain/exception"
	"github.com/mezonai/utxochain/ledger"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/store"
	"github.com/mezonai/utxochain/utxo"
)

// session is an opened store with the chain and utxo index on top of it
type session struct {
	stores     *store.Stores
	chain      *ledger.Blockchain
	utxos      *utxo.Set
	subscriber events.SubscriberID
}

func openStores() (*store.Stores, error) {
	storeCfg, err := config.LoadStoreConfig(rootConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load store config: %w", err)
	}
	return store.CreateStore(storeCfg)
}

// openSession opens the existing chain and brings the utxo index up to date
func openSession() (*session, error) {
	stores, err := openStores()
	if err != nil {
		return nil, err
	}

	chain, err := ledger.Open(stores.Provider)
	if err != nil {
		stores.MustClose()
		return nil, err
	}

	utxos, err := utxo.NewSet(chain)
	if err != nil {
		stores.MustClose()
		return nil, err
	}

	current, err := utxos.IsCurrent()
	if err != nil {
		stores.MustClose()
		return nil, err
	}
	if !current {
		logx.Warn("CMD", "UTXO index is behind the chain head, reindexing")
		if err := utxos.Reindex(); err != nil {
			stores.MustClose()
			return nil, err
		}
	}

	return &session{
		stores:     stores,
		chain:      chain,
		utxos:      utxos,
		subscriber: logChainEvents(chain.Events()),
	}, nil
}

func (s *session) Close() {
	s.chain.Events().Unsubscribe(s.subscriber)
	s.stores.MustClose()
}

// logChainEvents writes every published chain event to the log until unsubscribed
func logChainEvents(bus *events.EventBus) events.SubscriberID {
	id, ch := bus.Subscribe()
	exception.SafeGoWithPanic("ChainEventLogger", func() {
		for ev := range ch {
			logx.Info("EVENT", fmt.Sprintf("%s | key=%s", ev.Type(), ev.Key()))
		}
	})
	return id
}

// parseAmount accepts a positive decimal with optional '_' separators, e.g. 1_000.
// Amounts must fit in a single i32 output.
func parseAmount(raw string) (int32, error) {
	amount, err := uint256.FromDecimal(strings.ReplaceAll(raw, "_", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: could not parse amount %q: %v", ledgererrors.ErrInvalidAmount, raw, err)
	}
	if amount.IsZero() || !amount.IsUint64() || amount.Uint64() > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidAmount, raw)
	}
	return int32(amount.Uint64()), nil
}
