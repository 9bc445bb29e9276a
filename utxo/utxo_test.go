package utxo

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/utxochain/db"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/jsonx"
	"github.com/mezonai/utxochain/ledger"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/store"
	"github.com/mezonai/utxochain/transaction"
	"github.com/mezonai/utxochain/wallet"
)

func init() {
	logx.SetOutput(io.Discard)
}

type fixture struct {
	bc  *ledger.Blockchain
	set *Set
}

func newFixture(t *testing.T, owner *wallet.Wallet) *fixture {
	t.Helper()
	provider, err := db.NewMemoryProvider()
	require.NoError(t, err)
	bc, err := ledger.Create(provider, owner.Address())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })

	set, err := NewSet(bc)
	require.NoError(t, err)
	require.NoError(t, set.Reindex())
	return &fixture{bc: bc, set: set}
}

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet()
	require.NoError(t, err)
	return w
}

func (f *fixture) send(t *testing.T, from *wallet.Wallet, to string, amount int32) error {
	t.Helper()
	tx, err := transaction.NewSpend(from, to, amount, f.set)
	if err != nil {
		return err
	}
	b, err := f.bc.AddBlock([]transaction.Transaction{*tx})
	if err != nil {
		return err
	}
	return f.set.Update(b)
}

func (f *fixture) balance(t *testing.T, w *wallet.Wallet) int64 {
	t.Helper()
	balance, err := f.set.Balance(w.PubKeyHash())
	require.NoError(t, err)
	return balance
}

func TestTransferScenario(t *testing.T) {
	a, b, c := newWallet(t), newWallet(t), newWallet(t)
	f := newFixture(t, a)

	assert.Equal(t, int64(100), f.balance(t, a))

	require.NoError(t, f.send(t, a, b.Address(), 40))
	assert.Equal(t, int64(60), f.balance(t, a))
	assert.Equal(t, int64(40), f.balance(t, b))

	height := f.bc.Height()
	err := f.send(t, b, a.Address(), 1000)
	assert.True(t, errors.Is(err, ledgererrors.ErrInsufficientFunds))
	assert.Equal(t, height, f.bc.Height())

	require.NoError(t, f.send(t, a, c.Address(), 60))
	assert.Equal(t, int64(0), f.balance(t, a))
	assert.Equal(t, int64(60), f.balance(t, c))

	last, err := f.bc.Iterator().Next()
	require.NoError(t, err)
	require.Len(t, last.Transactions(), 1)
	assert.Len(t, last.Transactions()[0].Vout, 1, "exact spend has no change output")

	count, err := f.set.CountTransactions()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdateMatchesReindex(t *testing.T) {
	a, b := newWallet(t), newWallet(t)
	f := newFixture(t, a)

	steps := []func() error{
		func() error { return f.send(t, a, b.Address(), 30) },
		func() error {
			blk, err := f.bc.MineBlock(nil, b.Address())
			if err != nil {
				return err
			}
			return f.set.Update(blk)
		},
		func() error { return f.send(t, b, a.Address(), 110) },
		func() error { return f.send(t, a, b.Address(), 70) },
		func() error {
			// two independent spends confirmed in one block
			first, err := transaction.NewSpend(a, b.Address(), 40, f.set)
			if err != nil {
				return err
			}
			second, err := transaction.NewSpend(b, a.Address(), 20, f.set)
			if err != nil {
				return err
			}
			blk, err := f.bc.AddBlock([]transaction.Transaction{*first, *second})
			if err != nil {
				return err
			}
			return f.set.Update(blk)
		},
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)

		incremental, err := f.set.Snapshot()
		require.NoError(t, err)
		require.NoError(t, f.set.Reindex())
		rebuilt, err := f.set.Snapshot()
		require.NoError(t, err)

		assert.Equal(t, rebuilt, incremental, "step %d", i)
	}
	assert.Equal(t, int64(90), f.balance(t, a))
	assert.Equal(t, int64(110), f.balance(t, b))
}

func TestReindexRejectsCorruptBlock(t *testing.T) {
	a := newWallet(t)
	f := newFixture(t, a)
	genesis, err := f.bc.Iterator().Next()
	require.NoError(t, err)
	blk, err := f.bc.MineBlock(nil, a.Address())
	require.NoError(t, err)
	require.NoError(t, f.set.Update(blk))

	key := []byte(store.PrefixBlock + genesis.Hash())
	raw, err := f.bc.Provider().Get(key)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, jsonx.Unmarshal(raw, &rec))
	rec["timestamp"] = genesis.Timestamp() + 1
	tampered, err := jsonx.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, f.bc.Provider().Put(key, tampered))

	err = f.set.Reindex()
	assert.True(t, errors.Is(err, ledgererrors.ErrCorruptBlock))
}

func TestStaleIndexIsReported(t *testing.T) {
	a := newWallet(t)
	f := newFixture(t, a)

	blk, err := f.bc.MineBlock(nil, a.Address())
	require.NoError(t, err)

	current, err := f.set.IsCurrent()
	require.NoError(t, err)
	assert.False(t, current)

	_, err = f.set.Balance(a.PubKeyHash())
	assert.True(t, errors.Is(err, ledgererrors.ErrStaleIndex))
	_, _, err = f.set.FindSpendableOutputs(a.PubKeyHash(), 1)
	assert.True(t, errors.Is(err, ledgererrors.ErrStaleIndex))

	require.NoError(t, f.set.Update(blk))
	assert.Equal(t, int64(200), f.balance(t, a))

	// applying the same block twice does not extend the recorded tip
	err = f.set.Update(blk)
	assert.True(t, errors.Is(err, ledgererrors.ErrStaleIndex))
}

func TestFindSpendableOutputsIsDeterministic(t *testing.T) {
	a := newWallet(t)
	f := newFixture(t, a)
	for i := 0; i < 3; i++ {
		blk, err := f.bc.MineBlock(nil, a.Address())
		require.NoError(t, err)
		require.NoError(t, f.set.Update(blk))
	}

	total, picked, err := f.set.FindSpendableOutputs(a.PubKeyHash(), 150)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)
	require.Len(t, picked, 2)
	assert.Less(t, picked[0].Txid, picked[1].Txid)

	again, pickedAgain, err := f.set.FindSpendableOutputs(a.PubKeyHash(), 150)
	require.NoError(t, err)
	assert.Equal(t, total, again)
	assert.Equal(t, picked, pickedAgain)

	total, picked, err = f.set.FindSpendableOutputs(a.PubKeyHash(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(400), total)
	assert.Len(t, picked, 4)
}

func TestUpdateOnFreshIndexStartsFromGenesis(t *testing.T) {
	a := newWallet(t)
	provider, err := db.NewMemoryProvider()
	require.NoError(t, err)
	bc, err := ledger.Create(provider, a.Address())
	require.NoError(t, err)
	defer bc.Close()

	set, err := NewSet(bc)
	require.NoError(t, err)

	genesis, err := bc.Iterator().Next()
	require.NoError(t, err)
	require.NoError(t, set.Update(genesis))

	balance, err := set.Balance(a.PubKeyHash())
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}
