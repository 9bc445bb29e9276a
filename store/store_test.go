package store

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/utxochain/block"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/jsonx"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/transaction"
	"github.com/mezonai/utxochain/wallet"
)

func init() {
	logx.SetOutput(io.Discard)
}

func newMemoryStores(t *testing.T) *Stores {
	t.Helper()
	stores, err := CreateStore(&StoreConfig{Type: MemoryStoreType})
	require.NoError(t, err)
	t.Cleanup(stores.MustClose)
	return stores
}

func mineGenesis(t *testing.T) *block.Block {
	t.Helper()
	w, err := wallet.NewWallet()
	require.NoError(t, err)
	cb, err := transaction.NewCoinbase(w.Address(), "")
	require.NoError(t, err)
	genesis, err := block.NewGenesisBlock(cb)
	require.NoError(t, err)
	return genesis
}

func TestStoreConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		config  StoreConfig
		wantErr bool
	}{
		{"memory without directory", StoreConfig{Type: MemoryStoreType}, false},
		{"leveldb", StoreConfig{Type: LevelDBStoreType, Directory: "data"}, false},
		{"bolt", StoreConfig{Type: BoltStoreType, Directory: "data"}, false},
		{"empty type", StoreConfig{Directory: "data"}, true},
		{"leveldb without directory", StoreConfig{Type: LevelDBStoreType}, true},
		{"unknown type", StoreConfig{Type: "rocksdb", Directory: "data"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateProviderForEachBackend(t *testing.T) {
	for _, typ := range []StoreType{LevelDBStoreType, BoltStoreType, MemoryStoreType} {
		t.Run(string(typ), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "chain")
			p, err := NewStoreFactory().CreateProvider(&StoreConfig{Type: typ, Directory: dir})
			require.NoError(t, err)
			defer p.Close()

			require.NoError(t, p.Put([]byte("k"), []byte("v")))
			v, err := p.Get([]byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), v)
		})
	}

	_, err := NewStoreFactory().CreateProvider(nil)
	assert.Error(t, err)
}

func TestBlockStoreAddBlockMovesHead(t *testing.T) {
	stores := newMemoryStores(t)

	has, err := stores.Blocks.HasHead()
	require.NoError(t, err)
	assert.False(t, has)

	head, err := stores.Blocks.Head()
	require.NoError(t, err)
	assert.Equal(t, "", head)

	genesis := mineGenesis(t)
	require.NoError(t, stores.Blocks.AddBlock(genesis))

	head, err = stores.Blocks.Head()
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), head)

	loaded, err := stores.Blocks.Block(genesis.Hash())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, genesis.Hash(), loaded.Hash())
	assert.True(t, loaded.Validate())

	missing, err := stores.Blocks.Block("0000beef")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBlockStoreRejectsUnminedBlock(t *testing.T) {
	stores := newMemoryStores(t)
	assert.Error(t, stores.Blocks.AddBlock(nil))
}

func TestBlockStoreReopenLevelDB(t *testing.T) {
	cfg := &StoreConfig{Type: LevelDBStoreType, Directory: t.TempDir()}
	stores, err := CreateStore(cfg)
	require.NoError(t, err)

	genesis := mineGenesis(t)
	require.NoError(t, stores.Blocks.AddBlock(genesis))
	stores.MustClose()

	reopened, err := CreateStore(cfg)
	require.NoError(t, err)
	defer reopened.MustClose()

	head, err := reopened.Blocks.Head()
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), head)
}

func TestWalletStore(t *testing.T) {
	stores := newMemoryStores(t)

	first, err := stores.Wallets.CreateWallet()
	require.NoError(t, err)
	second, err := stores.Wallets.CreateWallet()
	require.NoError(t, err)

	loaded, err := stores.Wallets.GetWallet(first.Address())
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey, loaded.PublicKey)
	assert.Equal(t, first.SecretKey, loaded.SecretKey)

	addresses, err := stores.Wallets.Addresses()
	require.NoError(t, err)
	assert.Len(t, addresses, 2)
	assert.Contains(t, addresses, first.Address())
	assert.Contains(t, addresses, second.Address())
	assert.IsIncreasing(t, addresses)

	_, err = stores.Wallets.GetWallet("unknown")
	assert.True(t, errors.Is(err, ledgererrors.ErrWalletNotFound))
}

func outputs(values ...int32) transaction.TXOutputs {
	var outs transaction.TXOutputs
	for i, v := range values {
		outs.Outputs = append(outs.Outputs, transaction.IndexedOutput{
			Index:  int32(i),
			Output: transaction.TXOutput{Value: v, PubKeyHash: []byte{byte(i)}},
		})
	}
	return outs
}

func TestUTXOStoreReplaceAndApply(t *testing.T) {
	stores := newMemoryStores(t)
	u := stores.UTXO

	tip, err := u.Tip()
	require.NoError(t, err)
	assert.Equal(t, "", tip)

	require.NoError(t, u.Replace(map[string]transaction.TXOutputs{
		"bb": outputs(5),
		"aa": outputs(1, 2),
	}, "tip1"))

	var order []string
	require.NoError(t, u.ForEach(func(txid string, outs transaction.TXOutputs) bool {
		order = append(order, txid)
		return true
	}))
	assert.Equal(t, []string{"aa", "bb"}, order)

	require.NoError(t, u.Apply(map[string]transaction.TXOutputs{
		"aa": {},
		"cc": outputs(7),
	}, "tip2"))

	gone, err := u.Get("aa")
	require.NoError(t, err)
	assert.Nil(t, gone)

	cc, err := u.Get("cc")
	require.NoError(t, err)
	require.NotNil(t, cc)
	assert.Equal(t, int32(7), cc.Outputs[0].Output.Value)

	tip, err = u.Tip()
	require.NoError(t, err)
	assert.Equal(t, "tip2", tip)

	require.NoError(t, u.Replace(map[string]transaction.TXOutputs{"dd": outputs(3)}, "tip3"))
	order = nil
	require.NoError(t, u.ForEach(func(txid string, _ transaction.TXOutputs) bool {
		order = append(order, txid)
		return true
	}))
	assert.Equal(t, []string{"dd"}, order)
}

func TestUTXOStoreForEachStopsEarly(t *testing.T) {
	stores := newMemoryStores(t)
	require.NoError(t, stores.UTXO.Replace(map[string]transaction.TXOutputs{
		"a": outputs(1), "b": outputs(1), "c": outputs(1),
	}, "tip"))

	visited := 0
	require.NoError(t, stores.UTXO.ForEach(func(string, transaction.TXOutputs) bool {
		visited++
		return false
	}))
	assert.Equal(t, 1, visited)
}

func TestBlockRejectsCorruptRecord(t *testing.T) {
	stores := newMemoryStores(t)
	genesis := mineGenesis(t)
	require.NoError(t, stores.Blocks.AddBlock(genesis))
	key := []byte(PrefixBlock + genesis.Hash())

	raw, err := stores.Provider.Get(key)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, jsonx.Unmarshal(raw, &rec))
	rec["nonce"] = genesis.Nonce() + 1
	bumped, err := jsonx.Marshal(rec)
	require.NoError(t, err)

	other, err := mineGenesis(t).Marshal()
	require.NoError(t, err)

	cases := map[string][]byte{
		"bumped nonce":  bumped,
		"foreign block": other,
		"garbage":       []byte("{not json"),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, stores.Provider.Put(key, value))
			_, err := stores.Blocks.Block(genesis.Hash())
			assert.True(t, errors.Is(err, ledgererrors.ErrCorruptBlock))
		})
	}
}
