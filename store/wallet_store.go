package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mezonai/utxochain/db"
	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/jsonx"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/wallet"
)

type WalletStore interface {
	Store(w *wallet.Wallet) error
	CreateWallet() (*wallet.Wallet, error)
	GetWallet(address string) (*wallet.Wallet, error)
	Addresses() ([]string, error)
}

type GenericWalletStore struct {
	mu         sync.RWMutex
	dbProvider db.DatabaseProvider
}

func NewGenericWalletStore(dbProvider db.DatabaseProvider) (*GenericWalletStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericWalletStore{
		dbProvider: dbProvider,
	}, nil
}

func (ws *GenericWalletStore) Store(w *wallet.Wallet) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	data, err := jsonx.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	if err := ws.dbProvider.Put(ws.getDbKey(w.Address()), data); err != nil {
		return fmt.Errorf("failed to write wallet to db: %w", err)
	}
	return nil
}

// CreateWallet generates a fresh key pair and persists it
func (ws *GenericWalletStore) CreateWallet() (*wallet.Wallet, error) {
	w, err := wallet.NewWallet()
	if err != nil {
		return nil, err
	}
	if err := ws.Store(w); err != nil {
		return nil, err
	}
	logx.Info("WALLET_STORE", "Created wallet ", w.Address())
	return w, nil
}

// GetWallet returns ErrWalletNotFound when the address has no stored key
func (ws *GenericWalletStore) GetWallet(address string) (*wallet.Wallet, error) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	data, err := ws.dbProvider.Get(ws.getDbKey(address))
	if err != nil {
		return nil, fmt.Errorf("could not get wallet %s from db: %w", address, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ledgererrors.ErrWalletNotFound, address)
	}

	var w wallet.Wallet
	if err := jsonx.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet %s: %w", address, err)
	}
	return &w, nil
}

// Addresses lists every stored wallet address in sorted order
func (ws *GenericWalletStore) Addresses() ([]string, error) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	var addresses []string
	err := ws.dbProvider.IteratePrefix([]byte(PrefixWallet), func(key, _ []byte) bool {
		addresses = append(addresses, strings.TrimPrefix(string(key), PrefixWallet))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	sort.Strings(addresses)
	return addresses, nil
}

func (ws *GenericWalletStore) getDbKey(addr string) []byte {
	return []byte(PrefixWallet + addr)
}
