package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address format is RIPEMD160(SHA256(pub))

	"github.com/mezonai/utxochain/common"
)

// Wallet represents a user's ed25519 keypair. The address is derived from the public key.
type Wallet struct {
	SecretKey []byte `json:"secret_key"`
	PublicKey []byte `json:"public_key"`
}

// NewWallet generates a new wallet.
func NewWallet() (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	return &Wallet{
		SecretKey: priv,
		PublicKey: pub,
	}, nil
}

// PrivateKey returns the signing key
func (w *Wallet) PrivateKey() ed25519.PrivateKey {
	return ed25519.PrivateKey(w.SecretKey)
}

// PubKeyHash returns RIPEMD160(SHA256(public key))
func (w *Wallet) PubKeyHash() []byte {
	return HashPubKey(w.PublicKey)
}

// Address returns the Base58Check encoded address of the wallet
func (w *Wallet) Address() string {
	return common.EncodeAddress(w.PubKeyHash())
}

// HashPubKey hashes a public key into the 20-byte form locked into outputs
func HashPubKey(pubKey []byte) []byte {
	sum := sha256.Sum256(pubKey)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// ValidateAddress checks the version byte and checksum of address
func ValidateAddress(address string) bool {
	return common.IsValidAddress(address)
}

// PubKeyHashFromAddress decodes address into the hash outputs are locked to
func PubKeyHashFromAddress(address string) ([]byte, error) {
	return common.DecodeAddress(address)
}
