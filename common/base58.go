package common

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	ledgererrors "github.com/mezonai/utxochain/errors"
)

const (
	// AddressVersion is the leading byte of every encoded address
	AddressVersion byte = 0x05
	// PubKeyHashLen is the length of RIPEMD160(SHA256(pub))
	PubKeyHashLen = 20
	// ChecksumLen is the number of double-SHA256 bytes appended to an address
	ChecksumLen = 4
)

// EncodeBytesToBase58 encodes bytes directly to base58
func EncodeBytesToBase58(bytes []byte) string {
	return base58.Encode(bytes)
}

// DecodeBase58ToBytes decodes base58 string to bytes
func DecodeBase58ToBytes(base58Str string) ([]byte, error) {
	bytes, err := base58.Decode(base58Str)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base58 string: %w", err)
	}
	return bytes, nil
}

// Checksum returns the first ChecksumLen bytes of SHA256(SHA256(payload))
func Checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:ChecksumLen]
}

// EncodeAddress encodes version ++ pubKeyHash ++ checksum as base58
func EncodeAddress(pubKeyHash []byte) string {
	payload := make([]byte, 0, 1+len(pubKeyHash)+ChecksumLen)
	payload = append(payload, AddressVersion)
	payload = append(payload, pubKeyHash...)
	payload = append(payload, Checksum(payload)...)
	return EncodeBytesToBase58(payload)
}

// DecodeAddress validates the checksum and version of address and returns the
// embedded public key hash.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := DecodeBase58ToBytes(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgererrors.ErrCorruptAddress, err)
	}
	if len(raw) != 1+PubKeyHashLen+ChecksumLen {
		return nil, fmt.Errorf("%w: unexpected length %d", ledgererrors.ErrCorruptAddress, len(raw))
	}

	body, sum := raw[:len(raw)-ChecksumLen], raw[len(raw)-ChecksumLen:]
	if !bytes.Equal(Checksum(body), sum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ledgererrors.ErrCorruptAddress)
	}
	if body[0] != AddressVersion {
		return nil, fmt.Errorf("%w: unknown version 0x%02x", ledgererrors.ErrCorruptAddress, body[0])
	}

	return append([]byte(nil), body[1:]...), nil
}

// IsValidAddress checks if a string decodes to a well-formed address
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}
