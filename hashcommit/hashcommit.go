// Package hashcommit holds the hashing primitives blocks commit to: SHA-256
// digests, the pairwise merge and the merkle root over a block's transaction ids.
package hashcommit

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a digest in bytes
const Size = sha256.Size

func Digest(data []byte) [Size]byte {
	return sha256.Sum256(data)
}

// HexDigest returns the lowercase hex form of Digest(data)
func HexDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Merge combines two nodes as SHA256(left ++ right)
func Merge(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// MerkleRoot builds a complete binary merkle tree over leaves and returns its root.
//
// The tree is stored as an array of 2n-1 nodes with the leaves in the last n
// slots; node i is Merge(node 2i+1, node 2i+2). A single leaf is its own root and
// an empty sequence has an empty root. Leaf order is significant.
func MerkleRoot(leaves [][]byte) []byte {
	n := len(leaves)
	if n == 0 {
		return []byte{}
	}

	nodes := make([][]byte, 2*n-1)
	copy(nodes[n-1:], leaves)
	for i := n - 2; i >= 0; i-- {
		nodes[i] = Merge(nodes[2*i+1], nodes[2*i+2])
	}

	return append([]byte(nil), nodes[0]...)
}
