package block

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mezonai/utxochain/hashcommit"
	"github.com/mezonai/utxochain/jsonx"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/monitoring"
	"github.com/mezonai/utxochain/transaction"
	"github.com/mezonai/utxochain/utils"
)

// TargetHexZeros is the number of leading '0' hex characters a block hash must have
const TargetHexZeros = 4

var targetPrefix = strings.Repeat("0", TargetHexZeros)

// ProgressInterval is the number of nonces between mining progress log lines
var ProgressInterval int32 = 1 << 16

// Block is immutable once mined. Fields are exposed through accessors only.
type Block struct {
	timestamp     uint64
	transactions  []transaction.Transaction
	prevBlockHash string
	hash          string
	height        int32
	nonce         int32
}

// record is the persisted shape of a Block
type record struct {
	Timestamp     uint64                    `json:"timestamp"`
	Transactions  []transaction.Transaction `json:"transactions"`
	PrevBlockHash string                    `json:"prev_block_hash"`
	Hash          string                    `json:"hash"`
	Height        int32                     `json:"height"`
	Nonce         int32                     `json:"nonce"`
}

// NewGenesisBlock mines the first block of a chain holding only coinbase
func NewGenesisBlock(coinbase *transaction.Transaction) (*Block, error) {
	return Mine([]transaction.Transaction{*coinbase}, "", 0)
}

// Mine searches for a nonce that makes the block hash meet the difficulty target.
// There is no upper bound on the number of attempts.
func Mine(txs []transaction.Transaction, prevBlockHash string, height int32) (*Block, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("block at height %d has no transactions", height)
	}
	b := &Block{
		timestamp:     utils.NowMillis(),
		transactions:  cloneTransactions(txs),
		prevBlockHash: prevBlockHash,
		height:        height,
	}

	b.runProofOfWork()
	return b, nil
}

func (b *Block) runProofOfWork() {
	logx.Info("BLOCK", fmt.Sprintf("Mining the block at height %d with %d transactions", b.height, len(b.transactions)))
	start := time.Now()

	// the merkle root does not depend on the nonce
	root := b.MerkleRoot()

	var attempts int64
	for {
		attempts++
		hash := hashcommit.HexDigest(b.payload(root))
		if meetsTarget(hash) {
			b.hash = hash
			break
		}

		if b.nonce == math.MaxInt32 {
			// nonce space exhausted for this timestamp
			b.timestamp = utils.NowMillis()
			b.nonce = 0
			continue
		}
		b.nonce++
		if ProgressInterval > 0 && b.nonce%ProgressInterval == 0 {
			logx.Debug("BLOCK", fmt.Sprintf("Still mining height %d, nonce %d", b.height, b.nonce))
		}
	}

	end := time.Now()
	elapsed := end.Sub(start)
	monitoring.RecordMinedBlock(attempts, elapsed, len(b.transactions))

	rate := 0.0
	if secs := utils.SecondsBetween(start, end); secs > 0 {
		rate = float64(attempts) / secs
	}
	logx.Info("BLOCK", fmt.Sprintf("Mined block %s at height %d after %d attempts in %s (%.0f H/s)",
		utils.ShortenLog(b.hash), b.height, attempts, elapsed, rate))
}

func meetsTarget(hash string) bool {
	return strings.HasPrefix(hash, targetPrefix)
}

// MerkleRoot commits to the transaction ids in block order. Each leaf is the
// ASCII bytes of the hex id string.
func (b *Block) MerkleRoot() []byte {
	leaves := make([][]byte, 0, len(b.transactions))
	for i := range b.transactions {
		leaves = append(leaves, []byte(b.transactions[i].ID))
	}
	return hashcommit.MerkleRoot(leaves)
}

// HashPayload returns the canonical bytes hashed into the block hash:
// (prev_hash string, merkle_root bytes, timestamp u128, target u64, nonce i32)
func (b *Block) HashPayload() []byte {
	return b.payload(b.MerkleRoot())
}

func (b *Block) payload(merkleRoot []byte) []byte {
	return utils.NewEncoder(len(b.prevBlockHash) + len(merkleRoot) + 48).
		String(b.prevBlockHash).
		Bytes(merkleRoot).
		Uint128(b.timestamp).
		Uint64(TargetHexZeros).
		Int32(b.nonce).
		Encoded()
}

// Validate recomputes the hash from the stored fields and checks it against the
// stored hash and the difficulty target
func (b *Block) Validate() bool {
	hash := hashcommit.HexDigest(b.HashPayload())
	return hash == b.hash && meetsTarget(hash)
}

func (b *Block) Height() int32 {
	return b.height
}

// Transactions returns a copy of the block's transactions
func (b *Block) Transactions() []transaction.Transaction {
	return cloneTransactions(b.transactions)
}

func (b *Block) PrevHash() string {
	return b.prevBlockHash
}

func (b *Block) Hash() string {
	return b.hash
}

// Timestamp is the mining start time in milliseconds since the Unix epoch
func (b *Block) Timestamp() uint64 {
	return b.timestamp
}

func (b *Block) Nonce() int32 {
	return b.nonce
}

// IsGenesis reports whether the block has no parent
func (b *Block) IsGenesis() bool {
	return b.prevBlockHash == ""
}

func (b *Block) record() record {
	return record{
		Timestamp:     b.timestamp,
		Transactions:  b.transactions,
		PrevBlockHash: b.prevBlockHash,
		Hash:          b.hash,
		Height:        b.height,
		Nonce:         b.nonce,
	}
}

// Marshal serializes the block for the block store
func (b *Block) Marshal() ([]byte, error) {
	return jsonx.Marshal(b.record())
}

// MarshalIndent renders the stored record with indentation for display
func (b *Block) MarshalIndent(indent string) ([]byte, error) {
	return jsonx.MarshalIndent(b.record(), "", indent)
}

// Unmarshal restores a block written by Marshal
func Unmarshal(data []byte) (*Block, error) {
	var r record
	if err := jsonx.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return &Block{
		timestamp:     r.Timestamp,
		transactions:  r.Transactions,
		prevBlockHash: r.PrevBlockHash,
		hash:          r.Hash,
		height:        r.Height,
		nonce:         r.Nonce,
	}, nil
}

func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "============ Block %s ============\n", b.hash)
	fmt.Fprintf(&sb, "Height: %d\n", b.height)
	fmt.Fprintf(&sb, "Prev. block: %s\n", b.prevBlockHash)
	fmt.Fprintf(&sb, "Timestamp: %d\n", b.timestamp)
	fmt.Fprintf(&sb, "Nonce: %d\n", b.nonce)
	fmt.Fprintf(&sb, "PoW: %t\n", b.Validate())
	for _, tx := range b.transactions {
		sb.WriteString(tx.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func cloneTransactions(txs []transaction.Transaction) []transaction.Transaction {
	out := make([]transaction.Transaction, len(txs))
	for i := range txs {
		out[i] = txs[i].Clone()
	}
	return out
}
