package events

import (
	"time"
)

// EventType is an enum-like string type for chain events
type EventType string

const (
	EventBlockMined                 EventType = "BlockMined"
	EventTransactionIncludedInBlock EventType = "TransactionIncludedInBlock"
	EventTransactionRejected        EventType = "TransactionRejected"
)

// ChainEvent represents anything the ledger reports after a write attempt.
// Key is the block hash for block events and the transaction id otherwise.
type ChainEvent interface {
	Type() EventType
	Timestamp() time.Time
	Key() string
}

// BlockMined event when a block has been mined and persisted as the new head
type BlockMined struct {
	blockHash string
	height    int32
	txCount   int
	timestamp time.Time
}

func NewBlockMined(blockHash string, height int32, txCount int) *BlockMined {
	return &BlockMined{
		blockHash: blockHash,
		height:    height,
		txCount:   txCount,
		timestamp: time.Now(),
	}
}

func (e *BlockMined) Type() EventType {
	return EventBlockMined
}

func (e *BlockMined) Timestamp() time.Time {
	return e.timestamp
}

func (e *BlockMined) Key() string {
	return e.blockHash
}

func (e *BlockMined) Height() int32 {
	return e.height
}

func (e *BlockMined) TxCount() int {
	return e.txCount
}

// TransactionIncludedInBlock event when a transaction is included in a block
type TransactionIncludedInBlock struct {
	txHash    string
	height    int32
	blockHash string
	timestamp time.Time
}

func NewTransactionIncludedInBlock(txHash string, height int32, blockHash string) *TransactionIncludedInBlock {
	return &TransactionIncludedInBlock{
		txHash:    txHash,
		height:    height,
		blockHash: blockHash,
		timestamp: time.Now(),
	}
}

func (e *TransactionIncludedInBlock) Type() EventType {
	return EventTransactionIncludedInBlock
}

func (e *TransactionIncludedInBlock) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionIncludedInBlock) Key() string {
	return e.txHash
}

func (e *TransactionIncludedInBlock) Height() int32 {
	return e.height
}

func (e *TransactionIncludedInBlock) BlockHash() string {
	return e.blockHash
}

// TransactionRejected event when a transaction fails verification and no block is mined
type TransactionRejected struct {
	txHash       string
	errorMessage string
	timestamp    time.Time
}

func NewTransactionRejected(txHash string, errorMessage string) *TransactionRejected {
	return &TransactionRejected{
		txHash:       txHash,
		errorMessage: errorMessage,
		timestamp:    time.Now(),
	}
}

func (e *TransactionRejected) Type() EventType {
	return EventTransactionRejected
}

func (e *TransactionRejected) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionRejected) Key() string {
	return e.txHash
}

func (e *TransactionRejected) ErrorMessage() string {
	return e.errorMessage
}
