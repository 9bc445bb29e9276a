package store

// Declare database key prefix for objects
const (
	PrefixBlock      = "blk:"
	PrefixBlockMeta  = "blk_meta:"
	BlockMetaKeyHead = "head"

	PrefixWallet = "wallet:"

	PrefixUTXO     = "utxo:"
	PrefixUTXOMeta = "utxo_meta:"
	UTXOMetaKeyTip = "tip"
)
