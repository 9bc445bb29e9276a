package transaction

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math"
	"strings"

	ledgererrors "github.com/mezonai/utxochain/errors"
	"github.com/mezonai/utxochain/hashcommit"
	"github.com/mezonai/utxochain/utils"
	"github.com/mezonai/utxochain/wallet"
)

const (
	// Subsidy is the value minted by every coinbase transaction
	Subsidy int32 = 100
	// CoinbaseVout marks the single input of a coinbase transaction
	CoinbaseVout int32 = -1
)

// TXInput references a previous output by (Txid, Vout)
type TXInput struct {
	Txid      string `json:"txid"`
	Vout      int32  `json:"vout"`
	Signature []byte `json:"signature"`
	PubKey    []byte `json:"pub_key"`
}

// UsesKey reports whether the input was created by the owner of pubKeyHash
func (in *TXInput) UsesKey(pubKeyHash []byte) bool {
	return bytes.Equal(wallet.HashPubKey(in.PubKey), pubKeyHash)
}

// TXOutput locks Value to the holder of PubKeyHash
type TXOutput struct {
	Value      int32  `json:"value"`
	PubKeyHash []byte `json:"pub_key_hash"`
}

// NewTXOutput creates an output of value locked to address
func NewTXOutput(value int32, address string) (TXOutput, error) {
	out := TXOutput{Value: value}
	if err := out.Lock(address); err != nil {
		return TXOutput{}, err
	}
	return out, nil
}

// Lock sets the output's public key hash from address
func (out *TXOutput) Lock(address string) error {
	pubKeyHash, err := wallet.PubKeyHashFromAddress(address)
	if err != nil {
		return err
	}
	out.PubKeyHash = pubKeyHash
	return nil
}

// IsLockedWithKey reports whether the output can be spent by the owner of pubKeyHash
func (out *TXOutput) IsLockedWithKey(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// Outpoint identifies a single output of a transaction
type Outpoint struct {
	Txid string `json:"txid"`
	Vout int32  `json:"vout"`
}

// IndexedOutput is an output together with its position in the defining transaction
type IndexedOutput struct {
	Index  int32    `json:"index"`
	Output TXOutput `json:"output"`
}

// TXOutputs is the unspent remainder of one transaction's outputs, ordered by Index
type TXOutputs struct {
	Outputs []IndexedOutput `json:"outputs"`
}

// Transaction moves value from referenced outputs to new outputs
type Transaction struct {
	ID   string     `json:"id"`
	Vin  []TXInput  `json:"vin"`
	Vout []TXOutput `json:"vout"`
}

// OutputSource supplies spendable outputs and the previous transactions needed for signing.
type OutputSource interface {
	FindSpendableOutputs(pubKeyHash []byte, amount int64) (int64, []Outpoint, error)
	PrevTransactions(tx *Transaction) (map[string]Transaction, error)
}

// NewCoinbase builds the reward transaction paying Subsidy to address.
// An empty memo is replaced by a default reward string.
func NewCoinbase(to, memo string) (*Transaction, error) {
	if memo == "" {
		memo = fmt.Sprintf("Reward to '%s'", to)
	}

	out, err := NewTXOutput(Subsidy, to)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		Vin: []TXInput{{
			Txid:   "",
			Vout:   CoinbaseVout,
			PubKey: []byte(memo),
		}},
		Vout: []TXOutput{out},
	}
	tx.ID = tx.Hash()
	return tx, nil
}

// NewSpend builds and signs a transaction moving amount from w to the address to.
// Change goes back to w's own address.
func NewSpend(w *wallet.Wallet, to string, amount int32, src OutputSource) (*Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d", ledgererrors.ErrInvalidAmount, amount)
	}

	payment, err := NewTXOutput(amount, to)
	if err != nil {
		return nil, err
	}

	acc, spendable, err := src.FindSpendableOutputs(w.PubKeyHash(), int64(amount))
	if err != nil {
		return nil, fmt.Errorf("could not collect spendable outputs: %w", err)
	}
	if acc < int64(amount) {
		return nil, fmt.Errorf("%w: current balance %d, requested %d", ledgererrors.ErrInsufficientFunds, acc, amount)
	}

	tx := &Transaction{
		Vin:  make([]TXInput, 0, len(spendable)),
		Vout: []TXOutput{payment},
	}
	for _, op := range spendable {
		tx.Vin = append(tx.Vin, TXInput{
			Txid:   op.Txid,
			Vout:   op.Vout,
			PubKey: append([]byte(nil), w.PublicKey...),
		})
	}
	if rest := acc - int64(amount); rest > 0 {
		if rest > math.MaxInt32 {
			return nil, fmt.Errorf("%w: change %d does not fit in one output", ledgererrors.ErrInvalidAmount, rest)
		}
		change, err := NewTXOutput(int32(rest), w.Address())
		if err != nil {
			return nil, err
		}
		tx.Vout = append(tx.Vout, change)
	}

	tx.ID = tx.Hash()

	prevTXs, err := src.PrevTransactions(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Sign(w.PrivateKey(), prevTXs); err != nil {
		return nil, err
	}
	return tx, nil
}

// IsCoinbase checks whether the transaction is coinbase
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Vin) == 1 && tx.Vin[0].Txid == "" && tx.Vin[0].Vout == CoinbaseVout
}

// Serialize returns the canonical encoding of the transaction, ID included
func (tx *Transaction) Serialize() []byte {
	enc := utils.NewEncoder(256)
	enc.String(tx.ID)
	enc.Len(len(tx.Vin))
	for _, in := range tx.Vin {
		enc.String(in.Txid).Int32(in.Vout).Bytes(in.Signature).Bytes(in.PubKey)
	}
	enc.Len(len(tx.Vout))
	for _, out := range tx.Vout {
		enc.Int32(out.Value).Bytes(out.PubKeyHash)
	}
	return enc.Encoded()
}

// Hash returns the hex SHA-256 of the transaction with its ID cleared
func (tx *Transaction) Hash() string {
	cp := *tx
	cp.ID = ""
	return hashcommit.HexDigest(cp.Serialize())
}

// TrimmedCopy returns a deep copy with every input signature and public key cleared
func (tx *Transaction) TrimmedCopy() Transaction {
	vin := make([]TXInput, 0, len(tx.Vin))
	for _, in := range tx.Vin {
		vin = append(vin, TXInput{Txid: in.Txid, Vout: in.Vout})
	}

	vout := make([]TXOutput, 0, len(tx.Vout))
	for _, out := range tx.Vout {
		vout = append(vout, TXOutput{
			Value:      out.Value,
			PubKeyHash: append([]byte(nil), out.PubKeyHash...),
		})
	}

	return Transaction{ID: tx.ID, Vin: vin, Vout: vout}
}

// Sign signs every input against its referenced output. Each input's payload is the
// hex ID string of a trimmed copy in which only that input carries the referenced
// output's public key hash.
func (tx *Transaction) Sign(privKey ed25519.PrivateKey, prevTXs map[string]Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}
	if err := tx.checkPrevTransactions(prevTXs); err != nil {
		return err
	}

	txCopy := tx.TrimmedCopy()
	for i := range txCopy.Vin {
		tx.Vin[i].Signature = ed25519.Sign(privKey, txCopy.signingPayload(i, prevTXs))
	}
	return nil
}

// Verify checks that every input is signed by the owner of the output it spends.
// A bad signature or foreign key yields false, a missing previous transaction
// yields an error.
func (tx *Transaction) Verify(prevTXs map[string]Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}
	if err := tx.checkPrevTransactions(prevTXs); err != nil {
		return false, err
	}

	txCopy := tx.TrimmedCopy()
	for i, in := range tx.Vin {
		payload := txCopy.signingPayload(i, prevTXs)
		if len(in.PubKey) != ed25519.PublicKeySize {
			return false, nil
		}
		if !in.UsesKey(prevTXs[in.Txid].Vout[in.Vout].PubKeyHash) {
			return false, nil
		}
		if !ed25519.Verify(ed25519.PublicKey(in.PubKey), payload, in.Signature) {
			return false, nil
		}
	}
	return true, nil
}

// signingPayload recomputes the trimmed copy's ID with input i asserting the
// referenced output's owner, then clears that field again.
func (tx *Transaction) signingPayload(i int, prevTXs map[string]Transaction) []byte {
	in := &tx.Vin[i]
	prev := prevTXs[in.Txid]

	in.Signature = nil
	in.PubKey = prev.Vout[in.Vout].PubKeyHash
	tx.ID = tx.Hash()
	in.PubKey = nil

	return []byte(tx.ID)
}

func (tx *Transaction) checkPrevTransactions(prevTXs map[string]Transaction) error {
	for _, in := range tx.Vin {
		prev, ok := prevTXs[in.Txid]
		if !ok || prev.ID == "" {
			return fmt.Errorf("%w: %s", ledgererrors.ErrMissingPrevTransaction, in.Txid)
		}
		if in.Vout < 0 || int(in.Vout) >= len(prev.Vout) {
			return fmt.Errorf("%w: %s has no output %d", ledgererrors.ErrMissingPrevTransaction, in.Txid, in.Vout)
		}
	}
	return nil
}

// Clone returns a deep copy
func (tx *Transaction) Clone() Transaction {
	cp := Transaction{ID: tx.ID}
	for _, in := range tx.Vin {
		cp.Vin = append(cp.Vin, TXInput{
			Txid:      in.Txid,
			Vout:      in.Vout,
			Signature: append([]byte(nil), in.Signature...),
			PubKey:    append([]byte(nil), in.PubKey...),
		})
	}
	for _, out := range tx.Vout {
		cp.Vout = append(cp.Vout, TXOutput{Value: out.Value, PubKeyHash: append([]byte(nil), out.PubKeyHash...)})
	}
	return cp
}

func (tx Transaction) String() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("--- Transaction %s:", tx.ID))
	for i, in := range tx.Vin {
		lines = append(lines,
			fmt.Sprintf("     Input %d:", i),
			fmt.Sprintf("       TXID:      %s", in.Txid),
			fmt.Sprintf("       Out:       %d", in.Vout),
			fmt.Sprintf("       Signature: %x", in.Signature),
			fmt.Sprintf("       PubKey:    %x", in.PubKey),
		)
	}
	for i, out := range tx.Vout {
		lines = append(lines,
			fmt.Sprintf("     Output %d:", i),
			fmt.Sprintf("       Value:  %d", out.Value),
			fmt.Sprintf("       Script: %x", out.PubKeyHash),
		)
	}
	return strings.Join(lines, "\n")
}
