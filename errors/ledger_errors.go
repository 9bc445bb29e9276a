package errors

import (
	stderrors "errors"

	"github.com/mezonai/utxochain/jsonx"
)

// LedgerErrorCode represents standardized error codes for ledger operations
type LedgerErrorCode string

const (
	// General errors
	ErrCodeInternal LedgerErrorCode = "internal_error"

	// Validation errors
	ErrCodeInvalidTransaction LedgerErrorCode = "invalid_transaction"
	ErrCodeInvalidSignature   LedgerErrorCode = "invalid_signature"
	ErrCodeCorruptAddress     LedgerErrorCode = "corrupt_address"
	ErrCodeInvalidAmount      LedgerErrorCode = "invalid_amount"

	// Business logic errors
	ErrCodeInsufficientFunds      LedgerErrorCode = "insufficient_funds"
	ErrCodeMissingPrevTransaction LedgerErrorCode = "missing_prev_transaction"
	ErrCodeWalletNotFound         LedgerErrorCode = "wallet_not_found"

	// Lifecycle errors
	ErrCodeNoLedgerFound       LedgerErrorCode = "no_ledger_found"
	ErrCodeLedgerAlreadyExists LedgerErrorCode = "ledger_already_exists"
	ErrCodeStaleIndex          LedgerErrorCode = "stale_index"
	ErrCodeCorruptBlock        LedgerErrorCode = "corrupt_block"
)

// LedgerError represents a standardized ledger error
type LedgerError struct {
	Code    LedgerErrorCode `json:"code"`
	Message string          `json:"message"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	err, _ := jsonx.Marshal(LedgerError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(err)
}

// Error message constants
const (
	ErrMsgInvalidTransaction     = "Transaction signature verification failed"
	ErrMsgInvalidSignature       = "Transaction signature is invalid"
	ErrMsgCorruptAddress         = "Address is malformed or its checksum does not match"
	ErrMsgInvalidAmount          = "Amount must be greater than zero"
	ErrMsgInsufficientFunds      = "Not enough balance in your wallet"
	ErrMsgMissingPrevTransaction = "Referenced previous transaction could not be found"
	ErrMsgWalletNotFound         = "Wallet does not exist in the wallet store"
	ErrMsgNoLedgerFound          = "No existing blockchain found, create one first"
	ErrMsgLedgerAlreadyExists    = "Blockchain already exists"
	ErrMsgStaleIndex             = "UTXO index does not match the chain head, reindex first"
	ErrMsgCorruptBlock           = "Stored block is corrupt or does not link to its successor"
)

// Sentinel errors. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrInvalidTransaction     = NewError(ErrCodeInvalidTransaction, ErrMsgInvalidTransaction)
	ErrInvalidSignature       = NewError(ErrCodeInvalidSignature, ErrMsgInvalidSignature)
	ErrCorruptAddress         = NewError(ErrCodeCorruptAddress, ErrMsgCorruptAddress)
	ErrInvalidAmount          = NewError(ErrCodeInvalidAmount, ErrMsgInvalidAmount)
	ErrInsufficientFunds      = NewError(ErrCodeInsufficientFunds, ErrMsgInsufficientFunds)
	ErrMissingPrevTransaction = NewError(ErrCodeMissingPrevTransaction, ErrMsgMissingPrevTransaction)
	ErrWalletNotFound         = NewError(ErrCodeWalletNotFound, ErrMsgWalletNotFound)
	ErrNoLedgerFound          = NewError(ErrCodeNoLedgerFound, ErrMsgNoLedgerFound)
	ErrLedgerAlreadyExists    = NewError(ErrCodeLedgerAlreadyExists, ErrMsgLedgerAlreadyExists)
	ErrStaleIndex             = NewError(ErrCodeStaleIndex, ErrMsgStaleIndex)
	ErrCorruptBlock           = NewError(ErrCodeCorruptBlock, ErrMsgCorruptBlock)
)

// NewError creates a new LedgerError and returns it as error interface
func NewError(code LedgerErrorCode, message string) error {
	return &LedgerError{
		Code:    code,
		Message: message,
	}
}

// CodeOf returns the code of the first LedgerError in err's chain, or ErrCodeInternal.
func CodeOf(err error) LedgerErrorCode {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ErrCodeInternal
}
