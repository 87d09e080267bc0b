package stead

import (
	"github.com/pkg/errors"
	"lukechampine.com/stead/ledger"
)

// A programError is a classified program failure. Its code is stable across
// the wire, and a refined error unwraps to its broader kind.
type programError struct {
	code string
	msg  string
	kind error
}

func (e *programError) Error() string { return e.msg }
func (e *programError) Unwrap() error { return e.kind }

func newError(code, msg string, kind error) *programError {
	return &programError{code: code, msg: msg, kind: kind}
}

// Errors returned by program operations. Every error aborts the operation
// that returned it.
var (
	ErrUnauthorized       = newError("Unauthorized", "unauthorized signer", nil)
	ErrMissingSignature   = newError("MissingSignature", "missing required signature", ErrUnauthorized)
	ErrWrongExhibitor     = newError("WrongExhibitor", "signer is not the exhibition's exhibitor", ErrUnauthorized)
	ErrInvalidState       = newError("InvalidState", "operation not valid in current state", nil)
	ErrAlreadyInitialized = newError("AlreadyInitialized", "record already initialized", nil)
	ErrNotFound           = newError("NotFound", "record not found", nil)
	ErrInvalidAmount      = newError("InvalidAmount", "invalid amount", nil)
	ErrInvalidAccount     = newError("InvalidAccount", "supplied account does not match", nil)
	ErrPriceMismatch      = newError("PriceMismatch", "payment is less than price", nil)
	ErrItemsRemaining     = newError("ItemsRemaining", "exhibition still holds items", nil)
	ErrFeeOutOfRange      = newError("FeeOutOfRange", "fee out of range", nil)
	ErrReplayed           = newError("Replayed", "request already executed", nil)
)

var errorCodes = []struct {
	code string
	err  error
}{
	{"Unauthorized", ErrUnauthorized},
	{"MissingSignature", ErrMissingSignature},
	{"WrongExhibitor", ErrWrongExhibitor},
	{"InvalidState", ErrInvalidState},
	{"AlreadyInitialized", ErrAlreadyInitialized},
	{"NotFound", ErrNotFound},
	{"InvalidAmount", ErrInvalidAmount},
	{"InvalidAccount", ErrInvalidAccount},
	{"PriceMismatch", ErrPriceMismatch},
	{"ItemsRemaining", ErrItemsRemaining},
	{"FeeOutOfRange", ErrFeeOutOfRange},
	{"Replayed", ErrReplayed},
	{"InsufficientFunds", ledger.ErrInsufficientFunds},
	{"InsufficientTokens", ledger.ErrInsufficientTokens},
	{"NoAccount", ledger.ErrNoAccount},
	{"AccountExists", ledger.ErrAccountExists},
	{"AccountNotEmpty", ledger.ErrAccountNotEmpty},
	{"WrongAuthority", ledger.ErrWrongAuthority},
	{"AssetMismatch", ledger.ErrAssetMismatch},
}

// ErrorCode returns the stable code classifying err, or the empty string if
// err is not a program or ledger error.
func ErrorCode(err error) string {
	var pe *programError
	if errors.As(err, &pe) {
		return pe.code
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorFromCode returns the error identified by code, or nil if the code is
// unknown.
func ErrorFromCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
