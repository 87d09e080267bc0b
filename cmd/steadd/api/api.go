// Package api defines the request and response types of the steadd HTTP API,
// and a client for it.
package api

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/stead/stead"
)

// KeyString returns the hex encoding of pk, as used in API routes.
func KeyString(pk crypto.PublicKey) string {
	return hex.EncodeToString(pk[:])
}

// ParseKey parses a hex-encoded public key.
func ParseKey(s string) (pk crypto.PublicKey, err error) {
	if len(s) != hex.EncodedLen(len(pk)) {
		return crypto.PublicKey{}, errors.New("wrong key length")
	}
	_, err = hex.Decode(pk[:], []byte(s))
	return
}

// An Error is the body of a failed API request. Code identifies the program
// error, if any, that caused the failure.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Error implements error.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the program error identified by e.Code, allowing errors.Is
// to match remote errors against the sentinels of package stead.
func (e *Error) Unwrap() error { return stead.ErrorFromCode(e.Code) }

// RequestInitializeState is the request type for the POST /state endpoint.
type RequestInitializeState struct {
	Instruction stead.InitializeState `json:"instruction"`
	Auth        stead.Auth            `json:"auth"`
}

// RequestSetState is the request type for the PUT /state endpoint.
type RequestSetState struct {
	Instruction stead.SetState `json:"instruction"`
	Auth        stead.Auth     `json:"auth"`
}

// RequestInitializeExhibition is the request type for the POST /exhibitions
// endpoint.
type RequestInitializeExhibition struct {
	Instruction stead.InitializeExhibition `json:"instruction"`
	Auth        stead.Auth                 `json:"auth"`
}

// RequestCancelExhibition is the request type for the
// POST /exhibitions/:asset/cancel endpoint.
type RequestCancelExhibition struct {
	Instruction stead.CancelExhibition `json:"instruction"`
	Auth        stead.Auth             `json:"auth"`
}

// RequestCloseExhibition is the request type for the
// POST /exhibitions/:asset/close endpoint.
type RequestCloseExhibition struct {
	Instruction stead.CloseExhibition `json:"instruction"`
	Auth        stead.Auth            `json:"auth"`
}

// RequestDepositToken is the request type for the POST /items endpoint.
type RequestDepositToken struct {
	Instruction stead.DepositToken `json:"instruction"`
	Auth        stead.Auth         `json:"auth"`
}

// RequestWithdrawToken is the request type for the POST /items/:addr/withdraw
// endpoint.
type RequestWithdrawToken struct {
	Instruction stead.WithdrawToken `json:"instruction"`
	Auth        stead.Auth          `json:"auth"`
}

// RequestBuyToken is the request type for the POST /items/:addr/buy endpoint.
type RequestBuyToken struct {
	Instruction stead.BuyToken `json:"instruction"`
	Auth        stead.Auth     `json:"auth"`
}

// RequestAirdrop is the request type for the POST /dev/airdrop endpoint.
type RequestAirdrop struct {
	PublicKey crypto.PublicKey `json:"publicKey"`
	Amount    types.Currency   `json:"amount"`
}

// RequestMint is the request type for the POST /dev/mint endpoint.
type RequestMint struct {
	Asset  crypto.Hash      `json:"asset"`
	Owner  crypto.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// ResponseMint is the response type for the POST /dev/mint endpoint.
type ResponseMint struct {
	Account crypto.Hash `json:"account"`
}

// ResponseItems is the response type for the GET /exhibitions/:asset/items
// endpoint.
type ResponseItems []stead.ExhibitionItem
