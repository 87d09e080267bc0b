package stead

import (
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/frand"
	"lukechampine.com/stead/ledger"
)

// An Instruction is a request to execute one program operation. The accounts
// it names are recomputed and checked by the program before execution.
type Instruction interface {
	specifier() ledger.Specifier
}

// instruction identifiers
var (
	specifierInitializeState      = ledger.NewSpecifier("InitState")
	specifierSetState             = ledger.NewSpecifier("SetState")
	specifierInitializeExhibition = ledger.NewSpecifier("InitExhibition")
	specifierDepositToken         = ledger.NewSpecifier("DepositToken")
	specifierWithdrawToken        = ledger.NewSpecifier("WithdrawToken")
	specifierBuyToken             = ledger.NewSpecifier("BuyToken")
	specifierCancelExhibition     = ledger.NewSpecifier("CancelExhibition")
	specifierCloseExhibition      = ledger.NewSpecifier("CloseExhibition")
)

func (InitializeState) specifier() ledger.Specifier      { return specifierInitializeState }
func (SetState) specifier() ledger.Specifier             { return specifierSetState }
func (InitializeExhibition) specifier() ledger.Specifier { return specifierInitializeExhibition }
func (DepositToken) specifier() ledger.Specifier         { return specifierDepositToken }
func (WithdrawToken) specifier() ledger.Specifier        { return specifierWithdrawToken }
func (BuyToken) specifier() ledger.Specifier             { return specifierBuyToken }
func (CancelExhibition) specifier() ledger.Specifier     { return specifierCancelExhibition }
func (CloseExhibition) specifier() ledger.Specifier      { return specifierCloseExhibition }

// InitializeState creates the fee registry. Payer signs and pays its deposit.
type InitializeState struct {
	State        crypto.Hash      `json:"state"`
	Payer        crypto.PublicKey `json:"payer"`
	FeeRecipient crypto.PublicKey `json:"feeRecipient"`
	FeeRateBps   uint16           `json:"feeRateBps"`
}

// SetState replaces the fee registry. Owner must be the current fee
// recipient.
type SetState struct {
	State        crypto.Hash      `json:"state"`
	Owner        crypto.PublicKey `json:"owner"`
	FeeRecipient crypto.PublicKey `json:"feeRecipient"`
	FeeRateBps   uint16           `json:"feeRateBps"`
}

// InitializeExhibition opens an exhibition held by Asset, moving the single
// unit in RenterAccount into escrow.
type InitializeExhibition struct {
	State         crypto.Hash      `json:"state"`
	Exhibition    crypto.Hash      `json:"exhibition"`
	Escrow        crypto.Hash      `json:"escrow"`
	Asset         crypto.Hash      `json:"asset"`
	TokenAccount  crypto.Hash      `json:"tokenAccount"`
	Renter        crypto.PublicKey `json:"renter"`
	RenterAccount crypto.Hash      `json:"renterAccount"`
	Exhibitor     crypto.PublicKey `json:"exhibitor"`
	RenterFeeBps  uint16           `json:"renterFeeBps"`
}

// DepositToken consigns the single unit in ExhibitorAccount for sale at
// Price.
type DepositToken struct {
	Exhibition       crypto.Hash      `json:"exhibition"`
	Item             crypto.Hash      `json:"item"`
	Escrow           crypto.Hash      `json:"escrow"`
	Asset            crypto.Hash      `json:"asset"`
	TokenAccount     crypto.Hash      `json:"tokenAccount"`
	Exhibitor        crypto.PublicKey `json:"exhibitor"`
	ExhibitorAccount crypto.Hash      `json:"exhibitorAccount"`
	Price            types.Currency   `json:"price"`
}

// WithdrawToken returns a consigned item to ExhibitorAccount.
type WithdrawToken struct {
	Exhibition       crypto.Hash      `json:"exhibition"`
	Item             crypto.Hash      `json:"item"`
	Escrow           crypto.Hash      `json:"escrow"`
	Asset            crypto.Hash      `json:"asset"`
	TokenAccount     crypto.Hash      `json:"tokenAccount"`
	Exhibitor        crypto.PublicKey `json:"exhibitor"`
	ExhibitorAccount crypto.Hash      `json:"exhibitorAccount"`
}

// BuyToken purchases a consigned item. Payment is the most the buyer is
// willing to pay; the buyer is charged the item's price.
type BuyToken struct {
	State        crypto.Hash      `json:"state"`
	Exhibition   crypto.Hash      `json:"exhibition"`
	Item         crypto.Hash      `json:"item"`
	Escrow       crypto.Hash      `json:"escrow"`
	Asset        crypto.Hash      `json:"asset"`
	TokenAccount crypto.Hash      `json:"tokenAccount"`
	Buyer        crypto.PublicKey `json:"buyer"`
	BuyerAccount crypto.Hash      `json:"buyerAccount"`
	Payment      types.Currency   `json:"payment"`
}

// CancelExhibition returns the exhibition asset to RenterAccount and stops
// further deposits and sales.
type CancelExhibition struct {
	Exhibition    crypto.Hash      `json:"exhibition"`
	Escrow        crypto.Hash      `json:"escrow"`
	TokenAccount  crypto.Hash      `json:"tokenAccount"`
	Renter        crypto.PublicKey `json:"renter"`
	RenterAccount crypto.Hash      `json:"renterAccount"`
}

// CloseExhibition deletes an exhibition with no remaining items. If the
// exhibition is still active, its asset is first returned to RenterAccount.
type CloseExhibition struct {
	Exhibition    crypto.Hash      `json:"exhibition"`
	Escrow        crypto.Hash      `json:"escrow"`
	TokenAccount  crypto.Hash      `json:"tokenAccount"`
	Renter        crypto.PublicKey `json:"renter"`
	RenterAccount crypto.Hash      `json:"renterAccount"`
}

// NewInitializeState returns an InitializeState with its accounts filled in.
func NewInitializeState(payer, feeRecipient crypto.PublicKey, feeRateBps uint16) InitializeState {
	return InitializeState{
		State:        StateAddress(),
		Payer:        payer,
		FeeRecipient: feeRecipient,
		FeeRateBps:   feeRateBps,
	}
}

// NewSetState returns a SetState with its accounts filled in.
func NewSetState(owner, feeRecipient crypto.PublicKey, feeRateBps uint16) SetState {
	return SetState{
		State:        StateAddress(),
		Owner:        owner,
		FeeRecipient: feeRecipient,
		FeeRateBps:   feeRateBps,
	}
}

// NewInitializeExhibition returns an InitializeExhibition with its accounts
// filled in, taking the asset from the renter's associated account.
func NewInitializeExhibition(asset crypto.Hash, renter, exhibitor crypto.PublicKey, renterFeeBps uint16) InitializeExhibition {
	return InitializeExhibition{
		State:         StateAddress(),
		Exhibition:    ExhibitionAddress(asset),
		Escrow:        EscrowAddress(asset),
		Asset:         asset,
		TokenAccount:  TokenAccountAddress(asset),
		Renter:        renter,
		RenterAccount: ledger.AssociatedAddress(ledger.KeyAddress(renter), asset),
		Exhibitor:     exhibitor,
		RenterFeeBps:  renterFeeBps,
	}
}

// NewDepositToken returns a DepositToken with its accounts filled in, taking
// the asset from the exhibitor's associated account.
func NewDepositToken(exhibitionAsset, asset crypto.Hash, exhibitor crypto.PublicKey, price types.Currency) DepositToken {
	exhibition := ExhibitionAddress(exhibitionAsset)
	return DepositToken{
		Exhibition:       exhibition,
		Item:             ItemAddress(exhibition, asset),
		Escrow:           EscrowAddress(exhibitionAsset),
		Asset:            asset,
		TokenAccount:     TokenAccountAddress(asset),
		Exhibitor:        exhibitor,
		ExhibitorAccount: ledger.AssociatedAddress(ledger.KeyAddress(exhibitor), asset),
		Price:            price,
	}
}

// NewWithdrawToken returns a WithdrawToken with its accounts filled in.
func NewWithdrawToken(exhibitionAsset, asset crypto.Hash, exhibitor crypto.PublicKey) WithdrawToken {
	exhibition := ExhibitionAddress(exhibitionAsset)
	return WithdrawToken{
		Exhibition:       exhibition,
		Item:             ItemAddress(exhibition, asset),
		Escrow:           EscrowAddress(exhibitionAsset),
		Asset:            asset,
		TokenAccount:     TokenAccountAddress(asset),
		Exhibitor:        exhibitor,
		ExhibitorAccount: ledger.AssociatedAddress(ledger.KeyAddress(exhibitor), asset),
	}
}

// NewBuyToken returns a BuyToken with its accounts filled in, delivering the
// asset to the buyer's associated account.
func NewBuyToken(exhibitionAsset, asset crypto.Hash, buyer crypto.PublicKey, payment types.Currency) BuyToken {
	exhibition := ExhibitionAddress(exhibitionAsset)
	return BuyToken{
		State:        StateAddress(),
		Exhibition:   exhibition,
		Item:         ItemAddress(exhibition, asset),
		Escrow:       EscrowAddress(exhibitionAsset),
		Asset:        asset,
		TokenAccount: TokenAccountAddress(asset),
		Buyer:        buyer,
		BuyerAccount: ledger.AssociatedAddress(ledger.KeyAddress(buyer), asset),
		Payment:      payment,
	}
}

// NewCancelExhibition returns a CancelExhibition with its accounts filled in.
func NewCancelExhibition(asset crypto.Hash, renter crypto.PublicKey) CancelExhibition {
	return CancelExhibition{
		Exhibition:    ExhibitionAddress(asset),
		Escrow:        EscrowAddress(asset),
		TokenAccount:  TokenAccountAddress(asset),
		Renter:        renter,
		RenterAccount: ledger.AssociatedAddress(ledger.KeyAddress(renter), asset),
	}
}

// NewCloseExhibition returns a CloseExhibition with its accounts filled in.
func NewCloseExhibition(asset crypto.Hash, renter crypto.PublicKey) CloseExhibition {
	return CloseExhibition{
		Exhibition:    ExhibitionAddress(asset),
		Escrow:        EscrowAddress(asset),
		TokenAccount:  TokenAccountAddress(asset),
		Renter:        renter,
		RenterAccount: ledger.AssociatedAddress(ledger.KeyAddress(renter), asset),
	}
}

// A Signature is a signature over a request's sighash.
type Signature struct {
	PublicKey crypto.PublicKey `json:"publicKey"`
	Signature crypto.Signature `json:"signature"`
}

// Auth carries the signatures authorizing a single request. The nonce makes
// otherwise-identical requests distinct.
type Auth struct {
	Nonce      [16]byte    `json:"nonce"`
	Signatures []Signature `json:"signatures"`
}

// SigHash returns the hash covered by the signatures authorizing ins.
func SigHash(ins Instruction, nonce [16]byte) crypto.Hash {
	return crypto.HashAll(ins.specifier(), ins, nonce)
}

// Sign appends a signature by sk to a.
func (a *Auth) Sign(ins Instruction, sk crypto.SecretKey) {
	a.Signatures = append(a.Signatures, Signature{
		PublicKey: sk.PublicKey(),
		Signature: crypto.SignHash(SigHash(ins, a.Nonce), sk),
	})
}

// NewAuth returns an Auth for ins with a fresh nonce, signed by each of keys.
func NewAuth(ins Instruction, keys ...crypto.SecretKey) Auth {
	a := Auth{Nonce: frand.Entropy128()}
	for _, sk := range keys {
		a.Sign(ins, sk)
	}
	return a
}
