// Package stead implements an escrow-based exhibition marketplace. A renter
// places an asset on exhibit under the custody of the program; the exhibitor
// named by the renter may then consign other assets for sale, and each sale
// splits the buyer's payment among the exhibitor, the renter, and a protocol
// fee recipient.
//
// Every operation executes as a single unit of work against a ledger.Store:
// either all of its balance, custody, and record changes commit, or none do.
package stead

import (
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"gitlab.com/NebulousLabs/log"
	"lukechampine.com/stead/ledger"
)

// address derivation tags
var (
	specifierState        = ledger.NewSpecifier("state")
	specifierExhibition   = ledger.NewSpecifier("exhibition")
	specifierEscrow       = ledger.NewSpecifier("escrow")
	specifierTokenAccount = ledger.NewSpecifier("token_account")
	specifierItem         = ledger.NewSpecifier("item")
)

// StateAddress returns the address of the fee registry.
func StateAddress() crypto.Hash {
	return ledger.DeriveAddress(specifierState)
}

// ExhibitionAddress returns the address of the exhibition held by asset.
func ExhibitionAddress(asset crypto.Hash) crypto.Hash {
	return ledger.DeriveAddress(specifierExhibition, asset)
}

// EscrowAddress returns the custody authority of the exhibition held by
// asset. Every token account in the exhibition's custody is owned by this
// address.
func EscrowAddress(asset crypto.Hash) crypto.Hash {
	return ledger.DeriveAddress(specifierEscrow, asset)
}

// TokenAccountAddress returns the address of the escrow token account that
// holds asset while it is in custody.
func TokenAccountAddress(asset crypto.Hash) crypto.Hash {
	return ledger.DeriveAddress(specifierTokenAccount, asset)
}

// ItemAddress returns the address of the item record for asset within an
// exhibition.
func ItemAddress(exhibition, asset crypto.Hash) crypto.Hash {
	return ledger.DeriveAddress(specifierItem, exhibition, asset)
}

// A Program executes marketplace operations against a ledger.
type Program struct {
	store       ledger.Store
	depositRate types.Currency
	log         *log.Logger
}

// State returns the fee registry.
func (p *Program) State() (fr FeeRegistry, err error) {
	err = p.store.View(func(tx ledger.Tx) error {
		var ok bool
		var err error
		fr, ok, err = getState(tx)
		if err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
		return nil
	})
	return
}

// Exhibition returns the exhibition at addr.
func (p *Program) Exhibition(addr crypto.Hash) (ex Exhibition, err error) {
	err = p.store.View(func(tx ledger.Tx) error {
		var ok bool
		var err error
		ex, ok, err = getExhibition(tx, addr)
		if err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
		return nil
	})
	return
}

// Item returns the exhibition item at addr.
func (p *Program) Item(addr crypto.Hash) (item ExhibitionItem, err error) {
	err = p.store.View(func(tx ledger.Tx) error {
		var ok bool
		var err error
		item, ok, err = getItem(tx, addr)
		if err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
		return nil
	})
	return
}

// Items returns every item consigned to the exhibition at addr.
func (p *Program) Items(exhibition crypto.Hash) (items []ExhibitionItem, err error) {
	err = p.store.View(func(tx ledger.Tx) error {
		items, err = exhibitionItems(tx, exhibition)
		return err
	})
	return
}

// TokenAccount returns the token account at addr.
func (p *Program) TokenAccount(addr crypto.Hash) (ta ledger.TokenAccount, err error) {
	err = p.store.View(func(tx ledger.Tx) error {
		var ok bool
		var err error
		ta, ok, err = ledger.TokenAccountAt(tx, addr)
		if err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
		return nil
	})
	return
}

// Balance returns the native balance controlled by pk.
func (p *Program) Balance(pk crypto.PublicKey) (bal types.Currency, err error) {
	err = p.store.View(func(tx ledger.Tx) error {
		var err error
		bal, err = ledger.Balance(tx, ledger.KeyAddress(pk))
		return err
	})
	return
}

// Airdrop credits pk with newly-issued native currency. It is intended for
// development networks only.
func (p *Program) Airdrop(pk crypto.PublicKey, amount types.Currency) error {
	return p.store.Update(func(tx ledger.Tx) error {
		return ledger.Credit(tx, ledger.KeyAddress(pk), amount)
	})
}

// Mint issues amount units of asset into owner's associated token account and
// returns the account's address. It is intended for development networks
// only.
func (p *Program) Mint(asset crypto.Hash, owner crypto.PublicKey, amount uint64) (crypto.Hash, error) {
	addr := ledger.AssociatedAddress(ledger.KeyAddress(owner), asset)
	err := p.store.Update(func(tx ledger.Tx) error {
		return ledger.MintTo(tx, addr, asset, ledger.KeyAddress(owner), amount)
	})
	return addr, err
}

// New returns a Program backed by store. Records created by the program are
// charged a storage deposit of depositRate per byte. If logger is nil, log
// output is discarded.
func New(store ledger.Store, depositRate types.Currency, logger *log.Logger) *Program {
	if logger == nil {
		logger = log.DiscardLogger
	}
	return &Program{
		store:       store,
		depositRate: depositRate,
		log:         logger,
	}
}
