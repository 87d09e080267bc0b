package stead

import (
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/stead/ledger"
)

// checkSourceAccount ensures that the token account at addr holds exactly one
// unit of asset on behalf of owner.
func checkSourceAccount(tx ledger.Tx, addr, asset crypto.Hash, owner crypto.PublicKey) error {
	ta, ok, err := ledger.TokenAccountAt(tx, addr)
	switch {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(ErrInvalidAccount, "no token account at %v", addr)
	case ta.Asset != asset:
		return errors.Wrapf(ErrInvalidAccount, "account %v holds a different asset", addr)
	case ta.Owner != ledger.KeyAddress(owner):
		return errors.Wrapf(ErrInvalidAccount, "account %v has a different owner", addr)
	case ta.Amount != 1:
		return errors.Wrapf(ErrInvalidAmount, "account %v holds %v units, expected 1", addr, ta.Amount)
	}
	return nil
}

// receivingAccount ensures that addr can receive asset on behalf of owner. If
// no account exists at addr, it must be owner's associated address, and the
// account is created at payer's expense.
func (p *Program) receivingAccount(tx ledger.Tx, addr, asset crypto.Hash, owner, payer crypto.PublicKey) error {
	ownerAddr := ledger.KeyAddress(owner)
	if ta, ok, err := ledger.TokenAccountAt(tx, addr); err != nil {
		return err
	} else if ok {
		if ta.Asset != asset || ta.Owner != ownerAddr {
			return errors.Wrapf(ErrInvalidAccount, "account %v cannot receive asset for owner", addr)
		}
		return nil
	}
	if err := checkAddress("receiving account", addr, ledger.AssociatedAddress(ownerAddr, asset)); err != nil {
		return err
	}
	_, err := ledger.OpenTokenAccount(tx, addr, asset, ownerAddr, ledger.KeyAddress(payer), p.depositRate)
	return err
}

// escrowIn opens a custody account at custody, owned by authority, and moves
// the single unit of asset from the owner's account into it. The deposit for
// the custody account is paid by owner.
func (p *Program) escrowIn(tx ledger.Tx, from, custody, authority, asset crypto.Hash, owner crypto.PublicKey) error {
	ownerAddr := ledger.KeyAddress(owner)
	if _, err := ledger.OpenTokenAccount(tx, custody, asset, authority, ownerAddr, p.depositRate); err != nil {
		return errors.Wrap(err, "could not open escrow")
	}
	if err := ledger.TransferTokens(tx, from, custody, ownerAddr, 1); err != nil {
		return errors.Wrap(err, "could not move asset into escrow")
	}
	return nil
}

// escrowOut moves the single unit held in custody to the account at to, then
// closes the custody account, crediting its deposit to refundTo. The refunded
// deposit is returned.
func (p *Program) escrowOut(tx ledger.Tx, custody, authority, to crypto.Hash, refundTo crypto.PublicKey) (types.Currency, error) {
	if err := ledger.TransferTokens(tx, custody, to, authority, 1); err != nil {
		return types.ZeroCurrency, errors.Wrap(err, "could not release asset from escrow")
	}
	refund, err := ledger.CloseTokenAccount(tx, custody, ledger.KeyAddress(refundTo))
	if err != nil {
		return types.ZeroCurrency, errors.Wrap(err, "could not close escrow")
	}
	return refund, nil
}
