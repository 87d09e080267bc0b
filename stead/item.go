package stead

import (
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/stead/ledger"
)

// DepositToken consigns the exhibitor's single unit of ins.Asset for sale at
// ins.Price.
func (p *Program) DepositToken(ins DepositToken, auth Auth) (item ExhibitionItem, err error) {
	err = p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		ex, ok, err := getExhibition(tx, ins.Exhibition)
		if err != nil {
			return err
		} else if !ok {
			return errors.Wrapf(ErrNotFound, "no exhibition at %v", ins.Exhibition)
		} else if err := checkItemAccounts(ins.Exhibition, ins.Item, ins.Escrow, ins.Asset, ins.TokenAccount, ex); err != nil {
			return err
		} else if err := checkRole("exhibitor", ins.Exhibitor, ex.Exhibitor, ErrWrongExhibitor); err != nil {
			return err
		} else if err := signers.require("exhibitor", ins.Exhibitor); err != nil {
			return err
		}
		switch ex.Status {
		case StatusActive:
		case StatusCancelled:
			return errors.Wrap(ErrInvalidState, "exhibition is cancelled")
		default:
			return errors.Wrapf(ErrInvalidState, "unknown status %v", ex.Status)
		}
		if ins.Price.IsZero() {
			return errors.Wrap(ErrInvalidAmount, "price must be positive")
		}
		if _, exists, err := getItem(tx, ins.Item); err != nil {
			return err
		} else if exists {
			return errors.Wrap(ErrAlreadyInitialized, "item already deposited")
		} else if err := checkSourceAccount(tx, ins.ExhibitorAccount, ins.Asset, ins.Exhibitor); err != nil {
			return err
		}

		item = ExhibitionItem{
			Exhibition:   ins.Exhibition,
			Asset:        ins.Asset,
			TokenAccount: ins.TokenAccount,
			Price:        ins.Price,
		}
		deposit, err := p.chargeDeposit(tx, item, ins.Exhibitor)
		if err != nil {
			return err
		}
		item.Deposit = deposit
		if err := putRecord(tx, bucketItems, ins.Item, item); err != nil {
			return err
		} else if err := p.escrowIn(tx, ins.ExhibitorAccount, ins.TokenAccount, ins.Escrow, ins.Asset, ins.Exhibitor); err != nil {
			return err
		}
		ex.NumItems++
		return putRecord(tx, bucketExhibitions, ins.Exhibition, ex)
	})
	if err != nil {
		return ExhibitionItem{}, err
	}
	p.log.Printf("INFO: item %v deposited at price %v", ins.Item, ins.Price)
	return item, nil
}

// checkItemAccounts recomputes the addresses of an item within ex.
func checkItemAccounts(exhibition, item, escrow, asset, tokenAccount crypto.Hash, ex Exhibition) error {
	if err := checkAddress("item", item, ItemAddress(exhibition, asset)); err != nil {
		return err
	} else if err := checkAddress("escrow", escrow, EscrowAddress(ex.Asset)); err != nil {
		return err
	}
	return checkAddress("token account", tokenAccount, TokenAccountAddress(asset))
}

// loadItem loads an exhibition and one of its items, checking the supplied
// accounts against them.
func loadItem(tx ledger.Tx, exhibition, itemAddr, escrow, asset, tokenAccount crypto.Hash) (Exhibition, ExhibitionItem, error) {
	ex, ok, err := getExhibition(tx, exhibition)
	if err != nil {
		return Exhibition{}, ExhibitionItem{}, err
	} else if !ok {
		return Exhibition{}, ExhibitionItem{}, errors.Wrapf(ErrNotFound, "no exhibition at %v", exhibition)
	}
	item, ok, err := getItem(tx, itemAddr)
	if err != nil {
		return Exhibition{}, ExhibitionItem{}, err
	} else if !ok {
		return Exhibition{}, ExhibitionItem{}, errors.Wrapf(ErrNotFound, "no item at %v", itemAddr)
	} else if item.Exhibition != exhibition || item.Asset != asset {
		return Exhibition{}, ExhibitionItem{}, errors.Wrap(ErrInvalidAccount, "item does not belong to exhibition")
	} else if err := checkItemAccounts(exhibition, itemAddr, escrow, asset, tokenAccount, ex); err != nil {
		return Exhibition{}, ExhibitionItem{}, err
	}
	return ex, item, nil
}

// releaseItem deletes an item and moves its asset from escrow to the account
// at to, which is created for owner if necessary. The storage deposits of the
// item and its escrow are refunded to the exhibitor; their sum is returned.
func (p *Program) releaseItem(tx ledger.Tx, ex *Exhibition, itemAddr crypto.Hash, item ExhibitionItem, to crypto.Hash, owner crypto.PublicKey) (types.Currency, error) {
	if err := closeRecord(tx, bucketItems, itemAddr, item.Deposit, ex.Exhibitor); err != nil {
		return types.ZeroCurrency, err
	} else if err := p.receivingAccount(tx, to, item.Asset, owner, owner); err != nil {
		return types.ZeroCurrency, err
	}
	escrowRefund, err := p.escrowOut(tx, item.TokenAccount, ex.Escrow, to, ex.Exhibitor)
	if err != nil {
		return types.ZeroCurrency, err
	}
	ex.NumItems--
	return item.Deposit.Add(escrowRefund), nil
}

// WithdrawToken returns a consigned item to the exhibitor. Items may be
// withdrawn whether or not the exhibition is still active.
func (p *Program) WithdrawToken(ins WithdrawToken, auth Auth) error {
	err := p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		ex, item, err := loadItem(tx, ins.Exhibition, ins.Item, ins.Escrow, ins.Asset, ins.TokenAccount)
		if err != nil {
			return err
		} else if err := checkRole("exhibitor", ins.Exhibitor, ex.Exhibitor, ErrWrongExhibitor); err != nil {
			return err
		} else if err := signers.require("exhibitor", ins.Exhibitor); err != nil {
			return err
		}
		if _, err := p.releaseItem(tx, &ex, ins.Item, item, ins.ExhibitorAccount, ins.Exhibitor); err != nil {
			return err
		}
		return putRecord(tx, bucketExhibitions, ins.Exhibition, ex)
	})
	if err != nil {
		return err
	}
	p.log.Printf("INFO: item %v withdrawn", ins.Item)
	return nil
}

// BuyToken sells a consigned item to the buyer. The buyer pays the item's
// price, which is split between the renter, the fee recipient, and the
// exhibitor; the asset moves to the buyer's account.
func (p *Program) BuyToken(ins BuyToken, auth Auth) (receipt SaleReceipt, err error) {
	err = p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		if err := checkAddress("state", ins.State, StateAddress()); err != nil {
			return err
		}
		fr, ok, err := getState(tx)
		if err != nil {
			return err
		} else if !ok {
			return errors.Wrap(ErrNotFound, "fee registry not initialized")
		}
		ex, item, err := loadItem(tx, ins.Exhibition, ins.Item, ins.Escrow, ins.Asset, ins.TokenAccount)
		if err != nil {
			return err
		} else if err := signers.require("buyer", ins.Buyer); err != nil {
			return err
		}
		switch ex.Status {
		case StatusActive:
		case StatusCancelled:
			return errors.Wrap(ErrInvalidState, "exhibition is cancelled")
		default:
			return errors.Wrapf(ErrInvalidState, "unknown status %v", ex.Status)
		}
		if ins.Payment.Cmp(item.Price) < 0 {
			return errors.Wrapf(ErrPriceMismatch, "payment %v is less than price %v", ins.Payment, item.Price)
		}
		split, err := SplitPayment(item.Price, ex.RenterFeeBps, fr.FeeRateBps)
		if err != nil {
			return err
		}

		buyer := ledger.KeyAddress(ins.Buyer)
		if err := ledger.Debit(tx, buyer, item.Price); err != nil {
			return err
		}
		for _, payout := range []struct {
			to     crypto.PublicKey
			amount types.Currency
		}{
			{ex.Renter, split.RenterShare},
			{fr.FeeRecipient, split.DAOShare},
			{ex.Exhibitor, split.ExhibitorShare},
		} {
			if err := ledger.Credit(tx, ledger.KeyAddress(payout.to), payout.amount); err != nil {
				return err
			}
		}

		refund, err := p.releaseItem(tx, &ex, ins.Item, item, ins.BuyerAccount, ins.Buyer)
		if err != nil {
			return err
		}
		ex.TotalVolume = ex.TotalVolume.Add(item.Price)
		receipt = SaleReceipt{
			Price:         item.Price,
			Split:         split,
			DepositRefund: refund,
		}
		return putRecord(tx, bucketExhibitions, ins.Exhibition, ex)
	})
	if err != nil {
		return SaleReceipt{}, err
	}
	p.log.Printf("INFO: item %v sold for %v", ins.Item, receipt.Price)
	return receipt, nil
}
