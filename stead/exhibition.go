package stead

import (
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"lukechampine.com/stead/ledger"
)

// InitializeExhibition opens an exhibition held by ins.Asset. The renter's
// single unit of the asset moves into escrow, where it stays while the
// exhibition is active.
func (p *Program) InitializeExhibition(ins InitializeExhibition, auth Auth) (ex Exhibition, err error) {
	err = p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		for _, c := range []struct {
			name               string
			supplied, expected crypto.Hash
		}{
			{"state", ins.State, StateAddress()},
			{"exhibition", ins.Exhibition, ExhibitionAddress(ins.Asset)},
			{"escrow", ins.Escrow, EscrowAddress(ins.Asset)},
			{"token account", ins.TokenAccount, TokenAccountAddress(ins.Asset)},
		} {
			if err := checkAddress(c.name, c.supplied, c.expected); err != nil {
				return err
			}
		}
		if err := signers.require("renter", ins.Renter); err != nil {
			return err
		}
		fr, ok, err := getState(tx)
		if err != nil {
			return err
		} else if !ok {
			return errors.Wrap(ErrNotFound, "fee registry not initialized")
		} else if uint64(ins.RenterFeeBps)+uint64(fr.FeeRateBps) > MaxBps {
			return errors.Wrapf(ErrFeeOutOfRange, "renter fee %v exceeds %v bps", ins.RenterFeeBps, MaxBps-int(fr.FeeRateBps))
		}
		if _, exists, err := getExhibition(tx, ins.Exhibition); err != nil {
			return err
		} else if exists {
			return errors.Wrap(ErrAlreadyInitialized, "exhibition already exists")
		} else if err := checkSourceAccount(tx, ins.RenterAccount, ins.Asset, ins.Renter); err != nil {
			return err
		}

		ex = Exhibition{
			Asset:        ins.Asset,
			Escrow:       ins.Escrow,
			TokenAccount: ins.TokenAccount,
			Renter:       ins.Renter,
			Exhibitor:    ins.Exhibitor,
			RenterFeeBps: ins.RenterFeeBps,
			Status:       StatusActive,
		}
		deposit, err := p.chargeDeposit(tx, ex, ins.Renter)
		if err != nil {
			return err
		}
		ex.Deposit = deposit
		if err := putRecord(tx, bucketExhibitions, ins.Exhibition, ex); err != nil {
			return err
		}
		return p.escrowIn(tx, ins.RenterAccount, ins.TokenAccount, ins.Escrow, ins.Asset, ins.Renter)
	})
	if err != nil {
		return Exhibition{}, err
	}
	p.log.Printf("INFO: exhibition %v opened", ins.Exhibition)
	return ex, nil
}

// loadRenterExhibition loads the exhibition at addr and checks that the
// supplied escrow accounts and renter match it.
func loadRenterExhibition(tx ledger.Tx, signers signerSet, addr, escrow, tokenAccount crypto.Hash, renter crypto.PublicKey) (Exhibition, error) {
	ex, ok, err := getExhibition(tx, addr)
	if err != nil {
		return Exhibition{}, err
	} else if !ok {
		return Exhibition{}, errors.Wrapf(ErrNotFound, "no exhibition at %v", addr)
	} else if err := checkAddress("escrow", escrow, EscrowAddress(ex.Asset)); err != nil {
		return Exhibition{}, err
	} else if err := checkAddress("token account", tokenAccount, TokenAccountAddress(ex.Asset)); err != nil {
		return Exhibition{}, err
	} else if err := checkRole("renter", renter, ex.Renter, ErrUnauthorized); err != nil {
		return Exhibition{}, err
	} else if err := signers.require("renter", renter); err != nil {
		return Exhibition{}, err
	}
	return ex, nil
}

// returnExhibitionAsset moves the exhibition asset from escrow back to the
// renter and closes the escrow.
func (p *Program) returnExhibitionAsset(tx ledger.Tx, ex Exhibition, renterAccount crypto.Hash) error {
	if err := p.receivingAccount(tx, renterAccount, ex.Asset, ex.Renter, ex.Renter); err != nil {
		return err
	}
	_, err := p.escrowOut(tx, ex.TokenAccount, ex.Escrow, renterAccount, ex.Renter)
	return err
}

// CancelExhibition returns the exhibition asset to the renter and marks the
// exhibition cancelled. Items still in the exhibition may be withdrawn by the
// exhibitor, but no further items may be deposited or bought.
func (p *Program) CancelExhibition(ins CancelExhibition, auth Auth) (ex Exhibition, err error) {
	err = p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		var err error
		ex, err = loadRenterExhibition(tx, signers, ins.Exhibition, ins.Escrow, ins.TokenAccount, ins.Renter)
		if err != nil {
			return err
		}
		switch ex.Status {
		case StatusActive:
		case StatusCancelled:
			return errors.Wrap(ErrInvalidState, "exhibition is already cancelled")
		default:
			return errors.Wrapf(ErrInvalidState, "unknown status %v", ex.Status)
		}
		if err := p.returnExhibitionAsset(tx, ex, ins.RenterAccount); err != nil {
			return err
		}
		ex.Status = StatusCancelled
		return putRecord(tx, bucketExhibitions, ins.Exhibition, ex)
	})
	if err != nil {
		return Exhibition{}, err
	}
	p.log.Printf("INFO: exhibition %v cancelled", ins.Exhibition)
	return ex, nil
}

// CloseExhibition deletes an exhibition that holds no items, refunding its
// storage deposit to the renter. An exhibition that was never cancelled
// returns its asset to the renter first.
func (p *Program) CloseExhibition(ins CloseExhibition, auth Auth) error {
	err := p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		ex, err := loadRenterExhibition(tx, signers, ins.Exhibition, ins.Escrow, ins.TokenAccount, ins.Renter)
		if err != nil {
			return err
		} else if ex.NumItems > 0 {
			return errors.Wrapf(ErrItemsRemaining, "%v items remain", ex.NumItems)
		}
		switch ex.Status {
		case StatusActive:
			if err := p.returnExhibitionAsset(tx, ex, ins.RenterAccount); err != nil {
				return err
			}
		case StatusCancelled:
		default:
			return errors.Wrapf(ErrInvalidState, "unknown status %v", ex.Status)
		}
		return closeRecord(tx, bucketExhibitions, ins.Exhibition, ex.Deposit, ex.Renter)
	})
	if err != nil {
		return err
	}
	p.log.Printf("INFO: exhibition %v closed", ins.Exhibition)
	return nil
}
