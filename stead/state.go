package stead

import (
	"github.com/pkg/errors"
	"lukechampine.com/stead/ledger"
)

func checkFeeRate(bps uint16) error {
	if bps > MaxBps {
		return errors.Wrapf(ErrFeeOutOfRange, "fee rate %v exceeds %v bps", bps, MaxBps)
	}
	return nil
}

// InitializeState creates the fee registry. It fails with
// ErrAlreadyInitialized if the registry exists; callers wishing to change the
// registry should then use SetState.
func (p *Program) InitializeState(ins InitializeState, auth Auth) (fr FeeRegistry, err error) {
	err = p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		if err := checkAddress("state", ins.State, StateAddress()); err != nil {
			return err
		} else if err := signers.require("payer", ins.Payer); err != nil {
			return err
		} else if err := checkFeeRate(ins.FeeRateBps); err != nil {
			return err
		}
		if _, exists, err := getState(tx); err != nil {
			return err
		} else if exists {
			return ErrAlreadyInitialized
		}

		fr = FeeRegistry{
			FeeRecipient: ins.FeeRecipient,
			FeeRateBps:   ins.FeeRateBps,
		}
		deposit, err := p.chargeDeposit(tx, fr, ins.Payer)
		if err != nil {
			return err
		}
		fr.Deposit = deposit
		return putRecord(tx, bucketState, ins.State, fr)
	})
	if err != nil {
		return FeeRegistry{}, err
	}
	p.log.Printf("INFO: fee registry initialized (rate %v bps)", fr.FeeRateBps)
	return fr, nil
}

// SetState replaces both fields of the fee registry. Only the current fee
// recipient may call it.
func (p *Program) SetState(ins SetState, auth Auth) (fr FeeRegistry, err error) {
	err = p.apply(ins, auth, func(tx ledger.Tx, signers signerSet) error {
		if err := checkAddress("state", ins.State, StateAddress()); err != nil {
			return err
		}
		var ok bool
		var err error
		fr, ok, err = getState(tx)
		if err != nil {
			return err
		} else if !ok {
			return errors.Wrap(ErrNotFound, "fee registry not initialized")
		} else if err := checkRole("fee recipient", ins.Owner, fr.FeeRecipient, ErrUnauthorized); err != nil {
			return err
		} else if err := signers.require("fee recipient", ins.Owner); err != nil {
			return err
		} else if err := checkFeeRate(ins.FeeRateBps); err != nil {
			return err
		}

		fr.FeeRecipient = ins.FeeRecipient
		fr.FeeRateBps = ins.FeeRateBps
		return putRecord(tx, bucketState, ins.State, fr)
	})
	if err != nil {
		return FeeRegistry{}, err
	}
	p.log.Printf("INFO: fee registry set (rate %v bps)", fr.FeeRateBps)
	return fr, nil
}
