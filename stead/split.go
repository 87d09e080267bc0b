package stead

import (
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/types"
)

// A Split is the distribution of a sale price.
type Split struct {
	RenterShare    types.Currency `json:"renterShare"`
	DAOShare       types.Currency `json:"daoShare"`
	ExhibitorShare types.Currency `json:"exhibitorShare"`
}

// Total returns the sum of all shares.
func (s Split) Total() types.Currency {
	return s.RenterShare.Add(s.DAOShare).Add(s.ExhibitorShare)
}

// SplitPayment divides price between the renter, the fee recipient, and the
// exhibitor. The renter and fee shares are rounded down; the exhibitor
// receives the remainder, so the shares always sum to price.
func SplitPayment(price types.Currency, renterFeeBps, feeRateBps uint16) (Split, error) {
	if uint64(renterFeeBps)+uint64(feeRateBps) > MaxBps {
		return Split{}, errors.Wrapf(ErrFeeOutOfRange, "renter fee %v + protocol fee %v exceeds %v bps", renterFeeBps, feeRateBps, MaxBps)
	}
	s := Split{
		RenterShare: price.Mul64(uint64(renterFeeBps)).Div64(MaxBps),
		DAOShare:    price.Mul64(uint64(feeRateBps)).Div64(MaxBps),
	}
	s.ExhibitorShare = price.Sub(s.RenterShare).Sub(s.DAOShare)
	return s, nil
}

// A SaleReceipt describes the settlement of a purchase. The exhibitor receives
// ExhibitorShare plus DepositRefund, the reclaimed storage deposit of the
// item's record and escrow.
type SaleReceipt struct {
	Price         types.Currency `json:"price"`
	Split         Split          `json:"split"`
	DepositRefund types.Currency `json:"depositRefund"`
}
