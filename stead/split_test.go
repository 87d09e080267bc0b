package stead

import (
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/types"
)

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		price                  uint64
		renterBps, feeBps      uint16
		renter, fee, exhibitor uint64
	}{
		{1e9, 250, 250, 25e6, 25e6, 950e6},
		{1e9, 0, 0, 0, 0, 1e9},
		{1e9, 10000, 0, 1e9, 0, 0},
		{1e9, 5000, 5000, 5e8, 5e8, 0},
		{1, 250, 250, 0, 0, 1},
		{399, 250, 250, 9, 9, 381},
		{12345, 1234, 321, 1523, 396, 10426},
	}
	for _, test := range tests {
		s, err := SplitPayment(types.NewCurrency64(test.price), test.renterBps, test.feeBps)
		if err != nil {
			t.Fatal(err)
		}
		if !s.RenterShare.Equals(types.NewCurrency64(test.renter)) || !s.DAOShare.Equals(types.NewCurrency64(test.fee)) || !s.ExhibitorShare.Equals(types.NewCurrency64(test.exhibitor)) {
			t.Errorf("SplitPayment(%v, %v, %v): expected %v/%v/%v, got %v/%v/%v", test.price, test.renterBps, test.feeBps,
				test.renter, test.fee, test.exhibitor, s.RenterShare, s.DAOShare, s.ExhibitorShare)
		}
		if !s.Total().Equals(types.NewCurrency64(test.price)) {
			t.Errorf("SplitPayment(%v, %v, %v): shares sum to %v", test.price, test.renterBps, test.feeBps, s.Total())
		}
	}

	if _, err := SplitPayment(types.NewCurrency64(100), 5001, 5000); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatal("expected ErrFeeOutOfRange, got", err)
	}
}

func TestSplitPaymentLargePrice(t *testing.T) {
	price := types.SiacoinPrecision.Mul64(1e6)
	s, err := SplitPayment(price, 333, 17)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Total().Equals(price) {
		t.Fatal("shares do not sum to price")
	}
	if !s.RenterShare.Equals(price.Mul64(333).Div64(MaxBps)) {
		t.Fatal("wrong renter share:", s.RenterShare)
	}
}
