package stead

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"gitlab.com/NebulousLabs/encoding"
	"lukechampine.com/stead/ledger"
)

// database buckets
var (
	// bucketState holds the fee registry, keyed by StateAddress.
	bucketState = []byte("bucketState")

	// bucketExhibitions maps exhibition addresses to Exhibitions.
	bucketExhibitions = []byte("bucketExhibitions")

	// bucketItems maps item addresses to ExhibitionItems.
	bucketItems = []byte("bucketItems")

	// bucketSeen records the sighash of every executed request.
	bucketSeen = []byte("bucketSeen")
)

// MaxBps is the number of basis points in a whole.
const MaxBps = 10000

// A FeeRegistry is the program's global fee configuration.
type FeeRegistry struct {
	FeeRecipient crypto.PublicKey `json:"feeRecipient"`
	FeeRateBps   uint16           `json:"feeRateBps"`
	Deposit      types.Currency   `json:"deposit"`
}

// MarshalSia implements encoding.SiaMarshaler.
func (fr FeeRegistry) MarshalSia(w io.Writer) error {
	return encoding.NewEncoder(w).EncodeAll(fr.FeeRecipient, fr.FeeRateBps, fr.Deposit)
}

// UnmarshalSia implements encoding.SiaUnmarshaler.
func (fr *FeeRegistry) UnmarshalSia(r io.Reader) error {
	return encoding.NewDecoder(r, encoding.DefaultAllocLimit).DecodeAll(&fr.FeeRecipient, &fr.FeeRateBps, &fr.Deposit)
}

// ExhibitionStatus is the lifecycle state of an Exhibition.
type ExhibitionStatus uint8

// Exhibition states.
const (
	StatusActive ExhibitionStatus = iota + 1
	StatusCancelled
)

// String implements fmt.Stringer.
func (s ExhibitionStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("ExhibitionStatus(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ExhibitionStatus) MarshalText() ([]byte, error) {
	switch s {
	case StatusActive, StatusCancelled:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown exhibition status %d", uint8(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ExhibitionStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = StatusActive
	case "cancelled":
		*s = StatusCancelled
	default:
		return fmt.Errorf("unknown exhibition status %q", b)
	}
	return nil
}

// An Exhibition is a rental listing held by a single exhibition asset. While
// the exhibition is active, the asset sits in the escrow token account owned
// by the exhibition's escrow authority.
type Exhibition struct {
	Asset        crypto.Hash      `json:"asset"`
	Escrow       crypto.Hash      `json:"escrow"`
	TokenAccount crypto.Hash      `json:"tokenAccount"`
	Renter       crypto.PublicKey `json:"renter"`
	Exhibitor    crypto.PublicKey `json:"exhibitor"`
	RenterFeeBps uint16           `json:"renterFeeBps"`
	NumItems     uint64           `json:"numItems"`
	TotalVolume  types.Currency   `json:"totalVolume"`
	Status       ExhibitionStatus `json:"status"`
	Deposit      types.Currency   `json:"deposit"`
}

// MarshalSia implements encoding.SiaMarshaler.
func (ex Exhibition) MarshalSia(w io.Writer) error {
	return encoding.NewEncoder(w).EncodeAll(ex.Asset, ex.Escrow, ex.TokenAccount,
		ex.Renter, ex.Exhibitor, ex.RenterFeeBps, ex.NumItems, ex.TotalVolume,
		ex.Status, ex.Deposit)
}

// UnmarshalSia implements encoding.SiaUnmarshaler.
func (ex *Exhibition) UnmarshalSia(r io.Reader) error {
	return encoding.NewDecoder(r, encoding.DefaultAllocLimit).DecodeAll(&ex.Asset, &ex.Escrow, &ex.TokenAccount,
		&ex.Renter, &ex.Exhibitor, &ex.RenterFeeBps, &ex.NumItems, &ex.TotalVolume,
		&ex.Status, &ex.Deposit)
}

// An ExhibitionItem is an asset consigned for sale within an exhibition.
type ExhibitionItem struct {
	Exhibition   crypto.Hash    `json:"exhibition"`
	Asset        crypto.Hash    `json:"asset"`
	TokenAccount crypto.Hash    `json:"tokenAccount"`
	Price        types.Currency `json:"price"`
	Deposit      types.Currency `json:"deposit"`
}

// MarshalSia implements encoding.SiaMarshaler.
func (item ExhibitionItem) MarshalSia(w io.Writer) error {
	return encoding.NewEncoder(w).EncodeAll(item.Exhibition, item.Asset, item.TokenAccount, item.Price, item.Deposit)
}

// UnmarshalSia implements encoding.SiaUnmarshaler.
func (item *ExhibitionItem) UnmarshalSia(r io.Reader) error {
	return encoding.NewDecoder(r, encoding.DefaultAllocLimit).DecodeAll(&item.Exhibition, &item.Asset, &item.TokenAccount, &item.Price, &item.Deposit)
}

// getRecord decodes the record at addr into v. A record that exists but
// cannot be decoded is an error, not a miss.
func getRecord(tx ledger.Tx, bucket []byte, addr crypto.Hash, v interface{}) (bool, error) {
	b := tx.Get(bucket, addr[:])
	if b == nil {
		return false, nil
	} else if err := encoding.Unmarshal(b, v); err != nil {
		return false, errors.Wrapf(err, "could not decode record at %v", addr)
	}
	return true, nil
}

func putRecord(tx ledger.Tx, bucket []byte, addr crypto.Hash, v interface{}) error {
	return tx.Put(bucket, addr[:], encoding.Marshal(v))
}

// closeRecord deletes the record at addr and credits its deposit to refundTo.
func closeRecord(tx ledger.Tx, bucket []byte, addr crypto.Hash, deposit types.Currency, refundTo crypto.PublicKey) error {
	if err := tx.Delete(bucket, addr[:]); err != nil {
		return err
	}
	return ledger.Credit(tx, ledger.KeyAddress(refundTo), deposit)
}

// chargeDeposit debits payer the storage deposit for a record whose encoding
// (without its deposit) is rec.
func (p *Program) chargeDeposit(tx ledger.Tx, rec interface{}, payer crypto.PublicKey) (types.Currency, error) {
	deposit := ledger.StorageDeposit(p.depositRate, len(encoding.Marshal(rec)))
	return deposit, ledger.Debit(tx, ledger.KeyAddress(payer), deposit)
}

func getState(tx ledger.Tx) (fr FeeRegistry, ok bool, err error) {
	ok, err = getRecord(tx, bucketState, StateAddress(), &fr)
	return
}

func getExhibition(tx ledger.Tx, addr crypto.Hash) (ex Exhibition, ok bool, err error) {
	ok, err = getRecord(tx, bucketExhibitions, addr, &ex)
	return
}

func getItem(tx ledger.Tx, addr crypto.Hash) (item ExhibitionItem, ok bool, err error) {
	ok, err = getRecord(tx, bucketItems, addr, &item)
	return
}

func exhibitionItems(tx ledger.Tx, exhibition crypto.Hash) (items []ExhibitionItem, err error) {
	err = tx.ForEach(bucketItems, func(k, v []byte) error {
		var item ExhibitionItem
		if err := encoding.Unmarshal(v, &item); err != nil {
			return errors.Wrapf(err, "could not decode item %x", k)
		}
		if item.Exhibition == exhibition {
			items = append(items, item)
		}
		return nil
	})
	return
}
