package stead

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/frand"
	"lukechampine.com/stead/ledger"
)

func randHash() (h crypto.Hash) {
	frand.Read(h[:])
	return
}

type testKey struct {
	sk crypto.SecretKey
	pk crypto.PublicKey
}

func newTestKey() testKey {
	sk, pk := crypto.GenerateKeyPair()
	return testKey{sk, pk}
}

func testStores(t *testing.T) map[string]ledger.Store {
	t.Helper()
	bs, err := ledger.NewBoltDBStore(filepath.Join(t.TempDir(), "stead.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bs.Close() })
	return map[string]ledger.Store{
		"ephemeral": ledger.NewEphemeralStore(),
		"bolt":      bs,
	}
}

// A market is a program with an initialized fee registry and one active
// exhibition.
type market struct {
	t         *testing.T
	p         *Program
	fee       testKey
	renter    testKey
	exhibitor testKey
	buyer     testKey
	exAsset   crypto.Hash
	ex        crypto.Hash
}

func newMarket(t *testing.T, store ledger.Store, rate types.Currency, feeRateBps, renterFeeBps uint16) *market {
	t.Helper()
	m := &market{
		t:         t,
		p:         New(store, rate, nil),
		fee:       newTestKey(),
		renter:    newTestKey(),
		exhibitor: newTestKey(),
		buyer:     newTestKey(),
		exAsset:   randHash(),
	}
	m.ex = ExhibitionAddress(m.exAsset)
	for _, k := range []testKey{m.fee, m.renter, m.exhibitor, m.buyer} {
		if err := m.p.Airdrop(k.pk, types.SiacoinPrecision); err != nil {
			t.Fatal(err)
		}
	}
	is := NewInitializeState(m.fee.pk, m.fee.pk, feeRateBps)
	if _, err := m.p.InitializeState(is, NewAuth(is, m.fee.sk)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.p.Mint(m.exAsset, m.renter.pk, 1); err != nil {
		t.Fatal(err)
	}
	ie := NewInitializeExhibition(m.exAsset, m.renter.pk, m.exhibitor.pk, renterFeeBps)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); err != nil {
		t.Fatal(err)
	}
	return m
}

// deposit mints a new asset to the exhibitor and consigns it at price.
func (m *market) deposit(price types.Currency) crypto.Hash {
	m.t.Helper()
	asset := randHash()
	if _, err := m.p.Mint(asset, m.exhibitor.pk, 1); err != nil {
		m.t.Fatal(err)
	}
	ins := NewDepositToken(m.exAsset, asset, m.exhibitor.pk, price)
	if _, err := m.p.DepositToken(ins, NewAuth(ins, m.exhibitor.sk)); err != nil {
		m.t.Fatal(err)
	}
	return asset
}

func (m *market) balance(k testKey) types.Currency {
	m.t.Helper()
	bal, err := m.p.Balance(k.pk)
	if err != nil {
		m.t.Fatal(err)
	}
	return bal
}

func (m *market) tokens(addr crypto.Hash) uint64 {
	m.t.Helper()
	ta, err := m.p.TokenAccount(addr)
	if err != nil {
		m.t.Fatal(err)
	}
	return ta.Amount
}

func ownerAccount(k testKey, asset crypto.Hash) crypto.Hash {
	return ledger.AssociatedAddress(ledger.KeyAddress(k.pk), asset)
}

func TestFeeRegistry(t *testing.T) {
	p := New(ledger.NewEphemeralStore(), types.ZeroCurrency, nil)
	if _, err := p.State(); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound, got", err)
	}
	admin, other := newTestKey(), newTestKey()

	is := NewInitializeState(admin.pk, admin.pk, MaxBps+1)
	if _, err := p.InitializeState(is, NewAuth(is, admin.sk)); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatal("expected ErrFeeOutOfRange, got", err)
	}
	is = NewInitializeState(admin.pk, admin.pk, 250)
	if _, err := p.InitializeState(is, NewAuth(is)); !errors.Is(err, ErrMissingSignature) {
		t.Fatal("expected ErrMissingSignature, got", err)
	}
	fr, err := p.InitializeState(is, NewAuth(is, admin.sk))
	if err != nil {
		t.Fatal(err)
	} else if fr.FeeRecipient != admin.pk || fr.FeeRateBps != 250 {
		t.Fatal("wrong fee registry:", fr)
	}
	is = NewInitializeState(other.pk, other.pk, 100)
	if _, err := p.InitializeState(is, NewAuth(is, other.sk)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatal("expected ErrAlreadyInitialized, got", err)
	}

	// only the current fee recipient may update the registry
	ss := NewSetState(other.pk, other.pk, 500)
	if _, err := p.SetState(ss, NewAuth(ss, other.sk)); !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized, got", err)
	}
	ss = NewSetState(admin.pk, other.pk, 500)
	if _, err := p.SetState(ss, NewAuth(ss, other.sk)); !errors.Is(err, ErrMissingSignature) || !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrMissingSignature, got", err)
	}
	ss = NewSetState(admin.pk, other.pk, 500)
	if _, err := p.SetState(ss, NewAuth(ss, admin.sk)); err != nil {
		t.Fatal(err)
	}
	if fr, err := p.State(); err != nil {
		t.Fatal(err)
	} else if fr.FeeRecipient != other.pk || fr.FeeRateBps != 500 {
		t.Fatal("registry not updated:", fr)
	}

	// the old recipient has lost control
	ss = NewSetState(admin.pk, admin.pk, 0)
	if _, err := p.SetState(ss, NewAuth(ss, admin.sk)); !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized, got", err)
	}
}

func TestSale(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			m := newMarket(t, store, types.ZeroCurrency, 250, 250)

			ex, err := m.p.Exhibition(m.ex)
			if err != nil {
				t.Fatal(err)
			} else if ex.Status != StatusActive || ex.Renter != m.renter.pk || ex.Exhibitor != m.exhibitor.pk {
				t.Fatal("wrong exhibition:", ex)
			}
			if ta, err := m.p.TokenAccount(TokenAccountAddress(m.exAsset)); err != nil {
				t.Fatal(err)
			} else if ta.Amount != 1 || ta.Owner != EscrowAddress(m.exAsset) {
				t.Fatal("exhibition asset not in escrow:", ta)
			}
			if n := m.tokens(ownerAccount(m.renter, m.exAsset)); n != 0 {
				t.Fatal("renter still holds exhibition asset:", n)
			}

			price := types.NewCurrency64(1e9)
			asset := m.deposit(price)
			item, err := m.p.Item(ItemAddress(m.ex, asset))
			if err != nil {
				t.Fatal(err)
			} else if !item.Price.Equals(price) || item.Exhibition != m.ex {
				t.Fatal("wrong item:", item)
			}
			if ex, _ := m.p.Exhibition(m.ex); ex.NumItems != 1 {
				t.Fatal("wrong item count:", ex.NumItems)
			}
			if items, err := m.p.Items(m.ex); err != nil {
				t.Fatal(err)
			} else if len(items) != 1 || items[0].Asset != asset {
				t.Fatal("wrong items:", items)
			}

			renterBefore, feeBefore := m.balance(m.renter), m.balance(m.fee)
			exhibitorBefore, buyerBefore := m.balance(m.exhibitor), m.balance(m.buyer)
			ins := NewBuyToken(m.exAsset, asset, m.buyer.pk, price)
			receipt, err := m.p.BuyToken(ins, NewAuth(ins, m.buyer.sk))
			if err != nil {
				t.Fatal(err)
			}
			exp := Split{
				RenterShare:    types.NewCurrency64(25e6),
				DAOShare:       types.NewCurrency64(25e6),
				ExhibitorShare: types.NewCurrency64(950e6),
			}
			if !receipt.Split.RenterShare.Equals(exp.RenterShare) ||
				!receipt.Split.DAOShare.Equals(exp.DAOShare) ||
				!receipt.Split.ExhibitorShare.Equals(exp.ExhibitorShare) {
				t.Fatalf("wrong split: expected %v, got %v", exp, receipt.Split)
			}
			if !m.balance(m.renter).Equals(renterBefore.Add(exp.RenterShare)) {
				t.Error("renter not paid")
			}
			if !m.balance(m.fee).Equals(feeBefore.Add(exp.DAOShare)) {
				t.Error("fee recipient not paid")
			}
			if !m.balance(m.exhibitor).Equals(exhibitorBefore.Add(exp.ExhibitorShare)) {
				t.Error("exhibitor not paid")
			}
			if !m.balance(m.buyer).Equals(buyerBefore.Sub(price)) {
				t.Error("buyer charged wrong amount")
			}
			if n := m.tokens(ownerAccount(m.buyer, asset)); n != 1 {
				t.Fatal("buyer did not receive asset")
			}
			if _, err := m.p.Item(ItemAddress(m.ex, asset)); !errors.Is(err, ErrNotFound) {
				t.Fatal("item should be deleted, got", err)
			}
			if _, err := m.p.TokenAccount(TokenAccountAddress(asset)); !errors.Is(err, ErrNotFound) {
				t.Fatal("escrow should be closed, got", err)
			}
			ex, _ = m.p.Exhibition(m.ex)
			if ex.NumItems != 0 || !ex.TotalVolume.Equals(price) {
				t.Fatal("wrong exhibition counters:", ex.NumItems, ex.TotalVolume)
			}

			// the item is gone; buying again fails
			ins = NewBuyToken(m.exAsset, asset, m.buyer.pk, price)
			if _, err := m.p.BuyToken(ins, NewAuth(ins, m.buyer.sk)); !errors.Is(err, ErrNotFound) {
				t.Fatal("expected ErrNotFound, got", err)
			}

			ce := NewCloseExhibition(m.exAsset, m.renter.pk)
			if err := m.p.CloseExhibition(ce, NewAuth(ce, m.renter.sk)); err != nil {
				t.Fatal(err)
			}
			if _, err := m.p.Exhibition(m.ex); !errors.Is(err, ErrNotFound) {
				t.Fatal("exhibition should be deleted, got", err)
			}
			if n := m.tokens(ownerAccount(m.renter, m.exAsset)); n != 1 {
				t.Fatal("exhibition asset not returned to renter")
			}
		})
	}
}

func TestDepositRefunds(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.NewCurrency64(3), 0, 0)
	renterAfterOpen := m.balance(m.renter)
	if renterAfterOpen.Equals(types.SiacoinPrecision) {
		t.Fatal("renter was not charged a deposit")
	}

	exhibitorStart := m.balance(m.exhibitor)
	sold := m.deposit(types.NewCurrency64(1000))
	withdrawn := m.deposit(types.NewCurrency64(1000))
	exhibitorPaid := exhibitorStart.Sub(m.balance(m.exhibitor))

	ins := NewBuyToken(m.exAsset, sold, m.buyer.pk, types.NewCurrency64(1000))
	receipt, err := m.p.BuyToken(ins, NewAuth(ins, m.buyer.sk))
	if err != nil {
		t.Fatal(err)
	}
	// both items cost the same to store
	if !receipt.DepositRefund.Mul64(2).Equals(exhibitorPaid) {
		t.Fatalf("wrong deposit refund: %v (paid %v for two items)", receipt.DepositRefund, exhibitorPaid)
	}
	wt := NewWithdrawToken(m.exAsset, withdrawn, m.exhibitor.pk)
	if err := m.p.WithdrawToken(wt, NewAuth(wt, m.exhibitor.sk)); err != nil {
		t.Fatal(err)
	}
	if exp := exhibitorStart.Add(types.NewCurrency64(1000)); !m.balance(m.exhibitor).Equals(exp) {
		t.Fatalf("exhibitor deposits not refunded: expected %v, got %v", exp, m.balance(m.exhibitor))
	}

	ce := NewCloseExhibition(m.exAsset, m.renter.pk)
	if err := m.p.CloseExhibition(ce, NewAuth(ce, m.renter.sk)); err != nil {
		t.Fatal(err)
	}
	if !m.balance(m.renter).Equals(types.SiacoinPrecision) {
		t.Fatal("renter deposits not refunded:", m.balance(m.renter))
	}
}

func TestWithdraw(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := m.deposit(types.NewCurrency64(10))

	wt := NewWithdrawToken(m.exAsset, asset, m.renter.pk)
	if err := m.p.WithdrawToken(wt, NewAuth(wt, m.renter.sk)); !errors.Is(err, ErrWrongExhibitor) || !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrWrongExhibitor, got", err)
	}
	wt = NewWithdrawToken(m.exAsset, asset, m.exhibitor.pk)
	if err := m.p.WithdrawToken(wt, NewAuth(wt, m.renter.sk)); !errors.Is(err, ErrMissingSignature) {
		t.Fatal("expected ErrMissingSignature, got", err)
	}
	if err := m.p.WithdrawToken(wt, NewAuth(wt, m.exhibitor.sk)); err != nil {
		t.Fatal(err)
	}
	if n := m.tokens(ownerAccount(m.exhibitor, asset)); n != 1 {
		t.Fatal("asset not returned to exhibitor")
	}
	if ex, _ := m.p.Exhibition(m.ex); ex.NumItems != 0 {
		t.Fatal("wrong item count:", ex.NumItems)
	}
	if err := m.p.WithdrawToken(wt, NewAuth(wt, m.exhibitor.sk)); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound, got", err)
	}
}

func TestDepositErrors(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := randHash()
	if _, err := m.p.Mint(asset, m.exhibitor.pk, 2); err != nil {
		t.Fatal(err)
	}

	ins := NewDepositToken(m.exAsset, asset, m.exhibitor.pk, types.NewCurrency64(10))
	if _, err := m.p.DepositToken(ins, NewAuth(ins, m.exhibitor.sk)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount for account holding 2 units, got", err)
	}
	other := randHash()
	if _, err := m.p.Mint(other, m.renter.pk, 1); err != nil {
		t.Fatal(err)
	}
	ins = NewDepositToken(m.exAsset, other, m.renter.pk, types.NewCurrency64(10))
	if _, err := m.p.DepositToken(ins, NewAuth(ins, m.renter.sk)); !errors.Is(err, ErrWrongExhibitor) {
		t.Fatal("expected ErrWrongExhibitor, got", err)
	}
	if _, err := m.p.Mint(other, m.exhibitor.pk, 1); err != nil {
		t.Fatal(err)
	}
	ins = NewDepositToken(m.exAsset, other, m.exhibitor.pk, types.ZeroCurrency)
	if _, err := m.p.DepositToken(ins, NewAuth(ins, m.exhibitor.sk)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount for zero price, got", err)
	}
	ins = NewDepositToken(randHash(), other, m.exhibitor.pk, types.NewCurrency64(10))
	if _, err := m.p.DepositToken(ins, NewAuth(ins, m.exhibitor.sk)); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound, got", err)
	}
}

func TestInitializeExhibitionErrors(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := randHash()
	if _, err := m.p.Mint(asset, m.renter.pk, 2); err != nil {
		t.Fatal(err)
	}

	ie := NewInitializeExhibition(asset, m.renter.pk, m.exhibitor.pk, 0)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount for account holding 2 units, got", err)
	}
	other := randHash()
	if _, err := m.p.Mint(other, m.renter.pk, 1); err != nil {
		t.Fatal(err)
	}
	ie = NewInitializeExhibition(other, m.renter.pk, m.exhibitor.pk, 0)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie)); !errors.Is(err, ErrMissingSignature) || !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrMissingSignature, got", err)
	}
	if _, err := m.p.Exhibition(ExhibitionAddress(other)); !errors.Is(err, ErrNotFound) {
		t.Fatal("unsigned request opened an exhibition:", err)
	}

	// the renter holds a fresh unit of the exhibition asset, but the
	// exhibition is already open
	if _, err := m.p.Mint(m.exAsset, m.renter.pk, 1); err != nil {
		t.Fatal(err)
	}
	ie = NewInitializeExhibition(m.exAsset, m.renter.pk, m.exhibitor.pk, 0)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatal("expected ErrAlreadyInitialized, got", err)
	}
	if n := m.tokens(ownerAccount(m.renter, m.exAsset)); n != 1 {
		t.Fatal("failed open moved renter's asset")
	}
}

func TestCorruptRecord(t *testing.T) {
	store := ledger.NewEphemeralStore()
	m := newMarket(t, store, types.ZeroCurrency, 250, 250)
	err := store.Update(func(tx ledger.Tx) error {
		return tx.Put(bucketExhibitions, m.ex[:], []byte{1, 2, 3})
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.p.Exhibition(m.ex); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatal("expected decode error, got", err)
	}
	if _, err := m.p.Mint(m.exAsset, m.renter.pk, 1); err != nil {
		t.Fatal(err)
	}
	ie := NewInitializeExhibition(m.exAsset, m.renter.pk, m.exhibitor.pk, 0)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); err == nil || errors.Is(err, ErrAlreadyInitialized) {
		t.Fatal("expected decode error, got", err)
	}
	asset := randHash()
	if _, err := m.p.Mint(asset, m.exhibitor.pk, 1); err != nil {
		t.Fatal(err)
	}
	ins := NewDepositToken(m.exAsset, asset, m.exhibitor.pk, types.NewCurrency64(10))
	if _, err := m.p.DepositToken(ins, NewAuth(ins, m.exhibitor.sk)); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatal("expected decode error, got", err)
	}

	// the corrupt record is left in place
	store.View(func(tx ledger.Tx) error {
		if !bytes.Equal(tx.Get(bucketExhibitions, m.ex[:]), []byte{1, 2, 3}) {
			t.Error("corrupt record was overwritten")
		}
		return nil
	})
	if n := m.tokens(ownerAccount(m.renter, m.exAsset)); n != 1 {
		t.Fatal("failed open moved renter's asset")
	}
}

func TestInvalidAccount(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := m.deposit(types.NewCurrency64(100))

	tamper := []func(*BuyToken){
		func(ins *BuyToken) { ins.Escrow = randHash() },
		func(ins *BuyToken) { ins.TokenAccount = randHash() },
		func(ins *BuyToken) { ins.State = randHash() },
		func(ins *BuyToken) { ins.BuyerAccount = randHash() },
		func(ins *BuyToken) { ins.Asset = randHash() },
	}
	for i, fn := range tamper {
		ins := NewBuyToken(m.exAsset, asset, m.buyer.pk, types.NewCurrency64(100))
		fn(&ins)
		_, err := m.p.BuyToken(ins, NewAuth(ins, m.buyer.sk))
		if !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("tamper %v: expected ErrInvalidAccount, got %v", i, err)
		}
	}
	ie := NewInitializeExhibition(randHash(), m.renter.pk, m.exhibitor.pk, 0)
	ie.Escrow = EscrowAddress(m.exAsset)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); !errors.Is(err, ErrInvalidAccount) {
		t.Fatal("expected ErrInvalidAccount, got", err)
	}
	// the item is untouched
	if _, err := m.p.Item(ItemAddress(m.ex, asset)); err != nil {
		t.Fatal(err)
	}
}

func TestBuyAtomicity(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			// the buyer can afford the price but not the deposit for their
			// receiving account, so the purchase fails after paying out
			m := newMarket(t, store, types.NewCurrency64(1), 250, 250)
			price := types.SiacoinPrecision
			asset := m.deposit(price)

			renterBefore, exhibitorBefore := m.balance(m.renter), m.balance(m.exhibitor)
			buyerBefore := m.balance(m.buyer)
			ins := NewBuyToken(m.exAsset, asset, m.buyer.pk, price)
			if _, err := m.p.BuyToken(ins, NewAuth(ins, m.buyer.sk)); !errors.Is(err, ledger.ErrInsufficientFunds) {
				t.Fatal("expected ErrInsufficientFunds, got", err)
			}
			if !m.balance(m.renter).Equals(renterBefore) || !m.balance(m.exhibitor).Equals(exhibitorBefore) || !m.balance(m.buyer).Equals(buyerBefore) {
				t.Fatal("failed purchase changed balances")
			}
			if _, err := m.p.Item(ItemAddress(m.ex, asset)); err != nil {
				t.Fatal("failed purchase removed item:", err)
			}
			if n := m.tokens(TokenAccountAddress(asset)); n != 1 {
				t.Fatal("failed purchase moved asset")
			}
			if _, err := m.p.TokenAccount(ownerAccount(m.buyer, asset)); !errors.Is(err, ErrNotFound) {
				t.Fatal("failed purchase opened buyer account")
			}

			ins = NewBuyToken(m.exAsset, asset, m.buyer.pk, price.Sub(types.NewCurrency64(1)))
			if _, err := m.p.BuyToken(ins, NewAuth(ins, m.buyer.sk)); !errors.Is(err, ErrPriceMismatch) {
				t.Fatal("expected ErrPriceMismatch, got", err)
			}
		})
	}
}

func TestCancelExhibition(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := m.deposit(types.NewCurrency64(100))

	ce := NewCancelExhibition(m.exAsset, m.exhibitor.pk)
	if _, err := m.p.CancelExhibition(ce, NewAuth(ce, m.exhibitor.sk)); !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized, got", err)
	}
	ce = NewCancelExhibition(m.exAsset, m.renter.pk)
	ex, err := m.p.CancelExhibition(ce, NewAuth(ce, m.renter.sk))
	if err != nil {
		t.Fatal(err)
	} else if ex.Status != StatusCancelled {
		t.Fatal("wrong status:", ex.Status)
	}
	if n := m.tokens(ownerAccount(m.renter, m.exAsset)); n != 1 {
		t.Fatal("exhibition asset not returned")
	}
	if _, err := m.p.CancelExhibition(ce, NewAuth(ce, m.renter.sk)); !errors.Is(err, ErrInvalidState) {
		t.Fatal("expected ErrInvalidState, got", err)
	}

	// no sales or deposits once cancelled
	bt := NewBuyToken(m.exAsset, asset, m.buyer.pk, types.NewCurrency64(100))
	if _, err := m.p.BuyToken(bt, NewAuth(bt, m.buyer.sk)); !errors.Is(err, ErrInvalidState) {
		t.Fatal("expected ErrInvalidState, got", err)
	}
	other := randHash()
	if _, err := m.p.Mint(other, m.exhibitor.pk, 1); err != nil {
		t.Fatal(err)
	}
	dt := NewDepositToken(m.exAsset, other, m.exhibitor.pk, types.NewCurrency64(100))
	if _, err := m.p.DepositToken(dt, NewAuth(dt, m.exhibitor.sk)); !errors.Is(err, ErrInvalidState) {
		t.Fatal("expected ErrInvalidState, got", err)
	}

	cl := NewCloseExhibition(m.exAsset, m.renter.pk)
	if err := m.p.CloseExhibition(cl, NewAuth(cl, m.renter.sk)); !errors.Is(err, ErrItemsRemaining) {
		t.Fatal("expected ErrItemsRemaining, got", err)
	}
	wt := NewWithdrawToken(m.exAsset, asset, m.exhibitor.pk)
	if err := m.p.WithdrawToken(wt, NewAuth(wt, m.exhibitor.sk)); err != nil {
		t.Fatal(err)
	}
	if err := m.p.CloseExhibition(cl, NewAuth(cl, m.renter.sk)); err != nil {
		t.Fatal(err)
	}

	// the asset can hold a new exhibition
	ie := NewInitializeExhibition(m.exAsset, m.renter.pk, m.exhibitor.pk, 100)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); err != nil {
		t.Fatal(err)
	}
}

func TestFeeOutOfRange(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 1000, 9000)
	asset := m.deposit(types.NewCurrency64(100))

	ie := NewInitializeExhibition(randHash(), m.renter.pk, m.exhibitor.pk, 9001)
	if _, err := m.p.InitializeExhibition(ie, NewAuth(ie, m.renter.sk)); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatal("expected ErrFeeOutOfRange, got", err)
	}

	// raising the protocol fee afterward makes sales in this exhibition fail
	ss := NewSetState(m.fee.pk, m.fee.pk, 1001)
	if _, err := m.p.SetState(ss, NewAuth(ss, m.fee.sk)); err != nil {
		t.Fatal(err)
	}
	bt := NewBuyToken(m.exAsset, asset, m.buyer.pk, types.NewCurrency64(100))
	if _, err := m.p.BuyToken(bt, NewAuth(bt, m.buyer.sk)); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatal("expected ErrFeeOutOfRange, got", err)
	}
}

func TestReplay(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := m.deposit(types.NewCurrency64(100))

	wt := NewWithdrawToken(m.exAsset, asset, m.exhibitor.pk)
	auth := NewAuth(wt, m.exhibitor.sk)
	if err := m.p.WithdrawToken(wt, auth); err != nil {
		t.Fatal(err)
	}
	// redeposit the same asset, then replay the withdrawal
	dt := NewDepositToken(m.exAsset, asset, m.exhibitor.pk, types.NewCurrency64(100))
	if _, err := m.p.DepositToken(dt, NewAuth(dt, m.exhibitor.sk)); err != nil {
		t.Fatal(err)
	}
	if err := m.p.WithdrawToken(wt, auth); !errors.Is(err, ErrReplayed) {
		t.Fatal("expected ErrReplayed, got", err)
	}
	if _, err := m.p.Item(ItemAddress(m.ex, asset)); err != nil {
		t.Fatal("replayed withdrawal removed item:", err)
	}
}

func TestInvalidSignature(t *testing.T) {
	m := newMarket(t, ledger.NewEphemeralStore(), types.ZeroCurrency, 250, 250)
	asset := m.deposit(types.NewCurrency64(100))

	wt := NewWithdrawToken(m.exAsset, asset, m.exhibitor.pk)
	auth := NewAuth(wt, m.exhibitor.sk)
	auth.Signatures[0].Signature[0] ^= 1
	if err := m.p.WithdrawToken(wt, auth); !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized, got", err)
	}

	// a signature over a different request does not carry over
	other := NewWithdrawToken(m.exAsset, randHash(), m.exhibitor.pk)
	auth = NewAuth(other, m.exhibitor.sk)
	if err := m.p.WithdrawToken(wt, auth); !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized, got", err)
	}
}
