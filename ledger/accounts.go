package ledger

import (
	"io"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"gitlab.com/NebulousLabs/encoding"
)

// Errors returned by ledger operations.
var (
	ErrReadOnly           = errors.New("write attempted in read-only transaction")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrNoAccount          = errors.New("no token account at address")
	ErrAccountExists      = errors.New("token account already exists")
	ErrAccountNotEmpty    = errors.New("token account is not empty")
	ErrWrongAuthority     = errors.New("transfer not signed by account owner")
	ErrAssetMismatch      = errors.New("accounts hold different assets")
)

// database buckets
var (
	// bucketBalances maps key addresses to native balances.
	bucketBalances = []byte("bucketBalances")

	// bucketTokenAccounts maps addresses to TokenAccounts.
	bucketTokenAccounts = []byte("bucketTokenAccounts")
)

// AccountOverhead is the number of bytes charged for every stored account in
// addition to its encoded size.
const AccountOverhead = 128

// StorageDeposit returns the deposit required to store size bytes at the
// given per-byte rate.
func StorageDeposit(rate types.Currency, size int) types.Currency {
	return rate.Mul64(uint64(AccountOverhead + size))
}

// A TokenAccount holds units of a single asset on behalf of its owner. The
// owner is either a key address or a derived program address.
type TokenAccount struct {
	Asset   crypto.Hash    `json:"asset"`
	Owner   crypto.Hash    `json:"owner"`
	Amount  uint64         `json:"amount"`
	Deposit types.Currency `json:"deposit"`
}

// MarshalSia implements encoding.SiaMarshaler.
func (ta TokenAccount) MarshalSia(w io.Writer) error {
	return encoding.NewEncoder(w).EncodeAll(ta.Asset, ta.Owner, ta.Amount, ta.Deposit)
}

// UnmarshalSia implements encoding.SiaUnmarshaler.
func (ta *TokenAccount) UnmarshalSia(r io.Reader) error {
	return encoding.NewDecoder(r, encoding.DefaultAllocLimit).DecodeAll(&ta.Asset, &ta.Owner, &ta.Amount, &ta.Deposit)
}

// Balance returns the native balance of addr.
func Balance(tx Tx, addr crypto.Hash) (types.Currency, error) {
	var c types.Currency
	if v := tx.Get(bucketBalances, addr[:]); v != nil {
		if err := encoding.Unmarshal(v, &c); err != nil {
			return types.ZeroCurrency, errors.Wrapf(err, "could not decode balance of %v", addr)
		}
	}
	return c, nil
}

func putBalance(tx Tx, addr crypto.Hash, c types.Currency) error {
	if c.IsZero() {
		return tx.Delete(bucketBalances, addr[:])
	}
	return tx.Put(bucketBalances, addr[:], encoding.Marshal(c))
}

// Credit adds amount to the native balance of addr.
func Credit(tx Tx, addr crypto.Hash, amount types.Currency) error {
	bal, err := Balance(tx, addr)
	if err != nil {
		return err
	}
	return putBalance(tx, addr, bal.Add(amount))
}

// Debit subtracts amount from the native balance of addr.
func Debit(tx Tx, addr crypto.Hash, amount types.Currency) error {
	bal, err := Balance(tx, addr)
	if err != nil {
		return err
	} else if bal.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientFunds, "balance %v, need %v", bal, amount)
	}
	return putBalance(tx, addr, bal.Sub(amount))
}

// Pay moves amount of native currency from one address to another.
func Pay(tx Tx, from, to crypto.Hash, amount types.Currency) error {
	if err := Debit(tx, from, amount); err != nil {
		return err
	}
	return Credit(tx, to, amount)
}

// TokenAccountAt returns the token account at addr, if it exists.
func TokenAccountAt(tx Tx, addr crypto.Hash) (ta TokenAccount, exists bool, err error) {
	v := tx.Get(bucketTokenAccounts, addr[:])
	if v == nil {
		return TokenAccount{}, false, nil
	}
	if err := encoding.Unmarshal(v, &ta); err != nil {
		return TokenAccount{}, false, errors.Wrapf(err, "could not decode token account %v", addr)
	}
	return ta, true, nil
}

func putTokenAccount(tx Tx, addr crypto.Hash, ta TokenAccount) error {
	return tx.Put(bucketTokenAccounts, addr[:], encoding.Marshal(ta))
}

// OpenTokenAccount creates an empty token account for asset at addr, owned by
// owner. The storage deposit is debited from payer.
func OpenTokenAccount(tx Tx, addr, asset, owner, payer crypto.Hash, rate types.Currency) (TokenAccount, error) {
	if _, exists, err := TokenAccountAt(tx, addr); err != nil {
		return TokenAccount{}, err
	} else if exists {
		return TokenAccount{}, errors.Wrapf(ErrAccountExists, "address %v", addr)
	}
	ta := TokenAccount{
		Asset: asset,
		Owner: owner,
	}
	ta.Deposit = StorageDeposit(rate, len(encoding.Marshal(ta)))
	if err := Debit(tx, payer, ta.Deposit); err != nil {
		return TokenAccount{}, errors.Wrap(err, "could not pay token account deposit")
	}
	return ta, putTokenAccount(tx, addr, ta)
}

// CloseTokenAccount deletes the empty token account at addr, crediting its
// deposit to refundTo. The refunded amount is returned.
func CloseTokenAccount(tx Tx, addr, refundTo crypto.Hash) (types.Currency, error) {
	ta, exists, err := TokenAccountAt(tx, addr)
	if err != nil {
		return types.ZeroCurrency, err
	} else if !exists {
		return types.ZeroCurrency, errors.Wrapf(ErrNoAccount, "address %v", addr)
	} else if ta.Amount != 0 {
		return types.ZeroCurrency, errors.Wrapf(ErrAccountNotEmpty, "address %v holds %v units", addr, ta.Amount)
	}
	if err := tx.Delete(bucketTokenAccounts, addr[:]); err != nil {
		return types.ZeroCurrency, err
	}
	return ta.Deposit, Credit(tx, refundTo, ta.Deposit)
}

// TransferTokens moves amount units from one token account to another. The
// source account must be owned by authority.
func TransferTokens(tx Tx, from, to, authority crypto.Hash, amount uint64) error {
	src, ok, err := TokenAccountAt(tx, from)
	if err != nil {
		return err
	} else if !ok {
		return errors.Wrapf(ErrNoAccount, "source %v", from)
	}
	dst, ok, err := TokenAccountAt(tx, to)
	if err != nil {
		return err
	} else if !ok {
		return errors.Wrapf(ErrNoAccount, "destination %v", to)
	}
	switch {
	case src.Owner != authority:
		return ErrWrongAuthority
	case src.Asset != dst.Asset:
		return ErrAssetMismatch
	case src.Amount < amount:
		return errors.Wrapf(ErrInsufficientTokens, "account holds %v, need %v", src.Amount, amount)
	}
	if from == to {
		return nil
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := putTokenAccount(tx, from, src); err != nil {
		return err
	}
	return putTokenAccount(tx, to, dst)
}

// MintTo issues amount new units of asset into the token account at addr,
// creating it (owned by owner, with no deposit) if necessary.
func MintTo(tx Tx, addr, asset, owner crypto.Hash, amount uint64) error {
	ta, exists, err := TokenAccountAt(tx, addr)
	if err != nil {
		return err
	} else if !exists {
		ta = TokenAccount{Asset: asset, Owner: owner}
	} else if ta.Asset != asset {
		return ErrAssetMismatch
	}
	ta.Amount += amount
	return putTokenAccount(tx, addr, ta)
}
