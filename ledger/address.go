package ledger

import (
	"gitlab.com/NebulousLabs/Sia/crypto"
	"golang.org/x/crypto/blake2b"
)

// A Specifier is a fixed-size, 0-padded ASCII tag identifying the purpose of
// a derived address.
type Specifier [16]byte

// String implements fmt.Stringer.
func (s Specifier) String() string {
	n := len(s)
	for n > 0 && s[n-1] == 0 {
		n--
	}
	return string(s[:n])
}

// NewSpecifier returns a specifier for str. It panics if str is longer than
// 16 bytes.
func NewSpecifier(str string) Specifier {
	if len(str) > 16 {
		panic("specifier is too long")
	}
	var s Specifier
	copy(s[:], str)
	return s
}

// SpecifierAssociated tags the address of an owner's receiving account for an
// asset.
var SpecifierAssociated = NewSpecifier("associated")

// DeriveAddress deterministically maps a purpose tag and a list of seeds to an
// address. The mapping is pure, so any party can recompute an address without
// consulting the ledger.
func DeriveAddress(tag Specifier, seeds ...crypto.Hash) crypto.Hash {
	h, _ := blake2b.New256(nil)
	h.Write(tag[:])
	for _, s := range seeds {
		h.Write(s[:])
	}
	var addr crypto.Hash
	h.Sum(addr[:0])
	return addr
}

// KeyAddress returns the ledger address controlled by pk.
func KeyAddress(pk crypto.PublicKey) crypto.Hash {
	return crypto.Hash(pk)
}

// AssociatedAddress returns the address of owner's canonical token account
// for asset.
func AssociatedAddress(owner, asset crypto.Hash) crypto.Hash {
	return DeriveAddress(SpecifierAssociated, owner, asset)
}
