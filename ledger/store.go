// Package ledger implements the account substrate that the stead program runs
// on: native balances, single-asset token accounts, storage deposits, and a
// transactional key-value store.
package ledger

// A Tx is a view of the ledger within a single unit of work. Keys and values
// are copied on write; values returned by Get are only valid until the end of
// the unit of work.
type Tx interface {
	Get(bucket, key []byte) []byte
	Put(bucket, key, val []byte) error
	Delete(bucket, key []byte) error
	// ForEach calls fn for each key in bucket, in ascending key order.
	ForEach(bucket []byte, fn func(k, v []byte) error) error
}

// A Store persists ledger state. Update runs fn as a single atomic unit of
// work: if fn returns an error, none of its writes are observable.
type Store interface {
	View(fn func(Tx) error) error
	Update(fn func(Tx) error) error
	Close() error
}
