package ledger

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// BoltDBStore implements Store with a Bolt key-value database.
type BoltDBStore struct {
	db *bolt.DB
}

type boltTx struct {
	tx *bolt.Tx
}

func (tx boltTx) Get(bucket, key []byte) []byte {
	b := tx.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.Get(key)
}

func (tx boltTx) Put(bucket, key, val []byte) error {
	if !tx.tx.Writable() {
		return ErrReadOnly
	}
	b, err := tx.tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return err
	}
	// bolt does not copy values that are written before the tx commits
	return b.Put(key, append([]byte(nil), val...))
}

func (tx boltTx) Delete(bucket, key []byte) error {
	if !tx.tx.Writable() {
		return ErrReadOnly
	}
	b := tx.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.Delete(key)
}

func (tx boltTx) ForEach(bucket []byte, fn func(k, v []byte) error) error {
	b := tx.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.ForEach(fn)
}

// View implements Store.
func (s *BoltDBStore) View(fn func(Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(boltTx{tx})
	})
}

// Update implements Store.
func (s *BoltDBStore) Update(fn func(Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(boltTx{tx})
	})
}

// Close closes the bolt database.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}

// NewBoltDBStore returns a new BoltDBStore backed by the file at filename.
func NewBoltDBStore(filename string) (*BoltDBStore, error) {
	db, err := bolt.Open(filename, 0666, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "could not open ledger database")
	}
	return &BoltDBStore{db: db}, nil
}
