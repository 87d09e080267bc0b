package ledger

import (
	"sort"
	"sync"
)

// EphemeralStore implements Store in-memory.
type EphemeralStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

type ephemeralTx struct {
	s *EphemeralStore
	// pending writes; a nil value marks a deletion
	writes   map[string]map[string][]byte
	writable bool
}

func (tx *ephemeralTx) Get(bucket, key []byte) []byte {
	if w, ok := tx.writes[string(bucket)]; ok {
		if v, ok := w[string(key)]; ok {
			return v
		}
	}
	return tx.s.buckets[string(bucket)][string(key)]
}

func (tx *ephemeralTx) Put(bucket, key, val []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	w, ok := tx.writes[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		tx.writes[string(bucket)] = w
	}
	w[string(key)] = append(make([]byte, 0, len(val)), val...)
	return nil
}

func (tx *ephemeralTx) Delete(bucket, key []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	w, ok := tx.writes[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		tx.writes[string(bucket)] = w
	}
	w[string(key)] = nil
	return nil
}

func (tx *ephemeralTx) ForEach(bucket []byte, fn func(k, v []byte) error) error {
	merged := make(map[string][]byte)
	for k, v := range tx.s.buckets[string(bucket)] {
		merged[k] = v
	}
	for k, v := range tx.writes[string(bucket)] {
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), merged[k]); err != nil {
			return err
		}
	}
	return nil
}

func (tx *ephemeralTx) commit() {
	for b, w := range tx.writes {
		bucket, ok := tx.s.buckets[b]
		if !ok {
			bucket = make(map[string][]byte)
			tx.s.buckets[b] = bucket
		}
		for k, v := range w {
			if v == nil {
				delete(bucket, k)
			} else {
				bucket[k] = v
			}
		}
	}
}

// View implements Store.
func (s *EphemeralStore) View(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&ephemeralTx{s: s})
}

// Update implements Store.
func (s *EphemeralStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &ephemeralTx{
		s:        s,
		writes:   make(map[string]map[string][]byte),
		writable: true,
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Close implements Store.
func (s *EphemeralStore) Close() error {
	return nil
}

// NewEphemeralStore returns a new EphemeralStore.
func NewEphemeralStore() *EphemeralStore {
	return &EphemeralStore{
		buckets: make(map[string]map[string][]byte),
	}
}
