// Package storage wraps cockroachdb/pebble behind a small byte-keyed CRUD
// surface used for ambient, off-core metadata: Put/Get/DeleteKey/ListKeys
// give pkg/system the arbitrary-byte-key access it needs for API keys and
// config overrides (neither arena, bptree nor thumbcache ever touch this
// package — it backs the REST API's side-store only).
package storage

import (
	"github.com/cockroachdb/pebble"
)

type DefaultStorage struct {
	db *pebble.DB
}

func NewDefaultStorage(path string) (*DefaultStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &DefaultStorage{db: db}, nil
}

func (s *DefaultStorage) Close() error {
	return s.db.Close()
}

// Put stores data under an arbitrary byte key, for callers that need a key
// of their own choosing rather than a generated ksuid.
func (s *DefaultStorage) Put(key, data []byte) error {
	return s.db.Set(key, data, pebble.NoSync)
}

// Get retrieves data stored under key. Returns pebble's own "not found" error
// (wrapped by callers that need a sentinel of their own).
func (s *DefaultStorage) Get(key []byte) ([]byte, error) {
	data, closer, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// DeleteKey removes the value stored under key.
func (s *DefaultStorage) DeleteKey(key []byte) error {
	return s.db.Delete(key, pebble.NoSync)
}

// ListKeys returns every key with the given prefix, in sorted order.
func (s *DefaultStorage) ListKeys(prefix []byte) ([]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// keyUpperBound returns the smallest key that sorts after every key with the
// given prefix, or nil if prefix is empty (meaning: no upper bound).
func keyUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}
