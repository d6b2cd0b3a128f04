package persistence

import (
	"context"
	"errors"
	"fmt"
)

// Store reads and writes the inventory Record under a single key.
type Store struct {
	backend Backend
	codec   Codec
	key     string
}

// NewStore binds backend and codec to key. An empty key means StorageKey.
func NewStore(backend Backend, codec Codec, key string) *Store {
	if key == "" {
		key = StorageKey
	}
	return &Store{backend: backend, codec: codec, key: key}
}

// Read returns the stored record. found is false when nothing has been
// written yet, which is not an error.
func (s *Store) Read(ctx context.Context) (rec Record, found bool, err error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("persistence: reading %s: %w", s.key, err)
	}
	rec, err = s.codec.Decode(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Write replaces the stored record.
func (s *Store) Write(ctx context.Context, rec Record) error {
	data, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("persistence: writing %s: %w", s.key, err)
	}
	return nil
}

// Key returns the key this store writes under.
func (s *Store) Key() string { return s.key }

// Close closes the underlying backend.
func (s *Store) Close() error { return s.backend.Close() }
