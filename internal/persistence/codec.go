// Package persistence stores the durable slice of inventory state.
//
// Two concerns are kept apart:
//
//   - Codec turns a Record into bytes and back. It owns the on-disk format
//     (a versioned JSON envelope, optionally zstd-compressed).
//   - Backend stores opaque bytes under a key. Memory, file, SQLite,
//     Postgres and S3 implementations exist; Open picks one from Config.
//
// Store glues a Codec and a Backend to a fixed key and is what the
// inventory store calls on its save path.
package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/sakif/pantry/internal/model"
)

// StorageKey is the fixed key the inventory record lives under.
const StorageKey = "inventory-storage"

// recordVersion is written into every envelope. Decode accepts any version
// up to this one.
const recordVersion = 0

// Record is the persisted subset of inventory state. Loading flags and the
// pagination cursor are deliberately absent.
type Record struct {
	FoodItems      []model.FoodItem `json:"foodItems"`
	CategoryFilter *string          `json:"categoryFilter"`
	SearchQuery    *string          `json:"searchQuery"`
}

type envelope struct {
	State   Record `json:"state"`
	Version int    `json:"version"`
}

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	zstdEncoder = mustZstd(zstd.NewWriter(nil))
	zstdDecoder = mustZstd(zstd.NewReader(nil))
)

// mustZstd panics when a package-level coder cannot be built.
func mustZstd[T any](coder T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("persistence: building zstd coder: %v", err))
	}
	return coder
}

// Codec serializes Records. The zero value writes plain JSON.
type Codec struct {
	// Compress wraps the JSON in a zstd frame. Base64 image payloads make
	// records large, and they compress well.
	Compress bool
}

// Encode serializes r.
func (c Codec) Encode(r Record) ([]byte, error) {
	if r.FoodItems == nil {
		r.FoodItems = []model.FoodItem{}
	}
	data, err := json.Marshal(envelope{State: r, Version: recordVersion})
	if err != nil {
		return nil, fmt.Errorf("persistence: encoding record: %w", err)
	}
	if !c.Compress {
		return data, nil
	}
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode parses data written by Encode. Compressed and plain payloads are
// both accepted regardless of c.Compress, so the setting can be flipped
// without migrating existing data.
func (c Codec) Decode(data []byte) (Record, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return Record{}, fmt.Errorf("persistence: decompressing record: %w", err)
		}
		data = plain
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("persistence: decoding record: %w", err)
	}
	if env.Version > recordVersion {
		return Record{}, fmt.Errorf("persistence: record version %d is newer than supported %d", env.Version, recordVersion)
	}
	return env.State, nil
}
