// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store is the single-file embedded persistence layer:
// a pebble-backed key-value store modeling two relational tables —
// sync_state(chain, flavor, last_block) and pools(address, flavor, chain,
// data, updated_at) — as structured key prefixes, grounded on the
// teacher's own direct use of cockroachdb/pebble
// (cmd/evm-node/chaincmd/chaincmd.go).
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/poolerrs"
	"github.com/luxfi/poolsync/pooltypes"
)

const (
	prefixSyncState = "sync_state/"
	prefixPools     = "pools/"
)

// Store wraps a pebble handle. Writes serialize on a single mutex; reads
// go straight to pebble, which is lock-free for readers.
type Store struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open opens (creating if absent) the pebble database at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, &poolerrs.PersistenceError{Op: "open", Err: err}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying pebble handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &poolerrs.PersistenceError{Op: "close", Err: err}
	}
	return nil
}

func syncStateKey(chain string, flavor pooltypes.Flavor) []byte {
	return []byte(fmt.Sprintf("%s%s/%s", prefixSyncState, chain, flavor))
}

func poolKey(chain string, flavor pooltypes.Flavor, addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%s", prefixPools, chain, flavor, addr.Hex()))
}

func poolPrefix(chain string, flavor pooltypes.Flavor) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/", prefixPools, chain, flavor))
}

// prefixUpperBound returns the exclusive upper bound for a pebble range
// iteration over all keys sharing prefix (same incrementBytes idiom the
// teacher uses in chaincmd.go).
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil // prefix is all 0xff: unbounded
}

// LastBlock returns the last synced block for (chain, flavor) and whether a
// resume point exists at all.
func (s *Store) LastBlock(chain string, flavor pooltypes.Flavor) (uint64, bool, error) {
	v, closer, err := s.db.Get(syncStateKey(chain, flavor))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &poolerrs.PersistenceError{Op: "sync_state.get", Err: err}
	}
	defer closer.Close()
	if len(v) != 8 {
		return 0, false, &poolerrs.PersistenceError{Op: "sync_state.get", Err: fmt.Errorf("corrupt last_block value (%d bytes)", len(v))}
	}
	return binary.BigEndian.Uint64(v), true, nil
}

// SaveProgress upserts (chain, flavor) -> last_block and persists pools in
// one transaction: all multi-row writes commit together, so a crash
// mid-transaction leaves prior state intact.
func (s *Store) SaveProgress(chain string, flavor pooltypes.Flavor, lastBlock uint64, pools []pooltypes.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()

	now := time.Now().UTC()
	for _, p := range pools {
		rec := record{Pool: p, UpdatedAt: now}
		data, err := json.Marshal(rec)
		if err != nil {
			return &poolerrs.PersistenceError{Op: "pools.marshal", Err: err}
		}
		if err := batch.Set(poolKey(chain, flavor, p.Address), data, nil); err != nil {
			return &poolerrs.PersistenceError{Op: "pools.set", Err: err}
		}
	}

	lb := make([]byte, 8)
	binary.BigEndian.PutUint64(lb, lastBlock)
	if err := batch.Set(syncStateKey(chain, flavor), lb, nil); err != nil {
		return &poolerrs.PersistenceError{Op: "sync_state.set", Err: err}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return &poolerrs.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

// record is the canonical on-disk wrapper for a pool row, carrying the
// last-write timestamp alongside the pool itself.
type record struct {
	Pool      pooltypes.Pool `json:"pool"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// LoadPools returns every pool stored for (chain, flavor) in pebble's key
// order, i.e. ordered by the byte order of each address's checksummed
// (mixed-case) hex string, not by numeric address value.
func (s *Store) LoadPools(chain string, flavor pooltypes.Flavor) ([]pooltypes.Pool, error) {
	prefix := poolPrefix(chain, flavor)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, &poolerrs.PersistenceError{Op: "pools.iter", Err: err}
	}
	defer iter.Close()

	var out []pooltypes.Pool
	for iter.First(); iter.Valid(); iter.Next() {
		var rec record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, &poolerrs.PersistenceError{Op: "pools.unmarshal", Err: err}
		}
		out = append(out, rec.Pool)
	}
	if err := iter.Error(); err != nil {
		return nil, &poolerrs.PersistenceError{Op: "pools.iter", Err: err}
	}
	return out, nil
}

// LoadPool returns a single pool by address, or ok=false if absent.
func (s *Store) LoadPool(chain string, flavor pooltypes.Flavor, addr common.Address) (pooltypes.Pool, bool, error) {
	v, closer, err := s.db.Get(poolKey(chain, flavor, addr))
	if err == pebble.ErrNotFound {
		return pooltypes.Pool{}, false, nil
	}
	if err != nil {
		return pooltypes.Pool{}, false, &poolerrs.PersistenceError{Op: "pools.get", Err: err}
	}
	defer closer.Close()

	var rec record
	if err := json.Unmarshal(bytes.Clone(v), &rec); err != nil {
		return pooltypes.Pool{}, false, &poolerrs.PersistenceError{Op: "pools.unmarshal", Err: err}
	}
	return rec.Pool, true, nil
}
