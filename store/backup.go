// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/luxfi/poolsync/poolerrs"
	"github.com/luxfi/poolsync/pooltypes"
)

// Backup is the out-of-band JSON snapshot format: one flavor's full pool
// set plus its resume point, dumped as a single document (supplemented
// feature, grounded on original_source/src/cache.rs's PoolCache dump/load
// pair; additive to, not a replacement for, the pebble-backed store).
type Backup struct {
	Chain      string           `json:"chain"`
	Flavor     pooltypes.Flavor `json:"flavor"`
	LastBlock  uint64           `json:"lastBlock"`
	Pools      []pooltypes.Pool `json:"pools"`
	ExportedAt time.Time        `json:"exportedAt"`
}

// ExportSnapshot writes (chain, flavor)'s current pools and resume point
// to path as a single JSON document.
func (s *Store) ExportSnapshot(chain string, flavor pooltypes.Flavor, path string) error {
	pools, err := s.LoadPools(chain, flavor)
	if err != nil {
		return err
	}
	lastBlock, _, err := s.LastBlock(chain, flavor)
	if err != nil {
		return err
	}

	b := Backup{Chain: chain, Flavor: flavor, LastBlock: lastBlock, Pools: pools, ExportedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return &poolerrs.PersistenceError{Op: "export.marshal", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &poolerrs.PersistenceError{Op: "export.write", Err: err}
	}
	return nil
}

// ImportSnapshot loads a Backup document written by ExportSnapshot and
// writes it into the store for its (chain, flavor): the resume point is
// replaced and every pool in the document overwrites the stored record with
// the same address. Stored pools that are absent from the document are not
// deleted.
func (s *Store) ImportSnapshot(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &poolerrs.PersistenceError{Op: "import.read", Err: err}
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &poolerrs.PersistenceError{Op: "import.unmarshal", Err: err}
	}
	if err := s.SaveProgress(b.Chain, b.Flavor, b.LastBlock, b.Pools); err != nil {
		return nil, err
	}
	return &b, nil
}
