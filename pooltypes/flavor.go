// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pooltypes defines the pool sum type and the table-driven flavor
// taxonomy that dispatches discovery, hydration and folding per fork family.
package pooltypes

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Flavor identifies one fork family of pool contracts.
type Flavor string

const (
	FlavorV2Reserve  Flavor = "v2-reserve"
	FlavorV3Tick     Flavor = "v3-tick"
	FlavorWeighted   Flavor = "weighted"
	FlavorTwoCrypto  Flavor = "two-crypto"
	FlavorTriCrypto  Flavor = "tri-crypto"
	FlavorMaverick   Flavor = "maverick"
)

// FoldKind selects the liquidity-event reducer used for live/replay sync.
// Curve and Maverick pools have no fold: their state is read back via view
// calls rather than accumulated from events.
type FoldKind int

const (
	FoldNone FoldKind = iota
	FoldV2Reserve
	FoldV3Tick
	FoldWeighted
)

// AddressExtractor pulls the pool address out of a creation-event log. The
// address is either an indexed topic (index 1..3) or packed into the
// non-indexed data, depending on the factory's event shape.
type AddressExtractor func(log *types.Log) (common.Address, error)

// FlavorDescriptor is one row of the pool taxonomy table. Adding a new
// fork-flavor to the system is adding one row, never a new type hierarchy.
type FlavorDescriptor struct {
	Flavor Flavor

	// CreationTopic is the canonical keccak256 of the factory's pool/pair
	// creation event signature, e.g. "PairCreated(address,address,address,uint256)".
	CreationTopic common.Hash

	// ExtractAddress decodes the created pool's address out of the log.
	ExtractAddress AddressExtractor

	// TupleSchema is the ABI signature of one element of the snapshot
	// contract's returned array.
	TupleSchema string

	// SnapshotBytecodeID names the external constructor-return artifact
	// used to hydrate this flavor (an opaque external collaborator; the
	// bytecode itself is deployed, never interpreted here).
	SnapshotBytecodeID string

	// EventTopics lists the liquidity-event signatures this flavor emits,
	// keyed by canonical topic hash, consumed by the reducer.
	EventTopics []common.Hash

	// FoldKind selects the reducer fold applied to EventTopics.
	FoldKind FoldKind

	// DefaultChunkSize is the address-batch size used by the hydrator.
	DefaultChunkSize int
}

// Registry is the immutable, process-wide table of flavor descriptors. It is
// built once at init and never mutated afterwards.
type Registry struct {
	byFlavor map[Flavor]FlavorDescriptor
}

// NewRegistry builds a taxonomy registry from the given descriptor rows.
func NewRegistry(rows ...FlavorDescriptor) *Registry {
	r := &Registry{byFlavor: make(map[Flavor]FlavorDescriptor, len(rows))}
	for _, row := range rows {
		r.byFlavor[row.Flavor] = row
	}
	return r
}

// Descriptor returns the taxonomy row for a flavor, and whether it exists.
func (r *Registry) Descriptor(f Flavor) (FlavorDescriptor, bool) {
	d, ok := r.byFlavor[f]
	return d, ok
}

// Flavors returns every flavor registered in the taxonomy, in insertion order
// is not guaranteed (map iteration) — callers that need determinism should
// sort the result.
func (r *Registry) Flavors() []Flavor {
	out := make([]Flavor, 0, len(r.byFlavor))
	for f := range r.byFlavor {
		out = append(out, f)
	}
	return out
}
