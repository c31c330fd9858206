// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chainreg is the static, read-only (Chain, Flavor) -> factory
// address / taxonomy mapping. It is built once at process start and never
// mutated afterwards.
package chainreg

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/pooltypes"
)

// Chain identifies one EVM chain the system can sync against.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
)

// FactoryEntry binds a (Chain, Flavor) pair to the on-chain factory that
// emits that flavor's pool-creation events on that chain.
type FactoryEntry struct {
	Chain   Chain
	Flavor  pooltypes.Flavor
	Factory common.Address
}

// Registry is the immutable chain -> supported-flavor -> factory table.
type Registry struct {
	entries map[Chain]map[pooltypes.Flavor]common.Address
	taxonomy *pooltypes.Registry
}

// New builds a Registry from a fixed entry list and the pool taxonomy. The
// taxonomy supplies the rest of each flavor's descriptor (creation topic,
// tuple schema, event topics); this table supplies only the per-chain
// factory address, since the same fork-flavor is deployed at different
// addresses on different chains.
func New(taxonomy *pooltypes.Registry, entries ...FactoryEntry) *Registry {
	r := &Registry{
		entries:  make(map[Chain]map[pooltypes.Flavor]common.Address),
		taxonomy: taxonomy,
	}
	for _, e := range entries {
		m, ok := r.entries[e.Chain]
		if !ok {
			m = make(map[pooltypes.Flavor]common.Address)
			r.entries[e.Chain] = m
		}
		m[e.Flavor] = e.Factory
	}
	return r
}

// Supported reports whether (chain, flavor) is a registered combination.
func (r *Registry) Supported(chain Chain, flavor pooltypes.Flavor) bool {
	m, ok := r.entries[chain]
	if !ok {
		return false
	}
	_, ok = m[flavor]
	return ok
}

// Factory returns the factory address for (chain, flavor).
func (r *Registry) Factory(chain Chain, flavor pooltypes.Flavor) (common.Address, error) {
	m, ok := r.entries[chain]
	if !ok {
		return common.Address{}, fmt.Errorf("chainreg: chain %q not registered", chain)
	}
	addr, ok := m[flavor]
	if !ok {
		return common.Address{}, fmt.Errorf("chainreg: flavor %q not supported on chain %q", flavor, chain)
	}
	return addr, nil
}

// Descriptor resolves a flavor's full taxonomy row.
func (r *Registry) Descriptor(flavor pooltypes.Flavor) (pooltypes.FlavorDescriptor, bool) {
	return r.taxonomy.Descriptor(flavor)
}

// Flavors lists every flavor supported on a chain.
func (r *Registry) Flavors(chain Chain) []pooltypes.Flavor {
	m, ok := r.entries[chain]
	if !ok {
		return nil
	}
	out := make([]pooltypes.Flavor, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	return out
}

// Default returns the built-in registry wired against the default taxonomy.
// Chains/factories listed here are the well-known mainnet deployments; the
// set is intentionally small — operators extend it by constructing their
// own Registry via New.
func Default() *Registry {
	taxonomy := pooltypes.NewRegistry(defaultTaxonomyRows()...)
	return New(taxonomy,
		FactoryEntry{ChainEthereum, pooltypes.FlavorV2Reserve, common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")},
		FactoryEntry{ChainEthereum, pooltypes.FlavorV3Tick, common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")},
		FactoryEntry{ChainBase, pooltypes.FlavorV2Reserve, common.HexToAddress("0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6")},
		FactoryEntry{ChainBase, pooltypes.FlavorV3Tick, common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD")},
	)
}
