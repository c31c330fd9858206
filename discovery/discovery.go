// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package discovery harvests pool addresses from factory "pool created"
// events across a block range.
package discovery

import (
	"context"
	"math/big"

	"github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	logpkg "github.com/luxfi/log"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/luxfi/poolsync/rangescan"
)

// LogFilterer issues eth_getLogs; satisfied by *rpcfetch.Fetcher.
type LogFilterer interface {
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// Discoverer harvests pool addresses for one (factory, flavor) pair.
type Discoverer struct {
	filterer    LogFilterer
	window      uint64
	concurrency int
	log         logpkg.Logger
}

// New builds a Discoverer. window is the Range Partitioner's sub-range
// width (0 selects rangescan.DefaultWindow); concurrency bounds in-flight
// sub-range fetches.
func New(filterer LogFilterer, window uint64, concurrency int) *Discoverer {
	return &Discoverer{filterer: filterer, window: window, concurrency: concurrency, log: logpkg.Root()}
}

// Discover harvests every pool address the factory emitted a creation event
// for within [start, end], deduplicated. A well-formed factory emits each
// pool at most once; duplicates are treated as idempotent, not an error.
func (d *Discoverer) Discover(ctx context.Context, factory common.Address, desc pooltypes.FlavorDescriptor, start, end uint64) ([]common.Address, error) {
	ranges := rangescan.Split(start, end, d.window)

	fetch := func(ctx context.Context, r rangescan.SubRange) ([]types.Log, error) {
		q := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(r.From),
			ToBlock:   new(big.Int).SetUint64(r.To),
			Addresses: []common.Address{factory},
			Topics:    [][]common.Hash{{desc.CreationTopic}},
		}
		return d.filterer.FilterLogs(ctx, q)
	}

	logs, err := rangescan.FetchOrdered(ctx, ranges, d.concurrency, fetch)
	if err != nil {
		return nil, err
	}

	seen := make(map[common.Address]struct{}, len(logs))
	var addrs []common.Address
	for _, lg := range logs {
		lg := lg
		addr, err := desc.ExtractAddress(&lg)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}

	d.log.Info("discovery: harvested pool addresses", "flavor", desc.Flavor, "factory", factory, "from", start, "to", end, "count", len(addrs))
	return addrs, nil
}
