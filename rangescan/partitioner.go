// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rangescan splits a block range into fixed-width sub-ranges, fans
// them out through a fetcher, and reassembles results in strict block order
// regardless of the order sub-range fetches complete in.
package rangescan

import (
	"context"
	"sort"

	"github.com/luxfi/geth/core/types"
)

// DefaultWindow is the default sub-range width in blocks.
const DefaultWindow = 10_000

// SubRange is one independent [From, To] work unit, inclusive on both ends.
type SubRange struct {
	From uint64
	To   uint64
}

// Split partitions [start, end] into fixed-width sub-ranges of at most
// window blocks each. A range shorter than window yields exactly one
// sub-range; start == end yields exactly one single-block sub-range.
func Split(start, end, window uint64) []SubRange {
	if window == 0 {
		window = DefaultWindow
	}
	if end < start {
		return nil
	}
	var ranges []SubRange
	for from := start; from <= end; from += window {
		to := from + window - 1
		if to > end {
			to = end
		}
		ranges = append(ranges, SubRange{From: from, To: to})
		if to == end {
			break
		}
	}
	return ranges
}

// LogFetcher issues one sub-range's worth of eth_getLogs. It is satisfied by
// a closure wrapping rpcfetch.Fetcher.FilterLogs with a fixed address/topic
// filter.
type LogFetcher func(ctx context.Context, r SubRange) ([]types.Log, error)

// FetchOrdered fans SubRanges out through fetch (bounded by the caller's
// own concurrency window), collects every log keyed by block number, and
// flattens the result in ascending block order. Logs within a block retain
// the transport's intra-block (tx-index, log-index) order, since each
// sub-range's log slice is never reordered internally.
func FetchOrdered(ctx context.Context, ranges []SubRange, concurrency int, fetch LogFetcher) ([]types.Log, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	type result struct {
		logs []types.Log
		err  error
	}

	results := make([]result, len(ranges))
	sem := make(chan struct{}, concurrency)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	remaining := len(ranges)
	if remaining == 0 {
		return nil, nil
	}

	resCh := make(chan struct {
		idx int
		res result
	}, len(ranges))

	for i, r := range ranges {
		i, r := i, r
		go func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				resCh <- struct {
					idx int
					res result
				}{i, result{err: ctx.Err()}}
				return
			}
			defer func() { <-sem }()

			logs, err := fetch(ctx, r)
			resCh <- struct {
				idx int
				res result
			}{i, result{logs: logs, err: err}}
		}()
	}

	go func() {
		for n := 0; n < len(ranges); n++ {
			item := <-resCh
			results[item.idx] = item.res
			if item.res.err != nil {
				select {
				case errCh <- item.res.err:
				default:
				}
			}
			remaining--
			if remaining == 0 {
				close(done)
				return
			}
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	byBlock := make(map[uint64][]types.Log)
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		for _, lg := range r.logs {
			byBlock[lg.BlockNumber] = append(byBlock[lg.BlockNumber], lg)
		}
	}

	blocks := make([]uint64, 0, len(byBlock))
	for b := range byBlock {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	var out []types.Log
	for _, b := range blocks {
		out = append(out, byBlock[b]...)
	}
	return out, nil
}
