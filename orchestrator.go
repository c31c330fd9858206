// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package poolsync

import (
	"context"
	"fmt"
	"math/big"

	"github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	logpkg "github.com/luxfi/log"
	"github.com/luxfi/poolsync/chainreg"
	"github.com/luxfi/poolsync/discovery"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/luxfi/poolsync/rangescan"
	"github.com/luxfi/poolsync/reducer"
	"github.com/luxfi/poolsync/rpcfetch"
	"github.com/luxfi/poolsync/snapshot"
	"github.com/luxfi/poolsync/store"
)

// Phase names the orchestrator's per-(chain,flavor) state.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseDiscover Phase = "discover"
	PhaseCatchup  Phase = "catchup"
	PhaseReplay   Phase = "replay"
	PhaseLive     Phase = "live"
)

// Orchestrator composes the chain registry, rate-limited fetcher, address
// discovery, snapshot hydrator, tick/reserve reducer and persistence layer
// into the historical-then-live sync engine. Constructed by Builder.Build;
// never constructed directly.
type Orchestrator struct {
	registry   *chainreg.Registry
	cfg        Config
	fetcher    *rpcfetch.Fetcher
	discoverer *discovery.Discoverer
	hydrator   *snapshot.Hydrator
	db         *store.Store
	fold       *reducer.Reducer
	log        logpkg.Logger

	// onPhase, if set, is invoked on every phase transition — used by
	// tests and the CLI's progress output. Never required for correctness.
	onPhase func(chain chainreg.Chain, flavor pooltypes.Flavor, phase Phase)
}

// Close releases the underlying persistence handle.
func (o *Orchestrator) Close() error { return o.db.Close() }

func (o *Orchestrator) transition(flavor pooltypes.Flavor, phase Phase) {
	if o.onPhase != nil {
		o.onPhase(o.cfg.Chain, flavor, phase)
	}
	o.log.Info("poolsync: phase transition", "chain", o.cfg.Chain, "flavor", flavor, "phase", phase)
}

// Build runs the historical sync (Discover/Catch-up/Replay) for every
// configured flavor and returns once each has caught up to the chain tip.
// Each flavor still reports PhaseLive once caught up, but Build does not
// follow the chain tip afterwards — this is the `build` CLI command's entry
// point.
func (o *Orchestrator) Build(ctx context.Context) error {
	for _, flavor := range o.cfg.Flavors {
		if err := o.runHistorical(ctx, flavor); err != nil {
			return err
		}
	}
	return nil
}

// Sync runs the historical sync for every configured flavor and then, if
// cfg.LiveURL is set, follows the chain tip indefinitely. It returns only
// on ctx cancellation or an unrecoverable error — the `sync` CLI command's
// entry point.
func (o *Orchestrator) Sync(ctx context.Context) error {
	for _, flavor := range o.cfg.Flavors {
		if err := o.runHistorical(ctx, flavor); err != nil {
			return err
		}
	}
	if o.cfg.LiveURL == "" {
		return nil
	}

	errCh := make(chan error, len(o.cfg.Flavors))
	for _, flavor := range o.cfg.Flavors {
		flavor := flavor
		go func() { errCh <- o.runLive(ctx, flavor) }()
	}
	for range o.cfg.Flavors {
		if err := <-errCh; err != nil && ctx.Err() == nil {
			return err
		}
	}
	return nil
}

// runHistorical drives one (chain, flavor) from Init through Replay,
// leaving it caught up to the chain tip. A resume point found in the store
// skips straight from Init to Replay, since the pool set is already known;
// otherwise Discover and Catch-up hydrate populate it fresh.
func (o *Orchestrator) runHistorical(ctx context.Context, flavor pooltypes.Flavor) error {
	o.transition(flavor, PhaseInit)

	desc, ok := o.registry.Descriptor(flavor)
	if !ok {
		return &ConfigError{Reason: fmt.Sprintf("flavor %q has no taxonomy entry", flavor)}
	}
	factory, err := o.registry.Factory(o.cfg.Chain, flavor)
	if err != nil {
		return &ConfigError{Reason: err.Error()}
	}

	tip, err := o.fetcher.BlockNumber(ctx)
	if err != nil {
		return err
	}

	lastBlock, resumed, err := o.db.LastBlock(string(o.cfg.Chain), flavor)
	if err != nil {
		return err
	}

	var pools []pooltypes.Pool
	var replayFrom uint64
	isInitialSync := false

	if resumed {
		pools, err = o.db.LoadPools(string(o.cfg.Chain), flavor)
		if err != nil {
			return err
		}
		replayFrom = lastBlock + 1
	} else {
		o.transition(flavor, PhaseDiscover)
		addrs, err := o.discoverer.Discover(ctx, factory, desc, o.cfg.StartBlock, tip)
		if err != nil {
			return err
		}

		o.transition(flavor, PhaseCatchup)
		pools, err = o.hydrator.Hydrate(ctx, string(o.cfg.Chain), desc, addrs, o.cfg.StartBlock)
		if err != nil {
			return err
		}

		if o.cfg.TokenAllowlistPath != "" {
			allowed, err := discovery.LoadTokenAllowlist(o.cfg.TokenAllowlistPath)
			if err != nil {
				return &ConfigError{Reason: fmt.Sprintf("loading token allowlist: %v", err)}
			}
			pools = discovery.FilterByTokenAllowlist(pools, allowed)
		}

		replayFrom = o.cfg.StartBlock + 1
		isInitialSync = true
	}

	if replayFrom <= tip && desc.FoldKind != pooltypes.FoldNone {
		o.transition(flavor, PhaseReplay)
		byAddr := indexPools(pools)
		if err := o.replayRange(ctx, desc, byAddr, replayFrom, tip, isInitialSync); err != nil {
			return err
		}
	}

	if err := o.db.SaveProgress(string(o.cfg.Chain), flavor, tip, pools); err != nil {
		return err
	}
	o.transition(flavor, PhaseLive)
	return nil
}

// runLive follows the chain tip via the websocket head subscription at
// cfg.FollowDistance, replaying newly confirmed blocks as they arrive.
// It blocks until ctx is cancelled or the subscription fails terminally.
func (o *Orchestrator) runLive(ctx context.Context, flavor pooltypes.Flavor) error {
	desc, ok := o.registry.Descriptor(flavor)
	if !ok {
		return &ConfigError{Reason: fmt.Sprintf("flavor %q has no taxonomy entry", flavor)}
	}
	if desc.FoldKind == pooltypes.FoldNone {
		<-ctx.Done()
		return nil
	}

	follower, err := NewHeadFollower(o.cfg.LiveURL)
	if err != nil {
		return &ProviderError{Op: "live.subscribe", Err: err}
	}
	defer follower.Close()

	heads, errs := follower.Follow(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return &ProviderError{Op: "live.subscription", Err: err}
		case head, ok := <-heads:
			if !ok {
				return nil
			}
			if err := o.onNewHead(ctx, flavor, desc, head); err != nil {
				return err
			}
		}
	}
}

// onNewHead advances (chain, flavor) to head - FollowDistance, replaying
// and persisting any newly confirmed blocks.
func (o *Orchestrator) onNewHead(ctx context.Context, flavor pooltypes.Flavor, desc pooltypes.FlavorDescriptor, head uint64) error {
	if head < o.cfg.FollowDistance {
		return nil
	}
	followTip := head - o.cfg.FollowDistance

	lastBlock, resumed, err := o.db.LastBlock(string(o.cfg.Chain), flavor)
	if err != nil {
		return err
	}
	if !resumed || followTip <= lastBlock {
		return nil
	}

	pools, err := o.db.LoadPools(string(o.cfg.Chain), flavor)
	if err != nil {
		return err
	}
	byAddr := indexPools(pools)

	if err := o.replayRange(ctx, desc, byAddr, lastBlock+1, followTip, false); err != nil {
		return err
	}
	return o.db.SaveProgress(string(o.cfg.Chain), flavor, followTip, pools)
}

// replayRange fetches every liquidity-event log for desc's pools over
// [from, to] and folds them, in strict block order, into the pools named
// in byAddr. Logs on addresses not present in byAddr are ignored — they
// belong to pools outside the current snapshot (e.g. created after
// StartBlock but not yet discovered).
func (o *Orchestrator) replayRange(ctx context.Context, desc pooltypes.FlavorDescriptor, byAddr map[common.Address]*pooltypes.Pool, from, to uint64, isInitialSync bool) error {
	if from > to || len(byAddr) == 0 || len(desc.EventTopics) == 0 {
		return nil
	}

	addrs := make([]common.Address, 0, len(byAddr))
	for a := range byAddr {
		addrs = append(addrs, a)
	}

	ranges := rangescan.Split(from, to, o.cfg.RangeWindow)
	fetch := func(ctx context.Context, r rangescan.SubRange) ([]types.Log, error) {
		q := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(r.From),
			ToBlock:   new(big.Int).SetUint64(r.To),
			Addresses: addrs,
			Topics:    [][]common.Hash{desc.EventTopics},
		}
		return o.fetcher.FilterLogs(ctx, q)
	}

	logs, err := rangescan.FetchOrdered(ctx, ranges, o.cfg.Concurrency, fetch)
	if err != nil {
		return err
	}

	for i := range logs {
		lg := &logs[i]
		pool, ok := byAddr[lg.Address]
		if !ok {
			continue
		}
		if err := o.fold.Apply(pool, lg, isInitialSync); err != nil {
			// Schema-mismatch failures arrive already typed as *DecodeError;
			// a wrong-flavor or unrecognized-topic failure (taxonomy/chain
			// wiring drift, not a decode problem) is returned as-is.
			return err
		}
	}
	return nil
}

func indexPools(pools []pooltypes.Pool) map[common.Address]*pooltypes.Pool {
	byAddr := make(map[common.Address]*pooltypes.Pool, len(pools))
	for i := range pools {
		byAddr[pools[i].Address] = &pools[i]
	}
	return byAddr
}
