// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reducer

import (
	"fmt"

	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/poolsync/chainreg"
	"github.com/luxfi/poolsync/pooltypes"
)

// Reducer folds a single ordered log into a pool's mutable state. It holds
// no state of its own: callers own ordering
// and persistence.
type Reducer struct{}

// New returns a Reducer. There is nothing to configure: every rule the
// reducer applies is a pure function of the event and the pool record.
func New() *Reducer { return &Reducer{} }

// Apply folds lg into pool in place. isInitialSync selects the snapshot-
// replay behavior for V3 Mint/Burn;
// it is ignored for every other event kind.
func (r *Reducer) Apply(pool *pooltypes.Pool, lg *types.Log, isInitialSync bool) error {
	if len(lg.Topics) == 0 {
		return fmt.Errorf("reducer: log has no topics, cannot dispatch")
	}
	topic := lg.Topics[0]

	switch topic {
	case chainreg.TopicSyncV2:
		return r.applySync(pool, lg)
	case chainreg.TopicMintV3:
		return r.applyMint(pool, lg, isInitialSync)
	case chainreg.TopicBurnV3:
		return r.applyBurn(pool, lg, isInitialSync)
	case chainreg.TopicSwapV3:
		return r.applySwapV3(pool, lg, false)
	case chainreg.TopicSwapV3Fee:
		return r.applySwapV3(pool, lg, true)
	case chainreg.TopicSwapBal:
		return r.applySwapBal(pool, lg)
	default:
		return fmt.Errorf("reducer: unrecognized event topic %s for pool %s", topic, pool.Address)
	}
}

func (r *Reducer) applySync(pool *pooltypes.Pool, lg *types.Log) error {
	if pool.V2 == nil {
		return fmt.Errorf("reducer: Sync event on non-v2-reserve pool %s", pool.Address)
	}
	ev, err := decodeSync(lg)
	if err != nil {
		return err
	}
	pool.V2.Reserve0 = ev.Reserve0
	pool.V2.Reserve1 = ev.Reserve1
	return nil
}

func (r *Reducer) applyMint(pool *pooltypes.Pool, lg *types.Log, isInitialSync bool) error {
	if pool.V3 == nil {
		return fmt.Errorf("reducer: Mint event on non-v3-tick pool %s", pool.Address)
	}
	ev, err := decodeMint(lg)
	if err != nil {
		return err
	}
	delta := pooltypes.NewInt128FromBig(ev.Amount)
	modifyPosition(pool.V3, ev.TickLower, ev.TickUpper, delta, isInitialSync)
	return nil
}

func (r *Reducer) applyBurn(pool *pooltypes.Pool, lg *types.Log, isInitialSync bool) error {
	if pool.V3 == nil {
		return fmt.Errorf("reducer: Burn event on non-v3-tick pool %s", pool.Address)
	}
	ev, err := decodeBurn(lg)
	if err != nil {
		return err
	}
	delta := pooltypes.NewInt128FromBig(ev.Amount).Neg()
	modifyPosition(pool.V3, ev.TickLower, ev.TickUpper, delta, isInitialSync)
	return nil
}

func (r *Reducer) applySwapV3(pool *pooltypes.Pool, lg *types.Log, hasFee bool) error {
	if pool.V3 == nil {
		return fmt.Errorf("reducer: Swap event on non-v3-tick pool %s", pool.Address)
	}
	ev, err := decodeSwapV3(lg, hasFee)
	if err != nil {
		return err
	}
	pool.V3.SqrtPriceX = ev.SqrtPriceX96
	pool.V3.Liquidity = ev.Liquidity
	pool.V3.Tick = ev.Tick
	return nil
}

func (r *Reducer) applySwapBal(pool *pooltypes.Pool, lg *types.Log) error {
	if pool.WB == nil {
		return fmt.Errorf("reducer: Swap event on non-weighted pool %s", pool.Address)
	}
	ev, err := decodeSwapBal(lg)
	if err != nil {
		return err
	}
	return applyWeightedSwap(pool.WB, ev)
}
