// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reducer

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/pooltypes"
)

// tokenIndex resolves a token address to its position in the pool's
// canonical token vector: 0 = token0, 1 = token1, >=2 additional tokens in
// registration order.
func tokenIndex(w *pooltypes.Weighted, token common.Address) (int, error) {
	for i, t := range w.Tokens {
		if t == token {
			return i, nil
		}
	}
	return 0, fmt.Errorf("reducer: token %s not in pool's token vector", token)
}

// satAdd and satSub saturate instead of overflowing/underflowing:
// weighted-pool balance updates must match on-chain behavior on
// pathological event sequences.
func satAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return sum
}

func satSub(a, b *uint256.Int) *uint256.Int {
	if b.Cmp(a) >= 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(a, b)
}

// applyWeightedSwap folds a Balancer-style Swap event into the pool's
// balance vector.
func applyWeightedSwap(w *pooltypes.Weighted, ev *swapBalEvent) error {
	in, err := tokenIndex(w, ev.TokenIn)
	if err != nil {
		return err
	}
	out, err := tokenIndex(w, ev.TokenOut)
	if err != nil {
		return err
	}
	w.Balances[in] = satAdd(w.Balances[in], ev.AmountIn)
	w.Balances[out] = satSub(w.Balances[out], ev.AmountOut)
	return nil
}
