// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pooltypes

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// TickInfo is the per-tick liquidity accounting a V3-tick pool carries.
// Gross is the sum of absolute liquidity referencing the tick; Net is the
// signed amount added/removed when price crosses it upward.
type TickInfo struct {
	LiquidityGross *uint256.Int `json:"liquidityGross"`
	LiquidityNet   *Int128      `json:"liquidityNet"`
	Initialized    bool         `json:"initialized"`
}

// V2Reserve is the immutable + mutable state of a constant-product pool.
type V2Reserve struct {
	Reserve0 *uint256.Int `json:"reserve0"`
	Reserve1 *uint256.Int `json:"reserve1"`
	Stable   *bool        `json:"stable,omitempty"`
	Fee      *uint32      `json:"fee,omitempty"`
}

// V3Tick is the immutable + mutable state of a concentrated-liquidity pool.
type V3Tick struct {
	Liquidity   *uint256.Int `json:"liquidity"`
	SqrtPriceX  *uint256.Int `json:"sqrtPriceX96"`
	Tick        int32        `json:"tick"`
	TickSpacing int32        `json:"tickSpacing"`
	Fee         uint32       `json:"fee"`

	// TickBitmap maps word position (tick/spacing floor-divided by 256) to
	// the 256-bit initialized-tick bitmap word.
	TickBitmap map[int16]*uint256.Int `json:"tickBitmap"`

	// Ticks maps tick index to its gross/net liquidity accounting. A tick
	// is present iff LiquidityGross != 0.
	Ticks map[int32]*TickInfo `json:"ticks"`
}

// Weighted is a variable-token-count balancer-style pool.
type Weighted struct {
	PoolID      [32]byte        `json:"poolId"`
	Tokens      []common.Address `json:"tokens"`
	Decimals    []uint8          `json:"decimals"`
	Names       []string         `json:"names"`
	Balances    []*uint256.Int   `json:"balances"`
	Weights     []*uint256.Int   `json:"weights"`
	SwapFee     *uint256.Int     `json:"swapFee"`
}

// Curve is the opaque-state record shared by TwoCrypto/TriCrypto pools:
// their balances are read via view calls, never folded from events.
type Curve struct {
	Tokens   []common.Address `json:"tokens"`
	Decimals []uint8          `json:"decimals"`
}

// Maverick is the opaque-state record for Maverick pools.
type Maverick struct {
	Tokens   []common.Address `json:"tokens"`
	Decimals []uint8          `json:"decimals"`
}

// Pool is the sum type over every supported flavor. Exactly one of the
// flavor-specific pointers is non-nil, selected by Flavor.
type Pool struct {
	Address        common.Address `json:"address"`
	Flavor         Flavor         `json:"flavor"`
	Chain          string         `json:"chain"`
	Token0         common.Address `json:"token0"`
	Token1         common.Address `json:"token1"`
	Token0Decimals uint8          `json:"token0Decimals"`
	Token1Decimals uint8          `json:"token1Decimals"`
	Token0Name     string         `json:"token0Name,omitempty"`
	Token1Name     string         `json:"token1Name,omitempty"`

	V2  *V2Reserve `json:"v2,omitempty"`
	V3  *V3Tick    `json:"v3,omitempty"`
	WB  *Weighted  `json:"weighted,omitempty"`
	CC  *Curve     `json:"curve,omitempty"`
	MV  *Maverick  `json:"maverick,omitempty"`
}

// Valid checks the universal non-zero-address invariant.
func (p *Pool) Valid() bool {
	var zero common.Address
	return p.Address != zero && p.Token0 != zero && p.Token1 != zero
}
