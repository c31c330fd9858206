// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reducer

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/poolsync/pooltypes"
)

// floorDiv is mathematical floor division: unlike Go's native integer
// division (which truncates toward zero), floorDiv(-1, 256) == -1, not 0.
// tick_spacing is always positive on-chain, so only the dividend's sign
// needs the correction.
func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	return a - floorDiv(a, b)*b
}

// floorDivMod returns (word, bit) = (t÷spacing) divmod 256, floored
// (e.g. tick=-1, spacing=1 -> word=-1, bit=255).
func floorDivMod(t, spacing int32) (word int16, bit uint8) {
	q := floorDiv(t, spacing)
	w := floorDiv(q, 256)
	b := floorMod(q, 256)
	return int16(w), uint8(b)
}

func flipBit(v *pooltypes.V3Tick, t int32) {
	word, bit := floorDivMod(t, v.TickSpacing)
	cur, ok := v.TickBitmap[word]
	if !ok {
		cur = uint256.NewInt(0)
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bit))
	v.TickBitmap[word] = new(uint256.Int).Xor(cur, mask)
}

// updateTick applies a signed liquidity delta to tick t, inserting a zero
// TickInfo first if absent, and reports whether the tick flipped between
// zero and non-zero gross liquidity.
func updateTick(v *pooltypes.V3Tick, t int32, delta *pooltypes.Int128, upper bool) bool {
	info, ok := v.Ticks[t]
	if !ok {
		info = &pooltypes.TickInfo{
			LiquidityGross: uint256.NewInt(0),
			LiquidityNet:   pooltypes.NewInt128(0),
			Initialized:    false,
		}
	}

	before := info.LiquidityGross
	after := new(big.Int).Add(before.ToBig(), delta.Big())
	if after.Sign() < 0 || after.BitLen() > 256 {
		panic("reducer: tick liquidity_gross underflow/overflow (contract invariant violated)")
	}
	afterU, overflow := uint256.FromBig(after)
	if overflow {
		panic("reducer: tick liquidity_gross exceeds 256 bits (contract invariant violated)")
	}

	flipped := afterU.IsZero() != before.IsZero()
	if before.IsZero() {
		info.Initialized = true
	}
	info.LiquidityGross = afterU

	if upper {
		info.LiquidityNet = info.LiquidityNet.Add(delta.Neg())
	} else {
		info.LiquidityNet = info.LiquidityNet.Add(delta)
	}

	v.Ticks[t] = info
	return flipped
}

// updatePosition mirrors the contract's _updatePosition: flip both tick
// boundaries, toggle their bitmap bits when they flip, and erase a tick
// whose gross liquidity returned to zero.
func updatePosition(v *pooltypes.V3Tick, tickLower, tickUpper int32, delta *pooltypes.Int128) {
	flippedLower := updateTick(v, tickLower, delta, false)
	flippedUpper := updateTick(v, tickUpper, delta, true)

	if flippedLower {
		flipBit(v, tickLower)
	}
	if flippedUpper {
		flipBit(v, tickUpper)
	}

	if delta.Sign() < 0 {
		if flippedLower {
			delete(v.Ticks, tickLower)
		}
		if flippedUpper {
			delete(v.Ticks, tickUpper)
		}
	}
}

// modifyPosition is the Mint/Burn entry point. isInitialSync suppresses the
// pool.liquidity adjustment: the snapshot already reflects the pool's
// current liquidity, so replaying historical Mint/Burn to rebuild ticks and
// the bitmap must not double-count it.
func modifyPosition(v *pooltypes.V3Tick, tickLower, tickUpper int32, delta *pooltypes.Int128, isInitialSync bool) {
	updatePosition(v, tickLower, tickUpper, delta)

	if delta.IsZero() || isInitialSync {
		return
	}
	if tickLower <= v.Tick && v.Tick < tickUpper {
		liq := new(big.Int).Add(v.Liquidity.ToBig(), delta.Big())
		if liq.Sign() < 0 || liq.BitLen() > 256 {
			panic("reducer: pool liquidity underflow/overflow (contract invariant violated)")
		}
		u, overflow := uint256.FromBig(liq)
		if overflow {
			panic("reducer: pool liquidity exceeds 256 bits (contract invariant violated)")
		}
		v.Liquidity = u
	}
}
