// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/pooltypes"
)

// field fetches a named field off the reflect-generated anonymous tuple
// struct the abi package returns from Arguments.Unpack when no bound Go
// struct is registered for the tuple type (its field names come from the
// ArgumentMarshaling.Name values in abi.go, capitalized).
func field(v reflect.Value, name string) reflect.Value {
	return v.FieldByName(name)
}

func asBig(v reflect.Value) *big.Int      { return v.Interface().(*big.Int) }
func asUint256(v reflect.Value) *uint256.Int {
	u, overflow := uint256.FromBig(asBig(v))
	if overflow {
		panic("snapshot: tuple field exceeds 256 bits, which the schema should never produce")
	}
	return u
}
func asAddress(v reflect.Value) common.Address { return v.Interface().(common.Address) }
func asUint8(v reflect.Value) uint8            { return v.Interface().(uint8) }
func asString(v reflect.Value) string          { return v.Interface().(string) }

// asInt32 narrows an int24 tuple field. go-ethereum's abi package only
// returns native int8/16/32/64 for those exact bit widths; int24 (and every
// other non-native width) decodes to *big.Int, so the field must be read
// back through big.Int.Int64 rather than asserted directly to int32.
func asInt32(v reflect.Value) int32 {
	b := asBig(v)
	if !b.IsInt64() || b.Int64() < math.MinInt32 || b.Int64() > math.MaxInt32 {
		panic("snapshot: int24 tuple field out of int32 range: " + b.String())
	}
	return int32(b.Int64())
}

// asUint32 narrows a uint24 tuple field; see asInt32.
func asUint32(v reflect.Value) uint32 {
	b := asBig(v)
	if !b.IsUint64() || b.Uint64() > math.MaxUint32 {
		panic("snapshot: uint24 tuple field out of uint32 range: " + b.String())
	}
	return uint32(b.Uint64())
}

func decodeV2ReserveTuples(data []byte) ([]pooltypes.Pool, error) {
	vals, err := v2ReserveTupleArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode v2-reserve tuples: %w", err)
	}
	slice := reflect.ValueOf(vals[0])
	out := make([]pooltypes.Pool, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		el := slice.Index(i)
		out = append(out, pooltypes.Pool{
			Address:        asAddress(field(el, "Pool")),
			Flavor:         pooltypes.FlavorV2Reserve,
			Token0:         asAddress(field(el, "Token0")),
			Token1:         asAddress(field(el, "Token1")),
			Token0Decimals: asUint8(field(el, "Dec0")),
			Token1Decimals: asUint8(field(el, "Dec1")),
			Token0Name:     asString(field(el, "Name0")),
			Token1Name:     asString(field(el, "Name1")),
			V2: &pooltypes.V2Reserve{
				Reserve0: asUint256(field(el, "R0")),
				Reserve1: asUint256(field(el, "R1")),
			},
		})
	}
	return out, nil
}

func decodeV3TickTuples(data []byte) ([]pooltypes.Pool, error) {
	vals, err := v3TickTupleArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode v3-tick tuples: %w", err)
	}
	slice := reflect.ValueOf(vals[0])
	out := make([]pooltypes.Pool, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		el := slice.Index(i)
		netDelta := asBig(field(el, "LiquidityNet"))
		out = append(out, pooltypes.Pool{
			Address:        asAddress(field(el, "Pool")),
			Flavor:         pooltypes.FlavorV3Tick,
			Token0:         asAddress(field(el, "Token0")),
			Token1:         asAddress(field(el, "Token1")),
			Token0Decimals: asUint8(field(el, "Dec0")),
			Token1Decimals: asUint8(field(el, "Dec1")),
			V3: &pooltypes.V3Tick{
				Liquidity:   asUint256(field(el, "Liquidity")),
				SqrtPriceX:  asUint256(field(el, "SqrtPrice")),
				Tick:        asInt32(field(el, "Tick")),
				TickSpacing: asInt32(field(el, "TickSpacing")),
				Fee:         asUint32(field(el, "Fee")),
				TickBitmap:  map[int16]*uint256.Int{},
				Ticks:       initialTickMap(asInt32(field(el, "Tick")), netDelta),
			},
		})
	}
	return out, nil
}

// initialTickMap is intentionally empty: the snapshot contract reports only
// the pool's current liquidity/tick/sqrt-price, not its historical tick
// distribution. The tick/bitmap structures are rebuilt by replaying
// historical Mint/Burn logs with is_initial_sync=true.
func initialTickMap(_ int32, _ *big.Int) map[int32]*pooltypes.TickInfo {
	return map[int32]*pooltypes.TickInfo{}
}

func decodeWeightedTuples(data []byte) ([]pooltypes.Pool, error) {
	vals, err := weightedTupleArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode weighted tuples: %w", err)
	}
	slice := reflect.ValueOf(vals[0])
	out := make([]pooltypes.Pool, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		el := slice.Index(i)
		extraTokens := field(el, "ExtraTokens").Interface().([]common.Address)
		extraDecimals := field(el, "ExtraDecimals").Interface().([]uint8)
		balancesBig := field(el, "Balances").Interface().([]*big.Int)
		weightsBig := field(el, "Weights").Interface().([]*big.Int)

		tokens := append([]common.Address{asAddress(field(el, "Token0")), asAddress(field(el, "Token1"))}, extraTokens...)
		decimals := append([]uint8{asUint8(field(el, "Dec0")), asUint8(field(el, "Dec1"))}, extraDecimals...)
		balances := make([]*uint256.Int, len(balancesBig))
		for j, b := range balancesBig {
			balances[j] = asUint256(reflect.ValueOf(b))
		}
		weights := make([]*uint256.Int, len(weightsBig))
		for j, w := range weightsBig {
			weights[j] = asUint256(reflect.ValueOf(w))
		}

		var poolID [32]byte
		copy(poolID[:], field(el, "PoolId").Interface().([32]byte)[:])

		out = append(out, pooltypes.Pool{
			Address:        asAddress(field(el, "Pool")),
			Flavor:         pooltypes.FlavorWeighted,
			Token0:         tokens[0],
			Token1:         tokens[1],
			Token0Decimals: decimals[0],
			Token1Decimals: decimals[1],
			WB: &pooltypes.Weighted{
				PoolID:   poolID,
				Tokens:   tokens,
				Decimals: decimals,
				Balances: balances,
				Weights:  weights,
				SwapFee:  asUint256(field(el, "SwapFee")),
			},
		})
	}
	return out, nil
}

func decodeTwoCryptoTuples(data []byte) ([]pooltypes.Pool, error) {
	vals, err := twoCryptoTupleArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode two-crypto tuples: %w", err)
	}
	slice := reflect.ValueOf(vals[0])
	out := make([]pooltypes.Pool, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		el := slice.Index(i)
		t0, t1 := asAddress(field(el, "T0")), asAddress(field(el, "T1"))
		d0, d1 := asUint8(field(el, "D0")), asUint8(field(el, "D1"))
		out = append(out, pooltypes.Pool{
			Address:        asAddress(field(el, "Pool")),
			Flavor:         pooltypes.FlavorTwoCrypto,
			Token0:         t0,
			Token1:         t1,
			Token0Decimals: d0,
			Token1Decimals: d1,
			CC:             &pooltypes.Curve{Tokens: []common.Address{t0, t1}, Decimals: []uint8{d0, d1}},
		})
	}
	return out, nil
}

func decodeTriCryptoTuples(data []byte) ([]pooltypes.Pool, error) {
	vals, err := triCryptoTupleArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode tri-crypto tuples: %w", err)
	}
	slice := reflect.ValueOf(vals[0])
	out := make([]pooltypes.Pool, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		el := slice.Index(i)
		t0, t1, t2 := asAddress(field(el, "T0")), asAddress(field(el, "T1")), asAddress(field(el, "T2"))
		d0, d1, d2 := asUint8(field(el, "D0")), asUint8(field(el, "D1")), asUint8(field(el, "D2"))
		out = append(out, pooltypes.Pool{
			Address:        asAddress(field(el, "Pool")),
			Flavor:         pooltypes.FlavorTriCrypto,
			Token0:         t0,
			Token1:         t1,
			Token0Decimals: d0,
			Token1Decimals: d1,
			CC:             &pooltypes.Curve{Tokens: []common.Address{t0, t1, t2}, Decimals: []uint8{d0, d1, d2}},
		})
	}
	return out, nil
}

// decodeMaverickTuples reuses the two-crypto tuple shape: Maverick pools
// have no snapshot tuple schema of their own, only address + token
// addresses + decimals.
func decodeMaverickTuples(data []byte) ([]pooltypes.Pool, error) {
	pools, err := decodeTwoCryptoTuples(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode maverick tuples: %w", err)
	}
	for i := range pools {
		pools[i].Flavor = pooltypes.FlavorMaverick
		mv := &pooltypes.Maverick{Tokens: pools[i].CC.Tokens, Decimals: pools[i].CC.Decimals}
		pools[i].CC = nil
		pools[i].MV = mv
	}
	return pools, nil
}
