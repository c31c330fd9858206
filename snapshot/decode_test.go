// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

// newTuple builds one element of a `tuple[]` ABI argument via reflection,
// the same anonymous struct type Arguments.Unpack produces when no bound Go
// struct is registered for the tuple. Packing through this struct (rather
// than hand-encoding bytes) exercises the real abi.Arguments.Pack/Unpack
// round trip the snapshot contract's actual ABI goes through.
func newTuple(t *testing.T, tupleSliceType reflect.Type, fields map[string]any) reflect.Value {
	t.Helper()
	elemType := tupleSliceType.Elem()
	v := reflect.New(elemType).Elem()
	for name, val := range fields {
		f := v.FieldByName(name)
		require.True(t, f.IsValid(), "no field %s on generated tuple struct", name)
		f.Set(reflect.ValueOf(val))
	}
	return v
}

func packTupleSlice(t *testing.T, args interface{ Pack(...any) ([]byte, error) }, tupleSliceType reflect.Type, elems ...reflect.Value) []byte {
	t.Helper()
	slice := reflect.MakeSlice(tupleSliceType, 0, len(elems))
	for _, e := range elems {
		slice = reflect.Append(slice, e)
	}
	data, err := args.Pack(slice.Interface())
	require.NoError(t, err)
	return data
}

// TestDecodeV3TickTuples_NarrowsInt24AndUint24Fields packs one real V3-tick
// tuple (including a negative int24 tick) through the actual ABI schema and
// decodes it, exercising the *big.Int->int32/uint32 narrowing
// decodeV3TickTuples relies on instead of a direct (and unsafe) type assertion.
func TestDecodeV3TickTuples_NarrowsInt24AndUint24Fields(t *testing.T) {
	tupleType := v3TickTupleArgs[0].Type.Elem.TupleType
	sliceType := reflect.SliceOf(tupleType)

	pool := common.HexToAddress("0x01")
	token0 := common.HexToAddress("0xA0")
	token1 := common.HexToAddress("0xB0")

	elem := newTuple(t, sliceType, map[string]any{
		"Pool":         pool,
		"Token0":       token0,
		"Dec0":         uint8(18),
		"Token1":       token1,
		"Dec1":         uint8(6),
		"Liquidity":    big.NewInt(123456789),
		"SqrtPrice":    big.NewInt(987654321),
		"Tick":         big.NewInt(-887272),
		"TickSpacing":  big.NewInt(60),
		"Fee":          big.NewInt(3000),
		"LiquidityNet": big.NewInt(0),
	})
	data := packTupleSlice(t, v3TickTupleArgs, sliceType, elem)

	pools, err := decodeV3TickTuples(data)
	require.NoError(t, err)
	require.Len(t, pools, 1)

	p := pools[0]
	require.Equal(t, pool, p.Address)
	require.Equal(t, token0, p.Token0)
	require.Equal(t, token1, p.Token1)
	require.Equal(t, uint8(18), p.Token0Decimals)
	require.Equal(t, uint8(6), p.Token1Decimals)
	require.NotNil(t, p.V3)
	require.Equal(t, uint256.NewInt(123456789), p.V3.Liquidity)
	require.Equal(t, uint256.NewInt(987654321), p.V3.SqrtPriceX)
	require.Equal(t, int32(-887272), p.V3.Tick)
	require.Equal(t, int32(60), p.V3.TickSpacing)
	require.Equal(t, uint32(3000), p.V3.Fee)
}
