// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reducer folds Sync/Mint/Burn/Swap logs into pool state. It is
// the numerically hardest component: tick accounting, bitmap maintenance
// and saturating/checked arithmetic all live here.
package reducer

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/poolsync/poolerrs"
)

func mustType(solType string) abi.Type {
	t, err := abi.NewType(solType, "", nil)
	if err != nil {
		panic("reducer: invalid abi type " + solType + ": " + err.Error())
	}
	return t
}

var (
	syncDataArgs = abi.Arguments{
		{Name: "reserve0", Type: mustType("uint112")},
		{Name: "reserve1", Type: mustType("uint112")},
	}
	mintDataArgs = abi.Arguments{
		{Name: "sender", Type: mustType("address")},
		{Name: "amount", Type: mustType("uint128")},
		{Name: "amount0", Type: mustType("uint256")},
		{Name: "amount1", Type: mustType("uint256")},
	}
	burnDataArgs = abi.Arguments{
		{Name: "amount", Type: mustType("uint128")},
		{Name: "amount0", Type: mustType("uint256")},
		{Name: "amount1", Type: mustType("uint256")},
	}
	swapV3DataArgs = abi.Arguments{
		{Name: "amount0", Type: mustType("int256")},
		{Name: "amount1", Type: mustType("int256")},
		{Name: "sqrtPriceX96", Type: mustType("uint160")},
		{Name: "liquidity", Type: mustType("uint128")},
		{Name: "tick", Type: mustType("int24")},
	}
	swapV3FeeDataArgs = abi.Arguments{
		{Name: "amount0", Type: mustType("int256")},
		{Name: "amount1", Type: mustType("int256")},
		{Name: "sqrtPriceX96", Type: mustType("uint160")},
		{Name: "liquidity", Type: mustType("uint128")},
		{Name: "tick", Type: mustType("int24")},
		{Name: "protocolFeesToken0", Type: mustType("uint128")},
		{Name: "protocolFeesToken1", Type: mustType("uint128")},
	}
	swapBalDataArgs = abi.Arguments{
		{Name: "amountIn", Type: mustType("uint256")},
		{Name: "amountOut", Type: mustType("uint256")},
	}
)

// signedFromTopic reinterprets an indexed topic word as a two's-complement
// 256-bit signed integer, the encoding Solidity uses for indexed signed
// value types (int24 tickLower/tickUpper included).
func signedFromTopic(h common.Hash) *big.Int {
	v := new(big.Int).SetBytes(h[:])
	if h[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return v
}

func addressFromTopic(h common.Hash) common.Address {
	return common.BytesToAddress(h[:])
}

// narrowInt24 converts an int24 tuple field. go-ethereum's abi package only
// returns native int8/16/32/64 for those exact bit widths; int24 decodes to
// *big.Int, so the tick field must be read back through big.Int.Int64
// rather than asserted directly to int32.
func narrowInt24(v any) (int32, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("tick field has unexpected type %T", v)
	}
	if !b.IsInt64() || b.Int64() < math.MinInt32 || b.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("tick field out of int32 range: %s", b.String())
	}
	return int32(b.Int64()), nil
}

type syncEvent struct {
	Reserve0, Reserve1 *uint256.Int
}

func decodeSync(lg *types.Log) (*syncEvent, error) {
	vals, err := syncDataArgs.Unpack(lg.Data)
	if err != nil {
		return nil, &poolerrs.DecodeError{Op: "decode Sync", Err: err}
	}
	r0, _ := uint256.FromBig(vals[0].(*big.Int))
	r1, _ := uint256.FromBig(vals[1].(*big.Int))
	return &syncEvent{Reserve0: r0, Reserve1: r1}, nil
}

type mintBurnEvent struct {
	TickLower, TickUpper int32
	Amount               *big.Int
}

func decodeMint(lg *types.Log) (*mintBurnEvent, error) {
	if len(lg.Topics) < 4 {
		return nil, &poolerrs.DecodeError{Op: "decode Mint", Err: fmt.Errorf("log missing indexed topics (got %d)", len(lg.Topics))}
	}
	vals, err := mintDataArgs.Unpack(lg.Data)
	if err != nil {
		return nil, &poolerrs.DecodeError{Op: "decode Mint", Err: err}
	}
	return &mintBurnEvent{
		TickLower: int32(signedFromTopic(lg.Topics[2]).Int64()),
		TickUpper: int32(signedFromTopic(lg.Topics[3]).Int64()),
		Amount:    vals[1].(*big.Int),
	}, nil
}

func decodeBurn(lg *types.Log) (*mintBurnEvent, error) {
	if len(lg.Topics) < 4 {
		return nil, &poolerrs.DecodeError{Op: "decode Burn", Err: fmt.Errorf("log missing indexed topics (got %d)", len(lg.Topics))}
	}
	vals, err := burnDataArgs.Unpack(lg.Data)
	if err != nil {
		return nil, &poolerrs.DecodeError{Op: "decode Burn", Err: err}
	}
	return &mintBurnEvent{
		TickLower: int32(signedFromTopic(lg.Topics[2]).Int64()),
		TickUpper: int32(signedFromTopic(lg.Topics[3]).Int64()),
		Amount:    vals[0].(*big.Int),
	}, nil
}

type swapV3Event struct {
	SqrtPriceX96 *uint256.Int
	Liquidity    *uint256.Int
	Tick         int32
}

func decodeSwapV3(lg *types.Log, hasFee bool) (*swapV3Event, error) {
	args := swapV3DataArgs
	if hasFee {
		args = swapV3FeeDataArgs
	}
	vals, err := args.Unpack(lg.Data)
	if err != nil {
		return nil, &poolerrs.DecodeError{Op: "decode Swap (v3)", Err: err}
	}
	sqrtPrice, overflow := uint256.FromBig(vals[2].(*big.Int))
	if overflow {
		return nil, &poolerrs.DecodeError{Op: "decode Swap (v3)", Err: fmt.Errorf("sqrtPriceX96 exceeds 256 bits")}
	}
	liquidity, overflow := uint256.FromBig(vals[3].(*big.Int))
	if overflow {
		return nil, &poolerrs.DecodeError{Op: "decode Swap (v3)", Err: fmt.Errorf("liquidity exceeds 256 bits")}
	}
	tick, err := narrowInt24(vals[4])
	if err != nil {
		return nil, &poolerrs.DecodeError{Op: "decode Swap (v3)", Err: err}
	}
	return &swapV3Event{
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		Tick:         tick,
	}, nil
}

type swapBalEvent struct {
	TokenIn, TokenOut     common.Address
	AmountIn, AmountOut   *uint256.Int
}

// decodeSwapBal decodes a Balancer-style
// Swap(bytes32 indexed poolId, address indexed tokenIn, address indexed
// tokenOut, uint256 amountIn, uint256 amountOut): poolId, tokenIn, tokenOut
// are indexed topics 1-3.
func decodeSwapBal(lg *types.Log) (*swapBalEvent, error) {
	if len(lg.Topics) < 4 {
		return nil, &poolerrs.DecodeError{Op: "decode Swap (weighted)", Err: fmt.Errorf("log missing indexed topics (got %d)", len(lg.Topics))}
	}
	vals, err := swapBalDataArgs.Unpack(lg.Data)
	if err != nil {
		return nil, &poolerrs.DecodeError{Op: "decode Swap (weighted)", Err: err}
	}
	amountIn, _ := uint256.FromBig(vals[0].(*big.Int))
	amountOut, _ := uint256.FromBig(vals[1].(*big.Int))
	return &swapBalEvent{
		TokenIn:   addressFromTopic(lg.Topics[2]),
		TokenOut:  addressFromTopic(lg.Topics[3]),
		AmountIn:  amountIn,
		AmountOut: amountOut,
	}, nil
}
