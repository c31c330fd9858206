// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"github.com/luxfi/geth/accounts/abi"
)

// mustType parses a plain (non-tuple) Solidity type string, panicking on a
// malformed literal — these are all compile-time constants below, so a
// parse failure can only mean a typo in this file.
func mustType(solType string) abi.Type {
	t, err := abi.NewType(solType, "", nil)
	if err != nil {
		panic("snapshot: invalid abi type " + solType + ": " + err.Error())
	}
	return t
}

// mustTupleSliceType builds the `tuple[]` ABI type for a snapshot contract's
// returned array, given its component field list in schema order.
func mustTupleSliceType(components []abi.ArgumentMarshaling) abi.Type {
	t, err := abi.NewType("tuple[]", "", components)
	if err != nil {
		panic("snapshot: invalid tuple schema: " + err.Error())
	}
	return t
}

// addressSliceArgs packs the address[] constructor argument every snapshot
// contract in this system takes.
var addressSliceArgs = abi.Arguments{{Type: mustType("address[]")}}

// v2ReserveTupleArgs is the return schema of the V2-reserve snapshot
// contract.
var v2ReserveTupleArgs = abi.Arguments{{Type: mustTupleSliceType([]abi.ArgumentMarshaling{
	{Name: "Pool", Type: "address"},
	{Name: "Token0", Type: "address"},
	{Name: "Token1", Type: "address"},
	{Name: "Dec0", Type: "uint8"},
	{Name: "Dec1", Type: "uint8"},
	{Name: "R0", Type: "uint112"},
	{Name: "R1", Type: "uint112"},
	{Name: "Name0", Type: "string"},
	{Name: "Name1", Type: "string"},
})}}

// v3TickTupleArgs is the return schema of the V3-tick snapshot contract.
var v3TickTupleArgs = abi.Arguments{{Type: mustTupleSliceType([]abi.ArgumentMarshaling{
	{Name: "Pool", Type: "address"},
	{Name: "Token0", Type: "address"},
	{Name: "Dec0", Type: "uint8"},
	{Name: "Token1", Type: "address"},
	{Name: "Dec1", Type: "uint8"},
	{Name: "Liquidity", Type: "uint128"},
	{Name: "SqrtPrice", Type: "uint160"},
	{Name: "Tick", Type: "int24"},
	{Name: "TickSpacing", Type: "int24"},
	{Name: "Fee", Type: "uint24"},
	{Name: "LiquidityNet", Type: "int128"},
})}}

// weightedTupleArgs is the return schema of the weighted-pool snapshot
// contract.
var weightedTupleArgs = abi.Arguments{{Type: mustTupleSliceType([]abi.ArgumentMarshaling{
	{Name: "Pool", Type: "address"},
	{Name: "PoolId", Type: "bytes32"},
	{Name: "Token0", Type: "address"},
	{Name: "Token1", Type: "address"},
	{Name: "Dec0", Type: "uint8"},
	{Name: "Dec1", Type: "uint8"},
	{Name: "ExtraTokens", Type: "address[]"},
	{Name: "ExtraDecimals", Type: "uint8[]"},
	{Name: "Balances", Type: "uint256[]"},
	{Name: "Weights", Type: "uint256[]"},
	{Name: "SwapFee", Type: "uint256"},
})}}

// twoCryptoTupleArgs is the return schema of the Curve two-asset snapshot
// contract.
var twoCryptoTupleArgs = abi.Arguments{{Type: mustTupleSliceType([]abi.ArgumentMarshaling{
	{Name: "Pool", Type: "address"},
	{Name: "T0", Type: "address"},
	{Name: "T1", Type: "address"},
	{Name: "D0", Type: "uint8"},
	{Name: "D1", Type: "uint8"},
})}}

// triCryptoTupleArgs is the return schema of the Curve three-asset snapshot
// contract.
var triCryptoTupleArgs = abi.Arguments{{Type: mustTupleSliceType([]abi.ArgumentMarshaling{
	{Name: "Pool", Type: "address"},
	{Name: "T0", Type: "address"},
	{Name: "T1", Type: "address"},
	{Name: "T2", Type: "address"},
	{Name: "D0", Type: "uint8"},
	{Name: "D1", Type: "uint8"},
	{Name: "D2", Type: "uint8"},
})}}
