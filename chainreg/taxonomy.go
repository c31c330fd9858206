// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chainreg

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/crypto"
	"github.com/luxfi/poolsync/pooltypes"
)

// Canonical event signatures, hashed the same way the ABI package computes
// an event's topic-0.
const (
	sigPairCreated = "PairCreated(address,address,address,uint256)"
	sigPoolCreated = "PoolCreated(address,address,uint24,int24,address)"

	sigSyncV2    = "Sync(uint112,uint112)"
	sigMintV3    = "Mint(address,address,int24,int24,uint128,uint256,uint256)"
	sigBurnV3    = "Burn(address,int24,int24,uint128,uint256,uint256)"
	sigSwapV3    = "Swap(address,address,int256,int256,uint160,uint128,int24)"
	sigSwapV3Fee = "Swap(address,address,int256,int256,uint160,uint128,int24,uint128,uint128)"
	sigSwapBal   = "Swap(bytes32,address,address,uint256,uint256)"
)

func topic(sig string) common.Hash { return crypto.Keccak256Hash([]byte(sig)) }

// Exported liquidity-event topics, reused by the reducer to dispatch a log
// to the right fold function.
var (
	TopicSyncV2    = topic(sigSyncV2)
	TopicMintV3    = topic(sigMintV3)
	TopicBurnV3    = topic(sigBurnV3)
	TopicSwapV3    = topic(sigSwapV3)
	TopicSwapV3Fee = topic(sigSwapV3Fee)
	TopicSwapBal   = topic(sigSwapBal)
)

// extractPairCreated pulls the pool address from a UniswapV2-shaped
// PairCreated log: token0, token1 are indexed topics; pair is the first
// non-indexed word.
func extractPairCreated(log *types.Log) (common.Address, error) {
	if len(log.Data) < 32 {
		return common.Address{}, fmt.Errorf("chainreg: PairCreated log too short (%d bytes)", len(log.Data))
	}
	return common.BytesToAddress(log.Data[12:32]), nil
}

// extractPoolCreated pulls the pool address from a UniswapV3-shaped
// PoolCreated log: token0, token1, fee are indexed; tickSpacing and pool are
// packed into data as two 32-byte words, pool in the second.
func extractPoolCreated(log *types.Log) (common.Address, error) {
	if len(log.Data) < 64 {
		return common.Address{}, fmt.Errorf("chainreg: PoolCreated log too short (%d bytes)", len(log.Data))
	}
	return common.BytesToAddress(log.Data[44:64]), nil
}

// defaultTaxonomyRows returns the built-in pool-flavor descriptor table.
// Adding a fork-flavor is adding one row here.
func defaultTaxonomyRows() []pooltypes.FlavorDescriptor {
	return []pooltypes.FlavorDescriptor{
		{
			Flavor:             pooltypes.FlavorV2Reserve,
			CreationTopic:      topic(sigPairCreated),
			ExtractAddress:     extractPairCreated,
			TupleSchema:        "(address,address,address,uint8,uint8,uint112,uint112,string,string)",
			SnapshotBytecodeID: "v2_reserve_snapshot",
			EventTopics:        []common.Hash{topic(sigSyncV2)},
			FoldKind:           pooltypes.FoldV2Reserve,
			DefaultChunkSize:   40,
		},
		{
			Flavor:             pooltypes.FlavorV3Tick,
			CreationTopic:      topic(sigPoolCreated),
			ExtractAddress:     extractPoolCreated,
			TupleSchema:        "(address,address,uint8,address,uint8,uint128,uint160,int24,int24,uint24,int128)",
			SnapshotBytecodeID: "v3_tick_snapshot",
			EventTopics:        []common.Hash{topic(sigMintV3), topic(sigBurnV3), topic(sigSwapV3), topic(sigSwapV3Fee)},
			FoldKind:           pooltypes.FoldV3Tick,
			DefaultChunkSize:   40,
		},
		{
			Flavor:             pooltypes.FlavorWeighted,
			CreationTopic:      topic(sigPairCreated), // weighted-pool factories vary; overridden per-deployment in practice
			ExtractAddress:     extractPairCreated,
			TupleSchema:        "(address,bytes32,address,address,uint8,uint8,address[],uint8[],uint256[],uint256[],uint256)",
			SnapshotBytecodeID: "weighted_snapshot",
			EventTopics:        []common.Hash{topic(sigSwapBal)},
			FoldKind:           pooltypes.FoldWeighted,
			DefaultChunkSize:   15,
		},
		{
			Flavor:             pooltypes.FlavorTwoCrypto,
			CreationTopic:      topic(sigPairCreated),
			ExtractAddress:     extractPairCreated,
			TupleSchema:        "(address,address,address,uint8,uint8)",
			SnapshotBytecodeID: "two_crypto_snapshot",
			FoldKind:           pooltypes.FoldNone,
			DefaultChunkSize:   10,
		},
		{
			Flavor:             pooltypes.FlavorTriCrypto,
			CreationTopic:      topic(sigPairCreated),
			ExtractAddress:     extractPairCreated,
			TupleSchema:        "(address,address,address,address,uint8,uint8,uint8)",
			SnapshotBytecodeID: "tri_crypto_snapshot",
			FoldKind:           pooltypes.FoldNone,
			DefaultChunkSize:   10,
		},
		{
			Flavor:             pooltypes.FlavorMaverick,
			CreationTopic:      topic(sigPoolCreated),
			ExtractAddress:     extractPoolCreated,
			TupleSchema:        "(address,address,address,uint8,uint8)",
			SnapshotBytecodeID: "maverick_snapshot",
			FoldKind:           pooltypes.FoldNone,
			DefaultChunkSize:   20,
		},
	}
}
