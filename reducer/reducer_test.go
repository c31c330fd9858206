// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reducer

import (
	"math/big"
	"sort"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/poolsync/chainreg"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/stretchr/testify/require"
)

func int24Topic(v int32) common.Hash {
	bi := big.NewInt(int64(v))
	if v < 0 {
		bi.Add(bi, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	var h common.Hash
	b := bi.Bytes()
	copy(h[32-len(b):], b)
	return h
}

func addrTopic(a common.Address) common.Hash {
	var h common.Hash
	copy(h[12:], a.Bytes())
	return h
}

func mintLog(block uint64, txIdx, logIdx uint, tickLower, tickUpper int32, amount int64) types.Log {
	data, err := mintDataArgs.Pack(common.Address{}, big.NewInt(amount), big.NewInt(0), big.NewInt(0))
	if err != nil {
		panic(err)
	}
	return types.Log{
		Topics:      []common.Hash{chainreg.TopicMintV3, addrTopic(common.Address{}), int24Topic(tickLower), int24Topic(tickUpper)},
		Data:        data,
		BlockNumber: block,
		TxIndex:     txIdx,
		Index:       logIdx,
	}
}

func burnLog(block uint64, txIdx, logIdx uint, tickLower, tickUpper int32, amount int64) types.Log {
	data, err := burnDataArgs.Pack(big.NewInt(amount), big.NewInt(0), big.NewInt(0))
	if err != nil {
		panic(err)
	}
	return types.Log{
		Topics:      []common.Hash{chainreg.TopicBurnV3, addrTopic(common.Address{}), int24Topic(tickLower), int24Topic(tickUpper)},
		Data:        data,
		BlockNumber: block,
		TxIndex:     txIdx,
		Index:       logIdx,
	}
}

func syncLog(reserve0, reserve1 int64) types.Log {
	data, err := syncDataArgs.Pack(big.NewInt(reserve0), big.NewInt(reserve1))
	if err != nil {
		panic(err)
	}
	return types.Log{Topics: []common.Hash{chainreg.TopicSyncV2}, Data: data}
}

func swapBalLog(tokenIn, tokenOut common.Address, amountIn, amountOut int64) types.Log {
	data, err := swapBalDataArgs.Pack(big.NewInt(amountIn), big.NewInt(amountOut))
	if err != nil {
		panic(err)
	}
	return types.Log{Topics: []common.Hash{chainreg.TopicSwapBal, {}, addrTopic(tokenIn), addrTopic(tokenOut)}, Data: data}
}

func swapV3Log(sqrtPrice, liquidity int64, tick int32) types.Log {
	data, err := swapV3DataArgs.Pack(big.NewInt(0), big.NewInt(0), big.NewInt(sqrtPrice), big.NewInt(liquidity), big.NewInt(int64(tick)))
	if err != nil {
		panic(err)
	}
	return types.Log{Topics: []common.Hash{chainreg.TopicSwapV3}, Data: data}
}

func freshV3Pool(tick, spacing int32) *pooltypes.Pool {
	return &pooltypes.Pool{
		Address: common.HexToAddress("0x01"),
		Flavor:  pooltypes.FlavorV3Tick,
		Token0:  common.HexToAddress("0xA0"),
		Token1:  common.HexToAddress("0xB0"),
		V3: &pooltypes.V3Tick{
			Liquidity:   uint256.NewInt(0),
			SqrtPriceX:  uint256.NewInt(0),
			Tick:        tick,
			TickSpacing: spacing,
			TickBitmap:  map[int16]*uint256.Int{},
			Ticks:       map[int32]*pooltypes.TickInfo{},
		},
	}
}

// Scenario 1: fresh V3 mint straddling the current tick.
func TestReducer_FreshV3Mint(t *testing.T) {
	pool := freshV3Pool(0, 60)
	r := New()
	require.NoError(t, r.Apply(pool, ptr(mintLog(1, 0, 0, -60, 60, 1000)), false))

	lower := pool.V3.Ticks[-60]
	require.NotNil(t, lower)
	require.Equal(t, uint256.NewInt(1000), lower.LiquidityGross)
	require.Equal(t, int64(1000), lower.LiquidityNet.Big().Int64())
	require.True(t, lower.Initialized)

	upper := pool.V3.Ticks[60]
	require.NotNil(t, upper)
	require.Equal(t, uint256.NewInt(1000), upper.LiquidityGross)
	require.Equal(t, int64(-1000), upper.LiquidityNet.Big().Int64())

	wLower, bLower := floorDivMod(-60, 60)
	require.Equal(t, int16(-1), wLower)
	require.Equal(t, uint8(255), bLower)
	require.True(t, bitSet(pool.V3.TickBitmap[wLower], bLower))

	wUpper, bUpper := floorDivMod(60, 60)
	require.Equal(t, int16(0), wUpper)
	require.Equal(t, uint8(1), bUpper)
	require.True(t, bitSet(pool.V3.TickBitmap[wUpper], bUpper))

	require.Equal(t, uint256.NewInt(1000), pool.V3.Liquidity)
}

// Scenario 2: burn back to zero erases both ticks and clears their bits.
func TestReducer_BurnToZeroErasesTicks(t *testing.T) {
	pool := freshV3Pool(0, 60)
	r := New()
	require.NoError(t, r.Apply(pool, ptr(mintLog(1, 0, 0, -60, 60, 1000)), false))
	require.NoError(t, r.Apply(pool, ptr(burnLog(2, 0, 0, -60, 60, 1000)), false))

	require.NotContains(t, pool.V3.Ticks, int32(-60))
	require.NotContains(t, pool.V3.Ticks, int32(60))

	w, b := floorDivMod(-60, 60)
	require.False(t, bitSet(pool.V3.TickBitmap[w], b))
	require.True(t, pool.V3.Liquidity.IsZero())
}

// Scenario 3: initial-sync replay populates ticks but never touches
// pool.liquidity, which the snapshot already reflects.
func TestReducer_InitialSyncPreservesSnapshotLiquidity(t *testing.T) {
	pool := freshV3Pool(0, 60)
	pool.V3.Liquidity = uint256.NewInt(5000)
	r := New()
	require.NoError(t, r.Apply(pool, ptr(mintLog(1, 0, 0, -60, 60, 1000)), true))

	require.NotNil(t, pool.V3.Ticks[-60])
	require.NotNil(t, pool.V3.Ticks[60])
	require.Equal(t, uint256.NewInt(5000), pool.V3.Liquidity)
}

// Scenario 4: V2 Sync overwrites reserves unconditionally.
func TestReducer_V2SyncOverwritesReserves(t *testing.T) {
	pool := &pooltypes.Pool{
		Address: common.HexToAddress("0x01"),
		Flavor:  pooltypes.FlavorV2Reserve,
		Token0:  common.HexToAddress("0xA0"),
		Token1:  common.HexToAddress("0xB0"),
		V2:      &pooltypes.V2Reserve{Reserve0: uint256.NewInt(100), Reserve1: uint256.NewInt(200)},
	}
	r := New()
	require.NoError(t, r.Apply(pool, ptr(syncLog(150, 250)), false))
	require.Equal(t, uint256.NewInt(150), pool.V2.Reserve0)
	require.Equal(t, uint256.NewInt(250), pool.V2.Reserve1)
}

// Scenario 5: weighted-pool swap updates the balance vector by token index.
func TestReducer_WeightedSwapUpdatesBalances(t *testing.T) {
	tokenA := common.HexToAddress("0xA1")
	tokenB := common.HexToAddress("0xB1")
	tokenC := common.HexToAddress("0xC1")
	pool := &pooltypes.Pool{
		Address: common.HexToAddress("0x01"),
		Flavor:  pooltypes.FlavorWeighted,
		Token0:  tokenA,
		Token1:  tokenB,
		WB: &pooltypes.Weighted{
			Tokens:   []common.Address{tokenA, tokenB, tokenC},
			Balances: []*uint256.Int{uint256.NewInt(100), uint256.NewInt(200), uint256.NewInt(300)},
		},
	}
	r := New()
	require.NoError(t, r.Apply(pool, ptr(swapBalLog(tokenA, tokenC, 10, 7)), false))
	require.Equal(t, uint256.NewInt(110), pool.WB.Balances[0])
	require.Equal(t, uint256.NewInt(200), pool.WB.Balances[1])
	require.Equal(t, uint256.NewInt(293), pool.WB.Balances[2])
}

// Scenario 6: V3 swap decodes the data-encoded int24 tick (not an indexed
// topic) and overwrites price/liquidity/tick unconditionally, using a
// negative tick to exercise the int24->int32 narrowing of a signed value.
func TestReducer_SwapV3UpdatesPriceLiquidityAndTick(t *testing.T) {
	pool := freshV3Pool(0, 60)
	pool.V3.Liquidity = uint256.NewInt(1000)
	r := New()
	require.NoError(t, r.Apply(pool, ptr(swapV3Log(792281625142643, 4000, -120)), false))

	require.Equal(t, uint256.NewInt(792281625142643), pool.V3.SqrtPriceX)
	require.Equal(t, uint256.NewInt(4000), pool.V3.Liquidity)
	require.Equal(t, int32(-120), pool.V3.Tick)
}

// Scenario 7: out-of-order log reassembly must match strict-order replay.
func TestReducer_OutOfOrderReassemblyMatchesStrictOrder(t *testing.T) {
	logs := []types.Log{
		mintLog(3, 0, 0, -120, 120, 300),
		mintLog(3, 0, 1, -60, 60, 100),
		mintLog(5, 1, 0, -60, 60, 500),
		burnLog(5, 1, 1, -60, 60, 200),
	}

	shuffled := make([]types.Log, len(logs))
	copy(shuffled, logs)
	shuffled[0], shuffled[2] = shuffled[2], shuffled[0]
	sort.SliceStable(shuffled, func(i, j int) bool {
		if shuffled[i].BlockNumber != shuffled[j].BlockNumber {
			return shuffled[i].BlockNumber < shuffled[j].BlockNumber
		}
		if shuffled[i].TxIndex != shuffled[j].TxIndex {
			return shuffled[i].TxIndex < shuffled[j].TxIndex
		}
		return shuffled[i].Index < shuffled[j].Index
	})

	want := freshV3Pool(0, 60)
	got := freshV3Pool(0, 60)
	r := New()
	for _, lg := range logs {
		require.NoError(t, r.Apply(want, ptr(lg), false))
	}
	for _, lg := range shuffled {
		require.NoError(t, r.Apply(got, ptr(lg), false))
	}

	require.Equal(t, want.V3.Liquidity, got.V3.Liquidity)
	require.Equal(t, len(want.V3.Ticks), len(got.V3.Ticks))
	for k, v := range want.V3.Ticks {
		require.Equal(t, v.LiquidityGross, got.V3.Ticks[k].LiquidityGross)
	}
}

// Boundary: Δ bringing gross exactly to zero from non-zero removes the tick
// and clears its bit.
func TestUpdateTick_FlipToExactZeroRemovesTick(t *testing.T) {
	v := &pooltypes.V3Tick{
		TickSpacing: 10,
		TickBitmap:  map[int16]*uint256.Int{},
		Ticks:       map[int32]*pooltypes.TickInfo{},
	}
	updatePosition(v, -10, 10, pooltypes.NewInt128(500))
	updatePosition(v, -10, 10, pooltypes.NewInt128(-500))
	require.Empty(t, v.Ticks)

	wLower, bLower := floorDivMod(-10, 10)
	require.False(t, bitSet(v.TickBitmap[wLower], bLower))
	wUpper, bUpper := floorDivMod(10, 10)
	require.False(t, bitSet(v.TickBitmap[wUpper], bUpper))
}

// Boundary: floor-division of a negative tick index must floor, not
// truncate toward zero.
func TestFloorDivMod_NegativeTick(t *testing.T) {
	word, bit := floorDivMod(-1, 1)
	require.Equal(t, int16(-1), word)
	require.Equal(t, uint8(255), bit)
}

func ptr(lg types.Log) *types.Log { return &lg }

func bitSet(word *uint256.Int, bit uint8) bool {
	if word == nil {
		return false
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bit))
	return !new(uint256.Int).And(word, mask).IsZero()
}
