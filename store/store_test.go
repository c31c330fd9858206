// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/stretchr/testify/require"
)

func testPool(addr string) pooltypes.Pool {
	return pooltypes.Pool{
		Address: common.HexToAddress(addr),
		Flavor:  pooltypes.FlavorV2Reserve,
		Token0:  common.HexToAddress("0xA0"),
		Token1:  common.HexToAddress("0xB0"),
		V2:      &pooltypes.V2Reserve{Reserve0: uint256.NewInt(1), Reserve1: uint256.NewInt(2)},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pool_sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	pools := []pooltypes.Pool{testPool("0x01"), testPool("0x02")}

	require.NoError(t, s.SaveProgress("ethereum", pooltypes.FlavorV2Reserve, 100, pools))

	last, ok, err := s.LastBlock("ethereum", pooltypes.FlavorV2Reserve)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(100), last)

	loaded, err := s.LoadPools("ethereum", pooltypes.FlavorV2Reserve)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, pools[0].V2.Reserve0, loaded[0].V2.Reserve0)
}

func TestStore_LastBlockAbsentIsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.LastBlock("ethereum", pooltypes.FlavorV3Tick)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_LoadPoolByAddress(t *testing.T) {
	s := openTestStore(t)
	pool := testPool("0x01")
	require.NoError(t, s.SaveProgress("ethereum", pooltypes.FlavorV2Reserve, 1, []pooltypes.Pool{pool}))

	got, ok, err := s.LoadPool("ethereum", pooltypes.FlavorV2Reserve, pool.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pool.Token0, got.Token0)

	_, ok, err = s.LoadPool("ethereum", pooltypes.FlavorV2Reserve, common.HexToAddress("0xFF"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_PrefixIsolatesChainAndFlavor(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveProgress("ethereum", pooltypes.FlavorV2Reserve, 1, []pooltypes.Pool{testPool("0x01")}))
	require.NoError(t, s.SaveProgress("base", pooltypes.FlavorV2Reserve, 1, []pooltypes.Pool{testPool("0x02")}))
	require.NoError(t, s.SaveProgress("ethereum", pooltypes.FlavorV3Tick, 1, []pooltypes.Pool{testPool("0x03")}))

	eth, err := s.LoadPools("ethereum", pooltypes.FlavorV2Reserve)
	require.NoError(t, err)
	require.Len(t, eth, 1)
	require.Equal(t, common.HexToAddress("0x01"), eth[0].Address)
}

func TestStore_ExportImportSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	pools := []pooltypes.Pool{testPool("0x01"), testPool("0x02")}
	require.NoError(t, s.SaveProgress("ethereum", pooltypes.FlavorV2Reserve, 42, pools))

	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, s.ExportSnapshot("ethereum", pooltypes.FlavorV2Reserve, path))

	s2 := openTestStore(t)
	backup, err := s2.ImportSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, uint64(42), backup.LastBlock)

	last, ok, err := s2.LastBlock("ethereum", pooltypes.FlavorV2Reserve)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), last)

	loaded, err := s2.LoadPools("ethereum", pooltypes.FlavorV2Reserve)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}
