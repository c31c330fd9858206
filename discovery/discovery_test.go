// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"context"
	"testing"

	"github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/poolsync/pooltypes"
	"github.com/stretchr/testify/require"
)

type fakeFilterer struct {
	logs []types.Log
}

func (f *fakeFilterer) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var out []types.Log
	lo, hi := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	for _, lg := range f.logs {
		if lg.BlockNumber >= lo && lg.BlockNumber <= hi {
			out = append(out, lg)
		}
	}
	return out, nil
}

func pairCreatedLog(block uint64, pool common.Address) types.Log {
	data := make([]byte, 32)
	copy(data[12:32], pool.Bytes())
	return types.Log{BlockNumber: block, Data: data}
}

func TestDiscover_DeduplicatesAddresses(t *testing.T) {
	pool := common.HexToAddress("0x000000000000000000000000000000000000A1")
	filterer := &fakeFilterer{logs: []types.Log{
		pairCreatedLog(100, pool),
		pairCreatedLog(15_000, pool), // same pool re-emitted in a later window: idempotent
	}}

	desc := pooltypes.FlavorDescriptor{
		Flavor:         pooltypes.FlavorV2Reserve,
		CreationTopic:  common.Hash{0x01},
		ExtractAddress: extractTestAddress,
	}

	d := New(filterer, 10_000, 4)
	addrs, err := d.Discover(context.Background(), common.HexToAddress("0xFACTORY"), desc, 0, 20_000)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	require.Equal(t, pool, addrs[0])
}

func TestDiscover_EmptyRangeYieldsNoAddresses(t *testing.T) {
	filterer := &fakeFilterer{}
	desc := pooltypes.FlavorDescriptor{ExtractAddress: extractTestAddress}
	d := New(filterer, 10_000, 4)
	addrs, err := d.Discover(context.Background(), common.HexToAddress("0xFACTORY"), desc, 0, 0)
	require.NoError(t, err)
	require.Empty(t, addrs)
}

func extractTestAddress(log *types.Log) (common.Address, error) {
	return common.BytesToAddress(log.Data[12:32]), nil
}
