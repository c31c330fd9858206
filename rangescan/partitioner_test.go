// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rangescan

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptySingleAndMultiRange(t *testing.T) {
	require.Nil(t, Split(10, 5, 10_000))
	require.Equal(t, []SubRange{{From: 5, To: 5}}, Split(5, 5, 10_000))
	require.Equal(t, []SubRange{{From: 1, To: 100}}, Split(1, 100, 10_000))
	require.Equal(t, []SubRange{
		{From: 0, To: 9},
		{From: 10, To: 19},
		{From: 20, To: 25},
	}, Split(0, 25, 10))
}

func TestFetchOrdered_ReassemblesOutOfOrderResults(t *testing.T) {
	ranges := []SubRange{{From: 0, To: 9}, {From: 10, To: 19}}

	fetch := func(ctx context.Context, r SubRange) ([]types.Log, error) {
		if r.From == 0 {
			// Simulate the earlier range's fetch finishing last.
			time.Sleep(20 * time.Millisecond)
			return []types.Log{
				{BlockNumber: 3, TxIndex: 0, Index: 0},
				{BlockNumber: 3, TxIndex: 1, Index: 0},
			}, nil
		}
		return []types.Log{
			{BlockNumber: 15, TxIndex: 0, Index: 0},
		}, nil
	}

	logs, err := FetchOrdered(context.Background(), ranges, 2, fetch)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, uint64(3), logs[0].BlockNumber)
	require.Equal(t, uint64(3), logs[1].BlockNumber)
	require.Equal(t, uint64(15), logs[2].BlockNumber)
	require.Equal(t, uint(0), logs[0].TxIndex)
	require.Equal(t, uint(1), logs[1].TxIndex)
}

func TestFetchOrdered_EmptyRanges(t *testing.T) {
	logs, err := FetchOrdered(context.Background(), nil, 4, func(ctx context.Context, r SubRange) ([]types.Log, error) {
		t.Fatal("fetch should not be called for an empty range list")
		return nil, nil
	})
	require.NoError(t, err)
	require.Nil(t, logs)
}
